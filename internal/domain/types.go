package domain

// ID identifies recipes and favorites. The backend uses numeric ids but the
// gateway treats them as opaque strings.
type ID string

// CookingDuration and Difficulty are backend lookup rows.
type CookingDuration struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type Difficulty struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Favorite is the caller's favorite marker on a recipe. ID 0 means absent.
type Favorite struct {
	ID           int    `json:"id"`
	FoodRecipeID int    `json:"foodRecipeID"`
	UserID       string `json:"UserID"`
}

// Rating is the caller's own rating on a recipe. Score 0 means not rated.
type Rating struct {
	ID           int    `json:"id"`
	FoodRecipeID int    `json:"foodRecipeID"`
	Score        int    `json:"score"`
	UserID       string `json:"UserID"`
}

type User struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	ImageURL  string `json:"imageUrl"`
	NickName  string `json:"nickName"`
}

// DisplayName prefers the nickname over the real name.
func (u User) DisplayName() string {
	if u.NickName != "" {
		return u.NickName
	}
	name := u.FirstName
	if u.LastName != "" {
		if name != "" {
			name += " "
		}
		name += u.LastName
	}
	return name
}

// RecipeSummary is one card in a recipe list.
type RecipeSummary struct {
	ID              ID              `json:"id"`
	Name            string          `json:"name"`
	ImageURL        string          `json:"imageUrl"`
	Description     string          `json:"description"`
	CookingDuration CookingDuration `json:"cookingDuration"`
	Difficulty      Difficulty      `json:"difficulty"`
	Favorite        Favorite        `json:"favorite"`
	Rating          Rating          `json:"rating"`
	User            User            `json:"user"`
	AverageRating   *float64        `json:"averageRating,omitempty"`
}

// IsFavorite reports whether the favorite marker is present.
func (r RecipeSummary) IsFavorite() bool {
	return r.Favorite.ID != 0
}

// RecipeDetails is the full recipe as shown on the details page.
type RecipeDetails struct {
	RecipeSummary
	Ingredient  string `json:"ingredient"`
	Instruction string `json:"instruction"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
}

// ListResult is one fetched page plus the count across all pages.
type ListResult struct {
	Items []RecipeSummary
	Total int
}

// RequestContext carries the authenticated caller when available.
type RequestContext struct {
	UserID string `json:"userId"`
}
