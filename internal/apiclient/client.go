package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Pongsakorn-yo/Devpool-wongnok-web-513600/internal/domain"
	"go.uber.org/zap"
)

// Client talks to the recipe API. It never retries.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Tokens  TokenProvider
	Log     *zap.Logger
}

func New(baseURL string, tokens TokenProvider, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 15 * time.Second},
		Tokens:  tokens,
		Log:     log,
	}
}

// WithTokens returns a copy of c that authenticates with tokens.
func (c *Client) WithTokens(tokens TokenProvider) *Client {
	cp := *c
	cp.Tokens = tokens
	return &cp
}

type listEnvelope struct {
	Results []domain.RecipeSummary `json:"results"`
	Total   int                    `json:"total"`
}

func (e listEnvelope) toResult() domain.ListResult {
	items := e.Results
	if items == nil {
		items = []domain.RecipeSummary{}
	}
	return domain.ListResult{Items: items, Total: e.Total}
}

// ListRecipes fetches one page of all recipes.
func (c *Client) ListRecipes(ctx context.Context, q domain.PageQuery) (domain.ListResult, error) {
	var env listEnvelope
	if err := c.do(ctx, http.MethodGet, "/api/v1/food-recipes", pageValues(q), nil, &env); err != nil {
		return domain.ListResult{}, err
	}
	return env.toResult(), nil
}

// ListFavorites fetches one page of the caller's favorite recipes.
func (c *Client) ListFavorites(ctx context.Context, q domain.PageQuery) (domain.ListResult, error) {
	var env listEnvelope
	if err := c.do(ctx, http.MethodGet, "/api/v1/food-recipes/favorites", pageValues(q), nil, &env); err != nil {
		return domain.ListResult{}, err
	}
	return env.toResult(), nil
}

func (c *Client) GetRecipe(ctx context.Context, id domain.ID) (domain.RecipeDetails, error) {
	var out domain.RecipeDetails
	err := c.do(ctx, http.MethodGet, "/api/v1/food-recipes/"+url.PathEscape(id.String()), nil, nil, &out)
	return out, err
}

func (c *Client) CreateFavorite(ctx context.Context, id domain.ID) error {
	return c.do(ctx, http.MethodPost, favoritesPath(id), nil, nil, nil)
}

func (c *Client) DeleteFavorite(ctx context.Context, id domain.ID) error {
	return c.do(ctx, http.MethodDelete, favoritesPath(id), nil, nil, nil)
}

// CreateRating scores a recipe from 1 to 5.
func (c *Client) CreateRating(ctx context.Context, id domain.ID, score int) (domain.Rating, error) {
	if score < 1 || score > 5 {
		return domain.Rating{}, domain.ValidationError{Field: "score", Msg: "must be between 1 and 5"}
	}
	var out domain.Rating
	path := "/api/v1/food-recipes/" + url.PathEscape(id.String()) + "/ratings"
	err := c.do(ctx, http.MethodPost, path, nil, map[string]int{"score": score}, &out)
	return out, err
}

// GetMe returns the user behind the current token.
func (c *Client) GetMe(ctx context.Context) (domain.User, error) {
	var out domain.User
	err := c.do(ctx, http.MethodGet, "/api/v1/users/", nil, nil, &out)
	return out, err
}

// UpsertMe creates or refreshes the user behind the current token. Idempotent.
func (c *Client) UpsertMe(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/v1/users/", nil, struct{}{}, nil)
}

// ProfileUpdate is the editable part of a user profile.
type ProfileUpdate struct {
	NickName string `json:"nickName"`
	ImageURL string `json:"imageUrl"`
}

func (c *Client) UpdateMe(ctx context.Context, in ProfileUpdate) (domain.User, error) {
	var out domain.User
	err := c.do(ctx, http.MethodPut, "/api/v1/users/", nil, in, &out)
	return out, err
}

// ListUserRecipes lists recipes owned by userID ("self" when empty). A first
// failure upserts the user once and retries once; a second failure yields an
// empty list.
func (c *Client) ListUserRecipes(ctx context.Context, userID string) []domain.RecipeSummary {
	if userID == "" {
		userID = "self"
	}
	path := "/api/v1/users/" + url.PathEscape(userID) + "/food-recipes"

	var env listEnvelope
	err := c.do(ctx, http.MethodGet, path, nil, nil, &env)
	if err == nil {
		return env.toResult().Items
	}

	if err := c.UpsertMe(ctx); err != nil {
		c.Log.Error("upsert user before recipe retry", zap.Error(err))
		return []domain.RecipeSummary{}
	}
	env = listEnvelope{}
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &env); err != nil {
		c.Log.Error("list user recipes after upsert", zap.Error(err), zap.String("user_id", userID))
		return []domain.RecipeSummary{}
	}
	return env.toResult().Items
}

func favoritesPath(id domain.ID) string {
	return "/api/v1/food-recipes/" + url.PathEscape(id.String()) + "/favorites"
}

func pageValues(q domain.PageQuery) url.Values {
	q = q.Normalize()
	v := url.Values{}
	v.Set("page", strconv.Itoa(q.Page))
	v.Set("limit", strconv.Itoa(q.Limit))
	v.Set("search", q.Search)
	return v
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	target := c.BaseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Tokens != nil {
		token, err := c.Tokens.Token(ctx)
		if err != nil {
			// proceed without a token, the backend decides
			c.Log.Warn("token lookup failed", zap.Error(err))
		} else if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s %s: %w", method, path, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return domain.UnauthorizedError{Msg: "recipe api rejected the token", Err: domain.UpstreamError{Status: resp.StatusCode, Body: string(raw)}}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return domain.UpstreamError{Status: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}
