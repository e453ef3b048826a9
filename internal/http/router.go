package api

import (
	stdhttp "net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	intconfig "github.com/Pongsakorn-yo/Devpool-wongnok-web-513600/internal/config"
	h "github.com/Pongsakorn-yo/Devpool-wongnok-web-513600/internal/http/handlers"
	"github.com/Pongsakorn-yo/Devpool-wongnok-web-513600/internal/http/middleware"
)

func NewRouter(env intconfig.Env, hd *h.Handler, sessions middleware.SessionResolver, log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.Logger(log),
		gin.Recovery(),
		middleware.CORS(env.CORSAllowedOrigins),
		middleware.LoadSession(sessions),
		middleware.PageGuard(),
	)

	if err := r.SetTrustedProxies(nil); err != nil {
		log.Warn("failed to set trusted proxies", zap.Error(err))
	}

	r.OPTIONS("/*path", func(c *gin.Context) { c.AbortWithStatus(stdhttp.StatusNoContent) })

	r.NoRoute(staticOr404(env.StaticDir))

	// Auth pages
	r.GET("/auth/signin", hd.SignIn)
	r.GET("/auth/signed-out", hd.SignedOut)

	api := r.Group("/api")
	{
		api.GET("/health", h.Health)
		api.GET("/ready", hd.Ready)
		api.GET("/routes", hd.Routes)

		// Auth
		auth := api.Group("/auth")
		auth.GET("/signin", hd.SignIn)
		auth.GET("/callback/keycloak", hd.Callback)
		auth.GET("/session", hd.Session)
		auth.GET("/keycloak/logout", hd.Logout)

		v1 := api.Group("/v1")
		v1.GET("/events", hd.Events)

		// Recipes
		recipes := v1.Group("/food-recipes")
		recipes.GET("", hd.ListRecipes)
		recipes.POST("", hd.CreateRecipe)
		recipes.GET("/favorites", hd.ListFavorites)
		recipes.GET("/favorites/export", hd.ExportFavorites)
		recipes.GET("/:id", hd.GetRecipe)
		recipes.PUT("/:id", hd.UpdateRecipe)
		recipes.DELETE("/:id", hd.DeleteRecipe)
		recipes.POST("/:id/favorites", hd.CreateFavorite)
		recipes.DELETE("/:id/favorites", hd.DeleteFavorite)
		recipes.GET("/:id/ratings", hd.ListRatings)
		recipes.POST("/:id/ratings", hd.CreateRating)

		// Users
		users := v1.Group("/users")
		users.GET("/", hd.GetMe)
		users.POST("/", hd.UpsertMe)
		users.PUT("/", hd.UpdateMe)
		users.GET("/:id/food-recipes", hd.ListUserRecipes)
	}

	hd.Attach(r)
	return r
}

// staticOr404 serves files from dir for non-API GETs; everything else is a
// JSON 404.
func staticOr404(dir string) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := c.Request.URL.Path
		if dir != "" && c.Request.Method == stdhttp.MethodGet && !strings.HasPrefix(p, "/api/") {
			name := filepath.Join(dir, filepath.FromSlash(filepath.Clean("/"+p)))
			if st, err := os.Stat(name); err == nil && !st.IsDir() {
				c.File(name)
				return
			}
			if index := filepath.Join(dir, "index.html"); fileExists(index) {
				c.File(index)
				return
			}
		}
		c.JSON(stdhttp.StatusNotFound, gin.H{
			"error":  "route not found",
			"path":   p,
			"method": c.Request.Method,
		})
	}
}

func fileExists(name string) bool {
	st, err := os.Stat(name)
	return err == nil && !st.IsDir()
}
