package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Pongsakorn-yo/Devpool-wongnok-web-513600/internal/events"
	"github.com/Pongsakorn-yo/Devpool-wongnok-web-513600/internal/http/middleware"
	"github.com/Pongsakorn-yo/Devpool-wongnok-web-513600/internal/proxy"
)

const recipesPath = "/api/v1/food-recipes"

// forward relays the call and writes the transport-failure response itself.
// ok is false when nothing came back.
func (h *Handler) forward(c *gin.Context, action, path string, body []byte) (proxy.Response, bool) {
	res, err := h.Forwarder.Forward(c.Request.Context(), proxy.Request{
		Method:        c.Request.Method,
		Path:          path,
		RawQuery:      c.Request.URL.RawQuery,
		Body:          body,
		Authorization: middleware.Authorization(c),
		RequestID:     middleware.GetRequestID(c),
	})
	if err != nil {
		h.log().Error("upstream call failed",
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.String("action", action),
			zap.String("path", path),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to " + action})
		return proxy.Response{}, false
	}
	return res, true
}

// relay copies status, content type and body verbatim.
func relay(c *gin.Context, res proxy.Response) {
	c.Data(res.Status, res.ContentType, res.Body)
}

func readBody(c *gin.Context) ([]byte, error) {
	if c.Request.Body == nil {
		return nil, nil
	}
	return io.ReadAll(io.LimitReader(c.Request.Body, 10<<20))
}

// ListRecipes is strict: any backend failure reads as 500.
func (h *Handler) ListRecipes(c *gin.Context) {
	res, ok := h.forward(c, "fetch from backend", recipesPath, nil)
	if !ok {
		return
	}
	if !res.OK() {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch from backend"})
		return
	}
	c.Data(http.StatusOK, res.ContentType, res.Body)
}

func (h *Handler) CreateRecipe(c *gin.Context) {
	body, err := readBody(c)
	if err != nil || !json.Valid(body) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON body"})
		return
	}
	res, ok := h.forward(c, "create recipe", recipesPath, body)
	if !ok {
		return
	}
	if !res.OK() {
		c.JSON(res.Status, gin.H{"error": "Failed to create recipe", "details": string(res.Body)})
		return
	}
	c.Data(http.StatusCreated, res.ContentType, res.Body)
}

func recipePath(c *gin.Context, suffix string) string {
	return recipesPath + "/" + url.PathEscape(c.Param("id")) + suffix
}

func (h *Handler) GetRecipe(c *gin.Context) {
	if res, ok := h.forward(c, "fetch recipe", recipePath(c, ""), nil); ok {
		relay(c, res)
	}
}

func (h *Handler) UpdateRecipe(c *gin.Context) {
	body, err := readBody(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON body"})
		return
	}
	if res, ok := h.forward(c, "update recipe", recipePath(c, ""), body); ok {
		relay(c, res)
	}
}

func (h *Handler) DeleteRecipe(c *gin.Context) {
	if res, ok := h.forward(c, "delete recipe", recipePath(c, ""), nil); ok {
		relay(c, res)
	}
}

func (h *Handler) ListFavorites(c *gin.Context) {
	if res, ok := h.forward(c, "fetch favorites", recipesPath+"/favorites", nil); ok {
		relay(c, res)
	}
}

func (h *Handler) CreateFavorite(c *gin.Context) {
	h.toggleFavorite(c, "add favorite", events.ActionCreated)
}

func (h *Handler) DeleteFavorite(c *gin.Context) {
	h.toggleFavorite(c, "remove favorite", events.ActionDeleted)
}

// toggleFavorite relays the change and, once the backend accepts it, tells
// every open view of the same user.
func (h *Handler) toggleFavorite(c *gin.Context, action string, kind events.Action) {
	res, ok := h.forward(c, action, recipePath(c, "/favorites"), nil)
	if !ok {
		return
	}
	relay(c, res)
	if !res.OK() || h.Bus == nil {
		return
	}
	ev := events.FavoriteChanged{ID: c.Param("id"), Action: kind}
	if sess, ok := middleware.CurrentSession(c); ok {
		ev.UserID = sess.UserID
	}
	h.Bus.FavoriteChanged.Publish(ev)
}

func (h *Handler) ListRatings(c *gin.Context) {
	if res, ok := h.forward(c, "fetch ratings", recipePath(c, "/ratings"), nil); ok {
		relay(c, res)
	}
}

// CreateRating is lenient about the body: anything unparsable is sent as {}
// and the backend validates.
func (h *Handler) CreateRating(c *gin.Context) {
	body, err := readBody(c)
	if err != nil || !json.Valid(body) {
		body = []byte("{}")
	}
	if res, ok := h.forward(c, "create rating", recipePath(c, "/ratings"), body); ok {
		relay(c, res)
	}
}
