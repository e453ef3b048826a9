package handlers

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Pongsakorn-yo/Devpool-wongnok-web-513600/internal/events"
	"github.com/Pongsakorn-yo/Devpool-wongnok-web-513600/internal/http/middleware"
)

const keepAlive = 25 * time.Second

// Events streams the caller's favorite changes as server-sent events so other
// open tabs can drop stale favorite markers.
func (h *Handler) Events(c *gin.Context) {
	sess, ok := middleware.CurrentSession(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "sign in to subscribe", nil)
		return
	}
	if h.Bus == nil {
		RespondError(c, http.StatusServiceUnavailable, "events are not enabled", nil)
		return
	}

	ch := make(chan events.FavoriteChanged, 16)
	unsub := h.Bus.FavoriteChanged.Subscribe(func(ev events.FavoriteChanged) {
		if ev.UserID != sess.UserID {
			return
		}
		select {
		case ch <- ev:
		default:
			h.log().Warn("sse client is slow, dropping event", zap.String("user_id", sess.UserID))
		}
	})
	defer unsub()

	ticker := time.NewTicker(keepAlive)
	defer ticker.Stop()

	// the server-wide write timeout would cut the stream
	_ = http.NewResponseController(c.Writer).SetWriteDeadline(time.Time{})

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.SSEvent("ready", gin.H{"userId": sess.UserID})
	c.Writer.Flush()

	ctx := c.Request.Context()
	c.Stream(func(io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case ev := <-ch:
			c.SSEvent("favorite", ev)
			return true
		case <-ticker.C:
			c.SSEvent("ping", time.Now().Unix())
			return true
		}
	})
}
