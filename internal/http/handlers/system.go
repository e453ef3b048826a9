package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Check probes one dependency (mysql, redis).
type Check func(ctx context.Context) error

func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready runs every registered check; one failure makes the gateway not ready.
func (h *Handler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	names := make([]string, 0, len(h.Checks))
	for name := range h.Checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := http.StatusOK
	out := gin.H{}
	for _, name := range names {
		if err := h.Checks[name](ctx); err != nil {
			status = http.StatusServiceUnavailable
			out[name] = err.Error()
			h.log().Warn("readiness check failed", zap.String("check", name), zap.Error(err))
			continue
		}
		out[name] = "ok"
	}
	c.JSON(status, gin.H{"ready": status == http.StatusOK, "checks": out})
}

// Routes lists the registered routes; set by the router once built.
func (h *Handler) Routes(c *gin.Context) {
	if h.engine == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "router not ready"})
		return
	}
	routes := h.engine.Routes()
	out := make([]gin.H, 0, len(routes))
	for _, rt := range routes {
		out = append(out, gin.H{"method": rt.Method, "path": rt.Path})
	}
	c.JSON(http.StatusOK, gin.H{"routes": out})
}

// Attach records the engine serving h.
func (h *Handler) Attach(r *gin.Engine) {
	h.engine = r
}
