package handlers

import (
	"context"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/uniconnect/backend/internal/cache"
	"github.com/uniconnect/backend/internal/database"
)

// Health reports database and cache reachability. The cache is optional, so
// only a database failure makes the service unhealthy.
// GET /health
func (h *Handlers) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	body := gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
		"service":   "uniconnect-backend",
	}

	if err := database.Health(h.db); err != nil {
		status = http.StatusServiceUnavailable
		body["status"] = "degraded"
		body["database"] = err.Error()
	} else {
		body["database"] = "ok"
	}

	switch err := h.cache.Ping(ctx); {
	case err == nil:
		body["cache"] = "ok"
	case stderrors.Is(err, cache.ErrDisabled):
		body["cache"] = "disabled"
	default:
		body["cache"] = err.Error()
	}

	if h.hub != nil {
		body["websocket"] = h.hub.GetStats()
	}

	c.JSON(status, body)
}
