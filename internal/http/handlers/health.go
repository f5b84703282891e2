package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/lvflow-backend/internal/http/response"
)

// Pinger reports whether a dependency is reachable.
type Pinger func(ctx context.Context) error

type HealthHandler struct {
	ready Pinger
}

func NewHealthHandler(ready Pinger) *HealthHandler { return &HealthHandler{ready: ready} }

// GET /health/ready
func (h *HealthHandler) Ready(c *gin.Context) {
	if h.ready != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.ready(ctx); err != nil {
			response.RespondError(c, http.StatusServiceUnavailable, "not_ready", err)
			return
		}
	}
	response.RespondOK(c, gin.H{"status": "ok"})
}

// GET /health/live
func (h *HealthHandler) Live(c *gin.Context) {
	response.RespondOK(c, gin.H{"status": "alive"})
}
