package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	ServiceName    = "Participa DF - API Mock"
	ServiceVersion = "1.0.0"
)

type HealthHandler struct {
	now func() time.Time
}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{now: time.Now}
}

// Health answers GET /api/health
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"service":   ServiceName,
		"version":   ServiceVersion,
		"timestamp": h.now().UTC().Format(time.RFC3339),
	})
}
