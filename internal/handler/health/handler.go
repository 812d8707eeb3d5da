package health

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
)

const version = "1.0.0"

type Handler struct {
	db *sqlx.DB
}

func NewHandler(db *sqlx.DB) *Handler {
	return &Handler{
		db: db,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/", h.HealthCheck)
}

// HealthCheck reports service liveness plus database connectivity.
func (h *Handler) HealthCheck(c *gin.Context) {
	database := "connected"
	if err := h.db.Ping(); err != nil {
		database = "disconnected"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"version":   version,
		"database":  database,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
