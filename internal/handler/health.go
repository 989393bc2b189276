package handler

import (
	"net/http"
	"time"

	"github.com/Streamly-Media/accounts/internal/constants"
	"github.com/Streamly-Media/accounts/pkg/redis"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// HealthHandler reports liveness of the service and its backing stores.
type HealthHandler struct {
	db    *gorm.DB
	redis *redis.Client
}

func NewHealthHandler(db *gorm.DB, redisClient *redis.Client) *HealthHandler {
	return &HealthHandler{db: db, redis: redisClient}
}

type healthStatus struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks"`
}

// Health handles GET /api/health.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx := c.Request.Context()

	status := healthStatus{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
		Checks:    make(map[string]string),
	}

	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		status.Status = "degraded"
		status.Checks["database"] = "down"
	} else {
		status.Checks["database"] = "up"
	}

	if h.redis.IsEnabled() {
		if err := h.redis.Ping(ctx); err != nil {
			status.Checks["redis"] = "down"
		} else {
			status.Checks["redis"] = "up"
		}
	} else {
		status.Checks["redis"] = "disabled"
	}

	// The cache is optional; only the database takes the service down.
	code := http.StatusOK
	if status.Status != "ok" {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, constants.NewResponse(code, status, "health check"))
}
