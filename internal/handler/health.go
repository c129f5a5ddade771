package handler

import (
	"context"
	"net/http"
	"time"

	"cobrofacil/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// BreakerState is satisfied by infra.CircuitBreaker.
type BreakerState interface {
	Name() string
	State() string
}

// Health returns a JSON health check response.
// Checks DB and Redis connectivity and reports collaborator breakers and the
// report dead letter backlog. Never exposes credentials or internals. An open
// breaker or a non-empty DLQ does not make the service unhealthy.
func Health(db *gorm.DB, rdb *redis.Client, breakers ...BreakerState) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		dbStatus := "connected"
		sqlDB, err := db.DB()
		if err != nil || sqlDB.PingContext(ctx) != nil {
			dbStatus = "error"
		}

		redisStatus := "connected"
		var dlq int64
		if rdb.Ping(ctx).Err() != nil {
			redisStatus = "error"
		} else if n, err := worker.DLQLength(ctx, rdb, worker.QueueReportes); err == nil {
			dlq = n
		}

		status := http.StatusOK
		if dbStatus != "connected" || redisStatus != "connected" {
			status = http.StatusServiceUnavailable
		}

		cbs := gin.H{}
		for _, b := range breakers {
			cbs[b.Name()] = b.State()
		}

		c.JSON(status, gin.H{
			"ok":           status == http.StatusOK,
			"db":           dbStatus,
			"redis":        redisStatus,
			"breakers":     cbs,
			"dlq_reportes": dlq,
		})
	}
}
