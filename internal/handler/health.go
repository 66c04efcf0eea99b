package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/xzero11x/ferreteria-api-sub000/internal/infra"
	"github.com/xzero11x/ferreteria-api-sub000/internal/worker"
)

// Health reports DB and Redis connectivity plus the SUNAT circuit state
// and the emission dead-letter backlog. An open circuit or a nonzero
// backlog does not degrade the health status: sales keep flowing while
// emission retries in the background.
func Health(db *gorm.DB, rdb *redis.Client, cb *infra.CircuitBreaker, dispatcher *worker.Dispatcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		dbStatus := "connected"
		sqlDB, err := db.DB()
		if err != nil || sqlDB.PingContext(ctx) != nil {
			dbStatus = "error"
		}

		redisStatus := "connected"
		if rdb.Ping(ctx).Err() != nil {
			redisStatus = "error"
		}

		status := http.StatusOK
		if dbStatus != "connected" || redisStatus != "connected" {
			status = http.StatusServiceUnavailable
		}

		dlqLen, err := dispatcher.DLQEmisionLen(ctx)
		if err != nil {
			dlqLen = -1
		}

		c.JSON(status, gin.H{
			"ok":            status == http.StatusOK,
			"db":            dbStatus,
			"redis":         redisStatus,
			"sunat_circuit": cb.State().String(),
			"emision_dlq":   dlqLen,
		})
	}
}
