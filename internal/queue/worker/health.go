package worker

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthHandler serves /healthz, /readyz and /metrics for the worker process.
// ping checks the database; it may be nil.
func (w *Worker) HealthHandler(ping func(ctx context.Context) error, metrics http.Handler) http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())

	// liveness: process is up
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// readiness: polling and the database is reachable
	r.GET("/readyz", func(c *gin.Context) {
		if !w.isReady() {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready"})
			return
		}

		if ping != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 500*time.Millisecond)
			defer cancel()

			if err := ping(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db_unavailable"})
				return
			}
		}

		s := w.metrics.Snapshot()
		c.JSON(http.StatusOK, gin.H{
			"status":  "ready",
			"claimed": s.Claimed,
			"done":    s.Done,
			"failed":  s.Failed,
			"retried": s.Retried,
			"byType":  s.ByType,
		})
	})

	if metrics != nil {
		r.GET("/metrics", gin.WrapH(metrics))
	}

	return r
}
