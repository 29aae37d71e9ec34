package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/folio/observability"
)

// Metrics records request counts and latency per gin route template, so
// /api/projects/:slug is one series however many slugs are requested.
func Metrics(m *observability.HTTPMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		start := time.Now()
		m.RequestStarted(ctx)

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.RequestFinished(ctx, c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
