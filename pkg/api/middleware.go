package api

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/telekom/k8s-dashboard/pkg/audit"
	"github.com/telekom/k8s-dashboard/pkg/metrics"
	"github.com/telekom/k8s-dashboard/pkg/system"
)

// RequestIDHeader carries the correlation id of a request. A missing header
// gets a fresh id, echoed in the response.
const RequestIDHeader = "X-Request-ID"

// requestContext attaches the audit actor and a request-scoped logger.
func requestContext(log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(RequestIDHeader, id)

		ctx := audit.WithRequest(c.Request.Context(), audit.RequestContext{
			Actor: audit.Actor{
				SourceIP:  c.ClientIP(),
				UserAgent: c.Request.UserAgent(),
			},
			CorrelationID: id,
		})
		c.Request = c.Request.WithContext(ctx)
		c.Set(system.ReqLoggerKey, log.With("request_id", id))
		c.Next()
	}
}

// instrumented counts API requests by route template and status.
func instrumented() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.APIEndpointRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}
