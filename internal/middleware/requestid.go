package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	HeaderXRequestID = "X-Request-ID"
	ContextRequestID = "request_id"
)

// RequestID tags every request with a UUID and echoes it in the response
// header so a customer-reported failure can be matched to its log lines. An
// inbound X-Request-ID is honored only when it is itself a UUID; anything
// else is replaced rather than propagated into the logs.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(HeaderXRequestID)
		if _, err := uuid.Parse(rid); err != nil {
			rid = uuid.New().String()
		}

		c.Set(ContextRequestID, rid)
		c.Header(HeaderXRequestID, rid)
		c.Next()
	}
}

// RequestIDFromContext returns the ID assigned by RequestID, or "" when the
// middleware did not run.
func RequestIDFromContext(c *gin.Context) string {
	return c.GetString(ContextRequestID)
}
