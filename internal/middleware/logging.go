package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/zubari-ai/studyaid/internal/logging"
	"github.com/zubari-ai/studyaid/internal/metrics"
)

// RequestIDHeader carries the request id in and out
const RequestIDHeader = "X-Request-ID"

// Logger middleware logs request details and echoes a request id
func Logger(logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(RequestIDHeader, requestID)

		c.Next()

		log := logger.WithRequestID(requestID)
		if userID, ok := GetUserID(c); ok {
			log = log.WithUserID(userID)
		}
		log.LogHTTPRequest(c.Request.Method, c.Request.URL.Path, c.ClientIP(), c.Writer.Status(), time.Since(start))
	}
}

// Metrics records request counts and latency per route template
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		metrics.RecordHTTPRequest(c.Request.Method, endpoint, strconv.Itoa(c.Writer.Status()), time.Since(start).Seconds())
	}
}
