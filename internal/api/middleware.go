package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"optionflow/internal/logging"
)

// requestLogger logs every request through logging.LogAPICall.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		var err error
		if len(c.Errors) > 0 {
			err = c.Errors.Last()
		}
		logging.LogAPICall(s.logger, c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start), err)
	}
}

// rateLimit rejects requests beyond the configured token bucket.
func (s *Server) rateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, errorResponse{Error: "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
