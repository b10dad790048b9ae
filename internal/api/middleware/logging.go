package middleware

import (
	"time"

	"github.com/kdange/portfolio/internal/api/constants"
	"github.com/kdange/portfolio/internal/logging"
	"github.com/kdange/portfolio/internal/utils"

	"github.com/gin-gonic/gin"
)

// RequestLogger writes one access line per request when LOG_REQUESTS is on
func RequestLogger(logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path = path + "?" + raw
		}

		c.Next()

		logger.LogHTTPRequest(
			c.GetString(constants.ContextKeyRequestID),
			c.Request.Method,
			path,
			utils.GetRealIP(c),
			c.Writer.Status(),
			c.Writer.Size(),
			time.Since(start).String(),
		)
	}
}
