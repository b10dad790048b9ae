package utils

import (
	"github.com/kdange/portfolio/internal/api/constants"
	"github.com/kdange/portfolio/internal/api/dto/common"
	"github.com/kdange/portfolio/internal/logging"

	"github.com/gin-gonic/gin"
)

// HandleAPIError logs the failure with its cause and aborts with a generic
// message. The cause never reaches the client.
func HandleAPIError(c *gin.Context, err error, status int, message string) {
	logger := logging.GetGlobalLogger()
	logger.LogHTTPError(
		c.GetString(constants.ContextKeyRequestID),
		c.Request.Method,
		c.Request.URL.Path,
		GetRealIP(c),
		status,
		message,
		err,
	)

	c.AbortWithStatusJSON(status, common.NewErrorResponse(message))
}
