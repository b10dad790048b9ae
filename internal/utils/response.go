package utils

import (
	"net/http"

	"github.com/kdange/portfolio/internal/api/dto/common"

	"github.com/gin-gonic/gin"
)

// HandleSuccess sends a success response with a message
func HandleSuccess(c *gin.Context, message string) {
	c.JSON(http.StatusOK, common.NewSuccessResponse(message))
}

// HandleData sends a success response with a message and data
func HandleData(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, common.NewDataResponse(message, data))
}
