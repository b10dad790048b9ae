package routes

import (
	"github.com/kdange/portfolio/internal/api/handlers"

	"github.com/gin-gonic/gin"
)

func SetupPageRoutes(router *gin.Engine, page *handlers.PageHandler) {
	router.GET("/", page.Index)
}
