package api

import (
	"github.com/gin-gonic/gin"

	"github.com/fieldsight/fieldsight/internal/handlers"
)

func registerActivityRoutes(api *gin.RouterGroup, handler *handlers.ActivityHandler) {
	api.GET("/activities", handler.List)
}
