package api

import (
	"github.com/gin-gonic/gin"

	"github.com/fieldsight/fieldsight/internal/handlers"
)

func registerAuthRoutes(api *gin.RouterGroup, handler *handlers.AuthHandler) {
	auth := api.Group("/auth")
	{
		auth.POST("/session", handler.CreateSession)
	}
}
