package api

import (
	"github.com/gin-gonic/gin"

	"github.com/fieldsight/fieldsight/internal/handlers"
)

func registerNotificationRoutes(api *gin.RouterGroup, handler *handlers.NotificationHandler) {
	notifications := api.Group("/notifications")
	{
		notifications.GET("", handler.List)
		notifications.POST("/read-all", handler.MarkAllRead)
		notifications.PATCH("/:id/read", handler.MarkRead)
		notifications.DELETE("/:id", handler.Delete)
	}

	api.GET("/users/:id/notifications", handler.ListForUser)
	api.GET("/users/:id/notifications/unread", handler.ListUnreadForUser)
}
