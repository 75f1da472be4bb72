package api

import (
	"github.com/gin-gonic/gin"

	"github.com/fieldsight/fieldsight/internal/handlers"
)

func registerScheduleRoutes(api *gin.RouterGroup, handler *handlers.ScheduleHandler) {
	api.POST("/team-schedules", handler.Create)
	api.GET("/team-schedules/:id", handler.Get)

	schedules := api.Group("/schedules")
	{
		schedules.PATCH("/:id", handler.Update)
		schedules.POST("/:id/assignments/:userID/respond", handler.Respond)
	}
}
