package api

import (
	"github.com/gin-gonic/gin"

	"github.com/fieldsight/fieldsight/internal/handlers"
)

func registerTeamRoutes(api *gin.RouterGroup, handler *handlers.TeamHandler, schedules *handlers.ScheduleHandler) {
	teams := api.Group("/teams")
	{
		teams.POST("", handler.Create)
		teams.GET("", handler.List)
		teams.GET("/:id", handler.Get)
		teams.POST("/:id/members", handler.AddMember)
		teams.DELETE("/:id/members/:userID", handler.RemoveMember)
		teams.GET("/:id/members", handler.ListMembers)
		teams.GET("/:id/schedules", schedules.ListForTeam)
	}
}
