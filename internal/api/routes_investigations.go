package api

import (
	"github.com/gin-gonic/gin"

	"github.com/fieldsight/fieldsight/internal/handlers"
)

func registerInvestigationRoutes(api *gin.RouterGroup, handler *handlers.InvestigationHandler, briefs *handlers.BriefHandler) {
	investigations := api.Group("/investigations")
	{
		investigations.POST("", handler.Create)
		investigations.GET("", handler.List)
		investigations.GET("/:id", handler.Get)
		investigations.PATCH("/:id", handler.Update)
		investigations.POST("/:id/offences", handler.AddOffence)
		investigations.POST("/:id/evidence", handler.AddEvidence)
		investigations.GET("/:id/brief", briefs.GetForInvestigation)
	}
	api.POST("/offences/:id/burdens", handler.AddBurden)
	api.PATCH("/burdens/:id", handler.UpdateBurden)

	briefGroup := api.Group("/briefs")
	{
		briefGroup.POST("", briefs.Create)
		briefGroup.GET("/:id", briefs.Get)
		briefGroup.PATCH("/:id", briefs.Update)
	}
}
