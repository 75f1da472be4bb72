package api

import (
	"github.com/gin-gonic/gin"

	"github.com/fieldsight/fieldsight/internal/handlers"
)

func registerInspectionRoutes(api *gin.RouterGroup, handler *handlers.InspectionHandler) {
	inspections := api.Group("/inspections")
	{
		inspections.POST("", handler.Create)
		inspections.GET("", handler.List)
		inspections.GET("/:id", handler.Get)
		inspections.PATCH("/:id", handler.Update)
		inspections.DELETE("/:id", handler.Delete)
		inspections.POST("/:id/breaches", handler.AddBreach)
	}
	api.PATCH("/breaches/:id", handler.UpdateBreach)
}
