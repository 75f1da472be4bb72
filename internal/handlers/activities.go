package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fieldsight/fieldsight/internal/services"
	"github.com/fieldsight/fieldsight/pkg/response"
)

// ActivityHandler exposes the audit trail.
type ActivityHandler struct {
	service *services.ActivityService
}

// NewActivityHandler constructs an ActivityHandler.
func NewActivityHandler(service *services.ActivityService) *ActivityHandler {
	return &ActivityHandler{service: service}
}

// List returns audit entries, filterable by entity and actor.
func (h *ActivityHandler) List(c *gin.Context) {
	activities, err := h.service.List(requestContext(c), services.ListActivitiesInput{
		EntityType: c.Query("entity_type"),
		EntityID:   c.Query("entity_id"),
		ActorID:    c.Query("actor_id"),
		Limit:      parseIntQuery(c, "limit", 50),
		Offset:     parseIntQuery(c, "offset", 0),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, activities)
}
