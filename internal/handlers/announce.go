package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/fieldsight/fieldsight/internal/collab"
)

// announce pushes a generic update event onto an entity's collaboration
// key so open collaborators refresh. Best-effort: never coupled to the
// success of the REST write that triggered it.
func announce(c *gin.Context, hub *collab.Hub, entity, entityID string) {
	if hub == nil || entityID == "" {
		return
	}
	hub.Broadcast(entity, entityID, collab.Message{
		Type:     collab.TypeBroadcast,
		Action:   "update",
		UserID:   currentUserID(c),
		UserName: currentUserName(c),
	})
}
