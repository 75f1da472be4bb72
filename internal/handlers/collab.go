package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"

	iauth "github.com/fieldsight/fieldsight/internal/auth"
	"github.com/fieldsight/fieldsight/internal/collab"
)

// CollabHandler upgrades HTTP requests onto the collaboration hub.
type CollabHandler struct {
	hub *collab.Hub
	jwt *iauth.JWTService
}

// NewCollabHandler constructs a CollabHandler.
func NewCollabHandler(hub *collab.Hub, jwt *iauth.JWTService) *CollabHandler {
	return &CollabHandler{hub: hub, jwt: jwt}
}

// Serve upgrades the connection. Identity comes from a `?token=` session
// token when present, otherwise from the request identity; either way
// the client can still re-identify with an in-band auth message.
func (h *CollabHandler) Serve(c *gin.Context) {
	userID := currentUserID(c)
	userName := currentUserName(c)

	if token := strings.TrimSpace(c.Query("token")); token != "" && h.jwt != nil {
		if claims, err := h.jwt.ValidateSessionToken(token); err == nil {
			userID = claims.UserID
			userName = claims.UserName
		}
	}

	h.hub.Serve(c.Writer, c.Request, userID, userName)
}
