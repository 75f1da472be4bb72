package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	iauth "github.com/fieldsight/fieldsight/internal/auth"
	"github.com/fieldsight/fieldsight/internal/database"
	"github.com/fieldsight/fieldsight/internal/models"
	apperrors "github.com/fieldsight/fieldsight/pkg/errors"
	"github.com/fieldsight/fieldsight/pkg/response"
)

// AuthHandler issues demo session tokens. There is no credential check:
// every session identifies the seeded demo officer.
type AuthHandler struct {
	db  *gorm.DB
	jwt *iauth.JWTService
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(db *gorm.DB, jwt *iauth.JWTService) *AuthHandler {
	return &AuthHandler{db: db, jwt: jwt}
}

// CreateSession returns a signed session token plus the demo officer
// profile.
func (h *AuthHandler) CreateSession(c *gin.Context) {
	var user models.User
	if err := h.db.WithContext(requestContext(c)).
		First(&user, "id = ?", database.DemoOfficerID).Error; err != nil {
		response.Error(c, apperrors.ErrInternalServer)
		return
	}

	token, err := h.jwt.IssueSessionToken(user.ID, user.DisplayName)
	if err != nil {
		response.Error(c, apperrors.ErrInternalServer)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"token": token,
		"user": gin.H{
			"id":           user.ID,
			"username":     user.Username,
			"display_name": user.DisplayName,
			"email":        user.Email,
		},
	})
}
