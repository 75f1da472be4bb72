package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fieldsight/fieldsight/internal/services"
	"github.com/fieldsight/fieldsight/pkg/response"
)

// TeamHandler exposes team and membership endpoints.
type TeamHandler struct {
	service *services.TeamService
}

// NewTeamHandler constructs a TeamHandler.
func NewTeamHandler(service *services.TeamService) *TeamHandler {
	return &TeamHandler{service: service}
}

type createTeamRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=120"`
	Region      string `json:"region" validate:"max=120"`
	Description string `json:"description" validate:"max=500"`
}

// Create registers a team.
func (h *TeamHandler) Create(c *gin.Context) {
	var req createTeamRequest
	if !bindAndValidate(c, &req) {
		return
	}

	team, err := h.service.Create(requestContext(c), services.CreateTeamInput{
		Name:        req.Name,
		Region:      req.Region,
		Description: req.Description,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, team)
}

// List returns all teams.
func (h *TeamHandler) List(c *gin.Context) {
	teams, err := h.service.List(requestContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, teams)
}

// Get returns one team with members.
func (h *TeamHandler) Get(c *gin.Context) {
	team, err := h.service.Get(requestContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, team)
}

type addMemberRequest struct {
	UserID string `json:"user_id" validate:"required"`
	Role   string `json:"role" validate:"omitempty,oneof=officer lead"`
}

// AddMember enrols an officer.
func (h *TeamHandler) AddMember(c *gin.Context) {
	var req addMemberRequest
	if !bindAndValidate(c, &req) {
		return
	}

	if err := h.service.AddMember(requestContext(c), c.Param("id"), req.UserID, req.Role); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"added": true})
}

// RemoveMember drops an officer from the team.
func (h *TeamHandler) RemoveMember(c *gin.Context) {
	if err := h.service.RemoveMember(requestContext(c), c.Param("id"), c.Param("userID")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"removed": true})
}

// ListMembers returns the team roster.
func (h *TeamHandler) ListMembers(c *gin.Context) {
	members, err := h.service.Members(requestContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, members)
}
