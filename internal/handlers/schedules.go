package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fieldsight/fieldsight/internal/collab"
	"github.com/fieldsight/fieldsight/internal/services"
	"github.com/fieldsight/fieldsight/pkg/response"
)

// ScheduleHandler exposes the team-schedule lifecycle.
type ScheduleHandler struct {
	service *services.DispatchService
	hub     *collab.Hub
}

// NewScheduleHandler constructs a ScheduleHandler.
func NewScheduleHandler(service *services.DispatchService, hub *collab.Hub) *ScheduleHandler {
	return &ScheduleHandler{service: service, hub: hub}
}

type createScheduleRequest struct {
	TeamID          string     `json:"team_id" validate:"required"`
	Title           string     `json:"title" validate:"required,min=2,max=200"`
	Details         string     `json:"details" validate:"max=2000"`
	Location        string     `json:"location" validate:"max=255"`
	Priority        string     `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	ScheduledFor    *time.Time `json:"scheduled_for"`
	AssignedMembers []string   `json:"assigned_members"`
}

// Create registers a dispatch job and fans notifications out to the team.
func (h *ScheduleHandler) Create(c *gin.Context) {
	var req createScheduleRequest
	if !bindAndValidate(c, &req) {
		return
	}

	schedule, err := h.service.CreateSchedule(requestContext(c), services.CreateScheduleInput{
		TeamID:          req.TeamID,
		Title:           req.Title,
		Details:         req.Details,
		Location:        req.Location,
		Priority:        req.Priority,
		ScheduledFor:    req.ScheduledFor,
		AssignedMembers: req.AssignedMembers,
		ActorID:         currentUserID(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	announce(c, h.hub, "schedule", schedule.ID)
	response.Success(c, http.StatusCreated, schedule)
}

type updateScheduleRequest struct {
	Title        *string    `json:"title" validate:"omitempty,min=2,max=200"`
	Details      *string    `json:"details" validate:"omitempty,max=2000"`
	Location     *string    `json:"location" validate:"omitempty,max=255"`
	Priority     *string    `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	Status       *string    `json:"status"`
	ScheduledFor *time.Time `json:"scheduled_for"`
}

// Update applies a partial schedule update; status changes drive the
// notification fan-out.
func (h *ScheduleHandler) Update(c *gin.Context) {
	var req updateScheduleRequest
	if !bindAndValidate(c, &req) {
		return
	}

	schedule, err := h.service.UpdateSchedule(requestContext(c), c.Param("id"), services.UpdateScheduleInput{
		Title:        req.Title,
		Details:      req.Details,
		Location:     req.Location,
		Priority:     req.Priority,
		Status:       req.Status,
		ScheduledFor: req.ScheduledFor,
		ActorID:      currentUserID(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	announce(c, h.hub, "schedule", schedule.ID)
	response.Success(c, http.StatusOK, schedule)
}

// Get returns one schedule with assignments.
func (h *ScheduleHandler) Get(c *gin.Context) {
	schedule, err := h.service.GetSchedule(requestContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, schedule)
}

// ListForTeam returns a team's schedules.
func (h *ScheduleHandler) ListForTeam(c *gin.Context) {
	schedules, err := h.service.ListForTeam(requestContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, schedules)
}

type respondAssignmentRequest struct {
	Response string `json:"response" validate:"required,oneof=accepted declined"`
}

// Respond records an officer accepting or declining their assignment.
func (h *ScheduleHandler) Respond(c *gin.Context) {
	var req respondAssignmentRequest
	if !bindAndValidate(c, &req) {
		return
	}

	assignment, err := h.service.RespondToAssignment(requestContext(c), c.Param("id"), c.Param("userID"), req.Response)
	if err != nil {
		response.Error(c, err)
		return
	}

	announce(c, h.hub, "schedule", assignment.ScheduleID)
	response.Success(c, http.StatusOK, assignment)
}
