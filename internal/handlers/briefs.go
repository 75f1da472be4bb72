package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fieldsight/fieldsight/internal/collab"
	"github.com/fieldsight/fieldsight/internal/services"
	"github.com/fieldsight/fieldsight/pkg/response"
)

// BriefHandler exposes prosecution briefs.
type BriefHandler struct {
	service *services.BriefService
	hub     *collab.Hub
}

// NewBriefHandler constructs a BriefHandler.
func NewBriefHandler(service *services.BriefService, hub *collab.Hub) *BriefHandler {
	return &BriefHandler{service: service, hub: hub}
}

type createBriefRequest struct {
	InvestigationID string `json:"investigation_id" validate:"required"`
	Title           string `json:"title" validate:"max=255"`
	Narrative       string `json:"narrative" validate:"max=10000"`
}

// Create opens a brief for an investigation.
func (h *BriefHandler) Create(c *gin.Context) {
	var req createBriefRequest
	if !bindAndValidate(c, &req) {
		return
	}

	brief, err := h.service.Create(requestContext(c), services.CreateBriefInput{
		InvestigationID: req.InvestigationID,
		Title:           req.Title,
		PreparedBy:      currentUserID(c),
		Narrative:       req.Narrative,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, brief)
}

// Get returns one brief.
func (h *BriefHandler) Get(c *gin.Context) {
	brief, err := h.service.Get(requestContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, brief)
}

// GetForInvestigation returns the brief attached to an investigation.
func (h *BriefHandler) GetForInvestigation(c *gin.Context) {
	brief, err := h.service.GetForInvestigation(requestContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, brief)
}

type updateBriefRequest struct {
	Title     *string                 `json:"title" validate:"omitempty,min=1,max=255"`
	Status    *string                 `json:"status" validate:"omitempty,oneof=draft review served"`
	Narrative *string                 `json:"narrative" validate:"omitempty,max=10000"`
	Sections  []services.BriefSection `json:"sections"`
}

// Update applies a partial brief update.
func (h *BriefHandler) Update(c *gin.Context) {
	var req updateBriefRequest
	if !bindAndValidate(c, &req) {
		return
	}

	brief, err := h.service.Update(requestContext(c), c.Param("id"), currentUserID(c), services.UpdateBriefInput{
		Title:     req.Title,
		Status:    req.Status,
		Narrative: req.Narrative,
		Sections:  req.Sections,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	announce(c, h.hub, "brief", brief.ID)
	response.Success(c, http.StatusOK, brief)
}
