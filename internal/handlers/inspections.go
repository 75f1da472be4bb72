package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fieldsight/fieldsight/internal/collab"
	"github.com/fieldsight/fieldsight/internal/services"
	"github.com/fieldsight/fieldsight/pkg/response"
)

// InspectionHandler exposes the inspection register.
type InspectionHandler struct {
	service *services.InspectionService
	hub     *collab.Hub
}

// NewInspectionHandler constructs an InspectionHandler.
func NewInspectionHandler(service *services.InspectionService, hub *collab.Hub) *InspectionHandler {
	return &InspectionHandler{service: service, hub: hub}
}

type breachRequest struct {
	Code        string     `json:"code" validate:"required,max=64"`
	Description string     `json:"description" validate:"max=2000"`
	Severity    string     `json:"severity" validate:"omitempty,oneof=minor major critical"`
	RectifyBy   *time.Time `json:"rectify_by"`
}

type createInspectionRequest struct {
	Reference   string          `json:"reference" validate:"required,max=64"`
	SiteName    string          `json:"site_name" validate:"required,max=255"`
	SiteAddress string          `json:"site_address" validate:"max=500"`
	InspectedAt *time.Time      `json:"inspected_at"`
	Summary     string          `json:"summary" validate:"max=5000"`
	Findings    map[string]any  `json:"findings"`
	Breaches    []breachRequest `json:"breaches" validate:"dive"`
}

// Create registers a site inspection.
func (h *InspectionHandler) Create(c *gin.Context) {
	var req createInspectionRequest
	if !bindAndValidate(c, &req) {
		return
	}

	input := services.CreateInspectionInput{
		Reference:   req.Reference,
		SiteName:    req.SiteName,
		SiteAddress: req.SiteAddress,
		OfficerID:   currentUserID(c),
		InspectedAt: req.InspectedAt,
		Summary:     req.Summary,
		Findings:    req.Findings,
	}
	for _, breach := range req.Breaches {
		input.Breaches = append(input.Breaches, services.BreachInput{
			Code:        breach.Code,
			Description: breach.Description,
			Severity:    breach.Severity,
			RectifyBy:   breach.RectifyBy,
		})
	}

	inspection, err := h.service.Create(requestContext(c), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, inspection)
}

// List returns inspections with optional status/officer filters.
func (h *InspectionHandler) List(c *gin.Context) {
	inspections, err := h.service.List(requestContext(c), services.ListInspectionsInput{
		Status:    c.Query("status"),
		OfficerID: c.Query("officer_id"),
		Limit:     parseIntQuery(c, "limit", 25),
		Offset:    parseIntQuery(c, "offset", 0),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, inspections)
}

// Get returns one inspection with its breaches.
func (h *InspectionHandler) Get(c *gin.Context) {
	inspection, err := h.service.Get(requestContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, inspection)
}

type updateInspectionRequest struct {
	SiteName    *string        `json:"site_name" validate:"omitempty,min=1,max=255"`
	SiteAddress *string        `json:"site_address" validate:"omitempty,max=500"`
	Status      *string        `json:"status" validate:"omitempty,oneof=draft submitted closed"`
	InspectedAt *time.Time     `json:"inspected_at"`
	Summary     *string        `json:"summary" validate:"omitempty,max=5000"`
	Findings    map[string]any `json:"findings"`
}

// Update applies a partial inspection update.
func (h *InspectionHandler) Update(c *gin.Context) {
	var req updateInspectionRequest
	if !bindAndValidate(c, &req) {
		return
	}

	inspection, err := h.service.Update(requestContext(c), c.Param("id"), currentUserID(c), services.UpdateInspectionInput{
		SiteName:    req.SiteName,
		SiteAddress: req.SiteAddress,
		Status:      req.Status,
		InspectedAt: req.InspectedAt,
		Summary:     req.Summary,
		Findings:    req.Findings,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	announce(c, h.hub, "inspection", inspection.ID)
	response.Success(c, http.StatusOK, inspection)
}

// Delete removes an inspection.
func (h *InspectionHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(requestContext(c), c.Param("id"), currentUserID(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// AddBreach documents a breach on an existing inspection.
func (h *InspectionHandler) AddBreach(c *gin.Context) {
	var req breachRequest
	if !bindAndValidate(c, &req) {
		return
	}

	breach, err := h.service.AddBreach(requestContext(c), c.Param("id"), currentUserID(c), services.BreachInput{
		Code:        req.Code,
		Description: req.Description,
		Severity:    req.Severity,
		RectifyBy:   req.RectifyBy,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	announce(c, h.hub, "inspection", breach.InspectionID)
	response.Success(c, http.StatusCreated, breach)
}

type updateBreachRequest struct {
	Description *string    `json:"description" validate:"omitempty,max=2000"`
	Severity    *string    `json:"severity" validate:"omitempty,oneof=minor major critical"`
	Rectified   *bool      `json:"rectified"`
	RectifyBy   *time.Time `json:"rectify_by"`
}

// UpdateBreach applies a partial breach update.
func (h *InspectionHandler) UpdateBreach(c *gin.Context) {
	var req updateBreachRequest
	if !bindAndValidate(c, &req) {
		return
	}

	breach, err := h.service.UpdateBreach(requestContext(c), c.Param("id"), currentUserID(c), services.UpdateBreachInput{
		Description: req.Description,
		Severity:    req.Severity,
		Rectified:   req.Rectified,
		RectifyBy:   req.RectifyBy,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	announce(c, h.hub, "inspection", breach.InspectionID)
	response.Success(c, http.StatusOK, breach)
}
