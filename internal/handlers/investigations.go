package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fieldsight/fieldsight/internal/collab"
	"github.com/fieldsight/fieldsight/internal/services"
	"github.com/fieldsight/fieldsight/pkg/response"
)

// InvestigationHandler exposes investigations, offences, proof burdens
// and the evidence chain.
type InvestigationHandler struct {
	service *services.InvestigationService
	hub     *collab.Hub
}

// NewInvestigationHandler constructs an InvestigationHandler.
func NewInvestigationHandler(service *services.InvestigationService, hub *collab.Hub) *InvestigationHandler {
	return &InvestigationHandler{service: service, hub: hub}
}

type createInvestigationRequest struct {
	Reference    string `json:"reference" validate:"required,max=64"`
	Title        string `json:"title" validate:"required,max=255"`
	InspectionID string `json:"inspection_id"`
	Summary      string `json:"summary" validate:"max=5000"`
}

// Create opens an investigation, optionally seeded from an inspection.
func (h *InvestigationHandler) Create(c *gin.Context) {
	var req createInvestigationRequest
	if !bindAndValidate(c, &req) {
		return
	}

	investigation, err := h.service.Create(requestContext(c), services.CreateInvestigationInput{
		Reference:     req.Reference,
		Title:         req.Title,
		LeadOfficerID: currentUserID(c),
		InspectionID:  req.InspectionID,
		Summary:       req.Summary,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, investigation)
}

// List returns investigations, optionally filtered by status.
func (h *InvestigationHandler) List(c *gin.Context) {
	investigations, err := h.service.List(requestContext(c), c.Query("status"),
		parseIntQuery(c, "limit", 25), parseIntQuery(c, "offset", 0))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, investigations)
}

// Get returns one investigation in full.
func (h *InvestigationHandler) Get(c *gin.Context) {
	investigation, err := h.service.Get(requestContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, investigation)
}

type updateInvestigationRequest struct {
	Title         *string `json:"title" validate:"omitempty,min=1,max=255"`
	Status        *string `json:"status" validate:"omitempty,oneof=open active closed"`
	LeadOfficerID *string `json:"lead_officer_id"`
	Summary       *string `json:"summary" validate:"omitempty,max=5000"`
}

// Update applies a partial investigation update.
func (h *InvestigationHandler) Update(c *gin.Context) {
	var req updateInvestigationRequest
	if !bindAndValidate(c, &req) {
		return
	}

	investigation, err := h.service.Update(requestContext(c), c.Param("id"), currentUserID(c), services.UpdateInvestigationInput{
		Title:         req.Title,
		Status:        req.Status,
		LeadOfficerID: req.LeadOfficerID,
		Summary:       req.Summary,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	announce(c, h.hub, "investigation", investigation.ID)
	response.Success(c, http.StatusOK, investigation)
}

type offenceRequest struct {
	Provision   string `json:"provision" validate:"required,max=120"`
	Description string `json:"description" validate:"max=2000"`
}

// AddOffence charges a provision.
func (h *InvestigationHandler) AddOffence(c *gin.Context) {
	var req offenceRequest
	if !bindAndValidate(c, &req) {
		return
	}

	offence, err := h.service.AddOffence(requestContext(c), c.Param("id"), currentUserID(c), services.OffenceInput{
		Provision:   req.Provision,
		Description: req.Description,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	announce(c, h.hub, "investigation", offence.InvestigationID)
	response.Success(c, http.StatusCreated, offence)
}

type burdenRequest struct {
	Element  string `json:"element" validate:"required,max=500"`
	Standard string `json:"standard" validate:"omitempty,oneof=beyond_reasonable_doubt balance_of_probabilities"`
}

// AddBurden records a proof element on an offence.
func (h *InvestigationHandler) AddBurden(c *gin.Context) {
	var req burdenRequest
	if !bindAndValidate(c, &req) {
		return
	}

	burden, err := h.service.AddBurden(requestContext(c), c.Param("id"), currentUserID(c), services.BurdenInput{
		Element:  req.Element,
		Standard: req.Standard,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, burden)
}

type satisfyBurdenRequest struct {
	Satisfied  bool   `json:"satisfied"`
	EvidenceID string `json:"evidence_id"`
}

// UpdateBurden marks a proof element satisfied, optionally linking
// supporting evidence.
func (h *InvestigationHandler) UpdateBurden(c *gin.Context) {
	var req satisfyBurdenRequest
	if !bindAndValidate(c, &req) {
		return
	}

	burden, err := h.service.SatisfyBurden(requestContext(c), c.Param("id"), currentUserID(c), req.EvidenceID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, burden)
}

type evidenceRequest struct {
	Kind        string     `json:"kind" validate:"required,max=32"`
	Title       string     `json:"title" validate:"required,max=255"`
	Reference   string     `json:"reference" validate:"max=120"`
	CollectedAt *time.Time `json:"collected_at"`
	ChainNotes  string     `json:"chain_notes" validate:"max=2000"`
}

// AddEvidence enters an item into the evidence chain.
func (h *InvestigationHandler) AddEvidence(c *gin.Context) {
	var req evidenceRequest
	if !bindAndValidate(c, &req) {
		return
	}

	evidence, err := h.service.AddEvidence(requestContext(c), c.Param("id"), currentUserID(c), services.EvidenceInput{
		Kind:        req.Kind,
		Title:       req.Title,
		Reference:   req.Reference,
		CollectedAt: req.CollectedAt,
		ChainNotes:  req.ChainNotes,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	announce(c, h.hub, "investigation", evidence.InvestigationID)
	response.Success(c, http.StatusCreated, evidence)
}
