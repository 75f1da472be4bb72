package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/fieldsight/fieldsight/internal/models"
	apperrors "github.com/fieldsight/fieldsight/pkg/errors"
)

// CreateInvestigationInput describes a new formal enquiry. When
// InspectionID is set, the investigation is opened from that inspection
// and unrectified breaches are carried over as draft offences.
type CreateInvestigationInput struct {
	Reference     string
	Title         string
	LeadOfficerID string
	InspectionID  string
	Summary       string
}

// UpdateInvestigationInput carries a partial investigation update.
type UpdateInvestigationInput struct {
	Title         *string
	Status        *string
	LeadOfficerID *string
	Summary       *string
}

// OffenceInput describes a charged provision.
type OffenceInput struct {
	Provision   string
	Description string
}

// BurdenInput describes one element of an offence to be established.
type BurdenInput struct {
	Element  string
	Standard string
}

// EvidenceInput describes an item entering the evidence chain.
type EvidenceInput struct {
	Kind        string
	Title       string
	Reference   string
	CollectedBy string
	CollectedAt *time.Time
	ChainNotes  string
}

// InvestigationService manages investigations, offences, proof burdens
// and the evidence chain.
type InvestigationService struct {
	db         *gorm.DB
	activities *ActivityService
}

// NewInvestigationService constructs an InvestigationService.
func NewInvestigationService(db *gorm.DB, activities *ActivityService) (*InvestigationService, error) {
	if db == nil {
		return nil, errors.New("investigation service: db is required")
	}
	if activities == nil {
		return nil, errors.New("investigation service: activity service is required")
	}
	return &InvestigationService{db: db, activities: activities}, nil
}

// Create opens an investigation, optionally seeded from an inspection.
func (s *InvestigationService) Create(ctx context.Context, input CreateInvestigationInput) (*models.Investigation, error) {
	ctx = ensureContext(ctx)

	reference := strings.TrimSpace(input.Reference)
	if reference == "" {
		return nil, apperrors.NewBadRequest("reference is required")
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewBadRequest("title is required")
	}

	investigation := models.Investigation{
		Reference:     reference,
		Title:         title,
		Status:        models.InvestigationStatusOpen,
		LeadOfficerID: strings.TrimSpace(input.LeadOfficerID),
		Summary:       strings.TrimSpace(input.Summary),
	}

	inspectionID := strings.TrimSpace(input.InspectionID)
	if inspectionID != "" {
		var inspection models.Inspection
		err := s.db.WithContext(ctx).
			Preload("Breaches").
			First(&inspection, "id = ?", inspectionID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewBadRequest("inspection not found")
		}
		if err != nil {
			return nil, fmt.Errorf("investigation service: load inspection: %w", err)
		}

		investigation.InspectionID = &inspection.ID
		if investigation.Summary == "" {
			investigation.Summary = inspection.Summary
		}
		for _, breach := range inspection.Breaches {
			if breach.Rectified {
				continue
			}
			investigation.Offences = append(investigation.Offences, models.Offence{
				Provision:   breach.Code,
				Description: breach.Description,
			})
		}
	}

	if err := s.db.WithContext(ctx).Create(&investigation).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, apperrors.ErrConflict
		}
		return nil, fmt.Errorf("investigation service: create investigation: %w", err)
	}

	s.recordActivity(ctx, investigation.LeadOfficerID, "investigation.opened", investigation.ID, map[string]any{
		"reference":     reference,
		"inspection_id": inspectionID,
	})
	return &investigation, nil
}

// List returns investigations newest first, optionally filtered by status.
func (s *InvestigationService) List(ctx context.Context, status string, limit, offset int) ([]models.Investigation, error) {
	ctx = ensureContext(ctx)

	if limit <= 0 || limit > 100 {
		limit = 25
	}

	query := s.db.WithContext(ctx).Model(&models.Investigation{})
	if status = strings.TrimSpace(status); status != "" {
		query = query.Where("status = ?", status)
	}

	var investigations []models.Investigation
	if err := query.
		Order("created_at DESC").
		Limit(limit).
		Offset(max(0, offset)).
		Find(&investigations).Error; err != nil {
		return nil, fmt.Errorf("investigation service: list investigations: %w", err)
	}
	return investigations, nil
}

// Get loads one investigation with offences, burdens and evidence.
func (s *InvestigationService) Get(ctx context.Context, investigationID string) (*models.Investigation, error) {
	ctx = ensureContext(ctx)

	investigationID = strings.TrimSpace(investigationID)
	if investigationID == "" {
		return nil, apperrors.NewBadRequest("investigation id is required")
	}

	var investigation models.Investigation
	err := s.db.WithContext(ctx).
		Preload("Offences.Burdens").
		Preload("Evidence").
		First(&investigation, "id = ?", investigationID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("investigation service: load investigation: %w", err)
	}
	return &investigation, nil
}

// Update applies a partial investigation update.
func (s *InvestigationService) Update(ctx context.Context, investigationID, actorID string, input UpdateInvestigationInput) (*models.Investigation, error) {
	ctx = ensureContext(ctx)

	investigation, err := s.Get(ctx, investigationID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Title != nil {
		if title := strings.TrimSpace(*input.Title); title != "" {
			updates["title"] = title
		}
	}
	if input.Status != nil {
		updates["status"] = strings.TrimSpace(strings.ToLower(*input.Status))
	}
	if input.LeadOfficerID != nil {
		updates["lead_officer_id"] = strings.TrimSpace(*input.LeadOfficerID)
	}
	if input.Summary != nil {
		updates["summary"] = strings.TrimSpace(*input.Summary)
	}

	if len(updates) == 0 {
		return investigation, nil
	}

	if err := s.db.WithContext(ctx).Model(investigation).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("investigation service: update investigation: %w", err)
	}

	s.recordActivity(ctx, actorID, "investigation.updated", investigation.ID, map[string]any{
		"fields": updateKeys(updates),
	})
	return s.Get(ctx, investigationID)
}

// AddOffence charges a provision on the investigation.
func (s *InvestigationService) AddOffence(ctx context.Context, investigationID, actorID string, input OffenceInput) (*models.Offence, error) {
	ctx = ensureContext(ctx)

	investigation, err := s.Get(ctx, investigationID)
	if err != nil {
		return nil, err
	}

	provision := strings.TrimSpace(input.Provision)
	if provision == "" {
		return nil, apperrors.NewBadRequest("provision is required")
	}

	offence := models.Offence{
		InvestigationID: investigation.ID,
		Provision:       provision,
		Description:     strings.TrimSpace(input.Description),
	}
	if err := s.db.WithContext(ctx).Create(&offence).Error; err != nil {
		return nil, fmt.Errorf("investigation service: add offence: %w", err)
	}

	s.recordActivity(ctx, actorID, "offence.charged", investigation.ID, map[string]any{
		"offence_id": offence.ID,
		"provision":  provision,
	})
	return &offence, nil
}

// AddBurden records a proof element on an offence. The standard defaults
// to the criminal standard.
func (s *InvestigationService) AddBurden(ctx context.Context, offenceID, actorID string, input BurdenInput) (*models.ProofBurden, error) {
	ctx = ensureContext(ctx)

	offenceID = strings.TrimSpace(offenceID)
	if offenceID == "" {
		return nil, apperrors.NewBadRequest("offence id is required")
	}
	element := strings.TrimSpace(input.Element)
	if element == "" {
		return nil, apperrors.NewBadRequest("element is required")
	}

	standard := strings.TrimSpace(strings.ToLower(input.Standard))
	switch standard {
	case "":
		standard = models.ProofStandardCriminal
	case models.ProofStandardCriminal, models.ProofStandardCivil:
	default:
		return nil, apperrors.NewBadRequest("unknown proof standard")
	}

	var offence models.Offence
	err := s.db.WithContext(ctx).First(&offence, "id = ?", offenceID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("investigation service: load offence: %w", err)
	}

	burden := models.ProofBurden{
		OffenceID: offence.ID,
		Element:   element,
		Standard:  standard,
	}
	if err := s.db.WithContext(ctx).Create(&burden).Error; err != nil {
		return nil, fmt.Errorf("investigation service: add burden: %w", err)
	}

	s.recordActivity(ctx, actorID, "burden.recorded", offence.InvestigationID, map[string]any{
		"offence_id": offence.ID,
		"burden_id":  burden.ID,
	})
	return &burden, nil
}

// SatisfyBurden marks a proof element satisfied, optionally linking the
// evidence item that establishes it.
func (s *InvestigationService) SatisfyBurden(ctx context.Context, burdenID, actorID, evidenceID string) (*models.ProofBurden, error) {
	ctx = ensureContext(ctx)

	burdenID = strings.TrimSpace(burdenID)
	if burdenID == "" {
		return nil, apperrors.NewBadRequest("burden id is required")
	}

	var burden models.ProofBurden
	err := s.db.WithContext(ctx).First(&burden, "id = ?", burdenID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("investigation service: load burden: %w", err)
	}

	updates := map[string]any{"satisfied": true}
	if evidenceID = strings.TrimSpace(evidenceID); evidenceID != "" {
		var evidence models.Evidence
		if err := s.db.WithContext(ctx).First(&evidence, "id = ?", evidenceID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperrors.NewBadRequest("evidence not found")
			}
			return nil, fmt.Errorf("investigation service: load evidence: %w", err)
		}
		updates["evidence_id"] = evidence.ID
	}

	if err := s.db.WithContext(ctx).Model(&burden).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("investigation service: satisfy burden: %w", err)
	}

	s.recordActivity(ctx, actorID, "burden.satisfied", burden.OffenceID, map[string]any{
		"burden_id":   burden.ID,
		"evidence_id": evidenceID,
	})

	if err := s.db.WithContext(ctx).First(&burden, "id = ?", burdenID).Error; err != nil {
		return nil, fmt.Errorf("investigation service: reload burden: %w", err)
	}
	return &burden, nil
}

// AddEvidence enters an item into the investigation's evidence chain.
func (s *InvestigationService) AddEvidence(ctx context.Context, investigationID, actorID string, input EvidenceInput) (*models.Evidence, error) {
	ctx = ensureContext(ctx)

	investigation, err := s.Get(ctx, investigationID)
	if err != nil {
		return nil, err
	}

	kind := strings.TrimSpace(strings.ToLower(input.Kind))
	if kind == "" {
		return nil, apperrors.NewBadRequest("evidence kind is required")
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewBadRequest("evidence title is required")
	}

	evidence := models.Evidence{
		InvestigationID: investigation.ID,
		Kind:            kind,
		Title:           title,
		Reference:       strings.TrimSpace(input.Reference),
		CollectedBy:     strings.TrimSpace(defaultIfEmpty(input.CollectedBy, actorID)),
		CollectedAt:     input.CollectedAt,
		ChainNotes:      strings.TrimSpace(input.ChainNotes),
	}
	if err := s.db.WithContext(ctx).Create(&evidence).Error; err != nil {
		return nil, fmt.Errorf("investigation service: add evidence: %w", err)
	}

	s.recordActivity(ctx, actorID, "evidence.collected", investigation.ID, map[string]any{
		"evidence_id": evidence.ID,
		"kind":        kind,
	})
	return &evidence, nil
}

func (s *InvestigationService) recordActivity(ctx context.Context, actorID, action, entityID string, details map[string]any) {
	_ = s.activities.Record(ctx, RecordActivityInput{
		ActorID:    actorID,
		Action:     action,
		EntityType: "investigation",
		EntityID:   entityID,
		Details:    details,
	})
}
