package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/fieldsight/fieldsight/internal/models"
	apperrors "github.com/fieldsight/fieldsight/pkg/errors"
)

// CreateInspectionInput describes a new site inspection record.
type CreateInspectionInput struct {
	Reference   string
	SiteName    string
	SiteAddress string
	OfficerID   string
	InspectedAt *time.Time
	Summary     string
	Findings    map[string]any
	Breaches    []BreachInput
}

// BreachInput describes a non-compliance found during an inspection.
type BreachInput struct {
	Code        string
	Description string
	Severity    string
	RectifyBy   *time.Time
}

// UpdateInspectionInput carries a partial inspection update.
type UpdateInspectionInput struct {
	SiteName    *string
	SiteAddress *string
	Status      *string
	InspectedAt *time.Time
	Summary     *string
	Findings    map[string]any
}

// UpdateBreachInput carries a partial breach update.
type UpdateBreachInput struct {
	Description *string
	Severity    *string
	Rectified   *bool
	RectifyBy   *time.Time
}

// ListInspectionsInput filters the inspection register.
type ListInspectionsInput struct {
	Status    string
	OfficerID string
	Limit     int
	Offset    int
}

// InspectionService manages the inspection register and its breaches.
type InspectionService struct {
	db         *gorm.DB
	activities *ActivityService
}

// NewInspectionService constructs an InspectionService.
func NewInspectionService(db *gorm.DB, activities *ActivityService) (*InspectionService, error) {
	if db == nil {
		return nil, errors.New("inspection service: db is required")
	}
	if activities == nil {
		return nil, errors.New("inspection service: activity service is required")
	}
	return &InspectionService{db: db, activities: activities}, nil
}

// Create persists an inspection with any breaches documented on site.
func (s *InspectionService) Create(ctx context.Context, input CreateInspectionInput) (*models.Inspection, error) {
	ctx = ensureContext(ctx)

	reference := strings.TrimSpace(input.Reference)
	if reference == "" {
		return nil, apperrors.NewBadRequest("reference is required")
	}
	siteName := strings.TrimSpace(input.SiteName)
	if siteName == "" {
		return nil, apperrors.NewBadRequest("site name is required")
	}

	inspection := models.Inspection{
		Reference:   reference,
		SiteName:    siteName,
		SiteAddress: strings.TrimSpace(input.SiteAddress),
		OfficerID:   strings.TrimSpace(input.OfficerID),
		Status:      models.InspectionStatusDraft,
		InspectedAt: input.InspectedAt,
		Summary:     strings.TrimSpace(input.Summary),
	}
	if findings, err := encodeJSONMap(input.Findings); err != nil {
		return nil, fmt.Errorf("inspection service: %w", err)
	} else if findings != nil {
		inspection.Findings = findings
	}

	for _, breach := range input.Breaches {
		code := strings.TrimSpace(breach.Code)
		if code == "" {
			return nil, apperrors.NewBadRequest("breach code is required")
		}
		inspection.Breaches = append(inspection.Breaches, models.Breach{
			Code:        code,
			Description: strings.TrimSpace(breach.Description),
			Severity:    defaultIfEmpty(strings.TrimSpace(breach.Severity), "minor"),
			RectifyBy:   breach.RectifyBy,
		})
	}

	if err := s.db.WithContext(ctx).Create(&inspection).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, apperrors.ErrConflict
		}
		return nil, fmt.Errorf("inspection service: create inspection: %w", err)
	}

	s.recordActivity(ctx, inspection.OfficerID, "inspection.created", inspection.ID, map[string]any{
		"reference": reference,
		"site_name": siteName,
	})
	return &inspection, nil
}

// List returns inspections newest first with optional filters.
func (s *InspectionService) List(ctx context.Context, input ListInspectionsInput) ([]models.Inspection, error) {
	ctx = ensureContext(ctx)

	limit := input.Limit
	if limit <= 0 || limit > 100 {
		limit = 25
	}

	query := s.db.WithContext(ctx).Model(&models.Inspection{})
	if status := strings.TrimSpace(input.Status); status != "" {
		query = query.Where("status = ?", status)
	}
	if officerID := strings.TrimSpace(input.OfficerID); officerID != "" {
		query = query.Where("officer_id = ?", officerID)
	}

	var inspections []models.Inspection
	if err := query.
		Order("created_at DESC").
		Limit(limit).
		Offset(max(0, input.Offset)).
		Find(&inspections).Error; err != nil {
		return nil, fmt.Errorf("inspection service: list inspections: %w", err)
	}
	return inspections, nil
}

// Get loads one inspection with its breaches.
func (s *InspectionService) Get(ctx context.Context, inspectionID string) (*models.Inspection, error) {
	ctx = ensureContext(ctx)

	inspectionID = strings.TrimSpace(inspectionID)
	if inspectionID == "" {
		return nil, apperrors.NewBadRequest("inspection id is required")
	}

	var inspection models.Inspection
	err := s.db.WithContext(ctx).
		Preload("Breaches").
		First(&inspection, "id = ?", inspectionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("inspection service: load inspection: %w", err)
	}
	return &inspection, nil
}

// Update applies a partial inspection update.
func (s *InspectionService) Update(ctx context.Context, inspectionID, actorID string, input UpdateInspectionInput) (*models.Inspection, error) {
	ctx = ensureContext(ctx)

	inspection, err := s.Get(ctx, inspectionID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.SiteName != nil {
		if siteName := strings.TrimSpace(*input.SiteName); siteName != "" {
			updates["site_name"] = siteName
		}
	}
	if input.SiteAddress != nil {
		updates["site_address"] = strings.TrimSpace(*input.SiteAddress)
	}
	if input.Status != nil {
		updates["status"] = strings.TrimSpace(strings.ToLower(*input.Status))
	}
	if input.InspectedAt != nil {
		updates["inspected_at"] = *input.InspectedAt
	}
	if input.Summary != nil {
		updates["summary"] = strings.TrimSpace(*input.Summary)
	}
	if input.Findings != nil {
		findings, err := encodeJSONMap(input.Findings)
		if err != nil {
			return nil, fmt.Errorf("inspection service: %w", err)
		}
		updates["findings"] = findings
	}

	if len(updates) == 0 {
		return inspection, nil
	}

	if err := s.db.WithContext(ctx).Model(inspection).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("inspection service: update inspection: %w", err)
	}

	s.recordActivity(ctx, actorID, "inspection.updated", inspection.ID, map[string]any{
		"fields": updateKeys(updates),
	})
	return s.Get(ctx, inspectionID)
}

// Delete removes an inspection and its breaches.
func (s *InspectionService) Delete(ctx context.Context, inspectionID, actorID string) error {
	ctx = ensureContext(ctx)

	inspection, err := s.Get(ctx, inspectionID)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Select("Breaches").Delete(inspection).Error; err != nil {
		return fmt.Errorf("inspection service: delete inspection: %w", err)
	}

	s.recordActivity(ctx, actorID, "inspection.deleted", inspection.ID, map[string]any{
		"reference": inspection.Reference,
	})
	return nil
}

// AddBreach documents an additional breach on an existing inspection.
func (s *InspectionService) AddBreach(ctx context.Context, inspectionID, actorID string, input BreachInput) (*models.Breach, error) {
	ctx = ensureContext(ctx)

	inspection, err := s.Get(ctx, inspectionID)
	if err != nil {
		return nil, err
	}

	code := strings.TrimSpace(input.Code)
	if code == "" {
		return nil, apperrors.NewBadRequest("breach code is required")
	}

	breach := models.Breach{
		InspectionID: inspection.ID,
		Code:         code,
		Description:  strings.TrimSpace(input.Description),
		Severity:     defaultIfEmpty(strings.TrimSpace(input.Severity), "minor"),
		RectifyBy:    input.RectifyBy,
	}
	if err := s.db.WithContext(ctx).Create(&breach).Error; err != nil {
		return nil, fmt.Errorf("inspection service: add breach: %w", err)
	}

	s.recordActivity(ctx, actorID, "breach.recorded", inspection.ID, map[string]any{
		"breach_id": breach.ID,
		"code":      code,
	})
	return &breach, nil
}

// UpdateBreach applies a partial breach update, typically marking it
// rectified.
func (s *InspectionService) UpdateBreach(ctx context.Context, breachID, actorID string, input UpdateBreachInput) (*models.Breach, error) {
	ctx = ensureContext(ctx)

	breachID = strings.TrimSpace(breachID)
	if breachID == "" {
		return nil, apperrors.NewBadRequest("breach id is required")
	}

	var breach models.Breach
	err := s.db.WithContext(ctx).First(&breach, "id = ?", breachID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("inspection service: load breach: %w", err)
	}

	updates := map[string]any{}
	if input.Description != nil {
		updates["description"] = strings.TrimSpace(*input.Description)
	}
	if input.Severity != nil {
		updates["severity"] = defaultIfEmpty(strings.TrimSpace(*input.Severity), "minor")
	}
	if input.Rectified != nil {
		updates["rectified"] = *input.Rectified
	}
	if input.RectifyBy != nil {
		updates["rectify_by"] = *input.RectifyBy
	}

	if len(updates) == 0 {
		return &breach, nil
	}

	if err := s.db.WithContext(ctx).Model(&breach).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("inspection service: update breach: %w", err)
	}

	s.recordActivity(ctx, actorID, "breach.updated", breach.InspectionID, map[string]any{
		"breach_id": breach.ID,
		"fields":    updateKeys(updates),
	})

	if err := s.db.WithContext(ctx).First(&breach, "id = ?", breachID).Error; err != nil {
		return nil, fmt.Errorf("inspection service: reload breach: %w", err)
	}
	return &breach, nil
}

func (s *InspectionService) recordActivity(ctx context.Context, actorID, action, entityID string, details map[string]any) {
	_ = s.activities.Record(ctx, RecordActivityInput{
		ActorID:    actorID,
		Action:     action,
		EntityType: "inspection",
		EntityID:   entityID,
		Details:    details,
	})
}

func encodeJSONMap(value map[string]any) (datatypes.JSON, error) {
	if len(value) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encode json payload: %w", err)
	}
	return datatypes.JSON(raw), nil
}
