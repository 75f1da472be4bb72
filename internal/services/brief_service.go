package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/fieldsight/fieldsight/internal/models"
	apperrors "github.com/fieldsight/fieldsight/pkg/errors"
)

// CreateBriefInput describes a new prosecution brief. Each investigation
// carries at most one brief.
type CreateBriefInput struct {
	InvestigationID string
	Title           string
	PreparedBy      string
	Narrative       string
}

// UpdateBriefInput carries a partial brief update.
type UpdateBriefInput struct {
	Title     *string
	Status    *string
	Narrative *string
	Sections  []BriefSection
}

// BriefSection is one assembled section of the brief document.
type BriefSection struct {
	Heading string `json:"heading"`
	Body    string `json:"body"`
}

// BriefService assembles prosecution briefs from investigations.
type BriefService struct {
	db         *gorm.DB
	activities *ActivityService
}

// NewBriefService constructs a BriefService.
func NewBriefService(db *gorm.DB, activities *ActivityService) (*BriefService, error) {
	if db == nil {
		return nil, errors.New("brief service: db is required")
	}
	if activities == nil {
		return nil, errors.New("brief service: activity service is required")
	}
	return &BriefService{db: db, activities: activities}, nil
}

// Create opens a brief for an investigation, pre-populating sections
// from its offences and evidence chain.
func (s *BriefService) Create(ctx context.Context, input CreateBriefInput) (*models.Brief, error) {
	ctx = ensureContext(ctx)

	investigationID := strings.TrimSpace(input.InvestigationID)
	if investigationID == "" {
		return nil, apperrors.NewBadRequest("investigation id is required")
	}

	var investigation models.Investigation
	err := s.db.WithContext(ctx).
		Preload("Offences.Burdens").
		Preload("Evidence").
		First(&investigation, "id = ?", investigationID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NewBadRequest("investigation not found")
	}
	if err != nil {
		return nil, fmt.Errorf("brief service: load investigation: %w", err)
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		title = fmt.Sprintf("Brief of evidence: %s", investigation.Title)
	}

	sections, err := encodeBriefSections(draftSections(&investigation))
	if err != nil {
		return nil, fmt.Errorf("brief service: %w", err)
	}

	brief := models.Brief{
		InvestigationID: investigation.ID,
		Title:           title,
		Status:          models.BriefStatusDraft,
		PreparedBy:      strings.TrimSpace(input.PreparedBy),
		Narrative:       strings.TrimSpace(input.Narrative),
		Sections:        sections,
	}
	if err := s.db.WithContext(ctx).Create(&brief).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, apperrors.ErrConflict
		}
		return nil, fmt.Errorf("brief service: create brief: %w", err)
	}

	s.recordActivity(ctx, brief.PreparedBy, "brief.opened", brief.ID, map[string]any{
		"investigation_id": investigation.ID,
	})
	return &brief, nil
}

// Get loads one brief by ID.
func (s *BriefService) Get(ctx context.Context, briefID string) (*models.Brief, error) {
	ctx = ensureContext(ctx)

	briefID = strings.TrimSpace(briefID)
	if briefID == "" {
		return nil, apperrors.NewBadRequest("brief id is required")
	}

	var brief models.Brief
	err := s.db.WithContext(ctx).First(&brief, "id = ?", briefID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("brief service: load brief: %w", err)
	}
	return &brief, nil
}

// GetForInvestigation loads the brief attached to an investigation.
func (s *BriefService) GetForInvestigation(ctx context.Context, investigationID string) (*models.Brief, error) {
	ctx = ensureContext(ctx)

	investigationID = strings.TrimSpace(investigationID)
	if investigationID == "" {
		return nil, apperrors.NewBadRequest("investigation id is required")
	}

	var brief models.Brief
	err := s.db.WithContext(ctx).
		Where("investigation_id = ?", investigationID).
		First(&brief).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("brief service: load brief: %w", err)
	}
	return &brief, nil
}

// Update applies a partial brief update.
func (s *BriefService) Update(ctx context.Context, briefID, actorID string, input UpdateBriefInput) (*models.Brief, error) {
	ctx = ensureContext(ctx)

	brief, err := s.Get(ctx, briefID)
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
	if input.Narrative != nil {
		updates["narrative"] = strings.TrimSpace(*input.Narrative)
	}
	if input.Sections != nil {
		sections, err := encodeBriefSections(input.Sections)
		if err != nil {
			return nil, fmt.Errorf("brief service: %w", err)
		}
		updates["sections"] = sections
	}

	if len(updates) == 0 {
		return brief, nil
	}

	if err := s.db.WithContext(ctx).Model(brief).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("brief service: update brief: %w", err)
	}

	s.recordActivity(ctx, actorID, "brief.updated", brief.ID, map[string]any{
		"fields": updateKeys(updates),
	})
	return s.Get(ctx, briefID)
}

// draftSections assembles the initial brief outline from the
// investigation's offences and evidence chain.
func draftSections(investigation *models.Investigation) []BriefSection {
	sections := []BriefSection{
		{Heading: "Summary of investigation", Body: investigation.Summary},
	}

	for _, offence := range investigation.Offences {
		body := offence.Description
		for _, burden := range offence.Burdens {
			state := "outstanding"
			if burden.Satisfied {
				state = "satisfied"
			}
			body += fmt.Sprintf("\nElement: %s (%s, %s)", burden.Element, burden.Standard, state)
		}
		sections = append(sections, BriefSection{
			Heading: fmt.Sprintf("Offence: %s", offence.Provision),
			Body:    strings.TrimSpace(body),
		})
	}

	if len(investigation.Evidence) > 0 {
		var body strings.Builder
		for _, item := range investigation.Evidence {
			fmt.Fprintf(&body, "%s (%s)\n", item.Title, item.Kind)
		}
		sections = append(sections, BriefSection{
			Heading: "Schedule of evidence",
			Body:    strings.TrimSpace(body.String()),
		})
	}
	return sections
}

func encodeBriefSections(sections []BriefSection) (datatypes.JSON, error) {
	if len(sections) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(sections)
	if err != nil {
		return nil, fmt.Errorf("encode sections: %w", err)
	}
	return datatypes.JSON(raw), nil
}

func (s *BriefService) recordActivity(ctx context.Context, actorID, action, entityID string, details map[string]any) {
	_ = s.activities.Record(ctx, RecordActivityInput{
		ActorID:    actorID,
		Action:     action,
		EntityType: "brief",
		EntityID:   entityID,
		Details:    details,
	})
}
