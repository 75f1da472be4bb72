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
)

// RecordActivityInput describes one audit entry.
type RecordActivityInput struct {
	ActorID    string
	Action     string
	EntityType string
	EntityID   string
	Details    map[string]any
}

// ListActivitiesInput filters the audit trail.
type ListActivitiesInput struct {
	EntityType string
	EntityID   string
	ActorID    string
	Limit      int
	Offset     int
}

// ActivityService writes and reads the audit trail. Audit writes are
// independent of the notification channel: a failed notification never
// rolls back an activity record and vice versa.
type ActivityService struct {
	db *gorm.DB
}

// NewActivityService constructs an ActivityService.
func NewActivityService(db *gorm.DB) (*ActivityService, error) {
	if db == nil {
		return nil, errors.New("activity service: db is required")
	}
	return &ActivityService{db: db}, nil
}

// Record persists one audit entry.
func (s *ActivityService) Record(ctx context.Context, input RecordActivityInput) error {
	ctx = ensureContext(ctx)

	action := strings.TrimSpace(input.Action)
	if action == "" {
		return errors.New("activity service: action is required")
	}

	entry := models.Activity{
		ActorID:    strings.TrimSpace(input.ActorID),
		Action:     action,
		EntityType: strings.TrimSpace(input.EntityType),
		EntityID:   strings.TrimSpace(input.EntityID),
	}

	if len(input.Details) > 0 {
		raw, err := json.Marshal(input.Details)
		if err != nil {
			return fmt.Errorf("activity service: encode details: %w", err)
		}
		entry.Details = datatypes.JSON(raw)
	}

	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return fmt.Errorf("activity service: record activity: %w", err)
	}
	return nil
}

// List returns audit entries newest first.
func (s *ActivityService) List(ctx context.Context, input ListActivitiesInput) ([]models.Activity, error) {
	ctx = ensureContext(ctx)

	limit := input.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	query := s.db.WithContext(ctx).Model(&models.Activity{})
	if entityType := strings.TrimSpace(input.EntityType); entityType != "" {
		query = query.Where("entity_type = ?", entityType)
	}
	if entityID := strings.TrimSpace(input.EntityID); entityID != "" {
		query = query.Where("entity_id = ?", entityID)
	}
	if actorID := strings.TrimSpace(input.ActorID); actorID != "" {
		query = query.Where("actor_id = ?", actorID)
	}

	var rows []models.Activity
	if err := query.
		Order("created_at DESC").
		Limit(limit).
		Offset(max(0, input.Offset)).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("activity service: list activities: %w", err)
	}
	return rows, nil
}

// PurgeOlderThan removes audit entries beyond the retention window and
// returns the number deleted.
func (s *ActivityService) PurgeOlderThan(ctx context.Context, retention time.Duration) (int64, error) {
	ctx = ensureContext(ctx)
	if retention <= 0 {
		return 0, nil
	}

	cutoff := time.Now().Add(-retention)
	result := s.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&models.Activity{})
	if result.Error != nil {
		return 0, fmt.Errorf("activity service: purge activities: %w", result.Error)
	}
	return result.RowsAffected, nil
}
