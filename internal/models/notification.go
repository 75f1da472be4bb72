package models

import (
	"time"

	"gorm.io/datatypes"
)

// Notification types emitted by the dispatch fan-out.
const (
	NotificationJobAssignment = "job_assignment"
	NotificationTeamJob       = "team_job"
	NotificationJobDispatched = "job_dispatched"
	NotificationJobCompleted  = "job_completed"
	NotificationJobCancelled  = "job_cancelled"
)

// Notification represents a persisted in-app notification for an officer.
type Notification struct {
	BaseModel

	UserID     string         `gorm:"type:uuid;index;not null" json:"user_id"`
	Type       string         `gorm:"type:varchar(64);not null" json:"type"`
	Title      string         `gorm:"type:varchar(255);not null" json:"title"`
	Message    string         `gorm:"type:text" json:"message"`
	Priority   string         `gorm:"type:varchar(32);default:'medium'" json:"priority"`
	EntityType string         `gorm:"type:varchar(64)" json:"entity_type"`
	EntityID   string         `gorm:"type:uuid" json:"entity_id"`
	Metadata   datatypes.JSON `json:"metadata"`

	IsRead bool       `gorm:"default:false;index" json:"is_read"`
	ReadAt *time.Time `json:"read_at"`
}
