package models

import "time"

// Schedule statuses as written by callers. Transitions are not validated
// server-side; side effects fire only on recognised status changes.
const (
	ScheduleStatusPending   = "pending"
	ScheduleStatusScheduled = "scheduled"
	ScheduleStatusActive    = "active"
	ScheduleStatusCompleted = "completed"
	ScheduleStatusCancelled = "cancelled"
)

// Notification / schedule priorities.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// Assignment responses.
const (
	AssignmentPending  = "pending"
	AssignmentAccepted = "accepted"
	AssignmentDeclined = "declined"
)

// TeamSchedule is a dispatch job for a team.
type TeamSchedule struct {
	BaseModel

	TeamID       string     `gorm:"type:uuid;index;not null" json:"team_id"`
	Title        string     `gorm:"not null" json:"title"`
	Details      string     `gorm:"type:text" json:"details"`
	Location     string     `json:"location"`
	Status       string     `gorm:"type:varchar(32);default:'pending';index" json:"status"`
	Priority     string     `gorm:"type:varchar(32);default:'medium'" json:"priority"`
	ScheduledFor *time.Time `json:"scheduled_for"`
	CreatedBy    string     `gorm:"type:uuid" json:"created_by"`

	Assignments []ScheduleAssignment `gorm:"constraint:OnDelete:CASCADE" json:"assignments,omitempty"`
}

// ScheduleAssignment addresses a schedule to a specific officer.
type ScheduleAssignment struct {
	BaseModel

	ScheduleID       string `gorm:"type:uuid;index;not null" json:"schedule_id"`
	UserID           string `gorm:"type:uuid;index;not null" json:"user_id"`
	AssignmentStatus string `gorm:"type:varchar(32);default:'pending'" json:"assignment_status"`
}
