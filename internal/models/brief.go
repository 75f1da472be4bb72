package models

import "gorm.io/datatypes"

// Brief statuses.
const (
	BriefStatusDraft  = "draft"
	BriefStatusReview = "review"
	BriefStatusServed = "served"
)

// Brief assembles an investigation into a prosecution brief.
type Brief struct {
	BaseModel

	InvestigationID string         `gorm:"type:uuid;uniqueIndex;not null" json:"investigation_id"`
	Title           string         `gorm:"not null" json:"title"`
	Status          string         `gorm:"type:varchar(32);default:'draft'" json:"status"`
	PreparedBy      string         `gorm:"type:uuid" json:"prepared_by"`
	Narrative       string         `gorm:"type:text" json:"narrative"`
	Sections        datatypes.JSON `json:"sections"`
}
