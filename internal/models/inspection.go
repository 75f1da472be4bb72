package models

import (
	"time"

	"gorm.io/datatypes"
)

// Inspection statuses move draft -> submitted -> closed.
const (
	InspectionStatusDraft     = "draft"
	InspectionStatusSubmitted = "submitted"
	InspectionStatusClosed    = "closed"
)

// Inspection records a site visit by an officer.
type Inspection struct {
	BaseModel

	Reference   string         `gorm:"uniqueIndex;not null" json:"reference"`
	SiteName    string         `gorm:"not null" json:"site_name"`
	SiteAddress string         `json:"site_address"`
	OfficerID   string         `gorm:"type:uuid;index" json:"officer_id"`
	Status      string         `gorm:"type:varchar(32);default:'draft';index" json:"status"`
	InspectedAt *time.Time     `json:"inspected_at"`
	Summary     string         `gorm:"type:text" json:"summary"`
	Findings    datatypes.JSON `json:"findings"`

	Breaches []Breach `gorm:"constraint:OnDelete:CASCADE" json:"breaches,omitempty"`
}

// Breach documents a single non-compliance found during an inspection.
type Breach struct {
	BaseModel

	InspectionID string     `gorm:"type:uuid;index;not null" json:"inspection_id"`
	Code         string     `gorm:"not null" json:"code"`
	Description  string     `gorm:"type:text" json:"description"`
	Severity     string     `gorm:"type:varchar(32);default:'minor'" json:"severity"`
	Rectified    bool       `gorm:"default:false" json:"rectified"`
	RectifyBy    *time.Time `json:"rectify_by"`
}
