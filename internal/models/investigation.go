package models

import "time"

// Investigation statuses.
const (
	InvestigationStatusOpen   = "open"
	InvestigationStatusActive = "active"
	InvestigationStatusClosed = "closed"
)

// Proof standards for an offence element.
const (
	ProofStandardCriminal = "beyond_reasonable_doubt"
	ProofStandardCivil    = "balance_of_probabilities"
)

// Investigation tracks a formal enquiry, optionally seeded from an inspection.
type Investigation struct {
	BaseModel

	Reference     string  `gorm:"uniqueIndex;not null" json:"reference"`
	Title         string  `gorm:"not null" json:"title"`
	Status        string  `gorm:"type:varchar(32);default:'open';index" json:"status"`
	LeadOfficerID string  `gorm:"type:uuid;index" json:"lead_officer_id"`
	InspectionID  *string `gorm:"type:uuid;index" json:"inspection_id"`
	Summary       string  `gorm:"type:text" json:"summary"`

	Offences []Offence  `gorm:"constraint:OnDelete:CASCADE" json:"offences,omitempty"`
	Evidence []Evidence `gorm:"constraint:OnDelete:CASCADE" json:"evidence,omitempty"`
}

// Offence is a charged provision within an investigation.
type Offence struct {
	BaseModel

	InvestigationID string `gorm:"type:uuid;index;not null" json:"investigation_id"`
	Provision       string `gorm:"not null" json:"provision"`
	Description     string `gorm:"type:text" json:"description"`

	Burdens []ProofBurden `gorm:"constraint:OnDelete:CASCADE" json:"burdens,omitempty"`
}

// ProofBurden is one element of an offence that must be established.
type ProofBurden struct {
	BaseModel

	OffenceID  string  `gorm:"type:uuid;index;not null" json:"offence_id"`
	Element    string  `gorm:"not null" json:"element"`
	Standard   string  `gorm:"type:varchar(64);default:'beyond_reasonable_doubt'" json:"standard"`
	Satisfied  bool    `gorm:"default:false" json:"satisfied"`
	EvidenceID *string `gorm:"type:uuid" json:"evidence_id"`
}

// Evidence is an item in the investigation's evidence chain.
type Evidence struct {
	BaseModel

	InvestigationID string     `gorm:"type:uuid;index;not null" json:"investigation_id"`
	Kind            string     `gorm:"type:varchar(32);not null" json:"kind"`
	Title           string     `gorm:"not null" json:"title"`
	Reference       string     `json:"reference"`
	CollectedBy     string     `gorm:"type:uuid" json:"collected_by"`
	CollectedAt     *time.Time `json:"collected_at"`
	ChainNotes      string     `gorm:"type:text" json:"chain_notes"`
}
