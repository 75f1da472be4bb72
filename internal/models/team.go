package models

// Team groups officers for dispatch and scheduling.
type Team struct {
	BaseModel

	Name        string `gorm:"not null;uniqueIndex" json:"name"`
	Region      string `json:"region"`
	Description string `json:"description"`

	Members []User `gorm:"many2many:team_members;" json:"members,omitempty"`
}

// TeamMember is the join row between teams and officers.
type TeamMember struct {
	TeamID string `gorm:"primaryKey;type:uuid" json:"team_id"`
	UserID string `gorm:"primaryKey;type:uuid" json:"user_id"`
	Role   string `gorm:"type:varchar(32);default:'officer'" json:"role"`
}
