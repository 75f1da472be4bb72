package models

import "gorm.io/datatypes"

// Activity is an audit record describing a mutation or transition.
type Activity struct {
	BaseModel

	ActorID    string         `gorm:"type:uuid;index" json:"actor_id"`
	Action     string         `gorm:"type:varchar(64);not null;index" json:"action"`
	EntityType string         `gorm:"type:varchar(64);index" json:"entity_type"`
	EntityID   string         `gorm:"type:uuid;index" json:"entity_id"`
	Details    datatypes.JSON `json:"details"`
}
