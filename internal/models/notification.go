package models

import (
	"gorm.io/datatypes"
)

type Notification struct {
	BaseModel

	Type     string            `gorm:"not null"` // "task_assigned", "task_status_changed", "subtask_added", ...
	Title    string            `gorm:"not null"`
	Message  string            `gorm:"not null"`
	UserID   string            `gorm:"type:uuid;not null;index"`
	IsRead   bool              `gorm:"default:false;index"`
	Metadata datatypes.JSONMap `gorm:"type:jsonb"`

	// Relationships
	User User `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE" json:"-"`
}
