package models

import "time"

type Project struct {
	BaseModel

	Name        string `gorm:"not null"`
	Description string
	Status      string `gorm:"not null;default:planning"` // "planning", "active", "on-hold", "completed", "cancelled"
	Priority    string `gorm:"not null;default:medium"`   // "low", "medium", "high", "critical"
	StartDate   *time.Time
	EndDate     *time.Time
	Color       string `gorm:"default:#8b5cf6"`
	TeamID      string `gorm:"type:uuid;not null;index"`
	CreatedByID string `gorm:"type:uuid;not null;index"`

	// Relationships
	Team    Team   `gorm:"foreignKey:TeamID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Creator User   `gorm:"foreignKey:CreatedByID"`
	Tasks   []Task `gorm:"foreignKey:ProjectID"`
}
