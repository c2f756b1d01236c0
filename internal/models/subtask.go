package models

import "time"

type Subtask struct {
	BaseModel

	Title       string `gorm:"not null"`
	Description string
	Status      string `gorm:"not null;default:todo"` // "todo", "in-progress", "completed"
	TaskID      string `gorm:"type:uuid;not null;index"`
	CreatedByID string `gorm:"type:uuid;not null;index"`
	CompletedAt *time.Time

	// Relationships
	Task    Task `gorm:"foreignKey:TaskID;constraint:OnUpdate:Cascade,OnDelete:CASCADE" json:"-"`
	Creator User `gorm:"foreignKey:CreatedByID"`
}
