package models

import (
	"time"

	"gorm.io/datatypes"
)

type Task struct {
	BaseModel

	Title          string `gorm:"not null"`
	Description    string
	Priority       string `gorm:"not null;default:medium"` // "low", "medium", "high", "urgent"
	Status         string `gorm:"not null;default:todo"`   // "todo", "in-progress", "review", "completed"
	DueDate        *time.Time
	ProjectID      *string `gorm:"type:uuid;index"` // nil for personal tasks
	AssigneeID     *string `gorm:"type:uuid;index"`
	CreatedByID    string  `gorm:"type:uuid;not null;index"`
	IsPersonal     bool    `gorm:"default:false;index"`
	CompletedAt    *time.Time
	EstimatedHours *float64
	ActualHours    *float64
	Tags           datatypes.JSONSlice[string]

	// Relationships
	Project  *Project  `gorm:"foreignKey:ProjectID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Assignee *User     `gorm:"foreignKey:AssigneeID"`
	Creator  User      `gorm:"foreignKey:CreatedByID"`
	Subtasks []Subtask `gorm:"foreignKey:TaskID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
