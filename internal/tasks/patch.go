package tasks

import (
	"time"

	"github.com/taskhive-dev/taskhive/internal/types"
)

type CreateTaskInput struct {
	Title          string     `json:"title" binding:"required"`
	Description    string     `json:"description"`
	Priority       string     `json:"priority"`
	Status         string     `json:"status"`
	DueDate        *time.Time `json:"due_date"`
	ProjectID      *string    `json:"project_id"`
	AssigneeID     *string    `json:"assignee_id"`
	IsPersonal     bool       `json:"is_personal"`
	EstimatedHours *float64   `json:"estimated_hours"`
	Tags           []string   `json:"tags"`
}

// TaskPatch is a partial update: absent fields keep their previous
// value; nullable fields are cleared only by an explicit null.
type TaskPatch struct {
	Title          *string                    `json:"title"`
	Description    *string                    `json:"description"`
	Priority       *string                    `json:"priority"`
	Status         *string                    `json:"status"`
	DueDate        types.Optional[*time.Time] `json:"due_date"`
	ProjectID      types.Optional[*string]    `json:"project_id"`
	AssigneeID     types.Optional[*string]    `json:"assignee_id"`
	EstimatedHours types.Optional[*float64]   `json:"estimated_hours"`
	ActualHours    types.Optional[*float64]   `json:"actual_hours"`
	Tags           *[]string                  `json:"tags"`
}

type CreateSubtaskInput struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
}

type SubtaskPatch struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
}
