package types

import (
	"os"
	"strings"
)

const ContextUserKey = "user"

// Roles
const (
	RoleManager  = "manager"
	RoleEmployee = "employee"
)

// Task statuses
const (
	TaskStatusTodo       = "todo"
	TaskStatusInProgress = "in-progress"
	TaskStatusReview     = "review"
	TaskStatusCompleted  = "completed"
)

// Task priorities
const (
	TaskPriorityLow    = "low"
	TaskPriorityMedium = "medium"
	TaskPriorityHigh   = "high"
	TaskPriorityUrgent = "urgent"
)

// Subtask statuses
const (
	SubtaskStatusTodo       = "todo"
	SubtaskStatusInProgress = "in-progress"
	SubtaskStatusCompleted  = "completed"
)

// Project statuses
const (
	ProjectStatusPlanning  = "planning"
	ProjectStatusActive    = "active"
	ProjectStatusOnHold    = "on-hold"
	ProjectStatusCompleted = "completed"
	ProjectStatusCancelled = "cancelled"
)

// Notification types
const (
	NotificationTaskAssigned      = "task_assigned"
	NotificationTaskStatusChanged = "task_status_changed"
	NotificationSubtaskAdded      = "subtask_added"
	NotificationDeadline          = "deadline_approaching"
	NotificationProjectUpdate     = "project_update"
	NotificationTeamUpdate        = "team_update"
	NotificationMention           = "mention"
)

func ValidTaskStatus(s string) bool {
	switch s {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusReview, TaskStatusCompleted:
		return true
	}
	return false
}

func ValidTaskPriority(s string) bool {
	switch s {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh, TaskPriorityUrgent:
		return true
	}
	return false
}

func ValidSubtaskStatus(s string) bool {
	switch s {
	case SubtaskStatusTodo, SubtaskStatusInProgress, SubtaskStatusCompleted:
		return true
	}
	return false
}

var (
	// Default allowed origins for development
	defaultOrigins = []string{
		"http://localhost:3000",
		"http://localhost:5173",
	}

	AllowedOrigins = initAllowedOrigins()
)

func initAllowedOrigins() []string {
	origins := make([]string, len(defaultOrigins))
	copy(origins, defaultOrigins)

	if clientURL := os.Getenv("CLIENT_URL"); clientURL != "" {
		origins = append(origins, clientURL)
	}

	if allowedOrigins := os.Getenv("ALLOWED_ORIGINS"); allowedOrigins != "" {
		envOrigins := strings.Split(allowedOrigins, ",")
		for _, origin := range envOrigins {
			trimmed := strings.TrimSpace(origin)
			if trimmed != "" {
				origins = append(origins, trimmed)
			}
		}
	}

	return origins
}
