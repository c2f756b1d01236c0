// Package events carries domain events to and from the Kafka bus.
// Producing is fire-and-forget: a broker outage never fails the request
// that triggered the event.
package events

import "encoding/json"

// Topics
const (
	TopicTaskEvents = "task-events"
	// TopicNotificationEvents is reserved; no current producer writes to it.
	TopicNotificationEvents = "notification-events"
)

// Event types
const (
	TaskAssigned        = "TASK_ASSIGNED"
	TaskStatusChanged   = "TASK_STATUS_CHANGED"
	SubtaskAdded        = "SUBTASK_ADDED"
	DeadlineApproaching = "DEADLINE_APPROACHING"
	ProjectCreated      = "PROJECT_CREATED"
	TeamMemberAdded     = "TEAM_MEMBER_ADDED"
)

// Envelope is the wire format of every message: UTF-8 JSON with a
// server-assigned RFC 3339 timestamp.
type Envelope struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp string          `json:"timestamp"`
}

type TaskAssignedData struct {
	TaskID       string `json:"taskId"`
	TaskTitle    string `json:"taskTitle"`
	AssigneeID   string `json:"assigneeId"`
	AssigneeName string `json:"assigneeName"`
	AssignerID   string `json:"assignerId"`
	AssignerName string `json:"assignerName"`
}

type TaskStatusChangedData struct {
	TaskID         string `json:"taskId"`
	TaskTitle      string `json:"taskTitle"`
	PreviousStatus string `json:"previousStatus"`
	NewStatus      string `json:"newStatus"`
	ChangedByID    string `json:"changedById"`
	ChangedByName  string `json:"changedByName"`
}

type SubtaskAddedData struct {
	SubtaskID     string `json:"subtaskId"`
	SubtaskTitle  string `json:"subtaskTitle"`
	TaskID        string `json:"taskId"`
	TaskTitle     string `json:"taskTitle"`
	CreatedByID   string `json:"createdById"`
	CreatedByName string `json:"createdByName"`
}

type DeadlineApproachingData struct {
	TaskID     string `json:"taskId"`
	TaskTitle  string `json:"taskTitle"`
	DueDate    string `json:"dueDate"`
	AssigneeID string `json:"assigneeId"`
}

type ProjectCreatedData struct {
	ProjectID     string `json:"projectId"`
	ProjectName   string `json:"projectName"`
	TeamID        string `json:"teamId"`
	CreatedByID   string `json:"createdById"`
	CreatedByName string `json:"createdByName"`
}

type TeamMemberAddedData struct {
	TeamID      string `json:"teamId"`
	TeamName    string `json:"teamName"`
	UserID      string `json:"userId"`
	UserName    string `json:"userName"`
	AddedByID   string `json:"addedById"`
	AddedByName string `json:"addedByName"`
}

// Publisher is what the lifecycle manager sees. Implementations must
// swallow transport failures.
type Publisher interface {
	Publish(topic, eventType string, data any)
}
