// Package tasks orchestrates the task and subtask lifecycle: it
// authorizes against the policy engine, mutates the store, and then
// dispatches notifications and events as trailing side effects.
//
// Side effects run in a fixed order after the entity write (notify,
// then publish) and their failures are logged, never returned.
package tasks

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/taskhive-dev/taskhive/internal/apperr"
	"github.com/taskhive-dev/taskhive/internal/events"
	"github.com/taskhive-dev/taskhive/internal/models"
	"github.com/taskhive-dev/taskhive/internal/notify"
	"github.com/taskhive-dev/taskhive/internal/policy"
	"github.com/taskhive-dev/taskhive/internal/types"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Manager struct {
	DB       *gorm.DB
	Notifier *notify.Dispatcher
	Events   events.Publisher
	Now      func() time.Time
}

func NewManager(db *gorm.DB, notifier *notify.Dispatcher, publisher events.Publisher) *Manager {
	return &Manager{
		DB:       db,
		Notifier: notifier,
		Events:   publisher,
		Now:      time.Now,
	}
}

func (m *Manager) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}

func (m *Manager) CreateTask(p policy.Principal, input CreateTaskInput) (*models.Task, error) {
	if d := policy.CanCreateTask(p, input.IsPersonal); !d.Allowed {
		return nil, apperr.Forbidden(d.Reason)
	}

	if input.Title == "" {
		return nil, apperr.Validation("Title is required")
	}

	if input.Status != "" && !types.ValidTaskStatus(input.Status) {
		return nil, apperr.Validation("Invalid task status")
	}

	if input.Priority != "" && !types.ValidTaskPriority(input.Priority) {
		return nil, apperr.Validation("Invalid task priority")
	}

	// Personal tasks are always self-assigned and project-less,
	// regardless of what the caller supplied.
	if input.IsPersonal {
		input.ProjectID = nil
		input.AssigneeID = nil
	}

	if input.ProjectID != nil {
		var project models.Project
		if err := m.DB.First(&project, "id = ?", *input.ProjectID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperr.NotFound("Project not found")
			}
			return nil, err
		}
	}

	var assignee *models.User
	if input.AssigneeID != nil {
		var user models.User
		if err := m.DB.First(&user, "id = ?", *input.AssigneeID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperr.NotFound("Assignee not found")
			}
			return nil, err
		}
		assignee = &user
	}

	task := models.Task{
		Title:          input.Title,
		Description:    input.Description,
		Priority:       input.Priority,
		Status:         input.Status,
		DueDate:        input.DueDate,
		ProjectID:      input.ProjectID,
		AssigneeID:     input.AssigneeID,
		CreatedByID:    p.ID,
		IsPersonal:     input.IsPersonal,
		EstimatedHours: input.EstimatedHours,
		Tags:           datatypes.NewJSONSlice(input.Tags),
	}

	if task.Priority == "" {
		task.Priority = types.TaskPriorityMedium
	}
	if task.Status == "" {
		task.Status = types.TaskStatusTodo
	}

	if task.IsPersonal {
		task.AssigneeID = &p.ID
	}

	m.applyStatusRule(&task.Status, task.Status, &task.CompletedAt)

	if err := m.DB.Create(&task).Error; err != nil {
		return nil, err
	}

	if assignee != nil && assignee.ID != p.ID {
		m.dispatchAssigned(p, &task, *assignee, "New Task Assigned",
			fmt.Sprintf("You have been assigned to task: %s", task.Title))
	}

	return &task, nil
}

func (m *Manager) UpdateTask(p policy.Principal, id string, patch TaskPatch) (*models.Task, error) {
	task, err := m.loadTask(id)
	if err != nil {
		return nil, err
	}

	if d := policy.CanEditTask(p, task); !d.Allowed {
		return nil, apperr.Forbidden(d.Reason)
	}

	previousAssignee := task.AssigneeID

	if patch.Title != nil && *patch.Title != "" {
		task.Title = *patch.Title
	}
	if patch.Description != nil {
		task.Description = *patch.Description
	}
	if patch.Priority != nil && *patch.Priority != "" {
		if !types.ValidTaskPriority(*patch.Priority) {
			return nil, apperr.Validation("Invalid task priority")
		}
		task.Priority = *patch.Priority
	}
	if patch.DueDate.Set {
		task.DueDate = patch.DueDate.Value
	}
	if patch.EstimatedHours.Set {
		task.EstimatedHours = patch.EstimatedHours.Value
	}
	if patch.ActualHours.Set {
		task.ActualHours = patch.ActualHours.Value
	}
	if patch.Tags != nil {
		task.Tags = datatypes.NewJSONSlice(*patch.Tags)
	}

	if patch.ProjectID.Set {
		if patch.ProjectID.Value != nil {
			var project models.Project
			if err := m.DB.First(&project, "id = ?", *patch.ProjectID.Value).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return nil, apperr.NotFound("Project not found")
				}
				return nil, err
			}
		}
		task.ProjectID = patch.ProjectID.Value
	}

	var newAssignee *models.User
	if patch.AssigneeID.Set {
		if patch.AssigneeID.Value != nil {
			var user models.User
			if err := m.DB.First(&user, "id = ?", *patch.AssigneeID.Value).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return nil, apperr.NotFound("Assignee not found")
				}
				return nil, err
			}
			newAssignee = &user
		}
		task.AssigneeID = patch.AssigneeID.Value
	}

	if patch.Status != nil && *patch.Status != "" {
		if !types.ValidTaskStatus(*patch.Status) {
			return nil, apperr.Validation("Invalid task status")
		}
		m.applyStatusRule(&task.Status, *patch.Status, &task.CompletedAt)
	}

	if err := m.DB.Save(task).Error; err != nil {
		return nil, err
	}

	if newAssignee != nil && newAssignee.ID != p.ID &&
		(previousAssignee == nil || *previousAssignee != newAssignee.ID) {
		m.dispatchAssigned(p, task, *newAssignee, "Task Assigned to You",
			fmt.Sprintf("You have been assigned to task: %s", task.Title))
	}

	return task, nil
}

func (m *Manager) UpdateTaskStatus(p policy.Principal, id, status string) (*models.Task, error) {
	if !types.ValidTaskStatus(status) {
		return nil, apperr.Validation("Invalid task status")
	}

	task, err := m.loadTask(id)
	if err != nil {
		return nil, err
	}

	if d := policy.CanUpdateTaskStatus(p, task); !d.Allowed {
		return nil, apperr.Forbidden(d.Reason)
	}

	previousStatus := task.Status
	m.applyStatusRule(&task.Status, status, &task.CompletedAt)

	if err := m.DB.Save(task).Error; err != nil {
		return nil, err
	}

	// The acting user is never notified of their own change; the event
	// is published regardless of actor.
	if err := m.Notifier.Notify(p.ID, task.CreatedByID, types.NotificationTaskStatusChanged,
		"Task Status Updated",
		fmt.Sprintf("Task %q status changed from %s to %s", task.Title, previousStatus, status),
		map[string]any{"taskId": task.ID, "previousStatus": previousStatus, "newStatus": status},
	); err != nil {
		log.Printf("Failed to create status notification for task %s: %v", task.ID, err)
	}

	m.publish(events.TaskStatusChanged, events.TaskStatusChangedData{
		TaskID:         task.ID,
		TaskTitle:      task.Title,
		PreviousStatus: previousStatus,
		NewStatus:      status,
		ChangedByID:    p.ID,
		ChangedByName:  p.Name,
	})

	return task, nil
}

func (m *Manager) AssignTask(p policy.Principal, id, assigneeID string) (*models.Task, error) {
	if d := policy.CanAssignTask(p); !d.Allowed {
		return nil, apperr.Forbidden(d.Reason)
	}

	task, err := m.loadTask(id)
	if err != nil {
		return nil, err
	}

	var assignee models.User
	if err := m.DB.First(&assignee, "id = ?", assigneeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Assignee not found")
		}
		return nil, err
	}

	task.AssigneeID = &assigneeID

	if err := m.DB.Save(task).Error; err != nil {
		return nil, err
	}

	if assigneeID != p.ID {
		m.dispatchAssigned(p, task, assignee, "Task Assigned to You",
			fmt.Sprintf("You have been assigned to task: %s", task.Title))
	}

	return task, nil
}

// DeleteTask removes the task's subtasks first so no orphans remain,
// then the task itself.
func (m *Manager) DeleteTask(p policy.Principal, id string) error {
	task, err := m.loadTask(id)
	if err != nil {
		return err
	}

	if d := policy.CanEditTask(p, task); !d.Allowed {
		return apperr.Forbidden(d.Reason)
	}

	if err := m.DB.Where("task_id = ?", task.ID).Delete(&models.Subtask{}).Error; err != nil {
		return err
	}

	return m.DB.Delete(task).Error
}

func (m *Manager) CreateSubtask(p policy.Principal, taskID string, input CreateSubtaskInput) (*models.Subtask, error) {
	task, err := m.loadTask(taskID)
	if err != nil {
		return nil, err
	}

	if d := policy.CanCreateSubtask(p, task); !d.Allowed {
		return nil, apperr.Forbidden(d.Reason)
	}

	if input.Title == "" {
		return nil, apperr.Validation("Title is required")
	}

	subtask := models.Subtask{
		Title:       input.Title,
		Description: input.Description,
		Status:      types.SubtaskStatusTodo,
		TaskID:      task.ID,
		CreatedByID: p.ID,
	}

	if err := m.DB.Create(&subtask).Error; err != nil {
		return nil, err
	}

	// Target the task creator unless they are the actor, in which case
	// fall back to the assignee. The dispatcher skips self-notifies.
	notifyUserID := task.CreatedByID
	if task.CreatedByID == p.ID {
		notifyUserID = ""
		if task.AssigneeID != nil {
			notifyUserID = *task.AssigneeID
		}
	}

	if err := m.Notifier.Notify(p.ID, notifyUserID, types.NotificationSubtaskAdded,
		"New Subtask Added",
		fmt.Sprintf("Subtask %q was added to task %q", subtask.Title, task.Title),
		map[string]any{"taskId": task.ID, "subtaskId": subtask.ID},
	); err != nil {
		log.Printf("Failed to create subtask notification for task %s: %v", task.ID, err)
	}

	m.publish(events.SubtaskAdded, events.SubtaskAddedData{
		SubtaskID:     subtask.ID,
		SubtaskTitle:  subtask.Title,
		TaskID:        task.ID,
		TaskTitle:     task.Title,
		CreatedByID:   p.ID,
		CreatedByName: p.Name,
	})

	return &subtask, nil
}

func (m *Manager) UpdateSubtask(p policy.Principal, id string, patch SubtaskPatch) (*models.Subtask, error) {
	subtask, err := m.loadSubtask(id)
	if err != nil {
		return nil, err
	}

	if d := policy.CanModifySubtask(p, subtask, &subtask.Task); !d.Allowed {
		return nil, apperr.Forbidden(d.Reason)
	}

	if patch.Title != nil && *patch.Title != "" {
		subtask.Title = *patch.Title
	}
	if patch.Description != nil {
		subtask.Description = *patch.Description
	}
	if patch.Status != nil && *patch.Status != "" {
		if !types.ValidSubtaskStatus(*patch.Status) {
			return nil, apperr.Validation("Invalid subtask status")
		}
		m.applyStatusRule(&subtask.Status, *patch.Status, &subtask.CompletedAt)
	}

	if err := m.DB.Save(subtask).Error; err != nil {
		return nil, err
	}

	return subtask, nil
}

// UpdateSubtaskStatus authorizes against the parent task's assignment
// condition only; who created the subtask does not matter here.
func (m *Manager) UpdateSubtaskStatus(p policy.Principal, id, status string) (*models.Subtask, error) {
	if !types.ValidSubtaskStatus(status) {
		return nil, apperr.Validation("Invalid subtask status")
	}

	subtask, err := m.loadSubtask(id)
	if err != nil {
		return nil, err
	}

	if d := policy.CanUpdateSubtaskStatus(p, &subtask.Task); !d.Allowed {
		return nil, apperr.Forbidden(d.Reason)
	}

	m.applyStatusRule(&subtask.Status, status, &subtask.CompletedAt)

	if err := m.DB.Save(subtask).Error; err != nil {
		return nil, err
	}

	return subtask, nil
}

func (m *Manager) DeleteSubtask(p policy.Principal, id string) error {
	subtask, err := m.loadSubtask(id)
	if err != nil {
		return err
	}

	if d := policy.CanModifySubtask(p, subtask, &subtask.Task); !d.Allowed {
		return apperr.Forbidden(d.Reason)
	}

	return m.DB.Delete(subtask).Error
}

// applyStatusRule writes the new status and keeps completedAt in sync:
// entering completed stamps it, any other status clears it. This holds
// even when the same status is re-submitted.
func (m *Manager) applyStatusRule(status *string, newStatus string, completedAt **time.Time) {
	*status = newStatus
	if newStatus == types.TaskStatusCompleted {
		now := m.now()
		*completedAt = &now
	} else {
		*completedAt = nil
	}
}

func (m *Manager) loadTask(id string) (*models.Task, error) {
	var task models.Task
	if err := m.DB.First(&task, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Task not found")
		}
		return nil, err
	}
	return &task, nil
}

func (m *Manager) loadSubtask(id string) (*models.Subtask, error) {
	var subtask models.Subtask
	if err := m.DB.Preload("Task").First(&subtask, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Subtask not found")
		}
		return nil, err
	}
	return &subtask, nil
}

func (m *Manager) dispatchAssigned(p policy.Principal, task *models.Task, assignee models.User, title, message string) {
	if err := m.Notifier.Notify(p.ID, assignee.ID, types.NotificationTaskAssigned,
		title, message, map[string]any{"taskId": task.ID},
	); err != nil {
		log.Printf("Failed to create assignment notification for task %s: %v", task.ID, err)
	}

	m.publish(events.TaskAssigned, events.TaskAssignedData{
		TaskID:       task.ID,
		TaskTitle:    task.Title,
		AssigneeID:   assignee.ID,
		AssigneeName: assignee.Name,
		AssignerID:   p.ID,
		AssignerName: p.Name,
	})
}

func (m *Manager) publish(eventType string, data any) {
	if m.Events == nil {
		return
	}
	m.Events.Publish(events.TopicTaskEvents, eventType, data)
}
