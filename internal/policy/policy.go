// Package policy is the access decision engine. Every function is a
// pure predicate over the acting principal and entity state the caller
// already loaded; no I/O happens here. Callers resolve missing
// resources to NotFound before asking for a decision.
package policy

import (
	"github.com/taskhive-dev/taskhive/internal/models"
	"github.com/taskhive-dev/taskhive/internal/types"
)

// Principal is the authenticated actor performing an action.
type Principal struct {
	ID     string
	Name   string
	Email  string
	Role   string
	TeamID *string
}

func (p Principal) IsManager() bool {
	return p.Role == types.RoleManager
}

// Decision is the outcome of an authorization check. A denied decision
// carries a human-readable reason.
type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(reason string) Decision {
	return Decision{Allowed: false, Reason: reason}
}

// CanCreateTask: managers create any task, employees only personal ones.
func CanCreateTask(p Principal, isPersonal bool) Decision {
	if p.IsManager() {
		return allow()
	}
	if !isPersonal {
		return deny("Employees can only create personal tasks")
	}
	return allow()
}

// CanEditTask also gates deletion; employees may only touch personal
// tasks they created themselves.
func CanEditTask(p Principal, task *models.Task) Decision {
	if p.IsManager() {
		return allow()
	}
	if task.IsPersonal && task.CreatedByID == p.ID {
		return allow()
	}
	return deny("You can only edit your own personal tasks")
}

// CanUpdateTaskStatus: employees may move tasks assigned to them, or
// their own personal tasks.
func CanUpdateTaskStatus(p Principal, task *models.Task) Decision {
	if p.IsManager() {
		return allow()
	}
	if assignedTo(task, p.ID) || (task.IsPersonal && task.CreatedByID == p.ID) {
		return allow()
	}
	return deny("You can only update status of tasks assigned to you")
}

func CanAssignTask(p Principal) Decision {
	if !p.IsManager() {
		return deny("Only managers can assign tasks")
	}
	return allow()
}

// CanCreateSubtask uses the same assignment condition as status updates
// on the parent task.
func CanCreateSubtask(p Principal, task *models.Task) Decision {
	if p.IsManager() {
		return allow()
	}
	if assignedTo(task, p.ID) || (task.IsPersonal && task.CreatedByID == p.ID) {
		return allow()
	}
	return deny("You can only create subtasks on tasks assigned to you")
}

// CanModifySubtask gates subtask edit and delete: employees must have
// created the subtask AND hold the parent-task condition.
func CanModifySubtask(p Principal, subtask *models.Subtask, task *models.Task) Decision {
	if p.IsManager() {
		return allow()
	}
	if subtask.CreatedByID == p.ID &&
		(assignedTo(task, p.ID) || (task.IsPersonal && task.CreatedByID == p.ID)) {
		return allow()
	}
	return deny("You can only modify subtasks you created on your assigned tasks")
}

// CanUpdateSubtaskStatus intentionally checks only the parent-task
// assignment condition, not subtask creatorship: anyone who may move the
// parent task may tick its subtasks.
func CanUpdateSubtaskStatus(p Principal, task *models.Task) Decision {
	if p.IsManager() {
		return allow()
	}
	if assignedTo(task, p.ID) || (task.IsPersonal && task.CreatedByID == p.ID) {
		return allow()
	}
	return deny("You can only update subtasks of tasks assigned to you")
}

func CanManageTeam(p Principal) Decision {
	if !p.IsManager() {
		return deny("Only managers can manage teams")
	}
	return allow()
}

func CanManageProject(p Principal) Decision {
	if !p.IsManager() {
		return deny("Only managers can manage projects")
	}
	return allow()
}

func CanViewAnalytics(p Principal) Decision {
	if !p.IsManager() {
		return deny("Only managers can view analytics")
	}
	return allow()
}

func CanUpdateUserRoleOrTeam(p Principal) Decision {
	if !p.IsManager() {
		return deny("Only managers can update user roles and teams")
	}
	return allow()
}

func assignedTo(task *models.Task, userID string) bool {
	return task.AssigneeID != nil && *task.AssigneeID == userID
}
