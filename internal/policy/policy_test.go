package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/taskhive-dev/taskhive/internal/models"
	"github.com/taskhive-dev/taskhive/internal/types"
)

func manager(id string) Principal {
	return Principal{ID: id, Name: "Morgan", Role: types.RoleManager}
}

func employee(id string) Principal {
	return Principal{ID: id, Name: "Evan", Role: types.RoleEmployee}
}

func strptr(s string) *string { return &s }

func TestCanCreateTask(t *testing.T) {
	tests := []struct {
		name       string
		principal  Principal
		isPersonal bool
		allowed    bool
		reason     string
	}{
		{"manager creates team task", manager("m1"), false, true, ""},
		{"manager creates personal task", manager("m1"), true, true, ""},
		{"employee creates personal task", employee("e1"), true, true, ""},
		{"employee creates team task", employee("e1"), false, false, "Employees can only create personal tasks"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := CanCreateTask(tt.principal, tt.isPersonal)
			assert.Equal(t, tt.allowed, d.Allowed)
			assert.Equal(t, tt.reason, d.Reason)
		})
	}
}

func TestCanEditTask(t *testing.T) {
	ownPersonal := &models.Task{IsPersonal: true, CreatedByID: "e1"}
	othersPersonal := &models.Task{IsPersonal: true, CreatedByID: "e2"}
	assigned := &models.Task{AssigneeID: strptr("e1"), CreatedByID: "m1"}

	tests := []struct {
		name      string
		principal Principal
		task      *models.Task
		allowed   bool
	}{
		{"manager edits anything", manager("m1"), othersPersonal, true},
		{"employee edits own personal task", employee("e1"), ownPersonal, true},
		{"employee edits someone else's personal task", employee("e1"), othersPersonal, false},
		{"employee edits task assigned to them", employee("e1"), assigned, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := CanEditTask(tt.principal, tt.task)
			assert.Equal(t, tt.allowed, d.Allowed)
			if !tt.allowed {
				assert.Equal(t, "You can only edit your own personal tasks", d.Reason)
			}
		})
	}
}

func TestCanUpdateTaskStatus(t *testing.T) {
	tests := []struct {
		name      string
		principal Principal
		task      *models.Task
		allowed   bool
	}{
		{"manager moves any task", manager("m1"), &models.Task{CreatedByID: "e2"}, true},
		{"assignee moves their task", employee("e1"), &models.Task{AssigneeID: strptr("e1")}, true},
		{"creator moves own personal task", employee("e1"), &models.Task{IsPersonal: true, CreatedByID: "e1"}, true},
		{"creator of non-personal task denied", employee("e1"), &models.Task{CreatedByID: "e1"}, false},
		{"unrelated employee denied", employee("e1"), &models.Task{AssigneeID: strptr("e2")}, false},
		{"unassigned task denied", employee("e1"), &models.Task{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := CanUpdateTaskStatus(tt.principal, tt.task)
			assert.Equal(t, tt.allowed, d.Allowed)
			if !tt.allowed {
				assert.Equal(t, "You can only update status of tasks assigned to you", d.Reason)
			}
		})
	}
}

func TestCanAssignTask(t *testing.T) {
	assert.True(t, CanAssignTask(manager("m1")).Allowed)

	d := CanAssignTask(employee("e1"))
	assert.False(t, d.Allowed)
	assert.Equal(t, "Only managers can assign tasks", d.Reason)
}

func TestCanCreateSubtask(t *testing.T) {
	tests := []struct {
		name      string
		principal Principal
		task      *models.Task
		allowed   bool
	}{
		{"manager on any task", manager("m1"), &models.Task{}, true},
		{"assignee on their task", employee("e1"), &models.Task{AssigneeID: strptr("e1")}, true},
		{"creator on own personal task", employee("e1"), &models.Task{IsPersonal: true, CreatedByID: "e1"}, true},
		{"unrelated employee", employee("e1"), &models.Task{AssigneeID: strptr("e2")}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := CanCreateSubtask(tt.principal, tt.task)
			assert.Equal(t, tt.allowed, d.Allowed)
			if !tt.allowed {
				assert.Equal(t, "You can only create subtasks on tasks assigned to you", d.Reason)
			}
		})
	}
}

func TestCanModifySubtask(t *testing.T) {
	parent := &models.Task{AssigneeID: strptr("e1")}

	tests := []struct {
		name      string
		principal Principal
		subtask   *models.Subtask
		task      *models.Task
		allowed   bool
	}{
		{"manager modifies any subtask", manager("m1"), &models.Subtask{CreatedByID: "e2"}, parent, true},
		{"creator-assignee modifies own subtask", employee("e1"), &models.Subtask{CreatedByID: "e1"}, parent, true},
		{"assignee did not create the subtask", employee("e1"), &models.Subtask{CreatedByID: "m1"}, parent, false},
		{"creator no longer assigned", employee("e1"), &models.Subtask{CreatedByID: "e1"}, &models.Task{AssigneeID: strptr("e2")}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := CanModifySubtask(tt.principal, tt.subtask, tt.task)
			assert.Equal(t, tt.allowed, d.Allowed)
			if !tt.allowed {
				assert.Equal(t, "You can only modify subtasks you created on your assigned tasks", d.Reason)
			}
		})
	}
}

// Status updates on subtasks ignore creatorship on purpose: the parent
// task condition alone decides.
func TestCanUpdateSubtaskStatusIgnoresCreator(t *testing.T) {
	parent := &models.Task{AssigneeID: strptr("e1")}

	d := CanUpdateSubtaskStatus(employee("e1"), parent)
	assert.True(t, d.Allowed)

	d = CanUpdateSubtaskStatus(employee("e2"), parent)
	assert.False(t, d.Allowed)
	assert.Equal(t, "You can only update subtasks of tasks assigned to you", d.Reason)
}

func TestManagerOnlyChecks(t *testing.T) {
	m, e := manager("m1"), employee("e1")

	tests := []struct {
		name   string
		check  func(Principal) Decision
		reason string
	}{
		{"teams", CanManageTeam, "Only managers can manage teams"},
		{"projects", CanManageProject, "Only managers can manage projects"},
		{"analytics", CanViewAnalytics, "Only managers can view analytics"},
		{"user roles", CanUpdateUserRoleOrTeam, "Only managers can update user roles and teams"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.check(m).Allowed)

			d := tt.check(e)
			assert.False(t, d.Allowed)
			assert.Equal(t, tt.reason, d.Reason)
		})
	}
}
