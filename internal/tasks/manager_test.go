package tasks

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskhive-dev/taskhive/internal/apperr"
	"github.com/taskhive-dev/taskhive/internal/events"
	"github.com/taskhive-dev/taskhive/internal/models"
	"github.com/taskhive-dev/taskhive/internal/notify"
	"github.com/taskhive-dev/taskhive/internal/policy"
	"github.com/taskhive-dev/taskhive/internal/types"
	"gorm.io/gorm"
)

type recordedEvent struct {
	Topic string
	Type  string
	Data  any
}

type recordingPublisher struct {
	events []recordedEvent
}

func (r *recordingPublisher) Publish(topic, eventType string, data any) {
	r.events = append(r.events, recordedEvent{Topic: topic, Type: eventType, Data: data})
}

func newTestManager(t *testing.T) (*Manager, *recordingPublisher) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&models.User{}, &models.Team{}, &models.Project{},
		&models.Task{}, &models.Subtask{}, &models.Notification{},
	)
	require.NoError(t, err)

	pub := &recordingPublisher{}
	return NewManager(db, notify.NewDispatcher(db), pub), pub
}

func createUser(t *testing.T, db *gorm.DB, name, email, role string) models.User {
	t.Helper()

	user := models.User{Name: name, Email: email, PasswordHash: "x", Role: role, IsActive: true}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func principalFor(user models.User) policy.Principal {
	return policy.Principal{ID: user.ID, Name: user.Name, Email: user.Email, Role: user.Role, TeamID: user.TeamID}
}

func notificationsFor(t *testing.T, db *gorm.DB, userID string) []models.Notification {
	t.Helper()

	var notifications []models.Notification
	require.NoError(t, db.Where("user_id = ?", userID).Find(&notifications).Error)
	return notifications
}

func TestCreateTaskPersonalForcesSelfAssignment(t *testing.T) {
	m, pub := newTestManager(t)
	emp := createUser(t, m.DB, "Evan", "evan@example.com", types.RoleEmployee)
	other := createUser(t, m.DB, "Olga", "olga@example.com", types.RoleEmployee)

	bogusProject := "00000000-0000-0000-0000-000000000001"
	task, err := m.CreateTask(principalFor(emp), CreateTaskInput{
		Title:      "Water the plants",
		IsPersonal: true,
		ProjectID:  &bogusProject,
		AssigneeID: &other.ID,
	})
	require.NoError(t, err)

	assert.Nil(t, task.ProjectID)
	require.NotNil(t, task.AssigneeID)
	assert.Equal(t, emp.ID, *task.AssigneeID)

	// Self-assignment produces no side effects.
	assert.Empty(t, pub.events)
	assert.Empty(t, notificationsFor(t, m.DB, other.ID))
}

func TestCreateTaskEmployeeTeamTaskDenied(t *testing.T) {
	m, _ := newTestManager(t)
	emp := createUser(t, m.DB, "Evan", "evan@example.com", types.RoleEmployee)

	_, err := m.CreateTask(principalFor(emp), CreateTaskInput{Title: "Quarterly report"})
	require.Error(t, err)
	assert.True(t, apperr.IsForbidden(err))
	assert.Equal(t, "Employees can only create personal tasks", apperr.Message(err))
}

func TestCreateTaskAssignedDispatchesOnce(t *testing.T) {
	m, pub := newTestManager(t)
	mgr := createUser(t, m.DB, "Morgan", "morgan@example.com", types.RoleManager)
	emp := createUser(t, m.DB, "Evan", "evan@example.com", types.RoleEmployee)

	task, err := m.CreateTask(principalFor(mgr), CreateTaskInput{
		Title:      "Ship release notes",
		AssigneeID: &emp.ID,
	})
	require.NoError(t, err)

	notifications := notificationsFor(t, m.DB, emp.ID)
	require.Len(t, notifications, 1)
	assert.Equal(t, types.NotificationTaskAssigned, notifications[0].Type)

	require.Len(t, pub.events, 1)
	assert.Equal(t, events.TopicTaskEvents, pub.events[0].Topic)
	assert.Equal(t, events.TaskAssigned, pub.events[0].Type)

	data := pub.events[0].Data.(events.TaskAssignedData)
	assert.Equal(t, task.ID, data.TaskID)
	assert.Equal(t, emp.ID, data.AssigneeID)
	assert.Equal(t, mgr.ID, data.AssignerID)
}

func TestCreateTaskSelfAssignedNoSideEffects(t *testing.T) {
	m, pub := newTestManager(t)
	mgr := createUser(t, m.DB, "Morgan", "morgan@example.com", types.RoleManager)

	_, err := m.CreateTask(principalFor(mgr), CreateTaskInput{
		Title:      "Prep board slides",
		AssigneeID: &mgr.ID,
	})
	require.NoError(t, err)

	assert.Empty(t, pub.events)
	assert.Empty(t, notificationsFor(t, m.DB, mgr.ID))
}

func TestCreateTaskUnknownReferences(t *testing.T) {
	m, _ := newTestManager(t)
	mgr := createUser(t, m.DB, "Morgan", "morgan@example.com", types.RoleManager)

	missing := "00000000-0000-0000-0000-000000000009"

	_, err := m.CreateTask(principalFor(mgr), CreateTaskInput{Title: "X", ProjectID: &missing})
	assert.True(t, apperr.IsNotFound(err))
	assert.Equal(t, "Project not found", apperr.Message(err))

	_, err = m.CreateTask(principalFor(mgr), CreateTaskInput{Title: "X", AssigneeID: &missing})
	assert.True(t, apperr.IsNotFound(err))
	assert.Equal(t, "Assignee not found", apperr.Message(err))
}

func TestCompletedAtLifecycle(t *testing.T) {
	m, _ := newTestManager(t)
	mgr := createUser(t, m.DB, "Morgan", "morgan@example.com", types.RoleManager)
	p := principalFor(mgr)

	stamp := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	m.Now = func() time.Time { return stamp }

	task, err := m.CreateTask(p, CreateTaskInput{Title: "Audit access logs"})
	require.NoError(t, err)
	assert.Nil(t, task.CompletedAt)

	task, err = m.UpdateTaskStatus(p, task.ID, types.TaskStatusCompleted)
	require.NoError(t, err)
	require.NotNil(t, task.CompletedAt)
	assert.True(t, task.CompletedAt.Equal(stamp))

	// Leaving completed clears the stamp.
	task, err = m.UpdateTaskStatus(p, task.ID, types.TaskStatusInProgress)
	require.NoError(t, err)
	assert.Nil(t, task.CompletedAt)

	// Re-entering completed stamps the new time.
	later := stamp.Add(48 * time.Hour)
	m.Now = func() time.Time { return later }

	task, err = m.UpdateTaskStatus(p, task.ID, types.TaskStatusCompleted)
	require.NoError(t, err)
	require.NotNil(t, task.CompletedAt)
	assert.True(t, task.CompletedAt.Equal(later))

	// Resubmitting completed refreshes the stamp rather than keeping it.
	latest := later.Add(time.Hour)
	m.Now = func() time.Time { return latest }

	task, err = m.UpdateTaskStatus(p, task.ID, types.TaskStatusCompleted)
	require.NoError(t, err)
	require.NotNil(t, task.CompletedAt)
	assert.True(t, task.CompletedAt.Equal(latest))
}

func TestUpdateTaskStatusPublishesEvenWithoutNotification(t *testing.T) {
	m, pub := newTestManager(t)
	mgr := createUser(t, m.DB, "Morgan", "morgan@example.com", types.RoleManager)
	p := principalFor(mgr)

	task, err := m.CreateTask(p, CreateTaskInput{Title: "Rotate credentials"})
	require.NoError(t, err)

	_, err = m.UpdateTaskStatus(p, task.ID, types.TaskStatusInProgress)
	require.NoError(t, err)

	// Actor is the creator, so the notification is skipped, but the
	// event still goes out.
	assert.Empty(t, notificationsFor(t, m.DB, mgr.ID))
	require.Len(t, pub.events, 1)
	assert.Equal(t, events.TaskStatusChanged, pub.events[0].Type)

	data := pub.events[0].Data.(events.TaskStatusChangedData)
	assert.Equal(t, types.TaskStatusTodo, data.PreviousStatus)
	assert.Equal(t, types.TaskStatusInProgress, data.NewStatus)
}

func TestUpdateTaskStatusNotifiesCreator(t *testing.T) {
	m, _ := newTestManager(t)
	mgr := createUser(t, m.DB, "Morgan", "morgan@example.com", types.RoleManager)
	emp := createUser(t, m.DB, "Evan", "evan@example.com", types.RoleEmployee)

	task, err := m.CreateTask(principalFor(mgr), CreateTaskInput{
		Title:      "Fix login flow",
		AssigneeID: &emp.ID,
	})
	require.NoError(t, err)

	_, err = m.UpdateTaskStatus(principalFor(emp), task.ID, types.TaskStatusReview)
	require.NoError(t, err)

	notifications := notificationsFor(t, m.DB, mgr.ID)
	require.Len(t, notifications, 1)
	assert.Equal(t, types.NotificationTaskStatusChanged, notifications[0].Type)
}

func TestUpdateTaskStatusValidation(t *testing.T) {
	m, _ := newTestManager(t)
	mgr := createUser(t, m.DB, "Morgan", "morgan@example.com", types.RoleManager)

	_, err := m.UpdateTaskStatus(principalFor(mgr), "whatever", "archived")
	assert.True(t, apperr.KindOf(err) == apperr.KindValidation)
	assert.Equal(t, "Invalid task status", apperr.Message(err))
}

func TestTaskPriorityValidation(t *testing.T) {
	m, _ := newTestManager(t)
	mgr := createUser(t, m.DB, "Morgan", "morgan@example.com", types.RoleManager)
	p := principalFor(mgr)

	_, err := m.CreateTask(p, CreateTaskInput{Title: "Tune indexes", Priority: "blocker"})
	assert.True(t, apperr.KindOf(err) == apperr.KindValidation)
	assert.Equal(t, "Invalid task priority", apperr.Message(err))

	task, err := m.CreateTask(p, CreateTaskInput{Title: "Tune indexes"})
	require.NoError(t, err)
	assert.Equal(t, types.TaskPriorityMedium, task.Priority)

	bad := "blocker"
	_, err = m.UpdateTask(p, task.ID, TaskPatch{Priority: &bad})
	assert.True(t, apperr.KindOf(err) == apperr.KindValidation)

	urgent := types.TaskPriorityUrgent
	task, err = m.UpdateTask(p, task.ID, TaskPatch{Priority: &urgent})
	require.NoError(t, err)
	assert.Equal(t, types.TaskPriorityUrgent, task.Priority)
}

func TestUpdateTaskStatusEmployeeScope(t *testing.T) {
	m, _ := newTestManager(t)
	mgr := createUser(t, m.DB, "Morgan", "morgan@example.com", types.RoleManager)
	emp := createUser(t, m.DB, "Evan", "evan@example.com", types.RoleEmployee)
	other := createUser(t, m.DB, "Olga", "olga@example.com", types.RoleEmployee)

	task, err := m.CreateTask(principalFor(mgr), CreateTaskInput{
		Title:      "Index cleanup",
		AssigneeID: &emp.ID,
	})
	require.NoError(t, err)

	_, err = m.UpdateTaskStatus(principalFor(other), task.ID, types.TaskStatusInProgress)
	assert.True(t, apperr.IsForbidden(err))
	assert.Equal(t, "You can only update status of tasks assigned to you", apperr.Message(err))

	_, err = m.UpdateTaskStatus(principalFor(emp), task.ID, types.TaskStatusInProgress)
	assert.NoError(t, err)
}

func TestUpdateTaskPatchSemantics(t *testing.T) {
	m, _ := newTestManager(t)
	mgr := createUser(t, m.DB, "Morgan", "morgan@example.com", types.RoleManager)
	p := principalFor(mgr)

	due := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	task, err := m.CreateTask(p, CreateTaskInput{Title: "Draft roadmap", DueDate: &due})
	require.NoError(t, err)

	// Absent field: due date untouched.
	desc := "Updated description"
	task, err = m.UpdateTask(p, task.ID, TaskPatch{Description: &desc})
	require.NoError(t, err)
	require.NotNil(t, task.DueDate)

	// Explicit null: due date cleared.
	task, err = m.UpdateTask(p, task.ID, TaskPatch{
		DueDate: types.Optional[*time.Time]{Set: true, Value: nil},
	})
	require.NoError(t, err)
	assert.Nil(t, task.DueDate)
}

func TestUpdateTaskReassignmentSideEffects(t *testing.T) {
	m, pub := newTestManager(t)
	mgr := createUser(t, m.DB, "Morgan", "morgan@example.com", types.RoleManager)
	emp := createUser(t, m.DB, "Evan", "evan@example.com", types.RoleEmployee)
	p := principalFor(mgr)

	task, err := m.CreateTask(p, CreateTaskInput{Title: "Migrate queue", AssigneeID: &emp.ID})
	require.NoError(t, err)

	pub.events = nil

	// Re-submitting the same assignee must not re-notify.
	_, err = m.UpdateTask(p, task.ID, TaskPatch{
		AssigneeID: types.Optional[*string]{Set: true, Value: &emp.ID},
	})
	require.NoError(t, err)
	assert.Empty(t, pub.events)
	assert.Len(t, notificationsFor(t, m.DB, emp.ID), 1)

	// An actual reassignment notifies the new assignee.
	other := createUser(t, m.DB, "Olga", "olga@example.com", types.RoleEmployee)

	_, err = m.UpdateTask(p, task.ID, TaskPatch{
		AssigneeID: types.Optional[*string]{Set: true, Value: &other.ID},
	})
	require.NoError(t, err)
	require.Len(t, pub.events, 1)
	assert.Equal(t, events.TaskAssigned, pub.events[0].Type)
	assert.Len(t, notificationsFor(t, m.DB, other.ID), 1)
}

func TestUpdateTaskEmployeeOwnership(t *testing.T) {
	m, _ := newTestManager(t)
	emp := createUser(t, m.DB, "Evan", "evan@example.com", types.RoleEmployee)
	other := createUser(t, m.DB, "Olga", "olga@example.com", types.RoleEmployee)

	task, err := m.CreateTask(principalFor(emp), CreateTaskInput{Title: "Tidy inbox", IsPersonal: true})
	require.NoError(t, err)

	title := "Hijacked"
	_, err = m.UpdateTask(principalFor(other), task.ID, TaskPatch{Title: &title})
	assert.True(t, apperr.IsForbidden(err))
	assert.Equal(t, "You can only edit your own personal tasks", apperr.Message(err))
}

func TestAssignTask(t *testing.T) {
	m, pub := newTestManager(t)
	mgr := createUser(t, m.DB, "Morgan", "morgan@example.com", types.RoleManager)
	emp := createUser(t, m.DB, "Evan", "evan@example.com", types.RoleEmployee)

	task, err := m.CreateTask(principalFor(mgr), CreateTaskInput{Title: "Handle escalation"})
	require.NoError(t, err)

	_, err = m.AssignTask(principalFor(emp), task.ID, emp.ID)
	assert.True(t, apperr.IsForbidden(err))
	assert.Equal(t, "Only managers can assign tasks", apperr.Message(err))

	task, err = m.AssignTask(principalFor(mgr), task.ID, emp.ID)
	require.NoError(t, err)
	require.NotNil(t, task.AssigneeID)
	assert.Equal(t, emp.ID, *task.AssigneeID)

	require.Len(t, pub.events, 1)
	assert.Equal(t, events.TaskAssigned, pub.events[0].Type)
	assert.Len(t, notificationsFor(t, m.DB, emp.ID), 1)
}

func TestDeleteTaskRemovesSubtasksFirst(t *testing.T) {
	m, _ := newTestManager(t)
	mgr := createUser(t, m.DB, "Morgan", "morgan@example.com", types.RoleManager)
	p := principalFor(mgr)

	task, err := m.CreateTask(p, CreateTaskInput{Title: "Decompose epic"})
	require.NoError(t, err)

	_, err = m.CreateSubtask(p, task.ID, CreateSubtaskInput{Title: "Step one"})
	require.NoError(t, err)
	_, err = m.CreateSubtask(p, task.ID, CreateSubtaskInput{Title: "Step two"})
	require.NoError(t, err)

	require.NoError(t, m.DeleteTask(p, task.ID))

	var count int64
	require.NoError(t, m.DB.Model(&models.Subtask{}).Where("task_id = ?", task.ID).Count(&count).Error)
	assert.Zero(t, count)

	err = m.DB.First(&models.Task{}, "id = ?", task.ID).Error
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestCreateSubtaskNotificationTarget(t *testing.T) {
	m, pub := newTestManager(t)
	mgr := createUser(t, m.DB, "Morgan", "morgan@example.com", types.RoleManager)
	emp := createUser(t, m.DB, "Evan", "evan@example.com", types.RoleEmployee)

	task, err := m.CreateTask(principalFor(mgr), CreateTaskInput{
		Title:      "Build importer",
		AssigneeID: &emp.ID,
	})
	require.NoError(t, err)

	pub.events = nil

	// Assignee adds a subtask: the task creator is notified.
	_, err = m.CreateSubtask(principalFor(emp), task.ID, CreateSubtaskInput{Title: "Parse CSV"})
	require.NoError(t, err)

	notifications := notificationsFor(t, m.DB, mgr.ID)
	require.Len(t, notifications, 1)
	assert.Equal(t, types.NotificationSubtaskAdded, notifications[0].Type)

	// Creator adds a subtask: the assignee is notified instead.
	_, err = m.CreateSubtask(principalFor(mgr), task.ID, CreateSubtaskInput{Title: "Validate rows"})
	require.NoError(t, err)

	empNotifications := notificationsFor(t, m.DB, emp.ID)
	require.Len(t, empNotifications, 2) // initial assignment + subtask

	// The event goes out for both.
	require.Len(t, pub.events, 2)
	assert.Equal(t, events.SubtaskAdded, pub.events[0].Type)
	assert.Equal(t, events.SubtaskAdded, pub.events[1].Type)
}

func TestSubtaskStatusByAssigneeWhoDidNotCreateIt(t *testing.T) {
	m, _ := newTestManager(t)
	mgr := createUser(t, m.DB, "Morgan", "morgan@example.com", types.RoleManager)
	emp := createUser(t, m.DB, "Evan", "evan@example.com", types.RoleEmployee)

	task, err := m.CreateTask(principalFor(mgr), CreateTaskInput{
		Title:      "Cutover checklist",
		AssigneeID: &emp.ID,
	})
	require.NoError(t, err)

	subtask, err := m.CreateSubtask(principalFor(mgr), task.ID, CreateSubtaskInput{Title: "Freeze writes"})
	require.NoError(t, err)

	// The assignee may tick it even though the manager created it.
	updated, err := m.UpdateSubtaskStatus(principalFor(emp), subtask.ID, types.SubtaskStatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, types.SubtaskStatusCompleted, updated.Status)
	assert.NotNil(t, updated.CompletedAt)

	// But editing it is out: they did not create it.
	title := "Renamed"
	_, err = m.UpdateSubtask(principalFor(emp), subtask.ID, SubtaskPatch{Title: &title})
	assert.True(t, apperr.IsForbidden(err))
	assert.Equal(t, "You can only modify subtasks you created on your assigned tasks", apperr.Message(err))

	err = m.DeleteSubtask(principalFor(emp), subtask.ID)
	assert.True(t, apperr.IsForbidden(err))
}

func TestSubtaskNotFound(t *testing.T) {
	m, _ := newTestManager(t)
	mgr := createUser(t, m.DB, "Morgan", "morgan@example.com", types.RoleManager)

	_, err := m.UpdateSubtaskStatus(principalFor(mgr), "00000000-0000-0000-0000-000000000001", types.SubtaskStatusTodo)
	assert.True(t, apperr.IsNotFound(err))
	assert.Equal(t, "Subtask not found", apperr.Message(err))
}
