package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/taskhive-dev/taskhive/db"
	"github.com/taskhive-dev/taskhive/internal/models"
	"github.com/taskhive-dev/taskhive/internal/tasks"
	"github.com/taskhive-dev/taskhive/internal/types"
	"github.com/taskhive-dev/taskhive/internal/utils"
)

type UpdateTaskStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type AssignTaskRequest struct {
	AssigneeID string `json:"assignee_id" binding:"required"`
}

type TaskResponse struct {
	ID             string                `json:"id"`
	Title          string                `json:"title"`
	Description    string                `json:"description,omitempty"`
	Priority       string                `json:"priority"`
	Status         string                `json:"status"`
	DueDate        *time.Time            `json:"due_date"`
	ProjectID      *string               `json:"project_id"`
	AssigneeID     *string               `json:"assignee_id"`
	CreatedByID    string                `json:"created_by_id"`
	IsPersonal     bool                  `json:"is_personal"`
	CompletedAt    *time.Time            `json:"completed_at"`
	EstimatedHours *float64              `json:"estimated_hours"`
	ActualHours    *float64              `json:"actual_hours"`
	Tags           []string              `json:"tags"`
	Project        *types.ProjectSummary `json:"project,omitempty"`
	Assignee       *types.UserSummary    `json:"assignee,omitempty"`
	Creator        *types.UserSummary    `json:"creator,omitempty"`
	CreatedAt      time.Time             `json:"created_at"`
	UpdatedAt      time.Time             `json:"updated_at"`
}

type SubtaskResponse struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      string     `json:"status"`
	TaskID      string     `json:"task_id"`
	CreatedByID string     `json:"created_by_id"`
	CompletedAt *time.Time `json:"completed_at"`
	CreatedAt   time.Time  `json:"created_at"`
}

func taskResponse(task models.Task) TaskResponse {
	resp := TaskResponse{
		ID:             task.ID,
		Title:          task.Title,
		Description:    task.Description,
		Priority:       task.Priority,
		Status:         task.Status,
		DueDate:        task.DueDate,
		ProjectID:      task.ProjectID,
		AssigneeID:     task.AssigneeID,
		CreatedByID:    task.CreatedByID,
		IsPersonal:     task.IsPersonal,
		CompletedAt:    task.CompletedAt,
		EstimatedHours: task.EstimatedHours,
		ActualHours:    task.ActualHours,
		Tags:           []string(task.Tags),
		CreatedAt:      task.CreatedAt,
		UpdatedAt:      task.UpdatedAt,
	}

	if task.Project != nil {
		resp.Project = &types.ProjectSummary{ID: task.Project.ID, Name: task.Project.Name, Color: task.Project.Color}
	}
	if task.Assignee != nil {
		resp.Assignee = &types.UserSummary{ID: task.Assignee.ID, Name: task.Assignee.Name, Avatar: task.Assignee.Avatar}
	}
	if task.Creator.ID != "" {
		resp.Creator = &types.UserSummary{ID: task.Creator.ID, Name: task.Creator.Name}
	}

	return resp
}

func subtaskResponse(subtask models.Subtask) SubtaskResponse {
	return SubtaskResponse{
		ID:          subtask.ID,
		Title:       subtask.Title,
		Description: subtask.Description,
		Status:      subtask.Status,
		TaskID:      subtask.TaskID,
		CreatedByID: subtask.CreatedByID,
		CompletedAt: subtask.CompletedAt,
		CreatedAt:   subtask.CreatedAt,
	}
}

func ListTasks(ctx *gin.Context) {
	principal, err := utils.GetPrincipal(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	page, limit, offset := utils.GetPageOptions(ctx)

	query := db.DB.Model(&models.Task{})

	if status := ctx.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if priority := ctx.Query("priority"); priority != "" {
		query = query.Where("priority = ?", priority)
	}
	if projectID := ctx.Query("project_id"); projectID != "" {
		query = query.Where("project_id = ?", projectID)
	}
	if assigneeID := ctx.Query("assignee_id"); assigneeID != "" {
		query = query.Where("assignee_id = ?", assigneeID)
	}
	if isPersonal := ctx.Query("is_personal"); isPersonal != "" {
		query = query.Where("is_personal = ?", isPersonal == "true")
	}
	if search := ctx.Query("search"); search != "" {
		pattern := "%" + search + "%"
		query = query.Where("LOWER(title) LIKE LOWER(?) OR LOWER(description) LIKE LOWER(?)", pattern, pattern)
	}

	// Employees see tasks assigned to them plus their personal tasks.
	if !principal.IsManager() {
		query = query.Where(
			db.DB.Where("assignee_id = ?", principal.ID).
				Or("is_personal = ? AND created_by_id = ?", true, principal.ID),
		)
	}

	var total int64

	if err := query.Count(&total).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve tasks"})
		return
	}

	var taskList []models.Task

	err = query.
		Preload("Project").Preload("Assignee").Preload("Creator").
		Order("due_date ASC NULLS LAST").Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&taskList).Error

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve tasks"})
		return
	}

	response := make([]TaskResponse, 0, len(taskList))
	for _, task := range taskList {
		response = append(response, taskResponse(task))
	}

	ctx.JSON(http.StatusOK, gin.H{"data": response, "meta": utils.PageMeta(total, page, limit)})
}

func GetPersonalTasks(ctx *gin.Context) {
	principal, err := utils.GetPrincipal(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	page, limit, offset := utils.GetPageOptions(ctx)

	query := db.DB.Model(&models.Task{}).
		Where("is_personal = ? AND created_by_id = ?", true, principal.ID)

	if status := ctx.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if priority := ctx.Query("priority"); priority != "" {
		query = query.Where("priority = ?", priority)
	}

	var total int64

	if err := query.Count(&total).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve tasks"})
		return
	}

	var taskList []models.Task

	err = query.
		Order("due_date ASC NULLS LAST").Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&taskList).Error

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve tasks"})
		return
	}

	response := make([]TaskResponse, 0, len(taskList))
	for _, task := range taskList {
		response = append(response, taskResponse(task))
	}

	ctx.JSON(http.StatusOK, gin.H{"data": response, "meta": utils.PageMeta(total, page, limit)})
}

// GetUpcomingTasks returns unfinished tasks due within the next week.
func GetUpcomingTasks(ctx *gin.Context) {
	principal, err := utils.GetPrincipal(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	now := time.Now()
	nextWeek := now.AddDate(0, 0, 7)

	query := db.DB.Model(&models.Task{}).
		Where("due_date BETWEEN ? AND ?", now, nextWeek).
		Where("status <> ?", types.TaskStatusCompleted)

	if !principal.IsManager() {
		query = query.Where(
			db.DB.Where("assignee_id = ?", principal.ID).
				Or("is_personal = ? AND created_by_id = ?", true, principal.ID),
		)
	}

	var taskList []models.Task

	err = query.
		Preload("Project").Preload("Assignee").
		Order("due_date ASC").
		Limit(10).
		Find(&taskList).Error

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve tasks"})
		return
	}

	response := make([]TaskResponse, 0, len(taskList))
	for _, task := range taskList {
		response = append(response, taskResponse(task))
	}

	ctx.JSON(http.StatusOK, gin.H{"data": response})
}

func GetTask(ctx *gin.Context) {
	var task models.Task

	err := db.DB.
		Preload("Project").Preload("Assignee").Preload("Creator").Preload("Subtasks").
		First(&task, "id = ?", ctx.Param("id")).Error

	if err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		return
	}

	totalSubtasks := len(task.Subtasks)
	completedSubtasks := 0
	for _, subtask := range task.Subtasks {
		if subtask.Status == types.SubtaskStatusCompleted {
			completedSubtasks++
		}
	}

	progress := 0
	if totalSubtasks > 0 {
		progress = completedSubtasks * 100 / totalSubtasks
	}

	subtasks := make([]SubtaskResponse, 0, totalSubtasks)
	for _, subtask := range task.Subtasks {
		subtasks = append(subtasks, subtaskResponse(subtask))
	}

	ctx.JSON(http.StatusOK, gin.H{
		"data":               taskResponse(task),
		"subtasks":           subtasks,
		"subtask_progress":   progress,
		"total_subtasks":     totalSubtasks,
		"completed_subtasks": completedSubtasks,
	})
}

func CreateTask(ctx *gin.Context) {
	principal, err := utils.GetPrincipal(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var input tasks.CreateTaskInput

	if err := ctx.ShouldBindJSON(&input); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	task, err := TaskManager.CreateTask(principal, input)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"data": taskResponse(*task)})
}

func UpdateTask(ctx *gin.Context) {
	principal, err := utils.GetPrincipal(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var patch tasks.TaskPatch

	if err := ctx.ShouldBindJSON(&patch); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	task, err := TaskManager.UpdateTask(principal, ctx.Param("id"), patch)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"data": taskResponse(*task)})
}

func UpdateTaskStatus(ctx *gin.Context) {
	principal, err := utils.GetPrincipal(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req UpdateTaskStatusRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Status is required"})
		return
	}

	task, err := TaskManager.UpdateTaskStatus(principal, ctx.Param("id"), req.Status)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"data": taskResponse(*task)})
}

func AssignTask(ctx *gin.Context) {
	principal, err := utils.GetPrincipal(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req AssignTaskRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Assignee ID is required"})
		return
	}

	task, err := TaskManager.AssignTask(principal, ctx.Param("id"), req.AssigneeID)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"data": taskResponse(*task)})
}

func DeleteTask(ctx *gin.Context) {
	principal, err := utils.GetPrincipal(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	if err := TaskManager.DeleteTask(principal, ctx.Param("id")); err != nil {
		respondError(ctx, err)
		return
	}

	ctx.Status(http.StatusNoContent)
}
