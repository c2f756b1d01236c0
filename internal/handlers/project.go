package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/taskhive-dev/taskhive/db"
	"github.com/taskhive-dev/taskhive/internal/events"
	"github.com/taskhive-dev/taskhive/internal/models"
	"github.com/taskhive-dev/taskhive/internal/types"
	"github.com/taskhive-dev/taskhive/internal/utils"
	"gorm.io/gorm"
)

type CreateProjectRequest struct {
	Name        string     `json:"name" binding:"required"`
	Description string     `json:"description"`
	TeamID      string     `json:"team_id" binding:"required"`
	Status      string     `json:"status" binding:"omitempty,oneof=planning active on-hold completed cancelled"`
	Priority    string     `json:"priority" binding:"omitempty,oneof=low medium high critical"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
	Color       string     `json:"color"`
}

type UpdateProjectRequest struct {
	Name        *string                    `json:"name"`
	Description *string                    `json:"description"`
	TeamID      *string                    `json:"team_id"`
	Status      *string                    `json:"status"`
	Priority    *string                    `json:"priority"`
	StartDate   types.Optional[*time.Time] `json:"start_date"`
	EndDate     types.Optional[*time.Time] `json:"end_date"`
	Color       *string                    `json:"color"`
}

type ProjectResponse struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	Status      string             `json:"status"`
	Priority    string             `json:"priority"`
	StartDate   *time.Time         `json:"start_date"`
	EndDate     *time.Time         `json:"end_date"`
	Color       string             `json:"color,omitempty"`
	TeamID      string             `json:"team_id"`
	CreatedByID string             `json:"created_by_id"`
	Team        *types.TeamSummary `json:"team,omitempty"`
	Creator     *types.UserSummary `json:"creator,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
}

func projectResponse(project models.Project) ProjectResponse {
	resp := ProjectResponse{
		ID:          project.ID,
		Name:        project.Name,
		Description: project.Description,
		Status:      project.Status,
		Priority:    project.Priority,
		StartDate:   project.StartDate,
		EndDate:     project.EndDate,
		Color:       project.Color,
		TeamID:      project.TeamID,
		CreatedByID: project.CreatedByID,
		CreatedAt:   project.CreatedAt,
	}

	if project.Team.ID != "" {
		resp.Team = &types.TeamSummary{ID: project.Team.ID, Name: project.Team.Name, Color: project.Team.Color}
	}
	if project.Creator.ID != "" {
		resp.Creator = &types.UserSummary{ID: project.Creator.ID, Name: project.Creator.Name}
	}

	return resp
}

func ListProjects(ctx *gin.Context) {
	principal, err := utils.GetPrincipal(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	page, limit, offset := utils.GetPageOptions(ctx)

	query := db.DB.Model(&models.Project{})

	if status := ctx.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if priority := ctx.Query("priority"); priority != "" {
		query = query.Where("priority = ?", priority)
	}
	if teamID := ctx.Query("team_id"); teamID != "" {
		query = query.Where("team_id = ?", teamID)
	}
	if search := ctx.Query("search"); search != "" {
		pattern := "%" + search + "%"
		query = query.Where("LOWER(name) LIKE LOWER(?) OR LOWER(description) LIKE LOWER(?)", pattern, pattern)
	}

	// Employees only see their own team's projects.
	if !principal.IsManager() {
		if principal.TeamID == nil {
			ctx.JSON(http.StatusOK, gin.H{"data": []ProjectResponse{}, "meta": utils.PageMeta(0, page, limit)})
			return
		}
		query = query.Where("team_id = ?", *principal.TeamID)
	}

	var total int64

	if err := query.Count(&total).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve projects"})
		return
	}

	var projects []models.Project

	err = query.
		Preload("Team").Preload("Creator").
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&projects).Error

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve projects"})
		return
	}

	response := make([]ProjectResponse, 0, len(projects))
	for _, project := range projects {
		response = append(response, projectResponse(project))
	}

	ctx.JSON(http.StatusOK, gin.H{"data": response, "meta": utils.PageMeta(total, page, limit)})
}

func GetProject(ctx *gin.Context) {
	var project models.Project

	err := db.DB.
		Preload("Team").Preload("Creator").Preload("Tasks").
		First(&project, "id = ?", ctx.Param("id")).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve project"})
		}
		return
	}

	totalTasks := len(project.Tasks)
	completedTasks := 0
	for _, task := range project.Tasks {
		if task.Status == types.TaskStatusCompleted {
			completedTasks++
		}
	}

	progress := 0
	if totalTasks > 0 {
		progress = completedTasks * 100 / totalTasks
	}

	taskList := make([]TaskResponse, 0, totalTasks)
	for _, task := range project.Tasks {
		taskList = append(taskList, taskResponse(task))
	}

	ctx.JSON(http.StatusOK, gin.H{
		"data":            projectResponse(project),
		"tasks":           taskList,
		"progress":        progress,
		"total_tasks":     totalTasks,
		"completed_tasks": completedTasks,
	})
}

func CreateProject(ctx *gin.Context) {
	principal, err := utils.GetPrincipal(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req CreateProjectRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	var team models.Team

	if err := db.DB.First(&team, "id = ?", req.TeamID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Team not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve team"})
		}
		return
	}

	project := models.Project{
		Name:        req.Name,
		Description: req.Description,
		TeamID:      req.TeamID,
		Status:      req.Status,
		Priority:    req.Priority,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Color:       req.Color,
		CreatedByID: principal.ID,
	}

	if project.Status == "" {
		project.Status = types.ProjectStatusPlanning
	}
	if project.Priority == "" {
		project.Priority = "medium"
	}

	if err := db.DB.Create(&project).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create project"})
		return
	}

	publishEvent(events.TopicTaskEvents, events.ProjectCreated, events.ProjectCreatedData{
		ProjectID:     project.ID,
		ProjectName:   project.Name,
		TeamID:        project.TeamID,
		CreatedByID:   principal.ID,
		CreatedByName: principal.Name,
	})

	ctx.JSON(http.StatusCreated, gin.H{"data": projectResponse(project)})
}

func UpdateProject(ctx *gin.Context) {
	var project models.Project

	if err := db.DB.First(&project, "id = ?", ctx.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve project"})
		}
		return
	}

	var req UpdateProjectRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if req.TeamID != nil && *req.TeamID != "" {
		var team models.Team
		if err := db.DB.First(&team, "id = ?", *req.TeamID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				ctx.JSON(http.StatusNotFound, gin.H{"error": "Team not found"})
			} else {
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve team"})
			}
			return
		}
		project.TeamID = *req.TeamID
	}

	if req.Name != nil && *req.Name != "" {
		project.Name = *req.Name
	}
	if req.Description != nil {
		project.Description = *req.Description
	}
	if req.Status != nil && *req.Status != "" {
		project.Status = *req.Status
	}
	if req.Priority != nil && *req.Priority != "" {
		project.Priority = *req.Priority
	}
	if req.StartDate.Set {
		project.StartDate = req.StartDate.Value
	}
	if req.EndDate.Set {
		project.EndDate = req.EndDate.Value
	}
	if req.Color != nil && *req.Color != "" {
		project.Color = *req.Color
	}

	if err := db.DB.Save(&project).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update project"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"data": projectResponse(project)})
}

// DeleteProject cascades: subtasks of the project's tasks go first,
// then the tasks, then the project.
func DeleteProject(ctx *gin.Context) {
	var project models.Project

	if err := db.DB.First(&project, "id = ?", ctx.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve project"})
		}
		return
	}

	err := db.DB.
		Where("task_id IN (?)", db.DB.Model(&models.Task{}).Select("id").Where("project_id = ?", project.ID)).
		Delete(&models.Subtask{}).Error

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete project"})
		return
	}

	if err := db.DB.Where("project_id = ?", project.ID).Delete(&models.Task{}).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete project"})
		return
	}

	if err := db.DB.Delete(&project).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete project"})
		return
	}

	ctx.Status(http.StatusNoContent)
}
