package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/taskhive-dev/taskhive/db"
	"github.com/taskhive-dev/taskhive/internal/models"
	"github.com/taskhive-dev/taskhive/internal/types"
)

type statusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

type priorityCount struct {
	Priority string `json:"priority"`
	Count    int64  `json:"count"`
}

type teamWorkload struct {
	TeamID    string `json:"team_id"`
	TeamName  string `json:"team_name"`
	OpenTasks int64  `json:"open_tasks"`
}

// GetAnalyticsOverview aggregates workload figures across the whole
// organization. Route-level authorization restricts it to managers.
func GetAnalyticsOverview(ctx *gin.Context) {
	var totalTasks int64

	if err := db.DB.Model(&models.Task{}).Count(&totalTasks).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute analytics"})
		return
	}

	var byStatus []statusCount

	err := db.DB.Model(&models.Task{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&byStatus).Error

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute analytics"})
		return
	}

	var byPriority []priorityCount

	err = db.DB.Model(&models.Task{}).
		Select("priority, COUNT(*) as count").
		Group("priority").
		Scan(&byPriority).Error

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute analytics"})
		return
	}

	var overdue int64

	err = db.DB.Model(&models.Task{}).
		Where("due_date < ? AND status <> ?", time.Now(), types.TaskStatusCompleted).
		Count(&overdue).Error

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute analytics"})
		return
	}

	var completed int64

	err = db.DB.Model(&models.Task{}).
		Where("status = ?", types.TaskStatusCompleted).
		Count(&completed).Error

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute analytics"})
		return
	}

	var workloads []teamWorkload

	err = db.DB.Model(&models.Task{}).
		Select("teams.id as team_id, teams.name as team_name, COUNT(tasks.id) as open_tasks").
		Joins("JOIN users ON users.id = tasks.assignee_id").
		Joins("JOIN teams ON teams.id = users.team_id").
		Where("tasks.status <> ?", types.TaskStatusCompleted).
		Group("teams.id, teams.name").
		Scan(&workloads).Error

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute analytics"})
		return
	}

	completionRate := 0.0
	if totalTasks > 0 {
		completionRate = float64(completed) / float64(totalTasks) * 100
	}

	ctx.JSON(http.StatusOK, gin.H{
		"total_tasks":     totalTasks,
		"by_status":       byStatus,
		"by_priority":     byPriority,
		"overdue":         overdue,
		"completion_rate": completionRate,
		"team_workload":   workloads,
	})
}
