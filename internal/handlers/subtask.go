package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/taskhive-dev/taskhive/db"
	"github.com/taskhive-dev/taskhive/internal/models"
	"github.com/taskhive-dev/taskhive/internal/tasks"
	"github.com/taskhive-dev/taskhive/internal/utils"
	"gorm.io/gorm"
)

type UpdateSubtaskStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func ListSubtasks(ctx *gin.Context) {
	taskID := ctx.Param("id")

	var task models.Task

	if err := db.DB.First(&task, "id = ?", taskID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve task"})
		}
		return
	}

	var subtasks []models.Subtask

	err := db.DB.Where("task_id = ?", taskID).Order("created_at ASC").Find(&subtasks).Error

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve subtasks"})
		return
	}

	response := make([]SubtaskResponse, 0, len(subtasks))
	for _, subtask := range subtasks {
		response = append(response, subtaskResponse(subtask))
	}

	ctx.JSON(http.StatusOK, gin.H{"data": response})
}

func CreateSubtask(ctx *gin.Context) {
	principal, err := utils.GetPrincipal(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var input tasks.CreateSubtaskInput

	if err := ctx.ShouldBindJSON(&input); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	subtask, err := TaskManager.CreateSubtask(principal, ctx.Param("id"), input)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"data": subtaskResponse(*subtask)})
}

func UpdateSubtask(ctx *gin.Context) {
	principal, err := utils.GetPrincipal(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var patch tasks.SubtaskPatch

	if err := ctx.ShouldBindJSON(&patch); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	subtask, err := TaskManager.UpdateSubtask(principal, ctx.Param("id"), patch)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"data": subtaskResponse(*subtask)})
}

func UpdateSubtaskStatus(ctx *gin.Context) {
	principal, err := utils.GetPrincipal(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req UpdateSubtaskStatusRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Status is required"})
		return
	}

	subtask, err := TaskManager.UpdateSubtaskStatus(principal, ctx.Param("id"), req.Status)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"data": subtaskResponse(*subtask)})
}

func DeleteSubtask(ctx *gin.Context) {
	principal, err := utils.GetPrincipal(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	if err := TaskManager.DeleteSubtask(principal, ctx.Param("id")); err != nil {
		respondError(ctx, err)
		return
	}

	ctx.Status(http.StatusNoContent)
}
