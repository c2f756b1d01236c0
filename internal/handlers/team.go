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

type CreateTeamRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Color       string `json:"color"`
}

type UpdateTeamRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Color       *string `json:"color"`
	ManagerID   *string `json:"manager_id"`
}

type AddMemberRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

type TeamResponse struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Description string               `json:"description,omitempty"`
	Color       string               `json:"color,omitempty"`
	ManagerID   string               `json:"manager_id"`
	Manager     *types.UserSummary   `json:"manager,omitempty"`
	Members     []types.UserResponse `json:"members,omitempty"`
	CreatedAt   time.Time            `json:"created_at"`
}

func teamResponse(team models.Team) TeamResponse {
	resp := TeamResponse{
		ID:          team.ID,
		Name:        team.Name,
		Description: team.Description,
		Color:       team.Color,
		ManagerID:   team.ManagerID,
		CreatedAt:   team.CreatedAt,
	}

	if team.Manager.ID != "" {
		resp.Manager = &types.UserSummary{ID: team.Manager.ID, Name: team.Manager.Name, Avatar: team.Manager.Avatar}
	}

	for _, member := range team.Members {
		resp.Members = append(resp.Members, userResponse(member))
	}

	return resp
}

func ListTeams(ctx *gin.Context) {
	principal, err := utils.GetPrincipal(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	page, limit, offset := utils.GetPageOptions(ctx)

	query := db.DB.Model(&models.Team{})

	// Employees only see their own team.
	if !principal.IsManager() {
		if principal.TeamID == nil {
			ctx.JSON(http.StatusOK, gin.H{"data": []TeamResponse{}, "meta": utils.PageMeta(0, page, limit)})
			return
		}
		query = query.Where("id = ?", *principal.TeamID)
	}

	var total int64

	if err := query.Count(&total).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve teams"})
		return
	}

	var teams []models.Team

	err = query.
		Preload("Manager").Preload("Members").
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&teams).Error

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve teams"})
		return
	}

	response := make([]TeamResponse, 0, len(teams))
	for _, team := range teams {
		response = append(response, teamResponse(team))
	}

	ctx.JSON(http.StatusOK, gin.H{"data": response, "meta": utils.PageMeta(total, page, limit)})
}

func GetTeam(ctx *gin.Context) {
	var team models.Team

	err := db.DB.
		Preload("Manager").Preload("Members").Preload("Projects").
		First(&team, "id = ?", ctx.Param("id")).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Team not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve team"})
		}
		return
	}

	projects := make([]ProjectResponse, 0, len(team.Projects))
	for _, project := range team.Projects {
		projects = append(projects, projectResponse(project))
	}

	ctx.JSON(http.StatusOK, gin.H{"data": teamResponse(team), "projects": projects})
}

func CreateTeam(ctx *gin.Context) {
	principal, err := utils.GetPrincipal(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req CreateTeamRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	team := models.Team{
		Name:        req.Name,
		Description: req.Description,
		Color:       req.Color,
		ManagerID:   principal.ID,
	}

	if err := db.DB.Create(&team).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create team"})
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"data": teamResponse(team)})
}

func UpdateTeam(ctx *gin.Context) {
	var team models.Team

	if err := db.DB.First(&team, "id = ?", ctx.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Team not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve team"})
		}
		return
	}

	var req UpdateTeamRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if req.Name != nil && *req.Name != "" {
		team.Name = *req.Name
	}
	if req.Description != nil {
		team.Description = *req.Description
	}
	if req.Color != nil && *req.Color != "" {
		team.Color = *req.Color
	}
	if req.ManagerID != nil && *req.ManagerID != "" {
		team.ManagerID = *req.ManagerID
	}

	if err := db.DB.Save(&team).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update team"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"data": teamResponse(team)})
}

// DeleteTeam refuses while projects still reference the team, then
// detaches members before removing the team itself.
func DeleteTeam(ctx *gin.Context) {
	var team models.Team

	if err := db.DB.First(&team, "id = ?", ctx.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Team not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve team"})
		}
		return
	}

	var projectCount int64

	if err := db.DB.Model(&models.Project{}).Where("team_id = ?", team.ID).Count(&projectCount).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete team"})
		return
	}

	if projectCount > 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Cannot delete team with existing projects"})
		return
	}

	if err := db.DB.Model(&models.User{}).Where("team_id = ?", team.ID).Update("team_id", nil).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete team"})
		return
	}

	if err := db.DB.Delete(&team).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete team"})
		return
	}

	ctx.Status(http.StatusNoContent)
}

func AddTeamMember(ctx *gin.Context) {
	principal, err := utils.GetPrincipal(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var team models.Team

	if err := db.DB.First(&team, "id = ?", ctx.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Team not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve team"})
		}
		return
	}

	var req AddMemberRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "User ID is required"})
		return
	}

	var user models.User

	if err := db.DB.First(&user, "id = ?", req.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve user"})
		}
		return
	}

	if err := db.DB.Model(&user).Update("team_id", team.ID).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add member"})
		return
	}

	if Notifier != nil {
		Notifier.Notify(principal.ID, user.ID, types.NotificationTeamUpdate,
			"Added to Team",
			"You have been added to team: "+team.Name,
			map[string]any{"teamId": team.ID})
	}

	publishEvent(events.TopicTaskEvents, events.TeamMemberAdded, events.TeamMemberAddedData{
		TeamID:      team.ID,
		TeamName:    team.Name,
		UserID:      user.ID,
		UserName:    user.Name,
		AddedByID:   principal.ID,
		AddedByName: principal.Name,
	})

	ctx.JSON(http.StatusOK, gin.H{"message": "Member added to team successfully"})
}

func RemoveTeamMember(ctx *gin.Context) {
	var team models.Team

	if err := db.DB.First(&team, "id = ?", ctx.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Team not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve team"})
		}
		return
	}

	var user models.User

	if err := db.DB.First(&user, "id = ?", ctx.Param("user_id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve user"})
		}
		return
	}

	if user.TeamID == nil || *user.TeamID != team.ID {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "User is not a member of this team"})
		return
	}

	if err := db.DB.Model(&user).Update("team_id", nil).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove member"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Member removed from team successfully"})
}
