package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/taskhive-dev/taskhive/db"
	"github.com/taskhive-dev/taskhive/internal/models"
	"github.com/taskhive-dev/taskhive/internal/policy"
	"github.com/taskhive-dev/taskhive/internal/types"
	"github.com/taskhive-dev/taskhive/internal/utils"
	"gorm.io/gorm"
)

type UpdateUserRequest struct {
	Name     *string                 `json:"name"`
	Avatar   *string                 `json:"avatar"`
	Role     *string                 `json:"role" binding:"omitempty,oneof=manager employee"`
	TeamID   types.Optional[*string] `json:"team_id"`
	IsActive *bool                   `json:"is_active"`
}

func ListUsers(ctx *gin.Context) {
	page, limit, offset := utils.GetPageOptions(ctx)

	query := db.DB.Model(&models.User{})

	if role := ctx.Query("role"); role != "" {
		query = query.Where("role = ?", role)
	}
	if teamID := ctx.Query("team_id"); teamID != "" {
		query = query.Where("team_id = ?", teamID)
	}
	if search := ctx.Query("search"); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", like, like)
	}

	var total int64

	if err := query.Count(&total).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve users"})
		return
	}

	var users []models.User

	err := query.
		Preload("Team").
		Order("name ASC").
		Limit(limit).Offset(offset).
		Find(&users).Error

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve users"})
		return
	}

	response := make([]types.UserResponse, 0, len(users))
	for _, user := range users {
		response = append(response, userResponse(user))
	}

	ctx.JSON(http.StatusOK, gin.H{"data": response, "meta": utils.PageMeta(total, page, limit)})
}

// GetEmployees lists active employees, used to populate assignee pickers.
func GetEmployees(ctx *gin.Context) {
	var users []models.User

	err := db.DB.
		Where("role = ? AND is_active = ?", types.RoleEmployee, true).
		Order("name ASC").
		Find(&users).Error

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve employees"})
		return
	}

	response := make([]types.UserResponse, 0, len(users))
	for _, user := range users {
		response = append(response, userResponse(user))
	}

	ctx.JSON(http.StatusOK, gin.H{"data": response})
}

func GetUser(ctx *gin.Context) {
	var user models.User

	err := db.DB.Preload("Team").First(&user, "id = ?", ctx.Param("id")).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve user"})
		}
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"data": userResponse(user)})
}

func UpdateUser(ctx *gin.Context) {
	principal, err := utils.GetPrincipal(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var user models.User

	if err := db.DB.First(&user, "id = ?", ctx.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve user"})
		}
		return
	}

	var req UpdateUserRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	// Role and team belong to org structure; only managers may change them.
	if req.Role != nil || req.TeamID.Set || req.IsActive != nil {
		if d := policy.CanUpdateUserRoleOrTeam(principal); !d.Allowed {
			ctx.JSON(http.StatusForbidden, gin.H{"error": d.Reason})
			return
		}
	} else if principal.ID != user.ID && !principal.IsManager() {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "You can only update your own profile"})
		return
	}

	if req.Name != nil && *req.Name != "" {
		user.Name = *req.Name
	}
	if req.Avatar != nil {
		user.Avatar = *req.Avatar
	}
	if req.Role != nil {
		user.Role = *req.Role
	}
	if req.TeamID.Set {
		if req.TeamID.Value != nil {
			var team models.Team
			if err := db.DB.First(&team, "id = ?", *req.TeamID.Value).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					ctx.JSON(http.StatusNotFound, gin.H{"error": "Team not found"})
				} else {
					ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve team"})
				}
				return
			}
		}
		user.TeamID = req.TeamID.Value
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}

	if err := db.DB.Save(&user).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update user"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"data": userResponse(user)})
}

func DeleteUser(ctx *gin.Context) {
	principal, err := utils.GetPrincipal(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	if principal.ID == ctx.Param("id") {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "You cannot delete your own account"})
		return
	}

	var user models.User

	if err := db.DB.First(&user, "id = ?", ctx.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve user"})
		}
		return
	}

	if err := db.DB.Delete(&user).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete user"})
		return
	}

	ctx.Status(http.StatusNoContent)
}

// UploadAvatar stores the uploaded image and records its URL on the
// authenticated user.
func UploadAvatar(ctx *gin.Context) {
	principal, err := utils.GetPrincipal(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	fileHeader, err := ctx.FormFile("avatar")

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Avatar file is required"})
		return
	}

	file, err := fileHeader.Open()

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read avatar file"})
		return
	}
	defer file.Close()

	url, err := AvatarUploader.Upload(fileHeader.Filename, fileHeader.Header.Get("Content-Type"), file)

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store avatar"})
		return
	}

	err = db.DB.Model(&models.User{}).Where("id = ?", principal.ID).Update("avatar", url).Error

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update avatar"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"avatar": url})
}
