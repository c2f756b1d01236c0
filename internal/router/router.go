package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/taskhive-dev/taskhive/internal/handlers"
	"github.com/taskhive-dev/taskhive/internal/middleware"
	"github.com/taskhive-dev/taskhive/internal/policy"
	"github.com/taskhive-dev/taskhive/internal/types"
)

func NewRouter(uploadsDir string) *gin.Engine {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     types.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.Static("/uploads", uploadsDir)

	api := r.Group("/api")
	{
		api.GET("/health", handlers.HealthCheck)
		api.GET("/ws/notifications", middleware.AuthMiddleware(), handlers.NotificationsWebSocket)

		auth := api.Group("/auth")
		{
			auth.POST("/register", handlers.Register)
			auth.POST("/login", handlers.Login)
			auth.POST("/refresh", handlers.Refresh)
			auth.POST("/logout", handlers.Logout)
			auth.GET("/profile", middleware.AuthMiddleware(), handlers.Profile)
		}

		users := api.Group("/users", middleware.AuthMiddleware())
		{
			users.GET("", handlers.ListUsers)
			users.GET("/employees", handlers.GetEmployees)
			users.POST("/avatar", handlers.UploadAvatar)
			users.GET("/:id", handlers.GetUser)
			users.PUT("/:id", handlers.UpdateUser)
			users.DELETE("/:id", middleware.RequireManager(policy.CanUpdateUserRoleOrTeam), handlers.DeleteUser)
		}

		teams := api.Group("/teams", middleware.AuthMiddleware())
		{
			teams.GET("", handlers.ListTeams)
			teams.GET("/:id", handlers.GetTeam)
			teams.POST("", middleware.RequireManager(policy.CanManageTeam), handlers.CreateTeam)
			teams.PUT("/:id", middleware.RequireManager(policy.CanManageTeam), handlers.UpdateTeam)
			teams.DELETE("/:id", middleware.RequireManager(policy.CanManageTeam), handlers.DeleteTeam)
			teams.POST("/:id/members", middleware.RequireManager(policy.CanManageTeam), handlers.AddTeamMember)
			teams.DELETE("/:id/members/:user_id", middleware.RequireManager(policy.CanManageTeam), handlers.RemoveTeamMember)
		}

		projects := api.Group("/projects", middleware.AuthMiddleware())
		{
			projects.GET("", handlers.ListProjects)
			projects.GET("/:id", handlers.GetProject)
			projects.POST("", middleware.RequireManager(policy.CanManageProject), handlers.CreateProject)
			projects.PUT("/:id", middleware.RequireManager(policy.CanManageProject), handlers.UpdateProject)
			projects.DELETE("/:id", middleware.RequireManager(policy.CanManageProject), handlers.DeleteProject)
		}

		tasks := api.Group("/tasks", middleware.AuthMiddleware())
		{
			tasks.GET("", handlers.ListTasks)
			tasks.GET("/personal", handlers.GetPersonalTasks)
			tasks.GET("/upcoming", handlers.GetUpcomingTasks)
			tasks.POST("", handlers.CreateTask)
			tasks.GET("/:id", handlers.GetTask)
			tasks.PUT("/:id", handlers.UpdateTask)
			tasks.PUT("/:id/status", handlers.UpdateTaskStatus)
			tasks.PUT("/:id/assign", handlers.AssignTask)
			tasks.DELETE("/:id", handlers.DeleteTask)

			tasks.GET("/:id/subtasks", handlers.ListSubtasks)
			tasks.POST("/:id/subtasks", handlers.CreateSubtask)
		}

		subtasks := api.Group("/subtasks", middleware.AuthMiddleware())
		{
			subtasks.PUT("/:id", handlers.UpdateSubtask)
			subtasks.PUT("/:id/status", handlers.UpdateSubtaskStatus)
			subtasks.DELETE("/:id", handlers.DeleteSubtask)
		}

		notifications := api.Group("/notifications", middleware.AuthMiddleware())
		{
			notifications.GET("", handlers.ListNotifications)
			notifications.PUT("/:id/read", handlers.MarkNotificationAsRead)
			notifications.PUT("/read-all", handlers.MarkAllNotificationsAsRead)
			notifications.DELETE("/:id", handlers.DeleteNotification)
			notifications.DELETE("", handlers.ClearAllNotifications)
		}

		analytics := api.Group("/analytics", middleware.AuthMiddleware(), middleware.RequireManager(policy.CanViewAnalytics))
		{
			analytics.GET("/overview", handlers.GetAnalyticsOverview)
		}
	}

	return r
}
