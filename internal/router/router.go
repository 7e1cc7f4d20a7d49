package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/monocle-dev/taskhub/internal/auth"
	"github.com/monocle-dev/taskhub/internal/handlers"
	"github.com/monocle-dev/taskhub/internal/middleware"
)

type Dependencies struct {
	AllowedOrigins []string
	Tokens         *auth.TokenIssuer
	Users          middleware.UserLookup
	Auth           *handlers.AuthHandler
	Projects       *handlers.ProjectHandler
	Tasks          *handlers.TaskHandler
	Hub            *handlers.Hub
}

func NewRouter(deps Dependencies) *gin.Engine {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     deps.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	requireAuth := middleware.Auth(deps.Tokens, deps.Users)

	api := r.Group("/api")
	{
		api.GET("/health", handlers.HealthCheck)
		api.GET("/ws/:project_id", requireAuth, deps.Hub.Serve)

		authRoutes := api.Group("/auth")
		{
			authRoutes.POST("/register", deps.Auth.Register)
			authRoutes.POST("/login", deps.Auth.Login)
			authRoutes.POST("/logout", deps.Auth.Logout)
			authRoutes.GET("/me", requireAuth, deps.Auth.Me)
			authRoutes.PATCH("/me", requireAuth, deps.Auth.UpdateMe)
		}

		projects := api.Group("/projects", requireAuth)
		{
			projects.POST("", deps.Projects.CreateProject)
			projects.GET("", deps.Projects.ListProjects)
			projects.GET("/:project_id", deps.Projects.GetProject)
			projects.PATCH("/:project_id", deps.Projects.UpdateProject)
			projects.DELETE("/:project_id", deps.Projects.DeleteProject)

			projects.GET("/:project_id/tasks", deps.Tasks.ListProjectTasks)
			projects.POST("/:project_id/tasks", deps.Tasks.CreateTask)

			projects.POST("/:project_id/github", deps.Projects.LinkGitHub)
		}

		tasks := api.Group("/tasks", requireAuth)
		{
			tasks.GET("", deps.Tasks.ListTasks)
			tasks.GET("/:task_id", deps.Tasks.GetTask)
			tasks.PATCH("/:task_id", deps.Tasks.UpdateTask)
			tasks.DELETE("/:task_id", deps.Tasks.DeleteTask)
		}

		api.GET("/github/users/:username/repos", requireAuth, deps.Projects.ListUserRepositories)
	}

	return r
}
