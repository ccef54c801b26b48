package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tasktracker/backend/internal/handler"
	"tasktracker/backend/internal/middleware"
	"tasktracker/backend/internal/service"
)

type Handlers struct {
	Auth        *handler.AuthHandler
	Users       *handler.UserHandler
	Tasks       *handler.TaskHandler
	Comments    *handler.CommentHandler
	TimeLogs    *handler.TimeLogHandler
	Attachments *handler.AttachmentHandler
	Search      *handler.SearchHandler
}

func New(authService *service.AuthService, h Handlers, corsOrigins []string) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Logger(), gin.Recovery(), middleware.CORS(corsOrigins))

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := engine.Group("/api")

	auth := api.Group("/auth")
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)

	// The object store calls the webhook directly; it authenticates with
	// the pre-signed URL's signature, not a user token.
	api.POST("/attachments/webhook", h.Attachments.Webhook)

	authed := api.Group("")
	authed.Use(middleware.Auth(authService))

	users := authed.Group("/users")
	users.GET("", h.Users.List)
	users.GET("/:id", h.Users.Get)

	tasks := authed.Group("/tasks")
	tasks.POST("", h.Tasks.Create)
	tasks.GET("", h.Tasks.List)
	tasks.GET("/all", h.Tasks.ListAll)
	tasks.GET("/completed", h.Tasks.ListCompleted)
	tasks.POST("/search", h.Tasks.Search)
	tasks.GET("/:id", h.Tasks.Get)
	tasks.DELETE("/:id", h.Tasks.Delete)
	tasks.PATCH("/:id/assign", h.Tasks.Assign)
	tasks.PATCH("/:id/complete", h.Tasks.Complete)
	tasks.PATCH("/:id/undo", h.Tasks.Undo)
	tasks.GET("/:id/comments", h.Tasks.Comments)
	tasks.PATCH("/:id/start-timer", h.Tasks.StartTimer)
	tasks.PATCH("/:id/stop-timer", h.Tasks.StopTimer)
	tasks.GET("/:id/timer-logs", h.Tasks.TimerLogs)

	authed.POST("/comments", h.Comments.Create)

	timeLogs := authed.Group("/timelogs")
	timeLogs.POST("", h.TimeLogs.Create)
	timeLogs.GET("/last-month", h.TimeLogs.LastMonth)
	timeLogs.GET("/top", h.TimeLogs.Top)

	attachments := authed.Group("/attachments")
	attachments.POST("", h.Attachments.Create)
	attachments.GET("", h.Attachments.ListByTask)

	authed.POST("/search", h.Search.Search)

	return engine
}
