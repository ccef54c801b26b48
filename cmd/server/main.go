package main

import (
	"log"

	"tasktracker/backend/internal/cache"
	"tasktracker/backend/internal/config"
	"tasktracker/backend/internal/db"
	"tasktracker/backend/internal/handler"
	"tasktracker/backend/internal/mailer"
	"tasktracker/backend/internal/repository"
	"tasktracker/backend/internal/router"
	"tasktracker/backend/internal/search"
	"tasktracker/backend/internal/service"
)

func main() {
	cfg := config.Load()

	database, err := db.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer database.Close()

	if err := db.RunMigrations(database, cfg.MigrationsDir); err != nil {
		log.Fatalf("run migrations: %v", err)
	}

	userRepo := repository.NewUserRepository(database)
	taskRepo := repository.NewTaskRepository(database)
	commentRepo := repository.NewCommentRepository(database)
	timeLogRepo := repository.NewTimeLogRepository(database)
	attachmentRepo := repository.NewAttachmentRepository(database)

	mailDispatcher := mailer.NewDispatcher(mailer.LogSink{}, cfg.MailMaxRetries, cfg.MailRetryDelay)
	defer mailDispatcher.Close()
	searchIndex := search.NewMemoryIndex()
	topLogsCache := cache.New(cfg.TopLogsCacheTTL, nil)

	authService := service.NewAuthService(userRepo, cfg.JWTSecret, cfg.TokenTTL)
	reportService := service.NewReportService(timeLogRepo, topLogsCache)
	timeLogService := service.NewTimeLogService(timeLogRepo)
	taskService := service.NewTaskService(taskRepo, commentRepo, userRepo, reportService, mailDispatcher, searchIndex)
	commentService := service.NewCommentService(commentRepo, taskService, userRepo, mailDispatcher)
	attachmentService := service.NewAttachmentService(attachmentRepo, taskService, cfg.UploadURLSecret, cfg.UploadURLTTL)

	handlers := router.Handlers{
		Auth:        handler.NewAuthHandler(authService),
		Users:       handler.NewUserHandler(userRepo),
		Tasks:       handler.NewTaskHandler(taskService, timeLogService, commentService),
		Comments:    handler.NewCommentHandler(commentService),
		TimeLogs:    handler.NewTimeLogHandler(taskService, timeLogService, reportService),
		Attachments: handler.NewAttachmentHandler(attachmentService),
		Search:      handler.NewSearchHandler(searchIndex),
	}

	engine := router.New(authService, handlers, cfg.CORSOrigins)
	log.Printf("backend listening on :%s", cfg.Port)
	if err := engine.Run(":" + cfg.Port); err != nil {
		log.Fatalf("run server: %v", err)
	}
}
