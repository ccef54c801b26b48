package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "tasktracker/backend/internal/errors"
	"tasktracker/backend/internal/middleware"
	"tasktracker/backend/internal/model"
	"tasktracker/backend/internal/service"
)

type TaskHandler struct {
	taskService    *service.TaskService
	timeLogService *service.TimeLogService
	commentService *service.CommentService
}

func NewTaskHandler(
	taskService *service.TaskService,
	timeLogService *service.TimeLogService,
	commentService *service.CommentService,
) *TaskHandler {
	return &TaskHandler{
		taskService:    taskService,
		timeLogService: timeLogService,
		commentService: commentService,
	}
}

type createTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type searchTasksRequest struct {
	Search string `json:"search"`
}

type assignTaskRequest struct {
	User string `json:"user"`
}

func (h *TaskHandler) Create(c *gin.Context) {
	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperrors.BadRequest("invalid_json", "invalid request body"))
		return
	}
	if req.Title == "" {
		writeError(c, apperrors.BadRequest("invalid_title", "title is required"))
		return
	}

	task, err := h.taskService.Create(c.Request.Context(), middleware.UserID(c), req.Title, req.Description)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"taskId": task.ID})
}

// List returns the caller's own tasks with total time spent.
func (h *TaskHandler) List(c *gin.Context) {
	previews, err := h.taskService.ListOwn(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": previews})
}

func (h *TaskHandler) ListAll(c *gin.Context) {
	summaries, err := h.taskService.ListAll(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": summaries})
}

func (h *TaskHandler) ListCompleted(c *gin.Context) {
	summaries, err := h.taskService.ListCompleted(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": summaries})
}

func (h *TaskHandler) Search(c *gin.Context) {
	var req searchTasksRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Search == "" {
		writeError(c, apperrors.BadRequest("invalid_search", "search is required"))
		return
	}

	summaries, err := h.taskService.SearchByTitle(c.Request.Context(), req.Search)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": summaries})
}

func (h *TaskHandler) Get(c *gin.Context) {
	taskID, ok := taskIDParam(c)
	if !ok {
		return
	}

	detail, err := h.taskService.Detail(c.Request.Context(), taskID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": detail})
}

func (h *TaskHandler) Delete(c *gin.Context) {
	taskID, ok := taskIDParam(c)
	if !ok {
		return
	}

	if err := h.taskService.Delete(c.Request.Context(), taskID); err != nil {
		writeServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *TaskHandler) Assign(c *gin.Context) {
	taskID, ok := taskIDParam(c)
	if !ok {
		return
	}

	var req assignTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.User == "" {
		writeError(c, apperrors.BadRequest("invalid_user", "user is required"))
		return
	}

	if err := h.taskService.Assign(c.Request.Context(), taskID, req.User); err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Task assigned successfully"})
}

func (h *TaskHandler) Complete(c *gin.Context) {
	taskID, ok := taskIDParam(c)
	if !ok {
		return
	}

	if err := h.taskService.Complete(c.Request.Context(), taskID); err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Task completed successfully"})
}

func (h *TaskHandler) Undo(c *gin.Context) {
	taskID, ok := taskIDParam(c)
	if !ok {
		return
	}

	if err := h.taskService.Undo(c.Request.Context(), taskID); err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Task marked incomplete"})
}

func (h *TaskHandler) Comments(c *gin.Context) {
	taskID, ok := taskIDParam(c)
	if !ok {
		return
	}

	comments, err := h.commentService.ListByTask(c.Request.Context(), taskID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"comments": comments})
}

// StartTimer opens a timer on the caller's own task.
func (h *TaskHandler) StartTimer(c *gin.Context) {
	task, ok := h.ownTask(c)
	if !ok {
		return
	}

	log, err := h.timeLogService.StartTimer(c.Request.Context(), task.ID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"timeLogId": log.ID, "status": "started"})
}

// StopTimer closes the running timer and reports the task's new total.
func (h *TaskHandler) StopTimer(c *gin.Context) {
	task, ok := h.ownTask(c)
	if !ok {
		return
	}

	log, total, err := h.timeLogService.StopTimer(c.Request.Context(), task.ID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"timeLogId": log.ID,
		"duration":  int64(*log.Duration / time.Second),
		"timeSpent": int64(total / time.Second),
	})
}

func (h *TaskHandler) TimerLogs(c *gin.Context) {
	task, ok := h.ownTask(c)
	if !ok {
		return
	}

	logs, err := h.timeLogService.ListByTask(c.Request.Context(), task.ID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"timeLogs": toTimeLogViews(logs)})
}

// ownTask resolves the :id param and enforces that the caller owns the
// task; timer operations and log reads are owner-only.
func (h *TaskHandler) ownTask(c *gin.Context) (*model.Task, bool) {
	taskID, ok := taskIDParam(c)
	if !ok {
		return nil, false
	}

	task, err := h.taskService.Get(c.Request.Context(), taskID)
	if err != nil {
		writeServiceError(c, err)
		return nil, false
	}
	if task.UserID != middleware.UserID(c) {
		writeError(c, apperrors.Forbidden("you do not own this task"))
		return nil, false
	}
	return task, true
}

func taskIDParam(c *gin.Context) (int64, bool) {
	taskID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || taskID < 1 {
		writeError(c, apperrors.BadRequest("invalid_task_id", "task id must be a positive integer"))
		return 0, false
	}
	return taskID, true
}
