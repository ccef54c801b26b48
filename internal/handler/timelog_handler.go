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

type TimeLogHandler struct {
	taskService    *service.TaskService
	timeLogService *service.TimeLogService
	reportService  *service.ReportService
}

func NewTimeLogHandler(
	taskService *service.TaskService,
	timeLogService *service.TimeLogService,
	reportService *service.ReportService,
) *TimeLogHandler {
	return &TimeLogHandler{
		taskService:    taskService,
		timeLogService: timeLogService,
		reportService:  reportService,
	}
}

type createTimeLogRequest struct {
	Task      int64     `json:"task"`
	StartTime time.Time `json:"startTime"`
	// Duration is whole seconds; omit it to open a running log.
	Duration *int64 `json:"duration"`
}

// Create records a manual time log, open or pre-closed, subject to the
// same invariants as the timer actions.
func (h *TimeLogHandler) Create(c *gin.Context) {
	var req createTimeLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperrors.BadRequest("invalid_json", "invalid request body"))
		return
	}
	if req.Task < 1 || req.StartTime.IsZero() {
		writeError(c, apperrors.BadRequest("invalid_time_log", "task and startTime are required"))
		return
	}

	task, err := h.taskService.Get(c.Request.Context(), req.Task)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	if task.UserID != middleware.UserID(c) {
		writeError(c, apperrors.Forbidden("you are not authorized to log time for this task"))
		return
	}

	log := &model.TimeLog{
		TaskID:    req.Task,
		StartTime: req.StartTime.UTC(),
	}
	if req.Duration != nil {
		d := time.Duration(*req.Duration) * time.Second
		log.Duration = &d
	}

	saved, err := h.timeLogService.ValidateAndSave(c.Request.Context(), log)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"timeLogId": saved.ID})
}

// LastMonth reports the caller's total logged seconds over the last 30
// days.
func (h *TimeLogHandler) LastMonth(c *gin.Context) {
	total, err := h.reportService.UserTimeLastMonth(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"monthTimeSpent": int64(total / time.Second)})
}

// Top returns the caller's longest logs from the last 30 days. Results
// may be up to the cache TTL stale.
func (h *TimeLogHandler) Top(c *gin.Context) {
	limit := service.DefaultTopLogsLimit
	if rawLimit := c.Query("limit"); rawLimit != "" {
		parsed, err := strconv.Atoi(rawLimit)
		if err != nil {
			writeError(c, apperrors.BadRequest("invalid_limit", "limit must be an integer"))
			return
		}
		limit = parsed
	}

	logs, err := h.reportService.UserTopLogs(c.Request.Context(), middleware.UserID(c), limit)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"timeLogs": toTimeLogViews(logs)})
}
