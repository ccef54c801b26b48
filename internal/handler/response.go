package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "tasktracker/backend/internal/errors"
	"tasktracker/backend/internal/model"
	"tasktracker/backend/internal/service"
)

func writeError(c *gin.Context, apiErr *apperrors.APIError) {
	if apiErr == nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": gin.H{
				"code":    "internal_error",
				"message": "internal server error",
			},
		})
		return
	}

	errorBody := gin.H{
		"code":    apiErr.Code,
		"message": apiErr.Message,
	}
	if apiErr.Details != nil {
		errorBody["details"] = apiErr.Details
	}

	c.JSON(apiErr.Status, gin.H{
		"error": errorBody,
	})
}

// writeServiceError translates the service layer's typed errors into
// the API error envelope. Invariant violations come back as 409s with
// enough detail for the caller to resolve them; they are never treated
// as server faults.
func writeServiceError(c *gin.Context, err error) {
	writeError(c, apiErrorFor(err))
}

func apiErrorFor(err error) *apperrors.APIError {
	var running *service.TimerAlreadyRunningError
	if errors.As(err, &running) {
		apiErr := apperrors.Conflict("timer_already_running", "task timer is already running", gin.H{
			"taskId": running.TaskID,
		})
		return apiErr
	}

	var overlap *service.OverlappingIntervalError
	if errors.As(err, &overlap) {
		details := gin.H{
			"taskId":                  overlap.TaskID,
			"conflictingTimeLogId":    overlap.ConflictingID,
			"startTime":               overlap.NewStart,
			"existingStartTime":       overlap.ExistingStart,
			"existingDurationSeconds": int64(overlap.ExistingDuration / time.Second),
		}
		if overlap.NewDuration != nil {
			details["durationSeconds"] = int64(*overlap.NewDuration / time.Second)
		}
		return apperrors.Conflict("overlapping_interval", err.Error(), details)
	}

	var notRunning *service.TimerNotRunningError
	if errors.As(err, &notRunning) {
		return apperrors.Conflict("timer_not_running", "task has no running timer", gin.H{
			"taskId": notRunning.TaskID,
		})
	}

	var stopped *service.AlreadyStoppedError
	if errors.As(err, &stopped) {
		return apperrors.Conflict("already_stopped", "task timer is already stopped", gin.H{
			"taskId":    stopped.TaskID,
			"timeLogId": stopped.TimeLogID,
		})
	}

	switch {
	case errors.Is(err, service.ErrNegativeDuration):
		return apperrors.BadRequest("invalid_duration", "duration must be non-negative")
	case errors.Is(err, service.ErrInvalidLimit):
		return apperrors.BadRequest("invalid_limit", "limit must be at least 1")
	case errors.Is(err, service.ErrInvalidFileType):
		return apperrors.BadRequest("invalid_file_type", "file must be an image or PDF")
	case errors.Is(err, service.ErrTaskNotFound):
		return apperrors.NotFound("task_not_found", "task not found")
	case errors.Is(err, service.ErrUserNotFound):
		return apperrors.NotFound("user_not_found", "user not found")
	case errors.Is(err, service.ErrAttachmentNotFound):
		return apperrors.NotFound("attachment_not_found", "attachment not found")
	case errors.Is(err, service.ErrInvalidSignature):
		return apperrors.New(http.StatusForbidden, "invalid_signature", "upload signature is invalid")
	case errors.Is(err, service.ErrUploadURLExpired):
		return apperrors.New(http.StatusForbidden, "upload_url_expired", "upload url has expired")
	default:
		return apperrors.Internal("")
	}
}

type timeLogView struct {
	ID        int64     `json:"id"`
	Task      int64     `json:"task"`
	StartTime time.Time `json:"startTime"`
	// Duration is whole seconds; null while the timer is running.
	Duration *int64 `json:"duration"`
}

func toTimeLogView(log model.TimeLog) timeLogView {
	view := timeLogView{
		ID:        log.ID,
		Task:      log.TaskID,
		StartTime: log.StartTime,
	}
	if log.Duration != nil {
		seconds := int64(*log.Duration / time.Second)
		view.Duration = &seconds
	}
	return view
}

func toTimeLogViews(logs []model.TimeLog) []timeLogView {
	views := make([]timeLogView, 0, len(logs))
	for _, log := range logs {
		views = append(views, toTimeLogView(log))
	}
	return views
}
