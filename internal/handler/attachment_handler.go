package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "tasktracker/backend/internal/errors"
	"tasktracker/backend/internal/service"
)

type AttachmentHandler struct {
	attachmentService *service.AttachmentService
}

func NewAttachmentHandler(attachmentService *service.AttachmentService) *AttachmentHandler {
	return &AttachmentHandler{attachmentService: attachmentService}
}

type createAttachmentRequest struct {
	Task     int64  `json:"task"`
	FileName string `json:"fileName"`
}

type uploadWebhookRequest struct {
	AttachmentID int64  `json:"attachmentId"`
	Expires      int64  `json:"expires"`
	Signature    string `json:"signature"`
}

// Create registers a pending attachment and hands back a pre-signed
// upload URL for the object store.
func (h *AttachmentHandler) Create(c *gin.Context) {
	var req createAttachmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperrors.BadRequest("invalid_json", "invalid request body"))
		return
	}
	if req.Task < 1 || req.FileName == "" {
		writeError(c, apperrors.BadRequest("invalid_attachment", "task and fileName are required"))
		return
	}

	attachment, uploadURL, err := h.attachmentService.CreateUploadURL(c.Request.Context(), req.Task, req.FileName)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"attachmentId": attachment.ID,
		"uploadUrl":    uploadURL,
	})
}

// Webhook is called by the object store once the client has finished
// uploading; it carries the signature from the pre-signed URL.
func (h *AttachmentHandler) Webhook(c *gin.Context) {
	var req uploadWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperrors.BadRequest("invalid_json", "invalid request body"))
		return
	}

	attachment, err := h.attachmentService.ConfirmUpload(c.Request.Context(), req.AttachmentID, req.Expires, req.Signature)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"attachment": attachment})
}

func (h *AttachmentHandler) ListByTask(c *gin.Context) {
	taskID, err := strconv.ParseInt(c.Query("task"), 10, 64)
	if err != nil || taskID < 1 {
		writeError(c, apperrors.BadRequest("invalid_task_id", "task query param must be a positive integer"))
		return
	}

	attachments, err := h.attachmentService.ListByTask(c.Request.Context(), taskID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"attachments": attachments})
}
