package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "tasktracker/backend/internal/errors"
	"tasktracker/backend/internal/middleware"
	"tasktracker/backend/internal/service"
)

type CommentHandler struct {
	commentService *service.CommentService
}

func NewCommentHandler(commentService *service.CommentService) *CommentHandler {
	return &CommentHandler{commentService: commentService}
}

type createCommentRequest struct {
	Task int64  `json:"task"`
	Body string `json:"body"`
}

func (h *CommentHandler) Create(c *gin.Context) {
	var req createCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperrors.BadRequest("invalid_json", "invalid request body"))
		return
	}
	if req.Task < 1 || req.Body == "" {
		writeError(c, apperrors.BadRequest("invalid_comment", "task and body are required"))
		return
	}

	comment, err := h.commentService.Add(c.Request.Context(), middleware.UserID(c), req.Task, req.Body)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"commentId": comment.ID})
}
