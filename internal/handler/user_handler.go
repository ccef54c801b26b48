package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "tasktracker/backend/internal/errors"
	"tasktracker/backend/internal/repository"
)

type UserHandler struct {
	users *repository.UserRepository
}

func NewUserHandler(users *repository.UserRepository) *UserHandler {
	return &UserHandler{users: users}
}

type userPreview struct {
	ID       string `json:"id"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

func (h *UserHandler) List(c *gin.Context) {
	users, err := h.users.List(c.Request.Context())
	if err != nil {
		writeError(c, apperrors.Internal("failed to list users"))
		return
	}

	previews := make([]userPreview, 0, len(users))
	for _, user := range users {
		previews = append(previews, userPreview{
			ID:       user.ID,
			FullName: user.FullName(),
			Email:    user.Email,
		})
	}
	c.JSON(http.StatusOK, gin.H{"users": previews})
}

func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.users.GetByID(c.Request.Context(), c.Param("id"))
	if errors.Is(err, repository.ErrNotFound) {
		writeError(c, apperrors.NotFound("user_not_found", "user not found"))
		return
	}
	if err != nil {
		writeError(c, apperrors.Internal("failed to get user"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": userPreview{
		ID:       user.ID,
		FullName: user.FullName(),
		Email:    user.Email,
	}})
}
