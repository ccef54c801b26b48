package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tasktracker/backend/internal/mailer"
	"tasktracker/backend/internal/model"
	"tasktracker/backend/internal/repository"
)

type CommentService struct {
	comments *repository.CommentRepository
	tasks    *TaskService
	users    *repository.UserRepository
	mail     *mailer.Dispatcher
	now      func() time.Time
}

func NewCommentService(
	comments *repository.CommentRepository,
	tasks *TaskService,
	users *repository.UserRepository,
	mail *mailer.Dispatcher,
) *CommentService {
	return &CommentService{
		comments: comments,
		tasks:    tasks,
		users:    users,
		mail:     mail,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Add stores the comment, notifies the task owner and refreshes the
// task's search document.
func (s *CommentService) Add(ctx context.Context, userID string, taskID int64, body string) (*model.Comment, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, fmt.Errorf("body is required")
	}

	task, err := s.tasks.Get(ctx, taskID)
	if err != nil {
		return nil, err
	}

	comment := &model.Comment{
		TaskID:    taskID,
		UserID:    userID,
		Body:      body,
		CreatedAt: s.now(),
	}
	id, err := s.comments.Create(ctx, comment)
	if err != nil {
		return nil, err
	}
	comment.ID = id

	if owner, ownerErr := s.users.GetByID(ctx, task.UserID); ownerErr == nil {
		s.mail.Enqueue(mailer.Message{
			To:      []string{owner.Email},
			Subject: "Comment added",
			Body:    fmt.Sprintf("Comment added to task [%s]", task.Title),
		})
	}

	s.tasks.reindex(ctx, task)
	return comment, nil
}

func (s *CommentService) ListByTask(ctx context.Context, taskID int64) ([]model.Comment, error) {
	if _, err := s.tasks.Get(ctx, taskID); err != nil {
		return nil, err
	}
	return s.comments.ListByTask(ctx, taskID)
}
