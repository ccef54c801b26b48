package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"tasktracker/backend/internal/mailer"
	"tasktracker/backend/internal/model"
	"tasktracker/backend/internal/repository"
	"tasktracker/backend/internal/search"
)

var (
	ErrTaskNotFound = errors.New("task not found")
	ErrUserNotFound = errors.New("user not found")
)

// TaskService handles the task lifecycle and its notification and
// search-index side effects. Time-log state is never touched here; the
// engine owns it.
type TaskService struct {
	tasks    *repository.TaskRepository
	comments *repository.CommentRepository
	users    *repository.UserRepository
	reports  *ReportService
	mail     *mailer.Dispatcher
	index    search.Index
	now      func() time.Time
}

func NewTaskService(
	tasks *repository.TaskRepository,
	comments *repository.CommentRepository,
	users *repository.UserRepository,
	reports *ReportService,
	mail *mailer.Dispatcher,
	index search.Index,
) *TaskService {
	return &TaskService{
		tasks:    tasks,
		comments: comments,
		users:    users,
		reports:  reports,
		mail:     mail,
		index:    index,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

type TaskPreview struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	// TimeSpent is whole seconds; null when the task has no closed logs.
	TimeSpent *int64 `json:"timeSpent"`
}

type TaskSummary struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

type TaskDetail struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	User        string `json:"user"`
	IsCompleted bool   `json:"isCompleted"`
	TimeSpent   *int64 `json:"timeSpent"`
}

func (s *TaskService) Create(ctx context.Context, userID, title, description string) (*model.Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("title is required")
	}

	now := s.now()
	task := &model.Task{
		Title:       title,
		Description: description,
		UserID:      userID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	id, err := s.tasks.Create(ctx, task)
	if err != nil {
		return nil, err
	}
	task.ID = id

	s.reindex(ctx, task)
	return task, nil
}

func (s *TaskService) Get(ctx context.Context, id int64) (*model.Task, error) {
	task, err := s.tasks.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrTaskNotFound
	}
	return task, err
}

func (s *TaskService) Detail(ctx context.Context, id int64) (*TaskDetail, error) {
	task, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	spent, err := s.reports.TimeSpent(ctx, task.ID)
	if err != nil {
		return nil, err
	}
	return &TaskDetail{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		User:        task.UserID,
		IsCompleted: task.IsCompleted,
		TimeSpent:   durationToSeconds(spent),
	}, nil
}

// ListOwn returns the caller's tasks with their total time spent.
func (s *TaskService) ListOwn(ctx context.Context, userID string) ([]TaskPreview, error) {
	tasks, err := s.tasks.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	previews := make([]TaskPreview, 0, len(tasks))
	for _, task := range tasks {
		spent, err := s.reports.TimeSpent(ctx, task.ID)
		if err != nil {
			return nil, err
		}
		previews = append(previews, TaskPreview{
			ID:        task.ID,
			Title:     task.Title,
			TimeSpent: durationToSeconds(spent),
		})
	}
	return previews, nil
}

func (s *TaskService) ListAll(ctx context.Context) ([]TaskSummary, error) {
	tasks, err := s.tasks.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return summarize(tasks), nil
}

func (s *TaskService) ListCompleted(ctx context.Context, userID string) ([]TaskSummary, error) {
	tasks, err := s.tasks.ListCompletedByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return summarize(tasks), nil
}

func (s *TaskService) SearchByTitle(ctx context.Context, needle string) ([]TaskSummary, error) {
	tasks, err := s.tasks.SearchByTitle(ctx, needle)
	if err != nil {
		return nil, err
	}
	return summarize(tasks), nil
}

// Assign hands the task to another user and notifies them. Assigning
// to the current owner is a successful no-op without a notification.
func (s *TaskService) Assign(ctx context.Context, taskID int64, newUserID string) error {
	task, err := s.Get(ctx, taskID)
	if err != nil {
		return err
	}
	if task.UserID == newUserID {
		return nil
	}

	newOwner, err := s.users.GetByID(ctx, newUserID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return err
	}

	task.UserID = newUserID
	task.UpdatedAt = s.now()
	if err := s.tasks.Update(ctx, task); err != nil {
		return err
	}

	s.mail.Enqueue(mailer.Message{
		To:      []string{newOwner.Email},
		Subject: "Task assigned",
		Body:    fmt.Sprintf("Task [%s] has been assigned to you", task.Title),
	})
	return nil
}

// Complete marks the task done and notifies the owner and everyone who
// commented. Completing an already-completed task is a no-op.
func (s *TaskService) Complete(ctx context.Context, taskID int64) error {
	task, err := s.Get(ctx, taskID)
	if err != nil {
		return err
	}
	if task.IsCompleted {
		return nil
	}

	task.IsCompleted = true
	task.UpdatedAt = s.now()
	if err := s.tasks.Update(ctx, task); err != nil {
		return err
	}

	s.notifyWatchers(ctx, task, "Task completed", fmt.Sprintf("Task [%s] has been completed", task.Title))
	s.reindex(ctx, task)
	return nil
}

// Undo reopens a completed task, with the same notification fan-out as
// Complete.
func (s *TaskService) Undo(ctx context.Context, taskID int64) error {
	task, err := s.Get(ctx, taskID)
	if err != nil {
		return err
	}
	if !task.IsCompleted {
		return nil
	}

	task.IsCompleted = false
	task.UpdatedAt = s.now()
	if err := s.tasks.Update(ctx, task); err != nil {
		return err
	}

	s.notifyWatchers(ctx, task, "Task marked incomplete", fmt.Sprintf("Task [%s] has been marked incomplete", task.Title))
	s.reindex(ctx, task)
	return nil
}

func (s *TaskService) Delete(ctx context.Context, taskID int64) error {
	err := s.tasks.Delete(ctx, taskID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrTaskNotFound
	}
	if err != nil {
		return err
	}
	s.index.RemoveTask(taskID)
	return nil
}

// notifyWatchers mails the task owner plus everyone who commented,
// each address once.
func (s *TaskService) notifyWatchers(ctx context.Context, task *model.Task, subject, body string) {
	recipients := make([]string, 0, 4)
	seen := make(map[string]struct{})

	if owner, err := s.users.GetByID(ctx, task.UserID); err == nil {
		recipients = append(recipients, owner.Email)
		seen[owner.Email] = struct{}{}
	}

	emails, err := s.comments.DistinctCommenterEmails(ctx, task.ID)
	if err == nil {
		for _, email := range emails {
			if _, ok := seen[email]; ok {
				continue
			}
			recipients = append(recipients, email)
			seen[email] = struct{}{}
		}
	}

	s.mail.Enqueue(mailer.Message{To: recipients, Subject: subject, Body: body})
}

// reindex pushes the task's current projection, including comment
// bodies, to the search index. Index lag is tolerated.
func (s *TaskService) reindex(ctx context.Context, task *model.Task) {
	doc := search.Document{
		TaskID:      task.ID,
		Title:       task.Title,
		Description: task.Description,
		IsCompleted: task.IsCompleted,
	}
	if comments, err := s.comments.ListByTask(ctx, task.ID); err == nil {
		for _, comment := range comments {
			doc.Comments = append(doc.Comments, comment.Body)
		}
	}
	s.index.IndexTask(doc)
}

func summarize(tasks []model.Task) []TaskSummary {
	summaries := make([]TaskSummary, 0, len(tasks))
	for _, task := range tasks {
		summaries = append(summaries, TaskSummary{ID: task.ID, Title: task.Title})
	}
	return summaries
}

func durationToSeconds(d *time.Duration) *int64 {
	if d == nil {
		return nil
	}
	seconds := int64(*d / time.Second)
	return &seconds
}
