package repository

import (
	"context"
	"database/sql"
	"fmt"

	"tasktracker/backend/internal/model"
)

type TaskRepository struct {
	db *sql.DB
}

func NewTaskRepository(db *sql.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

const taskColumns = `id, title, description, user_id, is_completed, created_at, updated_at`

func (r *TaskRepository) Create(ctx context.Context, task *model.Task) (int64, error) {
	result, err := r.db.ExecContext(
		ctx,
		`INSERT INTO tasks (title, description, user_id, is_completed, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		task.Title,
		task.Description,
		task.UserID,
		task.IsCompleted,
		formatTime(task.CreatedAt),
		formatTime(task.UpdatedAt),
	)
	if err != nil {
		return 0, fmt.Errorf("create task: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("task insert id: %w", err)
	}
	return id, nil
}

func (r *TaskRepository) GetByID(ctx context.Context, id int64) (*model.Task, error) {
	row := r.db.QueryRowContext(
		ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = ?`,
		id,
	)
	return scanTask(row)
}

func (r *TaskRepository) Update(ctx context.Context, task *model.Task) error {
	result, err := r.db.ExecContext(
		ctx,
		`UPDATE tasks
		 SET title = ?, description = ?, user_id = ?, is_completed = ?, updated_at = ?
		 WHERE id = ?`,
		task.Title,
		task.Description,
		task.UserID,
		task.IsCompleted,
		formatTime(task.UpdatedAt),
		task.ID,
	)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update task affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the task; comments, time logs and attachments go with
// it via ON DELETE CASCADE.
func (r *TaskRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete task affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *TaskRepository) ListByUser(ctx context.Context, userID string) ([]model.Task, error) {
	return r.list(ctx, `SELECT `+taskColumns+` FROM tasks WHERE user_id = ? ORDER BY id ASC`, userID)
}

func (r *TaskRepository) ListAll(ctx context.Context) ([]model.Task, error) {
	return r.list(ctx, `SELECT `+taskColumns+` FROM tasks ORDER BY id ASC`)
}

func (r *TaskRepository) ListCompletedByUser(ctx context.Context, userID string) ([]model.Task, error) {
	return r.list(
		ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE user_id = ? AND is_completed = 1 ORDER BY id ASC`,
		userID,
	)
}

// SearchByTitle does a case-insensitive substring match on the title,
// mirroring the primary-store search path (the full-text index covers
// descriptions and comments).
func (r *TaskRepository) SearchByTitle(ctx context.Context, needle string) ([]model.Task, error) {
	return r.list(
		ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE title LIKE '%' || ? || '%' COLLATE NOCASE ORDER BY id ASC`,
		needle,
	)
}

func (r *TaskRepository) list(ctx context.Context, query string, args ...interface{}) ([]model.Task, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]model.Task, 0)
	for rows.Next() {
		task, scanErr := scanTask(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		tasks = append(tasks, *task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return tasks, nil
}

func scanTask(s scanner) (*model.Task, error) {
	var task model.Task
	var createdAt string
	var updatedAt string
	err := s.Scan(
		&task.ID,
		&task.Title,
		&task.Description,
		&task.UserID,
		&task.IsCompleted,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan task: %w", err)
	}

	parsedCreatedAt, err := parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse task created_at: %w", err)
	}
	parsedUpdatedAt, err := parseTime(updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse task updated_at: %w", err)
	}
	task.CreatedAt = parsedCreatedAt
	task.UpdatedAt = parsedUpdatedAt

	return &task, nil
}
