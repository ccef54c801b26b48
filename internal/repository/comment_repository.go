package repository

import (
	"context"
	"database/sql"
	"fmt"

	"tasktracker/backend/internal/model"
)

type CommentRepository struct {
	db *sql.DB
}

func NewCommentRepository(db *sql.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

func (r *CommentRepository) Create(ctx context.Context, comment *model.Comment) (int64, error) {
	result, err := r.db.ExecContext(
		ctx,
		`INSERT INTO comments (task_id, user_id, body, created_at) VALUES (?, ?, ?, ?)`,
		comment.TaskID,
		comment.UserID,
		comment.Body,
		formatTime(comment.CreatedAt),
	)
	if err != nil {
		return 0, fmt.Errorf("create comment: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("comment insert id: %w", err)
	}
	return id, nil
}

func (r *CommentRepository) ListByTask(ctx context.Context, taskID int64) ([]model.Comment, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT id, task_id, user_id, body, created_at FROM comments WHERE task_id = ? ORDER BY id ASC`,
		taskID,
	)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	comments := make([]model.Comment, 0)
	for rows.Next() {
		var comment model.Comment
		var createdAt string
		if err := rows.Scan(&comment.ID, &comment.TaskID, &comment.UserID, &comment.Body, &createdAt); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		parsedCreatedAt, parseErr := parseTime(createdAt)
		if parseErr != nil {
			return nil, fmt.Errorf("parse comment created_at: %w", parseErr)
		}
		comment.CreatedAt = parsedCreatedAt
		comments = append(comments, comment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate comments: %w", err)
	}
	return comments, nil
}

// DistinctCommenterEmails returns one email per user who commented on
// the task, for completion/undo notification fan-out.
func (r *CommentRepository) DistinctCommenterEmails(ctx context.Context, taskID int64) ([]string, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT DISTINCT u.email
		 FROM comments c
		 JOIN users u ON u.id = c.user_id
		 WHERE c.task_id = ?`,
		taskID,
	)
	if err != nil {
		return nil, fmt.Errorf("list commenter emails: %w", err)
	}
	defer rows.Close()

	emails := make([]string, 0)
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, fmt.Errorf("scan commenter email: %w", err)
		}
		emails = append(emails, email)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate commenter emails: %w", err)
	}
	return emails, nil
}
