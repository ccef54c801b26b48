package repository

import (
	"context"
	"database/sql"
	"fmt"

	"tasktracker/backend/internal/model"
)

type AttachmentRepository struct {
	db *sql.DB
}

func NewAttachmentRepository(db *sql.DB) *AttachmentRepository {
	return &AttachmentRepository{db: db}
}

func (r *AttachmentRepository) Create(ctx context.Context, attachment *model.Attachment) (int64, error) {
	result, err := r.db.ExecContext(
		ctx,
		`INSERT INTO attachments (task_id, file_name, status, created_at) VALUES (?, ?, ?, ?)`,
		attachment.TaskID,
		attachment.FileName,
		attachment.Status,
		formatTime(attachment.CreatedAt),
	)
	if err != nil {
		return 0, fmt.Errorf("create attachment: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("attachment insert id: %w", err)
	}
	return id, nil
}

func (r *AttachmentRepository) GetByID(ctx context.Context, id int64) (*model.Attachment, error) {
	row := r.db.QueryRowContext(
		ctx,
		`SELECT id, task_id, file_name, status, created_at FROM attachments WHERE id = ?`,
		id,
	)
	return scanAttachment(row)
}

func (r *AttachmentRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	result, err := r.db.ExecContext(
		ctx,
		`UPDATE attachments SET status = ? WHERE id = ?`,
		status,
		id,
	)
	if err != nil {
		return fmt.Errorf("update attachment status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update attachment affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *AttachmentRepository) ListByTask(ctx context.Context, taskID int64) ([]model.Attachment, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT id, task_id, file_name, status, created_at FROM attachments WHERE task_id = ? ORDER BY id ASC`,
		taskID,
	)
	if err != nil {
		return nil, fmt.Errorf("list attachments: %w", err)
	}
	defer rows.Close()

	attachments := make([]model.Attachment, 0)
	for rows.Next() {
		attachment, scanErr := scanAttachment(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		attachments = append(attachments, *attachment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attachments: %w", err)
	}
	return attachments, nil
}

func scanAttachment(s scanner) (*model.Attachment, error) {
	var attachment model.Attachment
	var createdAt string
	err := s.Scan(&attachment.ID, &attachment.TaskID, &attachment.FileName, &attachment.Status, &createdAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan attachment: %w", err)
	}
	parsedCreatedAt, err := parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse attachment created_at: %w", err)
	}
	attachment.CreatedAt = parsedCreatedAt
	return &attachment, nil
}
