package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"tasktracker/backend/internal/model"
)

type TimeLogRepository struct {
	db *sql.DB
}

func NewTimeLogRepository(db *sql.DB) *TimeLogRepository {
	return &TimeLogRepository{db: db}
}

func (r *TimeLogRepository) BeginTx(ctx context.Context) (*sql.Tx, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	return tx, nil
}

func (r *TimeLogRepository) InsertTx(ctx context.Context, tx *sql.Tx, log *model.TimeLog) (int64, error) {
	result, err := tx.ExecContext(
		ctx,
		`INSERT INTO time_logs (task_id, start_time, duration_seconds) VALUES (?, ?, ?)`,
		log.TaskID,
		log.StartTime.UnixNano(),
		durationSeconds(log.Duration),
	)
	if err != nil {
		return 0, fmt.Errorf("insert time log: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("time log insert id: %w", err)
	}
	return id, nil
}

func (r *TimeLogRepository) UpdateTx(ctx context.Context, tx *sql.Tx, log *model.TimeLog) error {
	result, err := tx.ExecContext(
		ctx,
		`UPDATE time_logs SET start_time = ?, duration_seconds = ? WHERE id = ?`,
		log.StartTime.UnixNano(),
		durationSeconds(log.Duration),
		log.ID,
	)
	if err != nil {
		return fmt.Errorf("update time log: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update time log affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *TimeLogRepository) GetByID(ctx context.Context, id int64) (*model.TimeLog, error) {
	row := r.db.QueryRowContext(
		ctx,
		`SELECT id, task_id, start_time, duration_seconds FROM time_logs WHERE id = ?`,
		id,
	)
	return scanTimeLog(row)
}

func (r *TimeLogRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM time_logs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete time log: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete time log affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByTaskTx returns every log for the task, oldest start first. The
// invariant checks run against this snapshot inside the caller's
// transaction.
func (r *TimeLogRepository) ListByTaskTx(ctx context.Context, tx *sql.Tx, taskID int64) ([]model.TimeLog, error) {
	rows, err := tx.QueryContext(
		ctx,
		`SELECT id, task_id, start_time, duration_seconds
		 FROM time_logs
		 WHERE task_id = ?
		 ORDER BY start_time ASC, id ASC`,
		taskID,
	)
	if err != nil {
		return nil, fmt.Errorf("list time logs: %w", err)
	}
	return collectTimeLogs(rows)
}

func (r *TimeLogRepository) ListByTask(ctx context.Context, taskID int64) ([]model.TimeLog, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT id, task_id, start_time, duration_seconds
		 FROM time_logs
		 WHERE task_id = ?
		 ORDER BY start_time ASC, id ASC`,
		taskID,
	)
	if err != nil {
		return nil, fmt.Errorf("list time logs: %w", err)
	}
	return collectTimeLogs(rows)
}

// LatestByTaskTx returns the most recently started log for the task,
// which is the one a stop-timer call closes.
func (r *TimeLogRepository) LatestByTaskTx(ctx context.Context, tx *sql.Tx, taskID int64) (*model.TimeLog, error) {
	row := tx.QueryRowContext(
		ctx,
		`SELECT id, task_id, start_time, duration_seconds
		 FROM time_logs
		 WHERE task_id = ?
		 ORDER BY start_time DESC, id DESC
		 LIMIT 1`,
		taskID,
	)
	return scanTimeLog(row)
}

// SumClosedByTask returns the total closed duration for the task and
// how many closed logs contributed to it. count == 0 lets the caller
// distinguish "no logs" from "zero total".
func (r *TimeLogRepository) SumClosedByTask(ctx context.Context, taskID int64) (time.Duration, int, error) {
	var count int
	var totalSeconds int64
	err := r.db.QueryRowContext(
		ctx,
		`SELECT COUNT(1), COALESCE(SUM(duration_seconds), 0)
		 FROM time_logs
		 WHERE task_id = ? AND duration_seconds IS NOT NULL`,
		taskID,
	).Scan(&count, &totalSeconds)
	if err != nil {
		return 0, 0, fmt.Errorf("sum time logs: %w", err)
	}
	return time.Duration(totalSeconds) * time.Second, count, nil
}

// SumClosedByUserBetween totals closed logs over every task owned by
// the user whose start_time lies in [from, to], inclusive on both ends.
func (r *TimeLogRepository) SumClosedByUserBetween(ctx context.Context, userID string, from, to time.Time) (time.Duration, error) {
	var totalSeconds int64
	err := r.db.QueryRowContext(
		ctx,
		`SELECT COALESCE(SUM(l.duration_seconds), 0)
		 FROM time_logs l
		 JOIN tasks t ON t.id = l.task_id
		 WHERE t.user_id = ? AND l.duration_seconds IS NOT NULL
		   AND l.start_time >= ? AND l.start_time <= ?`,
		userID,
		from.UnixNano(),
		to.UnixNano(),
	).Scan(&totalSeconds)
	if err != nil {
		return 0, fmt.Errorf("sum user time logs: %w", err)
	}
	return time.Duration(totalSeconds) * time.Second, nil
}

// TopClosedByUserBetween returns the longest closed logs over the
// user's tasks in the window, longest first; ties resolve to insertion
// order.
func (r *TimeLogRepository) TopClosedByUserBetween(ctx context.Context, userID string, from, to time.Time, limit int) ([]model.TimeLog, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT l.id, l.task_id, l.start_time, l.duration_seconds
		 FROM time_logs l
		 JOIN tasks t ON t.id = l.task_id
		 WHERE t.user_id = ? AND l.duration_seconds IS NOT NULL
		   AND l.start_time >= ? AND l.start_time <= ?
		 ORDER BY l.duration_seconds DESC, l.id ASC
		 LIMIT ?`,
		userID,
		from.UnixNano(),
		to.UnixNano(),
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("top time logs: %w", err)
	}
	return collectTimeLogs(rows)
}

func collectTimeLogs(rows *sql.Rows) ([]model.TimeLog, error) {
	defer rows.Close()

	logs := make([]model.TimeLog, 0)
	for rows.Next() {
		log, err := scanTimeLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, *log)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate time logs: %w", err)
	}
	return logs, nil
}

func scanTimeLog(s scanner) (*model.TimeLog, error) {
	var log model.TimeLog
	var startNanos int64
	var seconds sql.NullInt64
	err := s.Scan(&log.ID, &log.TaskID, &startNanos, &seconds)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan time log: %w", err)
	}

	log.StartTime = time.Unix(0, startNanos).UTC()
	if seconds.Valid {
		d := time.Duration(seconds.Int64) * time.Second
		log.Duration = &d
	}
	return &log, nil
}

func durationSeconds(d *time.Duration) interface{} {
	if d == nil {
		return nil
	}
	return int64(*d / time.Second)
}
