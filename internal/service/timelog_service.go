package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"tasktracker/backend/internal/model"
	"tasktracker/backend/internal/repository"
)

// TimeLogService owns the time-log invariants: at most one open log per
// task, no overlapping closed logs, durations floored to whole seconds.
// Every persist path goes through ValidateAndSave; there is no way to
// write a log that skips validation.
type TimeLogService struct {
	repo  *repository.TimeLogRepository
	locks *taskLocks
	now   func() time.Time
}

func NewTimeLogService(repo *repository.TimeLogRepository) *TimeLogService {
	return &TimeLogService{
		repo:  repo,
		locks: newTaskLocks(),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// ValidateAndSave checks the candidate against every other log for its
// task and inserts or updates it in one transaction. On failure nothing
// is written. The returned log carries the assigned id and the floored
// duration.
func (s *TimeLogService) ValidateAndSave(ctx context.Context, log *model.TimeLog) (*model.TimeLog, error) {
	if err := floorDuration(log); err != nil {
		return nil, err
	}

	unlock := s.locks.lock(log.TaskID)
	defer unlock()

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err := s.validateAndSaveTx(ctx, tx, log); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return log, nil
}

// StartTimer opens a new log at the current time. Fails with
// TimerAlreadyRunningError when the task already has an open log,
// creating nothing.
func (s *TimeLogService) StartTimer(ctx context.Context, taskID int64) (*model.TimeLog, error) {
	log := &model.TimeLog{
		TaskID:    taskID,
		StartTime: s.now(),
	}
	return s.ValidateAndSave(ctx, log)
}

// StopTimer closes the most recently started log for the task, setting
// duration = now - start floored to seconds, and returns the closed log
// together with the task's recomputed total.
func (s *TimeLogService) StopTimer(ctx context.Context, taskID int64) (*model.TimeLog, time.Duration, error) {
	unlock := s.locks.lock(taskID)
	defer unlock()

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, 0, err
	}
	defer tx.Rollback()

	latest, err := s.repo.LatestByTaskTx(ctx, tx, taskID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, 0, &TimerNotRunningError{TaskID: taskID}
	}
	if err != nil {
		return nil, 0, err
	}
	if !latest.Open() {
		return nil, 0, &AlreadyStoppedError{TaskID: taskID, TimeLogID: latest.ID}
	}

	elapsed := s.now().Sub(latest.StartTime)
	if elapsed < 0 {
		elapsed = 0
	}
	elapsed = elapsed.Truncate(time.Second)
	latest.Duration = &elapsed

	if err := s.validateAndSaveTx(ctx, tx, latest); err != nil {
		return nil, 0, err
	}
	if err := tx.Commit(); err != nil {
		return nil, 0, err
	}

	total, _, err := s.repo.SumClosedByTask(ctx, taskID)
	if err != nil {
		return nil, 0, err
	}
	return latest, total, nil
}

func (s *TimeLogService) ListByTask(ctx context.Context, taskID int64) ([]model.TimeLog, error) {
	return s.repo.ListByTask(ctx, taskID)
}

// validateAndSaveTx runs the invariant checks against every other log
// for the task, then persists. Callers hold the task lock and own the
// transaction.
func (s *TimeLogService) validateAndSaveTx(ctx context.Context, tx *sql.Tx, log *model.TimeLog) error {
	others, err := s.repo.ListByTaskTx(ctx, tx, log.TaskID)
	if err != nil {
		return err
	}

	for _, other := range others {
		if other.ID == log.ID {
			continue
		}
		if other.Open() {
			return &TimerAlreadyRunningError{TaskID: log.TaskID}
		}
		if overlaps(log, other) {
			return &OverlappingIntervalError{
				TaskID:           log.TaskID,
				ConflictingID:    other.ID,
				NewStart:         log.StartTime,
				NewDuration:      log.Duration,
				ExistingStart:    other.StartTime,
				ExistingDuration: *other.Duration,
			}
		}
	}

	if log.ID == 0 {
		id, err := s.repo.InsertTx(ctx, tx, log)
		if err != nil {
			return err
		}
		log.ID = id
		return nil
	}
	return s.repo.UpdateTx(ctx, tx, log)
}

// overlaps tests the candidate against a closed log. Ranges are
// half-open [start, start+duration): touching boundaries do not
// conflict. An open candidate is treated as the point at its start. A
// closed candidate conflicts when the two ranges intersect, in either
// direction of containment.
func overlaps(candidate *model.TimeLog, other model.TimeLog) bool {
	otherStart := other.StartTime
	otherEnd := other.EndTime()

	if candidate.Open() {
		return !candidate.StartTime.Before(otherStart) && candidate.StartTime.Before(otherEnd)
	}

	candidateEnd := candidate.StartTime.Add(*candidate.Duration)
	return candidate.StartTime.Before(otherEnd) && otherStart.Before(candidateEnd)
}

// floorDuration discards fractional seconds; it never rounds up.
func floorDuration(log *model.TimeLog) error {
	if log.Duration == nil {
		return nil
	}
	if *log.Duration < 0 {
		return ErrNegativeDuration
	}
	floored := log.Duration.Truncate(time.Second)
	log.Duration = &floored
	return nil
}
