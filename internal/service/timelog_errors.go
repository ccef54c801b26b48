package service

import (
	"errors"
	"fmt"
	"time"
)

// The time-log engine fails with one of the typed errors below. They
// are all user-correctable: callers are told exactly what conflicted
// and nothing is written when one is returned.

// ErrNegativeDuration rejects manual logs with a duration below zero.
var ErrNegativeDuration = errors.New("duration must be non-negative")

// TimerAlreadyRunningError means the task already has an open log.
type TimerAlreadyRunningError struct {
	TaskID int64
}

func (e *TimerAlreadyRunningError) Error() string {
	return fmt.Sprintf("task %d timer is already running", e.TaskID)
}

// TimerNotRunningError means stop was requested but the task has no
// logs at all.
type TimerNotRunningError struct {
	TaskID int64
}

func (e *TimerNotRunningError) Error() string {
	return fmt.Sprintf("task %d has no running timer", e.TaskID)
}

// AlreadyStoppedError means the latest log for the task is closed.
type AlreadyStoppedError struct {
	TaskID    int64
	TimeLogID int64
}

func (e *AlreadyStoppedError) Error() string {
	return fmt.Sprintf("task %d timer is already stopped (log %d)", e.TaskID, e.TimeLogID)
}

// OverlappingIntervalError carries both sides of the conflict so the
// caller can resolve it manually.
type OverlappingIntervalError struct {
	TaskID           int64
	ConflictingID    int64
	NewStart         time.Time
	NewDuration      *time.Duration
	ExistingStart    time.Time
	ExistingDuration time.Duration
}

func (e *OverlappingIntervalError) Error() string {
	newDur := "open"
	if e.NewDuration != nil {
		newDur = e.NewDuration.String()
	}
	return fmt.Sprintf(
		"task %d: log starting %s (%s) overlaps log %d starting %s (%s)",
		e.TaskID,
		e.NewStart.Format(time.RFC3339),
		newDur,
		e.ConflictingID,
		e.ExistingStart.Format(time.RFC3339),
		e.ExistingDuration,
	)
}
