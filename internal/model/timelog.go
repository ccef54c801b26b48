package model

import "time"

// TimeLog records one span of work on a task. A nil Duration means the
// log is open (timer running); a non-nil Duration means it is closed.
// Durations are whole seconds after persistence.
type TimeLog struct {
	ID        int64
	TaskID    int64
	StartTime time.Time
	Duration  *time.Duration
}

// Open reports whether the timer backing this log is still running.
func (l TimeLog) Open() bool {
	return l.Duration == nil
}

// EndTime is only meaningful for closed logs. The range covered by a
// closed log is the half-open interval [StartTime, EndTime).
func (l TimeLog) EndTime() time.Time {
	if l.Duration == nil {
		return l.StartTime
	}
	return l.StartTime.Add(*l.Duration)
}
