package service

import "sync"

// taskLocks serializes writers per task id. The overlap/open-interval
// check followed by the insert is not atomic on its own; holding the
// task's lock across check-then-write keeps two racing starts from both
// observing "no open interval".
type taskLocks struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func newTaskLocks() *taskLocks {
	return &taskLocks{locks: make(map[int64]*sync.Mutex)}
}

func (l *taskLocks) lock(taskID int64) func() {
	l.mu.Lock()
	m, ok := l.locks[taskID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[taskID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
