package service

import (
	"context"
	"fmt"
	"time"

	"tasktracker/backend/internal/cache"
	"tasktracker/backend/internal/model"
	"tasktracker/backend/internal/repository"
)

const (
	// DefaultTopLogsLimit applies when a top-logs query omits limit.
	DefaultTopLogsLimit = 20

	// reportWindow is the rolling window for user aggregates.
	reportWindow = 30 * 24 * time.Hour
)

// ErrInvalidLimit rejects top-logs queries with limit < 1.
var ErrInvalidLimit = fmt.Errorf("limit must be at least 1")

// ReportService computes read-only aggregates over closed time logs.
// Results may trail in-flight writes; only the top-logs query is
// cached, per (user, limit), for the cache's TTL.
type ReportService struct {
	repo  *repository.TimeLogRepository
	cache *cache.TTLCache
	now   func() time.Time
}

func NewReportService(repo *repository.TimeLogRepository, topLogsCache *cache.TTLCache) *ReportService {
	return &ReportService{
		repo:  repo,
		cache: topLogsCache,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// TimeSpent totals the closed logs for a task. A task with no closed
// logs yields nil, not a zero duration: callers must be able to tell
// "never worked on" apart from "worked on for under a second".
func (s *ReportService) TimeSpent(ctx context.Context, taskID int64) (*time.Duration, error) {
	total, count, err := s.repo.SumClosedByTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, nil
	}
	return &total, nil
}

// UserTimeLastMonth sums closed logs across every task the user owns
// whose start time falls within the last 30 days, inclusive.
func (s *ReportService) UserTimeLastMonth(ctx context.Context, userID string) (time.Duration, error) {
	to := s.now()
	from := to.Add(-reportWindow)
	return s.repo.SumClosedByUserBetween(ctx, userID, from, to)
}

// UserTopLogs returns the user's longest closed logs from the last 30
// days, longest first. Results are cached per (user, limit); a hit is
// served as-is even if the underlying logs have since changed.
func (s *ReportService) UserTopLogs(ctx context.Context, userID string, limit int) ([]model.TimeLog, error) {
	if limit < 1 {
		return nil, ErrInvalidLimit
	}

	key := fmt.Sprintf("top-logs:%s:%d", userID, limit)
	if cached, ok := s.cache.Get(key); ok {
		return cached.([]model.TimeLog), nil
	}

	to := s.now()
	from := to.Add(-reportWindow)
	logs, err := s.repo.TopClosedByUserBetween(ctx, userID, from, to, limit)
	if err != nil {
		return nil, err
	}
	s.cache.Set(key, logs)
	return logs, nil
}
