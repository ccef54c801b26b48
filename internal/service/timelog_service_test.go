package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tasktracker/backend/internal/model"
	"tasktracker/backend/internal/repository"
)

var logBase = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func newTimeLogFixture(t *testing.T) (*TimeLogService, *repository.TimeLogRepository, *model.Task) {
	t.Helper()

	database := newTestDB(t)
	user := createTestUser(t, database, "worker@example.com")
	task := createTestTask(t, database, user.ID, "Prepare release")
	repo := repository.NewTimeLogRepository(database)
	return NewTimeLogService(repo), repo, task
}

func mustSaveLog(t *testing.T, svc *TimeLogService, taskID int64, start time.Time, duration *time.Duration) *model.TimeLog {
	t.Helper()

	saved, err := svc.ValidateAndSave(context.Background(), &model.TimeLog{
		TaskID:    taskID,
		StartTime: start,
		Duration:  duration,
	})
	require.NoError(t, err)
	require.NotZero(t, saved.ID)
	return saved
}

func TestValidateAndSaveRejectsOverlap(t *testing.T) {
	svc, repo, task := newTimeLogFixture(t)

	// [09:00, 09:45) and [11:00, 11:30).
	mustSaveLog(t, svc, task.ID, logBase, seconds(45*60))
	second := mustSaveLog(t, svc, task.ID, logBase.Add(2*time.Hour), seconds(30*60))

	// [10:00, 12:00) covers the second log entirely.
	_, err := svc.ValidateAndSave(context.Background(), &model.TimeLog{
		TaskID:    task.ID,
		StartTime: logBase.Add(time.Hour),
		Duration:  seconds(2 * 60 * 60),
	})

	var overlap *OverlappingIntervalError
	require.ErrorAs(t, err, &overlap)
	assert.Equal(t, task.ID, overlap.TaskID)
	assert.Equal(t, second.ID, overlap.ConflictingID)
	assert.Equal(t, 30*time.Minute, overlap.ExistingDuration)

	logs, err := repo.ListByTask(context.Background(), task.ID)
	require.NoError(t, err)
	assert.Len(t, logs, 2, "rejected log must not be persisted")
}

func TestValidateAndSaveRejectsContainedCandidate(t *testing.T) {
	svc, _, task := newTimeLogFixture(t)

	mustSaveLog(t, svc, task.ID, logBase.Add(2*time.Hour), seconds(30*60))

	// [11:05, 11:15) sits inside [11:00, 11:30).
	_, err := svc.ValidateAndSave(context.Background(), &model.TimeLog{
		TaskID:    task.ID,
		StartTime: logBase.Add(2*time.Hour + 5*time.Minute),
		Duration:  seconds(10 * 60),
	})

	var overlap *OverlappingIntervalError
	require.ErrorAs(t, err, &overlap)
}

func TestValidateAndSaveAcceptsDisjointAndTouching(t *testing.T) {
	svc, repo, task := newTimeLogFixture(t)

	mustSaveLog(t, svc, task.ID, logBase, seconds(45*60))
	mustSaveLog(t, svc, task.ID, logBase.Add(2*time.Hour), seconds(30*60))

	// [08:00, 08:45) ends before the first log starts.
	mustSaveLog(t, svc, task.ID, logBase.Add(-time.Hour), seconds(45*60))

	// [09:45, 11:00) touches both neighbours exactly; half-open ranges
	// make shared boundaries legal.
	mustSaveLog(t, svc, task.ID, logBase.Add(45*time.Minute), seconds(75*60))

	logs, err := repo.ListByTask(context.Background(), task.ID)
	require.NoError(t, err)
	assert.Len(t, logs, 4)
}

func TestValidateAndSaveFloorsFractionalSeconds(t *testing.T) {
	svc, repo, task := newTimeLogFixture(t)

	fractional := 90*time.Second + 900*time.Millisecond
	saved, err := svc.ValidateAndSave(context.Background(), &model.TimeLog{
		TaskID:    task.ID,
		StartTime: logBase,
		Duration:  &fractional,
	})
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, *saved.Duration)

	stored, err := repo.GetByID(context.Background(), saved.ID)
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, *stored.Duration)
}

func TestValidateAndSaveRejectsNegativeDuration(t *testing.T) {
	svc, repo, task := newTimeLogFixture(t)

	negative := -time.Second
	_, err := svc.ValidateAndSave(context.Background(), &model.TimeLog{
		TaskID:    task.ID,
		StartTime: logBase,
		Duration:  &negative,
	})
	require.ErrorIs(t, err, ErrNegativeDuration)

	logs, err := repo.ListByTask(context.Background(), task.ID)
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestStartTimerTwiceFails(t *testing.T) {
	svc, repo, task := newTimeLogFixture(t)

	first, err := svc.StartTimer(context.Background(), task.ID)
	require.NoError(t, err)
	assert.True(t, first.Open())

	_, err = svc.StartTimer(context.Background(), task.ID)
	var running *TimerAlreadyRunningError
	require.ErrorAs(t, err, &running)
	assert.Equal(t, task.ID, running.TaskID)

	logs, err := repo.ListByTask(context.Background(), task.ID)
	require.NoError(t, err)
	assert.Len(t, logs, 1, "failed start must not create a log")
}

func TestManualLogWhileTimerRunningFails(t *testing.T) {
	svc, _, task := newTimeLogFixture(t)

	_, err := svc.StartTimer(context.Background(), task.ID)
	require.NoError(t, err)

	// Even a closed log far in the past is rejected while a timer runs;
	// the open interval's extent is unknown until it stops.
	_, err = svc.ValidateAndSave(context.Background(), &model.TimeLog{
		TaskID:    task.ID,
		StartTime: logBase.Add(-24 * time.Hour),
		Duration:  seconds(600),
	})
	var running *TimerAlreadyRunningError
	require.ErrorAs(t, err, &running)
}

func TestStopTimerFloorsElapsed(t *testing.T) {
	svc, _, task := newTimeLogFixture(t)

	clock := newFakeClock(logBase)
	svc.now = clock.Now

	started, err := svc.StartTimer(context.Background(), task.ID)
	require.NoError(t, err)
	assert.True(t, started.StartTime.Equal(logBase))

	clock.Advance(125*time.Second + 700*time.Millisecond)

	stopped, total, err := svc.StopTimer(context.Background(), task.ID)
	require.NoError(t, err)
	assert.Equal(t, started.ID, stopped.ID)
	assert.Equal(t, 125*time.Second, *stopped.Duration)
	assert.Equal(t, 125*time.Second, total)
}

func TestStopTimerAccumulatesTotal(t *testing.T) {
	svc, _, task := newTimeLogFixture(t)

	clock := newFakeClock(logBase)
	svc.now = clock.Now

	_, err := svc.StartTimer(context.Background(), task.ID)
	require.NoError(t, err)
	clock.Advance(100 * time.Second)
	_, total, err := svc.StopTimer(context.Background(), task.ID)
	require.NoError(t, err)
	assert.Equal(t, 100*time.Second, total)

	clock.Advance(time.Hour)
	_, err = svc.StartTimer(context.Background(), task.ID)
	require.NoError(t, err)
	clock.Advance(50 * time.Second)
	_, total, err = svc.StopTimer(context.Background(), task.ID)
	require.NoError(t, err)
	assert.Equal(t, 150*time.Second, total)
}

func TestStopTimerWithoutLogs(t *testing.T) {
	svc, _, task := newTimeLogFixture(t)

	_, _, err := svc.StopTimer(context.Background(), task.ID)
	var notRunning *TimerNotRunningError
	require.ErrorAs(t, err, &notRunning)
	assert.Equal(t, task.ID, notRunning.TaskID)
}

func TestStopTimerTwiceFails(t *testing.T) {
	svc, repo, task := newTimeLogFixture(t)

	clock := newFakeClock(logBase)
	svc.now = clock.Now

	_, err := svc.StartTimer(context.Background(), task.ID)
	require.NoError(t, err)
	clock.Advance(30 * time.Second)
	stopped, _, err := svc.StopTimer(context.Background(), task.ID)
	require.NoError(t, err)

	_, _, err = svc.StopTimer(context.Background(), task.ID)
	var already *AlreadyStoppedError
	require.ErrorAs(t, err, &already)
	assert.Equal(t, stopped.ID, already.TimeLogID)

	// The failed stop must not have touched the closed log.
	stored, err := repo.GetByID(context.Background(), stopped.ID)
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, *stored.Duration)
}

func TestConcurrentStartsSingleWinner(t *testing.T) {
	svc, repo, task := newTimeLogFixture(t)

	const attempts = 8
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.StartTimer(context.Background(), task.ID)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		var running *TimerAlreadyRunningError
		require.ErrorAs(t, err, &running)
	}
	assert.Equal(t, 1, succeeded, "exactly one racing start may win")

	logs, err := repo.ListByTask(context.Background(), task.ID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.True(t, logs[0].Open())
}

func TestOverlapPredicate(t *testing.T) {
	closed := func(start time.Time, d time.Duration) model.TimeLog {
		return model.TimeLog{StartTime: start, Duration: &d}
	}

	existing := closed(logBase, 45*time.Minute) // [09:00, 09:45)

	cases := []struct {
		name      string
		candidate model.TimeLog
		want      bool
	}{
		{"disjoint before", closed(logBase.Add(-time.Hour), 30*time.Minute), false},
		{"touching end to start", closed(logBase.Add(-30*time.Minute), 30*time.Minute), false},
		{"touching start to end", closed(logBase.Add(45*time.Minute), 30*time.Minute), false},
		{"straddles start", closed(logBase.Add(-10*time.Minute), 20*time.Minute), true},
		{"straddles end", closed(logBase.Add(40*time.Minute), 20*time.Minute), true},
		{"contains existing", closed(logBase.Add(-time.Minute), 2*time.Hour), true},
		{"contained in existing", closed(logBase.Add(10*time.Minute), 5*time.Minute), true},
		{"identical start", closed(logBase, time.Second), true},
		{"zero length inside", closed(logBase.Add(10*time.Minute), 0), true},
		{"zero length at end boundary", closed(logBase.Add(45*time.Minute), 0), false},
		{"open at start", model.TimeLog{StartTime: logBase}, true},
		{"open inside", model.TimeLog{StartTime: logBase.Add(20 * time.Minute)}, true},
		{"open at end boundary", model.TimeLog{StartTime: logBase.Add(45 * time.Minute)}, false},
		{"open before", model.TimeLog{StartTime: logBase.Add(-time.Minute)}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			candidate := tc.candidate
			assert.Equal(t, tc.want, overlaps(&candidate, existing))
		})
	}
}
