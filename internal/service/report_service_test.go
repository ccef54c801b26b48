package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tasktracker/backend/internal/cache"
	"tasktracker/backend/internal/model"
	"tasktracker/backend/internal/repository"
)

var reportBase = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

type reportFixture struct {
	clock   *fakeClock
	logs    *TimeLogService
	reports *ReportService
	user    *model.User
	task    *model.Task
}

func newReportFixture(t *testing.T) *reportFixture {
	t.Helper()

	database := newTestDB(t)
	user := createTestUser(t, database, "worker@example.com")
	task := createTestTask(t, database, user.ID, "Prepare release")

	clock := newFakeClock(reportBase)
	repo := repository.NewTimeLogRepository(database)
	logs := NewTimeLogService(repo)
	logs.now = clock.Now

	reports := NewReportService(repo, cache.New(time.Minute, clock.Now))
	reports.now = clock.Now

	return &reportFixture{clock: clock, logs: logs, reports: reports, user: user, task: task}
}

func (f *reportFixture) mustSave(t *testing.T, taskID int64, start time.Time, durationSeconds int64) *model.TimeLog {
	t.Helper()

	saved, err := f.logs.ValidateAndSave(context.Background(), &model.TimeLog{
		TaskID:    taskID,
		StartTime: start,
		Duration:  seconds(durationSeconds),
	})
	require.NoError(t, err)
	return saved
}

func TestTimeSpentNilWithoutClosedLogs(t *testing.T) {
	f := newReportFixture(t)

	spent, err := f.reports.TimeSpent(context.Background(), f.task.ID)
	require.NoError(t, err)
	assert.Nil(t, spent, "no logs at all")

	_, err = f.logs.StartTimer(context.Background(), f.task.ID)
	require.NoError(t, err)

	spent, err = f.reports.TimeSpent(context.Background(), f.task.ID)
	require.NoError(t, err)
	assert.Nil(t, spent, "an open log alone contributes nothing")
}

func TestTimeSpentSumsClosedLogs(t *testing.T) {
	f := newReportFixture(t)

	f.mustSave(t, f.task.ID, reportBase.Add(-3*time.Hour), 120)
	f.mustSave(t, f.task.ID, reportBase.Add(-time.Hour), 45)

	spent, err := f.reports.TimeSpent(context.Background(), f.task.ID)
	require.NoError(t, err)
	require.NotNil(t, spent)
	assert.Equal(t, 165*time.Second, *spent)

	// A zero-duration log still counts as "worked on".
	f.mustSave(t, f.task.ID, reportBase.Add(-30*time.Minute), 0)
	spent, err = f.reports.TimeSpent(context.Background(), f.task.ID)
	require.NoError(t, err)
	require.NotNil(t, spent)
	assert.Equal(t, 165*time.Second, *spent)
}

func TestUserTimeLastMonthWindow(t *testing.T) {
	database := newTestDB(t)
	owner := createTestUser(t, database, "owner@example.com")
	other := createTestUser(t, database, "other@example.com")
	ownTask := createTestTask(t, database, owner.ID, "Mine")
	otherTask := createTestTask(t, database, other.ID, "Theirs")

	clock := newFakeClock(reportBase)
	repo := repository.NewTimeLogRepository(database)
	logs := NewTimeLogService(repo)
	logs.now = clock.Now
	reports := NewReportService(repo, cache.New(time.Minute, clock.Now))
	reports.now = clock.Now

	save := func(taskID int64, start time.Time, dur int64) {
		_, err := logs.ValidateAndSave(context.Background(), &model.TimeLog{
			TaskID:    taskID,
			StartTime: start,
			Duration:  seconds(dur),
		})
		require.NoError(t, err)
	}

	// One log inside the 30-day window, one before it, one on another
	// user's task.
	save(ownTask.ID, reportBase.Add(-29*24*time.Hour), 100)
	save(ownTask.ID, reportBase.Add(-31*24*time.Hour), 50)
	save(otherTask.ID, reportBase.Add(-time.Hour), 70)

	// An open log never counts.
	_, err := logs.StartTimer(context.Background(), ownTask.ID)
	require.NoError(t, err)

	total, err := reports.UserTimeLastMonth(context.Background(), owner.ID)
	require.NoError(t, err)
	assert.Equal(t, 100*time.Second, total)

	total, err = reports.UserTimeLastMonth(context.Background(), other.ID)
	require.NoError(t, err)
	assert.Equal(t, 70*time.Second, total)
}

func TestUserTopLogsOrderingAndLimit(t *testing.T) {
	database := newTestDB(t)
	owner := createTestUser(t, database, "owner@example.com")
	other := createTestUser(t, database, "other@example.com")
	taskA := createTestTask(t, database, owner.ID, "A")
	taskB := createTestTask(t, database, owner.ID, "B")
	otherTask := createTestTask(t, database, other.ID, "C")

	clock := newFakeClock(reportBase)
	repo := repository.NewTimeLogRepository(database)
	logs := NewTimeLogService(repo)
	logs.now = clock.Now
	reports := NewReportService(repo, cache.New(time.Minute, clock.Now))
	reports.now = clock.Now

	save := func(taskID int64, start time.Time, dur int64) *model.TimeLog {
		saved, err := logs.ValidateAndSave(context.Background(), &model.TimeLog{
			TaskID:    taskID,
			StartTime: start,
			Duration:  seconds(dur),
		})
		require.NoError(t, err)
		return saved
	}

	save(taskA.ID, reportBase.Add(-5*time.Hour), 300)
	mid := save(taskB.ID, reportBase.Add(-4*time.Hour), 500)
	save(taskA.ID, reportBase.Add(-3*time.Hour), 100)
	top := save(taskB.ID, reportBase.Add(-2*time.Hour), 600)
	// Another user's log and one outside the window never show up.
	save(otherTask.ID, reportBase.Add(-time.Hour), 900)
	save(taskA.ID, reportBase.Add(-40*24*time.Hour), 9999)

	got, err := reports.UserTopLogs(context.Background(), owner.ID, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, top.ID, got[0].ID)
	assert.Equal(t, mid.ID, got[1].ID)

	all, err := reports.UserTopLogs(context.Background(), owner.ID, 50)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestUserTopLogsInvalidLimit(t *testing.T) {
	f := newReportFixture(t)

	_, err := f.reports.UserTopLogs(context.Background(), f.user.ID, 0)
	require.ErrorIs(t, err, ErrInvalidLimit)

	_, err = f.reports.UserTopLogs(context.Background(), f.user.ID, -3)
	require.ErrorIs(t, err, ErrInvalidLimit)
}

func TestUserTopLogsCachedUntilTTL(t *testing.T) {
	f := newReportFixture(t)

	f.mustSave(t, f.task.ID, reportBase.Add(-5*time.Hour), 300)

	first, err := f.reports.UserTopLogs(context.Background(), f.user.ID, 10)
	require.NoError(t, err)
	require.Len(t, first, 1)

	// A new longer log lands after the query was cached.
	f.mustSave(t, f.task.ID, reportBase.Add(-2*time.Hour), 800)

	stale, err := f.reports.UserTopLogs(context.Background(), f.user.ID, 10)
	require.NoError(t, err)
	assert.Len(t, stale, 1, "within the TTL the cached result is served as-is")

	// A different limit is a different cache key and sees fresh data.
	fresh, err := f.reports.UserTopLogs(context.Background(), f.user.ID, 5)
	require.NoError(t, err)
	assert.Len(t, fresh, 2)

	f.clock.Advance(61 * time.Second)

	refreshed, err := f.reports.UserTopLogs(context.Background(), f.user.ID, 10)
	require.NoError(t, err)
	require.Len(t, refreshed, 2)
	assert.Equal(t, int64(800), int64(*refreshed[0].Duration/time.Second))
}
