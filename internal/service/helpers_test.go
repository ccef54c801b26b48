package service

import (
	"context"
	"database/sql"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"tasktracker/backend/internal/db"
	"tasktracker/backend/internal/model"
	"tasktracker/backend/internal/repository"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	database, err := db.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = database.Close()
	})

	_, currentFile, _, _ := runtime.Caller(0)
	migrationsDir := filepath.Join(filepath.Dir(currentFile), "..", "..", "migrations")
	require.NoError(t, db.RunMigrations(database, migrationsDir))

	return database
}

func createTestUser(t *testing.T, database *sql.DB, email string) *model.User {
	t.Helper()

	now := time.Now().UTC()
	user := &model.User{
		ID:           uuid.NewString(),
		FirstName:    "Test",
		LastName:     "User",
		Email:        email,
		PasswordHash: "irrelevant",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, repository.NewUserRepository(database).Create(context.Background(), user))
	return user
}

func createTestTask(t *testing.T, database *sql.DB, userID, title string) *model.Task {
	t.Helper()

	now := time.Now().UTC()
	task := &model.Task{
		Title:     title,
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	id, err := repository.NewTaskRepository(database).Create(context.Background(), task)
	require.NoError(t, err)
	task.ID = id
	return task
}

func seconds(n int64) *time.Duration {
	d := time.Duration(n) * time.Second
	return &d
}

// fakeClock lets tests control the time the services observe.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock(t time.Time) *fakeClock {
	return &fakeClock{t: t}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}
