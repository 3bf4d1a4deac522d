package postgres

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"habitsAPI/internal/day"
	apperrors "habitsAPI/internal/errors"
	"habitsAPI/internal/storage"
	"habitsAPI/internal/storage/migrations"
	"habitsAPI/internal/streak"
	"habitsAPI/internal/types/habit"
	"habitsAPI/internal/types/user"
)

func setupStore(t *testing.T) *Store {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := Connect(ctx, Config{URL: url, MaxConns: 4, MinConns: 1})
	require.NoError(t, err)
	require.NoError(t, migrations.MigrateUp(pool))

	_, err = pool.Exec(ctx, `TRUNCATE users CASCADE`)
	require.NoError(t, err)

	s := New(pool)
	t.Cleanup(s.Close)
	return s
}

func createUser(t *testing.T, s *Store, name string) *user.User {
	t.Helper()
	u := &user.User{ClerkID: "clerk_" + name + "_" + uuid.NewString()[:8], Email: name + "@example.com", Username: name}
	require.NoError(t, s.CreateUser(context.Background(), u))
	return u
}

func TestPostgresHabitLifecycle(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	alice := createUser(t, s, "alice")

	h := &habit.Habit{UserID: alice.ID, Name: "Read", Category: habit.CategoryLearning, Frequency: habit.FrequencyDaily}
	require.NoError(t, s.CreateHabit(ctx, h))
	assert.False(t, h.CreatedAt.IsZero())

	dup := &habit.Habit{UserID: alice.ID, Name: "READ", Category: habit.CategoryOther, Frequency: habit.FrequencyDaily}
	assert.ErrorIs(t, s.CreateHabit(ctx, dup), apperrors.ErrAlreadyExists)

	today := day.MustParse("2026-10-18")
	completed, err := s.ToggleCompletion(ctx, alice.ID, h.ID, today)
	require.NoError(t, err)
	assert.True(t, completed)

	days, err := s.ListCompletionDays(ctx, h.ID)
	require.NoError(t, err)
	assert.Equal(t, []day.Day{today}, days)

	completed, err = s.ToggleCompletion(ctx, alice.ID, h.ID, today)
	require.NoError(t, err)
	assert.False(t, completed)

	require.NoError(t, s.DeleteHabit(ctx, alice.ID, h.ID))
	_, err = s.GetHabit(ctx, alice.ID, h.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestPostgresToggleInsertConflictCountsAsCompleted(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	alice := createUser(t, s, "alice")

	h := &habit.Habit{UserID: alice.ID, Name: "Walk", Category: habit.CategoryHealth, Frequency: habit.FrequencyDaily}
	require.NoError(t, s.CreateHabit(ctx, h))
	today := day.MustParse("2026-10-18")

	// another writer completes the day but has not committed yet
	other, err := s.Pool().Begin(ctx)
	require.NoError(t, err)
	defer other.Rollback(ctx)

	_, err = other.Exec(ctx, `
	INSERT INTO habit_completions (id, habit_id, user_id, day, completed, created_at)
	VALUES ($1, $2, $3, $4, TRUE, NOW())
	`, uuid.New(), h.ID, alice.ID, today.Time())
	require.NoError(t, err)

	type toggleResult struct {
		completed bool
		err       error
	}
	done := make(chan toggleResult, 1)
	go func() {
		completed, err := s.ToggleCompletion(ctx, alice.ID, h.ID, today)
		done <- toggleResult{completed, err}
	}()

	// the toggle's insert waits on the uncommitted row
	require.Eventually(t, func() bool {
		var waiting int
		err := s.Pool().QueryRow(ctx, `
		SELECT count(*) FROM pg_stat_activity
		WHERE datname = current_database() AND wait_event_type = 'Lock'
		`).Scan(&waiting)
		return err == nil && waiting > 0
	}, 5*time.Second, 20*time.Millisecond)

	require.NoError(t, other.Commit(ctx))

	res := <-done
	require.NoError(t, res.err)
	assert.True(t, res.completed)

	days, err := s.ListCompletionDays(ctx, h.ID)
	require.NoError(t, err)
	assert.Equal(t, []day.Day{today}, days)
}

func TestPostgresSaveHabitStatsKeepsLongest(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	alice := createUser(t, s, "alice")

	h := &habit.Habit{UserID: alice.ID, Name: "Swim", Category: habit.CategoryFitness, Frequency: habit.FrequencyDaily}
	require.NoError(t, s.CreateHabit(ctx, h))

	require.NoError(t, s.SaveHabitStats(ctx, h.ID, streak.Stats{CurrentStreak: 4, LongestStreak: 4, TotalCompletions: 4}))
	require.NoError(t, s.SaveHabitStats(ctx, h.ID, streak.Stats{CurrentStreak: 0, LongestStreak: 3, TotalCompletions: 3}))

	got, err := s.GetHabit(ctx, alice.ID, h.ID)
	require.NoError(t, err)
	assert.Equal(t, streak.Stats{CurrentStreak: 0, LongestStreak: 4, TotalCompletions: 3}, got.Stats())
}

func TestPostgresInTxRollsBack(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	alice := createUser(t, s, "alice")

	h := &habit.Habit{UserID: alice.ID, Name: "Run", Category: habit.CategoryFitness, Frequency: habit.FrequencyDaily}
	require.NoError(t, s.CreateHabit(ctx, h))

	boom := errors.New("boom")
	err := s.InTx(ctx, func(tx storage.Store) error {
		if _, err := tx.GetHabitForUpdate(ctx, alice.ID, h.ID); err != nil {
			return err
		}
		if _, err := tx.ToggleCompletion(ctx, alice.ID, h.ID, day.MustParse("2026-10-18")); err != nil {
			return err
		}
		if err := tx.SaveHabitStats(ctx, h.ID, streak.Stats{CurrentStreak: 1, LongestStreak: 1, TotalCompletions: 1}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := s.GetHabit(ctx, alice.ID, h.ID)
	require.NoError(t, err)
	assert.Zero(t, got.TotalCompletions)

	days, err := s.ListCompletionDays(ctx, h.ID)
	require.NoError(t, err)
	assert.Empty(t, days)
}
