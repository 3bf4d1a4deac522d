package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"habitsAPI/internal/day"
	apperrors "habitsAPI/internal/errors"
	"habitsAPI/internal/storage"
	"habitsAPI/internal/streak"
	"habitsAPI/internal/types/friendship"
	"habitsAPI/internal/types/habit"
	"habitsAPI/internal/types/notification"
	"habitsAPI/internal/types/user"
)

func seedUser(t *testing.T, s *Store, name string) *user.User {
	t.Helper()
	u := &user.User{ClerkID: "clerk_" + name, Email: name + "@example.com", Username: name}
	require.NoError(t, s.CreateUser(context.Background(), u))
	return u
}

func seedHabit(t *testing.T, s *Store, owner uuid.UUID, name string) *habit.Habit {
	t.Helper()
	h := &habit.Habit{UserID: owner, Name: name, Category: habit.CategoryOther, Frequency: habit.FrequencyDaily}
	require.NoError(t, s.CreateHabit(context.Background(), h))
	return h
}

func TestCreateUserRejectsDuplicates(t *testing.T) {
	s := New()
	seedUser(t, s, "alice")

	err := s.CreateUser(context.Background(), &user.User{ClerkID: "clerk_other", Email: "ALICE@example.com", Username: "someone"})
	assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)
}

func TestHabitNamesAreUniquePerOwnerIgnoringCase(t *testing.T) {
	s := New()
	ctx := context.Background()
	alice := seedUser(t, s, "alice")
	bob := seedUser(t, s, "bob")

	seedHabit(t, s, alice.ID, "Read")

	err := s.CreateHabit(ctx, &habit.Habit{UserID: alice.ID, Name: "read"})
	assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)

	seedHabit(t, s, bob.ID, "Read")

	found, err := s.FindHabitByName(ctx, alice.ID, "READ")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, found.UserID)
}

func TestGetHabitHidesOtherOwners(t *testing.T) {
	s := New()
	alice := seedUser(t, s, "alice")
	bob := seedUser(t, s, "bob")
	h := seedHabit(t, s, alice.ID, "Run")

	_, err := s.GetHabit(context.Background(), bob.ID, h.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestToggleCompletionFlipsState(t *testing.T) {
	s := New()
	ctx := context.Background()
	alice := seedUser(t, s, "alice")
	h := seedHabit(t, s, alice.ID, "Run")
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

	days, err = s.ListCompletionDays(ctx, h.ID)
	require.NoError(t, err)
	assert.Empty(t, days)
}

func TestListCompletionDaysInRange(t *testing.T) {
	s := New()
	ctx := context.Background()
	alice := seedUser(t, s, "alice")
	h := seedHabit(t, s, alice.ID, "Run")

	for _, d := range []string{"2026-10-01", "2026-10-05", "2026-10-10", "2026-10-15"} {
		_, err := s.ToggleCompletion(ctx, alice.ID, h.ID, day.MustParse(d))
		require.NoError(t, err)
	}

	days, err := s.ListCompletionDaysInRange(ctx, h.ID, day.MustParse("2026-10-05"), day.MustParse("2026-10-10"))
	require.NoError(t, err)
	assert.Equal(t, []day.Day{day.MustParse("2026-10-10"), day.MustParse("2026-10-05")}, days)
}

func TestDeleteHabitRemovesLedger(t *testing.T) {
	s := New()
	ctx := context.Background()
	alice := seedUser(t, s, "alice")
	h := seedHabit(t, s, alice.ID, "Run")
	_, err := s.ToggleCompletion(ctx, alice.ID, h.ID, day.MustParse("2026-10-18"))
	require.NoError(t, err)

	require.NoError(t, s.DeleteHabit(ctx, alice.ID, h.ID))

	days, err := s.ListCompletionDays(ctx, h.ID)
	require.NoError(t, err)
	assert.Empty(t, days)
	assert.ErrorIs(t, s.DeleteHabit(ctx, alice.ID, h.ID), apperrors.ErrNotFound)
}

func TestInTxRollsBackOnError(t *testing.T) {
	s := New()
	ctx := context.Background()
	alice := seedUser(t, s, "alice")
	h := seedHabit(t, s, alice.ID, "Run")

	boom := errors.New("boom")
	err := s.InTx(ctx, func(tx storage.Store) error {
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
	assert.Equal(t, 0, got.TotalCompletions)

	days, err := s.ListCompletionDays(ctx, h.ID)
	require.NoError(t, err)
	assert.Empty(t, days)
}

func TestInTxCommits(t *testing.T) {
	s := New()
	ctx := context.Background()
	alice := seedUser(t, s, "alice")
	h := seedHabit(t, s, alice.ID, "Run")

	err := s.InTx(ctx, func(tx storage.Store) error {
		return tx.InTx(ctx, func(inner storage.Store) error {
			return inner.SaveHabitStats(ctx, h.ID, streak.Stats{CurrentStreak: 2, LongestStreak: 4, TotalCompletions: 6})
		})
	})
	require.NoError(t, err)

	got, err := s.GetHabit(ctx, alice.ID, h.ID)
	require.NoError(t, err)
	assert.Equal(t, streak.Stats{CurrentStreak: 2, LongestStreak: 4, TotalCompletions: 6}, got.Stats())
}

func TestToggleStoresCompletedEntry(t *testing.T) {
	s := New()
	ctx := context.Background()
	alice := seedUser(t, s, "alice")
	h := seedHabit(t, s, alice.ID, "Run")

	completed, err := s.ToggleCompletion(ctx, alice.ID, h.ID, day.MustParse("2026-10-18"))
	require.NoError(t, err)
	require.True(t, completed)

	require.Len(t, s.data.completions, 1)
	for _, row := range s.data.completions {
		assert.True(t, row.Completed)
		assert.Equal(t, alice.ID, row.UserID)
	}
}

func TestSaveHabitStatsKeepsLongest(t *testing.T) {
	s := New()
	ctx := context.Background()
	alice := seedUser(t, s, "alice")
	h := seedHabit(t, s, alice.ID, "Run")

	require.NoError(t, s.SaveHabitStats(ctx, h.ID, streak.Stats{CurrentStreak: 4, LongestStreak: 4, TotalCompletions: 4}))
	require.NoError(t, s.SaveHabitStats(ctx, h.ID, streak.Stats{CurrentStreak: 0, LongestStreak: 3, TotalCompletions: 3}))

	got, err := s.GetHabit(ctx, alice.ID, h.ID)
	require.NoError(t, err)
	assert.Equal(t, streak.Stats{CurrentStreak: 0, LongestStreak: 4, TotalCompletions: 3}, got.Stats())
}

func TestFriendshipsAreUnordered(t *testing.T) {
	s := New()
	ctx := context.Background()
	alice := seedUser(t, s, "alice")
	bob := seedUser(t, s, "bob")

	require.NoError(t, s.CreateFriendship(ctx, &friendship.Friendship{
		RequesterID: alice.ID, RecipientID: bob.ID, Status: friendship.FriendshipAccepted,
	}))

	err := s.CreateFriendship(ctx, &friendship.Friendship{
		RequesterID: bob.ID, RecipientID: alice.ID, Status: friendship.FriendshipAccepted,
	})
	assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)

	f, err := s.GetFriendship(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, f.RequesterID)

	friends, err := s.ListFriends(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, friends, 1)
	assert.Equal(t, "alice", friends[0].Username)

	removed, err := s.DeleteFriendship(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = s.DeleteFriendship(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestListRecentCompletionsNewestFirst(t *testing.T) {
	s := New()
	ctx := context.Background()
	base := time.Date(2026, 10, 18, 8, 0, 0, 0, time.UTC)
	tick := 0
	s.SetNow(func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	})

	alice := seedUser(t, s, "alice")
	bob := seedUser(t, s, "bob")
	run := seedHabit(t, s, alice.ID, "Run")
	read := seedHabit(t, s, bob.ID, "Read")

	_, err := s.ToggleCompletion(ctx, alice.ID, run.ID, day.MustParse("2026-10-17"))
	require.NoError(t, err)
	_, err = s.ToggleCompletion(ctx, bob.ID, read.ID, day.MustParse("2026-10-18"))
	require.NoError(t, err)
	_, err = s.ToggleCompletion(ctx, alice.ID, run.ID, day.MustParse("2026-10-18"))
	require.NoError(t, err)

	feed, err := s.ListRecentCompletions(ctx, []uuid.UUID{alice.ID, bob.ID}, 2)
	require.NoError(t, err)
	require.Len(t, feed, 2)
	assert.Equal(t, "Run", feed[0].Habit.Name)
	assert.Equal(t, "2026-10-18", feed[0].CompletedAt.String())
	assert.Equal(t, "bob", feed[1].User.Username)
}

func TestSearchUsers(t *testing.T) {
	s := New()
	ctx := context.Background()
	alice := seedUser(t, s, "alice")
	seedUser(t, s, "alicia")
	seedUser(t, s, "bob")

	found, err := s.SearchUsers(ctx, alice.ID, "ALI", 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "alicia", found[0].Username)
}

func TestDeleteUserCascades(t *testing.T) {
	s := New()
	ctx := context.Background()
	alice := seedUser(t, s, "alice")
	h := seedHabit(t, s, alice.ID, "Run")
	_, err := s.ToggleCompletion(ctx, alice.ID, h.ID, day.MustParse("2026-10-18"))
	require.NoError(t, err)

	require.NoError(t, s.DeleteUserByClerkID(ctx, alice.ClerkID))

	habits, err := s.ListAllHabits(ctx)
	require.NoError(t, err)
	assert.Empty(t, habits)
	_, err = s.GetUserByID(ctx, alice.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestNotificationsAndDevices(t *testing.T) {
	s := New()
	ctx := context.Background()
	alice := seedUser(t, s, "alice")

	n := &notification.Notification{UserID: alice.ID, Type: notification.NotificationStreakMilestone, Title: "7 day streak"}
	require.NoError(t, s.CreateNotification(ctx, n))

	unread, err := s.CountUnreadNotifications(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, unread)

	require.NoError(t, s.MarkNotificationRead(ctx, alice.ID, n.ID))
	unread, err = s.CountUnreadNotifications(ctx, alice.ID)
	require.NoError(t, err)
	assert.Zero(t, unread)

	require.NoError(t, s.UpsertDeviceToken(ctx, &notification.DeviceToken{UserID: alice.ID, Token: "tok", Platform: "ios"}))
	require.NoError(t, s.UpsertDeviceToken(ctx, &notification.DeviceToken{UserID: alice.ID, Token: "tok", Platform: "android"}))

	tokens, err := s.ListDeviceTokens(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	assert.Equal(t, "android", tokens[0].Platform)
}
