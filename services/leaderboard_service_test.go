package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"habitsAPI/internal/types/friendship"
	"habitsAPI/internal/types/leaderboard"
)

func TestRankIsDense(t *testing.T) {
	entries := []*leaderboard.LeaderboardEntry{
		{Username: "carol", AvgStreak: 1, TotalStreaks: 2},
		{Username: "alice", AvgStreak: 3, TotalStreaks: 3},
		{Username: "bob", AvgStreak: 1, TotalStreaks: 2},
		{Username: "dave", AvgStreak: 1, TotalStreaks: 1},
	}

	Rank(entries)

	names := make([]string, len(entries))
	ranks := make([]int, len(entries))
	for i, e := range entries {
		names[i] = e.Username
		ranks[i] = e.Rank
	}
	assert.Equal(t, []string{"alice", "bob", "carol", "dave"}, names)
	assert.Equal(t, []int{1, 2, 2, 3}, ranks)
}

func TestGlobalLeaderboard(t *testing.T) {
	env := newTestEnv(t)
	boards := NewLeaderboardService(env.store, env.habits)
	alice := env.user(t, "alice")
	bob := env.user(t, "bob")
	env.user(t, "carol") // no habits, excluded
	ctx := context.Background()

	aliceRun := env.habit(t, alice.ID, "Run")
	env.habit(t, alice.ID, "Read")
	bobRun := env.habit(t, bob.ID, "Run")

	env.toggle(t, alice.ID, aliceRun.ID)
	env.toggle(t, bob.ID, bobRun.ID)
	env.clock.AdvanceDays(1)
	env.toggle(t, alice.ID, aliceRun.ID)
	env.toggle(t, bob.ID, bobRun.ID)

	board, err := boards.GetGlobalLeaderboard(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, board.Entries, 2)
	assert.Equal(t, 2, board.TotalUsers)

	first, second := board.Entries[0], board.Entries[1]
	assert.Equal(t, "bob", first.Username)
	assert.Equal(t, 2.0, first.AvgStreak)
	assert.Equal(t, 1, first.Rank)

	assert.Equal(t, "alice", second.Username)
	assert.Equal(t, 2, second.TotalStreaks)
	assert.Equal(t, 2, second.TotalHabits)
	assert.Equal(t, 1.0, second.AvgStreak)
	assert.Equal(t, 2, second.Rank)

	require.NotNil(t, board.UserPosition)
	assert.Equal(t, alice.ID, board.UserPosition.UserID)
}

func TestLeaderboardResetsStaleStreaks(t *testing.T) {
	env := newTestEnv(t)
	boards := NewLeaderboardService(env.store, env.habits)
	alice := env.user(t, "alice")
	run := env.habit(t, alice.ID, "Run")
	env.toggle(t, alice.ID, run.ID)

	env.clock.AdvanceDays(3)

	board, err := boards.GetGlobalLeaderboard(context.Background(), alice.ID)
	require.NoError(t, err)
	require.Len(t, board.Entries, 1)
	assert.Equal(t, 0, board.Entries[0].TotalStreaks)
}

func TestFriendsLeaderboard(t *testing.T) {
	env := newTestEnv(t)
	boards := NewLeaderboardService(env.store, env.habits)
	social := NewSocialService(env.store, env.habits)
	alice := env.user(t, "alice")
	bob := env.user(t, "bob")
	carol := env.user(t, "carol")
	ctx := context.Background()

	for _, u := range []uuid.UUID{alice.ID, bob.ID, carol.ID} {
		env.habit(t, u, "Run")
	}
	_, _, err := social.Follow(ctx, alice.ID, &friendship.FollowRequest{RecipientID: bob.ID.String()})
	require.NoError(t, err)

	board, err := boards.GetFriendsLeaderboard(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, board.Entries, 2)

	ids := []uuid.UUID{board.Entries[0].UserID, board.Entries[1].UserID}
	assert.ElementsMatch(t, []uuid.UUID{alice.ID, bob.ID}, ids)
	assert.Equal(t, 1, board.Entries[0].Rank)
	assert.Equal(t, 1, board.Entries[1].Rank, "all-zero streaks tie")
}
