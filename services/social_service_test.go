package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "habitsAPI/internal/errors"
	"habitsAPI/internal/types/friendship"
)

func TestFollowCreatesAcceptedFriendship(t *testing.T) {
	env := newTestEnv(t)
	social := NewSocialService(env.store, env.habits)
	alice := env.user(t, "alice")
	bob := env.user(t, "bob")
	ctx := context.Background()

	resp, created, err := social.Follow(ctx, alice.ID, &friendship.FollowRequest{RecipientID: bob.ID.String()})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, friendship.FollowStatusNewFriendship, resp.Status)
	require.NotNil(t, resp.Friendship)
	assert.Equal(t, friendship.FriendshipAccepted, resp.Friendship.Status)

	resp, created, err = social.Follow(ctx, bob.ID, &friendship.FollowRequest{RecipientID: alice.ID.String()})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, friendship.FollowStatusAlreadyFriends, resp.Status)

	friends, err := social.ListFriends(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, friends, 1)
	assert.Equal(t, alice.ID, friends[0].ID)
}

func TestFollowRejects(t *testing.T) {
	env := newTestEnv(t)
	social := NewSocialService(env.store, env.habits)
	alice := env.user(t, "alice")
	ctx := context.Background()

	_, _, err := social.Follow(ctx, alice.ID, &friendship.FollowRequest{RecipientID: alice.ID.String()})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, _, err = social.Follow(ctx, alice.ID, &friendship.FollowRequest{RecipientID: "not-a-uuid"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, _, err = social.Follow(ctx, alice.ID, &friendship.FollowRequest{RecipientID: uuid.NewString()})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestUnfollow(t *testing.T) {
	env := newTestEnv(t)
	social := NewSocialService(env.store, env.habits)
	alice := env.user(t, "alice")
	bob := env.user(t, "bob")
	ctx := context.Background()

	_, _, err := social.Follow(ctx, alice.ID, &friendship.FollowRequest{RecipientID: bob.ID.String()})
	require.NoError(t, err)

	require.NoError(t, social.Unfollow(ctx, bob.ID, &friendship.UnfollowRequest{UserID: alice.ID.String()}))

	err = social.Unfollow(ctx, bob.ID, &friendship.UnfollowRequest{UserID: alice.ID.String()})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	friends, err := social.ListFriends(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, friends)
}

func TestActivityFeedShowsOnlyFriends(t *testing.T) {
	env := newTestEnv(t)
	social := NewSocialService(env.store, env.habits)
	alice := env.user(t, "alice")
	bob := env.user(t, "bob")
	carol := env.user(t, "carol")
	ctx := context.Background()

	feed, err := social.ActivityFeed(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, feed.Activities)

	_, _, err = social.Follow(ctx, alice.ID, &friendship.FollowRequest{RecipientID: bob.ID.String()})
	require.NoError(t, err)

	bobRun := env.habit(t, bob.ID, "Run")
	carolRead := env.habit(t, carol.ID, "Read")
	env.toggle(t, bob.ID, bobRun.ID)
	env.toggle(t, carol.ID, carolRead.ID)

	feed, err = social.ActivityFeed(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, feed.Activities, 1)
	assert.Equal(t, "bob", feed.Activities[0].User.Username)
	assert.Equal(t, "Run", feed.Activities[0].Habit.Name)
	assert.Equal(t, "2026-10-18", feed.Activities[0].CompletedAt.String())
}

func TestProfile(t *testing.T) {
	env := newTestEnv(t)
	social := NewSocialService(env.store, env.habits)
	alice := env.user(t, "alice")
	bob := env.user(t, "bob")
	ctx := context.Background()

	run := env.habit(t, bob.ID, "Run")
	env.toggle(t, bob.ID, run.ID)

	profile, err := social.Profile(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, "bob", profile.User.Username)
	assert.False(t, profile.IsFollowing)
	require.Len(t, profile.Habits, 1)
	assert.Equal(t, 1, profile.Habits[0].CurrentStreak)

	_, _, err = social.Follow(ctx, alice.ID, &friendship.FollowRequest{RecipientID: bob.ID.String()})
	require.NoError(t, err)

	profile, err = social.Profile(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, profile.IsFollowing)

	_, err = social.Profile(ctx, alice.ID, uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
