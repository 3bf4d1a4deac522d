package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "habitsAPI/internal/errors"
	"habitsAPI/internal/storage/memory"
	"habitsAPI/internal/types/user"
)

func TestCreateUserNormalizesEmail(t *testing.T) {
	users := NewUserService(memory.New())

	u, err := users.CreateUser(context.Background(), &user.CreateUserRequest{
		ClerkID:  "user_1",
		Email:    "  Alice@Example.COM ",
		Username: "alice",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", u.Email)

	_, err = users.CreateUser(context.Background(), &user.CreateUserRequest{
		ClerkID:  "user_2",
		Email:    "alice@example.com",
		Username: "alice2",
	})
	assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)
}

func TestCreateUserValidation(t *testing.T) {
	users := NewUserService(memory.New())

	_, err := users.CreateUser(context.Background(), &user.CreateUserRequest{
		ClerkID:  "user_1",
		Email:    "not-an-email",
		Username: "al",
	})
	var domainErr *apperrors.Error
	require.ErrorAs(t, err, &domainErr)
	details := domainErr.Details.(map[string]string)
	assert.Contains(t, details, "email")
	assert.Contains(t, details, "username")
}

func TestUpdateAndDeleteUser(t *testing.T) {
	users := NewUserService(memory.New())
	ctx := context.Background()

	_, err := users.CreateUser(ctx, &user.CreateUserRequest{ClerkID: "user_1", Email: "a@example.com", Username: "alice"})
	require.NoError(t, err)

	updated, err := users.UpdateProfileByClerkID(ctx, "user_1", &user.UpdateProfileRequest{FirstName: "Alice"})
	require.NoError(t, err)
	assert.Equal(t, "alice", updated.Username)
	assert.Equal(t, "Alice", updated.FirstName)

	require.NoError(t, users.UpdateEmailVerification(ctx, "user_1", true))
	got, err := users.GetUserByClerkID(ctx, "user_1")
	require.NoError(t, err)
	assert.True(t, got.EmailVerified)

	require.NoError(t, users.DeleteUserByClerkID(ctx, "user_1"))
	assert.ErrorIs(t, users.DeleteUserByClerkID(ctx, "user_1"), apperrors.ErrNotFound)
}

func TestSearchUsers(t *testing.T) {
	env := newTestEnv(t)
	users := NewUserService(env.store)
	alice := env.user(t, "alice")
	env.user(t, "alicia")
	env.user(t, "bob")
	ctx := context.Background()

	_, err := users.SearchUsers(ctx, alice.ID, " a ")
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	found, err := users.SearchUsers(ctx, alice.ID, "ALI")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "alicia", found[0].Username)

	found, err = users.SearchUsers(ctx, alice.ID, "example.com")
	require.NoError(t, err)
	assert.Len(t, found, 2)
}
