package storage

import (
	"context"

	"github.com/google/uuid"

	"habitsAPI/internal/day"
	"habitsAPI/internal/streak"
	"habitsAPI/internal/types/activity"
	"habitsAPI/internal/types/friendship"
	"habitsAPI/internal/types/habit"
	"habitsAPI/internal/types/notification"
	"habitsAPI/internal/types/user"
)

// Store is the persistence boundary shared by the postgres and memory backends.
//
// Lookups that find nothing return errors.ErrNotFound; uniqueness violations
// return errors.ErrAlreadyExists.
type Store interface {
	// Lifecycle
	Ping(ctx context.Context) error
	Close()
	// InTx runs fn against a view of the store bound to a single transaction.
	// fn's error rolls everything back. Nested calls reuse the outer transaction.
	InTx(ctx context.Context, fn func(tx Store) error) error

	// Users
	CreateUser(ctx context.Context, u *user.User) error
	GetUserByID(ctx context.Context, id uuid.UUID) (*user.User, error)
	GetUserByClerkID(ctx context.Context, clerkID string) (*user.User, error)
	GetUsersByIDs(ctx context.Context, ids []uuid.UUID) ([]*user.User, error)
	ListUsers(ctx context.Context) ([]*user.User, error)
	UpdateUserByClerkID(ctx context.Context, clerkID string, req *user.UpdateProfileRequest) (*user.User, error)
	SetEmailVerified(ctx context.Context, clerkID string, verified bool) error
	// DeleteUserByClerkID removes the user and everything they own.
	DeleteUserByClerkID(ctx context.Context, clerkID string) error
	// SearchUsers matches username or email case-insensitively, excluding excludeID.
	SearchUsers(ctx context.Context, excludeID uuid.UUID, query string, limit int) ([]*user.User, error)

	// Habits
	CreateHabit(ctx context.Context, h *habit.Habit) error
	GetHabit(ctx context.Context, ownerID, habitID uuid.UUID) (*habit.Habit, error)
	// GetHabitForUpdate is GetHabit plus a row lock held until the transaction ends.
	GetHabitForUpdate(ctx context.Context, ownerID, habitID uuid.UUID) (*habit.Habit, error)
	// FindHabitByName matches case-insensitively within one owner.
	FindHabitByName(ctx context.Context, ownerID uuid.UUID, name string) (*habit.Habit, error)
	// ListHabitsByOwner returns habits newest first.
	ListHabitsByOwner(ctx context.Context, ownerID uuid.UUID) ([]*habit.Habit, error)
	ListHabitsByOwners(ctx context.Context, ownerIDs []uuid.UUID) ([]*habit.Habit, error)
	ListAllHabits(ctx context.Context) ([]*habit.Habit, error)
	// UpdateHabit writes name, category and frequency.
	UpdateHabit(ctx context.Context, h *habit.Habit) error
	// SaveHabitStats never lowers the stored longest streak.
	SaveHabitStats(ctx context.Context, habitID uuid.UUID, stats streak.Stats) error
	DeleteHabit(ctx context.Context, ownerID, habitID uuid.UUID) error

	// Completion ledger
	// ToggleCompletion removes the (habit, day) entry if present, otherwise inserts it.
	// It reports the resulting state. An insert that loses a uniqueness race reports true.
	ToggleCompletion(ctx context.Context, ownerID, habitID uuid.UUID, d day.Day) (bool, error)
	ListCompletionDays(ctx context.Context, habitID uuid.UUID) ([]day.Day, error)
	ListCompletionDaysInRange(ctx context.Context, habitID uuid.UUID, from, to day.Day) ([]day.Day, error)
	ListCompletionDaysByHabits(ctx context.Context, habitIDs []uuid.UUID) (map[uuid.UUID][]day.Day, error)
	DeleteAllCompletions(ctx context.Context, habitID uuid.UUID) error
	// ListRecentCompletions returns the newest ledger entries of the given users' habits.
	ListRecentCompletions(ctx context.Context, userIDs []uuid.UUID, limit int) ([]*activity.Activity, error)

	// Friendships
	// GetFriendship looks the pair up in either direction.
	GetFriendship(ctx context.Context, a, b uuid.UUID) (*friendship.Friendship, error)
	CreateFriendship(ctx context.Context, f *friendship.Friendship) error
	// DeleteFriendship removes the pair in either direction and reports whether a row existed.
	DeleteFriendship(ctx context.Context, a, b uuid.UUID) (bool, error)
	// ListFriends returns users with an accepted friendship to userID, ordered by username.
	ListFriends(ctx context.Context, userID uuid.UUID) ([]*user.User, error)

	// Notifications
	CreateNotification(ctx context.Context, n *notification.Notification) error
	ListNotifications(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*notification.Notification, int, error)
	CountUnreadNotifications(ctx context.Context, userID uuid.UUID) (int, error)
	MarkNotificationRead(ctx context.Context, userID, notificationID uuid.UUID) error
	UpsertDeviceToken(ctx context.Context, t *notification.DeviceToken) error
	ListDeviceTokens(ctx context.Context, userID uuid.UUID) ([]notification.DeviceToken, error)
}
