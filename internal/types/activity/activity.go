package activity

import (
	"time"

	"github.com/google/uuid"

	"habitsAPI/internal/day"
	"habitsAPI/internal/types/habit"
)

type UserSummary struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	ImageURL string    `json:"image_url,omitempty"`
}

type HabitSummary struct {
	ID       uuid.UUID      `json:"id"`
	Name     string         `json:"name"`
	Category habit.Category `json:"category"`
}

// Activity is a friend's ledger entry as shown in the feed.
type Activity struct {
	ID          uuid.UUID    `json:"id"`
	User        UserSummary  `json:"user"`
	Habit       HabitSummary `json:"habit"`
	CompletedAt day.Day      `json:"completed_at"`
	CreatedAt   time.Time    `json:"created_at"`
}

type FeedResponse struct {
	Activities []*Activity `json:"activities"`
}
