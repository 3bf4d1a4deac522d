package habit

import (
	"time"

	"github.com/google/uuid"

	"habitsAPI/internal/streak"
)

type Category string

const (
	CategoryHealth       Category = "health"
	CategoryProductivity Category = "productivity"
	CategoryLearning     Category = "learning"
	CategoryFitness      Category = "fitness"
	CategoryOther        Category = "other"
)

// Frequency is descriptive only; streaks are always counted in days.
type Frequency string

const (
	FrequencyDaily  Frequency = "daily"
	FrequencyWeekly Frequency = "weekly"
)

// MaxNameLength is counted in runes.
const MaxNameLength = 100

type Habit struct {
	ID               uuid.UUID `json:"id" db:"id"`
	UserID           uuid.UUID `json:"user_id" db:"user_id"`
	Name             string    `json:"name" db:"name"`
	Category         Category  `json:"category" db:"category"`
	Frequency        Frequency `json:"frequency" db:"frequency"`
	CurrentStreak    int       `json:"current_streak" db:"current_streak"`
	LongestStreak    int       `json:"longest_streak" db:"longest_streak"`
	TotalCompletions int       `json:"total_completions" db:"total_completions"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`
}

func (h *Habit) Stats() streak.Stats {
	return streak.Stats{
		CurrentStreak:    h.CurrentStreak,
		LongestStreak:    h.LongestStreak,
		TotalCompletions: h.TotalCompletions,
	}
}

func (h *Habit) ApplyStats(s streak.Stats) {
	h.CurrentStreak = s.CurrentStreak
	h.LongestStreak = s.LongestStreak
	h.TotalCompletions = s.TotalCompletions
}

// WithStatus is a habit plus whether today's ledger entry exists.
type WithStatus struct {
	Habit
	CompletedToday bool `json:"completed_today"`
}
