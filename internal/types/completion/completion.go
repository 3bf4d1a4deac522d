package completion

import (
	"time"

	"github.com/google/uuid"

	"habitsAPI/internal/day"
)

// Completion is one ledger entry. Its existence is the completion state of the day;
// Completed is always true and mirrors the column.
type Completion struct {
	ID        uuid.UUID `json:"id" db:"id"`
	HabitID   uuid.UUID `json:"habit_id" db:"habit_id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	Day       day.Day   `json:"date" db:"day"`
	Completed bool      `json:"completed" db:"completed"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type HistoryResponse struct {
	HabitID uuid.UUID `json:"habit_id"`
	From    day.Day   `json:"from"`
	To      day.Day   `json:"to"`
	Days    []day.Day `json:"days"`
}
