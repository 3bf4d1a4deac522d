package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"habitsAPI/internal/day"
	"habitsAPI/internal/logger"
	"habitsAPI/internal/metrics"
	"habitsAPI/internal/types/activity"
)

// ToggleCompletion deletes first so a single statement decides the uncomplete
// case. A concurrent insert that wins the unique (habit_id, day) race leaves
// the day completed, which is what both callers asked for.
func (s *Store) ToggleCompletion(ctx context.Context, ownerID, habitID uuid.UUID, d day.Day) (bool, error) {
	removed, err := s.db.Exec(ctx, `
	DELETE FROM habit_completions
	WHERE habit_id = $1 AND day = $2
	`, habitID, d.Time())
	if err != nil {
		return false, fmt.Errorf("failed to remove completion: %w", err)
	}
	if removed.RowsAffected() > 0 {
		return false, nil
	}

	inserted, err := s.db.Exec(ctx, `
	INSERT INTO habit_completions (id, habit_id, user_id, day, completed, created_at)
	VALUES ($1, $2, $3, $4, TRUE, NOW())
	ON CONFLICT (habit_id, day) DO NOTHING
	`, uuid.New(), habitID, ownerID, d.Time())
	if err != nil {
		return false, fmt.Errorf("failed to insert completion: %w", err)
	}
	if inserted.RowsAffected() == 0 {
		metrics.LedgerConflicts.Inc()
		logger.Warn("completion insert lost a race, treating as completed", "habit_id", habitID, "day", d)
	}
	return true, nil
}

func collectDays(rows pgx.Rows) ([]day.Day, error) {
	defer rows.Close()

	days := []day.Day{}
	for rows.Next() {
		var t time.Time
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("failed to scan completion day: %w", err)
		}
		days = append(days, day.FromTime(t))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return days, nil
}

func (s *Store) ListCompletionDays(ctx context.Context, habitID uuid.UUID) ([]day.Day, error) {
	rows, err := s.db.Query(ctx, `
	SELECT day FROM habit_completions
	WHERE habit_id = $1
	ORDER BY day DESC
	`, habitID)
	if err != nil {
		return nil, fmt.Errorf("failed to list completions: %w", err)
	}
	return collectDays(rows)
}

func (s *Store) ListCompletionDaysInRange(ctx context.Context, habitID uuid.UUID, from, to day.Day) ([]day.Day, error) {
	rows, err := s.db.Query(ctx, `
	SELECT day FROM habit_completions
	WHERE habit_id = $1 AND day BETWEEN $2 AND $3
	ORDER BY day DESC
	`, habitID, from.Time(), to.Time())
	if err != nil {
		return nil, fmt.Errorf("failed to list completions: %w", err)
	}
	return collectDays(rows)
}

func (s *Store) ListCompletionDaysByHabits(ctx context.Context, habitIDs []uuid.UUID) (map[uuid.UUID][]day.Day, error) {
	out := make(map[uuid.UUID][]day.Day, len(habitIDs))
	if len(habitIDs) == 0 {
		return out, nil
	}
	for _, id := range habitIDs {
		out[id] = []day.Day{}
	}

	rows, err := s.db.Query(ctx, `
	SELECT habit_id, day FROM habit_completions
	WHERE habit_id = ANY($1::uuid[])
	ORDER BY habit_id, day DESC
	`, uuidStrings(habitIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to list completions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			habitID uuid.UUID
			t       time.Time
		)
		if err := rows.Scan(&habitID, &t); err != nil {
			return nil, fmt.Errorf("failed to scan completion: %w", err)
		}
		out[habitID] = append(out[habitID], day.FromTime(t))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return out, nil
}

func (s *Store) DeleteAllCompletions(ctx context.Context, habitID uuid.UUID) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM habit_completions WHERE habit_id = $1`, habitID); err != nil {
		return fmt.Errorf("failed to delete completions: %w", err)
	}
	return nil
}

func (s *Store) ListRecentCompletions(ctx context.Context, userIDs []uuid.UUID, limit int) ([]*activity.Activity, error) {
	if len(userIDs) == 0 {
		return []*activity.Activity{}, nil
	}

	rows, err := s.db.Query(ctx, `
	SELECT
		c.id,
		c.day,
		c.created_at,
		u.id,
		u.username,
		u.image_url,
		h.id,
		h.name,
		h.category
	FROM habit_completions c
	INNER JOIN users u ON u.id = c.user_id
	INNER JOIN habits h ON h.id = c.habit_id
	WHERE c.user_id = ANY($1::uuid[])
	ORDER BY c.created_at DESC, c.id
	LIMIT $2
	`, uuidStrings(userIDs), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch activity: %w", err)
	}
	defer rows.Close()

	activities := []*activity.Activity{}
	for rows.Next() {
		a := &activity.Activity{}
		var completedOn time.Time
		err := rows.Scan(
			&a.ID,
			&completedOn,
			&a.CreatedAt,
			&a.User.ID,
			&a.User.Username,
			&a.User.ImageURL,
			&a.Habit.ID,
			&a.Habit.Name,
			&a.Habit.Category,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		a.CompletedAt = day.FromTime(completedOn)
		activities = append(activities, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return activities, nil
}
