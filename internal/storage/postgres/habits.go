package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	apperrors "habitsAPI/internal/errors"
	"habitsAPI/internal/streak"
	"habitsAPI/internal/types/habit"
)

const habitColumns = `id, user_id, name, category, frequency, current_streak, longest_streak, total_completions, created_at, updated_at`

func scanHabit(row pgx.Row) (*habit.Habit, error) {
	h := &habit.Habit{}
	err := row.Scan(
		&h.ID,
		&h.UserID,
		&h.Name,
		&h.Category,
		&h.Frequency,
		&h.CurrentStreak,
		&h.LongestStreak,
		&h.TotalCompletions,
		&h.CreatedAt,
		&h.UpdatedAt,
	)
	return h, err
}

func collectHabits(rows pgx.Rows) ([]*habit.Habit, error) {
	defer rows.Close()

	habits := []*habit.Habit{}
	for rows.Next() {
		h, err := scanHabit(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan habit: %w", err)
		}
		habits = append(habits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return habits, nil
}

func (s *Store) CreateHabit(ctx context.Context, h *habit.Habit) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}

	query := `
	INSERT INTO habits (id, user_id, name, category, frequency, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
	RETURNING ` + habitColumns

	created, err := scanHabit(s.db.QueryRow(ctx, query, h.ID, h.UserID, h.Name, h.Category, h.Frequency))
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("a habit with this name already exists")
		}
		return mapErr(err, "habit", "create habit")
	}

	*h = *created
	return nil
}

func (s *Store) GetHabit(ctx context.Context, ownerID, habitID uuid.UUID) (*habit.Habit, error) {
	h, err := scanHabit(s.db.QueryRow(ctx, `
	SELECT `+habitColumns+`
	FROM habits
	WHERE id = $1 AND user_id = $2
	`, habitID, ownerID))
	if err != nil {
		return nil, mapErr(err, "habit", "get habit")
	}
	return h, nil
}

func (s *Store) GetHabitForUpdate(ctx context.Context, ownerID, habitID uuid.UUID) (*habit.Habit, error) {
	h, err := scanHabit(s.db.QueryRow(ctx, `
	SELECT `+habitColumns+`
	FROM habits
	WHERE id = $1 AND user_id = $2
	FOR UPDATE
	`, habitID, ownerID))
	if err != nil {
		return nil, mapErr(err, "habit", "lock habit")
	}
	return h, nil
}

func (s *Store) FindHabitByName(ctx context.Context, ownerID uuid.UUID, name string) (*habit.Habit, error) {
	h, err := scanHabit(s.db.QueryRow(ctx, `
	SELECT `+habitColumns+`
	FROM habits
	WHERE user_id = $1 AND LOWER(name) = LOWER($2)
	`, ownerID, name))
	if err != nil {
		return nil, mapErr(err, "habit", "find habit")
	}
	return h, nil
}

func (s *Store) ListHabitsByOwner(ctx context.Context, ownerID uuid.UUID) ([]*habit.Habit, error) {
	rows, err := s.db.Query(ctx, `
	SELECT `+habitColumns+`
	FROM habits
	WHERE user_id = $1
	ORDER BY created_at DESC, id
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list habits: %w", err)
	}
	return collectHabits(rows)
}

func (s *Store) ListHabitsByOwners(ctx context.Context, ownerIDs []uuid.UUID) ([]*habit.Habit, error) {
	if len(ownerIDs) == 0 {
		return []*habit.Habit{}, nil
	}

	rows, err := s.db.Query(ctx, `
	SELECT `+habitColumns+`
	FROM habits
	WHERE user_id = ANY($1::uuid[])
	ORDER BY created_at DESC, id
	`, uuidStrings(ownerIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to list habits: %w", err)
	}
	return collectHabits(rows)
}

func (s *Store) ListAllHabits(ctx context.Context) ([]*habit.Habit, error) {
	rows, err := s.db.Query(ctx, `SELECT `+habitColumns+` FROM habits ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list habits: %w", err)
	}
	return collectHabits(rows)
}

func (s *Store) UpdateHabit(ctx context.Context, h *habit.Habit) error {
	err := s.db.QueryRow(ctx, `
	UPDATE habits
	SET name = $3, category = $4, frequency = $5, updated_at = NOW()
	WHERE id = $1 AND user_id = $2
	RETURNING updated_at
	`, h.ID, h.UserID, h.Name, h.Category, h.Frequency).Scan(&h.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("a habit with this name already exists")
		}
		return mapErr(err, "habit", "update habit")
	}
	return nil
}

func (s *Store) SaveHabitStats(ctx context.Context, habitID uuid.UUID, stats streak.Stats) error {
	result, err := s.db.Exec(ctx, `
	UPDATE habits
	SET current_streak = $2, longest_streak = GREATEST(longest_streak, $3), total_completions = $4, updated_at = NOW()
	WHERE id = $1
	`, habitID, stats.CurrentStreak, stats.LongestStreak, stats.TotalCompletions)
	if err != nil {
		return fmt.Errorf("failed to save habit stats: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.NotFound("habit not found")
	}
	return nil
}

func (s *Store) DeleteHabit(ctx context.Context, ownerID, habitID uuid.UUID) error {
	result, err := s.db.Exec(ctx, `DELETE FROM habits WHERE id = $1 AND user_id = $2`, habitID, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete habit: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.NotFound("habit not found")
	}
	return nil
}
