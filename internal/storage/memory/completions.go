package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"habitsAPI/internal/day"
	"habitsAPI/internal/types/activity"
	"habitsAPI/internal/types/completion"
)

func (s *Store) ToggleCompletion(ctx context.Context, ownerID, habitID uuid.UUID, d day.Day) (bool, error) {
	defer s.lock()()

	h, ok := s.data.habits[habitID]
	if !ok || h.UserID != ownerID {
		return false, notFound("habit")
	}

	key := d.String()
	for id, c := range s.data.completions {
		if c.HabitID == habitID && c.Day.String() == key {
			delete(s.data.completions, id)
			return false, nil
		}
	}

	s.data.seq++
	row := &completionRow{
		Completion: completion.Completion{
			ID:        uuid.New(),
			HabitID:   habitID,
			UserID:    ownerID,
			Day:       d,
			Completed: true,
			CreatedAt: s.timestamp(),
		},
		seq: s.data.seq,
	}
	s.data.completions[row.ID] = row
	return true, nil
}

func (s *Store) ListCompletionDays(ctx context.Context, habitID uuid.UUID) ([]day.Day, error) {
	defer s.lock()()

	return s.daysLocked(habitID, day.Day{}, day.Day{}), nil
}

func (s *Store) ListCompletionDaysInRange(ctx context.Context, habitID uuid.UUID, from, to day.Day) ([]day.Day, error) {
	defer s.lock()()

	return s.daysLocked(habitID, from, to), nil
}

func (s *Store) ListCompletionDaysByHabits(ctx context.Context, habitIDs []uuid.UUID) (map[uuid.UUID][]day.Day, error) {
	defer s.lock()()

	out := make(map[uuid.UUID][]day.Day, len(habitIDs))
	for _, id := range habitIDs {
		out[id] = s.daysLocked(id, day.Day{}, day.Day{})
	}
	return out, nil
}

// daysLocked returns the habit's days in descending order, bounded by from/to when set.
func (s *Store) daysLocked(habitID uuid.UUID, from, to day.Day) []day.Day {
	out := make([]day.Day, 0)
	for _, c := range s.data.completions {
		if c.HabitID != habitID {
			continue
		}
		if !from.IsZero() && c.Day.Before(from) {
			continue
		}
		if !to.IsZero() && c.Day.After(to) {
			continue
		}
		out = append(out, c.Day)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].After(out[j]) })
	return out
}

func (s *Store) DeleteAllCompletions(ctx context.Context, habitID uuid.UUID) error {
	defer s.lock()()

	s.deleteCompletionsLocked(habitID)
	return nil
}

func (s *Store) deleteCompletionsLocked(habitID uuid.UUID) {
	for id, c := range s.data.completions {
		if c.HabitID == habitID {
			delete(s.data.completions, id)
		}
	}
}

func (s *Store) ListRecentCompletions(ctx context.Context, userIDs []uuid.UUID, limit int) ([]*activity.Activity, error) {
	defer s.lock()()

	wanted := make(map[uuid.UUID]struct{}, len(userIDs))
	for _, id := range userIDs {
		wanted[id] = struct{}{}
	}

	rows := make([]*completionRow, 0)
	for _, c := range s.data.completions {
		if _, ok := wanted[c.UserID]; ok {
			rows = append(rows, c)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].CreatedAt.Equal(rows[j].CreatedAt) {
			return rows[i].CreatedAt.After(rows[j].CreatedAt)
		}
		return rows[i].seq > rows[j].seq
	})
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}

	out := make([]*activity.Activity, 0, len(rows))
	for _, c := range rows {
		u, uok := s.data.users[c.UserID]
		h, hok := s.data.habits[c.HabitID]
		if !uok || !hok {
			continue
		}
		out = append(out, &activity.Activity{
			ID:          c.ID,
			User:        activity.UserSummary{ID: u.ID, Username: u.Username, ImageURL: u.ImageURL},
			Habit:       activity.HabitSummary{ID: h.ID, Name: h.Name, Category: h.Category},
			CompletedAt: c.Day,
			CreatedAt:   c.CreatedAt,
		})
	}
	return out, nil
}
