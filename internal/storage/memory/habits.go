package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	apperrors "habitsAPI/internal/errors"
	"habitsAPI/internal/streak"
	"habitsAPI/internal/types/habit"
)

func (s *Store) CreateHabit(ctx context.Context, h *habit.Habit) error {
	defer s.lock()()

	if _, ok := s.data.users[h.UserID]; !ok {
		return notFound("user")
	}
	if s.habitByNameLocked(h.UserID, h.Name, uuid.Nil) != nil {
		return apperrors.AlreadyExists("a habit with this name already exists")
	}

	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	now := s.timestamp()
	h.CreatedAt, h.UpdatedAt = now, now

	stored := *h
	s.data.habits[h.ID] = &stored
	return nil
}

func (s *Store) GetHabit(ctx context.Context, ownerID, habitID uuid.UUID) (*habit.Habit, error) {
	defer s.lock()()

	h, ok := s.data.habits[habitID]
	if !ok || h.UserID != ownerID {
		return nil, notFound("habit")
	}
	out := *h
	return &out, nil
}

// GetHabitForUpdate needs no extra locking here: the store mutex already
// serializes the enclosing transaction.
func (s *Store) GetHabitForUpdate(ctx context.Context, ownerID, habitID uuid.UUID) (*habit.Habit, error) {
	return s.GetHabit(ctx, ownerID, habitID)
}

func (s *Store) FindHabitByName(ctx context.Context, ownerID uuid.UUID, name string) (*habit.Habit, error) {
	defer s.lock()()

	h := s.habitByNameLocked(ownerID, name, uuid.Nil)
	if h == nil {
		return nil, notFound("habit")
	}
	out := *h
	return &out, nil
}

func (s *Store) habitByNameLocked(ownerID uuid.UUID, name string, exclude uuid.UUID) *habit.Habit {
	for _, h := range s.data.habits {
		if h.UserID == ownerID && h.ID != exclude && strings.EqualFold(h.Name, name) {
			return h
		}
	}
	return nil
}

func (s *Store) ListHabitsByOwner(ctx context.Context, ownerID uuid.UUID) ([]*habit.Habit, error) {
	return s.ListHabitsByOwners(ctx, []uuid.UUID{ownerID})
}

func (s *Store) ListHabitsByOwners(ctx context.Context, ownerIDs []uuid.UUID) ([]*habit.Habit, error) {
	defer s.lock()()

	owners := make(map[uuid.UUID]struct{}, len(ownerIDs))
	for _, id := range ownerIDs {
		owners[id] = struct{}{}
	}

	out := make([]*habit.Habit, 0)
	for _, h := range s.data.habits {
		if _, ok := owners[h.UserID]; ok {
			c := *h
			out = append(out, &c)
		}
	}
	sortHabits(out)
	return out, nil
}

func (s *Store) ListAllHabits(ctx context.Context) ([]*habit.Habit, error) {
	defer s.lock()()

	out := make([]*habit.Habit, 0, len(s.data.habits))
	for _, h := range s.data.habits {
		c := *h
		out = append(out, &c)
	}
	sortHabits(out)
	return out, nil
}

func (s *Store) UpdateHabit(ctx context.Context, h *habit.Habit) error {
	defer s.lock()()

	stored, ok := s.data.habits[h.ID]
	if !ok || stored.UserID != h.UserID {
		return notFound("habit")
	}
	if s.habitByNameLocked(h.UserID, h.Name, h.ID) != nil {
		return apperrors.AlreadyExists("a habit with this name already exists")
	}

	stored.Name = h.Name
	stored.Category = h.Category
	stored.Frequency = h.Frequency
	stored.UpdatedAt = s.timestamp()
	h.UpdatedAt = stored.UpdatedAt
	return nil
}

func (s *Store) SaveHabitStats(ctx context.Context, habitID uuid.UUID, stats streak.Stats) error {
	defer s.lock()()

	h, ok := s.data.habits[habitID]
	if !ok {
		return notFound("habit")
	}
	// longest never decreases
	if stats.LongestStreak < h.LongestStreak {
		stats.LongestStreak = h.LongestStreak
	}
	h.ApplyStats(stats)
	h.UpdatedAt = s.timestamp()
	return nil
}

func (s *Store) DeleteHabit(ctx context.Context, ownerID, habitID uuid.UUID) error {
	defer s.lock()()

	h, ok := s.data.habits[habitID]
	if !ok || h.UserID != ownerID {
		return notFound("habit")
	}
	s.deleteCompletionsLocked(habitID)
	delete(s.data.habits, habitID)
	return nil
}

func sortHabits(habits []*habit.Habit) {
	sort.Slice(habits, func(i, j int) bool {
		if !habits[i].CreatedAt.Equal(habits[j].CreatedAt) {
			return habits[i].CreatedAt.After(habits[j].CreatedAt)
		}
		return habits[i].ID.String() < habits[j].ID.String()
	})
}
