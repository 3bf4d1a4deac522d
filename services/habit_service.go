package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"habitsAPI/internal/clock"
	"habitsAPI/internal/day"
	apperrors "habitsAPI/internal/errors"
	"habitsAPI/internal/logger"
	"habitsAPI/internal/metrics"
	"habitsAPI/internal/storage"
	"habitsAPI/internal/streak"
	"habitsAPI/internal/types/completion"
	"habitsAPI/internal/types/habit"
	"habitsAPI/internal/validation"
)

const (
	defaultHistoryDays = 30
	maxHistoryDays     = 366
)

// MilestoneNotifier is told when a toggle moves a habit's current streak onto a milestone.
type MilestoneNotifier interface {
	NotifyStreakMilestone(ctx context.Context, h *habit.Habit, milestone int) error
}

type HabitService struct {
	store     storage.Store
	clock     clock.Clock
	location  *time.Location
	validator *validation.Validator
	notifier  MilestoneNotifier
}

func NewHabitService(store storage.Store, clk clock.Clock, location *time.Location) *HabitService {
	if location == nil {
		location = time.UTC
	}
	return &HabitService{
		store:     store,
		clock:     clk,
		location:  location,
		validator: validation.New(),
	}
}

// SetNotifier wires milestone notifications. Without one, milestones are only logged.
func (s *HabitService) SetNotifier(n MilestoneNotifier) {
	s.notifier = n
}

// Today is the calendar day used for every streak computation.
func (s *HabitService) Today() day.Day {
	return clock.Today(s.clock, s.location)
}

func (s *HabitService) CreateHabit(ctx context.Context, ownerID uuid.UUID, req *habit.CreateHabitRequest) (*habit.WithStatus, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	h := &habit.Habit{
		UserID:    ownerID,
		Name:      req.Name,
		Category:  req.Category,
		Frequency: req.Frequency,
	}
	if h.Category == "" {
		h.Category = habit.CategoryOther
	}
	if h.Frequency == "" {
		h.Frequency = habit.FrequencyDaily
	}

	if err := s.ensureNameAvailable(ctx, s.store, ownerID, h.Name, uuid.Nil); err != nil {
		return nil, err
	}

	if err := s.store.CreateHabit(ctx, h); err != nil {
		return nil, err
	}

	logger.Info("habit created", "habit_id", h.ID, "user_id", ownerID)
	return &habit.WithStatus{Habit: *h}, nil
}

func (s *HabitService) UpdateHabit(ctx context.Context, ownerID, habitID uuid.UUID, req *habit.UpdateHabitRequest) (*habit.WithStatus, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	var updated *habit.Habit
	err := s.store.InTx(ctx, func(tx storage.Store) error {
		h, err := tx.GetHabitForUpdate(ctx, ownerID, habitID)
		if err != nil {
			return err
		}

		if err := s.ensureNameAvailable(ctx, tx, ownerID, req.Name, h.ID); err != nil {
			return err
		}

		h.Name = req.Name
		if req.Category != "" {
			h.Category = req.Category
		}
		if req.Frequency != "" {
			h.Frequency = req.Frequency
		}

		if err := tx.UpdateHabit(ctx, h); err != nil {
			return err
		}
		updated = h
		return nil
	})
	if err != nil {
		return nil, err
	}

	statuses, err := s.RefreshHabits(ctx, []*habit.Habit{updated})
	if err != nil {
		return nil, err
	}
	return statuses[0], nil
}

func (s *HabitService) ensureNameAvailable(ctx context.Context, st storage.Store, ownerID uuid.UUID, name string, self uuid.UUID) error {
	existing, err := st.FindHabitByName(ctx, ownerID, name)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return nil
		}
		return err
	}
	if existing.ID == self {
		return nil
	}
	return apperrors.AlreadyExists("a habit with this name already exists")
}

// DeleteHabit removes the habit and its whole ledger in one transaction.
func (s *HabitService) DeleteHabit(ctx context.Context, ownerID, habitID uuid.UUID) error {
	err := s.store.InTx(ctx, func(tx storage.Store) error {
		if _, err := tx.GetHabitForUpdate(ctx, ownerID, habitID); err != nil {
			return err
		}
		if err := tx.DeleteAllCompletions(ctx, habitID); err != nil {
			return err
		}
		return tx.DeleteHabit(ctx, ownerID, habitID)
	})
	if err != nil {
		return err
	}

	logger.Info("habit deleted", "habit_id", habitID, "user_id", ownerID)
	return nil
}

// ToggleCompletion flips today's ledger entry and recomputes the habit's statistics
// from the full ledger, all in one transaction.
func (s *HabitService) ToggleCompletion(ctx context.Context, ownerID, habitID uuid.UUID) (*habit.ToggleResponse, error) {
	today := s.Today()

	var (
		h         *habit.Habit
		previous  streak.Stats
		completed bool
	)
	err := s.store.InTx(ctx, func(tx storage.Store) error {
		var err error
		h, err = tx.GetHabitForUpdate(ctx, ownerID, habitID)
		if err != nil {
			return err
		}
		previous = h.Stats()

		completed, err = tx.ToggleCompletion(ctx, ownerID, habitID, today)
		if err != nil {
			return err
		}

		days, err := tx.ListCompletionDays(ctx, habitID)
		if err != nil {
			return err
		}

		stats := streak.Compute(days, today, h.LongestStreak)
		if err := tx.SaveHabitStats(ctx, habitID, stats); err != nil {
			return err
		}
		h.ApplyStats(stats)
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := "uncompleted"
	if completed {
		result = "completed"
	}
	metrics.HabitToggles.WithLabelValues(result).Inc()
	logger.Debug("habit toggled", "habit_id", habitID, "day", today, "completed", completed,
		"current_streak", h.CurrentStreak, "total_completions", h.TotalCompletions)

	if completed {
		if m, ok := streak.Milestone(previous, h.Stats()); ok {
			s.notifyMilestone(ctx, h, m)
		}
	}

	return &habit.ToggleResponse{
		Habit:     habit.WithStatus{Habit: *h, CompletedToday: completed},
		Completed: completed,
	}, nil
}

func (s *HabitService) notifyMilestone(ctx context.Context, h *habit.Habit, milestone int) {
	logger.Info("streak milestone reached", "habit_id", h.ID, "user_id", h.UserID, "milestone", milestone)
	if s.notifier == nil {
		return
	}
	if err := s.notifier.NotifyStreakMilestone(ctx, h, milestone); err != nil {
		logger.Warn("failed to send milestone notification", "habit_id", h.ID, "err", err)
	}
}

// ListHabits returns the owner's habits, newest first, each with today's completion state.
func (s *HabitService) ListHabits(ctx context.Context, ownerID uuid.UUID) ([]*habit.WithStatus, error) {
	habits, err := s.store.ListHabitsByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return s.RefreshHabits(ctx, habits)
}

// RefreshHabits recomputes statistics for habits against today, persisting any
// that were stale, and annotates each with whether today is completed.
func (s *HabitService) RefreshHabits(ctx context.Context, habits []*habit.Habit) ([]*habit.WithStatus, error) {
	out := make([]*habit.WithStatus, 0, len(habits))
	if len(habits) == 0 {
		return out, nil
	}

	ids := make([]uuid.UUID, len(habits))
	for i, h := range habits {
		ids[i] = h.ID
	}
	ledger, err := s.store.ListCompletionDaysByHabits(ctx, ids)
	if err != nil {
		return nil, err
	}

	today := s.Today()
	for _, h := range habits {
		days := ledger[h.ID]

		if streak.Compute(days, today, h.LongestStreak) != h.Stats() {
			var changed bool
			days, changed, err = s.repairStats(ctx, h, today, false)
			if apperrors.Is(err, apperrors.ErrNotFound) {
				continue
			}
			if err != nil {
				return nil, err
			}
			if changed {
				metrics.StaleStatsRepaired.Inc()
			}
		}

		out = append(out, &habit.WithStatus{Habit: *h, CompletedToday: containsDay(days, today)})
	}
	return out, nil
}

// repairStats recomputes one habit's statistics under its row lock, so a toggle
// committed after the caller's snapshot is never overwritten. h is updated in
// place with the stored statistics and the ledger read under the lock is returned.
func (s *HabitService) repairStats(ctx context.Context, h *habit.Habit, today day.Day, rebuildLongest bool) ([]day.Day, bool, error) {
	var (
		days    []day.Day
		changed bool
	)
	err := s.store.InTx(ctx, func(tx storage.Store) error {
		locked, err := tx.GetHabitForUpdate(ctx, h.UserID, h.ID)
		if err != nil {
			return err
		}
		days, err = tx.ListCompletionDays(ctx, h.ID)
		if err != nil {
			return err
		}

		previousLongest := locked.LongestStreak
		if rebuildLongest {
			if run := streak.LongestRun(days); run > previousLongest {
				previousLongest = run
			}
		}

		stats := streak.Compute(days, today, previousLongest)
		if stats != locked.Stats() {
			if err := tx.SaveHabitStats(ctx, h.ID, stats); err != nil {
				return err
			}
			changed = true
		}
		h.ApplyStats(stats)
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return days, changed, nil
}

// GetHistory returns the completed days of one habit between from and to, ascending.
// Zero bounds default to the last 30 days ending today.
func (s *HabitService) GetHistory(ctx context.Context, ownerID, habitID uuid.UUID, from, to day.Day) (*completion.HistoryResponse, error) {
	if to.IsZero() {
		to = s.Today()
	}
	if from.IsZero() {
		from = to.AddDays(-(defaultHistoryDays - 1))
	}
	if from.After(to) {
		return nil, apperrors.Validation("from must not be after to")
	}
	if to.Time().Sub(from.Time()) > maxHistoryDays*24*time.Hour {
		return nil, apperrors.Validationf("range must not exceed %d days", maxHistoryDays)
	}

	if _, err := s.store.GetHabit(ctx, ownerID, habitID); err != nil {
		return nil, err
	}

	days, err := s.store.ListCompletionDaysInRange(ctx, habitID, from, to)
	if err != nil {
		return nil, err
	}
	reverse(days)

	return &completion.HistoryResponse{HabitID: habitID, From: from, To: to, Days: days}, nil
}

// RecomputeAll re-runs the statistics recompute for every habit and reports how
// many changed. With rebuildLongest, longest streaks are raised to the longest
// run present anywhere in the ledger.
func (s *HabitService) RecomputeAll(ctx context.Context, rebuildLongest bool) (int, error) {
	habits, err := s.store.ListAllHabits(ctx)
	if err != nil {
		return 0, err
	}
	if len(habits) == 0 {
		return 0, nil
	}

	ids := make([]uuid.UUID, len(habits))
	for i, h := range habits {
		ids[i] = h.ID
	}
	ledger, err := s.store.ListCompletionDaysByHabits(ctx, ids)
	if err != nil {
		return 0, err
	}

	today := s.Today()
	changed := 0
	for _, h := range habits {
		days := ledger[h.ID]

		previousLongest := h.LongestStreak
		if rebuildLongest {
			if run := streak.LongestRun(days); run > previousLongest {
				previousLongest = run
			}
		}
		if streak.Compute(days, today, previousLongest) == h.Stats() {
			continue
		}

		before := h.Stats()
		_, repaired, err := s.repairStats(ctx, h, today, rebuildLongest)
		if apperrors.Is(err, apperrors.ErrNotFound) {
			continue
		}
		if err != nil {
			return changed, err
		}
		if !repaired {
			continue
		}
		logger.Debug("habit statistics recomputed", "habit_id", h.ID,
			"before", before, "after", h.Stats())
		changed++
	}

	logger.Info("recompute finished", "habits", len(habits), "changed", changed)
	return changed, nil
}

func containsDay(days []day.Day, target day.Day) bool {
	for _, d := range days {
		if d.Equal(target) {
			return true
		}
	}
	return false
}

func reverse(days []day.Day) {
	for i, j := 0, len(days)-1; i < j; i, j = i+1, j-1 {
		days[i], days[j] = days[j], days[i]
	}
}
