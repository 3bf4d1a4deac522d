package services

import (
	"context"
	"math"
	"sort"

	"github.com/google/uuid"

	"habitsAPI/internal/storage"
	"habitsAPI/internal/types/habit"
	"habitsAPI/internal/types/leaderboard"
	"habitsAPI/internal/types/user"
)

type LeaderboardService struct {
	store  storage.Store
	habits *HabitService
}

func NewLeaderboardService(store storage.Store, habits *HabitService) *LeaderboardService {
	return &LeaderboardService{store: store, habits: habits}
}

func (s *LeaderboardService) GetGlobalLeaderboard(ctx context.Context, callerID uuid.UUID) (*leaderboard.Leaderboard, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	habits, err := s.store.ListAllHabits(ctx)
	if err != nil {
		return nil, err
	}
	return s.build(ctx, callerID, users, habits)
}

// GetFriendsLeaderboard ranks the caller together with their accepted friends.
func (s *LeaderboardService) GetFriendsLeaderboard(ctx context.Context, callerID uuid.UUID) (*leaderboard.Leaderboard, error) {
	friends, err := s.store.ListFriends(ctx, callerID)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(friends)+1)
	ids = append(ids, callerID)
	for _, f := range friends {
		ids = append(ids, f.ID)
	}

	users, err := s.store.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	habits, err := s.store.ListHabitsByOwners(ctx, ids)
	if err != nil {
		return nil, err
	}
	return s.build(ctx, callerID, users, habits)
}

func (s *LeaderboardService) build(ctx context.Context, callerID uuid.UUID, users []*user.User, habits []*habit.Habit) (*leaderboard.Leaderboard, error) {
	refreshed, err := s.habits.RefreshHabits(ctx, habits)
	if err != nil {
		return nil, err
	}

	byOwner := make(map[uuid.UUID][]*habit.WithStatus)
	for _, h := range refreshed {
		byOwner[h.UserID] = append(byOwner[h.UserID], h)
	}

	entries := make([]*leaderboard.LeaderboardEntry, 0, len(users))
	for _, u := range users {
		owned := byOwner[u.ID]
		if len(owned) == 0 {
			continue
		}

		total := 0
		for _, h := range owned {
			total += h.CurrentStreak
		}

		entries = append(entries, &leaderboard.LeaderboardEntry{
			UserID:       u.ID,
			Username:     u.Username,
			ImageURL:     u.ImageURL,
			TotalStreaks: total,
			TotalHabits:  len(owned),
			AvgStreak:    round2(float64(total) / float64(len(owned))),
		})
	}

	Rank(entries)

	var position *leaderboard.LeaderboardEntry
	for _, e := range entries {
		if e.UserID == callerID {
			position = e
			break
		}
	}

	return &leaderboard.Leaderboard{
		Entries:      entries,
		UserPosition: position,
		TotalUsers:   len(entries),
	}, nil
}

// Rank sorts entries by average streak, then total streaks, then username, and
// assigns dense ranks: equal (average, total) pairs share a rank.
func Rank(entries []*leaderboard.LeaderboardEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.AvgStreak != b.AvgStreak {
			return a.AvgStreak > b.AvgStreak
		}
		if a.TotalStreaks != b.TotalStreaks {
			return a.TotalStreaks > b.TotalStreaks
		}
		return a.Username < b.Username
	})

	rank := 0
	for i, e := range entries {
		if i == 0 || e.AvgStreak != entries[i-1].AvgStreak || e.TotalStreaks != entries[i-1].TotalStreaks {
			rank++
		}
		e.Rank = rank
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
