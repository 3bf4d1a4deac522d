package leaderboard

import "github.com/google/uuid"

type LeaderboardEntry struct {
	UserID       uuid.UUID `json:"user_id"`
	Username     string    `json:"username"`
	ImageURL     string    `json:"image_url,omitempty"`
	TotalStreaks int       `json:"total_streaks"`
	TotalHabits  int       `json:"total_habits"`
	AvgStreak    float64   `json:"avg_streak"`
	Rank         int       `json:"rank"`
}

type Leaderboard struct {
	Entries      []*LeaderboardEntry `json:"entries"`
	UserPosition *LeaderboardEntry   `json:"user_position"`
	TotalUsers   int                 `json:"total_users"`
}
