// Package streak derives habit statistics from the set of days a habit was completed.
package streak

import (
	"sort"

	"habitsAPI/internal/day"
)

// Stats are the derived statistics of one habit. They are never authored directly.
type Stats struct {
	CurrentStreak    int `json:"current_streak"`
	LongestStreak    int `json:"longest_streak"`
	TotalCompletions int `json:"total_completions"`
}

// Milestones are the current-streak lengths that trigger a notification.
var Milestones = []int{7, 30, 100, 365}

// Compute recomputes statistics from the full list of completed days.
//
// CurrentStreak counts consecutive completed days ending today; if today is not
// completed it is 0 regardless of earlier runs. LongestStreak never drops below
// previousLongest.
func Compute(days []day.Day, today day.Day, previousLongest int) Stats {
	unique := distinct(days)

	sort.Slice(unique, func(i, j int) bool { return unique[i].After(unique[j]) })

	current := 0
	expected := today
	for _, d := range unique {
		if d.After(today) {
			continue
		}
		if !d.Equal(expected) {
			break
		}
		current++
		expected = expected.AddDays(-1)
	}

	longest := previousLongest
	if current > longest {
		longest = current
	}

	return Stats{
		CurrentStreak:    current,
		LongestStreak:    longest,
		TotalCompletions: len(unique),
	}
}

// LongestRun returns the length of the longest run of consecutive days anywhere in days.
func LongestRun(days []day.Day) int {
	unique := distinct(days)
	if len(unique) == 0 {
		return 0
	}

	sort.Slice(unique, func(i, j int) bool { return unique[i].Before(unique[j]) })

	longest, run := 1, 1
	for i := 1; i < len(unique); i++ {
		if unique[i].Equal(unique[i-1].AddDays(1)) {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}
	return longest
}

// Milestone reports the milestone reached when a habit moves from previous to
// next statistics. A milestone counts once per habit: the current streak must
// land on it and the previous longest streak must not have reached it.
func Milestone(previous, next Stats) (int, bool) {
	if next.CurrentStreak <= previous.CurrentStreak {
		return 0, false
	}
	for _, m := range Milestones {
		if next.CurrentStreak == m && previous.LongestStreak < m {
			return m, true
		}
	}
	return 0, false
}

func distinct(days []day.Day) []day.Day {
	seen := make(map[string]struct{}, len(days))
	out := make([]day.Day, 0, len(days))
	for _, d := range days {
		if d.IsZero() {
			continue
		}
		key := d.String()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, d)
	}
	return out
}
