package domain

import (
	"sort"
	"time"
)

type ProgressReport struct {
	ChallengeID      string          `json:"challenge_id"`
	Status           ChallengeStatus `json:"status"`
	Progress         float64         `json:"progress"`
	TotalDue         int             `json:"total_due"`
	Completed        int             `json:"completed"`
	ConsistencyScore float64         `json:"consistency_score"`
	CurrentStreak    int             `json:"current_streak"`
	LongestStreak    int             `json:"longest_streak"`
	DaysElapsed      int             `json:"days_elapsed"`
	DaysRemaining    int             `json:"days_remaining"`
	AsOf             string          `json:"as_of"`
}

// CalculateProgress derives the metrics of c as of today from its DailyTasks.
// Only tasks dated from the start date through min(today, last day) count.
func CalculateProgress(c *Challenge, dailyTasks []*DailyTask, today time.Time) ProgressReport {
	day := Day(today)
	report := ProgressReport{
		ChallengeID:   c.ID,
		Status:        c.Status,
		AsOf:          DateKey(day),
		DaysRemaining: c.DurationDays,
	}

	if c.StartDate == nil {
		return report
	}
	start := *c.StartDate

	windowEnd := day
	if last, ok := c.LastDay(); ok && last.Before(windowEnd) {
		windowEnd = last
	}
	if c.EndDate != nil {
		report.DaysRemaining = max(0, DaysBetween(day, *c.EndDate))
	}
	if windowEnd.Before(start) {
		return report
	}

	completedDays := make(map[string]bool)
	for _, dt := range dailyTasks {
		d := Day(dt.Date)
		if d.Before(start) || d.After(windowEnd) {
			continue
		}
		report.TotalDue++
		if dt.Status == DailyCompleted {
			report.Completed++
			completedDays[DateKey(d)] = true
		}
	}

	if report.TotalDue > 0 {
		report.Progress = clamp01(float64(report.Completed) / float64(report.TotalDue))
	}

	report.DaysElapsed = DaysBetween(start, windowEnd) + 1
	report.ConsistencyScore = float64(len(completedDays)) / float64(report.DaysElapsed) * 100

	days := make([]time.Time, 0, len(completedDays))
	for key := range completedDays {
		d, _ := ParseDate(key)
		days = append(days, d)
	}
	report.CurrentStreak, report.LongestStreak = CalculateStreaks(days, windowEnd)

	return report
}

// CalculateStreaks returns the current and the longest run of consecutive
// calendar days in days. The current streak is still alive when its last
// day is asOf or the day before it.
func CalculateStreaks(days []time.Time, asOf time.Time) (int, int) {
	if len(days) == 0 {
		return 0, 0
	}

	unique := make(map[string]bool)
	var sorted []time.Time
	for _, d := range days {
		key := DateKey(d)
		if !unique[key] {
			unique[key] = true
			sorted = append(sorted, Day(d))
		}
	}

	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].After(sorted[j])
	})

	current := 0
	if DaysBetween(sorted[0], asOf) <= 1 {
		current = 1
		for i := 0; i < len(sorted)-1; i++ {
			if DaysBetween(sorted[i+1], sorted[i]) != 1 {
				break
			}
			current++
		}
	}

	longest, run := 0, 1
	for i := 0; i < len(sorted)-1; i++ {
		if DaysBetween(sorted[i+1], sorted[i]) == 1 {
			run++
			continue
		}
		longest = max(longest, run)
		run = 1
	}
	longest = max(longest, run)

	return current, longest
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
