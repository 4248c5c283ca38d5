package domain

import (
	"sort"
	"time"
)

// PlanDailyTasks returns the DailyTasks that must be created for date so
// that every due task of every running challenge has exactly one instance.
// Challenges must carry their Tasks. existing holds the DailyTasks already
// stored for date; planning against the result again yields nothing.
func PlanDailyTasks(challenges []*Challenge, existing []*DailyTask, date time.Time) []*DailyTask {
	day := Day(date)

	covered := make(map[string]bool, len(existing))
	for _, dt := range existing {
		covered[dt.Key()] = true
	}

	var planned []*DailyTask
	for _, c := range challenges {
		if c.IsDeleted || !c.IsActiveOn(day) {
			continue
		}

		tasks := make([]*Task, 0, len(c.Tasks))
		for _, t := range c.Tasks {
			if !t.IsDeleted {
				tasks = append(tasks, t)
			}
		}
		sort.SliceStable(tasks, func(i, j int) bool {
			return tasks[i].Position < tasks[j].Position
		})

		for _, t := range tasks {
			if !t.IsDueOn(*c.StartDate, day) {
				continue
			}
			key := DailyTaskKey(t.ID, day)
			if covered[key] {
				continue
			}
			covered[key] = true
			planned = append(planned, NewDailyTask(t, c.UserID, day))
		}
	}

	return planned
}
