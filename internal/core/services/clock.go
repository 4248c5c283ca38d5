package services

import (
	"time"

	"github.com/comitanigiacomo/kanso-challenge-engine/internal/core/domain"
)

// Clock tells the services what "today" is. Calendar days are taken in Location.
type Clock struct {
	Now      func() time.Time
	Location *time.Location
}

func SystemClock(loc *time.Location) Clock {
	if loc == nil {
		loc = time.UTC
	}
	return Clock{Now: time.Now, Location: loc}
}

func FixedClock(t time.Time) Clock {
	return Clock{
		Now:      func() time.Time { return t },
		Location: time.UTC,
	}
}

func (c Clock) Today() time.Time {
	return c.TodayIn(c.Location)
}

// TodayIn is the calendar day of now in loc; nil means the clock's own zone.
func (c Clock) TodayIn(loc *time.Location) time.Time {
	if loc == nil {
		loc = c.Location
	}
	return domain.Day(c.Now().In(loc))
}
