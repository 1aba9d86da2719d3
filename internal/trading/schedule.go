// Package trading provides the position/order state machine driven by the
// simulation engine, together with its trading-schedule gate.
package trading

import (
	"time"

	errs "neat-trader/internal/errors"
	"neat-trader/internal/models"
)

// IsTradable reports whether the schedule permits trading at the given
// weekday (time.Weekday numbering, Sunday = 0) and local hour. Out-of-range
// indices fail loudly; they are never silently mapped to another day.
func IsTradable(weekday, hour int, schedule models.Schedule) (bool, error) {
	if weekday < 0 || weekday >= len(schedule) {
		return false, errs.NewConfigurationError("weekday", weekday, "weekday index out of range")
	}
	if hour < 0 || hour >= models.HoursPerDay {
		return false, errs.NewConfigurationError("hour", hour, "hour index out of range")
	}
	return schedule[weekday][hour], nil
}

// IsTradableAt reports whether the schedule permits trading at the given
// timestamp. Indices derived from a time.Time are always in range.
func IsTradableAt(t time.Time, schedule models.Schedule) bool {
	ok, err := IsTradable(int(t.Weekday()), t.Hour(), schedule)
	if err != nil {
		return false
	}
	return ok
}
