package models

import "time"

// HoursPerDay is the length of each weekday mask in a Schedule.
const HoursPerDay = 24

// Schedule is a weekly availability mask: one 24-hour boolean sequence per
// weekday, indexed by local hour. Read-only after construction and safe to
// share by reference across traders. Weekday indexing follows time.Weekday
// (Sunday = 0).
type Schedule [7][HoursPerDay]bool

// AlwaysOpen returns a schedule with every hour of every day tradable.
func AlwaysOpen() Schedule {
	var s Schedule
	for d := range s {
		for h := range s[d] {
			s[d][h] = true
		}
	}
	return s
}

// WeekdaysOnly returns a schedule open Monday through Friday, all hours.
func WeekdaysOnly() Schedule {
	var s Schedule
	for d := time.Monday; d <= time.Friday; d++ {
		for h := 0; h < HoursPerDay; h++ {
			s[d][h] = true
		}
	}
	return s
}
