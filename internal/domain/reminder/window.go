// Package reminder decides which reminder window, if any, a renewal falls in.
package reminder

import (
	"time"

	"subtrack/internal/domain/constant"
	"subtrack/internal/domain/entity"
)

// Window is a named day offset before a renewal.
type Window struct {
	Kind       constant.ReminderType
	DaysBefore int
}

// Windows is the fixed, ordered set of reminder windows.
var Windows = []Window{
	{Kind: constant.ReminderSevenDay, DaysBefore: 7},
	{Kind: constant.ReminderThreeDay, DaysBefore: 3},
	{Kind: constant.ReminderOneDay, DaysBefore: 1},
	{Kind: constant.ReminderSameDay, DaysBefore: 0},
}

// Classification is the result of classifying one renewal.
type Classification struct {
	DaysUntilRenewal int
	Kind             constant.ReminderType
	// Due is false when the renewal is upcoming but matches no window.
	Due bool
}

// Overdue reports whether the renewal date has already passed.
func (c Classification) Overdue() bool {
	return c.Kind == constant.ReminderOverdue
}

// DaysBetween counts whole calendar days from today to renewal. Each argument
// is read as the calendar day it falls on in its own location, so the result
// is unaffected by DST shifts or time-of-day.
func DaysBetween(today, renewal time.Time) int {
	from := entity.CalendarDate(today)
	to := entity.CalendarDate(renewal)
	return int(to.Sub(from).Hours() / 24)
}

// Classify maps a renewal date to at most one window relative to today.
// Negative distances are overdue; distances with no matching window are not due.
func Classify(renewal, today time.Time) Classification {
	days := DaysBetween(today, renewal)
	if days < 0 {
		return Classification{DaysUntilRenewal: days, Kind: constant.ReminderOverdue}
	}
	for _, w := range Windows {
		if w.DaysBefore == days {
			return Classification{DaysUntilRenewal: days, Kind: w.Kind, Due: true}
		}
	}
	return Classification{DaysUntilRenewal: days}
}
