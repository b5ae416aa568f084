package models

import (
	"math"
	"time"
)

// Status is the urgency bucket of a subscription. It is derived, never stored as truth.
type Status string

const (
	StatusSafe    Status = "safe"
	StatusWarning Status = "warning"
	StatusUrgent  Status = "urgent"
)

// DefaultReminderDays is the warning window used when a session has no usable setting.
const DefaultReminderDays = 3

const day = 24 * time.Hour

// DaysUntil returns the whole number of days from now until t, rounding partial days up.
// A deadline one hour away counts as one day; a deadline one hour past counts as zero.
func DaysUntil(t, now time.Time) int {
	return int(math.Ceil(float64(t.Sub(now)) / float64(day)))
}

// DeriveStatus maps a cancel-by date and reminder window to a Status at instant now.
func DeriveStatus(cancelByDate *time.Time, reminderDays int, now time.Time) Status {
	if cancelByDate == nil {
		return StatusSafe
	}
	if reminderDays <= 0 {
		reminderDays = DefaultReminderDays
	}

	daysUntil := DaysUntil(*cancelByDate, now)
	switch {
	case daysUntil <= 1:
		return StatusUrgent
	case daysUntil <= reminderDays:
		return StatusWarning
	default:
		return StatusSafe
	}
}
