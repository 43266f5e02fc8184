package rental

import (
	"math"
	"time"
)

// DueStatus classifies a rental's urgency from its days-until-due:
// overdue below zero, due soon at zero or one, on track above one.
type DueStatus string

const (
	DueOverdue DueStatus = "OVERDUE"
	DueSoon    DueStatus = "DUE_SOON"
	DueOnTrack DueStatus = "ON_TRACK"
)

// DaysUntilDue returns ceil(due - now) in calendar days. Negative means
// overdue by that many days, zero means due today.
func DaysUntilDue(due, now time.Time) int {
	return int(math.Ceil(due.Sub(now).Hours() / 24))
}

func ClassifyDue(daysLeft int) DueStatus {
	switch {
	case daysLeft < 0:
		return DueOverdue
	case daysLeft <= 1:
		return DueSoon
	default:
		return DueOnTrack
	}
}
