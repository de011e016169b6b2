package followup

import (
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/jonathan/jobtrail/internal/types"
)

// Partition splits follow-ups into overdue (pending, scheduled before now) and
// upcoming (pending, scheduled at or after now), each sorted by scheduled_date asc.
// Follow-ups in any other status, snoozed included, are in neither list.
func Partition(fus []types.FollowUp, now time.Time) (overdue, upcoming []types.FollowUp) {
	overdue, upcoming = []types.FollowUp{}, []types.FollowUp{}
	for _, fu := range fus {
		if fu.Status != types.FollowUpPending {
			continue
		}
		if fu.ScheduledDate.Before(now) {
			overdue = append(overdue, fu)
		} else {
			upcoming = append(upcoming, fu)
		}
	}
	sortByScheduled(overdue)
	sortByScheduled(upcoming)
	return overdue, upcoming
}

// ActiveDate returns the earliest scheduled_date among pending or snoozed follow-ups.
func ActiveDate(fus []types.FollowUp) *time.Time {
	var out *time.Time
	for _, fu := range fus {
		if fu.Status != types.FollowUpPending && fu.Status != types.FollowUpSnoozed {
			continue
		}
		if out == nil || fu.ScheduledDate.Before(*out) {
			d := fu.ScheduledDate
			out = &d
		}
	}
	return out
}

// RelativeDue describes date relative to now in whole days, e.g. "Tomorrow" or "Overdue by 3 days".
func RelativeDue(date, now time.Time) string {
	days := int(math.Floor(date.Sub(now).Hours() / 24))
	switch {
	case days < 0:
		return fmt.Sprintf("Overdue by %d days", -days)
	case days == 0:
		return "Today"
	case days == 1:
		return "Tomorrow"
	case days < 7:
		return fmt.Sprintf("In %d days", days)
	}
	weeks := int(math.Ceil(float64(days) / 7))
	if weeks > 1 {
		return fmt.Sprintf("In %d weeks", weeks)
	}
	return "In 1 week"
}

func sortByScheduled(fus []types.FollowUp) {
	slices.SortStableFunc(fus, func(a, b types.FollowUp) int {
		return a.ScheduledDate.Compare(b.ScheduledDate)
	})
}
