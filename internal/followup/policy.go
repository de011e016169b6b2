// Package followup implements the follow-up lifecycle: the due-date policy, the
// status state machine, message composition and the due listings.
package followup

import (
	"time"

	"github.com/jonathan/jobtrail/internal/types"
)

// Follow-up cadence in days per job status.
const (
	AppliedOffsetDays   = 7
	ScreeningOffsetDays = 5
	InterviewOffsetDays = 2
	DefaultOffsetDays   = 14
)

// OffsetDays returns the follow-up cadence for status. Statuses without a tighter
// cadence, including unknown values, use DefaultOffsetDays.
func OffsetDays(status types.JobStatus) int {
	switch status {
	case types.JobStatusApplied:
		return AppliedOffsetDays
	case types.JobStatusScreening:
		return ScreeningOffsetDays
	case types.JobStatusInterview:
		return InterviewOffsetDays
	default:
		return DefaultOffsetDays
	}
}

// NextDate returns when a follow-up for a job in status becomes due, counted from now.
func NextDate(status types.JobStatus) time.Time {
	return NextDateFrom(time.Now(), status)
}

// NextDateFrom is NextDate with an explicit reference time.
func NextDateFrom(now time.Time, status types.JobStatus) time.Time {
	return now.AddDate(0, 0, OffsetDays(status))
}
