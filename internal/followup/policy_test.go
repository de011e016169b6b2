package followup

import (
	"testing"
	"time"

	"github.com/jonathan/jobtrail/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestNextDateFrom(t *testing.T) {
	now := time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC)
	tests := []struct {
		status types.JobStatus
		days   int
	}{
		{types.JobStatusApplied, 7},
		{types.JobStatusScreening, 5},
		{types.JobStatusInterview, 2},
		{types.JobStatusWishlist, 14},
		{types.JobStatusOffer, 14},
		{types.JobStatusRejected, 14},
		{types.JobStatusWithdrawn, 14},
		{types.JobStatus("unknown"), 14},
		{types.JobStatus(""), 14},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, now.AddDate(0, 0, tt.days), NextDateFrom(now, tt.status))
		})
	}
}

func TestNextDate_UsesCurrentTime(t *testing.T) {
	before := time.Now()
	got := NextDate(types.JobStatusApplied)
	after := time.Now()

	assert.False(t, got.Before(before.AddDate(0, 0, 7)))
	assert.False(t, got.After(after.AddDate(0, 0, 7)))
	assert.WithinDuration(t, NextDate(types.JobStatusWishlist), NextDate("unknown"), time.Second)
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to types.FollowUpStatus
		want     bool
	}{
		{types.FollowUpPending, types.FollowUpSent, true},
		{types.FollowUpPending, types.FollowUpSnoozed, true},
		{types.FollowUpPending, types.FollowUpDismissed, true},
		{types.FollowUpSnoozed, types.FollowUpSent, true},
		{types.FollowUpSnoozed, types.FollowUpDismissed, true},
		{types.FollowUpSnoozed, types.FollowUpPending, true},
		{types.FollowUpSnoozed, types.FollowUpSnoozed, true},
		{types.FollowUpDismissed, types.FollowUpDismissed, true},
		{types.FollowUpDismissed, types.FollowUpSent, false},
		{types.FollowUpDismissed, types.FollowUpPending, false},
		{types.FollowUpSent, types.FollowUpSent, false},
		{types.FollowUpSent, types.FollowUpDismissed, false},
		{types.FollowUpSent, types.FollowUpSnoozed, false},
		{types.FollowUpPending, types.FollowUpPending, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func TestRelativeDue(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		date time.Time
		want string
	}{
		{"three days late", now.Add(-72 * time.Hour), "Overdue by 3 days"},
		{"an hour late", now.Add(-time.Hour), "Overdue by 1 days"},
		{"later today", now.Add(2 * time.Hour), "Today"},
		{"tomorrow", now.Add(30 * time.Hour), "Tomorrow"},
		{"in five days", now.AddDate(0, 0, 5), "In 5 days"},
		{"one week", now.AddDate(0, 0, 7), "In 1 week"},
		{"two weeks", now.AddDate(0, 0, 10), "In 2 weeks"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RelativeDue(tt.date, now))
		})
	}
}
