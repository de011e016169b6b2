// Package analytics derives pipeline statistics from jobs and follow-ups.
package analytics

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/jobtrail/internal/store"
	"github.com/jonathan/jobtrail/internal/types"
)

// WeekWindow is how far back ByWeek looks.
const WeekWindow = 8 * 7 * 24 * time.Hour

// Counts maps a label to a count.
type Counts map[string]int

// Report summarizes one owner's pipeline. Rates are whole percentages.
type Report struct {
	TotalApplications int    `json:"totalApplications"`
	ResponseRate      int    `json:"responseRate"`
	ConversionRate    int    `json:"conversionRate"`
	PendingFollowUps  int    `json:"pendingFollowUps"`
	SentFollowUps     int    `json:"sentFollowUps"`
	ByStatus          Counts `json:"byStatus"`
	ByWeek            Counts `json:"byWeek"`
}

// Compute builds a report. A job has responded once it reached screening, interview or
// offer; it converted at interview or offer. PendingFollowUps counts overdue pending
// follow-ups only.
func Compute(jobs []types.Job, fus []types.FollowUp, now time.Time) Report {
	r := Report{
		TotalApplications: len(jobs),
		ByStatus:          Counts{},
		ByWeek:            Counts{},
	}

	responded, converted := 0, 0
	since := now.Add(-WeekWindow)
	for _, j := range jobs {
		r.ByStatus[string(j.Status)]++
		switch j.Status {
		case types.JobStatusInterview, types.JobStatusOffer:
			converted++
			responded++
		case types.JobStatusScreening:
			responded++
		}
		if !j.CreatedAt.Before(since) {
			r.ByWeek[WeekLabel(j.CreatedAt)]++
		}
	}
	r.ResponseRate = percent(responded, len(jobs))
	r.ConversionRate = percent(converted, responded)

	for _, fu := range fus {
		switch {
		case fu.Status == types.FollowUpSent:
			r.SentFollowUps++
		case fu.Status == types.FollowUpPending && fu.ScheduledDate.Before(now):
			r.PendingFollowUps++
		}
	}
	return r
}

// WeekLabel returns "<year>-W<n>" where n is ceil(day of month / 7), in UTC.
// This is not an ISO week: it restarts every month.
func WeekLabel(t time.Time) string {
	t = t.UTC()
	week := (t.Day() + 6) / 7
	return fmt.Sprintf("%d-W%d", t.Year(), week)
}

func percent(part, whole int) int {
	if whole == 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(whole) * 100))
}

// Service computes reports from storage.
type Service struct {
	store *store.Store
	now   func() time.Time
}

// NewService creates an analytics service. A nil now uses time.Now.
func NewService(st *store.Store, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{store: st, now: now}
}

// Report loads the owner's jobs and follow-ups and computes their report.
func (s *Service) Report(ctx context.Context, owner uuid.UUID) (Report, error) {
	jobs, err := s.store.Jobs.Query(ctx, owner, store.JobFilter{})
	if err != nil {
		return Report{}, fmt.Errorf("failed to load jobs: %w", err)
	}
	fus, err := s.store.FollowUps.Query(ctx, owner, store.FollowUpFilter{
		Statuses: []types.FollowUpStatus{types.FollowUpPending, types.FollowUpSent},
	})
	if err != nil {
		return Report{}, fmt.Errorf("failed to load follow-ups: %w", err)
	}
	return Compute(jobs, fus, s.now()), nil
}
