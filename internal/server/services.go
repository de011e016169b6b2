package server

import (
	"time"

	"github.com/jonathan/jobtrail/internal/analytics"
	"github.com/jonathan/jobtrail/internal/contacts"
	"github.com/jonathan/jobtrail/internal/followup"
	"github.com/jonathan/jobtrail/internal/locks"
	"github.com/jonathan/jobtrail/internal/pipeline"
	"github.com/jonathan/jobtrail/internal/snapshot"
	"github.com/jonathan/jobtrail/internal/store"
	"github.com/jonathan/jobtrail/internal/templates"
	"github.com/rs/zerolog"
)

// Services bundles the core operations the HTTP surface and CLI call into.
type Services struct {
	Pipeline  *pipeline.Service
	FollowUps *followup.Service
	Contacts  *contacts.Service
	Templates *templates.Catalog
	Analytics *analytics.Service
	Snapshot  *snapshot.Service
}

// Wiring carries the collaborators shared by the services. Zero values fall back
// to each service's defaults.
type Wiring struct {
	Clock         func() time.Time
	Logger        zerolog.Logger
	Sender        followup.Sender
	Lookup        contacts.CompanyLookup
	Concurrency   int
	LookupTimeout time.Duration
	RecentLimit   int
}

// NewServices builds every service over st. Pipeline, follow-up and contact writes
// share one lock set so job and contact mutations never interleave.
func NewServices(st *store.Store, w Wiring) *Services {
	now := w.Clock
	if now == nil {
		now = time.Now
	}
	keyed := locks.New()

	catalog := templates.NewCatalog(st.Templates, templates.WithLogger(w.Logger))

	fuOpts := []followup.Option{
		followup.WithClock(now),
		followup.WithLogger(w.Logger.With().Str("component", "followup").Logger()),
		followup.WithLocks(keyed),
		followup.WithRecentLimit(w.RecentLimit),
	}
	if w.Sender != nil {
		fuOpts = append(fuOpts, followup.WithSender(w.Sender))
	}

	contactOpts := []contacts.Option{
		contacts.WithClock(now),
		contacts.WithLogger(w.Logger.With().Str("component", "contacts").Logger()),
		contacts.WithLocks(keyed),
		contacts.WithConcurrency(w.Concurrency),
		contacts.WithLookupTimeout(w.LookupTimeout),
	}
	if w.Lookup != nil {
		contactOpts = append(contactOpts, contacts.WithLookup(w.Lookup))
	}

	return &Services{
		Pipeline: pipeline.New(st,
			pipeline.WithClock(now),
			pipeline.WithLogger(w.Logger.With().Str("component", "pipeline").Logger()),
			pipeline.WithLocks(keyed),
		),
		FollowUps: followup.New(st, catalog, fuOpts...),
		Contacts:  contacts.New(st, contactOpts...),
		Templates: catalog,
		Analytics: analytics.NewService(st, now),
		Snapshot: snapshot.New(st,
			snapshot.WithClock(now),
			snapshot.WithLogger(w.Logger.With().Str("component", "snapshot").Logger()),
		),
	}
}
