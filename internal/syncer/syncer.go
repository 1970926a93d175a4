// Package syncer imports events from external calendars into the store and
// optionally publishes the store to a CalDAV calendar.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"fora/internal/models"
	"fora/internal/storage"
)

// Source is an external calendar events are imported from.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]models.Event, error)
}

// Publisher writes events to an external calendar.
type Publisher interface {
	Publish(ctx context.Context, ev models.Event) error
}

// EventStore is the part of the store the syncer needs.
type EventStore interface {
	Events() []models.Event
	Import(ctx context.Context, events []models.Event) ([]models.Event, error)
}

// SourceState is the bookkeeping of one source.
type SourceState struct {
	LastSync  time.Time `json:"lastSync"`
	Imported  int       `json:"imported"`
	LastError string    `json:"lastError,omitempty"`
}

// SyncState keeps track of what has been synced.
// Published maps a Fora event id to the UID it was published under.
type SyncState struct {
	Sources   map[string]SourceState `json:"sources"`
	Published map[string]string      `json:"published"`
}

func newState() SyncState {
	return SyncState{Sources: map[string]SourceState{}, Published: map[string]string{}}
}

// Report summarizes one sync cycle.
type Report struct {
	Fetched   int      `json:"fetched"`
	Imported  int      `json:"imported"`
	Published int      `json:"published"`
	Failed    []string `json:"failed,omitempty"`
}

// Syncer runs sync cycles.
type Syncer struct {
	logger    *slog.Logger
	storage   storage.Storage
	store     EventStore
	sources   []Source
	publisher Publisher
	uid       func(models.Event) string
	dryRun    bool
	now       func() time.Time
	state     SyncState
}

// Option configures a Syncer.
type Option func(*Syncer)

// WithPublisher publishes every event not published yet at the end of each
// cycle. uid names the event on the remote side.
func WithPublisher(p Publisher, uid func(models.Event) string) Option {
	return func(s *Syncer) {
		s.publisher = p
		s.uid = uid
	}
}

// WithDryRun logs what would change without touching the store, the
// publisher or the sync state.
func WithDryRun(dryRun bool) Option {
	return func(s *Syncer) { s.dryRun = dryRun }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Syncer) { s.now = now }
}

// NewSyncer creates a Syncer and loads its state from storage.
func NewSyncer(ctx context.Context, logger *slog.Logger, st storage.Storage, events EventStore, sources []Source, opts ...Option) (*Syncer, error) {
	s := &Syncer{
		logger:  logger,
		storage: st,
		store:   events,
		sources: sources,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	state := newState()
	err := storage.GetJSON(ctx, st, storage.KeySyncState, &state)
	switch {
	case err == nil:
		if state.Sources == nil {
			state.Sources = map[string]SourceState{}
		}
		if state.Published == nil {
			state.Published = map[string]string{}
		}
	case errors.Is(err, storage.ErrNotFound):
		logger.Info("No sync state found, starting fresh.")
		state = newState()
	case errors.Is(err, storage.ErrMalformed):
		logger.Warn("Sync state is malformed, starting fresh.", "error", err)
		state = newState()
	default:
		return nil, fmt.Errorf("failed to load sync state: %w", err)
	}
	s.state = state
	return s, nil
}

// State returns a copy of the sync bookkeeping.
func (s *Syncer) State() SyncState {
	out := newState()
	for k, v := range s.state.Sources {
		out.Sources[k] = v
	}
	for k, v := range s.state.Published {
		out.Published[k] = v
	}
	return out
}

// Sync performs a full synchronization cycle. A failing source is logged and
// skipped; the other sources are still imported.
func (s *Syncer) Sync(ctx context.Context) (Report, error) {
	s.logger.Info("Starting sync cycle.", "sources", len(s.sources), "dryRun", s.dryRun)
	var report Report

	for _, src := range s.sources {
		name := src.Name()
		st := s.state.Sources[name]
		st.LastSync = s.now()

		events, err := src.Fetch(ctx)
		if err != nil {
			s.logger.Error("Could not fetch events from a source.", "source", name, "error", err)
			st.LastError = err.Error()
			s.state.Sources[name] = st
			report.Failed = append(report.Failed, name)
			continue
		}
		report.Fetched += len(events)

		if s.dryRun {
			s.logger.Info("[DRY RUN] Would import events.", "source", name, "count", len(events))
			continue
		}

		added, err := s.store.Import(ctx, events)
		if err != nil {
			return report, fmt.Errorf("failed to import events from %s: %w", name, err)
		}
		st.Imported += len(added)
		st.LastError = ""
		s.state.Sources[name] = st
		report.Imported += len(added)
		s.logger.Info("Imported events from source.", "source", name, "fetched", len(events), "new", len(added))
	}

	if s.publisher != nil {
		report.Published = s.publish(ctx)
	}

	if !s.dryRun {
		if err := storage.SetJSON(ctx, s.storage, storage.KeySyncState, s.state); err != nil {
			s.logger.Error("Failed to save sync state.", "error", err)
		}
	}

	s.logger.Info("Sync cycle finished.", "fetched", report.Fetched, "imported", report.Imported, "published", report.Published)
	return report, nil
}

// publish sends every event that has not been published yet. Updates to
// already published events are not propagated.
func (s *Syncer) publish(ctx context.Context) int {
	count := 0
	for _, ev := range s.store.Events() {
		key := strconv.Itoa(ev.ID)
		if _, done := s.state.Published[key]; done {
			continue
		}
		uid := s.uid(ev)
		if s.dryRun {
			s.logger.Info("[DRY RUN] Would publish event.", "title", ev.Title, "date", ev.Date)
			continue
		}
		if err := s.publisher.Publish(ctx, ev); err != nil {
			s.logger.Error("Failed to publish event.", "title", ev.Title, "error", err)
			continue
		}
		s.state.Published[key] = uid
		count++
	}
	return count
}

// Watch runs a cycle immediately and then every interval until ctx is done.
func (s *Syncer) Watch(ctx context.Context, interval time.Duration) error {
	s.logger.Info("Starting watcher.", "interval", interval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if _, err := s.Sync(ctx); err != nil {
			s.logger.Error("Sync cycle failed.", "error", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
