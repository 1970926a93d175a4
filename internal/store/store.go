// Package store holds the app state: the ordered event list and the session.
// Every mutation persists the full serialized state before it becomes visible.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"fora/internal/models"
	"fora/internal/storage"
)

var ErrEventNotFound = errors.New("event not found")

// Store is the in-memory ordered event list backed by a storage service.
type Store struct {
	mu      sync.Mutex
	storage storage.Storage
	logger  *slog.Logger
	seed    []models.Event
	events  []models.Event
}

// Option configures a Store.
type Option func(*Store)

// WithSeed replaces the events used when storage holds no list yet.
// A nil seed starts empty.
func WithSeed(events []models.Event) Option {
	return func(s *Store) { s.seed = events }
}

// New creates a store seeded with the sample events. Call Hydrate before use.
func New(st storage.Storage, logger *slog.Logger, opts ...Option) *Store {
	s := &Store{
		storage: st,
		logger:  logger,
		seed:    SampleEvents(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.events = cloneEvents(s.seed)
	return s
}

// Hydrate loads the event list from storage.
// A missing key keeps the seed list. A malformed value is logged and also keeps
// the seed list; the stored value is left as is until the next mutation.
func (s *Store) Hydrate(ctx context.Context) error {
	var events []models.Event
	err := storage.GetJSON(ctx, s.storage, storage.KeyEvents, &events)

	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case err == nil:
		if events == nil {
			events = []models.Event{}
		}
		s.events = events
		s.logger.Debug("Hydrated events from storage.", "count", len(events))
	case errors.Is(err, storage.ErrNotFound):
		s.events = cloneEvents(s.seed)
		s.logger.Info("No stored events found, starting from seed list.", "count", len(s.events))
	case errors.Is(err, storage.ErrMalformed):
		s.events = cloneEvents(s.seed)
		s.logger.Warn("Stored events are malformed, ignoring them.", "error", err)
	default:
		return fmt.Errorf("failed to load events: %w", err)
	}
	return nil
}

// Events returns a copy of the list in insertion order.
func (s *Store) Events() []models.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneEvents(s.events)
}

// Event returns the event with the given id.
func (s *Store) Event(id int) (models.Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexOf(id); i >= 0 {
		return cloneEvent(s.events[i]), true
	}
	return models.Event{}, false
}

// Add validates the payload, assigns max(ids, 0)+1 and appends the event.
func (s *Store) Add(ctx context.Context, ne models.NewEvent) (models.Event, error) {
	if err := ne.Validate(); err != nil {
		return models.Event{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ev := ne.Event(nextID(s.events))
	updated := append(cloneEvents(s.events), ev)
	if err := s.persist(ctx, updated); err != nil {
		return models.Event{}, err
	}
	s.events = updated

	s.logger.Info("Added event.", "id", ev.ID, "title", ev.Title, "type", ev.Type)
	return cloneEvent(ev), nil
}

// ToggleCompletion flips the completed flag of the event with the given id.
// The list is persisted even when no event matches; found reports whether one did.
func (s *Store) ToggleCompletion(ctx context.Context, id int) (ev models.Event, found bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	updated := cloneEvents(s.events)
	if i := s.indexOf(id); i >= 0 {
		updated[i].Completed = models.BoolPtr(!updated[i].IsCompleted())
		ev, found = updated[i], true
	}
	if err := s.persist(ctx, updated); err != nil {
		return models.Event{}, false, err
	}
	s.events = updated

	if found {
		s.logger.Info("Toggled event completion.", "id", id, "completed", ev.IsCompleted())
	} else {
		s.logger.Debug("Toggle for unknown event ignored.", "id", id)
	}
	return cloneEvent(ev), found, nil
}

// Import appends events from an external source, giving each a fresh id.
// Events whose (source, externalId) pair is already present are skipped.
// It returns the events that were added.
func (s *Store) Import(ctx context.Context, incoming []models.Event) ([]models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]bool)
	for _, ev := range s.events {
		if ev.ExternalID != "" {
			seen[importKey(ev)] = true
		}
	}

	updated := cloneEvents(s.events)
	var added []models.Event
	for _, ev := range incoming {
		if ev.ExternalID != "" {
			if seen[importKey(ev)] {
				continue
			}
			seen[importKey(ev)] = true
		}
		ev = cloneEvent(ev)
		ev.ID = nextID(updated)
		updated = append(updated, ev)
		added = append(added, ev)
	}
	if len(added) == 0 {
		return nil, nil
	}

	if err := s.persist(ctx, updated); err != nil {
		return nil, err
	}
	s.events = updated

	s.logger.Info("Imported events.", "count", len(added))
	return cloneEvents(added), nil
}

// persist must be called with mu held.
func (s *Store) persist(ctx context.Context, events []models.Event) error {
	if err := storage.SetJSON(ctx, s.storage, storage.KeyEvents, events); err != nil {
		return fmt.Errorf("failed to persist events: %w", err)
	}
	return nil
}

func (s *Store) indexOf(id int) int {
	return slices.IndexFunc(s.events, func(ev models.Event) bool { return ev.ID == id })
}

func nextID(events []models.Event) int {
	maxID := 0
	for _, ev := range events {
		maxID = max(maxID, ev.ID)
	}
	return maxID + 1
}

func importKey(ev models.Event) string {
	return ev.Source + "\x00" + ev.ExternalID
}
