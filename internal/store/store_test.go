package store

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fora/internal/models"
	"fora/internal/storage"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// failingStorage rejects writes once failSet is true.
type failingStorage struct {
	*storage.Memory
	failSet bool
}

func (f *failingStorage) Set(ctx context.Context, key, value string) error {
	if f.failSet {
		return errors.New("disk full")
	}
	return f.Memory.Set(ctx, key, value)
}

func newStore(t *testing.T, seed []models.Event) (*Store, *storage.Memory) {
	t.Helper()
	mem := storage.NewMemory()
	s := New(mem, discardLogger, WithSeed(seed))
	require.NoError(t, s.Hydrate(context.Background()))
	return s, mem
}

func storedEvents(t *testing.T, st storage.Storage) []models.Event {
	t.Helper()
	var events []models.Event
	require.NoError(t, storage.GetJSON(context.Background(), st, storage.KeyEvents, &events))
	return events
}

func TestHydrate(t *testing.T) {
	ctx := context.Background()

	t.Run("missing key keeps the sample list", func(t *testing.T) {
		s := New(storage.NewMemory(), discardLogger)
		require.NoError(t, s.Hydrate(ctx))
		events := s.Events()
		require.Len(t, events, 5)
		assert.Equal(t, "Math Homework - Chapter 12", events[0].Title)
		assert.Equal(t, 101, events[4].ID)
	})

	t.Run("stored list wins", func(t *testing.T) {
		mem := storage.NewMemory()
		require.NoError(t, mem.Set(ctx, storage.KeyEvents, `[{"id":7,"title":"Essay","date":"2025-06-18","type":"task"}]`))
		s := New(mem, discardLogger)
		require.NoError(t, s.Hydrate(ctx))
		events := s.Events()
		require.Len(t, events, 1)
		assert.Equal(t, 7, events[0].ID)
	})

	t.Run("stored empty list stays empty", func(t *testing.T) {
		mem := storage.NewMemory()
		require.NoError(t, mem.Set(ctx, storage.KeyEvents, `[]`))
		s := New(mem, discardLogger)
		require.NoError(t, s.Hydrate(ctx))
		assert.Empty(t, s.Events())
	})

	t.Run("malformed value falls back without overwriting", func(t *testing.T) {
		mem := storage.NewMemory()
		require.NoError(t, mem.Set(ctx, storage.KeyEvents, `{broken`))
		s := New(mem, discardLogger)
		require.NoError(t, s.Hydrate(ctx))
		assert.Len(t, s.Events(), 5)

		raw, err := mem.Get(ctx, storage.KeyEvents)
		require.NoError(t, err)
		assert.Equal(t, `{broken`, raw)
	})
}

func TestAdd(t *testing.T) {
	ctx := context.Background()

	t.Run("first id on an empty list is 1", func(t *testing.T) {
		s, mem := newStore(t, nil)
		ev, err := s.Add(ctx, models.NewEvent{Title: "Essay", Date: "2025-06-18"})
		require.NoError(t, err)
		assert.Equal(t, 1, ev.ID)
		assert.Equal(t, models.TypeTask, ev.Type)
		assert.False(t, ev.IsCompleted())
		assert.Len(t, storedEvents(t, mem), 1)
	})

	t.Run("id is greater than every existing id", func(t *testing.T) {
		s, mem := newStore(t, SampleEvents())
		ev, err := s.Add(ctx, models.NewEvent{Title: "Party", Date: "2025-06-20", Type: models.TypeSocial})
		require.NoError(t, err)
		assert.Equal(t, 102, ev.ID)

		events := s.Events()
		require.Len(t, events, 6)
		assert.Equal(t, ev, events[5])
		for _, other := range events[:5] {
			assert.Less(t, other.ID, ev.ID)
		}
		assert.Equal(t, events, storedEvents(t, mem))
	})

	t.Run("invalid payload is rejected", func(t *testing.T) {
		s, mem := newStore(t, nil)
		_, err := s.Add(ctx, models.NewEvent{Title: "", Date: "tomorrow"})
		require.Error(t, err)
		assert.NotEmpty(t, models.FieldErrors(err))
		assert.Empty(t, s.Events())

		_, err = mem.Get(ctx, storage.KeyEvents)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("persist failure leaves the list untouched", func(t *testing.T) {
		fs := &failingStorage{Memory: storage.NewMemory()}
		s := New(fs, discardLogger, WithSeed(nil))
		require.NoError(t, s.Hydrate(ctx))

		fs.failSet = true
		_, err := s.Add(ctx, models.NewEvent{Title: "Essay", Date: "2025-06-18"})
		require.Error(t, err)
		assert.Empty(t, s.Events())
	})
}

func TestToggleCompletion(t *testing.T) {
	ctx := context.Background()
	s, mem := newStore(t, SampleEvents())

	ev, found, err := s.ToggleCompletion(ctx, 1)
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, ev.IsCompleted())

	ev, found, err = s.ToggleCompletion(ctx, 1)
	require.NoError(t, err)
	require.True(t, found)
	assert.False(t, ev.IsCompleted())

	// unset completion counts as false
	ev, _, err = s.ToggleCompletion(ctx, 100)
	require.NoError(t, err)
	assert.True(t, ev.IsCompleted())

	before := s.Events()
	require.NoError(t, mem.Delete(ctx, storage.KeyEvents))
	_, found, err = s.ToggleCompletion(ctx, 999)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, before, s.Events())
	// the list is still written back
	assert.Equal(t, before, storedEvents(t, mem))
}

func TestToggleCompletion_DoubleToggleRestores(t *testing.T) {
	ctx := context.Background()
	for _, ev := range SampleEvents() {
		s, _ := newStore(t, SampleEvents())
		orig, _ := s.Event(ev.ID)

		_, _, err := s.ToggleCompletion(ctx, ev.ID)
		require.NoError(t, err)
		_, _, err = s.ToggleCompletion(ctx, ev.ID)
		require.NoError(t, err)

		got, ok := s.Event(ev.ID)
		require.True(t, ok)
		assert.Equal(t, orig.IsCompleted(), got.IsCompleted(), "event %d", ev.ID)
	}
}

func TestEvents_ReturnsCopy(t *testing.T) {
	s, _ := newStore(t, SampleEvents())
	events := s.Events()
	*events[0].Completed = true
	events[1].Title = "changed"

	fresh := s.Events()
	assert.False(t, fresh[0].IsCompleted())
	assert.Equal(t, "Read History Chapter", fresh[1].Title)
}

func TestImport(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t, SampleEvents())

	incoming := []models.Event{
		{Title: "Lecture", Date: "2025-06-20", Type: models.TypeSchool, Source: "google", ExternalID: "g1"},
		{Title: "Lecture", Date: "2025-06-20", Type: models.TypeSchool, Source: "google", ExternalID: "g1"},
		{Title: "Lab", Date: "2025-06-21", Type: models.TypeSchool, Source: "ical:school", ExternalID: "g1"},
	}
	added, err := s.Import(ctx, incoming)
	require.NoError(t, err)
	require.Len(t, added, 2)
	assert.Equal(t, 102, added[0].ID)
	assert.Equal(t, 103, added[1].ID)

	added, err = s.Import(ctx, incoming)
	require.NoError(t, err)
	assert.Empty(t, added)
	assert.Len(t, s.Events(), 7)
}
