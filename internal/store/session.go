package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"fora/internal/models"
	"fora/internal/storage"
)

var (
	ErrNotLoggedIn = errors.New("no user is logged in")
	ErrUnknownTab  = errors.New("unknown tab")
)

// Tab is the section of the app the user is looking at.
type Tab string

const (
	TabHome     Tab = "home"
	TabTasks    Tab = "tasks"
	TabCalendar Tab = "calendar"
	TabFriends  Tab = "friends"
	TabSettings Tab = "settings"
)

var Tabs = []Tab{TabHome, TabTasks, TabCalendar, TabFriends, TabSettings}

// SessionState is a snapshot of the session.
type SessionState struct {
	User     *models.User `json:"user"`
	DarkMode bool         `json:"darkMode"`
	Tab      Tab          `json:"tab"`
}

// Session holds the logged-in user, the dark mode preference and the active tab.
// User and dark mode are persisted; the tab only lives in memory.
type Session struct {
	mu       sync.Mutex
	storage  storage.Storage
	logger   *slog.Logger
	user     *models.User
	darkMode bool
	tab      Tab
}

func NewSession(st storage.Storage, logger *slog.Logger) *Session {
	return &Session{storage: st, logger: logger, tab: TabHome}
}

// Hydrate reads the stored user and dark mode flag.
// Missing or malformed values leave the defaults in place.
func (s *Session) Hydrate(ctx context.Context) error {
	var user models.User
	userErr := storage.GetJSON(ctx, s.storage, storage.KeyUser, &user)
	var dark bool
	darkErr := storage.GetJSON(ctx, s.storage, storage.KeyDarkMode, &dark)

	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case userErr == nil:
		s.user = &user
	case errors.Is(userErr, storage.ErrNotFound):
	case errors.Is(userErr, storage.ErrMalformed):
		s.logger.Warn("Stored user is malformed, ignoring it.", "error", userErr)
	default:
		return fmt.Errorf("failed to load user: %w", userErr)
	}

	switch {
	case darkErr == nil:
		s.darkMode = dark
	case errors.Is(darkErr, storage.ErrNotFound):
	case errors.Is(darkErr, storage.ErrMalformed):
		s.logger.Warn("Stored dark mode flag is malformed, ignoring it.", "error", darkErr)
	default:
		return fmt.Errorf("failed to load dark mode: %w", darkErr)
	}
	return nil
}

// State returns a snapshot of the session.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := SessionState{DarkMode: s.darkMode, Tab: s.tab}
	if s.user != nil {
		u := *s.user
		st.User = &u
	}
	return st
}

// User returns the logged-in user.
func (s *Session) User() (models.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return models.User{}, false
	}
	return *s.user, true
}

// Login validates and stores the user, replacing any current one.
func (s *Session) Login(ctx context.Context, u models.User) (models.User, error) {
	if err := u.Validate(); err != nil {
		return models.User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := storage.SetJSON(ctx, s.storage, storage.KeyUser, u); err != nil {
		return models.User{}, fmt.Errorf("failed to persist user: %w", err)
	}
	s.user = &u
	s.logger.Info("User logged in.", "id", u.ID, "email", u.Email)
	return u, nil
}

// Logout forgets the user and goes back to the home tab.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.storage.Delete(ctx, storage.KeyUser); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	s.user = nil
	s.tab = TabHome
	s.logger.Info("User logged out.")
	return nil
}

// UpdateUser replaces the profile of the logged-in user. The id cannot change.
func (s *Session) UpdateUser(ctx context.Context, u models.User) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.user == nil {
		return models.User{}, ErrNotLoggedIn
	}
	u.ID = s.user.ID
	if err := u.Validate(); err != nil {
		return models.User{}, err
	}
	if err := storage.SetJSON(ctx, s.storage, storage.KeyUser, u); err != nil {
		return models.User{}, fmt.Errorf("failed to persist user: %w", err)
	}
	s.user = &u
	s.logger.Info("User profile updated.", "id", u.ID)
	return u, nil
}

// DarkMode reports the dark mode preference.
func (s *Session) DarkMode() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.darkMode
}

// ToggleDarkMode flips and persists the dark mode preference.
func (s *Session) ToggleDarkMode(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := !s.darkMode
	if err := storage.SetJSON(ctx, s.storage, storage.KeyDarkMode, next); err != nil {
		return s.darkMode, fmt.Errorf("failed to persist dark mode: %w", err)
	}
	s.darkMode = next
	return next, nil
}

// Tab returns the active tab.
func (s *Session) Tab() Tab {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tab
}

// SelectTab switches the active tab.
func (s *Session) SelectTab(tab Tab) error {
	if !tab.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownTab, tab)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tab = tab
	return nil
}

func (t Tab) Valid() bool {
	for _, tab := range Tabs {
		if tab == t {
			return true
		}
	}
	return false
}
