// Package social provides the friends, chat and group calendar capabilities.
// Components depend on the interfaces; Directory is the in-memory implementation
// seeded with demo profiles.
package social

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"fora/internal/models"
)

var (
	ErrProfileNotFound  = errors.New("profile not found")
	ErrRequestNotFound  = errors.New("friend request not found")
	ErrRequestExists    = errors.New("friend request already pending")
	ErrAlreadyFriends   = errors.New("already friends")
	ErrSelfRequest      = errors.New("cannot befriend yourself")
	ErrNotFriends       = errors.New("not friends")
	ErrChatNotFound     = errors.New("chat not found")
	ErrNotChatMember    = errors.New("not a member of this chat")
	ErrCalendarNotFound = errors.New("group calendar not found")
	ErrInvalidStatus    = errors.New("invalid presence status")
	ErrNotImplemented   = errors.New("not implemented yet")
)

// SuggestionFilter narrows friend suggestions.
type SuggestionFilter string

const (
	SuggestAll       SuggestionFilter = "all"
	SuggestMutual    SuggestionFilter = "mutual"
	SuggestInterests SuggestionFilter = "interests"
	SuggestClasses   SuggestionFilter = "classes"
)

var SuggestionFilters = []SuggestionFilter{SuggestAll, SuggestMutual, SuggestInterests, SuggestClasses}

// ParseSuggestionFilter accepts a filter name. The empty string selects SuggestAll.
func ParseSuggestionFilter(s string) (SuggestionFilter, error) {
	if s == "" {
		return SuggestAll, nil
	}
	f := SuggestionFilter(s)
	if !slices.Contains(SuggestionFilters, f) {
		return "", fmt.Errorf("unknown suggestion filter %q", s)
	}
	return f, nil
}

// Suggestion is a profile the user may want to befriend.
type Suggestion struct {
	Profile       models.UserProfile `json:"profile"`
	MutualFriends []string           `json:"mutualFriends"`
	Classes       []string           `json:"classes"`
}

// Friends manages profiles, presence and friend requests.
type Friends interface {
	// Me is the id of the current user.
	Me() string
	// SetMe switches the current user, carrying over their requests and chats.
	SetMe(id string)
	FetchProfile(ctx context.Context, userID string) (models.UserProfile, error)
	Friends(ctx context.Context) ([]models.UserProfile, error)
	RemoveFriend(ctx context.Context, userID string) error
	Status(ctx context.Context) models.PresenceStatus
	SetStatus(ctx context.Context, status models.PresenceStatus) error
	SendFriendRequest(ctx context.Context, from, to string) (models.FriendRequest, error)
	PendingRequests(ctx context.Context) ([]models.FriendRequest, error)
	AcceptRequest(ctx context.Context, from string) (models.UserProfile, error)
	DeclineRequest(ctx context.Context, from string) error
	Suggestions(ctx context.Context, query string, filter SuggestionFilter) ([]Suggestion, error)
}

// Chats manages conversations and live message delivery.
type Chats interface {
	OpenChat(ctx context.Context, withUserID string) (models.Chat, error)
	CreateGroupChat(ctx context.Context, name string, members []string) (models.Chat, error)
	Chats(ctx context.Context) ([]models.Chat, error)
	Messages(ctx context.Context, chatID string) ([]models.Message, error)
	SendMessage(ctx context.Context, msg models.Message) (models.Message, error)
	// SubscribeToMessages delivers every message sent to chatID after the call.
	// The channel is closed when ctx is done.
	SubscribeToMessages(ctx context.Context, chatID string) (<-chan models.Message, error)
}

// Groups manages collaborative calendars.
type Groups interface {
	GroupCalendars(ctx context.Context) ([]models.GroupCalendar, error)
	CreateGroupCalendar(ctx context.Context, name string) (models.GroupCalendar, error)
	GroupEvents(ctx context.Context, calendarID string) ([]models.GroupEvent, error)
	JoinGroupCalendar(ctx context.Context, code string) (models.GroupCalendar, error)
}

// Service is the full social capability set.
type Service interface {
	Friends
	Chats
	Groups
}
