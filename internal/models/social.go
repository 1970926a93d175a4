package models

import "time"

// PresenceStatus is what friends see next to a profile.
type PresenceStatus string

const (
	StatusOnline   PresenceStatus = "online"
	StatusOffline  PresenceStatus = "offline"
	StatusBusy     PresenceStatus = "busy"
	StatusFree     PresenceStatus = "free"
	StatusStudying PresenceStatus = "studying"
)

// PresenceStatuses lists the statuses a user can pick.
var PresenceStatuses = []PresenceStatus{StatusOnline, StatusBusy, StatusFree, StatusStudying, StatusOffline}

// Valid reports whether s is a known status.
func (s PresenceStatus) Valid() bool {
	for _, st := range PresenceStatuses {
		if st == s {
			return true
		}
	}
	return false
}

// UserProfile is the public social profile of a user.
type UserProfile struct {
	UserID        string         `json:"userId"`
	Username      string         `json:"username"`
	DisplayName   string         `json:"displayName"`
	ProfilePicURL string         `json:"profilePicUrl,omitempty"`
	Bio           string         `json:"bio,omitempty"`
	FriendList    []string       `json:"friendList"`
	Status        PresenceStatus `json:"status,omitempty"`
	Interests     []string       `json:"interests,omitempty"`
}

// StatusOrOffline treats an unset status as offline.
func (p UserProfile) StatusOrOffline() PresenceStatus {
	if p.Status == "" {
		return StatusOffline
	}
	return p.Status
}

type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestAccepted RequestStatus = "accepted"
	RequestBlocked  RequestStatus = "blocked"
)

type FriendRequest struct {
	From      string        `json:"from"`
	To        string        `json:"to"`
	Status    RequestStatus `json:"status"`
	CreatedAt time.Time     `json:"createdAt"`
}

type MessageType string

const (
	MessageText       MessageType = "text"
	MessageEmoji      MessageType = "emoji"
	MessageAttachment MessageType = "attachment"
)

// Message is a single chat message. Timestamp is in Unix milliseconds.
type Message struct {
	ID        string            `json:"id"`
	ChatID    string            `json:"chatId"`
	SenderID  string            `json:"senderId"`
	Content   string            `json:"content" validate:"required"`
	Type      MessageType       `json:"type" validate:"omitempty,oneof=text emoji attachment"`
	Timestamp int64             `json:"timestamp"`
	SeenBy    []string          `json:"seenBy"`
	Reactions map[string]string `json:"reactions,omitempty"`
}

type Chat struct {
	ChatID    string   `json:"chatId"`
	Members   []string `json:"members"`
	IsGroup   bool     `json:"isGroup"`
	GroupName string   `json:"groupName,omitempty"`
	CreatedAt int64    `json:"createdAt"`
}

type GroupRole string

const (
	RoleOwner  GroupRole = "Owner"
	RoleEditor GroupRole = "Editor"
	RoleViewer GroupRole = "Viewer"
)

// GroupCalendar is a calendar shared by several users.
type GroupCalendar struct {
	ID      string    `json:"id"`
	Name    string    `json:"name" validate:"required"`
	Color   string    `json:"color"`
	Icon    int       `json:"icon"`
	Role    GroupRole `json:"role"`
	Members []string  `json:"members"`
}

// GroupEvent is an event on a GroupCalendar.
type GroupEvent struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Date       string `json:"date"`
	Time       string `json:"time"`
	Duration   int    `json:"duration"`
	CreatedBy  string `json:"createdBy"`
	CalendarID string `json:"calendarId"`
}
