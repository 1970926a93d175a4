package social

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"fora/internal/models"
)

// DefaultMe is the id the directory acts as while nobody is logged in.
const DefaultMe = "me"

// subscriberBuffer is how many undelivered messages a subscriber may lag behind
// before new ones are dropped for it.
const subscriberBuffer = 32

type subscriber struct {
	ch chan models.Message
}

// Directory is an in-memory Service.
type Directory struct {
	mu     sync.RWMutex
	logger *slog.Logger
	now    func() time.Time
	me     string
	status models.PresenceStatus

	profiles    map[string]models.UserProfile
	order       []string // profile ids in fixture order
	friends     []string
	requests    []models.FriendRequest
	suggestions map[string]suggestionMeta

	chats    map[string]models.Chat
	messages map[string][]models.Message
	subs     map[string]map[*subscriber]struct{}

	calendars   []models.GroupCalendar
	groupEvents []models.GroupEvent
}

var _ Service = (*Directory)(nil)

// DirectoryOption configures a Directory.
type DirectoryOption func(*Directory)

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) DirectoryOption {
	return func(d *Directory) { d.now = now }
}

// NewDirectory returns a directory seeded with the demo profiles, acting as user me.
func NewDirectory(me string, logger *slog.Logger, opts ...DirectoryOption) *Directory {
	fx := demoFixtures(me)
	d := &Directory{
		logger:      logger,
		now:         time.Now,
		me:          me,
		status:      models.StatusOnline,
		profiles:    make(map[string]models.UserProfile),
		friends:     fx.friends,
		requests:    fx.requests,
		suggestions: fx.suggestions,
		chats:       make(map[string]models.Chat),
		messages:    make(map[string][]models.Message),
		subs:        make(map[string]map[*subscriber]struct{}),
		calendars:   fx.calendars,
		groupEvents: fx.groupEvents,
	}
	for _, p := range fx.profiles {
		d.profiles[p.UserID] = p
		d.order = append(d.order, p.UserID)
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Me returns the id the directory acts as.
func (d *Directory) Me() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.me
}

// SetMe moves the current user's requests, chats and messages over to id.
func (d *Directory) SetMe(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if id == "" || id == d.me {
		return
	}
	old := d.me
	swap := func(ids []string) []string {
		out := slices.Clone(ids)
		for i, v := range out {
			if v == old {
				out[i] = id
			}
		}
		return out
	}

	for i, r := range d.requests {
		if r.From == old {
			d.requests[i].From = id
		}
		if r.To == old {
			d.requests[i].To = id
		}
	}
	for chatID, c := range d.chats {
		c.Members = swap(c.Members)
		d.chats[chatID] = c
	}
	for chatID, msgs := range d.messages {
		out := make([]models.Message, len(msgs))
		for i, m := range msgs {
			if m.SenderID == old {
				m.SenderID = id
			}
			m.SeenBy = swap(m.SeenBy)
			out[i] = m
		}
		d.messages[chatID] = out
	}
	d.me = id
	d.logger.Info("Directory user changed.", "from", old, "to", id)
}

func (d *Directory) FetchProfile(_ context.Context, userID string) (models.UserProfile, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	p, ok := d.profiles[userID]
	if !ok {
		return models.UserProfile{}, fmt.Errorf("%w: %s", ErrProfileNotFound, userID)
	}
	return cloneProfile(p), nil
}

func (d *Directory) Friends(_ context.Context) ([]models.UserProfile, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]models.UserProfile, 0, len(d.friends))
	for _, id := range d.friends {
		if p, ok := d.profiles[id]; ok {
			out = append(out, cloneProfile(p))
		}
	}
	return out, nil
}

func (d *Directory) RemoveFriend(_ context.Context, userID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	i := slices.Index(d.friends, userID)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFriends, userID)
	}
	d.friends = slices.Delete(d.friends, i, i+1)
	d.logger.Info("Friend removed.", "userId", userID)
	return nil
}

func (d *Directory) Status(_ context.Context) models.PresenceStatus {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.status
}

func (d *Directory) SetStatus(_ context.Context, status models.PresenceStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.status = status
	return nil
}

// SendFriendRequest records a pending request from one user to another.
func (d *Directory) SendFriendRequest(_ context.Context, from, to string) (models.FriendRequest, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if from == to {
		return models.FriendRequest{}, ErrSelfRequest
	}
	for _, id := range []string{from, to} {
		if id == d.me {
			continue
		}
		if _, ok := d.profiles[id]; !ok {
			return models.FriendRequest{}, fmt.Errorf("%w: %s", ErrProfileNotFound, id)
		}
	}
	other := to
	if to == d.me {
		other = from
	}
	if (from == d.me || to == d.me) && slices.Contains(d.friends, other) {
		return models.FriendRequest{}, ErrAlreadyFriends
	}
	for _, r := range d.requests {
		if r.Status == models.RequestPending &&
			((r.From == from && r.To == to) || (r.From == to && r.To == from)) {
			return models.FriendRequest{}, ErrRequestExists
		}
	}

	req := models.FriendRequest{From: from, To: to, Status: models.RequestPending, CreatedAt: d.now()}
	d.requests = append(d.requests, req)
	d.logger.Info("Friend request sent.", "from", from, "to", to)
	return req, nil
}

// PendingRequests lists the pending requests addressed to me.
func (d *Directory) PendingRequests(_ context.Context) ([]models.FriendRequest, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := []models.FriendRequest{}
	for _, r := range d.requests {
		if r.To == d.me && r.Status == models.RequestPending {
			out = append(out, r)
		}
	}
	return out, nil
}

func (d *Directory) AcceptRequest(_ context.Context, from string) (models.UserProfile, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	i, err := d.pendingFrom(from)
	if err != nil {
		return models.UserProfile{}, err
	}
	p, ok := d.profiles[from]
	if !ok {
		return models.UserProfile{}, fmt.Errorf("%w: %s", ErrProfileNotFound, from)
	}
	d.requests = slices.Delete(d.requests, i, i+1)
	if !slices.Contains(d.friends, from) {
		d.friends = append(d.friends, from)
	}
	d.logger.Info("Friend request accepted.", "from", from)
	return cloneProfile(p), nil
}

func (d *Directory) DeclineRequest(_ context.Context, from string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	i, err := d.pendingFrom(from)
	if err != nil {
		return err
	}
	d.requests = slices.Delete(d.requests, i, i+1)
	d.logger.Info("Friend request declined.", "from", from)
	return nil
}

// pendingFrom must be called with mu held.
func (d *Directory) pendingFrom(from string) (int, error) {
	i := slices.IndexFunc(d.requests, func(r models.FriendRequest) bool {
		return r.From == from && r.To == d.me && r.Status == models.RequestPending
	})
	if i < 0 {
		return -1, fmt.Errorf("%w: from %s", ErrRequestNotFound, from)
	}
	return i, nil
}

// Suggestions lists profiles that are neither friends nor involved in a pending
// request with me. The query matches display name, bio or interests.
func (d *Directory) Suggestions(_ context.Context, query string, filter SuggestionFilter) ([]Suggestion, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	query = strings.ToLower(strings.TrimSpace(query))
	out := []Suggestion{}
	for _, id := range d.order {
		if id == d.me || slices.Contains(d.friends, id) || d.hasPendingWith(id) {
			continue
		}
		p := d.profiles[id]
		meta := d.suggestions[id]
		if query != "" && !matchesQuery(p, query) {
			continue
		}
		switch filter {
		case SuggestMutual:
			if len(meta.mutualFriends) == 0 {
				continue
			}
		case SuggestInterests:
			if len(p.Interests) == 0 {
				continue
			}
		case SuggestClasses:
			if len(meta.classes) == 0 {
				continue
			}
		}
		out = append(out, Suggestion{
			Profile:       cloneProfile(p),
			MutualFriends: nonNil(meta.mutualFriends),
			Classes:       nonNil(meta.classes),
		})
	}
	return out, nil
}

func (d *Directory) hasPendingWith(id string) bool {
	for _, r := range d.requests {
		if r.Status != models.RequestPending {
			continue
		}
		if (r.From == id && r.To == d.me) || (r.From == d.me && r.To == id) {
			return true
		}
	}
	return false
}

func matchesQuery(p models.UserProfile, query string) bool {
	if strings.Contains(strings.ToLower(p.DisplayName), query) || strings.Contains(strings.ToLower(p.Bio), query) {
		return true
	}
	for _, in := range p.Interests {
		if strings.Contains(strings.ToLower(in), query) {
			return true
		}
	}
	return false
}

// OpenChat returns the direct chat with a friend, creating it on first use.
func (d *Directory) OpenChat(_ context.Context, withUserID string) (models.Chat, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !slices.Contains(d.friends, withUserID) {
		return models.Chat{}, fmt.Errorf("%w: %s", ErrNotFriends, withUserID)
	}
	for _, c := range d.chats {
		if !c.IsGroup && slices.Contains(c.Members, d.me) && slices.Contains(c.Members, withUserID) {
			return cloneChat(c), nil
		}
	}
	c := models.Chat{
		ChatID:    uuid.NewString(),
		Members:   []string{d.me, withUserID},
		CreatedAt: d.now().UnixMilli(),
	}
	d.chats[c.ChatID] = c
	return cloneChat(c), nil
}

// CreateGroupChat starts a named chat between me and the given members.
func (d *Directory) CreateGroupChat(_ context.Context, name string, members []string) (models.Chat, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Chat{}, models.NewValidationError(nil, models.FieldError{Field: "groupName", Error: "this field is required"})
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	all := []string{d.me}
	for _, m := range members {
		if m == d.me || slices.Contains(all, m) {
			continue
		}
		if _, ok := d.profiles[m]; !ok {
			return models.Chat{}, fmt.Errorf("%w: %s", ErrProfileNotFound, m)
		}
		all = append(all, m)
	}
	c := models.Chat{
		ChatID:    uuid.NewString(),
		Members:   all,
		IsGroup:   true,
		GroupName: name,
		CreatedAt: d.now().UnixMilli(),
	}
	d.chats[c.ChatID] = c
	d.logger.Info("Group chat created.", "chatId", c.ChatID, "members", len(all))
	return cloneChat(c), nil
}

// Chats lists my chats, oldest first.
func (d *Directory) Chats(_ context.Context) ([]models.Chat, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := []models.Chat{}
	for _, c := range d.chats {
		if slices.Contains(c.Members, d.me) {
			out = append(out, cloneChat(c))
		}
	}
	slices.SortFunc(out, func(a, b models.Chat) int {
		if c := cmp.Compare(a.CreatedAt, b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ChatID, b.ChatID)
	})
	return out, nil
}

func (d *Directory) Messages(_ context.Context, chatID string) ([]models.Message, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if _, ok := d.chats[chatID]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrChatNotFound, chatID)
	}
	return slices.Clone(d.messages[chatID]), nil
}

// SendMessage stores msg and fans it out to the chat's subscribers.
// ID, timestamp and seen-by are filled in; an empty sender means me.
func (d *Directory) SendMessage(_ context.Context, msg models.Message) (models.Message, error) {
	msg.Content = strings.TrimSpace(msg.Content)
	if msg.Type == "" {
		msg.Type = models.MessageText
	}
	if msg.SenderID == "" {
		msg.SenderID = d.me
	}
	if err := models.Validate.Struct(msg); err != nil {
		return models.Message{}, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	c, ok := d.chats[msg.ChatID]
	if !ok {
		return models.Message{}, fmt.Errorf("%w: %s", ErrChatNotFound, msg.ChatID)
	}
	if !slices.Contains(c.Members, msg.SenderID) {
		return models.Message{}, fmt.Errorf("%w: %s", ErrNotChatMember, msg.SenderID)
	}

	msg.ID = uuid.NewString()
	msg.Timestamp = d.now().UnixMilli()
	msg.SeenBy = []string{msg.SenderID}
	d.messages[msg.ChatID] = append(d.messages[msg.ChatID], msg)

	for sub := range d.subs[msg.ChatID] {
		select {
		case sub.ch <- msg:
		default:
			d.logger.Warn("Subscriber is lagging, message dropped.", "chatId", msg.ChatID, "messageId", msg.ID)
		}
	}
	return msg, nil
}

func (d *Directory) SubscribeToMessages(ctx context.Context, chatID string) (<-chan models.Message, error) {
	d.mu.Lock()
	if _, ok := d.chats[chatID]; !ok {
		d.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrChatNotFound, chatID)
	}
	sub := &subscriber{ch: make(chan models.Message, subscriberBuffer)}
	if d.subs[chatID] == nil {
		d.subs[chatID] = make(map[*subscriber]struct{})
	}
	d.subs[chatID][sub] = struct{}{}
	d.mu.Unlock()

	go func() {
		<-ctx.Done()
		d.mu.Lock()
		defer d.mu.Unlock()
		delete(d.subs[chatID], sub)
		if len(d.subs[chatID]) == 0 {
			delete(d.subs, chatID)
		}
		close(sub.ch)
	}()
	return sub.ch, nil
}

func (d *Directory) GroupCalendars(_ context.Context) ([]models.GroupCalendar, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]models.GroupCalendar, 0, len(d.calendars))
	for _, c := range d.calendars {
		c.Members = slices.Clone(c.Members)
		out = append(out, c)
	}
	return out, nil
}

// CreateGroupCalendar creates a calendar owned by me.
func (d *Directory) CreateGroupCalendar(_ context.Context, name string) (models.GroupCalendar, error) {
	cal := models.GroupCalendar{Name: strings.TrimSpace(name)}
	if err := models.Validate.Struct(cal); err != nil {
		return models.GroupCalendar{}, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	cal.ID = uuid.NewString()
	cal.Color = CalendarColors[(len(d.calendars)+1)%len(CalendarColors)]
	cal.Role = models.RoleOwner
	cal.Members = []string{"You"}
	d.calendars = append(d.calendars, cal)
	d.logger.Info("Group calendar created.", "id", cal.ID, "name", cal.Name)

	out := cal
	out.Members = slices.Clone(cal.Members)
	return out, nil
}

func (d *Directory) GroupEvents(_ context.Context, calendarID string) ([]models.GroupEvent, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if !slices.ContainsFunc(d.calendars, func(c models.GroupCalendar) bool { return c.ID == calendarID }) {
		return nil, fmt.Errorf("%w: %s", ErrCalendarNotFound, calendarID)
	}
	out := []models.GroupEvent{}
	for _, ev := range d.groupEvents {
		if ev.CalendarID == calendarID {
			out = append(out, ev)
		}
	}
	return out, nil
}

// JoinGroupCalendar is not supported yet.
func (d *Directory) JoinGroupCalendar(_ context.Context, code string) (models.GroupCalendar, error) {
	d.logger.Debug("Join by code requested.", "code", code)
	return models.GroupCalendar{}, ErrNotImplemented
}

func cloneProfile(p models.UserProfile) models.UserProfile {
	p.FriendList = nonNil(slices.Clone(p.FriendList))
	p.Interests = slices.Clone(p.Interests)
	return p
}

func cloneChat(c models.Chat) models.Chat {
	c.Members = slices.Clone(c.Members)
	return c
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
