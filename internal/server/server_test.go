package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fora/internal/calendar"
	"fora/internal/freetime"
	"fora/internal/metrics"
	"fora/internal/models"
	"fora/internal/social"
	"fora/internal/storage"
	"fora/internal/store"
)

var fixedNow = time.Date(2025, time.June, 18, 10, 0, 0, 0, time.UTC)

type httpErr struct {
	Error string `json:"error"`
}

func setup(t *testing.T) Server {
	t.Helper()
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	st := storage.NewMemory()

	events := store.New(st, logger)
	require.NoError(t, events.Hydrate(ctx))
	session := store.NewSession(st, logger)
	require.NoError(t, session.Hydrate(ctx))

	return NewServer(Options{
		DisableReqLogs: true,
		Logger:         logger,
		Store:          events,
		Session:        session,
		Social:         social.NewDirectory("me", logger, social.WithClock(func() time.Time { return fixedNow })),
		Location:       time.UTC,
		Now:            func() time.Time { return fixedNow },
	})
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req, httptest.NewRecorder()
}

func do(t *testing.T, srv Server, method, path string, body any, out any) int {
	t.Helper()
	var data []byte
	if body != nil {
		var err error
		data, err = json.Marshal(body)
		require.NoError(t, err)
	}
	req, rec := newRequest(method, path, data)
	srv.ServeHTTP(rec, req)
	if out != nil && rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out), rec.Body.String())
	}
	return rec.Code
}

func ids(events []models.Event) []int {
	out := []int{}
	for _, ev := range events {
		out = append(out, ev.ID)
	}
	return out
}

func TestHome(t *testing.T) {
	srv := setup(t)
	req, rec := newRequest(http.MethodGet, "/")
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Welcome to Fora API!", rec.Body.String())
}

func TestEvents_Query(t *testing.T) {
	srv := setup(t)

	var events []models.Event
	assert.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/v1/events", nil, &events))
	assert.Equal(t, []int{1, 2, 3, 100, 101}, ids(events))

	assert.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/v1/events?filter=pending", nil, &events))
	assert.Equal(t, []int{1, 2}, ids(events))

	assert.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/v1/events?filter=all&sort=priority", nil, &events))
	assert.Equal(t, []int{1, 3, 2}, ids(events))

	var herr httpErr
	assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodGet, "/v1/events?sort=alphabetical", nil, &herr))
	assert.Contains(t, herr.Error, "unknown sort mode")
}

func TestEvents_Create(t *testing.T) {
	srv := setup(t)

	var ev models.Event
	code := do(t, srv, http.MethodPost, "/v1/events", echo.Map{"title": "Essay", "date": "2025-06-20", "duration": 5}, &ev)
	assert.Equal(t, http.StatusCreated, code)
	assert.Equal(t, 102, ev.ID)
	assert.Equal(t, models.TypeTask, ev.Type)
	assert.Equal(t, 15, ev.DurationMinutes())
	require.NotNil(t, ev.Completed)
	assert.False(t, *ev.Completed)

	code = do(t, srv, http.MethodPost, "/v1/events", echo.Map{"title": "Done already", "date": "2025-06-20", "completed": true}, &ev)
	assert.Equal(t, http.StatusCreated, code)
	assert.False(t, ev.IsCompleted())

	var fldErrs map[string]string
	code = do(t, srv, http.MethodPost, "/v1/events", echo.Map{"date": "June 20", "priority": 9}, &fldErrs)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "this field is required", fldErrs["title"])
	assert.Contains(t, fldErrs, "date")
	assert.Contains(t, fldErrs, "priority")
}

func TestEvents_Toggle(t *testing.T) {
	srv := setup(t)

	var ev models.Event
	assert.Equal(t, http.StatusOK, do(t, srv, http.MethodPost, "/v1/events/1/toggle", nil, &ev))
	assert.True(t, ev.IsCompleted())

	assert.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/v1/events/1", nil, &ev))
	assert.True(t, ev.IsCompleted())

	var herr httpErr
	assert.Equal(t, http.StatusNotFound, do(t, srv, http.MethodPost, "/v1/events/999/toggle", nil, &herr))
	assert.Equal(t, store.ErrEventNotFound.Error(), herr.Error)

	assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodPost, "/v1/events/abc/toggle", nil, nil))
}

func TestDashboard(t *testing.T) {
	srv := setup(t)

	var dash metrics.Dashboard
	assert.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/v1/dashboard", nil, &dash))
	assert.Equal(t, "2025-06-18", dash.Date)
	assert.Equal(t, 33, dash.BalanceScore)
	assert.Len(t, dash.TodaysTasks, 2)
	assert.Equal(t, "2025-06-15", dash.WeekStart)

	assert.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/v1/dashboard?date=2025-06-17", nil, &dash))
	assert.Equal(t, "2025-06-17", dash.Date)
	assert.Len(t, dash.TodaysEvents, 2)

	assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodGet, "/v1/dashboard?date=tomorrow", nil, nil))
}

func TestCalendarViews(t *testing.T) {
	srv := setup(t)

	var cells []calendar.DayCell
	assert.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/v1/calendar/month/2025/6", nil, &cells))
	require.Len(t, cells, 35)
	assert.Equal(t, "2025-06-01", cells[0].Date)
	assert.Len(t, cells[16].Dots, 2) // June 17
	assert.Equal(t, 1, cells[17].TaskCount)

	assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodGet, "/v1/calendar/month/2025/13", nil, nil))

	var week calendar.Week
	assert.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/v1/calendar/week/2025-06-18?sort=urgency", nil, &week))
	assert.Equal(t, "2025-06-15", week.Start)
	assert.Len(t, week.Days, 7)
	assert.Equal(t, []int{100, 101, 1, 2, 3}, ids(week.Sorted))

	var day []models.Event
	assert.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/v1/calendar/day/2025-06-17", nil, &day))
	assert.Equal(t, []int{100, 101}, ids(day))

	assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodGet, "/v1/calendar/day/2025-06-17?sort=random", nil, nil))
}

func TestCalendarFeed(t *testing.T) {
	srv := setup(t)
	req, rec := newRequest(http.MethodGet, "/v1/calendar.ics")
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), "text/calendar")
	assert.Contains(t, rec.Body.String(), "BEGIN:VCALENDAR")
	assert.Contains(t, rec.Body.String(), "Math Class")
}

func TestSession(t *testing.T) {
	srv := setup(t)

	var herr httpErr
	assert.Equal(t, http.StatusUnauthorized, do(t, srv, http.MethodGet, "/v1/session/user", nil, &herr))
	assert.Equal(t, store.ErrNotLoggedIn.Error(), herr.Error)

	var fldErrs map[string]string
	assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodPost, "/v1/session/login", echo.Map{"name": "Sam"}, &fldErrs))
	assert.Contains(t, fldErrs, "email")

	var usr models.User
	assert.Equal(t, http.StatusOK, do(t, srv, http.MethodPost, "/v1/session/login", echo.Map{"name": "Sam Lee", "email": "SAM@school.edu"}, &usr))
	assert.NotEmpty(t, usr.ID)
	assert.Equal(t, "sam@school.edu", usr.Email)

	var updated models.User
	assert.Equal(t, http.StatusOK, do(t, srv, http.MethodPut, "/v1/session/user", echo.Map{"id": "other", "name": "Sam Lee", "email": "sam@school.edu", "school": "Lincoln High"}, &updated))
	assert.Equal(t, usr.ID, updated.ID)
	assert.Equal(t, "Lincoln High", updated.School)

	var dash struct {
		FirstName string `json:"firstName"`
	}
	assert.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/v1/dashboard", nil, &dash))
	assert.Equal(t, "Sam", dash.FirstName)

	var dark map[string]bool
	assert.Equal(t, http.StatusOK, do(t, srv, http.MethodPost, "/v1/session/dark-mode", nil, &dark))
	assert.True(t, dark["darkMode"])

	var state store.SessionState
	assert.Equal(t, http.StatusOK, do(t, srv, http.MethodPut, "/v1/session/tab", echo.Map{"tab": "calendar"}, &state))
	assert.Equal(t, store.TabCalendar, state.Tab)
	assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodPut, "/v1/session/tab", echo.Map{"tab": "inbox"}, nil))

	assert.Equal(t, http.StatusNoContent, do(t, srv, http.MethodPost, "/v1/session/logout", nil, nil))
	assert.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/v1/session", nil, &state))
	assert.Nil(t, state.User)
	assert.Equal(t, store.TabHome, state.Tab)
	assert.True(t, state.DarkMode)
}

func TestSession_SocialIdentity(t *testing.T) {
	srv := setup(t)

	var usr models.User
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodPost, "/v1/session/login", echo.Map{"name": "Sam Lee", "email": "sam@school.edu"}, &usr))

	var req models.FriendRequest
	assert.Equal(t, http.StatusCreated, do(t, srv, http.MethodPost, "/v1/friends/requests", echo.Map{"to": "7"}, &req))
	assert.Equal(t, usr.ID, req.From)

	var pending []models.FriendRequest
	assert.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/v1/friends/requests", nil, &pending))
	assert.Len(t, pending, 2)

	assert.Equal(t, http.StatusNoContent, do(t, srv, http.MethodPost, "/v1/session/logout", nil, nil))
	assert.Equal(t, http.StatusCreated, do(t, srv, http.MethodPost, "/v1/friends/requests", echo.Map{"to": "8"}, &req))
	assert.Equal(t, social.DefaultMe, req.From)
}

func TestSocial(t *testing.T) {
	srv := setup(t)

	var friends []models.UserProfile
	assert.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/v1/friends", nil, &friends))
	assert.Len(t, friends, 4)

	var req models.FriendRequest
	assert.Equal(t, http.StatusCreated, do(t, srv, http.MethodPost, "/v1/friends/requests", echo.Map{"to": "7"}, &req))
	assert.Equal(t, "me", req.From)
	assert.Equal(t, http.StatusConflict, do(t, srv, http.MethodPost, "/v1/friends/requests", echo.Map{"to": "7"}, nil))
	assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodPost, "/v1/friends/requests", echo.Map{}, nil))

	var profile models.UserProfile
	assert.Equal(t, http.StatusOK, do(t, srv, http.MethodPost, "/v1/friends/requests/5/accept", nil, &profile))
	assert.Equal(t, "Alex Rivera", profile.DisplayName)
	assert.Equal(t, http.StatusNotFound, do(t, srv, http.MethodGet, "/v1/profiles/404", nil, nil))

	assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodGet, "/v1/friends/suggestions?filter=nearby", nil, nil))
	var suggestions []social.Suggestion
	assert.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/v1/friends/suggestions?q=lisa", nil, &suggestions))
	require.Len(t, suggestions, 1)
	assert.Equal(t, "8", suggestions[0].Profile.UserID)

	assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodPut, "/v1/me/status", echo.Map{"status": "asleep"}, nil))
	assert.Equal(t, http.StatusOK, do(t, srv, http.MethodPut, "/v1/me/status", echo.Map{"status": "studying"}, nil))
}

func TestChats(t *testing.T) {
	srv := setup(t)

	var chat models.Chat
	assert.Equal(t, http.StatusOK, do(t, srv, http.MethodPost, "/v1/chats", echo.Map{"with": "1"}, &chat))
	require.NotEmpty(t, chat.ChatID)
	assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodPost, "/v1/chats", echo.Map{"with": "7"}, nil))

	var msg models.Message
	path := "/v1/chats/" + chat.ChatID + "/messages"
	assert.Equal(t, http.StatusCreated, do(t, srv, http.MethodPost, path, echo.Map{"content": "hi"}, &msg))
	assert.Equal(t, chat.ChatID, msg.ChatID)
	assert.Equal(t, "me", msg.SenderID)

	var fldErrs map[string]string
	assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodPost, path, echo.Map{"content": ""}, &fldErrs))
	assert.Contains(t, fldErrs, "content")

	var msgs []models.Message
	assert.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, path, nil, &msgs))
	assert.Len(t, msgs, 1)

	assert.Equal(t, http.StatusNotFound, do(t, srv, http.MethodGet, "/v1/chats/nope/messages", nil, nil))
}

func TestChatStream(t *testing.T) {
	srv := setup(t)
	ts := httptest.NewServer(srv)
	defer ts.Close()

	var chat models.Chat
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodPost, "/v1/chats", echo.Map{"with": "2"}, &chat))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/v1/chats/"+chat.ChatID+"/stream", nil)
	require.NoError(t, err)
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get(echo.HeaderContentType))

	assert.Equal(t, http.StatusCreated, do(t, srv, http.MethodPost, "/v1/chats/"+chat.ChatID+"/messages", echo.Map{"content": "see you at practice"}, nil))

	buf := make([]byte, 4096)
	var got bytes.Buffer
	for !bytes.Contains(got.Bytes(), []byte("\n\n")) {
		n, err := resp.Body.Read(buf)
		got.Write(buf[:n])
		require.NoError(t, err)
	}
	assert.Contains(t, got.String(), "event: message")
	assert.Contains(t, got.String(), "see you at practice")
}

func TestGroups(t *testing.T) {
	srv := setup(t)

	var cals []models.GroupCalendar
	assert.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/v1/groups", nil, &cals))
	assert.Len(t, cals, 2)

	var cal models.GroupCalendar
	assert.Equal(t, http.StatusCreated, do(t, srv, http.MethodPost, "/v1/groups", echo.Map{"name": "Chess Club"}, &cal))
	assert.Equal(t, models.RoleOwner, cal.Role)

	var events []models.GroupEvent
	assert.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/v1/groups/1/events", nil, &events))
	assert.Len(t, events, 1)
	assert.Equal(t, http.StatusNotFound, do(t, srv, http.MethodGet, "/v1/groups/404/events", nil, nil))

	var herr httpErr
	assert.Equal(t, http.StatusNotImplemented, do(t, srv, http.MethodPost, "/v1/groups/join", echo.Map{"code": "ABC123"}, &herr))
	assert.Equal(t, social.ErrNotImplemented.Error(), herr.Error)
}

func TestMutualFreeTime(t *testing.T) {
	srv := setup(t)

	var blocks []freetime.Block
	body := echo.Map{"users": freetime.SampleCalendars()}
	assert.Equal(t, http.StatusOK, do(t, srv, http.MethodPost, "/v1/freetime/mutual", body, &blocks))
	require.Len(t, blocks, 9)
	assert.Equal(t, "2025-06-20", blocks[0].Date)
	assert.Equal(t, []string{"user1", "user2", "user3"}, blocks[0].Participants)
	assert.Equal(t, "12:00", blocks[1].Start)
	assert.Equal(t, "13:00", blocks[1].End)
	assert.Equal(t, "14:00", blocks[2].Start)

	body = echo.Map{"users": freetime.SampleCalendars(), "tentativeIsFree": true}
	assert.Equal(t, http.StatusOK, do(t, srv, http.MethodPost, "/v1/freetime/mutual", body, &blocks))
	require.Len(t, blocks, 8)
	assert.Equal(t, "12:00", blocks[1].Start)
	assert.Equal(t, "15:00", blocks[1].End)
	assert.Equal(t, freetime.TagTentative, blocks[1].Tag)

	var fldErrs map[string]string
	assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodPost, "/v1/freetime/mutual", echo.Map{"users": []any{}}, &fldErrs))
	assert.Contains(t, fldErrs, "users")

	bad := freetime.SampleCalendars()[:1]
	bad[0].Events = []freetime.Event{{Start: "yesterday", End: "today"}}
	assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodPost, "/v1/freetime/mutual", echo.Map{"users": bad}, nil))
}
