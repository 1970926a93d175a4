package google

import (
	"os"
	"path/filepath"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/classroom/v1"

	"fora/internal/models"
)

func TestToEvents(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	items := []*calendar.Event{
		{
			Id:        "g1",
			ICalUID:   "uid-1@google.com",
			Summary:   "Biology",
			Location:  "Lab 3",
			Start:     &calendar.EventDateTime{DateTime: "2025-06-20T13:00:00Z"},
			End:       &calendar.EventDateTime{DateTime: "2025-06-20T14:15:00Z"},
			Attendees: []*calendar.EventAttendee{{Email: "a@x.edu"}, {Email: "b@x.edu"}},
		},
		{Id: "g2", Summary: "Holiday", Start: &calendar.EventDateTime{Date: "2025-07-04"}},
		{Id: "g3", Summary: "Gone", Status: "cancelled", Start: &calendar.EventDateTime{Date: "2025-07-05"}},
		{Id: "g4", Summary: "No start"},
	}

	events := ToEvents(items, true, ny)
	require.Len(t, events, 2)

	bio := events[0]
	assert.Equal(t, "2025-06-20", bio.Date)
	assert.Equal(t, "09:00", bio.Time)
	assert.Equal(t, 75, bio.DurationMinutes())
	assert.Equal(t, models.TypeSchool, bio.Type)
	assert.Equal(t, 2, *bio.Attendees)
	assert.Equal(t, SourceCalendar, bio.Source)
	assert.Equal(t, "uid-1@google.com", bio.ExternalID)

	holiday := events[1]
	assert.Equal(t, "2025-07-04", holiday.Date)
	assert.Empty(t, holiday.Time)
	assert.Equal(t, "g2", holiday.ExternalID)

	assert.Equal(t, models.TypeCustom, ToEvents(items[:1], false, ny)[0].Type)
}

func TestCalendarInfoIsClass(t *testing.T) {
	assert.True(t, CalendarInfo{ID: "classroom1234@group.calendar.google.com", Summary: "Period 2"}.IsClass())
	assert.True(t, CalendarInfo{ID: "x", Summary: "School schedule"}.IsClass())
	assert.False(t, CalendarInfo{ID: "me@gmail.com", Summary: "Personal"}.IsClass())
}

func TestCourseworkToEvents(t *testing.T) {
	course := &classroom.Course{Id: "c1", Name: "Algebra II"}
	work := []*classroom.CourseWork{
		{
			Id:      "w1",
			Title:   "Problem set 4",
			DueDate: &classroom.Date{Year: 2025, Month: 6, Day: 21},
			DueTime: &classroom.TimeOfDay{Hours: 3, Minutes: 59},
		},
		{Id: "w2", Title: "Reading", DueDate: &classroom.Date{Year: 2025, Month: 6, Day: 23}},
		{Id: "w3", Title: "Ungraded"},
	}

	la, err := time.LoadLocation("America/Los_Angeles")
	require.NoError(t, err)

	events := CourseworkToEvents(course, work, la)
	require.Len(t, events, 2)

	// 03:59 UTC on the 21st is the evening before in Los Angeles
	assert.Equal(t, "Algebra II: Problem set 4", events[0].Title)
	assert.Equal(t, "2025-06-20", events[0].Date)
	assert.Equal(t, "20:59", events[0].Time)
	assert.True(t, events[0].IsTask())
	assert.False(t, events[0].IsCompleted())
	assert.Equal(t, SourceClassroom, events[0].Source)
	assert.Equal(t, "w1", events[0].ExternalID)

	assert.Equal(t, "2025-06-23", events[1].Date)
	assert.Empty(t, events[1].Time)
}

func TestTokenFiles(t *testing.T) {
	dir := t.TempDir()
	tok := &oauth2.Token{AccessToken: "access", RefreshToken: "refresh", TokenType: "Bearer"}

	require.NoError(t, SaveToken(TokenPath(dir, "school"), tok))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.json"), []byte("{}"), 0o600))

	accounts, err := TokenAccounts(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"school"}, accounts)

	back, err := tokenFromFile(TokenPath(dir, "school"))
	require.NoError(t, err)
	assert.Equal(t, "refresh", back.RefreshToken)
}

func TestOAuthConfigFromEnv(t *testing.T) {
	cfg, err := OAuthConfig("id", "secret")
	require.NoError(t, err)
	assert.Equal(t, "id", cfg.ClientID)
	assert.Equal(t, Scopes, cfg.Scopes)
}
