package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		in         string
		wantHour   int
		wantMinute int
		wantErr    bool
	}{
		{in: "14:00", wantHour: 14},
		{in: "09:30", wantHour: 9, wantMinute: 30},
		{in: "2:00 PM", wantHour: 14},
		{in: "2:15pm", wantHour: 14, wantMinute: 15},
		{in: "12:00 AM", wantHour: 0},
		{in: "12:30 PM", wantHour: 12, wantMinute: 30},
		{in: "7 AM", wantHour: 7},
		{in: "", wantErr: true},
		{in: "noon", wantErr: true},
		{in: "25:00", wantErr: true},
		{in: "13:00 PM", wantErr: true},
		{in: "14", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			h, m, err := ParseTimeOfDay(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantHour, h)
			assert.Equal(t, tt.wantMinute, m)
		})
	}
}

func TestEvent_Defaults(t *testing.T) {
	var ev Event
	assert.False(t, ev.IsCompleted())
	assert.Zero(t, ev.DurationMinutes())
	assert.Zero(t, ev.PriorityLevel())
	_, ok := ev.Hour()
	assert.False(t, ok)

	ev = Event{Completed: BoolPtr(true), Duration: IntPtr(45), Priority: IntPtr(4), Time: "3:00 PM"}
	assert.True(t, ev.IsCompleted())
	assert.Equal(t, 45, ev.DurationMinutes())
	assert.Equal(t, 4, ev.PriorityLevel())
	h, ok := ev.Hour()
	assert.True(t, ok)
	assert.Equal(t, 15, h)
}

func TestNewEvent_Validate(t *testing.T) {
	t.Run("defaults to an incomplete task", func(t *testing.T) {
		ne := NewEvent{Title: "  Essay ", Date: "2025-06-18", Duration: IntPtr(5)}
		require.NoError(t, ne.Validate())
		assert.Equal(t, "Essay", ne.Title)
		assert.Equal(t, TypeTask, ne.Type)
		require.NotNil(t, ne.Completed)
		assert.False(t, *ne.Completed)
		assert.Equal(t, 15, *ne.Duration)
	})

	t.Run("ignores a completed flag on new tasks", func(t *testing.T) {
		ne := NewEvent{Title: "Essay", Date: "2025-06-18", Completed: BoolPtr(true)}
		require.NoError(t, ne.Validate())
		require.NotNil(t, ne.Completed)
		assert.False(t, *ne.Completed)
	})

	t.Run("clamps long task durations", func(t *testing.T) {
		ne := NewEvent{Title: "Project", Date: "2025-06-18", Duration: IntPtr(600)}
		require.NoError(t, ne.Validate())
		assert.Equal(t, 480, *ne.Duration)
	})

	t.Run("leaves non-task events alone", func(t *testing.T) {
		ne := NewEvent{Title: "Party", Date: "2025-06-18", Type: TypeSocial, Time: "19:00"}
		require.NoError(t, ne.Validate())
		assert.Nil(t, ne.Completed)
	})

	t.Run("reports fields by json name", func(t *testing.T) {
		ne := NewEvent{Date: "18/06/2025", Priority: IntPtr(9), Type: "party", Time: "later"}
		err := ne.Validate()
		require.Error(t, err)

		fields := map[string]string{}
		for _, fe := range FieldErrors(err) {
			fields[fe.Field] = fe.Error
		}
		assert.Equal(t, "this field is required", fields["title"])
		assert.Contains(t, fields, "date")
		assert.Contains(t, fields, "priority")
		assert.Contains(t, fields["type"], "must be one of")
		assert.Contains(t, fields["time"], "14:00")
	})
}

func TestUser_Validate(t *testing.T) {
	u := User{Name: " Maya Chen ", Email: "Maya@School.EDU "}
	require.NoError(t, u.Validate())
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "maya@school.edu", u.Email)
	assert.Equal(t, "Maya", u.FirstName())

	bad := User{Name: "x", Email: "not-an-email"}
	assert.Error(t, bad.Validate())
}
