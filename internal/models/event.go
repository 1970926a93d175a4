package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the calendar date format used by Event.Date and bucket keys.
const DateLayout = "2006-01-02"

// EventType tags an event with the kind of activity it represents.
type EventType string

const (
	TypeTask     EventType = "task"
	TypeSchool   EventType = "school"
	TypeSocial   EventType = "social"
	TypeCustom   EventType = "custom"
	TypeClass    EventType = "class"
	TypeClub     EventType = "club"
	TypeStudy    EventType = "study"
	TypePersonal EventType = "personal"
)

// EventTypes lists every accepted event type tag.
var EventTypes = []EventType{TypeTask, TypeSchool, TypeSocial, TypeCustom, TypeClass, TypeClub, TypeStudy, TypePersonal}

// EnergyLevel is the effort a task is expected to take.
type EnergyLevel string

const (
	EnergyLow    EnergyLevel = "low"
	EnergyMedium EnergyLevel = "medium"
	EnergyHigh   EnergyLevel = "high"
)

// Event represents a task or calendar entry.
// Optional numeric fields are pointers so that "unset" can be told apart from zero.
type Event struct {
	ID              int         `json:"id"`                        // Unique, monotonically increasing
	Title           string      `json:"title"`                     // Summary shown on cards
	Description     string      `json:"description,omitempty"`     // Free text
	Date            string      `json:"date"`                      // Calendar date, YYYY-MM-DD, no time zone
	Time            string      `json:"time,omitempty"`            // Time of day, "14:00" or "2:00 PM"
	Duration        *int        `json:"duration,omitempty"`        // Minutes
	Priority        *int        `json:"priority,omitempty"`        // 1 (low) to 5 (high)
	EnergyLevel     EnergyLevel `json:"energyLevel,omitempty"`     // low, medium or high
	Completed       *bool       `json:"completed,omitempty"`       // Only meaningful for tasks
	Type            EventType   `json:"type"`                      // Kind of event
	Location        string      `json:"location,omitempty"`        // Room, address...
	Attendees       *int        `json:"attendees,omitempty"`       // Expected head count
	CollaborativeID string      `json:"collaborativeId,omitempty"` // Group calendar the event belongs to
	Source          string      `json:"source,omitempty"`          // Import source, empty for local events
	ExternalID      string      `json:"externalId,omitempty"`      // ID of the event in its import source
}

// IsTask reports whether the event is a to-do item.
func (e Event) IsTask() bool { return e.Type == TypeTask }

// IsCompleted treats an unset completion flag as false.
func (e Event) IsCompleted() bool { return e.Completed != nil && *e.Completed }

// DurationMinutes returns the duration, 0 when unset.
func (e Event) DurationMinutes() int {
	if e.Duration == nil {
		return 0
	}
	return *e.Duration
}

// PriorityLevel returns the priority, 0 when unset.
func (e Event) PriorityLevel() int {
	if e.Priority == nil {
		return 0
	}
	return *e.Priority
}

// Day parses Date in the given location. Invalid dates yield an error.
func (e Event) Day(loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DateLayout, e.Date, loc)
}

// Hour returns the hour-of-day component of Time.
// ok is false when Time is empty or cannot be parsed.
func (e Event) Hour() (hour int, ok bool) {
	h, _, err := ParseTimeOfDay(e.Time)
	if err != nil {
		return 0, false
	}
	return h, true
}

// ParseTimeOfDay accepts "15:04", "3:04 PM", "3:04PM" and "3 PM".
func ParseTimeOfDay(s string) (hour, minute int, err error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return 0, 0, fmt.Errorf("empty time of day")
	}

	meridiem := ""
	for _, suffix := range []string{"AM", "PM"} {
		if strings.HasSuffix(s, suffix) {
			meridiem = suffix
			s = strings.TrimSpace(strings.TrimSuffix(s, suffix))
			break
		}
	}

	hourPart, minutePart, hasMinutes := strings.Cut(s, ":")
	hour, err = strconv.Atoi(hourPart)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid hour in %q: %w", s, err)
	}
	if hasMinutes {
		minute, err = strconv.Atoi(minutePart)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid minutes in %q: %w", s, err)
		}
	}

	switch meridiem {
	case "AM", "PM":
		if hour < 1 || hour > 12 {
			return 0, 0, fmt.Errorf("hour %d out of range for 12-hour clock", hour)
		}
		if hour == 12 {
			hour = 0
		}
		if meridiem == "PM" {
			hour += 12
		}
	default:
		if !hasMinutes {
			return 0, 0, fmt.Errorf("time %q needs minutes or AM/PM", s)
		}
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("time %q out of range", s)
	}
	return hour, minute, nil
}

// NewEvent is the form payload used to create an Event; the store assigns the ID.
type NewEvent struct {
	Title           string      `json:"title" validate:"required"`
	Description     string      `json:"description"`
	Date            string      `json:"date" validate:"required,datetime=2006-01-02"`
	Time            string      `json:"time" validate:"omitempty,timeofday"`
	Duration        *int        `json:"duration" validate:"omitempty,min=0,max=1440"`
	Priority        *int        `json:"priority" validate:"omitempty,min=1,max=5"`
	EnergyLevel     EnergyLevel `json:"energyLevel" validate:"omitempty,oneof=low medium high"`
	Completed       *bool       `json:"completed"`
	Type            EventType   `json:"type" validate:"omitempty,eventtype"`
	Location        string      `json:"location"`
	Attendees       *int        `json:"attendees" validate:"omitempty,min=0"`
	CollaborativeID string      `json:"collaborativeId"`
	Source          string      `json:"source"`
	ExternalID      string      `json:"externalId"`
}

// Normalize applies the add-form defaults: type defaults to task, tasks always
// start incomplete, and task durations are clamped to 15..480 minutes.
func (ne *NewEvent) Normalize() {
	ne.Title = strings.TrimSpace(ne.Title)
	ne.Date = strings.TrimSpace(ne.Date)
	ne.Time = strings.TrimSpace(ne.Time)
	if ne.Type == "" {
		ne.Type = TypeTask
	}
	if ne.Type != TypeTask {
		return
	}
	ne.Completed = BoolPtr(false)
	if ne.Duration != nil {
		d := min(max(*ne.Duration, 15), 480)
		ne.Duration = &d
	}
}

// Validate normalizes and checks the payload.
func (ne *NewEvent) Validate() error {
	ne.Normalize()
	return Validate.Struct(ne)
}

// Event builds the stored record with the given ID.
func (ne NewEvent) Event(id int) Event {
	return Event{
		ID:              id,
		Title:           ne.Title,
		Description:     ne.Description,
		Date:            ne.Date,
		Time:            ne.Time,
		Duration:        ne.Duration,
		Priority:        ne.Priority,
		EnergyLevel:     ne.EnergyLevel,
		Completed:       ne.Completed,
		Type:            ne.Type,
		Location:        ne.Location,
		Attendees:       ne.Attendees,
		CollaborativeID: ne.CollaborativeID,
		Source:          ne.Source,
		ExternalID:      ne.ExternalID,
	}
}

// IntPtr and BoolPtr help build optional fields.
func IntPtr(v int) *int    { return &v }
func BoolPtr(v bool) *bool { return &v }
