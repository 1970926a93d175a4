package google

import (
	"context"
	"time"

	"fora/internal/models"
)

// CalendarSource imports one calendar of an account.
type CalendarSource struct {
	Client   *Client
	Calendar CalendarInfo
	Days     int
	Location *time.Location
}

func (s CalendarSource) Name() string {
	return SourceCalendar + ":" + s.Client.Account() + ":" + s.Calendar.ID
}

func (s CalendarSource) Fetch(ctx context.Context) ([]models.Event, error) {
	return s.Client.UpcomingEvents(ctx, s.Calendar, s.Days, s.Location)
}

// ClassroomSource imports the coursework of an account.
type ClassroomSource struct {
	Client   *Client
	Location *time.Location
}

func (s ClassroomSource) Name() string { return SourceClassroom + ":" + s.Client.Account() }

func (s ClassroomSource) Fetch(ctx context.Context) ([]models.Event, error) {
	return s.Client.Coursework(ctx, s.Location)
}

// Sources builds the sources of an account. Without calendar ids every
// calendar of the account is imported.
func Sources(ctx context.Context, c *Client, calendarIDs []string, days int, classroom bool, loc *time.Location) ([]CalendarSource, *ClassroomSource, error) {
	cals, err := c.Calendars(ctx)
	if err != nil {
		return nil, nil, err
	}
	wanted := map[string]bool{}
	for _, id := range calendarIDs {
		wanted[id] = true
	}

	var sources []CalendarSource
	for _, cal := range cals {
		if len(wanted) > 0 && !wanted[cal.ID] {
			continue
		}
		sources = append(sources, CalendarSource{Client: c, Calendar: cal, Days: days, Location: loc})
	}
	if !classroom {
		return sources, nil, nil
	}
	return sources, &ClassroomSource{Client: c, Location: loc}, nil
}
