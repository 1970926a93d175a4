// Package ics converts Fora events to and from iCalendar feeds.
package ics

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/emersion/go-ical"

	"fora/internal/models"
)

const (
	ProductID = "-//fora//EN"

	propCalendarName = "X-WR-CALNAME"
	propCompleted    = "X-FORA-COMPLETED"
	sourcePrefix     = "ical:"
	dateFormat       = "20060102"
)

// Feed is a named iCalendar URL to import from.
type Feed struct {
	Name string
	URL  string
}

// Source is the Event.Source value of events imported from the feed.
func (f Feed) Source() string { return sourcePrefix + f.Name }

// ParseFeeds reads "name=url" entries. An entry without a name is named after its host.
func ParseFeeds(entries []string) ([]Feed, error) {
	var feeds []Feed
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		name, url, ok := strings.Cut(entry, "=")
		if !ok {
			url = name
			name = ""
		}
		url = strings.TrimSpace(url)
		if !strings.Contains(url, "://") {
			return nil, fmt.Errorf("invalid feed url %q", url)
		}
		if name = strings.TrimSpace(name); name == "" {
			_, rest, _ := strings.Cut(url, "://")
			name, _, _ = strings.Cut(rest, "/")
		}
		feeds = append(feeds, Feed{Name: name, URL: url})
	}
	return feeds, nil
}

// UID is the stable identifier of a local event in exported feeds.
func UID(ev models.Event) string {
	if ev.ExternalID != "" {
		return ev.ExternalID
	}
	return fmt.Sprintf("fora-%d@fora", ev.ID)
}

// Calendar builds a VCALENDAR holding one VEVENT per event.
// Timed events are written in UTC; events without a time are all-day.
func Calendar(name string, events []models.Event, loc *time.Location, now time.Time) (*ical.Calendar, error) {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, ProductID)
	if name != "" {
		cal.Props.SetText(propCalendarName, name)
	}
	for _, ev := range events {
		ve, err := Component(ev, loc, now)
		if err != nil {
			return nil, err
		}
		cal.Children = append(cal.Children, ve)
	}
	return cal, nil
}

// Component converts one event to a VEVENT.
func Component(ev models.Event, loc *time.Location, now time.Time) (*ical.Component, error) {
	day, err := ev.Day(loc)
	if err != nil {
		return nil, fmt.Errorf("event %d has an invalid date %q: %w", ev.ID, ev.Date, err)
	}

	ve := ical.NewEvent()
	ve.Props.SetText(ical.PropUID, UID(ev))
	ve.Props.SetText(ical.PropSummary, ev.Title)
	ve.Props.SetDateTime(ical.PropDateTimeStamp, now.UTC())
	ve.Props.SetText(ical.PropCategories, string(ev.Type))

	if h, m, err := models.ParseTimeOfDay(ev.Time); err == nil {
		start := time.Date(day.Year(), day.Month(), day.Day(), h, m, 0, 0, loc)
		ve.Props.SetDateTime(ical.PropDateTimeStart, start.UTC())
		if d := ev.DurationMinutes(); d > 0 {
			ve.Props.SetDateTime(ical.PropDateTimeEnd, start.Add(time.Duration(d)*time.Minute).UTC())
		}
	} else {
		ve.Props.SetDate(ical.PropDateTimeStart, day)
		ve.Props.SetDate(ical.PropDateTimeEnd, day.AddDate(0, 0, 1))
	}

	if ev.Description != "" {
		ve.Props.SetText(ical.PropDescription, ev.Description)
	}
	if ev.Location != "" {
		ve.Props.SetText(ical.PropLocation, ev.Location)
	}
	if ev.IsTask() {
		ve.Props.SetText(propCompleted, strings.ToUpper(fmt.Sprint(ev.IsCompleted())))
	}
	return ve.Component, nil
}

// Encode writes events as an iCalendar feed.
func Encode(w io.Writer, name string, events []models.Event, loc *time.Location, now time.Time) error {
	cal, err := Calendar(name, events, loc, now)
	if err != nil {
		return err
	}
	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		return fmt.Errorf("failed to encode calendar: %w", err)
	}
	return nil
}

// Decode reads every VEVENT of an iCalendar stream. Cancelled events and
// events without a start are skipped. Recurring events are imported once.
// The returned events have no ID; the store assigns one on import.
func Decode(r io.Reader, source string, loc *time.Location) ([]models.Event, error) {
	dec := ical.NewDecoder(r)
	events := []models.Event{}
	seen := map[string]bool{}
	for {
		cal, err := dec.Decode()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to decode calendar: %w", err)
		}
		for _, comp := range cal.Children {
			if comp.Name != ical.CompEvent {
				continue
			}
			ev, ok := fromComponent(comp, loc)
			if !ok || seen[ev.ExternalID] {
				continue
			}
			seen[ev.ExternalID] = true
			ev.Source = source
			events = append(events, ev)
		}
	}
	return events, nil
}

func fromComponent(comp *ical.Component, loc *time.Location) (models.Event, bool) {
	if status := comp.Props.Get(ical.PropStatus); status != nil && strings.EqualFold(status.Value, "CANCELLED") {
		return models.Event{}, false
	}
	startProp := comp.Props.Get(ical.PropDateTimeStart)
	if startProp == nil {
		return models.Event{}, false
	}
	start, allDay, err := instant(startProp, loc)
	if err != nil {
		return models.Event{}, false
	}

	ev := models.Event{
		Title:       text(comp, ical.PropSummary),
		Description: text(comp, ical.PropDescription),
		Location:    text(comp, ical.PropLocation),
		Date:        start.Format(models.DateLayout),
		Type:        eventType(text(comp, ical.PropCategories)),
	}
	if !allDay {
		ev.Time = start.Format("15:04")
		if endProp := comp.Props.Get(ical.PropDateTimeEnd); endProp != nil {
			if end, _, err := instant(endProp, loc); err == nil && end.After(start) {
				ev.Duration = models.IntPtr(int(end.Sub(start).Minutes()))
			}
		}
	}
	if ev.IsTask() {
		ev.Completed = models.BoolPtr(strings.EqualFold(text(comp, propCompleted), "TRUE"))
	}

	ev.ExternalID = text(comp, ical.PropUID)
	if ev.ExternalID == "" {
		ev.ExternalID = start.Format(time.RFC3339) + "-" + ev.Title
	}
	return ev, true
}

// instant parses a DTSTART or DTEND value and returns it in loc.
func instant(prop *ical.Prop, loc *time.Location) (t time.Time, allDay bool, err error) {
	if prop.ValueType() == ical.ValueDate || len(prop.Value) == len(dateFormat) {
		t, err = time.ParseInLocation(dateFormat, prop.Value, loc)
		return t, true, err
	}
	t, err = prop.DateTime(loc)
	if err != nil {
		return time.Time{}, false, err
	}
	return t.In(loc), false, nil
}

// text reads a property as TEXT, falling back to the raw value for
// properties whose value type is not declared.
func text(comp *ical.Component, name string) string {
	prop := comp.Props.Get(name)
	if prop == nil {
		return ""
	}
	s, err := prop.Text()
	if err != nil {
		s = prop.Value
	}
	return strings.TrimSpace(s)
}

// eventType picks the first category that names a Fora event type.
func eventType(categories string) models.EventType {
	for _, c := range strings.Split(categories, ",") {
		t := models.EventType(strings.ToLower(strings.TrimSpace(c)))
		if slices.Contains(models.EventTypes, t) {
			return t
		}
	}
	return models.TypeCustom
}

// Fetch downloads and decodes a feed. webcal:// URLs are fetched over https.
func Fetch(ctx context.Context, client *http.Client, feed Feed, loc *time.Location) ([]models.Event, error) {
	url := feed.URL
	if rest, ok := strings.CutPrefix(url, "webcal://"); ok {
		url = "https://" + rest
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for feed %s: %w", feed.Name, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request for feed %s failed: %w", feed.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed %s returned status %d", feed.Name, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read feed %s: %w", feed.Name, err)
	}
	if err := validateFormat(string(body)); err != nil {
		return nil, fmt.Errorf("feed %s: %w", feed.Name, err)
	}
	return Decode(strings.NewReader(string(body)), feed.Source(), loc)
}

func validateFormat(body string) error {
	trimmed := strings.TrimSpace(body)
	upper := strings.ToUpper(trimmed)
	if strings.HasPrefix(upper, "<!DOCTYPE") || strings.HasPrefix(upper, "<HTML") {
		return fmt.Errorf("received HTML instead of iCalendar data, check if the URL requires authentication")
	}
	if !strings.HasPrefix(trimmed, "BEGIN:VCALENDAR") {
		return fmt.Errorf("invalid iCalendar data, expected BEGIN:VCALENDAR, got: %.40s", trimmed)
	}
	return nil
}

// FeedSource imports a feed during sync.
type FeedSource struct {
	Feed     Feed
	Client   *http.Client
	Location *time.Location
}

func (s FeedSource) Name() string { return s.Feed.Source() }

func (s FeedSource) Fetch(ctx context.Context) ([]models.Event, error) {
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	return Fetch(ctx, client, s.Feed, s.Location)
}
