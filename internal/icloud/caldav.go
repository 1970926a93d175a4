// Package icloud publishes Fora events to a CalDAV calendar (iCloud by default).
package icloud

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"time"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav"
	"github.com/emersion/go-webdav/caldav"

	"fora/internal/ics"
	"fora/internal/models"
)

// DefaultEndpoint is the iCloud CalDAV server.
const DefaultEndpoint = "https://caldav.icloud.com/"

const userAgent = "fora/1.0"

// Config locates the target calendar.
type Config struct {
	Endpoint string
	Username string
	Password string // app-specific password for iCloud
	Calendar string // display name of the calendar
}

// userAgentTransport sets the User-Agent header on each request.
type userAgentTransport struct {
	base http.RoundTripper
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", userAgent)
	return t.base.RoundTrip(req)
}

// CalDAVClient writes events into one calendar collection.
type CalDAVClient struct {
	client       *caldav.Client
	logger       *slog.Logger
	calendarPath string
	location     *time.Location
}

// NewClient connects to the server and looks up the calendar by name.
// Event times are interpreted in loc.
func NewClient(ctx context.Context, logger *slog.Logger, cfg Config, loc *time.Location) (*CalDAVClient, error) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	httpClient := webdav.HTTPClientWithBasicAuth(&http.Client{
		Transport: &userAgentTransport{base: http.DefaultTransport},
	}, cfg.Username, cfg.Password)

	client, err := caldav.NewClient(httpClient, cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create caldav client: %w", err)
	}

	c := &CalDAVClient{client: client, logger: logger, location: loc}

	logger.Info("Finding CalDAV calendar.", "calendar", cfg.Calendar, "endpoint", cfg.Endpoint)
	calPath, err := c.findCalendar(ctx, cfg.Calendar)
	if err != nil {
		return nil, fmt.Errorf("could not find calendar '%s': %w", cfg.Calendar, err)
	}
	c.calendarPath = calPath
	logger.Info("Found CalDAV calendar.", "path", calPath)

	return c, nil
}

// Publish creates or replaces the event in the calendar.
func (c *CalDAVClient) Publish(ctx context.Context, ev models.Event) error {
	uid := ics.UID(ev)
	c.logger.Debug("Publishing event.", "title", ev.Title, "uid", uid)

	ve, err := ics.Component(ev, c.location, time.Now())
	if err != nil {
		return err
	}
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, ics.ProductID)
	cal.Children = append(cal.Children, ve)

	if _, err := c.client.PutCalendarObject(ctx, ObjectPath(c.calendarPath, uid), cal); err != nil {
		return fmt.Errorf("failed to put event on CalDAV server: %w", err)
	}

	c.logger.Info("Published event.", "title", ev.Title)
	return nil
}

// ObjectPath is the location of the event with the given UID inside a calendar collection.
func ObjectPath(calendarPath, uid string) string {
	return path.Join(calendarPath, uid+".ics")
}

func (c *CalDAVClient) findCalendar(ctx context.Context, name string) (string, error) {
	principal, err := c.client.FindCurrentUserPrincipal(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to find principal path: %w", err)
	}

	homeSet, err := c.client.FindCalendarHomeSet(ctx, principal)
	if err != nil {
		return "", fmt.Errorf("failed to find calendar home set: %w", err)
	}

	calendars, err := c.client.FindCalendars(ctx, homeSet)
	if err != nil {
		return "", fmt.Errorf("failed to find calendars: %w", err)
	}

	for _, cal := range calendars {
		if cal.Name == name {
			return cal.Path, nil
		}
	}
	return "", fmt.Errorf("no calendar found with name '%s'", name)
}
