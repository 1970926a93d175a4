// Package google imports Google Calendar events and Google Classroom coursework.
package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/classroom/v1"
	"google.golang.org/api/option"

	"fora/internal/models"
)

const (
	credentialsFile = "credentials.json"
	redirectURL     = "urn:ietf:wg:oauth:2.0:oob"

	SourceCalendar  = "google"
	SourceClassroom = "classroom"
)

// Scopes requested by the auth flow.
var Scopes = []string{
	calendar.CalendarReadonlyScope,
	classroom.ClassroomCoursesReadonlyScope,
	classroom.ClassroomCourseworkMeReadonlyScope,
}

var classKeywords = []string{"class", "course", "school", "lecture", "classroom"}

// Client reads one Google account.
type Client struct {
	account   string
	calendar  *calendar.Service
	classroom *classroom.Service
	logger    *slog.Logger
}

// NewClient loads the token of account from tokenDir (token-<account>.json)
// and builds authenticated Calendar and Classroom services.
func NewClient(ctx context.Context, logger *slog.Logger, clientID, clientSecret, tokenDir, account string) (*Client, error) {
	config, err := OAuthConfig(clientID, clientSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to get OAuth config: %w", err)
	}

	token, err := tokenFromFile(TokenPath(tokenDir, account))
	if err != nil {
		return nil, fmt.Errorf("could not load token for account %s: %w. Please run the 'auth' command first", account, err)
	}

	httpClient := config.Client(ctx, token)
	cal, err := calendar.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}
	cls, err := classroom.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create classroom service: %w", err)
	}

	return &Client{account: account, calendar: cal, classroom: cls, logger: logger}, nil
}

// Account is the name the token was saved under.
func (c *Client) Account() string { return c.account }

// CalendarInfo describes a calendar of the account.
type CalendarInfo struct {
	ID      string
	Summary string
}

// IsClass reports whether the calendar holds lessons: Classroom calendars and
// calendars whose name mentions classes or school.
func (ci CalendarInfo) IsClass() bool {
	if strings.HasPrefix(ci.ID, "classroom") {
		return true
	}
	name := strings.ToLower(ci.Summary)
	for _, kw := range classKeywords {
		if strings.Contains(name, kw) {
			return true
		}
	}
	return false
}

// Calendars lists the calendars of the account.
func (c *Client) Calendars(ctx context.Context) ([]CalendarInfo, error) {
	list, err := c.calendar.CalendarList.List().Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list calendars: %w", err)
	}
	var infos []CalendarInfo
	for _, item := range list.Items {
		infos = append(infos, CalendarInfo{ID: item.Id, Summary: item.Summary})
	}
	return infos, nil
}

// UpcomingEvents fetches the events of the next days from a calendar.
func (c *Client) UpcomingEvents(ctx context.Context, cal CalendarInfo, days int, loc *time.Location) ([]models.Event, error) {
	c.logger.Debug("Fetching upcoming events.", "account", c.account, "calendarID", cal.ID, "days", days)
	now := time.Now().UTC()
	tmin := now.Format(time.RFC3339)
	tmax := now.AddDate(0, 0, days).Format(time.RFC3339)

	var items []*calendar.Event
	err := c.calendar.Events.List(cal.ID).
		ShowDeleted(false).
		SingleEvents(true).
		TimeMin(tmin).
		TimeMax(tmax).
		OrderBy("startTime").
		Pages(ctx, func(page *calendar.Events) error {
			items = append(items, page.Items...)
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve events of %s: %w", cal.ID, err)
	}

	c.logger.Info("Fetched events from Google Calendar.", "count", len(items), "calendarID", cal.ID)
	return ToEvents(items, cal.IsClass(), loc), nil
}

// ToEvents converts Google Calendar events. Timed events get a time and a
// duration in loc; all-day events only a date. Cancelled events are dropped.
func ToEvents(items []*calendar.Event, class bool, loc *time.Location) []models.Event {
	typ := models.TypeCustom
	if class {
		typ = models.TypeSchool
	}

	events := []models.Event{}
	for _, item := range items {
		if item.Status == "cancelled" || item.Start == nil {
			continue
		}
		ev := models.Event{
			Title:       item.Summary,
			Description: item.Description,
			Location:    item.Location,
			Type:        typ,
			Source:      SourceCalendar,
			ExternalID:  item.ICalUID,
		}
		if ev.ExternalID == "" {
			ev.ExternalID = item.Id
		}
		if n := len(item.Attendees); n > 0 {
			ev.Attendees = models.IntPtr(n)
		}

		switch {
		case item.Start.DateTime != "":
			start, err := time.Parse(time.RFC3339, item.Start.DateTime)
			if err != nil {
				continue
			}
			start = start.In(loc)
			ev.Date = start.Format(models.DateLayout)
			ev.Time = start.Format("15:04")
			if item.End != nil && item.End.DateTime != "" {
				if end, err := time.Parse(time.RFC3339, item.End.DateTime); err == nil && end.After(start) {
					ev.Duration = models.IntPtr(int(end.Sub(start).Minutes()))
				}
			}
		case item.Start.Date != "":
			ev.Date = item.Start.Date
		default:
			continue
		}
		events = append(events, ev)
	}
	return events
}

// OAuthConfig returns the OAuth2 config. The client id and secret take
// precedence over a local credentials.json file.
func OAuthConfig(clientID, clientSecret string) (*oauth2.Config, error) {
	if clientID != "" && clientSecret != "" {
		return &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       Scopes,
			Endpoint:     google.Endpoint,
		}, nil
	}

	b, err := os.ReadFile(credentialsFile)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("credentials.json not found. Please set FORA_GOOGLE_CLIENT_ID and FORA_GOOGLE_CLIENT_SECRET or place credentials.json in the working directory")
		}
		return nil, fmt.Errorf("unable to read client secret file: %w", err)
	}

	config, err := google.ConfigFromJSON(b, Scopes...)
	if err != nil {
		return nil, fmt.Errorf("unable to parse client secret file to config: %w", err)
	}
	config.RedirectURL = redirectURL
	return config, nil
}

// Exchange trades the code pasted by the user for a token.
func Exchange(ctx context.Context, config *oauth2.Config, authCode string) (*oauth2.Token, error) {
	return config.Exchange(ctx, authCode)
}

// TokenPath is the token file of account inside dir.
func TokenPath(dir, account string) string {
	return filepath.Join(dir, fmt.Sprintf("token-%s.json", account))
}

// SaveToken saves a token to a file path.
func SaveToken(path string, token *oauth2.Token) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("unable to create token file: %w", err)
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(token)
}

func tokenFromFile(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	err = json.NewDecoder(f).Decode(tok)
	return tok, err
}

// TokenAccounts lists the accounts that have a token file in dir.
func TokenAccounts(dir string) ([]string, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var accounts []string
	for _, file := range files {
		name := file.Name()
		if strings.HasPrefix(name, "token-") && strings.HasSuffix(name, ".json") {
			accounts = append(accounts, strings.TrimSuffix(strings.TrimPrefix(name, "token-"), ".json"))
		}
	}
	return accounts, nil
}
