package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"fora/internal/google"
	"fora/internal/icloud"
	"fora/internal/ics"
	"fora/internal/syncer"

	"github.com/urfave/cli/v2"
	"golang.org/x/oauth2"
)

const feedTimeout = 30 * time.Second

func authCommand() *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Authenticate with a Google account to import its calendars and coursework.",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			logger := setupLogger(cfg.LogLevel)
			logger.Info("Starting Google authentication flow.")

			config, err := google.OAuthConfig(cfg.Google.ClientID, cfg.Google.ClientSecret)
			if err != nil {
				return fmt.Errorf("failed to get google oauth config: %w", err)
			}

			authURL := config.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
			fmt.Printf("Go to the following link in your browser then type the "+
				"authorization code: \n%v\n", authURL)

			fmt.Print("Enter Authorization Code: ")
			reader := bufio.NewReader(os.Stdin)
			authCode, _ := reader.ReadString('\n')
			authCode = strings.TrimSpace(authCode)

			token, err := google.Exchange(c.Context, config, authCode)
			if err != nil {
				return fmt.Errorf("unable to retrieve token from web: %w", err)
			}

			fmt.Print("Enter a name for this account (e.g., 'personal', 'school'): ")
			accountName, _ := reader.ReadString('\n')
			accountName = strings.TrimSpace(accountName)
			if accountName == "" {
				return fmt.Errorf("account name cannot be empty")
			}

			tokenFile := google.TokenPath(cfg.Google.TokenDir, accountName)
			if err := google.SaveToken(tokenFile, token); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}

			logger.Info("Successfully authenticated and saved token.", "file", tokenFile)
			return nil
		},
	}
}

func syncCommand() *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Import events from Google, Classroom and iCal feeds, and publish to CalDAV.",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "once", Usage: "Run the sync cycle once and exit."},
			&cli.BoolFlag{Name: "dry-run", Usage: "Log what would be synced without making changes."},
			&cli.IntFlag{Name: "watch", Usage: "Run sync every N seconds. Zero uses sync.interval. Overrides --once."},
		},
		Action: func(c *cli.Context) error {
			e, err := setup(c)
			if err != nil {
				return err
			}
			defer e.close()

			if c.Bool("dry-run") {
				e.logger.Info("Performing a dry run. No changes will be made.")
			}

			sources, err := buildSources(c.Context, e)
			if err != nil {
				return err
			}
			if len(sources) == 0 {
				return fmt.Errorf("no sources configured. Run the 'auth' command or set FORA_ICAL_FEEDS")
			}
			e.logger.Info("Initialized sync sources.", "count", len(sources))

			opts := []syncer.Option{syncer.WithDryRun(c.Bool("dry-run"))}
			if e.cfg.ICloud.Enabled() {
				pub, err := icloud.NewClient(c.Context, e.logger, icloud.Config{
					Endpoint: e.cfg.ICloud.Endpoint,
					Username: e.cfg.ICloud.Username,
					Password: e.cfg.ICloud.Password,
					Calendar: e.cfg.ICloud.Calendar,
				}, e.loc)
				if err != nil {
					return fmt.Errorf("failed to create caldav client: %w", err)
				}
				opts = append(opts, syncer.WithPublisher(pub, ics.UID))
			}

			s, err := syncer.NewSyncer(c.Context, e.logger, e.storage, e.store, sources, opts...)
			if err != nil {
				return fmt.Errorf("failed to create syncer: %w", err)
			}

			// --watch flag takes precedence
			if c.IsSet("watch") {
				interval := time.Duration(c.Int("watch")) * time.Second
				if interval <= 0 {
					interval = e.cfg.Sync.Interval
				}
				ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
				defer stop()

				e.logger.Info("Starting watcher.", "interval", interval)
				if err := s.Watch(ctx, interval); err != nil && !errors.Is(err, context.Canceled) {
					return err
				}
				e.logger.Info("Watcher stopped.")
				return nil
			}

			// --once is the default behavior if --watch is not set
			e.logger.Info("Running a single sync cycle.")
			report, err := s.Sync(c.Context)
			if err != nil {
				return fmt.Errorf("single sync cycle failed: %w", err)
			}
			fmt.Printf("Fetched %d, imported %d, published %d event(s).\n", report.Fetched, report.Imported, report.Published)
			if len(report.Failed) > 0 {
				return fmt.Errorf("%d source(s) failed: %s", len(report.Failed), strings.Join(report.Failed, ", "))
			}
			return nil
		},
	}
}

// buildSources collects the calendars and coursework of every authenticated
// Google account plus the configured iCal feeds.
func buildSources(ctx context.Context, e *env) ([]syncer.Source, error) {
	var sources []syncer.Source

	accounts, err := google.TokenAccounts(e.cfg.Google.TokenDir)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("could not list google accounts: %w", err)
	}
	for _, acc := range accounts {
		client, err := google.NewClient(ctx, e.logger, e.cfg.Google.ClientID, e.cfg.Google.ClientSecret, e.cfg.Google.TokenDir, acc)
		if err != nil {
			return nil, fmt.Errorf("failed to create google client for account %s: %w", acc, err)
		}
		cals, classroom, err := google.Sources(ctx, client, e.cfg.Google.CalendarIDs, e.cfg.Sync.Days, e.cfg.Google.Classroom, e.loc)
		if err != nil {
			return nil, fmt.Errorf("failed to list calendars of account %s: %w", acc, err)
		}
		for _, s := range cals {
			sources = append(sources, s)
		}
		if classroom != nil {
			sources = append(sources, *classroom)
		}
	}

	feeds, err := e.cfg.Feeds()
	if err != nil {
		return nil, err
	}
	httpClient := &http.Client{Timeout: feedTimeout}
	for _, feed := range feeds {
		sources = append(sources, ics.FeedSource{Feed: feed, Client: httpClient, Location: e.loc})
	}
	return sources, nil
}
