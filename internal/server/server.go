// Package server exposes the app over a JSON HTTP API.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"fora/internal/social"
	"fora/internal/store"
)

type (
	Options struct {
		Address        string
		DisableReqLogs bool
		Debug          bool
		Logger         *slog.Logger
		Store          *store.Store
		Session        *store.Session
		Social         social.Service
		Location       *time.Location   // "today" and feed times; defaults to time.Local
		Now            func() time.Time // defaults to time.Now
		CalendarName   string           // name of the exported iCal feed
	}

	Server interface {
		http.Handler
		Start() error
		Stop(context.Context) error
	}

	server struct {
		opts Options
		app  *echo.Echo
	}
)

var _ Server = (*server)(nil)

func NewServer(opts Options) Server {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.CalendarName == "" {
		opts.CalendarName = "Fora"
	}
	s := &server{
		opts: opts,
		app:  echo.New(),
	}
	s.setup()
	return s
}

func (s *server) setup() {
	s.app.HideBanner = true
	s.app.HidePort = true

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(requestLogger(s.opts.Logger))
	}
	if !s.opts.Debug {
		s.app.Use(middleware.Recover())
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger)
	s.app.Debug = s.opts.Debug

	s.app.GET("/", home)

	v1 := s.app.Group("/v1")
	registerSessionAPI(v1, s.opts.Session, s.opts.Social)
	registerEventAPI(v1, s.opts)
	registerCalendarAPI(v1, s.opts)
	registerSocialAPI(v1, s.opts.Social)
	registerFreeTimeAPI(v1)
}

func (s *server) Start() error {
	s.opts.Logger.Info("Starting HTTP server.", "address", s.opts.Address)
	if err := s.app.Start(s.opts.Address); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "starting server")
	}
	return nil
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to Fora API!")
}

// requestLogger logs one line per request through slog.
func requestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{"method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency}
			if v.Error != nil {
				logger.Warn("Request failed.", append(attrs, "error", v.Error)...)
				return nil
			}
			logger.Info("Request handled.", attrs...)
			return nil
		},
	})
}
