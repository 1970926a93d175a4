package server

import (
	"bytes"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"fora/internal/calendar"
	"fora/internal/ics"
	"fora/internal/metrics"
	"fora/internal/models"
	"fora/internal/ordering"
	"fora/internal/store"
)

type eventApi struct {
	store   *store.Store
	session *store.Session
	loc     *time.Location
	now     func() time.Time
}

func registerEventAPI(g *echo.Group, opts Options) {
	api := eventApi{store: opts.Store, session: opts.Session, loc: opts.Location, now: opts.Now}

	eg := g.Group("/events")
	eg.GET("", api.query)
	eg.POST("", api.create)
	eg.GET("/:id", api.retrieve)
	eg.POST("/:id/toggle", api.toggle)

	g.GET("/dashboard", api.dashboard)
}

// query lists the events in insertion order. A filter keeps tasks only;
// a sort mode reorders the result.
func (api *eventApi) query(ctx echo.Context) error {
	events := api.store.Events()

	if f := ctx.QueryParam("filter"); f != "" {
		filter, err := ordering.ParseFilter(f)
		if err != nil {
			return badRequest(err)
		}
		events = ordering.FilterTasks(events, filter)
	}
	if s := ctx.QueryParam("sort"); s != "" {
		mode, err := ordering.ParseMode(s)
		if err != nil {
			return badRequest(err)
		}
		events = ordering.Sort(events, mode)
	}
	return ctx.JSON(http.StatusOK, events)
}

func (api *eventApi) create(ctx echo.Context) error {
	var data models.NewEvent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEvent")
	}
	ev, err := api.store.Add(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, ev)
}

func (api *eventApi) retrieve(ctx echo.Context) error {
	id, err := eventID(ctx)
	if err != nil {
		return err
	}
	ev, ok := api.store.Event(id)
	if !ok {
		return store.ErrEventNotFound
	}
	return ctx.JSON(http.StatusOK, ev)
}

func (api *eventApi) toggle(ctx echo.Context) error {
	id, err := eventID(ctx)
	if err != nil {
		return err
	}
	ev, found, err := api.store.ToggleCompletion(ctx.Request().Context(), id)
	if err != nil {
		return err
	}
	if !found {
		return store.ErrEventNotFound
	}
	return ctx.JSON(http.StatusOK, ev)
}

type dashboardResponse struct {
	metrics.Dashboard
	FirstName string `json:"firstName,omitempty"`
}

// dashboard computes the metrics for today, or for ?date= at the current time of day.
func (api *eventApi) dashboard(ctx echo.Context) error {
	now := api.now().In(api.loc)
	if d := ctx.QueryParam("date"); d != "" {
		day, err := parseDate(d, api.loc)
		if err != nil {
			return err
		}
		now = time.Date(day.Year(), day.Month(), day.Day(), now.Hour(), now.Minute(), now.Second(), 0, api.loc)
	}

	resp := dashboardResponse{Dashboard: metrics.Compute(api.store.Events(), now)}
	if usr, ok := api.session.User(); ok {
		resp.FirstName = usr.FirstName()
	}
	return ctx.JSON(http.StatusOK, resp)
}

type calendarApi struct {
	store *store.Store
	loc   *time.Location
	now   func() time.Time
	name  string
}

func registerCalendarAPI(g *echo.Group, opts Options) {
	api := calendarApi{store: opts.Store, loc: opts.Location, now: opts.Now, name: opts.CalendarName}

	// static route before the parameterized group
	g.GET("/calendar.ics", api.feed)

	cg := g.Group("/calendar")
	cg.GET("/month/:year/:month", api.month)
	cg.GET("/week/:date", api.week)
	cg.GET("/day/:date", api.day)
}

func (api *calendarApi) month(ctx echo.Context) error {
	year, err := strconv.Atoi(ctx.Param("year"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid year")
	}
	month, err := strconv.Atoi(ctx.Param("month"))
	if err != nil || month < 1 || month > 12 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid month")
	}
	cells := calendar.MonthGrid(year, time.Month(month), calendar.ByDate(api.store.Events()))
	return ctx.JSON(http.StatusOK, cells)
}

func (api *calendarApi) week(ctx echo.Context) error {
	day, mode, err := api.viewParams(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, calendar.WeekView(day, calendar.ByDate(api.store.Events()), mode))
}

func (api *calendarApi) day(ctx echo.Context) error {
	day, mode, err := api.viewParams(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, calendar.DayView(day, calendar.ByDate(api.store.Events()), mode))
}

func (api *calendarApi) viewParams(ctx echo.Context) (time.Time, ordering.Mode, error) {
	day, err := parseDate(ctx.Param("date"), api.loc)
	if err != nil {
		return time.Time{}, "", err
	}
	mode, err := ordering.ParseMode(ctx.QueryParam("sort"))
	if err != nil {
		return time.Time{}, "", badRequest(err)
	}
	return day, mode, nil
}

// feed serves the events as an iCalendar feed for calendar apps to subscribe to.
func (api *calendarApi) feed(ctx echo.Context) error {
	var buf bytes.Buffer
	if err := ics.Encode(&buf, api.name, api.store.Events(), api.loc, api.now()); err != nil {
		return errors.Wrap(err, "encoding calendar feed")
	}
	return ctx.Blob(http.StatusOK, "text/calendar; charset=utf-8", buf.Bytes())
}

func eventID(ctx echo.Context) (int, error) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid event id")
	}
	return id, nil
}

func parseDate(s string, loc *time.Location) (time.Time, error) {
	day, err := time.ParseInLocation(models.DateLayout, s, loc)
	if err != nil {
		return time.Time{}, echo.NewHTTPError(http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
	}
	return day, nil
}
