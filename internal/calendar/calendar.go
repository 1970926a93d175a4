// Package calendar buckets events by day and builds the month, week and day views.
package calendar

import (
	"time"

	"fora/internal/models"
	"fora/internal/ordering"
)

// MaxDots is the number of non-task events shown as dots in a month cell.
const MaxDots = 3

const defaultColor = "#cbb8f5"

var typeColors = map[models.EventType]string{
	models.TypeClass:    "#b2aaff",
	models.TypeClub:     "#6f42c1",
	models.TypePersonal: "#cbb8f5",
	models.TypeStudy:    "#a7f3d0",
	models.TypeSocial:   "#b2f2bb",
	models.TypeTask:     "#fbbf24",
	models.TypeSchool:   "#b2aaff",
	models.TypeCustom:   "#cbb8f5",
}

// TypeColor returns the display colour of an event type.
func TypeColor(t models.EventType) string {
	if c, ok := typeColors[t]; ok {
		return c
	}
	return defaultColor
}

// Buckets maps a YYYY-MM-DD date to the events on that date, in list order.
type Buckets map[string][]models.Event

// ByDate groups events by their date field. Each event lands in exactly one bucket.
func ByDate(events []models.Event) Buckets {
	b := make(Buckets)
	for _, ev := range events {
		b[ev.Date] = append(b[ev.Date], ev)
	}
	return b
}

// On returns the events dated day.
func (b Buckets) On(day time.Time) []models.Event {
	return b[day.Format(models.DateLayout)]
}

// Dot is one coloured marker in a month cell.
type Dot struct {
	Type  models.EventType `json:"type"`
	Color string           `json:"color"`
}

// DayCell is one square of the month grid.
type DayCell struct {
	Date      string `json:"date"`
	Day       int    `json:"day"`
	Weekday   string `json:"weekday"`
	InMonth   bool   `json:"inMonth"`
	TaskCount int    `json:"taskCount"`
	Dots      []Dot  `json:"dots"`
	Overflow  int    `json:"overflow"`
}

// MonthGrid returns the cells from the Sunday on or before the 1st to the
// Saturday on or after the last day of the month. Its length is a multiple of 7.
func MonthGrid(year int, month time.Month, buckets Buckets) []DayCell {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	start := first.AddDate(0, 0, -int(first.Weekday()))
	end := last.AddDate(0, 0, int(time.Saturday-last.Weekday()))

	var cells []DayCell
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		cells = append(cells, newCell(day, day.Month() == first.Month(), buckets.On(day)))
	}
	return cells
}

func newCell(day time.Time, inMonth bool, events []models.Event) DayCell {
	cell := DayCell{
		Date:    day.Format(models.DateLayout),
		Day:     day.Day(),
		Weekday: day.Weekday().String(),
		InMonth: inMonth,
		Dots:    []Dot{},
	}
	others := 0
	for _, ev := range events {
		if ev.IsTask() {
			cell.TaskCount++
			continue
		}
		others++
		if len(cell.Dots) < MaxDots {
			cell.Dots = append(cell.Dots, Dot{Type: ev.Type, Color: TypeColor(ev.Type)})
		}
	}
	cell.Overflow = max(0, others-MaxDots)
	return cell
}

// WeekDates returns the seven days, Sunday first, of ref's week.
func WeekDates(ref time.Time) []time.Time {
	y, m, d := ref.Date()
	sunday := time.Date(y, m, d-int(ref.Weekday()), 0, 0, 0, 0, ref.Location())
	dates := make([]time.Time, 7)
	for i := range dates {
		dates[i] = sunday.AddDate(0, 0, i)
	}
	return dates
}

// WeekDay is one column of the week view.
type WeekDay struct {
	Date   string         `json:"date"`
	Events []models.Event `json:"events"`
}

// Week is the week view: the days in order and every event of the week sorted by mode.
type Week struct {
	Start  string         `json:"start"`
	Days   []WeekDay      `json:"days"`
	Sorted []models.Event `json:"sorted"`
}

// WeekView collects the events of ref's week.
func WeekView(ref time.Time, buckets Buckets, mode ordering.Mode) Week {
	dates := WeekDates(ref)
	week := Week{Start: dates[0].Format(models.DateLayout)}

	var all []models.Event
	for _, day := range dates {
		events := buckets.On(day)
		all = append(all, events...)
		week.Days = append(week.Days, WeekDay{
			Date:   day.Format(models.DateLayout),
			Events: ordering.Sort(events, mode),
		})
	}
	week.Sorted = ordering.Sort(all, mode)
	return week
}

// DayView returns the events of ref's day sorted by mode.
func DayView(ref time.Time, buckets Buckets, mode ordering.Mode) []models.Event {
	return ordering.Sort(buckets.On(ref), mode)
}
