// Package ordering sorts and filters event lists for the calendar and task views.
package ordering

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"fora/internal/models"
)

// Mode names a sort strategy.
type Mode string

const (
	ByPriority Mode = "priority" // highest priority first
	ByUrgency  Mode = "urgency"  // earliest date first
	ByWorkload Mode = "workload" // longest duration first
)

var Modes = []Mode{ByPriority, ByUrgency, ByWorkload}

// ParseMode accepts a mode name. The empty string selects ByPriority.
func ParseMode(s string) (Mode, error) {
	if s == "" {
		return ByPriority, nil
	}
	m := Mode(s)
	if !slices.Contains(Modes, m) {
		return "", fmt.Errorf("unknown sort mode %q", s)
	}
	return m, nil
}

// Sort returns a sorted copy of events. Ties keep their relative order and an
// unknown mode returns the events in input order.
func Sort(events []models.Event, mode Mode) []models.Event {
	out := slices.Clone(events)
	if out == nil {
		out = []models.Event{}
	}

	switch mode {
	case ByPriority:
		slices.SortStableFunc(out, func(a, b models.Event) int {
			return cmp.Compare(b.PriorityLevel(), a.PriorityLevel())
		})
	case ByUrgency:
		slices.SortStableFunc(out, func(a, b models.Event) int {
			return compareDates(a.Date, b.Date)
		})
	case ByWorkload:
		slices.SortStableFunc(out, func(a, b models.Event) int {
			return cmp.Compare(b.DurationMinutes(), a.DurationMinutes())
		})
	}
	return out
}

// compareDates orders valid dates chronologically, invalid ones last.
func compareDates(a, b string) int {
	ta, errA := time.Parse(models.DateLayout, a)
	tb, errB := time.Parse(models.DateLayout, b)
	switch {
	case errA != nil && errB != nil:
		return 0
	case errA != nil:
		return 1
	case errB != nil:
		return -1
	}
	return ta.Compare(tb)
}

// Filter selects tasks on the tasks page.
type Filter string

const (
	AllTasks       Filter = "all"
	CompletedTasks Filter = "completed"
	PendingTasks   Filter = "pending"
)

var Filters = []Filter{AllTasks, CompletedTasks, PendingTasks}

// ParseFilter accepts a filter name. The empty string selects AllTasks.
func ParseFilter(s string) (Filter, error) {
	if s == "" {
		return AllTasks, nil
	}
	f := Filter(s)
	if !slices.Contains(Filters, f) {
		return "", fmt.Errorf("unknown task filter %q", s)
	}
	return f, nil
}

// FilterTasks keeps the tasks matching f, in input order. Non-task events are dropped.
func FilterTasks(events []models.Event, f Filter) []models.Event {
	out := []models.Event{}
	for _, ev := range events {
		if !ev.IsTask() {
			continue
		}
		switch f {
		case CompletedTasks:
			if !ev.IsCompleted() {
				continue
			}
		case PendingTasks:
			if ev.IsCompleted() {
				continue
			}
		}
		out = append(out, ev)
	}
	return out
}
