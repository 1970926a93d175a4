// Package freetime finds the time slots in which several users are all free.
//
// For every day touched by an event, each user's busy intervals are merged and
// inverted into free intervals inside the user's daily availability window.
// The free intervals of all users are then intersected with a sweep line.
// All computation happens in UTC; users' local times are converted first.
package freetime

import (
	"fmt"
	"slices"
	"sort"
	"time"
	_ "time/tzdata"
)

type Status string

const (
	Busy      Status = "busy"
	Tentative Status = "tentative"
)

const (
	TagBestMatch = "best match"
	TagTentative = "tentative"
)

// DefaultMinBlock is the shortest slot worth reporting.
const DefaultMinBlock = 30 * time.Minute

// Event is a busy period of a user. Start and End are ISO 8601; without an
// offset they are read in the user's time zone.
type Event struct {
	Start  string `json:"start" validate:"required"`
	End    string `json:"end" validate:"required"`
	Status Status `json:"status,omitempty" validate:"omitempty,oneof=busy tentative"`
}

// Calendar is one participant.
type Calendar struct {
	UserID            string  `json:"userId" validate:"required"`
	Events            []Event `json:"events" validate:"dive"`
	AvailabilityStart string  `json:"availabilityStart" validate:"required,datetime=15:04"`
	AvailabilityEnd   string  `json:"availabilityEnd" validate:"required,datetime=15:04"`
	Timezone          string  `json:"timezone,omitempty" validate:"omitempty,timezone"`
}

// Block is a slot in which every participant is free. Times are UTC.
type Block struct {
	Date         string   `json:"date"`
	Start        string   `json:"start"`
	End          string   `json:"end"`
	Participants []string `json:"participantsAvailable"`
	Tag          string   `json:"tag"`
	Score        float64  `json:"score"`
}

// Options tune the computation.
type Options struct {
	// MinBlock is the minimum length of a free slot. Zero means DefaultMinBlock.
	MinBlock time.Duration
	// TentativeIsFree leaves the time of tentative events free and tags the
	// slots overlapping them as tentative. By default they block time like busy ones.
	TentativeIsFree bool
}

type interval struct {
	start, end time.Time
	tentative  bool
}

// Mutual computes the slots in which all users are free, sorted by date then start.
func Mutual(users []Calendar, opts Options) ([]Block, error) {
	if len(users) == 0 {
		return []Block{}, nil
	}
	minBlock := opts.MinBlock
	if minBlock <= 0 {
		minBlock = DefaultMinBlock
	}

	parsed := make([]parsedCalendar, len(users))
	days := map[string]bool{}
	for i, u := range users {
		pc, err := parseCalendar(u)
		if err != nil {
			return nil, err
		}
		parsed[i] = pc
		for _, iv := range pc.events {
			days[iv.start.Format(time.DateOnly)] = true
			days[iv.end.Format(time.DateOnly)] = true
		}
	}
	sortedDays := make([]string, 0, len(days))
	for d := range days {
		sortedDays = append(sortedDays, d)
	}
	sort.Strings(sortedDays)

	participants := make([]string, len(users))
	for i, u := range users {
		participants[i] = u.UserID
	}

	blocks := []Block{}
	for _, day := range sortedDays {
		perUser := make([][]interval, len(parsed))
		for i, pc := range parsed {
			start, end, err := pc.window(day)
			if err != nil {
				return nil, err
			}
			var blocking []interval
			for _, iv := range pc.events {
				if iv.tentative && opts.TentativeIsFree {
					continue
				}
				blocking = append(blocking, iv)
			}
			perUser[i] = invert(start, end, merge(blocking), minBlock)
		}

		for _, iv := range intersect(perUser, minBlock) {
			blocks = append(blocks, Block{
				Date:         day,
				Start:        iv.start.Format("15:04"),
				End:          iv.end.Format("15:04"),
				Participants: slices.Clone(participants),
				Tag:          tag(iv, parsed),
				Score:        score(iv),
			})
		}
	}

	sort.SliceStable(blocks, func(i, j int) bool {
		if blocks[i].Date != blocks[j].Date {
			return blocks[i].Date < blocks[j].Date
		}
		return blocks[i].Start < blocks[j].Start
	})
	return blocks, nil
}

type parsedCalendar struct {
	loc        *time.Location
	availStart time.Time // only hour and minute are used
	availEnd   time.Time
	events     []interval
}

func parseCalendar(u Calendar) (parsedCalendar, error) {
	tz := u.Timezone
	if tz == "" {
		tz = "UTC"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return parsedCalendar{}, fmt.Errorf("user %s: invalid timezone %q: %w", u.UserID, tz, err)
	}
	pc := parsedCalendar{loc: loc}
	if pc.availStart, err = time.Parse("15:04", u.AvailabilityStart); err != nil {
		return parsedCalendar{}, fmt.Errorf("user %s: invalid availability start: %w", u.UserID, err)
	}
	if pc.availEnd, err = time.Parse("15:04", u.AvailabilityEnd); err != nil {
		return parsedCalendar{}, fmt.Errorf("user %s: invalid availability end: %w", u.UserID, err)
	}

	for _, ev := range u.Events {
		start, err := parseInstant(ev.Start, loc)
		if err != nil {
			return parsedCalendar{}, fmt.Errorf("user %s: invalid event start: %w", u.UserID, err)
		}
		end, err := parseInstant(ev.End, loc)
		if err != nil {
			return parsedCalendar{}, fmt.Errorf("user %s: invalid event end: %w", u.UserID, err)
		}
		if end.Before(start) {
			return parsedCalendar{}, fmt.Errorf("user %s: event ends before it starts (%s)", u.UserID, ev.Start)
		}
		pc.events = append(pc.events, interval{start: start, end: end, tentative: ev.Status == Tentative})
	}
	return pc, nil
}

// window returns the user's availability on day, in UTC.
func (pc parsedCalendar) window(day string) (time.Time, time.Time, error) {
	d, err := time.Parse(time.DateOnly, day)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	at := func(hm time.Time) time.Time {
		return time.Date(d.Year(), d.Month(), d.Day(), hm.Hour(), hm.Minute(), 0, 0, pc.loc).UTC()
	}
	return at(pc.availStart), at(pc.availEnd), nil
}

func parseInstant(s string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	for _, layout := range []string{"2006-01-02T15:04:05", "2006-01-02T15:04", "2006-01-02 15:04"} {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse %q as an ISO 8601 time", s)
}

// merge joins overlapping or touching intervals. A merged interval is
// tentative as soon as one of its parts is.
func merge(blocks []interval) []interval {
	if len(blocks) == 0 {
		return nil
	}
	sorted := slices.Clone(blocks)
	slices.SortStableFunc(sorted, func(a, b interval) int { return a.start.Compare(b.start) })

	merged := []interval{sorted[0]}
	for _, b := range sorted[1:] {
		last := &merged[len(merged)-1]
		if !b.start.After(last.end) {
			if b.end.After(last.end) {
				last.end = b.end
			}
			last.tentative = last.tentative || b.tentative
			continue
		}
		merged = append(merged, b)
	}
	return merged
}

// invert returns the gaps of at least minBlock between busy intervals,
// clipped to the availability window [start, end).
func invert(start, end time.Time, busy []interval, minBlock time.Duration) []interval {
	var free []interval
	cursor := start
	for _, b := range busy {
		gapEnd := b.start
		if gapEnd.After(end) {
			gapEnd = end
		}
		if gapEnd.Sub(cursor) >= minBlock {
			free = append(free, interval{start: cursor, end: gapEnd})
		}
		if b.end.After(cursor) {
			cursor = b.end
		}
	}
	if end.Sub(cursor) >= minBlock {
		free = append(free, interval{start: cursor, end: end})
	}
	return free
}

// intersect sweeps over the interval boundaries of every user and keeps the
// stretches during which all users are free. Ends sort before starts at the same instant.
func intersect(perUser [][]interval, minBlock time.Duration) []interval {
	type point struct {
		at    time.Time
		delta int
		user  int
	}
	var points []point
	for u, blocks := range perUser {
		for _, b := range blocks {
			points = append(points, point{at: b.start, delta: 1, user: u}, point{at: b.end, delta: -1, user: u})
		}
	}
	slices.SortStableFunc(points, func(a, b point) int {
		if c := a.at.Compare(b.at); c != 0 {
			return c
		}
		return a.delta - b.delta
	})

	n := len(perUser)
	active := make([]int, n)
	free := 0
	var out []interval
	var openedAt *time.Time
	for _, p := range points {
		before := active[p.user] > 0
		active[p.user] += p.delta
		after := active[p.user] > 0
		switch {
		case !before && after:
			free++
		case before && !after:
			free--
		}

		if free == n {
			if openedAt == nil {
				at := p.at
				openedAt = &at
			}
			continue
		}
		if openedAt != nil {
			if p.at.Sub(*openedAt) >= minBlock {
				out = append(out, interval{start: *openedAt, end: p.at})
			}
			openedAt = nil
		}
	}
	return out
}

func tag(block interval, users []parsedCalendar) string {
	for _, u := range users {
		for _, ev := range u.events {
			if ev.tentative && ev.start.Before(block.end) && ev.end.After(block.start) {
				return TagTentative
			}
		}
	}
	return TagBestMatch
}

// score favours long slots, evenings and weekends.
func score(block interval) float64 {
	s := block.end.Sub(block.start).Minutes()
	if block.start.Hour() >= 18 {
		s += 10
	}
	if wd := block.start.Weekday(); wd == time.Saturday || wd == time.Sunday {
		s += 20
	}
	return s
}
