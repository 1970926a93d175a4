// Package metrics derives the dashboard figures from the event list and a reference time.
// All functions are pure; "today" and "this week" are taken in now's location.
package metrics

import (
	"math"
	"strings"
	"time"

	"fora/internal/models"
)

// Block is a fixed window of the day with a free-time budget.
type Block struct {
	Name          string
	StartHour     int // inclusive
	EndHour       int // exclusive
	BudgetMinutes int
}

// Blocks are the windows free time is computed for.
// Every block has the same 240 minute budget regardless of its length.
var Blocks = []Block{
	{Name: "Morning", StartHour: 8, EndHour: 12, BudgetMinutes: 240},
	{Name: "Afternoon", StartHour: 12, EndHour: 18, BudgetMinutes: 240},
	{Name: "Evening", StartHour: 18, EndHour: 22, BudgetMinutes: 240},
}

// DueSoonLimit caps how many pending tasks the dashboard highlights.
const DueSoonLimit = 3

// BlockFreeTime is the free time left in one block.
type BlockFreeTime struct {
	Block       string `json:"block"`
	StartHour   int    `json:"startHour"`
	EndHour     int    `json:"endHour"`
	UsedMinutes int    `json:"usedMinutes"`
	FreeMinutes int    `json:"freeMinutes"`
}

// Dashboard is everything the home screen shows.
type Dashboard struct {
	Date           string          `json:"date"`
	Greeting       string          `json:"greeting"`
	TodaysTasks    []models.Event  `json:"todaysTasks"`
	DueSoon        []models.Event  `json:"dueSoon"`
	TodaysEvents   []models.Event  `json:"todaysEvents"`
	CompletedTasks int             `json:"completedTasks"`
	TotalTasks     int             `json:"totalTasks"`
	BalanceScore   int             `json:"balanceScore"`
	ScoreMessage   string          `json:"scoreMessage"`
	FreeTime       []BlockFreeTime `json:"freeTime"`
	FreeTimeLeft   int             `json:"freeTimeLeft"`
	WeekStart      string          `json:"weekStart"`
	WeekTasks      int             `json:"weekTasks"`
	WeekCompleted  int             `json:"weekCompleted"`
	WeekProgress   int             `json:"weekProgress"`
	StudyHours     float64         `json:"studyHours"`
}

// Compute builds the dashboard for now.
func Compute(events []models.Event, now time.Time) Dashboard {
	tasks := Tasks(events)
	completed := countCompleted(tasks)
	pending := PendingTasks(events)
	score := BalanceScore(events)
	free := FreeTimeByBlock(events, now)
	week := WeekTasks(events, now)

	return Dashboard{
		Date:           now.Format(models.DateLayout),
		Greeting:       Greeting(now.Hour()),
		TodaysTasks:    pending,
		DueSoon:        pending[:min(len(pending), DueSoonLimit)],
		TodaysEvents:   TodaysEvents(events, now),
		CompletedTasks: completed,
		TotalTasks:     len(tasks),
		BalanceScore:   score,
		ScoreMessage:   ScoreMessage(score),
		FreeTime:       free,
		FreeTimeLeft:   TotalFreeTime(free),
		WeekStart:      WeekStart(now).Format(models.DateLayout),
		WeekTasks:      len(week),
		WeekCompleted:  countCompleted(week),
		WeekProgress:   percent(countCompleted(week), len(week)),
		StudyHours:     StudyHours(events, now),
	}
}

// Tasks returns the events of type task.
func Tasks(events []models.Event) []models.Event {
	out := []models.Event{}
	for _, ev := range events {
		if ev.IsTask() {
			out = append(out, ev)
		}
	}
	return out
}

// PendingTasks returns the incomplete tasks, in list order.
func PendingTasks(events []models.Event) []models.Event {
	out := []models.Event{}
	for _, ev := range events {
		if ev.IsTask() && !ev.IsCompleted() {
			out = append(out, ev)
		}
	}
	return out
}

// TodaysEvents returns the non-task events dated today.
func TodaysEvents(events []models.Event, now time.Time) []models.Event {
	today := now.Format(models.DateLayout)
	out := []models.Event{}
	for _, ev := range events {
		if !ev.IsTask() && ev.Date == today {
			out = append(out, ev)
		}
	}
	return out
}

// BalanceScore is the share of completed tasks in percent, 0 without tasks.
func BalanceScore(events []models.Event) int {
	tasks := Tasks(events)
	return percent(countCompleted(tasks), len(tasks))
}

// FreeTimeByBlock subtracts the duration of today's events from each block's budget.
// An event counts toward the block its start hour falls in; events without a
// parseable time are ignored.
func FreeTimeByBlock(events []models.Event, now time.Time) []BlockFreeTime {
	today := now.Format(models.DateLayout)
	out := make([]BlockFreeTime, 0, len(Blocks))
	for _, b := range Blocks {
		used := 0
		for _, ev := range events {
			if ev.Date != today {
				continue
			}
			hour, ok := ev.Hour()
			if !ok || hour < b.StartHour || hour >= b.EndHour {
				continue
			}
			used += ev.DurationMinutes()
		}
		out = append(out, BlockFreeTime{
			Block:       b.Name,
			StartHour:   b.StartHour,
			EndHour:     b.EndHour,
			UsedMinutes: used,
			FreeMinutes: max(0, b.BudgetMinutes-used),
		})
	}
	return out
}

// TotalFreeTime sums the free minutes of all blocks.
func TotalFreeTime(blocks []BlockFreeTime) int {
	total := 0
	for _, b := range blocks {
		total += b.FreeMinutes
	}
	return total
}

// WeekStart returns midnight of the Sunday starting now's week.
func WeekStart(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d-int(now.Weekday()), 0, 0, 0, 0, now.Location())
}

// WeekTasks returns the tasks dated in [Sunday, Sunday+7 days) of now's week.
// Events with an unparseable date are skipped.
func WeekTasks(events []models.Event, now time.Time) []models.Event {
	start := WeekStart(now)
	end := start.AddDate(0, 0, 7)
	out := []models.Event{}
	for _, ev := range events {
		if !ev.IsTask() {
			continue
		}
		day, err := ev.Day(now.Location())
		if err != nil {
			continue
		}
		if !day.Before(start) && day.Before(end) {
			out = append(out, ev)
		}
	}
	return out
}

// WeekProgress is the share of this week's tasks that are completed, 0 if none.
func WeekProgress(events []models.Event, now time.Time) int {
	week := WeekTasks(events, now)
	return percent(countCompleted(week), len(week))
}

// StudyHours sums the duration of this week's study tasks, in hours with one decimal.
// A task counts as study when its title mentions "study" or its type is school.
func StudyHours(events []models.Event, now time.Time) float64 {
	minutes := 0
	for _, ev := range WeekTasks(events, now) {
		if strings.Contains(strings.ToLower(ev.Title), "study") || ev.Type == models.TypeSchool {
			minutes += ev.DurationMinutes()
		}
	}
	return math.Round(float64(minutes)/60*10) / 10
}

// Greeting picks the salutation for the hour of day.
func Greeting(hour int) string {
	switch {
	case hour >= 5 && hour < 12:
		return "Good morning"
	case hour >= 12 && hour < 18:
		return "Good afternoon"
	case hour >= 18 && hour < 22:
		return "Good evening"
	default:
		return "Good night"
	}
}

// ScoreMessage describes a balance score.
func ScoreMessage(score int) string {
	switch {
	case score >= 80:
		return "Excellent balance!"
	case score >= 60:
		return "Good balance"
	case score >= 40:
		return "Room for improvement"
	default:
		return "Let's rebalance"
	}
}

func countCompleted(events []models.Event) int {
	n := 0
	for _, ev := range events {
		if ev.IsCompleted() {
			n++
		}
	}
	return n
}

func percent(part, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(total) * 100))
}
