package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fora/internal/models"
	"fora/internal/ordering"
)

func TestByDate(t *testing.T) {
	events := []models.Event{
		{ID: 1, Date: "2025-06-18", Type: models.TypeTask, Completed: models.BoolPtr(false)},
		{ID: 2, Date: "2025-06-18", Type: models.TypeTask, Completed: models.BoolPtr(true)},
		{ID: 3, Date: "2025-06-19", Type: models.TypeSocial},
	}
	b := ByDate(events)
	require.Len(t, b["2025-06-18"], 2)
	assert.Equal(t, 1, b["2025-06-18"][0].ID)
	assert.Equal(t, 2, b["2025-06-18"][1].ID)
	require.Len(t, b["2025-06-19"], 1)

	total := 0
	for date, bucket := range b {
		for _, ev := range bucket {
			assert.Equal(t, date, ev.Date)
		}
		total += len(bucket)
	}
	assert.Equal(t, len(events), total)

	assert.Empty(t, ByDate(nil))
}

func TestMonthGrid_Shape(t *testing.T) {
	tests := []struct {
		year       int
		month      time.Month
		wantFirst  string
		wantLast   string
		wantLength int
	}{
		// June 2025 starts on a Sunday and ends on a Monday
		{year: 2025, month: time.June, wantFirst: "2025-06-01", wantLast: "2025-07-05", wantLength: 35},
		// February 2026 starts on a Sunday and ends on a Saturday
		{year: 2026, month: time.February, wantFirst: "2026-02-01", wantLast: "2026-02-28", wantLength: 28},
		// March 2025 starts on a Saturday
		{year: 2025, month: time.March, wantFirst: "2025-02-23", wantLast: "2025-04-05", wantLength: 42},
	}
	for _, tt := range tests {
		t.Run(tt.month.String(), func(t *testing.T) {
			cells := MonthGrid(tt.year, tt.month, nil)
			require.Len(t, cells, tt.wantLength)
			assert.Zero(t, len(cells)%7)
			assert.Equal(t, tt.wantFirst, cells[0].Date)
			assert.Equal(t, "Sunday", cells[0].Weekday)
			assert.Equal(t, tt.wantLast, cells[len(cells)-1].Date)
			assert.Equal(t, "Saturday", cells[len(cells)-1].Weekday)
			for _, c := range cells {
				d, err := time.Parse(models.DateLayout, c.Date)
				require.NoError(t, err)
				assert.Equal(t, d.Month() == tt.month, c.InMonth, c.Date)
			}
		})
	}
}

func TestMonthGrid_Indicators(t *testing.T) {
	events := []models.Event{
		{ID: 1, Date: "2025-06-17", Type: models.TypeTask},
		{ID: 2, Date: "2025-06-17", Type: models.TypeTask},
		{ID: 3, Date: "2025-06-17", Type: models.TypeSchool},
		{ID: 4, Date: "2025-06-17", Type: models.TypeSocial},
		{ID: 5, Date: "2025-06-17", Type: models.TypeClub},
		{ID: 6, Date: "2025-06-17", Type: models.TypeStudy},
		{ID: 7, Date: "2025-06-17", Type: "mystery"},
		{ID: 8, Date: "2025-06-18", Type: models.TypeSocial},
	}
	cells := MonthGrid(2025, time.June, ByDate(events))

	byDate := map[string]DayCell{}
	for _, c := range cells {
		byDate[c.Date] = c
	}

	c := byDate["2025-06-17"]
	assert.Equal(t, 17, c.Day)
	assert.Equal(t, 2, c.TaskCount)
	assert.Equal(t, []Dot{
		{Type: models.TypeSchool, Color: "#b2aaff"},
		{Type: models.TypeSocial, Color: "#b2f2bb"},
		{Type: models.TypeClub, Color: "#6f42c1"},
	}, c.Dots)
	assert.Equal(t, 2, c.Overflow)

	c = byDate["2025-06-18"]
	assert.Equal(t, 0, c.TaskCount)
	assert.Len(t, c.Dots, 1)
	assert.Equal(t, 0, c.Overflow)

	c = byDate["2025-06-19"]
	assert.Empty(t, c.Dots)
	assert.NotNil(t, c.Dots)
}

func TestTypeColor(t *testing.T) {
	assert.Equal(t, "#fbbf24", TypeColor(models.TypeTask))
	assert.Equal(t, "#a7f3d0", TypeColor(models.TypeStudy))
	assert.Equal(t, "#cbb8f5", TypeColor("unknown"))
}

func TestWeekDates(t *testing.T) {
	ref := time.Date(2025, time.June, 18, 15, 0, 0, 0, time.UTC)
	dates := WeekDates(ref)
	require.Len(t, dates, 7)
	assert.Equal(t, "2025-06-15", dates[0].Format(models.DateLayout))
	assert.Equal(t, "2025-06-21", dates[6].Format(models.DateLayout))
	assert.Equal(t, time.Sunday, dates[0].Weekday())
}

func TestWeekAndDayView(t *testing.T) {
	events := []models.Event{
		{ID: 1, Date: "2025-06-14", Priority: models.IntPtr(5), Type: models.TypeTask},
		{ID: 2, Date: "2025-06-16", Priority: models.IntPtr(2), Type: models.TypeTask},
		{ID: 3, Date: "2025-06-18", Priority: models.IntPtr(4), Type: models.TypeTask},
		{ID: 4, Date: "2025-06-18", Priority: models.IntPtr(1), Duration: models.IntPtr(90), Type: models.TypeTask},
		{ID: 5, Date: "2025-06-22", Priority: models.IntPtr(5), Type: models.TypeTask},
	}
	b := ByDate(events)
	ref := time.Date(2025, time.June, 18, 0, 0, 0, 0, time.UTC)

	week := WeekView(ref, b, ordering.ByPriority)
	assert.Equal(t, "2025-06-15", week.Start)
	require.Len(t, week.Days, 7)
	assert.Len(t, week.Days[3].Events, 2)
	got := []int{}
	for _, ev := range week.Sorted {
		got = append(got, ev.ID)
	}
	assert.Equal(t, []int{3, 2, 4}, got)

	day := DayView(ref, b, ordering.ByWorkload)
	require.Len(t, day, 2)
	assert.Equal(t, 4, day[0].ID)

	assert.Empty(t, DayView(ref.AddDate(0, 0, 1), b, ordering.ByUrgency))
}
