package ordering

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fora/internal/models"
)

func ids(events []models.Event) []int {
	out := make([]int, 0, len(events))
	for _, ev := range events {
		out = append(out, ev.ID)
	}
	return out
}

func sample() []models.Event {
	return []models.Event{
		{ID: 1, Date: "2025-06-20", Priority: models.IntPtr(3), Duration: models.IntPtr(30), Type: models.TypeTask},
		{ID: 2, Date: "2025-06-18", Priority: models.IntPtr(5), Type: models.TypeTask, Completed: models.BoolPtr(true)},
		{ID: 3, Date: "2025-06-19", Duration: models.IntPtr(120), Type: models.TypeSocial},
		{ID: 4, Date: "2025-06-18", Priority: models.IntPtr(3), Duration: models.IntPtr(30), Type: models.TypeTask},
		{ID: 5, Date: "someday", Priority: models.IntPtr(1), Duration: models.IntPtr(60), Type: models.TypeTask},
	}
}

func TestSort(t *testing.T) {
	tests := []struct {
		mode Mode
		want []int
	}{
		{mode: ByPriority, want: []int{2, 1, 4, 5, 3}},
		{mode: ByUrgency, want: []int{2, 4, 3, 1, 5}},
		{mode: ByWorkload, want: []int{3, 5, 1, 4, 2}},
		{mode: "random", want: []int{1, 2, 3, 4, 5}},
	}
	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			in := sample()
			got := Sort(in, tt.mode)
			assert.Equal(t, tt.want, ids(got))
			assert.Equal(t, []int{1, 2, 3, 4, 5}, ids(in), "input must not be reordered")
		})
	}
}

func TestSort_Empty(t *testing.T) {
	got := Sort(nil, ByPriority)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ByPriority, m)

	m, err = ParseMode("workload")
	require.NoError(t, err)
	assert.Equal(t, ByWorkload, m)

	_, err = ParseMode("alphabetical")
	assert.Error(t, err)
}

func TestFilterTasks(t *testing.T) {
	events := sample()
	assert.Equal(t, []int{1, 2, 4, 5}, ids(FilterTasks(events, AllTasks)))
	assert.Equal(t, []int{2}, ids(FilterTasks(events, CompletedTasks)))
	assert.Equal(t, []int{1, 4, 5}, ids(FilterTasks(events, PendingTasks)))
	assert.Empty(t, FilterTasks(nil, PendingTasks))

	f, err := ParseFilter("")
	require.NoError(t, err)
	assert.Equal(t, AllTasks, f)
	_, err = ParseFilter("overdue")
	assert.Error(t, err)
}
