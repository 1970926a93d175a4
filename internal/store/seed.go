package store

import "fora/internal/models"

// SampleEvents is the list a fresh install starts with.
func SampleEvents() []models.Event {
	return []models.Event{
		{
			ID:          1,
			Title:       "Math Homework - Chapter 12",
			Date:        "2025-06-18",
			Duration:    models.IntPtr(90),
			Priority:    models.IntPtr(5),
			EnergyLevel: models.EnergyHigh,
			Completed:   models.BoolPtr(false),
			Type:        models.TypeTask,
		},
		{
			ID:          2,
			Title:       "Read History Chapter",
			Date:        "2025-06-19",
			Duration:    models.IntPtr(45),
			Priority:    models.IntPtr(3),
			EnergyLevel: models.EnergyMedium,
			Completed:   models.BoolPtr(false),
			Type:        models.TypeTask,
		},
		{
			ID:          3,
			Title:       "Science Lab Report",
			Date:        "2025-06-21",
			Duration:    models.IntPtr(120),
			Priority:    models.IntPtr(4),
			EnergyLevel: models.EnergyHigh,
			Completed:   models.BoolPtr(true),
			Type:        models.TypeTask,
		},
		{
			ID:       100,
			Title:    "Math Class",
			Date:     "2025-06-17",
			Time:     "09:00",
			Type:     models.TypeSchool,
			Location: "Room 201",
		},
		{
			ID:        101,
			Title:     "Study Group",
			Date:      "2025-06-17",
			Time:      "15:00",
			Type:      models.TypeSocial,
			Attendees: models.IntPtr(4),
		},
	}
}

func cloneEvents(events []models.Event) []models.Event {
	if events == nil {
		return []models.Event{}
	}
	out := make([]models.Event, len(events))
	for i, ev := range events {
		out[i] = cloneEvent(ev)
	}
	return out
}

// cloneEvent copies the optional fields so callers cannot mutate stored records.
func cloneEvent(ev models.Event) models.Event {
	if ev.Duration != nil {
		ev.Duration = models.IntPtr(*ev.Duration)
	}
	if ev.Priority != nil {
		ev.Priority = models.IntPtr(*ev.Priority)
	}
	if ev.Completed != nil {
		ev.Completed = models.BoolPtr(*ev.Completed)
	}
	if ev.Attendees != nil {
		ev.Attendees = models.IntPtr(*ev.Attendees)
	}
	return ev
}
