package freetime

// SampleCalendars are demo participants used when no calendars are supplied.
func SampleCalendars() []Calendar {
	return []Calendar{
		{
			UserID: "user1",
			Events: []Event{
				{Start: "2025-06-20T09:00:00", End: "2025-06-20T10:00:00"},
				{Start: "2025-06-20T13:00:00", End: "2025-06-20T14:00:00", Status: Tentative},
				{Start: "2025-06-21T15:00:00", End: "2025-06-21T16:00:00"},
			},
			AvailabilityStart: "08:00",
			AvailabilityEnd:   "22:00",
			Timezone:          "UTC",
		},
		{
			UserID: "user2",
			Events: []Event{
				{Start: "2025-06-20T11:00:00", End: "2025-06-20T12:00:00"},
				{Start: "2025-06-20T15:00:00", End: "2025-06-20T16:00:00"},
				{Start: "2025-06-21T18:00:00", End: "2025-06-21T19:00:00"},
			},
			AvailabilityStart: "09:00",
			AvailabilityEnd:   "21:00",
			Timezone:          "UTC",
		},
		{
			UserID: "user3",
			Events: []Event{
				{Start: "2025-06-20T08:30:00", End: "2025-06-20T09:30:00"},
				{Start: "2025-06-20T17:00:00", End: "2025-06-20T18:00:00"},
				{Start: "2025-06-21T12:00:00", End: "2025-06-21T13:00:00"},
			},
			AvailabilityStart: "08:00",
			AvailabilityEnd:   "20:00",
			Timezone:          "UTC",
		},
	}
}

// SelectSamples returns the sample calendars with the given user ids, in the order asked.
// Unknown ids are ignored.
func SelectSamples(ids []string) []Calendar {
	byID := map[string]Calendar{}
	for _, c := range SampleCalendars() {
		byID[c.UserID] = c
	}
	out := []Calendar{}
	for _, id := range ids {
		if c, ok := byID[id]; ok {
			out = append(out, c)
		}
	}
	return out
}
