package social

import "fora/internal/models"

const defaultAvatar = "/default-avatar.png"

// CalendarColors are assigned round-robin to new group calendars.
var CalendarColors = []string{
	"from-purple-400 to-blue-400",
	"from-blue-400 to-cyan-400",
	"from-pink-400 to-purple-400",
	"from-green-400 to-blue-400",
}

type suggestionMeta struct {
	mutualFriends []string
	classes       []string
}

type fixtures struct {
	profiles    []models.UserProfile
	friends     []string
	requests    []models.FriendRequest
	suggestions map[string]suggestionMeta
	calendars   []models.GroupCalendar
	groupEvents []models.GroupEvent
}

func profile(id, username, name, bio string, status models.PresenceStatus, interests ...string) models.UserProfile {
	return models.UserProfile{
		UserID:        id,
		Username:      username,
		DisplayName:   name,
		ProfilePicURL: defaultAvatar,
		Bio:           bio,
		FriendList:    []string{},
		Status:        status,
		Interests:     interests,
	}
}

// demoFixtures is the data a fresh Directory starts with. Requests target me.
func demoFixtures(me string) fixtures {
	return fixtures{
		profiles: []models.UserProfile{
			profile("1", "maya", "Maya Chen", "Loves math and music", models.StatusOnline, "Mathematics", "Music"),
			profile("2", "jordan", "Jordan Smith", "Soccer captain", models.StatusBusy, "Soccer"),
			profile("3", "sarah", "Sarah Johnson", "Computer science major", models.StatusStudying, "Study Groups", "Reading", "Organization"),
			profile("4", "mike", "Mike Rodriguez", "Photography enthusiast", models.StatusFree, "Photography", "Travel", "Art"),
			profile("5", "alex", "Alex Rivera", "Science club president", models.StatusOffline, "Science"),
			profile("6", "emma", "Emma Wilson", "Art and design lover", models.StatusOnline, "Computer Science", "Coding", "Coffee"),
			profile("7", "david", "David Kim", "Math tutor and chess player", models.StatusOnline, "Mathematics", "Chess", "Tutoring"),
			profile("8", "lisa", "Lisa Park", "Study group organizer", models.StatusFree, "Art", "Design", "Creativity"),
		},
		friends: []string{"1", "2", "3", "4"},
		requests: []models.FriendRequest{
			{From: "5", To: me, Status: models.RequestPending},
			{From: "6", To: me, Status: models.RequestPending},
		},
		suggestions: map[string]suggestionMeta{
			"6": {mutualFriends: []string{"Maya Chen", "Jordan Smith"}, classes: []string{"CS 101", "Calculus I"}},
			"7": {mutualFriends: []string{"Alex Rivera"}, classes: []string{"Calculus I", "Linear Algebra"}},
			"8": {mutualFriends: []string{"Emma Wilson"}, classes: []string{"Design Principles", "Art History"}},
		},
		calendars: []models.GroupCalendar{
			{ID: "1", Name: "Study Group", Color: CalendarColors[0], Icon: 1, Role: models.RoleOwner, Members: []string{"You", "Alice", "Bob"}},
			{ID: "2", Name: "Robotics Club", Color: CalendarColors[1], Icon: 2, Role: models.RoleEditor, Members: []string{"You", "Eve", "Mallory"}},
		},
		groupEvents: []models.GroupEvent{
			{ID: "e1", Title: "Group Study", Date: "2025-06-20", Time: "16:00", Duration: 90, CreatedBy: "Alice", CalendarID: "1"},
			{ID: "e2", Title: "Robotics Meeting", Date: "2025-06-21", Time: "18:00", Duration: 60, CreatedBy: "Mallory", CalendarID: "2"},
		},
	}
}
