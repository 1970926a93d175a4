package google

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/api/classroom/v1"

	"fora/internal/models"
)

// Coursework fetches the published coursework of every active course and
// converts the items that have a due date into tasks.
func (c *Client) Coursework(ctx context.Context, loc *time.Location) ([]models.Event, error) {
	var courses []*classroom.Course
	err := c.classroom.Courses.List().
		CourseStates("ACTIVE").
		Pages(ctx, func(page *classroom.ListCoursesResponse) error {
			courses = append(courses, page.Courses...)
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}

	events := []models.Event{}
	for _, course := range courses {
		var work []*classroom.CourseWork
		err := c.classroom.Courses.CourseWork.List(course.Id).
			CourseWorkStates("PUBLISHED").
			Pages(ctx, func(page *classroom.ListCourseWorkResponse) error {
				work = append(work, page.CourseWork...)
				return nil
			})
		if err != nil {
			c.logger.Error("Could not fetch coursework for a course.", "course", course.Name, "error", err)
			continue
		}
		events = append(events, CourseworkToEvents(course, work, loc)...)
	}

	c.logger.Info("Fetched coursework from Google Classroom.", "account", c.account, "courses", len(courses), "tasks", len(events))
	return events, nil
}

// CourseworkToEvents turns coursework into pending tasks on their due date.
// Due dates are UTC in Classroom; they are moved to loc when a due time is set.
// Coursework without a due date is skipped.
func CourseworkToEvents(course *classroom.Course, work []*classroom.CourseWork, loc *time.Location) []models.Event {
	events := []models.Event{}
	for _, cw := range work {
		if cw.DueDate == nil {
			continue
		}
		ev := models.Event{
			Title:       fmt.Sprintf("%s: %s", course.Name, cw.Title),
			Description: cw.Description,
			Type:        models.TypeTask,
			Completed:   models.BoolPtr(false),
			Source:      SourceClassroom,
			ExternalID:  cw.Id,
		}
		due := time.Date(int(cw.DueDate.Year), time.Month(cw.DueDate.Month), int(cw.DueDate.Day), 0, 0, 0, 0, time.UTC)
		if cw.DueTime != nil {
			due = due.Add(time.Duration(cw.DueTime.Hours)*time.Hour + time.Duration(cw.DueTime.Minutes)*time.Minute).In(loc)
			ev.Time = due.Format("15:04")
		}
		ev.Date = due.Format(models.DateLayout)
		events = append(events, ev)
	}
	return events
}
