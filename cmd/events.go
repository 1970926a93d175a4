package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"fora/internal/calendar"
	"fora/internal/freetime"
	"fora/internal/ics"
	"fora/internal/metrics"
	"fora/internal/models"
	"fora/internal/ordering"
	"fora/internal/store"

	"github.com/urfave/cli/v2"
)

func addCommand() *cli.Command {
	return &cli.Command{
		Name:      "add",
		Usage:     "Add a task or an event.",
		ArgsUsage: "TITLE",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "date", Aliases: []string{"d"}, Usage: "Day of the event as YYYY-MM-DD. Defaults to today."},
			&cli.StringFlag{Name: "time", Aliases: []string{"t"}, Usage: "Start time, e.g. 14:00 or 2:00 PM."},
			&cli.IntFlag{Name: "duration", Usage: "Duration in minutes."},
			&cli.IntFlag{Name: "priority", Aliases: []string{"p"}, Usage: "Priority from 1 to 5."},
			&cli.StringFlag{Name: "energy", Usage: "Energy level (low, medium, high)."},
			&cli.StringFlag{Name: "type", Value: string(models.TypeTask), Usage: "Event type."},
			&cli.StringFlag{Name: "location", Usage: "Where it happens."},
			&cli.StringFlag{Name: "description", Usage: "Free text notes."},
		},
		Action: func(c *cli.Context) error {
			e, err := setup(c)
			if err != nil {
				return err
			}
			defer e.close()

			ne := models.NewEvent{
				Title:       strings.Join(c.Args().Slice(), " "),
				Description: c.String("description"),
				Date:        c.String("date"),
				Time:        c.String("time"),
				EnergyLevel: models.EnergyLevel(c.String("energy")),
				Type:        models.EventType(c.String("type")),
				Location:    c.String("location"),
				Source:      "cli",
			}
			if ne.Date == "" {
				ne.Date = e.now().Format(models.DateLayout)
			}
			if c.IsSet("duration") {
				ne.Duration = models.IntPtr(c.Int("duration"))
			}
			if c.IsSet("priority") {
				ne.Priority = models.IntPtr(c.Int("priority"))
			}

			ev, err := e.store.Add(c.Context, ne)
			if err != nil {
				for _, fe := range models.FieldErrors(err) {
					fmt.Fprintf(os.Stderr, "%s: %s\n", fe.Field, fe.Error)
				}
				return err
			}
			fmt.Printf("Added %s %d: %s on %s\n", ev.Type, ev.ID, ev.Title, ev.Date)
			return nil
		},
	}
}

func toggleCommand() *cli.Command {
	return &cli.Command{
		Name:      "toggle",
		Usage:     "Mark a task as done, or as pending again.",
		ArgsUsage: "ID",
		Action: func(c *cli.Context) error {
			id, err := strconv.Atoi(c.Args().First())
			if err != nil {
				return fmt.Errorf("invalid event id '%s'", c.Args().First())
			}
			e, err := setup(c)
			if err != nil {
				return err
			}
			defer e.close()

			ev, found, err := e.store.ToggleCompletion(c.Context, id)
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("event %d: %w", id, store.ErrEventNotFound)
			}
			state := "pending"
			if ev.IsCompleted() {
				state = "done"
			}
			fmt.Printf("%d %s: %s\n", ev.ID, ev.Title, state)
			return nil
		},
	}
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List events, or tasks when a filter is given.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "sort", Aliases: []string{"s"}, Usage: "Sort by priority, urgency or workload."},
			&cli.StringFlag{Name: "filter", Aliases: []string{"f"}, Usage: "Show all, completed or pending tasks."},
		},
		Action: func(c *cli.Context) error {
			e, err := setup(c)
			if err != nil {
				return err
			}
			defer e.close()

			events := e.store.Events()
			if c.IsSet("filter") {
				f, err := ordering.ParseFilter(c.String("filter"))
				if err != nil {
					return err
				}
				events = ordering.FilterTasks(events, f)
			}
			if c.IsSet("sort") {
				mode, err := ordering.ParseMode(c.String("sort"))
				if err != nil {
					return err
				}
				events = ordering.Sort(events, mode)
			}
			printEvents(os.Stdout, events)
			return nil
		},
	}
}

func printEvents(w io.Writer, events []models.Event) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tTIME\tTYPE\tPRIO\tMIN\tDONE\tTITLE")
	for _, ev := range events {
		done := ""
		if ev.IsTask() {
			done = "no"
			if ev.IsCompleted() {
				done = "yes"
			}
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%d\t%s\t%s\n",
			ev.ID, ev.Date, ev.Time, ev.Type, ev.PriorityLevel(), ev.DurationMinutes(), done, ev.Title)
	}
	_ = tw.Flush()
}

func dashboardCommand() *cli.Command {
	return &cli.Command{
		Name:  "dashboard",
		Usage: "Show today's tasks, balance score and free time.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "date", Aliases: []string{"d"}, Usage: "Show the dashboard of another day (YYYY-MM-DD)."},
			&cli.BoolFlag{Name: "json", Usage: "Print the dashboard as JSON."},
		},
		Action: func(c *cli.Context) error {
			e, err := setup(c)
			if err != nil {
				return err
			}
			defer e.close()

			now := e.now()
			if c.IsSet("date") {
				day, err := time.ParseInLocation(models.DateLayout, c.String("date"), e.loc)
				if err != nil {
					return fmt.Errorf("invalid date '%s': %w", c.String("date"), err)
				}
				now = time.Date(day.Year(), day.Month(), day.Day(), now.Hour(), now.Minute(), 0, 0, e.loc)
			}
			dash := metrics.Compute(e.store.Events(), now)

			if c.Bool("json") {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(dash)
			}

			fmt.Printf("%s (%s)\n\n", dash.Greeting, dash.Date)
			fmt.Printf("Balance score: %d%% - %s\n", dash.BalanceScore, dash.ScoreMessage)
			fmt.Printf("Tasks done: %d/%d, this week %d/%d (%d%%)\n",
				dash.CompletedTasks, dash.TotalTasks, dash.WeekCompleted, dash.WeekTasks, dash.WeekProgress)
			fmt.Printf("Study hours this week: %.1f\n\n", dash.StudyHours)

			fmt.Println("Free time:")
			for _, b := range dash.FreeTime {
				fmt.Printf("  %-10s %2d:00-%2d:00  %3d min free\n", b.Block, b.StartHour, b.EndHour, b.FreeMinutes)
			}
			fmt.Printf("  total %d min\n\n", dash.FreeTimeLeft)

			fmt.Println("Due soon:")
			printEvents(os.Stdout, dash.DueSoon)
			if len(dash.TodaysEvents) > 0 {
				fmt.Println("\nToday:")
				printEvents(os.Stdout, dash.TodaysEvents)
			}
			return nil
		},
	}
}

func monthCommand() *cli.Command {
	return &cli.Command{
		Name:      "month",
		Usage:     "Print the month grid with task counts.",
		ArgsUsage: "[YEAR MONTH]",
		Action: func(c *cli.Context) error {
			e, err := setup(c)
			if err != nil {
				return err
			}
			defer e.close()

			year, month := e.now().Year(), e.now().Month()
			if c.NArg() == 2 {
				y, errY := strconv.Atoi(c.Args().Get(0))
				m, errM := strconv.Atoi(c.Args().Get(1))
				if errY != nil || errM != nil || m < 1 || m > 12 {
					return fmt.Errorf("invalid month '%s %s'", c.Args().Get(0), c.Args().Get(1))
				}
				year, month = y, time.Month(m)
			}

			cells := calendar.MonthGrid(year, month, calendar.ByDate(e.store.Events()))
			fmt.Printf("%s %d\n", month, year)
			fmt.Println("  Sun    Mon    Tue    Wed    Thu    Fri    Sat")
			for i, cell := range cells {
				label := "  "
				if cell.InMonth {
					label = fmt.Sprintf("%2d", cell.Day)
				}
				marks := strings.Repeat("*", len(cell.Dots))
				if cell.TaskCount > 0 {
					marks += strconv.Itoa(cell.TaskCount)
				}
				fmt.Printf(" %s%-4s ", label, marks)
				if i%7 == 6 {
					fmt.Println()
				}
			}
			return nil
		},
	}
}

func freeTimeCommand() *cli.Command {
	return &cli.Command{
		Name:  "freetime",
		Usage: "Find the slots in which every participant is free.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "JSON file with a list of calendars. Defaults to the sample calendars."},
			&cli.StringSliceFlag{Name: "user", Aliases: []string{"u"}, Usage: "Use only these sample users."},
			&cli.IntFlag{Name: "min-block", Value: int(freetime.DefaultMinBlock / time.Minute), Usage: "Shortest slot in minutes."},
			&cli.BoolFlag{Name: "tentative-free", Usage: "Treat tentative events as free and tag their slots as tentative."},
		},
		Action: func(c *cli.Context) error {
			logger := setupLogger("info")

			users := freetime.SampleCalendars()
			switch {
			case c.IsSet("file"):
				data, err := os.ReadFile(c.String("file"))
				if err != nil {
					return fmt.Errorf("unable to read calendars file: %w", err)
				}
				users = nil
				if err := json.Unmarshal(data, &users); err != nil {
					return fmt.Errorf("unable to parse calendars file: %w", err)
				}
			case c.IsSet("user"):
				users = freetime.SelectSamples(c.StringSlice("user"))
			}
			for _, u := range users {
				if err := models.Validate.Struct(u); err != nil {
					return fmt.Errorf("calendar of %s: %w", u.UserID, err)
				}
			}

			blocks, err := freetime.Mutual(users, freetime.Options{
				MinBlock:        time.Duration(c.Int("min-block")) * time.Minute,
				TentativeIsFree: c.Bool("tentative-free"),
			})
			if err != nil {
				return err
			}
			logger.Debug("Computed mutual free time.", "users", len(users), "blocks", len(blocks))

			tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "DATE\tSTART\tEND\tTAG\tSCORE")
			for _, b := range blocks {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.0f\n", b.Date, b.Start, b.End, b.Tag, b.Score)
			}
			return tw.Flush()
		},
	}
}

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Write all events as an iCalendar file.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Output file. Defaults to stdout."},
			&cli.StringFlag{Name: "name", Value: "Fora", Usage: "Calendar name."},
		},
		Action: func(c *cli.Context) error {
			e, err := setup(c)
			if err != nil {
				return err
			}
			defer e.close()

			var w io.Writer = os.Stdout
			if path := c.String("output"); path != "" {
				f, err := os.Create(path)
				if err != nil {
					return fmt.Errorf("unable to create %s: %w", path, err)
				}
				defer f.Close()
				w = f
			}

			events := e.store.Events()
			if err := ics.Encode(w, c.String("name"), events, e.loc, time.Now()); err != nil {
				return err
			}
			e.logger.Info("Exported events.", "count", len(events), "output", c.String("output"))
			return nil
		},
	}
}
