package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	groupmeet "github.com/roqu1/groupmeet-sub000"
	"github.com/spf13/cobra"
)

const monthLayout = "2006-01"

var (
	calendarUserID int64
	calendarMonth  string
	exportICSPath  string
	exportMonths   int
)

var calendarCmd = &cobra.Command{
	Use:   "calendar",
	Short: "Show and export calendars",
}

var calendarMonthCmd = &cobra.Command{
	Use:   "month",
	Short: "Show one month of meetings and notes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ref, err := parseMonth(calendarMonth)
		if err != nil {
			return err
		}
		client, err := newClient()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()

		data, err := groupmeet.NewCalendar(client).FetchCalendarData(ctx, groupmeet.MonthRange(ref), calendarUserID)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), data)
		}
		return renderMonth(cmd.OutOrStdout(), ref, data)
	},
}

var calendarDayCmd = &cobra.Command{
	Use:   "day DATE",
	Short: "Show the meetings and note of one day (YYYY-MM-DD)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()

		day, err := groupmeet.NewCalendar(client).FetchDayDetails(ctx, args[0], calendarUserID)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), day)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, day.Date)
		if len(day.EventsForDay) == 0 {
			fmt.Fprintln(out, "  no meetings")
		}
		for _, e := range day.EventsForDay {
			fmt.Fprintf(out, "  %s  %s  [%s] %s\n", e.DateTime.Format("15:04"), e.Title, e.Format, e.Location)
			if link := groupmeet.MeetingURL(e); link != "" {
				fmt.Fprintf(out, "         %s\n", link)
			}
		}
		if day.NoteForDay != nil {
			fmt.Fprintf(out, "  note: %s\n", day.NoteForDay.Content)
		}
		return nil
	},
}

var calendarExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export meetings and notes to an .ics file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if exportICSPath == "" {
			return fmt.Errorf("--ics is required")
		}
		ref, err := parseMonth(calendarMonth)
		if err != nil {
			return err
		}
		client, err := newClient()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()

		data, err := groupmeet.NewCalendar(client).FetchMonths(ctx, ref, exportMonths, calendarUserID)
		if err != nil {
			return err
		}

		var w io.Writer = cmd.OutOrStdout()
		if exportICSPath != "-" {
			f, err := os.Create(exportICSPath)
			if err != nil {
				return fmt.Errorf("create %s: %w", exportICSPath, err)
			}
			defer f.Close()
			w = f
		}
		if err := groupmeet.WriteICS(w, data, groupmeet.ICSOptions{Name: "GroupMeet"}); err != nil {
			return err
		}
		if exportICSPath != "-" {
			fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d meetings and %d notes to %s\n", len(data.Events), len(data.Notes), exportICSPath)
		}
		return nil
	},
}

var noteCmd = &cobra.Command{
	Use:   "note",
	Short: "Manage personal notes",
}

var noteSetCmd = &cobra.Command{
	Use:   "set DATE TEXT...",
	Short: "Create or replace the note for a date",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()

		note, err := groupmeet.NewCalendar(client).SavePersonalNote(ctx, groupmeet.PersonalNoteRequest{
			NoteDate: args[0],
			Content:  strings.Join(args[1:], " "),
		})
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), note)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Saved note for %s\n", note.NoteDate)
		return nil
	},
}

var noteDeleteCmd = &cobra.Command{
	Use:   "delete DATE",
	Short: "Delete the note for a date",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()

		if err := groupmeet.NewCalendar(client).DeletePersonalNote(ctx, args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted note for %s\n", args[0])
		return nil
	},
}

// parseMonth parses YYYY-MM in the local zone; empty means this month.
func parseMonth(s string) (time.Time, error) {
	if s == "" {
		return time.Now(), nil
	}
	t, err := time.ParseInLocation(monthLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid month %q: want YYYY-MM", s)
	}
	return t, nil
}

func renderMonth(w io.Writer, ref time.Time, data groupmeet.CalendarData) error {
	fmt.Fprintln(w, ref.Format("January 2006"))

	events := groupmeet.ProjectToWidgetEvents(data)
	conflicts := groupmeet.FindConflicts(events)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for i, e := range events {
		mark := ""
		if conflicts[i] {
			mark = "!"
		}
		role := ""
		if e.Resource != nil && e.Resource.IsOrganizer {
			role = "organizer"
		}
		fmt.Fprintf(tw, "%s\t%s-%s\t%s\t%s\t%s\n",
			e.Start.Format("Mon 02"), e.Start.Format("15:04"), e.End.Format("15:04"), e.Title, role, mark)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if len(events) == 0 {
		fmt.Fprintln(w, "no meetings")
	}

	for _, n := range data.Notes {
		fmt.Fprintf(w, "note %s: %s\n", n.NoteDate, n.Content)
	}
	return nil
}

func init() {
	for _, c := range []*cobra.Command{calendarMonthCmd, calendarDayCmd, calendarExportCmd} {
		c.Flags().Int64Var(&calendarUserID, "user", 0, "friend's user id (default: your own calendar)")
	}
	calendarMonthCmd.Flags().StringVar(&calendarMonth, "date", "", "month as YYYY-MM (default: current)")
	calendarExportCmd.Flags().StringVar(&calendarMonth, "date", "", "first month as YYYY-MM (default: current)")
	calendarExportCmd.Flags().StringVar(&exportICSPath, "ics", "", "output file, - for stdout")
	calendarExportCmd.Flags().IntVar(&exportMonths, "months", 1, "number of months to export")

	calendarCmd.AddCommand(calendarMonthCmd, calendarDayCmd, calendarExportCmd)
	noteCmd.AddCommand(noteSetCmd, noteDeleteCmd)
	rootCmd.AddCommand(calendarCmd, noteCmd)
}
