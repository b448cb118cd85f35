package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	groupmeet "github.com/roqu1/groupmeet-sub000"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	syncSchedule string
	syncMonths   int
	syncOnce     bool
	syncCalendar string
)

var googleCmd = &cobra.Command{
	Use:   "google",
	Short: "Google Calendar integration",
}

var googleAuthCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authorize writing to Google Calendar",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := cfg.CredentialsPath()
		if err != nil {
			return err
		}
		creds, err := groupmeet.LoadCredentials(path)
		if err != nil {
			return err
		}
		return groupmeet.RunAuthFlow(cmd.Context(), creds, cfg.Google.CallbackPort, cmd.OutOrStdout())
	},
}

var googleCalendarsCmd = &cobra.Command{
	Use:   "calendars",
	Short: "List the Google calendars you can export to",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()

		exporter, err := newExporter(ctx)
		if err != nil {
			return err
		}
		calendars, err := exporter.ListCalendars(ctx)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), calendars)
		}
		for _, c := range calendars {
			primary := ""
			if c.Primary {
				primary = " (primary)"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s%s\n", c.ID, c.Summary, primary)
		}
		return nil
	},
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Export your meetings into Google Calendar, once or on a cron schedule",
	RunE: func(cmd *cobra.Command, args []string) error {
		if syncSchedule == "" {
			syncSchedule = cfg.Sync.Schedule
		}
		if syncMonths <= 0 {
			syncMonths = cfg.Sync.Months
		}
		if syncCalendar == "" {
			syncCalendar = cfg.Google.CalendarID
		}

		client, err := newClient()
		if err != nil {
			return err
		}
		// The Google client outlives single runs, so it is bound to the
		// command rather than to one timeout.
		exporter, err := newExporter(cmd.Context())
		if err != nil {
			return err
		}

		run := func() error {
			ctx, cancel := commandContext(cmd)
			defer cancel()
			result, err := syncOnceRun(ctx, client, exporter)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(cmd.OutOrStdout(), result)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s synced: %d created, %d updated, %d failed\n",
				time.Now().Format(time.RFC3339), result.Created, result.Updated, len(result.Errors))
			return nil
		}

		if err := run(); err != nil {
			return err
		}
		if syncOnce {
			return nil
		}

		c := cron.New(cron.WithLogger(cronLogger{logger.Sugar()}))
		if _, err := c.AddFunc(syncSchedule, func() {
			if err := run(); err != nil {
				logger.Error("scheduled sync failed", zap.String("reason", errorMessage(err)))
			}
		}); err != nil {
			return fmt.Errorf("invalid schedule %q: %w", syncSchedule, err)
		}

		logger.Info("sync scheduled", zap.String("schedule", syncSchedule), zap.Int("months", syncMonths))
		c.Start()
		<-cmd.Context().Done()
		<-c.Stop().Done()
		return nil
	},
}

func newExporter(ctx context.Context) (*groupmeet.GoogleExporter, error) {
	path, err := cfg.CredentialsPath()
	if err != nil {
		return nil, err
	}
	hc, err := groupmeet.GoogleHTTPClient(ctx, path, logger)
	if err != nil {
		return nil, err
	}
	return groupmeet.NewGoogleExporter(ctx, hc, logger)
}

func syncOnceRun(ctx context.Context, client *groupmeet.Client, exporter *groupmeet.GoogleExporter) (groupmeet.ExportResult, error) {
	data, err := groupmeet.NewCalendar(client).FetchMonths(ctx, time.Now(), syncMonths, 0)
	if err != nil {
		return groupmeet.ExportResult{}, err
	}
	result := exporter.Export(ctx, syncCalendar, groupmeet.ProjectToWidgetEvents(data))
	if !result.Success {
		return result, errors.New(result.Message)
	}
	return result, nil
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	s *zap.SugaredLogger
}

var _ cron.Logger = cronLogger{}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}

func init() {
	syncCmd.Flags().StringVar(&syncSchedule, "schedule", "", "cron schedule (default from config)")
	syncCmd.Flags().IntVar(&syncMonths, "months", 0, "months to export starting with the current one (default from config)")
	syncCmd.Flags().BoolVar(&syncOnce, "once", false, "run a single export and exit")
	syncCmd.Flags().StringVar(&syncCalendar, "calendar", "", "Google calendar id (default from config)")

	googleCmd.AddCommand(googleAuthCmd, googleCalendarsCmd)
	rootCmd.AddCommand(googleCmd, syncCmd)
}
