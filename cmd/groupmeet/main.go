// Command groupmeet is a terminal client for a GroupMeet backend.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	groupmeet "github.com/roqu1/groupmeet-sub000"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Global flags
	configPath string
	backendURL string
	verbose    bool
	jsonOutput bool
	timeout    time.Duration

	cfg    *groupmeet.Config
	logger *zap.Logger
)

const notLoggedInMsg = "not logged in - run 'groupmeet login' first"

var rootCmd = &cobra.Command{
	Use:   "groupmeet",
	Short: "GroupMeet from the terminal",
	Long: `groupmeet talks to a GroupMeet backend: your calendar and personal notes,
friends, meetings and user search. Calendars can be exported to .ics files
or synced into Google Calendar.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if configPath == "" {
			if configPath, err = groupmeet.DefaultConfigPath(); err != nil {
				return err
			}
		}
		if cfg, err = groupmeet.LoadConfig(configPath); err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if backendURL != "" {
			cfg.BaseURL = backendURL
		}
		if !cmd.Flags().Changed("timeout") {
			timeout = cfg.Timeout
		}

		logger, err = newLogger(cfg.LogLevel, verbose)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "config file (default $XDG_CONFIG_HOME/groupmeet/config.yaml)")
	pf.StringVar(&backendURL, "backend", "", "backend origin, overrides config and "+groupmeet.BackendURLEnv)
	pf.BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	pf.BoolVar(&jsonOutput, "json", false, "print results as JSON")
	pf.DurationVar(&timeout, "timeout", groupmeet.DefaultTimeout, "per-command timeout")
}

func newLogger(level string, debug bool) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	if debug {
		lvl = zapcore.DebugLevel
	}
	config.Level = zap.NewAtomicLevelAt(lvl)
	return config.Build()
}

// newClient builds a backend client with the saved session restored.
func newClient() (*groupmeet.Client, error) {
	client, err := groupmeet.NewClient(cfg.BaseURL, groupmeet.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	restored, err := groupmeet.LoadSession(client)
	if err != nil {
		logger.Warn("ignoring unreadable session", zap.Error(err))
	} else {
		logger.Debug("session loaded", zap.Bool("restored", restored), zap.String("backend", cfg.BaseURL))
	}
	return client, nil
}

// commandContext bounds a command by the --timeout flag.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), timeout)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// errorMessage renders err for the terminal.
func errorMessage(err error) string {
	if groupmeet.IsUnauthenticated(err) {
		return notLoggedInMsg
	}
	if apiErr, ok := groupmeet.AsAPIError(err); ok {
		msg := apiErr.Message
		if apiErr.RetryAfterSeconds > 0 {
			msg += fmt.Sprintf(" (retry in %ds)", apiErr.RetryAfterSeconds)
		}
		return msg
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "request timed out"
	}
	return err.Error()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", errorMessage(err))
		os.Exit(1)
	}
}
