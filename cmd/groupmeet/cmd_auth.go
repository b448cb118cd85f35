package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	groupmeet "github.com/roqu1/groupmeet-sub000"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"
)

var loginPassword string

var loginCmd = &cobra.Command{
	Use:   "login USERNAME_OR_EMAIL",
	Short: "Log in and save the session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		password := loginPassword
		if password == "" {
			var err error
			if password, err = readPassword(cmd.InOrStdin(), cmd.ErrOrStderr()); err != nil {
				return err
			}
		}

		client, err := newClient()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()

		user, err := groupmeet.NewAuth(client).Login(ctx, groupmeet.LoginRequest{
			UsernameOrEmail: args[0],
			Password:        password,
		})
		if err != nil {
			// Bad credentials are a 401 too; show the server's text instead of the
			// generic not-logged-in hint.
			if apiErr, ok := groupmeet.AsAPIError(err); ok {
				return errors.New(apiErr.Message)
			}
			return err
		}
		if err := groupmeet.SaveSession(client); err != nil {
			return err
		}
		logger.Debug("logged in", zap.Int64("user_id", user.ID))

		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), user)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (%s %s)\n", user.Username, user.FirstName, user.LastName)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "End the session and forget it",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()

		if err := groupmeet.NewAuth(client).Logout(ctx); err != nil && !groupmeet.IsUnauthenticated(err) {
			logger.Warn("server logout failed", zap.Error(err))
		}
		if err := groupmeet.ClearSession(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged-in account",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()

		user, err := groupmeet.NewAuth(client).Me(ctx)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), user)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s (%s %s) <%s> id=%d\n", user.Username, user.FirstName, user.LastName, user.Email, user.ID)
		return nil
	},
}

// readPassword prompts without echo on a terminal, or reads one line otherwise.
func readPassword(in io.Reader, prompt io.Writer) (string, error) {
	fmt.Fprint(prompt, "Password: ")
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(prompt)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(b), nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func init() {
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "password (prompted when omitted)")
	rootCmd.AddCommand(loginCmd, logoutCmd, whoamiCmd)
}
