package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	groupmeet "github.com/roqu1/groupmeet-sub000"
	"github.com/spf13/cobra"
)

var (
	pageNum    int
	pageSize   int
	searchTerm string

	meetingTypes    []string
	meetingLocation string
	meetingFormat   string
	meetingFrom     string
	meetingTo       string

	userLocation  string
	userGenders   []string
	userMinAge    int
	userMaxAge    int
	userInterests []string
)

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func pageFooter(w io.Writer, number, totalPages, totalElements int) {
	if totalPages > 1 {
		fmt.Fprintf(w, "page %d of %d (%d total)\n", number+1, totalPages, totalElements)
	}
}

func displayName(username, first, last string) string {
	name := strings.TrimSpace(first + " " + last)
	if name == "" {
		return username
	}
	return fmt.Sprintf("%s (%s)", username, name)
}

// withID runs fn with the first argument parsed as an id.
func withID(fn func(cmd *cobra.Command, id int64) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return fn(cmd, id)
	}
}

// printMessage prints the server's acknowledgement, or fallback when empty.
func printMessage(cmd *cobra.Command, msg groupmeet.MessageResponse, fallback string) error {
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), msg)
	}
	text := msg.Message
	if text == "" {
		text = fallback
	}
	fmt.Fprintln(cmd.OutOrStdout(), text)
	return nil
}

var friendsCmd = &cobra.Command{
	Use:   "friends",
	Short: "Manage friends and friend requests",
}

var friendsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your friends",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()

		page, err := groupmeet.NewFriends(client).List(ctx, pageNum, pageSize, searchTerm)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), page)
		}
		out := cmd.OutOrStdout()
		if page.Empty || len(page.Content) == 0 {
			fmt.Fprintln(out, "no friends found")
		}
		for _, f := range page.Content {
			fmt.Fprintf(out, "%d\t%s\n", f.ID, displayName(f.Username, f.FirstName, f.LastName))
		}
		pageFooter(out, page.Number, page.TotalPages, page.TotalElements)
		return nil
	},
}

var friendsRemoveCmd = &cobra.Command{
	Use:   "remove USER_ID",
	Short: "Remove a friend",
	Args:  cobra.ExactArgs(1),
	RunE: withID(func(cmd *cobra.Command, id int64) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()

		if err := groupmeet.NewFriends(client).Remove(ctx, id); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Friend removed.")
		return nil
	}),
}

var friendsAddCmd = &cobra.Command{
	Use:   "add USER_ID",
	Short: "Send a friend request",
	Args:  cobra.ExactArgs(1),
	RunE: withID(func(cmd *cobra.Command, id int64) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()

		msg, err := groupmeet.NewFriends(client).SendRequest(ctx, id)
		if err != nil {
			return err
		}
		return printMessage(cmd, msg, "Friend request sent.")
	}),
}

var friendsRequestsCmd = &cobra.Command{
	Use:   "requests",
	Short: "List incoming friend requests",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()

		page, err := groupmeet.NewFriends(client).IncomingRequests(ctx, pageNum, pageSize)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), page)
		}
		out := cmd.OutOrStdout()
		if len(page.Content) == 0 {
			fmt.Fprintln(out, "no pending requests")
		}
		for _, r := range page.Content {
			fmt.Fprintf(out, "%d\t%s\t%s\n", r.RequestID,
				displayName(r.SenderUsername, r.SenderFirstName, r.SenderLastName),
				r.RequestDate.Format("2006-01-02 15:04"))
		}
		pageFooter(out, page.Number, page.TotalPages, page.TotalElements)
		return nil
	},
}

var friendsAcceptCmd = &cobra.Command{
	Use:   "accept REQUEST_ID",
	Short: "Accept a friend request",
	Args:  cobra.ExactArgs(1),
	RunE: withID(func(cmd *cobra.Command, id int64) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()

		msg, err := groupmeet.NewFriends(client).AcceptRequest(ctx, id)
		if err != nil {
			return err
		}
		return printMessage(cmd, msg, "Friend request accepted.")
	}),
}

var friendsRejectCmd = &cobra.Command{
	Use:   "reject REQUEST_ID",
	Short: "Reject a friend request",
	Args:  cobra.ExactArgs(1),
	RunE: withID(func(cmd *cobra.Command, id int64) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()

		msg, err := groupmeet.NewFriends(client).RejectRequest(ctx, id)
		if err != nil {
			return err
		}
		return printMessage(cmd, msg, "Friend request rejected.")
	}),
}

var meetingsCmd = &cobra.Command{
	Use:   "meetings",
	Short: "Find and join meetings",
}

var meetingsSearchCmd = &cobra.Command{
	Use:   "search [TERM]",
	Short: "Search meetings",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		params := groupmeet.MeetingSearchParams{
			Page:      pageNum,
			Size:      pageSize,
			Types:     meetingTypes,
			Location:  meetingLocation,
			Format:    groupmeet.EventFormat(strings.ToUpper(meetingFormat)),
			StartDate: meetingFrom,
			EndDate:   meetingTo,
		}
		if len(args) == 1 {
			params.SearchTerm = args[0]
		}
		if params.Format != "" && !params.Format.Valid() {
			return fmt.Errorf("invalid format %q: want online, offline or hybrid", meetingFormat)
		}

		client, err := newClient()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()

		page, err := groupmeet.NewMeetings(client).Search(ctx, params)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), page)
		}

		out := cmd.OutOrStdout()
		if len(page.Content) == 0 {
			fmt.Fprintln(out, "no meetings found")
		}
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		for _, m := range page.Content {
			capacity := strconv.Itoa(m.ParticipantCount)
			if m.MaxParticipants != nil {
				capacity += "/" + strconv.Itoa(*m.MaxParticipants)
			}
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", m.ID, m.DateTime.Format("2006-01-02 15:04"),
				m.Title, m.Format, m.Location, capacity)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		pageFooter(out, page.Number, page.TotalPages, page.TotalElements)
		return nil
	},
}

var meetingsShowCmd = &cobra.Command{
	Use:   "show MEETING_ID",
	Short: "Show a meeting",
	Args:  cobra.ExactArgs(1),
	RunE: withID(func(cmd *cobra.Command, id int64) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()

		m, err := groupmeet.NewMeetings(client).Get(ctx, id)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), m)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s\n%s\n", m.Name, m.DateTime.Format("Mon 2006-01-02 15:04"))
		if m.Location != "" || m.Address != "" {
			fmt.Fprintf(out, "%s %s\n", m.Location, m.Address)
		}
		if len(m.Tags) > 0 {
			fmt.Fprintf(out, "tags: %s\n", strings.Join(m.Tags, ", "))
		}
		fmt.Fprintf(out, "organizer: %s\n", displayName(m.Organizer.Username, m.Organizer.FirstName, m.Organizer.LastName))
		fmt.Fprintf(out, "participants: %d, you: %s\n", m.TotalParticipants, strings.ToLower(string(m.CurrentUserMembership)))
		if m.Description != "" {
			fmt.Fprintf(out, "\n%s\n", m.Description)
		}
		return nil
	}),
}

var meetingsJoinCmd = &cobra.Command{
	Use:   "join MEETING_ID",
	Short: "Join a meeting",
	Args:  cobra.ExactArgs(1),
	RunE: withID(func(cmd *cobra.Command, id int64) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()

		msg, err := groupmeet.NewMeetings(client).Join(ctx, id)
		if err != nil {
			return err
		}
		return printMessage(cmd, msg, "Joined.")
	}),
}

var meetingsLeaveCmd = &cobra.Command{
	Use:   "leave MEETING_ID",
	Short: "Leave a meeting",
	Args:  cobra.ExactArgs(1),
	RunE: withID(func(cmd *cobra.Command, id int64) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()

		msg, err := groupmeet.NewMeetings(client).Leave(ctx, id)
		if err != nil {
			return err
		}
		return printMessage(cmd, msg, "Left.")
	}),
}

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Find other users",
}

var usersSearchCmd = &cobra.Command{
	Use:   "search [TERM]",
	Short: "Search users",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		params := groupmeet.UserSearchParams{
			Page:      pageNum,
			Size:      pageSize,
			Location:  userLocation,
			MinAge:    userMinAge,
			MaxAge:    userMaxAge,
			Interests: userInterests,
		}
		for _, g := range userGenders {
			params.Genders = append(params.Genders, groupmeet.Gender(strings.ToUpper(g)))
		}
		if len(args) == 1 {
			params.SearchTerm = args[0]
		}

		client, err := newClient()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()

		page, err := groupmeet.NewUsers(client).Search(ctx, params)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), page)
		}

		out := cmd.OutOrStdout()
		if len(page.Content) == 0 {
			fmt.Fprintln(out, "no users found")
		}
		for _, u := range page.Content {
			fmt.Fprintf(out, "%d\t%s\t%s\n", u.ID, displayName(u.Username, u.FirstName, u.LastName),
				strings.ToLower(string(u.FriendshipStatus)))
		}
		pageFooter(out, page.Number, page.TotalPages, page.TotalElements)
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{friendsListCmd, friendsRequestsCmd, meetingsSearchCmd, usersSearchCmd} {
		c.Flags().IntVar(&pageNum, "page", 0, "page number, starting at 0")
		c.Flags().IntVar(&pageSize, "size", 0, "page size (server default when 0)")
	}
	friendsListCmd.Flags().StringVar(&searchTerm, "search", "", "filter by name")

	mf := meetingsSearchCmd.Flags()
	mf.StringSliceVar(&meetingTypes, "type", nil, "meeting type, repeatable")
	mf.StringVar(&meetingLocation, "location", "", "location")
	mf.StringVar(&meetingFormat, "format", "", "online, offline or hybrid")
	mf.StringVar(&meetingFrom, "from", "", "earliest date (YYYY-MM-DD)")
	mf.StringVar(&meetingTo, "to", "", "latest date (YYYY-MM-DD)")

	uf := usersSearchCmd.Flags()
	uf.StringVar(&userLocation, "location", "", "location")
	uf.StringSliceVar(&userGenders, "gender", nil, "male, female or divers, repeatable")
	uf.IntVar(&userMinAge, "min-age", 0, "minimum age")
	uf.IntVar(&userMaxAge, "max-age", 0, "maximum age")
	uf.StringSliceVar(&userInterests, "interest", nil, "interest, repeatable")

	friendsCmd.AddCommand(friendsListCmd, friendsRemoveCmd, friendsAddCmd, friendsRequestsCmd, friendsAcceptCmd, friendsRejectCmd)
	meetingsCmd.AddCommand(meetingsSearchCmd, meetingsShowCmd, meetingsJoinCmd, meetingsLeaveCmd)
	usersCmd.AddCommand(usersSearchCmd)
	rootCmd.AddCommand(friendsCmd, meetingsCmd, usersCmd)
}
