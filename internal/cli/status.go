package cli

import (
	"encoding/json"
	"time"

	"github.com/spf13/cobra"
)

var (
	statusJSON     bool
	statusSessions int
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the daemon's tracking status",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "print raw JSON")
	statusCmd.Flags().IntVar(&statusSessions, "sessions", 0, "also list this many recent sessions")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	c, err := newClient()
	if err != nil {
		return err
	}

	st, err := c.Status(cmd.Context())
	if err != nil {
		return err
	}

	if statusJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(st)
	}

	cmd.Printf("State:     %s\n", st.State)
	if st.SessionID != "" {
		cmd.Printf("Session:   %s\n", st.SessionID)
	}
	if st.StartedAt != nil {
		cmd.Printf("Since:     %s (%s)\n", st.StartedAt.Format(time.RFC3339), time.Since(*st.StartedAt).Round(time.Second))
	}
	cmd.Printf("Listening: %t\n", st.Listening)
	if st.LastError != "" {
		cmd.Printf("Last error: %s\n", st.LastError)
	}

	if statusSessions <= 0 {
		return nil
	}
	sessions, err := c.Sessions(cmd.Context(), statusSessions)
	if err != nil {
		return err
	}
	cmd.Println()
	for _, s := range sessions {
		cmd.Printf("%s  %-17s  %s  delivered=%d dropped=%d\n",
			s.StartedAt.Format(time.RFC3339), s.Outcome, s.ID, s.FixesDelivered, s.FixesDropped)
	}
	return nil
}
