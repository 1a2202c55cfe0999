package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/busnap/tracking-bridge/internal/client"
	"github.com/busnap/tracking-bridge/internal/core/domain"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Ask the daemon to start background tracking",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return invoke(cmd, domain.CommandStartBackgroundTracking)
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Ask the daemon to stop background tracking",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return invoke(cmd, domain.CommandStopBackgroundTracking)
	},
}

var callCmd = &cobra.Command{
	Use:   "call <method>",
	Short: "Send an arbitrary method on the command channel",
	Long: `Sends any method name on the command channel. Only
startBackgroundTracking and stopBackgroundTracking are implemented; every
other method is answered with "not implemented".`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return invoke(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(startCmd, stopCmd, callCmd)
}

// invoke sends method and prints the result. A true result only means the
// daemon queued the request; use status to see whether tracking began.
func invoke(cmd *cobra.Command, method string) error {
	c, err := newClient()
	if err != nil {
		return err
	}

	result, err := c.Call(cmd.Context(), method)
	if client.IsNotImplemented(err) {
		return fmt.Errorf("%s: not implemented", method)
	}
	if err != nil {
		return fmt.Errorf("%s failed: %w", method, err)
	}

	cmd.Printf("%s: %t\n", method, result)
	return nil
}
