package cli

import (
	"encoding/json"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/busnap/tracking-bridge/internal/core/domain"
)

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Print location fixes from the event channel as JSON lines",
	Long: `Opens the event channel and prints every fix until interrupted. Opening
it replaces any other listener, which then stops receiving fixes. Fixes
produced while nobody listens are not replayed.`,
	Args: cobra.NoArgs,
	RunE: runListen,
}

func init() {
	rootCmd.AddCommand(listenCmd)
}

func runListen(cmd *cobra.Command, _ []string) error {
	c, err := newClient()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	enc := json.NewEncoder(cmd.OutOrStdout())
	return c.Listen(ctx, func(fix domain.LocationFix) {
		_ = enc.Encode(fix)
	})
}
