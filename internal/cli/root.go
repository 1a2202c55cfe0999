// Package cli implements the busnap-tracker command line.
package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/busnap/tracking-bridge/internal/client"
)

const defaultAddr = "http://localhost:8080"

var (
	version = "dev"

	daemonAddr string
)

var rootCmd = &cobra.Command{
	Use:   "busnap-tracker",
	Short: "Background location tracking bridge",
	Long: `busnap-tracker runs the background location tracking daemon and talks to
a running one. The daemon accepts start/stop commands on its command channel
and streams location fixes to a single listener on its event channel.`,
	SilenceUsage: true,
}

func init() {
	addr := os.Getenv("BUSNAP_ADDR")
	if addr == "" {
		addr = defaultAddr
	}
	rootCmd.PersistentFlags().StringVar(&daemonAddr, "addr", addr, "daemon base URL (env BUSNAP_ADDR)")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func newClient() (*client.Client, error) {
	return client.New(daemonAddr)
}
