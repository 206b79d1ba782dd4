// Package commands implements the faultline-demo CLI.
package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	configPath  string
	metricsAddr string
)

// Execute runs the root command
func Execute(ctx context.Context, version, commit string) error {
	rootCmd := newRootCommand(version, commit)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(version, commit string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "faultline-demo",
		Short: "Faultline - resilience policy demo driver",
		Long: `Faultline demo exercises composable resilience policies against
deliberately misbehaving units of work.

Scenarios:
  - retry with constant delay against a flaky unit
  - timeout against a slow deferred unit
  - bulkhead capacity contention
  - fallback to a secondary unit
  - circuit breaker opening and recovering`,
		Version: fmt.Sprintf("%s (commit: %s)", version, commit),
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "policy chain definition file")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9090")

	rootCmd.AddCommand(newRunCommand())
	rootCmd.AddCommand(newValidateCommand())

	return rootCmd
}
