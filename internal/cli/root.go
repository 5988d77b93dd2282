// Package cli implements the rxsched command tree.
package cli

import (
	"log/slog"

	"github.com/hackebrot/go-rx-scheduler/internal/logging"
	"github.com/spf13/cobra"
)

var (
	flagLogLevel  string
	flagLogFormat string

	logger = slog.Default()
)

// NewRootCmd creates the root cobra command for the rxsched CLI.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "rxsched",
		Short: "Run a Fibonacci workload on reactive schedulers",
		Long: "rxsched schedules a batch of Fibonacci computations on one of three schedulers:\n" +
			"a simulated clock (virtual), a serial run loop fed by concurrent producers (serial),\n" +
			"or a same-goroutine trampoline (trampoline).",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := logging.ValidateFormat(flagLogFormat); err != nil {
				return err
			}
			logger = logging.NewLogger(logging.ParseLevel(flagLogLevel), flagLogFormat)
			slog.SetDefault(logger)
			return nil
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&flagLogFormat, "log-format", "text", "Log format (text, json)")

	root.AddCommand(
		newVirtualCmd(),
		newSerialCmd(),
		newTrampolineCmd(),
	)

	return root
}
