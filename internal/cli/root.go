package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/me/rrsched/internal/config"
	"github.com/me/rrsched/internal/logging"
)

var (
	flagServer    string
	flagDebug     bool
	flagLogLevel  string
	flagLogFormat string

	logger *slog.Logger
	client *Client
)

// NewRootCmd creates the root cobra command for the rrsched CLI.
func NewRootCmd() *cobra.Command {
	defaults := config.DefaultClientConfig()

	root := &cobra.Command{
		Use:   "rrsched",
		Short: "rrsched: priority-leveled round-robin scheduler simulator",
		Long: "rrsched simulates a CPU scheduler that drains priority levels in ascending order,\n" +
			"sharing the CPU round-robin within each level. Workloads can be simulated locally,\n" +
			"explored interactively in a shell, or submitted to an rrsched server.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if flagDebug {
				flagLogLevel = "debug"
			}
			logger = logging.NewLogger("rrsched", logging.ParseLevel(flagLogLevel), flagLogFormat)
			client = NewClient(flagServer, logger)
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flagServer, "server", defaults.Server, "rrsched server URL (or RRSCHED_SERVER env)")
	root.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", defaults.LogLevel, "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&flagLogFormat, "log-format", defaults.LogFormat, "Log format (text, json)")

	root.AddCommand(
		newSimulateCmd(),
		newShellCmd(),
		newSubmitCmd(),
		newListCmd(),
		newShowCmd(),
		newEventsCmd(),
		newReportCmd(),
		newDeleteCmd(),
	)

	return root
}
