package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/me/rrsched/internal/workload"
	"github.com/me/rrsched/pkg/model"
)

func newSubmitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "submit <workload.yaml>",
		Short: "Simulate a workload on the server",
		Long:  "Validate a workload file locally, then submit it to the rrsched server, which runs and stores it.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			out := cmd.OutOrStdout()

			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read workload: %w", err)
			}
			// Catch mistakes before they cross the network.
			wl, err := workload.Parse(data)
			if err != nil {
				return fmt.Errorf("invalid workload: %w", err)
			}
			logger.Info("submitting workload", "path", path, "processes", len(wl.Specs()))

			resp, err := client.PostYAML("/api/v1/runs/", data)
			if err != nil {
				return fmt.Errorf("submit: %w", err)
			}

			var run model.Run
			if err := json.Unmarshal(resp.Data, &run); err != nil {
				return fmt.Errorf("parse response: %w", err)
			}
			fmt.Fprintf(out, "Run created: %s\n", run.ID)
			fmt.Fprintf(out, "  State:      %s\n", run.State)
			fmt.Fprintf(out, "  Total time: %d\n", run.TotalTime)
			return nil
		},
	}
}
