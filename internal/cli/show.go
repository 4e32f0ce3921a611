package cli

import (
	"encoding/json"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/me/rrsched/pkg/model"
)

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <run_id>",
		Short: "Show a stored run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			resp, err := client.Get("/api/v1/runs/" + args[0])
			if err != nil {
				return fmt.Errorf("get run: %w", err)
			}
			var run model.Run
			if err := json.Unmarshal(resp.Data, &run); err != nil {
				return fmt.Errorf("parse response: %w", err)
			}

			fmt.Fprintf(out, "Run: %s\n", run.ID)
			fmt.Fprintf(out, "  Name:       %s\n", run.Name)
			fmt.Fprintf(out, "  State:      %s\n", run.State)
			fmt.Fprintf(out, "  Quantum:    %d\n", run.Quantum)
			fmt.Fprintf(out, "  Processes:  %d\n", len(run.Processes))
			fmt.Fprintf(out, "  Total time: %d\n", run.TotalTime)
			fmt.Fprintf(out, "  Events:     %s\n", humanize.Comma(int64(run.EventCount)))
			fmt.Fprintf(out, "  Created:    %s (%s)\n", run.CreatedAt.Format("2006-01-02 15:04:05"), humanize.Time(run.CreatedAt))
			if run.CompletedAt != nil {
				fmt.Fprintf(out, "  Finished:   %s\n", run.CompletedAt.Format("2006-01-02 15:04:05"))
			}
			if run.Error != "" {
				fmt.Fprintf(out, "  Error:      %s\n", run.Error)
			}
			return nil
		},
	}
}
