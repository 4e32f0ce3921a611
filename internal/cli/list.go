package cli

import (
	"encoding/json"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/me/rrsched/pkg/model"
)

func newListCmd() *cobra.Command {
	var state string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List runs stored on the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			path := fmt.Sprintf("/api/v1/runs/?limit=%d", limit)
			if state != "" {
				path += "&state=" + state
			}
			resp, err := client.Get(path)
			if err != nil {
				return fmt.Errorf("list runs: %w", err)
			}

			var runs []model.Run
			if err := json.Unmarshal(resp.Data, &runs); err != nil {
				return fmt.Errorf("parse response: %w", err)
			}

			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs found.")
				return nil
			}

			fmt.Fprintf(out, "%-40s  %-10s  %-20s  %7s  %8s  %s\n", "ID", "STATE", "NAME", "QUANTUM", "EVENTS", "CREATED")
			fmt.Fprintf(out, "%-40s  %-10s  %-20s  %7s  %8s  %s\n", "--", "-----", "----", "-------", "------", "-------")
			for _, run := range runs {
				fmt.Fprintf(out, "%-40s  %-10s  %-20s  %7d  %8s  %s\n",
					run.ID, run.State, run.Name, run.Quantum,
					humanize.Comma(int64(run.EventCount)), humanize.Time(run.CreatedAt))
			}

			if resp.Pagination != nil && resp.Pagination.HasMore {
				fmt.Fprintf(out, "\n(%d of %d shown)\n", len(runs), resp.Pagination.Total)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&state, "state", "", "Only runs in this state (PENDING, RUNNING, COMPLETED, FAILED)")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to show")
	return cmd
}
