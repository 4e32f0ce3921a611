package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/me/rrsched/pkg/model"
)

func newReportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "report <run_id>",
		Short: "Print the completion report of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := client.Get("/api/v1/runs/" + args[0] + "/report")
			if err != nil {
				return fmt.Errorf("get report: %w", err)
			}
			var report model.Report
			if err := json.Unmarshal(resp.Data, &report); err != nil {
				return fmt.Errorf("parse response: %w", err)
			}
			printReport(cmd.OutOrStdout(), report)
			return nil
		},
	}
}
