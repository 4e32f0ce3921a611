package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/me/rrsched/pkg/model"
)

func newEventsCmd() *cobra.Command {
	var after, limit int
	var all bool

	cmd := &cobra.Command{
		Use:   "events <run_id>",
		Short: "Print the execution trace of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			for {
				resp, err := client.Get(fmt.Sprintf("/api/v1/runs/%s/events?after=%d&limit=%d", args[0], after, limit))
				if err != nil {
					return fmt.Errorf("list events: %w", err)
				}
				var events []model.Event
				if err := json.Unmarshal(resp.Data, &events); err != nil {
					return fmt.Errorf("parse response: %w", err)
				}
				for _, ev := range events {
					fmt.Fprintf(out, "%5d  %s\n", ev.Seq, ev)
				}
				if len(events) == 0 || !all || resp.Pagination == nil || !resp.Pagination.HasMore {
					return nil
				}
				after = events[len(events)-1].Seq
			}
		},
	}
	cmd.Flags().IntVar(&after, "after", 0, "Start after this sequence number")
	cmd.Flags().IntVar(&limit, "limit", 100, "Events per page")
	cmd.Flags().BoolVar(&all, "all", false, "Fetch every page")
	return cmd
}
