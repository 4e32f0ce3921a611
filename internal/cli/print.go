package cli

import (
	"fmt"
	"io"

	"github.com/me/rrsched/internal/scheduler"
	"github.com/me/rrsched/pkg/model"
)

func printReport(w io.Writer, r model.Report) {
	fmt.Fprintf(w, "Completed processes (quantum %d, total time %d):\n", r.Quantum, r.TotalTime)
	if len(r.Entries) == 0 {
		fmt.Fprintln(w, "  none")
	} else {
		fmt.Fprintf(w, "  %-6s  %-8s  %-7s  %-5s  %-10s  %-10s  %s\n",
			"PID", "PRIORITY", "ARRIVAL", "BURST", "COMPLETION", "TURNAROUND", "WAITING")
		for _, e := range r.Entries {
			fmt.Fprintf(w, "  %-6d  %-8d  %-7d  %-5d  %-10d  %-10d  %d\n",
				e.PID, e.Priority, e.ArrivalTime, e.BurstTime, e.CompletionTime, e.Turnaround, e.Waiting)
		}
		fmt.Fprintf(w, "Average turnaround: %.2f\n", r.AvgTurnaround)
		fmt.Fprintf(w, "Average waiting:    %.2f\n", r.AvgWaiting)
		fmt.Fprintf(w, "Throughput:         %.3f processes/unit\n", r.Throughput)
	}
	if r.Pending > 0 {
		fmt.Fprintf(w, "%d processes still pending\n", r.Pending)
	}
}

func printSnapshot(w io.Writer, sn scheduler.Snapshot) {
	fmt.Fprintf(w, "Quantum %d, time %d, %d of %d processes pending\n", sn.Quantum, sn.Clock, sn.Pending, sn.Total)
	if sn.CurrentLevel != nil {
		fmt.Fprintf(w, "  executing priority level %d\n", *sn.CurrentLevel)
	}
	for _, lvl := range sn.Levels {
		fmt.Fprintf(w, "  level %d: %v\n", lvl.Priority, lvl.PIDs)
	}
}
