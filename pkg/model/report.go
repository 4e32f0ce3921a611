package model

// CompletionEntry is one row of a completion report.
type CompletionEntry struct {
	PID            int `json:"pid"`
	Priority       int `json:"priority"`
	ArrivalTime    int `json:"arrival_time"`
	BurstTime      int `json:"burst_time"`
	CompletionTime int `json:"completion_time"`

	// Turnaround counts from time zero: every process is eligible as soon
	// as it is added, regardless of ArrivalTime.
	Turnaround int `json:"turnaround"`
	Waiting    int `json:"waiting"`
}

// Report summarises a scheduler's completed processes in completion order.
type Report struct {
	Quantum       int               `json:"quantum"`
	TotalTime     int               `json:"total_time"`
	Pending       int               `json:"pending"`
	Entries       []CompletionEntry `json:"entries"`
	AvgTurnaround float64           `json:"avg_turnaround"`
	AvgWaiting    float64           `json:"avg_waiting"`
	Throughput    float64           `json:"throughput"`
}

// NewCompletionEntry derives a report row from a completed process.
func NewCompletionEntry(p *Process) CompletionEntry {
	e := CompletionEntry{
		PID:         p.PID,
		Priority:    p.Priority,
		ArrivalTime: p.ArrivalTime,
		BurstTime:   p.BurstTime,
	}
	if p.CompletionTime != nil {
		e.CompletionTime = *p.CompletionTime
		e.Turnaround = e.CompletionTime
		e.Waiting = e.Turnaround - p.BurstTime
	}
	return e
}

// Summarize fills the aggregate fields from Entries and TotalTime.
func (r *Report) Summarize() {
	r.AvgTurnaround, r.AvgWaiting, r.Throughput = 0, 0, 0
	n := len(r.Entries)
	if n == 0 {
		return
	}
	var turnaround, waiting int
	for _, e := range r.Entries {
		turnaround += e.Turnaround
		waiting += e.Waiting
	}
	r.AvgTurnaround = float64(turnaround) / float64(n)
	r.AvgWaiting = float64(waiting) / float64(n)
	if r.TotalTime > 0 {
		r.Throughput = float64(n) / float64(r.TotalTime)
	}
}
