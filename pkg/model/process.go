package model

import (
	"strconv"
)

// ProcessSpec is a validated process record as supplied by an input source.
type ProcessSpec struct {
	PID         int `json:"pid" yaml:"pid"`
	ArrivalTime int `json:"arrival_time" yaml:"arrival_time"`
	BurstTime   int `json:"burst_time" yaml:"burst_time"`
	Priority    int `json:"priority" yaml:"priority"`
}

// Validate checks the constraints that typed fields cannot express.
func (p ProcessSpec) Validate() error {
	if p.BurstTime < 0 {
		return &ProcessError{
			Field:  "burst_time",
			Value:  strconv.Itoa(p.BurstTime),
			Reason: "must be >= 0",
		}
	}
	return nil
}

// processFields lists the ProcessSpec fields in input order.
var processFields = [4]string{"pid", "arrival_time", "burst_time", "priority"}

// ParseProcessFields builds a ProcessSpec from four textual fields in the
// order pid, arrival_time, burst_time, priority. Any field that is not a
// base-10 integer yields a *ProcessError naming it.
func ParseProcessFields(fields ...string) (ProcessSpec, error) {
	if len(fields) != len(processFields) {
		return ProcessSpec{}, &ProcessError{
			Field:  "fields",
			Value:  strconv.Itoa(len(fields)),
			Reason: "expected pid, arrival_time, burst_time and priority",
		}
	}
	var vals [4]int
	for i, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return ProcessSpec{}, &ProcessError{
				Field:  processFields[i],
				Value:  strconv.Quote(f),
				Reason: "must be an integer",
			}
		}
		vals[i] = n
	}
	spec := ProcessSpec{PID: vals[0], ArrivalTime: vals[1], BurstTime: vals[2], Priority: vals[3]}
	if err := spec.Validate(); err != nil {
		return ProcessSpec{}, err
	}
	return spec, nil
}

// Process is the scheduler's single owned record for one unit of work.
type Process struct {
	ProcessSpec
	RemainingTime int `json:"remaining_time"`

	// CompletionTime is the simulation clock at the moment RemainingTime
	// reached zero. Nil while the process is pending.
	CompletionTime *int `json:"completion_time,omitempty"`
}

// NewProcess creates a pending Process from a spec.
func NewProcess(spec ProcessSpec) *Process {
	return &Process{ProcessSpec: spec, RemainingTime: spec.BurstTime}
}

// IsCompleted reports whether the process has finished.
func (p *Process) IsCompleted() bool {
	return p.CompletionTime != nil
}
