package model

import (
	"errors"
	"testing"
)

func TestParseProcessFields(t *testing.T) {
	tests := []struct {
		name      string
		fields    []string
		want      ProcessSpec
		wantField string
	}{
		{"valid", []string{"1", "0", "5", "2"}, ProcessSpec{PID: 1, ArrivalTime: 0, BurstTime: 5, Priority: 2}, ""},
		{"negative priority ok", []string{"7", "3", "0", "-1"}, ProcessSpec{PID: 7, ArrivalTime: 3, BurstTime: 0, Priority: -1}, ""},
		{"non-integer pid", []string{"p1", "0", "5", "2"}, ProcessSpec{}, "pid"},
		{"float burst", []string{"1", "0", "2.5", "2"}, ProcessSpec{}, "burst_time"},
		{"negative burst", []string{"1", "0", "-1", "0"}, ProcessSpec{}, "burst_time"},
		{"too few", []string{"1", "0"}, ProcessSpec{}, "fields"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseProcessFields(tt.fields...)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if got != tt.want {
					t.Errorf("got %+v, want %+v", got, tt.want)
				}
				return
			}
			var pe *ProcessError
			if !errors.As(err, &pe) {
				t.Fatalf("expected ProcessError, got %v", err)
			}
			if pe.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", pe.Field, tt.wantField)
			}
		})
	}
}

func TestNewProcess(t *testing.T) {
	p := NewProcess(ProcessSpec{PID: 3, BurstTime: 9, Priority: 1})
	if p.RemainingTime != 9 {
		t.Errorf("RemainingTime = %d, want 9", p.RemainingTime)
	}
	if p.IsCompleted() {
		t.Error("new process reports completed")
	}
}

func TestReport_Summarize(t *testing.T) {
	p1 := NewProcess(ProcessSpec{PID: 2, BurstTime: 3, Priority: 1})
	p2 := NewProcess(ProcessSpec{PID: 1, BurstTime: 5, Priority: 1})
	t7, t8 := 7, 8
	p1.CompletionTime = &t7
	p2.CompletionTime = &t8

	r := Report{Quantum: 2, TotalTime: 8, Entries: []CompletionEntry{NewCompletionEntry(p1), NewCompletionEntry(p2)}}
	r.Summarize()

	if r.Entries[0].Waiting != 4 || r.Entries[1].Waiting != 3 {
		t.Errorf("waiting = %d, %d; want 4, 3", r.Entries[0].Waiting, r.Entries[1].Waiting)
	}
	if r.AvgTurnaround != 7.5 {
		t.Errorf("AvgTurnaround = %v, want 7.5", r.AvgTurnaround)
	}
	if r.AvgWaiting != 3.5 {
		t.Errorf("AvgWaiting = %v, want 3.5", r.AvgWaiting)
	}
	if r.Throughput != 0.25 {
		t.Errorf("Throughput = %v, want 0.25", r.Throughput)
	}
}

func TestEvent_String(t *testing.T) {
	ev := Event{Kind: EventCompleted, PID: 2, Time: 7}
	if got, want := ev.String(), "Process 2 completed at time 7."; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
