// Package workload loads process sets for the scheduler from YAML or JSON
// documents:
//
//	name: demo
//	quantum: 2
//	processes:
//	  - {pid: 1, arrival_time: 0, burst_time: 5, priority: 1}
//	generators:
//	  - count: 4
//	    pid_start: 100
//	    burst_time: "1 + (i * 7) % 5"
//	    priority: "i % 3"
//
// Every process field must be an integer. Generator fields may be integers
// or JavaScript expressions over the 0-based index i.
package workload

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/me/rrsched/internal/scheduler"
	"github.com/me/rrsched/pkg/model"
	"gopkg.in/yaml.v3"
)

// Workload is a validated scheduler configuration plus its processes.
type Workload struct {
	Name      string              `json:"name"`
	Quantum   int                 `json:"quantum"`
	Processes []model.ProcessSpec `json:"processes"`
}

// Load reads and parses a workload file. When the document has no name the
// file's base name without extension is used.
func Load(path string) (*Workload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read workload: %w", err)
	}
	w, err := Parse(data)
	if err != nil {
		return nil, err
	}
	if w.Name == "" {
		w.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return w, nil
}

// Parse decodes a workload document. Validation failures are returned as
// *model.ConfigError or *model.ProcessError.
func Parse(data []byte) (*Workload, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("YAML parse error: %w", err)
	}
	if raw == nil {
		return nil, &model.ConfigError{Field: "quantum", Value: "", Reason: "is required"}
	}

	w := &Workload{}
	if name, ok := raw["name"]; ok {
		s, ok := name.(string)
		if !ok {
			return nil, fmt.Errorf("name must be a string, got %T", name)
		}
		w.Name = s
	}

	q, err := parseQuantum(raw["quantum"])
	if err != nil {
		return nil, err
	}
	w.Quantum = q

	if err := w.parseProcesses(raw["processes"]); err != nil {
		return nil, err
	}
	if err := w.parseGenerators(raw["generators"]); err != nil {
		return nil, err
	}
	return w, nil
}

func parseQuantum(v any) (int, error) {
	if v == nil {
		return 0, &model.ConfigError{Field: "quantum", Value: "", Reason: "is required"}
	}
	q, ok := intValue(v)
	if !ok {
		return 0, &model.ConfigError{Field: "quantum", Value: fmt.Sprint(v), Reason: "must be an integer"}
	}
	if q <= 0 {
		return 0, &model.ConfigError{Field: "quantum", Value: strconv.Itoa(q), Reason: "must be a positive integer"}
	}
	return q, nil
}

func (w *Workload) parseProcesses(v any) error {
	if v == nil {
		return nil
	}
	list, ok := v.([]any)
	if !ok {
		return &model.ProcessError{Path: "processes", Field: "processes", Value: fmt.Sprintf("%T", v), Reason: "must be a list"}
	}
	for i, item := range list {
		path := fmt.Sprintf("processes[%d]", i)
		m, ok := item.(map[string]any)
		if !ok {
			return &model.ProcessError{Path: path, Field: "process", Value: fmt.Sprintf("%T", item), Reason: "must be a mapping"}
		}
		spec, err := specFromMap(path, m)
		if err != nil {
			return err
		}
		w.Processes = append(w.Processes, spec)
	}
	return nil
}

// specFromMap requires all four process fields to be integers.
func specFromMap(path string, m map[string]any) (model.ProcessSpec, error) {
	var vals [4]int
	for i, field := range [4]string{"pid", "arrival_time", "burst_time", "priority"} {
		v, present := m[field]
		if !present {
			return model.ProcessSpec{}, &model.ProcessError{Path: path, Field: field, Reason: "is required"}
		}
		n, ok := intValue(v)
		if !ok {
			return model.ProcessSpec{}, &model.ProcessError{Path: path, Field: field, Value: fmt.Sprint(v), Reason: "must be an integer"}
		}
		vals[i] = n
	}
	spec := model.ProcessSpec{PID: vals[0], ArrivalTime: vals[1], BurstTime: vals[2], Priority: vals[3]}
	if err := spec.Validate(); err != nil {
		err.(*model.ProcessError).Path = path
		return model.ProcessSpec{}, err
	}
	return spec, nil
}

// intValue accepts only values YAML decoded as integers.
func intValue(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		if n < math.MinInt || n > math.MaxInt {
			return 0, false
		}
		return int(n), true
	case uint64:
		if n > math.MaxInt {
			return 0, false
		}
		return int(n), true
	}
	return 0, false
}

// Specs returns a copy of the workload's processes.
func (w *Workload) Specs() []model.ProcessSpec {
	out := make([]model.ProcessSpec, len(w.Processes))
	copy(out, w.Processes)
	return out
}

// NewScheduler configures a scheduler with the workload's quantum and adds
// every process in document order.
func (w *Workload) NewScheduler(opts ...scheduler.Option) (*scheduler.Scheduler, error) {
	return Build(w.Quantum, w.Processes, opts...)
}

// Validate checks quantum and specs without building a scheduler. Errors
// match what Build would return for the same input.
func Validate(quantum int, specs []model.ProcessSpec) error {
	if err := scheduler.ValidateQuantum(quantum); err != nil {
		return err
	}
	for i, spec := range specs {
		if err := spec.Validate(); err != nil {
			return fmt.Errorf("process %d: %w", i, err)
		}
	}
	return nil
}

// Build configures a scheduler and adds specs in order.
func Build(quantum int, specs []model.ProcessSpec, opts ...scheduler.Option) (*scheduler.Scheduler, error) {
	s, err := scheduler.New(quantum, opts...)
	if err != nil {
		return nil, err
	}
	for i, spec := range specs {
		if err := s.AddProcess(spec); err != nil {
			return nil, fmt.Errorf("process %d: %w", i, err)
		}
	}
	return s, nil
}
