package workload

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/dop251/goja"
	"github.com/me/rrsched/pkg/model"
)

// MaxGenerated bounds the processes a single generator may produce.
const MaxGenerated = 10000

// evalBudget bounds the wall time spent evaluating one generator.
var evalBudget = 2 * time.Second

// generator describes count processes whose fields are computed per index.
type generator struct {
	path     string
	count    int
	pidStart int
	fields   [3]any // arrival_time, burst_time, priority: int or expression
}

var generatorFields = [3]string{"arrival_time", "burst_time", "priority"}

func (w *Workload) parseGenerators(v any) error {
	if v == nil {
		return nil
	}
	list, ok := v.([]any)
	if !ok {
		return &model.ProcessError{Path: "generators", Field: "generators", Value: fmt.Sprintf("%T", v), Reason: "must be a list"}
	}
	nextPID := 1
	for _, p := range w.Processes {
		nextPID = max(nextPID, p.PID+1)
	}
	for i, item := range list {
		path := fmt.Sprintf("generators[%d]", i)
		m, ok := item.(map[string]any)
		if !ok {
			return &model.ProcessError{Path: path, Field: "generator", Value: fmt.Sprintf("%T", item), Reason: "must be a mapping"}
		}
		g, err := newGenerator(path, m, nextPID)
		if err != nil {
			return err
		}
		specs, err := g.expand()
		if err != nil {
			return err
		}
		w.Processes = append(w.Processes, specs...)
		nextPID = g.pidStart + g.count
	}
	return nil
}

func newGenerator(path string, m map[string]any, defaultPID int) (*generator, error) {
	g := &generator{path: path, pidStart: defaultPID}

	count, ok := intValue(m["count"])
	if !ok {
		return nil, &model.ProcessError{Path: path, Field: "count", Value: fmt.Sprint(m["count"]), Reason: "must be an integer"}
	}
	if count < 0 || count > MaxGenerated {
		return nil, &model.ProcessError{Path: path, Field: "count", Value: fmt.Sprint(count), Reason: fmt.Sprintf("must be between 0 and %d", MaxGenerated)}
	}
	g.count = count

	if v, present := m["pid_start"]; present {
		n, ok := intValue(v)
		if !ok {
			return nil, &model.ProcessError{Path: path, Field: "pid_start", Value: fmt.Sprint(v), Reason: "must be an integer"}
		}
		g.pidStart = n
	}

	for i, field := range generatorFields {
		v, present := m[field]
		switch {
		case !present && field == "arrival_time":
			g.fields[i] = 0
		case !present:
			return nil, &model.ProcessError{Path: path, Field: field, Reason: "is required"}
		default:
			if _, isInt := intValue(v); !isInt {
				if _, isStr := v.(string); !isStr {
					return nil, &model.ProcessError{Path: path, Field: field, Value: fmt.Sprint(v), Reason: "must be an integer or an expression"}
				}
			}
			g.fields[i] = v
		}
	}
	return g, nil
}

// expand evaluates the generator's fields for every index.
func (g *generator) expand() ([]model.ProcessSpec, error) {
	vm := goja.New()
	timer := time.AfterFunc(evalBudget, func() {
		vm.Interrupt("evaluation budget exceeded")
	})
	defer timer.Stop()

	specs := make([]model.ProcessSpec, 0, g.count)
	for i := 0; i < g.count; i++ {
		if err := vm.Set("i", i); err != nil {
			return nil, fmt.Errorf("%s: set i: %w", g.path, err)
		}
		var vals [3]int
		for j, field := range generatorFields {
			n, err := g.eval(vm, g.fields[j])
			if err != nil {
				return nil, &model.ProcessError{
					Path:   fmt.Sprintf("%s[%d]", g.path, i),
					Field:  field,
					Value:  fmt.Sprint(g.fields[j]),
					Reason: err.Error(),
				}
			}
			vals[j] = n
		}
		spec := model.ProcessSpec{PID: g.pidStart + i, ArrivalTime: vals[0], BurstTime: vals[1], Priority: vals[2]}
		if err := spec.Validate(); err != nil {
			err.(*model.ProcessError).Path = fmt.Sprintf("%s[%d]", g.path, i)
			return nil, err
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

func (g *generator) eval(vm *goja.Runtime, field any) (int, error) {
	if n, ok := intValue(field); ok {
		return n, nil
	}
	expr := strings.TrimSpace(field.(string))
	val, err := vm.RunString(expr)
	if err != nil {
		return 0, fmt.Errorf("evaluate: %w", err)
	}
	switch n := val.Export().(type) {
	case int64:
		if n < math.MinInt || n > math.MaxInt {
			return 0, fmt.Errorf("result %d out of range", n)
		}
		return int(n), nil
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) || math.Abs(n) > math.MaxInt32 {
			return 0, fmt.Errorf("result %v is not an integer", n)
		}
		return int(n), nil
	default:
		return 0, fmt.Errorf("result %v is not an integer", val)
	}
}
