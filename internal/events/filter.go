package events

import (
	"strings"
	"time"

	"github.com/google/cel-go/cel"
)

// Filter wraps a compiled CEL program used to select completion events.
// When the expression is empty the filter is disabled and Eval always
// returns true.
type Filter struct {
	prog    cel.Program
	enabled bool
}

// NewFilter compiles expr against the completion event schema: id, topic,
// outcome, reason (strings), attempt (int) and now_ms (int).
func NewFilter(expr string) (Filter, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return Filter{enabled: false}, nil
	}
	env, err := cel.NewEnv(
		cel.Variable("id", cel.StringType),
		cel.Variable("topic", cel.StringType),
		cel.Variable("outcome", cel.StringType),
		cel.Variable("reason", cel.StringType),
		cel.Variable("attempt", cel.IntType),
		// Current time in ms for windowed filters
		cel.Variable("now_ms", cel.IntType),
	)
	if err != nil {
		return Filter{}, err
	}
	ast, iss := env.Parse(expr)
	if iss != nil && iss.Err() != nil {
		return Filter{}, iss.Err()
	}
	checked, iss2 := env.Check(ast)
	if iss2 != nil && iss2.Err() != nil {
		return Filter{}, iss2.Err()
	}
	prog, err := env.Program(checked)
	if err != nil {
		return Filter{}, err
	}
	return Filter{prog: prog, enabled: true}, nil
}

// Eval evaluates the compiled expression against an event. Evaluation
// errors and non-boolean results count as no match.
func (f Filter) Eval(e Event) bool {
	if !f.enabled {
		return true
	}
	out, _, err := f.prog.Eval(map[string]any{
		"id":      e.MessageID,
		"topic":   e.Topic,
		"outcome": e.Outcome,
		"reason":  e.Reason,
		"attempt": int64(e.Attempt),
		"now_ms":  time.Now().UnixMilli(),
	})
	if err != nil {
		return false
	}
	b, ok := out.Value().(bool)
	return ok && b
}
