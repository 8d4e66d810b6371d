package covenant

import (
	"fmt"
	"reflect"
	"strings"
)

// emptyJunctionError is returned immediately by Junction when a route set
// has nothing to produce - it never enters the graph, so Validate never
// sees it.
type emptyJunctionError struct {
	input reflect.Type
}

func (e *emptyJunctionError) Error() string {
	return fmt.Sprintf("covenant: junction on %s declares no route and no fallback", e.input)
}

// Offence is one violation found by Validate, naming the rule it breaks and
// the type(s) involved.
type Offence struct {
	Rule  string
	Types []reflect.Type
}

func (o Offence) String() string {
	names := make([]string, len(o.Types))
	for i, t := range o.Types {
		names[i] = t.String()
	}
	return fmt.Sprintf("%s: %s", o.Rule, strings.Join(names, ", "))
}

// ValidationError aggregates every offence found by Validate into a single
// error, so a caller sees the full list of problems in one failure rather
// than fixing them one rebuild at a time.
type ValidationError struct {
	Name     string
	Offences []Offence
}

func (e *ValidationError) Error() string {
	lines := make([]string, len(e.Offences))
	for i, o := range e.Offences {
		lines[i] = o.String()
	}
	return fmt.Sprintf("covenant %q: validation failed:\n  %s", e.Name, strings.Join(lines, "\n  "))
}

// Unwrap lets errors.Is/As inspect ValidationError like any multi-error,
// consistent with the errors.Join-style aggregation used elsewhere in this
// module (see scope.ExecutionScope.End).
func (e *ValidationError) Unwrap() []error {
	errs := make([]error, len(e.Offences))
	for i, o := range e.Offences {
		errs[i] = fmt.Errorf("%s", o.String())
	}
	return errs
}

const (
	RuleDeadLetter       = "dead letter (produced but never consumed, not a Sink)"
	RuleOrphanConsumer   = "orphan consumer (consumed but never produced, not a Source)"
	RuleUnreachableSink  = "unreachable Sink (no path from any Source)"
	RuleDoubleBookedSink = "double-booked (both routed and declared Sink)"
	RuleDoubleTransform  = "double-booked (two Transform edges on the same input)"
)
