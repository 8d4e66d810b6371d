package block

import (
	"context"
	"fmt"
	"reflect"
)

// Router walks a frozen Topology from a ritual's input to its declared
// output type, one scored hop at a time.
type Router struct {
	topo *Topology
}

// NewRouter constructs a Router over topo.
func NewRouter(topo *Topology) *Router {
	return &Router{topo: topo}
}

// Run drives the routing algorithm: starting from input with an empty
// active-tag set, repeatedly scores and invokes the best candidate block
// whose input type accepts the current value, until the current value's
// type matches outputType and no further block would consume it.
func (r *Router) Run(ctx context.Context, input any, outputType reflect.Type) (any, error) {
	ts := newTagScope()
	ctx = withTagScope(ctx, ts)

	current := input
	restrict := "" // Trick name restricting the *next* hop only, or ""

	for {
		currentType := reflect.TypeOf(current)
		candidates := r.topo.candidatesFor(currentType, restrict)
		restrict = "" // the restriction spans exactly one hop, win or lose

		if len(candidates) == 0 {
			if matchesOutput(currentType, outputType) {
				return current, nil
			}
			return nil, fmt.Errorf("%w: got %s, want %s", ErrNoRoute, typeName(currentType), outputType)
		}

		picked := r.score(candidates, ts)

		out, err := picked.invoke(ctx, current)
		if err != nil {
			return nil, fmt.Errorf("block %q: %w", picked.name, err)
		}
		current = out
		if picked.trick != "" {
			restrict = picked.trick
		}
	}
}

// score picks the candidate with the most active-tag/capability overlap,
// breaking ties by registration order (earliest wins).
func (r *Router) score(candidates []*def, ts *tagScope) *def {
	active := ts.snapshot()
	best := candidates[0]
	bestScore := overlap(best.capabilities, active)
	for _, d := range candidates[1:] {
		s := overlap(d.capabilities, active)
		if s > bestScore {
			best, bestScore = d, s
		}
	}
	return best
}

func overlap(capabilities map[string]struct{}, active map[string]struct{}) int {
	n := 0
	for c := range capabilities {
		if _, ok := active[c]; ok {
			n++
		}
	}
	return n
}

// matchesOutput reports whether current satisfies the ritual's declared
// output type: an exact match, or, when outputType is an interface,
// implementation of it.
func matchesOutput(current, outputType reflect.Type) bool {
	if current == nil || outputType == nil {
		return current == outputType
	}
	if current == outputType {
		return true
	}
	return outputType.Kind() == reflect.Interface && current.Implements(outputType)
}

func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}

// Run is the typed convenience entrypoint over Router.Run: it reflects
// TOut's type once and unwraps the result, sparing callers the reflect.Type
// bookkeeping.
func Run[TIn, TOut any](ctx context.Context, r *Router, in TIn) (TOut, error) {
	var zero TOut
	out, err := r.Run(ctx, in, reflect.TypeOf((*TOut)(nil)).Elem())
	if err != nil {
		return zero, err
	}
	v, ok := out.(TOut)
	if !ok {
		return zero, fmt.Errorf("block: routed output %T is not assignable to %T", out, zero)
	}
	return v, nil
}
