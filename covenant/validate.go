package covenant

import (
	"reflect"
	"sort"
)

// Validate checks the graph for dead letters, orphan consumers,
// unreachable sinks, and double-booked types, and aggregates
// every offence into a single *ValidationError, returning nil if the graph
// is closed. It is side-effect free and may be called more than once; a
// typical caller invokes it exactly once, at the end of building a
// pipeline's topology, before execution starts.
func (b *Builder) Validate() error {
	var offences []Offence

	sources := map[reflect.Type]bool{}
	sinks := map[reflect.Type]bool{}
	// routedProduced holds only the output types of internal routing edges
	// (Transform/Window/Junction) - the dead-letter check (rule 1) asks
	// whether something this graph *produced internally* goes nowhere; a
	// Source's output entering the system needs no internal producer of its
	// own; it is not itself a dead letter merely for lacking one.
	routedProduced := map[reflect.Type]bool{}
	// routedConsumed holds only the input types of internal routing edges -
	// the orphan check (rule 2) asks whether something this graph *consumes
	// internally* has a producer; a Sink's consumer role is tracked via
	// sinks instead, so a Sink with nothing upstream is an unreachable Sink
	// (rule 3), not an orphan consumer.
	routedConsumed := map[reflect.Type]bool{}
	transformInputs := map[reflect.Type]int{}
	routedInputs := map[reflect.Type]bool{}

	for _, e := range b.edges {
		switch e.kind {
		case kindSource:
			sources[e.producers[0]] = true
		case kindSink:
			sinks[e.consumers[0]] = true
		case kindTransform:
			transformInputs[e.consumers[0]]++
			routedInputs[e.consumers[0]] = true
			routedConsumed[e.consumers[0]] = true
			for _, t := range e.producers {
				routedProduced[t] = true
			}
		case kindWindow, kindJunction:
			routedInputs[e.consumers[0]] = true
			routedConsumed[e.consumers[0]] = true
			for _, t := range e.producers {
				routedProduced[t] = true
			}
		}
	}

	// Rule 1: no dead letters - everything an internal edge produces must be
	// consumed by another internal edge, or declared a Sink.
	for t := range routedProduced {
		if !routedConsumed[t] && !sinks[t] {
			offences = append(offences, Offence{Rule: RuleDeadLetter, Types: []reflect.Type{t}})
		}
	}

	// Rule 2: no orphan consumers - everything an internal edge consumes
	// must be produced by another internal edge, or declared a Source.
	for t := range routedConsumed {
		if !routedProduced[t] && !sources[t] {
			offences = append(offences, Offence{Rule: RuleOrphanConsumer, Types: []reflect.Type{t}})
		}
	}

	// Rule 3: reachability - every declared Sink must be reachable from some
	// Source. A Source with no path to any Sink is not an offence.
	reachable := b.reachableFrom(sources)
	for t := range sinks {
		if !reachable[t] {
			offences = append(offences, Offence{Rule: RuleUnreachableSink, Types: []reflect.Type{t}})
		}
	}

	// Rule 4a: no type both routed and declared Sink.
	for t := range sinks {
		if routedInputs[t] {
			offences = append(offences, Offence{Rule: RuleDoubleBookedSink, Types: []reflect.Type{t}})
		}
	}

	// Rule 4b: no single input type has two Transform edges (Junction is
	// the supported form of fan-out).
	for t, count := range transformInputs {
		if count > 1 {
			offences = append(offences, Offence{Rule: RuleDoubleTransform, Types: []reflect.Type{t}})
		}
	}

	sortOffences(offences)

	if len(offences) == 0 {
		return nil
	}
	return &ValidationError{Name: b.name, Offences: offences}
}

// reachableFrom computes every type reachable from the given set of Source
// types by following edges as (consumer -> producer) hops - a Transform,
// Window, or Junction edge lets you walk from any of its consumer types to
// any of its producer types. Source types are themselves reachable (an
// adapter may write straight through to a Sink with no intermediate edges,
// though such a covenant would be unusual).
func (b *Builder) reachableFrom(sources map[reflect.Type]bool) map[reflect.Type]bool {
	reached := map[reflect.Type]bool{}
	for t := range sources {
		reached[t] = true
	}

	for changed := true; changed; {
		changed = false
		for _, e := range b.edges {
			if e.kind == kindSource || e.kind == kindSink {
				continue
			}
			anyConsumerReached := false
			for _, c := range e.consumers {
				if reached[c] {
					anyConsumerReached = true
					break
				}
			}
			if !anyConsumerReached {
				continue
			}
			for _, p := range e.producers {
				if !reached[p] {
					reached[p] = true
					changed = true
				}
			}
		}
	}
	return reached
}

// sortOffences orders offences deterministically (by rule, then by the
// first type's name) so ValidationError.Error output is stable across runs
// - the underlying maps in Validate have no defined iteration order.
func sortOffences(offences []Offence) {
	sort.Slice(offences, func(i, j int) bool {
		if offences[i].Rule != offences[j].Rule {
			return offences[i].Rule < offences[j].Rule
		}
		return offences[i].Types[0].String() < offences[j].Types[0].String()
	})
}
