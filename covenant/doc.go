// Package covenant implements a typed data-flow graph validator: a named
// graph of Source/Sink/Transform/Window/
// Junction edges over entry types, built once before a pipeline runs and
// validated for dead letters, orphan consumers, and Source-to-Sink
// reachability.
//
// Types are identified by reflect.Type, so the graph is constructed with
// ordinary Go type parameters (covenant.Source[Afferent](b), etc.) rather
// than any string-based type registry.
package covenant
