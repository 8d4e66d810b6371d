package covenant

import "reflect"

// kind distinguishes the five edge shapes a Builder accepts.
type kind int

const (
	kindSource kind = iota
	kindSink
	kindTransform
	kindWindow
	kindJunction
)

// edge is one contribution to the graph: a (consumer-type, producer-type)
// pair. Source edges have no consumer type; Sink
// edges have no producer type; Junction edges have one consumer type and
// many producer types.
type edge struct {
	kind      kind
	consumers []reflect.Type
	producers []reflect.Type
}

// Route is one branch of a Junction: the output type produced when the
// branch's predicate matches. Build one with RouteTo.
type Route struct {
	output reflect.Type
}

// RouteTo declares a Junction branch producing B. The predicate itself is a
// runtime concern outside this package's scope (the graph only needs to
// know which output types a Junction may produce).
func RouteTo[B any]() Route {
	return Route{output: typeOf[B]()}
}

// JunctionConfig configures a Junction edge: the set of predicated routes,
// and an optional fallback output type used when no route's predicate
// matches.
type JunctionConfig struct {
	Routes   []Route
	Fallback *Route
}

// Builder accumulates edges for a single named Covenant. The zero value is
// not usable; construct one with NewBuilder.
type Builder struct {
	name  string
	edges []edge
}

// NewBuilder constructs an empty Builder for a covenant named name. The name
// is used only to label ValidationError.
func NewBuilder(name string) *Builder {
	return &Builder{name: name}
}

// typeOf returns the reflect.Type for T, including interface types (T must
// be instantiated with a concrete or interface type argument; pointer-ness
// is part of the identity, matching how entry sum-type variants are
// typically declared as value or pointer receivers consistently across a
// module).
func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Source declares that T enters the covenant from outside.
func Source[T any](b *Builder) {
	b.edges = append(b.edges, edge{kind: kindSource, producers: []reflect.Type{typeOf[T]()}})
}

// Sink declares that T leaves the covenant to the outside.
func Sink[T any](b *Builder) {
	b.edges = append(b.edges, edge{kind: kindSink, consumers: []reflect.Type{typeOf[T]()}})
}

// Transform declares a pure 1:1 edge A -> B. t is accepted so a caller can
// pass the same transmuter value used to wire the real pipeline; the graph
// itself only needs A and B.
func Transform[A, B any](b *Builder, t any) {
	_ = t
	b.edges = append(b.edges, edge{kind: kindTransform, consumers: []reflect.Type{typeOf[A]()}, producers: []reflect.Type{typeOf[B]()}})
}

// Window declares a window-and-emit edge C -> O, mirroring a window.Daemon's
// Chunk/Output types. policy, batcher, and shatter are accepted so a caller
// can pass the values used to wire the real daemon; the graph only needs C
// and O.
func Window[C, O any](b *Builder, policy, batcher, shatter any) {
	_, _, _ = policy, batcher, shatter
	b.edges = append(b.edges, edge{kind: kindWindow, consumers: []reflect.Type{typeOf[C]()}, producers: []reflect.Type{typeOf[O]()}})
}

// Junction declares a fan-out edge: A routed to one of cfg's declared output
// types. Returns an error immediately if cfg declares neither a route nor a
// fallback - a Junction with nothing to produce is never valid.
func Junction[A any](b *Builder, cfg JunctionConfig) error {
	if len(cfg.Routes) == 0 && cfg.Fallback == nil {
		return &emptyJunctionError{input: typeOf[A]()}
	}
	producers := make([]reflect.Type, 0, len(cfg.Routes)+1)
	for _, r := range cfg.Routes {
		producers = append(producers, r.output)
	}
	if cfg.Fallback != nil {
		producers = append(producers, cfg.Fallback.output)
	}
	b.edges = append(b.edges, edge{kind: kindJunction, consumers: []reflect.Type{typeOf[A]()}, producers: producers})
	return nil
}
