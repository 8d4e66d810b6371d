package block

import (
	"context"
	"reflect"
)

// Block is a typed unit of work: TIn -> TOut. Do must be cancel-aware, like
// every other suspending operation in this module.
type Block[TIn, TOut any] interface {
	Do(ctx context.Context, in TIn) (TOut, error)
}

// BlockFunc adapts a plain function to a Block.
type BlockFunc[TIn, TOut any] func(ctx context.Context, in TIn) (TOut, error)

// Do calls f.
func (f BlockFunc[TIn, TOut]) Do(ctx context.Context, in TIn) (TOut, error) { return f(ctx, in) }

// def is the type-erased registration record the Builder and Router share.
// TIn/TOut are captured as reflect.Type so a Topology can hold blocks of
// differing type parameters in one slice.
type def struct {
	name         string
	inType       reflect.Type
	outType      reflect.Type
	capabilities map[string]struct{}
	trick        string
	order        int
	invoke       func(ctx context.Context, in any) (any, error)
}

func (d *def) acceptsAssignable(t reflect.Type) bool {
	if t == nil {
		return false
	}
	if t == d.inType {
		return true
	}
	if d.inType.Kind() == reflect.Interface && t.Implements(d.inType) {
		return true
	}
	return false
}

// RegisterOption configures a block at registration time.
type RegisterOption func(*def)

// WithCapabilities declares the static capability tags a block claims to
// serve - scored against the ambient active tags when the Router picks
// among multiple candidates for the next hop.
func WithCapabilities(caps ...string) RegisterOption {
	return func(d *def) {
		for _, c := range caps {
			d.capabilities[c] = struct{}{}
		}
	}
}

// WithName attaches a name used only for diagnostics: Router.Run prefixes
// errors returned by the block's Do with it.
func WithName(name string) RegisterOption {
	return func(d *def) { d.name = name }
}

// Builder is a mutable staging area for a ritual's block topology. The zero
// value is not usable; construct one with NewBuilder. Register blocks with
// Register (and, for a Trick's members, RegisterInTrick), then call Done to
// freeze the topology.
type Builder struct {
	defs   []*def
	frozen bool
}

// NewBuilder constructs an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Register adds blk to the topology at top level (not restricted to any
// Trick), with the given options applied in order. Registering after Done
// panics - a Builder's topology is immutable once frozen.
func Register[TIn, TOut any](b *Builder, blk Block[TIn, TOut], opts ...RegisterOption) {
	registerTyped(b, "", blk, opts...)
}

// TrickBuilder is the nested builder scope passed to Builder.Trick's
// callback; blocks registered through it become the only candidates for
// the hop immediately following a member block's invocation.
type TrickBuilder struct {
	b     *Builder
	trick string
}

// RegisterInTrick adds blk to the topology as a member of tb's Trick.
func RegisterInTrick[TIn, TOut any](tb *TrickBuilder, blk Block[TIn, TOut], opts ...RegisterOption) {
	registerTyped(tb.b, tb.trick, blk, opts...)
}

// Trick declares a nested builder scope named name; every block registered
// through the *TrickBuilder passed to fn becomes a member of this Trick.
func (b *Builder) Trick(name string, fn func(tb *TrickBuilder)) {
	fn(&TrickBuilder{b: b, trick: name})
}

// registerTyped is the shared implementation behind Register and
// RegisterInTrick, each of which still has TIn/TOut in scope to build the
// type-erased invoke closure and reflect.Type pair.
func registerTyped[TIn, TOut any](b *Builder, trick string, blk Block[TIn, TOut], opts ...RegisterOption) {
	if b.frozen {
		panic("block: Register called after Done")
	}
	d := &def{
		inType:       reflect.TypeOf((*TIn)(nil)).Elem(),
		outType:      reflect.TypeOf((*TOut)(nil)).Elem(),
		capabilities: make(map[string]struct{}),
		trick:        trick,
		order:        len(b.defs),
		invoke: func(ctx context.Context, in any) (any, error) {
			out, err := blk.Do(ctx, in.(TIn))
			return out, err
		},
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.name == "" {
		d.name = d.inType.String() + "->" + d.outType.String()
	}
	b.defs = append(b.defs, d)
}

// Topology is the immutable runtime structure produced by Builder.Done. A
// Router walks it; all capability/tag lookups resolve against this frozen
// structure.
type Topology struct {
	defs []*def
}

// Done freezes b and returns the resulting Topology. Calling Register or
// RegisterInTrick with b afterwards panics.
func (b *Builder) Done() *Topology {
	b.frozen = true
	return &Topology{defs: append([]*def(nil), b.defs...)}
}

// candidatesFor returns every def whose input type accepts t, in
// registration order, restricted to the named trick if restrict != "".
func (topo *Topology) candidatesFor(t reflect.Type, restrict string) []*def {
	var out []*def
	for _, d := range topo.defs {
		if restrict != "" && d.trick != restrict {
			continue
		}
		if d.acceptsAssignable(t) {
			out = append(out, d)
		}
	}
	return out
}
