package transmute

import "context"

// Transmuter converts a single I into a single O, the shape a Block uses for
// its one input-to-output hop.
type Transmuter[I, O any] interface {
	Transmute(ctx context.Context, in I) (O, error)
}

// TransmuterFunc adapts a plain function to a Transmuter.
type TransmuterFunc[I, O any] func(ctx context.Context, in I) (O, error)

// Transmute calls f.
func (f TransmuterFunc[I, O]) Transmute(ctx context.Context, in I) (O, error) {
	return f(ctx, in)
}

// BatchResult is what a BatchTransmuter produces for one window: Output is
// appended to the journal as a fixed entry, and if HasRemainder is true,
// Remainder is carried forward as the seed chunk of the next window instead
// of being discarded.
type BatchResult[C, O any] struct {
	Output       O
	HasRemainder bool
	Remainder    C
}

// BatchTransmuter folds the chunks collected over one window, plus whatever
// remainder carried over from the previous window, into a BatchResult.
type BatchTransmuter[C, O any] interface {
	TransmuteBatch(ctx context.Context, chunks []C) (BatchResult[C, O], error)
}

// BatchTransmuterFunc adapts a plain function to a BatchTransmuter.
type BatchTransmuterFunc[C, O any] func(ctx context.Context, chunks []C) (BatchResult[C, O], error)

// TransmuteBatch calls f.
func (f BatchTransmuterFunc[C, O]) TransmuteBatch(ctx context.Context, chunks []C) (BatchResult[C, O], error) {
	return f(ctx, chunks)
}

// ShatterPolicy splits a single batch output into zero or more journal
// entries, e.g. fragmenting one assembled message back into per-sentence
// records. A nil ShatterPolicy is equivalent to one that always returns
// []O{out}.
type ShatterPolicy[O any] interface {
	Shatter(out O) []O
}

// ShatterPolicyFunc adapts a plain function to a ShatterPolicy.
type ShatterPolicyFunc[O any] func(out O) []O

// Shatter calls f.
func (f ShatterPolicyFunc[O]) Shatter(out O) []O {
	return f(out)
}

// Bidirectional pairs a forward and a backward Transmuter between two entry
// types (e.g. afferent and efferent) without shared state. composite.Config
// does not use it; its projections are plain function lists.
type Bidirectional[A, B any] struct {
	Forward  Transmuter[A, B]
	Backward Transmuter[B, A]
}
