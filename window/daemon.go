package window

import (
	"context"
	"errors"
	"sync"

	"github.com/joeycumines/coven/daemon"
	"github.com/joeycumines/coven/scrivener"
	"github.com/joeycumines/coven/transmute"
	"github.com/joeycumines/logiface"
)

// Config configures a Daemon. T is the input journal's closed sum entry
// type; C is the chunk variant accumulated in pending; O is the fixed entry
// type produced. Output may be the same Scrivener as Input when O == T, or
// a distinct journal.
type Config[T, C, O any] struct {
	// Input is tailed from Checkpoint (or the store's saved position).
	Input *scrivener.Scrivener[T]
	// Output receives emitted entries. Required.
	Output *scrivener.Scrivener[O]

	// Chunk extracts the chunk payload from an input entry, reporting ok=
	// false for any entry that is neither a chunk nor the stream-completed
	// marker (such entries are ignored by the tail loop).
	Chunk func(entry T) (chunk C, ok bool)
	// StreamCompleted reports whether entry is the terminal draft marker
	// that forces a final emission.
	StreamCompleted func(entry T) bool

	Policy  Policy[C]
	Batcher transmute.BatchTransmuter[C, O]
	// Shatter is optional; a nil Shatter appends the BatchResult's Output as
	// the sole entry for a window.
	Shatter transmute.ShatterPolicy[O]

	// Checkpoint anchors the initial tail if Checkpoints is nil or has no
	// saved position for (Reader, Journal).
	Checkpoint scrivener.Position
	// Checkpoints, if set, is consulted for a saved position at Start and
	// updated after every successful policy-triggered emission and after
	// every StreamCompleted marker. Nothing is saved at shutdown.
	Checkpoints     CheckpointStore
	Reader, Journal string

	Logger *logiface.Logger[logiface.Event]
	Name   string
}

// Daemon is the streaming windowing engine: it tails Input, accumulates
// chunks, and emits batch-transmuted fixed entries onto Output. The zero
// value is not usable; construct one with New.
type Daemon[T, C, O any] struct {
	*daemon.ContractDaemon
	cfg Config[T, C, O]

	mu      sync.Mutex
	pending []C

	cancel context.CancelFunc
	done   chan struct{}
}

// New constructs a Daemon in the Stopped status from cfg.
func New[T, C, O any](cfg Config[T, C, O]) *Daemon[T, C, O] {
	var opts []daemon.Option
	if cfg.Logger != nil {
		opts = append(opts, daemon.WithLogger(cfg.Logger))
	}
	if cfg.Name != "" {
		opts = append(opts, daemon.WithName(cfg.Name))
	}
	return &Daemon[T, C, O]{
		ContractDaemon: daemon.NewContractDaemon(opts...),
		cfg:            cfg,
	}
}

// Pending returns a copy of the chunks accumulated since the last emission,
// an introspection helper for tests and operators.
func (d *Daemon[T, C, O]) Pending() []C {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]C, len(d.pending))
	copy(out, d.pending)
	return out
}

// Start begins tailing Input in a background goroutine. Idempotent: calling
// Start while already Running is a no-op, and Start after Completed returns
// daemon.ErrInvalidTransition.
func (d *Daemon[T, C, O]) Start(ctx context.Context) error {
	changed, err := d.Transition(daemon.Running)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	d.mu.Lock()
	d.cancel = cancel
	d.done = make(chan struct{})
	done := d.done
	d.mu.Unlock()

	go d.run(runCtx, done)
	return nil
}

// Shutdown cancels the tail loop and waits for it to observe the
// cancellation (completing any in-flight batch transmute first - the
// cancellation is cooperative, never mid-batch), then transitions to
// Completed. Idempotent: calling Shutdown while already Completed is a
// no-op.
func (d *Daemon[T, C, O]) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	cancel := d.cancel
	done := d.done
	d.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	_, err := d.Transition(daemon.Completed)
	return err
}

// run is the tail/accumulate/emit loop. It owns pending exclusively - no
// other goroutine mutates it while run is active (Pending only copies).
func (d *Daemon[T, C, O]) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	start := d.cfg.Checkpoint
	if d.cfg.Checkpoints != nil {
		if pos, ok := d.cfg.Checkpoints.Load(d.cfg.Reader, d.cfg.Journal); ok {
			start = pos
		}
	}
	tail := d.cfg.Input.Tail(start)

	for {
		rec, err := tail.Next(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return // preserve pending for restart; cooperative cancel
			}
			if errors.Is(err, scrivener.ErrClosed) {
				return
			}
			d.Fail(err)
			return
		}

		if d.cfg.StreamCompleted(rec.Entry) {
			if err := d.flush(ctx); err != nil {
				d.Fail(err)
				return
			}
			d.checkpoint(tail.Position())
			continue
		}

		chunk, ok := d.cfg.Chunk(rec.Entry)
		if !ok {
			continue
		}

		d.mu.Lock()
		d.pending = append(d.pending, chunk)
		view := View[C]{chunks: append([]C(nil), d.pending...), minLookback: d.cfg.Policy.MinChunkLookback()}
		d.mu.Unlock()

		if d.cfg.Policy.ShouldEmit(view) {
			if err := d.flush(ctx); err != nil {
				d.Fail(err)
				return
			}
			d.checkpoint(tail.Position())
		}
	}
}

// flush transmutes whatever is pending and appends the result(s) to Output.
// A flush call on an empty pending buffer is a no-op - the only caller-
// visible distinction between "policy fired" and "StreamCompleted forces a
// final emission" is whether pending happens to be empty when each is
// invoked, which the caller already controls.
func (d *Daemon[T, C, O]) flush(ctx context.Context) error {
	d.mu.Lock()
	if len(d.pending) == 0 {
		d.mu.Unlock()
		return nil
	}
	chunks := d.pending
	d.pending = nil
	d.mu.Unlock()

	// Shutdown's cancellation does not reach an in-flight batch.
	result, err := d.cfg.Batcher.TransmuteBatch(context.WithoutCancel(ctx), chunks)
	if err != nil {
		d.mu.Lock()
		d.pending = append(chunks, d.pending...)
		d.mu.Unlock()
		return err
	}

	outputs := []O{result.Output}
	if d.cfg.Shatter != nil {
		outputs = d.cfg.Shatter.Shatter(result.Output)
	}
	for _, out := range outputs {
		if dft, ok := any(out).(scrivener.Draftable); ok && dft.Draft() {
			d.mu.Lock()
			d.pending = append(chunks, d.pending...)
			d.mu.Unlock()
			return ErrDraftLeak
		}
	}
	for _, out := range outputs {
		d.cfg.Output.Append(out)
	}

	if result.HasRemainder {
		d.mu.Lock()
		d.pending = append([]C{result.Remainder}, d.pending...)
		d.mu.Unlock()
	}
	return nil
}

// checkpoint persists pos via Checkpoints, if configured.
func (d *Daemon[T, C, O]) checkpoint(pos scrivener.Position) {
	if d.cfg.Checkpoints != nil {
		d.cfg.Checkpoints.Save(d.cfg.Reader, d.cfg.Journal, pos)
	}
}
