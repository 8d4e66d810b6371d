package composite

import (
	"context"
	"errors"
	"sync"

	"github.com/joeycumines/coven/daemon"
	"github.com/joeycumines/coven/scope"
	"github.com/joeycumines/coven/scrivener"
	"github.com/joeycumines/logiface"
	"golang.org/x/sync/errgroup"
)

// Config configures a Daemon. OuterT is the outer journal's closed sum
// entry type; InnerT is the inner journal's. The manifest is expressed as
// ordered projector lists rather than a map, since a single outer or inner
// variant may need trying against several candidate projections before one
// matches (the first match wins, mirroring Router's candidate-scan shape).
type Config[OuterT, InnerT any] struct {
	// Outer is the boundary journal this composite consumes from and
	// produces to.
	Outer *scrivener.Scrivener[OuterT]

	// NewInnerJournal constructs a fresh inner journal for one Start of this
	// composite. Called before the inner scope is created and before any
	// inner daemon is registered, so RegisterInner always sees an empty,
	// freshly-owned journal.
	NewInnerJournal func() *scrivener.Scrivener[InnerT]

	// RegisterInner registers every inner daemon onto s. The inner scope
	// and journal are always constructed before RegisterInner runs, so
	// every inner daemon resolves against scope-local state.
	RegisterInner func(s *scope.ExecutionScope, inner *scrivener.Scrivener[InnerT])

	// Inbound projects an outer entry to an inner one; each is tried in
	// order and the first to report ok=true is appended to the inner
	// journal. An outer entry matching no projector is dropped (e.g. an
	// inner-only draft echoing back, or a type the manifest does not
	// declare consumption of).
	Inbound []func(OuterT) (InnerT, bool)
	// Outbound projects an inner entry back to an outer one, same matching
	// rule as Inbound.
	Outbound []func(InnerT) (OuterT, bool)

	Logger *logiface.Logger[logiface.Event]
	Name   string
}

// Daemon bridges an outer boundary journal to a scoped inner execution,
// projecting entries across in both directions. The zero value is not
// usable; construct one with New.
type Daemon[OuterT, InnerT any] struct {
	*daemon.ContractDaemon
	cfg Config[OuterT, InnerT]

	mu         sync.Mutex
	inner      *scrivener.Scrivener[InnerT]
	innerScope *scope.ExecutionScope
	cancel     context.CancelFunc
	done       chan struct{}
}

// New constructs a Daemon in the Stopped status from cfg.
func New[OuterT, InnerT any](cfg Config[OuterT, InnerT]) *Daemon[OuterT, InnerT] {
	var opts []daemon.Option
	if cfg.Logger != nil {
		opts = append(opts, daemon.WithLogger(cfg.Logger))
	}
	if cfg.Name != "" {
		opts = append(opts, daemon.WithName(cfg.Name))
	}
	return &Daemon[OuterT, InnerT]{
		ContractDaemon: daemon.NewContractDaemon(opts...),
		cfg:            cfg,
	}
}

// Inner returns the current inner journal, for tests and operator
// introspection - nil before the first successful Start.
func (d *Daemon[OuterT, InnerT]) Inner() *scrivener.Scrivener[InnerT] {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.inner
}

// Start first transitions to Running, then stands up the inner scope,
// registers and starts the inner daemons in declared order, and starts both
// projection pumps. Status therefore reads Running before the inner daemons
// and pumps have started. Idempotent: calling Start while already Running is
// a no-op, and Start after Completed returns daemon.ErrInvalidTransition.
func (d *Daemon[OuterT, InnerT]) Start(ctx context.Context) error {
	changed, err := d.Transition(daemon.Running)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}

	inner := d.cfg.NewInnerJournal()
	innerScope := scope.New()
	d.cfg.RegisterInner(innerScope, inner)

	if err := innerScope.Begin(ctx); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error { return d.pumpOuterToInner(gctx, inner) })
	g.Go(func() error { return d.pumpInnerToOuter(gctx, inner) })

	done := make(chan struct{})
	d.mu.Lock()
	d.inner = inner
	d.innerScope = innerScope
	d.cancel = cancel
	d.done = done
	d.mu.Unlock()

	go func() {
		defer close(done)
		if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
			d.Fail(err)
		}
	}()

	return nil
}

// Shutdown cancels both pumps, waits for them to stop, shuts down the inner
// daemons in reverse registration order, and transitions to Completed.
// Idempotent: calling Shutdown while already Completed is a no-op.
func (d *Daemon[OuterT, InnerT]) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	cancel := d.cancel
	done := d.done
	innerScope := d.innerScope
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

	var shutdownErr error
	if innerScope != nil {
		shutdownErr = innerScope.End(ctx)
	}

	_, err := d.Transition(daemon.Completed)
	return errors.Join(shutdownErr, err)
}

// pumpOuterToInner consumes outer entries, projects them via Inbound, and
// appends matches to inner.
func (d *Daemon[OuterT, InnerT]) pumpOuterToInner(ctx context.Context, inner *scrivener.Scrivener[InnerT]) error {
	tail := d.cfg.Outer.Tail(0)
	for {
		rec, err := tail.Next(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, scrivener.ErrClosed) {
				return nil
			}
			return err
		}
		for _, project := range d.cfg.Inbound {
			if projected, ok := project(rec.Entry); ok {
				inner.Append(projected)
				break
			}
		}
	}
}

// pumpInnerToOuter consumes inner entries, projects them via Outbound, and
// appends matches to Outer.
func (d *Daemon[OuterT, InnerT]) pumpInnerToOuter(ctx context.Context, inner *scrivener.Scrivener[InnerT]) error {
	tail := inner.Tail(0)
	for {
		rec, err := tail.Next(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, scrivener.ErrClosed) {
				return nil
			}
			return err
		}
		for _, project := range d.cfg.Outbound {
			if projected, ok := project(rec.Entry); ok {
				d.cfg.Outer.Append(projected)
				break
			}
		}
	}
}
