package scope

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/joeycumines/coven/daemon"
)

// ErrUnknownDaemon is returned by WaitForRunning when name was never
// registered.
var ErrUnknownDaemon = errors.New("scope: unknown daemon")

// entry pairs a registered daemon with the name it was registered under, for
// error reporting and dependency lookups.
type entry struct {
	name string
	d    daemon.Daemon
}

// ExecutionScope owns a set of named daemons, starting them in registration
// order on Begin and shutting them down in reverse order on End. It is not
// safe for concurrent Register calls once Begin has been called.
type ExecutionScope struct {
	mu       sync.Mutex
	entries  []entry
	services map[string]any
	began    bool
}

// New constructs an empty ExecutionScope.
func New() *ExecutionScope {
	return &ExecutionScope{}
}

// SetService binds v to name for the lifetime of the scope, so code
// executing inside a block can locate scope-scoped collaborators (e.g. a
// handle used to cancel the hosted agent) via FromContext + Service.
func (s *ExecutionScope) SetService(name string, v any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.services == nil {
		s.services = make(map[string]any)
	}
	s.services[name] = v
}

// Service returns the value bound to name by SetService, if any.
func (s *ExecutionScope) Service(name string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.services[name]
	return v, ok
}

// Register adds d to the scope under name, for later Begin/End ordering and
// lookup via WaitForRunning. Registering after Begin panics - the topology of
// a scope is fixed once started.
func (s *ExecutionScope) Register(name string, d daemon.Daemon) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.began {
		panic("scope: Register called after Begin")
	}
	s.entries = append(s.entries, entry{name: name, d: d})
}

// WaitForRunning blocks until the named daemon reaches daemon.Running (or
// returns immediately if it already has), letting a dependent daemon's Start
// sequence wait for a dependency before proceeding. Registration order alone
// does not guarantee a dependency is Running by the time a later daemon's
// Start runs (Begin calls Start sequentially, but a daemon's Start may
// return before it reports Running); components with a real ordering
// requirement should call this explicitly.
func (s *ExecutionScope) WaitForRunning(ctx context.Context, name string) error {
	s.mu.Lock()
	var d daemon.Daemon
	for _, e := range s.entries {
		if e.name == name {
			d = e.d
			break
		}
	}
	s.mu.Unlock()
	if d == nil {
		return fmt.Errorf("%w: %s", ErrUnknownDaemon, name)
	}
	if cd, ok := d.(interface {
		WaitFor(context.Context, daemon.Status) error
	}); ok {
		return cd.WaitFor(ctx, daemon.Running)
	}
	return nil
}

// Begin starts every registered daemon in registration order, returning the
// first error encountered and leaving already-started daemons running - the
// caller is expected to call End to unwind a partially-started scope.
func (s *ExecutionScope) Begin(ctx context.Context) error {
	s.mu.Lock()
	s.began = true
	entries := append([]entry(nil), s.entries...)
	s.mu.Unlock()

	for _, e := range entries {
		if err := e.d.Start(ctx); err != nil {
			return fmt.Errorf("scope: starting %q: %w", e.name, err)
		}
	}
	return nil
}

// End shuts down every registered daemon in reverse registration order,
// continuing past individual failures and returning their aggregate via
// errors.Join.
func (s *ExecutionScope) End(ctx context.Context) error {
	s.mu.Lock()
	entries := append([]entry(nil), s.entries...)
	s.mu.Unlock()

	var errs []error
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		if err := e.d.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("scope: shutting down %q: %w", e.name, err))
		}
	}
	return errors.Join(errs...)
}

// contextKey is an unexported type so scope's context key cannot collide
// with keys from other packages.
type contextKey struct{}

// WithScope returns a context carrying s, retrievable via FromContext.
func WithScope(ctx context.Context, s *ExecutionScope) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext retrieves the ExecutionScope bound by WithScope, if any.
func FromContext(ctx context.Context) (*ExecutionScope, bool) {
	s, ok := ctx.Value(contextKey{}).(*ExecutionScope)
	return s, ok
}
