package daemon

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/joeycumines/coven/scrivener"
	"github.com/joeycumines/logiface"
)

var (
	// ErrInvalidTransition is returned by Transition when the daemon is
	// already Completed (terminal), or when status would move backwards.
	ErrInvalidTransition = errors.New("daemon: invalid transition")
)

// Daemon is the contract every long-running component in this module
// implements: Start and Shutdown are idempotent with respect to the
// observable Status, which may be read lock-free (eventually consistent).
type Daemon interface {
	Start(ctx context.Context) error
	Shutdown(ctx context.Context) error
	Status() Status
}

// ContractDaemon is the embeddable base every concrete Daemon in this module
// builds on: a single-writer status mutex, a self-owned events Scrivener,
// and the wait_for/wait_for_failure helpers built on it. Concrete daemons
// (window.Daemon, composite.Daemon) embed *ContractDaemon and call
// Transition from their own Start/Shutdown to get idempotency and the
// journaled audit trail for free.
type ContractDaemon struct {
	mu     sync.Mutex
	status Status
	events *scrivener.Scrivener[Event]
	log    *logiface.Logger[logiface.Event]
	name   string
}

// Option configures a ContractDaemon at construction.
type Option func(*ContractDaemon)

// WithLogger attaches a structured logger; a nil logger (the default)
// disables logging.
func WithLogger(l *logiface.Logger[logiface.Event]) Option {
	return func(d *ContractDaemon) { d.log = l }
}

// WithName attaches a name used only for log correlation.
func WithName(name string) Option {
	return func(d *ContractDaemon) { d.name = name }
}

// NewContractDaemon constructs a ContractDaemon in the Stopped status with
// its own fresh events journal. Without WithName, the daemon is named by a
// random UUID so log lines from anonymous daemons remain distinguishable.
func NewContractDaemon(opts ...Option) *ContractDaemon {
	d := &ContractDaemon{events: scrivener.New[Event]()}
	for _, opt := range opts {
		opt(d)
	}
	if d.name == "" {
		d.name = uuid.NewString()
	}
	return d
}

// Name returns the daemon's name, set via WithName or generated at
// construction.
func (d *ContractDaemon) Name() string {
	return d.name
}

// Status reads the current status. Eventually consistent: a concurrent
// Transition may not be visible to the caller yet.
func (d *ContractDaemon) Status() Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.status
}

// Events returns a non-owning reference to the daemon-events journal, for
// external observers; the daemon itself retains ownership, and nothing ever
// points back from the journal to the daemon.
func (d *ContractDaemon) Events() *scrivener.Scrivener[Event] {
	return d.events
}

// Transition attempts to move the daemon to status, under the single-writer
// mutex. Re-entering the current status is a no-op (changed=false, err=nil,
// no event appended). Attempting to leave Completed, or to move to a lower
// status, fails with ErrInvalidTransition. On an accepted transition,
// changed is true and a StatusChanged event is appended atomically with the
// status change.
func (d *ContractDaemon) Transition(status Status) (changed bool, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.status == status {
		return false, nil
	}
	if d.status == Completed || status < d.status {
		return false, ErrInvalidTransition
	}

	d.status = status
	d.events.Append(StatusChanged{New: status})
	if d.log != nil {
		d.log.Info().Str("daemon", d.name).Str("status", status.String()).Log("status changed")
	}
	return true, nil
}

// Fail appends a FailureOccurred event without altering Status. A failed
// daemon is free to be restarted via Start, provided Status has not reached
// Completed.
func (d *ContractDaemon) Fail(err error) {
	d.events.Append(FailureOccurred{Err: err})
	if d.log != nil {
		d.mu.Lock()
		name := d.name
		d.mu.Unlock()
		d.log.Err().Str("daemon", name).Err(err).Log("daemon failed")
	}
}

// WaitFor completes when the daemon reaches target, observing transitions
// that happened before the call (it anchors at position 0 of the events
// journal), so a daemon already at target returns without suspending.
func (d *ContractDaemon) WaitFor(ctx context.Context, target Status) error {
	_, err := d.events.WaitFor(ctx, 0, func(e Event) bool {
		sc, ok := e.(StatusChanged)
		return ok && sc.New == target
	})
	return err
}

// WaitForFailure completes with the error from the first FailureOccurred
// event on the daemon's events journal (anchored at position 0, so a
// failure that happened before the call is still observed).
func (d *ContractDaemon) WaitForFailure(ctx context.Context) (error, error) {
	_, v, err := scrivener.WaitForVariant[Event, FailureOccurred](ctx, d.events, 0)
	if err != nil {
		return nil, err
	}
	return v.Err, nil
}
