package daemon

import (
	"context"
	"errors"
	"time"

	"github.com/joeycumines/coven/scrivener"
	"github.com/joeycumines/go-catrate"
)

// ErrRestartsExhausted is returned by RestartGovernor.Allow when the
// configured rate would be exceeded - the caller's restart loop should stop,
// not retry tighter.
var ErrRestartsExhausted = errors.New("daemon: restart rate exhausted")

// RestartGovernor throttles a restart loop using a sliding-window rate
// limiter. It never observes or mutates a Daemon's Status - it only answers
// "is it still worth trying to restart" for whatever category the caller
// chooses (typically the daemon's name).
type RestartGovernor struct {
	limiter *catrate.Limiter
}

// NewRestartGovernor builds a RestartGovernor from the given sliding-window
// rates (duration -> max restarts within that duration), e.g.
// map[time.Duration]int{time.Second: 1, time.Minute: 5}.
func NewRestartGovernor(rates map[time.Duration]int) *RestartGovernor {
	return &RestartGovernor{limiter: catrate.NewLimiter(rates)}
}

// Allow registers a restart attempt for category. If the attempt would
// exceed the configured rate, it returns ErrRestartsExhausted along with the
// time at which another attempt may be made.
func (g *RestartGovernor) Allow(category any) (time.Time, error) {
	next, ok := g.limiter.Allow(category)
	if !ok {
		return next, ErrRestartsExhausted
	}
	return next, nil
}

// Supervisable is a Daemon that also exposes its events journal, the
// contract Supervise needs to observe successive FailureOccurred events
// (WaitForFailure alone always anchors at position 0, so it cannot report
// more than the first failure - see ContractDaemon.WaitForFailure).
type Supervisable interface {
	Daemon
	Events() *scrivener.Scrivener[Event]
}

// Supervise runs d, restarting it (via Start) each time it reports a
// FailureOccurred event, until either ctx is cancelled, d reaches Completed,
// or governor refuses a further restart attempt. It never restarts a
// Completed daemon: when a failure and completion race, the post-failure
// status check returns the failure's error rather than calling Start again.
func Supervise(ctx context.Context, d Supervisable, governor *RestartGovernor, category any) error {
	if err := d.Start(ctx); err != nil {
		return err
	}
	var after scrivener.Position
	for {
		if d.Status() == Completed {
			return nil
		}
		rec, failure, err := scrivener.WaitForVariant[Event, FailureOccurred](ctx, d.Events(), after)
		if err != nil {
			return err
		}
		after = rec.Position
		if d.Status() == Completed {
			return failure.Err
		}
		if governor != nil {
			if _, err := governor.Allow(category); err != nil {
				return errors.Join(failure.Err, err)
			}
		}
		if err := d.Start(ctx); err != nil {
			return errors.Join(failure.Err, err)
		}
	}
}
