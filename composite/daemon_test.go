package composite

import (
	"context"
	"testing"
	"time"

	"github.com/joeycumines/coven/daemon"
	"github.com/joeycumines/coven/scope"
	"github.com/joeycumines/coven/scrivener"
	"github.com/stretchr/testify/require"
)

// outerEntry is a minimal outer closed sum: Ask enters, Answer leaves.
type outerEntry struct {
	ask    string
	answer string
}

// innerEntry mirrors it on the inner side, with different field names to
// make the projection visibly a projection rather than an identity cast.
type innerEntry struct {
	question string
	reply    string
}

// echoDaemon is a trivial inner daemon: on Start, it tails its journal and
// answers every question with a fixed reply, demonstrating that RegisterInner
// resolves daemons against the inner journal the composite constructed.
type echoDaemon struct {
	*daemon.ContractDaemon
	inner  *scrivener.Scrivener[innerEntry]
	cancel context.CancelFunc
	done   chan struct{}
}

func newEchoDaemon(inner *scrivener.Scrivener[innerEntry]) *echoDaemon {
	return &echoDaemon{ContractDaemon: daemon.NewContractDaemon(), inner: inner}
}

func (e *echoDaemon) Start(ctx context.Context) error {
	changed, err := e.Transition(daemon.Running)
	if err != nil || !changed {
		return err
	}
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	e.cancel = cancel
	e.done = make(chan struct{})
	go func() {
		defer close(e.done)
		tail := e.inner.Tail(0)
		for {
			rec, err := tail.Next(runCtx)
			if err != nil {
				return
			}
			if rec.Entry.question != "" {
				e.inner.Append(innerEntry{reply: "echo: " + rec.Entry.question})
			}
		}
	}()
	return nil
}

func (e *echoDaemon) Shutdown(ctx context.Context) error {
	if e.cancel != nil {
		e.cancel()
	}
	if e.done != nil {
		<-e.done
	}
	_, err := e.Transition(daemon.Completed)
	return err
}

func TestDaemon_BridgesOuterToInnerAndBack(t *testing.T) {
	outer := scrivener.New[outerEntry]()

	var echo *echoDaemon
	d := New(Config[outerEntry, innerEntry]{
		Outer: outer,
		NewInnerJournal: func() *scrivener.Scrivener[innerEntry] {
			return scrivener.New[innerEntry]()
		},
		RegisterInner: func(s *scope.ExecutionScope, inner *scrivener.Scrivener[innerEntry]) {
			echo = newEchoDaemon(inner)
			s.Register("echo", echo)
		},
		Inbound: []func(outerEntry) (innerEntry, bool){
			func(o outerEntry) (innerEntry, bool) {
				if o.ask == "" {
					return innerEntry{}, false
				}
				return innerEntry{question: o.ask}, true
			},
		},
		Outbound: []func(innerEntry) (outerEntry, bool){
			func(i innerEntry) (outerEntry, bool) {
				if i.reply == "" {
					return outerEntry{}, false
				}
				return outerEntry{answer: i.reply}, true
			},
		},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	require.NoError(t, d.Start(ctx))
	require.NotNil(t, echo)
	require.Equal(t, daemon.Running, echo.Status())

	outer.Append(outerEntry{ask: "are you there"})

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && outer.Len() < 2 {
		time.Sleep(time.Millisecond)
	}

	snap := outer.Snapshot()
	require.Len(t, snap, 2)
	require.Equal(t, "echo: are you there", snap[1].Entry.answer)

	require.NoError(t, d.Shutdown(ctx))
	require.Equal(t, daemon.Completed, d.Status())
	require.Equal(t, daemon.Completed, echo.Status())
}
