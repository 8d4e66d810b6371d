package scope

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/joeycumines/coven/daemon"
	"github.com/stretchr/testify/require"
)

type recordingDaemon struct {
	*daemon.ContractDaemon
	shutdownErr error
}

func newRecordingDaemon() *recordingDaemon {
	return &recordingDaemon{ContractDaemon: daemon.NewContractDaemon()}
}

func (d *recordingDaemon) Start(ctx context.Context) error {
	_, err := d.Transition(daemon.Running)
	return err
}

func (d *recordingDaemon) Shutdown(ctx context.Context) error {
	if d.shutdownErr != nil {
		return d.shutdownErr
	}
	_, err := d.Transition(daemon.Completed)
	return err
}

func TestExecutionScope_BeginEndOrder(t *testing.T) {
	s := New()

	mk := func(name string) *recordingDaemon {
		d := newRecordingDaemon()
		s.Register(name, d)
		return d
	}

	a, b, c := mk("a"), mk("b"), mk("c")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.NoError(t, s.Begin(ctx))
	require.Equal(t, daemon.Running, a.Status())
	require.Equal(t, daemon.Running, b.Status())
	require.Equal(t, daemon.Running, c.Status())

	require.NoError(t, s.End(ctx))
	require.Equal(t, daemon.Completed, a.Status())
	require.Equal(t, daemon.Completed, b.Status())
	require.Equal(t, daemon.Completed, c.Status())
}

func TestExecutionScope_EndAggregatesErrors(t *testing.T) {
	s := New()
	ok := newRecordingDaemon()
	failing := newRecordingDaemon()
	failing.shutdownErr = errors.New("shutdown boom")

	s.Register("ok", ok)
	s.Register("failing", failing)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.NoError(t, s.Begin(ctx))
	err := s.End(ctx)
	require.Error(t, err)
	require.True(t, errors.Is(err, failing.shutdownErr))
	require.Equal(t, daemon.Completed, ok.Status())
}

func TestExecutionScope_WaitForRunning(t *testing.T) {
	s := New()
	d := newRecordingDaemon()
	s.Register("d", d)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.NoError(t, s.Begin(ctx))
	require.NoError(t, s.WaitForRunning(ctx, "d"))

	err := s.WaitForRunning(ctx, "missing")
	require.ErrorIs(t, err, ErrUnknownDaemon)
}

func TestExecutionScope_RegisterAfterBeginPanics(t *testing.T) {
	s := New()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Begin(ctx))

	require.Panics(t, func() { s.Register("late", newRecordingDaemon()) })
}

func TestExecutionScope_ContextBinding(t *testing.T) {
	s := New()
	ctx := WithScope(context.Background(), s)
	got, ok := FromContext(ctx)
	require.True(t, ok)
	require.Same(t, s, got)

	_, ok = FromContext(context.Background())
	require.False(t, ok)
}

func TestExecutionScope_Services(t *testing.T) {
	s := New()

	_, ok := s.Service("agent")
	require.False(t, ok)

	s.SetService("agent", "the agent handle")
	got, ok := s.Service("agent")
	require.True(t, ok)
	require.Equal(t, "the agent handle", got)
}
