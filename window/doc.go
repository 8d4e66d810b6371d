// Package window implements the streaming windowing engine: a daemon that
// tails an entry journal, accumulates draft chunks through a caller-supplied
// window policy, invokes a batch transmuter when the policy fires, optionally
// shatters the result, and appends fixed entries back onto an output journal
// while carrying any unconsumed remainder into the next window.
//
// The engine is itself a daemon.Daemon - its lifecycle (Stopped/Running/
// Completed) and its events journal are exactly the ones described in the
// daemon package; this package only adds the tail/accumulate/emit loop that
// runs while Running.
package window
