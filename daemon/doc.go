// Package daemon implements the Stopped -> Running -> Completed lifecycle
// state machine shared by every long-running component in this module
// (windowing engines, composite bridges), journaling its own transitions so
// observers can wait for a status or a failure without callback
// registration, race-free, via Scrivener.WaitFor.
package daemon
