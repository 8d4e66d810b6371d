// Package scrivener implements the typed, append-only journal that every
// other package in this module coordinates through: positions are assigned
// monotonically at append time, readers tail forward from a cursor or scan
// backward from one, and a predicate-anchored wait lets a caller block for
// the first record (after a given position) satisfying an arbitrary match.
//
// A Scrivener makes no assumption about T: it is equally happy journaling
// plain strings (as its tests do) or a closed sum type implementing
// Draftable, which is how the window package tells draft entries from fixed
// ones.
package scrivener
