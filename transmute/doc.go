// Package transmute defines the shapes a block or window daemon uses to turn
// one value into another: a plain one-shot Transmuter, a BatchTransmuter
// that folds a window's worth of chunks into an output plus an optional
// remainder carried into the next window, and a ShatterPolicy that can split
// a single output back into several journal entries.
package transmute
