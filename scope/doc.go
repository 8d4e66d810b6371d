// Package scope implements ExecutionScope, the ordered container of daemons
// that composite (and cmd/covenctl) rely on to start daemons in registration
// order and tear them down in the reverse order. A scope is bound to a
// context.Context so code executing inside a block body can reach the
// ambient scope without threading it through every call explicitly.
package scope
