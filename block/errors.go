package block

import "errors"

var (
	// ErrNoActiveScope is returned by AddTag and ActiveTags when called
	// outside an executing block body - the ambient tag-scope binding only
	// exists for the duration of a Router-invoked Do call and its callees.
	ErrNoActiveScope = errors.New("block: no active tag scope")

	// ErrNoRoute is returned by Router.Run when the current value's type has
	// no candidate block and does not match the ritual's declared output
	// type - a dead end in the topology.
	ErrNoRoute = errors.New("block: no block consumes the current value and it is not the declared output")
)
