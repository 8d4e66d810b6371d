// Package block implements typed work-unit composition and a tag-scored
// runtime router: blocks are registered
// against a Builder with optional capabilities (static strings scored against
// the ambient active tags; a block declares no static tags of its own at
// registration), the Builder freezes
// into an immutable Topology, and a Router walks a ritual's input to its
// declared output type by repeatedly picking the best-scored block whose
// input type accepts the current value.
package block
