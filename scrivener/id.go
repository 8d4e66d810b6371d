package scrivener

import "github.com/google/uuid"

// ID is an opaque journal identity, stable for the lifetime of one
// Scrivener value. It exists purely for log correlation (e.g. matching a
// windowing daemon's checkpoint keys to the journal they bookmark); no core
// operation branches on it.
type ID struct {
	uuid.UUID
}

// NewID returns a fresh random ID.
func NewID() ID {
	return ID{UUID: uuid.New()}
}
