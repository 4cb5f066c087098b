package graph

import "github.com/google/uuid"

// ID identifies a GraphObject within a run. Canvas-sourced ids are opaque
// strings taken verbatim from the loader; run identifiers are minted with
// NewID. ForEach clone ids are the original id plus a "#<version>" suffix
// (package canvas), not NewID values.
type ID string

// NewID mints a fresh synthetic id, used for run identifiers. Canvas-native
// ids are never generated this way.
func NewID() ID {
	return ID(uuid.NewString())
}
