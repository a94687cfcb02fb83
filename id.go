package signals

import "github.com/xraph/signals/id"

// ID is the primary identifier type for all signals entities.
type ID = id.ID

// Prefix identifies the entity type encoded in an ID.
type Prefix = id.Prefix
