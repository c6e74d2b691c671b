package crontrack

import "github.com/Arch199/crontrack/id"

// ID is the primary identifier type for all crontrack entities.
type ID = id.ID

// Prefix identifies the entity type encoded in a TypeID.
type Prefix = id.Prefix
