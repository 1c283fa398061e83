package selector

import "github.com/temirov/ingest/internal/types"

// EventKind identifies the payload carried by an Event.
type EventKind string

const (
	// EventKindRecord carries an included file record.
	EventKindRecord EventKind = "record"
	// EventKindSkip carries a skip note for an excluded file.
	EventKindSkip EventKind = "skip"
)

// Event is a single outcome emitted while walking the tree.
type Event struct {
	Kind   EventKind
	Record *types.FileRecord
	Skip   *types.SkipNote
}
