// Package watcher observes a vault directory and emits debounced note
// change events.
package watcher

import "time"

// Operation is a file system operation type.
type Operation int

const (
	// OpCreate indicates a new note appeared.
	OpCreate Operation = iota
	// OpModify indicates an existing note changed.
	OpModify
	// OpDelete indicates a note was removed.
	OpDelete
	// OpRename indicates a note moved away from its path.
	OpRename
)

// String returns a human-readable representation of the operation.
func (op Operation) String() string {
	switch op {
	case OpCreate:
		return "CREATE"
	case OpModify:
		return "MODIFY"
	case OpDelete:
		return "DELETE"
	case OpRename:
		return "RENAME"
	default:
		return "UNKNOWN"
	}
}

// FileEvent is one observed note change.
type FileEvent struct {
	// Path is the absolute path of the affected note.
	Path string
	// Operation is the change type.
	Operation Operation
	// Timestamp is when the event was observed.
	Timestamp time.Time
}

// Options configures the watcher.
type Options struct {
	// DebounceWindow is the coalescing window before events are emitted.
	// Default: 500ms.
	DebounceWindow time.Duration
	// EventBufferSize is the output channel buffer. Default: 256.
	EventBufferSize int
}

// WithDefaults returns options with defaults applied for zero values.
func (o Options) WithDefaults() Options {
	if o.DebounceWindow <= 0 {
		o.DebounceWindow = 500 * time.Millisecond
	}
	if o.EventBufferSize <= 0 {
		o.EventBufferSize = 256
	}
	return o
}
