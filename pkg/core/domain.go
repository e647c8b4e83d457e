// Package core holds the domain types shared by the processor and the storage adapters.
package core

// Metadata is the semi-structured field tree of a document.
type Metadata map[string]any

// Document is the central entity of the domain.
// Its Metadata is the tree whose fields get shadowed.
type Document struct {
	ID       string
	Content  string
	Metadata Metadata
}

// EventType represents the type of change in the store.
type EventType string

const (
	EventCreate EventType = "CREATE"
	EventModify EventType = "MODIFY"
	EventDelete EventType = "DELETE"
)

// Event represents a change in the store.
type Event struct {
	Type      EventType
	ID        string
	Timestamp int64 // Unix timestamp
}

func (e Event) String() string {
	return string(e.Type) + " " + e.ID
}

type contextKey string

// ChangeReasonKey is the context key for passing the commit message/change reason.
const ChangeReasonKey contextKey = "change_reason"
