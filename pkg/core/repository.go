package core

import "context"

// Repository defines the contract for storing and retrieving documents.
// Adhering to this interface keeps the processor independent of the
// underlying storage mechanism (Filesystem, SQLite, ...).
type Repository interface {
	// Save persists a document. It creates if not exists, or updates if it does.
	Save(ctx context.Context, doc Document) error

	// Get retrieves a document by its ID.
	Get(ctx context.Context, id string) (Document, error)

	// List returns all available documents.
	List(ctx context.Context) ([]Document, error)

	// Delete removes a document by its ID.
	Delete(ctx context.Context, id string) error

	// Initialize ensures the underlying storage is ready (directories, git init, schema).
	Initialize(ctx context.Context) error
}

// Transaction defines the contract for a unit of work.
type Transaction interface {
	// Save stages a document for persistence.
	Save(ctx context.Context, doc Document) error

	// Get retrieves a document, preferring the staged version if it exists in the transaction.
	Get(ctx context.Context, id string) (Document, error)

	// Delete stages a document for removal.
	Delete(ctx context.Context, id string) error

	// Commit applies all staged changes.
	Commit(ctx context.Context, changeReason string) error

	// Rollback discards all staged changes.
	Rollback(ctx context.Context) error
}

// Transactional is implemented by repositories that support transactions.
type Transactional interface {
	Begin(ctx context.Context) (Transaction, error)
}

// Watchable is implemented by repositories that can report changes.
// The pattern is a doublestar glob matched against document IDs.
type Watchable interface {
	Watch(ctx context.Context, pattern string) (<-chan Event, error)
}
