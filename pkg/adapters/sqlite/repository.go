// Package sqlite stores documents as rows of a SQLite database, with the
// metadata tree encoded as JSON.
package sqlite

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/aretw0/introspection"

	"github.com/aretw0/shadow/pkg/core"
)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	id TEXT PRIMARY KEY,
	content TEXT NOT NULL DEFAULT '',
	metadata TEXT NOT NULL DEFAULT '{}',
	updated_at DATETIME
);
`

const upsert = `
INSERT INTO documents (id, content, metadata, updated_at) VALUES (?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET content = excluded.content, metadata = excluded.metadata, updated_at = excluded.updated_at
`

// Config holds the configuration for the SQLite repository.
type Config struct {
	Path     string
	ReadOnly bool
	// Strict decodes numbers as json.Number.
	Strict bool
	Logger *slog.Logger
}

// Repository implements core.Repository and core.Transactional on SQLite.
type Repository struct {
	db     *sql.DB
	config Config
	logger *slog.Logger
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Open opens (or creates) the database at cfg.Path. Call Initialize to
// create the schema.
func Open(cfg Config) (*Repository, error) {
	if cfg.Path == "" {
		return nil, errors.New("sqlite: empty database path")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000", cfg.Path)
	if cfg.ReadOnly {
		dsn += "&mode=ro"
	} else {
		// WAL lets readers run while a run's transaction is open.
		dsn += "&_journal_mode=WAL"
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", cfg.Path, err)
	}
	return &Repository{db: db, config: cfg, logger: logger}, nil
}

// Close releases the database handle.
func (r *Repository) Close() error {
	return r.db.Close()
}

// Initialize creates the documents table when missing.
func (r *Repository) Initialize(ctx context.Context) error {
	if r.config.ReadOnly {
		return r.db.PingContext(ctx)
	}
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Save upserts doc.
func (r *Repository) Save(ctx context.Context, doc core.Document) error {
	if r.config.ReadOnly {
		return fmt.Errorf("save %s: %w", doc.ID, core.ErrReadOnly)
	}
	return save(ctx, r.db, doc)
}

func save(ctx context.Context, q querier, doc core.Document) error {
	if doc.ID == "" {
		return errors.New("document has no ID")
	}
	meta := doc.Metadata
	if meta == nil {
		meta = core.Metadata{}
	}
	data, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("failed to encode metadata of %s: %w", doc.ID, err)
	}
	if _, err := q.ExecContext(ctx, upsert, doc.ID, doc.Content, string(data), time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to save %s: %w", doc.ID, err)
	}
	return nil
}

// Get loads one document. A missing row is core.ErrNotFound.
func (r *Repository) Get(ctx context.Context, id string) (core.Document, error) {
	return r.get(ctx, r.db, id)
}

func (r *Repository) get(ctx context.Context, q querier, id string) (core.Document, error) {
	var content, meta string
	err := q.QueryRowContext(ctx, `SELECT content, metadata FROM documents WHERE id = ?`, id).Scan(&content, &meta)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Document{}, fmt.Errorf("%s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Document{}, fmt.Errorf("failed to read %s: %w", id, err)
	}
	return r.decode(id, content, meta)
}

func (r *Repository) decode(id, content, meta string) (core.Document, error) {
	doc := core.Document{ID: id, Content: content}
	dec := json.NewDecoder(bytes.NewReader([]byte(meta)))
	if r.config.Strict {
		dec.UseNumber()
	}
	if err := dec.Decode(&doc.Metadata); err != nil {
		return core.Document{}, fmt.Errorf("invalid metadata in %s: %w", id, err)
	}
	if doc.Metadata == nil {
		doc.Metadata = core.Metadata{}
	}
	return doc, nil
}

// List returns every document ordered by id. Rows with undecodable metadata
// are logged and skipped.
func (r *Repository) List(ctx context.Context) ([]core.Document, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, content, metadata FROM documents ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var docs []core.Document
	for rows.Next() {
		var id, content, meta string
		if err := rows.Scan(&id, &content, &meta); err != nil {
			return nil, err
		}
		doc, err := r.decode(id, content, meta)
		if err != nil {
			r.logger.Warn("skipping unreadable document", "id", id, "error", err)
			continue
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// Delete removes a document.
func (r *Repository) Delete(ctx context.Context, id string) error {
	if r.config.ReadOnly {
		return fmt.Errorf("delete %s: %w", id, core.ErrReadOnly)
	}
	return remove(ctx, r.db, id)
}

func remove(ctx context.Context, q querier, id string) error {
	res, err := q.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%s: %w", id, core.ErrNotFound)
	}
	return nil
}

// State is the observable state of the repository.
type State struct {
	Path     string `json:"path"`
	ReadOnly bool   `json:"read_only"`
	Strict   bool   `json:"strict"`
	Open     int    `json:"open_connections"`
}

// State implements introspection.Introspectable.
func (r *Repository) State() any {
	return State{
		Path:     r.config.Path,
		ReadOnly: r.config.ReadOnly,
		Strict:   r.config.Strict,
		Open:     r.db.Stats().OpenConnections,
	}
}

// ComponentType implements introspection.Component.
func (r *Repository) ComponentType() string {
	return "repository"
}

var (
	_ core.Repository              = (*Repository)(nil)
	_ core.Transactional           = (*Repository)(nil)
	_ introspection.Introspectable = (*Repository)(nil)
	_ introspection.Component      = (*Repository)(nil)
)
