package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/aretw0/shadow/pkg/core"
)

// ErrTransactionClosed is returned by operations on a finished transaction.
var ErrTransactionClosed = errors.New("transaction closed")

// Transaction wraps a sql.Tx. A sql.Tx is not safe for concurrent use, so
// every statement runs under mu.
type Transaction struct {
	repo   *Repository
	mu     sync.Mutex
	tx     *sql.Tx
	closed bool
}

// Begin starts a database transaction.
func (r *Repository) Begin(ctx context.Context) (core.Transaction, error) {
	if r.config.ReadOnly {
		return &Transaction{repo: r}, nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &Transaction{repo: r, tx: tx}, nil
}

func (t *Transaction) Save(ctx context.Context, doc core.Document) error {
	if t.repo.config.ReadOnly {
		return fmt.Errorf("save %s: %w", doc.ID, core.ErrReadOnly)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return ErrTransactionClosed
	}
	return save(ctx, t.tx, doc)
}

func (t *Transaction) Get(ctx context.Context, id string) (core.Document, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return core.Document{}, ErrTransactionClosed
	}
	if t.tx == nil {
		return t.repo.Get(ctx, id)
	}
	return t.repo.get(ctx, t.tx, id)
}

func (t *Transaction) Delete(ctx context.Context, id string) error {
	if t.repo.config.ReadOnly {
		return fmt.Errorf("delete %s: %w", id, core.ErrReadOnly)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return ErrTransactionClosed
	}
	return remove(ctx, t.tx, id)
}

// Commit commits the database transaction. SQLite has no place for the
// reason, so it is only logged.
func (t *Transaction) Commit(ctx context.Context, reason string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return ErrTransactionClosed
	}
	t.closed = true
	if t.tx == nil {
		return nil
	}
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	t.repo.logger.Debug("transaction committed", "reason", reason)
	return nil
}

func (t *Transaction) Rollback(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	if t.tx == nil {
		return nil
	}
	return t.tx.Rollback()
}
