package fs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/aretw0/shadow/pkg/core"
)

// ErrTransactionClosed is returned by operations on a committed or rolled back transaction.
var ErrTransactionClosed = errors.New("transaction closed")

// Transaction stages writes in memory and applies them on Commit.
// With git enabled the whole transaction becomes one commit.
type Transaction struct {
	repo    *Repository
	mu      sync.Mutex
	staged  map[string]core.Document
	deleted map[string]bool
	closed  bool
}

// NewTransaction creates a transaction on repo.
func NewTransaction(repo *Repository) *Transaction {
	return &Transaction{
		repo:    repo,
		staged:  make(map[string]core.Document),
		deleted: make(map[string]bool),
	}
}

// Save stages doc.
func (t *Transaction) Save(ctx context.Context, doc core.Document) error {
	if t.repo.config.ReadOnly {
		return fmt.Errorf("save %s: %w", doc.ID, core.ErrReadOnly)
	}
	if _, _, err := t.repo.filename(doc.ID); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return ErrTransactionClosed
	}
	t.staged[doc.ID] = doc
	delete(t.deleted, doc.ID)
	return nil
}

// Get returns the staged version of a document when there is one.
func (t *Transaction) Get(ctx context.Context, id string) (core.Document, error) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return core.Document{}, ErrTransactionClosed
	}
	if t.deleted[id] {
		t.mu.Unlock()
		return core.Document{}, fmt.Errorf("%s: %w", id, core.ErrNotFound)
	}
	doc, ok := t.staged[id]
	t.mu.Unlock()

	if ok {
		return doc, nil
	}
	return t.repo.Get(ctx, id)
}

// Delete stages the removal of id.
func (t *Transaction) Delete(ctx context.Context, id string) error {
	if t.repo.config.ReadOnly {
		return fmt.Errorf("delete %s: %w", id, core.ErrReadOnly)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return ErrTransactionClosed
	}
	t.deleted[id] = true
	delete(t.staged, id)
	return nil
}

// Commit writes every staged document, removes staged deletions and, unless
// the repository is Gitless, records a single commit with reason.
func (t *Transaction) Commit(ctx context.Context, reason string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return ErrTransactionClosed
	}
	t.closed = true

	var added, removed []string
	for _, id := range sortedKeys(t.staged) {
		if err := ctx.Err(); err != nil {
			return err
		}
		filename, err := t.repo.write(t.staged[id])
		if err != nil {
			return err
		}
		added = append(added, filename)
	}
	for _, id := range sortedKeys(t.deleted) {
		filename, _, err := t.repo.filename(id)
		if err != nil {
			return err
		}
		if err := os.Remove(filepath.Join(t.repo.Path, filename)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove %s: %w", id, err)
		}
		removed = append(removed, filename)
	}

	t.repo.logger.Debug("transaction applied", "saved", len(added), "deleted", len(removed))

	if t.repo.config.Gitless || len(added)+len(removed) == 0 {
		return nil
	}
	if reason == "" {
		reason = "batch transaction update"
	}
	return t.repo.commit(reason, added, removed)
}

// Rollback discards staged changes. It is a no-op on a closed transaction.
func (t *Transaction) Rollback(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.staged = nil
	t.deleted = nil
	t.closed = true
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
