package processor

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/shadow/pkg/core"
	"github.com/aretw0/shadow/pkg/fieldpath"
)

// memRepo is a concurrency-safe in-memory core.Repository.
type memRepo struct {
	mu      sync.Mutex
	docs    map[string]core.Document
	saves   int
	failGet map[string]bool
	failSet map[string]bool
}

func newMemRepo(docs ...core.Document) *memRepo {
	r := &memRepo{docs: make(map[string]core.Document), failGet: map[string]bool{}, failSet: map[string]bool{}}
	for _, d := range docs {
		r.docs[d.ID] = d
	}
	return r
}

func (r *memRepo) Save(ctx context.Context, doc core.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failSet[doc.ID] {
		return errors.New("disk full")
	}
	r.docs[doc.ID] = doc
	r.saves++
	return nil
}

func (r *memRepo) Get(ctx context.Context, id string) (core.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failGet[id] {
		return core.Document{}, errors.New("corrupted")
	}
	d, ok := r.docs[id]
	if !ok {
		return core.Document{}, core.ErrNotFound
	}
	// Hand out a private copy, like a real store would.
	d.Metadata = core.Metadata(fieldpath.CloneMetadata(d.Metadata))
	return d, nil
}

func (r *memRepo) List(ctx context.Context) ([]core.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []core.Document
	for _, d := range r.docs {
		out = append(out, core.Document{ID: d.ID})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.docs, id)
	return nil
}

func (r *memRepo) Initialize(ctx context.Context) error { return nil }

// txMemRepo stages saves and applies them on commit.
type txMemRepo struct {
	*memRepo
	commits []string
}

type memTx struct {
	mu     sync.Mutex
	repo   *txMemRepo
	staged []core.Document
	closed bool
}

func (r *txMemRepo) Begin(ctx context.Context) (core.Transaction, error) {
	return &memTx{repo: r}, nil
}

func (t *memTx) Save(ctx context.Context, doc core.Document) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.staged = append(t.staged, doc)
	return nil
}

func (t *memTx) Get(ctx context.Context, id string) (core.Document, error) {
	return t.repo.Get(ctx, id)
}

func (t *memTx) Delete(ctx context.Context, id string) error { return nil }

func (t *memTx) Commit(ctx context.Context, reason string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, d := range t.staged {
		if err := t.repo.memRepo.Save(ctx, d); err != nil {
			return err
		}
	}
	t.repo.commits = append(t.repo.commits, reason)
	t.closed = true
	return nil
}

func (t *memTx) Rollback(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.staged = nil
	t.closed = true
	return nil
}

func seedDocs() []core.Document {
	return []core.Document{
		{ID: "users/ann", Metadata: core.Metadata{"name": "Ann", "items": []any{map[string]any{"code": "a1"}}}},
		{ID: "users/bob", Metadata: core.Metadata{"name": "Bob"}},
		{ID: "users/cy", Metadata: core.Metadata{"other": true}},
		{ID: "orders/1", Metadata: core.Metadata{"name": "order"}},
	}
}

func TestRunner_Run(t *testing.T) {
	repo := newMemRepo(seedDocs()...)
	m := newMapping(t, "name", "@hidden.name", "items.*.code", "items.*.@hidden.code")
	m.Match = []string{"users/**"}

	report, err := NewRunner(repo, m, WithConcurrency(2)).Run(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, report.ID)
	assert.Equal(t, 3, report.Documents)
	assert.Equal(t, 2, report.Changed)
	assert.Equal(t, 2, report.Saved)
	assert.Equal(t, 0, report.Failed)

	ann, _ := repo.Get(context.Background(), "users/ann")
	assert.Equal(t, map[string]any{"name": "ANN"}, ann.Metadata["@hidden"])
	assert.Equal(t, "A1", ann.Metadata["items"].([]any)[0].(map[string]any)["@hidden"].(map[string]any)["code"])

	order, _ := repo.Get(context.Background(), "orders/1")
	_, touched := order.Metadata["@hidden"]
	assert.False(t, touched, "documents outside the match globs are left alone")

	// A second run finds nothing to do.
	again, err := NewRunner(repo, m).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, again.Changed)
	assert.Equal(t, 2, repo.saves)
}

func TestRunner_FailuresAreIsolated(t *testing.T) {
	repo := newMemRepo(seedDocs()...)
	repo.failGet["users/ann"] = true
	repo.failSet["users/bob"] = true
	m := newMapping(t, "name", "hidden")

	report, err := NewRunner(repo, m).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, report.Documents)
	assert.Equal(t, 2, report.Failed)
	assert.Equal(t, 1, report.Saved)

	order, _ := repo.Get(context.Background(), "orders/1")
	assert.Equal(t, "ORDER", order.Metadata["hidden"])
}

func TestRunner_DryRun(t *testing.T) {
	repo := newMemRepo(seedDocs()...)
	report, err := NewRunner(repo, newMapping(t, "name", "hidden"), WithDryRun(true)).Run(context.Background())
	require.NoError(t, err)

	assert.True(t, report.DryRun)
	assert.Equal(t, 3, report.Changed)
	assert.Equal(t, 0, report.Saved)
	assert.Equal(t, 0, repo.saves)
}

func TestRunner_Transactional(t *testing.T) {
	repo := &txMemRepo{memRepo: newMemRepo(seedDocs()...)}
	ctx := context.WithValue(context.Background(), core.ChangeReasonKey, "chore: hide names")

	report, err := NewRunner(repo, newMapping(t, "name", "hidden")).Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, 3, report.Saved)
	assert.Equal(t, []string{"chore: hide names"}, repo.commits)

	// Nothing changed: the transaction is rolled back, no empty commit.
	_, err = NewRunner(repo, newMapping(t, "name", "hidden")).Run(ctx)
	require.NoError(t, err)
	assert.Len(t, repo.commits, 1)
}

func TestRunner_Cancelled(t *testing.T) {
	repo := newMemRepo(seedDocs()...)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewRunner(repo, newMapping(t, "name", "hidden"), WithConcurrency(1)).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunner_ProcessOne(t *testing.T) {
	repo := newMemRepo(seedDocs()...)
	r := NewRunner(repo, newMapping(t, "name", "hidden"))

	res := r.ProcessOne(context.Background(), "users/bob")
	require.NoError(t, res.Err)
	assert.True(t, res.Saved)

	res = r.ProcessOne(context.Background(), "missing")
	assert.ErrorIs(t, res.Err, core.ErrNotFound)
}
