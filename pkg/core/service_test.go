package core_test

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/shadow/pkg/core"
)

// MockRepository implements core.Repository in memory.
// It deliberately does NOT implement core.Transactional to test fallback/errors.
type MockRepository struct {
	docs map[string]core.Document
}

func NewMockRepository() *MockRepository {
	return &MockRepository{
		docs: make(map[string]core.Document),
	}
}

func (m *MockRepository) Save(ctx context.Context, doc core.Document) error {
	m.docs[doc.ID] = doc
	return nil
}

func (m *MockRepository) Get(ctx context.Context, id string) (core.Document, error) {
	doc, ok := m.docs[id]
	if !ok {
		return core.Document{}, core.ErrNotFound
	}
	return doc, nil
}

func (m *MockRepository) List(ctx context.Context) ([]core.Document, error) {
	var docs []core.Document
	for _, doc := range m.docs {
		docs = append(docs, doc)
	}
	// Sort for deterministic tests
	sort.Slice(docs, func(i, j int) bool {
		return docs[i].ID < docs[j].ID
	})
	return docs, nil
}

func (m *MockRepository) Delete(ctx context.Context, id string) error {
	if _, ok := m.docs[id]; !ok {
		return core.ErrNotFound
	}
	delete(m.docs, id)
	return nil
}

func (m *MockRepository) Initialize(ctx context.Context) error { return nil }

// txRepository adds a trivial transaction on top of MockRepository.
type txRepository struct {
	*MockRepository
	commits []string
}

type mockTx struct {
	repo   *txRepository
	staged []core.Document
}

func (r *txRepository) Begin(ctx context.Context) (core.Transaction, error) {
	return &mockTx{repo: r}, nil
}

func (t *mockTx) Save(ctx context.Context, doc core.Document) error {
	t.staged = append(t.staged, doc)
	return nil
}

func (t *mockTx) Get(ctx context.Context, id string) (core.Document, error) {
	return t.repo.Get(ctx, id)
}

func (t *mockTx) Delete(ctx context.Context, id string) error { return nil }

func (t *mockTx) Commit(ctx context.Context, reason string) error {
	for _, d := range t.staged {
		_ = t.repo.MockRepository.Save(ctx, d)
	}
	t.repo.commits = append(t.repo.commits, reason)
	return nil
}

func (t *mockTx) Rollback(ctx context.Context) error {
	t.staged = nil
	return nil
}

func TestService_CRUD(t *testing.T) {
	repo := NewMockRepository()
	service := core.NewService(repo)
	ctx := context.TODO()

	// 1. Save
	err := service.SaveDocument(ctx, "doc1", "content1", core.Metadata{"author": "me"})
	require.NoError(t, err)

	// 2. Get
	doc, err := service.GetDocument(ctx, "doc1")
	require.NoError(t, err)
	assert.Equal(t, "content1", doc.Content)

	// 3. List
	_ = service.SaveDocument(ctx, "doc2", "content2", nil)
	docs, err := service.ListDocuments(ctx)
	require.NoError(t, err)
	assert.Len(t, docs, 2)

	// 4. Delete
	require.NoError(t, service.DeleteDocument(ctx, "doc1"))
	_, err = service.GetDocument(ctx, "doc1")
	assert.True(t, errors.Is(err, core.ErrNotFound))
}

func TestService_EmptyID(t *testing.T) {
	service := core.NewService(NewMockRepository())
	ctx := context.TODO()

	assert.Error(t, service.SaveDocument(ctx, "", "x", nil))
	_, err := service.GetDocument(ctx, "")
	assert.Error(t, err)
	assert.Error(t, service.DeleteDocument(ctx, ""))
}

func TestService_Begin_Unsupported(t *testing.T) {
	service := core.NewService(NewMockRepository())

	err := service.WithTransaction(context.TODO(), func(tx core.Transaction) error {
		return nil
	})
	require.Error(t, err)
	assert.Equal(t, "repository does not support transactions", err.Error())

	_, err = service.Watch(context.TODO(), "**")
	assert.Error(t, err)
}

func TestService_WithTransaction(t *testing.T) {
	repo := &txRepository{MockRepository: NewMockRepository()}
	service := core.NewService(repo)

	ctx := context.WithValue(context.Background(), core.ChangeReasonKey, "chore: batch")
	err := service.WithTransaction(ctx, func(tx core.Transaction) error {
		return tx.Save(ctx, core.Document{ID: "a", Content: "A"})
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"chore: batch"}, repo.commits)

	doc, err := service.GetDocument(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "A", doc.Content)

	boom := errors.New("boom")
	err = service.WithTransaction(ctx, func(tx core.Transaction) error {
		_ = tx.Save(ctx, core.Document{ID: "b"})
		return boom
	})
	assert.ErrorIs(t, err, boom)
	_, err = service.GetDocument(ctx, "b")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestService_State(t *testing.T) {
	service := core.NewService(&txRepository{MockRepository: NewMockRepository()})
	state, ok := service.State().(core.ServiceState)
	require.True(t, ok)
	assert.Equal(t, "repository", state.RepositoryType)
	assert.True(t, state.Transactional)
	assert.False(t, state.Watchable)
	assert.Equal(t, "service", service.ComponentType())
}
