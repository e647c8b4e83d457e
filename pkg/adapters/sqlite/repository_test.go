package sqlite_test

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/shadow/pkg/adapters/sqlite"
	"github.com/aretw0/shadow/pkg/core"
)

func openRepo(t *testing.T, cfg sqlite.Config) *sqlite.Repository {
	t.Helper()
	if cfg.Path == "" {
		cfg.Path = filepath.Join(t.TempDir(), "shadow.db")
	}
	repo, err := sqlite.Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	require.NoError(t, repo.Initialize(context.Background()))
	return repo
}

func TestRepository_CRUD(t *testing.T) {
	repo := openRepo(t, sqlite.Config{})
	ctx := context.Background()

	doc := core.Document{
		ID:      "people/ada",
		Content: "notes",
		Metadata: core.Metadata{
			"name":  "Ada",
			"items": []any{map[string]any{"code": "x"}},
		},
	}
	require.NoError(t, repo.Save(ctx, doc))

	got, err := repo.Get(ctx, "people/ada")
	require.NoError(t, err)
	assert.Equal(t, "notes", got.Content)
	assert.Equal(t, "Ada", got.Metadata["name"])
	assert.Equal(t, []any{map[string]any{"code": "x"}}, got.Metadata["items"])

	// Upsert.
	doc.Metadata["@hidden"] = map[string]any{"name": "ADA"}
	require.NoError(t, repo.Save(ctx, doc))
	got, err = repo.Get(ctx, "people/ada")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"name": "ADA"}, got.Metadata["@hidden"])

	require.NoError(t, repo.Delete(ctx, "people/ada"))
	_, err = repo.Get(ctx, "people/ada")
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, "people/ada"), core.ErrNotFound)
}

func TestRepository_List(t *testing.T) {
	repo := openRepo(t, sqlite.Config{})
	ctx := context.Background()

	for _, id := range []string{"c", "a", "b"} {
		require.NoError(t, repo.Save(ctx, core.Document{ID: id}))
	}

	docs, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, "a", docs[0].ID)
	assert.Equal(t, "c", docs[2].ID)
	assert.NotNil(t, docs[0].Metadata)
}

func TestRepository_Strict(t *testing.T) {
	repo := openRepo(t, sqlite.Config{Strict: true})
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, core.Document{ID: "n", Metadata: core.Metadata{"big": json.Number("9007199254740993")}}))
	got, err := repo.Get(ctx, "n")
	require.NoError(t, err)
	assert.Equal(t, json.Number("9007199254740993"), got.Metadata["big"])
}

func TestTransaction(t *testing.T) {
	repo := openRepo(t, sqlite.Config{})
	ctx := context.Background()

	t.Run("commit", func(t *testing.T) {
		tx, err := repo.Begin(ctx)
		require.NoError(t, err)
		require.NoError(t, tx.Save(ctx, core.Document{ID: "one", Content: "1"}))
		require.NoError(t, tx.Save(ctx, core.Document{ID: "two", Content: "2"}))

		got, err := tx.Get(ctx, "one")
		require.NoError(t, err)
		assert.Equal(t, "1", got.Content)

		require.NoError(t, tx.Commit(ctx, "batch"))
		assert.ErrorIs(t, tx.Save(ctx, core.Document{ID: "three"}), sqlite.ErrTransactionClosed)

		docs, err := repo.List(ctx)
		require.NoError(t, err)
		assert.Len(t, docs, 2)
	})

	t.Run("rollback", func(t *testing.T) {
		tx, err := repo.Begin(ctx)
		require.NoError(t, err)
		require.NoError(t, tx.Save(ctx, core.Document{ID: "ghost"}))
		require.NoError(t, tx.Rollback(ctx))

		_, err = repo.Get(ctx, "ghost")
		assert.ErrorIs(t, err, core.ErrNotFound)
	})
}

func TestRepository_ReadOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ro.db")
	rw := openRepo(t, sqlite.Config{Path: path})
	require.NoError(t, rw.Save(context.Background(), core.Document{ID: "a"}))

	ro := openRepo(t, sqlite.Config{Path: path, ReadOnly: true})
	ctx := context.Background()

	_, err := ro.Get(ctx, "a")
	require.NoError(t, err)
	assert.ErrorIs(t, ro.Save(ctx, core.Document{ID: "b"}), core.ErrReadOnly)
	assert.ErrorIs(t, ro.Delete(ctx, "a"), core.ErrReadOnly)

	state := ro.State().(sqlite.State)
	assert.True(t, state.ReadOnly)
	assert.Equal(t, path, state.Path)
}
