package fs_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/shadow/pkg/adapters/fs"
	"github.com/aretw0/shadow/pkg/core"
)

func nextEvent(t *testing.T, events <-chan core.Event) core.Event {
	t.Helper()
	select {
	case e, ok := <-events:
		require.True(t, ok, "events channel closed")
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return core.Event{}
	}
}

func TestWatch(t *testing.T) {
	repo, path := setupRepo(t)
	require.NoError(t, os.MkdirAll(filepath.Join(path, "people"), 0755))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := repo.Watch(ctx, "people/**")
	require.NoError(t, err)

	state := repo.State().(fs.RepositoryState)
	assert.True(t, state.WatcherActive)

	// Outside the pattern: ignored.
	writeFile(t, path, "other.json", `{"a": 1}`)
	writeFile(t, path, "people/ada.json", `{"name": "Ada"}`)

	e := nextEvent(t, events)
	assert.Equal(t, "people/ada.json", e.ID)
	assert.Equal(t, core.EventCreate, e.Type)

	// Bursts of writes collapse into one event.
	for i := 0; i < 5; i++ {
		writeFile(t, path, "people/ada.json", `{"name": "Ada Lovelace"}`)
	}
	e = nextEvent(t, events)
	assert.Equal(t, "people/ada.json", e.ID)
	assert.Equal(t, core.EventModify, e.Type)

	select {
	case extra := <-events:
		t.Fatalf("unexpected extra event %s", extra)
	case <-time.After(4 * fs.DebounceInterval):
	}

	cancel()
	require.Eventually(t, func() bool {
		select {
		case _, ok := <-events:
			return !ok
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)
	assert.False(t, repo.State().(fs.RepositoryState).WatcherActive)
}

func TestWatch_InvalidPattern(t *testing.T) {
	repo, _ := setupRepo(t)
	_, err := repo.Watch(context.Background(), "people/[")
	assert.Error(t, err)
}
