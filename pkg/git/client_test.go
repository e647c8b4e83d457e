package git

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireGit(t *testing.T) {
	t.Helper()
	if !IsInstalled() {
		t.Skip("git not installed")
	}
}

func TestClient_Lock(t *testing.T) {
	tmpDir := t.TempDir()
	client := NewClient(tmpDir, ".test.lock", nil)

	unlock, err := client.Lock()
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(tmpDir, ".test.lock"))
	assert.NoError(t, err, "lock file should exist while held")

	unlock()

	_, err = os.Stat(filepath.Join(tmpDir, ".test.lock"))
	assert.True(t, os.IsNotExist(err), "lock file should be removed after unlock")
}

func TestClient_LockTimeout(t *testing.T) {
	client := NewClient(t.TempDir(), "", nil)
	client.LockTimeout = 30 * time.Millisecond

	unlock, err := client.Lock()
	require.NoError(t, err)
	defer unlock()

	_, err = client.Lock()
	assert.ErrorIs(t, err, ErrLockTimeout)
}

func TestClient_InitAddCommit(t *testing.T) {
	requireGit(t)
	tmpDir := t.TempDir()
	client := NewClient(tmpDir, "", nil)

	assert.False(t, client.IsRepo())
	require.NoError(t, client.Init())
	assert.True(t, client.IsRepo())

	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "a.json"), []byte(`{"a":1}`), 0644))
	require.NoError(t, client.Add("a.json"))
	assert.True(t, client.HasStagedChanges())
	require.NoError(t, client.Commit("chore: add a"))
	assert.False(t, client.HasStagedChanges())

	msg, err := client.LastCommitMessage()
	require.NoError(t, err)
	assert.Equal(t, "chore: add a", msg)

	status, err := client.Status()
	require.NoError(t, err)
	assert.Empty(t, status)

	require.NoError(t, client.Rm("a.json"))
	require.NoError(t, client.Commit("chore: remove a"))
	_, err = os.Stat(filepath.Join(tmpDir, "a.json"))
	assert.True(t, os.IsNotExist(err))
}
