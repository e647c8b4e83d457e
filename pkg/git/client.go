// Package git is a thin wrapper around the git CLI used to version document stores.
package git

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// ErrLockTimeout is returned when the store lock cannot be acquired in time.
var ErrLockTimeout = errors.New("timed out waiting for lock")

// DefaultLockTimeout bounds how long Lock waits for another process.
const DefaultLockTimeout = 30 * time.Second

// Client wraps git command execution with a file-based lock for process safety.
type Client struct {
	WorkDir     string
	Logger      *slog.Logger
	LockTimeout time.Duration
	lockName    string
}

// NewClient creates a git client for workDir. lockName is the lock file
// created inside workDir while a write is in progress.
func NewClient(workDir, lockName string, logger *slog.Logger) *Client {
	if lockName == "" {
		lockName = ".shadow.lock"
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{
		WorkDir:     workDir,
		Logger:      logger,
		LockTimeout: DefaultLockTimeout,
		lockName:    lockName,
	}
}

// IsInstalled reports whether git is on PATH.
func IsInstalled() bool {
	_, err := exec.LookPath("git")
	return err == nil
}

// LockPath returns the absolute path of the lock file.
func (c *Client) LockPath() string {
	return filepath.Join(c.WorkDir, c.lockName)
}

// Lock acquires the file lock, polling until it is free or LockTimeout elapses.
// The returned func releases it.
func (c *Client) Lock() (func(), error) {
	path := c.LockPath()
	deadline := time.Now().Add(c.LockTimeout)

	for {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL, 0666)
		if err == nil {
			f.Close()
			return func() { _ = os.Remove(path) }, nil
		}
		if !os.IsExist(err) {
			return nil, fmt.Errorf("failed to acquire lock: %w", err)
		}
		if c.LockTimeout > 0 && time.Now().After(deadline) {
			return nil, fmt.Errorf("%s: %w", path, ErrLockTimeout)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// Run executes a raw git command in the working directory.
// It does not take the lock; callers serialize writes with Lock.
func (c *Client) Run(args ...string) (string, error) {
	return c.RunContext(context.Background(), args...)
}

// RunContext is Run bound to ctx.
func (c *Client) RunContext(ctx context.Context, args ...string) (string, error) {
	c.Logger.Debug("executing git", "args", args, "dir", c.WorkDir)

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = c.WorkDir

	out, err := cmd.CombinedOutput()
	output := string(out)
	if err != nil {
		return output, fmt.Errorf("git %s failed: %w\nOutput: %s", args[0], err, output)
	}
	return strings.TrimSpace(output), nil
}

// IsRepo reports whether WorkDir is inside a git work tree.
func (c *Client) IsRepo() bool {
	out, err := c.Run("rev-parse", "--is-inside-work-tree")
	return err == nil && out == "true"
}

// Init runs git init and sets a local identity when none is configured,
// so commits work on fresh machines and in CI.
func (c *Client) Init() error {
	if _, err := c.Run("init"); err != nil {
		return err
	}
	if out, _ := c.Run("config", "user.email"); out == "" {
		if _, err := c.Run("config", "user.email", "shadow@localhost"); err != nil {
			return err
		}
	}
	if out, _ := c.Run("config", "user.name"); out == "" {
		if _, err := c.Run("config", "user.name", "shadow"); err != nil {
			return err
		}
	}
	return nil
}

// Add stages files.
func (c *Client) Add(files ...string) error {
	if len(files) == 0 {
		return nil
	}
	_, err := c.Run(append([]string{"add", "--"}, files...)...)
	return err
}

// Rm removes files from the working tree and from the index.
func (c *Client) Rm(files ...string) error {
	if len(files) == 0 {
		return nil
	}
	_, err := c.Run(append([]string{"rm", "-f", "--ignore-unmatch", "--"}, files...)...)
	return err
}

// Commit records staged changes.
func (c *Client) Commit(msg string) error {
	_, err := c.Run("commit", "-m", msg)
	return err
}

// HasStagedChanges reports whether the index differs from HEAD.
func (c *Client) HasStagedChanges() bool {
	_, err := c.Run("diff", "--cached", "--quiet")
	return err != nil
}

// Status returns the porcelain status of the repo.
func (c *Client) Status() (string, error) {
	return c.Run("status", "--porcelain")
}

// LastCommitMessage returns the full message of HEAD.
func (c *Client) LastCommitMessage() (string, error) {
	return c.Run("log", "-1", "--format=%B")
}
