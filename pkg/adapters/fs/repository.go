// Package fs stores documents as files: JSON, YAML or Markdown with YAML
// frontmatter. Writes are atomic and can optionally be versioned with git.
package fs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/aretw0/shadow/pkg/core"
	"github.com/aretw0/shadow/pkg/git"
)

// DefaultSystemDir holds tool state inside the store and is never listed.
const DefaultSystemDir = ".shadow"

// Config holds the configuration for the filesystem repository.
type Config struct {
	Path      string
	AutoInit  bool
	Gitless   bool
	MustExist bool
	ReadOnly  bool
	// Strict keeps numbers as json.Number so large integers survive a round trip.
	Strict bool
	// MetadataKey nests the metadata under this key in JSON/YAML files
	// (e.g. "meta"). Content then lives next to it under "content".
	MetadataKey  string
	SystemDir    string
	Logger       *slog.Logger
	ErrorHandler func(error)
}

// Repository implements core.Repository on top of a directory.
type Repository struct {
	Path   string
	git    *git.Client
	config Config
	logger *slog.Logger

	mu            sync.RWMutex
	serializers   map[string]Serializer
	watcherActive bool
}

// NewRepository creates a filesystem-backed repository. Call Initialize
// before use.
func NewRepository(config Config) *Repository {
	if config.SystemDir == "" {
		config.SystemDir = DefaultSystemDir
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Repository{
		Path:        config.Path,
		git:         git.NewClient(config.Path, config.SystemDir+".lock", logger),
		config:      config,
		logger:      logger,
		serializers: DefaultSerializers(config.Strict),
	}
}

// RegisterSerializer adds or replaces the serializer for ext (".toml", ...).
func (r *Repository) RegisterSerializer(ext string, s Serializer) {
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.serializers[ext] = s
}

func (r *Repository) serializer(ext string) (Serializer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.serializers[ext]
	return s, ok
}

// Begin starts a new transaction.
func (r *Repository) Begin(ctx context.Context) (core.Transaction, error) {
	return NewTransaction(r), nil
}

// Initialize prepares the directory and, unless Gitless, the git repository.
func (r *Repository) Initialize(ctx context.Context) error {
	if r.config.MustExist || r.config.ReadOnly {
		info, err := os.Stat(r.Path)
		if os.IsNotExist(err) {
			return fmt.Errorf("store path does not exist: %s", r.Path)
		}
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return fmt.Errorf("store path is not a directory: %s", r.Path)
		}
	} else if err := os.MkdirAll(r.Path, 0755); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}

	if r.config.Gitless || r.config.ReadOnly {
		return nil
	}

	if !git.IsInstalled() {
		return fmt.Errorf("git is not installed")
	}

	fresh := false
	if !r.git.IsRepo() {
		if !r.config.AutoInit {
			return fmt.Errorf("path is not a git repository: %s", r.Path)
		}
		if err := r.git.Init(); err != nil {
			return fmt.Errorf("failed to git init: %w", err)
		}
		fresh = true
	}

	modified, err := r.ensureIgnore()
	if err != nil {
		return fmt.Errorf("failed to ensure .gitignore: %w", err)
	}
	if modified && fresh {
		if err := r.git.Add(".gitignore"); err != nil {
			return fmt.Errorf("failed to add .gitignore: %w", err)
		}
		if err := r.git.Commit(fmt.Sprintf("chore: ignore %s", r.config.SystemDir)); err != nil {
			return fmt.Errorf("failed to commit .gitignore: %w", err)
		}
	}
	return nil
}

// ensureIgnore adds the system directory and lock file to .gitignore.
func (r *Repository) ensureIgnore() (bool, error) {
	path := filepath.Join(r.Path, ".gitignore")
	content, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return false, err
	}

	present := make(map[string]bool)
	for _, line := range strings.Split(string(content), "\n") {
		present[strings.TrimSpace(line)] = true
	}

	var missing []string
	for _, entry := range []string{r.config.SystemDir + "/", r.config.SystemDir + ".lock"} {
		if !present[entry] {
			missing = append(missing, entry)
		}
	}
	if len(missing) == 0 {
		return false, nil
	}

	var b strings.Builder
	b.Write(content)
	if len(content) > 0 && !strings.HasSuffix(string(content), "\n") {
		b.WriteString("\n")
	}
	for _, entry := range missing {
		b.WriteString(entry + "\n")
	}
	return true, writeFileAtomic(path, []byte(b.String()), 0644)
}

// filename maps an id to its path relative to the store. Ids without a known
// extension are Markdown files.
func (r *Repository) filename(id string) (string, string, error) {
	if id == "" {
		return "", "", fmt.Errorf("document has no ID")
	}
	name := filepath.FromSlash(id)
	if !filepath.IsLocal(name) {
		return "", "", fmt.Errorf("invalid document id %q: outside the store", id)
	}
	ext := filepath.Ext(name)
	if _, ok := r.serializer(ext); ok {
		return name, ext, nil
	}
	return name + ".md", ".md", nil
}

// resolveID maps an absolute or store-relative file path back to an id.
func (r *Repository) resolveID(path string) (string, error) {
	rel := path
	if filepath.IsAbs(path) {
		var err error
		if rel, err = filepath.Rel(r.Path, path); err != nil {
			return "", err
		}
	}
	if !filepath.IsLocal(rel) {
		return "", fmt.Errorf("%s is outside the store", path)
	}
	rel = filepath.ToSlash(rel)
	if filepath.Ext(rel) == ".md" {
		rel = strings.TrimSuffix(rel, ".md")
	}
	return rel, nil
}

// Save writes doc and, unless Gitless, commits it.
// The commit message comes from core.ChangeReasonKey when set.
func (r *Repository) Save(ctx context.Context, doc core.Document) error {
	if r.config.ReadOnly {
		return fmt.Errorf("save %s: %w", doc.ID, core.ErrReadOnly)
	}
	filename, err := r.write(doc)
	if err != nil {
		return err
	}
	if r.config.Gitless {
		return nil
	}

	msg := "update " + doc.ID
	if val, ok := ctx.Value(core.ChangeReasonKey).(string); ok && val != "" {
		msg = val
	}
	return r.commit(msg, []string{filename}, nil)
}

// write serializes doc to disk and returns its relative filename.
func (r *Repository) write(doc core.Document) (string, error) {
	filename, ext, err := r.filename(doc.ID)
	if err != nil {
		return "", err
	}
	s, _ := r.serializer(ext)

	data, err := s.Serialize(doc, r.config.MetadataKey)
	if err != nil {
		return "", fmt.Errorf("failed to serialize %s: %w", doc.ID, err)
	}

	fullPath := filepath.Join(r.Path, filename)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create directories: %w", err)
	}
	if err := writeFileAtomic(fullPath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", doc.ID, err)
	}
	r.logger.Debug("document written", "id", doc.ID, "file", filename)
	return filename, nil
}

// commit stages the given files under the git lock and records one commit.
// Nothing is committed when the index does not change.
func (r *Repository) commit(msg string, add, rm []string) error {
	unlock, err := r.git.Lock()
	if err != nil {
		return fmt.Errorf("failed to acquire git lock: %w", err)
	}
	defer unlock()

	if err := r.git.Add(add...); err != nil {
		return fmt.Errorf("failed to git add: %w", err)
	}
	if err := r.git.Rm(rm...); err != nil {
		return fmt.Errorf("failed to git rm: %w", err)
	}
	if !r.git.HasStagedChanges() {
		return nil
	}
	if err := r.git.Commit(msg); err != nil {
		return fmt.Errorf("failed to git commit: %w", err)
	}
	return nil
}

// Get reads a document. A missing file is core.ErrNotFound.
func (r *Repository) Get(ctx context.Context, id string) (core.Document, error) {
	filename, ext, err := r.filename(id)
	if err != nil {
		return core.Document{}, err
	}

	f, err := os.Open(filepath.Join(r.Path, filename))
	if err != nil {
		if os.IsNotExist(err) {
			return core.Document{}, fmt.Errorf("%s: %w", id, core.ErrNotFound)
		}
		return core.Document{}, err
	}
	defer f.Close()

	s, _ := r.serializer(ext)
	doc, err := s.Parse(f, r.config.MetadataKey)
	if err != nil {
		return core.Document{}, fmt.Errorf("failed to parse document %s: %w", id, err)
	}
	doc.ID = id
	return *doc, nil
}

// List walks the store and returns every parseable document sorted by id.
// Unparseable files are reported to the logger and skipped.
func (r *Repository) List(ctx context.Context) ([]core.Document, error) {
	var docs []core.Document

	err := filepath.WalkDir(r.Path, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if path != r.Path && r.skipDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !r.supported(d.Name()) {
			return nil
		}

		id, err := r.resolveID(path)
		if err != nil {
			return nil
		}
		doc, err := r.Get(ctx, id)
		if err != nil {
			r.logger.Warn("skipping unreadable document", "id", id, "error", err)
			return nil
		}
		docs = append(docs, doc)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs, nil
}

func (r *Repository) skipDir(name string) bool {
	return name == ".git" || name == r.config.SystemDir
}

func (r *Repository) supported(name string) bool {
	if strings.HasPrefix(name, TempFilePrefix) || name == ".gitignore" {
		return false
	}
	_, ok := r.serializer(filepath.Ext(name))
	return ok
}

// Delete removes a document and, unless Gitless, commits the removal.
func (r *Repository) Delete(ctx context.Context, id string) error {
	if r.config.ReadOnly {
		return fmt.Errorf("delete %s: %w", id, core.ErrReadOnly)
	}
	filename, _, err := r.filename(id)
	if err != nil {
		return err
	}

	if err := os.Remove(filepath.Join(r.Path, filename)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%s: %w", id, core.ErrNotFound)
		}
		return fmt.Errorf("failed to remove file: %w", err)
	}
	if r.config.Gitless {
		return nil
	}

	msg := "delete " + id
	if val, ok := ctx.Value(core.ChangeReasonKey).(string); ok && val != "" {
		msg = val
	}
	return r.commit(msg, nil, []string{filename})
}

// IsGitInstalled reports whether git is available on PATH.
func IsGitInstalled() bool {
	return git.IsInstalled()
}
