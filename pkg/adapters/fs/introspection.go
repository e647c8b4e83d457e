package fs

import (
	"sort"

	"github.com/aretw0/introspection"
)

// RepositoryState exposes internal state for observability.
type RepositoryState struct {
	Path          string   `json:"path"`
	SystemDir     string   `json:"system_dir"`
	MetadataKey   string   `json:"metadata_key,omitempty"`
	Gitless       bool     `json:"gitless"`
	ReadOnly      bool     `json:"read_only"`
	Strict        bool     `json:"strict"`
	Serializers   []string `json:"serializers"`
	WatcherActive bool     `json:"watcher_active"`
}

// State implements introspection.Introspectable.
func (r *Repository) State() any {
	r.mu.RLock()
	defer r.mu.RUnlock()

	exts := make([]string, 0, len(r.serializers))
	for ext := range r.serializers {
		exts = append(exts, ext)
	}
	sort.Strings(exts)

	return RepositoryState{
		Path:          r.Path,
		SystemDir:     r.config.SystemDir,
		MetadataKey:   r.config.MetadataKey,
		Gitless:       r.config.Gitless,
		ReadOnly:      r.config.ReadOnly,
		Strict:        r.config.Strict,
		Serializers:   exts,
		WatcherActive: r.watcherActive,
	}
}

// ComponentType implements introspection.Component.
func (r *Repository) ComponentType() string {
	return "repository"
}

var (
	_ introspection.Introspectable = (*Repository)(nil)
	_ introspection.Component      = (*Repository)(nil)
)

func (r *Repository) setWatcherActive(active bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.watcherActive = active
}
