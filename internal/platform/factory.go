package platform

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aretw0/shadow/pkg/adapters/fs"
	"github.com/aretw0/shadow/pkg/adapters/sqlite"
	"github.com/aretw0/shadow/pkg/core"
)

// New opens the store at uri and wraps it in a core.Service.
func New(uri string, opts ...Option) (*core.Service, error) {
	repo, err := Init(uri, opts...)
	if err != nil {
		return nil, err
	}
	return core.NewService(repo), nil
}

// Init opens and initializes the store at uri. The uri is adapter specific:
// a directory for "fs", a database file for "sqlite".
func Init(uri string, opts ...Option) (core.Repository, error) {
	o := buildOptions(opts)
	if o.repository != nil {
		return o.repository, nil
	}

	var (
		repo core.Repository
		err  error
	)
	switch o.adapter {
	case AdapterFS, "":
		repo, err = openFS(uri, o)
	case AdapterSQLite:
		repo, err = openSQLite(uri, o)
	default:
		return nil, fmt.Errorf("unknown adapter: %s", o.adapter)
	}
	if err != nil {
		return nil, err
	}

	if err := repo.Initialize(context.Background()); err != nil {
		return nil, err
	}
	o.logger.Debug("store opened", "adapter", o.adapter, "uri", uri)
	return repo, nil
}

func openFS(path string, o *options) (core.Repository, error) {
	if path == "" {
		path = "."
	}
	systemDir := o.systemDir
	if systemDir == "" {
		systemDir = fs.DefaultSystemDir
	}

	var gitless bool
	if o.versioning != nil {
		gitless = !*o.versioning
	} else {
		gitless = !detectGit(path, systemDir, o.autoInit)
		if gitless {
			o.logger.Debug("auto-detected gitless mode", "path", path)
		}
	}

	repo := fs.NewRepository(fs.Config{
		Path:         path,
		AutoInit:     o.autoInit,
		Gitless:      gitless,
		MustExist:    o.mustExist || !o.autoInit,
		ReadOnly:     o.readOnly,
		Strict:       o.strict,
		MetadataKey:  o.metadataKey,
		SystemDir:    systemDir,
		Logger:       o.logger,
		ErrorHandler: o.errorHandler,
	})

	for ext, s := range o.serializers {
		serializer, ok := s.(fs.Serializer)
		if !ok {
			return nil, fmt.Errorf("serializer for %s must implement fs.Serializer", ext)
		}
		repo.RegisterSerializer(ext, serializer)
	}
	return repo, nil
}

// detectGit decides versioning when it was not configured: an existing .git
// means versioned; a fresh store created with auto-init is versioned unless
// it already carries the system directory of a gitless store.
func detectGit(path, systemDir string, autoInit bool) bool {
	if exists(filepath.Join(path, ".git")) {
		return true
	}
	if !autoInit {
		return false
	}
	return !exists(filepath.Join(path, systemDir)) && fs.IsGitInstalled()
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func openSQLite(path string, o *options) (core.Repository, error) {
	if len(o.serializers) > 0 {
		return nil, fmt.Errorf("custom serializers are not supported by the sqlite adapter")
	}
	if o.mustExist || !o.autoInit {
		if !exists(path) {
			return nil, fmt.Errorf("database does not exist: %s", path)
		}
	}
	return sqlite.Open(sqlite.Config{
		Path:     path,
		ReadOnly: o.readOnly,
		Strict:   o.strict,
		Logger:   o.logger,
	})
}
