package shadow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aretw0/shadow/internal/platform"
	"github.com/aretw0/shadow/pkg/core"
	"github.com/aretw0/shadow/pkg/mapping"
	"github.com/aretw0/shadow/pkg/processor"
)

// --- Store configuration ---

// Option configures how a store is opened.
type Option = platform.Option

// Adapter names.
const (
	AdapterFS     = platform.AdapterFS
	AdapterSQLite = platform.AdapterSQLite
)

// WithLogger sets the logger of the store adapter.
func WithLogger(logger *slog.Logger) Option { return platform.WithLogger(logger) }

// WithAdapter selects the storage adapter ("fs" or "sqlite").
func WithAdapter(name string) Option { return platform.WithAdapter(name) }

// WithRepository injects a ready repository.
func WithRepository(repo core.Repository) Option { return platform.WithRepository(repo) }

// WithAutoInit creates the store when missing.
func WithAutoInit(auto bool) Option { return platform.WithAutoInit(auto) }

// WithVersioning turns git versioning on or off.
func WithVersioning(enabled bool) Option { return platform.WithVersioning(enabled) }

// WithMustExist fails when the store is missing.
func WithMustExist(must bool) Option { return platform.WithMustExist(must) }

// WithReadOnly rejects writes with core.ErrReadOnly.
func WithReadOnly(enabled bool) Option { return platform.WithReadOnly(enabled) }

// WithStrict keeps numbers as json.Number.
func WithStrict(strict bool) Option { return platform.WithStrict(strict) }

// WithSystemDir names the directory the fs adapter keeps to itself.
func WithSystemDir(name string) Option { return platform.WithSystemDir(name) }

// WithMetadataKey nests metadata under key in JSON and YAML documents.
func WithMetadataKey(key string) Option { return platform.WithMetadataKey(key) }

// WithWatcherErrorHandler receives runtime errors of Watch.
func WithWatcherErrorHandler(fn func(error)) Option { return platform.WithWatcherErrorHandler(fn) }

// WithSerializer registers an fs.Serializer for ext.
func WithSerializer(ext string, s any) Option { return platform.WithSerializer(ext, s) }

// --- Factory ---

// New opens a store and wraps it in a core.Service.
func New(uri string, opts ...Option) (*core.Service, error) {
	return platform.New(uri, opts...)
}

// Init opens and initializes a store.
func Init(uri string, opts ...Option) (core.Repository, error) {
	return platform.Init(uri, opts...)
}

// FindRoot walks up from dir to the nearest store root.
func FindRoot(dir string) (string, error) {
	return platform.FindRoot(dir)
}

// --- Mapping & processing ---

// RunOption configures a Runner.
type RunOption = processor.Option

// WithRunLogger sets the logger of the runner.
func WithRunLogger(logger *slog.Logger) RunOption { return processor.WithLogger(logger) }

// WithConcurrency bounds the number of documents processed at once.
func WithConcurrency(n int) RunOption { return processor.WithConcurrency(n) }

// WithDryRun computes changes without saving them.
func WithDryRun(dry bool) RunOption { return processor.WithDryRun(dry) }

// LoadMapping reads and validates a mapping file.
func LoadMapping(path string) (*mapping.Mapping, error) {
	return mapping.LoadFile(path)
}

// NewRunner creates a runner applying m to every matching document of repo.
func NewRunner(repo core.Repository, m *mapping.Mapping, opts ...RunOption) *processor.Runner {
	return processor.NewRunner(repo, m, opts...)
}

// Populate runs m over repo. Unless the context already carries a change
// reason, transactional stores get a conventional commit message naming the
// mapping entries.
func Populate(ctx context.Context, repo core.Repository, m *mapping.Mapping, opts ...RunOption) (processor.RunReport, error) {
	if val, ok := ctx.Value(core.ChangeReasonKey).(string); !ok || val == "" {
		ctx = context.WithValue(ctx, core.ChangeReasonKey, ChangeReason(m))
	}
	return processor.NewRunner(repo, m, opts...).Run(ctx)
}

// ChangeReason is the commit message Populate uses for m.
func ChangeReason(m *mapping.Mapping) string {
	var body strings.Builder
	fmt.Fprintf(&body, "Transform: %s\n", m.Transform)
	for _, e := range m.Entries {
		body.WriteString("- " + e.String() + "\n")
	}
	return platform.FormatChangeReason(platform.CommitTypeChore, "shadow", "populate hidden fields", body.String())
}

// --- Semantic commits ---

const (
	CommitTypeFeat     = platform.CommitTypeFeat
	CommitTypeFix      = platform.CommitTypeFix
	CommitTypeDocs     = platform.CommitTypeDocs
	CommitTypeStyle    = platform.CommitTypeStyle
	CommitTypeRefactor = platform.CommitTypeRefactor
	CommitTypePerf     = platform.CommitTypePerf
	CommitTypeTest     = platform.CommitTypeTest
	CommitTypeChore    = platform.CommitTypeChore
)

// FormatChangeReason builds a conventional commit message with the footer.
func FormatChangeReason(ctype, scope, subject, body string) string {
	return platform.FormatChangeReason(ctype, scope, subject, body)
}

// AppendFooter appends the footer to an arbitrary message.
func AppendFooter(msg string) string {
	return platform.AppendFooter(msg)
}
