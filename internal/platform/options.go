package platform

import (
	"log/slog"

	"github.com/aretw0/shadow/pkg/core"
)

// Adapter names accepted by WithAdapter.
const (
	AdapterFS     = "fs"
	AdapterSQLite = "sqlite"
)

// options holds the configuration for opening a document store.
type options struct {
	repository   core.Repository
	logger       *slog.Logger
	adapter      string
	autoInit     bool
	versioning   *bool
	mustExist    bool
	readOnly     bool
	strict       bool
	systemDir    string
	metadataKey  string
	errorHandler func(error)
	serializers  map[string]any
}

// Option configures how a store is opened.
type Option func(*options)

func defaultOptions() *options {
	return &options{
		logger:      slog.New(slog.DiscardHandler),
		adapter:     AdapterFS,
		serializers: make(map[string]any),
	}
}

func buildOptions(opts []Option) *options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithLogger sets the logger handed to the adapter. Nil keeps the silent default.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithAdapter selects the storage adapter by name ("fs" or "sqlite").
func WithAdapter(name string) Option {
	return func(o *options) {
		o.adapter = name
	}
}

// WithRepository injects a ready repository; the adapter options are then ignored.
func WithRepository(repo core.Repository) Option {
	return func(o *options) {
		o.repository = repo
	}
}

// WithAutoInit creates the store directory (and git repository) when missing.
func WithAutoInit(auto bool) Option {
	return func(o *options) {
		o.autoInit = auto
	}
}

// WithVersioning turns git versioning of the fs adapter on or off.
// When never called, versioning is on if the store already is a git repository.
func WithVersioning(enabled bool) Option {
	return func(o *options) {
		o.versioning = &enabled
	}
}

// WithMustExist fails instead of creating a missing store directory.
func WithMustExist(must bool) Option {
	return func(o *options) {
		o.mustExist = must
	}
}

// WithReadOnly rejects every write with core.ErrReadOnly.
func WithReadOnly(enabled bool) Option {
	return func(o *options) {
		o.readOnly = enabled
	}
}

// WithStrict keeps numbers as json.Number so large integers are not rounded.
func WithStrict(strict bool) Option {
	return func(o *options) {
		o.strict = strict
	}
}

// WithSystemDir names the directory the fs adapter keeps to itself.
func WithSystemDir(name string) Option {
	return func(o *options) {
		o.systemDir = name
	}
}

// WithMetadataKey nests metadata under key in JSON and YAML documents.
func WithMetadataKey(key string) Option {
	return func(o *options) {
		o.metadataKey = key
	}
}

// WithWatcherErrorHandler receives runtime errors of Watch.
func WithWatcherErrorHandler(fn func(error)) Option {
	return func(o *options) {
		o.errorHandler = fn
	}
}

// WithSerializer registers a serializer for ext. s must implement fs.Serializer;
// this is checked when the store is opened.
func WithSerializer(ext string, s any) Option {
	return func(o *options) {
		o.serializers[ext] = s
	}
}
