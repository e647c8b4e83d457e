// Package mapping loads and validates the ordered source -> hidden field mapping.
package mapping

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/shadow/pkg/core"
	"github.com/aretw0/shadow/pkg/fieldpath"
	"github.com/aretw0/shadow/pkg/transform"
)

// Field is one configured source -> destination couple.
type Field struct {
	Source      string `yaml:"source"`
	Destination string `yaml:"destination"`
}

// Fields keeps the configured order. In YAML it is either a mapping
// (source: destination) or a sequence of {source, destination} objects.
type Fields []Field

// UnmarshalYAML implements yaml.Unmarshaler, preserving mapping key order.
func (f *Fields) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.MappingNode:
		out := make(Fields, 0, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			k, v := node.Content[i], node.Content[i+1]
			if k.Kind != yaml.ScalarNode || v.Kind != yaml.ScalarNode {
				return fmt.Errorf("line %d: field mapping entries must be scalars", k.Line)
			}
			out = append(out, Field{Source: k.Value, Destination: v.Value})
		}
		*f = out
		return nil
	case yaml.SequenceNode:
		var list []Field
		if err := node.Decode(&list); err != nil {
			return err
		}
		*f = list
		return nil
	}
	return fmt.Errorf("line %d: fields must be a mapping or a list", node.Line)
}

// Config is the on-disk shape of a mapping file.
type Config struct {
	Transform string   `yaml:"transform"`
	HiddenKey string   `yaml:"hidden_key"`
	Match     []string `yaml:"match"`
	Fields    Fields   `yaml:"fields"`
	Indexes   []string `yaml:"indexes"`
}

// Entry is a validated mapping entry.
type Entry struct {
	Source      string
	Destination string
	Pair        fieldpath.Pair
}

func (e Entry) String() string { return e.Source + " -> " + e.Destination }

// Mapping is the validated, ordered field mapping of a run.
type Mapping struct {
	Transform string
	HiddenKey string
	Match     []string
	Entries   []Entry

	fn transform.Func
}

// Build validates cfg. Field entries come first in their configured order,
// followed by the entries derived from Indexes.
func Build(cfg Config) (*Mapping, error) {
	m := &Mapping{
		Transform: cfg.Transform,
		HiddenKey: cfg.HiddenKey,
		Match:     cfg.Match,
	}
	if m.Transform == "" {
		m.Transform = transform.NameUpper
	}
	if m.HiddenKey == "" {
		m.HiddenKey = fieldpath.DefaultHiddenKey
	}

	fn, err := transform.Lookup(m.Transform)
	if err != nil {
		return nil, err
	}
	m.fn = fn

	for _, pattern := range m.Match {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid match pattern %q", pattern)
		}
	}

	fields := append(Fields(nil), cfg.Fields...)
	for _, idx := range cfg.Indexes {
		hidden, err := fieldpath.HiddenFor(idx, m.HiddenKey)
		if err != nil {
			return nil, fmt.Errorf("index %q: %w", idx, err)
		}
		fields = append(fields, Field{Source: idx, Destination: hidden})
	}

	if len(fields) == 0 {
		return nil, fmt.Errorf("mapping has no fields: %w", core.ErrMalformedMapping)
	}

	sources := make(map[string]bool, len(fields))
	destinations := make(map[string]bool, len(fields))
	for _, f := range fields {
		pair, err := fieldpath.NewPair(f.Source, f.Destination)
		if err != nil {
			return nil, fmt.Errorf("entry %q: %w", f.Source, err)
		}
		if sources[f.Source] {
			return nil, fmt.Errorf("duplicate source %q: %w", f.Source, core.ErrMalformedMapping)
		}
		if destinations[f.Destination] {
			return nil, fmt.Errorf("duplicate destination %q: %w", f.Destination, core.ErrMalformedMapping)
		}
		sources[f.Source] = true
		destinations[f.Destination] = true
		m.Entries = append(m.Entries, Entry{Source: f.Source, Destination: f.Destination, Pair: pair})
	}

	return m, nil
}

// New builds a mapping from source/destination couples using the named transform.
func New(transformName string, fields ...Field) (*Mapping, error) {
	return Build(Config{Transform: transformName, Fields: fields})
}

// Load reads a YAML mapping file from r.
func Load(r io.Reader) (*Mapping, error) {
	var cfg Config
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty mapping file: %w", core.ErrMalformedMapping)
		}
		return nil, fmt.Errorf("invalid mapping file: %w", err)
	}
	return Build(cfg)
}

// LoadFile reads a YAML mapping file from disk.
func LoadFile(path string) (*Mapping, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Func returns the resolved transform.
func (m *Mapping) Func() transform.Func {
	return m.fn
}

// Matches reports whether the document id is selected by the Match globs.
// An empty Match selects every document.
func (m *Mapping) Matches(id string) bool {
	if len(m.Match) == 0 {
		return true
	}
	for _, pattern := range m.Match {
		if ok, _ := doublestar.Match(pattern, id); ok {
			return true
		}
	}
	return false
}
