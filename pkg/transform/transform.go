// Package transform provides the value transforms applied to shadowed fields.
package transform

import (
	"fmt"
	"sort"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/aretw0/shadow/pkg/core"
	"github.com/aretw0/shadow/pkg/fieldpath"
)

// Func derives the hidden value from a source value.
type Func func(v any) (any, error)

// NonTransformableError reports a value whose variant the transform cannot handle.
type NonTransformableError struct {
	Transform string
	Kind      fieldpath.Kind
}

func (e *NonTransformableError) Error() string {
	return fmt.Sprintf("%s: cannot transform %s value", e.Transform, e.Kind)
}

func (e *NonTransformableError) Unwrap() error { return core.ErrNonTransformable }

// Built-in transform names.
const (
	NameUpper    = "upper"
	NameLower    = "lower"
	NameIdentity = "identity"
)

// Upper uppercases string values. Other variants are rejected.
func Upper(v any) (any, error) {
	return mapString(NameUpper, v, cases.Upper(language.Und).String)
}

// Lower lowercases string values. Other variants are rejected.
func Lower(v any) (any, error) {
	return mapString(NameLower, v, cases.Lower(language.Und).String)
}

// Identity copies any value unchanged.
func Identity(v any) (any, error) {
	return fieldpath.Clone(v), nil
}

func mapString(name string, v any, fn func(string) string) (any, error) {
	s, ok := v.(string)
	if !ok {
		return nil, &NonTransformableError{Transform: name, Kind: fieldpath.KindOf(v)}
	}
	return fn(s), nil
}

var registry = map[string]Func{
	NameUpper:    Upper,
	NameLower:    Lower,
	NameIdentity: Identity,
}

// Lookup returns the transform registered under name. An empty name means upper.
func Lookup(name string) (Func, error) {
	if name == "" {
		name = NameUpper
	}
	fn, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown transform %q (known: %v)", name, Names())
	}
	return fn, nil
}

// Names lists the registered transforms.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
