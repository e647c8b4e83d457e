package fieldpath

import (
	"fmt"
	"strings"

	"github.com/aretw0/shadow/pkg/core"
)

// DefaultHiddenKey is the object key under which hidden fields are kept.
const DefaultHiddenKey = "@hidden"

// HiddenFor returns the hidden counterpart of a field pattern: the hidden key
// is inserted before the last segment, or before the last two when the
// pattern ends with a wildcard.
//
//	name          -> @hidden.name
//	user.email    -> user.@hidden.email
//	tags.*        -> @hidden.tags.*
//	items.*.code  -> items.*.@hidden.code
func HiddenFor(pattern, key string) (string, error) {
	if key == "" {
		key = DefaultHiddenKey
	}
	p, err := ParsePattern(pattern)
	if err != nil {
		return "", err
	}
	segs := p.segments
	cut := len(segs) - 1
	if segs[len(segs)-1] == Wildcard {
		cut = len(segs) - 2
	}
	if cut < 0 {
		return "", fmt.Errorf("pattern %q has no field to hide: %w", pattern, core.ErrMalformedMapping)
	}
	out := make([]string, 0, len(segs)+1)
	out = append(out, segs[:cut]...)
	out = append(out, key)
	out = append(out, segs[cut:]...)
	return strings.Join(out, "."), nil
}

// FieldFor inverts HiddenFor by dropping the last hidden key segment.
func FieldFor(hidden, key string) (string, error) {
	if key == "" {
		key = DefaultHiddenKey
	}
	segs := strings.Split(hidden, ".")
	for i := len(segs) - 1; i >= 0; i-- {
		if segs[i] != key {
			continue
		}
		out := append(append([]string(nil), segs[:i]...), segs[i+1:]...)
		if len(out) == 0 {
			break
		}
		return strings.Join(out, "."), nil
	}
	return "", fmt.Errorf("%q is not a hidden path for key %q", hidden, key)
}
