package fieldpath

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aretw0/shadow/pkg/core"
)

// Segment is one step of a concrete Path: either an object key or an array index.
type Segment struct {
	Name    string
	Index   int
	IsIndex bool
}

// Key returns an object-key segment.
func Key(name string) Segment { return Segment{Name: name} }

// Index returns an array-index segment.
func Index(i int) Segment { return Segment{Index: i, IsIndex: true} }

func (s Segment) String() string {
	if s.IsIndex {
		return strconv.Itoa(s.Index)
	}
	return s.Name
}

// arrayIndex reports the index this segment addresses inside an array.
// Literal numeric keys address arrays too, so "items.0" works on both shapes.
func (s Segment) arrayIndex() (int, bool) {
	if s.IsIndex {
		return s.Index, true
	}
	i, err := strconv.Atoi(s.Name)
	if err != nil || i < 0 {
		return 0, false
	}
	return i, true
}

// Path is a concrete location in a tree.
type Path []Segment

func (p Path) String() string {
	parts := make([]string, len(p))
	for i, s := range p {
		parts[i] = s.String()
	}
	return strings.Join(parts, ".")
}

// ParsePath parses a concrete dotted path. Numeric segments become indices.
func ParsePath(s string) (Path, error) {
	if s == "" {
		return nil, fmt.Errorf("empty path")
	}
	parts := strings.Split(s, ".")
	p := make(Path, len(parts))
	for i, part := range parts {
		switch {
		case part == "":
			return nil, fmt.Errorf("empty segment in path %q", s)
		case part == Wildcard:
			return nil, fmt.Errorf("wildcard in concrete path %q", s)
		}
		if n, err := strconv.Atoi(part); err == nil && n >= 0 {
			p[i] = Index(n)
			continue
		}
		p[i] = Key(part)
	}
	return p, nil
}

func asObject(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case core.Metadata:
		return m, true
	}
	return nil, false
}

// Get returns the value at p. The boolean is false when any step is missing.
// A present null value is returned as (nil, true).
func Get(tree any, p Path) (any, bool) {
	cur := tree
	for _, seg := range p {
		if obj, ok := asObject(cur); ok {
			v, found := obj[seg.String()]
			if !found {
				return nil, false
			}
			cur = v
			continue
		}
		arr, ok := cur.([]any)
		if !ok {
			return nil, false
		}
		i, ok := seg.arrayIndex()
		if !ok || i >= len(arr) {
			return nil, false
		}
		cur = arr[i]
	}
	return cur, true
}

// Set writes v at p inside tree, creating missing objects and arrays on the way.
// A missing container becomes an array when the next segment is an index and
// an object otherwise. Arrays are padded with nulls to reach an index.
// Writing through a scalar fails with core.ErrPathConflict.
func Set(tree map[string]any, p Path, v any) error {
	if tree == nil {
		return fmt.Errorf("set %s: nil tree", p)
	}
	if len(p) == 0 {
		return fmt.Errorf("set: empty path")
	}
	_, err := set(tree, p, 0, v)
	return err
}

func set(node any, p Path, depth int, v any) (any, error) {
	if depth == len(p) {
		return v, nil
	}
	seg := p[depth]

	if node == nil {
		if seg.IsIndex {
			node = make([]any, 0, seg.Index+1)
		} else {
			node = make(map[string]any)
		}
	}

	if obj, ok := asObject(node); ok {
		child, err := set(obj[seg.String()], p, depth+1, v)
		if err != nil {
			return nil, err
		}
		obj[seg.String()] = child
		return node, nil
	}

	arr, ok := node.([]any)
	if !ok {
		return nil, fmt.Errorf("set %s at %s: %w", p, p[:depth], core.ErrPathConflict)
	}
	i, ok := seg.arrayIndex()
	if !ok {
		return nil, fmt.Errorf("set %s: key %q on array at %s: %w", p, seg.Name, p[:depth], core.ErrPathConflict)
	}
	for len(arr) <= i {
		arr = append(arr, nil)
	}
	child, err := set(arr[i], p, depth+1, v)
	if err != nil {
		return nil, err
	}
	arr[i] = child
	return arr, nil
}
