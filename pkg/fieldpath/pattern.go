package fieldpath

import (
	"fmt"
	"strings"

	"github.com/aretw0/shadow/pkg/core"
)

// Wildcard is the segment that expands to every element of an array.
const Wildcard = "*"

// Pattern is a parsed dotted path that may contain wildcard segments.
type Pattern struct {
	raw       string
	segments  []string
	wildcards []int // positions of Wildcard in segments
}

// ParsePattern parses s. Empty patterns and empty segments are malformed.
func ParsePattern(s string) (Pattern, error) {
	if strings.TrimSpace(s) == "" {
		return Pattern{}, fmt.Errorf("empty pattern: %w", core.ErrMalformedMapping)
	}
	segments := strings.Split(s, ".")
	p := Pattern{raw: s, segments: segments}
	for i, seg := range segments {
		if seg == "" {
			return Pattern{}, fmt.Errorf("pattern %q has an empty segment: %w", s, core.ErrMalformedMapping)
		}
		if seg == Wildcard {
			p.wildcards = append(p.wildcards, i)
		} else if strings.Contains(seg, Wildcard) {
			return Pattern{}, fmt.Errorf("pattern %q: wildcard must be a whole segment: %w", s, core.ErrMalformedMapping)
		}
	}
	return p, nil
}

// MustPattern is like ParsePattern but panics on error.
func MustPattern(s string) Pattern {
	p, err := ParsePattern(s)
	if err != nil {
		panic(err)
	}
	return p
}

func (p Pattern) String() string { return p.raw }

// Wildcards returns the number of wildcard segments.
func (p Pattern) Wildcards() int { return len(p.wildcards) }

// Segments returns a copy of the raw segments.
func (p Pattern) Segments() []string {
	return append([]string(nil), p.segments...)
}

// bind substitutes the first len(indices) wildcards and returns the concrete
// path made of the first n segments. Every wildcard below n must be bound.
func (p Pattern) bind(indices []int, n int) Path {
	path := make(Path, n)
	w := 0
	for i := 0; i < n; i++ {
		if w < len(p.wildcards) && p.wildcards[w] == i {
			path[i] = Index(indices[w])
			w++
			continue
		}
		path[i] = Key(p.segments[i])
	}
	return path
}

// Pair is a validated source/destination pattern couple. The n-th wildcard of
// Source and the n-th wildcard of Destination are bound to the same index.
type Pair struct {
	Source      Pattern
	Destination Pattern
}

// NewPair parses both patterns and checks that their wildcards correspond.
func NewPair(source, destination string) (Pair, error) {
	src, err := ParsePattern(source)
	if err != nil {
		return Pair{}, fmt.Errorf("source: %w", err)
	}
	dst, err := ParsePattern(destination)
	if err != nil {
		return Pair{}, fmt.Errorf("destination: %w", err)
	}
	if src.Wildcards() != dst.Wildcards() {
		return Pair{}, fmt.Errorf("%q has %d wildcards but %q has %d: %w",
			source, src.Wildcards(), destination, dst.Wildcards(), core.ErrMalformedMapping)
	}
	if src.raw == dst.raw {
		return Pair{}, fmt.Errorf("%q maps onto itself: %w", source, core.ErrMalformedMapping)
	}
	return Pair{Source: src, Destination: dst}, nil
}

func (p Pair) String() string {
	return p.Source.raw + " -> " + p.Destination.raw
}
