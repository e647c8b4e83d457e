package fieldpath

import "iter"

// Leaf is a fully concrete source/destination couple.
type Leaf struct {
	Source      Path
	Destination Path
}

func (l Leaf) String() string {
	return l.Source.String() + " -> " + l.Destination.String()
}

// Expand yields the concrete leaves of pair inside tree, depth-first in array order.
//
// Without wildcards the pair is yielded as-is, whether or not the source exists.
// Each wildcard is resolved against the array found at the source prefix; a
// missing, null or non-array prefix yields nothing for that branch. Array
// lengths are read as the sequence advances, so the consumer may write into
// the tree between leaves.
func Expand(tree any, pair Pair) iter.Seq[Leaf] {
	return func(yield func(Leaf) bool) {
		expand(tree, pair, make([]int, 0, pair.Source.Wildcards()), yield)
	}
}

func expand(tree any, pair Pair, bound []int, yield func(Leaf) bool) bool {
	k := len(bound)
	if k == pair.Source.Wildcards() {
		return yield(Leaf{
			Source:      pair.Source.bind(bound, len(pair.Source.segments)),
			Destination: pair.Destination.bind(bound, len(pair.Destination.segments)),
		})
	}

	prefix := pair.Source.bind(bound, pair.Source.wildcards[k])
	v, ok := Get(tree, prefix)
	if !ok {
		return true
	}
	arr, ok := v.([]any)
	if !ok {
		return true
	}
	for i := range len(arr) {
		if !expand(tree, pair, append(bound, i), yield) {
			return false
		}
	}
	return true
}

// Leaves collects Expand into a slice.
func Leaves(tree any, pair Pair) []Leaf {
	var out []Leaf
	for leaf := range Expand(tree, pair) {
		out = append(out, leaf)
	}
	return out
}

// Paths yields the concrete paths a single pattern resolves to in tree.
func Paths(tree any, p Pattern) iter.Seq[Path] {
	return func(yield func(Path) bool) {
		for leaf := range Expand(tree, Pair{Source: p, Destination: p}) {
			if !yield(leaf.Source) {
				return
			}
		}
	}
}
