// Package fieldpath addresses fields inside semi-structured document trees.
//
// A tree is made of map[string]any objects, []any arrays and scalars, the
// shape produced by decoding JSON or YAML. Concrete locations are Paths.
// Patterns are dot-separated paths where a "*" segment stands for every
// element of the array found at that position; Expand turns a validated
// Pair of patterns into the concrete Leaf pairs present in a given tree.
package fieldpath
