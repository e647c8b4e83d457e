package processor

import (
	"reflect"

	"github.com/aretw0/shadow/pkg/fieldpath"
	"github.com/aretw0/shadow/pkg/transform"
)

// Outcome is what applying one leaf did to the tree.
type Outcome int

const (
	// OutcomeSkipped means the source was absent or null.
	OutcomeSkipped Outcome = iota
	// OutcomeUnchanged means the destination already held the transformed value.
	OutcomeUnchanged
	// OutcomeWritten means the destination was created or replaced.
	OutcomeWritten
)

// FieldTransformer copies a source leaf into its destination through a transform.
type FieldTransformer struct {
	fn transform.Func
}

// NewFieldTransformer returns a FieldTransformer using fn. A nil fn means upper.
func NewFieldTransformer(fn transform.Func) *FieldTransformer {
	if fn == nil {
		fn = transform.Upper
	}
	return &FieldTransformer{fn: fn}
}

// Apply reads leaf.Source from tree, transforms it and writes it to leaf.Destination.
// An absent or null source is skipped without error.
func (f *FieldTransformer) Apply(tree map[string]any, leaf fieldpath.Leaf) (Outcome, error) {
	v, ok := fieldpath.Get(tree, leaf.Source)
	if !ok || v == nil {
		return OutcomeSkipped, nil
	}

	out, err := f.fn(v)
	if err != nil {
		return OutcomeSkipped, err
	}

	if cur, exists := fieldpath.Get(tree, leaf.Destination); exists && reflect.DeepEqual(cur, out) {
		return OutcomeUnchanged, nil
	}

	if err := fieldpath.Set(tree, leaf.Destination, out); err != nil {
		return OutcomeSkipped, err
	}
	return OutcomeWritten, nil
}
