package processor

import (
	"fmt"
	"log/slog"

	"github.com/aretw0/shadow/pkg/core"
	"github.com/aretw0/shadow/pkg/fieldpath"
	"github.com/aretw0/shadow/pkg/mapping"
)

// LeafError is a per-leaf failure. It never aborts the document.
type LeafError struct {
	Entry string
	Leaf  fieldpath.Leaf
	Err   error
}

func (e LeafError) Error() string {
	return fmt.Sprintf("%s (%s): %v", e.Entry, e.Leaf, e.Err)
}

func (e LeafError) Unwrap() error { return e.Err }

// Report summarizes the processing of one document.
type Report struct {
	Leaves    int
	Written   int
	Unchanged int
	Skipped   int
	Errors    []LeafError
}

// Changed reports whether any destination was written. Leaves whose
// destination already held the transformed value count as Unchanged, so a
// document is changed exactly when its tree differs from the input.
func (r Report) Changed() bool { return r.Written > 0 }

// Processor applies a mapping to documents. It is safe for concurrent use:
// every call works on its own copy of the document tree.
type Processor struct {
	mapping *mapping.Mapping
	field   *FieldTransformer
	logger  *slog.Logger
}

// New creates a Processor for m.
func New(m *mapping.Mapping, opts ...Option) *Processor {
	o := buildOptions(opts)
	return &Processor{
		mapping: m,
		field:   NewFieldTransformer(m.Func()),
		logger:  o.logger,
	}
}

// Mapping returns the mapping the processor applies.
func (p *Processor) Mapping() *mapping.Mapping { return p.mapping }

// Process returns doc with its hidden fields populated. The input document is
// not modified; when nothing changes it is returned as-is.
func (p *Processor) Process(doc core.Document) (core.Document, Report) {
	tree := fieldpath.CloneMetadata(doc.Metadata)
	report := p.ProcessTree(doc.ID, tree)
	if !report.Changed() {
		return doc, report
	}
	doc.Metadata = core.Metadata(tree)
	return doc, report
}

// ProcessTree applies every mapping entry, in order, to tree in place.
// The id is only used for logging.
func (p *Processor) ProcessTree(id string, tree map[string]any) Report {
	var report Report
	for _, entry := range p.mapping.Entries {
		for leaf := range fieldpath.Expand(tree, entry.Pair) {
			report.Leaves++
			outcome, err := p.field.Apply(tree, leaf)
			if err != nil {
				p.logger.Warn("skipping field", "id", id, "entry", entry.String(), "leaf", leaf.String(), "error", err)
				report.Errors = append(report.Errors, LeafError{Entry: entry.String(), Leaf: leaf, Err: err})
				continue
			}
			switch outcome {
			case OutcomeWritten:
				report.Written++
			case OutcomeUnchanged:
				report.Unchanged++
			default:
				report.Skipped++
			}
		}
	}
	p.logger.Debug("document processed", "id", id,
		"leaves", report.Leaves, "written", report.Written, "errors", len(report.Errors))
	return report
}
