// Package processor populates hidden fields in documents.
//
// A FieldTransformer copies one concrete leaf, a Processor applies a whole
// mapping to one document, and a Runner drives a Processor over every
// document of a repository.
package processor
