package core

import "errors"

// Common errors.
var (
	ErrNotFound         = errors.New("document not found")
	ErrReadOnly         = errors.New("repository is in read-only mode")
	ErrMalformedMapping = errors.New("malformed field mapping")
	ErrNonTransformable = errors.New("value cannot be transformed")
	ErrPathConflict     = errors.New("path traverses a scalar value")
)
