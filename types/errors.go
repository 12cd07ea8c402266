package types

import "errors"

// Sentinel errors shared by every layer. Callers wrap them with
// fmt.Errorf("...: %w", err) and test with errors.Is.
var (
	ErrInvalidBounds = errors.New("invalid bounds")
	ErrCorruptBlock  = errors.New("corrupt block")
	ErrIO            = errors.New("block i/o error")
	ErrOutOfRange    = errors.New("out of range")
	ErrInvalidSplit  = errors.New("invalid split")
	ErrInvariant     = errors.New("tree invariant violated")
	ErrInvalidConfig = errors.New("invalid config")
	ErrIndexClosed   = errors.New("index file not open")
)
