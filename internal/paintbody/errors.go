package paintbody

import "github.com/pkg/errors"

// Error taxonomy. Callers match with errors.Is; shape, projection, strategy
// and scratch failures wrap one of these with the offending sizes or indices.
var (
	// ErrShapeMismatch reports inconsistent view/time/vertex/channel counts.
	ErrShapeMismatch = errors.New("shape mismatch")
	// ErrDegenerateProjection reports a point at or behind a camera plane.
	ErrDegenerateProjection = errors.New("degenerate projection")
	// ErrConfigurationConflict reports a request the selected strategy cannot serve.
	ErrConfigurationConflict = errors.New("configuration conflict")
	// ErrResourceExhaustion reports a chunk that does not fit the scratch budget.
	// Lower chunkSize; it is never retried.
	ErrResourceExhaustion = errors.New("resource exhaustion")
)

func shapeErrorf(format string, args ...interface{}) error {
	return errors.Wrapf(ErrShapeMismatch, format, args...)
}

func conflictErrorf(format string, args ...interface{}) error {
	return errors.Wrapf(ErrConfigurationConflict, format, args...)
}
