package domain

import "go.trai.ch/zerr"

var (
	// ErrInvalidLocator is returned when a source locator cannot be parsed.
	ErrInvalidLocator = zerr.New("invalid source locator")

	// ErrCorruptLock is returned when the persisted lock record is malformed.
	ErrCorruptLock = zerr.New("corrupt lock record")

	// ErrUnresolvableInput is returned when an input locator cannot be fetched.
	ErrUnresolvableInput = zerr.New("unresolvable input")

	// ErrAmbiguousRevision is returned when a locator does not deterministically
	// resolve to a single revision and re-pinning is not permitted.
	ErrAmbiguousRevision = zerr.New("ambiguous revision")

	// ErrMissingOutput is returned when a requested output key path does not exist.
	ErrMissingOutput = zerr.New("missing output")

	// ErrEvaluationCycle is returned when forcing an output chases a self-referential chain.
	ErrEvaluationCycle = zerr.New("evaluation cycle detected")

	// ErrUnbuildableReference is returned when a package reference cannot be
	// realized into a concrete build artifact.
	ErrUnbuildableReference = zerr.New("unbuildable package reference")

	// ErrUnknownInput is returned when an output expression names an input
	// that is not declared in the descriptor.
	ErrUnknownInput = zerr.New("unknown input")
)

// WithDetail attaches a key-value pair to a sentinel error while keeping the
// sentinel in the unwrap chain, so errors.Is still classifies the result.
// Calling zerr.With on a sentinel directly would return a detached copy.
func WithDetail(sentinel error, key string, value any) error {
	return zerr.With(zerr.Wrap(sentinel, ""), key, value)
}
