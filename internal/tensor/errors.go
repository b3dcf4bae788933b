package tensor

import "errors"

// Contract-violation classes. All of them flag programmer errors: they are
// detected fail-fast and carry no retry semantics. Callers discriminate
// with errors.Is.
var (
	// ErrInvalidArgument flags malformed construction input, such as an
	// empty or negative shape.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrPrecondition flags an operation invoked on a handle in the wrong
	// state, such as a double export or an out-of-range shape index.
	ErrPrecondition = errors.New("precondition failed")

	// ErrTypeMismatch flags a typed view whose element type, or a nonzero
	// byte offset, is incompatible with the stored descriptor.
	ErrTypeMismatch = errors.New("dtype mismatch")
)
