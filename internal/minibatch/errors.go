package minibatch

import "github.com/pkg/errors"

// Unpack failures are structural or contract violations; nothing here is
// transient, so no failure is retried or partially recovered.
var (
	// ErrDescriptorMismatch reports a packed value whose rank, sample shape,
	// element type, or sparsity disagrees with its stream descriptor.
	ErrDescriptorMismatch = errors.New("minibatch: packed value does not match stream descriptor")

	// ErrSequenceCountMismatch reports streams that unpacked to different
	// example counts; the streams are out of alignment.
	ErrSequenceCountMismatch = errors.New("minibatch: streams must all have the same number of sequences")

	// ErrShapeViolation reports a stream declared without a sequence axis
	// whose examples carry a trailing axis of size other than 1.
	ErrShapeViolation = errors.New("minibatch: non-sequence stream must have a trailing dimension of 1")

	// ErrUnsupportedDType reports an element type the identity path cannot
	// build a matrix for.
	ErrUnsupportedDType = errors.New("minibatch: unsupported element type for identity matrix")
)
