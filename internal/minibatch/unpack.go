// Package minibatch converts padded, batched tensor values from the data
// pipeline into per-example, per-stream immutable constants for the
// computation engine.
package minibatch

import (
	"github.com/pkg/errors"

	"github.com/ember-ml/ember/internal/tensor"
)

// StreamDescriptor carries the per-stream metadata the unpacker needs.
type StreamDescriptor struct {
	// SampleShape is the shape of one time step, excluding the reserved
	// trailing sequence and batch axes.
	SampleShape tensor.Shape

	// DType is the stream's element type.
	DType tensor.DataType

	// Sparse marks streams delivered in the compressed sparse encoding.
	Sparse bool

	// HasSequenceAxis declares whether the stream carries a variable-length
	// sequence axis. The data pipeline always emits both trailing axes, even
	// for streams with no sequence structure (those get a sequence axis of
	// fixed length 1), so this cannot be recovered from the data and must be
	// supplied by the caller, in stream order.
	HasSequenceAxis bool
}

// PackedBatch is one stream's padded batch value: a view of shape
// sampleShape ++ [maxSeqLen, numSeq], plus the true per-example sequence
// lengths recorded by the pipeline while padding. Nil lengths mean no
// padding (every example spans the full sequence axis). The batch is owned
// by the pipeline and treated as read-only input.
type PackedBatch struct {
	view       *tensor.View
	seqLengths []int
}

// NewPackedBatch wraps a padded batch view and its per-example lengths.
func NewPackedBatch(view *tensor.View, seqLengths []int) (*PackedBatch, error) {
	if view.Rank() < 2 {
		return nil, errors.Errorf("packed batch requires the two trailing batch axes, got shape %v", view.Shape())
	}
	numSeq := view.Shape()[view.Rank()-1]
	maxLen := view.Shape()[view.Rank()-2]
	if seqLengths != nil {
		if len(seqLengths) != numSeq {
			return nil, errors.Errorf("got %d sequence lengths for %d batch positions", len(seqLengths), numSeq)
		}
		for s, l := range seqLengths {
			if l < 1 || l > maxLen {
				return nil, errors.Errorf("sequence length %d at position %d out of range [1, %d]", l, s, maxLen)
			}
		}
	}
	return &PackedBatch{view: view, seqLengths: seqLengths}, nil
}

// View returns the padded batch view.
func (p *PackedBatch) View() *tensor.View {
	return p.view
}

// NumSequences returns the number of batch positions.
func (p *PackedBatch) NumSequences() int {
	return p.view.Shape()[p.view.Rank()-1]
}

// unpack splits the batch into one view per example, validated against the
// stream descriptor and materialized on device if not already there. Each
// example view has shape sampleShape ++ [seqLen_s]; stripping the padding
// down to the true length is a zero-copy extent change.
func (p *PackedBatch) unpack(desc StreamDescriptor, device tensor.Device) ([]*tensor.View, error) {
	v := p.view
	if v.Rank() != desc.SampleShape.Rank()+2 {
		return nil, errors.Wrapf(ErrDescriptorMismatch, "rank %d does not fit sample shape %v plus two batch axes",
			v.Rank(), desc.SampleShape)
	}
	if !v.Shape()[:v.Rank()-2].Equal(desc.SampleShape) {
		return nil, errors.Wrapf(ErrDescriptorMismatch, "sample shape %v, descriptor declares %v",
			v.Shape()[:v.Rank()-2], desc.SampleShape)
	}
	if v.DType() != desc.DType {
		return nil, errors.Wrapf(ErrDescriptorMismatch, "element type %s, descriptor declares %s", v.DType(), desc.DType)
	}
	if v.IsSparse() != desc.Sparse {
		return nil, errors.Wrapf(ErrDescriptorMismatch, "sparse=%v, descriptor declares sparse=%v", v.IsSparse(), desc.Sparse)
	}

	numSeq := p.NumSequences()
	out := make([]*tensor.View, numSeq)
	for s := 0; s < numSeq; s++ {
		ex := tensor.Slice(v, s)
		if p.seqLengths != nil {
			ex = ex.Narrow(p.seqLengths[s])
		}
		if ex.Device() != device {
			ex = ex.DeepClone(device)
		}
		out[s] = ex
	}
	return out, nil
}

// Constant is an immutable leaf value produced by unpacking. The engine
// downstream must not mutate it; the wrapped view is frozen.
type Constant struct {
	view *tensor.View
}

// NewConstant freezes view and wraps it as a constant.
func NewConstant(view *tensor.View) Constant {
	return Constant{view: view.Freeze()}
}

// View returns the frozen view holding the constant's data.
func (c Constant) View() *tensor.View {
	return c.view
}

// Shape returns the constant's shape.
func (c Constant) Shape() tensor.Shape {
	return c.view.Shape()
}

// DType returns the constant's element type.
func (c Constant) DType() tensor.DataType {
	return c.view.DType()
}

// Device returns where the constant resides.
func (c Constant) Device() tensor.Device {
	return c.view.Device()
}

// IsSparse reports whether the constant kept the compressed encoding.
func (c Constant) IsSparse() bool {
	return c.view.IsSparse()
}

// Unpacker turns packed batch values into per-example constants. The zero
// cost of sharing means one Unpacker (and its identity cache) is meant to be
// reused across calls; each Unpack call itself is synchronous and processes
// streams and examples in positional order.
type Unpacker struct {
	eye *EyeCache

	// KeepSparse leaves sparse examples in their compressed encoding instead
	// of projecting them to dense form. The default densifies, because the
	// engine downstream only accepts dense leaves.
	KeepSparse bool
}

// NewUnpacker creates an Unpacker with its own identity-matrix cache.
func NewUnpacker() *Unpacker {
	return NewUnpackerWithCache(NewEyeCache())
}

// NewUnpackerWithCache creates an Unpacker using a shared identity cache.
func NewUnpackerWithCache(cache *EyeCache) *Unpacker {
	return &Unpacker{eye: cache}
}

// Cache returns the unpacker's identity-matrix cache.
func (u *Unpacker) Cache() *EyeCache {
	return u.eye
}

// Unpack converts one packed batch value per stream into one constant per
// example and stream: res[i][s] is the dense, shape-correct value for
// stream i, example s. Batches and descriptors are positionally paired.
//
// The first stream establishes the authoritative example count; any stream
// unpacking to a different count fails the whole call. Streams declared
// without a sequence axis must deliver examples with a trailing axis of
// size 1, which is sliced away. Sparse examples are projected to dense form
// by left-multiplying with a cached identity matrix sized to the example's
// leading dimension, unless KeepSparse is set.
//
// On failure no partial result is returned.
func (u *Unpacker) Unpack(batches []*PackedBatch, streams []StreamDescriptor, device tensor.Device) ([][]Constant, error) {
	if len(batches) != len(streams) {
		return nil, errors.Wrapf(ErrDescriptorMismatch, "%d packed values but %d stream descriptors",
			len(batches), len(streams))
	}

	res := make([][]Constant, len(batches))
	numSeq := 0
	for i, batch := range batches {
		sequences, err := batch.unpack(streams[i], device)
		if err != nil {
			return nil, errors.Wrapf(err, "stream %d", i)
		}
		if i == 0 {
			numSeq = len(sequences)
		} else if len(sequences) != numSeq {
			return nil, errors.Wrapf(ErrSequenceCountMismatch, "stream %d unpacked %d sequences, want %d",
				i, len(sequences), numSeq)
		}

		arg := make([]Constant, numSeq)
		for s, data := range sequences {
			if !streams[i].HasSequenceAxis {
				if data.Shape()[data.Rank()-1] != 1 {
					return nil, errors.Wrapf(ErrShapeViolation, "stream %d example %d has trailing dimension %d",
						i, s, data.Shape()[data.Rank()-1])
				}
				data = tensor.Slice(data, 0)
			}
			if data.IsSparse() && !u.KeepSparse {
				eye, err := u.eye.Get(data.Shape()[0], data.DType(), data.Device())
				if err != nil {
					return nil, errors.Wrapf(err, "stream %d example %d", i, s)
				}
				data, err = tensor.MatMul(eye, data)
				if err != nil {
					return nil, errors.Wrapf(err, "stream %d: projecting example %d to dense", i, s)
				}
			}
			arg[s] = NewConstant(data)
		}
		res[i] = arg
	}
	return res, nil
}
