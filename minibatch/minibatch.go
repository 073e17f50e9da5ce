// Copyright 2025 Ember ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package minibatch provides the public API for unpacking padded, batched
// tensor values into per-example immutable constants.
//
// One packed value per stream goes in, one ordered sequence of constants per
// stream comes out, aligned by example position across streams:
//
//	u := minibatch.NewUnpacker()
//	res, err := u.Unpack(batches, streams, tensor.CPU)
//	// res[i][s] is the value for stream i, example s
package minibatch

import (
	"github.com/ember-ml/ember/internal/minibatch"
	"github.com/ember-ml/ember/internal/tensor"
)

// StreamDescriptor carries the per-stream metadata the unpacker needs,
// including the caller-declared sequence-axis flag that cannot be recovered
// from the data.
type StreamDescriptor = minibatch.StreamDescriptor

// PackedBatch is one stream's padded batch value plus its per-example
// sequence lengths.
type PackedBatch = minibatch.PackedBatch

// Constant is an immutable leaf value produced by unpacking.
type Constant = minibatch.Constant

// EyeCache lazily builds and retains identity matrices per (size, element
// type); safe for concurrent use.
type EyeCache = minibatch.EyeCache

// Unpacker turns packed batch values into per-example constants.
type Unpacker = minibatch.Unpacker

// Sentinel errors reported by Unpack; match with errors.Is.
var (
	ErrDescriptorMismatch    = minibatch.ErrDescriptorMismatch
	ErrSequenceCountMismatch = minibatch.ErrSequenceCountMismatch
	ErrShapeViolation        = minibatch.ErrShapeViolation
	ErrUnsupportedDType      = minibatch.ErrUnsupportedDType
)

// NewPackedBatch wraps a padded batch view (shape sampleShape ++ [maxSeqLen,
// numSeq]) and its per-example lengths; nil lengths mean no padding.
func NewPackedBatch(view *tensor.View, seqLengths []int) (*PackedBatch, error) {
	return minibatch.NewPackedBatch(view, seqLengths)
}

// NewConstant freezes view and wraps it as a constant.
func NewConstant(view *tensor.View) Constant {
	return minibatch.NewConstant(view)
}

// NewEyeCache creates an empty identity-matrix cache.
func NewEyeCache() *EyeCache {
	return minibatch.NewEyeCache()
}

// NewUnpacker creates an Unpacker with its own identity-matrix cache.
func NewUnpacker() *Unpacker {
	return minibatch.NewUnpacker()
}

// NewUnpackerWithCache creates an Unpacker using a shared identity cache.
func NewUnpackerWithCache(cache *EyeCache) *Unpacker {
	return minibatch.NewUnpackerWithCache(cache)
}
