// Copyright 2025 Ember ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the public API for the tensor views exchanged
// between the Ember data pipeline and the computation engine.
package tensor

import (
	"github.com/ember-ml/ember/internal/tensor"
)

// Type aliases for public API

// Element is a constraint for supported tensor element types.
// Supported types: float32, float64, int32, int64.
type Element = tensor.Element

// DataType represents the element type of a tensor view.
type DataType = tensor.DataType

// Element type constants.
const (
	Float32 DataType = tensor.Float32
	Float64 DataType = tensor.Float64
	Int32   DataType = tensor.Int32
	Int64   DataType = tensor.Int64
)

// Device identifies where a view's data resides.
type Device = tensor.Device

// Device constants.
const (
	CPU    Device = tensor.CPU
	CUDA   Device = tensor.CUDA
	Metal  Device = tensor.Metal
	WebGPU Device = tensor.WebGPU
)

// Shape represents the dimensions of a tensor view, ordered inner-to-outer
// (first axis varies fastest in memory).
type Shape = tensor.Shape

// View is a shaped, typed, device-tagged reference to dense or sparse data.
type View = tensor.View

// Creation functions

// NewDense creates a zero-initialized dense view.
func NewDense(shape Shape, dtype DataType, device Device) (*View, error) {
	return tensor.NewDense(shape, dtype, device)
}

// DenseOf creates a dense view from a Go slice. The slice is copied.
//
// Example:
//
//	v, err := tensor.DenseOf([]float32{1, 2, 3, 4}, tensor.Shape{2, 2}, tensor.CPU)
func DenseOf[T Element](data []T, shape Shape, device Device) (*View, error) {
	return tensor.DenseOf(data, shape, device)
}

// SparseCSCOf creates a sparse view from a compressed column encoding.
// shape[0] is the row count; all remaining axes are flattened to columns.
func SparseCSCOf[T Element](shape Shape, colPtr []int, rowIdx []int32, values []T, device Device) (*View, error) {
	return tensor.SparseCSCOf(shape, colPtr, rowIdx, values, device)
}

// Eye builds an n×n identity matrix on the given device.
func Eye(n int, dtype DataType, device Device) (*View, error) {
	return tensor.Eye(n, dtype, device)
}

// Operators

// Slice fixes the trailing axis of v at index and drops that axis.
// Zero copy; panics on an out-of-range index.
func Slice(v *View, index int) *View {
	return tensor.Slice(v, index)
}

// MatMul computes the matrix product of a dense rank-2 view with a dense or
// sparse right operand.
func MatMul(a, b *View) (*View, error) {
	return tensor.MatMul(a, b)
}
