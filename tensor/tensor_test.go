// Copyright 2025 Ember ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor_test

import (
	"testing"

	"github.com/ember-ml/ember/tensor"
)

// TestViewAPI verifies the View type alias exposes the expected API.
func TestViewAPI(t *testing.T) {
	v, err := tensor.NewDense(tensor.Shape{2, 3}, tensor.Float32, tensor.CPU)
	if err != nil {
		t.Fatalf("NewDense failed: %v", err)
	}

	if !v.Shape().Equal(tensor.Shape{2, 3}) {
		t.Errorf("Shape() = %v, want [2 3]", v.Shape())
	}
	if v.DType() != tensor.Float32 {
		t.Errorf("DType() = %v, want Float32", v.DType())
	}
	if v.Device() != tensor.CPU {
		t.Errorf("Device() = %v, want CPU", v.Device())
	}
	if v.NumElements() != 6 {
		t.Errorf("NumElements() = %d, want 6", v.NumElements())
	}
	if v.IsSparse() {
		t.Error("dense view reported sparse")
	}
}

func TestSliceThroughFacade(t *testing.T) {
	v, err := tensor.DenseOf([]float64{1, 2, 3, 4, 5, 6}, tensor.Shape{3, 2}, tensor.CPU)
	if err != nil {
		t.Fatalf("DenseOf failed: %v", err)
	}

	s := tensor.Slice(v, 1)
	if !s.Shape().Equal(tensor.Shape{3}) {
		t.Fatalf("Slice shape = %v, want [3]", s.Shape())
	}
	for i, want := range []float64{4, 5, 6} {
		if got := s.At(i); got != want {
			t.Errorf("Slice element %d = %v, want %v", i, got, want)
		}
	}
}

func TestEyeThroughFacade(t *testing.T) {
	eye, err := tensor.Eye(2, tensor.Float64, tensor.CPU)
	if err != nil {
		t.Fatalf("Eye failed: %v", err)
	}

	sp, err := tensor.SparseCSCOf(tensor.Shape{2, 2},
		[]int{0, 1, 2}, []int32{1, 0}, []float64{3, 7}, tensor.CPU)
	if err != nil {
		t.Fatalf("SparseCSCOf failed: %v", err)
	}

	out, err := tensor.MatMul(eye, sp)
	if err != nil {
		t.Fatalf("MatMul failed: %v", err)
	}
	want := [2][2]float64{{0, 7}, {3, 0}}
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			if out.At(i, j) != want[i][j] {
				t.Errorf("out(%d,%d) = %v, want %v", i, j, out.At(i, j), want[i][j])
			}
		}
	}
}
