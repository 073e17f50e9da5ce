package tensor

import (
	"testing"
)

// buildDense fills a view of the given shape with 0, 1, 2, ... in storage order.
func buildDense(t *testing.T, shape Shape) *View {
	t.Helper()
	data := make([]float32, shape.NumElements())
	for i := range data {
		data[i] = float32(i)
	}
	v, err := DenseOf(data, shape, CPU)
	if err != nil {
		t.Fatalf("DenseOf failed: %v", err)
	}
	return v
}

func TestSliceDropsTrailingAxis(t *testing.T) {
	v := buildDense(t, Shape{2, 3, 4})

	for index := 0; index < 4; index++ {
		s := Slice(v, index)

		if s.Rank() != v.Rank()-1 {
			t.Fatalf("Slice rank = %d, want %d", s.Rank(), v.Rank()-1)
		}
		if !s.Shape().Equal(Shape{2, 3}) {
			t.Fatalf("Slice shape = %v, want [2 3]", s.Shape())
		}
		// Data equals the hyperplane at the fixed trailing index.
		for i := 0; i < 2; i++ {
			for j := 0; j < 3; j++ {
				if s.At(i, j) != v.At(i, j, index) {
					t.Errorf("Slice(%d).At(%d,%d) = %v, want %v", index, i, j, s.At(i, j), v.At(i, j, index))
				}
			}
		}
	}
}

func TestSliceIsZeroCopy(t *testing.T) {
	v := buildDense(t, Shape{3, 2})
	s := Slice(v, 1)

	v.Set(99, 0, 1)
	if s.At(0) != 99 {
		t.Error("Slice should view the source storage, not copy it")
	}
}

func TestSliceDegenerateAxisEquivalence(t *testing.T) {
	// A trailing axis of size 1 takes the reinterpret fast path; the result
	// must be indistinguishable from the general sub-view path on identical
	// data.
	data := []float32{3, 1, 4, 1, 5, 9}
	degenerate, err := DenseOf(data, Shape{2, 3, 1}, CPU)
	if err != nil {
		t.Fatal(err)
	}
	// Same data duplicated along a trailing axis of size 2 forces the
	// general path at index 0.
	general, err := DenseOf(append(append([]float32(nil), data...), data...), Shape{2, 3, 2}, CPU)
	if err != nil {
		t.Fatal(err)
	}

	fast := Slice(degenerate, 0)
	slow := Slice(general, 0)

	if !fast.Shape().Equal(slow.Shape()) {
		t.Fatalf("fast path shape %v != general path shape %v", fast.Shape(), slow.Shape())
	}
	for i := 0; i < 2; i++ {
		for j := 0; j < 3; j++ {
			if fast.At(i, j) != slow.At(i, j) {
				t.Errorf("paths disagree at (%d,%d): %v vs %v", i, j, fast.At(i, j), slow.At(i, j))
			}
		}
	}

	// The fast path must still be a view, not a copy.
	degenerate.Set(42, 0, 0, 0)
	if fast.At(0, 0) != 42 {
		t.Error("fast path should share storage with the source")
	}
}

func TestSliceOutOfRangePanics(t *testing.T) {
	v := buildDense(t, Shape{2, 3})
	defer func() {
		if recover() == nil {
			t.Error("out-of-range index should panic")
		}
	}()
	Slice(v, 3)
}

func TestSliceSparseColumnRange(t *testing.T) {
	// Shape [2, 2, 2]: rows=2, four columns, one entry per column with
	// value 10+column.
	v, err := SparseCSCOf(Shape{2, 2, 2},
		[]int{0, 1, 2, 3, 4},
		[]int32{0, 1, 0, 1},
		[]float32{10, 11, 12, 13}, CPU)
	if err != nil {
		t.Fatal(err)
	}

	s := Slice(v, 1)
	if !s.Shape().Equal(Shape{2, 2}) {
		t.Fatalf("sparse slice shape = %v, want [2 2]", s.Shape())
	}
	if !s.IsSparse() {
		t.Fatal("sparse slice should stay sparse")
	}
	if s.NNZ() != 2 {
		t.Errorf("sparse slice NNZ = %d, want 2", s.NNZ())
	}
	// Columns 2 and 3 of the backing value.
	if s.At(0, 0) != 12 || s.At(1, 1) != 13 {
		t.Errorf("sparse slice values wrong: %v %v", s.At(0, 0), s.At(1, 1))
	}
}
