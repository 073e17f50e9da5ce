package tensor

import (
	"unsafe"

	"github.com/pkg/errors"
)

// MatMul computes the matrix product a · b, where a is a dense rank-2 view
// [m, k] and b is a dense or sparse view whose leading axis has size k. The
// result is a newly allocated dense view of shape [m] ++ b.Shape()[1:] on b's
// device. It exists to project sparse values to dense form by left-multiplying
// with an identity matrix; it is not a general arithmetic surface.
func MatMul(a, b *View) (*View, error) {
	if a.IsSparse() {
		return nil, errors.New("matmul: left operand must be dense")
	}
	if a.Rank() != 2 {
		return nil, errors.Errorf("matmul: left operand must have rank 2, got shape %v", a.Shape())
	}
	if b.Rank() < 1 {
		return nil, errors.Errorf("matmul: right operand must have rank >= 1, got shape %v", b.Shape())
	}
	if a.DType() != b.DType() {
		return nil, errors.Errorf("matmul: element types differ: %s vs %s", a.DType(), b.DType())
	}
	if !a.DType().IsFloat() {
		return nil, errors.Errorf("matmul: unsupported element type %s", a.DType())
	}
	if a.Device() != b.Device() {
		return nil, errors.Errorf("matmul: operands on different devices: %s vs %s", a.Device(), b.Device())
	}
	m, k := a.shape[0], a.shape[1]
	if b.shape[0] != k {
		return nil, errors.Errorf("matmul: inner dimensions differ: %d vs %d", k, b.shape[0])
	}

	outShape := append(Shape{m}, b.shape[1:]...)
	out, err := NewDense(outShape, a.dtype, b.device)
	if err != nil {
		return nil, err
	}
	n := colsOf(b.shape)

	switch a.dtype {
	case Float32:
		matmulF32(a.AsFloat32(), b, out.AsFloat32(), m, k, n)
	case Float64:
		matmulF64(a.AsFloat64(), b, out.AsFloat64(), m, k, n)
	}
	return out, nil
}

// matmulF32 multiplies the column-major [m,k] matrix av with the k×n columns
// of b (dense or sparse) into the column-major [m,n] result.
func matmulF32(av []float32, b *View, out []float32, m, k, n int) {
	if b.csc == nil {
		bv := b.AsFloat32()
		for j := 0; j < n; j++ {
			for p := 0; p < k; p++ {
				bval := bv[p+j*k]
				if bval == 0 {
					continue
				}
				for i := 0; i < m; i++ {
					out[i+j*m] += av[i+p*m] * bval
				}
			}
		}
		return
	}
	if len(b.buffer.data) == 0 {
		return
	}
	values := unsafe.Slice((*float32)(unsafe.Pointer(&b.buffer.data[0])), len(b.buffer.data)/4)
	for j := 0; j < n; j++ {
		col := b.colOff + j
		for p := b.csc.colPtr[col]; p < b.csc.colPtr[col+1]; p++ {
			row := int(b.csc.rowIdx[p])
			bval := values[p]
			for i := 0; i < m; i++ {
				out[i+j*m] += av[i+row*m] * bval
			}
		}
	}
}

// matmulF64 is the float64 twin of matmulF32.
func matmulF64(av []float64, b *View, out []float64, m, k, n int) {
	if b.csc == nil {
		bv := b.AsFloat64()
		for j := 0; j < n; j++ {
			for p := 0; p < k; p++ {
				bval := bv[p+j*k]
				if bval == 0 {
					continue
				}
				for i := 0; i < m; i++ {
					out[i+j*m] += av[i+p*m] * bval
				}
			}
		}
		return
	}
	if len(b.buffer.data) == 0 {
		return
	}
	values := unsafe.Slice((*float64)(unsafe.Pointer(&b.buffer.data[0])), len(b.buffer.data)/8)
	for j := 0; j < n; j++ {
		col := b.colOff + j
		for p := b.csc.colPtr[col]; p < b.csc.colPtr[col+1]; p++ {
			row := int(b.csc.rowIdx[p])
			bval := values[p]
			for i := 0; i < m; i++ {
				out[i+j*m] += av[i+row*m] * bval
			}
		}
	}
}
