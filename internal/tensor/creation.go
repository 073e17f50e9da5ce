package tensor

import "github.com/pkg/errors"

// Eye builds an n×n identity matrix view. The buffer is zero-initialized and
// populated on the CPU staging device, then materialized onto device with a
// deep copy. Only floating-point element types are supported; anything else
// is a reported error.
func Eye(n int, dtype DataType, device Device) (*View, error) {
	if n < 1 {
		return nil, errors.Errorf("eye: size must be >= 1, got %d", n)
	}

	staged, err := NewDense(Shape{n, n}, dtype, CPU)
	if err != nil {
		return nil, err
	}
	switch dtype {
	case Float32:
		data := staged.AsFloat32()
		for i := 0; i < n; i++ {
			data[i*n+i] = 1
		}
	case Float64:
		data := staged.AsFloat64()
		for i := 0; i < n; i++ {
			data[i*n+i] = 1
		}
	default:
		return nil, errors.Errorf("eye: unsupported element type %s", dtype)
	}
	return staged.DeepClone(device), nil
}
