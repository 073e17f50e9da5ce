package minibatch

import (
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ember-ml/ember/internal/tensor"
)

func TestEyeCacheGet(t *testing.T) {
	c := NewEyeCache()

	eye, err := c.Get(3, tensor.Float32, tensor.CPU)
	require.NoError(t, err)
	require.True(t, eye.Shape().Equal(tensor.Shape{3, 3}))
	assert.True(t, eye.IsFrozen(), "cached identity should be immutable")

	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			want := float64(0)
			if i == j {
				want = 1
			}
			assert.Equal(t, want, eye.At(i, j))
		}
	}
}

func TestEyeCacheIdempotent(t *testing.T) {
	c := NewEyeCache()

	first, err := c.Get(4, tensor.Float64, tensor.CPU)
	require.NoError(t, err)
	second, err := c.Get(4, tensor.Float64, tensor.CPU)
	require.NoError(t, err)

	// Same instance, not a reconstruction.
	assert.Same(t, first, second)
	assert.Equal(t, 1, c.Len())

	// Different size or type is a distinct entry.
	_, err = c.Get(5, tensor.Float64, tensor.CPU)
	require.NoError(t, err)
	_, err = c.Get(4, tensor.Float32, tensor.CPU)
	require.NoError(t, err)
	assert.Equal(t, 3, c.Len())
}

// TestEyeCacheDeviceNotInKey pins the documented legacy behavior: the device
// is not part of the cache key, so a later request naming a different device
// gets the entry resident on the device of the first request.
func TestEyeCacheDeviceNotInKey(t *testing.T) {
	c := NewEyeCache()

	first, err := c.Get(4, tensor.Float32, tensor.CUDA)
	require.NoError(t, err)
	require.Equal(t, tensor.CUDA, first.Device())

	second, err := c.Get(4, tensor.Float32, tensor.CPU)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, tensor.CUDA, second.Device(), "cached entry keeps its original device")
	assert.Equal(t, 1, c.Len())
}

func TestEyeCacheUnsupportedDType(t *testing.T) {
	c := NewEyeCache()

	_, err := c.Get(3, tensor.Int64, tensor.CPU)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedDType))
	assert.Equal(t, 0, c.Len(), "failed requests must not populate the cache")
}

func TestEyeCacheConcurrentFirstAccess(t *testing.T) {
	c := NewEyeCache()

	const goroutines = 16
	results := make([]*tensor.View, goroutines)
	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			eye, err := c.Get(8, tensor.Float32, tensor.CPU)
			assert.NoError(t, err)
			results[g] = eye
		}(g)
	}
	wg.Wait()

	assert.Equal(t, 1, c.Len(), "exactly one construction per key")
	for g := 1; g < goroutines; g++ {
		assert.Same(t, results[0], results[g])
	}
}
