package minibatch

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/ember-ml/ember/internal/tensor"
)

// eyeKey identifies one cached identity matrix.
//
// The device is deliberately not part of the key: the first request for a
// given size and element type decides where the cached matrix lives, and
// later requests get that entry back regardless of the device they name.
// This mirrors the long-standing behavior of the system this library feeds,
// which only ever runs a given size/type pair on a single device. Callers on
// multi-device deployments must hold one cache per device.
type eyeKey struct {
	n     int
	dtype tensor.DataType
}

// EyeCache lazily builds and retains identity matrices per (size, element
// type). Entries are frozen, live for the lifetime of the cache, and are
// never evicted. The cache is safe for concurrent use; population is
// serialized so at most one matrix is built per key.
type EyeCache struct {
	mu      sync.Mutex
	entries map[eyeKey]*tensor.View
}

// NewEyeCache creates an empty identity-matrix cache.
func NewEyeCache() *EyeCache {
	return &EyeCache{
		entries: make(map[eyeKey]*tensor.View),
	}
}

// Get returns the n×n identity matrix for the given element type, building
// and caching it on device on first use. Non-float element types are a
// reported error (ErrUnsupportedDType), never silently substituted.
func (c *EyeCache) Get(n int, dtype tensor.DataType, device tensor.Device) (*tensor.View, error) {
	if !dtype.IsFloat() {
		return nil, errors.Wrapf(ErrUnsupportedDType, "%s", dtype)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	key := eyeKey{n: n, dtype: dtype}
	if eye, ok := c.entries[key]; ok {
		return eye, nil
	}
	eye, err := tensor.Eye(n, dtype, device)
	if err != nil {
		return nil, errors.Wrapf(err, "building %dx%d identity", n, n)
	}
	frozen := eye.Freeze()
	c.entries[key] = frozen
	return frozen, nil
}

// Len returns the number of cached matrices.
func (c *EyeCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
