package tensor

import (
	"fmt"
	"sync"
	"sync/atomic"
	"unsafe"
)

// viewBuffer is a reference-counted shared buffer. Views produced by slicing
// share the buffer of their source, which keeps slicing zero-copy.
type viewBuffer struct {
	data     []byte
	refCount atomic.Int32
	mu       sync.Mutex // For safe deallocation
}

// newViewBuffer creates a new reference-counted buffer with refCount = 1.
func newViewBuffer(size int) *viewBuffer {
	buf := &viewBuffer{
		data: make([]byte, size),
	}
	buf.refCount.Store(1)
	return buf
}

// addRef increments the reference count (for shared sub-views).
func (vb *viewBuffer) addRef() {
	vb.refCount.Add(1)
}

// release decrements the reference count and deallocates if it reaches 0.
func (vb *viewBuffer) release() {
	if vb.refCount.Add(-1) == 0 {
		vb.mu.Lock()
		defer vb.mu.Unlock()
		vb.data = nil
	}
}

// cscIndex is the compressed sparse encoding for sparse views: the leading
// (fastest) axis holds the rows, all remaining axes are flattened to columns.
// colPtr spans the columns of the full backing value so that column-range
// sub-views can share it unchanged.
type cscIndex struct {
	rows   int
	colPtr []int
	rowIdx []int32
}

// View is a shaped, typed, device-tagged reference to numeric data.
//
// Dense views reference a flat buffer at a byte offset; sparse views
// reference a compressed column encoding plus a starting column. Sub-views
// created by Slice and Narrow share the backing storage of their source.
// A frozen view rejects mutation; it is the immutable value handed to the
// computation engine.
type View struct {
	buffer *viewBuffer
	shape  Shape
	stride []int
	dtype  DataType
	device Device
	offset int // byte offset into buffer (dense views only)
	csc    *cscIndex
	colOff int // first backing column (sparse views only)
	frozen bool
}

// NewDense creates a zero-initialized dense view with the given shape and type.
func NewDense(shape Shape, dtype DataType, device Device) (*View, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}

	byteSize := shape.NumElements() * dtype.Size()
	return &View{
		buffer: newViewBuffer(byteSize),
		shape:  shape.Clone(),
		stride: shape.ComputeStrides(),
		dtype:  dtype,
		device: device,
		offset: 0,
	}, nil
}

// DenseOf creates a dense view from a Go slice. The slice is copied.
func DenseOf[T Element](data []T, shape Shape, device Device) (*View, error) {
	if shape.NumElements() != len(data) {
		return nil, fmt.Errorf("shape %v requires %d elements, but got %d", shape, shape.NumElements(), len(data))
	}

	var dummy T
	v, err := NewDense(shape, inferDataType(dummy), device)
	if err != nil {
		return nil, err
	}
	if len(data) > 0 {
		dst := unsafe.Slice((*T)(unsafe.Pointer(&v.buffer.data[0])), len(data))
		copy(dst, data)
	}
	return v, nil
}

// SparseCSCOf creates a sparse view from a compressed column encoding.
// shape[0] is the row count; the remaining axes are flattened to columns.
// colPtr must have one entry per column plus one, rowIdx and values one entry
// per stored element.
func SparseCSCOf[T Element](shape Shape, colPtr []int, rowIdx []int32, values []T, device Device) (*View, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}
	if shape.Rank() < 1 {
		return nil, fmt.Errorf("sparse view requires rank >= 1, got shape %v", shape)
	}
	rows := shape[0]
	cols := 1
	for _, dim := range shape[1:] {
		cols *= dim
	}
	if len(colPtr) != cols+1 {
		return nil, fmt.Errorf("colPtr length %d does not match %d columns", len(colPtr), cols)
	}
	nnz := colPtr[cols]
	if len(rowIdx) != nnz || len(values) != nnz {
		return nil, fmt.Errorf("expected %d stored elements, got %d row indices and %d values", nnz, len(rowIdx), len(values))
	}
	for _, r := range rowIdx {
		if int(r) < 0 || int(r) >= rows {
			return nil, fmt.Errorf("row index %d out of range for %d rows", r, rows)
		}
	}

	var dummy T
	dtype := inferDataType(dummy)
	buf := newViewBuffer(nnz * dtype.Size())
	if nnz > 0 {
		dst := unsafe.Slice((*T)(unsafe.Pointer(&buf.data[0])), nnz)
		copy(dst, values)
	}
	return &View{
		buffer: buf,
		shape:  shape.Clone(),
		stride: shape.ComputeStrides(),
		dtype:  dtype,
		device: device,
		csc: &cscIndex{
			rows:   rows,
			colPtr: append([]int(nil), colPtr...),
			rowIdx: append([]int32(nil), rowIdx...),
		},
	}, nil
}

// Shape returns the view's shape.
func (v *View) Shape() Shape {
	return v.shape
}

// Rank returns the number of axes.
func (v *View) Rank() int {
	return v.shape.Rank()
}

// Strides returns the view's memory strides (dense views).
func (v *View) Strides() []int {
	return v.stride
}

// DType returns the view's element type.
func (v *View) DType() DataType {
	return v.dtype
}

// Device returns the device the view's data resides on.
func (v *View) Device() Device {
	return v.device
}

// IsSparse reports whether the view uses the compressed sparse encoding.
func (v *View) IsSparse() bool {
	return v.csc != nil
}

// IsFrozen reports whether the view is immutable.
func (v *View) IsFrozen() bool {
	return v.frozen
}

// NumElements returns the total number of logical elements.
func (v *View) NumElements() int {
	return v.shape.NumElements()
}

// ByteSize returns the dense memory size of the view in bytes.
func (v *View) ByteSize() int {
	return v.NumElements() * v.dtype.Size()
}

// NNZ returns the number of stored elements of a sparse view.
// Panics on dense views.
func (v *View) NNZ() int {
	if v.csc == nil {
		panic("NNZ: dense view")
	}
	cols := v.numCols()
	return v.csc.colPtr[v.colOff+cols] - v.csc.colPtr[v.colOff]
}

// numCols returns the number of encoded columns of a sparse view.
func (v *View) numCols() int {
	return colsOf(v.shape)
}

// AsFloat32 interprets the dense data as []float32.
// Panics if the view is sparse or its dtype is not Float32.
func (v *View) AsFloat32() []float32 {
	v.checkDense(Float32)
	data := v.buffer.data[v.offset:]
	return unsafe.Slice((*float32)(unsafe.Pointer(&data[0])), v.NumElements())
}

// AsFloat64 interprets the dense data as []float64.
// Panics if the view is sparse or its dtype is not Float64.
func (v *View) AsFloat64() []float64 {
	v.checkDense(Float64)
	data := v.buffer.data[v.offset:]
	return unsafe.Slice((*float64)(unsafe.Pointer(&data[0])), v.NumElements())
}

// AsInt32 interprets the dense data as []int32.
// Panics if the view is sparse or its dtype is not Int32.
func (v *View) AsInt32() []int32 {
	v.checkDense(Int32)
	data := v.buffer.data[v.offset:]
	return unsafe.Slice((*int32)(unsafe.Pointer(&data[0])), v.NumElements())
}

// AsInt64 interprets the dense data as []int64.
// Panics if the view is sparse or its dtype is not Int64.
func (v *View) AsInt64() []int64 {
	v.checkDense(Int64)
	data := v.buffer.data[v.offset:]
	return unsafe.Slice((*int64)(unsafe.Pointer(&data[0])), v.NumElements())
}

func (v *View) checkDense(want DataType) {
	if v.csc != nil {
		panic("typed access to sparse view")
	}
	if v.dtype != want {
		panic(fmt.Sprintf("view dtype is %s, not %s", v.dtype, want))
	}
	if v.NumElements() == 0 {
		panic("typed access to empty view")
	}
}

// At returns the element at the given indices as float64.
// Works for dense and sparse views; panics on out-of-range indices.
func (v *View) At(indices ...int) float64 {
	offset := v.flatIndex(indices)
	if v.csc == nil {
		return v.loadDense(offset)
	}
	// Sparse lookup: column = offset / rows, then scan the stored rows.
	col := v.colOff + offset/v.csc.rows
	row := int32(offset % v.csc.rows)
	for p := v.csc.colPtr[col]; p < v.csc.colPtr[col+1]; p++ {
		if v.csc.rowIdx[p] == row {
			return v.loadStored(p)
		}
	}
	return 0
}

// loadStored reads the p-th stored element of a sparse view as float64.
func (v *View) loadStored(p int) float64 {
	data := v.buffer.data
	switch v.dtype {
	case Float32:
		return float64(*(*float32)(unsafe.Pointer(&data[p*4])))
	case Float64:
		return *(*float64)(unsafe.Pointer(&data[p*8]))
	case Int32:
		return float64(*(*int32)(unsafe.Pointer(&data[p*4])))
	case Int64:
		return float64(*(*int64)(unsafe.Pointer(&data[p*8])))
	default:
		panic("unknown data type")
	}
}

// Set stores value at the given indices.
// Panics if the view is frozen, sparse, or the indices are out of range.
func (v *View) Set(value float64, indices ...int) {
	if v.frozen {
		panic("Set on frozen view")
	}
	if v.csc != nil {
		panic("Set on sparse view")
	}
	offset := v.flatIndex(indices)
	data := v.buffer.data[v.offset:]
	switch v.dtype {
	case Float32:
		*(*float32)(unsafe.Pointer(&data[offset*4])) = float32(value)
	case Float64:
		*(*float64)(unsafe.Pointer(&data[offset*8])) = value
	case Int32:
		*(*int32)(unsafe.Pointer(&data[offset*4])) = int32(value)
	case Int64:
		*(*int64)(unsafe.Pointer(&data[offset*8])) = int64(value)
	}
}

// flatIndex converts multi-axis indices to a flat column-major element index.
func (v *View) flatIndex(indices []int) int {
	if len(indices) != v.Rank() {
		panic(fmt.Sprintf("expected %d indices, got %d", v.Rank(), len(indices)))
	}
	offset := 0
	for i, idx := range indices {
		if idx < 0 || idx >= v.shape[i] {
			panic(fmt.Sprintf("index %d out of bounds for axis %d (size %d)", idx, i, v.shape[i]))
		}
		offset += idx * v.stride[i]
	}
	return offset
}

// loadDense reads the dense element at flat index offset as float64.
func (v *View) loadDense(offset int) float64 {
	data := v.buffer.data[v.offset:]
	switch v.dtype {
	case Float32:
		return float64(*(*float32)(unsafe.Pointer(&data[offset*4])))
	case Float64:
		return *(*float64)(unsafe.Pointer(&data[offset*8]))
	case Int32:
		return float64(*(*int32)(unsafe.Pointer(&data[offset*4])))
	case Int64:
		return float64(*(*int64)(unsafe.Pointer(&data[offset*8])))
	default:
		panic("unknown data type")
	}
}

// shallow returns a struct copy sharing the backing buffer.
func (v *View) shallow() *View {
	v.buffer.addRef()
	clone := *v
	clone.shape = v.shape.Clone()
	clone.stride = append([]int(nil), v.stride...)
	return &clone
}

// Clone creates a shallow copy sharing the backing buffer.
func (v *View) Clone() *View {
	return v.shallow()
}

// Release decrements the buffer reference count and deallocates at zero.
func (v *View) Release() {
	v.buffer.release()
}

// Freeze returns an immutable view over the same backing storage.
func (v *View) Freeze() *View {
	f := v.shallow()
	f.frozen = true
	return f
}

// DeepClone copies the view's data into newly owned storage tagged with the
// given device. Sparse views stay sparse; the compressed index is rebased so
// the copy starts at column zero. The copy is mutable.
func (v *View) DeepClone(device Device) *View {
	if v.csc == nil {
		out := &View{
			buffer: newViewBuffer(v.ByteSize()),
			shape:  v.shape.Clone(),
			stride: v.shape.ComputeStrides(),
			dtype:  v.dtype,
			device: device,
			offset: 0,
		}
		copy(out.buffer.data, v.buffer.data[v.offset:v.offset+v.ByteSize()])
		return out
	}

	cols := v.numCols()
	first, last := v.csc.colPtr[v.colOff], v.csc.colPtr[v.colOff+cols]
	colPtr := make([]int, cols+1)
	for j := 0; j <= cols; j++ {
		colPtr[j] = v.csc.colPtr[v.colOff+j] - first
	}
	size := v.dtype.Size()
	buf := newViewBuffer((last - first) * size)
	copy(buf.data, v.buffer.data[first*size:last*size])
	return &View{
		buffer: buf,
		shape:  v.shape.Clone(),
		stride: v.shape.ComputeStrides(),
		dtype:  v.dtype,
		device: device,
		csc: &cscIndex{
			rows:   v.csc.rows,
			colPtr: colPtr,
			rowIdx: append([]int32(nil), v.csc.rowIdx[first:last]...),
		},
	}
}

// AsShape reinterprets the view with a new shape of equal element count.
// Zero copy. Sparse views can only be reinterpreted while keeping the leading
// (row) axis intact.
func (v *View) AsShape(newShape Shape) (*View, error) {
	if err := newShape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}
	if newShape.NumElements() != v.NumElements() {
		return nil, fmt.Errorf("cannot reshape %v (%d elements) to %v (%d elements)",
			v.shape, v.NumElements(), newShape, newShape.NumElements())
	}
	if v.csc != nil && (newShape.Rank() < 1 || newShape[0] != v.csc.rows) {
		return nil, fmt.Errorf("cannot reshape sparse view %v to %v: row axis must be kept", v.shape, newShape)
	}

	out := v.shallow()
	out.shape = newShape.Clone()
	out.stride = newShape.ComputeStrides()
	return out, nil
}

// Narrow restricts the trailing axis to its first length entries.
// Zero copy: the trailing axis is outermost in storage, so shrinking its
// extent only changes shape metadata (and the column count of sparse views).
func (v *View) Narrow(length int) *View {
	if v.Rank() < 1 {
		panic("Narrow: rank must be >= 1")
	}
	last := v.Rank() - 1
	if length < 0 || length > v.shape[last] {
		panic(fmt.Sprintf("Narrow: length %d out of range for trailing axis of size %d", length, v.shape[last]))
	}
	out := v.shallow()
	out.shape[last] = length
	return out
}

// String returns a human-readable representation of the view.
func (v *View) String() string {
	kind := "dense"
	if v.csc != nil {
		kind = "sparse"
	}
	return fmt.Sprintf("View[%s]%v %s on %s", v.dtype, v.shape, kind, v.device)
}
