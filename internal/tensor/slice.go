package tensor

import "fmt"

// Slice fixes the trailing axis of v at index and drops that axis, producing
// a view of rank Rank(v)-1 over the same backing storage. The trailing axis
// is outermost in storage, so the result of the general path is a contiguous
// sub-view at an adjusted offset; no data is copied.
//
// When the trailing axis is degenerate (size 1) and index is 0, the sub-view
// request is skipped and the view is reinterpreted with the axis removed.
// Both paths yield identical results.
//
// An out-of-range index is a caller error and panics.
func Slice(v *View, index int) *View {
	if v.Rank() < 1 {
		panic("Slice: rank must be >= 1")
	}
	last := v.Rank() - 1
	if index < 0 || index >= v.shape[last] {
		panic(fmt.Sprintf("Slice: index %d out of range for trailing axis of size %d", index, v.shape[last]))
	}

	if v.shape[last] == 1 && index == 0 {
		out, err := v.AsShape(v.shape[:last].Clone())
		if err != nil {
			panic(err) // element counts match by construction
		}
		return out
	}

	if v.csc != nil && last == 0 {
		panic("Slice: cannot slice the row axis of a sparse view")
	}

	out := v.shallow()
	out.shape = v.shape[:last].Clone()
	out.stride = out.stride[:last]
	if v.csc != nil {
		// Column-range sub-view: each trailing-axis step spans the columns
		// of the remaining shape.
		out.colOff = v.colOff + index*colsOf(out.shape)
	} else {
		out.offset = v.offset + index*v.stride[last]*v.dtype.Size()
	}
	return out
}

// colsOf returns the flattened column count of a sparse view shape
// (all axes past the leading row axis).
func colsOf(shape Shape) int {
	cols := 1
	for i := 1; i < len(shape); i++ {
		cols *= shape[i]
	}
	return cols
}
