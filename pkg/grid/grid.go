// Package grid maps between flat buffer indices and (x, y) coordinates for
// row-major pixel grids like the 64-column frame buffer.
package grid

// GetGridCoords converts a flat row-major index into (x, y) coordinates for
// a grid with the given column count.
func GetGridCoords(index, cols int) (x, y int) {
	return index % cols, index / cols
}

// GetGridIndex converts (x, y) coordinates into a flat row-major index for a
// grid with the given column count.
func GetGridIndex(x, y, cols int) int {
	return y*cols + x
}
