/*
Copyright © 2024 the camxmod authors.
This file is part of camxmod.

camxmod is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

camxmod is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with camxmod.  If not, see <http://www.gnu.org/licenses/>.
*/

package camxmod

import "fmt"

// IndexRange is a half-open range [Start, End) of indices along one axis.
type IndexRange struct {
	Start, End int
}

// Len returns the number of indices in r.
func (r IndexRange) Len() int {
	if r.End < r.Start {
		return 0
	}
	return r.End - r.Start
}

func (r IndexRange) check(dim string, length int) error {
	if r.Start < 0 || r.End > length || r.End < r.Start {
		return &OutOfBoundsError{Dim: dim, Range: r, Length: length}
	}
	return nil
}

// truncate limits r to an axis of the given length. Ranges that end
// past the axis are cut off at its end and reversed ranges become empty.
// Negative indices are an error.
func (r IndexRange) truncate(dim string, length int) (IndexRange, error) {
	if r.Start < 0 || r.End < 0 {
		return r, &OutOfBoundsError{Dim: dim, Range: r, Length: length}
	}
	if r.End > length {
		r.End = length
	}
	if r.Start > r.End {
		r.Start = r.End
	}
	return r, nil
}

// InvalidRangeError is returned when the end of a clip window is not
// after its start.
type InvalidRangeError struct {
	Axis       string
	Start, End int
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("camxmod: %s start (%d) is bigger than or equal to %s end (%d)",
		e.Axis, e.Start, e.Axis, e.End)
}

// InvalidAveragingWindowError is returned when an averaging window is
// not given as exactly two indices.
type InvalidAveragingWindowError struct {
	Axis   string
	Values []int
}

func (e *InvalidAveragingWindowError) Error() string {
	return fmt.Sprintf("camxmod: %s averaging window must have a length of two; got %v",
		e.Axis, e.Values)
}

// OutOfBoundsError is returned when a window does not fit inside
// the grid it is applied to.
type OutOfBoundsError struct {
	Dim    string
	Range  IndexRange
	Length int
}

func (e *OutOfBoundsError) Error() string {
	return fmt.Sprintf("camxmod: range [%d, %d) does not fit dimension %s of length %d",
		e.Range.Start, e.Range.End, e.Dim, e.Length)
}

// ClipWindow is the part of the grid that is kept in the output.
type ClipWindow struct {
	Row, Col, Layer IndexRange
}

// NewClipWindow creates a clip window from start (inclusive) and end
// (exclusive) indices. The column range must not be empty, but empty
// row and layer ranges are accepted.
func NewClipWindow(rowStart, rowEnd, colStart, colEnd, layStart, layEnd int) (ClipWindow, error) {
	if colEnd <= colStart {
		return ClipWindow{}, &InvalidRangeError{Axis: "column", Start: colStart, End: colEnd}
	}
	if rowEnd < rowStart {
		return ClipWindow{}, &InvalidRangeError{Axis: "row", Start: rowStart, End: rowEnd}
	}
	if layEnd < layStart {
		return ClipWindow{}, &InvalidRangeError{Axis: "layer", Start: layStart, End: layEnd}
	}
	return ClipWindow{
		Row:   IndexRange{Start: rowStart, End: rowEnd},
		Col:   IndexRange{Start: colStart, End: colEnd},
		Layer: IndexRange{Start: layStart, End: layEnd},
	}, nil
}

// ranges returns the clip ranges keyed by dimension name. Layers are
// only included if withLayer is true.
func (c ClipWindow) ranges(withLayer bool) map[string]IndexRange {
	r := map[string]IndexRange{RowDim: c.Row, ColDim: c.Col}
	if withLayer {
		r[LayerDim] = c.Layer
	}
	return r
}

// AveragingWindow is the part of the grid that a mean is taken over.
// It is independent of the clip window.
type AveragingWindow struct {
	Row, Col IndexRange

	// Layer is nil for windows that span every layer.
	Layer *IndexRange
}

// NewAveragingWindow creates an averaging window over rows, columns and
// layers. Each argument must hold a start and an end index.
func NewAveragingWindow(row, col, layer []int) (AveragingWindow, error) {
	w, err := NewAveragingWindow2D(row, col)
	if err != nil {
		return AveragingWindow{}, err
	}
	if len(layer) != 2 {
		return AveragingWindow{}, &InvalidAveragingWindowError{Axis: "layer", Values: layer}
	}
	w.Layer = &IndexRange{Start: layer[0], End: layer[1]}
	return w, nil
}

// NewAveragingWindow2D creates an averaging window over rows and columns.
func NewAveragingWindow2D(row, col []int) (AveragingWindow, error) {
	if len(row) != 2 {
		return AveragingWindow{}, &InvalidAveragingWindowError{Axis: "row", Values: row}
	}
	if len(col) != 2 {
		return AveragingWindow{}, &InvalidAveragingWindowError{Axis: "column", Values: col}
	}
	return AveragingWindow{
		Row: IndexRange{Start: row[0], End: row[1]},
		Col: IndexRange{Start: col[0], End: col[1]},
	}, nil
}

// layers returns the layer range of w for a grid with nlay layers.
func (w AveragingWindow) layers(nlay int) IndexRange {
	if w.Layer == nil {
		return IndexRange{Start: 0, End: nlay}
	}
	return *w.Layer
}
