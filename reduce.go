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

import (
	"fmt"
	"math"

	"github.com/ctessum/sparse"
	"gonum.org/v1/gonum/stat"
)

// ExcludedVariables are the coordinate and structural variables that
// are never averaged or replaced.
var ExcludedVariables = []string{"X", "Y", "layer", "TFLAG", "ETFLAG", "topo", "z", "longitude", "latitude"}

// Reducible reports whether v is a gridded (TSTEP, LAY, ROW, COL)
// field that is not in the excluded set.
func Reducible(v *Variable, excluded map[string]bool) bool {
	return !excluded[v.Name] && v.HasDims(TimeDim, LayerDim, RowDim, ColDim)
}

// Mean returns the mean of v over the rows, columns and layers of w,
// with one value per time step. NaN values are skipped.
func (w AveragingWindow) Mean(v *Variable) (*sparse.DenseArray, error) {
	rows, cols, lays, err := w.bounds(v)
	if err != nil {
		return nil, err
	}
	nt := v.Data.Shape[0]
	o := sparse.ZerosDense(nt)
	buf := make([]float64, 0, rows.Len()*cols.Len()*lays.Len())
	for t := 0; t < nt; t++ {
		buf = buf[:0]
		for k := lays.Start; k < lays.End; k++ {
			buf = appendPlane(buf, v.Data, t, k, rows, cols)
		}
		o.Elements[t] = nanMean(buf)
	}
	return o, nil
}

// LayerMean returns the mean of v over the rows and columns of w for
// each time step and each layer of w, as a (TSTEP, layer) array. The
// second index counts from the start of the layer range of w.
// NaN values are skipped.
func (w AveragingWindow) LayerMean(v *Variable) (*sparse.DenseArray, error) {
	rows, cols, lays, err := w.bounds(v)
	if err != nil {
		return nil, err
	}
	nt := v.Data.Shape[0]
	o := sparse.ZerosDense(nt, lays.Len())
	buf := make([]float64, 0, rows.Len()*cols.Len())
	for t := 0; t < nt; t++ {
		for k := lays.Start; k < lays.End; k++ {
			buf = appendPlane(buf[:0], v.Data, t, k, rows, cols)
			o.Elements[o.Index1d(t, k-lays.Start)] = nanMean(buf)
		}
	}
	return o, nil
}

// AllLayers returns a copy of w that spans every layer.
func (w AveragingWindow) AllLayers() AveragingWindow {
	w.Layer = nil
	return w
}

// bounds returns the ranges of w within v. Ranges past the edge of v are
// truncated.
func (w AveragingWindow) bounds(v *Variable) (rows, cols, lays IndexRange, err error) {
	if !v.HasDims(TimeDim, LayerDim, RowDim, ColDim) {
		err = fmt.Errorf("camxmod: cannot average variable %s with dimensions %v", v.Name, v.Dims)
		return
	}
	shape := v.Data.Shape
	if lays, err = w.layers(shape[1]).truncate(LayerDim, shape[1]); err != nil {
		return
	}
	if rows, err = w.Row.truncate(RowDim, shape[2]); err != nil {
		return
	}
	cols, err = w.Col.truncate(ColDim, shape[3])
	return
}

func appendPlane(buf []float64, a *sparse.DenseArray, t, k int, rows, cols IndexRange) []float64 {
	for j := rows.Start; j < rows.End; j++ {
		for i := cols.Start; i < cols.End; i++ {
			buf = append(buf, a.Get(t, k, j, i))
		}
	}
	return buf
}

// nanMean returns the mean of the non-NaN values in x,
// or NaN if there are none.
func nanMean(x []float64) float64 {
	valid := make([]float64, 0, len(x))
	for _, v := range x {
		if !math.IsNaN(v) {
			valid = append(valid, v)
		}
	}
	if len(valid) == 0 {
		return math.NaN()
	}
	return stat.Mean(valid, nil)
}

func excludedSet(names []string) map[string]bool {
	o := make(map[string]bool, len(names))
	for _, n := range names {
		o[n] = true
	}
	return o
}
