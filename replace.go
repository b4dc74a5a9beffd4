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
)

// Replace overwrites every ROW×COL plane of the (TSTEP, LAY, ROW, COL)
// variable v with a reduced value.
// If reduced has shape (TSTEP), plane (t, z) is set to reduced[t] for
// every layer z. If reduced has shape (TSTEP, layer), plane (t, z) is set to
// reduced[t, layerOffset+z].
func Replace(v *Variable, reduced *sparse.DenseArray, layerOffset int) error {
	if !v.HasDims(TimeDim, LayerDim, RowDim, ColDim) {
		return fmt.Errorf("camxmod: cannot replace variable %s with dimensions %v", v.Name, v.Dims)
	}
	shape := v.Data.Shape
	nt, nz := shape[0], shape[1]
	plane := shape[2] * shape[3]
	if reduced.Shape[0] != nt {
		return fmt.Errorf("camxmod: replacing %s: %d reduced time steps for %d in grid",
			v.Name, reduced.Shape[0], nt)
	}
	var get func(t, z int) float64
	switch len(reduced.Shape) {
	case 1:
		get = func(t, _ int) float64 { return reduced.Elements[t] }
	case 2:
		if layerOffset < 0 || layerOffset+nz > reduced.Shape[1] {
			return fmt.Errorf("camxmod: replacing %s: layers [%d, %d) not in reduced values with %d layers",
				v.Name, layerOffset, layerOffset+nz, reduced.Shape[1])
		}
		get = func(t, z int) float64 { return reduced.Get(t, layerOffset+z) }
	default:
		return fmt.Errorf("camxmod: replacing %s: invalid reduced shape %v", v.Name, reduced.Shape)
	}
	for t := 0; t < nt; t++ {
		for z := 0; z < nz; z++ {
			val := get(t, z)
			begin := (t*nz + z) * plane
			for i := begin; i < begin+plane; i++ {
				v.Data.Elements[i] = val
			}
		}
	}
	return nil
}

// surface returns the first-layer column of a (TSTEP, layer) array.
func surface(a *sparse.DenseArray) *sparse.DenseArray {
	o := sparse.ZerosDense(a.Shape[0])
	for t := range o.Elements {
		if a.Shape[1] == 0 {
			o.Elements[t] = math.NaN()
			continue
		}
		o.Elements[t] = a.Get(t, 0)
	}
	return o
}
