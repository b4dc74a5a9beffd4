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
	"errors"
	"fmt"
	"strconv"

	"github.com/ctessum/sparse"
)

// Column names of the summary tables.
const (
	HourColumn     = "hour\\layer"
	AveragedColumn = "averaged"
)

// ErrTableRows is returned when the number of time steps in a reduced
// value does not match the number of rows in a summary table.
var ErrTableRows = errors.New("camxmod: table row count does not match the number of time steps")

// Table is a summary table. The first column holds the hour and
// every row has one value per column.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]float64
}

// Column returns the values in column name, or nil if there is no
// such column.
func (t *Table) Column(name string) []float64 {
	for j, c := range t.Columns {
		if c != name {
			continue
		}
		o := make([]float64, len(t.Rows))
		for i, r := range t.Rows {
			o[i] = r[j]
		}
		return o
	}
	return nil
}

func newTable(name string, hours int, columns ...string) *Table {
	t := &Table{
		Name:    name,
		Columns: append([]string{HourColumn}, columns...),
		Rows:    make([][]float64, hours),
	}
	for h := range t.Rows {
		t.Rows[h] = make([]float64, len(t.Columns))
		t.Rows[h][0] = float64(h)
	}
	return t
}

// LayerTable creates a table with one row per hour, one column per layer
// of the (TSTEP, layer) array layers and a final averaged column.
// Layer columns are labeled with 1-based layer numbers starting from
// firstLayer+1.
func LayerTable(name string, hours int, layers *sparse.DenseArray, firstLayer int, averaged *sparse.DenseArray) (*Table, error) {
	if layers.Shape[0] != hours || averaged.Shape[0] != hours {
		return nil, fmt.Errorf("%w: table %s has %d rows; values have %d and %d time steps",
			ErrTableRows, name, hours, layers.Shape[0], averaged.Shape[0])
	}
	nz := layers.Shape[1]
	cols := make([]string, 0, nz+1)
	for k := 0; k < nz; k++ {
		cols = append(cols, strconv.Itoa(firstLayer+k+1))
	}
	cols = append(cols, AveragedColumn)
	t := newTable(name, hours, cols...)
	for h, row := range t.Rows {
		for k := 0; k < nz; k++ {
			row[k+1] = layers.Get(h, k)
		}
		row[nz+1] = averaged.Elements[h]
	}
	return t, nil
}

// CombinedTable creates a table with one row per hour and one column per
// variable, holding the (TSTEP) arrays in values.
func CombinedTable(name string, hours int, variables []string, values []*sparse.DenseArray) (*Table, error) {
	if len(variables) != len(values) {
		return nil, fmt.Errorf("camxmod: table %s: %d variables but %d values", name, len(variables), len(values))
	}
	t := newTable(name, hours, variables...)
	for j, v := range values {
		if v.Shape[0] != hours {
			return nil, fmt.Errorf("%w: table %s has %d rows; %s has %d time steps",
				ErrTableRows, name, hours, variables[j], v.Shape[0])
		}
		for h, row := range t.Rows {
			row[j+1] = v.Elements[h]
		}
	}
	return t, nil
}

// layerAverage returns the mean of each row of the (TSTEP, layer) array a
// across every layer. NaN values are skipped.
func layerAverage(a *sparse.DenseArray) *sparse.DenseArray {
	o := sparse.ZerosDense(a.Shape[0])
	buf := make([]float64, 0, a.Shape[1])
	for t := range o.Elements {
		buf = buf[:0]
		for k := 0; k < a.Shape[1]; k++ {
			buf = append(buf, a.Get(t, k))
		}
		o.Elements[t] = nanMean(buf)
	}
	return o
}
