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

// Package camxmod clips and spatially averages CAMx model output
// (concentration, vertical mixing coefficient, and 2D and 3D meteorology
// files) and summarizes the averaged values in spreadsheets.
package camxmod

import (
	"fmt"

	"github.com/ctessum/sparse"
)

// Version gives the version number.
const Version = "1.0.0"

// Names of the CAMx grid dimensions.
const (
	TimeDim  = "TSTEP"
	LayerDim = "LAY"
	RowDim   = "ROW"
	ColDim   = "COL"
)

// Names of the global attributes that hold the grid dimension counts.
const (
	NColsAttr = "NCOLS"
	NRowsAttr = "NROWS"
	NLaysAttr = "NLAYS"
)

// Dimension is a named grid axis.
type Dimension struct {
	Name   string
	Length int

	// Record is true for the unlimited (record) dimension.
	Record bool
}

// Attribute is a netCDF attribute. Value is one of []uint8, string,
// []int16, []int32, []float32 or []float64.
type Attribute struct {
	Name  string
	Value interface{}
}

// Variable holds the data and metadata for one grid variable.
type Variable struct {
	Name       string
	Dims       []string
	Attributes []Attribute

	// Type is a zero-length slice of the netCDF storage type of the
	// variable, e.g. []float32{}.
	Type interface{}

	Data *sparse.DenseArray
}

// Grid is an in-memory CAMx netCDF dataset.
type Grid struct {
	Dims       []Dimension
	Attributes []Attribute
	Variables  []*Variable
}

// Dim returns the dimension called name and whether it exists.
func (g *Grid) Dim(name string) (Dimension, bool) {
	for _, d := range g.Dims {
		if d.Name == name {
			return d, true
		}
	}
	return Dimension{}, false
}

// Var returns the variable called name, or nil if there isn't one.
func (g *Grid) Var(name string) *Variable {
	for _, v := range g.Variables {
		if v.Name == name {
			return v
		}
	}
	return nil
}

// Attr returns the value of global attribute name, or nil.
func (g *Grid) Attr(name string) interface{} {
	return getAttr(g.Attributes, name)
}

// SetIntAttr sets global attribute name to n, keeping the
// storage type of an existing attribute. New attributes are stored
// as 32-bit integers.
func (g *Grid) SetIntAttr(name string, n int) {
	g.Attributes = setIntAttr(g.Attributes, name, n)
}

// IntAttr returns the value of an integer-valued global attribute.
func (g *Grid) IntAttr(name string) (int, error) {
	switch v := g.Attr(name).(type) {
	case []int32:
		if len(v) > 0 {
			return int(v[0]), nil
		}
	case []int16:
		if len(v) > 0 {
			return int(v[0]), nil
		}
	case []float32:
		if len(v) > 0 {
			return int(v[0]), nil
		}
	case []float64:
		if len(v) > 0 {
			return int(v[0]), nil
		}
	case nil:
		return 0, fmt.Errorf("camxmod: missing attribute %s", name)
	}
	return 0, fmt.Errorf("camxmod: attribute %s is not an integer: %#v", name, g.Attr(name))
}

// Attr returns the value of variable attribute name, or nil.
func (v *Variable) Attr(name string) interface{} {
	return getAttr(v.Attributes, name)
}

// HasDims reports whether v is dimensioned exactly by dims.
func (v *Variable) HasDims(dims ...string) bool {
	if len(v.Dims) != len(dims) {
		return false
	}
	for i, d := range dims {
		if v.Dims[i] != d {
			return false
		}
	}
	return true
}

// Axis returns the position of dimension dim among the dimensions
// of v, or -1.
func (v *Variable) Axis(dim string) int {
	for i, d := range v.Dims {
		if d == dim {
			return i
		}
	}
	return -1
}

// Fill sets every element of v to val.
func (v *Variable) Fill(val float64) {
	for i := range v.Data.Elements {
		v.Data.Elements[i] = val
	}
}

// Copy returns a deep copy of v.
func (v *Variable) Copy() *Variable {
	return &Variable{
		Name:       v.Name,
		Dims:       append([]string(nil), v.Dims...),
		Attributes: append([]Attribute(nil), v.Attributes...),
		Type:       v.Type,
		Data:       v.Data.Copy(),
	}
}

// Clone returns a deep copy of g.
func (g *Grid) Clone() *Grid {
	o := &Grid{
		Dims:       append([]Dimension(nil), g.Dims...),
		Attributes: append([]Attribute(nil), g.Attributes...),
		Variables:  make([]*Variable, len(g.Variables)),
	}
	for i, v := range g.Variables {
		o.Variables[i] = v.Copy()
	}
	return o
}

// Window returns a new grid holding the part of g that falls inside
// the given ranges, keyed by dimension name. Dimensions without a range
// are kept whole. g is not modified and shares no data with the result.
func (g *Grid) Window(ranges map[string]IndexRange) (*Grid, error) {
	for name, r := range ranges {
		d, ok := g.Dim(name)
		if !ok {
			return nil, fmt.Errorf("camxmod: grid has no dimension %s", name)
		}
		if err := r.check(name, d.Length); err != nil {
			return nil, err
		}
	}
	o := &Grid{
		Dims:       make([]Dimension, len(g.Dims)),
		Attributes: append([]Attribute(nil), g.Attributes...),
		Variables:  make([]*Variable, len(g.Variables)),
	}
	for i, d := range g.Dims {
		if r, ok := ranges[d.Name]; ok {
			d.Length = r.Len()
		}
		o.Dims[i] = d
	}
	for i, v := range g.Variables {
		vr := make([]IndexRange, len(v.Dims))
		for j, d := range v.Dims {
			if r, ok := ranges[d]; ok {
				vr[j] = r
			} else {
				vr[j] = IndexRange{Start: 0, End: v.Data.Shape[j]}
			}
		}
		o.Variables[i] = &Variable{
			Name:       v.Name,
			Dims:       append([]string(nil), v.Dims...),
			Attributes: append([]Attribute(nil), v.Attributes...),
			Type:       v.Type,
			Data:       subset(v.Data, vr),
		}
	}
	return o, nil
}

// subset copies the elements of a that fall within the given
// per-axis ranges into a new array.
func subset(a *sparse.DenseArray, ranges []IndexRange) *sparse.DenseArray {
	shape := make([]int, len(ranges))
	n := 1
	for i, r := range ranges {
		shape[i] = r.Len()
		n *= shape[i]
	}
	o := sparse.ZerosDense(shape...)
	if n == 0 {
		return o
	}
	idx := make([]int, len(ranges))
	src := make([]int, len(ranges))
	for i := range o.Elements {
		for j := range idx {
			src[j] = ranges[j].Start + idx[j]
		}
		o.Elements[i] = a.Get(src...)
		// Advance the output index, last axis fastest.
		for j := len(idx) - 1; j >= 0; j-- {
			idx[j]++
			if idx[j] < shape[j] {
				break
			}
			idx[j] = 0
		}
	}
	return o
}

func getAttr(atts []Attribute, name string) interface{} {
	for _, a := range atts {
		if a.Name == name {
			return a.Value
		}
	}
	return nil
}

func setIntAttr(atts []Attribute, name string, n int) []Attribute {
	for i, a := range atts {
		if a.Name != name {
			continue
		}
		switch a.Value.(type) {
		case []int16:
			atts[i].Value = []int16{int16(n)}
		case []float32:
			atts[i].Value = []float32{float32(n)}
		case []float64:
			atts[i].Value = []float64{float64(n)}
		default:
			atts[i].Value = []int32{int32(n)}
		}
		return atts
	}
	return append(atts, Attribute{Name: name, Value: []int32{int32(n)}})
}
