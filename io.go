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
	"os"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"
)

// Load reads the netCDF file at path into memory.
func Load(path string) (*Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("camxmod: opening grid file: %w", err)
	}
	defer f.Close()
	fi, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("camxmod: opening grid file: %w", err)
	}
	g, err := Read(f, fi.Size())
	if err != nil {
		return nil, fmt.Errorf("camxmod: reading %s: %w", path, err)
	}
	return g, nil
}

// Read reads a netCDF dataset of the given size in bytes from rw.
func Read(rw cdf.ReaderWriterAt, size int64) (*Grid, error) {
	f, err := cdf.Open(rw)
	if err != nil {
		return nil, err
	}
	h := f.Header
	nrec := int(h.NumRecs(size))

	g := new(Grid)
	names, lengths := h.Dimensions(""), h.Lengths("")
	for i, name := range names {
		d := Dimension{Name: name, Length: lengths[i]}
		if lengths[i] == 0 {
			d.Record = true
			d.Length = nrec
		}
		g.Dims = append(g.Dims, d)
	}
	for _, a := range h.Attributes("") {
		g.Attributes = append(g.Attributes, Attribute{Name: a, Value: h.GetAttribute("", a)})
	}

	for _, name := range h.Variables() {
		v, err := readVar(f, name, nrec)
		if err != nil {
			return nil, err
		}
		g.Variables = append(g.Variables, v)
	}
	return g, nil
}

func readVar(f *cdf.File, name string, nrec int) (*Variable, error) {
	h := f.Header
	v := &Variable{
		Name: name,
		Dims: h.Dimensions(name),
	}
	for _, a := range h.Attributes(name) {
		v.Attributes = append(v.Attributes, Attribute{Name: a, Value: h.GetAttribute(name, a)})
	}

	dims := append([]int(nil), h.Lengths(name)...)
	record := h.IsRecordVariable(name)
	if record {
		dims[0] = nrec
	}
	n := 1
	for _, d := range dims {
		n *= d
	}
	v.Data = sparse.ZerosDense(dims...)

	buf := h.ZeroValue(name, n)
	if _, ok := buf.(string); ok {
		return nil, fmt.Errorf("variable %s: character variables are not supported", name)
	}
	v.Type = h.ZeroValue(name, 0)
	if n == 0 {
		return v, nil
	}

	var r cdf.Reader
	if record {
		begin, end := make([]int, len(dims)), make([]int, len(dims))
		end[0] = nrec
		r = f.Reader(name, begin, end)
	} else {
		r = f.Reader(name, nil, nil)
	}
	if _, err := r.Read(buf); err != nil {
		return nil, fmt.Errorf("reading variable %s: %w", name, err)
	}

	switch b := buf.(type) {
	case []float32:
		for i, val := range b {
			v.Data.Elements[i] = float64(val)
		}
	case []float64:
		copy(v.Data.Elements, b)
	case []int32:
		for i, val := range b {
			v.Data.Elements[i] = float64(val)
		}
	case []int16:
		for i, val := range b {
			v.Data.Elements[i] = float64(val)
		}
	case []uint8:
		for i, val := range b {
			v.Data.Elements[i] = float64(val)
		}
	default:
		return nil, fmt.Errorf("variable %s: unsupported type %T", name, buf)
	}
	return v, nil
}

// Write writes g to a new netCDF file at path.
func (g *Grid) Write(path string) error {
	names := make([]string, len(g.Dims))
	lengths := make([]int, len(g.Dims))
	for i, d := range g.Dims {
		names[i] = d.Name
		if d.Record {
			continue // length 0 marks the record dimension.
		}
		if d.Length == 0 {
			return fmt.Errorf("camxmod: writing %s: dimension %s has zero length", path, d.Name)
		}
		lengths[i] = d.Length
	}

	h := cdf.NewHeader(names, lengths)
	for _, a := range g.Attributes {
		h.AddAttribute("", a.Name, a.Value)
	}
	for _, v := range g.Variables {
		h.AddVariable(v.Name, v.Dims, v.Type)
		for _, a := range v.Attributes {
			h.AddAttribute(v.Name, a.Name, a.Value)
		}
	}
	h.Define()
	if errs := h.Check(); len(errs) > 0 {
		return fmt.Errorf("camxmod: writing %s: invalid header: %v", path, errs)
	}

	w, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("camxmod: creating grid file: %w", err)
	}
	defer w.Close()

	f, err := cdf.Create(w, h) // writes the header to w
	if err != nil {
		return fmt.Errorf("camxmod: writing %s: %w", path, err)
	}
	for _, v := range g.Variables {
		if err = writeNCF(f, v); err != nil {
			return fmt.Errorf("camxmod: writing variable %s to %s: %w", v.Name, path, err)
		}
	}
	if err = cdf.UpdateNumRecs(w); err != nil {
		return fmt.Errorf("camxmod: writing %s: %w", path, err)
	}
	return w.Close()
}

func writeNCF(f *cdf.File, v *Variable) error {
	// Check that data matches dimensions.
	n := 1
	for _, d := range v.Data.Shape {
		n *= d
	}
	if len(v.Data.Elements) != n {
		return fmt.Errorf("dims are %d but array length is %d", n, len(v.Data.Elements))
	}
	if n == 0 {
		return nil
	}

	var data interface{}
	switch v.Type.(type) {
	case []float32:
		d := make([]float32, n)
		for i, e := range v.Data.Elements {
			d[i] = float32(e)
		}
		data = d
	case []float64:
		data = append([]float64(nil), v.Data.Elements...)
	case []int32:
		d := make([]int32, n)
		for i, e := range v.Data.Elements {
			d[i] = int32(math.Round(e))
		}
		data = d
	case []int16:
		d := make([]int16, n)
		for i, e := range v.Data.Elements {
			d[i] = int16(math.Round(e))
		}
		data = d
	case []uint8:
		d := make([]uint8, n)
		for i, e := range v.Data.Elements {
			d[i] = uint8(math.Round(e))
		}
		data = d
	default:
		return fmt.Errorf("unsupported type %T", v.Type)
	}
	var w cdf.Writer
	if f.Header.IsRecordVariable(v.Name) {
		// Record variables extend the file as they are written.
		w = f.Writer(v.Name, nil, nil)
	} else {
		end := f.Header.Lengths(v.Name)
		start := make([]int, len(end))
		w = f.Writer(v.Name, start, end)
	}
	_, err := w.Write(data)
	return err
}
