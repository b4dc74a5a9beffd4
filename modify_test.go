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
	"reflect"
	"testing"

	"github.com/kr/pretty"
)

func checkDimAttrs(t *testing.T, g *Grid, ncols, nrows, nlays int) {
	t.Helper()
	for _, a := range []struct {
		name string
		want int
	}{{NColsAttr, ncols}, {NRowsAttr, nrows}, {NLaysAttr, nlays}} {
		have, err := g.IntAttr(a.name)
		if err != nil {
			t.Fatal(err)
		}
		if have != a.want {
			t.Errorf("%s: have %d, want %d", a.name, have, a.want)
		}
	}
}

func TestModifyConc(t *testing.T) {
	src := newTestGrid(24, 3, 40, 60, "O3", "NO2")
	before := src.Clone()
	clip, err := NewClipWindow(0, 10, 0, 5, 0, 2)
	if err != nil {
		t.Fatal(err)
	}
	avg, err := NewAveragingWindow([]int{20, 40}, []int{30, 60}, []int{0, 2})
	if err != nil {
		t.Fatal(err)
	}
	m := NewModifier(".")
	g, tables, err := m.ModifyConc(src, clip, avg)
	if err != nil {
		t.Fatal(err)
	}

	checkDimAttrs(t, g, 5, 10, 2)
	for _, name := range []string{"O3", "NO2"} {
		v := g.Var(name)
		if !reflect.DeepEqual(v.Data.Shape, []int{24, 2, 10, 5}) {
			t.Fatalf("%s shape: have %v", name, v.Data.Shape)
		}
		sv := src.Var(name)
		checkPlanes(t, v, func(t, z int) float64 {
			return bruteMean(sv, t, IndexRange{Start: 0, End: 2}, avg.Row, avg.Col)
		})
	}

	// Excluded variables are only clipped.
	if !reflect.DeepEqual(g.Var("TFLAG").Data.Elements, src.Var("TFLAG").Data.Elements) {
		t.Error("TFLAG changed")
	}
	if x := g.Var("X").Data.Elements; !reflect.DeepEqual(x, []float64{0, 4000, 8000, 12000, 16000}) {
		t.Errorf("X: have %v", x)
	}
	if topo := g.Var("topo").Data; topo.Get(9, 4) != src.Var("topo").Data.Get(9, 4) {
		t.Error("topo changed")
	}

	if diff := pretty.Diff(src.Attributes, before.Attributes); len(diff) != 0 {
		t.Errorf("source attributes changed: %v", diff)
	}
	if !reflect.DeepEqual(src.Var("O3").Data.Elements, before.Var("O3").Data.Elements) {
		t.Error("source data changed")
	}

	if len(tables) != 2 {
		t.Fatalf("have %d tables, want 2", len(tables))
	}
	for _, tbl := range tables {
		if len(tbl.Rows) != 24 {
			t.Errorf("%s: have %d rows, want 24", tbl.Name, len(tbl.Rows))
		}
		want := []string{HourColumn, "1", "2", AveragedColumn}
		if !reflect.DeepEqual(tbl.Columns, want) {
			t.Errorf("%s columns: have %v, want %v", tbl.Name, tbl.Columns, want)
		}
		sv := src.Var(tbl.Name)
		for h, row := range tbl.Rows {
			if row[0] != float64(h) {
				t.Errorf("%s hour: have %g, want %d", tbl.Name, row[0], h)
			}
			for k := 0; k < 2; k++ {
				want := bruteMean(sv, h, IndexRange{Start: k, End: k + 1}, avg.Row, avg.Col)
				if different(row[k+1], want, testTolerance) {
					t.Errorf("%s[%d] layer %d: have %g, want %g", tbl.Name, h, k+1, row[k+1], want)
				}
			}
			if want := g.Var(tbl.Name).Data.Get(h, 0, 0, 0); row[3] != want {
				t.Errorf("%s[%d] averaged: have %g, want %g", tbl.Name, h, row[3], want)
			}
		}
	}
}

func TestModifyConcTableRows(t *testing.T) {
	src := newTestGrid(3, 1, 4, 4, "O3")
	clip, _ := NewClipWindow(0, 2, 0, 2, 0, 1)
	avg, _ := NewAveragingWindow([]int{0, 4}, []int{0, 4}, []int{0, 1})
	_, _, err := NewModifier(".").ModifyConc(src, clip, avg)
	if !errors.Is(err, ErrTableRows) {
		t.Errorf("have error %v; want ErrTableRows", err)
	}
}

func TestModifyConcNoLayerWindow(t *testing.T) {
	src := newTestGrid(24, 1, 4, 4, "O3")
	clip, _ := NewClipWindow(0, 2, 0, 2, 0, 1)
	avg, _ := NewAveragingWindow2D([]int{0, 4}, []int{0, 4})
	_, _, err := NewModifier(".").ModifyConc(src, clip, avg)
	var e *InvalidAveragingWindowError
	if !errors.As(err, &e) {
		t.Errorf("have error %v; want InvalidAveragingWindowError", err)
	}
}

func TestModifyKV(t *testing.T) {
	src := newTestGrid(3, 4, 6, 6, "kv")
	clip, _ := NewClipWindow(1, 5, 2, 4, 0, 3)
	g, err := NewModifier(".").ModifyKV(src, clip)
	if err != nil {
		t.Fatal(err)
	}
	checkDimAttrs(t, g, 2, 4, 3)
	checkPlanes(t, g.Var("kv"), func(t, z int) float64 { return 0.1 })
	if s := g.Var("kv").Data.Shape; !reflect.DeepEqual(s, []int{3, 3, 4, 2}) {
		t.Errorf("shape: have %v", s)
	}
}

// met2dTestVars and met3dTestVars hold every variable named by the default
// rules, plus one variable without a rule.
var (
	met2dTestVars = []string{"pblwrf", "pblcmaq", "pblysu", "snowewd", "snowage",
		"tcloudod", "preciprate", "cloudtop", "temp2"}
	met3dTestVars = []string{"z", "uwind", "vwind", "cloudwater", "rainwater",
		"grplwater", "cloudod", "temp"}
)

func modifyTestMet2D(t *testing.T) (src, g *Grid, tables []*Table, clip ClipWindow, avg AveragingWindow) {
	t.Helper()
	src = newTestGrid(25, 1, 6, 8, met2dTestVars...)
	var err error
	if clip, err = NewClipWindow(1, 4, 2, 6, 1, 3); err != nil {
		t.Fatal(err)
	}
	if avg, err = NewAveragingWindow([]int{0, 3}, []int{0, 4}, []int{0, 2}); err != nil {
		t.Fatal(err)
	}
	g, tables, err = NewModifier(".").ModifyMet2D(src, clip, avg)
	if err != nil {
		t.Fatal(err)
	}
	return
}

func TestModifyMet2D(t *testing.T) {
	src, g, tables, _, avg := modifyTestMet2D(t)

	// The layer axis is not clipped, but the layer count is still set.
	checkDimAttrs(t, g, 4, 3, 2)
	if s := g.Var("temp2").Data.Shape; !reflect.DeepEqual(s, []int{25, 1, 3, 4}) {
		t.Errorf("shape: have %v", s)
	}
	all := IndexRange{Start: 0, End: 1}
	checkPlanes(t, g.Var("temp2"), func(t, z int) float64 {
		return bruteMean(src.Var("temp2"), t, all, avg.Row, avg.Col)
	})
	checkPlanes(t, g.Var("snowewd"), func(t, z int) float64 { return 0 })
	for i, v := range g.Var("pblwrf").Data.Elements {
		if v < 2500 {
			t.Fatalf("pblwrf element %d = %g; want >= 2500", i, v)
		}
	}

	if len(tables) != 1 {
		t.Fatalf("have %d tables, want 1", len(tables))
	}
	tbl := tables[0]
	if tbl.Name != CombinedTableName || len(tbl.Rows) != 25 {
		t.Errorf("table %s has %d rows", tbl.Name, len(tbl.Rows))
	}
	if want := append([]string{HourColumn}, met2dTestVars...); !reflect.DeepEqual(tbl.Columns, want) {
		t.Errorf("columns: have %v, want %v", tbl.Columns, want)
	}
	// Table values are the means before the rules are applied.
	for h, row := range tbl.Rows {
		want := bruteMean(src.Var("pblwrf"), h, all, avg.Row, avg.Col)
		if different(row[1], want, testTolerance) {
			t.Errorf("pblwrf[%d]: have %g, want %g", h, row[1], want)
		}
	}
}

func TestModifyMet3D(t *testing.T) {
	// The clip window starts at layer 1, but the layer axis is not clipped.
	_, met2d, _, clip, avg := modifyTestMet2D(t)
	src := newTestGrid(25, 4, 6, 8, met3dTestVars...)
	g, tables, err := NewModifier(".").ModifyMet3D(src, met2d, clip, avg)
	if err != nil {
		t.Fatal(err)
	}

	checkDimAttrs(t, g, 4, 3, 2)
	if s := g.Var("temp").Data.Shape; !reflect.DeepEqual(s, []int{25, 4, 3, 4}) {
		t.Fatalf("shape: have %v", s)
	}
	temp := src.Var("temp")
	checkPlanes(t, g.Var("temp"), func(t, z int) float64 {
		return bruteMean(temp, t, IndexRange{Start: z, End: z + 1}, avg.Row, avg.Col)
	})
	checkPlanes(t, g.Var("uwind"), func(t, z int) float64 { return 0 })
	checkPlanes(t, g.Var("vwind"), func(t, z int) float64 { return 0.0926 })
	checkPlanes(t, g.Var("cloudwater"), func(t, z int) float64 { return 0 })

	// Source layer 0 gets the boundary layer height and source layer 1
	// gets 3000 m. The other layers of z are only clipped.
	z, srcZ := g.Var("z").Data, src.Var("z").Data
	for tt := 0; tt < 25; tt++ {
		for j := 0; j < 3; j++ {
			for i := 0; i < 4; i++ {
				if have := z.Get(tt, 0, j, i); have != 2500 {
					t.Fatalf("z[%d,0,%d,%d] = %g; want 2500", tt, j, i, have)
				}
				if have := z.Get(tt, 1, j, i); have != 3000 {
					t.Fatalf("z[%d,1,%d,%d] = %g; want 3000", tt, j, i, have)
				}
				for k := 2; k < 4; k++ {
					if have, want := z.Get(tt, k, j, i), srcZ.Get(tt, k, j+1, i+2); have != want {
						t.Fatalf("z[%d,%d,%d,%d] = %g; want %g", tt, k, j, i, have, want)
					}
				}
			}
		}
	}

	// z is excluded from averaging, so it has no table.
	if len(tables) != len(met3dTestVars)-1 {
		t.Fatalf("have %d tables, want %d", len(tables), len(met3dTestVars)-1)
	}
	tbl := tables[len(tables)-1]
	if tbl.Name != "temp" {
		t.Fatalf("table name: have %s, want temp", tbl.Name)
	}
	if want := []string{HourColumn, "1", "2", "3", "4", AveragedColumn}; !reflect.DeepEqual(tbl.Columns, want) {
		t.Errorf("columns: have %v, want %v", tbl.Columns, want)
	}
	// The averaged column spans every source layer, not the layer
	// averaging window.
	for h, row := range tbl.Rows {
		want := bruteMean(temp, h, IndexRange{Start: 0, End: 4}, avg.Row, avg.Col)
		if different(row[5], want, testTolerance) {
			t.Errorf("averaged[%d]: have %g, want %g", h, row[5], want)
		}
	}

	if _, _, err := NewModifier(".").ModifyMet3D(src, nil, clip, avg); err == nil {
		t.Error("expected error for missing 2D grid")
	}
}

func TestLayerSummaryWithoutLayerWindow(t *testing.T) {
	k := &Kind{
		Name:       "surface",
		Excluded:   ExcludedVariables,
		ClipLayers: true,
		Broadcast:  BroadcastSurface,
		Summary:    PerVariable,
		Hours:      3,
	}
	src := newTestGrid(3, 2, 4, 4, "O3")
	clip, _ := NewClipWindow(0, 2, 0, 2, 0, 2)
	avg, _ := NewAveragingWindow2D([]int{0, 4}, []int{0, 4})
	g, tables, err := k.Transform(src, clip, avg, nil)
	if err != nil {
		t.Fatal(err)
	}
	o3 := src.Var("O3")
	checkPlanes(t, g.Var("O3"), func(t, z int) float64 {
		return bruteMean(o3, t, IndexRange{Start: 0, End: 1}, avg.Row, avg.Col)
	})
	if len(tables) != 1 {
		t.Fatalf("have %d tables, want 1", len(tables))
	}
	for h, row := range tables[0].Rows {
		want := bruteMean(o3, h, IndexRange{Start: 0, End: 2}, avg.Row, avg.Col)
		if different(row[3], want, testTolerance) {
			t.Errorf("averaged[%d]: have %g, want %g", h, row[3], want)
		}
	}
}

func checkTablesEqual(t *testing.T, a, b []*Table) {
	t.Helper()
	if len(a) != len(b) {
		t.Fatalf("have %d and %d tables", len(a), len(b))
	}
	for i := range a {
		if diff := pretty.Diff(a[i], b[i]); len(diff) != 0 {
			t.Errorf("table %s: %v", a[i].Name, diff)
		}
	}
}

// checkSameValues checks that the first cell of every (t, z) plane of
// variable name is the same in a and b.
func checkSameValues(t *testing.T, a, b *Grid, name string) {
	t.Helper()
	va, vb := a.Var(name).Data, b.Var(name).Data
	if va.Shape[0] != vb.Shape[0] || va.Shape[1] != vb.Shape[1] {
		t.Fatalf("%s: shapes %v and %v", name, va.Shape, vb.Shape)
	}
	for tt := 0; tt < va.Shape[0]; tt++ {
		for z := 0; z < va.Shape[1]; z++ {
			if x, y := va.Get(tt, z, 0, 0), vb.Get(tt, z, 0, 0); x != y {
				t.Fatalf("%s[%d,%d]: %g and %g", name, tt, z, x, y)
			}
		}
	}
}

func TestClipDoesNotChangeMeans(t *testing.T) {
	avg, _ := NewAveragingWindow([]int{2, 6}, []int{3, 9}, []int{0, 2})
	clipA, _ := NewClipWindow(0, 4, 0, 5, 0, 2)
	clipB, _ := NewClipWindow(3, 10, 4, 12, 0, 2)
	m := NewModifier(".")

	t.Run("conc", func(t *testing.T) {
		src := newTestGrid(24, 3, 12, 12, "O3", "NO2")
		a, tablesA, err := m.ModifyConc(src, clipA, avg)
		if err != nil {
			t.Fatal(err)
		}
		b, tablesB, err := m.ModifyConc(src, clipB, avg)
		if err != nil {
			t.Fatal(err)
		}
		checkTablesEqual(t, tablesA, tablesB)
		checkSameValues(t, a, b, "O3")
		checkSameValues(t, a, b, "NO2")
	})
	t.Run("met3d", func(t *testing.T) {
		src := newTestGrid(25, 4, 12, 12, "temp", "uwind")
		m.Kinds[Met3D].Rules = nil
		a, tablesA, err := m.ModifyMet3D(src, nil, clipA, avg)
		if err != nil {
			t.Fatal(err)
		}
		b, tablesB, err := m.ModifyMet3D(src, nil, clipB, avg)
		if err != nil {
			t.Fatal(err)
		}
		checkTablesEqual(t, tablesA, tablesB)
		checkSameValues(t, a, b, "temp")
		checkSameValues(t, a, b, "uwind")
	})
}

func TestAveragingWindowDoesNotChangeClip(t *testing.T) {
	src := newTestGrid(24, 3, 12, 12, "O3")
	clip, _ := NewClipWindow(1, 5, 2, 8, 0, 2)
	avgA, _ := NewAveragingWindow([]int{0, 4}, []int{0, 4}, []int{0, 2})
	avgB, _ := NewAveragingWindow([]int{6, 12}, []int{5, 11}, []int{1, 3})
	m := NewModifier(".")
	a, _, err := m.ModifyConc(src, clip, avgA)
	if err != nil {
		t.Fatal(err)
	}
	b, _, err := m.ModifyConc(src, clip, avgB)
	if err != nil {
		t.Fatal(err)
	}
	if diff := pretty.Diff(a.Dims, b.Dims); len(diff) != 0 {
		t.Errorf("dimensions: %v", diff)
	}
	if diff := pretty.Diff(a.Attributes, b.Attributes); len(diff) != 0 {
		t.Errorf("attributes: %v", diff)
	}
	for _, name := range []string{"TFLAG", "X", "topo"} {
		if !reflect.DeepEqual(a.Var(name).Data.Elements, b.Var(name).Data.Elements) {
			t.Errorf("%s differs", name)
		}
	}
	o3 := src.Var("O3")
	for tt := 0; tt < 24; tt++ {
		wantA := bruteMean(o3, tt, *avgA.Layer, avgA.Row, avgA.Col)
		wantB := bruteMean(o3, tt, *avgB.Layer, avgB.Row, avgB.Col)
		if have := a.Var("O3").Data.Get(tt, 0, 0, 0); different(have, wantA, testTolerance) {
			t.Errorf("window A [%d]: have %g, want %g", tt, have, wantA)
		}
		if have := b.Var("O3").Data.Get(tt, 0, 0, 0); different(have, wantB, testTolerance) {
			t.Errorf("window B [%d]: have %g, want %g", tt, have, wantB)
		}
	}
}

func TestCustomKinds(t *testing.T) {
	src := newTestGrid(3, 2, 4, 4, "kv")
	clip, _ := NewClipWindow(0, 2, 0, 2, 0, 2)
	m := NewModifier(".")
	m.Kinds[KV].Rules = []Rule{{Type: ConstantRule, Variables: []string{"kv"}, Value: 0.5}}
	g, err := m.ModifyKV(src, clip)
	if err != nil {
		t.Fatal(err)
	}
	checkPlanes(t, g.Var("kv"), func(t, z int) float64 { return 0.5 })

	// Default kinds are independent of each other.
	if r := DefaultKinds()[KV].Rules[0].Value; r != 0.1 {
		t.Errorf("default kv rule value changed to %g", r)
	}

	delete(m.Kinds, KV)
	if _, err := m.ModifyKV(src, clip); err == nil {
		t.Error("expected error for unknown kind")
	}
}
