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
	"strings"

	"github.com/ctessum/unit"
)

// RuleType specifies what a post-processing Rule does.
type RuleType string

// Post-processing rule types.
const (
	// ConstantRule sets every value of Variables to Value.
	ConstantRule RuleType = "constant"

	// FloorRule raises every value of Variables that is below Value
	// to Value.
	FloorRule RuleType = "floor"

	// LayerRule sets layer Layer of each of Variables to Value.
	LayerRule RuleType = "layer"

	// CopyLayerRule sets layer Layer of each of Variables to layer
	// SourceLayer of variable Source in the companion grid.
	CopyLayerRule RuleType = "copy-layer"
)

// Rule is a variable-specific override that is applied to a grid after
// broadcast replacement.
type Rule struct {
	Type      RuleType `toml:"type"`
	Variables []string `toml:"variables"`
	Value     float64  `toml:"value"`

	// Units optionally gives the units of Value, e.g. "m" or "m/s".
	// If both Units and the units attribute of a variable are
	// recognized, their dimensions must match.
	Units string `toml:"units"`

	Layer       int    `toml:"layer"`
	Source      string `toml:"source"`
	SourceLayer int    `toml:"source_layer"`
}

// Apply applies r to g. companion is only used by CopyLayerRule.
// Layers outside of g are skipped.
func (r Rule) Apply(g, companion *Grid) error {
	value, err := r.quantity()
	if err != nil {
		return err
	}
	for _, name := range r.Variables {
		v := g.Var(name)
		if v == nil {
			return fmt.Errorf("camxmod: %s rule: grid has no variable %s", r.Type, name)
		}
		if value != nil {
			if d, ok := parseUnits(v.Attr("units")); ok {
				if err := value.Check(d); err != nil {
					return fmt.Errorf("camxmod: %s rule for %s: %v", r.Type, name, err)
				}
			}
		}
		switch r.Type {
		case ConstantRule:
			v.Fill(r.Value)
		case FloorRule:
			for i, e := range v.Data.Elements {
				if e < r.Value {
					v.Data.Elements[i] = r.Value
				}
			}
		case LayerRule:
			if err := setLayer(v, r.Layer, func(t, j, i int) float64 { return r.Value }); err != nil {
				return err
			}
		case CopyLayerRule:
			if err := r.copyLayer(v, companion); err != nil {
				return err
			}
		default:
			return fmt.Errorf("camxmod: invalid rule type %q", r.Type)
		}
	}
	return nil
}

func (r Rule) copyLayer(v *Variable, companion *Grid) error {
	if companion == nil {
		return fmt.Errorf("camxmod: %s rule for %s needs a companion grid", r.Type, v.Name)
	}
	src := companion.Var(r.Source)
	if src == nil {
		return fmt.Errorf("camxmod: %s rule for %s: companion grid has no variable %s", r.Type, v.Name, r.Source)
	}
	if !src.HasDims(TimeDim, LayerDim, RowDim, ColDim) {
		return fmt.Errorf("camxmod: %s rule: cannot copy from %s with dimensions %v", r.Type, src.Name, src.Dims)
	}
	ss, vs := src.Data.Shape, v.Data.Shape
	if ss[0] != vs[0] || ss[2] != vs[2] || ss[3] != vs[3] {
		return fmt.Errorf("camxmod: %s rule: shape of %s %v does not match shape of %s %v",
			r.Type, src.Name, ss, v.Name, vs)
	}
	if r.SourceLayer < 0 || r.SourceLayer >= ss[1] {
		return fmt.Errorf("camxmod: %s rule: layer %d not in %s with %d layers", r.Type, r.SourceLayer, src.Name, ss[1])
	}
	return setLayer(v, r.Layer, func(t, j, i int) float64 {
		return src.Data.Get(t, r.SourceLayer, j, i)
	})
}

// setLayer sets layer k of the (TSTEP, LAY, ROW, COL) variable v
// using the values returned by f. Nothing is done if v has no layer k.
// Elements are assigned directly because DenseArray.Set skips zeros.
func setLayer(v *Variable, k int, f func(t, j, i int) float64) error {
	if !v.HasDims(TimeDim, LayerDim, RowDim, ColDim) {
		return fmt.Errorf("camxmod: cannot set a layer of %s with dimensions %v", v.Name, v.Dims)
	}
	s := v.Data.Shape
	if k < 0 || k >= s[1] {
		return nil
	}
	for t := 0; t < s[0]; t++ {
		for j := 0; j < s[2]; j++ {
			for i := 0; i < s[3]; i++ {
				v.Data.Elements[v.Data.Index1d(t, k, j, i)] = f(t, j, i)
			}
		}
	}
	return nil
}

// quantity returns Value with the dimensions given by Units, or nil if
// Units is empty.
func (r Rule) quantity() (*unit.Unit, error) {
	if r.Units == "" {
		return nil, nil
	}
	d, ok := parseUnits(r.Units)
	if !ok {
		return nil, fmt.Errorf("camxmod: %s rule: unknown units %q", r.Type, r.Units)
	}
	return unit.New(r.Value, d), nil
}

var knownUnits = map[string]unit.Dimensions{
	"m":      unit.Meter,
	"m/s":    unit.MeterPerSecond,
	"m s-1":  unit.MeterPerSecond,
	"ms-1":   unit.MeterPerSecond,
	"m2/s":   {unit.LengthDim: 2, unit.TimeDim: -1},
	"m2 s-1": {unit.LengthDim: 2, unit.TimeDim: -1},
	"s":      unit.Second,
	"k":      unit.Kelvin,
}

// parseUnits interprets a units string or attribute value.
// CAMx pads attribute strings with spaces.
func parseUnits(u interface{}) (unit.Dimensions, bool) {
	s, ok := u.(string)
	if !ok {
		return nil, false
	}
	d, ok := knownUnits[strings.ToLower(strings.TrimSpace(s))]
	return d, ok
}
