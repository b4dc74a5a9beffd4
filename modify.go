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
	"path/filepath"

	"github.com/ctessum/sparse"
	"github.com/sirupsen/logrus"
)

// reduction holds the reduced values of one variable.
type reduction struct {
	full   *sparse.DenseArray // (TSTEP)
	layers *sparse.DenseArray // (TSTEP, layer)
}

// Transform clips src to clip, replaces each reducible variable with its
// mean over avg, applies the rules of k and builds the summary tables.
// companion is the grid used by copy-layer rules and may be nil otherwise.
// src is not modified.
func (k *Kind) Transform(src *Grid, clip ClipWindow, avg AveragingWindow, companion *Grid) (*Grid, []*Table, error) {
	if k.needsLayerWindow() && avg.Layer == nil {
		return nil, nil, &InvalidAveragingWindowError{Axis: "layer"}
	}
	excluded := excludedSet(k.Excluded)

	// Means are taken over src, not the clipped grid.
	reduced := make(map[string]reduction)
	var order []string
	for _, v := range src.Variables {
		if !Reducible(v, excluded) {
			continue
		}
		r, err := k.reduce(v, avg)
		if err != nil {
			return nil, nil, fmt.Errorf("camxmod: %s: averaging %s: %w", k.Name, v.Name, err)
		}
		if r == nil {
			continue
		}
		reduced[v.Name] = *r
		order = append(order, v.Name)
	}

	out, err := src.Window(clip.ranges(k.ClipLayers))
	if err != nil {
		return nil, nil, fmt.Errorf("camxmod: %s: clipping grid: %w", k.Name, err)
	}

	for _, name := range order {
		r := reduced[name]
		v := out.Var(name)
		switch k.Broadcast {
		case BroadcastFull:
			err = Replace(v, r.full, 0)
		case BroadcastSurface:
			err = Replace(v, surface(r.layers), 0)
		case BroadcastLayers:
			err = Replace(v, r.layers, k.layerOffset(clip))
		}
		if err != nil {
			return nil, nil, err
		}
	}

	for _, rule := range k.Rules {
		if err := rule.Apply(out, companion); err != nil {
			return nil, nil, fmt.Errorf("camxmod: %s: %w", k.Name, err)
		}
	}

	out.SetIntAttr(NColsAttr, clip.Col.Len())
	out.SetIntAttr(NRowsAttr, clip.Row.Len())
	out.SetIntAttr(NLaysAttr, clip.Layer.Len())

	tables, err := k.tables(order, reduced, avg)
	if err != nil {
		return nil, nil, err
	}
	return out, tables, nil
}

// reduce computes the reduced values of v needed by k, or nil if k
// does not average.
func (k *Kind) reduce(v *Variable, avg AveragingWindow) (*reduction, error) {
	var r reduction
	var err error
	switch k.Broadcast {
	case NoBroadcast:
		return nil, nil
	case BroadcastFull:
		if r.full, err = avg.Mean(v); err != nil {
			return nil, err
		}
		if k.Summary == PerVariable {
			if r.layers, err = avg.LayerMean(v); err != nil {
				return nil, err
			}
		}
	case BroadcastSurface, BroadcastLayers:
		if r.layers, err = avg.AllLayers().LayerMean(v); err != nil {
			return nil, err
		}
		if k.Summary == PerVariable {
			r.full = layerAverage(r.layers)
		}
	default:
		return nil, fmt.Errorf("invalid broadcast mode %d", k.Broadcast)
	}
	return &r, nil
}

func (k *Kind) tables(order []string, reduced map[string]reduction, avg AveragingWindow) ([]*Table, error) {
	switch k.Summary {
	case NoSummary:
		return nil, nil
	case PerVariable:
		var first int
		if k.Broadcast == BroadcastFull {
			first = avg.Layer.Start
		}
		tables := make([]*Table, 0, len(order))
		for _, name := range order {
			r := reduced[name]
			t, err := LayerTable(name, k.Hours, r.layers, first, r.full)
			if err != nil {
				return nil, fmt.Errorf("camxmod: %s: %w", k.Name, err)
			}
			tables = append(tables, t)
		}
		return tables, nil
	case Combined:
		values := make([]*sparse.DenseArray, len(order))
		for i, name := range order {
			values[i] = surface(reduced[name].layers)
		}
		t, err := CombinedTable(CombinedTableName, k.Hours, order, values)
		if err != nil {
			return nil, fmt.Errorf("camxmod: %s: %w", k.Name, err)
		}
		return []*Table{t}, nil
	default:
		return nil, fmt.Errorf("camxmod: %s: invalid summary style %d", k.Name, k.Summary)
	}
}

// Modifier runs the field kind transforms and writes their results.
type Modifier struct {
	// Dir is the output directory.
	Dir string

	Log logrus.FieldLogger

	// Kinds holds the configuration of each field kind, keyed by name.
	Kinds map[string]*Kind
}

// NewModifier returns a Modifier that writes to dir using the default
// field kinds and the standard logger.
func NewModifier(dir string) *Modifier {
	return &Modifier{
		Dir:   dir,
		Log:   logrus.StandardLogger(),
		Kinds: DefaultKinds(),
	}
}

func (m *Modifier) transform(kind string, src *Grid, clip ClipWindow, avg AveragingWindow, companion *Grid) (*Grid, []*Table, error) {
	k, ok := m.Kinds[kind]
	if !ok {
		return nil, nil, fmt.Errorf("camxmod: unknown field kind %q", kind)
	}
	m.Log.WithFields(logrus.Fields{
		"kind":  kind,
		"rows":  fmt.Sprintf("%d-%d", clip.Row.Start, clip.Row.End),
		"cols":  fmt.Sprintf("%d-%d", clip.Col.Start, clip.Col.End),
		"lays":  fmt.Sprintf("%d-%d", clip.Layer.Start, clip.Layer.End),
		"rules": len(k.Rules),
	}).Info("camxmod transforming grid")
	g, tables, err := k.Transform(src, clip, avg, companion)
	if err != nil {
		return nil, nil, err
	}
	m.Log.WithFields(logrus.Fields{
		"kind":   kind,
		"tables": len(tables),
	}).Debug("camxmod transformed grid")
	return g, tables, nil
}

// ModifyConc clips and averages a concentration grid.
func (m *Modifier) ModifyConc(src *Grid, clip ClipWindow, avg AveragingWindow) (*Grid, []*Table, error) {
	return m.transform(Conc, src, clip, avg, nil)
}

// ModifyKV clips a vertical mixing coefficient grid.
func (m *Modifier) ModifyKV(src *Grid, clip ClipWindow) (*Grid, error) {
	g, _, err := m.transform(KV, src, clip, AveragingWindow{}, nil)
	return g, err
}

// ModifyMet2D clips and averages a 2D meteorology grid.
func (m *Modifier) ModifyMet2D(src *Grid, clip ClipWindow, avg AveragingWindow) (*Grid, []*Table, error) {
	return m.transform(Met2D, src, clip, avg, nil)
}

// ModifyMet3D clips and averages a 3D meteorology grid. met2d is the
// output of ModifyMet2D for the same clip window.
func (m *Modifier) ModifyMet3D(src, met2d *Grid, clip ClipWindow, avg AveragingWindow) (*Grid, []*Table, error) {
	return m.transform(Met3D, src, clip, avg, met2d)
}

// WriteGrid writes g to name.nc in the output directory.
func (m *Modifier) WriteGrid(g *Grid, name string) error {
	path := filepath.Join(m.Dir, name+".nc")
	m.Log.WithField("path", path).Info("camxmod writing grid")
	return g.Write(path)
}

// WriteTables writes tables to name.xlsx in the output directory.
func (m *Modifier) WriteTables(tables []*Table, name string) error {
	path := filepath.Join(m.Dir, name+".xlsx")
	m.Log.WithField("path", path).Info("camxmod writing tables")
	return WriteTables(tables, path)
}
