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

// Names of the field kinds.
const (
	Conc  = "conc"
	KV    = "kv"
	Met2D = "met2d"
	Met3D = "met3d"
)

// Broadcast specifies which reduced value is written over the clipped
// grid.
type Broadcast int

const (
	// NoBroadcast only clips the grid.
	NoBroadcast Broadcast = iota

	// BroadcastFull writes the mean over the rows, columns and layers of
	// the averaging window to every layer.
	BroadcastFull

	// BroadcastSurface writes the first-layer row and column mean to every
	// layer.
	BroadcastSurface

	// BroadcastLayers writes the row and column mean of each source layer
	// to the matching output layer.
	BroadcastLayers
)

// SummaryStyle specifies the shape of the summary tables of a field kind.
type SummaryStyle int

const (
	// NoSummary produces no tables.
	NoSummary SummaryStyle = iota

	// PerVariable produces one table per variable with one column per layer
	// and an averaged column.
	PerVariable

	// Combined produces a single table with one column per variable.
	Combined
)

// CombinedTableName is the name of the table produced by the Combined
// summary style.
const CombinedTableName = "all"

// Kind holds the configuration of a field kind.
type Kind struct {
	Name string

	// Excluded lists the variables that are never averaged or replaced.
	Excluded []string

	// ClipLayers specifies whether the layer axis is clipped. When false,
	// every layer is kept but the layer count attribute is still set from
	// the clip window.
	ClipLayers bool

	Broadcast Broadcast
	Summary   SummaryStyle

	// Hours is the number of rows in each summary table.
	Hours int

	// Rules are applied in order after broadcast replacement.
	Rules []Rule
}

// needsLayerWindow reports whether the transform of k requires
// a layer averaging window. Layer-preserving reductions always span
// every layer.
func (k *Kind) needsLayerWindow() bool {
	return k.Broadcast == BroadcastFull
}

// layerOffset returns the source layer of output layer 0.
func (k *Kind) layerOffset(clip ClipWindow) int {
	if k.ClipLayers {
		return clip.Layer.Start
	}
	return 0
}

// DefaultKinds returns the standard configuration of each field kind,
// keyed by name.
func DefaultKinds() map[string]*Kind {
	return map[string]*Kind{
		Conc: {
			Name:       Conc,
			Excluded:   ExcludedVariables,
			ClipLayers: true,
			Broadcast:  BroadcastFull,
			Summary:    PerVariable,
			Hours:      24,
		},
		KV: {
			Name:       KV,
			Excluded:   ExcludedVariables,
			ClipLayers: true,
			Broadcast:  NoBroadcast,
			Summary:    NoSummary,
			Rules: []Rule{
				{Type: ConstantRule, Variables: []string{"kv"}, Value: 0.1},
			},
		},
		Met2D: {
			Name:      Met2D,
			Excluded:  ExcludedVariables,
			Broadcast: BroadcastSurface,
			Summary:   Combined,
			Hours:     25,
			Rules: []Rule{
				{Type: ConstantRule, Variables: []string{"snowewd", "snowage", "tcloudod", "preciprate", "cloudtop"}},
				{Type: FloorRule, Variables: []string{"pblwrf", "pblcmaq", "pblysu"}, Value: 100, Units: "m"},
				{Type: FloorRule, Variables: []string{"pblwrf", "pblcmaq", "pblysu"}, Value: 2500, Units: "m"},
			},
		},
		Met3D: {
			Name:      Met3D,
			Excluded:  ExcludedVariables,
			Broadcast: BroadcastLayers,
			Summary:    PerVariable,
			Hours:      25,
			Rules: []Rule{
				{Type: ConstantRule, Variables: []string{"cloudwater", "rainwater", "grplwater", "cloudod"}},
				{Type: LayerRule, Variables: []string{"z"}, Layer: 1, Value: 3000, Units: "m"},
				{Type: CopyLayerRule, Variables: []string{"z"}, Layer: 0, Source: "pblwrf", SourceLayer: 0},
				{Type: ConstantRule, Variables: []string{"uwind"}, Units: "m/s"},
				{Type: ConstantRule, Variables: []string{"vwind"}, Value: 0.0926, Units: "m/s"},
			},
		},
	}
}
