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

package camxutil

import (
	"fmt"

	"github.com/aliakherati/camxmod"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var clipOptions = []string{"directory", "rowstart", "rowend", "colstart", "colend", "laystart", "layend", "outputdir", "outputname"}

// requiredOptions returns the options that must be set to modify a file
// of the given kind.
func requiredOptions(kind string) []string {
	o := append([]string{"filename"}, clipOptions...)
	switch kind {
	case camxmod.Conc:
		o = append(o, "rowindexavg", "columnindexavg", "layerindexavg")
	case camxmod.Met2D:
		o = append(o, "rowindexavg", "columnindexavg")
	case camxmod.Met3D:
		o = append(o, "fnamemet2d", "rowindexavg", "columnindexavg", "layerindexavg")
	}
	return o
}

// job holds the validated inputs of a run.
type job struct {
	m    *camxmod.Modifier
	clip camxmod.ClipWindow
	avg  camxmod.AveragingWindow
	plot bool
}

// newJob validates the configuration. All of the checks are done before
// any input files are read.
func (cfg *Cfg) newJob(cmd *cobra.Command, layerAvg, anyAvg bool, required ...string) (*job, error) {
	if err := cfg.checkRequired(cmd, required...); err != nil {
		return nil, err
	}
	j := &job{plot: cfg.GetBool("plot")}
	var err error
	if anyAvg {
		if j.avg, err = cfg.averagingWindow(layerAvg); err != nil {
			return nil, err
		}
	}
	if j.clip, err = cfg.clipWindow(); err != nil {
		return nil, err
	}
	if j.m, err = cfg.modifier(); err != nil {
		return nil, err
	}
	return j, nil
}

// runSingle modifies the file given by the filename option.
func (cfg *Cfg) runSingle(cmd *cobra.Command, kind string) error {
	layerAvg := kind == camxmod.Conc || kind == camxmod.Met3D
	j, err := cfg.newJob(cmd, layerAvg, kind != camxmod.KV, requiredOptions(kind)...)
	if err != nil {
		return err
	}
	name := cfg.GetString("outputname")
	src, err := load(j.m, cfg.inputPath("filename"))
	if err != nil {
		return err
	}
	switch kind {
	case camxmod.Conc:
		return j.conc(src, name)
	case camxmod.KV:
		return j.kv(src, name)
	case camxmod.Met2D:
		_, err = j.met2d(src, name, true)
		return err
	case camxmod.Met3D:
		src2D, err := load(j.m, cfg.inputPath("fnamemet2d"))
		if err != nil {
			return err
		}
		met2d, err := j.met2d(src2D, "", false)
		if err != nil {
			return err
		}
		return j.met3d(src, met2d, name)
	default:
		return fmt.Errorf("camxmod: unknown field kind %q", kind)
	}
}

// runAll modifies the concentration, vertical mixing coefficient and
// meteorology files in sequence.
func (cfg *Cfg) runAll(cmd *cobra.Command) error {
	required := append([]string{"fnameconc", "fnamekv", "fnamemet2d", "fnamemet3d",
		"rowindexavg", "columnindexavg", "layerindexavg"}, clipOptions...)
	j, err := cfg.newJob(cmd, true, true, required...)
	if err != nil {
		return err
	}
	name := cfg.GetString("outputname")

	src, err := load(j.m, cfg.inputPath("fnameconc"))
	if err != nil {
		return err
	}
	if err = j.conc(src, name+"_"+camxmod.Conc); err != nil {
		return err
	}

	if src, err = load(j.m, cfg.inputPath("fnamekv")); err != nil {
		return err
	}
	if err = j.kv(src, name+"_"+camxmod.KV); err != nil {
		return err
	}

	if src, err = load(j.m, cfg.inputPath("fnamemet2d")); err != nil {
		return err
	}
	met2d, err := j.met2d(src, name+"_"+camxmod.Met2D, true)
	if err != nil {
		return err
	}

	if src, err = load(j.m, cfg.inputPath("fnamemet3d")); err != nil {
		return err
	}
	return j.met3d(src, met2d, name+"_"+camxmod.Met3D)
}

func load(m *camxmod.Modifier, path string) (*camxmod.Grid, error) {
	m.Log.WithField("path", path).Info("camxmod reading grid")
	return camxmod.Load(path)
}

func (j *job) conc(src *camxmod.Grid, name string) error {
	g, tables, err := j.m.ModifyConc(src, j.clip, j.avg)
	if err != nil {
		return err
	}
	return j.write(g, tables, name)
}

func (j *job) kv(src *camxmod.Grid, name string) error {
	g, err := j.m.ModifyKV(src, j.clip)
	if err != nil {
		return err
	}
	return j.write(g, nil, name)
}

// met2d modifies a 2D meteorology grid, writing the result only if write
// is true.
func (j *job) met2d(src *camxmod.Grid, name string, write bool) (*camxmod.Grid, error) {
	g, tables, err := j.m.ModifyMet2D(src, j.clip, j.avg)
	if err != nil {
		return nil, err
	}
	if !write {
		return g, nil
	}
	return g, j.write(g, tables, name)
}

func (j *job) met3d(src, met2d *camxmod.Grid, name string) error {
	g, tables, err := j.m.ModifyMet3D(src, met2d, j.clip, j.avg)
	if err != nil {
		return err
	}
	return j.write(g, tables, name)
}

// write writes g and, if there are any, the summary tables and plots.
func (j *job) write(g *camxmod.Grid, tables []*camxmod.Table, name string) error {
	if err := j.m.WriteGrid(g, name); err != nil {
		return err
	}
	if len(tables) == 0 {
		return nil
	}
	if err := j.m.WriteTables(tables, name); err != nil {
		return err
	}
	if !j.plot {
		return nil
	}
	paths, err := camxmod.PlotTables(tables, j.m.Dir, name)
	if err != nil {
		return err
	}
	j.m.Log.WithFields(logrus.Fields{
		"name":  name,
		"plots": len(paths),
	}).Info("camxmod wrote plots")
	return nil
}
