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
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// PlotTables writes a line chart of each table to a PNG file
// called prefix_<table name>.png in dir, with the hour on the
// horizontal axis and one line per column. It returns the paths of the
// files that were written.
func PlotTables(tables []*Table, dir, prefix string) ([]string, error) {
	var paths []string
	for _, t := range tables {
		p, err := plot.New()
		if err != nil {
			return paths, err
		}
		p.Title.Text = t.Name
		p.X.Label.Text = "Hour"
		p.Legend.Top = true

		var lines []interface{}
		for j := 1; j < len(t.Columns); j++ {
			xy := make(plotter.XYs, len(t.Rows))
			n := 0
			for _, r := range t.Rows {
				if math.IsNaN(r[j]) || math.IsInf(r[j], 0) {
					continue
				}
				xy[n].X = r[0]
				xy[n].Y = r[j]
				n++
			}
			if n == 0 {
				continue
			}
			lines = append(lines, t.Columns[j], xy[:n])
		}
		if err = plotutil.AddLinePoints(p, lines...); err != nil {
			return paths, fmt.Errorf("camxmod: plotting table %s: %v", t.Name, err)
		}
		path := filepath.Join(dir, fmt.Sprintf("%s_%s.png", prefix, t.Name))
		if err = p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
			return paths, fmt.Errorf("camxmod: saving plot of table %s: %v", t.Name, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
