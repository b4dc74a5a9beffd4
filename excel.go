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
	"strconv"
	"strings"

	"github.com/tealeg/xlsx"
)

// WriteTables writes each table to its own sheet of a new Microsoft
// Excel file at path. The first row of each sheet holds the column
// names. NaN values are written as empty cells.
func WriteTables(tables []*Table, path string) error {
	f := xlsx.NewFile()
	for _, t := range tables {
		s, err := f.AddSheet(t.Name)
		if err != nil {
			return fmt.Errorf("camxmod: writing table %s: %v", t.Name, err)
		}
		header := s.AddRow()
		for _, c := range t.Columns {
			header.AddCell().SetString(c)
		}
		for _, r := range t.Rows {
			row := s.AddRow()
			for _, v := range r {
				cell := row.AddCell()
				if !math.IsNaN(v) {
					cell.SetFloat(v)
				}
			}
		}
	}
	if err := f.Save(path); err != nil {
		return fmt.Errorf("camxmod: saving xlsx file: %v", err)
	}
	return nil
}

// ReadTables reads the tables written by WriteTables from the Microsoft
// Excel file at path, in sheet order. Empty cells are read as NaN.
func ReadTables(path string) ([]*Table, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("camxmod: opening xlsx file: %v", err)
	}
	tables := make([]*Table, 0, len(f.Sheets))
	for _, s := range f.Sheets {
		t, err := tableFromSheet(s)
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return tables, nil
}

func tableFromSheet(s *xlsx.Sheet) (*Table, error) {
	t := &Table{Name: s.Name}
	if s.MaxRow == 0 {
		return t, nil
	}
	for i := 0; i < s.MaxCol; i++ {
		t.Columns = append(t.Columns, strings.TrimSpace(s.Cell(0, i).Value))
	}
	for j := 1; j < s.MaxRow; j++ {
		row := make([]float64, len(t.Columns))
		for i := range row {
			cellString := strings.TrimSpace(s.Cell(j, i).Value)
			if cellString == "" {
				row[i] = math.NaN()
				continue
			}
			v, err := strconv.ParseFloat(cellString, 64)
			if err != nil {
				return nil, fmt.Errorf("camxmod: reading table %s from Excel: %v", s.Name, err)
			}
			row[i] = v
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}
