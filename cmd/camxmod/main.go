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

// Command camxmod is a command-line interface for clipping and averaging
// CAMx model files.
package main

import (
	"fmt"
	"os"

	"github.com/aliakherati/camxmod/camxutil"
)

func main() {
	cfg := camxutil.InitializeConfig()
	if err := cfg.Root.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(-1)
	}
}
