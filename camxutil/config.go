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
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/aliakherati/camxmod"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
)

// setLogLevel configures the standard logger.
func setLogLevel(level string) error {
	l, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("camxmod: invalid loglevel: %v", err)
	}
	logrus.SetLevel(l)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	return nil
}

// checkRequired returns an error listing the options in names that were
// not set by a command-line argument, the configuration file or an
// environment variable.
func (cfg *Cfg) checkRequired(cmd *cobra.Command, names ...string) error {
	var missing []string
	for _, name := range names {
		if f := cmd.Flag(name); f != nil && f.Changed {
			continue
		}
		if cfg.InConfig(name) {
			continue
		}
		if _, ok := os.LookupEnv("CAMXMOD_" + strings.ToUpper(name)); ok {
			continue
		}
		missing = append(missing, name)
	}
	if len(missing) > 0 {
		return fmt.Errorf("camxmod: missing required configuration variables: %s",
			strings.Join(missing, ", "))
	}
	return nil
}

// clipWindow returns the clip window given by the configuration.
func (cfg *Cfg) clipWindow() (camxmod.ClipWindow, error) {
	return camxmod.NewClipWindow(
		cfg.GetInt("rowstart"), cfg.GetInt("rowend"),
		cfg.GetInt("colstart"), cfg.GetInt("colend"),
		cfg.GetInt("laystart"), cfg.GetInt("layend"),
	)
}

// averagingWindow returns the averaging window given by the
// configuration. The layer averaging window is only read if withLayer
// is true.
func (cfg *Cfg) averagingWindow(withLayer bool) (camxmod.AveragingWindow, error) {
	row, err := toIntSliceE(cfg.Get("rowindexavg"))
	if err != nil {
		return camxmod.AveragingWindow{}, fmt.Errorf("rowindexavg: %v", err)
	}
	col, err := toIntSliceE(cfg.Get("columnindexavg"))
	if err != nil {
		return camxmod.AveragingWindow{}, fmt.Errorf("columnindexavg: %v", err)
	}
	if !withLayer {
		return camxmod.NewAveragingWindow2D(row, col)
	}
	lay, err := toIntSliceE(cfg.Get("layerindexavg"))
	if err != nil {
		return camxmod.AveragingWindow{}, fmt.Errorf("layerindexavg: %v", err)
	}
	return camxmod.NewAveragingWindow(row, col, lay)
}

// toIntSliceE converts a configuration value into a slice of integers. The
// value may be a list from a configuration file, a JSON array from a
// command-line argument or a comma-separated list from an environment
// variable.
func toIntSliceE(s interface{}) ([]int, error) {
	switch v := s.(type) {
	case []int:
		return v, nil
	case []interface{}:
		o := make([]int, len(v))
		for i, val := range v {
			n, err := cast.ToIntE(val)
			if err != nil {
				return nil, err
			}
			o[i] = n
		}
		return o, nil
	case string:
		v = strings.TrimSpace(v)
		if v == "" {
			return nil, nil
		}
		var o []int
		if err := json.Unmarshal([]byte(v), &o); err == nil {
			return o, nil
		}
		for _, f := range strings.Split(strings.Trim(v, "[]"), ",") {
			n, err := cast.ToIntE(strings.TrimSpace(f))
			if err != nil {
				return nil, fmt.Errorf("invalid integer list %q", v)
			}
			o = append(o, n)
		}
		return o, nil
	case nil:
		return nil, nil
	default:
		return nil, fmt.Errorf("invalid type for integer list: %#v", s)
	}
}

// inputPath returns the path of the input file named by option name,
// expanding any environment variables.
func (cfg *Cfg) inputPath(name string) string {
	return filepath.Join(os.ExpandEnv(cfg.GetString("directory")), os.ExpandEnv(cfg.GetString(name)))
}

// checkOutputDir makes sure that the output directory exists, and expands
// any environment variables.
func checkOutputDir(dir string) (string, error) {
	dir = os.ExpandEnv(dir)
	fi, err := os.Stat(dir)
	if err != nil {
		return dir, fmt.Errorf("camxmod: the output directory doesn't exist: %v", err)
	}
	if !fi.IsDir() {
		return dir, fmt.Errorf("camxmod: the output directory %s is not a directory", dir)
	}
	return dir, nil
}

// loadRules reads replacement rule lists from the TOML file at path
// and stores them in kinds. The file holds one array of tables per
// field kind, for example:
//
//	[[met2d]]
//	type = "floor"
//	variables = ["pblwrf"]
//	value = 2500.0
//	units = "m"
func loadRules(path string, kinds map[string]*camxmod.Kind) error {
	rules := make(map[string][]camxmod.Rule)
	md, err := toml.DecodeFile(os.ExpandEnv(path), &rules)
	if err != nil {
		return fmt.Errorf("camxmod: reading rules file: %v", err)
	}
	if u := md.Undecoded(); len(u) > 0 {
		return fmt.Errorf("camxmod: rules file %s has unknown keys %v", path, u)
	}
	names := make([]string, 0, len(rules))
	for name := range rules {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		k, ok := kinds[name]
		if !ok {
			return fmt.Errorf("camxmod: rules file %s: unknown field kind %q", path, name)
		}
		for _, r := range rules[name] {
			switch r.Type {
			case camxmod.ConstantRule, camxmod.FloorRule, camxmod.LayerRule, camxmod.CopyLayerRule:
			default:
				return fmt.Errorf("camxmod: rules file %s: invalid rule type %q for %s", path, r.Type, name)
			}
		}
		k.Rules = rules[name]
	}
	return nil
}

// modifier returns a Modifier configured by cfg.
func (cfg *Cfg) modifier() (*camxmod.Modifier, error) {
	dir, err := checkOutputDir(cfg.GetString("outputdir"))
	if err != nil {
		return nil, err
	}
	m := camxmod.NewModifier(dir)
	if path := cfg.GetString("rules"); path != "" {
		if err := loadRules(path, m.Kinds); err != nil {
			return nil, err
		}
	}
	return m, nil
}
