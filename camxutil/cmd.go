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

// Package camxutil holds the command-line interface for camxmod.
package camxutil

import (
	"fmt"

	"github.com/aliakherati/camxmod"
	"github.com/lnashier/viper"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Cfg holds configuration information.
type Cfg struct {
	*viper.Viper

	// Root is the main command.
	Root *cobra.Command

	versionCmd, concCmd, kvCmd, met2dCmd, met3dCmd, allCmd *cobra.Command
}

type option struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

// InitializeConfig creates the commands and configuration options.
func InitializeConfig() *Cfg {
	cfg := &Cfg{Viper: viper.New()}

	cfg.Root = &cobra.Command{
		Use:   "camxmod",
		Short: "Clip and spatially average CAMx model files.",
		Long: `camxmod clips CAMx concentration, vertical mixing coefficient and
meteorology files to a window of the model grid, replaces each field with its
mean over a separate averaging window, and writes summaries of the averaged
values to Microsoft Excel files.

Refer to the subcommand documentation for configuration options and default settings.
Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'CAMXMOD_var' where 'var' is the
name of the variable to be set. File paths are additionally
allowed to contain environment variables within them.
Refer to https://github.com/spf13/viper for additional configuration information.`,
		DisableAutoGenTag: true,
		SilenceUsage:      true,
		PersistentPreRunE: func(*cobra.Command, []string) error { return cfg.setConfig() },
	}

	cfg.versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Long:  "version prints the version number of this version of camxmod.",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("camxmod v%s\n", camxmod.Version)
		},
		DisableAutoGenTag: true,
	}

	cfg.concCmd = &cobra.Command{
		Use:   "conc",
		Short: "Modify a concentration file.",
		Long: `conc clips a concentration file and replaces every field with its mean
over the row, column and layer averaging windows. The per-layer means are
written to one spreadsheet per variable.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cfg.runSingle(cmd, camxmod.Conc)
		},
		DisableAutoGenTag: true,
	}

	cfg.kvCmd = &cobra.Command{
		Use:   "kv",
		Short: "Modify a vertical mixing coefficient file.",
		Long: `kv clips a vertical mixing coefficient file and sets the mixing
coefficient to a constant.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cfg.runSingle(cmd, camxmod.KV)
		},
		DisableAutoGenTag: true,
	}

	cfg.met2dCmd = &cobra.Command{
		Use:   "met2d",
		Short: "Modify a 2D meteorology file.",
		Long: `met2d clips a 2D meteorology file and replaces every field with its
surface mean over the row and column averaging windows.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cfg.runSingle(cmd, camxmod.Met2D)
		},
		DisableAutoGenTag: true,
	}

	cfg.met3dCmd = &cobra.Command{
		Use:   "met3d",
		Short: "Modify a 3D meteorology file.",
		Long: `met3d clips a 3D meteorology file and replaces every field with its
per-layer mean over the row and column averaging windows. The first layer
height is taken from the modified 2D meteorology file given by fnamemet2d,
which is modified in memory with the same windows.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cfg.runSingle(cmd, camxmod.Met3D)
		},
		DisableAutoGenTag: true,
	}

	cfg.allCmd = &cobra.Command{
		Use:   "all",
		Short: "Modify the concentration, mixing coefficient and meteorology files.",
		Long: `all modifies the concentration, vertical mixing coefficient,
2D meteorology and 3D meteorology files given by fnameconc, fnamekv,
fnamemet2d and fnamemet3d, in that order. Output file names are the output
name followed by _conc, _kv, _met2d or _met3d.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cfg.runAll(cmd)
		},
		DisableAutoGenTag: true,
	}

	// Link the commands together.
	cfg.Root.AddCommand(cfg.versionCmd, cfg.concCmd, cfg.kvCmd, cfg.met2dCmd, cfg.met3dCmd, cfg.allCmd)

	single := []*pflag.FlagSet{cfg.concCmd.Flags(), cfg.kvCmd.Flags(), cfg.met2dCmd.Flags(), cfg.met3dCmd.Flags()}
	clips := []*pflag.FlagSet{cfg.concCmd.Flags(), cfg.kvCmd.Flags(), cfg.met2dCmd.Flags(), cfg.met3dCmd.Flags(), cfg.allCmd.Flags()}
	avg2D := []*pflag.FlagSet{cfg.concCmd.Flags(), cfg.met2dCmd.Flags(), cfg.met3dCmd.Flags(), cfg.allCmd.Flags()}
	avg3D := []*pflag.FlagSet{cfg.concCmd.Flags(), cfg.met3dCmd.Flags(), cfg.allCmd.Flags()}

	// options are the configuration options available to camxmod.
	options := []option{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{cfg.Root.PersistentFlags()},
		},
		{
			name: "loglevel",
			usage: `
              loglevel specifies the logging level. Valid levels are
              panic, fatal, error, warning, info and debug.`,
			defaultVal: "info",
			flagsets:   []*pflag.FlagSet{cfg.Root.PersistentFlags()},
		},
		{
			name: "rules",
			usage: `
              rules specifies the location of an optional TOML file that
              replaces the post-processing rules of one or more field kinds.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{cfg.Root.PersistentFlags()},
		},
		{
			name: "directory",
			usage: `
              directory specifies the directory that holds the input files.`,
			shorthand:  "d",
			defaultVal: "",
			flagsets:   clips,
		},
		{
			name: "filename",
			usage: `
              filename specifies the name of the input file within directory.`,
			shorthand:  "f",
			defaultVal: "",
			flagsets:   single,
		},
		{
			name: "fnameconc",
			usage: `
              fnameconc specifies the name of the concentration file within directory.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{cfg.allCmd.Flags()},
		},
		{
			name: "fnamekv",
			usage: `
              fnamekv specifies the name of the vertical mixing coefficient
              file within directory.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{cfg.allCmd.Flags()},
		},
		{
			name: "fnamemet2d",
			usage: `
              fnamemet2d specifies the name of the 2D meteorology file within
              directory.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{cfg.allCmd.Flags(), cfg.met3dCmd.Flags()},
		},
		{
			name: "fnamemet3d",
			usage: `
              fnamemet3d specifies the name of the 3D meteorology file within
              directory.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{cfg.allCmd.Flags()},
		},
		{
			name: "rowstart",
			usage: `
              rowstart specifies the first row (inclusive) of the clip window.`,
			defaultVal: 0,
			flagsets:   clips,
		},
		{
			name: "rowend",
			usage: `
              rowend specifies the last row (exclusive) of the clip window.`,
			defaultVal: 0,
			flagsets:   clips,
		},
		{
			name: "colstart",
			usage: `
              colstart specifies the first column (inclusive) of the clip window.`,
			defaultVal: 0,
			flagsets:   clips,
		},
		{
			name: "colend",
			usage: `
              colend specifies the last column (exclusive) of the clip window.`,
			defaultVal: 0,
			flagsets:   clips,
		},
		{
			name: "laystart",
			usage: `
              laystart specifies the first layer (inclusive) of the clip window.`,
			defaultVal: 0,
			flagsets:   clips,
		},
		{
			name: "layend",
			usage: `
              layend specifies the last layer (exclusive) of the clip window.`,
			defaultVal: 0,
			flagsets:   clips,
		},
		{
			name: "rowindexavg",
			usage: `
              rowindexavg specifies the first (inclusive) and last (exclusive)
              rows of the averaging window.`,
			defaultVal: []int{},
			flagsets:   avg2D,
		},
		{
			name: "columnindexavg",
			usage: `
              columnindexavg specifies the first (inclusive) and last (exclusive)
              columns of the averaging window.`,
			defaultVal: []int{},
			flagsets:   avg2D,
		},
		{
			name: "layerindexavg",
			usage: `
              layerindexavg specifies the first (inclusive) and last (exclusive)
              layers of the averaging window.`,
			defaultVal: []int{},
			flagsets:   avg3D,
		},
		{
			name: "outputdir",
			usage: `
              outputdir specifies the directory where the output files are written.`,
			shorthand:  "o",
			defaultVal: "",
			flagsets:   clips,
		},
		{
			name: "outputname",
			usage: `
              outputname specifies the name of the output files, without
              an extension.`,
			shorthand:  "n",
			defaultVal: "",
			flagsets:   clips,
		},
		{
			name: "plot",
			usage: `
              plot specifies whether to write a chart of each summary table
              to a PNG file in outputdir.`,
			defaultVal: false,
			flagsets:   clips,
		},
	}

	// Set the prefix for configuration environment variables.
	cfg.SetEnvPrefix("CAMXMOD")
	cfg.AutomaticEnv()

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, option.defaultVal.(string), option.usage)
				} else {
					set.StringP(option.name, option.shorthand, option.defaultVal.(string), option.usage)
				}
			case bool:
				if option.shorthand == "" {
					set.Bool(option.name, option.defaultVal.(bool), option.usage)
				} else {
					set.BoolP(option.name, option.shorthand, option.defaultVal.(bool), option.usage)
				}
			case int:
				if option.shorthand == "" {
					set.Int(option.name, option.defaultVal.(int), option.usage)
				} else {
					set.IntP(option.name, option.shorthand, option.defaultVal.(int), option.usage)
				}
			case []int:
				if option.shorthand == "" {
					set.IntSlice(option.name, option.defaultVal.([]int), option.usage)
				} else {
					set.IntSliceP(option.name, option.shorthand, option.defaultVal.([]int), option.usage)
				}
			default:
				panic("invalid argument type")
			}
			cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
	return cfg
}

// setConfig finds and reads in the configuration file, if there is one,
// and sets up logging.
func (cfg *Cfg) setConfig() error {
	if cfgpath := cfg.GetString("config"); cfgpath != "" {
		cfg.SetConfigFile(cfgpath)
		if err := cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("camxmod: problem reading configuration file: %v", err)
		}
	}
	return setLogLevel(cfg.GetString("loglevel"))
}
