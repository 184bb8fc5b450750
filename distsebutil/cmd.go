/*
Copyright © 2018 the disTSEB authors.
This file is part of disTSEB.

disTSEB is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

disTSEB is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with disTSEB.  If not, see <http://www.gnu.org/licenses/>.
*/

package distsebutil

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/lnashier/viper"
	"github.com/spatialmodel/distseb"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	// Options are the configuration options available to disTSEB.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "InputFile",
			usage: `
              InputFile is the path to the netCDF file holding the
              fine-resolution forcing. Every variable must be two-dimensional
              with dimensions (y, x). Required variables are Tr_K, vza,
              T_A_K, u, ea, p, Sn_C, Sn_S, L_dn, LAI, h_C, emis_C, emis_S,
              z_0M, d_0, z_u and z_T. The variables leaf_width, z0_soil,
              alpha_PT, x_LAD, f_c, f_g and w_C are optional.`,
			shorthand:  "i",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "TargetFile",
			usage: `
              TargetFile is the path to the netCDF file holding the
              coarse-resolution evaporative fraction.`,
			shorthand:  "t",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "TargetVariable",
			usage: `
              TargetVariable is the name of the coarse-resolution evaporative
              fraction variable in TargetFile.`,
			defaultVal: "EF",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "ScaleRow",
			usage: `
              ScaleRow is the number of fine-resolution rows in each coarse
              cell. If it is less than 1, it is calculated from the grid shapes.`,
			defaultVal: 0,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "ScaleCol",
			usage: `
              ScaleCol is the number of fine-resolution columns in each coarse
              cell. If it is less than 1, it is calculated from the grid shapes.`,
			defaultVal: 0,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "ResistanceForm",
			usage: `
              ResistanceForm selects the soil and canopy resistance
              parameterization. Options are 'NormanKustas',
              'ChoudhuryMonteith', and 'McNaughtonVanDerHurk'.`,
			defaultVal: "NormanKustas",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "ResistanceParams",
			usage: `
              ResistanceParams maps resistance parameter names (for example
              KN_b, KN_c, and KN_C_dash) to the names of InputFile variables
              that hold their per-pixel values.`,
			defaultVal: map[string]string{},
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "GroundHeat.Method",
			usage: `
              GroundHeat.Method selects how soil heat flux is estimated.
              Options are 'ratio', 'constant', and 'diurnal'.`,
			defaultVal: "ratio",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "GroundHeat.Ratio",
			usage: `
              GroundHeat.Ratio is the ratio of soil heat flux to soil net
              radiation when GroundHeat.Method is 'ratio'.`,
			defaultVal: 0.35,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "GroundHeat.Constant",
			usage: `
              GroundHeat.Constant is the soil heat flux [W m-2] when
              GroundHeat.Method is 'constant'.`,
			defaultVal: 0.0,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "GroundHeat.Time",
			usage: `
              GroundHeat.Time is the local solar time of the observation [h],
              used when GroundHeat.Method is 'diurnal'.`,
			defaultVal: 12.0,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "GroundHeat.Amplitude",
			usage: `
              GroundHeat.Amplitude is the maximum ratio of soil heat flux to
              soil net radiation when GroundHeat.Method is 'diurnal'.`,
			defaultVal: 0.31,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "GroundHeat.PhaseShift",
			usage: `
              GroundHeat.PhaseShift is the phase shift [h] of the diurnal
              soil heat flux curve.`,
			defaultVal: 3.0,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "GroundHeat.Shape",
			usage: `
              GroundHeat.Shape is the period [h] of the diurnal soil heat
              flux curve.`,
			defaultVal: 20.556,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "CorrectLST",
			usage: `
              CorrectLST specifies whether the radiometric surface temperature
              (true) or the air temperature (false) is adjusted to match the
              coarse-resolution evaporative fraction.`,
			defaultVal: true,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "ModelIterations",
			usage: `
              ModelIterations is the number of stability iterations the
              energy balance model is allowed while disaggregating.`,
			defaultVal: distseb.DefaultModelIterations,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "InitialL",
			usage: `
              InitialL is the name of the InputFile variable holding the
              initial Monin-Obukhov length [m]. If it is empty, the initial
              stability is unknown.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "OutputFile",
			usage: `
              OutputFile specifies the path to the desired output netCDF file
              location. It can include environment variables.`,
			shorthand:  "o",
			defaultVal: "distseb_output.nc",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "LogFile",
			usage: `
              LogFile specifies the path to the desired logfile location. It
              can include environment variables. If LogFile is left blank, the
              logfile will be saved in the same location as the OutputFile.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "OutputVariables",
			usage: `
              OutputVariables specifies derived variables to include in the
              output file in addition to the model results, in the form
              {variable_name: variable_expression}. Expressions can use
              model results (for example LE_C, H_S, and T_offset), InputFile
              variables, and the functions exp(x), abs(x), and ratio(a, b).`,
			defaultVal: map[string]string{
				"EF": "(LE_C + LE_S) / (LE_C + LE_S + H_C + H_S)",
				"LE": "LE_C + LE_S",
				"H":  "H_C + H_S",
				"Rn": "Sn_C + Sn_S + Ln_C + Ln_S",
			},
			flagsets: []*pflag.FlagSet{runCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("DISTSEB")

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
			case float64:
				if option.shorthand == "" {
					set.Float64(option.name, option.defaultVal.(float64), option.usage)
				} else {
					set.Float64P(option.name, option.shorthand, option.defaultVal.(float64), option.usage)
				}
			case map[string]string:
				b := bytes.NewBuffer(nil)
				e := json.NewEncoder(b)
				e.Encode(option.defaultVal)
				s := string(b.Bytes())
				if option.shorthand == "" {
					set.String(option.name, s, option.usage)
				} else {
					set.StringP(option.name, option.shorthand, s, option.usage)
				}
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(runCmd)
}

// setConfig finds and reads in the configuration file, if there is one.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("distsebutil: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "distseb",
	Short: "Disaggregate coarse evaporative fraction to fine resolution.",
	Long: `disTSEB adjusts the fine-resolution surface or air temperature used by a
two-source surface energy balance model until the modelled evaporative fraction,
averaged over each coarse-resolution cell, matches a coarse-resolution estimate.
Use the subcommands specified below to access the model functionality.

Refer to the subcommand documentation for configuration options and default settings.
Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'DISTSEB_var' where 'var' is the
name of the variable to be set. Many configuration variables are additionally
allowed to contain environment variables within them.
Refer to https://github.com/spf13/viper for additional configuration information.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of disTSEB.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("disTSEB v%s\n", distseb.Version)
	},
	DisableAutoGenTag: true,
}

// runCmd is a command that runs a disaggregation.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a disaggregation.",
	Long: `run reads the fine-resolution forcing and the coarse-resolution
evaporative fraction, disaggregates the evaporative fraction, and writes
the fine-resolution energy balance to OutputFile.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		outputFile, err := checkOutputFile(Cfg.GetString("OutputFile"))
		if err != nil {
			return err
		}
		outputVars, err := checkOutputVars(GetStringMapString("OutputVariables", Cfg))
		if err != nil {
			return err
		}
		cfg, err := runConfig(Cfg)
		if err != nil {
			return err
		}
		cfg.OutputFile = outputFile
		cfg.LogFile = checkLogFile(Cfg.GetString("LogFile"), outputFile)
		cfg.OutputVariables = outputVars
		return Run(cmd, cfg)
	},
	DisableAutoGenTag: true,
}
