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
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/lnashier/viper"
	"github.com/spatialmodel/distseb"
	"github.com/spatialmodel/distseb/science/bulk"
	"github.com/spf13/cast"
)

// RunConfig holds the settings of a disaggregation run.
type RunConfig struct {
	InputFile, TargetFile string
	TargetVariable        string

	// Scale relates the target grid to the fine grid. Factors less
	// than 1 are calculated from the grid shapes.
	Scale distseb.Scale

	Resistance       distseb.ResistanceKind
	ResistanceParams map[string]string // parameter name: InputFile variable

	GroundHeat      distseb.GroundHeatFlux
	CorrectLST      bool
	ModelIterations int

	// InitialL is the InputFile variable holding the initial
	// Monin-Obukhov length, if any.
	InitialL string

	OutputFile, LogFile string
	OutputVariables     map[string]string
}

// runConfig reads the disaggregation settings from cfg. The output
// settings are checked separately.
func runConfig(cfg *viper.Viper) (*RunConfig, error) {
	c := &RunConfig{
		InputFile:      os.ExpandEnv(cfg.GetString("InputFile")),
		TargetFile:     os.ExpandEnv(cfg.GetString("TargetFile")),
		TargetVariable: cfg.GetString("TargetVariable"),
		CorrectLST:     cfg.GetBool("CorrectLST"),
		InitialL:       cfg.GetString("InitialL"),
	}
	if c.InputFile == "" {
		return nil, fmt.Errorf("distsebutil: you need to specify an InputFile")
	}
	if c.TargetFile == "" {
		return nil, fmt.Errorf("distsebutil: you need to specify a TargetFile")
	}
	if c.TargetVariable == "" {
		return nil, fmt.Errorf("distsebutil: TargetVariable is empty")
	}

	var err error
	if c.Scale.Row, err = cast.ToIntE(cfg.Get("ScaleRow")); err != nil {
		return nil, fmt.Errorf("distsebutil: ScaleRow: %v", err)
	}
	if c.Scale.Col, err = cast.ToIntE(cfg.Get("ScaleCol")); err != nil {
		return nil, fmt.Errorf("distsebutil: ScaleCol: %v", err)
	}
	if c.ModelIterations, err = cast.ToIntE(cfg.Get("ModelIterations")); err != nil {
		return nil, fmt.Errorf("distsebutil: ModelIterations: %v", err)
	}
	if c.Resistance, err = parseResistanceForm(cfg.GetString("ResistanceForm")); err != nil {
		return nil, err
	}
	params, err := GetStringMapString("ResistanceParams", cfg)
	if err != nil {
		return nil, err
	}
	c.ResistanceParams = canonicalParams(params)
	if c.GroundHeat, err = groundHeatConfig(cfg); err != nil {
		return nil, err
	}
	return c, nil
}

// parseResistanceForm returns the resistance parameterization
// with the given name.
func parseResistanceForm(s string) (distseb.ResistanceKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "normankustas", "kn", "":
		return distseb.NormanKustas, nil
	case "choudhurymonteith", "cm":
		return distseb.ChoudhuryMonteith, nil
	case "mcnaughtonvanderhurk", "mv":
		return distseb.McNaughtonVanDerHurk, nil
	default:
		return 0, fmt.Errorf("distsebutil: invalid ResistanceForm '%s'; options are "+
			"'NormanKustas', 'ChoudhuryMonteith', and 'McNaughtonVanDerHurk'", s)
	}
}

// canonicalParams restores the case of known resistance parameter
// names, which configuration files do not preserve.
func canonicalParams(params map[string]string) map[string]string {
	known := []string{bulk.ParamKNb, bulk.ParamKNc, bulk.ParamKNCDash}
	o := make(map[string]string, len(params))
	for k, v := range params {
		for _, name := range known {
			if strings.EqualFold(k, name) {
				k = name
				break
			}
		}
		o[k] = v
	}
	return o
}

// groundHeatConfig reads the soil heat flux settings from cfg.
func groundHeatConfig(cfg *viper.Viper) (distseb.GroundHeatFlux, error) {
	var g distseb.GroundHeatFlux
	switch m := strings.ToLower(cfg.GetString("GroundHeat.Method")); m {
	case "ratio", "":
		g.Method = distseb.GroundHeatRatio
	case "constant":
		g.Method = distseb.GroundHeatConstant
	case "diurnal":
		g.Method = distseb.GroundHeatDiurnal
	default:
		return g, fmt.Errorf("distsebutil: invalid GroundHeat.Method '%s'; options are "+
			"'ratio', 'constant', and 'diurnal'", m)
	}
	for _, p := range []struct {
		name string
		v    *float64
	}{
		{"GroundHeat.Ratio", &g.Ratio},
		{"GroundHeat.Constant", &g.Constant},
		{"GroundHeat.Time", &g.Time},
		{"GroundHeat.Amplitude", &g.Amplitude},
		{"GroundHeat.PhaseShift", &g.PhaseShift},
		{"GroundHeat.Shape", &g.Shape},
	} {
		val := cfg.Get(p.name)
		if val == nil {
			continue
		}
		v, err := cast.ToFloat64E(val)
		if err != nil {
			return g, fmt.Errorf("distsebutil: %s: %v", p.name, err)
		}
		*p.v = v
	}
	if g.Method == distseb.GroundHeatDiurnal && g.Shape <= 0 {
		return g, fmt.Errorf("distsebutil: GroundHeat.Shape must be positive, but is %g", g.Shape)
	}
	return g, nil
}

var outputNameRegexp = regexp.MustCompile(`^[A-Za-z]\w*$`)

// checkOutputVars removes end lines and expands environment
// variables in the output variables, and checks that the variable
// names can be used in a netCDF file.
func checkOutputVars(vars map[string]string, err error) (map[string]string, error) {
	if err != nil {
		return nil, err
	}
	o := make(map[string]string, len(vars))
	for k, v := range vars {
		v = strings.Replace(v, "\r\n", " ", -1)
		v = strings.Replace(v, "\n", " ", -1)
		k = os.ExpandEnv(k)
		if !outputNameRegexp.MatchString(k) {
			return nil, fmt.Errorf("distsebutil: output variable name '%s' includes unsupported characters", k)
		}
		o[k] = os.ExpandEnv(v)
	}
	return o, nil
}

// checkOutputFile makes sure that the output file is specified and its
// directory exists, and expand any environment variables.
func checkOutputFile(f string) (string, error) {
	if f == "" {
		return "", fmt.Errorf(`you need to specify an output file configuration variable (for example: OutputFile="output.nc"`)
	}
	f = os.ExpandEnv(f)
	outdir := filepath.Dir(f)
	if _, err := os.Stat(outdir); err != nil {
		return f, fmt.Errorf("distsebutil: the OutputFile directory doesn't exist: %v", err)
	}
	return f, nil
}

// checkLogFile fills in a default value for the log file path if one isn't
// specified.
func checkLogFile(logFile, outputFile string) string {
	if logFile == "" {
		logFile = strings.TrimSuffix(outputFile, filepath.Ext(outputFile)) + ".log"
	}
	return os.ExpandEnv(logFile)
}

// GetStringMapString returns a map[string]string from a viper configuration,
// accounting for the fact that it might be a json object if it was set
// from a command line argument.
func GetStringMapString(varName string, cfg *viper.Viper) (map[string]string, error) {
	i := cfg.Get(varName)
	switch v := i.(type) {
	case nil:
		return make(map[string]string), nil
	case map[string]string:
		return v, nil
	case map[string]interface{}:
		return cast.ToStringMapStringE(v)
	case string:
		if v == "" {
			return make(map[string]string), nil
		}
		b := bytes.NewBuffer(([]byte)(v))
		d := json.NewDecoder(b)
		o := make(map[string]string)
		if err := d.Decode(&o); err != nil {
			return nil, fmt.Errorf("distsebutil: parsing %s: %v", varName, err)
		}
		return o, nil
	default:
		return nil, fmt.Errorf("distsebutil: invalid type for variable %s: %#v", varName, i)
	}
}
