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
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ctessum/sparse"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/distseb"
	"github.com/spatialmodel/distseb/internal/hash"
	"github.com/spatialmodel/distseb/science/bulk"
	"github.com/spf13/cobra"
)

// Run runs a disaggregation as specified by c and writes the results
// to c.OutputFile. Progress is logged to c.LogFile and to the output
// of cmd.
func Run(cmd *cobra.Command, c *RunConfig) error {
	logfile, err := os.Create(c.LogFile)
	if err != nil {
		return fmt.Errorf("distsebutil: problem creating log file: %v", err)
	}
	defer logfile.Close()

	log := logrus.New()
	log.Out = io.MultiWriter(cmd.OutOrStdout(), logfile)
	log.Formatter = &logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339Nano,
		DisableSorting:  true,
	}
	run := hash.Fingerprint(c)
	entry := log.WithField("run", run)
	entry.WithFields(logrus.Fields{
		"version": distseb.Version,
		"input":   c.InputFile,
		"target":  c.TargetFile,
	}).Info("distsebutil: reading input")

	d, err := ReadInput(c)
	if err != nil {
		return err
	}
	r, err := distseb.Disaggregate(d.Input, &distseb.Config{
		Model:           bulk.Model{},
		Resistance:      distseb.ResistanceForm{Kind: c.Resistance, Params: d.ResistanceParams},
		GroundHeat:      &c.GroundHeat,
		CorrectLST:      c.CorrectLST,
		ModelIterations: c.ModelIterations,
		Log:             entry,
	})
	if err != nil {
		return err
	}
	diag, err := distseb.Diagnose(r, d.TargetRatio, d.Scale)
	if err != nil {
		return err
	}
	entry.WithFields(logrus.Fields{
		"status":     r.Status,
		"iterations": r.Iterations,
		"cells":      diag.Cells,
		"slope":      diag.Slope,
		"r2":         diag.R2,
		"bias":       diag.MeanBias,
		"rmse":       diag.RMSE,
		"converged":  diag.Converged,
	}).Info("distsebutil: diagnostics")

	vars := resultVariables(r)
	o, err := NewOutputter(c.OutputVariables, nil)
	if err != nil {
		return err
	}
	derived, err := o.Results(available(vars, d.Variables))
	if err != nil {
		return err
	}
	for n, v := range derived {
		vars[n] = ncfVariable{description: c.OutputVariables[n], units: "-", data: v}
	}

	attrs := map[string]interface{}{
		"run":               run,
		"status":            r.Status.String(),
		"iterations":        []int32{int32(r.Iterations)},
		"scale":             []int32{int32(d.Scale.Row), int32(d.Scale.Col)},
		"target":            c.TargetVariable,
		"diagnostics_cells": []int32{int32(diag.Cells)},
		"diagnostics_slope": []float64{diag.Slope},
		"diagnostics_r2":    []float64{diag.R2},
		"diagnostics_rmse":  []float64{diag.RMSE},
	}
	if err := writeOutputFile(c.OutputFile, vars, attrs); err != nil {
		return err
	}
	entry.WithField("file", c.OutputFile).Info("distsebutil: output written")
	return nil
}

// resultVariables returns the output variables that hold the fields
// of r.
func resultVariables(r *distseb.Result) map[string]ncfVariable {
	mask := sparse.ZerosDenseInt(r.Flag.Shape...)
	for i, m := range r.Mask {
		if m {
			mask.Elements[i] = 1
		}
	}
	return map[string]ncfVariable{
		"flag":          {description: "Quality flag; 255 marks pixels without a valid result", units: "-", flags: r.Flag},
		"n_iterations":  {description: "Stability iterations of the energy balance model", units: "-", flags: r.NIterations},
		"mask":          {description: "1 where the pixel had not converged when the loop stopped", units: "-", flags: mask},
		"T_S":           {description: "Soil temperature", units: "K", data: r.TS.Array()},
		"T_C":           {description: "Canopy temperature", units: "K", data: r.TC.Array()},
		"T_AC":          {description: "Canopy air temperature", units: "K", data: r.TAC.Array()},
		"Sn_C":          {description: "Canopy net shortwave radiation", units: "W m-2", data: r.SnC.Array()},
		"Ln_S":          {description: "Soil net longwave radiation", units: "W m-2", data: r.LnS.Array()},
		"Ln_C":          {description: "Canopy net longwave radiation", units: "W m-2", data: r.LnC.Array()},
		"LE_C":          {description: "Canopy latent heat flux", units: "W m-2", data: r.LEC.Array()},
		"H_C":           {description: "Canopy sensible heat flux", units: "W m-2", data: r.HC.Array()},
		"LE_S":          {description: "Soil latent heat flux", units: "W m-2", data: r.LES.Array()},
		"H_S":           {description: "Soil sensible heat flux", units: "W m-2", data: r.HS.Array()},
		"G":             {description: "Soil heat flux", units: "W m-2", data: r.G.Array()},
		"R_S":           {description: "Soil surface resistance", units: "s m-1", data: r.RS.Array()},
		"R_x":           {description: "Canopy boundary layer resistance", units: "s m-1", data: r.RX.Array()},
		"R_A":           {description: "Aerodynamic resistance", units: "s m-1", data: r.RA.Array()},
		"u_friction":    {description: "Friction velocity", units: "m s-1", data: r.UFriction.Array()},
		"L":             {description: "Monin-Obukhov length", units: "m", data: r.L.Array()},
		"T_offset":      {description: "Smoothed temperature offset", units: "K", data: r.Offset.Array()},
		"T_offset_orig": {description: "Temperature offset before smoothing", units: "K", data: r.OffsetOrig.Array()},
	}
}

// available returns the variables that output expressions can use:
// the model results and the input variables. Results take precedence.
func available(results map[string]ncfVariable, inputs map[string]*sparse.DenseArray) map[string]*sparse.DenseArray {
	o := make(map[string]*sparse.DenseArray, len(results)+len(inputs))
	for n, v := range inputs {
		o[n] = v
	}
	for n, v := range results {
		if v.data != nil {
			o[n] = v.data
			continue
		}
		a := sparse.ZerosDense(v.flags.Shape...)
		for i, f := range v.flags.Elements {
			a.Elements[i] = float64(f)
		}
		o[n] = a
	}
	return o
}
