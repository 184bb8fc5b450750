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

// Package distseb disaggregates coarse-resolution estimates of the
// evaporative fraction onto a fine-resolution pixel grid. It iteratively
// adjusts the surface (or air) temperature of every fine pixel until the
// evaporative fraction computed by a surface energy balance model at
// fine resolution, averaged over each coarse cell, matches the coarse
// target value. The energy balance model itself is supplied by the
// caller through the Model interface.
package distseb

import (
	"errors"
	"fmt"

	"github.com/ctessum/sparse"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/distseb/met"
)

// Version gives the version number.
const Version = "0.1.0"

// Errors returned before the disaggregation loop starts.
var (
	ErrScale    = errors.New("distseb: scale factors must be positive")
	ErrShape    = errors.New("distseb: mismatched grid shapes")
	ErrNoTarget = errors.New("distseb: target ratio has no valid values")
	ErrNoModel  = errors.New("distseb: no physical model specified")
)

// Input holds the coarse target and the fine-resolution forcing. All
// fine-resolution arrays must have the same two-dimensional shape.
type Input struct {
	// TargetRatio is the coarse-resolution evaporative fraction,
	// LE/(LE+H). NaN marks missing cells.
	TargetRatio *sparse.DenseArray

	// Scale relates TargetRatio to the fine grid.
	Scale Scale

	Tr  *sparse.DenseArray // radiometric surface temperature [K]
	VZA *sparse.DenseArray // view zenith angle [degrees]
	Ta  *sparse.DenseArray // air temperature [K]
	U   *sparse.DenseArray // wind speed [m s-1]
	Ea  *sparse.DenseArray // vapour pressure [mb]
	P   *sparse.DenseArray // atmospheric pressure [mb]
	SnC *sparse.DenseArray // canopy net shortwave radiation [W m-2]
	SnS *sparse.DenseArray // soil net shortwave radiation [W m-2]
	Ldn *sparse.DenseArray // downwelling longwave radiation [W m-2]
	LAI *sparse.DenseArray // effective leaf area index [m2 m-2]
	HC  *sparse.DenseArray // canopy height [m]

	EmisC, EmisS    *sparse.DenseArray
	Z0M, D0, ZU, ZT *sparse.DenseArray

	// Optional vegetation parameters. Nil arrays take the default
	// values 0.1 m, 0.01 m, 1.26, 1, 1, 1 and 1, respectively.
	LeafWidth, Z0Soil, AlphaPT, XLAD, FC, FG, WC *sparse.DenseArray

	// InitialL is the Monin-Obukhov length [m] used as the starting
	// point of the iteration. If nil, it is unknown everywhere.
	InitialL *sparse.DenseArray
}

type namedArray struct {
	name string
	a    *sparse.DenseArray
}

func (in *Input) required() []namedArray {
	return []namedArray{
		{"Tr", in.Tr}, {"VZA", in.VZA}, {"Ta", in.Ta}, {"U", in.U},
		{"Ea", in.Ea}, {"P", in.P}, {"SnC", in.SnC}, {"SnS", in.SnS},
		{"Ldn", in.Ldn}, {"LAI", in.LAI}, {"HC", in.HC},
		{"EmisC", in.EmisC}, {"EmisS", in.EmisS}, {"Z0M", in.Z0M},
		{"D0", in.D0}, {"ZU", in.ZU}, {"ZT", in.ZT},
	}
}

func (in *Input) optional() []namedArray {
	return []namedArray{
		{"LeafWidth", in.LeafWidth}, {"Z0Soil", in.Z0Soil},
		{"AlphaPT", in.AlphaPT}, {"XLAD", in.XLAD}, {"FC", in.FC},
		{"FG", in.FG}, {"WC", in.WC}, {"InitialL", in.InitialL},
	}
}

// ResistanceForm selects a resistance parameterization. Params holds
// optional per-pixel parameter arrays keyed by name (for example
// "KN_b", "KN_c" and "KN_C_dash" for NormanKustas). Every array must
// have the fine-grid shape.
type ResistanceForm struct {
	Kind   ResistanceKind
	Params map[string]*sparse.DenseArray
}

// Config holds the settings of a disaggregation.
type Config struct {
	// Model is the surface energy balance model. It is required.
	Model Model

	// Meteorology supplies air density, heat capacity and the
	// Monin-Obukhov length. If nil, met.Standard is used.
	Meteorology Meteorology

	Resistance ResistanceForm

	// GroundHeat selects the soil heat flux method. If nil,
	// DefaultGroundHeatFlux is used.
	GroundHeat *GroundHeatFlux

	// CorrectLST specifies whether the surface temperature (true) or the
	// air temperature (false) is adjusted.
	CorrectLST bool

	// ModelIterations is the number of internal iterations the model is
	// allowed while the loop runs. If < 1, DefaultModelIterations is used.
	ModelIterations int

	// Log receives progress messages. If nil, the logrus standard
	// logger is used.
	Log logrus.FieldLogger
}

// Result holds the authoritative output of a disaggregation.
type Result struct {
	*Fluxes

	// L is the Monin-Obukhov length [m].
	L *Field

	// Offset is the smoothed temperature offset [K] used in the final
	// evaluation and OffsetOrig is the offset before smoothing.
	Offset, OffsetOrig *Field

	// Iterations is the number of iterations the loop performed.
	Iterations int

	// Status is Converged or Capped.
	Status Status

	// Mask holds the pixels that were still iterating when the loop
	// stopped. It is empty if Status is Converged.
	Mask Mask

	History []IterationRecord
}

// Disaggregate runs the disaggregation of in.TargetRatio onto the fine
// grid. Errors are only returned for invalid input, before any
// iteration; failures of the physical model are reported per pixel
// through the Flag field of the result.
func Disaggregate(in *Input, cfg *Config) (*Result, error) {
	d, err := newDisaggregation(in, cfg)
	if err != nil {
		return nil, err
	}
	s := d.converge(d.initialState())
	return d.finalPass(s), nil
}

// disaggregation holds the read-only state of a run.
type disaggregation struct {
	in  *Input
	cfg Config

	fineShape   []int
	coarseShape []int
	pixelMap    *sparse.DenseArrayInt
	target      *Field // upsampled target ratio

	rho, cp []float64 // air density and heat capacity of the unadjusted forcing

	gh         GroundHeatFlux
	iterations int
	log        logrus.FieldLogger
}

func newDisaggregation(in *Input, cfg *Config) (*disaggregation, error) {
	if cfg == nil || cfg.Model == nil {
		return nil, ErrNoModel
	}
	if err := in.Scale.check(); err != nil {
		return nil, err
	}
	d := &disaggregation{in: in, cfg: *cfg}
	if err := d.checkShapes(); err != nil {
		return nil, err
	}
	var err error
	d.pixelMap, err = BuildPixelMap(in.Scale, d.coarseShape, d.fineShape)
	if err != nil {
		return nil, err
	}
	d.target, err = UpsampleField(FieldFromArray(in.TargetRatio), in.Scale, d.fineShape)
	if err != nil {
		return nil, err
	}
	if d.target.NumValid() == 0 {
		return nil, ErrNoTarget
	}

	if d.cfg.Meteorology == nil {
		d.cfg.Meteorology = met.Standard{}
	}
	d.gh = DefaultGroundHeatFlux()
	if cfg.GroundHeat != nil {
		d.gh = *cfg.GroundHeat
	}
	d.iterations = cfg.ModelIterations
	if d.iterations < 1 {
		d.iterations = DefaultModelIterations
	}
	d.log = cfg.Log
	if d.log == nil {
		d.log = logrus.StandardLogger()
	}

	n := len(in.Tr.Elements)
	d.rho, d.cp = make([]float64, n), make([]float64, n)
	m := d.cfg.Meteorology
	for i := 0; i < n; i++ {
		p, ea := in.P.Elements[i], in.Ea.Elements[i]
		d.rho[i] = m.AirDensity(p, ea, in.Ta.Elements[i])
		d.cp[i] = m.HeatCapacity(p, ea)
	}
	return d, nil
}

func (d *disaggregation) checkShapes() error {
	in := d.in
	if in.TargetRatio == nil || len(in.TargetRatio.Shape) != 2 {
		return fmt.Errorf("%w: the target ratio must be a two-dimensional array", ErrShape)
	}
	d.coarseShape = in.TargetRatio.Shape
	for _, v := range in.required() {
		if v.a == nil {
			return fmt.Errorf("distseb: missing required input %s", v.name)
		}
	}
	d.fineShape = in.Tr.Shape
	if len(d.fineShape) != 2 {
		return fmt.Errorf("%w: Tr must be two-dimensional; got %v", ErrShape, d.fineShape)
	}
	check := func(name string, a *sparse.DenseArray) error {
		if !sameShape(a.Shape, d.fineShape) {
			return fmt.Errorf("%w: %s has shape %v but Tr has shape %v", ErrShape, name, a.Shape, d.fineShape)
		}
		return nil
	}
	for _, v := range append(in.required(), in.optional()...) {
		if v.a == nil {
			continue
		}
		if err := check(v.name, v.a); err != nil {
			return err
		}
	}
	for name, a := range d.cfg.Resistance.Params {
		if a == nil {
			return fmt.Errorf("distseb: resistance parameter %s is nil", name)
		}
		if err := check("resistance parameter "+name, a); err != nil {
			return err
		}
	}
	return nil
}
