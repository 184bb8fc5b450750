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

package distseb

import (
	"math"

	"github.com/ctessum/sparse"
)

// bareSoilLAI is the leaf area index at or below which a pixel is
// treated as bare soil.
const bareSoilLAI = 0

// Fluxes holds the fine-resolution output of a model evaluation. Values
// of pixels that were not evaluated, or whose evaluation failed, are
// missing and their Flag is FlagNoValid.
type Fluxes struct {
	Flag *sparse.DenseArrayInt

	TS, TC, TAC *Field // soil, canopy and canopy-air temperatures [K]

	// SnC is the canopy net shortwave radiation [W m-2]. It is zero
	// for bare-soil pixels.
	SnC *Field

	LnS, LnC *Field // net longwave radiation [W m-2]

	LEC, HC, LES, HS, G *Field // turbulent and soil heat fluxes [W m-2]

	RS, RX, RA *Field // resistances [s m-1]

	UFriction *Field // friction velocity [m s-1]

	NIterations *sparse.DenseArrayInt
}

func newFluxes(shape []int) *Fluxes {
	f := &Fluxes{
		Flag:        sparse.ZerosDenseInt(shape...),
		NIterations: sparse.ZerosDenseInt(shape...),
	}
	for _, p := range f.fields() {
		*p = NewField(shape...)
	}
	for i := range f.Flag.Elements {
		f.Flag.Elements[i] = FlagNoValid
	}
	return f
}

func (f *Fluxes) fields() []**Field {
	return []**Field{&f.TS, &f.TC, &f.TAC, &f.SnC, &f.LnS, &f.LnC,
		&f.LEC, &f.HC, &f.LES, &f.HS, &f.G, &f.RS, &f.RX, &f.RA, &f.UFriction}
}

func (f *Fluxes) copy() *Fluxes {
	o := &Fluxes{Flag: copyInt(f.Flag), NIterations: copyInt(f.NIterations)}
	of := o.fields()
	for i, p := range f.fields() {
		*of[i] = (*p).Copy()
	}
	return o
}

// invalidate marks pixel i as failed.
func (f *Fluxes) invalidate(i int) {
	f.Flag.Elements[i] = FlagNoValid
	for _, p := range f.fields() {
		(*p).Invalidate(i)
	}
}

// ratio returns LE/(LE+H) at pixel i, and false if any flux is missing
// or the result is not finite.
func (f *Fluxes) ratio(i int) (float64, bool) {
	lec, ok1 := f.LEC.At(i)
	les, ok2 := f.LES.At(i)
	hc, ok3 := f.HC.At(i)
	hs, ok4 := f.HS.At(i)
	if !(ok1 && ok2 && ok3 && ok4) {
		return 0, false
	}
	le := lec + les
	v := le / (le + hc + hs)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// evaluation holds the inputs of one dispatch of the physical model.
type evaluation struct {
	d          *disaggregation
	tr, ta     []float64 // adjusted temperatures
	l          *Field    // stability seed; updated in place
	iterations int
	out        *Fluxes
}

// evaluator is one variant of the physical model.
type evaluator interface {
	// selects returns whether a pixel with the given leaf area index
	// is handled by this variant.
	selects(lai float64) bool

	// evaluate runs the model on the pixels at idx and stores the
	// results in e.out and e.l.
	evaluate(e *evaluation, idx []int)
}

var evaluators = []evaluator{bareSoil{}, vegetated{}}

// dispatch evaluates every masked pixel with the model variant that
// its leaf area index selects. Masked pixels that no variant selects,
// such as those with a missing leaf area index, are marked as failed.
func (e *evaluation) dispatch(mask Mask) {
	lai := e.d.in.LAI.Elements
	selected := make([]bool, len(mask))
	for _, ev := range evaluators {
		var idx []int
		for i, in := range mask {
			if in && ev.selects(lai[i]) {
				idx = append(idx, i)
				selected[i] = true
			}
		}
		if len(idx) > 0 {
			ev.evaluate(e, idx)
		}
	}
	for i, in := range mask {
		if in && !selected[i] {
			e.out.invalidate(i)
		}
	}
}

// store scatters the model results for idx into dst. If the model
// returned the wrong number of values every pixel in idx is marked as
// failed.
func (e *evaluation) store(idx []int, flags []int, dst []*Field, src [][]float64) bool {
	ok := len(flags) == len(idx)
	for _, s := range src {
		ok = ok && len(s) == len(idx)
	}
	if !ok {
		for _, i := range idx {
			e.out.invalidate(i)
			e.l.Invalidate(i)
		}
		return false
	}
	for k, i := range idx {
		e.out.Flag.Elements[i] = flags[k]
	}
	for j, f := range dst {
		f.scatter(idx, src[j])
	}
	return true
}

// storeIterations copies the model iteration counts, if any.
func (e *evaluation) storeIterations(idx []int, n []int) {
	if len(n) != len(idx) {
		return
	}
	for k, i := range idx {
		e.out.NIterations.Elements[i] = n[k]
	}
}

// clearFailed makes every output of the pixels in idx whose flag is
// FlagNoValid missing.
func (e *evaluation) clearFailed(idx []int) {
	for _, i := range idx {
		if e.out.Flag.Elements[i] == FlagNoValid {
			e.out.invalidate(i)
		}
	}
}

// pick returns the values of v at the given indices.
func pick(v []float64, idx []int) []float64 {
	o := make([]float64, len(idx))
	for k, i := range idx {
		o[k] = v[i]
	}
	return o
}

type bareSoil struct{}

func (bareSoil) selects(lai float64) bool { return lai <= bareSoilLAI }

func (bareSoil) evaluate(e *evaluation, idx []int) {
	in := e.d.in
	r := e.d.cfg.Model.BareSoil(&BareSoilInput{
		Tr:         pick(e.tr, idx),
		Ta:         pick(e.ta, idx),
		U:          gather(in.U, idx, 0),
		Ea:         gather(in.Ea, idx, 0),
		P:          gather(in.P, idx, 0),
		SnS:        gather(in.SnS, idx, 0),
		Ldn:        gather(in.Ldn, idx, 0),
		EmisS:      gather(in.EmisS, idx, 0),
		Z0M:        gather(in.Z0M, idx, 0),
		D0:         gather(in.D0, idx, 0),
		ZU:         gather(in.ZU, idx, 0),
		ZT:         gather(in.ZT, idx, 0),
		L:          e.l.gather(idx),
		GroundHeat: e.d.gh,
		Iterations: e.iterations,
	})
	if r == nil {
		r = new(BareSoilOutput)
	}
	o := e.out
	if !e.store(idx, r.Flag,
		[]*Field{o.LnS, o.LES, o.HS, o.G, o.RA, o.UFriction, e.l},
		[][]float64{r.LnS, r.LES, r.HS, r.G, r.RA, r.UFriction, r.L}) {
		return
	}
	e.storeIterations(idx, r.NIterations)

	// A bare-soil pixel has no canopy: its soil temperature is the
	// surface temperature and its canopy air is the air above it.
	o.TS.scatter(idx, pick(e.tr, idx))
	o.TAC.scatter(idx, pick(e.ta, idx))
	for _, f := range []*Field{o.SnC, o.LnC, o.LEC, o.HC} {
		f.fill(idx, 0)
	}
	e.clearFailed(idx)
}

type vegetated struct{}

func (vegetated) selects(lai float64) bool { return lai > bareSoilLAI }

func (vegetated) evaluate(e *evaluation, idx []int) {
	in := e.d.in
	params := make(map[string][]float64, len(e.d.cfg.Resistance.Params))
	for name, a := range e.d.cfg.Resistance.Params {
		params[name] = gather(a, idx, 0)
	}
	r := e.d.cfg.Model.TwoSource(&TwoSourceInput{
		Tr:               pick(e.tr, idx),
		VZA:              gather(in.VZA, idx, 0),
		Ta:               pick(e.ta, idx),
		U:                gather(in.U, idx, 0),
		Ea:               gather(in.Ea, idx, 0),
		P:                gather(in.P, idx, 0),
		SnC:              gather(in.SnC, idx, 0),
		SnS:              gather(in.SnS, idx, 0),
		Ldn:              gather(in.Ldn, idx, 0),
		LAI:              gather(in.LAI, idx, 0),
		HC:               gather(in.HC, idx, 0),
		EmisC:            gather(in.EmisC, idx, 0),
		EmisS:            gather(in.EmisS, idx, 0),
		Z0M:              gather(in.Z0M, idx, 0),
		D0:               gather(in.D0, idx, 0),
		ZU:               gather(in.ZU, idx, 0),
		ZT:               gather(in.ZT, idx, 0),
		LeafWidth:        gather(in.LeafWidth, idx, 0.1),
		Z0Soil:           gather(in.Z0Soil, idx, 0.01),
		AlphaPT:          gather(in.AlphaPT, idx, 1.26),
		XLAD:             gather(in.XLAD, idx, 1),
		FC:               gather(in.FC, idx, 1),
		FG:               gather(in.FG, idx, 1),
		WC:               gather(in.WC, idx, 1),
		Resistance:       e.d.cfg.Resistance.Kind,
		ResistanceParams: params,
		L:                e.l.gather(idx),
		GroundHeat:       e.d.gh,
		Iterations:       e.iterations,
	})
	if r == nil {
		r = new(TwoSourceOutput)
	}
	o := e.out
	if !e.store(idx, r.Flag,
		[]*Field{o.TS, o.TC, o.TAC, o.LnS, o.LnC, o.LEC, o.HC, o.LES, o.HS, o.G,
			o.RS, o.RX, o.RA, o.UFriction, e.l},
		[][]float64{r.TS, r.TC, r.TAC, r.LnS, r.LnC, r.LEC, r.HC, r.LES, r.HS, r.G,
			r.RS, r.RX, r.RA, r.UFriction, r.L}) {
		return
	}
	e.storeIterations(idx, r.NIterations)
	o.SnC.scatter(idx, gather(in.SnC, idx, 0))
	e.clearFailed(idx)
}
