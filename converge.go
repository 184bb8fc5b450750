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

	"github.com/sirupsen/logrus"
)

const (
	// maxIterations is the number of iterations after which the loop
	// stops even if some pixels still disagree with their target.
	maxIterations = 50

	// finalModelIterations is the number of internal iterations the
	// physical model is allowed in the final evaluation.
	finalModelIterations = 50

	ratioTolerance = 0.01 // |fine - coarse| below which a pixel has converged
	offsetGain     = 5.0  // temperature change [K] per unit ratio difference
	maxStep        = 1.0  // K per iteration
	maxOffset      = 5.0  // K
)

// Status is the state of the disaggregation loop.
type Status int

// Loop states. Converged and Capped are terminal.
const (
	Running Status = iota
	Converged
	Capped
)

func (s Status) String() string {
	switch s {
	case Running:
		return "running"
	case Converged:
		return "converged"
	case Capped:
		return "capped"
	default:
		return "unknown"
	}
}

// IterationRecord summarizes one iteration of the loop.
type IterationRecord struct {
	// Iteration is the value of the loop counter after the iteration.
	Iteration int

	// Pixels is the number of fine pixels evaluated and Cells is the
	// number of coarse cells they belong to.
	Pixels, Cells int

	// Remaining is the number of pixels that still disagree with their
	// target after the iteration.
	Remaining int

	// MaxDiff is the largest absolute difference between the aggregated
	// and target ratios.
	MaxDiff float64
}

// iterationState holds everything that changes from one iteration of
// the loop to the next. Each iteration returns a new state and never
// modifies the previous one.
type iterationState struct {
	iteration int
	status    Status

	offset *Field // temperature offset [K]; valid everywhere
	mask   Mask
	l      *Field // Monin-Obukhov length [m]

	// tr and ta are the temperatures last given to the model. Pixels
	// that have left the mask keep their values.
	tr, ta []float64

	fluxes *Fluxes
	ratio  *Field // aggregated ratio at fine resolution

	history []IterationRecord
}

func (s *iterationState) copy() *iterationState {
	o := &iterationState{
		iteration: s.iteration,
		status:    s.status,
		offset:    s.offset.Copy(),
		mask:      s.mask.Copy(),
		l:         s.l.Copy(),
		tr:        append([]float64(nil), s.tr...),
		ta:        append([]float64(nil), s.ta...),
		fluxes:    s.fluxes.copy(),
		ratio:     s.ratio.Copy(),
		history:   append([]IterationRecord(nil), s.history...),
	}
	return o
}

// initialState returns the state before the first iteration. Pixels
// with a missing target or a non-positive surface temperature are
// never iterated.
func (d *disaggregation) initialState() *iterationState {
	s := &iterationState{
		status: Running,
		offset: FilledField(0, d.fineShape...),
		mask:   make(Mask, len(d.target.Elements)),
		tr:     append([]float64(nil), d.in.Tr.Elements...),
		ta:     append([]float64(nil), d.in.Ta.Elements...),
		fluxes: newFluxes(d.fineShape),
		ratio:  NewField(d.fineShape...),
	}
	for i, ok := range d.target.Valid {
		s.mask[i] = ok && d.in.Tr.Elements[i] > 0
	}
	if d.in.InitialL != nil {
		s.l = FieldFromArray(d.in.InitialL)
	} else {
		s.l = NewField(d.fineShape...)
	}
	if !s.mask.Any() {
		s.status = Converged
	}
	return s
}

// converge iterates from s until every pixel agrees with its target or
// the iteration cap is reached.
func (d *disaggregation) converge(s *iterationState) *iterationState {
	for s.status == Running {
		s = d.iterate(s)
		r := s.history[len(s.history)-1]
		d.log.WithFields(logrus.Fields{
			"iteration": r.Iteration,
			"pixels":    r.Pixels,
			"cells":     r.Cells,
			"remaining": r.Remaining,
			"max_diff":  r.MaxDiff,
		}).Info("distseb: iteration complete")
	}
	d.log.WithFields(logrus.Fields{
		"iterations": s.iteration,
		"status":     s.status,
		"remaining":  s.mask.Count(),
	}).Info("distseb: loop finished")
	return s
}

// iterate performs one iteration of the loop.
func (d *disaggregation) iterate(prev *iterationState) *iterationState {
	s := prev.copy()
	mask := prev.mask

	// Adjust the forcing temperature of the pixels still iterating. The
	// offset accumulates on the temperatures carried from the previous
	// iteration.
	for i, in := range mask {
		if !in {
			continue
		}
		if d.cfg.CorrectLST {
			s.tr[i] -= s.offset.Elements[i]
		} else {
			s.ta[i] += s.offset.Elements[i]
		}
	}
	for i := range s.fluxes.Flag.Elements {
		if mask[i] {
			s.fluxes.Flag.Elements[i] = FlagValid
		} else {
			s.fluxes.Flag.Elements[i] = FlagNoValid
		}
	}

	e := &evaluation{d: d, tr: s.tr, ta: s.ta, l: s.l, iterations: d.iterations, out: s.fluxes}
	e.dispatch(mask)

	s.l = d.recomputeStability(s.fluxes, s.ta)

	fine := NewField(d.fineShape...)
	for i, in := range mask {
		if in && s.fluxes.Flag.Elements[i] != FlagNoValid {
			if v, ok := s.fluxes.ratio(i); ok {
				fine.Put(i, v)
			}
		}
	}
	s.ratio = spread(Aggregate(fine, d.pixelMap, d.coarseShape), d.pixelMap)
	cells := make(map[int]struct{})
	for i, in := range mask {
		if !in {
			s.ratio.Invalidate(i)
			continue
		}
		cells[d.pixelMap.Elements[i]] = struct{}{}
	}

	rec := IterationRecord{Pixels: mask.Count(), Cells: len(cells)}
	for i := range s.mask {
		diff := d.difference(s.ratio, i)
		rec.MaxDiff = math.Max(rec.MaxDiff, math.Abs(diff))
		s.mask[i] = math.Abs(diff) > ratioTolerance
		if !s.mask[i] {
			continue
		}
		step := math.Max(-maxStep, math.Min(maxStep, diff*offsetGain))
		s.offset.Elements[i] -= step
	}
	for i, v := range s.offset.Elements {
		s.offset.Elements[i] = math.Max(-maxOffset, math.Min(maxOffset, v))
	}

	s.iteration++
	rec.Iteration = s.iteration
	rec.Remaining = s.mask.Count()
	s.history = append(s.history, rec)
	switch {
	case !s.mask.Any():
		s.status = Converged
	case s.iteration >= maxIterations:
		s.status = Capped
	}
	return s
}

// difference returns the aggregated ratio minus the target ratio at
// pixel i, or zero if either is missing.
func (d *disaggregation) difference(ratio *Field, i int) float64 {
	r, ok1 := ratio.At(i)
	t, ok2 := d.target.At(i)
	if !ok1 || !ok2 {
		return 0
	}
	return r - t
}
