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

import "github.com/sirupsen/logrus"

// stabilityWindow is the smoothing window [pixels] of the Monin-Obukhov
// length before the final evaluation.
const stabilityWindow = 20

// finalPass smooths the offset and stability length of the converged
// state s and evaluates the model once more, with a larger iteration
// allowance, over every pixel that has a target ratio. The smoothed
// offset is applied to the temperatures the loop finished with.
func (d *disaggregation) finalPass(s *iterationState) *Result {
	r := &Result{
		OffsetOrig: s.offset.Copy(),
		Offset:     GaussianSmooth(s.offset, 3*float64(d.in.Scale.Row)),
		L:          GaussianSmooth(s.l, stabilityWindow),
		Iterations: s.iteration,
		Status:     s.status,
		Mask:       s.mask.Copy(),
		History:    s.history,
	}

	tr := append([]float64(nil), s.tr...)
	ta := append([]float64(nil), s.ta...)
	for i := range tr {
		off, ok := r.Offset.At(i)
		if !ok {
			continue
		}
		if d.cfg.CorrectLST {
			tr[i] -= off
		} else {
			ta[i] += off
		}
	}

	mask := Mask(append([]bool(nil), d.target.Valid...))
	r.Fluxes = newFluxes(d.fineShape)
	for i, in := range mask {
		if in {
			r.Flag.Elements[i] = FlagValid
		}
	}
	e := &evaluation{d: d, tr: tr, ta: ta, l: r.L, iterations: finalModelIterations, out: r.Fluxes}
	e.dispatch(mask)

	valid := 0
	for _, f := range r.Flag.Elements {
		if f != FlagNoValid {
			valid++
		}
	}
	d.log.WithFields(logrus.Fields{
		"pixels": mask.Count(),
		"valid":  valid,
	}).Info("distseb: final evaluation complete")
	return r
}
