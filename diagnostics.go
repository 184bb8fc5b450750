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
	"fmt"
	"math"

	"github.com/GaryBoone/GoStats/stats"
	"github.com/ctessum/sparse"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Diagnostics compares the evaporative fraction of a disaggregation
// result, aggregated back to the coarse grid, with the coarse target.
type Diagnostics struct {
	// Cells is the number of coarse cells where both the target and the
	// aggregated result are present.
	Cells int

	// Slope, Intercept and R2 describe the linear regression of the
	// aggregated ratio against the target ratio.
	Slope, Intercept, R2 float64

	// MeanBias is the mean of the aggregated ratio minus the target and
	// RMSE is the root-mean-square difference.
	MeanBias, RMSE float64

	// Converged is the fraction of coarse cells whose aggregated ratio
	// is within the loop tolerance of the target.
	Converged float64
}

// Diagnose calculates diagnostics of r against the coarse target ratio.
// Statistics that need more than one cell are NaN when fewer are
// available.
func Diagnose(r *Result, target *sparse.DenseArray, scale Scale) (*Diagnostics, error) {
	if r == nil || r.Fluxes == nil {
		return nil, fmt.Errorf("distseb: diagnostics: no result")
	}
	pixelMap, err := BuildPixelMap(scale, target.Shape, r.Flag.Shape)
	if err != nil {
		return nil, fmt.Errorf("distseb: diagnostics: %w", err)
	}
	fine := NewField(r.Flag.Shape...)
	for i, f := range r.Flag.Elements {
		if f == FlagNoValid {
			continue
		}
		if v, ok := r.ratio(i); ok {
			fine.Put(i, v)
		}
	}
	agg := Aggregate(fine, pixelMap, target.Shape)

	var x, y []float64
	for i, t := range target.Elements {
		v, ok := agg.At(i)
		if !ok || math.IsNaN(t) {
			continue
		}
		x = append(x, t)
		y = append(y, v)
	}
	d := &Diagnostics{
		Cells:     len(x),
		Slope:     math.NaN(),
		Intercept: math.NaN(),
		R2:        math.NaN(),
		MeanBias:  math.NaN(),
		RMSE:      math.NaN(),
		Converged: math.NaN(),
	}
	if len(x) == 0 {
		return d, nil
	}
	diff := make([]float64, len(x))
	floats.SubTo(diff, y, x)
	d.MeanBias = stat.Mean(diff, nil)
	d.RMSE = floats.Norm(diff, 2) / math.Sqrt(float64(len(diff)))
	var ok float64
	for _, v := range diff {
		if math.Abs(v) <= ratioTolerance {
			ok++
		}
	}
	d.Converged = ok / float64(len(diff))
	if len(x) > 1 {
		d.Slope, d.Intercept, d.R2, _, _, _ = stats.LinearRegression(x, y)
	}
	return d, nil
}
