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
	"gonum.org/v1/gonum/floats"
)

// gaussianTruncate is the number of standard deviations at which the
// smoothing kernel is truncated.
const gaussianTruncate = 4.0

// GaussianSmooth returns a smoothed copy of f, using a Gaussian kernel
// with a standard deviation of window/4 pixels. Missing pixels do not
// contribute to the result, and a pixel of the result is only missing
// if no valid pixel lies within the kernel's reach. Edges are handled
// by reflecting the field about its boundary.
func GaussianSmooth(f *Field, window float64) *Field {
	sigma := window / 4
	if sigma <= 0 {
		return f.Copy()
	}
	v := sparse.ZerosDense(f.Shape...)
	w := sparse.ZerosDense(f.Shape...)
	for i, ok := range f.Valid {
		if ok {
			v.Elements[i] = f.Elements[i]
			w.Elements[i] = 1
		}
	}
	k := gaussianKernel(sigma)
	vv := convolve2D(v, k)
	ww := convolve2D(w, k)

	o := NewField(f.Shape...)
	for i, wt := range ww.Elements {
		if wt > 0 {
			o.Put(i, vv.Elements[i]/wt)
		}
	}
	return o
}

// gaussianKernel returns normalized one-dimensional Gaussian weights
// for offsets -r..r, where r = int(4σ+0.5).
func gaussianKernel(sigma float64) []float64 {
	r := int(gaussianTruncate*sigma + 0.5)
	k := make([]float64, 2*r+1)
	for x := -r; x <= r; x++ {
		k[x+r] = math.Exp(-0.5 * float64(x*x) / (sigma * sigma))
	}
	floats.Scale(1/floats.Sum(k), k)
	return k
}

// convolve2D applies the one-dimensional kernel k along both dimensions
// of the two-dimensional array a.
func convolve2D(a *sparse.DenseArray, k []float64) *sparse.DenseArray {
	ny, nx := a.Shape[0], a.Shape[1]
	r := len(k) / 2
	tmp := sparse.ZerosDense(a.Shape...)
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			var s float64
			for o := -r; o <= r; o++ {
				s += k[o+r] * a.Elements[reflectIndex(j+o, ny)*nx+i]
			}
			tmp.Elements[j*nx+i] = s
		}
	}
	out := sparse.ZerosDense(a.Shape...)
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			var s float64
			for o := -r; o <= r; o++ {
				s += k[o+r] * tmp.Elements[j*nx+reflectIndex(i+o, nx)]
			}
			out.Elements[j*nx+i] = s
		}
	}
	return out
}

// reflectIndex maps i onto [0, n) by reflecting about the array edges,
// repeating the edge value: (d c b a | a b c d | d c b a).
func reflectIndex(i, n int) int {
	if n == 1 {
		return 0
	}
	p := 2 * n
	i %= p
	if i < 0 {
		i += p
	}
	if i >= n {
		i = p - 1 - i
	}
	return i
}
