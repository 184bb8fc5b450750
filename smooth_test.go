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
	"testing"

	"gonum.org/v1/gonum/floats"
)

func TestGaussianSmooth(t *testing.T) {
	const tol = 1.e-10
	t.Run("constant", func(t *testing.T) {
		f := FilledField(3.5, 7, 9)
		s := GaussianSmooth(f, 6)
		for i, v := range s.Elements {
			if !s.Valid[i] || math.Abs(v-3.5) > tol {
				t.Fatalf("pixel %d = %g (%v)", i, v, s.Valid[i])
			}
		}
	})
	t.Run("all missing", func(t *testing.T) {
		s := GaussianSmooth(NewField(5, 5), 20)
		if s.NumValid() != 0 {
			t.Errorf("%d valid pixels, want 0", s.NumValid())
		}
	})
	t.Run("gap", func(t *testing.T) {
		f := FilledField(-2, 6, 6)
		f.Invalidate(14)
		s := GaussianSmooth(f, 6)
		if v, ok := s.At(14); !ok || math.Abs(v+2) > tol {
			t.Errorf("gap = %g (%v), want -2", v, ok)
		}
	})
	t.Run("ramp", func(t *testing.T) {
		f := NewField(1, 11)
		for i := range f.Elements {
			f.Put(i, float64(i))
		}
		s := GaussianSmooth(f, 4)
		if v, _ := s.At(5); math.Abs(v-5) > tol {
			t.Errorf("center = %g, want 5", v)
		}
		if v, _ := s.At(0); v <= 0 {
			t.Errorf("edge = %g, should be pulled toward the interior", v)
		}
	})
	t.Run("input unchanged", func(t *testing.T) {
		f := NewField(3, 3)
		f.Put(4, 1)
		GaussianSmooth(f, 4)
		if f.NumValid() != 1 {
			t.Error("input was modified")
		}
	})
}

func TestGaussianKernel(t *testing.T) {
	k := gaussianKernel(1.5)
	if len(k) != 2*6+1 {
		t.Errorf("kernel length %d, want 13", len(k))
	}
	if math.Abs(floats.Sum(k)-1) > 1.e-12 {
		t.Errorf("kernel sum %g", floats.Sum(k))
	}
	if k[6] != floats.Max(k) {
		t.Error("kernel should peak at its center")
	}
}

func TestReflectIndex(t *testing.T) {
	tests := []struct{ i, n, want int }{
		{0, 4, 0}, {3, 4, 3}, {-1, 4, 0}, {-2, 4, 1}, {4, 4, 3},
		{5, 4, 2}, {8, 4, 0}, {-5, 4, 3}, {-9, 4, 0}, {7, 1, 0},
	}
	for _, test := range tests {
		if have := reflectIndex(test.i, test.n); have != test.want {
			t.Errorf("reflectIndex(%d, %d) = %d, want %d", test.i, test.n, have, test.want)
		}
	}
}
