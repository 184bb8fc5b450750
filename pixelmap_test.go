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
	"errors"
	"math"
	"testing"

	"github.com/ctessum/sparse"
	"github.com/kr/pretty"
)

func denseFrom(shape []int, v ...float64) *sparse.DenseArray {
	a := sparse.ZerosDense(shape...)
	copy(a.Elements, v)
	return a
}

func sameValues(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i, v := range a {
		if math.IsNaN(v) != math.IsNaN(b[i]) {
			return false
		}
		if !math.IsNaN(v) && v != b[i] {
			return false
		}
	}
	return true
}

func TestPixelMap(t *testing.T) {
	nan := math.NaN()
	coarse := denseFrom([]int{2, 2}, 0.5, nan, 0.3, 0.4)
	scale := Scale{Row: 2, Col: 2}

	t.Run("map", func(t *testing.T) {
		m, err := BuildPixelMap(scale, coarse.Shape, []int{4, 4})
		if err != nil {
			t.Fatal(err)
		}
		want := []int{
			0, 0, 1, 1,
			0, 0, 1, 1,
			2, 2, 3, 3,
			2, 2, 3, 3,
		}
		if diff := pretty.Diff(m.Elements, want); len(diff) > 0 {
			t.Error(diff)
		}
	})
	t.Run("upsample", func(t *testing.T) {
		fine, err := Upsample(coarse, scale, []int{4, 4})
		if err != nil {
			t.Fatal(err)
		}
		want := []float64{
			.5, .5, nan, nan,
			.5, .5, nan, nan,
			.3, .3, .4, .4,
			.3, .3, .4, .4,
		}
		if !sameValues(fine.Elements, want) {
			t.Errorf("have %v, want %v", fine.Elements, want)
		}
		f, err := UpsampleField(FieldFromArray(coarse), scale, []int{4, 4})
		if err != nil {
			t.Fatal(err)
		}
		if !sameValues(f.Array().Elements, want) {
			t.Errorf("field: have %v, want %v", f.Array().Elements, want)
		}
	})
	t.Run("identity", func(t *testing.T) {
		fine, err := Upsample(coarse, Scale{1, 1}, coarse.Shape)
		if err != nil {
			t.Fatal(err)
		}
		if !sameValues(fine.Elements, coarse.Elements) {
			t.Errorf("have %v, want %v", fine.Elements, coarse.Elements)
		}
	})
	t.Run("truncate", func(t *testing.T) {
		m, err := BuildPixelMap(scale, coarse.Shape, []int{3, 3})
		if err != nil {
			t.Fatal(err)
		}
		want := []int{
			0, 0, 1,
			0, 0, 1,
			2, 2, 3,
		}
		if diff := pretty.Diff(m.Elements, want); len(diff) > 0 {
			t.Error(diff)
		}
	})
	t.Run("surjective", func(t *testing.T) {
		m, err := BuildPixelMap(Scale{3, 2}, []int{3, 4}, []int{9, 8})
		if err != nil {
			t.Fatal(err)
		}
		count := make(map[int]int)
		for _, id := range m.Elements {
			count[id]++
		}
		if len(count) != 12 {
			t.Errorf("%d coarse cells are covered, want 12", len(count))
		}
		for id, n := range count {
			if n != 6 {
				t.Errorf("cell %d covers %d pixels, want 6", id, n)
			}
		}
	})
	t.Run("bad scale", func(t *testing.T) {
		for _, s := range []Scale{{0, 1}, {1, 0}, {-1, 2}} {
			if _, err := BuildPixelMap(s, coarse.Shape, []int{4, 4}); !errors.Is(err, ErrScale) {
				t.Errorf("scale %v: have error %v", s, err)
			}
		}
	})
	t.Run("too large", func(t *testing.T) {
		if _, err := Upsample(coarse, scale, []int{5, 4}); !errors.Is(err, ErrShape) {
			t.Errorf("have error %v", err)
		}
	})
}

func TestAggregate(t *testing.T) {
	nan := math.NaN()
	m, err := BuildPixelMap(Scale{2, 2}, []int{2, 2}, []int{4, 4})
	if err != nil {
		t.Fatal(err)
	}
	fine := FieldFromArray(denseFrom([]int{4, 4},
		1, 2, nan, nan,
		3, nan, nan, nan,
		5, 5, 1, 2,
		5, 5, 3, 4,
	))
	agg := Aggregate(fine, m, []int{2, 2})
	want := []float64{2, nan, 5, 2.5}
	if !sameValues(agg.Array().Elements, want) {
		t.Errorf("have %v, want %v", agg.Array().Elements, want)
	}

	back := spread(agg, m)
	if v, ok := back.At(5); !ok || v != 2 {
		t.Errorf("spread: pixel 5 = %g (%v), want 2", v, ok)
	}
	if _, ok := back.At(2); ok {
		t.Error("spread: pixel 2 should be missing")
	}
}

func TestField(t *testing.T) {
	f := FieldFromArray(denseFrom([]int{2, 2}, 1, math.NaN(), 3, 4))
	if f.NumValid() != 3 {
		t.Errorf("NumValid = %d, want 3", f.NumValid())
	}
	c := f.Copy()
	c.Put(0, math.NaN())
	c.Invalidate(3)
	if _, ok := f.At(0); !ok {
		t.Error("copy should not share validity")
	}
	if c.NumValid() != 1 {
		t.Errorf("copy NumValid = %d, want 1", c.NumValid())
	}
	if !math.IsNaN(c.Array().Elements[3]) {
		t.Error("missing pixels should be NaN in arrays")
	}
	g := f.gather([]int{1, 2})
	if !math.IsNaN(g[0]) || g[1] != 3 {
		t.Errorf("gather = %v", g)
	}
	if v := gather(nil, []int{0, 1}, 1.26); v[0] != 1.26 || v[1] != 1.26 {
		t.Errorf("default gather = %v", v)
	}
}
