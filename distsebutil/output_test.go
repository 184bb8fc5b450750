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
	"math"
	"testing"

	"github.com/ctessum/sparse"
)

func TestOutputter(t *testing.T) {
	vars := map[string]*sparse.DenseArray{
		"LE_C": denseFrom([]int{1, 3}, 100, 200, math.NaN()),
		"LE_S": denseFrom([]int{1, 3}, 50, 0, 10),
		"H_C":  denseFrom([]int{1, 3}, 30, -20, 10),
		"H_S":  denseFrom([]int{1, 3}, 20, 20, 10),
	}
	o, err := NewOutputter(map[string]string{
		"EF":   "ratio(LE, LE + H)",
		"LE":   "LE_C + LE_S",
		"H":    "H_C + H_S",
		"absH": "abs(H_C)",
		"one":  "exp(0)",
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	r, err := o.Results(vars)
	if err != nil {
		t.Fatal(err)
	}
	want := map[string][]float64{
		"LE":   {150, 200, math.NaN()},
		"H":    {50, 0, 20},
		"EF":   {0.75, 1, math.NaN()},
		"absH": {30, 20, 10},
		"one":  {1, 1, 1},
	}
	for n, w := range want {
		if !sameValues(r[n].Elements, w) {
			t.Errorf("%s: have %v, want %v", n, r[n].Elements, w)
		}
	}
	if len(r) != len(want) {
		t.Errorf("%d results, want %d", len(r), len(want))
	}
}

func TestOutputterErrors(t *testing.T) {
	vars := map[string]*sparse.DenseArray{"LE_C": denseFrom([]int{1, 1}, 1)}
	t.Run("cycle", func(t *testing.T) {
		_, err := NewOutputter(map[string]string{"a": "b + 1", "b": "a * 2"}, nil)
		if err == nil {
			t.Error("circular definition should give an error")
		}
	})
	t.Run("syntax", func(t *testing.T) {
		if _, err := NewOutputter(map[string]string{"a": "LE_C +"}, nil); err == nil {
			t.Error("invalid expression should give an error")
		}
	})
	t.Run("undefined", func(t *testing.T) {
		o, err := NewOutputter(map[string]string{"a": "LE_D"}, nil)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := o.Results(vars); err == nil {
			t.Error("undefined variable should give an error")
		}
	})
	t.Run("collision", func(t *testing.T) {
		o, err := NewOutputter(map[string]string{"LE_C": "2"}, nil)
		if err != nil {
			t.Fatal(err)
		}
		if err := o.CheckOutputVars(vars); err == nil {
			t.Error("replacing a model variable should give an error")
		}
	})
	t.Run("arguments", func(t *testing.T) {
		o, err := NewOutputter(map[string]string{"a": "ratio(LE_C)"}, nil)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := o.Results(vars); err == nil {
			t.Error("wrong number of arguments should give an error")
		}
	})
}
