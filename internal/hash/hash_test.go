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

package hash

import (
	"math"
	"testing"
)

type config struct {
	Name   string
	Vars   map[string]string
	Values []float64
	Next   *config
}

func TestFingerprint(t *testing.T) {
	a := &config{
		Name:   "a",
		Vars:   map[string]string{"EF": "LE / (LE + H)", "LE": "LE_C + LE_S", "H": "H_C + H_S"},
		Values: []float64{1, math.NaN()},
		Next:   &config{Name: "b"},
	}
	b := &config{
		Name:   "a",
		Vars:   map[string]string{"H": "H_C + H_S", "LE": "LE_C + LE_S", "EF": "LE / (LE + H)"},
		Values: []float64{1, math.NaN()},
		Next:   &config{Name: "b"},
	}
	fa := Fingerprint(a)
	if len(fa) != 16 {
		t.Errorf("fingerprint %q should have 16 characters", fa)
	}
	for i := 0; i < 5; i++ {
		if fb := Fingerprint(b); fb != fa {
			t.Fatalf("equal values: %s != %s", fa, fb)
		}
	}
	b.Next.Name = "c"
	if Fingerprint(b) == fa {
		t.Error("different values should have different fingerprints")
	}
}
