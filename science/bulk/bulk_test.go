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

package bulk

import (
	"math"
	"testing"

	"github.com/ctessum/sparse"
	"github.com/spatialmodel/distseb"
)

const testTolerance = 1.e-6

func bareSoilTestInput(n int) *distseb.BareSoilInput {
	fill := func(v float64) []float64 {
		o := make([]float64, n)
		for i := range o {
			o[i] = v
		}
		return o
	}
	return &distseb.BareSoilInput{
		Tr:         fill(310),
		Ta:         fill(300),
		U:          fill(3),
		Ea:         fill(15),
		P:          fill(1000),
		SnS:        fill(500),
		Ldn:        fill(350),
		EmisS:      fill(0.95),
		Z0M:        fill(0.01),
		D0:         fill(0),
		ZU:         fill(10),
		ZT:         fill(2),
		L:          fill(math.NaN()),
		GroundHeat: distseb.DefaultGroundHeatFlux(),
		Iterations: distseb.DefaultModelIterations,
	}
}

func twoSourceTestInput(n int) *distseb.TwoSourceInput {
	fill := func(v float64) []float64 {
		o := make([]float64, n)
		for i := range o {
			o[i] = v
		}
		return o
	}
	return &distseb.TwoSourceInput{
		Tr: fill(305), VZA: fill(0), Ta: fill(300), U: fill(3), Ea: fill(15), P: fill(1000),
		SnC: fill(300), SnS: fill(200), Ldn: fill(350),
		LAI: fill(2), HC: fill(1), EmisC: fill(0.98), EmisS: fill(0.95),
		Z0M: fill(0.125), D0: fill(0.67), ZU: fill(10), ZT: fill(5),
		LeafWidth: fill(0.1), Z0Soil: fill(0.01), AlphaPT: fill(1.26), XLAD: fill(1),
		FC: fill(1), FG: fill(1), WC: fill(1),
		L:          fill(math.NaN()),
		GroundHeat: distseb.DefaultGroundHeatFlux(),
		Iterations: distseb.DefaultModelIterations,
	}
}

func TestBareSoilEnergyBalance(t *testing.T) {
	in := bareSoilTestInput(1)
	o := Model{}.BareSoil(in)
	if o.Flag[0] == distseb.FlagNoValid {
		t.Fatal("pixel should be valid")
	}
	rn := in.SnS[0] + o.LnS[0]
	if math.Abs(rn-o.LES[0]-o.HS[0]-o.G[0]) > testTolerance {
		t.Errorf("energy balance not closed: Rn=%g, LE=%g, H=%g, G=%g", rn, o.LES[0], o.HS[0], o.G[0])
	}
	if o.HS[0] <= 0 {
		t.Errorf("surface warmer than air should give upward sensible heat; H=%g", o.HS[0])
	}
	if o.LES[0] < 0 {
		t.Errorf("negative soil evaporation: %g", o.LES[0])
	}
	if o.NIterations[0] < 1 || o.NIterations[0] > in.Iterations {
		t.Errorf("iterations = %d", o.NIterations[0])
	}
	if math.Abs(o.G[0]-0.35*rn) > testTolerance {
		t.Errorf("G = %g, want %g", o.G[0], 0.35*rn)
	}
}

func TestBareSoilInvalid(t *testing.T) {
	in := bareSoilTestInput(3)
	in.Tr[1] = math.NaN()
	in.Tr[2] = -1
	o := Model{}.BareSoil(in)
	if o.Flag[0] == distseb.FlagNoValid {
		t.Error("pixel 0 should be valid")
	}
	for _, i := range []int{1, 2} {
		if o.Flag[i] != distseb.FlagNoValid {
			t.Errorf("pixel %d: flag = %d", i, o.Flag[i])
		}
		if !math.IsNaN(o.LES[i]) || !math.IsNaN(o.HS[i]) {
			t.Errorf("pixel %d should have missing fluxes", i)
		}
	}
}

func TestGroundHeat(t *testing.T) {
	tests := []struct {
		name string
		g    distseb.GroundHeatFlux
		want float64
	}{
		{"constant", distseb.GroundHeatFlux{Method: distseb.GroundHeatConstant, Constant: 20}, 20},
		{"ratio", distseb.GroundHeatFlux{Method: distseb.GroundHeatRatio, Ratio: 0.3}, 60},
		{"diurnal noon", distseb.GroundHeatFlux{Method: distseb.GroundHeatDiurnal,
			Time: 12, Amplitude: 0.31, PhaseShift: 0, Shape: 24}, 62},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if have := groundHeat(test.g, 200); math.Abs(have-test.want) > testTolerance {
				t.Errorf("have %g, want %g", have, test.want)
			}
		})
	}
}

func TestTwoSourceEnergyBalance(t *testing.T) {
	for _, kind := range []distseb.ResistanceKind{distseb.NormanKustas,
		distseb.ChoudhuryMonteith, distseb.McNaughtonVanDerHurk} {
		t.Run(kind.String(), func(t *testing.T) {
			in := twoSourceTestInput(1)
			in.Resistance = kind
			o := Model{}.TwoSource(in)
			if o.Flag[0] == distseb.FlagNoValid {
				t.Fatal("pixel should be valid")
			}
			rnC := in.SnC[0] + o.LnC[0]
			if math.Abs(rnC-o.LEC[0]-o.HC[0]) > testTolerance {
				t.Errorf("canopy balance: Rn=%g, LE=%g, H=%g", rnC, o.LEC[0], o.HC[0])
			}
			rnS := in.SnS[0] + o.LnS[0]
			if math.Abs(rnS-o.LES[0]-o.HS[0]-o.G[0]) > testTolerance {
				t.Errorf("soil balance: Rn=%g, LE=%g, H=%g, G=%g", rnS, o.LES[0], o.HS[0], o.G[0])
			}
			if o.LES[0] < 0 {
				t.Errorf("negative soil evaporation: %g", o.LES[0])
			}
			for name, v := range map[string]float64{"RS": o.RS[0], "RX": o.RX[0], "RA": o.RA[0]} {
				if !(v > 0) {
					t.Errorf("%s = %g", name, v)
				}
			}
		})
	}
}

func TestTwoSourceResistanceParams(t *testing.T) {
	in := twoSourceTestInput(2)
	in.ResistanceParams = map[string][]float64{"KN_C_dash": {90, 180}}
	o := Model{}.TwoSource(in)
	if o.Flag[0] == distseb.FlagNoValid || o.Flag[1] == distseb.FlagNoValid {
		t.Fatal("pixels should be valid")
	}
	if o.RX[1] <= o.RX[0] {
		t.Errorf("a larger C' should give a larger canopy resistance: %g <= %g", o.RX[1], o.RX[0])
	}
}

func TestTwoSourceInvalid(t *testing.T) {
	in := twoSourceTestInput(2)
	in.Ldn[1] = math.NaN()
	o := Model{}.TwoSource(in)
	if o.Flag[1] != distseb.FlagNoValid || !math.IsNaN(o.LEC[1]) {
		t.Errorf("pixel with missing forcing: flag = %d, LE_C = %g", o.Flag[1], o.LEC[1])
	}
}

func filled(v float64, shape ...int) *sparse.DenseArray {
	a := sparse.ZerosDense(shape...)
	for i := range a.Elements {
		a.Elements[i] = v
	}
	return a
}

func TestDisaggregate(t *testing.T) {
	const ny, nx = 4, 4
	lai := filled(2, ny, nx)
	for i := 0; i < nx; i++ {
		lai.Set(0, 0, i) // first row is bare soil
	}
	in := &distseb.Input{
		TargetRatio: filled(0.6, 2, 2),
		Scale:       distseb.Scale{Row: 2, Col: 2},
		Tr:          filled(305, ny, nx),
		VZA:         filled(0, ny, nx),
		Ta:          filled(300, ny, nx),
		U:           filled(3, ny, nx),
		Ea:          filled(15, ny, nx),
		P:           filled(1000, ny, nx),
		SnC:         filled(300, ny, nx),
		SnS:         filled(200, ny, nx),
		Ldn:         filled(350, ny, nx),
		LAI:         lai,
		HC:          filled(1, ny, nx),
		EmisC:       filled(0.98, ny, nx),
		EmisS:       filled(0.95, ny, nx),
		Z0M:         filled(0.125, ny, nx),
		D0:          filled(0.67, ny, nx),
		ZU:          filled(10, ny, nx),
		ZT:          filled(5, ny, nx),
	}
	in.TargetRatio.Set(math.NaN(), 1, 1)
	r, err := distseb.Disaggregate(in, &distseb.Config{Model: Model{}, CorrectLST: true})
	if err != nil {
		t.Fatal(err)
	}
	if r.Iterations < 1 || r.Iterations > 50 {
		t.Errorf("iterations = %d", r.Iterations)
	}
	if r.Status == distseb.Running {
		t.Error("loop did not finish")
	}
	for i, v := range r.OffsetOrig.Elements {
		if math.Abs(v) > 5 {
			t.Errorf("offset %d = %g", i, v)
		}
	}
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			f := r.Flag.Get(j, i)
			if j >= 2 && i >= 2 {
				if f != distseb.FlagNoValid {
					t.Errorf("pixel (%d, %d) without target: flag = %d", j, i, f)
				}
			} else if f == distseb.FlagNoValid {
				t.Errorf("pixel (%d, %d) should be valid", j, i)
			}
		}
	}
	d, err := distseb.Diagnose(r, in.TargetRatio, in.Scale)
	if err != nil {
		t.Fatal(err)
	}
	if d.Cells != 3 {
		t.Errorf("diagnostic cells = %d, want 3", d.Cells)
	}
}
