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

package met

import (
	"math"
	"testing"
)

func different(a, b, tolerance float64) bool {
	if 2*math.Abs(a-b)/math.Abs(a+b) > tolerance || math.IsNaN(a) || math.IsNaN(b) {
		return true
	}
	return false
}

func TestAirProperties(t *testing.T) {
	m := Standard{}
	tests := []struct {
		name string
		f    func() float64
		want float64
	}{
		{"dry air density", func() float64 { return m.AirDensity(1013.25, 0, 288.15) }, 1.225},
		{"dry heat capacity", func() float64 { return m.HeatCapacity(1013, 0) }, CpDry},
		{"latent heat at freezing", func() float64 { return m.LatentHeat(273.15) }, 2.501e6},
		{"saturation at 20 C", func() float64 { return m.SaturationVapourPressure(293.15) }, 23.37},
		{"psychrometric", func() float64 { return m.Psychrometric(1013, 0, 293.15) }, 0.6660},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if have := test.f(); different(have, test.want, 1.e-3) {
				t.Errorf("have %g, want %g", have, test.want)
			}
		})
	}
}

func TestMoistAir(t *testing.T) {
	m := Standard{}
	if m.AirDensity(1000, 20, 300) >= m.AirDensity(1000, 0, 300) {
		t.Error("moist air should be less dense than dry air")
	}
	if m.HeatCapacity(1000, 20) <= CpDry {
		t.Error("moist air should have a larger heat capacity than dry air")
	}
	if m.SaturationSlope(303.15) <= m.SaturationSlope(283.15) {
		t.Error("saturation slope should increase with temperature")
	}
}

func TestStabilityLength(t *testing.T) {
	m := Standard{}
	const ta, rho, cp = 300., 1.15, 1010.
	if l := m.StabilityLength(0.3, ta, rho, cp, 200, 100); l >= 0 {
		t.Errorf("upward heat flux should be unstable; L = %g", l)
	}
	if l := m.StabilityLength(0.3, ta, rho, cp, -50, 0); l <= 0 {
		t.Errorf("downward heat flux should be stable; L = %g", l)
	}
	if l := m.StabilityLength(0.3, ta, rho, cp, 0, 0); !math.IsInf(l, 1) {
		t.Errorf("zero flux should be neutral; L = %g", l)
	}
	if l := m.StabilityLength(0.3, ta, rho, cp, math.NaN(), 0); !math.IsNaN(l) {
		t.Errorf("missing flux should give missing L; L = %g", l)
	}
	want := -math.Pow(0.3, 3) / (VonKarman * Gravity / ta * 200 / (rho * cp))
	if l := m.StabilityLength(0.3, ta, rho, cp, 200, 0); different(l, want, 1.e-10) {
		t.Errorf("have %g, want %g", l, want)
	}
}

func TestPsi(t *testing.T) {
	if PsiM(0) != 0 || PsiH(0) != 0 {
		t.Error("neutral corrections should be zero")
	}
	if PsiM(-1) <= 0 || PsiH(-1) <= 0 {
		t.Error("unstable corrections should be positive")
	}
	if PsiM(0.5) != -2.5 || PsiH(0.5) != -2.5 {
		t.Errorf("stable corrections: have %g, %g", PsiM(0.5), PsiH(0.5))
	}
	if PsiH(-1) <= PsiM(-1) {
		t.Error("unstable heat correction should exceed momentum correction")
	}
	if z := Zeta(10, math.Inf(1)); z != 0 {
		t.Errorf("infinite L: have zeta %g", z)
	}
	if z := Zeta(10, math.NaN()); z != 0 {
		t.Errorf("unknown L: have zeta %g", z)
	}
}
