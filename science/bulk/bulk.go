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

// Package bulk provides a simple bulk-transfer surface energy balance
// model for use with the distseb disaggregation. It includes a
// single-source model for bare soil and a two-source Priestley-Taylor
// model for vegetated surfaces.
package bulk

import (
	"math"

	"github.com/spatialmodel/distseb"
	"github.com/spatialmodel/distseb/met"
)

// Additional quality flags. Both describe valid results.
const (
	// FlagAlphaReduced means the Priestley-Taylor coefficient was
	// reduced to avoid negative soil evaporation.
	FlagAlphaReduced = 3

	// FlagSoilClipped means soil evaporation was set to zero and the
	// canopy transpired nothing.
	FlagSoilClipped = 5
)

const (
	// lTolerance is the relative change in the Monin-Obukhov length
	// below which the stability iteration has converged.
	lTolerance = 1e-3

	minUstar      = 0.01 // m s-1
	minWind       = 0.1  // m s-1
	minResistance = 1.0  // s m-1
	alphaStep     = 0.1

	// soilWindHeight is the height above the soil at which the
	// soil boundary-layer wind is evaluated [m].
	soilWindHeight = 0.05
)

// Model is a bulk-transfer energy balance model.
type Model struct {
	met.Standard
}

// groundHeat returns soil heat flux given soil net radiation rn.
func groundHeat(g distseb.GroundHeatFlux, rn float64) float64 {
	switch g.Method {
	case distseb.GroundHeatConstant:
		return g.Constant
	case distseb.GroundHeatDiurnal:
		return g.Amplitude * math.Cos(2*math.Pi*(g.Time-12+g.PhaseShift)/g.Shape) * rn
	default:
		return g.Ratio * rn
	}
}

// frictionVelocity returns u* [m s-1] given wind speed u at height zu.
func frictionVelocity(u, zu, d0, z0m, l float64) float64 {
	z := zu - d0
	ustar := met.VonKarman * u / (math.Log(z/z0m) - met.PsiM(met.Zeta(z, l)) + met.PsiM(met.Zeta(z0m, l)))
	return math.Max(ustar, minUstar)
}

// aerodynamicResistance returns the resistance to heat transport
// [s m-1] between the surface and the measurement height zt.
func aerodynamicResistance(ustar, zt, d0, z0h, l float64) float64 {
	z := zt - d0
	r := (math.Log(z/z0h) - met.PsiH(met.Zeta(z, l)) + met.PsiH(met.Zeta(z0h, l))) / (met.VonKarman * ustar)
	return math.Max(r, minResistance)
}

// lConverged returns whether the stability length changed by less than
// lTolerance.
func lConverged(prev, next float64) bool {
	if math.IsInf(prev, 0) && math.IsInf(next, 0) {
		return true
	}
	return math.Abs(next-prev) <= lTolerance*math.Abs(prev)
}

func maxIterations(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

func finite(v ...float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

func nanSlice(n int) []float64 {
	o := make([]float64, n)
	for i := range o {
		o[i] = math.NaN()
	}
	return o
}

// BareSoil implements distseb.Model.
func (m Model) BareSoil(in *distseb.BareSoilInput) *distseb.BareSoilOutput {
	n := len(in.Tr)
	o := &distseb.BareSoilOutput{
		Flag:        make([]int, n),
		LnS:         nanSlice(n),
		LES:         nanSlice(n),
		HS:          nanSlice(n),
		G:           nanSlice(n),
		RA:          nanSlice(n),
		UFriction:   nanSlice(n),
		L:           nanSlice(n),
		NIterations: make([]int, n),
	}
	for i := 0; i < n; i++ {
		o.Flag[i] = distseb.FlagNoValid
		tr, ta, u, ea, p := in.Tr[i], in.Ta[i], math.Max(in.U[i], minWind), in.Ea[i], in.P[i]
		z0m, d0, zu, zt := in.Z0M[i], in.D0[i], in.ZU[i], in.ZT[i]
		if !finite(tr, ta, u, ea, p, in.SnS[i], in.Ldn[i], in.EmisS[i], z0m, d0, zu, zt) ||
			tr <= 0 || ta <= 0 || z0m <= 0 || zu-d0 <= z0m || zt-d0 <= z0m {
			continue
		}
		rho, cp := m.AirDensity(p, ea, ta), m.HeatCapacity(p, ea)
		lns := in.EmisS[i]*in.Ldn[i] - in.EmisS[i]*met.StefanBoltz*math.Pow(tr, 4)
		rn := in.SnS[i] + lns
		g := groundHeat(in.GroundHeat, rn)

		l := in.L[i]
		if math.IsNaN(l) {
			l = math.Inf(1)
		}
		var ustar, ra, h, le float64
		flag := distseb.FlagValid
		it := 0
		for it < maxIterations(in.Iterations) {
			it++
			ustar = frictionVelocity(u, zu, d0, z0m, l)
			ra = aerodynamicResistance(ustar, zt, d0, z0m, l)
			h = rho * cp * (tr - ta) / ra
			le = rn - g - h
			if le < 0 {
				le, h = 0, rn-g
				flag = FlagSoilClipped
			}
			next := m.StabilityLength(ustar, ta, rho, cp, h, le)
			done := lConverged(l, next)
			l = next
			if done {
				break
			}
		}
		if !finite(lns, le, h, g, ra, ustar) || ra <= 0 {
			continue
		}
		o.Flag[i] = flag
		o.LnS[i], o.LES[i], o.HS[i], o.G[i] = lns, le, h, g
		o.RA[i], o.UFriction[i], o.L[i] = ra, ustar, l
		o.NIterations[i] = it
	}
	return o
}
