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

// Package met provides meteorological relations for surface energy
// balance modeling: properties of moist air and Monin-Obukhov
// similarity functions.
package met

import "math"

// Physical constants.
const (
	VonKarman     = 0.41        // von Karman's constant
	Gravity       = 9.8         // acceleration of gravity [m s-2]
	StefanBoltz   = 5.670373e-8 // Stefan-Boltzmann constant [W m-2 K-4]
	Epsilon       = 0.622       // ratio of the molecular weights of water vapour and dry air
	Rd            = 287.04      // gas constant of dry air [J kg-1 K-1]
	CpDry         = 1003.5      // heat capacity of dry air [J kg-1 K-1]
	CpVapour      = 1865.0      // heat capacity of water vapour [J kg-1 K-1]
	freezingPoint = 273.15      // K
)

// Standard implements the usual formulation of air properties and
// stability used by two-source energy balance models.
type Standard struct{}

// AirDensity returns the density of moist air [kg m-3] given pressure
// p [mb], vapour pressure ea [mb] and air temperature t [K].
func (Standard) AirDensity(p, ea, t float64) float64 {
	return (100 * p / (Rd * t)) * (1 - (1-Epsilon)*ea/p)
}

// HeatCapacity returns the heat capacity of moist air at constant
// pressure [J kg-1 K-1].
func (Standard) HeatCapacity(p, ea float64) float64 {
	q := Epsilon * ea / (p + (Epsilon-1)*ea)
	return (1-q)*CpDry + q*CpVapour
}

// LatentHeat returns the latent heat of vaporization [J kg-1] at
// temperature t [K].
func (Standard) LatentHeat(t float64) float64 {
	return (2.501 - 2.361e-3*(t-freezingPoint)) * 1e6
}

// SaturationVapourPressure returns the saturation vapour pressure [mb]
// at temperature t [K].
func (Standard) SaturationVapourPressure(t float64) float64 {
	tc := t - freezingPoint
	return 6.112 * math.Exp(17.67*tc/(tc+243.5))
}

// SaturationSlope returns the slope of the saturation vapour pressure
// curve [mb K-1] at temperature t [K].
func (m Standard) SaturationSlope(t float64) float64 {
	tc := t - freezingPoint
	return m.SaturationVapourPressure(t) * 17.67 * 243.5 / ((tc + 243.5) * (tc + 243.5))
}

// Psychrometric returns the psychrometric constant [mb K-1] given
// pressure p [mb], vapour pressure ea [mb] and temperature t [K].
func (m Standard) Psychrometric(p, ea, t float64) float64 {
	return m.HeatCapacity(p, ea) * p / (Epsilon * m.LatentHeat(t))
}

// StabilityLength returns the Monin-Obukhov length [m] given the
// friction velocity ustar [m s-1], air temperature t [K], air density
// rho [kg m-3], heat capacity cp [J kg-1 K-1], sensible heat flux h and
// latent heat flux le [W m-2]. The result is +Inf under neutral
// conditions.
func (m Standard) StabilityLength(ustar, t, rho, cp, h, le float64) float64 {
	// Virtual sensible heat flux.
	hv := h + 0.61*t*cp*le/m.LatentHeat(t)
	if hv == 0 {
		return math.Inf(1)
	}
	return -ustar * ustar * ustar / (VonKarman * Gravity / t * hv / (rho * cp))
}

// PsiM returns the integrated stability correction for momentum at
// zeta = z/L. Infinite or undefined L gives neutral conditions.
func PsiM(zeta float64) float64 {
	switch {
	case math.IsNaN(zeta) || zeta == 0:
		return 0
	case zeta > 0:
		return -5 * math.Min(zeta, 1)
	}
	x := math.Pow(1-16*zeta, 0.25)
	return 2*math.Log((1+x)/2) + math.Log((1+x*x)/2) - 2*math.Atan(x) + math.Pi/2
}

// PsiH returns the integrated stability correction for heat at
// zeta = z/L.
func PsiH(zeta float64) float64 {
	switch {
	case math.IsNaN(zeta) || zeta == 0:
		return 0
	case zeta > 0:
		return -5 * math.Min(zeta, 1)
	}
	return 2 * math.Log((1+math.Sqrt(1-16*zeta))/2)
}

// Zeta returns z/L, the stability parameter, treating an unknown L as
// neutral.
func Zeta(z, l float64) float64 {
	if math.IsNaN(l) || math.IsInf(l, 0) || l == 0 {
		return 0
	}
	return z / l
}
