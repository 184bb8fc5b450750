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

// Meteorology provides the meteorological relations needed to update
// the atmospheric stability between iterations.
type Meteorology interface {
	// AirDensity returns the density of moist air [kg m-3] given
	// pressure p [mb], vapour pressure ea [mb] and air temperature t [K].
	AirDensity(p, ea, t float64) float64

	// HeatCapacity returns the heat capacity of moist air at constant
	// pressure [J kg-1 K-1].
	HeatCapacity(p, ea float64) float64

	// StabilityLength returns the Monin-Obukhov length [m] given the
	// friction velocity [m s-1], air temperature [K], air density, heat
	// capacity and the sensible and latent heat fluxes [W m-2].
	StabilityLength(ustar, t, rho, cp, h, le float64) float64
}

// recomputeStability returns the Monin-Obukhov length of every pixel
// from the fluxes of the latest evaluation, using the air temperature
// ta that was given to the model. Pixels with any missing input are
// missing in the result.
func (d *disaggregation) recomputeStability(f *Fluxes, ta []float64) *Field {
	l := NewField(d.fineShape...)
	m := d.cfg.Meteorology
	for i := range l.Elements {
		ustar, ok1 := f.UFriction.At(i)
		lec, ok2 := f.LEC.At(i)
		les, ok3 := f.LES.At(i)
		hc, ok4 := f.HC.At(i)
		hs, ok5 := f.HS.At(i)
		if !(ok1 && ok2 && ok3 && ok4 && ok5) {
			continue
		}
		l.Put(i, m.StabilityLength(ustar, ta[i], d.rho[i], d.cp[i], hc+hs, lec+les))
	}
	return l
}
