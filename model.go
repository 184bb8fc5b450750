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

// Quality flag values. Physical models may return other values to
// describe valid results; only FlagNoValid marks a failed pixel.
const (
	FlagValid   = 0
	FlagNoValid = 255
)

// DefaultModelIterations is the number of internal iterations that the
// physical model is allowed while the disaggregation loop is running.
const DefaultModelIterations = 15

// ResistanceKind selects the parameterization of the soil and canopy
// boundary-layer resistances used by the two-source model.
type ResistanceKind int

// Available resistance parameterizations.
const (
	// NormanKustas follows Norman et al. (1995) and Kustas and Norman (1999).
	NormanKustas ResistanceKind = iota
	// ChoudhuryMonteith follows Choudhury and Monteith (1988).
	ChoudhuryMonteith
	// McNaughtonVanDerHurk follows McNaughton and Van der Hurk (1995).
	McNaughtonVanDerHurk
)

func (k ResistanceKind) String() string {
	switch k {
	case NormanKustas:
		return "Norman/Kustas"
	case ChoudhuryMonteith:
		return "Choudhury-Monteith"
	case McNaughtonVanDerHurk:
		return "McNaughton-Van der Hurk"
	default:
		return "unknown"
	}
}

// GroundHeatMethod selects how the soil heat flux is estimated.
type GroundHeatMethod int

// Available soil heat flux methods.
const (
	// GroundHeatConstant uses a constant soil heat flux.
	GroundHeatConstant GroundHeatMethod = iota
	// GroundHeatRatio estimates soil heat flux as a fraction of soil net radiation.
	GroundHeatRatio
	// GroundHeatDiurnal uses the Santanello and Friedl (2003) diurnal shape.
	GroundHeatDiurnal
)

// GroundHeatFlux holds the soil heat flux method and its parameters.
type GroundHeatFlux struct {
	Method GroundHeatMethod

	Ratio    float64 // fraction of soil net radiation, GroundHeatRatio
	Constant float64 // W m-2, GroundHeatConstant

	// Parameters of GroundHeatDiurnal: local solar Time of the
	// observation [h], Amplitude of G/Rn, PhaseShift [h] and Shape,
	// the period of the cosine [h].
	Time, Amplitude, PhaseShift, Shape float64
}

// DefaultGroundHeatFlux estimates soil heat flux as 35% of soil net
// radiation.
func DefaultGroundHeatFlux() GroundHeatFlux {
	return GroundHeatFlux{Method: GroundHeatRatio, Ratio: 0.35}
}

// BareSoilInput holds the forcing for a subset of bare-soil pixels.
// Every slice has one value per pixel in the subset.
type BareSoilInput struct {
	Tr  []float64 // radiometric surface temperature [K]
	Ta  []float64 // air temperature [K]
	U   []float64 // wind speed [m s-1]
	Ea  []float64 // vapour pressure [mb]
	P   []float64 // atmospheric pressure [mb]
	SnS []float64 // soil net shortwave radiation [W m-2]
	Ldn []float64 // downwelling longwave radiation [W m-2]

	EmisS []float64
	Z0M   []float64 // roughness length for momentum [m]
	D0    []float64 // zero-plane displacement height [m]
	ZU    []float64 // wind measurement height [m]
	ZT    []float64 // temperature measurement height [m]

	// L is the Monin-Obukhov length [m] used as the starting point of
	// the model's own stability iteration. NaN means unknown.
	L []float64

	GroundHeat GroundHeatFlux

	// Iterations is the maximum number of internal stability iterations.
	Iterations int
}

// BareSoilOutput holds the results of a bare-soil model evaluation,
// aligned by position with the input subset. Failed pixels have
// FlagNoValid and NaN values.
type BareSoilOutput struct {
	Flag                []int
	LnS, LES, HS, G, RA []float64
	UFriction, L        []float64
	NIterations         []int
}

// TwoSourceInput holds the forcing for a subset of vegetated pixels.
type TwoSourceInput struct {
	Tr, VZA, Ta, U, Ea, P []float64
	SnC, SnS, Ldn         []float64
	LAI, HC               []float64
	EmisC, EmisS          []float64
	Z0M, D0, ZU, ZT       []float64

	LeafWidth, Z0Soil, AlphaPT, XLAD []float64
	FC, FG, WC                       []float64

	Resistance ResistanceKind
	// ResistanceParams holds the per-pixel auxiliary parameters of the
	// selected resistance form, sliced to the same subset as the other
	// inputs.
	ResistanceParams map[string][]float64

	L          []float64
	GroundHeat GroundHeatFlux
	Iterations int
}

// TwoSourceOutput holds the results of a two-source model evaluation.
type TwoSourceOutput struct {
	Flag                []int
	TS, TC, TAC         []float64
	LnS, LnC            []float64
	LEC, HC, LES, HS, G []float64
	RS, RX, RA          []float64
	UFriction, L        []float64
	NIterations         []int
}

// Model is an external surface energy balance model. Implementations
// must not retain the slices they are given and must report failure
// only through FlagNoValid.
type Model interface {
	// BareSoil evaluates a single-source energy balance.
	BareSoil(in *BareSoilInput) *BareSoilOutput

	// TwoSource evaluates a two-source Priestley-Taylor energy balance.
	TwoSource(in *TwoSourceInput) *TwoSourceOutput
}
