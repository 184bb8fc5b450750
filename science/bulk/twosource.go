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

	"github.com/spatialmodel/distseb"
	"github.com/spatialmodel/distseb/met"
)

// Default parameters of the Norman/Kustas resistances.
const (
	defaultKNb     = 0.012
	defaultKNc     = 0.0025
	defaultKNCDash = 90.0
)

// Names of the per-pixel Norman/Kustas resistance parameters.
const (
	ParamKNb     = "KN_b"
	ParamKNc     = "KN_c"
	ParamKNCDash = "KN_C_dash"
)

// maxVegetationView is the largest fraction of the sensor's view that
// vegetation may fill, so that the soil temperature remains defined.
const maxVegetationView = 0.99

// temperatureIterations is the number of passes used to solve the
// series resistance network for the component temperatures.
const temperatureIterations = 5

// pixel holds the forcing of one vegetated pixel.
type pixel struct {
	tr, vza, ta, u, ea, p      float64
	snC, snS, ldn              float64
	lai, hc, emisC, emisS      float64
	z0m, d0, zu, zt            float64
	leafWidth, z0Soil, alphaPT float64
	xLAD, fc, fg, wc           float64
	l                          float64
	params                     map[string]float64
}

func (p *pixel) valid() bool {
	return finite(p.tr, p.vza, p.ta, p.u, p.ea, p.p, p.snC, p.snS, p.ldn, p.lai, p.hc,
		p.emisC, p.emisS, p.z0m, p.d0, p.zu, p.zt, p.leafWidth, p.z0Soil, p.alphaPT,
		p.xLAD, p.fc, p.fg, p.wc) &&
		p.tr > 0 && p.ta > 0 && p.lai > 0 && p.hc > 0 && p.z0m > 0 && p.leafWidth > 0 &&
		p.fc > 0 && p.zu-p.d0 > p.z0m && p.zt-p.d0 > p.z0m
}

// param returns the named resistance parameter, or def if it is not
// available.
func (p *pixel) param(name string, def float64) float64 {
	if v, ok := p.params[name]; ok && finite(v) {
		return v
	}
	return def
}

// canopy holds the two-source solution of one pixel.
type canopy struct {
	flag                int
	ts, tc, tac         float64
	lnS, lnC            float64
	leC, hC, leS, hS, g float64
	rs, rx, ra          float64
	ustar, l            float64
	n                   int
}

// beamExtinction returns the extinction coefficient of a canopy with
// Campbell's leaf angle distribution parameter x at zenith angle vza
// [degrees].
func beamExtinction(x, vza float64) float64 {
	t := math.Tan(vza * math.Pi / 180)
	return math.Sqrt(x*x+t*t) / (x + 1.774*math.Pow(x+1.182, -0.733))
}

// vegetationView returns the fraction of the sensor's view filled by
// vegetation.
func vegetationView(p *pixel) float64 {
	fc := math.Min(p.fc, 1)
	f := fc * (1 - math.Exp(-beamExtinction(p.xLAD, p.vza)*p.lai/fc))
	return math.Min(f, maxVegetationView)
}

// componentSoilTemperature returns the soil temperature that, together
// with canopy temperature tc, gives the radiometric temperature tr.
func componentSoilTemperature(tr, tc, fTheta float64) float64 {
	v := (math.Pow(tr, 4) - fTheta*math.Pow(tc, 4)) / (1 - fTheta)
	if v <= 0 {
		return math.NaN()
	}
	return math.Pow(v, 0.25)
}

// longwave returns the net longwave radiation of the canopy and soil.
func longwave(p *pixel, ts, tc float64) (lnC, lnS float64) {
	tau := math.Exp(-0.95 * p.lai)
	lc := p.emisC * met.StefanBoltz * math.Pow(tc, 4)
	ls := p.emisS * met.StefanBoltz * math.Pow(ts, 4)
	lnC = (1 - tau) * (p.emisC*p.ldn + ls - 2*lc)
	lnS = p.emisS*(tau*p.ldn+(1-tau)*lc) - ls
	return lnC, lnS
}

// windAttenuation returns the within-canopy wind attenuation coefficient.
func windAttenuation(p *pixel) float64 {
	return 0.28 * math.Pow(p.lai, 2./3) * math.Pow(p.hc, 1./3) * math.Pow(p.leafWidth, -1./3)
}

// canopyWind returns the wind speed at the top of the canopy.
func canopyWind(p *pixel, ustar, l float64) float64 {
	z := p.hc - p.d0
	if z <= p.z0m {
		return minWind
	}
	return math.Max(ustar/met.VonKarman*(math.Log(z/p.z0m)-met.PsiM(met.Zeta(z, l))), minWind)
}

// resistances returns the soil and canopy boundary-layer resistances
// [s m-1] for the given resistance form.
func resistances(kind distseb.ResistanceKind, p *pixel, ustar, l, ts, tc float64) (rs, rx float64) {
	uC := canopyWind(p, ustar, l)
	a := windAttenuation(p)
	windAt := func(z float64) float64 {
		if z >= p.hc {
			return uC
		}
		return uC * math.Exp(-a*(1-z/p.hc))
	}
	ud0 := windAt(p.d0 + p.z0m)
	switch kind {
	case distseb.ChoudhuryMonteith:
		const alpha, alphaK, a0 = 2.0, 3.0, 0.01
		kh := met.VonKarman * ustar * math.Max(p.hc-p.d0, p.z0m)
		rs = p.hc * math.Exp(alpha) / (alpha * kh) *
			(math.Exp(-alpha*p.z0Soil/p.hc) - math.Exp(-alpha*(p.d0+p.z0m)/p.hc))
		rx = alphaK / (4 * a0 * p.lai * math.Sqrt(uC/p.leafWidth) * (1 - math.Exp(-alphaK/2)))
	case distseb.McNaughtonVanDerHurk:
		rx = 130 / p.lai * math.Sqrt(p.leafWidth/ud0)
		rs = 10 / ustar
	default:
		b := p.param(ParamKNb, defaultKNb)
		c := p.param(ParamKNc, defaultKNc)
		cDash := p.param(ParamKNCDash, defaultKNCDash)
		rx = cDash / p.lai * math.Sqrt(p.leafWidth/ud0)
		rs = 1 / (c*math.Cbrt(math.Max(ts-tc, 0)) + b*windAt(soilWindHeight))
	}
	return math.Max(rs, minResistance), math.Max(rx, minResistance)
}

// solve runs the two-source Priestley-Taylor energy balance of one
// pixel.
func (m Model) solve(kind distseb.ResistanceKind, gh distseb.GroundHeatFlux, p *pixel, iterations int) canopy {
	fail := canopy{flag: distseb.FlagNoValid}
	if !p.valid() {
		return fail
	}
	rho, cp := m.AirDensity(p.p, p.ea, p.ta), m.HeatCapacity(p.p, p.ea)
	delta, gamma := m.SaturationSlope(p.ta), m.Psychrometric(p.p, p.ea, p.ta)
	pt := p.fg * delta / (delta + gamma)
	fTheta := vegetationView(p)
	u := math.Max(p.u, minWind)

	c := canopy{flag: distseb.FlagValid, ts: p.tr, tc: p.tr, tac: p.ta, l: p.l}
	if math.IsNaN(c.l) {
		c.l = math.Inf(1)
	}
	for c.n < maxIterations(iterations) {
		c.n++
		c.ustar = frictionVelocity(u, p.zu, p.d0, p.z0m, c.l)
		c.ra = aerodynamicResistance(c.ustar, p.zt, p.d0, p.z0m, c.l)
		c.rs, c.rx = resistances(kind, p, c.ustar, c.l, c.ts, c.tc)

		c.lnC, c.lnS = longwave(p, c.ts, c.tc)
		rnC := p.snC + c.lnC
		alpha := p.alphaPT
		c.flag = distseb.FlagValid
		for {
			c.leC = alpha * pt * rnC
			c.hC = rnC - c.leC
			c.tac = p.ta
			for k := 0; k < temperatureIterations; k++ {
				c.tc = c.tac + c.hC*c.rx/(rho*cp)
				c.ts = componentSoilTemperature(p.tr, c.tc, fTheta)
				c.tac = (p.ta/c.ra + c.ts/c.rs + c.tc/c.rx) / (1/c.ra + 1/c.rs + 1/c.rx)
			}
			if !finite(c.ts, c.tc, c.tac) {
				return fail
			}
			c.hS = rho * cp * (c.ts - c.tac) / c.rs
			c.lnC, c.lnS = longwave(p, c.ts, c.tc)
			rnC = p.snC + c.lnC
			rnS := p.snS + c.lnS
			c.g = groundHeat(gh, rnS)
			c.leC = alpha * pt * rnC
			c.hC = rnC - c.leC
			c.leS = rnS - c.g - c.hS
			if c.leS >= 0 {
				break
			}
			if alpha <= 0 {
				c.leS, c.hS = 0, rnS-c.g
				c.leC, c.hC = 0, rnC
				c.flag = FlagSoilClipped
				break
			}
			alpha = math.Max(alpha-alphaStep, 0)
			c.flag = FlagAlphaReduced
		}
		next := m.StabilityLength(c.ustar, p.ta, rho, cp, c.hC+c.hS, c.leC+c.leS)
		done := lConverged(c.l, next)
		c.l = next
		if done {
			break
		}
	}
	if !finite(c.lnS, c.lnC, c.leC, c.hC, c.leS, c.hS, c.g, c.rs, c.rx, c.ra, c.ustar) {
		return fail
	}
	return c
}

// TwoSource implements distseb.Model.
func (m Model) TwoSource(in *distseb.TwoSourceInput) *distseb.TwoSourceOutput {
	n := len(in.Tr)
	o := &distseb.TwoSourceOutput{
		Flag: make([]int, n),
		TS:   nanSlice(n), TC: nanSlice(n), TAC: nanSlice(n),
		LnS: nanSlice(n), LnC: nanSlice(n),
		LEC: nanSlice(n), HC: nanSlice(n), LES: nanSlice(n), HS: nanSlice(n), G: nanSlice(n),
		RS: nanSlice(n), RX: nanSlice(n), RA: nanSlice(n),
		UFriction: nanSlice(n), L: nanSlice(n),
		NIterations: make([]int, n),
	}
	for i := 0; i < n; i++ {
		p := &pixel{
			tr: in.Tr[i], vza: in.VZA[i], ta: in.Ta[i], u: in.U[i], ea: in.Ea[i], p: in.P[i],
			snC: in.SnC[i], snS: in.SnS[i], ldn: in.Ldn[i],
			lai: in.LAI[i], hc: in.HC[i], emisC: in.EmisC[i], emisS: in.EmisS[i],
			z0m: in.Z0M[i], d0: in.D0[i], zu: in.ZU[i], zt: in.ZT[i],
			leafWidth: in.LeafWidth[i], z0Soil: in.Z0Soil[i], alphaPT: in.AlphaPT[i],
			xLAD: in.XLAD[i], fc: in.FC[i], fg: in.FG[i], wc: in.WC[i],
			l:      in.L[i],
			params: make(map[string]float64, len(in.ResistanceParams)),
		}
		for name, v := range in.ResistanceParams {
			p.params[name] = v[i]
		}
		c := m.solve(in.Resistance, in.GroundHeat, p, in.Iterations)
		o.Flag[i] = c.flag
		if c.flag == distseb.FlagNoValid {
			continue
		}
		o.TS[i], o.TC[i], o.TAC[i] = c.ts, c.tc, c.tac
		o.LnS[i], o.LnC[i] = c.lnS, c.lnC
		o.LEC[i], o.HC[i], o.LES[i], o.HS[i], o.G[i] = c.leC, c.hC, c.leS, c.hS, c.g
		o.RS[i], o.RX[i], o.RA[i] = c.rs, c.rx, c.ra
		o.UFriction[i], o.L[i] = c.ustar, c.l
		o.NIterations[i] = c.n
	}
	return o
}
