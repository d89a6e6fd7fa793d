// Package bssrdf implements a separable bidirectional scattering-surface
// reflectance distribution function for subsurface light transport: an
// exit-point radial profile Sr(r), tabulated via the beam-diffusion
// approximation over an albedo x optical-radius grid, combined with a
// directional term Sw(wi) that accounts for the dielectric boundary.
// Profile lookups use bilinear interpolation and per-row linear-CDF
// inversion rather than full bicubic Catmull-Rom splines; see DESIGN.md for
// why that simplification was made.
//
// This package only evaluates and importance-samples the profile in the
// surface's local tangent frame; probing the scene for a candidate exit
// point (the disk-aligned ray intersection test) is the caller's job, since
// that requires the acceleration structure.
package bssrdf

import (
	"math"

	"github.com/df07/go-progressive-raytracer/pkg/core"
	"github.com/df07/go-progressive-raytracer/pkg/fresnel"
)

// Table holds a tabulated radial diffusion profile over a grid of albedo x
// optical-radius samples, following Christensen & Burley / pbrt's
// ComputeBeamDiffusionBSSRDF.
type Table struct {
	Radius  []float64   // optical-radius sample points
	Albedo  []float64   // single-scattering albedo sample points
	Profile [][]float64 // Profile[a][r] = 2*pi*r*Sr(albedo[a], radius[r])
	RhoEff  []float64   // effective (diffuse) albedo per Albedo sample, for inversion
	CDF     [][]float64 // per-albedo-row CDF over Radius, for importance sampling
}

// ComputeBeamDiffusionTable builds a Table for a medium with scattering
// anisotropy g and relative index of refraction eta, using nAlbedo x
// nRadius samples.
func ComputeBeamDiffusionTable(g, eta float64, nAlbedo, nRadius int) *Table {
	radius := make([]float64, nRadius)
	radius[0] = 0
	radius[1] = 2.5e-3
	for i := 2; i < nRadius; i++ {
		radius[i] = radius[i-1] * 1.2
	}

	albedo := make([]float64, nAlbedo)
	for i := 0; i < nAlbedo; i++ {
		albedo[i] = (1 - math.Exp(-8*float64(i)/float64(nAlbedo-1))) / (1 - math.Exp(-8))
	}

	profile := make([][]float64, nAlbedo)
	rhoEff := make([]float64, nAlbedo)
	cdf := make([][]float64, nAlbedo)
	for i := range profile {
		profile[i] = make([]float64, nRadius)
		cdf[i] = make([]float64, nRadius)
		for j, r := range radius {
			a := albedo[i]
			profile[i][j] = 2 * math.Pi * r * (beamDiffusionSingleScatter(a, 1-a, g, eta, r) +
				beamDiffusionMultipleScatter(a, 1-a, g, eta, r))
		}
		rhoEff[i] = integrateTable(radius, profile[i], cdf[i])
	}

	return &Table{Radius: radius, Albedo: albedo, Profile: profile, RhoEff: rhoEff, CDF: cdf}
}

func beamDiffusionMultipleScatter(sigmaS, sigmaA, g, eta, r float64) float64 {
	const nSamples = 100
	ed := 0.0

	sigmapS := sigmaS * (1 - g)
	sigmapT := sigmaA + sigmapS
	albedop := sigmapS / sigmapT

	dG := (2*sigmaA + sigmapS) / (3 * sigmapT * sigmapT)
	sigmaTr := math.Sqrt(sigmaA / dG)

	fm1 := fresnel.FresnelMoment1(eta)
	fm2 := fresnel.FresnelMoment2(eta)
	ze := -2 * dG * (1 + 3*fm2) / (1 - 2*fm1)

	cPhi := 0.25 * (1 - 2*fm1)
	cE := 0.5 * (1 - 3*fm2)

	for i := 0; i < nSamples; i++ {
		zr := -math.Log(1-(float64(i)+0.5)/nSamples) / sigmapT
		zv := -zr + 2*ze
		dr := math.Sqrt(r*r + zr*zr)
		dv := math.Sqrt(r*r + zv*zv)

		phiD := (1 / (4 * math.Pi * dG)) * (math.Exp(-sigmaTr*dr)/dr - math.Exp(-sigmaTr*dv)/dv)
		edn := (1 / (4 * math.Pi)) * (zr*(1+sigmaTr*dr)*math.Exp(-sigmaTr*dr)/(dr*dr*dr) -
			zv*(1+sigmaTr*dv)*math.Exp(-sigmaTr*dv)/(dv*dv*dv))

		e := phiD*cPhi + edn*cE
		kappa := 1 - math.Exp(-2*sigmapT*(dr+zr))
		ed += kappa * albedop * albedop * e
	}
	return ed / nSamples
}

func beamDiffusionSingleScatter(sigmaS, sigmaA, g, eta, r float64) float64 {
	const nSamples = 100
	sigmaT := sigmaA + sigmaS
	albedo := sigmaS / sigmaT
	tCrit := r * math.Sqrt(math.Max(0, eta*eta-1))

	ess := 0.0
	for i := 0; i < nSamples; i++ {
		ti := tCrit - math.Log(1-(float64(i)+0.5)/nSamples)/sigmaT
		d := math.Sqrt(r*r + ti*ti)
		cosThetaO := ti / d

		ess += albedo * math.Exp(-sigmaT*(d+tCrit)) / (d * d) *
			henyeyGreenstein(cosThetaO, g) *
			(1 - fresnel.FrDielectric(-cosThetaO, 1, eta)) *
			math.Abs(cosThetaO)
	}
	return ess / nSamples
}

func henyeyGreenstein(cosTheta, g float64) float64 {
	denom := 1 + g*g + 2*g*cosTheta
	return (1 / (4 * math.Pi)) * (1 - g*g) / (denom * math.Sqrt(math.Max(denom, 1e-12)))
}

// Separable is a separable BSSRDF bound to a specific outgoing surface
// point, built from a medium's scattering/absorption coefficients.
type Separable struct {
	Table *Table
	Eta   float64

	SigmaT core.Spectrum // extinction = sigmaA + sigmaS
	Albedo core.Spectrum // single-scattering albedo = sigmaS / sigmaT

	Po      core.Vec3 // outgoing point
	Wo      core.Vec3 // outgoing direction
	Normal  core.Vec3
	Tangent core.Vec3
	Binormal core.Vec3
}

// NewSeparable builds a Separable BSSRDF for exit point po with shading
// frame (normal, tangent), bound to a medium of absorption/scattering
// coefficients sigmaA/sigmaS and relative IOR eta.
func NewSeparable(table *Table, po, wo, normal, tangent core.Vec3, sigmaA, sigmaS core.Spectrum, eta float64) *Separable {
	sigmaT := sigmaA.Add(sigmaS)
	albedo := core.NewVec3(
		safeDiv(sigmaS.X, sigmaT.X),
		safeDiv(sigmaS.Y, sigmaT.Y),
		safeDiv(sigmaS.Z, sigmaT.Z),
	)
	binormal := normal.Cross(tangent).Normalize()
	return &Separable{
		Table: table, Eta: eta, SigmaT: sigmaT, Albedo: albedo,
		Po: po, Wo: wo, Normal: normal, Tangent: tangent.Normalize(), Binormal: binormal,
	}
}

func safeDiv(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}

// Sr evaluates the radial diffusion profile at distance r, per channel.
func (s *Separable) Sr(r float64) core.Spectrum {
	channel := func(sigmaT, albedo float64) float64 {
		if sigmaT == 0 {
			return 0
		}
		rOptical := r * sigmaT
		v := s.Table.evalProfile(albedo, rOptical)
		if rOptical > 0 {
			v /= 2 * math.Pi * rOptical
		}
		return math.Max(0, v*sigmaT*sigmaT)
	}
	return core.NewVec3(
		channel(s.SigmaT.X, s.Albedo.X),
		channel(s.SigmaT.Y, s.Albedo.Y),
		channel(s.SigmaT.Z, s.Albedo.Z),
	)
}

// Sw is the directional term applied at the exit point for incident
// direction wi (in world space), accounting for the dielectric boundary's
// Fresnel transmittance.
func (s *Separable) Sw(wi core.Vec3) core.Spectrum {
	c := 1 - 2*fresnel.FresnelMoment1(1/s.Eta)
	ft := fresnel.FrDielectric(wi.Dot(s.Normal), 1, s.Eta)
	v := (1 - ft) / (c * math.Pi)
	return core.NewVec3(v, v, v)
}

// S is the full spatial+directional BSSRDF value for an exit point pi and
// incident direction wi, given the outgoing direction's cosine at Po. The
// directional terms are evaluated against the entry point's Normal.
func (s *Separable) S(pi core.Vec3, wi core.Vec3) core.Spectrum {
	ft := fresnel.FrDielectric(s.Wo.Dot(s.Normal), 1, s.Eta)
	sp := s.Sr(s.Po.Subtract(pi).Length())
	return sp.MultiplyVec(s.Sw(wi)).Multiply(1 - ft)
}

// ProbeAxis selects one of the three sampling axes (tangent, binormal,
// normal) and the spectral channel used to draw a radius, given a single
// random number in [0,1). It returns the orthonormal frame to build the
// probe disk in and the remaining randoms to draw r and phi with.
func (s *Separable) ProbeAxis(u1 float64) (xAxis, yAxis, zAxis core.Vec3, channel int, rand1 float64) {
	switch {
	case u1 < 0.5:
		xAxis, yAxis, zAxis = s.Tangent, s.Binormal, s.Normal
		rand1 = u1 * 2
	case u1 < 0.75:
		xAxis, yAxis, zAxis = s.Binormal, s.Normal, s.Tangent
		rand1 = (u1 - 0.5) * 4
	default:
		xAxis, yAxis, zAxis = s.Normal, s.Tangent, s.Binormal
		rand1 = (u1 - 0.75) * 4
	}
	channel = int(rand1 * 3)
	if channel > 2 {
		channel = 2
	}
	rand1 = rand1*3 - float64(channel)
	return xAxis, yAxis, zAxis, channel, rand1
}

// SampleRadius draws a radius on the probe disk for the given channel and
// 1D sample u, along with the maximum radius the profile is defined up to
// (used to size the probe ray).
func (s *Separable) SampleRadius(channel int, u float64) (r, rMax float64) {
	sigmaT := channelAt(s.SigmaT, channel)
	albedo := channelAt(s.Albedo, channel)
	if sigmaT == 0 {
		return -1, 0
	}
	rOptical := s.Table.sampleRadius(albedo, u)
	rMax = s.Table.sampleRadius(albedo, 0.999) / sigmaT
	return rOptical / sigmaT, rMax
}

// PdfSp is the combined area-measure PDF of having sampled exit point pi
// (with normal piNormal) from Po, marginalized over the three probe axes
// and three spectral channels.
func (s *Separable) PdfSp(pi, piNormal core.Vec3) float64 {
	d := s.Po.Subtract(pi)
	dLocal := core.NewVec3(d.Dot(s.Tangent), d.Dot(s.Binormal), d.Dot(s.Normal))
	nLocal := core.NewVec3(piNormal.Dot(s.Tangent), piNormal.Dot(s.Binormal), piNormal.Dot(s.Normal))

	rProj := [3]float64{
		math.Hypot(dLocal.Y, dLocal.Z),
		math.Hypot(dLocal.Z, dLocal.X),
		math.Hypot(dLocal.X, dLocal.Y),
	}
	axisProb := [3]float64{0.25, 0.25, 0.5}
	nAbs := [3]float64{math.Abs(nLocal.X), math.Abs(nLocal.Y), math.Abs(nLocal.Z)}

	pdf := 0.0
	const chProb = 1.0 / 3.0
	channels := [3]float64{s.SigmaT.X, s.SigmaT.Y, s.SigmaT.Z}
	albedos := [3]float64{s.Albedo.X, s.Albedo.Y, s.Albedo.Z}
	for axis := 0; axis < 3; axis++ {
		for ch := 0; ch < 3; ch++ {
			pdf += s.pdfSr(channels[ch], albedos[ch], rProj[axis]) * nAbs[axis] * chProb * axisProb[axis]
		}
	}
	return pdf
}

func (s *Separable) pdfSr(sigmaT, albedo, r float64) float64 {
	if sigmaT == 0 {
		return 0
	}
	rOptical := r * sigmaT
	return math.Max(0, s.Table.evalProfile(albedo, rOptical)) * sigmaT * sigmaT
}

func channelAt(v core.Vec3, channel int) float64 {
	switch channel {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}

// evalProfile bilinearly interpolates the tabulated profile at (albedo, rOptical).
func (t *Table) evalProfile(albedo, rOptical float64) float64 {
	ai := clampedIndex(t.Albedo, albedo)
	ri := clampedIndex(t.Radius, rOptical)
	ai1, ri1 := min(ai+1, len(t.Albedo)-1), min(ri+1, len(t.Radius)-1)
	fa, fr := 0.0, 0.0
	if ai1 > ai {
		fa = core.Clamp((albedo-t.Albedo[ai])/(t.Albedo[ai1]-t.Albedo[ai]), 0, 1)
	}
	if ri1 > ri {
		fr = core.Clamp((rOptical-t.Radius[ri])/(t.Radius[ri1]-t.Radius[ri]), 0, 1)
	}
	p := t.Profile
	return (1-fa)*((1-fr)*p[ai][ri]+fr*p[ai][ri1]) + fa*((1-fr)*p[ai1][ri]+fr*p[ai1][ri1])
}

// sampleRadius draws an optical radius from the tabulated albedo row at or
// below albedo (no blending between rows), inverting that row's CDF with
// linear interpolation.
func (t *Table) sampleRadius(albedo, u float64) float64 {
	ai := clampedIndex(t.Albedo, albedo)
	row := t.CDF[ai]
	total := row[len(row)-1]
	if total <= 0 {
		return 0
	}
	target := u * total
	i := 0
	for i < len(row)-1 && row[i+1] < target {
		i++
	}
	lo, hi := row[i], row[min(i+1, len(row)-1)]
	frac := 0.0
	if hi > lo {
		frac = (target - lo) / (hi - lo)
	}
	r0, r1 := t.Radius[i], t.Radius[min(i+1, len(t.Radius)-1)]
	return r0 + frac*(r1-r0)
}

func clampedIndex(xs []float64, v float64) int {
	i := 0
	for i < len(xs)-1 && xs[i+1] <= v {
		i++
	}
	return i
}

// integrateTable integrates values sampled at xs via the trapezoid rule
// and fills cdf with the running integral, returning the total.
func integrateTable(xs, values []float64, cdf []float64) float64 {
	sum := 0.0
	cdf[0] = 0
	for i := 1; i < len(xs); i++ {
		sum += 0.5 * (values[i] + values[i-1]) * (xs[i] - xs[i-1])
		cdf[i] = sum
	}
	return sum
}
