// Package medium implements participating media: homogeneous and
// heterogeneous (grid) volumes that absorb and scatter light along a ray,
// and the Henyey-Greenstein phase function that directs in-scattering.
// Grounded on original_source/sources/bxdf/phase.{h,cc} and
// original_source/sources/medium/{homogeneous,grid}.cc.
package medium

import (
	"math"

	"github.com/df07/go-progressive-raytracer/pkg/core"
)

// PhaseHG evaluates the Henyey-Greenstein phase function for the cosine of
// the angle between the outgoing and incoming directions, given an asymmetry
// parameter g in (-1, 1): positive favors forward scattering, negative
// back-scattering, 0 is isotropic.
func PhaseHG(cosTheta, g float64) float64 {
	g2 := g * g
	denom := 1 + g2 - 2*g*cosTheta
	return (1 / (4 * math.Pi)) * (1 - g2) / (denom * math.Sqrt(math.Max(denom, 1e-12)))
}

// PhaseFunction samples and evaluates a medium's angular scattering
// distribution at an interaction point, the volumetric analog of a BSDF.
type PhaseFunction interface {
	// P evaluates the phase function for a pair of world-space directions,
	// both pointing away from the interaction point (pbrt's convention).
	P(wo, wi core.Vec3) float64

	// Sample draws an incoming direction proportional to P and returns it
	// along with its PDF (the phase function is itself a valid PDF).
	Sample(wo core.Vec3, u core.Vec2) (wi core.Vec3, pdf float64)
}

// HenyeyGreenstein is the single-parameter phase function real participating
// media (smoke, skin, milk) are commonly fit to.
type HenyeyGreenstein struct {
	G float64
}

// P implements PhaseFunction.
func (h HenyeyGreenstein) P(wo, wi core.Vec3) float64 {
	return PhaseHG(wo.Dot(wi), h.G)
}

// Sample implements PhaseFunction by inverting the HG CDF in cosTheta, then
// building a direction at that angle around wo with a uniformly sampled
// azimuth.
func (h HenyeyGreenstein) Sample(wo core.Vec3, u core.Vec2) (core.Vec3, float64) {
	var cosTheta float64
	if math.Abs(h.G) < 1e-3 {
		cosTheta = 1 - 2*u.X
	} else {
		g := h.G
		sqrTerm := (1 - g*g) / (1 + g - 2*g*u.X)
		cosTheta = -(1 + g*g - sqrTerm*sqrTerm) / (2 * g)
	}

	sinTheta := math.Sqrt(math.Max(0, 1-cosTheta*cosTheta))
	phi := 2 * math.Pi * u.Y

	tangent, bitangent := core.CoordinateSystem(wo)
	wi := tangent.Multiply(sinTheta * math.Cos(phi)).
		Add(bitangent.Multiply(sinTheta * math.Sin(phi))).
		Add(wo.Multiply(cosTheta))

	return wi, PhaseHG(cosTheta, h.G)
}
