package material

import (
	"math"

	"github.com/df07/go-progressive-raytracer/pkg/bssrdf"
	"github.com/df07/go-progressive-raytracer/pkg/core"
	"github.com/df07/go-progressive-raytracer/pkg/fresnel"
)

// Subsurface marks a material whose interior scatters light diffusely
// rather than reflecting or transmitting it directly: a ray that enters the
// medium (see TranslucentSurface.Scatter) doesn't continue bouncing through
// the interior, it hands off to a diffusion profile that describes how much
// of that light reappears elsewhere on the surface. An integrator that wants
// to account for that reappearance (pkg/integrator's hierarchical subsurface
// scattering integrator) type-asserts for this interface and looks up
// DiffusionProfile itself; ordinary path tracing ignores it and simply
// treats entry events as absorption. Grounded on
// original_source/sources/material/subsurface.cc.
type Subsurface interface {
	Material
	DiffusionProfile() *bssrdf.Separable
}

// TranslucentSurface is a dielectric boundary (Fresnel reflect or enter)
// over a scattering interior described by a beam-diffusion profile: SigmaA
// and SigmaSPrime are the medium's absorption and reduced-scattering
// coefficients.
type TranslucentSurface struct {
	eta     float64
	profile *bssrdf.Separable
}

// NewTranslucentSurface builds a subsurface material from its relative
// index of refraction and the interior medium's absorption/reduced-scattering
// coefficients, tabulating the diffusion profile once via
// bssrdf.ComputeBeamDiffusionTable.
func NewTranslucentSurface(eta float64, sigmaA, sigmaSPrime core.Vec3, g float64) *TranslucentSurface {
	table := bssrdf.ComputeBeamDiffusionTable(g, eta, 100, 64)
	profile := bssrdf.NewSeparable(table, core.Vec3{}, core.Vec3{}, core.NewVec3(0, 1, 0), core.NewVec3(1, 0, 0), sigmaA, sigmaSPrime, eta)
	return &TranslucentSurface{eta: eta, profile: profile}
}

// DiffusionProfile returns the shared radial diffusion profile: only Sr(r)
// is meaningful off of it (Po/Wo/Normal/Tangent are placeholders, since the
// hierarchical integrator evaluates the profile by radius alone, not by
// probing the scene for a disk-aligned exit point).
func (t *TranslucentSurface) DiffusionProfile() *bssrdf.Separable { return t.profile }

// Scatter Fresnel-reflects the incoming ray off the surface, or lets it
// enter the medium: an entry event is signaled by a black Attenuation with
// no reflected geometry left to trace, matching subsurface.cc's BSSRDF
// materials where entering the interior hands off to Mo(), not further
// ray bounces.
func (t *TranslucentSurface) Scatter(rayIn core.Ray, hit SurfaceInteraction, sampler core.Sampler) (ScatterResult, bool) {
	unitDirection := rayIn.Direction.Normalize()
	cosTheta := math.Abs(unitDirection.Dot(hit.Normal))
	fr := fresnel.FrDielectric(cosTheta, 1.0, t.eta)

	if sampler.Get1D() < fr {
		direction := reflectVector(unitDirection, hit.Normal)
		return ScatterResult{
			Incoming:    rayIn,
			Scattered:   core.Ray{Origin: hit.Point, Direction: direction},
			Attenuation: core.NewVec3(1, 1, 1),
			PDF:         0,
		}, true
	}

	return ScatterResult{
		Incoming:    rayIn,
		Scattered:   core.Ray{Origin: hit.Point, Direction: unitDirection},
		Attenuation: core.Vec3{},
		PDF:         0,
	}, true
}

// EvaluateBRDF is zero: TranslucentSurface has no non-delta reflection
// lobe, so next-event estimation never samples it directly.
func (t *TranslucentSurface) EvaluateBRDF(incomingDir, outgoingDir core.Vec3, hit *SurfaceInteraction, mode TransportMode) core.Vec3 {
	return core.Vec3{}
}

// PDF reports a delta distribution: every outgoing direction is either the
// Fresnel reflection or an entry event, never a continuously sampled one.
func (t *TranslucentSurface) PDF(incomingDir, outgoingDir, normal core.Vec3) (float64, bool) {
	return 0, true
}
