package material

import (
	"github.com/df07/go-progressive-raytracer/pkg/bssrdf"
	"github.com/df07/go-progressive-raytracer/pkg/bxdf"
	"github.com/df07/go-progressive-raytracer/pkg/core"
)

// TransportMode distinguishes light transport starting at the camera (Radiance)
// from transport starting at a light (Importance). Non-symmetric scattering
// terms (refraction through a medium change) need to know which direction the
// path is being built so the 1/eta^2 correction is applied on the right side.
type TransportMode int

const (
	TransportRadiance TransportMode = iota
	TransportImportance
)

// Material interface for objects that can scatter rays
type Material interface {
	// Scatter samples an outgoing direction given an incoming ray and hit point.
	Scatter(rayIn core.Ray, hit SurfaceInteraction, sampler core.Sampler) (ScatterResult, bool)

	// EvaluateBRDF evaluates the scattering distribution for specific incoming/outgoing
	// directions. hit carries the BSDF built for this interaction, if any.
	EvaluateBRDF(incomingDir, outgoingDir core.Vec3, hit *SurfaceInteraction, mode TransportMode) core.Vec3

	// PDF returns the probability density for sampling outgoingDir given incomingDir.
	// isDelta indicates a delta-distribution (specular) component with no density.
	PDF(incomingDir, outgoingDir, normal core.Vec3) (pdf float64, isDelta bool)
}

// Emitter interface for materials that emit light
type Emitter interface {
	Emit(rayIn core.Ray, hit *SurfaceInteraction) core.Vec3
}

// ScatterResult contains the result of material scattering
type ScatterResult struct {
	Incoming    core.Ray  // The incoming ray
	Scattered   core.Ray  // The scattered ray
	Attenuation core.Vec3 // Color attenuation
	PDF         float64   // Probability density function (0 for specular materials)
}

// IsSpecular returns true if this is specular scattering (no PDF)
func (s ScatterResult) IsSpecular() bool {
	return s.PDF <= 0
}

// SurfaceInteraction describes a ray-shape intersection and the local
// differential geometry and material state needed to shade it.
type SurfaceInteraction struct {
	Point     core.Vec3 // Point of intersection
	Normal    core.Vec3 // Geometric normal at intersection (from SetFaceNormal)
	T         float64   // Parameter t along the ray
	FrontFace bool      // Whether ray hit the front face
	Material  Material  // Material of the hit object
	UV        core.Vec2 // Surface parameterization coordinate

	Wo core.Vec3 // Outgoing direction (toward the ray origin), set by SetFaceNormal callers

	// ShadingNormal may differ from Normal when bump/normal mapping perturbs
	// the shading frame; defaults to Normal when not explicitly set.
	ShadingNormal core.Vec3

	// DPDU, DPDV are the partial derivatives of the surface position with
	// respect to the UV parameterization, used to build an anisotropic
	// shading frame and for texture filtering.
	DPDU, DPDV core.Vec3

	// BSDF is the bidirectional scattering distribution built for this
	// interaction by materials that use the layered bxdf model. Materials
	// that implement Scatter/EvaluateBRDF directly may leave this nil.
	BSDF *bxdf.BSDF

	// BSSRDF is set when the material exhibits subsurface scattering; the
	// integrator consults it to importance-sample an exit point instead of
	// continuing the path at Point.
	BSSRDF *bssrdf.Separable
}

// SetFaceNormal sets the normal vector and determines front/back face
func (h *SurfaceInteraction) SetFaceNormal(ray core.Ray, outwardNormal core.Vec3) {
	h.FrontFace = ray.Direction.Dot(outwardNormal) < 0
	if h.FrontFace {
		h.Normal = outwardNormal
	} else {
		h.Normal = outwardNormal.Multiply(-1)
	}
	h.ShadingNormal = h.Normal
	h.Wo = ray.Direction.Multiply(-1).Normalize()
}
