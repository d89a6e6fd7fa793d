package medium

import (
	"math"

	"github.com/df07/go-progressive-raytracer/pkg/core"
)

// MediumInteraction records where a ray's travel through a participating
// medium was interrupted by a real scattering event, analogous to a
// material.SurfaceInteraction but carrying a phase function instead of a
// BSDF (spec's MediumInteraction).
type MediumInteraction struct {
	Point core.Vec3
	Wo    core.Vec3
	Phase PhaseFunction
}

// Medium is a participating volume a ray can travel through between two
// surface interactions, attenuating and optionally in-scattering radiance
// along the way.
type Medium interface {
	// Tr returns the transmittance along ray over [0, maxDistance]. ray.Direction
	// must be a unit vector; maxDistance is measured in the same units as
	// Point positions, not as a multiple of ray.Direction's length.
	Tr(ray core.Ray, maxDistance float64, sampler core.Sampler) core.Spectrum

	// Sample stochastically picks a real scattering point along ray via
	// delta tracking. It returns a nil interaction when the ray reached
	// maxDistance without colliding (a pure-transmittance sample), and a
	// throughput weight that already folds in the sampling PDF - the caller
	// multiplies it straight into beta, same as material.ScatterResult.Attenuation.
	Sample(ray core.Ray, maxDistance float64, sampler core.Sampler) (mi *MediumInteraction, weight core.Spectrum)
}

// expSpectrum applies math.Exp component-wise, used by both Tr
// implementations to turn a per-channel optical depth into a transmittance.
func expSpectrum(s core.Spectrum) core.Spectrum {
	return core.NewVec3(math.Exp(s.X), math.Exp(s.Y), math.Exp(s.Z))
}
