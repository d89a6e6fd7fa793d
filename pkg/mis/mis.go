// Package mis collects the multiple-importance-sampling utilities shared by
// every integrator that does next-event estimation: a single-light direct
// estimate weighted against BSDF sampling, the matching BSDF-side weight for
// an integrator's own continuation ray, and a light power distribution for
// picking lights (or shooting photons) proportional to their contribution
// rather than uniformly. Grounded on the inlined MIS logic path tracing used
// to do itself (pkg/integrator/path_tracing.go's CalculateDirectLighting /
// CalculateIndirectLighting, before this package existed to hold it).
package mis

import (
	"github.com/df07/go-progressive-raytracer/pkg/core"
	"github.com/df07/go-progressive-raytracer/pkg/lights"
	"github.com/df07/go-progressive-raytracer/pkg/material"
	"github.com/df07/go-progressive-raytracer/pkg/scene"
)

// EstimateDirect draws one light sample at hit, tests its occlusion with a
// shadow ray, and returns its contribution weighted by the power heuristic
// against the material's PDF for that same direction - the light-sampling
// half of a two-strategy MIS estimator. incomingDir is the direction the ray
// arrived from (pointing away from hit, same convention ScatterResult.Incoming
// uses). The BSDF-sampling half is not drawn here: the caller already owns a
// scattered ray from its own BSDF sample and applies BSDFSampleWeight to it.
func EstimateDirect(sc *scene.Scene, hit *material.SurfaceInteraction, incomingDir core.Vec3, sampler core.Sampler) core.Vec3 {
	lightSample, _, hasLight := lights.SampleLight(sc.Lights, sc.LightSampler, hit.Point, hit.Normal, sampler)
	if !hasLight || lightSample.Emission.Luminance() <= 0 || lightSample.PDF <= 0 {
		return core.Vec3{}
	}

	shadowRay := core.NewRay(hit.Point, lightSample.Direction)
	if sc.BVH.IntersectP(shadowRay, 0.001, lightSample.Distance-0.001) {
		return core.Vec3{}
	}

	cosine := lightSample.Direction.Dot(hit.Normal)
	if cosine <= 0 {
		return core.Vec3{}
	}

	materialPDF, isDelta := hit.Material.PDF(incomingDir, lightSample.Direction, hit.Normal)
	if isDelta {
		return core.Vec3{}
	}

	weight := core.PowerHeuristic(1, lightSample.PDF, 1, materialPDF)
	brdf := hit.Material.EvaluateBRDF(incomingDir, lightSample.Direction, hit, material.TransportRadiance)

	return brdf.MultiplyVec(lightSample.Emission).Multiply(cosine * weight / lightSample.PDF)
}

// UniformSampleOneLight draws a single light out of sc.Lights (chosen by
// sc.LightSampler rather than uniformly, despite the name inherited from the
// algorithm it implements) and returns its MIS-weighted direct contribution.
// It is EstimateDirect under the name the light-transport literature uses
// for this exact light-sampling strategy.
func UniformSampleOneLight(sc *scene.Scene, hit *material.SurfaceInteraction, incomingDir core.Vec3, sampler core.Sampler) core.Vec3 {
	return EstimateDirect(sc, hit, incomingDir, sampler)
}

// BSDFSampleWeight returns the power-heuristic MIS weight for a continuation
// ray an integrator sampled from its own BSDF/phase function, pairing
// bsdfPDF against the PDF of reaching the same direction via light sampling.
// Pairs with EstimateDirect: one call handles the light-sampling strategy,
// this handles the BSDF-sampling strategy, and the two weights sum to at
// most 1 for any given direction.
func BSDFSampleWeight(sc *scene.Scene, point, normal, direction core.Vec3, bsdfPDF float64) float64 {
	lightPDF := lights.CalculateLightPDF(sc.Lights, sc.LightSampler, point, normal, direction)
	return core.PowerHeuristic(1, bsdfPDF, 1, lightPDF)
}

// CalcLightPowerDistrib builds a Distribution1D over sc.Lights weighted by
// each light's approximate emitted power, so a photon map's emission pass
// can shoot photons proportional to a light's actual contribution instead of
// splitting them evenly. Lights expose no closed-form total power, so power
// is approximated by the luminance of a representative emission sample taken
// from the light's midpoint parameterization - adequate for weighting photon
// counts, not for anything requiring an exact power integral.
func CalcLightPowerDistrib(sc *scene.Scene) *core.Distribution1D {
	if len(sc.Lights) == 0 {
		return core.NewDistribution1D([]float64{1})
	}

	mid := core.NewVec2(0.5, 0.5)
	powers := make([]float64, len(sc.Lights))
	for i, light := range sc.Lights {
		es := light.SampleEmission(mid, mid)
		powers[i] = es.Emission.Luminance()
		if powers[i] <= 0 {
			powers[i] = 1e-6
		}
	}
	return core.NewDistribution1D(powers)
}
