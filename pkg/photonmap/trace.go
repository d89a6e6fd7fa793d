package photonmap

import (
	"math"

	"github.com/df07/go-progressive-raytracer/pkg/core"
	"github.com/df07/go-progressive-raytracer/pkg/scene"
)

// minRussianRouletteBounce is how many bounces a photon survives
// unconditionally before Russian roulette starts culling it, matching the
// path tracer's RussianRouletteMinBounces default of 3.
const minRussianRouletteBounce = 3

// tracePhoton bounces a single photon of initial throughput beta through
// sc's geometry, recording a Photon at every real surface hit before
// sampling the material's continuation - emission is recorded at the hit
// the photon actually reaches, not at the light it left, matching
// photon_map.cc's tracePhoton.
func tracePhoton(sc *scene.Scene, ray core.Ray, beta core.Spectrum, sampler core.Sampler, maxBounces int) []Photon {
	var photons []Photon

	for bounce := 0; bounce < maxBounces; bounce++ {
		hit, isHit := sc.BVH.Hit(ray, 0.001, math.Inf(1))
		if !isHit {
			break
		}

		photons = append(photons, Photon{
			Position: hit.Point,
			Beta:     beta,
			Wi:       ray.Direction.Multiply(-1),
			Normal:   hit.Normal,
		})

		scatterResult, didScatter := hit.Material.Scatter(ray, *hit, sampler)
		if !didScatter {
			break
		}

		var newBeta core.Spectrum
		if scatterResult.IsSpecular() {
			newBeta = beta.MultiplyVec(scatterResult.Attenuation)
		} else {
			cosine := math.Abs(scatterResult.Scattered.Direction.Dot(hit.Normal))
			newBeta = beta.MultiplyVec(scatterResult.Attenuation).Multiply(cosine / scatterResult.PDF)
		}

		if bounce >= minRussianRouletteBounce {
			continueProb := math.Min(1, newBeta.Luminance()/math.Max(beta.Luminance(), 1e-12))
			if sampler.Get1D() > continueProb {
				break
			}
			newBeta = newBeta.Multiply(1 / continueProb)
		}

		if core.IsBlack(newBeta) {
			break
		}

		beta = newBeta
		ray = scatterResult.Scattered
	}

	return photons
}
