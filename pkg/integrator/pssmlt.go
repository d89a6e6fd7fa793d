package integrator

import (
	"github.com/df07/go-progressive-raytracer/pkg/core"
	"github.com/df07/go-progressive-raytracer/pkg/scene"
)

// PSSMLTIntegrator is primary-sample-space Metropolis light transport over
// the unidirectional path tracer: instead of drawing one independent path
// per camera sample, it runs a short Metropolis-Hastings chain over the
// path tracer's own random-number stream (see pss_sampler.go and
// metropolis.go), favoring mutations of already-bright paths so rare but
// high-contribution light transport - caustics, paths through narrow
// openings - gets resampled more often than uniform path tracing would draw
// it. Grounded on original_source/sources/integrators/pssmlt/pssmlt.cc.
type PSSMLTIntegrator struct {
	base   *PathTracingIntegrator
	params metropolisParams
}

// NewPSSMLTIntegrator creates a PSSMLT integrator over a path tracer
// configured with config.
func NewPSSMLTIntegrator(config scene.SamplingConfig) *PSSMLTIntegrator {
	return &PSSMLTIntegrator{
		base:   NewPathTracingIntegrator(config),
		params: defaultMetropolisParams(),
	}
}

// RayColor computes color for a ray by running a primary-sample-space
// Metropolis chain over the underlying path tracer.
func (pm *PSSMLTIntegrator) RayColor(ray core.Ray, sc *scene.Scene, sampler core.Sampler) (core.Vec3, []core.SplatRay) {
	return runMetropolis(pm.base, ray, sc, sampler, pm.params)
}
