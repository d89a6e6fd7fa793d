package integrator

import (
	"math"
	"sync"

	"github.com/df07/go-progressive-raytracer/pkg/core"
	"github.com/df07/go-progressive-raytracer/pkg/photonmap"
	"github.com/df07/go-progressive-raytracer/pkg/scene"
)

// vcmAlpha is the merge radius's shrink rate, matching vcmups.h's alpha_
// (default 0.8) - the same progressive-radius role sppm.go's sppmAlpha plays
// for SPPM.
const vcmAlpha = 0.8

// VCMIntegrator approximates vertex connection and merging: full
// bidirectional path tracing (BDPTIntegrator, vertex *connection*) supplies
// the direct and multi-bounce indirect terms exactly as BDPT already
// combines them with MIS, and a photon-map density estimate at the camera
// path's first non-specular vertex (vertex *merging*, pkg/photonmap) adds
// the further indirect light that short connections miss - the same
// light-transport gap photon mapping fills for SPPM. The original unifies
// both techniques' contributions with a single MIS weight derived from
// their sampling densities (vcmups.cc); reproducing that weighting exactly
// needs per-vertex density bookkeeping BDPTIntegrator doesn't expose, so
// this blends the merge term in at a weight that shrinks alongside the
// merge radius instead - a documented approximation of VCM/UPS's MIS
// combination, not a rederivation of it. Grounded on
// original_source/sources/integrators/vcmups/{vcmups.h,vcmups.cc}.
type VCMIntegrator struct {
	config scene.SamplingConfig
	bdpt   *BDPTIntegrator

	CastPhotons   int
	GatherPhotons int

	once sync.Once
	pm   *photonmap.PhotonMap

	mu          sync.Mutex
	n           float64
	r2          float64
	mergeWeight float64
}

// NewVCMIntegrator creates a VCM/UPS integrator with an initial merge
// radius and the original's default progressive shrink rate.
func NewVCMIntegrator(config scene.SamplingConfig, initialRadius float64) *VCMIntegrator {
	return &VCMIntegrator{
		config:        config,
		bdpt:          NewBDPTIntegrator(config),
		CastPhotons:   200000,
		GatherPhotons: 50,
		r2:            initialRadius * initialRadius,
		mergeWeight:   0.5,
	}
}

func (vc *VCMIntegrator) photonMap(sc *scene.Scene, sampler core.Sampler) *photonmap.PhotonMap {
	vc.once.Do(func() {
		pm := photonmap.NewPhotonMap()
		_ = pm.Construct(sc, sampler.Clone(1), vc.CastPhotons, vc.config.MaxDepth)
		vc.pm = pm
	})
	return vc.pm
}

// nextMerge returns this call's (radius, blend weight) pair: the initial pair
// on the first call, and on every later call the pair after advancing the
// shared progressive state: the radius shrinks by sppm.go's formula with
// vcmAlpha, and the blend weight shrinks proportionally so the merge term's
// contribution (and its residual bias) fades out as more photons accumulate.
func (vc *VCMIntegrator) nextMerge() (radius, weight float64) {
	vc.mu.Lock()
	defer vc.mu.Unlock()

	radius = math.Sqrt(vc.r2)
	weight = vc.mergeWeight

	if vc.n == 0 {
		vc.n = 1
		return radius, weight
	}

	const m = 1.0
	nNew := vc.n + vcmAlpha*m
	ratio := nNew / (vc.n + m)
	vc.r2 *= ratio
	vc.mergeWeight *= ratio
	vc.n = nNew
	return math.Sqrt(vc.r2), vc.mergeWeight
}

// RayColor computes color for a ray by combining a full BDPT estimate with a
// weighted photon-map merge term at the camera path's first non-specular hit.
func (vc *VCMIntegrator) RayColor(ray core.Ray, sc *scene.Scene, sampler core.Sampler) (core.Vec3, []core.SplatRay) {
	connection, splats := vc.bdpt.RayColor(ray, sc, sampler)

	pm := vc.photonMap(sc, sampler)
	radius, weight := vc.nextMerge()
	merge := vc.mergeTerm(ray, sc, sampler, pm, radius, vc.config.MaxDepth)

	return connection.Add(merge.Multiply(weight)), splats
}

// mergeTerm follows specular bounces exactly like photon_mapper.go until it
// reaches the first non-specular hit, then returns the photon map's density
// estimate there (or zero, if the path escapes the scene or is absorbed).
func (vc *VCMIntegrator) mergeTerm(ray core.Ray, sc *scene.Scene, sampler core.Sampler, pm *photonmap.PhotonMap, radius float64, depth int) core.Vec3 {
	if depth <= 0 {
		return core.Vec3{}
	}

	hit, isHit := sc.BVH.Hit(ray, 0.001, math.Inf(1))
	if !isHit {
		return core.Vec3{}
	}

	scatterResult, didScatter := hit.Material.Scatter(ray, *hit, sampler)
	if !didScatter {
		return core.Vec3{}
	}

	if scatterResult.IsSpecular() {
		return vc.mergeTerm(scatterResult.Scattered, sc, sampler, pm, radius, depth-1).MultiplyVec(scatterResult.Attenuation)
	}

	return pm.EvaluateL(hit, hit.Wo, vc.GatherPhotons, radius)
}
