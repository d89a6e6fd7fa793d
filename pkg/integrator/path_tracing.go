package integrator

import (
	"fmt"
	"math"

	"github.com/df07/go-progressive-raytracer/pkg/core"
	"github.com/df07/go-progressive-raytracer/pkg/lights"
	"github.com/df07/go-progressive-raytracer/pkg/material"
	"github.com/df07/go-progressive-raytracer/pkg/mis"
	"github.com/df07/go-progressive-raytracer/pkg/scene"
)

// PathTracingIntegrator implements unidirectional path tracing with next-event
// estimation (direct light sampling) and multiple importance sampling against
// material (BSDF) sampling.
type PathTracingIntegrator struct {
	config  scene.SamplingConfig
	Verbose bool
}

// NewPathTracingIntegrator creates a new path tracing integrator
func NewPathTracingIntegrator(config scene.SamplingConfig) *PathTracingIntegrator {
	return &PathTracingIntegrator{
		config:  config,
		Verbose: false,
	}
}

// RayColor computes the color for a single ray using unidirectional path tracing
func (pt *PathTracingIntegrator) RayColor(ray core.Ray, sc *scene.Scene, sampler core.Sampler) (core.Vec3, []core.SplatRay) {
	depth := pt.config.MaxDepth
	throughput := core.Vec3{X: 1.0, Y: 1.0, Z: 1.0}
	return pt.rayColorRecursive(ray, sc, sampler, depth, throughput), nil
}

func (pt *PathTracingIntegrator) rayColorRecursive(ray core.Ray, sc *scene.Scene, sampler core.Sampler, depth int, throughput core.Vec3) core.Vec3 {
	// If we've exceeded the ray bounce limit, no more light is gathered
	if depth <= 0 {
		return core.Vec3{}
	}

	// Apply Russian Roulette termination
	shouldTerminate, rrCompensation := pt.ApplyRussianRoulette(depth, throughput, sampler.Get1D())
	if shouldTerminate {
		return core.Vec3{}
	}

	// Check for intersections with objects using the scene's BVH
	hit, isHit := sc.BVH.Hit(ray, 0.001, math.Inf(1))
	if !isHit {
		bgColor := pt.BackgroundLight(ray, sc)
		return bgColor.Multiply(rrCompensation)
	}

	// Start with emitted light from the hit material
	colorEmitted := pt.GetEmittedLight(ray, hit)

	// Try to scatter the ray
	scatterResult, didScatter := hit.Material.Scatter(ray, *hit, sampler)
	if !didScatter {
		// Material absorbed the ray, only return emitted light
		if colorEmitted.Luminance() > 0 {
			pt.logf("      pt[%d]    light: contribution=%v\n", pt.config.MaxDepth-depth, colorEmitted)
		} else {
			pt.logf("      pt[%d] absorbed: contribution=0\n", pt.config.MaxDepth-depth)
		}
		return colorEmitted.Multiply(rrCompensation)
	}

	// Handle scattering based on material type
	var colorScattered core.Vec3
	if scatterResult.IsSpecular() {
		colorScattered = pt.calculateSpecularColor(scatterResult, sc, depth, throughput, sampler)
	} else {
		colorScattered = pt.calculateDiffuseColor(scatterResult, hit, sc, depth, throughput, sampler)
	}

	// Apply Russian Roulette compensation to the final result
	finalColor := colorEmitted.Add(colorScattered)
	return finalColor.Multiply(rrCompensation)
}

// calculateSpecularColor handles specular material scattering
func (pt *PathTracingIntegrator) calculateSpecularColor(scatterResult material.ScatterResult, sc *scene.Scene, depth int, throughput core.Vec3, sampler core.Sampler) core.Vec3 {
	newThroughput := throughput.MultiplyVec(scatterResult.Attenuation)
	incomingLight := pt.rayColorRecursive(scatterResult.Scattered, sc, sampler, depth-1, newThroughput)
	contribution := scatterResult.Attenuation.MultiplyVec(incomingLight)

	pt.logf("      pt[%d] specular: contribution=%v = attenuation=%v * incomingLight=%v\n", pt.config.MaxDepth-depth, contribution, scatterResult.Attenuation, incomingLight)

	return contribution
}

// calculateDiffuseColor handles diffuse material scattering with MIS between
// light sampling and material sampling
func (pt *PathTracingIntegrator) calculateDiffuseColor(scatterResult material.ScatterResult, hit *material.SurfaceInteraction, sc *scene.Scene, depth int, throughput core.Vec3, sampler core.Sampler) core.Vec3 {
	directLight := pt.CalculateDirectLighting(sc, scatterResult, hit, sampler, depth)
	indirectLight := pt.CalculateIndirectLighting(sc, scatterResult, hit, depth, throughput, sampler)
	return directLight.Add(indirectLight)
}

// GetEmittedLight returns the emitted light from a material if it's emissive
func (pt *PathTracingIntegrator) GetEmittedLight(ray core.Ray, hit *material.SurfaceInteraction) core.Vec3 {
	if emitter, isEmissive := hit.Material.(material.Emitter); isEmissive {
		return emitter.Emit(ray, hit)
	}
	return core.Vec3{}
}

// CalculateDirectLighting samples a light directly for next-event estimation
func (pt *PathTracingIntegrator) CalculateDirectLighting(sc *scene.Scene, scatterResult material.ScatterResult, hit *material.SurfaceInteraction, sampler core.Sampler, depth int) core.Vec3 {
	contribution := mis.UniformSampleOneLight(sc, hit, scatterResult.Incoming.Direction, sampler)
	pt.logf("      pt[%d]   direct: contribution=%v\n", pt.config.MaxDepth-depth, contribution)
	return contribution
}

// CalculateIndirectLighting handles indirect illumination via material sampling with MIS
func (pt *PathTracingIntegrator) CalculateIndirectLighting(sc *scene.Scene, scatterResult material.ScatterResult, hit *material.SurfaceInteraction, depth int, throughput core.Vec3, sampler core.Sampler) core.Vec3 {
	if scatterResult.PDF <= 0 {
		return core.Vec3{}
	}

	scatterDirection := scatterResult.Scattered.Direction.Normalize()
	cosine := scatterDirection.Dot(hit.Normal)
	if cosine <= 0 {
		return core.Vec3{}
	}

	misWeight := mis.BSDFSampleWeight(sc, hit.Point, hit.Normal, scatterDirection, scatterResult.PDF)

	newThroughput := throughput.MultiplyVec(scatterResult.Attenuation).Multiply(cosine / scatterResult.PDF)
	incomingLight := pt.rayColorRecursive(scatterResult.Scattered, sc, sampler, depth-1, newThroughput)

	contribution := scatterResult.Attenuation.Multiply(cosine * misWeight / scatterResult.PDF).MultiplyVec(incomingLight)

	pt.logf("      pt[%d] indirect: contribution=%v = attenuation=%v * incomingLight=%v * (cosine=%f * misWeight=%f / scatterPDF=%f)\n", pt.config.MaxDepth-depth, contribution, scatterResult.Attenuation, incomingLight, cosine, misWeight, scatterResult.PDF)

	return contribution
}

// ApplyRussianRoulette determines if a ray should be terminated and returns the compensation factor
func (pt *PathTracingIntegrator) ApplyRussianRoulette(depth int, throughput core.Vec3, sample float64) (bool, float64) {
	initialDepth := pt.config.MaxDepth
	currentBounce := initialDepth - depth

	if currentBounce < pt.config.RussianRouletteMinBounces {
		return false, 1.0
	}

	// Conservative bounds: survivalProb between 0.5 and 0.95, limiting the
	// compensation factor to between 1.05x and 2.0x
	luminance := throughput.Luminance()
	survivalProb := math.Min(0.95, math.Max(0.5, luminance))

	if sample > survivalProb {
		return true, 0.0
	}

	return false, 1.0 / survivalProb
}

// BackgroundLight returns the radiance for a ray that escaped the scene by
// summing the contribution of every infinite light.
func (pt *PathTracingIntegrator) BackgroundLight(ray core.Ray, sc *scene.Scene) core.Vec3 {
	var total core.Vec3
	for _, light := range sc.Lights {
		if light.Type() != lights.LightTypeInfinite {
			continue
		}
		total = total.Add(light.Emit(ray, nil))
	}
	return total
}

func (pt *PathTracingIntegrator) logf(format string, a ...interface{}) {
	if pt.Verbose {
		fmt.Printf(format, a...)
	}
}
