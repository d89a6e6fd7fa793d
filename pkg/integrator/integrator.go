package integrator

import (
	"github.com/df07/go-progressive-raytracer/pkg/core"
	"github.com/df07/go-progressive-raytracer/pkg/scene"
)

// Integrator defines the interface for light transport algorithms
type Integrator interface {
	// RayColor computes color for a ray, with support for ray-based splatting
	// (contributions that land on a different pixel than the one being traced).
	RayColor(ray core.Ray, sc *scene.Scene, sampler core.Sampler) (core.Vec3, []core.SplatRay)
}
