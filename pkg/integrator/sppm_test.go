package integrator

import (
	"math/rand"
	"testing"

	"github.com/df07/go-progressive-raytracer/pkg/core"
)

func TestSPPMRadiusShrinksAcrossCalls(t *testing.T) {
	sc := photonMapperTestScene()
	integ := NewSPPMIntegrator(sc.SamplingConfig, 2.0)
	integ.CastPhotons = 2000

	first := integ.nextRadius()
	second := integ.nextRadius()

	if second >= first {
		t.Errorf("expected radius to shrink across calls, got %v then %v", first, second)
	}
}

func TestSPPMRayColorNonNegative(t *testing.T) {
	sc := photonMapperTestScene()
	integ := NewSPPMIntegrator(sc.SamplingConfig, 2.0)
	integ.CastPhotons = 2000

	sampler := core.NewRandomSampler(rand.New(rand.NewSource(9)))
	ray := core.NewRay(core.NewVec3(0, 5, 0), core.NewVec3(0, -1, 0))

	color, splats := integ.RayColor(ray, sc, sampler)
	if splats != nil {
		t.Errorf("expected no splats, got %v", splats)
	}
	if color.X < 0 || color.Y < 0 || color.Z < 0 {
		t.Errorf("expected non-negative color, got %v", color)
	}
}
