package integrator

import (
	"math/rand"
	"testing"

	"github.com/df07/go-progressive-raytracer/pkg/core"
)

func TestPSSMLTNonNegative(t *testing.T) {
	sc := createTestScene()
	integ := NewPSSMLTIntegrator(sc.SamplingConfig)
	sampler := core.NewRandomSampler(rand.New(rand.NewSource(4)))

	ray := core.NewRay(core.NewVec3(0, 0, 2), core.NewVec3(0, 0, -1))
	color, _ := integ.RayColor(ray, sc, sampler)

	if color.X < 0 || color.Y < 0 || color.Z < 0 {
		t.Errorf("expected non-negative color, got %v", color)
	}
}

func TestPSSMLTZeroMutationsFallsBackToBase(t *testing.T) {
	sc := createTestScene()
	integ := NewPSSMLTIntegrator(sc.SamplingConfig)
	integ.params.mutations = 0

	sampler := core.NewRandomSampler(rand.New(rand.NewSource(4)))
	ray := core.NewRay(core.NewVec3(0, 0, 2), core.NewVec3(0, 0, -1))

	color, splats := integ.RayColor(ray, sc, sampler)
	if splats != nil {
		t.Errorf("expected no splats from the base path tracer, got %v", splats)
	}
	if color.X < 0 || color.Y < 0 || color.Z < 0 {
		t.Errorf("expected non-negative color, got %v", color)
	}
}
