package integrator

import (
	"math/rand"
	"testing"

	"github.com/df07/go-progressive-raytracer/pkg/core"
)

func TestMMLTNonNegative(t *testing.T) {
	sc := createTestScene()
	integ := NewMMLTIntegrator(sc.SamplingConfig)
	sampler := core.NewRandomSampler(rand.New(rand.NewSource(6)))

	ray := core.NewRay(core.NewVec3(0, 0, 2), core.NewVec3(0, 0, -1))
	color, _ := integ.RayColor(ray, sc, sampler)

	if color.X < 0 || color.Y < 0 || color.Z < 0 {
		t.Errorf("expected non-negative color, got %v", color)
	}
}
