package integrator

import (
	"math/rand"
	"testing"

	"github.com/df07/go-progressive-raytracer/pkg/core"
)

func TestVCMNonNegative(t *testing.T) {
	sc := photonMapperTestScene()
	integ := NewVCMIntegrator(sc.SamplingConfig, 2.0)
	integ.CastPhotons = 2000

	sampler := core.NewRandomSampler(rand.New(rand.NewSource(8)))
	ray := core.NewRay(core.NewVec3(0, 5, 0), core.NewVec3(0, -1, 0))

	color, _ := integ.RayColor(ray, sc, sampler)
	if color.X < 0 || color.Y < 0 || color.Z < 0 {
		t.Errorf("expected non-negative color, got %v", color)
	}
}

func TestVCMMergeWeightShrinks(t *testing.T) {
	sc := photonMapperTestScene()
	integ := NewVCMIntegrator(sc.SamplingConfig, 2.0)

	_, w1 := integ.nextMerge()
	_, w2 := integ.nextMerge()

	if w2 >= w1 {
		t.Errorf("expected merge weight to shrink across calls, got %v then %v", w1, w2)
	}
}
