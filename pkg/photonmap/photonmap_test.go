package photonmap

import (
	"math/rand"
	"testing"

	"github.com/df07/go-progressive-raytracer/pkg/core"
	"github.com/df07/go-progressive-raytracer/pkg/geometry"
	"github.com/df07/go-progressive-raytracer/pkg/material"
	"github.com/df07/go-progressive-raytracer/pkg/scene"
)

func TestKDTreeKNNSearchFindsNearestFirst(t *testing.T) {
	photons := []Photon{
		{Position: core.NewVec3(0, 0, 0)},
		{Position: core.NewVec3(1, 0, 0)},
		{Position: core.NewVec3(5, 0, 0)},
		{Position: core.NewVec3(0.1, 0, 0)},
	}
	root := buildKDTree(append([]Photon(nil), photons...))

	found, maxDistSq := root.knnSearch(core.Vec3{}, 2, 10)
	if len(found) != 2 {
		t.Fatalf("expected 2 neighbors, got %d", len(found))
	}

	var sawOrigin, sawNear bool
	for _, p := range found {
		if p.Position.Equals(core.NewVec3(0, 0, 0)) {
			sawOrigin = true
		}
		if p.Position.Equals(core.NewVec3(0.1, 0, 0)) {
			sawNear = true
		}
	}
	if !sawOrigin || !sawNear {
		t.Errorf("expected the two closest photons (0,0,0) and (0.1,0,0), got %v", found)
	}
	if maxDistSq <= 0 {
		t.Error("expected a positive max distance among non-coincident neighbors")
	}
}

func TestKDTreeKNNSearchRespectsRadius(t *testing.T) {
	photons := []Photon{
		{Position: core.NewVec3(0, 0, 0)},
		{Position: core.NewVec3(100, 0, 0)},
	}
	root := buildKDTree(photons)

	found, _ := root.knnSearch(core.Vec3{}, 5, 1)
	if len(found) != 1 {
		t.Errorf("expected only the photon within radius 1, got %d", len(found))
	}
}

func photonTestScene() *scene.Scene {
	lambertian := material.NewLambertian(core.NewVec3(0.7, 0.7, 0.7))
	floor := geometry.NewSphere(core.NewVec3(0, -1000, 0), 1000, lambertian)

	s := &scene.Scene{
		Shapes: []geometry.Shape{floor},
		SamplingConfig: scene.SamplingConfig{
			MaxDepth:                  5,
			RussianRouletteMinBounces: 3,
		},
	}
	s.AddQuadLight(core.NewVec3(-1, 5, -1), core.NewVec3(2, 0, 0), core.NewVec3(0, 0, 2), core.NewVec3(10, 10, 10))
	if err := s.Preprocess(); err != nil {
		panic(err)
	}
	return s
}

func TestPhotonMapConstructStoresPhotons(t *testing.T) {
	sc := photonTestScene()
	sampler := core.NewRandomSampler(rand.New(rand.NewSource(7)))

	pm := NewPhotonMap()
	if err := pm.Construct(sc, sampler, 2000, 4); err != nil {
		t.Fatalf("Construct returned error: %v", err)
	}

	if pm.NumPhotons() == 0 {
		t.Fatal("expected at least one photon to have landed on the floor")
	}
}

func TestPhotonMapConstructEmptyScene(t *testing.T) {
	sc := &scene.Scene{SamplingConfig: scene.SamplingConfig{MaxDepth: 5}}
	if err := sc.Preprocess(); err != nil {
		t.Fatalf("Preprocess: %v", err)
	}
	sampler := core.NewRandomSampler(rand.New(rand.NewSource(1)))

	pm := NewPhotonMap()
	if err := pm.Construct(sc, sampler, 100, 4); err != nil {
		t.Fatalf("Construct on an empty scene should not error, got: %v", err)
	}
	if pm.NumPhotons() != 0 {
		t.Errorf("expected 0 photons with no lights, got %d", pm.NumPhotons())
	}
}

func TestPhotonMapEvaluateLNonNegative(t *testing.T) {
	sc := photonTestScene()
	sampler := core.NewRandomSampler(rand.New(rand.NewSource(7)))

	pm := NewPhotonMap()
	if err := pm.Construct(sc, sampler, 20000, 4); err != nil {
		t.Fatalf("Construct returned error: %v", err)
	}

	hit, isHit := sc.BVH.Hit(core.NewRay(core.NewVec3(0, 10, 0), core.NewVec3(0, -1, 0)), 0.001, 1e9)
	if !isHit {
		t.Fatal("expected the downward ray to hit the floor sphere")
	}

	estimate := pm.EvaluateL(hit, hit.Normal, 50, 5.0)
	if estimate.X < 0 || estimate.Y < 0 || estimate.Z < 0 {
		t.Errorf("density estimate should be non-negative, got %v", estimate)
	}
}
