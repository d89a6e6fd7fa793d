package integrator

import (
	"math"
	"math/rand"
	"testing"

	"github.com/df07/go-progressive-raytracer/pkg/core"
	"github.com/df07/go-progressive-raytracer/pkg/geometry"
	"github.com/df07/go-progressive-raytracer/pkg/lights"
	"github.com/df07/go-progressive-raytracer/pkg/material"
	"github.com/df07/go-progressive-raytracer/pkg/scene"
)

// createBDPTTestScene builds a minimal scene with a diffuse sphere, an area
// light, and a real camera so camera subpaths and light-tracing connections
// both have something to hit.
func createBDPTTestScene() *scene.Scene {
	white := material.NewLambertian(core.NewVec3(0.7, 0.7, 0.7))
	sphere := geometry.NewSphere(core.NewVec3(0, 0, -1), 0.5, white)

	emissive := material.NewEmissive(core.NewVec3(5, 5, 5))
	light := lights.NewSphereLight(core.NewVec3(0, 2, -1), 0.3, emissive)

	camera := geometry.NewCamera(geometry.CameraConfig{
		Center:      core.NewVec3(0, 0, 0),
		LookAt:      core.NewVec3(0, 0, -1),
		Up:          core.NewVec3(0, 1, 0),
		Width:       100,
		AspectRatio: 1.0,
		VFov:        45.0,
	})

	sc := &scene.Scene{
		Camera: camera,
		Shapes: []geometry.Shape{sphere, light.Sphere},
		Lights: []lights.Light{light},
		SamplingConfig: scene.SamplingConfig{
			MaxDepth:                  5,
			RussianRouletteMinBounces: 3,
		},
	}
	if err := sc.Preprocess(); err != nil {
		panic(err)
	}
	return sc
}

func createTestVertex(point, normal core.Vec3, isLight, isCamera bool, mat material.Material) Vertex {
	return Vertex{
		Point:             point,
		Normal:            normal,
		Material:          mat,
		IsLight:           isLight,
		IsCamera:          isCamera,
		Beta:              core.Vec3{X: 1, Y: 1, Z: 1},
		AreaPdfForward:    1.0,
		AreaPdfReverse:    1.0,
		IncomingDirection: core.Vec3{X: 0, Y: 0, Z: 1},
	}
}

// TestExtendPath exercises the core bounce loop: surface hits, scene misses, and
// depth-zero termination.
func TestExtendPath(t *testing.T) {
	integrator := NewBDPTIntegrator(scene.SamplingConfig{MaxDepth: 5})

	tests := []struct {
		name                string
		ray                 core.Ray
		maxBounces          int
		expectedMinVertices int
		expectedMaxVertices int
		expectSurfaceHit    bool
		expectBackgroundHit bool
	}{
		{
			name:                "RayHittingSphere",
			ray:                 core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, -1)),
			maxBounces:          3,
			expectedMinVertices: 2,
			expectedMaxVertices: 5,
			expectSurfaceHit:    true,
		},
		{
			name:                "RayMissingScene",
			ray:                 core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 1, 0)),
			maxBounces:          3,
			expectedMinVertices: 2,
			expectedMaxVertices: 2,
			expectBackgroundHit: true,
		},
		{
			name:                "MaxBouncesZero",
			ray:                 core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, -1)),
			maxBounces:          0,
			expectedMinVertices: 1,
			expectedMaxVertices: 1,
		},
	}

	sc := createBDPTTestScene()
	sc.AddGradientInfiniteLight(core.NewVec3(0.5, 0.7, 1.0), core.NewVec3(1.0, 1.0, 1.0))
	if err := sc.Preprocess(); err != nil {
		t.Fatal(err)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start := createTestVertex(tt.ray.Origin, core.NewVec3(0, 1, 0), false, false, nil)
			path := &Path{Vertices: []Vertex{start}, Length: 1}

			sampler := core.NewRandomSampler(rand.New(rand.NewSource(42)))
			integrator.extendPath(path, tt.ray, start.Beta, 1.0, sc, sampler, tt.maxBounces, true)

			if path.Length < tt.expectedMinVertices || path.Length > tt.expectedMaxVertices {
				t.Errorf("expected between %d and %d vertices, got %d", tt.expectedMinVertices, tt.expectedMaxVertices, path.Length)
			}

			foundSurface, foundBackground := false, false
			for i, v := range path.Vertices {
				if v.Material != nil {
					foundSurface = true
				}
				if v.IsInfiniteLight {
					foundBackground = true
				}
				if v.Beta.X < 0 || v.Beta.Y < 0 || v.Beta.Z < 0 {
					t.Errorf("vertex %d has negative beta: %v", i, v.Beta)
				}
				if v.AreaPdfForward < 0 {
					t.Errorf("vertex %d has negative forward pdf: %f", i, v.AreaPdfForward)
				}
				if math.IsNaN(v.Point.X) || math.IsInf(v.Point.X, 0) {
					t.Errorf("vertex %d has invalid position: %v", i, v.Point)
				}
			}

			if tt.expectSurfaceHit != foundSurface {
				t.Errorf("expected surface hit=%v, found=%v", tt.expectSurfaceHit, foundSurface)
			}
			if tt.expectBackgroundHit && !foundBackground {
				t.Error("expected background hit but none found")
			}
		})
	}
}

func TestGenerateCameraSubpath(t *testing.T) {
	integrator := NewBDPTIntegrator(scene.SamplingConfig{MaxDepth: 3})
	sc := createBDPTTestScene()
	ray := core.NewRay(core.NewVec3(1, 2, 3), core.NewVec3(0, 0, -1))

	sampler := core.NewRandomSampler(rand.New(rand.NewSource(42)))
	path := integrator.generateCameraSubpath(ray, sc, sampler, 2)

	if path.Length == 0 {
		t.Fatal("camera path should have at least the camera vertex")
	}

	cam := path.Vertices[0]
	if !cam.IsCamera {
		t.Error("first vertex should be marked as camera")
	}
	if cam.Point != ray.Origin {
		t.Errorf("camera vertex position should be %v, got %v", ray.Origin, cam.Point)
	}
	if expected := ray.Direction.Multiply(-1); cam.Normal != expected {
		t.Errorf("camera vertex normal should be %v, got %v", expected, cam.Normal)
	}
}

func TestGenerateLightSubpath(t *testing.T) {
	integrator := NewBDPTIntegrator(scene.SamplingConfig{MaxDepth: 3})
	sc := createBDPTTestScene()

	sampler := core.NewRandomSampler(rand.New(rand.NewSource(42)))
	path := integrator.generateLightSubpath(sc, sampler, 2)

	if path.Length == 0 {
		t.Fatal("light path should have at least the light vertex")
	}

	lv := path.Vertices[0]
	if !lv.IsLight {
		t.Error("first vertex should be marked as light")
	}
	if lv.Light == nil {
		t.Error("light vertex should have a light reference")
	}
	if lv.EmittedLight.Luminance() <= 0 {
		t.Error("light vertex should have positive emission")
	}
}

func TestEvaluatePathTracingStrategy(t *testing.T) {
	integrator := NewBDPTIntegrator(scene.SamplingConfig{MaxDepth: 5})

	emitted := core.NewVec3(2, 1, 0.5)
	path := &Path{
		Vertices: []Vertex{
			createTestVertex(core.Vec3{}, core.NewVec3(0, 0, 1), false, true, nil),
			createTestVertex(core.NewVec3(0, 0, -1), core.NewVec3(0, 0, 1), true, false, nil),
		},
		Length: 2,
	}
	path.Vertices[1].EmittedLight = emitted
	path.Vertices[1].Beta = core.NewVec3(0.5, 0.5, 0.5)

	contribution := integrator.evaluatePathTracingStrategy(path, 2)
	expected := emitted.MultiplyVec(path.Vertices[1].Beta)
	if contribution != expected {
		t.Errorf("expected %v, got %v", expected, contribution)
	}

	if c := integrator.evaluatePathTracingStrategy(path, 1); c != (core.Vec3{}) {
		t.Errorf("expected zero contribution when t < path length, got %v", c)
	}
}

func TestEvaluateDirectLightingStrategy(t *testing.T) {
	integrator := NewBDPTIntegrator(scene.SamplingConfig{MaxDepth: 5})
	sc := createBDPTTestScene()

	white := material.NewLambertian(core.NewVec3(0.7, 0.7, 0.7))
	hit := &material.SurfaceInteraction{Point: core.NewVec3(0, 0, -0.5), Normal: core.NewVec3(0, 0, 1), Material: white}
	cameraVertex := createTestVertex(hit.Point, hit.Normal, false, false, white)
	cameraVertex.Hit = hit
	cameraVertex.IncomingDirection = core.NewVec3(0, 0, 1)

	cameraPath := &Path{Vertices: []Vertex{
		createTestVertex(core.Vec3{}, core.NewVec3(0, 0, 1), false, true, nil),
		cameraVertex,
	}, Length: 2}

	sampler := core.NewRandomSampler(rand.New(rand.NewSource(7)))
	contribution, sampledVertex := integrator.evaluateDirectLightingStrategy(cameraPath, 1, 2, sc, sampler)

	if contribution.Luminance() < 0 {
		t.Errorf("contribution should never be negative, got %v", contribution)
	}
	if sampledVertex != nil && !sampledVertex.IsLight {
		t.Error("sampled vertex from direct lighting should be marked as light")
	}
}

func TestEvaluateConnectionStrategy(t *testing.T) {
	integrator := NewBDPTIntegrator(scene.SamplingConfig{MaxDepth: 5})
	sc := createBDPTTestScene()

	white := material.NewLambertian(core.NewVec3(0.7, 0.7, 0.7))
	cameraHit := &material.SurfaceInteraction{Point: core.NewVec3(0, 0, -0.5), Normal: core.NewVec3(0, 0, 1), Material: white}
	cameraVertex := createTestVertex(cameraHit.Point, cameraHit.Normal, false, false, white)
	cameraVertex.Hit = cameraHit
	cameraVertex.IncomingDirection = core.NewVec3(0, 0, 1)

	lightVertex := createTestVertex(core.NewVec3(0, 2, -1), core.NewVec3(0, -1, 0), true, false, nil)
	lightVertex.EmittedLight = core.NewVec3(5, 5, 5)
	lightVertex.Beta = lightVertex.EmittedLight

	cameraPath := &Path{Vertices: []Vertex{cameraVertex}, Length: 1}
	lightPath := &Path{Vertices: []Vertex{lightVertex}, Length: 1}

	contribution := integrator.evaluateConnectionStrategy(cameraPath, lightPath, 1, 1, sc)
	if contribution.Luminance() < 0 {
		t.Errorf("connection contribution should never be negative, got %v", contribution)
	}
}

func TestEvaluateLightTracingStrategy(t *testing.T) {
	integrator := NewBDPTIntegrator(scene.SamplingConfig{MaxDepth: 5})
	sc := createBDPTTestScene()

	lightVertex := createTestVertex(core.NewVec3(0, 0.2, -1), core.NewVec3(0, 1, 0), true, false, nil)
	lightVertex.EmittedLight = core.NewVec3(5, 5, 5)
	lightVertex.Beta = lightVertex.EmittedLight
	lightPath := &Path{Vertices: []Vertex{lightVertex}, Length: 1}

	sampler := core.NewRandomSampler(rand.New(rand.NewSource(3)))
	splats, sampledVertex := integrator.evaluateLightTracingStrategy(lightPath, 1, sc, sampler)

	for _, splat := range splats {
		if splat.Color.Luminance() < 0 {
			t.Errorf("splat color should never be negative, got %v", splat.Color)
		}
		if _, _, ok := sc.Camera.MapRayToPixel(splat.Ray); !ok {
			t.Error("splat ray should map back onto a pixel")
		}
	}
	if len(splats) > 0 && sampledVertex == nil {
		t.Error("expected a sampled camera vertex alongside a splat")
	}
}

func TestBDPTRayColorDeterministic(t *testing.T) {
	sc := createBDPTTestScene()
	integrator := NewBDPTIntegrator(sc.SamplingConfig)
	ray := core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, -1))

	sampler1 := core.NewRandomSampler(rand.New(rand.NewSource(42)))
	color1, _ := integrator.RayColor(ray, sc, sampler1)

	sampler2 := core.NewRandomSampler(rand.New(rand.NewSource(42)))
	color2, _ := integrator.RayColor(ray, sc, sampler2)

	if color1 != color2 {
		t.Errorf("expected deterministic output, got %v and %v", color1, color2)
	}
	if color1.X < 0 || color1.Y < 0 || color1.Z < 0 {
		t.Errorf("color has negative components: %v", color1)
	}
}
