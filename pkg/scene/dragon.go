package scene

import (
	"os"
	"time"

	"github.com/df07/go-progressive-raytracer/pkg/core"
	"github.com/df07/go-progressive-raytracer/pkg/geometry"
	"github.com/df07/go-progressive-raytracer/pkg/lights"
	"github.com/df07/go-progressive-raytracer/pkg/loaders"
	"github.com/df07/go-progressive-raytracer/pkg/material"
)

// NewDragonScene creates a scene with the dragon PLY mesh
// If loadMesh is false, creates the scene structure without loading the PLY file.
// This is useful for getting scene configuration without the expensive mesh loading.
// materialFinish selects the dragon's material: "gold", "copper", "plastic", "matte",
// "mirror", or "glass".
func NewDragonScene(loadMesh bool, materialFinish string, logger core.Logger, cameraOverrides ...geometry.CameraConfig) *Scene {
	// Setup camera for dragon viewing
	cameraConfig := setupDragonCamera(cameraOverrides...)
	camera := geometry.NewCamera(cameraConfig)

	s := &Scene{
		Camera:         camera,
		Shapes:         make([]geometry.Shape, 0),
		Lights:         make([]lights.Light, 0),
		SamplingConfig: createDragonSamplingConfig(),
		CameraConfig:   cameraConfig,
	}

	// Add lighting
	addDragonLighting(s)

	// Add ground plane
	addDragonGround(s)

	// Add a sky-like background
	s.AddGradientInfiniteLight(core.NewVec3(0.5, 0.7, 1.0), core.NewVec3(1.0, 1.0, 1.0))

	// Load and add dragon mesh only if requested
	if loadMesh {
		addDragonMesh(s, materialFinish, logger)
	} else {
		logger.Printf("Dragon scene created without mesh for configuration\n")
	}

	return s
}

// setupDragonCamera configures the camera for viewing the dragon (based on PBRT scene)
func setupDragonCamera(cameraOverrides ...geometry.CameraConfig) geometry.CameraConfig {
	// Use exact PBRT scene coordinates: LookAt 277 -240 250  0 60 -30 0 0 1
	defaultCameraConfig := geometry.CameraConfig{
		Center:        core.NewVec3(277, -240, 250), // Exact PBRT camera position
		LookAt:        core.NewVec3(0, 60, -30),     // Exact PBRT look at point
		Up:            core.NewVec3(0, 0, 1),        // Z-up coordinate system from PBRT
		Width:         900,                          // Match PBRT resolution (900x900)
		AspectRatio:   1.0,                          // PBRT uses 900x900
		VFov:          33.0,                         // FOV from PBRT scene
		Aperture:      0.0,                          // No depth of field
		FocusDistance: 0.0,                          // Auto-calculate focus distance
	}

	// Apply any overrides
	cameraConfig := defaultCameraConfig
	if len(cameraOverrides) > 0 {
		cameraConfig = geometry.MergeCameraConfig(defaultCameraConfig, cameraOverrides[0])
	}

	return cameraConfig
}

// createDragonSamplingConfig creates sampling configuration optimized for complex mesh
func createDragonSamplingConfig() SamplingConfig {
	return SamplingConfig{
		SamplesPerPixel:           200,  // Higher samples for quality
		MaxDepth:                  50,   // Deep bounces for complex geometry
		RussianRouletteMinBounces: 15,   // More bounces before Russian Roulette
		AdaptiveMinSamples:        0.15, // 15% of max samples minimum for complex geometry
		AdaptiveThreshold:         0.01, // Lower threshold for better quality
	}
}

// addDragonLighting adds dramatic lighting for the dragon
func addDragonLighting(s *Scene) {
	// Remember: Z-up coordinate system, camera at (277, -240, 250) looking at (0, 60, -30)

	// Main key light - position away from camera view (higher Z, more positive Y)
	s.AddSphereLight(
		core.NewVec3(0, 200, 800), // position (right, behind dragon, high up)
		300.0,                     // smaller radius for sharper shadows
		core.NewVec3(15.0, 14.0, 12.0).Multiply(0.25), // reduced intensity
	)
}

// addDragonGround adds a ground plane (matching PBRT scene at Z = -40)
func addDragonGround(s *Scene) {
	groundMaterial := material.NewLambertian(core.NewVec3(0.6, 0.6, 0.6))
	// PBRT ground: Translate 0 0 -40 (exact coordinates)
	groundPlane := geometry.NewPlane(
		core.NewVec3(0, 0, -40), // Ground at Z = -40 exactly like PBRT
		core.NewVec3(0, 0, 1),   // Z-up normal exactly like PBRT
		groundMaterial,
	)
	s.Shapes = append(s.Shapes, groundPlane)
}

// dragonMaterial builds the dragon's material for the requested finish.
func dragonMaterial(finish string) material.Material {
	switch finish {
	case "copper":
		return material.NewMetal(core.NewVec3(0.72, 0.45, 0.2), 0.15)
	case "mirror":
		return material.NewMetal(core.NewVec3(0.95, 0.95, 0.95), 0.0)
	case "glass":
		return material.NewDielectric(1.5)
	case "plastic":
		return material.NewLayered(material.NewDielectric(1.4), material.NewLambertian(core.NewVec3(0.6, 0.1, 0.1)))
	case "matte":
		return material.NewLambertian(core.NewVec3(0.7, 0.5, 0.2))
	case "gold":
		fallthrough
	default:
		// PBRT uses "float roughness" [.002] for very shiny metal; darker gold color for realism
		return material.NewMetal(core.NewVec3(0.7, 0.5, 0.2), 0.2)
	}
}

// addDragonMesh loads the dragon PLY file and adds it to the scene
func addDragonMesh(s *Scene, materialFinish string, logger core.Logger) {
	// Try multiple possible paths for the dragon PLY file
	// This allows the scene to work from both command line and web server contexts
	possiblePaths := []string{
		"models/dragon_remeshed.ply",    // From project root (command line)
		"../models/dragon_remeshed.ply", // From web/ directory (web server)
	}

	var dragonPath string
	var found bool

	// Find the first path that exists
	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			dragonPath = path
			found = true
			break
		}
	}

	meshMaterial := dragonMaterial(materialFinish)

	if !found {
		logger.Printf("Warning: Dragon PLY file not found at any of these locations:\n")
		for _, path := range possiblePaths {
			logger.Printf("  - %s\n", path)
		}
		return
	}

	// Load the PLY data
	logger.Printf("Loading dragon mesh from %s...\n", dragonPath)
	plyStart := time.Now()
	plyData, err := loaders.LoadPLY(dragonPath)
	plyLoadTime := time.Since(plyStart)
	if err != nil {
		logger.Printf("Error loading dragon PLY data: %v\n", err)
		logger.Printf("Adding placeholder sphere instead\n")

		// Add placeholder sphere
		placeholder := geometry.NewSphere(
			core.NewVec3(0, 1, 0), // center
			1.0,                   // radius
			meshMaterial,
		)
		s.Shapes = append(s.Shapes, placeholder)
		return
	}

	logger.Printf("PLY data loaded: %d vertices, %d triangles in %v\n",
		len(plyData.Vertices), len(plyData.Faces)/3, plyLoadTime)

	// Create triangle mesh with rotation
	// Apply the exact rotation from PBRT scene: "Rotate -53 0 1 0"
	// This means -53 degrees around Y axis (0 1 0)
	rotationY := -53.0 * 3.14159265359 / 180.0 // -53 degrees in radians
	rotation := core.NewVec3(0, rotationY, 0)  // Rotate around Y axis exactly like PBRT
	center := core.NewVec3(0, 0, 0)            // Rotate around origin

	// Create mesh options
	// Note: PLY normals are per-vertex, but TriangleMesh expects per-triangle normals,
	// so we skip them unless present and let the mesh calculate them automatically
	var meshOptions *geometry.TriangleMeshOptions
	if len(plyData.Normals) > 0 {
		meshOptions = &geometry.TriangleMeshOptions{
			Normals:  plyData.Normals,
			Rotation: &rotation,
			Center:   &center,
		}
	} else {
		meshOptions = &geometry.TriangleMeshOptions{
			Rotation: &rotation,
			Center:   &center,
		}
	}

	// Create triangle mesh with timing
	logger.Printf("Creating triangle mesh with %d vertices, %d triangles...\n", len(plyData.Vertices), len(plyData.Faces)/3)
	meshStart := time.Now()
	dragonMesh := geometry.NewTriangleMesh(plyData.Vertices, plyData.Faces, meshMaterial, meshOptions)
	logger.Printf("Triangle mesh created in %v\n", time.Since(meshStart))

	logger.Printf("Successfully loaded dragon mesh with %d triangles\n", dragonMesh.GetTriangleCount())

	s.Shapes = append(s.Shapes, dragonMesh)
}
