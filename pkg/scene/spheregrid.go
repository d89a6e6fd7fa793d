package scene

import (
	"math"

	"github.com/df07/go-progressive-raytracer/pkg/core"
	"github.com/df07/go-progressive-raytracer/pkg/geometry"
	"github.com/df07/go-progressive-raytracer/pkg/lights"
	"github.com/df07/go-progressive-raytracer/pkg/material"
)

// oklchToRGB converts OKLCH color values to RGB
// L: lightness (0-1), C: chroma (0-0.4+), H: hue (0-360 degrees)
func oklchToRGB(l, c, h float64) core.Vec3 {
	// Convert hue from degrees to radians
	hRad := h * math.Pi / 180.0

	// Convert from OKLCH to OKLAB
	a := c * math.Cos(hRad)
	b := c * math.Sin(hRad)

	// Convert from OKLAB to linear RGB
	// Using simplified approximation for OKLAB to RGB conversion
	// This is not perfectly accurate but good enough for our purposes

	// First convert to LMS
	l_ := l + 0.3963377774*a + 0.2158037573*b
	m_ := l - 0.1055613458*a - 0.0638541728*b
	s_ := l - 0.0894841775*a - 1.2914855480*b

	// Cube the values
	l_ = l_ * l_ * l_
	m_ = m_ * m_ * m_
	s_ = s_ * s_ * s_

	// Convert LMS to linear RGB
	r := +4.0767416621*l_ - 3.3077115913*m_ + 0.2309699292*s_
	g := -1.2684380046*l_ + 2.6097574011*m_ - 0.3413193965*s_
	blue := -0.0041960863*l_ - 0.7034186147*m_ + 1.7076147010*s_

	// Clamp to [0, 1] range
	r = math.Max(0, math.Min(1, r))
	g = math.Max(0, math.Min(1, g))
	blue = math.Max(0, math.Min(1, blue))

	return core.NewVec3(r, g, blue)
}

// sphereGridMaterial builds the material for one grid cell given the requested
// finish. "mixed" cycles through metal/glass/lambertian by grid position so the
// grid shows a variety of materials at a glance.
func sphereGridMaterial(finish string, color core.Vec3, roughness float64, i, j int) material.Material {
	switch finish {
	case "matte":
		return material.NewLambertian(color)
	case "glossy":
		return material.NewMetal(color, 0.02)
	case "mirror":
		return material.NewMetal(color, 0.0)
	case "glass":
		return material.NewDielectric(1.5)
	case "mixed":
		switch (i + j) % 3 {
		case 0:
			return material.NewMetal(color, roughness)
		case 1:
			return material.NewDielectric(1.5)
		default:
			return material.NewLambertian(color)
		}
	case "metallic":
		fallthrough
	default:
		return material.NewMetal(color, roughness)
	}
}

// NewSphereGridScene creates a scene with a gridSize x gridSize grid of spheres.
// materialFinish selects the material applied to the grid: "metallic", "matte",
// "glossy", "mirror", "glass", or "mixed".
func NewSphereGridScene(gridSize int, materialFinish string, cameraOverrides ...geometry.CameraConfig) *Scene {
	if gridSize < 1 {
		gridSize = 1
	}

	// Default camera configuration for sphere grid
	defaultCameraConfig := geometry.CameraConfig{
		Center:        core.NewVec3(4.5, 6, 18),    // Position camera farther back and slightly lower
		LookAt:        core.NewVec3(4.5, 0.8, 4.5), // Look at center of grid, slightly lower
		Up:            core.NewVec3(0, 1, 0),       // Standard up direction
		Width:         800,
		AspectRatio:   16.0 / 9.0, // 16:9 aspect ratio
		VFov:          40.0,       // Slightly narrower field of view for better framing
		Aperture:      0.02,       // Small depth of field for some focus variation
		FocusDistance: 0.0,        // Auto-calculate focus distance
	}

	// Apply any overrides using the reusable merge function
	cameraConfig := defaultCameraConfig
	if len(cameraOverrides) > 0 {
		cameraConfig = geometry.MergeCameraConfig(defaultCameraConfig, cameraOverrides[0])
	}

	samplingConfig := SamplingConfig{
		SamplesPerPixel:           100,
		MaxDepth:                  40,
		RussianRouletteMinBounces: 12,    // Moderate bounces for metallic reflections
		AdaptiveMinSamples:        0.15,  // Standard minimum for adaptive sampling
		AdaptiveThreshold:         0.015, // 1.5% relative error threshold
	}

	camera := geometry.NewCamera(cameraConfig)

	// Create the scene
	s := &Scene{
		Camera:         camera,
		Shapes:         make([]geometry.Shape, 0),
		Lights:         make([]lights.Light, 0),
		SamplingConfig: samplingConfig,
		CameraConfig:   cameraConfig,
	}

	// Add environmental lighting - a bright sun-like light
	s.AddSphereLight(
		core.NewVec3(20, 25, 20),       // position (high and to the side)
		8,                              // radius
		core.NewVec3(12.0, 11.5, 10.0), // warm white emission
	)
	s.AddGradientInfiniteLight(core.NewVec3(0.5, 0.7, 1.0), core.NewVec3(1.0, 1.0, 1.0))

	// Create ground plane (gray lambertian)
	groundPlane := geometry.NewPlane(
		core.NewVec3(0, 0, 0),                               // point on plane
		core.NewVec3(0, 1, 0),                               // normal vector (up)
		material.NewLambertian(core.NewVec3(0.5, 0.5, 0.5)), // medium gray
	)
	s.Shapes = append(s.Shapes, groundPlane)

	// Calculate spacing and radius to fit grid in same visual area
	// Target area: roughly 9x9 units (to fit nicely in camera view)
	targetArea := 9.0
	spacing := targetArea
	if gridSize > 1 {
		spacing = targetArea / float64(gridSize-1)
	}

	// Scale sphere radius based on spacing, but keep reasonable minimum/maximum
	sphereRadius := spacing * 0.35 // 35% of spacing
	minRadius := 0.02              // Minimum visible radius
	maxRadius := 0.35              // Maximum radius (original size)
	sphereRadius = math.Max(minRadius, math.Min(maxRadius, sphereRadius))

	// OKLCH parameters for color variation
	baseLightness := 0.65 // Keep lightness relatively constant for uniform appearance
	minChroma := 0.05     // Minimum chroma (near white/gray)
	maxChroma := 0.25     // Maximum chroma (vivid colors)

	denom := float64(gridSize - 1)
	if gridSize == 1 {
		denom = 1
	}

	for i := 0; i < gridSize; i++ {
		for j := 0; j < gridSize; j++ {
			// Position sphere in grid, centered around the camera's look-at point
			x := float64(i)*spacing - targetArea/2.0 + 4.5 // Center around x=4.5
			z := float64(j)*spacing - targetArea/2.0 + 4.5 // Center around z=4.5
			y := sphereRadius                              // Sphere sits on ground plane

			position := core.NewVec3(x, y, z)

			// Calculate OKLCH color based on grid position
			// Vary hue across X axis (0-360 degrees)
			hue := (float64(i) / denom) * 360.0

			// Vary chroma across Z axis (from desaturated to vivid)
			chroma := minChroma + (float64(j)/denom)*(maxChroma-minChroma)

			// Slight lightness variation for more interest
			lightness := baseLightness + 0.1*math.Sin(float64(i+j)*0.5)

			// Convert OKLCH to RGB
			color := oklchToRGB(lightness, chroma, hue)

			// Vary roughness slightly for more realistic metal appearance
			roughness := 0.05 + 0.1*float64((i+j)%3)/2.0
			sphereMaterial := sphereGridMaterial(materialFinish, color, roughness, i, j)

			// Create sphere
			sphere := geometry.NewSphere(position, sphereRadius, sphereMaterial)
			s.Shapes = append(s.Shapes, sphere)
		}
	}

	return s
}
