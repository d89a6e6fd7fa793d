package scene

import (
	"math"

	"github.com/df07/go-progressive-raytracer/pkg/core"
	"github.com/df07/go-progressive-raytracer/pkg/geometry"
	"github.com/df07/go-progressive-raytracer/pkg/lights"
	"github.com/df07/go-progressive-raytracer/pkg/material"
)

// CornellGeometryType selects what, if anything, sits inside the Cornell box.
type CornellGeometryType int

const (
	// CornellSpheres places a metal sphere and a glass sphere in the box.
	CornellSpheres CornellGeometryType = iota
	// CornellBoxes places two rotated boxes in the box, as in the original Cornell reference scene.
	CornellBoxes
	// CornellEmpty leaves the box empty, matching scenes/cornell-empty.pbrt.
	CornellEmpty
)

// NewCornellScene creates a classic Cornell box scene with quad walls and area lighting.
// geometryType selects the objects placed inside the box.
func NewCornellScene(geometryType CornellGeometryType, cameraOverrides ...geometry.CameraConfig) *Scene {
	defaultCameraConfig := geometry.CameraConfig{
		Center:        core.NewVec3(278, 278, -800), // Position camera outside the box looking in
		LookAt:        core.NewVec3(278, 278, 0),     // Look at the center of the box
		Up:            core.NewVec3(0, 1, 0),         // Standard up direction
		Width:         400,
		AspectRatio:   1.0,  // Square aspect ratio for Cornell box
		VFov:          40.0, // Field of view
		Aperture:      0.0,  // No depth of field for Cornell box
		FocusDistance: 0.0,  // Auto-calculate focus distance
	}

	cameraConfig := defaultCameraConfig
	if len(cameraOverrides) > 0 {
		cameraConfig = geometry.MergeCameraConfig(defaultCameraConfig, cameraOverrides[0])
	}

	camera := geometry.NewCamera(cameraConfig)

	samplingConfig := SamplingConfig{
		SamplesPerPixel:           150,
		MaxDepth:                  40,
		RussianRouletteMinBounces: 4, // More aggressive - fewer complex caustics
		AdaptiveMinSamples:        0.15,
		AdaptiveThreshold:         0.01,
	}

	// Create the scene
	s := &Scene{
		Camera:         camera,
		Shapes:         make([]geometry.Shape, 0),
		Lights:         make([]lights.Light, 0),
		SamplingConfig: samplingConfig,
		CameraConfig:   cameraConfig,
	}

	// Create materials
	white := material.NewLambertian(core.NewVec3(0.73, 0.73, 0.73))
	red := material.NewLambertian(core.NewVec3(0.65, 0.05, 0.05))
	green := material.NewLambertian(core.NewVec3(0.12, 0.45, 0.15))

	// Cornell box dimensions (standard 555x555x555 units)
	boxSize := 555.0

	// Create the five walls of the Cornell box using quads (the front stays open)

	// Floor (white) - XZ plane at y=0
	floor := geometry.NewQuad(
		core.NewVec3(0, 0, 0),       // corner
		core.NewVec3(boxSize, 0, 0), // u vector (X direction)
		core.NewVec3(0, 0, boxSize), // v vector (Z direction)
		white,
	)

	// Ceiling (white) - XZ plane at y=boxSize
	ceiling := geometry.NewQuad(
		core.NewVec3(0, boxSize, 0), // corner
		core.NewVec3(boxSize, 0, 0), // u vector (X direction)
		core.NewVec3(0, 0, boxSize), // v vector (Z direction)
		white,
	)

	// Back wall (white) - XY plane at z=boxSize
	backWall := geometry.NewQuad(
		core.NewVec3(0, 0, boxSize), // corner
		core.NewVec3(boxSize, 0, 0), // u vector (X direction)
		core.NewVec3(0, boxSize, 0), // v vector (Y direction)
		white,
	)

	// Left wall (red) - YZ plane at x=0
	leftWall := geometry.NewQuad(
		core.NewVec3(0, 0, 0),       // corner
		core.NewVec3(0, 0, boxSize), // u vector (Z direction)
		core.NewVec3(0, boxSize, 0), // v vector (Y direction)
		red,
	)

	// Right wall (green) - YZ plane at x=boxSize
	rightWall := geometry.NewQuad(
		core.NewVec3(boxSize, 0, 0), // corner
		core.NewVec3(0, boxSize, 0), // u vector (Y direction)
		core.NewVec3(0, 0, boxSize), // v vector (Z direction)
		green,
	)

	// Add walls to scene
	s.Shapes = append(s.Shapes, floor, ceiling, backWall, leftWall, rightWall)

	// Add ceiling light (smaller quad in the center of the ceiling)
	lightSize := 130.0
	lightOffset := (boxSize - lightSize) / 2.0
	s.AddQuadLight(
		core.NewVec3(lightOffset, boxSize-1, lightOffset), // corner (slightly below ceiling)
		core.NewVec3(lightSize, 0, 0),                     // u vector (X direction)
		core.NewVec3(0, 0, lightSize),                     // v vector (Z direction)
		core.NewVec3(15.0, 15.0, 15.0),                    // bright white emission
	)

	switch geometryType {
	case CornellBoxes:
		addCornellBoxes(s)
	case CornellEmpty:
		// no objects inside
	case CornellSpheres:
		fallthrough
	default:
		addCornellSpheres(s)
	}

	return s
}

// addCornellSpheres adds the traditional metal/glass sphere pair.
func addCornellSpheres(s *Scene) {
	leftSphere := geometry.NewSphere(
		core.NewVec3(185, 82.5, 169), // position
		82.5,                         // radius
		material.NewMetal(core.NewVec3(0.8, 0.8, 0.9), 0.0), // shiny metal
	)

	rightSphere := geometry.NewSphere(
		core.NewVec3(370, 90, 351),  // position
		90,                          // radius
		material.NewDielectric(1.5), // glass
	)

	s.Shapes = append(s.Shapes, leftSphere, rightSphere)
}

// addCornellBoxes adds the two rotated boxes from the original Cornell reference scene.
func addCornellBoxes(s *Scene) {
	white := material.NewLambertian(core.NewVec3(0.73, 0.73, 0.73))

	// Tall box, rotated 15 degrees about Y
	tallBox := geometry.NewBox(
		core.NewVec3(368, 165, 351),
		core.NewVec3(82.5, 165, 82.5),
		core.NewVec3(0, 15.0*math.Pi/180.0, 0),
		white,
	)

	// Short box, rotated -18 degrees about Y
	shortBox := geometry.NewBox(
		core.NewVec3(185, 82.5, 169),
		core.NewVec3(82.5, 82.5, 82.5),
		core.NewVec3(0, -18.0*math.Pi/180.0, 0),
		white,
	)

	s.Shapes = append(s.Shapes, tallBox, shortBox)
}
