package lights

import (
	"math"

	"github.com/df07/go-progressive-raytracer/pkg/core"
	"github.com/df07/go-progressive-raytracer/pkg/material"
)

// PointSpotLight is a delta point light with directional spot falloff - no
// surface area, so it can never be hit by a ray and contributes nothing to
// indirect/camera rays. Useful when a spot's physical size doesn't matter
// and the softer shadows of DiscSpotLight aren't needed.
type PointSpotLight struct {
	position        core.Vec3 // Light position in world space
	direction       core.Vec3 // Normalized direction vector (from -> to)
	emission        core.Vec3 // Light intensity/color at unit distance
	cosTotalWidth   float64   // Cosine of total cone angle (outer edge)
	cosFalloffStart float64   // Cosine of falloff start angle (inner cone)
}

// NewPointSpotLight creates a new point spot light.
// from: light position
// to: point the light is aimed at
// emission: light intensity/color
// coneAngleDegrees: total cone angle in degrees
// coneDeltaAngleDegrees: falloff transition angle in degrees
func NewPointSpotLight(from, to, emission core.Vec3, coneAngleDegrees, coneDeltaAngleDegrees float64) *PointSpotLight {
	direction := to.Subtract(from).Normalize()

	totalWidthRadians := coneAngleDegrees * math.Pi / 180.0
	falloffStartRadians := (coneAngleDegrees - coneDeltaAngleDegrees) * math.Pi / 180.0

	return &PointSpotLight{
		position:        from,
		direction:       direction,
		emission:        emission,
		cosTotalWidth:   math.Cos(totalWidthRadians),
		cosFalloffStart: math.Cos(falloffStartRadians),
	}
}

func (psl *PointSpotLight) Type() LightType {
	return LightTypePoint
}

// falloff calculates the spot light falloff based on the cosine of the angle
// between the light direction and the direction to the point.
func (psl *PointSpotLight) falloff(cosAngle float64) float64 {
	if cosAngle < psl.cosTotalWidth {
		return 0.0
	}
	if cosAngle >= psl.cosFalloffStart {
		return 1.0
	}
	delta := (cosAngle - psl.cosTotalWidth) / (psl.cosFalloffStart - psl.cosTotalWidth)
	return delta * delta * delta * delta
}

// Sample implements the Light interface - a point light has no area to
// sample, so it always returns its fixed position with PDF 1 (delta
// convention: the integrator must know to skip the usual PDF division).
func (psl *PointSpotLight) Sample(point core.Vec3, normal core.Vec3, sample core.Vec2) LightSample {
	toLightVec := psl.position.Subtract(point)
	distance := toLightVec.Length()
	if distance == 0 {
		return LightSample{PDF: 0.0}
	}
	direction := toLightVec.Multiply(1.0 / distance)

	lightToPoint := direction.Multiply(-1)
	cosAngle := psl.direction.Dot(lightToPoint)
	spotAttenuation := psl.falloff(cosAngle)

	emission := psl.emission.Multiply(spotAttenuation / (distance * distance))

	return LightSample{
		Point:     psl.position,
		Normal:    psl.direction.Multiply(-1),
		Direction: direction,
		Distance:  distance,
		Emission:  emission,
		PDF:       1.0,
	}
}

// PDF implements the Light interface. A point light is a delta distribution:
// the probability density is a spike at the single direction toward the
// light, which we represent as 1.0 for that exact direction and 0.0
// everywhere else (matching the delta-light handling in path sampling, which
// never calls PDF for a direction it didn't just sample from Sample itself).
func (psl *PointSpotLight) PDF(point, normal, direction core.Vec3) float64 {
	toLightVec := psl.position.Subtract(point)
	distance := toLightVec.Length()
	if distance == 0 {
		return 0.0
	}
	expectedDirection := toLightVec.Multiply(1.0 / distance)
	if direction.Subtract(expectedDirection).Length() < 1e-6 {
		return 1.0
	}
	return 0.0
}

// SampleEmission implements the Light interface - samples an emission
// direction from the point within the spot cone for BDPT light subpaths.
func (psl *PointSpotLight) SampleEmission(samplePoint core.Vec2, sampleDirection core.Vec2) EmissionSample {
	cosThetaMax := psl.cosTotalWidth
	cosTheta := 1.0 - sampleDirection.X*(1.0-cosThetaMax)
	sinTheta := math.Sqrt(math.Max(0, 1.0-cosTheta*cosTheta))
	phi := 2.0 * math.Pi * sampleDirection.Y

	tangent, bitangent := core.CoordinateSystem(psl.direction)
	localDir := tangent.Multiply(sinTheta * math.Cos(phi)).
		Add(bitangent.Multiply(sinTheta * math.Sin(phi))).
		Add(psl.direction.Multiply(cosTheta))

	spotAttenuation := psl.falloff(cosTheta)
	directionPDF := 1.0 / (2.0 * math.Pi * (1.0 - cosThetaMax))

	return EmissionSample{
		Point:        psl.position,
		Normal:       psl.direction,
		Direction:    localDir,
		Emission:     psl.emission.Multiply(spotAttenuation),
		AreaPDF:      1.0,
		DirectionPDF: directionPDF,
	}
}

// EmissionPDF implements the Light interface. Point lights have no surface
// area, so the area-measure PDF collapses to 1 at the single valid point;
// BDPT vertex code treats an IsLight vertex with zero area as a delta
// position and skips the area-PDF term accordingly.
func (psl *PointSpotLight) EmissionPDF(point core.Vec3, direction core.Vec3) float64 {
	if point.Subtract(psl.position).Length() > 1e-6 {
		return 0.0
	}
	cosAngleToSpot := direction.Dot(psl.direction)
	if cosAngleToSpot < psl.cosTotalWidth {
		return 0.0
	}
	return 1.0
}

// Emit implements the Light interface - a point light has no surface so a
// camera or indirect ray can never hit it.
func (psl *PointSpotLight) Emit(ray core.Ray, hit *material.SurfaceInteraction) core.Vec3 {
	return core.Vec3{X: 0, Y: 0, Z: 0}
}

// GetIntensityAt returns the light intensity at a given point, useful for
// debugging and visualization.
func (psl *PointSpotLight) GetIntensityAt(point core.Vec3) core.Vec3 {
	toLightVec := psl.position.Subtract(point)
	distance := toLightVec.Length()
	if distance == 0 {
		return core.NewVec3(0, 0, 0)
	}

	lightToPoint := toLightVec.Multiply(-1.0 / distance)
	cosAngle := psl.direction.Dot(lightToPoint)
	spotAttenuation := psl.falloff(cosAngle)

	return psl.emission.Multiply(spotAttenuation / (distance * distance))
}
