package geometry

import (
	"math"

	"github.com/df07/go-progressive-raytracer/pkg/core"
)

// CameraConfig describes a thin-lens perspective camera. Zero-valued fields
// are "unset" for the purposes of MergeCameraConfig.
type CameraConfig struct {
	Center        core.Vec3 // Camera position
	LookAt        core.Vec3 // Point the camera looks toward
	Up            core.Vec3 // World up direction, used to build the camera basis
	Width         int       // Image width in pixels
	AspectRatio   float64   // Width / Height
	VFov          float64   // Vertical field of view, in degrees
	Aperture      float64   // Lens diameter; 0 gives a pinhole camera
	FocusDistance float64   // Distance to the plane of perfect focus; 0 auto-derives it from Center/LookAt
}

// MergeCameraConfig applies non-zero fields from override onto base, returning
// the result. Scene constructors use this so callers can tweak a handful of
// fields (say, Width for a thumbnail render) without restating the rest.
func MergeCameraConfig(base, override CameraConfig) CameraConfig {
	merged := base
	if !override.Center.IsZero() {
		merged.Center = override.Center
	}
	if !override.LookAt.IsZero() {
		merged.LookAt = override.LookAt
	}
	if !override.Up.IsZero() {
		merged.Up = override.Up
	}
	if override.Width != 0 {
		merged.Width = override.Width
	}
	if override.AspectRatio != 0 {
		merged.AspectRatio = override.AspectRatio
	}
	if override.VFov != 0 {
		merged.VFov = override.VFov
	}
	if override.Aperture != 0 {
		merged.Aperture = override.Aperture
	}
	if override.FocusDistance != 0 {
		merged.FocusDistance = override.FocusDistance
	}
	return merged
}

// Camera generates rays for rendering and, for bidirectional light transport,
// evaluates its own importance function so light subpaths can connect
// directly to the sensor (PBRT's "We" / camera-as-a-light formulation).
type Camera struct {
	config CameraConfig

	height int

	// Orthonormal basis: w points from LookAt toward Center (i.e. -forward),
	// u is "right", v is the camera's true up.
	u, v, w core.Vec3
	forward core.Vec3

	lowerLeftCorner core.Vec3
	horizontal      core.Vec3
	vertical        core.Vec3

	lensRadius    float64
	focusDistance float64

	viewportWidth  float64
	viewportHeight float64
}

// NewCamera builds a Camera from config.
func NewCamera(config CameraConfig) *Camera {
	height := int(float64(config.Width) / config.AspectRatio)
	if height < 1 {
		height = 1
	}

	w := config.Center.Subtract(config.LookAt).Normalize()
	u := config.Up.Cross(w).Normalize()
	v := w.Cross(u)
	forward := w.Multiply(-1)

	focusDistance := config.FocusDistance
	if focusDistance <= 0 {
		focusDistance = config.Center.Subtract(config.LookAt).Length()
		if focusDistance <= 0 {
			focusDistance = 1.0
		}
	}

	theta := config.VFov * math.Pi / 180
	viewportHeight := 2 * math.Tan(theta/2)
	viewportWidth := config.AspectRatio * viewportHeight

	horizontal := u.Multiply(viewportWidth * focusDistance)
	vertical := v.Multiply(viewportHeight * focusDistance)
	lowerLeftCorner := config.Center.
		Subtract(horizontal.Multiply(0.5)).
		Subtract(vertical.Multiply(0.5)).
		Subtract(w.Multiply(focusDistance))

	return &Camera{
		config:          config,
		height:          height,
		u:               u,
		v:               v,
		w:               w,
		forward:         forward,
		lowerLeftCorner: lowerLeftCorner,
		horizontal:      horizontal,
		vertical:        vertical,
		lensRadius:      config.Aperture / 2,
		focusDistance:   focusDistance,
		viewportWidth:   viewportWidth,
		viewportHeight:  viewportHeight,
	}
}

// GetCameraForward returns the normalized direction the camera looks toward.
func (c *Camera) GetCameraForward() core.Vec3 {
	return c.forward
}

// GetRay generates a ray through pixel (i, j), jittering the pixel position
// by pixelJitter (antialiasing) and the lens position by lensJitter (depth of
// field). i, j follow image convention: (0, 0) is the top-left pixel.
func (c *Camera) GetRay(i, j int, pixelJitter, lensJitter core.Vec2) core.Ray {
	s := (float64(i) + pixelJitter.X) / float64(maxInt(c.config.Width-1, 1))
	t := 1.0 - (float64(j)+pixelJitter.Y)/float64(maxInt(c.height-1, 1))

	origin := c.config.Center
	if c.lensRadius > 0 {
		disk := core.SampleConcentricDisk(lensJitter)
		offset := c.u.Multiply(disk.X * c.lensRadius).Add(c.v.Multiply(disk.Y * c.lensRadius))
		origin = origin.Add(offset)
	}

	target := c.lowerLeftCorner.Add(c.horizontal.Multiply(s)).Add(c.vertical.Multiply(t))
	direction := target.Subtract(origin)

	return core.NewRay(origin, direction.Normalize())
}

// imagePlanePoint decomposes a point that lies on the focal plane into (s, t)
// fractions of the viewport, where (0,0) is the lower-left corner.
func (c *Camera) imagePlanePoint(point core.Vec3) (s, t float64) {
	rel := point.Subtract(c.lowerLeftCorner)
	s = rel.Dot(c.horizontal) / c.horizontal.LengthSquared()
	t = rel.Dot(c.vertical) / c.vertical.LengthSquared()
	return s, t
}

// MapRayToPixel finds the pixel a ray from the camera's lens passes through
// by intersecting it with the focal plane. It reports ok=false for rays that
// point away from the scene or miss the image rectangle.
func (c *Camera) MapRayToPixel(ray core.Ray) (x, y int, ok bool) {
	direction := ray.Direction.Normalize()
	cosTheta := direction.Dot(c.forward)
	if cosTheta <= 1e-9 {
		return 0, 0, false
	}

	distAlongForward := ray.Origin.Subtract(c.config.Center).Dot(c.forward)
	tHit := (c.focusDistance - distAlongForward) / cosTheta
	if tHit <= 0 {
		return 0, 0, false
	}

	point := ray.Origin.Add(direction.Multiply(tHit))
	s, t := c.imagePlanePoint(point)
	if s < 0 || s > 1 || t < 0 || t > 1 {
		return 0, 0, false
	}

	x = int(math.Round(s * float64(maxInt(c.config.Width-1, 1))))
	y = int(math.Round((1 - t) * float64(maxInt(c.height-1, 1))))
	return x, y, true
}

// lensArea returns the area of the aperture, or 1 for a pinhole (delta) lens.
func (c *Camera) lensArea() float64 {
	if c.lensRadius <= 0 {
		return 1
	}
	return math.Pi * c.lensRadius * c.lensRadius
}

// imagePlaneArea returns the world-space area of the image rectangle at the
// focal plane.
func (c *Camera) imagePlaneArea() float64 {
	return c.viewportWidth * c.viewportHeight * c.focusDistance * c.focusDistance
}

// EvaluateRayImportance evaluates the camera's importance function We(ray),
// PBRT's "camera as a light" formulation: We = 1 / (A * lensArea * cos^4(theta)),
// zero outside the image rectangle or for rays pointing away from the scene.
func (c *Camera) EvaluateRayImportance(ray core.Ray) core.Vec3 {
	direction := ray.Direction.Normalize()
	cosTheta := direction.Dot(c.forward)
	if cosTheta <= 1e-9 {
		return core.Vec3{}
	}

	distAlongForward := ray.Origin.Subtract(c.config.Center).Dot(c.forward)
	tHit := (c.focusDistance - distAlongForward) / cosTheta
	if tHit <= 0 {
		return core.Vec3{}
	}

	point := ray.Origin.Add(direction.Multiply(tHit))
	s, t := c.imagePlanePoint(point)
	if s < 0 || s > 1 || t < 0 || t > 1 {
		return core.Vec3{}
	}

	cos2 := cosTheta * cosTheta
	we := 1.0 / (c.imagePlaneArea() * c.lensArea() * cos2 * cos2)
	return core.NewVec3(we, we, we)
}

// CalculateRayPDFs returns the pdf of having sampled ray's origin on the lens
// (area measure) and its direction (solid-angle measure), matching the
// density implied by GetRay's uniform pixel/lens sampling.
func (c *Camera) CalculateRayPDFs(ray core.Ray) (areaPDF, directionPDF float64) {
	direction := ray.Direction.Normalize()
	cosTheta := direction.Dot(c.forward)
	if cosTheta <= 1e-9 {
		return 0, 0
	}

	areaPDF = 1.0 / c.lensArea()
	cos3 := cosTheta * cosTheta * cosTheta
	directionPDF = 1.0 / (c.imagePlaneArea() * cos3)
	return areaPDF, directionPDF
}

// CameraSample is the result of sampling the camera lens from a reference
// point, used by bidirectional light transport to connect a light subpath
// vertex directly to the sensor (the "t=1" strategy).
type CameraSample struct {
	Ray    core.Ray  // Ray from the sampled lens point toward the reference point
	Normal core.Vec3 // Lens normal (the camera's forward direction)
	PDF    float64   // Pdf of sampling the lens point, in area measure
	Weight core.Vec3 // We(ray) evaluated for the sampled ray
}

// SampleCameraFromPoint samples a point on the camera's lens as seen from
// point, for connecting a light subpath vertex to the camera. Returns nil if
// point is behind the camera or outside its field of view.
func (c *Camera) SampleCameraFromPoint(point core.Vec3, sample core.Vec2) *CameraSample {
	lensOrigin := c.config.Center
	if c.lensRadius > 0 {
		disk := core.SampleConcentricDisk(sample)
		offset := c.u.Multiply(disk.X * c.lensRadius).Add(c.v.Multiply(disk.Y * c.lensRadius))
		lensOrigin = lensOrigin.Add(offset)
	}

	direction := point.Subtract(lensOrigin)
	if direction.Dot(c.forward) <= 0 {
		return nil
	}

	ray := core.NewRay(lensOrigin, direction.Normalize())
	we := c.EvaluateRayImportance(ray)
	if we.IsZero() {
		return nil
	}

	return &CameraSample{
		Ray:    ray,
		Normal: c.forward,
		PDF:    1.0 / c.lensArea(),
		Weight: we,
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
