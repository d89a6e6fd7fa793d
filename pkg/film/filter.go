// Package film reconstructs a final image from scattered point samples,
// splatting each one across every pixel its reconstruction filter reaches
// rather than assigning it solely to the pixel it was aimed at.
package film

import "math"

// Filter weights how much a sample contributes to a pixel based on the
// sample's offset from that pixel's center, in pixel units. Grounded on
// original_source/sources/filters/{box.cc,triangle.cc,gaussian.cc}.
type Filter interface {
	// Evaluate returns the filter's weight at offset (dx, dy) from a pixel's
	// center. Callers must stay within [-Radius(), Radius()] on both axes.
	Evaluate(dx, dy float64) float64
	// Radius reports the half-width beyond which the filter contributes
	// nothing, the same on both axes.
	Radius() float64
}

// BoxFilter weights every sample within half a pixel equally: the
// reconstruction kernel a renderer with no explicit filtering uses
// implicitly.
type BoxFilter struct{}

// NewBoxFilter creates a box filter with the standard half-pixel radius.
func NewBoxFilter() BoxFilter { return BoxFilter{} }

func (f BoxFilter) Evaluate(dx, dy float64) float64 { return 1 }
func (f BoxFilter) Radius() float64                 { return 0.5 }

// TentFilter weights samples linearly by distance from the pixel center,
// reaching zero at radius - a cheap way to soften aliasing relative to the
// box filter without a Gaussian's cost.
type TentFilter struct {
	radius float64
}

// NewTentFilter creates a tent filter with the given radius.
func NewTentFilter(radius float64) TentFilter { return TentFilter{radius: radius} }

func (f TentFilter) Evaluate(dx, dy float64) float64 {
	wx := math.Max(0, f.radius-math.Abs(dx))
	wy := math.Max(0, f.radius-math.Abs(dy))
	return wx * wy
}
func (f TentFilter) Radius() float64 { return f.radius }

// GaussianFilter is a windowed Gaussian: a Gaussian lobe with its value at
// the filter's radius subtracted off so the kernel reaches exactly zero at
// its edge instead of cutting off abruptly.
type GaussianFilter struct {
	radius, alpha, exp float64
}

// NewGaussianFilter creates a Gaussian filter with the given radius and
// falloff rate alpha.
func NewGaussianFilter(radius, alpha float64) GaussianFilter {
	return GaussianFilter{radius: radius, alpha: alpha, exp: math.Exp(-alpha * radius * radius)}
}

func (f GaussianFilter) gaussian(d float64) float64 {
	return math.Max(0, math.Exp(-f.alpha*d*d)-f.exp)
}

func (f GaussianFilter) Evaluate(dx, dy float64) float64 {
	return f.gaussian(dx) * f.gaussian(dy)
}
func (f GaussianFilter) Radius() float64 { return f.radius }
