package film

import (
	"math"
	"sync"

	"github.com/df07/go-progressive-raytracer/pkg/core"
)

// pixel accumulates a weighted sum of filtered samples landing on it,
// alongside the total weight that contributed, so the final color is their
// ratio.
type pixel struct {
	colorSum  core.Vec3
	weightSum float64
}

// Film reconstructs a final image from point samples taken at continuous
// positions, rather than a single fixed position per pixel. A sample near a
// pixel's edge contributes to its neighbors too, weighted by Filter - the
// same role original_source/sources/core/film.cc's Film::AddSample plays
// against its FilterTable.
type Film struct {
	width, height int
	filter        Filter

	mu     sync.Mutex
	pixels []pixel
}

// NewFilm creates a film of the given resolution, reconstructing with filter.
func NewFilm(width, height int, filter Filter) *Film {
	return &Film{width: width, height: height, filter: filter, pixels: make([]pixel, width*height)}
}

// AddSample splats color, sampled at continuous film position (px, py) in
// pixel units (pixel (x, y)'s center is at (x+0.5, y+0.5)), across every
// pixel within the filter's radius of that position.
func (f *Film) AddSample(px, py float64, color core.Vec3) {
	r := f.filter.Radius()
	x0 := clampInt(int(math.Ceil(px-0.5-r)), 0, f.width-1)
	x1 := clampInt(int(math.Floor(px-0.5+r)), 0, f.width-1)
	y0 := clampInt(int(math.Ceil(py-0.5-r)), 0, f.height-1)
	y1 := clampInt(int(math.Floor(py-0.5+r)), 0, f.height-1)
	if x0 > x1 || y0 > y1 {
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			dx := px - (float64(x) + 0.5)
			dy := py - (float64(y) + 0.5)
			weight := f.filter.Evaluate(dx, dy)
			if weight == 0 {
				continue
			}
			p := &f.pixels[y*f.width+x]
			p.colorSum = p.colorSum.Add(color.Multiply(weight))
			p.weightSum += weight
		}
	}
}

// GetColor returns pixel (x, y)'s reconstructed color, normalized by the
// total filter weight landed on it. Returns the zero color for a pixel no
// sample has reached yet.
func (f *Film) GetColor(x, y int) core.Vec3 {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := f.pixels[y*f.width+x]
	if p.weightSum <= 0 {
		return core.Vec3{}
	}
	return p.colorSum.Multiply(1 / p.weightSum)
}

// Filter returns the reconstruction filter this film was built with, so
// callers can importance-sample pixel offsets within its support.
func (f *Film) Filter() Filter {
	return f.filter
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
