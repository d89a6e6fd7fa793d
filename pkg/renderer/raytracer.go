package renderer

import (
	"image"
	"image/color"

	"github.com/df07/go-progressive-raytracer/pkg/core"
	"github.com/df07/go-progressive-raytracer/pkg/film"
	"github.com/df07/go-progressive-raytracer/pkg/integrator"
	"github.com/df07/go-progressive-raytracer/pkg/scene"
)

// Raytracer drives a TileRenderer over a region of the image plane. Each
// worker in a pool owns its own Raytracer with its own copy of
// SamplingConfig, so MergeSamplingConfig on one worker (bumping
// SamplesPerPixel between progressive passes) never races another worker's
// in-flight tile.
type Raytracer struct {
	scene          *scene.Scene
	tileRenderer   *TileRenderer
	samplingConfig scene.SamplingConfig
}

// NewRaytracer creates a raytracer for the given scene and integrator. Any
// BDPT t=1 light-tracing contributions discovered while rendering are pushed
// into splatQueue, and every filtered sample is splatted into filmInst; both
// are shared across every Raytracer rendering the same pass.
func NewRaytracer(sc *scene.Scene, integ integrator.Integrator, splatQueue *SplatQueue, filmInst *film.Film) *Raytracer {
	return &Raytracer{
		scene:          sc,
		tileRenderer:   NewTileRenderer(sc, integ, splatQueue, filmInst),
		samplingConfig: sc.SamplingConfig,
	}
}

// MergeSamplingConfig applies the non-zero fields of override onto this
// raytracer's own SamplingConfig copy.
func (rt *Raytracer) MergeSamplingConfig(override scene.SamplingConfig) {
	rt.samplingConfig = scene.MergeSamplingConfig(rt.samplingConfig, override)
}

// RenderBounds renders the pixels within bounds into the shared pixelStats
// array using sampler as the source of randomness.
func (rt *Raytracer) RenderBounds(bounds image.Rectangle, pixelStats [][]PixelStats, sampler core.Sampler) RenderStats {
	return rt.tileRenderer.RenderTileBounds(bounds, pixelStats, sampler, rt.samplingConfig.SamplesPerPixel, rt.samplingConfig)
}

// vec3ToColor converts a Vec3 color to RGBA with proper clamping and gamma correction
func (rt *Raytracer) vec3ToColor(colorVec core.Vec3) color.RGBA {
	// Apply gamma correction (gamma = 2.0)
	colorVec = colorVec.GammaCorrect(2.0)

	// Clamp to valid color range
	colorVec = colorVec.Clamp(0.0, 1.0)

	return color.RGBA{
		R: uint8(255 * colorVec.X),
		G: uint8(255 * colorVec.Y),
		B: uint8(255 * colorVec.Z),
		A: 255,
	}
}
