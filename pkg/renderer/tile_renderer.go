package renderer

import (
	"image"
	"math"

	"github.com/df07/go-progressive-raytracer/pkg/core"
	"github.com/df07/go-progressive-raytracer/pkg/film"
	"github.com/df07/go-progressive-raytracer/pkg/geometry"
	"github.com/df07/go-progressive-raytracer/pkg/integrator"
	"github.com/df07/go-progressive-raytracer/pkg/scene"
)

// TileRenderer handles the actual rendering of individual tiles using an integrator
type TileRenderer struct {
	scene      *scene.Scene
	integrator integrator.Integrator
	splatQueue *SplatQueue // shared across all tiles/workers for this render
	film       *film.Film  // shared reconstruction buffer for this render
}

// NewTileRenderer creates a new tile renderer with the given scene and integrator.
// splatQueue and filmInst are shared by every TileRenderer/worker rendering the same
// pass, since a BDPT t=1 connection or a filtered sample near a tile's edge can land
// on a pixel outside the tile currently being traced.
func NewTileRenderer(sc *scene.Scene, integratorInst integrator.Integrator, splatQueue *SplatQueue, filmInst *film.Film) *TileRenderer {
	return &TileRenderer{
		scene:      sc,
		integrator: integratorInst,
		splatQueue: splatQueue,
		film:       filmInst,
	}
}

// RenderTileBounds renders pixels within the specified bounds using the integrator
func (tr *TileRenderer) RenderTileBounds(bounds image.Rectangle, pixelStats [][]PixelStats, sampler core.Sampler, targetSamples int, samplingConfig scene.SamplingConfig) RenderStats {
	camera := tr.scene.Camera

	// Initialize statistics tracking for this specific bounds
	stats := tr.initRenderStatsForBounds(bounds, targetSamples)

	for j := bounds.Min.Y; j < bounds.Max.Y; j++ {
		for i := bounds.Min.X; i < bounds.Max.X; i++ {
			sampler.StartPixel(i, j)
			samplesUsed := tr.adaptiveSamplePixelWithIntegrator(camera, i, j, &pixelStats[j][i], sampler, targetSamples, samplingConfig)
			tr.updateStats(&stats, samplesUsed)
		}
	}

	// Finalize statistics
	tr.finalizeStats(&stats)
	return stats
}

// adaptiveSamplePixelWithIntegrator uses adaptive sampling with the integrator
func (tr *TileRenderer) adaptiveSamplePixelWithIntegrator(camera *geometry.Camera, i, j int, ps *PixelStats, sampler core.Sampler, maxSamples int, samplingConfig scene.SamplingConfig) int {
	initialSampleCount := ps.SampleCount

	filter := tr.film.Filter()
	radius := filter.Radius()

	// Take samples until we reach convergence or max samples
	for ps.SampleCount < maxSamples && !tr.shouldStopSampling(ps, maxSamples, samplingConfig) {
		filterSample := sampler.Get2D()
		pixelJitter := core.Vec2{
			X: 0.5 + (filterSample.X*2-1)*radius,
			Y: 0.5 + (filterSample.Y*2-1)*radius,
		}
		lensJitter := sampler.Get2D()
		ray := camera.GetRay(i, j, pixelJitter, lensJitter)

		// Use integrator to compute color plus any BDPT t=1 splats
		color, splats := tr.integrator.RayColor(ray, tr.scene, sampler)
		ps.AddSample(color)
		tr.film.AddSample(float64(i)+pixelJitter.X, float64(j)+pixelJitter.Y, color)

		for _, splat := range splats {
			if x, y, ok := camera.MapRayToPixel(splat.Ray); ok {
				tr.splatQueue.AddSplat(x, y, splat.Color)
			}
		}

		sampler.StartNextSample()
	}

	return ps.SampleCount - initialSampleCount
}

// shouldStopSampling determines if adaptive sampling should stop based on perceptual relative error
func (tr *TileRenderer) shouldStopSampling(ps *PixelStats, maxSamples int, samplingConfig scene.SamplingConfig) bool {
	// Calculate minimum samples as percentage of max samples, but ensure at least 1 sample
	minSamples := max(1, int(float64(maxSamples)*samplingConfig.AdaptiveMinSamples))

	// Don't stop before minimum samples
	if ps.SampleCount < minSamples {
		return false
	}

	// Calculate variance from accumulated statistics
	mean := ps.LuminanceAccum / float64(ps.SampleCount)
	meanSq := ps.LuminanceSqAccum / float64(ps.SampleCount)
	variance := math.Max(0, meanSq-mean*mean)

	// Avoid division by zero for black pixels
	if mean <= 1e-8 {
		return variance < 1e-6 // Hardcoded epsilon for dark pixels
	}

	// Calculate coefficient of variation (relative error)
	relativeError := math.Sqrt(variance) / mean

	// Stop when relative error is below configured threshold
	return relativeError < samplingConfig.AdaptiveThreshold
}

// initRenderStatsForBounds initializes the render statistics tracking for specific bounds
func (tr *TileRenderer) initRenderStatsForBounds(bounds image.Rectangle, maxSamples int) RenderStats {
	pixelCount := bounds.Dx() * bounds.Dy()
	return RenderStats{
		TotalPixels:    pixelCount,
		TotalSamples:   0,
		AverageSamples: 0,
		MaxSamples:     maxSamples,
		MinSamples:     maxSamples, // Start with max, will be reduced
		MaxSamplesUsed: 0,
	}
}

// updateStats updates the render statistics with data from a single pixel
func (tr *TileRenderer) updateStats(stats *RenderStats, samplesUsed int) {
	stats.TotalSamples += samplesUsed
	stats.MinSamples = min(stats.MinSamples, samplesUsed)
	stats.MaxSamplesUsed = max(stats.MaxSamplesUsed, samplesUsed)
}

// finalizeStats calculates final statistics after all pixels are rendered
func (tr *TileRenderer) finalizeStats(stats *RenderStats) {
	stats.AverageSamples = float64(stats.TotalSamples) / float64(stats.TotalPixels)
}
