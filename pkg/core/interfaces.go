package core

// Logger interface for raytracer logging
type Logger interface {
	Printf(format string, args ...interface{})
}

// Sampler supplies the pseudo-random or low-discrepancy numbers an
// integrator consumes while tracing one camera path. A Sampler instance is
// not safe for concurrent use; render workers each hold a Clone.
type Sampler interface {
	// Get1D returns the next 1D sample in [0, 1).
	Get1D() float64
	// Get2D returns the next 2D sample in [0, 1)^2.
	Get2D() Vec2
	// Get3D returns the next 3D sample in [0, 1)^3.
	Get3D() Vec3

	// StartPixel resets per-pixel sample state (stratification, sample index).
	StartPixel(x, y int)
	// StartNextSample advances to the next sample for the current pixel,
	// returning false once SamplesPerPixel samples have been taken.
	StartNextSample() bool

	// Clone returns an independent copy seeded deterministically from seed,
	// for handing an identical-but-independent stream to another worker.
	Clone(seed int64) Sampler
}
