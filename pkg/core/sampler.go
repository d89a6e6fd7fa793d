package core

import "math/rand"

// RandomSampler is the simplest Sampler: every Get*D draws fresh pseudo-random
// numbers with no stratification. It lives in core (rather than pkg/sampler)
// because core.Ray/core.Vec3 construction code and tests need a Sampler
// without depending on the higher-level sampler package.
type RandomSampler struct {
	rng *rand.Rand
}

// NewRandomSampler wraps an existing *rand.Rand as a Sampler.
func NewRandomSampler(rng *rand.Rand) *RandomSampler {
	return &RandomSampler{rng: rng}
}

func (s *RandomSampler) Get1D() float64 { return s.rng.Float64() }

func (s *RandomSampler) Get2D() Vec2 {
	return Vec2{X: s.rng.Float64(), Y: s.rng.Float64()}
}

func (s *RandomSampler) Get3D() Vec3 {
	return Vec3{X: s.rng.Float64(), Y: s.rng.Float64(), Z: s.rng.Float64()}
}

// StartPixel is a no-op: RandomSampler carries no per-pixel state.
func (s *RandomSampler) StartPixel(x, y int) {}

// StartNextSample always allows another sample; callers that want a fixed
// sample count track it themselves (used by the adaptive tile renderer).
func (s *RandomSampler) StartNextSample() bool { return true }

// Clone returns an independent RandomSampler seeded deterministically from seed.
func (s *RandomSampler) Clone(seed int64) Sampler {
	return NewRandomSampler(rand.New(rand.NewSource(seed)))
}
