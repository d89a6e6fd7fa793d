// Package sampler provides concrete core.Sampler implementations: a plain
// pseudo-random sampler and a stratified low-discrepancy sampler.
package sampler

import (
	"math/rand"

	"github.com/df07/go-progressive-raytracer/pkg/core"
)

// Independent draws every dimension from an independent pseudo-random
// stream, with no stratification across pixel samples. It's the simplest
// core.Sampler and the default for integrators that don't need the
// variance reduction a low-discrepancy sequence gives.
type Independent struct {
	rng *rand.Rand
}

// NewIndependent creates an Independent sampler seeded from seed.
func NewIndependent(seed int64) *Independent {
	return &Independent{rng: rand.New(rand.NewSource(seed))}
}

func (s *Independent) Get1D() float64 { return s.rng.Float64() }

func (s *Independent) Get2D() core.Vec2 {
	return core.Vec2{X: s.rng.Float64(), Y: s.rng.Float64()}
}

func (s *Independent) Get3D() core.Vec3 {
	return core.NewVec3(s.rng.Float64(), s.rng.Float64(), s.rng.Float64())
}

// StartPixel is a no-op: Independent carries no per-pixel state.
func (s *Independent) StartPixel(x, y int) {}

// StartNextSample always allows another sample.
func (s *Independent) StartNextSample() bool { return true }

// Clone returns an independent Independent sampler seeded from seed.
func (s *Independent) Clone(seed int64) core.Sampler {
	return NewIndependent(seed)
}
