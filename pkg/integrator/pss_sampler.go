package integrator

import (
	"math"
	"math/rand"

	"github.com/df07/go-progressive-raytracer/pkg/core"
)

// pssSampler implements core.Sampler over primary sample space: a recorded
// stream of [0,1) coordinates that a Metropolis chain can replay verbatim,
// perturb by a small local step, or redraw entirely with a large step.
// Grounded on original_source/sources/integrators/pssmlt/pssmlt.cc and
// integrators/mmlt/mmlt.h's PSSSampler, which both integrators reuse.
type pssSampler struct {
	values []float64
	idx    int
	rng    *rand.Rand
}

func newPSSSampler(rng *rand.Rand) *pssSampler {
	return &pssSampler{rng: rng}
}

// next returns the next coordinate in the stream, drawing and recording a
// fresh uniform value the first time a position is visited.
func (s *pssSampler) next() float64 {
	if s.idx < len(s.values) {
		v := s.values[s.idx]
		s.idx++
		return v
	}
	v := s.rng.Float64()
	s.values = append(s.values, v)
	s.idx++
	return v
}

func (s *pssSampler) Get1D() float64 { return s.next() }

func (s *pssSampler) Get2D() core.Vec2 {
	return core.Vec2{X: s.next(), Y: s.next()}
}

func (s *pssSampler) Get3D() core.Vec3 {
	return core.Vec3{X: s.next(), Y: s.next(), Z: s.next()}
}

// StartPixel is a no-op: primary sample space carries no raster position.
func (s *pssSampler) StartPixel(x, y int) {}

// StartNextSample rewinds the stream so a fresh replay reuses the recorded
// coordinates from the start instead of appending past them.
func (s *pssSampler) StartNextSample() bool {
	s.idx = 0
	return true
}

// Clone returns an independent chain seeded deterministically from seed.
func (s *pssSampler) Clone(seed int64) core.Sampler {
	return newPSSSampler(rand.New(rand.NewSource(seed)))
}

// snapshot copies the current coordinate stream, to save as a chain state or
// as a mutation's starting point.
func (s *pssSampler) snapshot() []float64 {
	out := make([]float64, len(s.values))
	copy(out, s.values)
	return out
}

// replay replaces the stream with values and rewinds to the start, so the
// next trace regenerates the same path the stream was recorded from.
func (s *pssSampler) replay(values []float64) {
	s.values = append([]float64(nil), values...)
	s.idx = 0
}

// mutate proposes a new state from the current stream: with probability
// pLarge it redraws every coordinate (an independent "large step" that
// escapes local modes), otherwise it perturbs each coordinate by a small
// wrapped offset (a "small step" local exploration), matching pssmlt.cc's
// mixture of large and small mutations.
func (s *pssSampler) mutate(sigma, pLarge float64) {
	if len(s.values) == 0 || s.rng.Float64() < pLarge {
		for i := range s.values {
			s.values[i] = s.rng.Float64()
		}
		s.idx = 0
		return
	}

	for i := range s.values {
		v := s.values[i] + sigma*(2*s.rng.Float64()-1)
		v -= math.Floor(v)
		s.values[i] = v
	}
	s.idx = 0
}
