package sampler

import (
	"math"
	"math/rand"

	"github.com/df07/go-progressive-raytracer/pkg/core"
)

// LowDiscrepancy stratifies the first nSampledDimensions Get1D/Get2D calls
// of every pixel using a (0,2)-sequence (van der Corput in 1D, Sobol in
// 2D), XOR-scrambled with a random value and shuffled once when the
// sampler is built; the same tables serve every pixel.
// Dimensions beyond nSampledDimensions, and all of Get3D, fall back to
// plain pseudo-random draws.
type LowDiscrepancy struct {
	samplesPerPixel    int
	nSampledDimensions int
	rng                *rand.Rand

	sample1D [][]float64
	sample2D [][]core.Vec2

	currentSampleIndex int
	currentSample1DDim int
	currentSample2DDim int
}

// NewLowDiscrepancy builds a low-discrepancy sampler that produces
// samplesPerPixel stratified samples per pixel across nSampledDimensions
// 1D and 2D dimensions, seeded from seed.
func NewLowDiscrepancy(samplesPerPixel, nSampledDimensions int, seed int64) *LowDiscrepancy {
	s := &LowDiscrepancy{
		samplesPerPixel:    samplesPerPixel,
		nSampledDimensions: nSampledDimensions,
		rng:                rand.New(rand.NewSource(seed)),
	}
	s.initializeSamples()
	return s
}

func (s *LowDiscrepancy) Get1D() float64 {
	if s.currentSample1DDim < s.nSampledDimensions {
		v := s.sample1D[s.currentSample1DDim][s.currentSampleIndex]
		s.currentSample1DDim++
		return v
	}
	return s.rng.Float64()
}

func (s *LowDiscrepancy) Get2D() core.Vec2 {
	if s.currentSample2DDim < s.nSampledDimensions {
		v := s.sample2D[s.currentSample2DDim][s.currentSampleIndex]
		s.currentSample2DDim++
		return v
	}
	return core.Vec2{X: s.rng.Float64(), Y: s.rng.Float64()}
}

func (s *LowDiscrepancy) Get3D() core.Vec3 {
	return core.NewVec3(s.rng.Float64(), s.rng.Float64(), s.rng.Float64())
}

// StartPixel resets the per-pixel sample index and dimension counters; the
// stratified sample tables themselves are shared across all pixels in this
// sampler's lifetime (matching the original (0,2)-sequence sampler).
func (s *LowDiscrepancy) StartPixel(x, y int) {
	s.currentSampleIndex = 0
	s.currentSample1DDim = 0
	s.currentSample2DDim = 0
}

func (s *LowDiscrepancy) StartNextSample() bool {
	s.currentSample1DDim = 0
	s.currentSample2DDim = 0
	s.currentSampleIndex++
	return s.currentSampleIndex < s.samplesPerPixel
}

// Clone returns an independent LowDiscrepancy sampler with the same shape
// (samplesPerPixel, nSampledDimensions) but a fresh seed and its own
// (0,2)-sequence tables.
func (s *LowDiscrepancy) Clone(seed int64) core.Sampler {
	return NewLowDiscrepancy(s.samplesPerPixel, s.nSampledDimensions, seed)
}

func (s *LowDiscrepancy) initializeSamples() {
	s.sample1D = make([][]float64, s.nSampledDimensions)
	for i := range s.sample1D {
		s.sample1D[i] = make([]float64, s.samplesPerPixel)
		vanDerCorput(1, s.samplesPerPixel, s.sample1D[i], s.rng)
	}

	s.sample2D = make([][]core.Vec2, s.nSampledDimensions)
	for i := range s.sample2D {
		s.sample2D[i] = make([]core.Vec2, s.samplesPerPixel)
		sobol2D(1, s.samplesPerPixel, s.sample2D[i], s.rng)
	}
}

// countTrailingZeros returns the number of trailing zero bits of i (i != 0).
func countTrailingZeros(i int) int {
	n := 0
	for i&1 == 0 {
		i >>= 1
		n++
	}
	return n
}

// grayCodeSample1D fills samples with a gray-code-scrambled van der Corput
// sequence of length len(samples), starting from the given 32-bit scramble.
func grayCodeSample1D(c []uint32, scramble uint32, samples []float64) {
	v := scramble
	for i := range samples {
		samples[i] = math.Min(float64(v)*0x1p-32, 1.0-1e-7)
		v ^= c[countTrailingZeros(i+1)]
	}
}

// grayCodeSample2D fills samples with a gray-code-scrambled Sobol sequence.
func grayCodeSample2D(c0, c1 []uint32, scrambleU, scrambleV uint32, samples []core.Vec2) {
	u, v := scrambleU, scrambleV
	for i := range samples {
		x := math.Min(float64(u)*0x1p-32, 1.0-1e-7)
		y := math.Min(float64(v)*0x1p-32, 1.0-1e-7)
		samples[i] = core.Vec2{X: x, Y: y}
		u ^= c0[countTrailingZeros(i+1)]
		v ^= c1[countTrailingZeros(i+1)]
	}
}

// shuffle1D performs a Fisher-Yates-style bucketed shuffle of samples in
// buckets of bucketSize, matching the original sampler's per-pixel-sample
// and whole-sequence decorrelation passes.
func shuffle1D(samples []float64, bucketSize int, rng *rand.Rand) {
	nBucket := len(samples) / bucketSize
	for i := 0; i < nBucket; i++ {
		r := i + rng.Intn(nBucket-i)
		for j := 0; j < bucketSize; j++ {
			a, b := i*bucketSize+j, r*bucketSize+j
			samples[a], samples[b] = samples[b], samples[a]
		}
	}
}

func shuffle2D(samples []core.Vec2, bucketSize int, rng *rand.Rand) {
	nBucket := len(samples) / bucketSize
	for i := 0; i < nBucket; i++ {
		r := i + rng.Intn(nBucket-i)
		for j := 0; j < bucketSize; j++ {
			a, b := i*bucketSize+j, r*bucketSize+j
			samples[a], samples[b] = samples[b], samples[a]
		}
	}
}

// vanDerCorputMatrix is the base-2 van der Corput generator matrix: column i
// is the bit-reversal permutation scrambled via gray code for dimension i.
var vanDerCorputMatrix = [32]uint32{
	0x80000000, 0x40000000, 0x20000000, 0x10000000,
	0x8000000, 0x4000000, 0x2000000, 0x1000000,
	0x800000, 0x400000, 0x200000, 0x100000,
	0x80000, 0x40000, 0x20000, 0x10000,
	0x8000, 0x4000, 0x2000, 0x1000,
	0x800, 0x400, 0x200, 0x100,
	0x80, 0x40, 0x20, 0x10,
	0x8, 0x4, 0x2, 0x1,
}

// sobolMatrix0/1 are the first two dimensions of the Sobol generator
// matrices used to build the 2D (0,2)-sequence.
var sobolMatrix0 = [32]uint32{
	0x80000000, 0x40000000, 0x20000000, 0x10000000,
	0x8000000, 0x4000000, 0x2000000, 0x1000000,
	0x800000, 0x400000, 0x200000, 0x100000,
	0x80000, 0x40000, 0x20000, 0x10000,
	0x8000, 0x4000, 0x2000, 0x1000,
	0x800, 0x400, 0x200, 0x100,
	0x80, 0x40, 0x20, 0x10,
	0x8, 0x4, 0x2, 0x1,
}

var sobolMatrix1 = [32]uint32{
	0x80000000, 0xc0000000, 0xa0000000, 0xf0000000,
	0x88000000, 0xcc000000, 0xaa000000, 0xff000000,
	0x80800000, 0xc0c00000, 0xa0a00000, 0xf0f00000,
	0x88880000, 0xcccc0000, 0xaaaa0000, 0xffff0000,
	0x80008000, 0xc000c000, 0xa000a000, 0xf000f000,
	0x88008800, 0xcc00cc00, 0xaa00aa00, 0xff00ff00,
	0x80808080, 0xc0c0c0c0, 0xa0a0a0a0, 0xf0f0f0f0,
	0x88888888, 0xcccccccc, 0xaaaaaaaa, 0xffffffff,
}

// vanDerCorput fills a 1D (0,2)-sequence of nSamplesPerPixel*nPixelSamples
// samples into samples, shuffled so each pixel's block is internally
// decorrelated as well as decorrelated from every other pixel's block.
func vanDerCorput(nSamplesPerPixel, nPixelSamples int, samples []float64, rng *rand.Rand) {
	scramble := rng.Uint32()
	total := nSamplesPerPixel * nPixelSamples
	grayCodeSample1D(vanDerCorputMatrix[:], scramble, samples[:total])
	for i := 0; i < nPixelSamples; i++ {
		shuffle1D(samples[i*nSamplesPerPixel:(i+1)*nSamplesPerPixel], 1, rng)
	}
	shuffle1D(samples[:total], nSamplesPerPixel, rng)
}

func sobol2D(nSamplesPerPixel, nPixelSamples int, samples []core.Vec2, rng *rand.Rand) {
	scrambleU, scrambleV := rng.Uint32(), rng.Uint32()
	total := nSamplesPerPixel * nPixelSamples
	grayCodeSample2D(sobolMatrix0[:], sobolMatrix1[:], scrambleU, scrambleV, samples[:total])
	for i := 0; i < nPixelSamples; i++ {
		shuffle2D(samples[i*nSamplesPerPixel:(i+1)*nSamplesPerPixel], 1, rng)
	}
	shuffle2D(samples[:total], nSamplesPerPixel, rng)
}
