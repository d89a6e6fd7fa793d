package medium

import (
	"math"

	"github.com/df07/go-progressive-raytracer/pkg/core"
)

// HomogeneousMedium is a participating volume with spatially constant
// absorption and scattering coefficients, such as fog or stained glass
// filling a closed shape. Grounded on
// original_source/sources/medium/homogeneous.cc.
type HomogeneousMedium struct {
	sigmaAbsorb  core.Spectrum
	sigmaScatter core.Spectrum
	sigmaExtinct core.Spectrum
	g            float64
}

// NewHomogeneousMedium scales sigmaAbsorb and sigmaScatter by scale (a
// convenience the original exposes so scene files can tune density without
// re-specifying both coefficients) and builds their sum as the extinction
// coefficient. g is the Henyey-Greenstein asymmetry the medium's in-scattered
// light is distributed by.
func NewHomogeneousMedium(sigmaAbsorb, sigmaScatter core.Spectrum, scale, g float64) *HomogeneousMedium {
	a := sigmaAbsorb.Multiply(scale)
	s := sigmaScatter.Multiply(scale)
	return &HomogeneousMedium{
		sigmaAbsorb:  a,
		sigmaScatter: s,
		sigmaExtinct: a.Add(s),
		g:            g,
	}
}

// Tr implements Medium by evaluating Beer-Lambert attenuation directly,
// with no stochastic component.
func (m *HomogeneousMedium) Tr(ray core.Ray, maxDistance float64, sampler core.Sampler) core.Spectrum {
	d := math.Min(maxDistance, math.MaxFloat64)
	return expSpectrum(m.sigmaExtinct.Multiply(-d))
}

// Sample implements Medium via single-scattering delta tracking: a spectral
// channel is picked at random, an exponentially distributed free-flight
// distance is drawn along it, and the sample is classified as a real
// scattering event or a pass-through depending on whether that distance
// falls short of maxDistance.
func (m *HomogeneousMedium) Sample(ray core.Ray, maxDistance float64, sampler core.Sampler) (*MediumInteraction, core.Spectrum) {
	channel := int(sampler.Get1D() * 3)
	if channel > 2 {
		channel = 2
	}
	sigmaTChannel := channelAt(m.sigmaExtinct, channel)

	var dist float64
	if sigmaTChannel > 0 {
		dist = -math.Log(1-sampler.Get1D()) / sigmaTChannel
	} else {
		dist = math.MaxFloat64
	}

	t := math.Min(dist, maxDistance)
	sampleMedium := t < maxDistance

	tr := expSpectrum(m.sigmaExtinct.Multiply(-t))

	density := tr
	if sampleMedium {
		density = m.sigmaExtinct.MultiplyVec(tr)
	}
	pdf := (density.X + density.Y + density.Z) / 3
	if pdf == 0 {
		return nil, core.Spectrum{}
	}

	if !sampleMedium {
		return nil, tr.Multiply(1 / pdf)
	}

	mi := &MediumInteraction{
		Point: ray.At(t),
		Wo:    ray.Direction.Multiply(-1),
		Phase: HenyeyGreenstein{G: m.g},
	}
	weight := tr.MultiplyVec(m.sigmaScatter).Multiply(1 / pdf)
	return mi, weight
}

// channelAt returns the spectral channel (0=R, 1=G, 2=B) of a Spectrum.
func channelAt(s core.Spectrum, channel int) float64 {
	switch channel {
	case 0:
		return s.X
	case 1:
		return s.Y
	default:
		return s.Z
	}
}
