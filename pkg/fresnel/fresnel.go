// Package fresnel implements the Fresnel reflectance terms used by specular
// and microfacet BxDFs: the dielectric (glass/water) and conductor (metal)
// equations, plus a no-op fresnel for materials that reflect uniformly.
package fresnel

import (
	"math"

	"github.com/df07/go-progressive-raytracer/pkg/core"
)

// Fresnel evaluates the fraction of light reflected at a surface for a given
// angle of incidence.
type Fresnel interface {
	Evaluate(cosThetaI float64) core.Vec3
}

// Dielectric is the Fresnel term for a boundary between two dielectrics
// (e.g. air/glass). EtaI and EtaT are the indices of refraction on the
// incident and transmitted side.
type Dielectric struct {
	EtaI, EtaT float64
}

// Evaluate returns the reflectance for the given cosine of the incident angle.
func (d Dielectric) Evaluate(cosThetaI float64) core.Vec3 {
	r := FrDielectric(cosThetaI, d.EtaI, d.EtaT)
	return core.NewVec3(r, r, r)
}

// Conductor is the Fresnel term for a boundary with a conductor (metal),
// parameterized by complex index of refraction eta + i*k per channel.
type Conductor struct {
	EtaI, EtaT, K core.Vec3
}

// Evaluate returns the per-channel reflectance for the given cosine of the
// incident angle.
func (c Conductor) Evaluate(cosThetaI float64) core.Vec3 {
	return FrConductor(math.Abs(cosThetaI), c.EtaI, c.EtaT, c.K)
}

// NoOp always returns full reflectance; used by specular-reflection BxDFs
// that model a perfect mirror with no angular falloff (e.g. the reflective
// half of FresnelSpecular where the caller applies the real term itself).
type NoOp struct{}

// Evaluate always returns 1.
func (NoOp) Evaluate(cosThetaI float64) core.Vec3 {
	return core.NewVec3(1, 1, 1)
}

// FrDielectric computes the unpolarized Fresnel reflectance of a dielectric
// interface for incident cosine cosThetaI and indices of refraction etaI/etaT.
func FrDielectric(cosThetaI, etaI, etaT float64) float64 {
	cosThetaI = core.Clamp(cosThetaI, -1, 1)

	entering := cosThetaI > 0
	if !entering {
		etaI, etaT = etaT, etaI
		cosThetaI = math.Abs(cosThetaI)
	}

	sinThetaI := math.Sqrt(math.Max(0, 1-cosThetaI*cosThetaI))
	sinThetaT := etaI / etaT * sinThetaI
	if sinThetaT >= 1 {
		return 1 // total internal reflection
	}

	cosThetaT := math.Sqrt(math.Max(0, 1-sinThetaT*sinThetaT))
	rParallel := ((etaT * cosThetaI) - (etaI * cosThetaT)) / ((etaT * cosThetaI) + (etaI * cosThetaT))
	rPerp := ((etaI * cosThetaI) - (etaT * cosThetaT)) / ((etaI * cosThetaI) + (etaT * cosThetaT))
	return (rParallel*rParallel + rPerp*rPerp) / 2
}

// FrConductor computes the Fresnel reflectance of a conductor (metal)
// interface per color channel, given the complex index of refraction
// etaT + i*k relative to the incident medium etaI.
func FrConductor(cosThetaI float64, etaI, etaT, k core.Vec3) core.Vec3 {
	cosThetaI = core.Clamp(cosThetaI, -1, 1)

	eta := divVec(etaT, etaI)
	etaK := divVec(k, etaI)

	cosThetaI2 := cosThetaI * cosThetaI
	sinThetaI2 := 1 - cosThetaI2
	eta2 := mulVec(eta, eta)
	etaK2 := mulVec(etaK, etaK)

	t0 := eta2.Subtract(etaK2).Subtract(core.NewVec3(sinThetaI2, sinThetaI2, sinThetaI2))
	a2plusb2 := sqrtVec(addVec(mulVec(t0, t0), mulVec(eta2, etaK2).Multiply(4)))
	t1 := a2plusb2.Add(core.NewVec3(cosThetaI2, cosThetaI2, cosThetaI2))
	a := sqrtVec(addVec(a2plusb2, t0).Multiply(0.5))
	t2 := a.Multiply(2 * cosThetaI)
	rs := t1.Subtract(t2).DivideVec(t1.Add(t2))

	t3 := a2plusb2.Multiply(cosThetaI2).Add(core.NewVec3(sinThetaI2*sinThetaI2, sinThetaI2*sinThetaI2, sinThetaI2*sinThetaI2))
	t4 := t2.Multiply(sinThetaI2)
	rp := rs.MultiplyVec(t3.Subtract(t4)).DivideVec(t3.Add(t4))

	return rp.Add(rs).Multiply(0.5)
}

func mulVec(a, b core.Vec3) core.Vec3 { return a.MultiplyVec(b) }
func addVec(a, b core.Vec3) core.Vec3 { return a.Add(b) }
func divVec(a, b core.Vec3) core.Vec3 {
	return core.NewVec3(a.X/b.X, a.Y/b.Y, a.Z/b.Z)
}
func sqrtVec(a core.Vec3) core.Vec3 {
	return core.NewVec3(math.Sqrt(math.Max(0, a.X)), math.Sqrt(math.Max(0, a.Y)), math.Sqrt(math.Max(0, a.Z)))
}

// SchlickReflectance approximates dielectric reflectance without the full
// Fresnel equations; kept for the materials that were already written
// against it (cheap, angle-dependent specular highlight on glass/coatings).
func SchlickReflectance(cosine, refractionRatio float64) float64 {
	r0 := (1 - refractionRatio) / (1 + refractionRatio)
	r0 = r0 * r0
	return r0 + (1-r0)*math.Pow(1-cosine, 5)
}

// FresnelMoment1 is the first moment of the Fresnel reflectance, used by the
// separable BSSRDF to compute the diffuse Fresnel reflectance/transmittance
// of a dielectric boundary (polynomial fit from Habel et al. / d'Eon & Irving).
func FresnelMoment1(eta float64) float64 {
	eta2 := eta * eta
	eta3 := eta2 * eta
	eta4 := eta3 * eta
	eta5 := eta4 * eta
	if eta < 1 {
		return 0.45966 - 1.73965*eta + 3.37668*eta2 - 3.904945*eta3 + 2.49277*eta4 - 0.68441*eta5
	}
	return -4.61686 + 11.1136*eta - 10.4646*eta2 + 5.11455*eta3 - 1.27198*eta4 + 0.12746*eta5
}

// FresnelMoment2 is the second moment of the Fresnel reflectance, used
// alongside FresnelMoment1 in the BSSRDF's diffusion-approximation normalization.
func FresnelMoment2(eta float64) float64 {
	eta2 := eta * eta
	eta3 := eta2 * eta
	eta4 := eta3 * eta
	eta5 := eta4 * eta
	if eta < 1 {
		return 0.27614 - 0.87350*eta + 1.12077*eta2 - 1.36053*eta3 + 0.30963*eta4 - 0.04597*eta5
	}
	r1 := -547.033 + 45.3087/(eta3) - 218.725/eta2 + 458.843/eta + 404.557*eta - 189.519*eta2
	r2 := 54.9327*eta3 - 9.00603*eta4 + 0.63942*eta5
	return r1 + r2
}
