// Package bxdf implements local-frame bidirectional scattering distribution
// functions (BxDFs) and the BSDF that composites several of them at a
// surface point. All directions passed to an individual BxDF are in the
// local shading frame, where the shading normal is (0, 0, 1); the BSDF
// type handles the world<->local transform.
package bxdf

import (
	"math"

	"github.com/df07/go-progressive-raytracer/pkg/core"
	"github.com/df07/go-progressive-raytracer/pkg/fresnel"
	"github.com/df07/go-progressive-raytracer/pkg/microfacet"
)

// Type is a bitmask classifying a BxDF's behavior.
type Type int

const (
	Reflection Type = 1 << iota
	Transmission
	Diffuse
	Glossy
	Specular
	All = Reflection | Transmission | Diffuse | Glossy | Specular
)

func (t Type) Has(other Type) bool { return t&other != 0 }

func cosTheta(w core.Vec3) float64    { return w.Z }
func absCosTheta(w core.Vec3) float64 { return math.Abs(w.Z) }
func sameHemisphere(a, b core.Vec3) bool { return a.Z*b.Z > 0 }

// BxDF is a single scattering term (diffuse, specular reflection, a
// microfacet lobe, ...).
type BxDF interface {
	Type() Type
	// F evaluates the distribution for a pair of local-frame directions.
	F(wo, wi core.Vec3) core.Spectrum
	// Sample draws an incident direction wi given outgoing wo and a 2D
	// sample, returning the value, the direction, and its pdf.
	Sample(wo core.Vec3, u core.Vec2) (f core.Spectrum, wi core.Vec3, pdf float64)
	// Pdf returns the probability density of sampling wi via Sample.
	Pdf(wo, wi core.Vec3) float64
}

// cosineSampleHemisphere is shared by the Lambertian BxDFs' Sample methods:
// it draws wi from a cosine-weighted hemisphere around +z, and each caller
// flips wi.Z onto the side it needs.
func cosineSampleHemisphere(u core.Vec2) core.Vec3 {
	d := core.SampleConcentricDisk(u)
	z := math.Sqrt(math.Max(0, 1-d.X*d.X-d.Y*d.Y))
	return core.NewVec3(d.X, d.Y, z)
}

func cosineHemispherePdf(absCosTheta float64) float64 { return absCosTheta / math.Pi }

// --- Lambertian reflection/transmission -------------------------------------

// LambertianReflection is a perfectly diffuse reflective term.
type LambertianReflection struct {
	R core.Spectrum
}

func (b LambertianReflection) Type() Type { return Reflection | Diffuse }

func (b LambertianReflection) F(wo, wi core.Vec3) core.Spectrum {
	return b.R.Multiply(1 / math.Pi)
}

func (b LambertianReflection) Sample(wo core.Vec3, u core.Vec2) (core.Spectrum, core.Vec3, float64) {
	wi := cosineSampleHemisphere(u)
	if wo.Z < 0 {
		wi.Z *= -1
	}
	return b.F(wo, wi), wi, b.Pdf(wo, wi)
}

func (b LambertianReflection) Pdf(wo, wi core.Vec3) float64 {
	if !sameHemisphere(wo, wi) {
		return 0
	}
	return cosineHemispherePdf(absCosTheta(wi))
}

// LambertianTransmission is a perfectly diffuse transmissive term, used by
// thin translucent materials.
type LambertianTransmission struct {
	T core.Spectrum
}

func (b LambertianTransmission) Type() Type { return Transmission | Diffuse }

func (b LambertianTransmission) F(wo, wi core.Vec3) core.Spectrum {
	return b.T.Multiply(1 / math.Pi)
}

func (b LambertianTransmission) Sample(wo core.Vec3, u core.Vec2) (core.Spectrum, core.Vec3, float64) {
	wi := cosineSampleHemisphere(u)
	if wo.Z > 0 {
		wi.Z *= -1
	}
	return b.F(wo, wi), wi, b.Pdf(wo, wi)
}

func (b LambertianTransmission) Pdf(wo, wi core.Vec3) float64 {
	if sameHemisphere(wo, wi) {
		return 0
	}
	return cosineHemispherePdf(absCosTheta(wi))
}

// --- Specular reflection/transmission ---------------------------------------

// SpecularReflection is a perfect mirror weighted by a Fresnel term.
type SpecularReflection struct {
	R       core.Spectrum
	Fresnel fresnel.Fresnel
}

func (b SpecularReflection) Type() Type { return Reflection | Specular }

func (b SpecularReflection) F(wo, wi core.Vec3) core.Spectrum { return core.Vec3{} }
func (b SpecularReflection) Pdf(wo, wi core.Vec3) float64     { return 0 }

func (b SpecularReflection) Sample(wo core.Vec3, u core.Vec2) (core.Spectrum, core.Vec3, float64) {
	wi := core.NewVec3(-wo.X, -wo.Y, wo.Z)
	pdf := 1.0
	fr := b.Fresnel.Evaluate(cosTheta(wi))
	return fr.MultiplyVec(b.R).Multiply(1 / absCosTheta(wi)), wi, pdf
}

// SpecularTransmission is perfect refraction through a dielectric boundary
// with indices of refraction etaA (outside) / etaB (inside).
type SpecularTransmission struct {
	T          core.Spectrum
	EtaA, EtaB float64
	Mode       int // 0 = radiance, 1 = importance; matches material.TransportMode
}

func (b SpecularTransmission) Type() Type { return Transmission | Specular }

func (b SpecularTransmission) F(wo, wi core.Vec3) core.Spectrum { return core.Vec3{} }
func (b SpecularTransmission) Pdf(wo, wi core.Vec3) float64     { return 0 }

func (b SpecularTransmission) Sample(wo core.Vec3, u core.Vec2) (core.Spectrum, core.Vec3, float64) {
	entering := cosTheta(wo) > 0
	etaI, etaT := b.EtaA, b.EtaB
	if !entering {
		etaI, etaT = b.EtaB, b.EtaA
	}

	n := core.NewVec3(0, 0, 1)
	if !entering {
		n = n.Negate()
	}
	wi, ok := refract(wo, n, etaI/etaT)
	if !ok {
		return core.Vec3{}, core.Vec3{}, 0
	}

	ft := core.NewVec3(1, 1, 1).Subtract(fresnel.Dielectric{EtaI: etaI, EtaT: etaT}.Evaluate(cosTheta(wi)))
	ft = ft.MultiplyVec(b.T)

	if b.Mode == 0 {
		ft = ft.Multiply((etaI * etaI) / (etaT * etaT))
	}
	return ft.Multiply(1 / absCosTheta(wi)), wi, 1.0
}

func refract(wi, n core.Vec3, eta float64) (core.Vec3, bool) {
	cosThetaI := n.Dot(wi)
	sin2ThetaI := math.Max(0, 1-cosThetaI*cosThetaI)
	sin2ThetaT := eta * eta * sin2ThetaI
	if sin2ThetaT >= 1 {
		return core.Vec3{}, false
	}
	cosThetaT := math.Sqrt(1 - sin2ThetaT)
	wt := wi.Negate().Multiply(eta).Add(n.Multiply(eta*cosThetaI - cosThetaT))
	return wt, true
}

// FresnelSpecular combines specular reflection and transmission, choosing
// between them stochastically with probability proportional to the Fresnel
// reflectance. This is the standard glass BxDF.
type FresnelSpecular struct {
	R, T       core.Spectrum
	EtaA, EtaB float64
	Mode       int
}

func (b FresnelSpecular) Type() Type { return Reflection | Transmission | Specular }

func (b FresnelSpecular) F(wo, wi core.Vec3) core.Spectrum { return core.Vec3{} }
func (b FresnelSpecular) Pdf(wo, wi core.Vec3) float64     { return 0 }

func (b FresnelSpecular) Sample(wo core.Vec3, u core.Vec2) (core.Spectrum, core.Vec3, float64) {
	fr := fresnel.FrDielectric(cosTheta(wo), b.EtaA, b.EtaB)
	if u.X < fr {
		wi := core.NewVec3(-wo.X, -wo.Y, wo.Z)
		pdf := fr
		return b.R.Multiply(fr / absCosTheta(wi)), wi, pdf
	}

	entering := cosTheta(wo) > 0
	etaI, etaT := b.EtaA, b.EtaB
	if !entering {
		etaI, etaT = b.EtaB, b.EtaA
	}
	n := core.NewVec3(0, 0, 1)
	if !entering {
		n = n.Negate()
	}
	wi, ok := refract(wo, n, etaI/etaT)
	if !ok {
		return core.Vec3{}, core.Vec3{}, 0
	}

	ft := b.T.Multiply(1 - fr)
	if b.Mode == 0 {
		ft = ft.Multiply((etaI * etaI) / (etaT * etaT))
	}
	pdf := 1 - fr
	return ft.Multiply(1 / absCosTheta(wi)), wi, pdf
}

// --- Microfacet reflection/transmission -------------------------------------

// MicrofacetReflection is a rough-conductor/rough-dielectric reflective lobe.
type MicrofacetReflection struct {
	R            core.Spectrum
	Distribution microfacet.Distribution
	Fresnel      fresnel.Fresnel
}

func (b MicrofacetReflection) Type() Type { return Reflection | Glossy }

func (b MicrofacetReflection) F(wo, wi core.Vec3) core.Spectrum {
	cosThetaO, cosThetaI := absCosTheta(wo), absCosTheta(wi)
	wh := wi.Add(wo)
	if cosThetaI == 0 || cosThetaO == 0 || wh.IsZero() {
		return core.Vec3{}
	}
	wh = wh.Normalize()
	fr := b.Fresnel.Evaluate(wi.Dot(wh))
	d := b.Distribution.D(wh)
	g := b.Distribution.G(wo, wi)
	return b.R.MultiplyVec(fr).Multiply(d * g / (4 * cosThetaI * cosThetaO))
}

func (b MicrofacetReflection) Sample(wo core.Vec3, u core.Vec2) (core.Spectrum, core.Vec3, float64) {
	if wo.Z == 0 {
		return core.Vec3{}, core.Vec3{}, 0
	}
	wh := b.Distribution.Sample(wo, u)
	wi := reflect(wo, wh)
	if !sameHemisphere(wo, wi) {
		return core.Vec3{}, core.Vec3{}, 0
	}
	return b.F(wo, wi), wi, b.Pdf(wo, wi)
}

func (b MicrofacetReflection) Pdf(wo, wi core.Vec3) float64 {
	if !sameHemisphere(wo, wi) {
		return 0
	}
	wh := wo.Add(wi).Normalize()
	return b.Distribution.Pdf(wo, wh) / (4 * wo.Dot(wh))
}

func reflect(wo, n core.Vec3) core.Vec3 {
	return wo.Negate().Add(n.Multiply(2 * wo.Dot(n)))
}

// MicrofacetTransmission is a rough-dielectric transmissive lobe.
type MicrofacetTransmission struct {
	T            core.Spectrum
	Distribution microfacet.Distribution
	EtaA, EtaB   float64
	Mode         int
}

func (b MicrofacetTransmission) Type() Type { return Transmission | Glossy }

func (b MicrofacetTransmission) F(wo, wi core.Vec3) core.Spectrum {
	if sameHemisphere(wo, wi) {
		return core.Vec3{}
	}
	cosThetaO, cosThetaI := cosTheta(wo), cosTheta(wi)
	if cosThetaI == 0 || cosThetaO == 0 {
		return core.Vec3{}
	}

	eta := b.EtaB / b.EtaA
	if cosThetaO <= 0 {
		eta = b.EtaA / b.EtaB
	}
	wh := wo.Add(wi.Multiply(eta)).Normalize()
	if wh.Z < 0 {
		wh = wh.Negate()
	}

	fr := fresnel.FrDielectric(wo.Dot(wh), b.EtaA, b.EtaB)
	sqrtDenom := wo.Dot(wh) + eta*wi.Dot(wh)
	factor := 1.0
	if b.Mode == 0 {
		factor = 1 / eta
	}

	d := b.Distribution.D(wh)
	g := b.Distribution.G(wo, wi)
	scale := math.Abs(d*g*eta*eta*wi.AbsDot(wh)*wo.AbsDot(wh)*factor*factor/
		(cosThetaI*cosThetaO*sqrtDenom*sqrtDenom))
	return b.T.Multiply((1 - fr) * scale)
}

func (b MicrofacetTransmission) Sample(wo core.Vec3, u core.Vec2) (core.Spectrum, core.Vec3, float64) {
	if wo.Z == 0 {
		return core.Vec3{}, core.Vec3{}, 0
	}
	wh := b.Distribution.Sample(wo, u)
	eta := b.EtaA / b.EtaB
	if cosTheta(wo) <= 0 {
		eta = b.EtaB / b.EtaA
	}
	wi, ok := refract(wo, faceForward(wh, wo), eta)
	if !ok {
		return core.Vec3{}, core.Vec3{}, 0
	}
	return b.F(wo, wi), wi, b.Pdf(wo, wi)
}

func faceForward(n, v core.Vec3) core.Vec3 {
	if n.Dot(v) < 0 {
		return n.Negate()
	}
	return n
}

func (b MicrofacetTransmission) Pdf(wo, wi core.Vec3) float64 {
	if sameHemisphere(wo, wi) {
		return 0
	}
	eta := b.EtaB / b.EtaA
	if cosTheta(wo) <= 0 {
		eta = b.EtaA / b.EtaB
	}
	wh := wo.Add(wi.Multiply(eta)).Normalize()

	sqrtDenom := wo.Dot(wh) + eta*wi.Dot(wh)
	dwhDwi := math.Abs((eta * eta * wi.Dot(wh)) / (sqrtDenom * sqrtDenom))
	return b.Distribution.Pdf(wo, wh) * dwhDwi
}
