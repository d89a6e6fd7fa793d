// Package microfacet implements microfacet normal distribution functions
// (Beckmann and Trowbridge-Reitz/GGX) used by glossy reflection and
// transmission BxDFs. All vectors are in the local shading frame, where the
// shading normal is (0, 0, 1).
package microfacet

import (
	"math"

	"github.com/df07/go-progressive-raytracer/pkg/core"
)

func cosTheta(w core.Vec3) float64  { return w.Z }
func cos2Theta(w core.Vec3) float64 { return w.Z * w.Z }
func sin2Theta(w core.Vec3) float64 { return math.Max(0, 1-cos2Theta(w)) }
func tan2Theta(w core.Vec3) float64 {
	c2 := cos2Theta(w)
	if c2 == 0 {
		return math.Inf(1)
	}
	return sin2Theta(w) / c2
}
func cosPhi(w core.Vec3) (float64, float64) {
	sinTheta := math.Sqrt(sin2Theta(w))
	if sinTheta == 0 {
		return 1, 0
	}
	return core.Clamp(w.X/sinTheta, -1, 1), core.Clamp(w.Y/sinTheta, -1, 1)
}
func sameHemisphere(a, b core.Vec3) bool { return a.Z*b.Z > 0 }

// Distribution is a microfacet normal distribution function: it describes
// the statistical distribution of half-angle "microfacet" normals over a
// rough surface.
type Distribution interface {
	// D evaluates the differential area of microfacets with normal wh.
	D(wh core.Vec3) float64
	// Lambda is the auxiliary function used by the Smith masking-shadowing term.
	Lambda(w core.Vec3) float64
	// G1 is the Smith masking function for a single direction.
	G1(w core.Vec3) float64
	// G is the Smith masking-shadowing function for a pair of directions.
	G(wo, wi core.Vec3) float64
	// Sample draws a microfacet normal given an outgoing direction and a 2D sample.
	Sample(wo core.Vec3, u core.Vec2) core.Vec3
	// Pdf returns the probability density of the sampled half vector wh.
	Pdf(wo, wh core.Vec3) float64
}

type base struct {
	alphaX, alphaY   float64
	sampleVisibleOnly bool
}

func (b base) G1(w core.Vec3, lambda func(core.Vec3) float64) float64 {
	return 1 / (1 + lambda(w))
}

func (b base) pdf(wo, wh core.Vec3, d Distribution) float64 {
	if b.sampleVisibleOnly {
		return d.D(wh) * d.G1(wo) * wo.AbsDot(wh) / math.Abs(cosTheta(wo))
	}
	return d.D(wh) * math.Abs(cosTheta(wh))
}

// RoughnessToAlpha converts a perceptually-linear [0,1] roughness parameter
// to the alpha (slope variance) parameter used by both distributions below,
// using the polynomial fit from Walter et al. / pbrt.
func RoughnessToAlpha(roughness float64) float64 {
	roughness = math.Max(roughness, 1e-3)
	x := math.Log(roughness)
	return 1.62142 + x*(0.819955+x*(0.1734+x*(0.0171201+0.000640711*x)))
}

// TrowbridgeReitz is the GGX microfacet distribution.
type TrowbridgeReitz struct {
	base
}

// NewTrowbridgeReitz builds a GGX distribution with the given anisotropic
// roughness parameters. sampleVisible enables Heitz's visible-normal
// sampling, which reduces variance versus sampling D directly.
func NewTrowbridgeReitz(alphaX, alphaY float64, sampleVisible bool) *TrowbridgeReitz {
	return &TrowbridgeReitz{base{alphaX: alphaX, alphaY: alphaY, sampleVisibleOnly: sampleVisible}}
}

func (d *TrowbridgeReitz) D(wh core.Vec3) float64 {
	tan2 := tan2Theta(wh)
	if math.IsInf(tan2, 1) {
		return 0
	}
	cos4 := cos2Theta(wh) * cos2Theta(wh)
	cp, sp := cosPhi(wh)
	e := (cp*cp/(d.alphaX*d.alphaX) + sp*sp/(d.alphaY*d.alphaY)) * tan2
	return 1 / (math.Pi * d.alphaX * d.alphaY * cos4 * (1 + e) * (1 + e))
}

func (d *TrowbridgeReitz) Lambda(w core.Vec3) float64 {
	absTanTheta := math.Abs(math.Sqrt(tan2Theta(w)))
	if math.IsInf(absTanTheta, 1) {
		return 0
	}
	cp, sp := cosPhi(w)
	alpha := math.Sqrt(cp*cp*d.alphaX*d.alphaX + sp*sp*d.alphaY*d.alphaY)
	a := alpha * absTanTheta
	return (-1 + math.Sqrt(1+a*a)) / 2
}

func (d *TrowbridgeReitz) G1(w core.Vec3) float64    { return d.base.G1(w, d.Lambda) }
func (d *TrowbridgeReitz) G(wo, wi core.Vec3) float64 { return 1 / (1 + d.Lambda(wo) + d.Lambda(wi)) }
func (d *TrowbridgeReitz) Pdf(wo, wh core.Vec3) float64 { return d.base.pdf(wo, wh, d) }

// Sample draws a microfacet normal. When sampleVisibleOnly is set this uses
// Heitz's visible-normal-area sampling (transforming to and from the
// "stretched" configuration); otherwise it samples the distribution directly.
func (d *TrowbridgeReitz) Sample(wo core.Vec3, u core.Vec2) core.Vec3 {
	if !d.sampleVisibleOnly {
		return d.sampleD(wo, u)
	}
	flip := wo.Z < 0
	woH := wo
	if flip {
		woH = wo.Negate()
	}
	wh := sampleGGXVisibleNormal(woH, d.alphaX, d.alphaY, u)
	if flip {
		wh = wh.Negate()
	}
	return wh
}

func (d *TrowbridgeReitz) sampleD(wo core.Vec3, u core.Vec2) core.Vec3 {
	var cosThetaV, phi float64
	if d.alphaX == d.alphaY {
		tanTheta2 := d.alphaX * d.alphaX * u.X / (1 - u.X)
		cosThetaV = 1 / math.Sqrt(1+tanTheta2)
		phi = 2 * math.Pi * u.Y
	} else {
		phi = math.Atan(d.alphaY / d.alphaX * math.Tan(2*math.Pi*u.Y+0.5*math.Pi))
		if u.Y > 0.5 {
			phi += math.Pi
		}
		sp, cp := math.Sin(phi), math.Cos(phi)
		alpha2 := 1 / (cp*cp/(d.alphaX*d.alphaX) + sp*sp/(d.alphaY*d.alphaY))
		tanTheta2 := alpha2 * u.X / (1 - u.X)
		cosThetaV = 1 / math.Sqrt(1+tanTheta2)
	}
	sinThetaV := math.Sqrt(math.Max(0, 1-cosThetaV*cosThetaV))
	wh := core.NewVec3(math.Cos(phi)*sinThetaV, math.Sin(phi)*sinThetaV, cosThetaV)
	if !sameHemisphere(wo, wh) {
		wh = wh.Negate()
	}
	return wh
}

// sampleGGXVisibleNormal implements Heitz 2014's "Importance Sampling
// Microfacet-Based BSDFs using the Distribution of Visible Normals".
func sampleGGXVisibleNormal(wi core.Vec3, alphaX, alphaY float64, u core.Vec2) core.Vec3 {
	wiStretched := core.NewVec3(alphaX*wi.X, alphaY*wi.Y, wi.Z).Normalize()

	var slopeX, slopeY float64
	cosThetaV := wiStretched.Z
	if cosThetaV > 0.9999 {
		r := math.Sqrt(u.X / (1 - u.X))
		phi := 2 * math.Pi * u.Y
		slopeX = r * math.Cos(phi)
		slopeY = r * math.Sin(phi)
	} else {
		sinThetaV := math.Sqrt(math.Max(0, 1-cosThetaV*cosThetaV))
		tanThetaV := sinThetaV / cosThetaV
		a := 1 / tanThetaV
		g1 := 2 / (1 + math.Sqrt(1+1/(a*a)))

		A := 2*u.X/g1 - 1
		tmp := 1 / (A*A - 1)
		if tmp > 1e10 {
			tmp = 1e10
		}
		B := tanThetaV
		D := math.Sqrt(math.Max(0, B*B*tmp*tmp-(A*A-B*B)*tmp))
		slopeX1 := B*tmp - D
		slopeX2 := B*tmp + D
		if A < 0 || slopeX2 > 1/tanThetaV {
			slopeX = slopeX1
		} else {
			slopeX = slopeX2
		}

		var S, U float64
		if u.Y > 0.5 {
			S = 1
			U = 2 * (u.Y - 0.5)
		} else {
			S = -1
			U = 2 * (0.5 - u.Y)
		}
		z := (U * (U*(U*0.27385-0.73369) + 0.46341)) / (U*(U*(U*0.093073+0.309420)-1) + 0.597999)
		slopeY = S * z * math.Sqrt(1+slopeX*slopeX)
	}

	cp, sp := cosPhi(wiStretched)
	tmp := cp*slopeX - sp*slopeY
	slopeY = sp*slopeX + cp*slopeY
	slopeX = tmp

	slopeX *= alphaX
	slopeY *= alphaY

	return core.NewVec3(-slopeX, -slopeY, 1).Normalize()
}

// Beckmann is the classical Gaussian-slope microfacet distribution.
type Beckmann struct {
	base
}

// NewBeckmann builds a Beckmann distribution with the given anisotropic
// roughness parameters.
func NewBeckmann(alphaX, alphaY float64, sampleVisible bool) *Beckmann {
	return &Beckmann{base{alphaX: alphaX, alphaY: alphaY, sampleVisibleOnly: sampleVisible}}
}

func (d *Beckmann) D(wh core.Vec3) float64 {
	tan2 := tan2Theta(wh)
	if math.IsInf(tan2, 1) {
		return 0
	}
	cos4 := cos2Theta(wh) * cos2Theta(wh)
	cp, sp := cosPhi(wh)
	alphaB2 := cp*cp/(d.alphaX*d.alphaX) + sp*sp/(d.alphaY*d.alphaY)
	return math.Exp(-tan2*alphaB2) / (math.Pi * d.alphaX * d.alphaY * cos4)
}

func (d *Beckmann) Lambda(w core.Vec3) float64 {
	absTanTheta := math.Abs(math.Sqrt(tan2Theta(w)))
	if math.IsInf(absTanTheta, 1) {
		return 0
	}
	cp, sp := cosPhi(w)
	alpha := math.Sqrt(cp*cp*d.alphaX*d.alphaX + sp*sp*d.alphaY*d.alphaY)
	a := 1 / (alpha * absTanTheta)
	if a >= 1.6 {
		return 0
	}
	return (1 - 1.259*a + 0.396*a*a) / (3.535*a + 2.181*a*a)
}

func (d *Beckmann) G1(w core.Vec3) float64    { return d.base.G1(w, d.Lambda) }
func (d *Beckmann) G(wo, wi core.Vec3) float64 { return 1 / (1 + d.Lambda(wo) + d.Lambda(wi)) }
func (d *Beckmann) Pdf(wo, wh core.Vec3) float64 { return d.base.pdf(wo, wh, d) }

func (d *Beckmann) Sample(wo core.Vec3, u core.Vec2) core.Vec3 {
	if !d.sampleVisibleOnly {
		return d.sampleD(wo, u)
	}
	flip := wo.Z < 0
	woH := wo
	if flip {
		woH = wo.Negate()
	}
	wh := beckmannSampleVisibleNormal(woH, d.alphaX, d.alphaY, u)
	if flip {
		wh = wh.Negate()
	}
	return wh
}

func (d *Beckmann) sampleD(wo core.Vec3, u core.Vec2) core.Vec3 {
	var tan2Th, phi float64
	if d.alphaX == d.alphaY {
		logSample := math.Log(1 - u.X)
		tan2Th = -d.alphaX * d.alphaX * logSample
		phi = 2 * math.Pi * u.Y
	} else {
		logSample := math.Log(1 - u.X)
		phi = math.Atan(d.alphaY / d.alphaX * math.Tan(2*math.Pi*u.Y+0.5*math.Pi))
		if u.Y > 0.5 {
			phi += math.Pi
		}
		sp, cp := math.Sin(phi), math.Cos(phi)
		tan2Th = -logSample / (cp*cp/(d.alphaX*d.alphaX) + sp*sp/(d.alphaY*d.alphaY))
	}
	cosThetaV := 1 / math.Sqrt(1+tan2Th)
	sinThetaV := math.Sqrt(math.Max(0, 1-cosThetaV*cosThetaV))
	wh := core.NewVec3(math.Cos(phi)*sinThetaV, math.Sin(phi)*sinThetaV, cosThetaV)
	if !sameHemisphere(wo, wh) {
		wh = wh.Negate()
	}
	return wh
}

// beckmannSampleVisibleNormal implements Jakob 2014's "An Improved Visible
// Normal Sampling Routine for the Beckmann Distribution".
func beckmannSampleVisibleNormal(wi core.Vec3, alphaX, alphaY float64, u core.Vec2) core.Vec3 {
	wiStretched := core.NewVec3(alphaX*wi.X, alphaY*wi.Y, wi.Z).Normalize()

	slopeX, slopeY := beckmannSample11(wiStretched.Z, u.X, u.Y)

	cp, sp := cosPhi(wiStretched)
	tmp := cp*slopeX - sp*slopeY
	slopeY = sp*slopeX + cp*slopeY
	slopeX = tmp

	slopeX *= alphaX
	slopeY *= alphaY

	return core.NewVec3(-slopeX, -slopeY, 1).Normalize()
}

func beckmannSample11(cosThetaI, u1, u2 float64) (slopeX, slopeY float64) {
	if cosThetaI > 0.9999 {
		r := math.Sqrt(-math.Log(1 - u1))
		sinPhi := math.Sin(2 * math.Pi * u2)
		cosPhiV := math.Cos(2 * math.Pi * u2)
		return r * cosPhiV, r * sinPhi
	}

	sinThetaI := math.Sqrt(math.Max(0, 1-cosThetaI*cosThetaI))
	tanThetaI := sinThetaI / cosThetaI
	cotThetaI := 1 / tanThetaI

	a := -1.0
	c := math.Erf(cotThetaI)
	sampleX := math.Max(u1, 1e-6)

	thetaI := math.Acos(cosThetaI)
	fit := 1 + thetaI*(-0.876+thetaI*(0.4265-0.0594*thetaI))
	b := c - (1+c)*math.Pow(1-sampleX, fit)

	sqrtPiInv := 1 / math.Sqrt(math.Pi)
	normalization := 1 / (1 + c + sqrtPiInv*tanThetaI*math.Exp(-cotThetaI*cotThetaI))

	for it := 0; it < 16; it++ {
		if b < a || c < b {
			b = 0.5 * (a + c)
		}
		xm := math.Erfinv(b)
		value := normalization*(1+b+sqrtPiInv*tanThetaI*math.Exp(-xm*xm)) - sampleX
		derivative := normalization * (1 - xm*tanThetaI)

		if math.Abs(value) < 1e-6 {
			break
		}
		if value > 0 {
			c = b
		} else {
			a = b
		}
		b -= value / derivative
	}

	slopeX = math.Erfinv(b)
	slopeY = math.Erfinv(2*math.Max(u2, 1e-6) - 1)
	return slopeX, slopeY
}
