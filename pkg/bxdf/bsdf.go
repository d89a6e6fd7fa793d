package bxdf

import (
	"math"

	"github.com/df07/go-progressive-raytracer/pkg/core"
)

const maxBxDFs = 8

// BSDF composites up to 8 BxDF lobes at a surface point and handles the
// world<->local shading-frame transform every individual BxDF expects.
type BSDF struct {
	Eta float64 // relative index of refraction, 1 for opaque surfaces

	normal             core.Vec3
	tangent, bitangent core.Vec3

	bxdfs [maxBxDFs]BxDF
	n     int
}

// NewBSDF builds an empty BSDF for a shading frame defined by the surface
// normal and its partial derivatives (tangent/bitangent). eta is the
// relative index of refraction used by non-symmetric transmission terms.
func NewBSDF(normal, dpdu core.Vec3, eta float64) *BSDF {
	tangent := dpdu.Normalize()
	if tangent.IsZero() {
		tangent, _ = core.CoordinateSystem(normal)
	}
	bitangent := normal.Cross(tangent).Normalize()
	tangent = bitangent.Cross(normal).Normalize()
	return &BSDF{Eta: eta, normal: normal, tangent: tangent, bitangent: bitangent}
}

// Add appends a BxDF lobe. Panics if more than 8 lobes are added, matching
// the fixed-size component list real BSDFs are built from.
func (b *BSDF) Add(bx BxDF) {
	if b.n >= maxBxDFs {
		panic("bxdf: too many BSDF components")
	}
	b.bxdfs[b.n] = bx
	b.n++
}

// NumComponents counts the lobes matching the given type mask.
func (b *BSDF) NumComponents(t Type) int {
	count := 0
	for i := 0; i < b.n; i++ {
		if b.bxdfs[i].Type().Has(t) {
			count++
		}
	}
	return count
}

// HasType reports whether any lobe matches the given type mask.
func (b *BSDF) HasType(t Type) bool {
	for i := 0; i < b.n; i++ {
		if b.bxdfs[i].Type().Has(t) {
			return true
		}
	}
	return false
}

func (b *BSDF) worldToLocal(v core.Vec3) core.Vec3 {
	return core.NewVec3(v.Dot(b.tangent), v.Dot(b.bitangent), v.Dot(b.normal))
}

func (b *BSDF) localToWorld(v core.Vec3) core.Vec3 {
	return b.tangent.Multiply(v.X).Add(b.bitangent.Multiply(v.Y)).Add(b.normal.Multiply(v.Z))
}

// F evaluates the sum of all lobes matching type for world-space directions
// woWorld (outgoing, toward the viewer) and wiWorld (incoming).
func (b *BSDF) F(woWorld, wiWorld core.Vec3, t Type) core.Spectrum {
	wo := b.worldToLocal(woWorld)
	wi := b.worldToLocal(wiWorld)
	reflect := wiWorld.Dot(b.normal)*woWorld.Dot(b.normal) > 0

	sum := core.Vec3{}
	for i := 0; i < b.n; i++ {
		bx := b.bxdfs[i]
		if !bx.Type().Has(t) {
			continue
		}
		if (reflect && bx.Type().Has(Reflection)) || (!reflect && bx.Type().Has(Transmission)) {
			sum = sum.Add(bx.F(wo, wi))
		}
	}
	return sum
}

// Sample picks one matching lobe proportional to its count, samples an
// incident direction from it, and returns the aggregate f/pdf across all
// matching lobes (so rough dielectrics, which mix a specular and a glossy
// lobe, get a correctly combined estimate).
func (b *BSDF) Sample(woWorld core.Vec3, u core.Vec2, t Type) (f core.Spectrum, wiWorld core.Vec3, pdf float64, sampledType Type) {
	matching := b.NumComponents(t)
	if matching == 0 {
		return core.Vec3{}, core.Vec3{}, 0, 0
	}

	comp := int(u.X * float64(matching))
	if comp >= matching {
		comp = matching - 1
	}

	var chosen BxDF
	count := comp
	for i := 0; i < b.n; i++ {
		if b.bxdfs[i].Type().Has(t) {
			if count == 0 {
				chosen = b.bxdfs[i]
				break
			}
			count--
		}
	}
	if chosen == nil {
		return core.Vec3{}, core.Vec3{}, 0, 0
	}
	sampledType = chosen.Type()

	uRemapped := core.NewVec2(math.Min(u.X*float64(matching)-float64(comp), 1-1e-12), u.Y)

	wo := b.worldToLocal(woWorld)
	fLocal, wi, pdf := chosen.Sample(wo, uRemapped)
	if pdf == 0 {
		return core.Vec3{}, core.Vec3{}, 0, sampledType
	}
	wiWorld = b.localToWorld(wi)

	if !chosen.Type().Has(Specular) && matching > 1 {
		for i := 0; i < b.n; i++ {
			if b.bxdfs[i] != chosen && b.bxdfs[i].Type().Has(t) {
				pdf += b.bxdfs[i].Pdf(wo, wi)
			}
		}
	}
	if matching > 1 {
		pdf /= float64(matching)
	}

	if !chosen.Type().Has(Specular) {
		f = b.F(woWorld, wiWorld, t)
	} else {
		f = fLocal
	}
	return f, wiWorld, pdf, sampledType
}

// Pdf returns the average PDF across all lobes matching type.
func (b *BSDF) Pdf(woWorld, wiWorld core.Vec3, t Type) float64 {
	if b.n == 0 {
		return 0
	}
	wo := b.worldToLocal(woWorld)
	wi := b.worldToLocal(wiWorld)

	pdf := 0.0
	matching := 0
	for i := 0; i < b.n; i++ {
		if b.bxdfs[i].Type().Has(t) {
			pdf += b.bxdfs[i].Pdf(wo, wi)
			matching++
		}
	}
	if matching == 0 {
		return 0
	}
	return pdf / float64(matching)
}
