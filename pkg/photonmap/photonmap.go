package photonmap

import (
	"math"

	"github.com/df07/go-progressive-raytracer/pkg/core"
	"github.com/df07/go-progressive-raytracer/pkg/driver"
	"github.com/df07/go-progressive-raytracer/pkg/material"
	"github.com/df07/go-progressive-raytracer/pkg/mis"
	"github.com/df07/go-progressive-raytracer/pkg/scene"
)

// coneFilterK is the cone filter's steepness (the original hard-codes the
// same constant): a photon at the query disc's edge contributes zero
// weight, one at the center contributes closest to full weight, and
// coneFilterNormalizer renormalizes the total so the filter integrates to 1
// over the disc.
const coneFilterK = 1.1

// coneFilterNormalizer is 1/(1 - 2/(3k)), the renormalization for a cone
// filter's conical weight profile integrated over a disc.
var coneFilterNormalizer = 1.0 / (1.0 - 2.0/(3.0*coneFilterK))

// PhotonMap stores photons shot from a scene's lights and answers
// k-nearest-neighbor density-estimation queries against them - the shared
// data structure behind the photon-mapper and progressive-photon-mapping
// integrators.
type PhotonMap struct {
	root       *kdNode
	numPhotons int
}

// NewPhotonMap returns an empty map; call Construct to populate it.
func NewPhotonMap() *PhotonMap {
	return &PhotonMap{}
}

// NumPhotons reports how many photons the last Construct call stored.
func (pm *PhotonMap) NumPhotons() int { return pm.numPhotons }

// Construct shoots castPhotons photons from sc's lights, weighted by
// mis.CalcLightPowerDistrib rather than split evenly across lights, and
// bounces each off scene geometry for up to maxBounces segments, recording
// a Photon at every real hit. Each photon's path is independent of every
// other's, so shooting runs through pkg/driver.ParallelFor with one sampler
// clone and one output slot per photon, merged into a single kd-tree once
// every worker has finished.
func (pm *PhotonMap) Construct(sc *scene.Scene, sampler core.Sampler, castPhotons, maxBounces int) error {
	if castPhotons <= 0 {
		pm.root, pm.numPhotons = nil, 0
		return nil
	}

	lightDistrib := mis.CalcLightPowerDistrib(sc)
	perPhoton := make([][]Photon, castPhotons)

	err := driver.ParallelFor(castPhotons, func(i int) error {
		local := sampler.Clone(int64(i) + 1)

		lightIndex, lightPdf := lightDistrib.SampleDiscrete(local.Get1D())
		if lightPdf <= 0 || lightIndex >= len(sc.Lights) {
			return nil
		}
		light := sc.Lights[lightIndex]

		es := light.SampleEmission(local.Get2D(), local.Get2D())
		if es.AreaPDF <= 0 || es.DirectionPDF <= 0 || core.IsBlack(es.Emission) {
			return nil
		}

		cosTheta := math.Abs(es.Direction.Dot(es.Normal))
		denom := lightPdf * es.AreaPDF * es.DirectionPDF * float64(castPhotons)
		if denom <= 0 {
			return nil
		}

		beta := es.Emission.Multiply(cosTheta / denom)
		if core.IsBlack(beta) {
			return nil
		}

		ray := core.NewRay(es.Point, es.Direction)
		perPhoton[i] = tracePhoton(sc, ray, beta, local, maxBounces)
		return nil
	})
	if err != nil {
		return err
	}

	total := 0
	for _, ps := range perPhoton {
		total += len(ps)
	}
	all := make([]Photon, 0, total)
	for _, ps := range perPhoton {
		all = append(all, ps...)
	}

	pm.root = buildKDTree(all)
	pm.numPhotons = len(all)
	return nil
}

// EvaluateL estimates the radiance leaving hit toward wo due to stored
// photons, by gathering up to gatherPhotons within gatherRadius, weighting
// each by a cone filter (closer photons count more), and normalizing by the
// gather disc's area - a density estimate of indirect illumination that
// needs no light sampling or BSDF importance sampling of its own. wo must
// point away from the surface (the same convention as SurfaceInteraction.Wo).
func (pm *PhotonMap) EvaluateL(hit *material.SurfaceInteraction, wo core.Vec3, gatherPhotons int, gatherRadius float64) core.Spectrum {
	if pm.root == nil {
		return core.Spectrum{}
	}

	photons, maxDistSq := pm.root.knnSearch(hit.Point, gatherPhotons, gatherRadius)
	if len(photons) == 0 || maxDistSq <= 1e-12 {
		return core.Spectrum{}
	}
	maxDist := math.Sqrt(maxDistSq)

	var total core.Spectrum
	for _, p := range photons {
		diff := p.Position.Subtract(hit.Point)
		dist := diff.Length()

		// Reject photons that leaked through from the far side of a thin
		// surface: a real photon on this surface lies close to its tangent
		// plane, so one whose offset along the normal is a large fraction of
		// its total offset didn't actually arrive at this patch of geometry.
		if dist > 1e-9 && math.Abs(hit.Normal.Dot(diff))/dist > 0.25 {
			continue
		}

		w := 1 - dist/(coneFilterK*maxDist)
		if w <= 0 {
			continue
		}

		incomingDir := p.Wi.Negate()
		brdf := hit.Material.EvaluateBRDF(incomingDir, wo, hit, material.TransportRadiance)
		total = total.Add(p.Beta.MultiplyVec(brdf).Multiply(w))
	}

	flux := total.Multiply(coneFilterNormalizer)
	return flux.Multiply(1 / (math.Pi * maxDist * maxDist))
}
