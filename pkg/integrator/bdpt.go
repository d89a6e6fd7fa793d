package integrator

import (
	"fmt"
	"math"

	"github.com/df07/go-progressive-raytracer/pkg/core"
	"github.com/df07/go-progressive-raytracer/pkg/lights"
	"github.com/df07/go-progressive-raytracer/pkg/material"
	"github.com/df07/go-progressive-raytracer/pkg/scene"
)

// Vertex represents a single vertex in a light transport path
type Vertex struct {
	Point  core.Vec3 // 3D position
	Normal core.Vec3 // Surface normal

	Light      lights.Light // Light at this vertex, if any
	LightIndex int          // Index into scene.Lights for the light above

	Material material.Material            // Material at this vertex, if any
	Hit      *material.SurfaceInteraction // Surface interaction backing Material, for EvaluateBRDF

	// Path tracing information
	IncomingDirection core.Vec3 // Direction ray arrived from

	// MIS probability densities
	AreaPdfForward float64 // PDF for generating this vertex forward
	AreaPdfReverse float64 // PDF for generating this vertex reverse

	// Vertex classification
	IsLight         bool // On light source
	IsCamera        bool // On camera
	IsSpecular      bool // Specular interaction
	IsInfiniteLight bool // On infinite area light (background)

	// Transport quantities
	Beta         core.Vec3 // Accumulated throughput from path start to this vertex
	EmittedLight core.Vec3 // Light emitted from this vertex
}

// IsOnSurface reports whether this vertex lies on real scene geometry, as
// opposed to the camera lens, a light's emission point, or the infinite
// background. Used to decide when a cosine factor applies in PDF conversion.
func (v *Vertex) IsOnSurface() bool {
	return v.Material != nil
}

// Path represents a sequence of vertices in a light transport path
type Path struct {
	Vertices []Vertex
	Length   int
}

// BDPTIntegrator implements bidirectional path tracing
type BDPTIntegrator struct {
	*PathTracingIntegrator
	Verbose bool
}

// bdptStrategy represents a single BDPT path construction strategy
type bdptStrategy struct {
	s, t         int             // Light path length, camera path length
	contribution core.Vec3       // Radiance contribution
	misWeight    float64         // MIS weight
	splatRays    []core.SplatRay // Splat rays for t=1 strategies
}

// NewBDPTIntegrator creates a new BDPT integrator
func NewBDPTIntegrator(config scene.SamplingConfig) *BDPTIntegrator {
	return &BDPTIntegrator{
		PathTracingIntegrator: NewPathTracingIntegrator(config),
		Verbose:               false,
	}
}

// RayColor computes color for a ray using bidirectional path tracing,
// combining every camera/light subpath connection with MIS weighting.
func (bdpt *BDPTIntegrator) RayColor(ray core.Ray, sc *scene.Scene, sampler core.Sampler) (core.Vec3, []core.SplatRay) {
	// for now, both paths have the same max depth
	cameraMaxDepth := bdpt.config.MaxDepth
	lightMaxDepth := bdpt.config.MaxDepth

	cameraPath := bdpt.generateCameraSubpath(ray, sc, sampler, cameraMaxDepth)
	lightPath := bdpt.generateLightSubpath(sc, sampler, lightMaxDepth)

	strategies := bdpt.generateBDPTStrategies(&cameraPath, &lightPath, sc, sampler)

	return bdpt.evaluateBDPTStrategies(strategies)
}

// generateCameraSubpath generates a camera subpath with proper PDF tracking for BDPT
// Each vertex stores forward/reverse PDFs needed for MIS weight calculation
func (bdpt *BDPTIntegrator) generateCameraSubpath(ray core.Ray, sc *scene.Scene, sampler core.Sampler, maxDepth int) Path {
	path := Path{
		Vertices: make([]Vertex, 0, maxDepth+1),
	}

	_, directionPDF := sc.Camera.CalculateRayPDFs(ray)

	cameraVertex := Vertex{
		Point:             ray.Origin,
		Normal:            ray.Direction.Multiply(-1), // Camera "normal" points back along ray
		IncomingDirection: core.Vec3{X: 0, Y: 0, Z: 0},
		AreaPdfForward:    0.0, // Initial camera PDF is always 0.0
		AreaPdfReverse:    0.0, // Cannot generate reverse direction to camera
		IsCamera:          true,
		Beta:              core.Vec3{X: 1, Y: 1, Z: 1},
	}

	path.Vertices = append(path.Vertices, cameraVertex)
	path.Length++

	beta := core.Vec3{X: 1, Y: 1, Z: 1}
	bdpt.extendPath(&path, ray, beta, directionPDF, sc, sampler, maxDepth, true)

	return path
}

// generateLightSubpath generates a light subpath with proper PDF tracking for BDPT
// Starting from light emission, each vertex stores forward/reverse PDFs for MIS
func (bdpt *BDPTIntegrator) generateLightSubpath(sc *scene.Scene, sampler core.Sampler, maxDepth int) Path {
	path := Path{
		Vertices: make([]Vertex, 0, maxDepth+1),
	}

	if len(sc.Lights) == 0 {
		return path
	}

	sampledLight, lightSelectionPdf, lightIndex := sc.LightSampler.SampleLightEmission(sampler.Get1D())
	emissionSample := sampledLight.SampleEmission(sampler.Get2D(), sampler.Get2D())
	cosTheta := emissionSample.Direction.Dot(emissionSample.Normal)

	lightVertex := Vertex{
		Point:             emissionSample.Point,
		Normal:            emissionSample.Normal,
		Light:             sampledLight,
		LightIndex:        lightIndex,
		IncomingDirection: core.Vec3{X: 0, Y: 0, Z: 0},
		AreaPdfForward:    emissionSample.AreaPDF * lightSelectionPdf,
		AreaPdfReverse:    0.0, // Cannot generate reverse direction to light
		IsLight:           true,
		Beta:              emissionSample.Emission, // Include emission in throughput
		EmittedLight:      emissionSample.Emission,
	}

	path.Vertices = append(path.Vertices, lightVertex)
	path.Length++

	currentRay := core.NewRay(emissionSample.Point, emissionSample.Direction)

	// PBRT formula: beta = Le * |cos(theta)| / (lightPdf * pdfPos * pdfDir)
	forwardThroughput := emissionSample.Emission.Multiply(math.Abs(cosTheta) / (lightSelectionPdf * emissionSample.AreaPDF * emissionSample.DirectionPDF))
	bdpt.logf("generateLightSubpath: forwardThroughput=%v, cosTheta=%f, lightSelectionPdf=%f, AreaPDF=%f, DirectionPDF=%f\n", forwardThroughput, math.Abs(cosTheta), lightSelectionPdf, emissionSample.AreaPDF, emissionSample.DirectionPDF)
	bdpt.extendPath(&path, currentRay, forwardThroughput, emissionSample.DirectionPDF, sc, sampler, maxDepth-1, false)

	return path
}

// extendPath extends a path by tracing a ray through the scene, handling intersections and scattering
// This is the common logic shared between camera and light path generation after the initial vertex
func (bdpt *BDPTIntegrator) extendPath(path *Path, currentRay core.Ray, beta core.Vec3, pdfDir float64, sc *scene.Scene, sampler core.Sampler, maxBounces int, isCameraPath bool) {
	for bounces := 0; bounces < maxBounces; bounces++ {
		vertexPrev := &path.Vertices[path.Length-1]

		hit, isHit := sc.BVH.Hit(currentRay, 0.001, math.Inf(1))
		if !isHit {
			if !isCameraPath {
				break
			}
			// Hit background - create a background vertex with captured light.
			// Keep the solid angle PDF as-is since the background sits at infinity.
			bgColor := bdpt.BackgroundLight(currentRay, sc)

			vertex := Vertex{
				Point:             currentRay.Origin.Add(currentRay.Direction.Multiply(1000.0)),
				Normal:            currentRay.Direction.Multiply(-1),
				IncomingDirection: currentRay.Direction.Multiply(-1),
				AreaPdfForward:    pdfDir,
				AreaPdfReverse:    0.0,
				IsLight:           bgColor.Luminance() > 0,
				IsInfiniteLight:   true,
				Beta:              beta,
				EmittedLight:      bgColor,
			}

			path.Vertices = append(path.Vertices, vertex)
			path.Length++
			break
		}

		emittedLight := bdpt.GetEmittedLight(currentRay, hit)

		vertex := Vertex{
			Point:             hit.Point,
			Normal:            hit.Normal,
			Material:          hit.Material,
			Hit:               hit,
			IncomingDirection: currentRay.Direction.Multiply(-1),
			AreaPdfForward:    1.0, // Overwritten below once the predecessor's density is known
			AreaPdfReverse:    0.0, // Overwritten once the material's reverse PDF is known
			IsLight:           emittedLight.Luminance() > 0,
			Beta:              beta,
			EmittedLight:      emittedLight,
		}

		// Set forward density into this vertex (PBRT: prev.ConvertDensity(pdf, v))
		vertex.AreaPdfForward = vertexPrev.convertSolidAngleToAreaPdf(&vertex, pdfDir)

		scatter, didScatter := hit.Material.Scatter(currentRay, *hit, sampler)
		if !didScatter {
			// Material absorbed the ray - add vertex and terminate path
			path.Vertices = append(path.Vertices, vertex)
			path.Length++
			break
		}

		vertex.IsSpecular = scatter.IsSpecular()
		pdfDir = scatter.PDF // PDF for the direction we scattered, also used in next bounce

		cosTheta := scatter.Scattered.Direction.AbsDot(hit.Normal)
		if scatter.IsSpecular() {
			// Deterministic reflection/refraction: no PDF division
			beta = beta.MultiplyVec(scatter.Attenuation)
		} else {
			beta = beta.MultiplyVec(scatter.Attenuation).Multiply(cosTheta / pdfDir)
		}

		pdfRev, isReverseDelta := hit.Material.PDF(scatter.Scattered.Direction, currentRay.Direction.Multiply(-1), hit.Normal)
		if isReverseDelta {
			vertex.IsSpecular = true
			pdfRev = 0.0
			pdfDir = 0.0
		}
		vertexPrev.AreaPdfReverse = vertex.convertSolidAngleToAreaPdf(vertexPrev, pdfRev)

		path.Vertices = append(path.Vertices, vertex)
		path.Length++

		currentRay = scatter.Scattered
	}
}

// evaluateBDPTStrategies evaluates all BDPT path construction strategies with MIS weighting.
//
// BDPT works by generating two subpaths:
// - Camera subpath: starts from camera, bounces through scene
// - Light subpath: starts from light sources, bounces through scene
//
// These can be connected in multiple ways to form complete light transport paths:
// - (s=0, t=n): Pure path tracing - camera path only
// - (s=1, t=n-1): Direct lighting - connect camera path to light
// - (s=n, t=1): Light tracing - connect light path directly to the camera lens, splatting
// - (s=2, t=n-2): One-bounce indirect - light bounces once before connecting
// - etc.
//
// Multiple Importance Sampling (MIS) optimally combines all strategies using
// the power heuristic to minimize variance.
func (bdpt *BDPTIntegrator) evaluateBDPTStrategies(strategies []bdptStrategy) (core.Vec3, []core.SplatRay) {
	totalContribution := core.Vec3{X: 0, Y: 0, Z: 0}
	var allSplatRays []core.SplatRay

	for _, strategy := range strategies {
		if strategy.t > 1 {
			bdpt.logf(" (s=%d,t=%d) evaluateBDPTStrategies: contribution=%v, weight=%0.3g\n", strategy.s, strategy.t, strategy.contribution, strategy.misWeight)
			totalContribution = totalContribution.Add(strategy.contribution.Multiply(strategy.misWeight))
		} else if strategy.t == 1 && len(strategy.splatRays) > 0 {
			for _, splatRay := range strategy.splatRays {
				weightedSplat := core.SplatRay{
					Ray:   splatRay.Ray,
					Color: splatRay.Color.Multiply(strategy.misWeight),
				}
				allSplatRays = append(allSplatRays, weightedSplat)
			}
		}
	}

	return totalContribution, allSplatRays
}

// generateBDPTStrategies generates all valid BDPT strategies for the given camera and light paths
func (bdpt *BDPTIntegrator) generateBDPTStrategies(cameraPath, lightPath *Path, sc *scene.Scene, sampler core.Sampler) []bdptStrategy {
	strategies := make([]bdptStrategy, 0)

	for s := 0; s <= lightPath.Length; s++ {
		for t := 1; t <= cameraPath.Length; t++ {
			if t == 1 {
				if s == 0 {
					continue // no light vertex to connect to the camera
				}
				splats, sampledVertex := bdpt.evaluateLightTracingStrategy(lightPath, s, sc, sampler)
				if len(splats) == 0 {
					continue
				}
				misWeight := bdpt.calculateMISWeight(cameraPath, lightPath, sampledVertex, s, t, sc)
				strategies = append(strategies, bdptStrategy{s: s, t: t, misWeight: misWeight, splatRays: splats})
				continue
			}

			var contribution core.Vec3
			var sampledVertex *Vertex

			switch {
			case s == 0:
				// s=0: Pure camera path
				contribution = bdpt.evaluatePathTracingStrategy(cameraPath, t)
			case s == 1:
				// s=1: Direct lighting, sampled via the light sampler rather than the
				// light subpath so we avoid picking a point on the wrong side of the light
				contribution, sampledVertex = bdpt.evaluateDirectLightingStrategy(cameraPath, s, t, sc, sampler)
			default:
				contribution = bdpt.evaluateConnectionStrategy(cameraPath, lightPath, s, t, sc)
			}

			if contribution.Luminance() > 0 {
				misWeight := bdpt.calculateMISWeight(cameraPath, lightPath, sampledVertex, s, t, sc)
				strategies = append(strategies, bdptStrategy{s: s, t: t, contribution: contribution, misWeight: misWeight})
			}
		}
	}

	return strategies
}

// evaluatePathTracingStrategy evaluates the BDPT path tracing strategy
// This is the camera-only path that accumulates radiance from surface emission and background
func (bdpt *BDPTIntegrator) evaluatePathTracingStrategy(cameraPath *Path, t int) core.Vec3 {
	if t == 0 || t < cameraPath.Length {
		return core.Vec3{X: 0, Y: 0, Z: 0}
	}

	lastVertex := &cameraPath.Vertices[t-1]
	contribution := lastVertex.EmittedLight.MultiplyVec(lastVertex.Beta)
	bdpt.logf(" (s=0,t=%d) evaluatePathTracingStrategy: contribution:%v = lastVertex.EmittedLight:%v * lastVertex.Beta:%v\n", t, contribution, lastVertex.EmittedLight, lastVertex.Beta)
	return contribution
}

// evaluateDirectLightingStrategy connects a camera path vertex to a freshly sampled
// point on a light (the s=1 strategy, PBRT's next-event estimation analogue within BDPT)
func (bdpt *BDPTIntegrator) evaluateDirectLightingStrategy(cameraPath *Path, s, t int, sc *scene.Scene, sampler core.Sampler) (core.Vec3, *Vertex) {
	if s != 1 {
		return core.Vec3{X: 0, Y: 0, Z: 0}, nil
	}

	cameraVertex := &cameraPath.Vertices[t-1]
	if cameraVertex.IsSpecular || cameraVertex.Material == nil {
		return core.Vec3{X: 0, Y: 0, Z: 0}, nil
	}

	if len(sc.Lights) == 0 {
		return core.Vec3{X: 0, Y: 0, Z: 0}, nil
	}
	sampledLight, lightSelectionPdf, lightIndex := sc.LightSampler.SampleLight(cameraVertex.Point, cameraVertex.Normal, sampler.Get1D())
	lightSample := sampledLight.Sample(cameraVertex.Point, cameraVertex.Normal, sampler.Get2D())
	lightSample.PDF *= lightSelectionPdf

	if lightSample.Emission.Luminance() <= 0 || lightSample.PDF <= 0 {
		return core.Vec3{X: 0, Y: 0, Z: 0}, nil
	}

	shadowRay := core.NewRay(cameraVertex.Point, lightSample.Direction)
	if sc.BVH.IntersectP(shadowRay, 0.001, lightSample.Distance-0.001) {
		return core.Vec3{X: 0, Y: 0, Z: 0}, nil
	}

	cosine := lightSample.Direction.Dot(cameraVertex.Normal)
	if cosine <= 0 {
		return core.Vec3{X: 0, Y: 0, Z: 0}, nil
	}

	brdf := cameraVertex.Material.EvaluateBRDF(cameraVertex.IncomingDirection, lightSample.Direction, cameraVertex.Hit, material.TransportRadiance)
	lightBeta := lightSample.Emission.Multiply(1 / lightSample.PDF)
	lightContribution := brdf.MultiplyVec(cameraVertex.Beta).MultiplyVec(lightBeta).Multiply(cosine)

	sampledVertex := &Vertex{
		Point:             lightSample.Point,
		Normal:            lightSample.Normal,
		Light:             sampledLight,
		LightIndex:        lightIndex,
		IncomingDirection: core.Vec3{X: 0, Y: 0, Z: 0},
		AreaPdfForward:    lightSample.PDF,
		AreaPdfReverse:    0.0,
		IsLight:           true,
		Beta:              lightBeta,
		EmittedLight:      lightSample.Emission,
	}

	bdpt.logf(" (s=%d,t=%d) evaluateDirectLightingStrategy: brdf=%v * beta=%v * emission=%v * (cosine=%f / pdf=%f)\n", s, t, brdf, cameraVertex.Beta, lightSample.Emission, cosine, lightSample.PDF)

	return lightContribution, sampledVertex
}

// evaluateLightTracingStrategy connects a light path vertex directly to the camera
// lens (the s, t=1 strategy). The resulting ray may land on a pixel other than the
// one currently being traced, so the contribution is returned as a splat.
func (bdpt *BDPTIntegrator) evaluateLightTracingStrategy(lightPath *Path, s int, sc *scene.Scene, sampler core.Sampler) ([]core.SplatRay, *Vertex) {
	if s < 1 || s > lightPath.Length || sc.Camera == nil {
		return nil, nil
	}

	lightVertex := &lightPath.Vertices[s-1]
	if lightVertex.IsSpecular || lightVertex.IsInfiniteLight {
		return nil, nil
	}

	cameraSample := sc.Camera.SampleCameraFromPoint(lightVertex.Point, sampler.Get2D())
	if cameraSample == nil {
		return nil, nil
	}

	toCameraDir := cameraSample.Ray.Direction.Multiply(-1)
	distance := cameraSample.Ray.Origin.Subtract(lightVertex.Point).Length()
	if distance < 0.001 {
		return nil, nil
	}

	cosAtLight := toCameraDir.Dot(lightVertex.Normal)
	if cosAtLight <= 0 {
		return nil, nil
	}

	if _, _, ok := sc.Camera.MapRayToPixel(cameraSample.Ray); !ok {
		return nil, nil
	}

	shadowRay := core.NewRay(lightVertex.Point, toCameraDir)
	if sc.BVH.IntersectP(shadowRay, 0.001, distance-0.001) {
		return nil, nil
	}

	var lightBRDF core.Vec3
	if lightVertex.IsLight {
		lightBRDF = core.NewVec3(1, 1, 1)
	} else {
		lightBRDF = bdpt.evaluateBRDF(lightVertex, toCameraDir)
	}

	// The lens area sample converts to a solid-angle density at the light vertex via
	// cosAtLight/distance^2; cameraSample.Weight already carries the sensor-side response.
	geometricTerm := cosAtLight / (distance * distance)
	contribution := lightVertex.Beta.MultiplyVec(lightBRDF).MultiplyVec(cameraSample.Weight).Multiply(geometricTerm / cameraSample.PDF)
	if contribution.Luminance() <= 0 {
		return nil, nil
	}

	bdpt.logf(" (s=%d,t=1) evaluateLightTracingStrategy: contribution=%v = beta=%v * lightBRDF=%v * We=%v * (cosAtLight=%f / dist2=%f / lensPdf=%f)\n", s, contribution, lightVertex.Beta, lightBRDF, cameraSample.Weight, cosAtLight, distance*distance, cameraSample.PDF)

	sampledVertex := &Vertex{
		Point:          cameraSample.Ray.Origin,
		Normal:         cameraSample.Normal,
		IsCamera:       true,
		AreaPdfForward: cameraSample.PDF,
		AreaPdfReverse: 0.0,
	}

	return []core.SplatRay{{Ray: cameraSample.Ray, Color: contribution}}, sampledVertex
}

// evaluateBRDF evaluates the BRDF at a vertex for a given outgoing direction
func (bdpt *BDPTIntegrator) evaluateBRDF(vertex *Vertex, outgoingDirection core.Vec3) core.Vec3 {
	if vertex.IsLight && vertex.Material == nil {
		// Light sources contribute their emission directly, not through a BRDF;
		// identity keeps the connection formula uniform for both vertex kinds.
		return core.Vec3{X: 1, Y: 1, Z: 1}
	}

	if vertex.Material == nil {
		return core.Vec3{X: 0, Y: 0, Z: 0}
	}

	return vertex.Material.EvaluateBRDF(vertex.IncomingDirection, outgoingDirection, vertex.Hit, material.TransportRadiance)
}

// evaluateConnectionStrategy computes the contribution from connecting two specific vertices.
//
// This implements the BDPT connection formula:
// L = f_camera(x) * G(x,y) * f_light(y) * T_camera * T_light
//
// Where:
// - f_camera(x): BRDF at camera vertex for connection direction
// - f_light(y): BRDF at light vertex for connection direction
// - G(x,y): geometric term = cos(θx) * cos(θy) / distance²
// - T_camera: accumulated throughput along camera subpath
// - T_light: accumulated throughput along light subpath
//
// The connection is only valid if both vertices are non-specular and
// there is an unoccluded line of sight between them.
func (bdpt *BDPTIntegrator) evaluateConnectionStrategy(cameraPath, lightPath *Path, s, t int, sc *scene.Scene) core.Vec3 {
	if s < 1 || t < 1 || s > lightPath.Length || t > cameraPath.Length {
		return core.Vec3{X: 0, Y: 0, Z: 0}
	}

	lightVertex := &lightPath.Vertices[s-1]
	cameraVertex := &cameraPath.Vertices[t-1]

	if lightVertex.IsSpecular || cameraVertex.IsSpecular {
		return core.Vec3{X: 0, Y: 0, Z: 0}
	}

	direction := lightVertex.Point.Subtract(cameraVertex.Point)
	distance := direction.Length()
	if distance < 0.001 {
		return core.Vec3{X: 0, Y: 0, Z: 0}
	}
	direction = direction.Multiply(1.0 / distance)

	shadowRay := core.NewRay(cameraVertex.Point, direction)
	if sc.BVH.IntersectP(shadowRay, 0.001, distance-0.001) {
		return core.Vec3{X: 0, Y: 0, Z: 0}
	}

	cosAtCamera := direction.Dot(cameraVertex.Normal)
	cosAtLight := direction.Multiply(-1).Dot(lightVertex.Normal)
	if cosAtCamera <= 0 || cosAtLight <= 0 {
		return core.Vec3{X: 0, Y: 0, Z: 0}
	}
	geometricTerm := (cosAtCamera * cosAtLight) / (distance * distance)

	cameraBRDF := bdpt.evaluateBRDF(cameraVertex, direction)

	cameraPathThroughput := cameraVertex.Beta
	lightPathThroughput := lightVertex.Beta

	var lightBRDF core.Vec3
	if lightVertex.IsLight {
		lightBRDF = core.NewVec3(1, 1, 1)
	} else {
		lightBRDF = bdpt.evaluateBRDF(lightVertex, direction.Multiply(-1))
	}

	bdpt.logf(" (s=%d,t=%d) evaluateConnectionStrategy: cameraBRDF=%v * lightBRDF=%v * G=%v * cameraThroughput=%v * lightThroughput=%v\n", s, t, cameraBRDF, lightBRDF, geometricTerm, cameraPathThroughput, lightPathThroughput)
	contribution := lightPathThroughput.MultiplyVec(lightBRDF).MultiplyVec(cameraBRDF).MultiplyVec(cameraPathThroughput).Multiply(geometricTerm)

	return contribution
}

func (bdpt *BDPTIntegrator) logf(format string, a ...interface{}) {
	if bdpt.Verbose {
		fmt.Printf(format, a...)
	}
}
