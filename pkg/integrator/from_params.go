package integrator

import (
	"fmt"

	"github.com/df07/go-progressive-raytracer/pkg/core"
	"github.com/df07/go-progressive-raytracer/pkg/scene"
)

// NewFromParams builds the named integrator, applying any tunables present
// in params on top of the original's defaults. The keys read are maxDepth
// (every kind), globalPhotons, lookupSize and globalLookupRadius (photon
// mapper, SPPM, VCM), luminanceSamples and pLarge (PSSMLT, MMLT) and
// maxError (hierarchical subsurface). causticsPhotons, volumetricPhotons,
// lookupRadius, causticsLookupRadius, volumetricLookupRadius and alpha are
// not read: there is no caustics or volumetric photon map, and the SPPM and
// VCM shrink rates are fixed constants. An unrecognized kind raises a
// RenderError wrapping ErrParamMissing; unknown param keys are ignored.
func NewFromParams(kind string, config scene.SamplingConfig, params core.RenderParams) (Integrator, error) {
	if maxDepth, ok := params.GetInt("maxDepth"); ok {
		config.MaxDepth = maxDepth
	}

	switch kind {
	case "path-tracing":
		return NewPathTracingIntegrator(config), nil

	case "direct-lighting":
		return NewDirectLightingIntegrator(config), nil

	case "bdpt":
		return NewBDPTIntegrator(config), nil

	case "photon-mapper":
		pi := NewPhotonMapperIntegrator(config)
		pi.CastPhotons = params.IntOr("globalPhotons", pi.CastPhotons)
		pi.GatherPhotons = params.IntOr("lookupSize", pi.GatherPhotons)
		pi.GatherRadius = params.FloatOr("globalLookupRadius", pi.GatherRadius)
		return pi, nil

	case "sppm":
		initialRadius := params.FloatOr("globalLookupRadius", 1.0)
		si := NewSPPMIntegrator(config, initialRadius)
		si.CastPhotons = params.IntOr("globalPhotons", si.CastPhotons)
		si.GatherPhotons = params.IntOr("lookupSize", si.GatherPhotons)
		return si, nil

	case "vcm":
		initialRadius := params.FloatOr("globalLookupRadius", 1.0)
		vi := NewVCMIntegrator(config, initialRadius)
		vi.CastPhotons = params.IntOr("globalPhotons", vi.CastPhotons)
		vi.GatherPhotons = params.IntOr("lookupSize", vi.GatherPhotons)
		return vi, nil

	case "pssmlt":
		pm := NewPSSMLTIntegrator(config)
		if n, ok := params.GetInt("luminanceSamples"); ok {
			pm.params.bootstrap = n
		}
		if p, ok := params.GetFloat("pLarge"); ok {
			pm.params.largeStepProb = p
		}
		return pm, nil

	case "mmlt":
		mm := NewMMLTIntegrator(config)
		if n, ok := params.GetInt("luminanceSamples"); ok {
			mm.params.bootstrap = n
		}
		if p, ok := params.GetFloat("pLarge"); ok {
			mm.params.largeStepProb = p
		}
		return mm, nil

	case "hierarchical-subsurface":
		hi := NewHierarchicalSubsurfaceIntegrator(config)
		hi.MaxError = params.FloatOr("maxError", hi.MaxError)
		return hi, nil

	default:
		return nil, core.NewRenderError(core.ErrParamMissing, fmt.Sprintf("unknown integrator kind %q", kind), nil)
	}
}
