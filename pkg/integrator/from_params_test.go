package integrator

import (
	"testing"

	"github.com/df07/go-progressive-raytracer/pkg/core"
	"github.com/df07/go-progressive-raytracer/pkg/scene"
)

func TestNewFromParamsUnknownKindIsParamMissing(t *testing.T) {
	_, err := NewFromParams("not-a-real-integrator", scene.SamplingConfig{MaxDepth: 5}, core.RenderParams{})
	if err == nil {
		t.Fatal("expected an error for an unknown integrator kind")
	}
	if !core.IsKind(err, core.ErrParamMissing) {
		t.Errorf("expected ErrParamMissing, got %v", err)
	}
}

func TestNewFromParamsAppliesOverrides(t *testing.T) {
	config := scene.SamplingConfig{MaxDepth: 5}

	integ, err := NewFromParams("photon-mapper", config, core.RenderParams{
		"globalPhotons":      1000,
		"lookupSize":         25,
		"globalLookupRadius": 0.5,
	})
	if err != nil {
		t.Fatalf("NewFromParams returned an error: %v", err)
	}
	pm, ok := integ.(*PhotonMapperIntegrator)
	if !ok {
		t.Fatalf("expected *PhotonMapperIntegrator, got %T", integ)
	}
	if pm.CastPhotons != 1000 || pm.GatherPhotons != 25 || pm.GatherRadius != 0.5 {
		t.Errorf("overrides not applied: %+v", pm)
	}
}

func TestNewFromParamsMaxDepthOverride(t *testing.T) {
	integ, err := NewFromParams("path-tracing", scene.SamplingConfig{MaxDepth: 5}, core.RenderParams{"maxDepth": 20})
	if err != nil {
		t.Fatalf("NewFromParams returned an error: %v", err)
	}
	pt, ok := integ.(*PathTracingIntegrator)
	if !ok {
		t.Fatalf("expected *PathTracingIntegrator, got %T", integ)
	}
	if pt.config.MaxDepth != 20 {
		t.Errorf("config.MaxDepth = %d, want 20", pt.config.MaxDepth)
	}
}

func TestNewFromParamsRaysColorSmoke(t *testing.T) {
	sc := createTestScene()
	integ, err := NewFromParams("hierarchical-subsurface", sc.SamplingConfig, core.RenderParams{"maxError": 0.1})
	if err != nil {
		t.Fatalf("NewFromParams returned an error: %v", err)
	}
	hi, ok := integ.(*HierarchicalSubsurfaceIntegrator)
	if !ok {
		t.Fatalf("expected *HierarchicalSubsurfaceIntegrator, got %T", integ)
	}
	if hi.MaxError != 0.1 {
		t.Errorf("MaxError = %v, want 0.1", hi.MaxError)
	}
}
