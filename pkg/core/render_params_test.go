package core

import (
	"errors"
	"testing"
)

func TestRenderParamsGetters(t *testing.T) {
	p := RenderParams{
		"maxDepth":   10,
		"pLarge":     0.3,
		"scene":      "cornell",
		"verbose":    true,
		"background": NewSpectrum(0.5),
	}

	if v, ok := p.GetInt("maxDepth"); !ok || v != 10 {
		t.Errorf("GetInt(maxDepth) = %v, %v; want 10, true", v, ok)
	}
	if v, ok := p.GetFloat("pLarge"); !ok || v != 0.3 {
		t.Errorf("GetFloat(pLarge) = %v, %v; want 0.3, true", v, ok)
	}
	if v, ok := p.GetString("scene"); !ok || v != "cornell" {
		t.Errorf("GetString(scene) = %v, %v; want cornell, true", v, ok)
	}
	if v, ok := p.GetBool("verbose"); !ok || !v {
		t.Errorf("GetBool(verbose) = %v, %v; want true, true", v, ok)
	}
	if v, ok := p.GetSpectrum("background"); !ok || v != NewSpectrum(0.5) {
		t.Errorf("GetSpectrum(background) = %v, %v; want 0.5 gray, true", v, ok)
	}

	if _, ok := p.GetInt("missing"); ok {
		t.Error("GetInt(missing) should report ok=false")
	}
	if _, ok := p.GetInt("pLarge"); ok {
		t.Error("GetInt(pLarge) should report ok=false on type mismatch")
	}
}

func TestRenderParamsRequireMissingRaisesParamMissing(t *testing.T) {
	p := RenderParams{}

	_, err := p.RequireInt("globalPhotons")
	if err == nil {
		t.Fatal("expected an error for a missing required param")
	}
	if !IsKind(err, ErrParamMissing) {
		t.Errorf("expected ErrParamMissing, got %v", err)
	}

	var re *RenderError
	if !errors.As(err, &re) {
		t.Fatalf("expected errors.As to unwrap a *RenderError, got %T", err)
	}
	if re.Kind != ErrParamMissing {
		t.Errorf("Kind = %v, want ErrParamMissing", re.Kind)
	}
}

func TestRenderParamsOrFallsBackToDefault(t *testing.T) {
	p := RenderParams{"alpha": 0.8}

	if v := p.FloatOr("alpha", 0.7); v != 0.8 {
		t.Errorf("FloatOr(alpha) = %v, want 0.8 (present)", v)
	}
	if v := p.FloatOr("missing", 0.7); v != 0.7 {
		t.Errorf("FloatOr(missing) = %v, want 0.7 (default)", v)
	}
	if v := p.IntOr("missing", 42); v != 42 {
		t.Errorf("IntOr(missing) = %v, want 42 (default)", v)
	}
}

func TestRenderErrorUnwrapAndMessage(t *testing.T) {
	inner := errors.New("lookup failed")
	re := NewRenderError(ErrSceneInvariant, "light pdfLightOrigin", inner)

	if !errors.Is(re, inner) {
		t.Error("errors.Is should see through RenderError to the wrapped error")
	}
	if re.Error() == "" {
		t.Error("Error() should not be empty")
	}
	if !IsKind(re, ErrSceneInvariant) {
		t.Error("IsKind should match the error's own kind")
	}
	if IsKind(re, ErrNumeric) {
		t.Error("IsKind should not match a different kind")
	}
	if IsKind(inner, ErrNumeric) {
		t.Error("IsKind should report false for a plain error")
	}
}
