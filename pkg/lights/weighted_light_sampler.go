package lights

import (
	"fmt"

	"github.com/df07/go-progressive-raytracer/pkg/core"
)

// WeightedLightSampler implements light sampling with user-specified weights.
// Weights must match the order of lights in the scene's Lights array.
type WeightedLightSampler struct {
	lights      []Light
	weights     []float64
	sceneRadius float64
}

// NewWeightedLightSampler creates a light sampler with specified weights.
// weights must have the same length as lights and will be normalized to sum to 1.0.
func NewWeightedLightSampler(lights []Light, weights []float64, sceneRadius float64) *WeightedLightSampler {
	if len(lights) != len(weights) {
		panic(fmt.Sprintf("lights length (%d) must match weights length (%d)", len(lights), len(weights)))
	}

	normalizedWeights := make([]float64, len(weights))
	totalWeight := 0.0
	for _, weight := range weights {
		if weight < 0 {
			panic("weights must be non-negative")
		}
		totalWeight += weight
	}

	if totalWeight == 0 {
		uniformWeight := 1.0 / float64(len(weights))
		for i := range normalizedWeights {
			normalizedWeights[i] = uniformWeight
		}
	} else {
		for i, weight := range weights {
			normalizedWeights[i] = weight / totalWeight
		}
	}

	return &WeightedLightSampler{
		lights:      lights,
		weights:     normalizedWeights,
		sceneRadius: sceneRadius,
	}
}

// NewUniformLightSampler creates a light sampler with equal weights for all lights.
func NewUniformLightSampler(lights []Light, sceneRadius float64) *WeightedLightSampler {
	if len(lights) == 0 {
		return &WeightedLightSampler{
			lights:      lights,
			weights:     []float64{},
			sceneRadius: sceneRadius,
		}
	}

	uniformWeight := 1.0 / float64(len(lights))
	weights := make([]float64, len(lights))
	for i := range weights {
		weights[i] = uniformWeight
	}

	return &WeightedLightSampler{
		lights:      lights,
		weights:     weights,
		sceneRadius: sceneRadius,
	}
}

// SampleLight selects a light using the fixed weights, independent of surface point.
func (wls *WeightedLightSampler) SampleLight(point core.Vec3, normal core.Vec3, u float64) (Light, float64, int) {
	if len(wls.lights) == 0 {
		return nil, 0.0, -1
	}

	var cumulativeProbability float64
	for i := 0; i < len(wls.lights); i++ {
		cumulativeProbability += wls.weights[i]
		if u <= cumulativeProbability {
			return wls.lights[i], wls.weights[i], i
		}
	}

	lastIdx := len(wls.lights) - 1
	return wls.lights[lastIdx], wls.weights[lastIdx], lastIdx
}

// SampleLightEmission selects a light using the fixed weights for emission sampling.
func (wls *WeightedLightSampler) SampleLightEmission(u float64) (Light, float64, int) {
	if len(wls.lights) == 0 {
		return nil, 0.0, -1
	}

	var cumulativeProbability float64
	for i := 0; i < len(wls.lights); i++ {
		cumulativeProbability += wls.weights[i]
		if u <= cumulativeProbability {
			return wls.lights[i], wls.weights[i], i
		}
	}

	lastIdx := len(wls.lights) - 1
	return wls.lights[lastIdx], wls.weights[lastIdx], lastIdx
}

// GetLightProbability returns the fixed probability for the light at the given index.
func (wls *WeightedLightSampler) GetLightProbability(lightIndex int, point core.Vec3, normal core.Vec3) float64 {
	if lightIndex < 0 || lightIndex >= len(wls.weights) {
		return 0.0
	}
	return wls.weights[lightIndex]
}

// GetLightCount returns the number of lights in this sampler.
func (wls *WeightedLightSampler) GetLightCount() int {
	return len(wls.lights)
}

// String returns a string representation for debugging.
func (wls *WeightedLightSampler) String() string {
	if len(wls.lights) == 0 {
		return "WeightedLightSampler{no lights}"
	}

	result := fmt.Sprintf("WeightedLightSampler{%d lights with fixed weights:\n", len(wls.lights))
	for i, light := range wls.lights {
		result += fmt.Sprintf("  [%d] %s: %.1f%%\n", i, light.Type(), wls.weights[i]*100)
	}
	result += "}"
	return result
}
