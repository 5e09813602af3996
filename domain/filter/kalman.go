// Package filter smooths noisy detector output with scalar Kalman estimators.
package filter

// ScalarKalman is a constant-position Kalman filter over a single value.
// The zero value is not usable; construct with NewScalarKalman.
type ScalarKalman struct {
	processVariance     float64
	measurementVariance float64
	estimate            float64
	estimateError       float64
	initialized         bool
}

// NewScalarKalman returns a filter with the given process (q) and measurement (r)
// variances. A smaller q relative to r smooths harder and responds slower.
func NewScalarKalman(q, r float64) *ScalarKalman {
	return &ScalarKalman{processVariance: q, measurementVariance: r, estimateError: 1}
}

// Update folds a measurement into the estimate and returns the new estimate.
// The first measurement is returned unchanged.
func (k *ScalarKalman) Update(measurement float64) float64 {
	if !k.initialized {
		k.estimate = measurement
		k.initialized = true
		return k.estimate
	}
	predErr := k.estimateError + k.processVariance
	gain := predErr / (predErr + k.measurementVariance)
	k.estimate += gain * (measurement - k.estimate)
	k.estimateError = (1 - gain) * predErr
	return k.estimate
}

// Reset forgets the estimate.
func (k *ScalarKalman) Reset() {
	k.estimate = 0
	k.estimateError = 1
	k.initialized = false
}

// Estimate returns the current estimate and whether one exists.
func (k *ScalarKalman) Estimate() (float64, bool) { return k.estimate, k.initialized }

func (k *ScalarKalman) EstimateError() float64 { return k.estimateError }
