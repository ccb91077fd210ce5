package mcc

import "fmt"

// KernelFunc evaluates the continuous convolution kernel at a relative
// offset normalized by the search radius, writing one weight per feature
// channel into out. Implementations must be pure: no internal state, same
// output for the same offset. The core never cares how the weights were
// produced; a closed-form function and an externally evaluated MLP lookup
// are equally fine.
type KernelFunc func(dx, dy, dz float32, out []float32)

// DefaultDensityFloor is the minimum density used in the importance
// compensation divide, guarding zero-density source points.
const DefaultDensityFloor = 1e-6

// ConvOptions configures the Monte Carlo convolution reduction.
type ConvOptions struct {
	// DensityFloor clamps the density a neighbor's contribution is divided
	// by. A neighbor with estimated density 0 is treated as having this
	// density instead.
	DensityFloor float32
	// UseAverage divides each output by its neighbor count, turning the
	// sum into a Monte Carlo mean.
	UseAverage bool
}

// DefaultConvOptions returns the documented defaults: averaging on,
// density floor DefaultDensityFloor.
func DefaultConvOptions() ConvOptions {
	return ConvOptions{DensityFloor: DefaultDensityFloor, UseAverage: true}
}

// Convolve aggregates source features into one output row per query of the
// neighbor relation:
//
//	out[t] = (1/|N(t)|) · Σ_i K(offset(t,sᵢ)/r) ⊙ feat[sᵢ] / max(density[sᵢ], floor)
//
// The per-neighbor division by density is the importance-sampling
// correction that keeps the estimator unbiased under non-uniform sampling.
// Passing a nil density skips compensation entirely (every sample weighted
// evenly), matching callers that precompute uniform densities.
//
// Each target row is an independent reduction; rows are processed in
// parallel with no shared writes. Every neighbor contributes exactly once.
func Convolve(n *Neighbors, features []float32, width int, density []float32, kernel KernelFunc, opts ConvOptions) ([]float32, error) {
	if width < 1 {
		return nil, fmt.Errorf("%w: feature width %d", ErrInvalidInput, width)
	}
	if len(features)%width != 0 {
		return nil, fmt.Errorf("%w: feature buffer %d not divisible by width %d", ErrInvalidInput, len(features), width)
	}
	if kernel == nil {
		return nil, fmt.Errorf("%w: nil kernel function", ErrInvalidInput)
	}
	numSources := len(features) / width
	if density != nil && len(density) != numSources {
		return nil, fmt.Errorf("%w: %d density values for %d source points", ErrInvalidInput, len(density), numSources)
	}
	for _, s := range n.Index {
		if int(s) >= numSources {
			return nil, fmt.Errorf("%w: neighbor index %d beyond %d feature rows", ErrInvalidInput, s, numSources)
		}
	}
	floor := opts.DensityFloor
	if floor <= 0 {
		floor = DefaultDensityFloor
	}

	q := n.NumQueries()
	out := make([]float32, q*width)
	parallelFor(q, func(lo, hi int) {
		weights := make([]float32, width)
		for t := lo; t < hi; t++ {
			row := out[t*width : (t+1)*width]
			r := n.Radius(t)
			for e := n.Start[t]; e < n.Start[t+1]; e++ {
				s := n.Index[e]
				kernel(n.Offset[e*3]/r, n.Offset[e*3+1]/r, n.Offset[e*3+2]/r, weights)
				inv := float32(1)
				if density != nil {
					inv = 1 / max(density[s], floor)
				}
				feat := features[int(s)*width : int(s+1)*width]
				for c := 0; c < width; c++ {
					row[c] += weights[c] * feat[c] * inv
				}
			}
			if cnt := n.Count(t); opts.UseAverage && cnt > 0 {
				scale := 1 / float32(cnt)
				for c := range row {
					row[c] *= scale
				}
			}
		}
	})

	return out, nil
}
