package mcc

import (
	"fmt"
	"math"
)

// DensityKernel selects the falloff applied to neighbor distances during
// density estimation.
type DensityKernel uint8

const (
	// KernelUniform counts every neighbor inside the bandwidth equally.
	KernelUniform DensityKernel = iota
	// KernelSmooth weights neighbors by the Epanechnikov profile
	// 1 − (d/h)², tapering smoothly to zero at the bandwidth.
	KernelSmooth
)

// DefaultKDEWindow is the default density bandwidth as a fraction of the
// neighbor search radius.
const DefaultKDEWindow = 0.25

// EstimateDensity turns a neighbor relation into a calibrated local sample
// density per query point: the (optionally kernel-weighted) neighbor mass
// divided by the bandwidth ball volume (4/3)πh³. The bandwidth h is
// window × search radius, per batch item. A query with no neighbors inside
// the bandwidth gets density 0; consumers guard that with a density floor.
// Deterministic given identical neighbor lists.
func EstimateDensity(n *Neighbors, window float32, kernel DensityKernel) ([]float32, error) {
	if window <= 0 {
		return nil, fmt.Errorf("%w: KDE window %g", ErrInvalidInput, window)
	}

	q := n.NumQueries()
	density := make([]float32, q)
	parallelFor(q, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			h := window * n.Radius(i)
			h2 := h * h
			volume := float32(4.0 / 3.0 * math.Pi * float64(h) * float64(h) * float64(h))
			var mass float32
			for e := n.Start[i]; e < n.Start[i+1]; e++ {
				d2 := n.SqDist[e]
				if d2 > h2 {
					continue
				}
				switch kernel {
				case KernelSmooth:
					mass += 1 - d2/h2
				default:
					mass++
				}
			}
			density[i] = mass / volume
		}
	})

	return density, nil
}
