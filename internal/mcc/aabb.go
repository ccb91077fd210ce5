package mcc

import (
	"fmt"
	"math"
)

// AABB holds one axis-aligned bounding box per batch item, packed as
// batchSize×3 min and max corners. Min ≤ Max componentwise on every axis;
// a single-point item yields Min == Max.
type AABB struct {
	Min []float32
	Max []float32
}

// BatchSize returns the number of batch items covered by the boxes.
func (b AABB) BatchSize() int { return len(b.Min) / 3 }

// Extent returns the largest axis length of the box for one batch item.
func (b AABB) Extent(item int) float32 {
	e := b.Max[item*3] - b.Min[item*3]
	for a := 1; a < 3; a++ {
		if d := b.Max[item*3+a] - b.Min[item*3+a]; d > e {
			e = d
		}
	}
	return e
}

// ComputeAABB reduces the componentwise (min, max) of every batch item over
// a flat N×3 point buffer. With scaleInvariant set, each box is expanded to
// a cube centered on the original box so downstream cell sizing stays
// isotropic across batch items of different aspect ratio.
func ComputeAABB(points []float32, batchIds []int32, batchSize int, scaleInvariant bool) (AABB, error) {
	n := len(batchIds)
	if batchSize < 1 {
		return AABB{}, fmt.Errorf("%w: batch size %d", ErrInvalidInput, batchSize)
	}
	if len(points) != n*3 {
		return AABB{}, fmt.Errorf("%w: %d points for %d batch ids", ErrInvalidInput, len(points), n)
	}

	box := AABB{
		Min: make([]float32, batchSize*3),
		Max: make([]float32, batchSize*3),
	}
	counts := make([]int, batchSize)
	for i := range box.Min {
		box.Min[i] = float32(math.Inf(1))
		box.Max[i] = float32(math.Inf(-1))
	}

	for i := 0; i < n; i++ {
		b := batchIds[i]
		if b < 0 || int(b) >= batchSize {
			return AABB{}, fmt.Errorf("%w: batch id %d out of range [0,%d)", ErrInvalidInput, b, batchSize)
		}
		counts[b]++
		for a := 0; a < 3; a++ {
			v := points[i*3+a]
			if v < box.Min[int(b)*3+a] {
				box.Min[int(b)*3+a] = v
			}
			if v > box.Max[int(b)*3+a] {
				box.Max[int(b)*3+a] = v
			}
		}
	}

	for b, c := range counts {
		if c == 0 {
			return AABB{}, fmt.Errorf("%w: batch item %d has no points", ErrDegenerateGeometry, b)
		}
	}

	if scaleInvariant {
		for b := 0; b < batchSize; b++ {
			half := box.Extent(b) / 2
			for a := 0; a < 3; a++ {
				center := (box.Min[b*3+a] + box.Max[b*3+a]) / 2
				box.Min[b*3+a] = center - half
				box.Max[b*3+a] = center + half
			}
		}
	}

	return box, nil
}
