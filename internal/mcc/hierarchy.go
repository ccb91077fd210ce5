package mcc

import (
	"fmt"

	"github.com/google/uuid"
)

// Level is one resolution of a point hierarchy. Level 0 is the input
// cloud; each further level is the Poisson-disk subset of the level below.
type Level struct {
	Points   []float32 // n×3
	BatchIDs []int32   // n
	Features []float32 // n×width
	Radius   float32   // Poisson radius used to build this level; 0 for level 0
	// SampledFrom holds, for levels > 0, the indices into the previous
	// level that were accepted, in insertion order.
	SampledFrom []int32
}

// NumPoints returns the point count of the level.
func (l *Level) NumPoints() int { return len(l.BatchIDs) }

// Hierarchy is a multi-resolution point cloud pyramid built by repeated
// Poisson-disk sampling. The name doubles as the identity under which
// spatial results are cached across convolution layers.
type Hierarchy struct {
	Name      string
	BatchSize int
	Width     int // feature channels per point
	Relative  bool
	Box       AABB
	Levels    []Level
}

// HierarchyOptions configures hierarchy construction.
type HierarchyOptions struct {
	// Name identifies the hierarchy in cache keys; a random one is
	// generated when empty.
	Name string
	// Relative interprets the radii as fractions of each batch item's
	// bounding-box extent, with scale-invariant (cubic) boxes.
	Relative bool
}

// DefaultHierarchyOptions matches the original builder defaults:
// relative radii, generated name.
func DefaultHierarchyOptions() HierarchyOptions {
	return HierarchyOptions{Relative: true}
}

// BuildHierarchy computes the bounding boxes of the input cloud and then
// derives one coarser level per radius: distribute the current level into
// a grid at cell size = radius, Poisson-sample it, and gather the
// surviving points, batch ids and features.
func BuildHierarchy(points []float32, batchIds []int32, features []float32, width int,
	batchSize int, radii []float32, opts HierarchyOptions) (*Hierarchy, error) {

	if width < 1 || len(features) != len(batchIds)*width {
		return nil, fmt.Errorf("%w: feature buffer %d does not match %d points of width %d",
			ErrInvalidInput, len(features), len(batchIds), width)
	}
	for _, r := range radii {
		if r <= 0 {
			return nil, fmt.Errorf("%w: hierarchy radius %g", ErrInvalidInput, r)
		}
	}

	box, err := ComputeAABB(points, batchIds, batchSize, opts.Relative)
	if err != nil {
		return nil, err
	}

	name := opts.Name
	if name == "" {
		name = uuid.NewString()
	}
	h := &Hierarchy{
		Name:      name,
		BatchSize: batchSize,
		Width:     width,
		Relative:  opts.Relative,
		Box:       box,
		Levels: []Level{{
			Points:   points,
			BatchIDs: batchIds,
			Features: features,
		}},
	}

	for _, radius := range radii {
		cur := &h.Levels[len(h.Levels)-1]
		grid, err := BuildGrid(cur.Points, cur.BatchIDs, box, radius, opts.Relative)
		if err != nil {
			return nil, err
		}
		sampled, err := PoissonSample(grid, radius, nil)
		if err != nil {
			return nil, err
		}
		h.Levels = append(h.Levels, Level{
			Points:      GatherRows(cur.Points, 3, sampled),
			BatchIDs:    GatherInt32(cur.BatchIDs, sampled),
			Features:    GatherRows(cur.Features, width, sampled),
			Radius:      radius,
			SampledFrom: sampled,
		})
	}

	return h, nil
}

// GatherRows picks the given rows out of a flat row-major buffer.
func GatherRows(data []float32, width int, indices []int32) []float32 {
	out := make([]float32, len(indices)*width)
	for i, idx := range indices {
		copy(out[i*width:(i+1)*width], data[int(idx)*width:int(idx+1)*width])
	}
	return out
}

// GatherInt32 picks the given entries out of an int32 buffer.
func GatherInt32(data []int32, indices []int32) []int32 {
	out := make([]int32, len(indices))
	for i, idx := range indices {
		out[i] = data[idx]
	}
	return out
}
