package mcc

import (
	"fmt"

	"github.com/chuyiting/pointconv/internal/tensor"
)

// This file is the operation surface for callers holding raw numeric
// buffers rather than Go slices. Each op validates element types, device
// consistency and shapes up front, dispatches to the slice-level core and
// wraps the newly allocated outputs on the caller's device. Nothing is
// retried or partially written: an op either fully succeeds or fails
// before any work begins.

// pointsFromBuffer validates an N×K float32 point buffer (K ≥ 3) and
// returns a stride-3 xyz slice, copying only when extra components must
// be dropped.
func pointsFromBuffer(points *tensor.Buffer) ([]float32, int, error) {
	data, err := points.Float32s()
	if err != nil {
		return nil, 0, err
	}
	if len(points.Shape()) != 2 {
		return nil, 0, fmt.Errorf("%w: points must have 2 dimensions, have %d", ErrInvalidInput, len(points.Shape()))
	}
	n, k := points.Dim(0), points.Dim(1)
	if k < 3 {
		return nil, 0, fmt.Errorf("%w: points need at least 3 components, have %d", ErrInvalidInput, k)
	}
	if k == 3 {
		return data, n, nil
	}
	xyz := make([]float32, n*3)
	for i := 0; i < n; i++ {
		copy(xyz[i*3:i*3+3], data[i*k:i*k+3])
	}
	return xyz, n, nil
}

// idsFromBuffer validates an int32 id buffer of shape (N) or (N,1).
func idsFromBuffer(ids *tensor.Buffer, n int) ([]int32, error) {
	data, err := ids.Int32s()
	if err != nil {
		return nil, err
	}
	shape := ids.Shape()
	switch {
	case len(shape) == 1 && shape[0] == n:
	case len(shape) == 2 && shape[0] == n && shape[1] == 1:
	default:
		return nil, fmt.Errorf("%w: batch ids must have shape (%d) or (%d,1), have %v", ErrInvalidInput, n, n, shape)
	}
	return data, nil
}

// aabbFromBuffers validates a (B,3) min/max pair and rebuilds the AABB.
func aabbFromBuffers(aabbMin, aabbMax *tensor.Buffer) (AABB, error) {
	minData, err := aabbMin.Float32s()
	if err != nil {
		return AABB{}, err
	}
	maxData, err := aabbMax.Float32s()
	if err != nil {
		return AABB{}, err
	}
	if len(aabbMin.Shape()) != 2 || aabbMin.Dim(1) != 3 ||
		len(aabbMax.Shape()) != 2 || aabbMax.Dim(1) != 3 ||
		aabbMin.Dim(0) != aabbMax.Dim(0) {
		return AABB{}, fmt.Errorf("%w: aabb buffers must both have shape (B,3), have %v and %v",
			ErrInvalidInput, aabbMin.Shape(), aabbMax.Shape())
	}
	return AABB{Min: minData, Max: maxData}, nil
}

func mustFloat32(dev tensor.Device, shape []int, data []float32) *tensor.Buffer {
	b, err := tensor.NewFloat32(dev, shape, data)
	if err != nil {
		panic(err) // shapes are computed from the data lengths above
	}
	return b
}

func mustInt32(dev tensor.Device, shape []int, data []int32) *tensor.Buffer {
	b, err := tensor.NewInt32(dev, shape, data)
	if err != nil {
		panic(err)
	}
	return b
}

// ComputeAABBOp computes per-batch-item bounding boxes, returned as (B,3)
// min and max buffers.
func ComputeAABBOp(points, batchIds *tensor.Buffer, batchSize int, scaleInvariant bool) (*tensor.Buffer, *tensor.Buffer, error) {
	if err := tensor.SameDevice(points, batchIds); err != nil {
		return nil, nil, err
	}
	pts, n, err := pointsFromBuffer(points)
	if err != nil {
		return nil, nil, err
	}
	ids, err := idsFromBuffer(batchIds, n)
	if err != nil {
		return nil, nil, err
	}
	box, err := ComputeAABB(pts, ids, batchSize, scaleInvariant)
	if err != nil {
		return nil, nil, err
	}
	dev := points.Device()
	return mustFloat32(dev, []int{batchSize, 3}, box.Min), mustFloat32(dev, []int{batchSize, 3}, box.Max), nil
}

// SortPointsOp distributes points into the uniform grid and returns the
// sorted permutation (N) and the cell-start-offset table (numCells+1).
func SortPointsOp(points, batchIds, aabbMin, aabbMax *tensor.Buffer, cellSize float32, relative bool) (*tensor.Buffer, *tensor.Buffer, error) {
	if err := tensor.SameDevice(points, batchIds, aabbMin, aabbMax); err != nil {
		return nil, nil, err
	}
	g, err := gridFromBuffers(points, batchIds, aabbMin, aabbMax, cellSize, relative)
	if err != nil {
		return nil, nil, err
	}
	dev := points.Device()
	return mustInt32(dev, []int{len(g.Perm)}, g.Perm), mustInt32(dev, []int{len(g.Offsets)}, g.Offsets), nil
}

func gridFromBuffers(points, batchIds, aabbMin, aabbMax *tensor.Buffer, cellSize float32, relative bool) (*Grid, error) {
	pts, n, err := pointsFromBuffer(points)
	if err != nil {
		return nil, err
	}
	ids, err := idsFromBuffer(batchIds, n)
	if err != nil {
		return nil, err
	}
	box, err := aabbFromBuffers(aabbMin, aabbMax)
	if err != nil {
		return nil, err
	}
	return BuildGrid(pts, ids, box, cellSize, relative)
}

// FindNeighborsOp runs the radius search of queries against points and
// returns the ragged neighbor relation as four flat buffers: per-query
// starts (Q+1), neighbor indices (M), relative offsets (M,3) and squared
// distances (M).
func FindNeighborsOp(queries, queryIds, points, batchIds, aabbMin, aabbMax *tensor.Buffer,
	radius float32, relative, excludeSelf bool) (*tensor.Buffer, *tensor.Buffer, *tensor.Buffer, *tensor.Buffer, error) {

	if err := tensor.SameDevice(queries, queryIds, points, batchIds, aabbMin, aabbMax); err != nil {
		return nil, nil, nil, nil, err
	}
	g, err := gridFromBuffers(points, batchIds, aabbMin, aabbMax, radius, relative)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	qpts, qn, err := pointsFromBuffer(queries)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	qids, err := idsFromBuffer(queryIds, qn)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	nb, err := FindNeighbors(g, qpts, qids, radius, NeighborOptions{ExcludeSelf: excludeSelf})
	if err != nil {
		return nil, nil, nil, nil, err
	}
	dev := queries.Device()
	m := len(nb.Index)
	return mustInt32(dev, []int{len(nb.Start)}, nb.Start),
		mustInt32(dev, []int{m}, nb.Index),
		mustFloat32(dev, []int{m, 3}, nb.Offset),
		mustFloat32(dev, []int{m}, nb.SqDist), nil
}

// ComputePDFOp estimates the local sample density of every point against
// its own cloud, returned as an (N) buffer.
func ComputePDFOp(points, batchIds, aabbMin, aabbMax *tensor.Buffer,
	radius, window float32, relative bool, kernel DensityKernel) (*tensor.Buffer, error) {

	if err := tensor.SameDevice(points, batchIds, aabbMin, aabbMax); err != nil {
		return nil, err
	}
	g, err := gridFromBuffers(points, batchIds, aabbMin, aabbMax, radius, relative)
	if err != nil {
		return nil, err
	}
	nb, err := FindNeighbors(g, g.Points(), g.BatchIDs(), radius, NeighborOptions{})
	if err != nil {
		return nil, err
	}
	density, err := EstimateDensity(nb, window, kernel)
	if err != nil {
		return nil, err
	}
	return mustFloat32(points.Device(), []int{len(density)}, density), nil
}

// PoissonSamplingOp selects the blue-noise subset at the given radius and
// returns the accepted original point indices in traversal order.
func PoissonSamplingOp(points, batchIds, aabbMin, aabbMax *tensor.Buffer, radius float32, relative bool) (*tensor.Buffer, error) {
	if err := tensor.SameDevice(points, batchIds, aabbMin, aabbMax); err != nil {
		return nil, err
	}
	g, err := gridFromBuffers(points, batchIds, aabbMin, aabbMax, radius, relative)
	if err != nil {
		return nil, err
	}
	sampled, err := PoissonSample(g, radius, nil)
	if err != nil {
		return nil, err
	}
	return mustInt32(points.Device(), []int{len(sampled)}, sampled), nil
}

// SpatialConvOp runs the full Monte Carlo convolution of source features
// onto query points: grid build, neighbor search, then the density
// compensated kernel reduction. density may be nil to skip compensation.
// The output has one feature row per query.
func SpatialConvOp(points, batchIds, features, queries, queryIds, aabbMin, aabbMax, density *tensor.Buffer,
	radius float32, relative bool, kernel KernelFunc, opts ConvOptions) (*tensor.Buffer, error) {

	bufs := []*tensor.Buffer{points, batchIds, features, queries, queryIds, aabbMin, aabbMax}
	if density != nil {
		bufs = append(bufs, density)
	}
	if err := tensor.SameDevice(bufs...); err != nil {
		return nil, err
	}

	g, err := gridFromBuffers(points, batchIds, aabbMin, aabbMax, radius, relative)
	if err != nil {
		return nil, err
	}
	feats, err := features.Float32s()
	if err != nil {
		return nil, err
	}
	if len(features.Shape()) != 2 || features.Dim(0) != g.NumPoints() {
		return nil, fmt.Errorf("%w: features must have shape (%d,C), have %v", ErrInvalidInput, g.NumPoints(), features.Shape())
	}
	width := features.Dim(1)

	qpts, qn, err := pointsFromBuffer(queries)
	if err != nil {
		return nil, err
	}
	qids, err := idsFromBuffer(queryIds, qn)
	if err != nil {
		return nil, err
	}
	nb, err := FindNeighbors(g, qpts, qids, radius, NeighborOptions{})
	if err != nil {
		return nil, err
	}

	var dens []float32
	if density != nil {
		dens, err = density.Float32s()
		if err != nil {
			return nil, err
		}
	}

	out, err := Convolve(nb, feats, width, dens, kernel, opts)
	if err != nil {
		return nil, err
	}
	return mustFloat32(points.Device(), []int{qn, width}, out), nil
}
