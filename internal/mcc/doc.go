// Package mcc implements the spatial-geometry core for Monte Carlo
// convolutions over unordered, non-uniformly sampled 3D point sets.
//
// Responsibilities: per-batch bounding boxes, grid-based spatial sorting,
// radius neighbor search, kernel density estimation, Poisson-disk sampling,
// and the convolution aggregation itself. Key types: AABB, Grid, Neighbors,
// Hierarchy.
//
// Every structure is built, used, and discarded within one call; the
// package holds no state between invocations. Kernel weights are supplied
// by the caller; nothing in here is learned.
//
// The slice-level API in this package assumes validated float32/int32
// inputs. The buffer-level surface in ops.go performs the dtype, device,
// and shape checks for callers handing over raw tensors.
package mcc
