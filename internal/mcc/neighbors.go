package mcc

import "fmt"

// NeighborOptions controls radius neighbor search policy.
type NeighborOptions struct {
	// ExcludeSelf drops candidates at squared distance zero, so a query
	// drawn from the source set does not report itself.
	ExcludeSelf bool
}

// Neighbors is a ragged adjacency relation stored as flat arrays plus a
// per-query offset table, mirroring the grid's own offset idiom. Query q
// owns entries [Start[q], Start[q+1]). Entries appear in grid cell
// traversal order, not sorted by distance, and each neighbor appears at
// most once per query.
type Neighbors struct {
	Start  []int32   // numQueries+1 offsets into the flat arrays
	Index  []int32   // original source point index per entry
	Offset []float32 // query minus source, 3 components per entry
	SqDist []float32 // squared Euclidean distance per entry

	queryBatch []int32
	radii      []float32 // effective search radius per batch item
}

// NumQueries returns the number of query points the relation covers.
func (n *Neighbors) NumQueries() int { return len(n.Start) - 1 }

// Count returns the neighbor count of query q.
func (n *Neighbors) Count(q int) int { return int(n.Start[q+1] - n.Start[q]) }

// Radius returns the absolute search radius used for query q.
func (n *Neighbors) Radius(q int) float32 { return n.radii[n.queryBatch[q]] }

// FindNeighbors reports, for every query point, all indexed points of the
// same batch item within radius. The search walks the 3×3×3 block of cells
// around the query's cell, clamped at grid boundaries; with cell size ≥
// radius that block covers every candidate. Expected cost is O(1) per
// query when point density roughly matches the cell size; pathological
// clustering into few cells degrades toward O(n) per query.
func FindNeighbors(g *Grid, queries []float32, queryBatchIds []int32, radius float32, opts NeighborOptions) (*Neighbors, error) {
	q := len(queryBatchIds)
	if radius <= 0 {
		return nil, fmt.Errorf("%w: search radius %g", ErrInvalidInput, radius)
	}
	if len(queries) != q*3 {
		return nil, fmt.Errorf("%w: %d query coords for %d batch ids", ErrInvalidInput, len(queries), q)
	}
	for _, b := range queryBatchIds {
		if b < 0 || int(b) >= g.BatchSize {
			return nil, fmt.Errorf("%w: query batch id %d out of range [0,%d)", ErrInvalidInput, b, g.BatchSize)
		}
	}

	n := &Neighbors{
		Start:      make([]int32, q+1),
		queryBatch: queryBatchIds,
		radii:      make([]float32, g.BatchSize),
	}
	for b := 0; b < g.BatchSize; b++ {
		n.radii[b] = g.EffectiveRadius(b, radius)
	}

	// Two passes keep the flat layout deterministic and the fill phase
	// write-contention free: count per query, prefix-sum, then fill each
	// query's private range.
	counts := make([]int32, q)
	parallelFor(q, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			c := int32(0)
			g.walkNeighborhood(queries, queryBatchIds, i, n.radii, opts, func(int32, float32, float32, float32, float32) {
				c++
			})
			counts[i] = c
		}
	})

	for i := 0; i < q; i++ {
		n.Start[i+1] = n.Start[i] + counts[i]
	}
	total := int(n.Start[q])
	n.Index = make([]int32, total)
	n.Offset = make([]float32, total*3)
	n.SqDist = make([]float32, total)

	parallelFor(q, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			pos := n.Start[i]
			g.walkNeighborhood(queries, queryBatchIds, i, n.radii, opts, func(orig int32, dx, dy, dz, d2 float32) {
				n.Index[pos] = orig
				n.Offset[pos*3] = dx
				n.Offset[pos*3+1] = dy
				n.Offset[pos*3+2] = dz
				n.SqDist[pos] = d2
				pos++
			})
		}
	})

	return n, nil
}

// walkNeighborhood visits every indexed point within the query's search
// radius, in cell traversal order. The offset reported to visit is
// query − source.
func (g *Grid) walkNeighborhood(queries []float32, queryBatchIds []int32, qi int, radii []float32, opts NeighborOptions,
	visit func(orig int32, dx, dy, dz, d2 float32)) {

	b := int(queryBatchIds[qi])
	qx, qy, qz := queries[qi*3], queries[qi*3+1], queries[qi*3+2]
	r := radii[b]
	r2 := r * r
	ccx, ccy, ccz := g.cellCoords(b, qx, qy, qz)

	for cz := max(ccz-1, 0); cz <= min(ccz+1, g.CellsZ-1); cz++ {
		for cy := max(ccy-1, 0); cy <= min(ccy+1, g.CellsY-1); cy++ {
			for cx := max(ccx-1, 0); cx <= min(ccx+1, g.CellsX-1); cx++ {
				k := g.cellKey(b, cx, cy, cz)
				for p := g.Offsets[k]; p < g.Offsets[k+1]; p++ {
					orig := g.Perm[p]
					dx := qx - g.points[orig*3]
					dy := qy - g.points[orig*3+1]
					dz := qz - g.points[orig*3+2]
					d2 := dx*dx + dy*dy + dz*dz
					if d2 > r2 {
						continue
					}
					if opts.ExcludeSelf && d2 == 0 {
						continue
					}
					visit(orig, dx, dy, dz, d2)
				}
			}
		}
	}
}
