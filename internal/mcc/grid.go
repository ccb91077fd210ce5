package mcc

import (
	"fmt"
	"math"
	"sort"
)

// Grid is the ephemeral spatial index shared by neighbor search, density
// estimation and Poisson-disk sampling. Points are assigned to uniform
// cells, stably sorted by a batch-major linear key, and addressed through
// a permutation plus a cell-start-offset table.
//
// Cell dimensions are shared across the batch while the origin (and, in
// relative mode, the cell size) is per batch item, so no cell ever spans
// two batch items.
type Grid struct {
	BatchSize              int
	CellsX, CellsY, CellsZ int

	// CellSizes and Origins are per batch item: the absolute cell edge
	// length and the AABB min corner the cell coordinates are anchored to.
	CellSizes []float32
	Origins   []float32

	// Extents caches the largest AABB axis length per item; relative radii
	// are scaled by it.
	Extents  []float32
	Relative bool

	// Perm maps sorted position → original point index. Offsets has length
	// NumCells()+1 and is non-decreasing; cell k owns the permutation
	// range [Offsets[k], Offsets[k+1]).
	Perm    []int32
	Offsets []int32

	points   []float32
	batchIds []int32
}

// BuildGrid assigns every point to a grid cell, stably sorts point indices
// by the cell key and builds the offset table. cellSize is an absolute edge
// length, or a fraction of each item's AABB extent when relative is set.
// An over-fine cell size is not an error; excess cells are simply empty.
func BuildGrid(points []float32, batchIds []int32, box AABB, cellSize float32, relative bool) (*Grid, error) {
	n := len(batchIds)
	if cellSize <= 0 {
		return nil, fmt.Errorf("%w: cell size %g", ErrInvalidInput, cellSize)
	}
	if len(points) != n*3 {
		return nil, fmt.Errorf("%w: %d points for %d batch ids", ErrInvalidInput, len(points), n)
	}
	batchSize := box.BatchSize()
	if batchSize == 0 {
		return nil, fmt.Errorf("%w: empty bounding box set", ErrInvalidInput)
	}

	g := &Grid{
		BatchSize: batchSize,
		CellSizes: make([]float32, batchSize),
		Origins:   make([]float32, batchSize*3),
		Extents:   make([]float32, batchSize),
		Relative:  relative,
		points:    points,
		batchIds:  batchIds,
	}
	for b := 0; b < batchSize; b++ {
		g.Extents[b] = box.Extent(b)
		copy(g.Origins[b*3:b*3+3], box.Min[b*3:b*3+3])
		if relative {
			g.CellSizes[b] = cellSize * g.Extents[b]
		} else {
			g.CellSizes[b] = cellSize
		}
	}

	if relative {
		cells := cellsForSpan(1, cellSize)
		g.CellsX, g.CellsY, g.CellsZ = cells, cells, cells
	} else {
		var spanX, spanY, spanZ float32
		for b := 0; b < batchSize; b++ {
			spanX = max(spanX, box.Max[b*3]-box.Min[b*3])
			spanY = max(spanY, box.Max[b*3+1]-box.Min[b*3+1])
			spanZ = max(spanZ, box.Max[b*3+2]-box.Min[b*3+2])
		}
		g.CellsX = cellsForSpan(spanX, cellSize)
		g.CellsY = cellsForSpan(spanY, cellSize)
		g.CellsZ = cellsForSpan(spanZ, cellSize)
	}

	keys := make([]int64, n)
	for i := 0; i < n; i++ {
		b := batchIds[i]
		if b < 0 || int(b) >= batchSize {
			return nil, fmt.Errorf("%w: batch id %d out of range [0,%d)", ErrInvalidInput, b, batchSize)
		}
		cx, cy, cz := g.cellCoords(int(b), points[i*3], points[i*3+1], points[i*3+2])
		keys[i] = g.cellKey(int(b), cx, cy, cz)
	}

	g.Perm = make([]int32, n)
	for i := range g.Perm {
		g.Perm[i] = int32(i)
	}
	sort.SliceStable(g.Perm, func(i, j int) bool {
		return keys[g.Perm[i]] < keys[g.Perm[j]]
	})

	// Counting pass over the keys turns directly into the offset table
	// because the permutation groups equal keys contiguously.
	g.Offsets = make([]int32, g.NumCells()+1)
	for i := 0; i < n; i++ {
		g.Offsets[keys[i]+1]++
	}
	for k := 1; k < len(g.Offsets); k++ {
		g.Offsets[k] += g.Offsets[k-1]
	}

	return g, nil
}

func cellsForSpan(span, cellSize float32) int {
	c := int(math.Ceil(float64(span) / float64(cellSize)))
	if c < 1 {
		c = 1
	}
	return c
}

// NumCells returns the total cell count across the whole batch.
func (g *Grid) NumCells() int { return g.BatchSize * g.CellsX * g.CellsY * g.CellsZ }

// NumPoints returns the number of indexed points.
func (g *Grid) NumPoints() int { return len(g.batchIds) }

// Points returns the point buffer the grid was built over. Read-only for
// every downstream stage.
func (g *Grid) Points() []float32 { return g.points }

// BatchIDs returns the per-point batch ids the grid was built over.
func (g *Grid) BatchIDs() []int32 { return g.batchIds }

// EffectiveRadius converts a caller radius into absolute units for one
// batch item, honoring relative mode.
func (g *Grid) EffectiveRadius(item int, radius float32) float32 {
	if g.Relative {
		return radius * g.Extents[item]
	}
	return radius
}

// cellCoords maps a point to its clamped integer cell coordinates.
func (g *Grid) cellCoords(item int, x, y, z float32) (int, int, int) {
	cs := g.CellSizes[item]
	cx := clampCell(int(math.Floor(float64((x-g.Origins[item*3])/cs))), g.CellsX)
	cy := clampCell(int(math.Floor(float64((y-g.Origins[item*3+1])/cs))), g.CellsY)
	cz := clampCell(int(math.Floor(float64((z-g.Origins[item*3+2])/cs))), g.CellsZ)
	return cx, cy, cz
}

func clampCell(c, cells int) int {
	if c < 0 {
		return 0
	}
	if c >= cells {
		return cells - 1
	}
	return c
}

// cellKey linearizes (batch, cz, cy, cx) batch-major, then z, y, x. The
// ordering keeps each batch item, and within it each cell, contiguous
// after the stable sort; neighbor search depends on that.
func (g *Grid) cellKey(item, cx, cy, cz int) int64 {
	return ((int64(item)*int64(g.CellsZ)+int64(cz))*int64(g.CellsY)+int64(cy))*int64(g.CellsX) + int64(cx)
}

// SortFeatures applies the grid permutation to an index-aligned feature
// buffer: row p of the result is the features of point Perm[p].
func SortFeatures(features []float32, width int, perm []int32) ([]float32, error) {
	if width < 1 || len(features) != len(perm)*width {
		return nil, fmt.Errorf("%w: feature buffer %d does not match %d rows of width %d",
			ErrInvalidInput, len(features), len(perm), width)
	}
	out := make([]float32, len(features))
	for p, orig := range perm {
		copy(out[p*width:(p+1)*width], features[int(orig)*width:int(orig+1)*width])
	}
	return out, nil
}

// SortFeaturesBack inverts SortFeatures, scattering sorted rows back to
// original point order.
func SortFeaturesBack(sorted []float32, width int, perm []int32) ([]float32, error) {
	if width < 1 || len(sorted) != len(perm)*width {
		return nil, fmt.Errorf("%w: feature buffer %d does not match %d rows of width %d",
			ErrInvalidInput, len(sorted), len(perm), width)
	}
	out := make([]float32, len(sorted))
	for p, orig := range perm {
		copy(out[int(orig)*width:int(orig+1)*width], sorted[p*width:(p+1)*width])
	}
	return out, nil
}
