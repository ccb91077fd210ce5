package mcc

import "fmt"

// PoissonSample selects a blue-noise subset of the grid's points: every
// pair of accepted points within one batch item ends up separated by at
// least minDist (scaled per item when the grid is relative).
//
// This is a single deterministic pass, not dart throwing. Candidates are
// visited in order (defaults to original index order when order is nil);
// a candidate is accepted iff no previously accepted point within minDist
// exists in the 3×3×3 cell block around it. Changing the traversal order
// changes which point wins a contested neighborhood but never violates
// the separation invariant. The sequential dependency between acceptance
// decisions is why this stage, alone in the pipeline, is not
// data-parallel.
//
// The grid must have been built with cell size ≥ minDist so the block walk
// covers the full exclusion radius.
func PoissonSample(g *Grid, minDist float32, order []int32) ([]int32, error) {
	if minDist <= 0 {
		return nil, fmt.Errorf("%w: poisson radius %g", ErrInvalidInput, minDist)
	}
	for b := 0; b < g.BatchSize; b++ {
		d := g.EffectiveRadius(b, minDist)
		// Tiny slack forgives float noise when the grid was built with
		// cell size exactly equal to the sampling radius.
		if g.CellSizes[b] < d*(1-1e-6) {
			return nil, fmt.Errorf("%w: cell size %g smaller than poisson radius %g for batch item %d",
				ErrInvalidInput, g.CellSizes[b], d, b)
		}
	}
	if order == nil {
		order = make([]int32, g.NumPoints())
		for i := range order {
			order[i] = int32(i)
		}
	}

	// A cell may legally hold several accepted points once the cell size
	// exceeds the sampling radius, so cells keep lists rather than a
	// single marker.
	accepted := make(map[int64][]int32)
	selected := make([]int32, 0, g.NumPoints()/4)

	for _, cand := range order {
		if cand < 0 || int(cand) >= g.NumPoints() {
			return nil, fmt.Errorf("%w: traversal index %d out of range [0,%d)", ErrInvalidInput, cand, g.NumPoints())
		}
		b := int(g.batchIds[cand])
		d := g.EffectiveRadius(b, minDist)
		d2 := d * d
		px, py, pz := g.points[cand*3], g.points[cand*3+1], g.points[cand*3+2]
		ccx, ccy, ccz := g.cellCoords(b, px, py, pz)

		conflict := false
	scan:
		for cz := max(ccz-1, 0); cz <= min(ccz+1, g.CellsZ-1); cz++ {
			for cy := max(ccy-1, 0); cy <= min(ccy+1, g.CellsY-1); cy++ {
				for cx := max(ccx-1, 0); cx <= min(ccx+1, g.CellsX-1); cx++ {
					for _, a := range accepted[g.cellKey(b, cx, cy, cz)] {
						dx := px - g.points[a*3]
						dy := py - g.points[a*3+1]
						dz := pz - g.points[a*3+2]
						if dx*dx+dy*dy+dz*dz < d2 {
							conflict = true
							break scan
						}
					}
				}
			}
		}
		if conflict {
			continue
		}

		key := g.cellKey(b, ccx, ccy, ccz)
		accepted[key] = append(accepted[key], cand)
		selected = append(selected, cand)
	}

	return selected, nil
}
