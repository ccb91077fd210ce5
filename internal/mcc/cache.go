package mcc

import "fmt"

// SpatialCache memoizes grids, neighbor relations and density fields
// across the convolution layers of one network graph. Layers that share a
// hierarchy level and radius reuse the spatial structure instead of
// rebuilding it. Keys combine hierarchy name, levels, radius and flags,
// so two hierarchies never collide.
//
// The cache is scoped to a graph construction pass; call Reset between
// batches of differently shaped inputs.
type SpatialCache struct {
	grids     map[string]*Grid
	neighbors map[string]*Neighbors
	densities map[string][]float32
}

// NewSpatialCache returns an empty cache.
func NewSpatialCache() *SpatialCache {
	c := &SpatialCache{}
	c.Reset()
	return c
}

// Reset drops every memoized result.
func (c *SpatialCache) Reset() {
	c.grids = make(map[string]*Grid)
	c.neighbors = make(map[string]*Neighbors)
	c.densities = make(map[string][]float32)
}

func gridKey(h *Hierarchy, level int, radius float32) string {
	return fmt.Sprintf("%s|%d|%g|%t", h.Name, level, radius, h.Relative)
}

// GridFor returns the grid of one hierarchy level at the given cell
// radius, building it on first use.
func (c *SpatialCache) GridFor(h *Hierarchy, level int, radius float32) (*Grid, error) {
	key := gridKey(h, level, radius)
	if g, ok := c.grids[key]; ok {
		return g, nil
	}
	lv := &h.Levels[level]
	g, err := BuildGrid(lv.Points, lv.BatchIDs, h.Box, radius, h.Relative)
	if err != nil {
		return nil, err
	}
	c.grids[key] = g
	return g, nil
}

// NeighborsFor returns the neighbor relation from outLevel queries into
// inLevel sources at the given radius, building grid and relation on
// first use.
func (c *SpatialCache) NeighborsFor(h *Hierarchy, inLevel, outLevel int, radius float32, opts NeighborOptions) (*Neighbors, error) {
	key := fmt.Sprintf("%s|%d|%t", gridKey(h, inLevel, radius), outLevel, opts.ExcludeSelf)
	if n, ok := c.neighbors[key]; ok {
		return n, nil
	}
	g, err := c.GridFor(h, inLevel, radius)
	if err != nil {
		return nil, err
	}
	out := &h.Levels[outLevel]
	n, err := FindNeighbors(g, out.Points, out.BatchIDs, radius, opts)
	if err != nil {
		return nil, err
	}
	c.neighbors[key] = n
	return n, nil
}

// DensityFor returns the density field of inLevel's points estimated at
// the given radius and KDE window, building everything it needs on first
// use. Densities are computed point-to-point within inLevel.
func (c *SpatialCache) DensityFor(h *Hierarchy, inLevel int, radius, window float32, kernel DensityKernel) ([]float32, error) {
	key := fmt.Sprintf("%s|%g|%d", gridKey(h, inLevel, radius), window, kernel)
	if d, ok := c.densities[key]; ok {
		return d, nil
	}
	n, err := c.NeighborsFor(h, inLevel, inLevel, radius, NeighborOptions{})
	if err != nil {
		return nil, err
	}
	d, err := EstimateDensity(n, window, kernel)
	if err != nil {
		return nil, err
	}
	c.densities[key] = d
	return d, nil
}
