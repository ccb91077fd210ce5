package mcc

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildHierarchy_Levels(t *testing.T) {
	rng := rand.New(rand.NewSource(61))
	const n = 600
	points, batchIds := randomCloud(t, rng, n, 2)
	// Feature value encodes the point index so gathering is verifiable.
	features := make([]float32, n)
	for i := range features {
		features[i] = float32(i)
	}

	h, err := BuildHierarchy(points, batchIds, features, 1, 2, []float32{0.1, 0.4}, DefaultHierarchyOptions())
	require.NoError(t, err)
	require.Len(t, h.Levels, 3)
	require.NotEmpty(t, h.Name)
	require.True(t, h.Relative)

	// A dense cloud must actually shrink at every level.
	require.Less(t, h.Levels[1].NumPoints(), h.Levels[0].NumPoints())
	require.Less(t, h.Levels[2].NumPoints(), h.Levels[1].NumPoints())
	require.Greater(t, h.Levels[2].NumPoints(), 0)

	for lv := 1; lv < 3; lv++ {
		level := &h.Levels[lv]
		prev := &h.Levels[lv-1]
		require.Len(t, level.SampledFrom, level.NumPoints())
		for i, src := range level.SampledFrom {
			require.Equal(t, prev.Features[src], level.Features[i],
				"level %d row %d not gathered from source %d", lv, i, src)
			require.Equal(t, prev.BatchIDs[src], level.BatchIDs[i])
			for a := 0; a < 3; a++ {
				require.Equal(t, prev.Points[int(src)*3+a], level.Points[i*3+a])
			}
		}
	}
}

func TestBuildHierarchy_SeparationPerLevel(t *testing.T) {
	rng := rand.New(rand.NewSource(62))
	const n = 500
	points, batchIds := randomCloud(t, rng, n, 1)
	features := make([]float32, n)

	h, err := BuildHierarchy(points, batchIds, features, 1, 1, []float32{0.2}, DefaultHierarchyOptions())
	require.NoError(t, err)

	// Relative radii scale by the item's cubic box extent.
	d := 0.2 * h.Box.Extent(0)
	level := &h.Levels[1]
	for i := 0; i < level.NumPoints(); i++ {
		for j := i + 1; j < level.NumPoints(); j++ {
			dx := level.Points[i*3] - level.Points[j*3]
			dy := level.Points[i*3+1] - level.Points[j*3+1]
			dz := level.Points[i*3+2] - level.Points[j*3+2]
			require.GreaterOrEqual(t, dx*dx+dy*dy+dz*dz, d*d*(1-1e-6),
				"sampled points %d and %d too close", i, j)
		}
	}
}

func TestBuildHierarchy_NamePolicy(t *testing.T) {
	points := []float32{0, 0, 0, 1, 1, 1}
	batchIds := []int32{0, 0}
	features := []float32{0, 0}

	h1, err := BuildHierarchy(points, batchIds, features, 1, 1, nil, DefaultHierarchyOptions())
	require.NoError(t, err)
	h2, err := BuildHierarchy(points, batchIds, features, 1, 1, nil, DefaultHierarchyOptions())
	require.NoError(t, err)
	require.NotEqual(t, h1.Name, h2.Name, "generated names must be unique")

	named, err := BuildHierarchy(points, batchIds, features, 1, 1, nil,
		HierarchyOptions{Name: "modelnet-cls", Relative: true})
	require.NoError(t, err)
	require.Equal(t, "modelnet-cls", named.Name)
}

func TestBuildHierarchy_Errors(t *testing.T) {
	points := []float32{0, 0, 0}
	batchIds := []int32{0}

	_, err := BuildHierarchy(points, batchIds, []float32{1, 2}, 1, 1, nil, DefaultHierarchyOptions())
	require.ErrorIs(t, err, ErrInvalidInput, "feature length mismatch")

	_, err = BuildHierarchy(points, batchIds, []float32{1}, 1, 1, []float32{-0.5}, DefaultHierarchyOptions())
	require.ErrorIs(t, err, ErrInvalidInput, "negative radius")

	// Degenerate batch item surfaces from the AABB stage.
	_, err = BuildHierarchy(points, batchIds, []float32{1}, 1, 2, nil, DefaultHierarchyOptions())
	require.ErrorIs(t, err, ErrDegenerateGeometry)
}
