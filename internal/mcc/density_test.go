package mcc

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gonum.org/v1/gonum/stat"
)

func TestEstimateDensity_UniformCount(t *testing.T) {
	// Center point with 6 axis neighbors at distance 0.04, all inside the
	// bandwidth h = 1.0 × 0.1.
	points := []float32{
		0.5, 0.5, 0.5,
		0.54, 0.5, 0.5,
		0.46, 0.5, 0.5,
		0.5, 0.54, 0.5,
		0.5, 0.46, 0.5,
		0.5, 0.5, 0.54,
		0.5, 0.5, 0.46,
	}
	batchIds := make([]int32, 7)
	g := buildTestGrid(t, points, batchIds, 1, 0.1)

	nb, err := FindNeighbors(g, points, batchIds, 0.1, NeighborOptions{})
	if err != nil {
		t.Fatal(err)
	}
	density, err := EstimateDensity(nb, 1.0, KernelUniform)
	if err != nil {
		t.Fatalf("EstimateDensity: %v", err)
	}

	h := 0.1
	want := 7 / (4.0 / 3.0 * math.Pi * h * h * h)
	if got := float64(density[0]); math.Abs(got-want)/want > 1e-5 {
		t.Errorf("density[0] = %v, want %v", got, want)
	}
	if density[0] < 0 {
		t.Error("density must be non-negative")
	}
}

func TestEstimateDensity_SmoothKernelBelowCount(t *testing.T) {
	rng := rand.New(rand.NewSource(31))
	points, batchIds := randomCloud(t, rng, 150, 1)
	g := buildTestGrid(t, points, batchIds, 1, 0.2)
	nb, err := FindNeighbors(g, points, batchIds, 0.2, NeighborOptions{})
	if err != nil {
		t.Fatal(err)
	}

	uniform, err := EstimateDensity(nb, 1.0, KernelUniform)
	if err != nil {
		t.Fatal(err)
	}
	smooth, err := EstimateDensity(nb, 1.0, KernelSmooth)
	if err != nil {
		t.Fatal(err)
	}

	for i := range uniform {
		// The Epanechnikov profile weighs every neighbor ≤ 1, with the
		// self entry contributing exactly 1.
		if smooth[i] > uniform[i] {
			t.Fatalf("point %d: smooth density %v exceeds uniform %v", i, smooth[i], uniform[i])
		}
		if smooth[i] <= 0 {
			t.Fatalf("point %d: smooth density %v not positive despite self entry", i, smooth[i])
		}
	}
}

func TestEstimateDensity_NarrowWindowDropsFarNeighbors(t *testing.T) {
	// Two points 0.08 apart; with window 0.5 the bandwidth is 0.05 and
	// each sees only itself.
	points := []float32{
		0, 0, 0,
		0.08, 0, 0,
	}
	batchIds := []int32{0, 0}
	g := buildTestGrid(t, points, batchIds, 1, 0.1)
	nb, err := FindNeighbors(g, points, batchIds, 0.1, NeighborOptions{})
	if err != nil {
		t.Fatal(err)
	}

	density, err := EstimateDensity(nb, 0.5, KernelUniform)
	if err != nil {
		t.Fatal(err)
	}
	h := 0.05
	want := 1 / (4.0 / 3.0 * math.Pi * h * h * h)
	for i := range density {
		if got := float64(density[i]); math.Abs(got-want)/want > 1e-5 {
			t.Errorf("density[%d] = %v, want %v (self only)", i, got, want)
		}
	}
}

func TestEstimateDensity_Deterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(32))
	points, batchIds := randomCloud(t, rng, 100, 2)
	box, err := ComputeAABB(points, batchIds, 2, false)
	if err != nil {
		t.Fatal(err)
	}
	g, err := BuildGrid(points, batchIds, box, 0.15, false)
	if err != nil {
		t.Fatal(err)
	}
	nb, err := FindNeighbors(g, points, batchIds, 0.15, NeighborOptions{})
	if err != nil {
		t.Fatal(err)
	}

	a, err := EstimateDensity(nb, DefaultKDEWindow, KernelSmooth)
	if err != nil {
		t.Fatal(err)
	}
	b, err := EstimateDensity(nb, DefaultKDEWindow, KernelSmooth)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("density not deterministic (-first +second):\n%s", diff)
	}
}

func TestEstimateDensity_LatticeCalibration(t *testing.T) {
	// 10x10x10 lattice with spacing 0.1 in the unit cube: true density is
	// 1000 points per unit volume. Away from the boundary the estimate
	// carries only the discretization bias of counting lattice points in a
	// ball, which stays within a few tens of percent at h = 2.5 spacings,
	// and is identical for every interior point by symmetry.
	const m = 10
	points := make([]float32, 0, m*m*m*3)
	var interior []int
	for i := 0; i < m; i++ {
		for j := 0; j < m; j++ {
			for k := 0; k < m; k++ {
				x := (float32(i) + 0.5) / m
				y := (float32(j) + 0.5) / m
				z := (float32(k) + 0.5) / m
				if x >= 0.3 && x <= 0.7 && y >= 0.3 && y <= 0.7 && z >= 0.3 && z <= 0.7 {
					interior = append(interior, len(points)/3)
				}
				points = append(points, x, y, z)
			}
		}
	}
	batchIds := make([]int32, m*m*m)
	g := buildTestGrid(t, points, batchIds, 1, 0.25)
	nb, err := FindNeighbors(g, points, batchIds, 0.25, NeighborOptions{})
	if err != nil {
		t.Fatal(err)
	}
	density, err := EstimateDensity(nb, 1.0, KernelUniform)
	if err != nil {
		t.Fatal(err)
	}

	vals := make([]float64, len(interior))
	for i, idx := range interior {
		vals[i] = float64(density[idx])
	}
	mean, std := stat.MeanStdDev(vals, nil)
	if math.Abs(mean-1000)/1000 > 0.3 {
		t.Errorf("interior mean density %v, want within 30%% of 1000", mean)
	}
	if std > mean*1e-3 {
		t.Errorf("interior density stddev %v, want ~0 (all interior points are equivalent)", std)
	}
}

func TestEstimateDensity_ZeroNeighbors(t *testing.T) {
	points := []float32{0, 0, 0}
	batchIds := []int32{0}
	g := buildTestGrid(t, points, batchIds, 1, 0.1)
	nb, err := FindNeighbors(g, points, batchIds, 0.1, NeighborOptions{ExcludeSelf: true})
	if err != nil {
		t.Fatal(err)
	}

	density, err := EstimateDensity(nb, 1.0, KernelUniform)
	if err != nil {
		t.Fatal(err)
	}
	if density[0] != 0 {
		t.Errorf("density with no neighbors = %v, want 0", density[0])
	}
}

func TestEstimateDensity_BadWindow(t *testing.T) {
	points := []float32{0, 0, 0}
	batchIds := []int32{0}
	g := buildTestGrid(t, points, batchIds, 1, 0.1)
	nb, err := FindNeighbors(g, points, batchIds, 0.1, NeighborOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := EstimateDensity(nb, 0, KernelUniform); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("zero window: got %v, want ErrInvalidInput", err)
	}
}
