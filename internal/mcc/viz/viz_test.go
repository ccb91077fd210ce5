package viz

import (
	"bytes"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chuyiting/pointconv/internal/mcc"
)

func buildTestHierarchy(t *testing.T) *mcc.Hierarchy {
	t.Helper()
	rng := rand.New(rand.NewSource(7))
	const n = 120
	points := make([]float32, n*3)
	batchIds := make([]int32, n)
	features := make([]float32, n)
	for i := 0; i < n; i++ {
		points[i*3] = rng.Float32()
		points[i*3+1] = rng.Float32()
		points[i*3+2] = rng.Float32()
		batchIds[i] = int32(i % 2)
		features[i] = 1
	}
	h, err := mcc.BuildHierarchy(points, batchIds, features, 1, 2, []float32{0.2}, mcc.HierarchyOptions{Name: "viz-test"})
	require.NoError(t, err)
	return h
}

func TestSaveLevelPlots(t *testing.T) {
	h := buildTestHierarchy(t)
	dir := filepath.Join(t.TempDir(), "plots")

	require.NoError(t, SaveLevelPlots(h, dir))

	for lv := range h.Levels {
		file := filepath.Join(dir, fmt.Sprintf("level_%02d.png", lv))
		info, err := os.Stat(file)
		require.NoError(t, err, "level %d plot missing", lv)
		require.Greater(t, info.Size(), int64(0))
	}
}

func TestWriteReport(t *testing.T) {
	h := buildTestHierarchy(t)

	var buf bytes.Buffer
	require.NoError(t, WriteReport(h, &buf))

	html := buf.String()
	require.NotEmpty(t, html)
	require.True(t, strings.Contains(html, "echarts"), "report should embed echarts markup")
	require.Contains(t, html, "Level 0")
	require.Contains(t, html, "Level 1")
}
