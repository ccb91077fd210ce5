package viz

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/chuyiting/pointconv/internal/mcc"
)

// batchPalette cycles over batch items in the projection plots.
var batchPalette = []color.RGBA{
	{R: 31, G: 119, B: 180, A: 255},
	{R: 255, G: 127, B: 14, A: 255},
	{R: 44, G: 160, B: 44, A: 255},
	{R: 214, G: 39, B: 40, A: 255},
	{R: 148, G: 103, B: 189, A: 255},
	{R: 140, G: 86, B: 75, A: 255},
}

// SaveLevelPlots writes one XY-projection PNG per hierarchy level into
// dir, one color per batch item. Files are named level_00.png upward.
func SaveLevelPlots(h *mcc.Hierarchy, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create plot dir: %w", err)
	}

	for lv := range h.Levels {
		level := &h.Levels[lv]

		p := plot.New()
		p.Title.Text = fmt.Sprintf("%s level %d (%d points, radius %g)",
			h.Name, lv, level.NumPoints(), level.Radius)
		p.X.Label.Text = "X"
		p.Y.Label.Text = "Y"

		for b := 0; b < h.BatchSize; b++ {
			var xys plotter.XYs
			for i := 0; i < level.NumPoints(); i++ {
				if int(level.BatchIDs[i]) != b {
					continue
				}
				xys = append(xys, plotter.XY{
					X: float64(level.Points[i*3]),
					Y: float64(level.Points[i*3+1]),
				})
			}
			if len(xys) == 0 {
				continue
			}
			s, err := plotter.NewScatter(xys)
			if err != nil {
				return fmt.Errorf("scatter for level %d item %d: %w", lv, b, err)
			}
			s.GlyphStyle.Radius = vg.Points(1.5)
			s.GlyphStyle.Color = batchPalette[b%len(batchPalette)]
			p.Add(s)
		}

		file := filepath.Join(dir, fmt.Sprintf("level_%02d.png", lv))
		if err := p.Save(7*vg.Inch, 7*vg.Inch, file); err != nil {
			return fmt.Errorf("save %s: %w", file, err)
		}
	}
	return nil
}
