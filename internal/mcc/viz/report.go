package viz

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/chuyiting/pointconv/internal/mcc"
)

// viridis steps for the Z color ramp of the scatter views.
var viridis = []string{
	"#440154", "#482777", "#3e4989", "#31688e", "#26828e",
	"#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725",
}

// WriteReport renders every hierarchy level as an XY scatter colored by Z
// into one standalone HTML page.
func WriteReport(h *mcc.Hierarchy, w io.Writer) error {
	page := components.NewPage()
	page.PageTitle = fmt.Sprintf("Point hierarchy %s", h.Name)

	for lv := range h.Levels {
		level := &h.Levels[lv]

		data := make([]opts.ScatterData, 0, level.NumPoints())
		var minZ, maxZ float32
		for i := 0; i < level.NumPoints(); i++ {
			x := level.Points[i*3]
			y := level.Points[i*3+1]
			z := level.Points[i*3+2]
			if i == 0 || z < minZ {
				minZ = z
			}
			if i == 0 || z > maxZ {
				maxZ = z
			}
			data = append(data, opts.ScatterData{Value: []interface{}{x, y, z}})
		}

		scatter := charts.NewScatter()
		scatter.SetGlobalOptions(
			charts.WithInitializationOpts(opts.Initialization{Width: "700px", Height: "700px"}),
			charts.WithTitleOpts(opts.Title{
				Title:    fmt.Sprintf("Level %d", lv),
				Subtitle: fmt.Sprintf("points=%d radius=%g", level.NumPoints(), level.Radius),
			}),
			charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
			charts.WithVisualMapOpts(opts.VisualMap{
				Show:       opts.Bool(true),
				Calculable: opts.Bool(true),
				Min:        minZ,
				Max:        maxZ,
				Dimension:  "2",
				InRange:    &opts.VisualMapInRange{Color: viridis},
			}),
		)
		scatter.AddSeries("points", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 3}))
		page.AddCharts(scatter)
	}

	return page.Render(w)
}
