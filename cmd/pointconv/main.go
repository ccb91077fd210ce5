// Command pointconv builds a Poisson-disk point hierarchy from a cloud
// file, estimates sample density on the finest level, and optionally
// renders the levels as PNG projections or an HTML report.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"gonum.org/v1/gonum/stat"

	"github.com/chuyiting/pointconv/internal/mcc"
	"github.com/chuyiting/pointconv/internal/mcc/viz"
	"github.com/chuyiting/pointconv/internal/modelnet"
)

func main() {
	cloudPath := flag.String("cloud", "", "Point cloud text file (x y z [nx ny nz] per line)")
	configPath := flag.String("config", "", "YAML config file (defaults used when empty)")
	plotsDir := flag.String("plots", "", "Directory for per-level PNG projections")
	reportPath := flag.String("report", "", "Output path for the HTML scatter report")
	normalize := flag.Bool("normalize", true, "Center the cloud and scale it into the unit sphere")
	flag.Parse()

	if *cloudPath == "" {
		fmt.Fprintln(os.Stderr, "usage: pointconv -cloud <file> [-config <file>] [-plots <dir>] [-report <file>]")
		os.Exit(2)
	}

	cfg := DefaultConfig()
	if *configPath != "" {
		var err error
		cfg, err = LoadConfig(*configPath)
		if err != nil {
			log.Fatalf("load config: %v", err)
		}
	}

	points, normals, err := modelnet.Load(*cloudPath)
	if err != nil {
		log.Fatalf("load cloud: %v", err)
	}
	n := len(points) / 3
	log.Printf("loaded %d points from %s (normals: %t)", n, *cloudPath, normals != nil)
	if *normalize {
		modelnet.Normalize(points)
	}

	width := 1
	features := make([]float32, n)
	for i := range features {
		features[i] = 1
	}
	if cfg.UseNormals {
		if normals == nil {
			log.Fatalf("use_normals is set but %s carries no normals", *cloudPath)
		}
		width = 3
		features = normals
	}
	batchIds := make([]int32, n)

	h, err := mcc.BuildHierarchy(points, batchIds, features, width, 1, cfg.Radii,
		mcc.HierarchyOptions{Name: cfg.Name, Relative: cfg.Relative})
	if err != nil {
		log.Fatalf("build hierarchy: %v", err)
	}
	log.Printf("hierarchy %s: %d levels", h.Name, len(h.Levels))
	for lv := range h.Levels {
		level := &h.Levels[lv]
		log.Printf("  level %d: %d points (radius %g)", lv, level.NumPoints(), level.Radius)
	}

	if err := logDensityStats(h, cfg); err != nil {
		log.Fatalf("density estimate: %v", err)
	}

	if *plotsDir != "" {
		if err := viz.SaveLevelPlots(h, *plotsDir); err != nil {
			log.Fatalf("save plots: %v", err)
		}
		log.Printf("wrote %d level plots to %s", len(h.Levels), *plotsDir)
	}
	if *reportPath != "" {
		f, err := os.Create(*reportPath)
		if err != nil {
			log.Fatalf("create report: %v", err)
		}
		if err := viz.WriteReport(h, f); err != nil {
			f.Close()
			log.Fatalf("write report: %v", err)
		}
		if err := f.Close(); err != nil {
			log.Fatalf("close report: %v", err)
		}
		log.Printf("wrote report to %s", *reportPath)
	}
}

// logDensityStats estimates sample density on the finest level at the
// first radius and logs its spread.
func logDensityStats(h *mcc.Hierarchy, cfg Config) error {
	kernel, err := cfg.DensityKernel()
	if err != nil {
		return err
	}
	fine := &h.Levels[0]

	g, err := mcc.BuildGrid(fine.Points, fine.BatchIDs, h.Box, cfg.Radii[0], cfg.Relative)
	if err != nil {
		return err
	}
	nb, err := mcc.FindNeighbors(g, fine.Points, fine.BatchIDs, cfg.Radii[0], mcc.NeighborOptions{})
	if err != nil {
		return err
	}
	density, err := mcc.EstimateDensity(nb, cfg.Density.Window, kernel)
	if err != nil {
		return err
	}

	vals := make([]float64, len(density))
	for i, d := range density {
		vals[i] = float64(d)
	}
	mean, std := stat.MeanStdDev(vals, nil)
	log.Printf("finest-level density: mean %.4g, stddev %.4g", mean, std)
	return nil
}
