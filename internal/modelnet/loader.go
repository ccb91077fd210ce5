package modelnet

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
)

// Load reads a point cloud file. Every non-empty line must carry either
// three components (x y z) or six (x y z nx ny nz); the two widths must
// not be mixed within one file. The returned normals slice is nil for a
// three-component file.
func Load(path string) (points, normals []float32, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open cloud file: %w", err)
	}
	defer f.Close()

	width := 0
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := splitFields(line)
		switch {
		case width == 0 && (len(fields) == 3 || len(fields) == 6):
			width = len(fields)
		case len(fields) != width:
			return nil, nil, fmt.Errorf("%s:%d: %d components, want %d", path, lineNo, len(fields), width)
		}

		vals := make([]float64, len(fields))
		for i, fld := range fields {
			v, err := strconv.ParseFloat(fld, 32)
			if err != nil {
				return nil, nil, fmt.Errorf("%s:%d: parse %q: %w", path, lineNo, fld, err)
			}
			vals[i] = v
		}

		points = append(points, float32(vals[0]), float32(vals[1]), float32(vals[2]))
		if width == 6 {
			normals = append(normals, float32(vals[3]), float32(vals[4]), float32(vals[5]))
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("read cloud file: %w", err)
	}
	if len(points) == 0 {
		return nil, nil, fmt.Errorf("%s: no points", path)
	}
	return points, normals, nil
}

func splitFields(line string) []string {
	if strings.ContainsRune(line, ',') {
		parts := strings.Split(line, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return strings.Fields(line)
}

// Normalize centers the cloud on its centroid and scales it into the
// unit sphere, in place. A single-point cloud keeps unit scale.
func Normalize(points []float32) {
	n := len(points) / 3
	if n == 0 {
		return
	}

	var cx, cy, cz float64
	for i := 0; i < n; i++ {
		cx += float64(points[i*3])
		cy += float64(points[i*3+1])
		cz += float64(points[i*3+2])
	}
	cx /= float64(n)
	cy /= float64(n)
	cz /= float64(n)

	var maxDist float64
	for i := 0; i < n; i++ {
		dx := float64(points[i*3]) - cx
		dy := float64(points[i*3+1]) - cy
		dz := float64(points[i*3+2]) - cz
		if d := math.Sqrt(dx*dx + dy*dy + dz*dz); d > maxDist {
			maxDist = d
		}
	}
	if maxDist == 0 {
		maxDist = 1
	}

	for i := 0; i < n; i++ {
		points[i*3] = float32((float64(points[i*3]) - cx) / maxDist)
		points[i*3+1] = float32((float64(points[i*3+1]) - cy) / maxDist)
		points[i*3+2] = float32((float64(points[i*3+2]) - cz) / maxDist)
	}
}
