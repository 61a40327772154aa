// Package main runs the path optimizer on a small scenario and renders the
// result: a raster of the grid, corridor boundaries and planned paths, and
// profile plots of lateral offset and curvature.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"math"
	"os"
	"path/filepath"

	"github.com/edaniels/golog"
	"github.com/fogleman/gg"
	"github.com/pkg/errors"
	"go.viam.com/utils"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/ColleyLi/path-optimizer/gridmap"
	"github.com/ColleyLi/path-optimizer/optimizer"
	"github.com/ColleyLi/path-optimizer/spatialmath"
)

func main() {
	utils.ContextualMain(mainWithArgs, logger)
}

var logger = golog.NewDevelopmentLogger("corridor")

// scenario is the JSON demo description.
type scenario struct {
	Length    float64 `json:"length"`
	Obstacles []struct {
		X, Y, R float64
	} `json:"obstacles"`
	StartHeadingDeg float64 `json:"start_heading_deg"`
}

func defaultScenario() scenario {
	s := scenario{Length: 20}
	s.Obstacles = append(s.Obstacles, struct{ X, Y, R float64 }{X: 10, Y: 1, R: 1})
	return s
}

func mainWithArgs(ctx context.Context, args []string, logger golog.Logger) error {
	fs := flag.NewFlagSet(args[0], flag.ContinueOnError)
	scenarioPath := fs.String("scenario", "", "path to a scenario JSON file")
	outDir := fs.String("out", ".", "output directory")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	sc := defaultScenario()
	if *scenarioPath != "" {
		data, err := os.ReadFile(*scenarioPath)
		if err != nil {
			return errors.Wrap(err, "reading scenario")
		}
		if err := json.Unmarshal(data, &sc); err != nil {
			return errors.Wrap(err, "parsing scenario")
		}
	}

	grid, err := gridmap.NewGrid(-6, -8, sc.Length+12, 16, 0.1)
	if err != nil {
		return err
	}
	for _, ob := range sc.Obstacles {
		grid.AddObstacleDisc(ob.X, ob.Y, ob.R)
	}

	vehicle := optimizer.DefaultVehicleConfig()
	footprint := optimizer.NewFootprint(vehicle)
	checker := gridmap.NewFootprintChecker(
		grid,
		vehicle.RearAxleToCenter,
		footprint.DiscOffsets(),
		footprint.Radius()-vehicle.SafetyMargin,
	)

	var waypoints []spatialmath.State
	for x := 0.0; x <= sc.Length; x++ {
		waypoints = append(waypoints, spatialmath.State{X: x})
	}
	start := spatialmath.State{Heading: sc.StartHeadingDeg * math.Pi / 180}
	end := spatialmath.State{X: sc.Length}

	cfg := optimizer.DefaultConfig()
	cfg.Solver.MaxIterations = 2000
	opt := optimizer.New(cfg, vehicle, waypoints, start, end, grid, checker, true, logger)
	path, err := opt.Solve()
	if err != nil {
		return errors.Wrap(err, "solving")
	}
	logger.Infow("solved", "states", len(path), "length", path[len(path)-1].S)

	sampled, err := opt.SamplePaths([]float64{sc.Length * 0.75}, nil)
	if err != nil {
		logger.Warnw("lateral sampling failed", "error", err)
	} else {
		logger.Infow("sampled", "paths", len(sampled))
	}

	if err := renderScene(filepath.Join(*outDir, "scene.png"), sc, opt, path, sampled); err != nil {
		return err
	}
	return renderProfiles(filepath.Join(*outDir, "profiles.png"), path)
}

// renderScene rasterizes the scenario: obstacles, the smoothed reference,
// corridor boundary vertices and the planned paths.
func renderScene(
	file string,
	sc scenario,
	opt *optimizer.Optimizer,
	path []spatialmath.State,
	sampled [][]spatialmath.State,
) error {
	const pixelsPerMeter = 30.0
	minX, minY := -6.0, -8.0
	w := int((sc.Length + 12) * pixelsPerMeter)
	h := int(16 * pixelsPerMeter)
	toPx := func(x, y float64) (float64, float64) {
		return (x - minX) * pixelsPerMeter, float64(h) - (y-minY)*pixelsPerMeter
	}

	dc := gg.NewContext(w, h)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	dc.SetRGB(0.2, 0.2, 0.2)
	for _, ob := range sc.Obstacles {
		px, py := toPx(ob.X, ob.Y)
		dc.DrawCircle(px, py, ob.R*pixelsPerMeter)
		dc.Fill()
	}

	drawPath := func(states []spatialmath.State, r, g, b, width float64) {
		if len(states) == 0 {
			return
		}
		dc.SetRGB(r, g, b)
		dc.SetLineWidth(width)
		px, py := toPx(states[0].X, states[0].Y)
		dc.MoveTo(px, py)
		for _, s := range states[1:] {
			px, py = toPx(s.X, s.Y)
			dc.LineTo(px, py)
		}
		dc.Stroke()
	}
	for _, alt := range sampled {
		drawPath(alt, 0.8, 0.8, 0.95, 1)
	}
	drawPath(opt.SmoothedPath(), 0.6, 0.6, 0.6, 1)
	drawPath(path, 0.1, 0.4, 0.9, 2)

	dc.SetRGB(0.9, 0.5, 0.1)
	for _, b := range opt.CenterBounds() {
		px, py := toPx(b.X, b.Y)
		dc.DrawCircle(px, py, 1.5)
		dc.Fill()
	}
	return dc.SavePNG(file)
}

// renderProfiles plots lateral offset (y) and curvature against arclength.
func renderProfiles(file string, path []spatialmath.State) error {
	p := plot.New()
	p.Title.Text = "path profiles"
	p.X.Label.Text = "s (m)"

	offset := make(plotter.XYs, len(path))
	curvature := make(plotter.XYs, len(path))
	for i, s := range path {
		offset[i] = plotter.XY{X: s.S, Y: s.Y}
		curvature[i] = plotter.XY{X: s.S, Y: s.Curvature}
	}
	offsetLine, err := plotter.NewLine(offset)
	if err != nil {
		return err
	}
	curvatureLine, err := plotter.NewLine(curvature)
	if err != nil {
		return err
	}
	curvatureLine.LineStyle.Width = vg.Points(0.5)
	p.Add(offsetLine, curvatureLine, plotter.NewGrid())
	p.Legend.Add("lateral position", offsetLine)
	p.Legend.Add("curvature", curvatureLine)
	return p.Save(8*vg.Inch, 4*vg.Inch, file)
}
