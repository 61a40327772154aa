package gridmap

import (
	"math"

	"github.com/pkg/errors"
)

// Grid is an occupancy grid over an axis-aligned planar region with a
// Euclidean distance field. Obstacles are painted into the grid and the
// field is rebuilt lazily on the next query.
type Grid struct {
	minX, minY float64
	resolution float64
	cols, rows int
	occupied   []bool
	dist       []float64
	stale      bool
}

// NewGrid creates an obstacle-free grid covering width x height meters
// anchored at (minX, minY) with the given cell resolution.
func NewGrid(minX, minY, width, height, resolution float64) (*Grid, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.Errorf("grid must have positive extent, got %fx%f", width, height)
	}
	if resolution <= 0 {
		return nil, errors.Errorf("grid resolution must be positive, got %f", resolution)
	}
	cols := int(math.Ceil(width / resolution))
	rows := int(math.Ceil(height / resolution))
	return &Grid{
		minX:       minX,
		minY:       minY,
		resolution: resolution,
		cols:       cols,
		rows:       rows,
		occupied:   make([]bool, cols*rows),
		dist:       make([]float64, cols*rows),
		stale:      true,
	}, nil
}

func (g *Grid) index(col, row int) int { return row*g.cols + col }

func (g *Grid) cellCenter(col, row int) (float64, float64) {
	return g.minX + (float64(col)+0.5)*g.resolution, g.minY + (float64(row)+0.5)*g.resolution
}

// AddObstacleDisc marks every cell whose center lies within radius of
// (cx, cy) as occupied.
func (g *Grid) AddObstacleDisc(cx, cy, radius float64) {
	for row := 0; row < g.rows; row++ {
		for col := 0; col < g.cols; col++ {
			x, y := g.cellCenter(col, row)
			if math.Hypot(x-cx, y-cy) <= radius {
				g.occupied[g.index(col, row)] = true
			}
		}
	}
	g.stale = true
}

// AddObstacleRect marks every cell whose center lies inside the axis-aligned
// rectangle [x0,x1] x [y0,y1] as occupied.
func (g *Grid) AddObstacleRect(x0, y0, x1, y1 float64) {
	for row := 0; row < g.rows; row++ {
		for col := 0; col < g.cols; col++ {
			x, y := g.cellCenter(col, row)
			if x >= x0 && x <= x1 && y >= y0 && y <= y1 {
				g.occupied[g.index(col, row)] = true
			}
		}
	}
	g.stale = true
}

// ClearanceAt returns the distance from (x, y) to the nearest obstacle cell
// center, bilinearly interpolated between cells. Positions outside the grid
// or inside an obstacle report zero clearance.
func (g *Grid) ClearanceAt(x, y float64) float64 {
	if g.stale {
		g.computeDistanceField()
	}
	fc := (x-g.minX)/g.resolution - 0.5
	fr := (y-g.minY)/g.resolution - 0.5
	c0 := int(math.Floor(fc))
	r0 := int(math.Floor(fr))
	if c0 < 0 || r0 < 0 || c0+1 >= g.cols || r0+1 >= g.rows {
		// Clamp to nearest cell at the border, zero outside.
		c := int(math.Round(fc))
		r := int(math.Round(fr))
		if c < 0 || r < 0 || c >= g.cols || r >= g.rows {
			return 0
		}
		return g.dist[g.index(c, r)]
	}
	tx := fc - float64(c0)
	ty := fr - float64(r0)
	d00 := g.dist[g.index(c0, r0)]
	d10 := g.dist[g.index(c0+1, r0)]
	d01 := g.dist[g.index(c0, r0+1)]
	d11 := g.dist[g.index(c0+1, r0+1)]
	return (1-ty)*((1-tx)*d00+tx*d10) + ty*((1-tx)*d01+tx*d11)
}

// computeDistanceField runs the two-pass squared Euclidean distance
// transform (Felzenszwalb-Huttenlocher) over the occupancy layer.
func (g *Grid) computeDistanceField() {
	// Free cells seed with a huge finite value so the transform stays
	// well-defined on maps with empty rows or columns.
	const far = 1e12
	sq := make([]float64, g.cols*g.rows)
	for i, occ := range g.occupied {
		if occ {
			sq[i] = 0
		} else {
			sq[i] = far
		}
	}
	// Columns, then rows.
	col := make([]float64, g.rows)
	for c := 0; c < g.cols; c++ {
		for r := 0; r < g.rows; r++ {
			col[r] = sq[g.index(c, r)]
		}
		dt1d(col)
		for r := 0; r < g.rows; r++ {
			sq[g.index(c, r)] = col[r]
		}
	}
	row := make([]float64, g.cols)
	for r := 0; r < g.rows; r++ {
		copy(row, sq[r*g.cols:(r+1)*g.cols])
		dt1d(row)
		for c := 0; c < g.cols; c++ {
			g.dist[g.index(c, r)] = math.Sqrt(row[c]) * g.resolution
		}
	}
	g.stale = false
}

// dt1d replaces f with the lower envelope of the parabolas rooted at each
// sample, i.e. the 1D squared distance transform in cell units.
func dt1d(f []float64) {
	n := len(f)
	v := make([]int, n)
	z := make([]float64, n+1)
	d := make([]float64, n)
	k := 0
	v[0] = 0
	z[0] = math.Inf(-1)
	z[1] = math.Inf(1)
	for q := 1; q < n; q++ {
		s := intersect(f, q, v[k])
		for k > 0 && s <= z[k] {
			k--
			s = intersect(f, q, v[k])
		}
		k++
		v[k] = q
		z[k] = s
		z[k+1] = math.Inf(1)
	}
	k = 0
	for q := 0; q < n; q++ {
		for z[k+1] < float64(q) {
			k++
		}
		dq := float64(q - v[k])
		d[q] = dq*dq + f[v[k]]
	}
	copy(f, d)
}

func intersect(f []float64, q, p int) float64 {
	return (f[q] + float64(q*q) - f[p] - float64(p*p)) / (2*float64(q) - 2*float64(p))
}
