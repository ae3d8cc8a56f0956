package sim

import "math"

// maxGridCells bounds the cell count per axis; sparse worlds just get larger
// cells.
const maxGridCells = 256

// grid is a uniform XY hash over the entities of one collection, rebuilt per
// resolve. Cells hold entity indices, not pointers. Z is ignored here and
// checked by the exact distance test afterwards.
type grid struct {
	minX, minY  float64
	invCellSize float64
	cols, rows  int
	cells       [][]uint32
	scratch     []uint32
}

// build indexes entities into cells of at least cellSize
func (g *grid) build(entities []Entity, cellSize float64) {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for i := range entities {
		p := entities[i].Position
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}

	size := math.Max(cellSize, math.Max(maxX-minX, maxY-minY)/maxGridCells)
	g.minX, g.minY = minX, minY
	g.invCellSize = 1 / size
	g.cols = int((maxX-minX)*g.invCellSize) + 1
	g.rows = int((maxY-minY)*g.invCellSize) + 1

	n := g.cols * g.rows
	if cap(g.cells) < n {
		g.cells = make([][]uint32, n)
	}
	g.cells = g.cells[:n]
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}

	for i := range entities {
		p := entities[i].Position
		idx := g.row(p.Y)*g.cols + g.col(p.X)
		g.cells[idx] = append(g.cells[idx], uint32(i))
	}
}

func (g *grid) col(x float64) int {
	return clampCell(int(math.Floor((x-g.minX)*g.invCellSize)), g.cols)
}

func (g *grid) row(y float64) int {
	return clampCell(int(math.Floor((y-g.minY)*g.invCellSize)), g.rows)
}

func clampCell(c, n int) int {
	if c < 0 {
		return 0
	}
	if c >= n {
		return n - 1
	}
	return c
}

// query returns candidate indices within radius of (x, y). The slice is
// reused by the next call. Candidates still need the exact distance check.
func (g *grid) query(x, y, radius float64) []uint32 {
	g.scratch = g.scratch[:0]

	minCol, maxCol := g.col(x-radius), g.col(x+radius)
	minRow, maxRow := g.row(y-radius), g.row(y+radius)

	for row := minRow; row <= maxRow; row++ {
		for col := minCol; col <= maxCol; col++ {
			g.scratch = append(g.scratch, g.cells[row*g.cols+col]...)
		}
	}
	return g.scratch
}
