// Package systems hosts the pursuer entity world and the queries the
// protagonist makes against it.
package systems

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/afterimage/components"
)

// Neighbor holds a nearby entity with precomputed spatial data.
type Neighbor struct {
	E      ecs.Entity
	DX, DZ float64 // delta from query origin
	DistSq float64
}

// SpatialGrid provides O(1) neighbor lookups using a cell-based grid over a
// bounded floor. Positions outside the floor are clamped to the edge cells.
type SpatialGrid struct {
	cellSize float64
	cols     int
	rows     int
	cells    [][]ecs.Entity // flat grid of entity lists
}

// NewSpatialGrid creates a spatial grid covering the given floor size.
func NewSpatialGrid(width, depth, cellSize float64) *SpatialGrid {
	cols := int(width/cellSize) + 1
	rows := int(depth/cellSize) + 1

	cells := make([][]ecs.Entity, cols*rows)
	for i := range cells {
		cells[i] = make([]ecs.Entity, 0, 4)
	}

	return &SpatialGrid{
		cellSize: cellSize,
		cols:     cols,
		rows:     rows,
		cells:    cells,
	}
}

// Clear removes all entities from the grid.
func (g *SpatialGrid) Clear() {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
}

// Insert adds an entity to the grid at the given position.
func (g *SpatialGrid) Insert(e ecs.Entity, x, z float64) {
	idx := g.cellIndex(x, z)
	g.cells[idx] = append(g.cells[idx], e)
}

// MaxQueryResults caps the number of neighbors returned by spatial queries.
const MaxQueryResults = 64

// QueryRadiusInto finds entities within radius and appends them to dst.
// Reuse dst across calls to avoid allocations.
func (g *SpatialGrid) QueryRadiusInto(dst []Neighbor, x, z, radius float64, posMap *ecs.Map1[components.Position]) []Neighbor {
	minCol, minRow := g.cellCoords(x-radius, z-radius)
	maxCol, maxRow := g.cellCoords(x+radius, z+radius)

	radiusSq := radius * radius

	for row := minRow; row <= maxRow; row++ {
		for col := minCol; col <= maxCol; col++ {
			for _, e := range g.cells[row*g.cols+col] {
				pos := posMap.Get(e)
				if pos == nil {
					continue
				}

				dx, dz := pos.X-x, pos.Z-z
				distSq := dx*dx + dz*dz
				if distSq <= radiusSq {
					dst = append(dst, Neighbor{E: e, DX: dx, DZ: dz, DistSq: distSq})
					if len(dst) >= MaxQueryResults {
						return dst
					}
				}
			}
		}
	}

	return dst
}

// cellIndex returns the flat index for a world position.
func (g *SpatialGrid) cellIndex(x, z float64) int {
	col, row := g.cellCoords(x, z)
	return row*g.cols + col
}

func (g *SpatialGrid) cellCoords(x, z float64) (col, row int) {
	col = clampInt(int(x/g.cellSize), 0, g.cols-1)
	row = clampInt(int(z/g.cellSize), 0, g.rows-1)
	return col, row
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
