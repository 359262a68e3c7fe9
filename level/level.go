// Package level holds the static enclosure: wall tiles, exit regions and the
// tile-navigation lookup that pursuers and the protagonist query.
//
// Levels are consumed here, not generated. The text form is one character per
// tile: '#' wall, '.' floor, 'P' player spawn, 'Z' pursuer spawn, 'E' exit.
package level

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/elliotchance/orderedmap/v2"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/afterimage/collision"
)

var (
	// ErrNoSpawn is returned for maps without a player spawn.
	ErrNoSpawn = errors.New("level has no player spawn")
	// ErrBadTile is returned for characters outside the tile alphabet.
	ErrBadTile = errors.New("unknown tile")
)

// Tile is the kind of one grid cell.
type Tile uint8

const (
	TileFloor Tile = iota
	TileWall
	TileExit
)

// NavNode is a walkable tile in the navigation graph.
type NavNode struct {
	Col, Row  int
	Center    r2.Vec
	Neighbors []*NavNode
}

// Exit is a named rectangular exit region.
type Exit struct {
	ID     string
	Bounds r2.Box
}

// Level is a parsed tile enclosure.
type Level struct {
	tileSize   float64
	cols, rows int
	tiles      []Tile
	walls      []collision.Obstacle // indexed like tiles; only wall entries are meaningful
	nodes      []*NavNode           // nil for walls
	exits      *orderedmap.OrderedMap[string, r2.Box]

	playerSpawn   r2.Vec
	pursuerSpawns []r2.Vec
}

// Parse builds a level from its text form.
func Parse(text string, tileSize float64) (*Level, error) {
	if tileSize <= 0 {
		return nil, fmt.Errorf("parse level: tile size %v", tileSize)
	}

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r \t")
		if line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("parse level: %w", ErrNoSpawn)
	}

	cols := 0
	for _, line := range lines {
		cols = max(cols, len(line))
	}

	lvl := &Level{
		tileSize: tileSize,
		cols:     cols,
		rows:     len(lines),
		tiles:    make([]Tile, cols*len(lines)),
		walls:    make([]collision.Obstacle, cols*len(lines)),
		nodes:    make([]*NavNode, cols*len(lines)),
		exits:    orderedmap.NewOrderedMap[string, r2.Box](),
	}

	spawnFound := false
	for row, line := range lines {
		for col := 0; col < cols; col++ {
			ch := byte('#') // short rows are padded with wall
			if col < len(line) {
				ch = line[col]
			}

			idx := row*cols + col
			center := lvl.tileCenter(col, row)

			switch ch {
			case '#':
				lvl.tiles[idx] = TileWall
			case '.':
				lvl.tiles[idx] = TileFloor
			case 'P':
				if spawnFound {
					return nil, fmt.Errorf("parse level: second player spawn at %d,%d", col, row)
				}
				spawnFound = true
				lvl.playerSpawn = center
			case 'Z':
				lvl.pursuerSpawns = append(lvl.pursuerSpawns, center)
			case 'E':
				lvl.tiles[idx] = TileExit
				id := fmt.Sprintf("exit-%d", lvl.exits.Len())
				lvl.exits.Set(id, lvl.tileBox(col, row))
			default:
				return nil, fmt.Errorf("parse level: %q at %d,%d: %w", ch, col, row, ErrBadTile)
			}

			lvl.walls[idx] = collision.Obstacle{Bounds: lvl.tileBox(col, row)}
		}
	}
	if !spawnFound {
		return nil, fmt.Errorf("parse level: %w", ErrNoSpawn)
	}

	lvl.buildNavGraph()
	return lvl, nil
}

// buildNavGraph links every walkable tile to its walkable 4-neighbours.
func (l *Level) buildNavGraph() {
	for row := 0; row < l.rows; row++ {
		for col := 0; col < l.cols; col++ {
			idx := row*l.cols + col
			if l.tiles[idx] == TileWall {
				continue
			}
			l.nodes[idx] = &NavNode{Col: col, Row: row, Center: l.tileCenter(col, row)}
		}
	}

	dirs := [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
	for _, n := range l.nodes {
		if n == nil {
			continue
		}
		for _, d := range dirs {
			if nb := l.node(n.Col+d[0], n.Row+d[1]); nb != nil {
				n.Neighbors = append(n.Neighbors, nb)
			}
		}
	}
}

// TileSize returns the edge length of one tile in world units.
func (l *Level) TileSize() float64 { return l.tileSize }

// Size returns the grid dimensions in tiles.
func (l *Level) Size() (cols, rows int) { return l.cols, l.rows }

// Bounds returns the world-space extent of the level.
func (l *Level) Bounds() r2.Box {
	return r2.Box{Max: r2.Vec{X: float64(l.cols) * l.tileSize, Y: float64(l.rows) * l.tileSize}}
}

// PlayerSpawn returns the protagonist's start position.
func (l *Level) PlayerSpawn() r2.Vec { return l.playerSpawn }

// PursuerSpawns returns pursuer start positions in map order.
func (l *Level) PursuerSpawns() []r2.Vec {
	out := make([]r2.Vec, len(l.pursuerSpawns))
	copy(out, l.pursuerSpawns)
	return out
}

// TileAt returns the navigation node under a world position, or nil for
// walls and positions outside the level.
func (l *Level) TileAt(x, z float64) *NavNode {
	return l.node(l.cellOf(x), l.cellOf(z))
}

// WallCollisionAt returns the wall tile the body overlaps, if any.
// Everything outside the map counts as wall.
func (l *Level) WallCollisionAt(b collision.Body) (*collision.Obstacle, error) {
	if math.IsNaN(b.Center.X) || math.IsNaN(b.Center.Y) {
		return nil, fmt.Errorf("wall query: NaN body position")
	}

	minCol, maxCol := l.cellOf(b.Center.X-b.Radius), l.cellOf(b.Center.X+b.Radius)
	minRow, maxRow := l.cellOf(b.Center.Y-b.Radius), l.cellOf(b.Center.Y+b.Radius)

	for row := minRow; row <= maxRow; row++ {
		for col := minCol; col <= maxCol; col++ {
			if l.inside(col, row) {
				idx := row*l.cols + col
				if l.tiles[idx] != TileWall {
					continue
				}
				if collision.Intersects(b, l.walls[idx].Bounds) {
					return &l.walls[idx], nil
				}
				continue
			}
			outside := collision.Obstacle{Bounds: l.tileBox(col, row)}
			if collision.Intersects(b, outside.Bounds) {
				return &outside, nil
			}
		}
	}
	return nil, nil
}

// Exits returns exit regions in map scan order.
func (l *Level) Exits() []Exit {
	out := make([]Exit, 0, l.exits.Len())
	for el := l.exits.Front(); el != nil; el = el.Next() {
		out = append(out, Exit{ID: el.Key, Bounds: el.Value})
	}
	return out
}

// ExitAt returns the first exit region, in order, that the body overlaps.
func (l *Level) ExitAt(b collision.Body) (string, bool) {
	for el := l.exits.Front(); el != nil; el = el.Next() {
		if collision.Intersects(b, el.Value) {
			return el.Key, true
		}
	}
	return "", false
}

func (l *Level) node(col, row int) *NavNode {
	if !l.inside(col, row) {
		return nil
	}
	return l.nodes[row*l.cols+col]
}

func (l *Level) inside(col, row int) bool {
	return col >= 0 && row >= 0 && col < l.cols && row < l.rows
}

func (l *Level) cellOf(v float64) int {
	return int(math.Floor(v / l.tileSize))
}

func (l *Level) tileBox(col, row int) r2.Box {
	x, z := float64(col)*l.tileSize, float64(row)*l.tileSize
	return r2.Box{
		Min: r2.Vec{X: x, Y: z},
		Max: r2.Vec{X: x + l.tileSize, Y: z + l.tileSize},
	}
}

func (l *Level) tileCenter(col, row int) r2.Vec {
	return r2.Vec{
		X: (float64(col) + 0.5) * l.tileSize,
		Y: (float64(row) + 0.5) * l.tileSize,
	}
}
