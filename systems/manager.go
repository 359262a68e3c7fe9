package systems

import (
	"log/slog"
	"math"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/afterimage/collision"
	"github.com/pthm-cable/afterimage/components"
	"github.com/pthm-cable/afterimage/config"
	"github.com/pthm-cable/afterimage/level"
)

// Manager owns the pursuer world and answers the protagonist's collision
// queries. Wall and exit queries go to the level; hostile queries go to the
// pursuers through a spatial grid rebuilt whenever they move.
type Manager struct {
	world *ecs.World

	pursuerMapper *ecs.Map4[
		components.Position,
		components.Rotation,
		components.Body,
		components.Pursuer,
	]
	pursuerFilter *ecs.Filter4[
		components.Position,
		components.Rotation,
		components.Body,
		components.Pursuer,
	]
	posMap *ecs.Map1[components.Position]

	level *level.Level
	grid  *SpatialGrid
	cfg   config.PursuerConfig
	log   *slog.Logger

	// Reused query buffer
	neighbors []Neighbor

	nextID uint32
	count  int
}

// NewManager creates the pursuer world and spawns one pursuer per spawn tile.
func NewManager(lvl *level.Level, cfg config.PursuerConfig, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	world := ecs.NewWorld()

	bounds := lvl.Bounds()
	m := &Manager{
		world: world,
		pursuerMapper: ecs.NewMap4[
			components.Position,
			components.Rotation,
			components.Body,
			components.Pursuer,
		](world),
		pursuerFilter: ecs.NewFilter4[
			components.Position,
			components.Rotation,
			components.Body,
			components.Pursuer,
		](world),
		posMap: ecs.NewMap1[components.Position](world),
		level:  lvl,
		grid:   NewSpatialGrid(bounds.Max.X, bounds.Max.Y, cfg.GridCellSize),
		cfg:    cfg,
		log:    logger,
	}

	for _, spawn := range lvl.PursuerSpawns() {
		m.spawnPursuer(spawn)
	}
	m.updateSpatialGrid()

	return m
}

// spawnPursuer creates a pursuer entity at the given position.
func (m *Manager) spawnPursuer(spawn r2.Vec) ecs.Entity {
	id := m.nextID
	m.nextID++

	pos := components.Position{X: spawn.X, Z: spawn.Y}
	rot := components.Rotation{}
	body := components.BodyFromConfig(&m.cfg)
	p := components.Pursuer{
		ID:     id,
		SpawnX: spawn.X,
		SpawnZ: spawn.Y,
		Speed:  m.cfg.Speed,
	}

	entity := m.pursuerMapper.NewEntity(&pos, &rot, &body, &p)
	m.count++
	return entity
}

// Count returns the number of live pursuers.
func (m *Manager) Count() int { return m.count }

// WallCollisionAt reports the level wall the body overlaps.
func (m *Manager) WallCollisionAt(b collision.Body) (*collision.Obstacle, error) {
	return m.level.WallCollisionAt(b)
}

// ExitAt reports the exit region the body overlaps.
func (m *Manager) ExitAt(b collision.Body) (string, bool) {
	return m.level.ExitAt(b)
}

// TileAt returns the navigation node under a position.
func (m *Manager) TileAt(x, z float64) *level.NavNode {
	return m.level.TileAt(x, z)
}

// HostileCollisionAt reports whether the body overlaps any pursuer that is
// not stunned.
func (m *Manager) HostileCollisionAt(b collision.Body) bool {
	reach := b.Radius + m.cfg.Radius
	m.neighbors = m.grid.QueryRadiusInto(m.neighbors[:0], b.Center.X, b.Center.Y, reach, m.posMap)

	for _, n := range m.neighbors {
		pos, _, body, p := m.pursuerMapper.Get(n.E)
		if p.Stunned() {
			continue
		}
		other := collision.Body{Center: r2.Vec{X: pos.X, Y: pos.Z}, Radius: body.Radius, Height: body.Height}
		if collision.Overlap(b, other) {
			return true
		}
	}
	return false
}

// Step advances every pursuer one tick: stunned pursuers count down, the
// rest steer straight at the target and slide along walls.
func (m *Manager) Step(target r2.Vec) {
	query := m.pursuerFilter.Query()
	for query.Next() {
		pos, rot, body, p := query.Get()

		if p.Stunned() {
			p.Stun--
			continue
		}

		dx, dz := target.X-pos.X, target.Y-pos.Z
		dist := math.Hypot(dx, dz)
		if dist < 1e-9 {
			continue
		}
		step := math.Min(p.Speed, dist)
		delta := r2.Vec{X: dx / dist * step, Y: dz / dist * step}
		rot.Heading = math.Atan2(dx, dz) * 180 / math.Pi

		self := collision.Body{Center: r2.Vec{X: pos.X, Y: pos.Z}, Radius: body.Radius, Height: body.Height}
		res := collision.Slide(m.level, self, delta)
		if res.Err != nil {
			m.log.Warn("pursuer wall query failed, movement applied", "pursuer", p.ID, "error", res.Err)
		}
		pos.X, pos.Z = res.Position.X, res.Position.Y
	}

	m.updateSpatialGrid()
}

// ResolveAttack stuns every pursuer whose body lies within reach of origin
// and returns how many were struck.
func (m *Manager) ResolveAttack(origin r2.Vec, reach float64) int {
	m.neighbors = m.grid.QueryRadiusInto(m.neighbors[:0], origin.X, origin.Y, reach+m.cfg.Radius, m.posMap)

	struck := 0
	for _, n := range m.neighbors {
		_, _, body, p := m.pursuerMapper.Get(n.E)
		limit := reach + body.Radius
		if n.DistSq > limit*limit {
			continue
		}
		p.Stun = m.cfg.StunTicks
		struck++
	}
	return struck
}

// Stunned returns how many pursuers are currently stunned.
func (m *Manager) Stunned() int {
	n := 0
	query := m.pursuerFilter.Query()
	for query.Next() {
		_, _, _, p := query.Get()
		if p.Stunned() {
			n++
		}
	}
	return n
}

// Positions returns pursuer positions in spawn order.
func (m *Manager) Positions() []r2.Vec {
	out := make([]r2.Vec, m.count)
	query := m.pursuerFilter.Query()
	for query.Next() {
		pos, _, _, p := query.Get()
		if int(p.ID) < len(out) {
			out[p.ID] = r2.Vec{X: pos.X, Y: pos.Z}
		}
	}
	return out
}

// Reset returns every pursuer to its spawn tile.
func (m *Manager) Reset() {
	query := m.pursuerFilter.Query()
	for query.Next() {
		pos, rot, _, p := query.Get()
		pos.X, pos.Z = p.SpawnX, p.SpawnZ
		rot.Heading = 0
		p.Stun = 0
	}
	m.updateSpatialGrid()
}

// Release removes every pursuer from the world.
func (m *Manager) Release() {
	// First pass: collect (must complete before modifying)
	var toRemove []ecs.Entity
	query := m.pursuerFilter.Query()
	for query.Next() {
		toRemove = append(toRemove, query.Entity())
	}

	// Second pass: remove (query iteration complete)
	for _, e := range toRemove {
		m.pursuerMapper.Remove(e)
		m.count--
	}
	m.grid.Clear()
}

// updateSpatialGrid rebuilds the spatial index.
func (m *Manager) updateSpatialGrid() {
	m.grid.Clear()

	query := m.pursuerFilter.Query()
	for query.Next() {
		entity := query.Entity()
		pos, _, _, _ := query.Get()
		m.grid.Insert(entity, pos.X, pos.Z)
	}
}
