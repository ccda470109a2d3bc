package terrain

import (
	"scenemesh.ai/internal/sim/batch"
	"scenemesh.ai/internal/sim/catalogs"
	"scenemesh.ai/internal/sim/geom"
	"scenemesh.ai/internal/sim/vmap"
)

type Pass uint8

const (
	PassHeight Pass = iota
	PassColorize
)

func (p Pass) String() string {
	if p == PassColorize {
		return "COLORIZE"
	}
	return "HEIGHT"
}

// ModifyContext is what a shape-effect graph sees during one invocation.
// Heights is the chunk's working copy, keyed by local coordinates; graphs write into it.
type ModifyContext struct {
	Map     *vmap.Map
	Terrain *Terrain
	BBox    geom.BBox
	Chunk   *TerrainChunk
	Heights map[geom.Vec2i]float32
	Assets  *catalogs.Assets
	Baked   *batch.Texture
	Pass    Pass
}

// Modifier is a procedural shape-effect graph.
type Modifier interface {
	ModifySectorHeights(s *vmap.Sector, ctx *ModifyContext)
	// ModifyLinedefHeights receives every linedef of the chunk that references this graph,
	// so effects can run continuously across segments.
	ModifyLinedefHeights(lines []*vmap.Linedef, ctx *ModifyContext)
}

// ModifierResolver maps a region_graph id to a graph. ok=false means "no modifier".
type ModifierResolver interface {
	Modifier(m *vmap.Map, id string) (Modifier, bool)
}

// modifierReach is how far outside its bounding box a sector or linedef may still affect heights.
const modifierReach = 2

type sectorJob struct {
	sector *vmap.Sector
	mod    Modifier
}

type linedefGroup struct {
	mod   Modifier
	lines []*vmap.Linedef
}

// ProcessBatchModifiers runs every shape-effect graph touching this chunk and returns
// the resulting heights (local keys). The raw heights are never modified; the caller
// decides whether to store the result with SetProcessedHeights.
//
// All Height-pass invocations finish before the first Colorize-pass invocation.
// Sectors run largest first so smaller sectors override the ones that contain them.
func (c *TerrainChunk) ProcessBatchModifiers(fx ModifierResolver, t *Terrain, m *vmap.Map, assets *catalogs.Assets, baked *batch.Texture) map[geom.Vec2i]float32 {
	work := c.cloneHeights()
	if fx == nil || m == nil {
		return work
	}
	bounds := c.Bounds()

	var sectors []sectorJob
	for _, s := range m.SectorsByArea() {
		id, ok := s.Props.RegionGraph()
		if !ok {
			continue
		}
		if !m.SectorBBox(s).Expand(modifierReach).Intersects(bounds) {
			continue
		}
		mod, ok := fx.Modifier(m, id)
		if !ok {
			continue
		}
		sectors = append(sectors, sectorJob{sector: s, mod: mod})
	}

	var order []string
	groups := map[string]*linedefGroup{}
	for i := range m.Linedefs {
		l := &m.Linedefs[i]
		id, ok := l.Props.RegionGraph()
		if !ok {
			continue
		}
		if !m.LinedefBBox(l).Expand(modifierReach).Intersects(bounds) {
			continue
		}
		g, seen := groups[id]
		if !seen {
			mod, ok := fx.Modifier(m, id)
			if !ok {
				groups[id] = nil
				continue
			}
			g = &linedefGroup{mod: mod}
			groups[id] = g
			order = append(order, id)
		}
		if g == nil {
			continue
		}
		g.lines = append(g.lines, l)
	}

	for _, pass := range []Pass{PassHeight, PassColorize} {
		ctx := &ModifyContext{
			Map:     m,
			Terrain: t,
			BBox:    bounds,
			Chunk:   c,
			Heights: work,
			Assets:  assets,
			Baked:   baked,
			Pass:    pass,
		}
		for _, job := range sectors {
			job.mod.ModifySectorHeights(job.sector, ctx)
		}
		for _, id := range order {
			g := groups[id]
			g.mod.ModifyLinedefHeights(g.lines, ctx)
		}
	}
	return work
}
