package scene

import (
	"io"
	"log"

	"scenemesh.ai/internal/sim/batch"
	"scenemesh.ai/internal/sim/catalogs"
	"scenemesh.ai/internal/sim/geom"
	"scenemesh.ai/internal/sim/terrain"
	"scenemesh.ai/internal/sim/vmap"
)

type Config struct {
	ChunkSize int
	Builder2D Builder
	Builder3D Builder
	// Modifiers resolves region_graph ids. nil runs no shape effects.
	Modifiers terrain.ModifierResolver
	// DisableModifiers starts the manager with global terrain modifiers off.
	DisableModifiers bool
	Logger           *log.Logger
}

// Manager turns commands into per-chunk build work and drains it one chunk per Tick.
//
// All dirty chunks are built before the final phase meshes terrain for every known
// coordinate. Manager is not safe for concurrent use; one goroutine owns it.
type Manager struct {
	logger    *log.Logger
	chunkSize int

	m         *vmap.Map
	assets    *catalogs.Assets
	terrain   *terrain.Terrain
	builder2D Builder
	builder3D Builder
	fx        terrain.ModifierResolver
	modifiers bool

	bbox  geom.BBox
	total int

	dirty           map[geom.Vec2i]struct{}
	all             map[geom.Vec2i]struct{}
	modifierPending map[geom.Vec2i]struct{}

	finalUpdate bool
	finalCoords []geom.Vec2i
	finalPos    int

	results resultQueue
}

// New returns an idle manager with an empty map and terrain. A Startup result is queued.
func New(cfg Config) *Manager {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 16
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	mgr := &Manager{
		logger:          logger,
		chunkSize:       cfg.ChunkSize,
		m:               &vmap.Map{},
		assets:          &catalogs.Assets{Tiles: catalogs.NewTileList(nil)},
		terrain:         terrain.New(cfg.ChunkSize),
		builder2D:       cfg.Builder2D,
		builder3D:       cfg.Builder3D,
		fx:              cfg.Modifiers,
		modifiers:       !cfg.DisableModifiers,
		bbox:            geom.EmptyBBox(),
		dirty:           map[geom.Vec2i]struct{}{},
		all:             map[geom.Vec2i]struct{}{},
		modifierPending: map[geom.Vec2i]struct{}{},
	}
	mgr.results.push(StartupResult{})
	return mgr
}

func (s *Manager) ChunkSize() int                      { return s.chunkSize }
func (s *Manager) Map() *vmap.Map                      { return s.m }
func (s *Manager) Assets() *catalogs.Assets            { return s.assets }
func (s *Manager) Terrain() *terrain.Terrain           { return s.terrain }
func (s *Manager) ModifiersEnabled() bool              { return s.modifiers }
func (s *Manager) IsBusy() bool                        { return len(s.dirty) > 0 || s.finalUpdate }
func (s *Manager) RemainingChunks() int                { return len(s.dirty) }
func (s *Manager) TotalChunks() int                    { return s.total }
func (s *Manager) PendingResults() int                 { return s.results.len() }
func (s *Manager) DirtyCoords() []geom.Vec2i           { return geom.SortedKeys(s.dirty) }
func (s *Manager) KnownCoords() []geom.Vec2i           { return geom.SortedKeys(s.all) }
func (s *Manager) PendingModifierCoords() []geom.Vec2i { return geom.SortedKeys(s.modifierPending) }

// Send applies one command.
func (s *Manager) Send(cmd Command) {
	switch c := cmd.(type) {
	case SetTileList:
		s.assets.Tiles = c.Tiles
		s.invalidateAll("tiles")
	case SetPalette:
		s.assets.Palette = c.Palette
		s.invalidateAll("palette")
	case SetBuilder2D:
		s.builder2D = c.Builder
		s.invalidateAll("builder2d")
	case SetMap:
		s.setMap(c)
	case AddDirty:
		for _, coord := range c.Coords {
			s.markDirty(coord)
		}
	case SetDirtyTerrainChunks:
		for _, ch := range c.Chunks {
			if ch == nil {
				continue
			}
			ch.MarkDirty()
			for _, origin := range s.terrain.StoreChunk(ch) {
				s.markDirty(origin)
				if !s.modifiers {
					s.modifierPending[origin] = struct{}{}
				}
			}
		}
	case SetTerrainModifierState:
		if c.Enabled && !s.modifiers {
			for _, coord := range geom.SortedKeys(s.modifierPending) {
				if ch := s.terrain.Chunk(coord); ch != nil {
					ch.MarkDirty()
				}
				s.markDirty(coord)
			}
			s.logger.Printf("terrain modifiers enabled: %d chunks re-queued", len(s.modifierPending))
		} else if !c.Enabled && s.modifiers {
			s.logger.Printf("terrain modifiers disabled")
		}
		s.modifierPending = map[geom.Vec2i]struct{}{}
		s.modifiers = c.Enabled
	case Quit:
		s.results.push(QuitResult{})
	}
}

func (s *Manager) setMap(c SetMap) {
	next := c.Map
	if next == nil {
		next = &vmap.Map{}
	}
	changed := next.ID != s.m.ID
	if changed {
		s.results.push(ClearResult{})
	}
	switch {
	case c.Terrain != nil:
		t := c.Terrain
		if t.ChunkSize != s.chunkSize {
			s.logger.Printf("map %q: rechunking terrain %d -> %d", next.ID, t.ChunkSize, s.chunkSize)
			t = t.Rechunk(s.chunkSize)
		}
		s.terrain = t
	case changed:
		s.terrain = terrain.New(s.chunkSize)
	}
	if changed {
		s.logger.Printf("map %q -> %q", s.m.ID, next.ID)
	}
	s.m = next
	s.invalidateAll("map")
}

// invalidateAll rebuilds dirty from the map and terrain bounds and sets all := dirty.
// Terrain chunks are flagged for reprocessing since graphs read the map and assets.
func (s *Manager) invalidateAll(reason string) {
	s.bbox = s.m.BBox().Union(s.terrain.ComputeBounds())
	s.dirty = ChunkCoords(s.bbox, s.chunkSize)
	s.all = make(map[geom.Vec2i]struct{}, len(s.dirty))
	for k := range s.dirty {
		s.all[k] = struct{}{}
	}
	s.total = len(s.all)
	s.terrain.MarkAllDirty()
	s.cancelFinal()
	s.logger.Printf("full invalidation (%s): %d chunks", reason, s.total)
}

func (s *Manager) markDirty(coord geom.Vec2i) {
	s.dirty[coord] = struct{}{}
	if _, ok := s.all[coord]; !ok {
		s.all[coord] = struct{}{}
		s.total = len(s.all)
	}
	s.cancelFinal()
}

// cancelFinal drops an in-progress final phase; it restarts once dirty drains again.
func (s *Manager) cancelFinal() {
	s.finalUpdate = false
	s.finalCoords = nil
	s.finalPos = 0
}

// Tick does one unit of work and reports whether it did anything.
// It returns false only when no chunk is dirty and the final phase is not running.
func (s *Manager) Tick() bool {
	if s.finalUpdate {
		if s.finalPos < len(s.finalCoords) {
			coord := s.finalCoords[s.finalPos]
			s.finalPos++
			s.buildTerrainMesh(coord)
			return true
		}
		s.cancelFinal()
	}

	coord, ok := s.popDirty()
	if !ok {
		return false
	}
	s.buildChunk(coord)
	if len(s.dirty) == 0 {
		s.finalCoords = geom.SortedKeys(s.all)
		s.finalPos = 0
		s.finalUpdate = true
		s.logger.Printf("dirty drained; final terrain pass over %d chunks", len(s.finalCoords))
	}
	return true
}

// TickBatch calls Tick up to max times and returns how many calls did work.
func (s *Manager) TickBatch(max int) int {
	n := 0
	for n < max && s.Tick() {
		n++
	}
	return n
}

// Receive pops the oldest result.
func (s *Manager) Receive() (Result, bool) {
	return s.results.pop()
}

func (s *Manager) popDirty() (geom.Vec2i, bool) {
	for coord := range s.dirty {
		delete(s.dirty, coord)
		return coord, true
	}
	return geom.Vec2i{}, false
}

func (s *Manager) buildChunk(coord geom.Vec2i) {
	if ch := s.terrain.Chunk(coord); ch != nil && (ch.IsDirty() || ch.ProcessedHeights() == nil) {
		s.processTerrain(coord, ch)
	}

	chunk := newChunk(coord, s.chunkSize, s.terrain)
	vm := &VMChunk{Origin: coord, Size: s.chunkSize}
	if s.builder2D != nil {
		s.builder2D.Build(s.m, s.assets, chunk, vm)
	}
	if s.builder3D != nil {
		s.builder3D.Build(s.m, s.assets, chunk, vm)
	}
	s.results.push(ChunkResult{
		Chunk:      vm,
		Remaining:  len(s.dirty),
		Total:      s.total,
		Billboards: chunk.Billboards,
	})
}

func (s *Manager) processTerrain(coord geom.Vec2i, ch *terrain.TerrainChunk) {
	baked := batch.NewTexture(s.chunkSize, s.chunkSize)
	var fx terrain.ModifierResolver
	if s.modifiers {
		fx = s.fx
	}
	heights := ch.ProcessBatchModifiers(fx, s.terrain, s.m, s.assets, baked)
	ch.SetProcessedHeights(heights)
	ch.SetBakedTexture(baked)
	ch.ClearDirty()

	out := make(map[geom.Vec2i]float32, len(heights))
	for k, v := range heights {
		out[k] = v
	}
	s.results.push(ProcessedHeightsResult{Offset: coord, Heights: out, Baked: baked.Clone()})
}

func (s *Manager) buildTerrainMesh(coord geom.Vec2i) {
	ch := s.terrain.Chunk(coord)
	if ch == nil {
		return
	}
	b := ch.BuildMesh(s.terrain)
	if b.IsEmpty() {
		return
	}
	s.results.push(UpdatedBatch3DResult{Coord: coord, Batch: b})
}
