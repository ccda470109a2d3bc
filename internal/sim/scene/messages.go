package scene

import (
	"scenemesh.ai/internal/sim/batch"
	"scenemesh.ai/internal/sim/catalogs"
	"scenemesh.ai/internal/sim/geom"
	"scenemesh.ai/internal/sim/terrain"
	"scenemesh.ai/internal/sim/vmap"
)

// Command mutates manager state. Commands are applied synchronously by Send.
type Command interface{ isCommand() }

type SetTileList struct{ Tiles catalogs.TileList }

type SetPalette struct{ Palette catalogs.Palette }

// SetMap swaps the active map. A non-nil Terrain replaces the current terrain; a nil one
// keeps it when the map id is unchanged and starts an empty terrain otherwise.
type SetMap struct {
	Map     *vmap.Map
	Terrain *terrain.Terrain
}

type SetBuilder2D struct{ Builder Builder }

type AddDirty struct{ Coords []geom.Vec2i }

// SetDirtyTerrainChunks stores (or replaces) whole terrain chunks. The manager takes
// ownership of the chunks.
type SetDirtyTerrainChunks struct{ Chunks []*terrain.TerrainChunk }

type SetTerrainModifierState struct{ Enabled bool }

type Quit struct{}

func (SetTileList) isCommand()             {}
func (SetPalette) isCommand()              {}
func (SetMap) isCommand()                  {}
func (SetBuilder2D) isCommand()            {}
func (AddDirty) isCommand()                {}
func (SetDirtyTerrainChunks) isCommand()   {}
func (SetTerrainModifierState) isCommand() {}
func (Quit) isCommand()                    {}

type ResultKind string

const (
	KindStartup          ResultKind = "STARTUP"
	KindClear            ResultKind = "CLEAR"
	KindChunk            ResultKind = "CHUNK"
	KindProcessedHeights ResultKind = "PROCESSED_HEIGHTS"
	KindUpdatedBatch3D   ResultKind = "BATCH3D"
	KindQuit             ResultKind = "QUIT"
)

// Result is pulled from the manager with Receive, oldest first. Results own their data.
type Result interface{ Kind() ResultKind }

type StartupResult struct{}

// ClearResult tells the host to drop all geometry built for the previous map.
type ClearResult struct{}

type ChunkResult struct {
	Chunk      *VMChunk
	Remaining  int
	Total      int
	Billboards []Billboard
}

// ProcessedHeightsResult carries a chunk's freshly processed heights keyed by local
// coordinates, plus the colorize-pass texture.
type ProcessedHeightsResult struct {
	Offset  geom.Vec2i
	Heights map[geom.Vec2i]float32
	Baked   *batch.Texture
}

type UpdatedBatch3DResult struct {
	Coord geom.Vec2i
	Batch *batch.Batch3D
}

type QuitResult struct{}

func (StartupResult) Kind() ResultKind          { return KindStartup }
func (ClearResult) Kind() ResultKind            { return KindClear }
func (ChunkResult) Kind() ResultKind            { return KindChunk }
func (ProcessedHeightsResult) Kind() ResultKind { return KindProcessedHeights }
func (UpdatedBatch3DResult) Kind() ResultKind   { return KindUpdatedBatch3D }
func (QuitResult) Kind() ResultKind             { return KindQuit }
