package protocol

// HELLO (client -> server)
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ClientName      string `json:"client_name"`
	// WantBatches asks for full vertex data in CHUNK/BATCH3D; otherwise only counts are sent.
	WantBatches bool `json:"want_batches,omitempty"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string         `json:"type"`
	ProtocolVersion string         `json:"protocol_version"`
	SessionID       string         `json:"session_id"`
	MapID           string         `json:"map_id"`
	ChunkSize       int            `json:"chunk_size"`
	TickRateHz      int            `json:"tick_rate_hz"`
	Modifiers       bool           `json:"modifiers"`
	Catalogs        CatalogDigests `json:"catalogs"`
}

type CatalogDigests struct {
	Tiles        DigestRef `json:"tiles"`
	Palette      DigestRef `json:"palette"`
	TuningDigest string    `json:"tuning_digest,omitempty"`
}

type DigestRef struct {
	Digest string `json:"digest"`
	Count  int    `json:"count"`
}

// ADD_DIRTY (client -> server)
type AddDirtyMsg struct {
	Type            string   `json:"type"`
	ProtocolVersion string   `json:"protocol_version"`
	ReqID           string   `json:"req_id,omitempty"`
	Coords          [][2]int `json:"coords"`
}

type HeightCell struct {
	X int     `json:"x"`
	Y int     `json:"y"`
	H float32 `json:"h"`
}

// SET_HEIGHTS (client -> server): raw height edits in world coordinates.
type SetHeightsMsg struct {
	Type            string       `json:"type"`
	ProtocolVersion string       `json:"protocol_version"`
	ReqID           string       `json:"req_id,omitempty"`
	Cells           []HeightCell `json:"cells"`
}

// SET_MODIFIERS (client -> server)
type SetModifiersMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ReqID           string `json:"req_id,omitempty"`
	Enabled         bool   `json:"enabled"`
}

// RELOAD_MAP (client -> server). Path is resolved by the server; empty reloads the current file.
type ReloadMapMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ReqID           string `json:"req_id,omitempty"`
	Path            string `json:"path,omitempty"`
}

// QUIT (both directions)
type QuitMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Tick            uint64 `json:"tick,omitempty"`
}

type AckMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	AckFor          string `json:"ack_for"`
	Accepted        bool   `json:"accepted"`
	Code            string `json:"code,omitempty"`
	Message         string `json:"message,omitempty"`
	ServerTick      uint64 `json:"server_tick,omitempty"`
}

// STARTUP / CLEAR (server -> client)
type SignalMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Tick            uint64 `json:"tick"`
}

type SourceObs struct {
	Kind   string   `json:"kind"`
	TileID string   `json:"tile_id,omitempty"`
	Color  [4]uint8 `json:"color,omitempty"`
}

// Batch2DObs and Batch3DObs carry flattened index lists (three per triangle).
type Batch2DObs struct {
	Source    SourceObs    `json:"source"`
	Triangles int          `json:"triangles"`
	Vertices  [][2]float32 `json:"vertices,omitempty"`
	UVs       [][2]float32 `json:"uvs,omitempty"`
	Indices   []uint32     `json:"indices,omitempty"`
}

type Batch3DObs struct {
	Source    SourceObs    `json:"source"`
	Triangles int          `json:"triangles"`
	Vertices  [][3]float32 `json:"vertices,omitempty"`
	UVs       [][2]float32 `json:"uvs,omitempty"`
	Normals   [][3]float32 `json:"normals,omitempty"`
	Indices   []uint32     `json:"indices,omitempty"`
}

type BillboardObs struct {
	Pos    [3]float32 `json:"pos"`
	Size   float32    `json:"size"`
	TileID string     `json:"tile_id"`
}

// CHUNK (server -> client)
type ChunkMsg struct {
	Type            string         `json:"type"`
	ProtocolVersion string         `json:"protocol_version"`
	Tick            uint64         `json:"tick"`
	Origin          [2]int         `json:"origin"`
	Size            int            `json:"size"`
	Remaining       int            `json:"remaining"`
	Total           int            `json:"total"`
	Billboards      []BillboardObs `json:"billboards"`
	Batches2D       []Batch2DObs   `json:"batches2d"`
	Batches3D       []Batch3DObs   `json:"batches3d"`
}

// PROCESSED_HEIGHTS (server -> client). Cells use chunk-local coordinates.
type ProcessedHeightsMsg struct {
	Type            string       `json:"type"`
	ProtocolVersion string       `json:"protocol_version"`
	Tick            uint64       `json:"tick"`
	Offset          [2]int       `json:"offset"`
	Cells           []HeightCell `json:"cells"`
}

// BATCH3D (server -> client): a terrain mesh from the final pass.
type Batch3DMsg struct {
	Type            string     `json:"type"`
	ProtocolVersion string     `json:"protocol_version"`
	Tick            uint64     `json:"tick"`
	Coord           [2]int     `json:"coord"`
	Batch           Batch3DObs `json:"batch"`
}
