package snapshot

import (
	"bufio"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"scenemesh.ai/internal/sim/vmap"
)

const Version = 1

type Header struct {
	Version int    `json:"version"`
	MapID   string `json:"map_id"`
	Tick    uint64 `json:"tick"`
}

// SnapshotV1 holds the persistent scene state. Processed heights and dirty flags are
// not stored; they are rebuilt after load.
type SnapshotV1 struct {
	Header Header `json:"header"`

	ChunkSize        int  `json:"chunk_size"`
	ModifiersEnabled bool `json:"modifiers_enabled"`

	Map     vmap.Map         `json:"map"`
	Terrain []TerrainChunkV1 `json:"terrain"`
}

type TerrainChunkV1 struct {
	OX   int `json:"ox"`
	OY   int `json:"oy"`
	Size int `json:"size"`

	// Cells use local coordinates, sorted by (X, Y).
	Heights []HeightCellV1 `json:"heights"`
	Sources []SourceCellV1 `json:"sources,omitempty"`
	Blends  []BlendCellV1  `json:"blends,omitempty"`
}

type HeightCellV1 struct {
	X int     `json:"x"`
	Y int     `json:"y"`
	H float32 `json:"h"`
}

type SourceCellV1 struct {
	X      int      `json:"x"`
	Y      int      `json:"y"`
	Kind   uint8    `json:"kind"`
	TileID string   `json:"tile_id,omitempty"`
	Color  [4]uint8 `json:"color,omitempty"`
}

type BlendCellV1 struct {
	X         int     `json:"x"`
	Y         int     `json:"y"`
	Kind      uint8   `json:"kind"`
	Strength  float32 `json:"strength,omitempty"`
	Strength2 float32 `json:"strength2,omitempty"`
	OffsetX   float32 `json:"offset_x,omitempty"`
	OffsetY   float32 `json:"offset_y,omitempty"`
}

func WriteSnapshot(path string, snap SnapshotV1) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}

	bw := bufio.NewWriterSize(enc, 256*1024)

	hb, _ := json.Marshal(snap.Header)
	if _, err := bw.Write(hb); err != nil {
		_ = enc.Close()
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		_ = enc.Close()
		return err
	}
	if err := gob.NewEncoder(bw).Encode(&snap); err != nil {
		_ = enc.Close()
		return fmt.Errorf("gob encode: %w", err)
	}
	if err := bw.Flush(); err != nil {
		_ = enc.Close()
		return err
	}
	return enc.Close()
}

func ReadSnapshot(path string) (SnapshotV1, error) {
	var snap SnapshotV1
	f, err := os.Open(path)
	if err != nil {
		return snap, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return snap, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 256*1024)

	// Header line duplicates what gob carries; skip it.
	if _, err := br.ReadBytes('\n'); err != nil {
		return snap, fmt.Errorf("read header: %w", err)
	}
	if err := gob.NewDecoder(br).Decode(&snap); err != nil {
		return snap, fmt.Errorf("gob decode: %w", err)
	}
	if snap.Header.Version != Version {
		return snap, fmt.Errorf("unsupported snapshot version %d", snap.Header.Version)
	}
	snap.Map.Reindex()
	return snap, nil
}

// ReadHeader reads only the JSON header line.
func ReadHeader(path string) (Header, error) {
	var h Header
	f, err := os.Open(path)
	if err != nil {
		return h, err
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		return h, err
	}
	defer dec.Close()
	line, err := bufio.NewReader(dec).ReadBytes('\n')
	if err != nil {
		return h, fmt.Errorf("read header: %w", err)
	}
	if err := json.Unmarshal(line, &h); err != nil {
		return h, fmt.Errorf("decode header: %w", err)
	}
	return h, nil
}
