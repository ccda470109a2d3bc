package snapshot

import (
	"path/filepath"
	"testing"

	"scenemesh.ai/internal/sim/vmap"
)

func TestWriteReadSnapshot_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshots", "7.snap.zst")
	snap := SnapshotV1{
		Header:           Header{Version: Version, MapID: "m1", Tick: 7},
		ChunkSize:        16,
		ModifiersEnabled: true,
		Map: vmap.Map{
			ID:       "m1",
			Name:     "demo",
			Vertices: []vmap.Vertex{{ID: 1, X: 0, Y: 0}, {ID: 2, X: 4, Y: 0, Props: vmap.Properties{"billboard": "tree"}}},
			Linedefs: []vmap.Linedef{{ID: 1, Start: 1, End: 2}},
		},
		Terrain: []TerrainChunkV1{{
			OX: 16, OY: -16, Size: 16,
			Heights: []HeightCellV1{{X: 0, Y: 0, H: 1.5}, {X: 3, Y: 2, H: -2}},
			Sources: []SourceCellV1{{X: 0, Y: 0, Kind: 1, TileID: "grass"}},
			Blends:  []BlendCellV1{{X: 3, Y: 2, Kind: 2, Strength: 0.5, OffsetX: 1}},
		}},
	}
	if err := WriteSnapshot(path, snap); err != nil {
		t.Fatalf("write: %v", err)
	}

	h, err := ReadHeader(path)
	if err != nil {
		t.Fatalf("read header: %v", err)
	}
	if h.MapID != "m1" || h.Tick != 7 {
		t.Fatalf("header=%+v", h)
	}

	got, err := ReadSnapshot(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got.ChunkSize != 16 || !got.ModifiersEnabled {
		t.Fatalf("config mismatch: %+v", got)
	}
	if v, ok := got.Map.Vertex(2); !ok || v.Props.Get("billboard") != "tree" {
		t.Fatalf("vertex=%+v ok=%v", v, ok)
	}
	if len(got.Terrain) != 1 || len(got.Terrain[0].Heights) != 2 || got.Terrain[0].Heights[1].H != -2 {
		t.Fatalf("terrain=%+v", got.Terrain)
	}
	if got.Terrain[0].Blends[0].OffsetX != 1 {
		t.Fatalf("blend=%+v", got.Terrain[0].Blends[0])
	}
}

func TestReadSnapshot_MissingFile(t *testing.T) {
	if _, err := ReadSnapshot(filepath.Join(t.TempDir(), "nope.snap.zst")); err == nil {
		t.Fatalf("expected error")
	}
}
