package archive

import (
	"os"
	"path/filepath"
	"testing"

	"scenemesh.ai/internal/persistence/snapshot"
)

func TestArchiveMapSnapshot_CopiesSnapshotAndMeta(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "snapshots", "7.snap.zst")
	if err := os.MkdirAll(filepath.Dir(src), 0o755); err != nil {
		t.Fatalf("mkdir snapshots: %v", err)
	}
	want := []byte("dummy")
	if err := os.WriteFile(src, want, 0o644); err != nil {
		t.Fatalf("write src: %v", err)
	}

	snap := snapshot.SnapshotV1{
		Header:    snapshot.Header{Version: 1, MapID: "court/yard", Tick: 7},
		ChunkSize: 16,
		Terrain: []snapshot.TerrainChunkV1{
			{Size: 16, Heights: []snapshot.HeightCellV1{{X: 0, Y: 0, H: 1}, {X: 1, Y: 0, H: 2}}},
		},
	}
	dst, err := ArchiveMapSnapshot(dir, src, snap)
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	if got := filepath.Base(filepath.Dir(filepath.Dir(dst))); got != "court_yard" {
		t.Fatalf("map dir=%q want court_yard", got)
	}
	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("read archived: %v", err)
	}
	if string(got) != string(want) {
		t.Fatalf("archived content mismatch: got=%q want=%q", got, want)
	}

	meta, err := ReadMeta(filepath.Dir(dst))
	if err != nil {
		t.Fatalf("meta: %v", err)
	}
	if meta.MapID != "court/yard" || meta.Tick != 7 || meta.Chunks != 1 || meta.Cells != 2 || meta.Snapshot != "7.snap.zst" {
		t.Fatalf("meta=%+v", meta)
	}
}

func TestArchiveMapSnapshot_RequiresMapID(t *testing.T) {
	if _, err := ArchiveMapSnapshot(t.TempDir(), "x", snapshot.SnapshotV1{}); err == nil {
		t.Fatalf("expected error for empty map id")
	}
}
