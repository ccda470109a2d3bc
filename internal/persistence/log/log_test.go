package log

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"
)

func TestBuildLogger_RoundTripAcrossSessions(t *testing.T) {
	dir := t.TempDir()

	l := NewBuildLogger(dir)
	if err := l.WriteBuild(BuildLogEntry{Tick: 1, Kind: "CHUNK", Coord: [2]int{0, 16}, Remaining: 3, Total: 4}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	// A second session appends a new frame to the same hourly file.
	l = NewBuildLogger(dir)
	if err := l.WriteBuild(BuildLogEntry{Tick: 2, Kind: "BATCH3D", Coord: [2]int{0, 16}, Vertices: 9, Triangles: 8}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	got, err := ReadBuilds(dir)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("entries=%d want 2", len(got))
	}
	if got[0].Kind != "CHUNK" || got[0].Remaining != 3 || got[1].Vertices != 9 || got[1].Coord != [2]int{0, 16} {
		t.Fatalf("entries=%+v", got)
	}
}

func TestJSONLZstdWriter_RotatesHourly(t *testing.T) {
	dir := t.TempDir()
	w := NewJSONLZstdWriter(dir, "cmd")
	now := time.Date(2024, 5, 1, 10, 59, 0, 0, time.UTC)
	w.now = func() time.Time { return now }

	if err := w.Write(CommandLogEntry{Tick: 1, Type: "ADD_DIRTY"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	now = now.Add(2 * time.Minute)
	if err := w.Write(CommandLogEntry{Tick: 2, Type: "QUIT"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	files, err := Files(dir, "cmd")
	if err != nil {
		t.Fatalf("files: %v", err)
	}
	want := []string{
		filepath.Join(dir, "cmd-2024-05-01-10.jsonl.zst"),
		filepath.Join(dir, "cmd-2024-05-01-11.jsonl.zst"),
	}
	if len(files) != 2 || files[0] != want[0] || files[1] != want[1] {
		t.Fatalf("files=%v", files)
	}
	var types []string
	for _, f := range files {
		if err := ReadLines(f, func(line []byte) error {
			var e CommandLogEntry
			if err := json.Unmarshal(line, &e); err != nil {
				return err
			}
			types = append(types, e.Type)
			return nil
		}); err != nil {
			t.Fatalf("read %s: %v", f, err)
		}
	}
	if len(types) != 2 || types[0] != "ADD_DIRTY" || types[1] != "QUIT" {
		t.Fatalf("types=%v", types)
	}
}
