package tuning

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	got, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got != Defaults() {
		t.Fatalf("got %+v want defaults", got)
	}
}

func TestLoad_OverridesOnlyGivenFields(t *testing.T) {
	p := filepath.Join(t.TempDir(), "tuning.yaml")
	if err := os.WriteFile(p, []byte("chunk_size: 32\nmodifiers_enabled: false\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.ChunkSize != 32 || got.ModifiersEnabled {
		t.Fatalf("overrides not applied: %+v", got)
	}
	if got.TickRateHz != Defaults().TickRateHz || got.ChunksPerTick != Defaults().ChunksPerTick {
		t.Fatalf("defaults lost: %+v", got)
	}
}

func TestLoad_RejectsBadValues(t *testing.T) {
	p := filepath.Join(t.TempDir(), "tuning.yaml")
	if err := os.WriteFile(p, []byte("chunks_per_tick: 0\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err := Load(p)
	if err == nil || !strings.Contains(err.Error(), "chunks_per_tick") {
		t.Fatalf("err=%v", err)
	}
}
