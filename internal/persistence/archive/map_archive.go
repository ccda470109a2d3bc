package archive

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"scenemesh.ai/internal/persistence/snapshot"
)

type MapArchiveMeta struct {
	MapID     string `json:"map_id"`
	Tick      uint64 `json:"tick"`
	ChunkSize int    `json:"chunk_size"`
	Chunks    int    `json:"terrain_chunks"`
	Cells     int    `json:"cells"`
	Snapshot  string `json:"snapshot"`
	CreatedAt string `json:"created_at"`
}

// ArchiveMapSnapshot copies a snapshot into `dataDir/archives/<map_id>/tick_<N>/` next to a meta.json.
// It is used when a map is retired so its last edited state survives snapshot rotation.
func ArchiveMapSnapshot(dataDir, snapshotPath string, snap snapshot.SnapshotV1) (string, error) {
	mapID := safeName(snap.Header.MapID)
	if mapID == "" {
		return "", fmt.Errorf("archive: snapshot has no map id")
	}
	archiveDir := filepath.Join(dataDir, "archives", mapID, fmt.Sprintf("tick_%08d", snap.Header.Tick))
	if err := os.MkdirAll(archiveDir, 0o755); err != nil {
		return "", err
	}

	dst := filepath.Join(archiveDir, filepath.Base(snapshotPath))
	if err := copyFile(snapshotPath, dst); err != nil {
		return "", err
	}

	cells := 0
	for _, ch := range snap.Terrain {
		cells += len(ch.Heights)
	}
	meta := MapArchiveMeta{
		MapID:     snap.Header.MapID,
		Tick:      snap.Header.Tick,
		ChunkSize: snap.ChunkSize,
		Chunks:    len(snap.Terrain),
		Cells:     cells,
		Snapshot:  filepath.Base(dst),
		CreatedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}
	if b, err := json.MarshalIndent(meta, "", "  "); err == nil {
		_ = os.WriteFile(filepath.Join(archiveDir, "meta.json"), b, 0o644)
	}
	return dst, nil
}

// ReadMeta loads the meta.json written next to an archived snapshot.
func ReadMeta(archiveDir string) (MapArchiveMeta, error) {
	var m MapArchiveMeta
	b, err := os.ReadFile(filepath.Join(archiveDir, "meta.json"))
	if err != nil {
		return m, err
	}
	err = json.Unmarshal(b, &m)
	return m, err
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		}
		return '_'
	}, s)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
