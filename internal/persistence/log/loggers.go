package log

import (
	"encoding/json"
	"path/filepath"
)

// BuildLogEntry is one drained scene result.
type BuildLogEntry struct {
	Tick       uint64 `json:"tick"`
	MapID      string `json:"map_id"`
	Kind       string `json:"kind"`
	Coord      [2]int `json:"coord"`
	Remaining  int    `json:"remaining,omitempty"`
	Total      int    `json:"total,omitempty"`
	Batches2D  int    `json:"batches_2d,omitempty"`
	Batches3D  int    `json:"batches_3d,omitempty"`
	Vertices   int    `json:"vertices,omitempty"`
	Triangles  int    `json:"triangles,omitempty"`
	Cells      int    `json:"cells,omitempty"`
	Billboards int    `json:"billboards,omitempty"`
}

// CommandLogEntry records a command the host applied, for replaying edit sessions.
type CommandLogEntry struct {
	Tick    uint64          `json:"tick"`
	Type    string          `json:"type"`
	Source  string          `json:"source,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// BuildLogger writes one JSONL entry per result (compressed).
type BuildLogger struct{ w *JSONLZstdWriter }

func NewBuildLogger(dataDir string) *BuildLogger {
	return &BuildLogger{w: NewJSONLZstdWriter(filepath.Join(dataDir, "builds"), "builds")}
}

func (l *BuildLogger) WriteBuild(e BuildLogEntry) error { return l.w.Write(e) }
func (l *BuildLogger) Flush() error                     { return l.w.Flush() }
func (l *BuildLogger) Close() error                     { return l.w.Close() }

// CommandLogger writes applied commands (compressed).
type CommandLogger struct{ w *JSONLZstdWriter }

func NewCommandLogger(dataDir string) *CommandLogger {
	return &CommandLogger{w: NewJSONLZstdWriter(filepath.Join(dataDir, "commands"), "commands")}
}

func (l *CommandLogger) WriteCommand(e CommandLogEntry) error { return l.w.Write(e) }
func (l *CommandLogger) Close() error                         { return l.w.Close() }

// ReadBuilds returns every build entry under dataDir in file order.
func ReadBuilds(dataDir string) ([]BuildLogEntry, error) {
	files, err := Files(filepath.Join(dataDir, "builds"), "builds")
	if err != nil {
		return nil, err
	}
	var out []BuildLogEntry
	for _, p := range files {
		err := ReadLines(p, func(line []byte) error {
			var e BuildLogEntry
			if err := json.Unmarshal(line, &e); err != nil {
				return err
			}
			out = append(out, e)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}
