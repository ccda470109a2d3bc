package host

import (
	"log"

	buildlog "scenemesh.ai/internal/persistence/log"
	"scenemesh.ai/internal/sim/scene"
)

// BuildWriter is satisfied by the JSONL build log and the sqlite index.
type BuildWriter interface {
	WriteBuild(e buildlog.BuildLogEntry) error
}

// BuildSink records one entry per result. Write failures are logged and dropped.
type BuildSink struct {
	W      BuildWriter
	Logger *log.Logger
}

func (s BuildSink) Consume(tick uint64, mapID string, r scene.Result) {
	if err := s.W.WriteBuild(Entry(tick, mapID, r)); err != nil && s.Logger != nil {
		s.Logger.Printf("build sink: %v", err)
	}
}

// Entry summarises a result for the build log and index.
func Entry(tick uint64, mapID string, r scene.Result) buildlog.BuildLogEntry {
	e := buildlog.BuildLogEntry{Tick: tick, MapID: mapID, Kind: string(r.Kind())}
	switch v := r.(type) {
	case scene.ChunkResult:
		e.Remaining, e.Total = v.Remaining, v.Total
		e.Billboards = len(v.Billboards)
		if v.Chunk != nil {
			e.Coord = [2]int{v.Chunk.Origin.X, v.Chunk.Origin.Y}
			e.Batches2D = len(v.Chunk.Batches2D)
			e.Batches3D = len(v.Chunk.Batches3D)
			for _, b := range v.Chunk.Batches2D {
				e.Vertices += len(b.Vertices)
				e.Triangles += len(b.Indices)
			}
			for _, b := range v.Chunk.Batches3D {
				e.Vertices += len(b.Vertices)
				e.Triangles += len(b.Indices)
			}
		}
	case scene.ProcessedHeightsResult:
		e.Coord = [2]int{v.Offset.X, v.Offset.Y}
		e.Cells = len(v.Heights)
	case scene.UpdatedBatch3DResult:
		e.Coord = [2]int{v.Coord.X, v.Coord.Y}
		e.Batches3D = 1
		if v.Batch != nil {
			e.Vertices = len(v.Batch.Vertices)
			e.Triangles = len(v.Batch.Indices)
		}
	}
	return e
}

// Counter tallies results by kind.
type Counter map[scene.ResultKind]int

func (c Counter) Consume(_ uint64, _ string, r scene.Result) { c[r.Kind()]++ }
