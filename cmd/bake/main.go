package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"

	"scenemesh.ai/internal/persistence/snapshot"
	"scenemesh.ai/internal/sim/batch"
	"scenemesh.ai/internal/sim/catalogs"
	"scenemesh.ai/internal/sim/host"
	"scenemesh.ai/internal/sim/scene"
	"scenemesh.ai/internal/sim/terrain"
	"scenemesh.ai/internal/sim/tuning"
	"scenemesh.ai/internal/sim/vmap"
)

func main() {
	var (
		mapPath    = flag.String("map", "", "map file (yaml or json)")
		groundTile = flag.String("ground_tile", "", "fill the map's bounding box with flat terrain of this tile (empty: no ground)")
		snapPath   = flag.String("snapshot", "", "snapshot to start from (optional; overrides -map)")
		configDir  = flag.String("configs", "./configs", "config directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		outPath    = flag.String("out", "", "write a snapshot of the baked scene here (optional)")
		maxSteps   = flag.Int("max_steps", 1_000_000, "give up after this many host steps")
		noFX       = flag.Bool("no_modifiers", false, "bake with terrain modifiers disabled")
	)
	flag.Parse()

	if *mapPath == "" && *snapPath == "" {
		fmt.Fprintln(os.Stderr, "missing -map or -snapshot")
		os.Exit(2)
	}

	assets, err := catalogs.Load(*configDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load catalogs:", err)
		os.Exit(1)
	}
	tp := *tuningPath
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load tuning:", err)
		os.Exit(1)
	}
	if *noFX {
		tune.ModifiersEnabled = false
	}

	h := host.New(host.Config{Tuning: tune, Assets: assets, MapPath: *mapPath})
	if *snapPath != "" {
		snap, err := snapshot.ReadSnapshot(*snapPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "read snapshot:", err)
			os.Exit(1)
		}
		if err := h.ImportSnapshot(snap); err != nil {
			fmt.Fprintln(os.Stderr, "import snapshot:", err)
			os.Exit(1)
		}
		if *noFX {
			h.Enqueue(host.Request{Msg: scene.SetTerrainModifierState{Enabled: false}})
		}
	} else {
		m, err := vmap.Load(*mapPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "load map:", err)
			os.Exit(1)
		}
		h.Enqueue(host.Request{Msg: scene.SetMap{Map: m, Terrain: groundFor(m, tune.ChunkSize, *groundTile)}})
	}

	count := host.Counter{}
	stats := &meshStats{}
	h.AddSink(count)
	h.AddSink(stats)

	start := time.Now()
	steps := h.RunUntilIdle(*maxSteps)
	if h.Busy() {
		fmt.Fprintf(os.Stderr, "still busy after %s steps\n", humanize.Comma(int64(steps)))
		os.Exit(1)
	}
	mgr := h.Manager()
	fmt.Printf("map=%s chunk_size=%d modifiers=%v steps=%s elapsed=%s\n",
		mgr.Map().ID, mgr.ChunkSize(), mgr.ModifiersEnabled(), humanize.Comma(int64(steps)), time.Since(start).Round(time.Millisecond))
	fmt.Printf("chunks=%s processed=%s terrain_meshes=%s billboards=%s\n",
		humanize.Comma(int64(count[scene.KindChunk])),
		humanize.Comma(int64(count[scene.KindProcessedHeights])),
		humanize.Comma(int64(count[scene.KindUpdatedBatch3D])),
		humanize.Comma(int64(stats.billboards)))
	fmt.Printf("vertices=%s triangles=%s\n", humanize.Comma(int64(stats.vertices)), humanize.Comma(int64(stats.triangles)))

	if *outPath == "" {
		return
	}
	snap := h.ExportSnapshot(h.CurrentTick())
	if err := snapshot.WriteSnapshot(*outPath, snap); err != nil {
		fmt.Fprintln(os.Stderr, "write snapshot:", err)
		os.Exit(1)
	}
	if fi, err := os.Stat(*outPath); err == nil {
		fmt.Printf("wrote %s (%s, %d terrain chunks)\n", *outPath, humanize.Bytes(uint64(fi.Size())), len(snap.Terrain))
	}
}

type meshStats struct {
	vertices, triangles, billboards int
}

func (s *meshStats) Consume(tick uint64, mapID string, r scene.Result) {
	e := host.Entry(tick, mapID, r)
	s.vertices += e.Vertices
	s.triangles += e.Triangles
	s.billboards += e.Billboards
}

// groundFor returns flat terrain under m, or nil (keep the current terrain) when tile is empty.
func groundFor(m *vmap.Map, chunkSize int, tile string) *terrain.Terrain {
	if tile == "" {
		return nil
	}
	t := terrain.New(chunkSize)
	t.Fill(m.BBox(), 0, batch.TileSource(tile))
	return t
}
