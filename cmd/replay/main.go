package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"

	persistlog "scenemesh.ai/internal/persistence/log"
	"scenemesh.ai/internal/persistence/snapshot"
	"scenemesh.ai/internal/sim/catalogs"
	"scenemesh.ai/internal/sim/host"
	"scenemesh.ai/internal/sim/scene"
	"scenemesh.ai/internal/sim/tuning"
	"scenemesh.ai/internal/sim/vmap"
	"scenemesh.ai/internal/transport/ws"
)

// replay re-applies a recorded editor session (commands-*.jsonl.zst) on top of a
// snapshot or a map file and reports what was rebuilt.
func main() {
	var (
		snapPath  = flag.String("snapshot", "", "path to .snap.zst (optional; overrides -map)")
		mapPath   = flag.String("map", "", "map file to start from when no snapshot is given")
		dataDir   = flag.String("data", "./data", "runtime data directory holding commands/")
		configDir = flag.String("configs", "./configs", "config directory")
		toTick    = flag.Uint64("to_tick", 0, "stop at tick (inclusive, optional)")
		outPath   = flag.String("out", "", "write the resulting snapshot here (optional)")
	)
	flag.Parse()

	if *snapPath == "" && *mapPath == "" {
		fmt.Fprintln(os.Stderr, "missing -snapshot or -map")
		os.Exit(2)
	}

	assets, err := catalogs.Load(*configDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load catalogs:", err)
		os.Exit(1)
	}
	tune, err := tuning.Load(filepath.Join(*configDir, "tuning.yaml"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "load tuning:", err)
		os.Exit(1)
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
		fmt.Printf("snapshot v%d map=%s tick=%d terrain_chunks=%d\n", snap.Header.Version, snap.Header.MapID, snap.Header.Tick, len(snap.Terrain))
	} else {
		m, err := vmap.Load(*mapPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "load map:", err)
			os.Exit(1)
		}
		h.Enqueue(host.Request{Msg: scene.SetMap{Map: m}})
	}
	startTick := h.CurrentTick()

	count := host.Counter{}
	h.AddSink(count)

	dir := filepath.Join(*dataDir, "commands")
	files, err := persistlog.Files(dir, "commands")
	if err != nil {
		fmt.Fprintln(os.Stderr, "list commands:", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "no command files found in", dir)
		os.Exit(1)
	}

	var applied, skipped int
	stop := false
	for _, path := range files {
		err := persistlog.ReadLines(path, func(line []byte) error {
			if stop {
				return nil
			}
			var e persistlog.CommandLogEntry
			if err := json.Unmarshal(line, &e); err != nil {
				return fmt.Errorf("%s: unmarshal: %w", filepath.Base(path), err)
			}
			if e.Tick < startTick {
				return nil
			}
			if *toTick != 0 && e.Tick > *toTick {
				stop = true
				return nil
			}
			msg, ok := ws.DecodeClient(e.Payload)
			if !ok {
				skipped++
				return nil
			}
			for h.CurrentTick() < e.Tick {
				h.Step()
			}
			h.Enqueue(host.Request{ClientID: e.Source, Msg: msg})
			applied++
			return nil
		})
		if err != nil {
			fmt.Fprintln(os.Stderr, "replay:", err)
			os.Exit(1)
		}
		if stop {
			break
		}
	}
	steps := h.RunUntilIdle(1_000_000)

	fmt.Printf("replay ok: commands=%d skipped=%d ticks=%d..%d idle_steps=%s chunks=%s terrain_meshes=%s\n",
		applied, skipped, startTick, h.CurrentTick(), humanize.Comma(int64(steps)),
		humanize.Comma(int64(count[scene.KindChunk])), humanize.Comma(int64(count[scene.KindUpdatedBatch3D])))

	if *outPath != "" {
		if err := snapshot.WriteSnapshot(*outPath, h.ExportSnapshot(h.CurrentTick())); err != nil {
			fmt.Fprintln(os.Stderr, "write snapshot:", err)
			os.Exit(1)
		}
		fmt.Println("wrote", *outPath)
	}
}
