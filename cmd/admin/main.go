package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"scenemesh.ai/internal/persistence/archive"
	"scenemesh.ai/internal/persistence/snapshot"
)

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "db":
			dbCmd(os.Args[2:])
			return
		case "state":
			stateCmd(os.Args[2:])
			return
		case "snapshot":
			snapshotCmd(os.Args[2:])
			return
		case "archive":
			archiveCmd(os.Args[2:])
			return
		}
	}
	listCmd(os.Args[1:])
}

// listCmd prints the snapshots under the data dir, newest first.
func listCmd(args []string) {
	fs := flag.NewFlagSet("admin", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	_ = fs.Parse(args)

	snaps, err := listSnapshots(*dataDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read:", err)
		os.Exit(1)
	}
	for _, s := range snaps {
		fmt.Printf("%d\t%s\t%s\n", s.tick, humanize.Bytes(uint64(s.size)), s.path)
	}
}

// snapshotCmd prints the header and contents summary of one snapshot (latest by default).
func snapshotCmd(args []string) {
	fs := flag.NewFlagSet("snapshot", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	snapPath := fs.String("snapshot", "", "snapshot path (optional; defaults to latest)")
	_ = fs.Parse(args)

	path := strings.TrimSpace(*snapPath)
	if path == "" {
		snaps, err := listSnapshots(*dataDir)
		if err != nil || len(snaps) == 0 {
			fmt.Fprintln(os.Stderr, "no snapshot found; provide -snapshot or run server until it writes one")
			os.Exit(2)
		}
		path = snaps[0].path
	}
	snap, err := snapshot.ReadSnapshot(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read snapshot:", err)
		os.Exit(1)
	}
	cells := 0
	for _, ch := range snap.Terrain {
		cells += len(ch.Heights)
	}
	fmt.Printf("snapshot v%d map=%s tick=%d chunk_size=%d modifiers=%v vertices=%d linedefs=%d sectors=%d graphs=%d terrain_chunks=%d cells=%s\n",
		snap.Header.Version, snap.Header.MapID, snap.Header.Tick, snap.ChunkSize, snap.ModifiersEnabled,
		len(snap.Map.Vertices), len(snap.Map.Linedefs), len(snap.Map.Sectors), len(snap.Map.Graphs),
		len(snap.Terrain), humanize.Comma(int64(cells)))
}

// archiveCmd copies one snapshot (latest by default) into the per-map archive.
func archiveCmd(args []string) {
	fs := flag.NewFlagSet("archive", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	snapPath := fs.String("snapshot", "", "snapshot path (optional; defaults to latest)")
	_ = fs.Parse(args)

	path := strings.TrimSpace(*snapPath)
	if path == "" {
		snaps, err := listSnapshots(*dataDir)
		if err != nil || len(snaps) == 0 {
			fmt.Fprintln(os.Stderr, "no snapshot found")
			os.Exit(2)
		}
		path = snaps[0].path
	}
	snap, err := snapshot.ReadSnapshot(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read snapshot:", err)
		os.Exit(1)
	}
	dst, err := archive.ArchiveMapSnapshot(*dataDir, path, snap)
	if err != nil {
		fmt.Fprintln(os.Stderr, "archive:", err)
		os.Exit(1)
	}
	fmt.Println(dst)
}

type snapFile struct {
	tick uint64
	path string
	size int64
}

func listSnapshots(dataDir string) ([]snapFile, error) {
	dir := filepath.Join(dataDir, "snapshots")
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []snapFile
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, ".snap.zst") {
			continue
		}
		tick, err := strconv.ParseUint(strings.TrimSuffix(name, ".snap.zst"), 10, 64)
		if err != nil {
			continue
		}
		var size int64
		if fi, err := e.Info(); err == nil {
			size = fi.Size()
		}
		out = append(out, snapFile{tick: tick, path: filepath.Join(dir, name), size: size})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].tick > out[j].tick })
	return out, nil
}
