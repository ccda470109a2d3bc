package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"scenemesh.ai/internal/persistence/archive"
	persistlog "scenemesh.ai/internal/persistence/log"
	"scenemesh.ai/internal/persistence/snapshot"
	"scenemesh.ai/internal/sim/batch"
	"scenemesh.ai/internal/sim/catalogs"
	"scenemesh.ai/internal/sim/host"
	"scenemesh.ai/internal/sim/scene"
	"scenemesh.ai/internal/sim/terrain"
	"scenemesh.ai/internal/sim/tuning"
	"scenemesh.ai/internal/sim/vmap"
	"scenemesh.ai/internal/transport/ws"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		mapPath    = flag.String("map", "./configs/maps/demo.yaml", "map file (yaml or json)")
		configDir  = flag.String("configs", "./configs", "config directory")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		disableDB  = flag.Bool("disable_db", false, "disable the sqlite build index")

		groundTile = flag.String("ground_tile", "", "fill the map's bounding box with flat terrain of this tile (empty: no ground)")
		snapPath   = flag.String("snapshot", "", "path to snapshot to load (optional)")
		loadLatest = flag.Bool("load_latest_snapshot", true, "load latest snapshot from data dir if present (when -snapshot is empty)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	assets, err := catalogs.Load(*configDir)
	if err != nil {
		logger.Fatalf("load catalogs: %v", err)
	}

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		logger.Fatalf("load tuning: %v", err)
	}

	_ = os.MkdirAll(*dataDir, 0o755)

	// Optional: read-model index backend (does not affect builds).
	idx, err := openRuntimeIndex(*dataDir, *disableDB)
	if err != nil {
		logger.Fatalf("open index backend: %v", err)
	}
	if idx != nil {
		defer idx.Close()
		if err := idx.UpsertCatalogs(assets, tune); err != nil {
			logger.Printf("index backend: upsert catalogs: %v", err)
		}
	}

	cmdLog := persistlog.NewCommandLogger(*dataDir)
	defer cmdLog.Close()

	h := host.New(host.Config{
		Tuning:   tune,
		Assets:   assets,
		MapPath:  *mapPath,
		Commands: cmdLog,
		Logger:   logger,
	})

	snapshotToLoad := strings.TrimSpace(*snapPath)
	if snapshotToLoad == "" && *loadLatest {
		snapshotToLoad = latestSnapshot(*dataDir)
	}
	if snapshotToLoad != "" {
		snap, err := snapshot.ReadSnapshot(snapshotToLoad)
		if err != nil {
			logger.Fatalf("read snapshot: %v", err)
		}
		if err := h.ImportSnapshot(snap); err != nil {
			logger.Fatalf("import snapshot: %v", err)
		}
		logger.Printf("resumed from snapshot=%s tick=%d map=%s", filepath.Base(snapshotToLoad), snap.Header.Tick, snap.Header.MapID)
	} else if strings.TrimSpace(*mapPath) != "" {
		m, err := vmap.Load(*mapPath)
		if err != nil {
			logger.Fatalf("load map: %v", err)
		}
		h.Enqueue(host.Request{Msg: scene.SetMap{Map: m, Terrain: groundFor(m, tune.ChunkSize, *groundTile)}})
		logger.Printf("map %s (%s): %d vertices %d linedefs %d sectors", m.ID, m.Name, len(m.Vertices), len(m.Linedefs), len(m.Sectors))
	}

	ctx, cancel := signalContext()
	defer cancel()

	buildLog := persistlog.NewBuildLogger(*dataDir)
	defer buildLog.Close()
	if tune.LogResults {
		h.AddSink(host.BuildSink{W: buildLog, Logger: logger})
	}
	if idx != nil {
		h.AddSink(host.BuildSink{W: idx, Logger: logger})
	}

	// Snapshot writer.
	snapCh := make(chan snapshot.SnapshotV1, 2)
	h.SetSnapshotSink(snapCh)
	go func() {
		var lastPath string
		var last snapshot.SnapshotV1
		for {
			select {
			case <-ctx.Done():
				return
			case snap := <-snapCh:
				path := filepath.Join(*dataDir, "snapshots", fmt.Sprintf("%d.snap.zst", snap.Header.Tick))
				if err := snapshot.WriteSnapshot(path, snap); err != nil {
					logger.Printf("snapshot write: %v", err)
					continue
				}
				if idx != nil {
					idx.RecordSnapshot(path, snap)
				}
				// A map switch retires the previous map; keep its last state.
				if lastPath != "" && last.Header.MapID != snap.Header.MapID {
					if dst, err := archive.ArchiveMapSnapshot(*dataDir, lastPath, last); err != nil {
						logger.Printf("archive %s: %v", last.Header.MapID, err)
					} else {
						logger.Printf("archived map=%s tick=%d -> %s", last.Header.MapID, last.Header.Tick, dst)
					}
				}
				lastPath, last = path, snap
			}
		}
	}()

	go func() {
		if err := h.Run(ctx); err != nil && err != context.Canceled {
			logger.Printf("host stopped: %v", err)
		}
	}()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")
		m := h.Metrics()

		// Minimal Prometheus exposition format.
		fmt.Fprintf(rw, "# HELP scenemesh_tick Current host tick.\n")
		fmt.Fprintf(rw, "# TYPE scenemesh_tick gauge\n")
		fmt.Fprintf(rw, "scenemesh_tick{map=%q} %d\n", m.MapID, m.Tick)

		fmt.Fprintf(rw, "# HELP scenemesh_chunks Chunk counts by state.\n")
		fmt.Fprintf(rw, "# TYPE scenemesh_chunks gauge\n")
		fmt.Fprintf(rw, "scenemesh_chunks{map=%q,state=%q} %d\n", m.MapID, "remaining", m.Remaining)
		fmt.Fprintf(rw, "scenemesh_chunks{map=%q,state=%q} %d\n", m.MapID, "total", m.Total)
		fmt.Fprintf(rw, "scenemesh_chunks{map=%q,state=%q} %d\n", m.MapID, "known", m.Known)

		fmt.Fprintf(rw, "# HELP scenemesh_chunks_built_total Chunk results produced since start.\n")
		fmt.Fprintf(rw, "# TYPE scenemesh_chunks_built_total counter\n")
		fmt.Fprintf(rw, "scenemesh_chunks_built_total{map=%q} %d\n", m.MapID, m.ChunksBuilt)

		fmt.Fprintf(rw, "# HELP scenemesh_clients Connected editors.\n")
		fmt.Fprintf(rw, "# TYPE scenemesh_clients gauge\n")
		fmt.Fprintf(rw, "scenemesh_clients %d\n", m.Clients)

		fmt.Fprintf(rw, "# HELP scenemesh_step_ms Last step duration in milliseconds.\n")
		fmt.Fprintf(rw, "# TYPE scenemesh_step_ms gauge\n")
		fmt.Fprintf(rw, "scenemesh_step_ms %.3f\n", m.StepMS)

		if idx != nil {
			st := idx.Stats()
			fmt.Fprintf(rw, "# HELP scenemesh_index_dropped Index writes dropped because the writer fell behind.\n")
			fmt.Fprintf(rw, "# TYPE scenemesh_index_dropped counter\n")
			fmt.Fprintf(rw, "scenemesh_index_dropped{kind=%q} %d\n", "build", st.DropBuildTotal)
			fmt.Fprintf(rw, "scenemesh_index_dropped{kind=%q} %d\n", "snapshot", st.DropSnapshotTotal)
		}
	})

	enableAdminHTTP := envBool("SM_ENABLE_ADMIN_HTTP", defaultEnableAdminHTTP())
	enablePprofHTTP := envBool("SM_ENABLE_PPROF_HTTP", false)
	if enableAdminHTTP {
		// Local-only admin endpoints.
		mux.HandleFunc("/admin/v1/state", func(rw http.ResponseWriter, r *http.Request) {
			if !isLoopbackRemote(r.RemoteAddr) {
				http.Error(rw, "forbidden", http.StatusForbidden)
				return
			}
			rw.Header().Set("Content-Type", "application/json")
			resp := struct {
				SessionID string       `json:"session_id"`
				Metrics   host.Metrics `json:"metrics"`
				Builds    int          `json:"indexed_builds,omitempty"`
			}{
				SessionID: h.SessionID(),
				Metrics:   h.Metrics(),
			}
			if idx != nil {
				if n, err := idx.ChunkBuildCount(resp.Metrics.MapID); err == nil {
					resp.Builds = n
				}
			}
			_ = json.NewEncoder(rw).Encode(resp)
		})
	} else {
		logger.Printf("admin endpoints disabled (SM_ENABLE_ADMIN_HTTP=false)")
	}
	if enablePprofHTTP {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}
	mux.HandleFunc("/v1/ws", ws.NewServer(h, logger).Handler())

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s session=%s", *addr, h.SessionID())
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}

func latestSnapshot(dataDir string) string {
	dir := filepath.Join(dataDir, "snapshots")
	ents, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	var best string
	var bestTick uint64
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, ".snap.zst") {
			continue
		}
		base := strings.TrimSuffix(name, ".snap.zst")
		tick, err := strconv.ParseUint(base, 10, 64)
		if err != nil {
			continue
		}
		if best == "" || tick > bestTick {
			bestTick = tick
			best = filepath.Join(dir, name)
		}
	}
	return best
}

func isLoopbackRemote(remoteAddr string) bool {
	hostname := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		hostname = h
	}
	hostname = strings.TrimPrefix(hostname, "[")
	hostname = strings.TrimSuffix(hostname, "]")
	ip := net.ParseIP(hostname)
	return ip != nil && ip.IsLoopback()
}

func defaultEnableAdminHTTP() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("DEPLOY_ENV"))) {
	case "staging", "production":
		return false
	default:
		return true
	}
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
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
