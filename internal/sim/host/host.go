package host

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"scenemesh.ai/internal/persistence/snapshot"
	"scenemesh.ai/internal/sim/builder"
	"scenemesh.ai/internal/sim/catalogs"
	"scenemesh.ai/internal/sim/scene"
	"scenemesh.ai/internal/sim/shapefx"
	"scenemesh.ai/internal/sim/terrain"
	"scenemesh.ai/internal/sim/tuning"
	"scenemesh.ai/internal/sim/vmap"
)

// Sink receives every result drained from the manager, in order.
type Sink interface {
	Consume(tick uint64, mapID string, r scene.Result)
}

type Config struct {
	Tuning tuning.Tuning
	Assets *catalogs.Assets

	// Map and Terrain seed the scene. MapPath is reloaded by an empty RELOAD_MAP.
	Map     *vmap.Map
	MapPath string
	Terrain *terrain.Terrain

	Builder2D scene.Builder
	Builder3D scene.Builder
	Modifiers terrain.ModifierResolver

	Commands CommandWriter
	Logger   *log.Logger
}

// Host owns a scene.Manager on a single goroutine. Editors reach it through the
// join/leave/inbox channels; results fan out to sinks and connected clients.
type Host struct {
	cfg     Config
	log     *log.Logger
	mgr     *scene.Manager
	session string
	mapPath string

	tick uint64

	inbox chan Request
	join  chan JoinRequest
	leave chan string
	stop  chan struct{}

	pending []Request
	sinks   []Sink
	clients map[string]*client

	snapshotSink chan<- snapshot.SnapshotV1

	built    uint64
	lastBusy bool
	metrics  atomic.Pointer[Metrics]
}

// Metrics is a copy of host state published after every step, safe to read from any goroutine.
type Metrics struct {
	Tick        uint64  `json:"tick"`
	MapID       string  `json:"map_id"`
	Remaining   int     `json:"remaining"`
	Total       int     `json:"total"`
	Known       int     `json:"known"`
	Clients     int     `json:"clients"`
	ChunksBuilt uint64  `json:"chunks_built"`
	Modifiers   bool    `json:"modifiers"`
	Busy        bool    `json:"busy"`
	StepMS      float64 `json:"step_ms"`
}

func New(cfg Config) *Host {
	if cfg.Tuning.ChunkSize <= 0 {
		cfg.Tuning = tuning.Defaults()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if cfg.Builder2D == nil {
		cfg.Builder2D = builder.D2{LineWidth: 1}
	}
	if cfg.Builder3D == nil {
		cfg.Builder3D = builder.D3{}
	}
	if cfg.Modifiers == nil {
		cfg.Modifiers = shapefx.NewLibrary()
	}
	h := &Host{
		cfg:     cfg,
		log:     logger,
		session: uuid.NewString(),
		mapPath: cfg.MapPath,
		inbox:   make(chan Request, 256),
		join:    make(chan JoinRequest, 16),
		leave:   make(chan string, 16),
		stop:    make(chan struct{}),
		clients: map[string]*client{},
	}
	h.mgr = scene.New(scene.Config{
		ChunkSize:        cfg.Tuning.ChunkSize,
		Builder2D:        cfg.Builder2D,
		Builder3D:        cfg.Builder3D,
		Modifiers:        cfg.Modifiers,
		DisableModifiers: !cfg.Tuning.ModifiersEnabled,
		Logger:           logger,
	})
	if cfg.Assets != nil {
		h.mgr.Send(scene.SetTileList{Tiles: cfg.Assets.Tiles})
		h.mgr.Send(scene.SetPalette{Palette: cfg.Assets.Palette})
	}
	if cfg.Map != nil || cfg.Terrain != nil {
		h.mgr.Send(scene.SetMap{Map: cfg.Map, Terrain: cfg.Terrain})
	}
	return h
}

func (h *Host) Inbox() chan<- Request    { return h.inbox }
func (h *Host) Join() chan<- JoinRequest { return h.join }
func (h *Host) Leave() chan<- string     { return h.leave }
func (h *Host) Manager() *scene.Manager  { return h.mgr }
func (h *Host) SessionID() string        { return h.session }
func (h *Host) CurrentTick() uint64      { return h.tick }
func (h *Host) AddSink(s Sink)           { h.sinks = append(h.sinks, s) }
func (h *Host) Stop()                    { close(h.stop) }
func (h *Host) Busy() bool               { return h.mgr.IsBusy() || len(h.pending) > 0 }
func (h *Host) Tuning() tuning.Tuning    { return h.cfg.Tuning }
func (h *Host) ChunksBuilt() uint64      { return h.built }
func (h *Host) Enqueue(req Request)      { h.pending = append(h.pending, req) }

func (h *Host) SetSnapshotSink(ch chan<- snapshot.SnapshotV1) { h.snapshotSink = ch }

func (h *Host) Run(ctx context.Context) error {
	rate := h.cfg.Tuning.TickRateHz
	if rate <= 0 {
		rate = tuning.Defaults().TickRateHz
	}
	ticker := time.NewTicker(time.Second / time.Duration(rate))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-h.stop:
			return nil
		case req := <-h.join:
			h.handleJoin(req)
		case id := <-h.leave:
			h.handleLeave(id)
		case req := <-h.inbox:
			h.pending = append(h.pending, req)
		case <-ticker.C:
			h.Step()
		}
	}
}

// Step applies queued requests, runs one manager budget and drains every result.
// It returns the number of manager ticks that did work.
func (h *Host) Step() int {
	stepStart := time.Now()
	nowTick := h.tick
	reqs := h.pending
	h.pending = nil
	for _, req := range reqs {
		h.apply(nowTick, req)
	}

	n := h.mgr.TickBatch(h.cfg.Tuning.ChunksPerTick)
	h.drain(nowTick)

	busy := h.mgr.IsBusy()
	if h.lastBusy && !busy {
		h.log.Printf("scene idle at tick %d: %s chunks built", nowTick, humanize.Comma(int64(h.built)))
	}
	h.lastBusy = busy

	if h.snapshotSink != nil && nowTick != 0 && h.cfg.Tuning.SnapshotEveryTicks > 0 {
		if nowTick%uint64(h.cfg.Tuning.SnapshotEveryTicks) == 0 {
			select {
			case h.snapshotSink <- h.ExportSnapshot(nowTick):
			default:
				// Drop snapshot if sink is backed up.
			}
		}
	}
	h.metrics.Store(&Metrics{
		Tick:        nowTick,
		MapID:       h.mgr.Map().ID,
		Remaining:   h.mgr.RemainingChunks(),
		Total:       h.mgr.TotalChunks(),
		Known:       len(h.mgr.KnownCoords()),
		Clients:     len(h.clients),
		ChunksBuilt: h.built,
		Modifiers:   h.mgr.ModifiersEnabled(),
		Busy:        busy,
		StepMS:      float64(time.Since(stepStart).Microseconds()) / 1000.0,
	})
	h.tick++
	return n
}

func (h *Host) Metrics() Metrics {
	if m := h.metrics.Load(); m != nil {
		return *m
	}
	return Metrics{}
}

// RunUntilIdle steps until the manager has no work left or maxSteps is reached.
func (h *Host) RunUntilIdle(maxSteps int) int {
	steps := 0
	for steps < maxSteps {
		h.Step()
		steps++
		if !h.Busy() {
			break
		}
	}
	return steps
}

func (h *Host) drain(tick uint64) {
	mapID := h.mgr.Map().ID
	for {
		r, ok := h.mgr.Receive()
		if !ok {
			return
		}
		if r.Kind() == scene.KindChunk {
			h.built++
		}
		for _, s := range h.sinks {
			s.Consume(tick, mapID, r)
		}
		h.broadcast(tick, r)
	}
}

func (h *Host) ExportSnapshot(tick uint64) snapshot.SnapshotV1 {
	m := h.mgr.Map()
	return snapshot.SnapshotV1{
		Header:           snapshot.Header{Version: snapshot.Version, MapID: m.ID, Tick: tick},
		ChunkSize:        h.mgr.ChunkSize(),
		ModifiersEnabled: h.mgr.ModifiersEnabled(),
		Map:              *m,
		Terrain:          terrain.ExportChunks(h.mgr.Terrain()),
	}
}

// ImportSnapshot replaces map, terrain and modifier state. Every chunk is rebuilt.
func (h *Host) ImportSnapshot(snap snapshot.SnapshotV1) error {
	t, err := terrain.ImportChunks(snap.ChunkSize, snap.Terrain)
	if err != nil {
		return err
	}
	m := snap.Map
	if err := m.Validate(); err != nil {
		return fmt.Errorf("snapshot map %q: %w", m.ID, err)
	}
	h.mgr.Send(scene.SetTerrainModifierState{Enabled: snap.ModifiersEnabled})
	h.mgr.Send(scene.SetMap{Map: &m, Terrain: t})
	h.tick = snap.Header.Tick + 1
	return nil
}
