package indexdb

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	buildlog "scenemesh.ai/internal/persistence/log"
	"scenemesh.ai/internal/persistence/snapshot"
	"scenemesh.ai/internal/sim/catalogs"
	"scenemesh.ai/internal/sim/tuning"
)

// SQLiteIndex is a queryable secondary index over build results and snapshots.
// All writes go through one goroutine; the JSONL build log stays the source of truth.
type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool

	dropBuild    atomic.Uint64
	dropSnapshot atomic.Uint64
}

type reqKind int

const (
	reqBuild reqKind = iota + 1
	reqSnapshot
	reqFlush
)

type req struct {
	kind reqKind

	build    buildlog.BuildLogEntry
	snapshot SnapshotRow
	done     chan struct{}
}

type SnapshotRow struct {
	Tick          uint64
	Path          string
	MapID         string
	ChunkSize     int
	TerrainChunks int
	Vertices      int
	Linedefs      int
	Sectors       int
}

type TerrainMeshRow struct {
	MapID     string
	X, Y      int
	Tick      uint64
	Vertices  int
	Triangles int
}

type Stats struct {
	QueueDepth        int
	QueueCapacity     int
	DropBuildTotal    uint64
	DropSnapshotTotal uint64
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		ch: make(chan req, 65536),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS catalogs (
			name TEXT PRIMARY KEY,
			digest TEXT NOT NULL,
			json TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS chunk_builds (
			tick INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			map_id TEXT NOT NULL,
			x INTEGER NOT NULL,
			y INTEGER NOT NULL,
			remaining INTEGER NOT NULL,
			total INTEGER NOT NULL,
			batches_2d INTEGER NOT NULL,
			batches_3d INTEGER NOT NULL,
			billboards INTEGER NOT NULL,
			PRIMARY KEY (tick, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_chunk_builds_map_pos ON chunk_builds(map_id, x, y, tick);`,
		`CREATE TABLE IF NOT EXISTS terrain_meshes (
			map_id TEXT NOT NULL,
			x INTEGER NOT NULL,
			y INTEGER NOT NULL,
			tick INTEGER NOT NULL,
			vertices INTEGER NOT NULL,
			triangles INTEGER NOT NULL,
			PRIMARY KEY (map_id, x, y)
		);`,
		`CREATE TABLE IF NOT EXISTS terrain_processed (
			map_id TEXT NOT NULL,
			x INTEGER NOT NULL,
			y INTEGER NOT NULL,
			tick INTEGER NOT NULL,
			cells INTEGER NOT NULL,
			PRIMARY KEY (map_id, x, y)
		);`,
		`CREATE TABLE IF NOT EXISTS snapshots (
			tick INTEGER PRIMARY KEY,
			path TEXT NOT NULL,
			map_id TEXT NOT NULL,
			chunk_size INTEGER NOT NULL,
			terrain_chunks INTEGER NOT NULL,
			vertices INTEGER NOT NULL,
			linedefs INTEGER NOT NULL,
			sectors INTEGER NOT NULL
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// Close drains pending writes, commits and closes the database.
func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

// WriteBuild indexes one build-log entry. It never blocks: entries are dropped when the
// writer falls behind.
func (s *SQLiteIndex) WriteBuild(e buildlog.BuildLogEntry) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- req{kind: reqBuild, build: e}:
	default:
		s.dropBuild.Add(1)
	}
	return nil
}

func (s *SQLiteIndex) RecordSnapshot(path string, snap snapshot.SnapshotV1) {
	if s == nil || s.closed.Load() {
		return
	}
	r := SnapshotRow{
		Tick:          snap.Header.Tick,
		Path:          path,
		MapID:         snap.Header.MapID,
		ChunkSize:     snap.ChunkSize,
		TerrainChunks: len(snap.Terrain),
		Vertices:      len(snap.Map.Vertices),
		Linedefs:      len(snap.Map.Linedefs),
		Sectors:       len(snap.Map.Sectors),
	}
	select {
	case s.ch <- req{kind: reqSnapshot, snapshot: r}:
	default:
		s.dropSnapshot.Add(1)
	}
}

// Flush waits until everything queued so far is committed.
func (s *SQLiteIndex) Flush() {
	if s == nil || s.closed.Load() {
		return
	}
	done := make(chan struct{})
	s.ch <- req{kind: reqFlush, done: done}
	<-done
}

func (s *SQLiteIndex) Stats() Stats {
	return Stats{
		QueueDepth:        len(s.ch),
		QueueCapacity:     cap(s.ch),
		DropBuildTotal:    s.dropBuild.Load(),
		DropSnapshotTotal: s.dropSnapshot.Load(),
	}
}

// UpsertCatalogs stores the tile list, palette and tuning actually in use.
func (s *SQLiteIndex) UpsertCatalogs(assets *catalogs.Assets, tune tuning.Tuning) error {
	if s == nil {
		return nil
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	type kv struct {
		name   string
		digest string
		json   []byte
	}
	var rows []kv
	if assets != nil {
		tiles := make([]catalogs.Tile, 0, len(assets.Tiles.Order))
		for _, id := range assets.Tiles.Order {
			tiles = append(tiles, assets.Tiles.ByID[id])
		}
		if b, err := json.Marshal(tiles); err == nil {
			rows = append(rows, kv{name: "tiles", digest: assets.Tiles.Digest, json: b})
		}
		if b, err := json.Marshal(assets.Palette.Colors); err == nil {
			rows = append(rows, kv{name: "palette", digest: assets.Palette.Digest, json: b})
		}
	}
	{
		b, _ := json.Marshal(tune)
		sum := sha256.Sum256(b)
		rows = append(rows, kv{name: "tuning", digest: hex.EncodeToString(sum[:]), json: b})
	}

	// The writer goroutine may hold the only connection inside a transaction.
	s.Flush()
	tx, err := s.db.BeginTx(context.Background(), nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1')`); err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO catalogs(name,digest,json,updated_at) VALUES(?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, r := range rows {
		if r.name == "" || r.digest == "" || len(r.json) == 0 {
			continue
		}
		if _, err := stmt.Exec(r.name, r.digest, string(r.json), now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ChunkBuildCount returns how many chunk builds were indexed for mapID.
// Queries flush pending writes first.
func (s *SQLiteIndex) ChunkBuildCount(mapID string) (int, error) {
	s.Flush()
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM chunk_builds WHERE map_id = ?`, mapID).Scan(&n)
	return n, err
}

// LatestTerrainMesh returns the newest mesh row for a chunk, if any.
func (s *SQLiteIndex) LatestTerrainMesh(mapID string, x, y int) (TerrainMeshRow, bool, error) {
	s.Flush()
	r := TerrainMeshRow{MapID: mapID, X: x, Y: y}
	var tick int64
	err := s.db.QueryRow(
		`SELECT tick, vertices, triangles FROM terrain_meshes WHERE map_id = ? AND x = ? AND y = ?`,
		mapID, x, y,
	).Scan(&tick, &r.Vertices, &r.Triangles)
	if errors.Is(err, sql.ErrNoRows) {
		return TerrainMeshRow{}, false, nil
	}
	if err != nil {
		return TerrainMeshRow{}, false, err
	}
	r.Tick = uint64(tick)
	return r, true, nil
}

func (s *SQLiteIndex) LatestSnapshot() (SnapshotRow, bool, error) {
	s.Flush()
	var r SnapshotRow
	var tick int64
	err := s.db.QueryRow(
		`SELECT tick, path, map_id, chunk_size, terrain_chunks, vertices, linedefs, sectors FROM snapshots ORDER BY tick DESC LIMIT 1`,
	).Scan(&tick, &r.Path, &r.MapID, &r.ChunkSize, &r.TerrainChunks, &r.Vertices, &r.Linedefs, &r.Sectors)
	if errors.Is(err, sql.ErrNoRows) {
		return SnapshotRow{}, false, nil
	}
	if err != nil {
		return SnapshotRow{}, false, err
	}
	r.Tick = uint64(tick)
	return r, true, nil
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	insertBuild, _ := s.db.Prepare(`INSERT OR REPLACE INTO chunk_builds(tick,seq,map_id,x,y,remaining,total,batches_2d,batches_3d,billboards) VALUES(?,?,?,?,?,?,?,?,?,?)`)
	upsertMesh, _ := s.db.Prepare(`INSERT OR REPLACE INTO terrain_meshes(map_id,x,y,tick,vertices,triangles) VALUES(?,?,?,?,?,?)`)
	upsertProcessed, _ := s.db.Prepare(`INSERT OR REPLACE INTO terrain_processed(map_id,x,y,tick,cells) VALUES(?,?,?,?,?)`)
	insertSnapshot, _ := s.db.Prepare(`INSERT OR REPLACE INTO snapshots(tick,path,map_id,chunk_size,terrain_chunks,vertices,linedefs,sectors) VALUES(?,?,?,?,?,?,?,?)`)
	defer func() {
		for _, st := range []*sql.Stmt{insertBuild, upsertMesh, upsertProcessed, insertSnapshot} {
			if st != nil {
				_ = st.Close()
			}
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 2000
		commitMaxWait = 2 * time.Second

		lastBuildTick uint64
		buildSeq      int
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	exec := func(st *sql.Stmt, args ...any) {
		if st == nil || tx == nil {
			return
		}
		if _, err := tx.Stmt(st).Exec(args...); err != nil {
			rollback()
			return
		}
		opCount++
	}

	handle := func(r req) {
		begin()
		if tx == nil {
			return
		}
		switch r.kind {
		case reqBuild:
			e := r.build
			switch e.Kind {
			case "CHUNK":
				if e.Tick != lastBuildTick {
					lastBuildTick = e.Tick
					buildSeq = 0
				}
				seq := buildSeq
				buildSeq++
				exec(insertBuild, int64(e.Tick), seq, e.MapID, e.Coord[0], e.Coord[1],
					e.Remaining, e.Total, e.Batches2D, e.Batches3D, e.Billboards)
			case "BATCH3D":
				exec(upsertMesh, e.MapID, e.Coord[0], e.Coord[1], int64(e.Tick), e.Vertices, e.Triangles)
			case "PROCESSED_HEIGHTS":
				exec(upsertProcessed, e.MapID, e.Coord[0], e.Coord[1], int64(e.Tick), e.Cells)
			}
		case reqSnapshot:
			sn := r.snapshot
			exec(insertSnapshot, int64(sn.Tick), sn.Path, sn.MapID, sn.ChunkSize,
				sn.TerrainChunks, sn.Vertices, sn.Linedefs, sn.Sectors)
		}
		if tx != nil && opCount >= commitEvery {
			commit()
		}
	}

	// Idle commits keep readers from waiting on an open transaction.
	ticker := time.NewTicker(commitMaxWait / 4)
	defer ticker.Stop()
	for {
		select {
		case r, ok := <-s.ch:
			if !ok {
				commit()
				return
			}
			if r.kind == reqFlush {
				commit()
				close(r.done)
				continue
			}
			handle(r)
		case <-ticker.C:
			if time.Since(lastCommit) >= commitMaxWait {
				commit()
			}
		}
	}
}
