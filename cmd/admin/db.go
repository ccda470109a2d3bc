package main

import (
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

func dbCmd(args []string) {
	fs := flag.NewFlagSet("db", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	dbPath := fs.String("db", "", "sqlite db path (optional; defaults to <data>/index/scene.sqlite)")
	mapID := fs.String("map", "", "map_id filter (builds, meshes)")
	limit := fs.Int("limit", 20, "result limit")
	_ = fs.Parse(args)

	q := "snapshots"
	if fs.NArg() > 0 {
		q = strings.TrimSpace(fs.Arg(0))
	}
	if *limit <= 0 {
		*limit = 20
	}

	path := strings.TrimSpace(*dbPath)
	if path == "" {
		path = filepath.Join(*dataDir, "index", "scene.sqlite")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}
	defer db.Close()

	switch q {
	case "snapshots":
		rows, err := db.Query(`SELECT tick,path,map_id,chunk_size,terrain_chunks,vertices,linedefs,sectors FROM snapshots ORDER BY tick DESC LIMIT ?`, *limit)
		if err != nil {
			fail("query", err)
		}
		defer rows.Close()
		for rows.Next() {
			var r struct {
				Tick          int64  `json:"tick"`
				Path          string `json:"path"`
				MapID         string `json:"map_id"`
				ChunkSize     int    `json:"chunk_size"`
				TerrainChunks int    `json:"terrain_chunks"`
				Vertices      int    `json:"vertices"`
				Linedefs      int    `json:"linedefs"`
				Sectors       int    `json:"sectors"`
			}
			if err := rows.Scan(&r.Tick, &r.Path, &r.MapID, &r.ChunkSize, &r.TerrainChunks, &r.Vertices, &r.Linedefs, &r.Sectors); err != nil {
				fail("scan", err)
			}
			printJSON(r)
		}
		if err := rows.Err(); err != nil {
			fail("rows", err)
		}

	case "builds":
		rows, err := db.Query(`SELECT tick,map_id,x,y,remaining,total,batches_2d,batches_3d,billboards FROM chunk_builds WHERE (?='' OR map_id=?) ORDER BY tick DESC, seq DESC LIMIT ?`, *mapID, *mapID, *limit)
		if err != nil {
			fail("query", err)
		}
		defer rows.Close()
		for rows.Next() {
			var r struct {
				Tick       int64  `json:"tick"`
				MapID      string `json:"map_id"`
				X          int    `json:"x"`
				Y          int    `json:"y"`
				Remaining  int    `json:"remaining"`
				Total      int    `json:"total"`
				Batches2D  int    `json:"batches_2d"`
				Batches3D  int    `json:"batches_3d"`
				Billboards int    `json:"billboards"`
			}
			if err := rows.Scan(&r.Tick, &r.MapID, &r.X, &r.Y, &r.Remaining, &r.Total, &r.Batches2D, &r.Batches3D, &r.Billboards); err != nil {
				fail("scan", err)
			}
			printJSON(r)
		}
		if err := rows.Err(); err != nil {
			fail("rows", err)
		}

	case "meshes":
		rows, err := db.Query(`SELECT map_id,x,y,tick,vertices,triangles FROM terrain_meshes WHERE (?='' OR map_id=?) ORDER BY map_id, x, y LIMIT ?`, *mapID, *mapID, *limit)
		if err != nil {
			fail("query", err)
		}
		defer rows.Close()
		for rows.Next() {
			var r struct {
				MapID     string `json:"map_id"`
				X         int    `json:"x"`
				Y         int    `json:"y"`
				Tick      int64  `json:"tick"`
				Vertices  int    `json:"vertices"`
				Triangles int    `json:"triangles"`
			}
			if err := rows.Scan(&r.MapID, &r.X, &r.Y, &r.Tick, &r.Vertices, &r.Triangles); err != nil {
				fail("scan", err)
			}
			printJSON(r)
		}
		if err := rows.Err(); err != nil {
			fail("rows", err)
		}

	case "catalogs":
		rows, err := db.Query(`SELECT name,digest,updated_at FROM catalogs ORDER BY name`)
		if err != nil {
			fail("query", err)
		}
		defer rows.Close()
		for rows.Next() {
			var r struct {
				Name      string `json:"name"`
				Digest    string `json:"digest"`
				UpdatedAt string `json:"updated_at"`
			}
			if err := rows.Scan(&r.Name, &r.Digest, &r.UpdatedAt); err != nil {
				fail("scan", err)
			}
			printJSON(r)
		}
		if err := rows.Err(); err != nil {
			fail("rows", err)
		}

	default:
		fmt.Fprintln(os.Stderr, "unknown query:", q)
		fmt.Fprintln(os.Stderr, "usage: admin db [-data ./data|-db PATH] [-map ID] [-limit N] snapshots|builds|meshes|catalogs")
		os.Exit(2)
	}
}

func fail(what string, err error) {
	fmt.Fprintf(os.Stderr, "%s: %v\n", what, err)
	os.Exit(1)
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}
