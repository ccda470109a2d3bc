package vmap

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestMap_BBoxAndArea(t *testing.T) {
	m := squareMap(2, 4, 10)
	bb := m.BBox()
	if bb.Min != (mgl32.Vec2{2, 4}) || bb.Max != (mgl32.Vec2{12, 14}) {
		t.Fatalf("bbox=%+v", bb)
	}
	if a := m.SectorArea(&m.Sectors[0]); a != 100 {
		t.Fatalf("area=%v want 100", a)
	}
	if sb := m.SectorBBox(&m.Sectors[0]); sb != bb {
		t.Fatalf("sector bbox=%+v want %+v", sb, bb)
	}
}

func TestMap_SectorsByAreaLargestFirst(t *testing.T) {
	m := squareMap(0, 0, 20)
	// Inner 4x4 square made of new vertices/linedefs.
	m.Vertices = append(m.Vertices,
		Vertex{ID: 11, X: 5, Y: 5}, Vertex{ID: 12, X: 9, Y: 5},
		Vertex{ID: 13, X: 9, Y: 9}, Vertex{ID: 14, X: 5, Y: 9},
	)
	m.Linedefs = append(m.Linedefs,
		Linedef{ID: 11, Start: 11, End: 12}, Linedef{ID: 12, Start: 12, End: 13},
		Linedef{ID: 13, Start: 13, End: 14}, Linedef{ID: 14, Start: 14, End: 11},
	)
	// Small sector listed first on purpose.
	m.Sectors = append([]Sector{{ID: 2, Linedefs: []int{11, 12, 13, 14}}}, m.Sectors...)
	m.Reindex()

	got := m.SectorsByArea()
	if got[0].ID != 1 || got[1].ID != 2 {
		t.Fatalf("order=%d,%d want 1,2", got[0].ID, got[1].ID)
	}
}

func TestPointInPolygon(t *testing.T) {
	m := squareMap(0, 0, 4)
	poly := m.Polygon(&m.Sectors[0])
	if !PointInPolygon(mgl32.Vec2{2, 2}, poly) {
		t.Fatalf("center should be inside")
	}
	if PointInPolygon(mgl32.Vec2{5, 2}, poly) {
		t.Fatalf("outside point reported inside")
	}
	if d := DistanceToSegment(mgl32.Vec2{2, 3}, mgl32.Vec2{0, 0}, mgl32.Vec2{4, 0}); d != 3 {
		t.Fatalf("distance=%v want 3", d)
	}
}

func TestProperties(t *testing.T) {
	p := Properties{"region_graph": " g1 ", "wall_height": "2.5", "bad": "x"}
	if id, ok := p.RegionGraph(); !ok || id != "g1" {
		t.Fatalf("region graph=%q ok=%v", id, ok)
	}
	if p.Float("wall_height", 0) != 2.5 || p.Float("bad", 7) != 7 || p.Float("missing", 1) != 1 {
		t.Fatalf("float parsing mismatch")
	}
	var nilProps Properties
	if _, ok := nilProps.RegionGraph(); ok {
		t.Fatalf("nil props should have no graph")
	}
}

func TestLoad_YAMLAndValidate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "map.yaml")
	src := `
name: test
vertices:
  - {id: 1, x: 0, y: 0}
  - {id: 2, x: 8, y: 0}
linedefs:
  - {id: 1, start: 1, end: 2, props: {region_graph: fence}}
graphs:
  - {id: fence, kind: ridge, params: {height: 2}}
`
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	m, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if m.ID == "" {
		t.Fatalf("expected generated id")
	}
	g, ok := m.Graph("fence")
	if !ok || g.Kind != "ridge" || g.Param("height", 0) != 2 {
		t.Fatalf("graph=%+v ok=%v", g, ok)
	}

	bad := filepath.Join(dir, "bad.yaml")
	_ = os.WriteFile(bad, []byte("linedefs:\n  - {id: 1, start: 1, end: 9}\n"), 0o644)
	if _, err := Load(bad); err == nil {
		t.Fatalf("expected validation error")
	}
}
