package vmap

import (
	"fmt"
	"os"
	"sort"

	"github.com/go-gl/mathgl/mgl32"
	"gopkg.in/yaml.v3"

	"scenemesh.ai/internal/sim/geom"
)

// Load reads a map from YAML or JSON. Maps without an id get a fresh one.
func Load(path string) (*Map, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m Map
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("map %s: %w", path, err)
	}
	if m.ID == "" {
		m.ID = New("").ID
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("map %s: %w", path, err)
	}
	return &m, nil
}

// Reindex rebuilds the id lookup tables. Call after mutating the element slices.
func (m *Map) Reindex() {
	m.vertexIdx = make(map[int]int, len(m.Vertices))
	for i, v := range m.Vertices {
		m.vertexIdx[v.ID] = i
	}
	m.linedefIdx = make(map[int]int, len(m.Linedefs))
	for i, l := range m.Linedefs {
		m.linedefIdx[l.ID] = i
	}
	m.graphIdx = make(map[string]int, len(m.Graphs))
	for i, g := range m.Graphs {
		m.graphIdx[g.ID] = i
	}
}

func (m *Map) ensureIndex() {
	if m.vertexIdx == nil || len(m.vertexIdx) != len(m.Vertices) ||
		len(m.linedefIdx) != len(m.Linedefs) || len(m.graphIdx) != len(m.Graphs) {
		m.Reindex()
	}
}

// Validate checks that every reference resolves.
func (m *Map) Validate() error {
	m.Reindex()
	if len(m.vertexIdx) != len(m.Vertices) {
		return fmt.Errorf("duplicate vertex id")
	}
	if len(m.linedefIdx) != len(m.Linedefs) {
		return fmt.Errorf("duplicate linedef id")
	}
	for _, l := range m.Linedefs {
		if _, ok := m.vertexIdx[l.Start]; !ok {
			return fmt.Errorf("linedef %d: unknown start vertex %d", l.ID, l.Start)
		}
		if _, ok := m.vertexIdx[l.End]; !ok {
			return fmt.Errorf("linedef %d: unknown end vertex %d", l.ID, l.End)
		}
	}
	for _, s := range m.Sectors {
		for _, id := range s.Linedefs {
			if _, ok := m.linedefIdx[id]; !ok {
				return fmt.Errorf("sector %d: unknown linedef %d", s.ID, id)
			}
		}
	}
	return nil
}

func (m *Map) Vertex(id int) (Vertex, bool) {
	m.ensureIndex()
	i, ok := m.vertexIdx[id]
	if !ok {
		return Vertex{}, false
	}
	return m.Vertices[i], true
}

func (m *Map) Linedef(id int) (*Linedef, bool) {
	m.ensureIndex()
	i, ok := m.linedefIdx[id]
	if !ok {
		return nil, false
	}
	return &m.Linedefs[i], true
}

func (m *Map) Graph(id string) (GraphDef, bool) {
	m.ensureIndex()
	i, ok := m.graphIdx[id]
	if !ok {
		return GraphDef{}, false
	}
	return m.Graphs[i], true
}

// Endpoints returns the world positions of a linedef's vertices.
func (m *Map) Endpoints(l *Linedef) (a, b mgl32.Vec2, ok bool) {
	va, ok1 := m.Vertex(l.Start)
	vb, ok2 := m.Vertex(l.End)
	if !ok1 || !ok2 {
		return mgl32.Vec2{}, mgl32.Vec2{}, false
	}
	return va.Pos(), vb.Pos(), true
}

func (m *Map) LinedefBBox(l *Linedef) geom.BBox {
	a, b, ok := m.Endpoints(l)
	if !ok {
		return geom.EmptyBBox()
	}
	return geom.EmptyBBox().AddPoint(a).AddPoint(b)
}

// Polygon returns the sector outline, one point per linedef start.
func (m *Map) Polygon(s *Sector) []mgl32.Vec2 {
	pts := make([]mgl32.Vec2, 0, len(s.Linedefs))
	for _, id := range s.Linedefs {
		l, ok := m.Linedef(id)
		if !ok {
			continue
		}
		v, ok := m.Vertex(l.Start)
		if !ok {
			continue
		}
		pts = append(pts, v.Pos())
	}
	return pts
}

func (m *Map) SectorBBox(s *Sector) geom.BBox {
	bb := geom.EmptyBBox()
	for _, id := range s.Linedefs {
		if l, ok := m.Linedef(id); ok {
			bb = bb.Union(m.LinedefBBox(l))
		}
	}
	return bb
}

// SectorArea is the unsigned shoelace area of the sector outline.
func (m *Map) SectorArea(s *Sector) float32 {
	return PolygonArea(m.Polygon(s))
}

// BBox covers every vertex of the map.
func (m *Map) BBox() geom.BBox {
	bb := geom.EmptyBBox()
	for _, v := range m.Vertices {
		bb = bb.AddPoint(v.Pos())
	}
	return bb
}

// SectorsByArea returns sector pointers sorted largest first. Ties keep id order.
func (m *Map) SectorsByArea() []*Sector {
	out := make([]*Sector, len(m.Sectors))
	areas := make(map[int]float32, len(m.Sectors))
	for i := range m.Sectors {
		out[i] = &m.Sectors[i]
		areas[m.Sectors[i].ID] = m.SectorArea(&m.Sectors[i])
	}
	sort.SliceStable(out, func(i, j int) bool {
		ai, aj := areas[out[i].ID], areas[out[j].ID]
		if ai != aj {
			return ai > aj
		}
		return out[i].ID < out[j].ID
	})
	return out
}
