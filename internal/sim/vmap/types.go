package vmap

import (
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

// PropRegionGraph names the shape-effect graph attached to a sector or linedef.
const PropRegionGraph = "region_graph"

// Properties are free-form editor attributes. Values are kept as strings so maps survive
// YAML, JSON and gob unchanged.
type Properties map[string]string

func (p Properties) Get(key string) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(p[key])
}

func (p Properties) Float(key string, def float32) float32 {
	s := p.Get(key)
	if s == "" {
		return def
	}
	f, err := strconv.ParseFloat(s, 32)
	if err != nil {
		return def
	}
	return float32(f)
}

// RegionGraph returns the referenced graph id, if any.
func (p Properties) RegionGraph() (string, bool) {
	id := p.Get(PropRegionGraph)
	return id, id != ""
}

type Vertex struct {
	ID    int        `yaml:"id" json:"id"`
	X     float32    `yaml:"x" json:"x"`
	Y     float32    `yaml:"y" json:"y"`
	Props Properties `yaml:"props,omitempty" json:"props,omitempty"`
}

func (v Vertex) Pos() mgl32.Vec2 { return mgl32.Vec2{v.X, v.Y} }

type Linedef struct {
	ID    int        `yaml:"id" json:"id"`
	Start int        `yaml:"start" json:"start"` // vertex id
	End   int        `yaml:"end" json:"end"`     // vertex id
	Props Properties `yaml:"props,omitempty" json:"props,omitempty"`
}

// Sector is a closed polygon. Linedefs are listed in loop order; the polygon-closing
// step that produces this order happens in the editor.
type Sector struct {
	ID       int        `yaml:"id" json:"id"`
	Linedefs []int      `yaml:"linedefs" json:"linedefs"`
	Props    Properties `yaml:"props,omitempty" json:"props,omitempty"`
}

// GraphDef is the stored form of a shape-effect graph. Evaluation lives in package shapefx.
type GraphDef struct {
	ID     string             `yaml:"id" json:"id"`
	Kind   string             `yaml:"kind" json:"kind"`
	Params map[string]float64 `yaml:"params,omitempty" json:"params,omitempty"`
}

func (g GraphDef) Param(key string, def float32) float32 {
	if v, ok := g.Params[key]; ok {
		return float32(v)
	}
	return def
}

type Map struct {
	ID       string     `yaml:"id" json:"id"`
	Name     string     `yaml:"name" json:"name"`
	Vertices []Vertex   `yaml:"vertices" json:"vertices"`
	Linedefs []Linedef  `yaml:"linedefs" json:"linedefs"`
	Sectors  []Sector   `yaml:"sectors" json:"sectors"`
	Graphs   []GraphDef `yaml:"graphs,omitempty" json:"graphs,omitempty"`

	vertexIdx  map[int]int
	linedefIdx map[int]int
	graphIdx   map[string]int
}

// New returns an empty map with a fresh id.
func New(name string) *Map {
	return &Map{ID: uuid.NewString(), Name: name}
}
