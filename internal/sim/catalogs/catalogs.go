package catalogs

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Assets is everything chunk builders and shape-effect graphs read besides the map itself.
type Assets struct {
	Tiles   TileList
	Palette Palette
}

type TileList struct {
	Order  []string
	ByID   map[string]Tile
	Digest string
}

type Tile struct {
	ID    string `yaml:"id" json:"id"`
	Name  string `yaml:"name" json:"name"`
	Color string `yaml:"color" json:"color"` // "#rrggbb" or "#rrggbbaa"
	// Billboard tiles are drawn camera-facing by the 3D builder.
	Billboard bool    `yaml:"billboard,omitempty" json:"billboard,omitempty"`
	Scale     float32 `yaml:"scale,omitempty" json:"scale,omitempty"`
}

type Palette struct {
	Colors [][4]uint8
	Digest string
}

// Color returns palette entry i, or opaque white when out of range.
func (p Palette) Color(i int) [4]uint8 {
	if i < 0 || i >= len(p.Colors) {
		return [4]uint8{255, 255, 255, 255}
	}
	return p.Colors[i]
}

func (a *Assets) Tile(id string) (Tile, bool) {
	if a == nil || a.Tiles.ByID == nil {
		return Tile{}, false
	}
	t, ok := a.Tiles.ByID[id]
	return t, ok
}

// Load reads tiles.yaml and palette.yaml from configDir. Missing files yield empty catalogs.
func Load(configDir string) (*Assets, error) {
	var a Assets
	if err := loadTiles(filepath.Join(configDir, "tiles.yaml"), &a.Tiles); err != nil {
		return nil, err
	}
	if err := loadPalette(filepath.Join(configDir, "palette.yaml"), &a.Palette); err != nil {
		return nil, err
	}
	return &a, nil
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func loadTiles(path string, out *TileList) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			*out = NewTileList(nil)
			return nil
		}
		return err
	}
	var defs []Tile
	if err := yaml.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("tiles.yaml: %w", err)
	}
	for _, d := range defs {
		if d.ID == "" {
			return fmt.Errorf("tiles.yaml: empty id")
		}
		if d.Color != "" {
			if _, err := ParseHexColor(d.Color); err != nil {
				return fmt.Errorf("tiles.yaml: tile %s: %w", d.ID, err)
			}
		}
	}
	*out = NewTileList(defs)
	return nil
}

// NewTileList indexes tiles by id, sorted, and digests the result.
func NewTileList(defs []Tile) TileList {
	tl := TileList{ByID: make(map[string]Tile, len(defs))}
	for _, d := range defs {
		tl.ByID[d.ID] = d
	}
	tl.Order = make([]string, 0, len(tl.ByID))
	for id := range tl.ByID {
		tl.Order = append(tl.Order, id)
	}
	sort.Strings(tl.Order)
	sorted := make([]Tile, 0, len(tl.Order))
	for _, id := range tl.Order {
		sorted = append(sorted, tl.ByID[id])
	}
	b, _ := json.Marshal(sorted)
	tl.Digest = sha256Hex(b)
	return tl
}

func loadPalette(path string, out *Palette) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			*out = Palette{Digest: sha256Hex(nil)}
			return nil
		}
		return err
	}
	var hexes []string
	if err := yaml.Unmarshal(raw, &hexes); err != nil {
		return fmt.Errorf("palette.yaml: %w", err)
	}
	p, err := NewPalette(hexes)
	if err != nil {
		return fmt.Errorf("palette.yaml: %w", err)
	}
	*out = p
	return nil
}

func NewPalette(hexes []string) (Palette, error) {
	p := Palette{Colors: make([][4]uint8, 0, len(hexes))}
	for i, h := range hexes {
		c, err := ParseHexColor(h)
		if err != nil {
			return Palette{}, fmt.Errorf("entry %d: %w", i, err)
		}
		p.Colors = append(p.Colors, c)
	}
	b, _ := json.Marshal(hexes)
	p.Digest = sha256Hex(b)
	return p, nil
}

// ParseHexColor accepts "#rrggbb" and "#rrggbbaa".
func ParseHexColor(s string) ([4]uint8, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 && len(s) != 8 {
		return [4]uint8{}, fmt.Errorf("bad color %q", s)
	}
	if len(s) == 6 {
		s += "ff"
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return [4]uint8{}, fmt.Errorf("bad color %q: %w", s, err)
	}
	return [4]uint8{uint8(v >> 24), uint8(v >> 16), uint8(v >> 8), uint8(v)}, nil
}
