package batch

type SourceKind uint8

const (
	SourceOff SourceKind = iota
	SourceTile
	SourceColor
	SourceTerrain
)

func (k SourceKind) String() string {
	switch k {
	case SourceTile:
		return "TILE"
	case SourceColor:
		return "COLOR"
	case SourceTerrain:
		return "TERRAIN"
	default:
		return "OFF"
	}
}

// PixelSource says where a batch (or a terrain cell) takes its texels from.
type PixelSource struct {
	Kind   SourceKind
	TileID string
	Color  [4]uint8
}

func TileSource(id string) PixelSource   { return PixelSource{Kind: SourceTile, TileID: id} }
func ColorSource(c [4]uint8) PixelSource { return PixelSource{Kind: SourceColor, Color: c} }
func TerrainSource() PixelSource         { return PixelSource{Kind: SourceTerrain} }
func (s PixelSource) IsOff() bool        { return s.Kind == SourceOff }
