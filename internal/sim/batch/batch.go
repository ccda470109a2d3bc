package batch

import "github.com/go-gl/mathgl/mgl32"

// Batch2D is a flat triangle list in world units.
type Batch2D struct {
	Vertices []mgl32.Vec2
	UVs      []mgl32.Vec2
	Indices  [][3]uint32
	Source   PixelSource
}

func NewBatch2D(src PixelSource) *Batch2D {
	return &Batch2D{Source: src}
}

func (b *Batch2D) IsEmpty() bool { return len(b.Indices) == 0 }

// AddRect appends an axis-aligned rectangle (two triangles, uv 0..1).
func (b *Batch2D) AddRect(x, y, w, h float32) {
	base := uint32(len(b.Vertices))
	b.Vertices = append(b.Vertices,
		mgl32.Vec2{x, y}, mgl32.Vec2{x + w, y}, mgl32.Vec2{x + w, y + h}, mgl32.Vec2{x, y + h})
	b.UVs = append(b.UVs,
		mgl32.Vec2{0, 0}, mgl32.Vec2{1, 0}, mgl32.Vec2{1, 1}, mgl32.Vec2{0, 1})
	b.Indices = append(b.Indices, [3]uint32{base, base + 1, base + 2}, [3]uint32{base, base + 2, base + 3})
}

// AddLine appends a quad of the given width centred on segment ab.
func (b *Batch2D) AddLine(a, c mgl32.Vec2, width float32) {
	d := c.Sub(a)
	if d.Len() == 0 {
		return
	}
	n := mgl32.Vec2{-d.Y(), d.X()}.Normalize().Mul(width * 0.5)
	base := uint32(len(b.Vertices))
	b.Vertices = append(b.Vertices, a.Add(n), c.Add(n), c.Sub(n), a.Sub(n))
	b.UVs = append(b.UVs,
		mgl32.Vec2{0, 0}, mgl32.Vec2{1, 0}, mgl32.Vec2{1, 1}, mgl32.Vec2{0, 1})
	b.Indices = append(b.Indices, [3]uint32{base, base + 1, base + 2}, [3]uint32{base, base + 2, base + 3})
}

// Batch3D is an indexed triangle mesh. Normals is either empty or parallel to Vertices.
type Batch3D struct {
	Vertices []mgl32.Vec3
	UVs      []mgl32.Vec2
	Normals  []mgl32.Vec3
	Indices  [][3]uint32
	Source   PixelSource
}

func NewBatch3D(src PixelSource) *Batch3D {
	return &Batch3D{Source: src}
}

func (b *Batch3D) IsEmpty() bool { return len(b.Indices) == 0 }

// AddQuad appends four corners as two triangles (0,1,2) and (0,2,3).
func (b *Batch3D) AddQuad(p [4]mgl32.Vec3, uv [4]mgl32.Vec2) {
	base := uint32(len(b.Vertices))
	b.Vertices = append(b.Vertices, p[:]...)
	b.UVs = append(b.UVs, uv[:]...)
	b.Indices = append(b.Indices, [3]uint32{base, base + 1, base + 2}, [3]uint32{base, base + 2, base + 3})
}

// ComputeNormals replaces Normals with area-weighted vertex normals over the whole mesh.
// Vertices without any non-degenerate face get +Y.
func (b *Batch3D) ComputeNormals() {
	acc := make([]mgl32.Vec3, len(b.Vertices))
	for _, tri := range b.Indices {
		p0, p1, p2 := b.Vertices[tri[0]], b.Vertices[tri[1]], b.Vertices[tri[2]]
		fn := p1.Sub(p0).Cross(p2.Sub(p0))
		for _, i := range tri {
			acc[i] = acc[i].Add(fn)
		}
	}
	up := mgl32.Vec3{0, 1, 0}
	for i, n := range acc {
		if n.Len() == 0 {
			acc[i] = up
			continue
		}
		acc[i] = n.Normalize()
	}
	b.Normals = acc
}
