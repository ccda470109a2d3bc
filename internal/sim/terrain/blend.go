package terrain

import "github.com/go-gl/mathgl/mgl32"

type BlendKind uint8

const (
	BlendKindNone BlendKind = iota
	BlendKindBlend
	BlendKindOffset
	BlendKindCustom
)

// BlendMode tells the renderer how a cell's texture mixes with its neighbours.
// Only the fields meaningful for Kind are set.
type BlendMode struct {
	Kind      BlendKind
	Strength  float32
	Strength2 float32
	Offset    mgl32.Vec2
}

func NoBlend() BlendMode { return BlendMode{} }

func Blend(strength float32) BlendMode {
	return BlendMode{Kind: BlendKindBlend, Strength: strength}
}

func BlendOffset(strength float32, offset mgl32.Vec2) BlendMode {
	return BlendMode{Kind: BlendKindOffset, Strength: strength, Offset: offset}
}

func BlendCustom(strength, strength2 float32, offset mgl32.Vec2) BlendMode {
	return BlendMode{Kind: BlendKindCustom, Strength: strength, Strength2: strength2, Offset: offset}
}

func (b BlendMode) IsNone() bool { return b.Kind == BlendKindNone }
