package batch

// Texture is an RGBA8 image, row-major, used as the bake target of colorize passes.
type Texture struct {
	Width  int
	Height int
	Pixels []uint8
}

func NewTexture(w, h int) *Texture {
	return &Texture{Width: w, Height: h, Pixels: make([]uint8, w*h*4)}
}

func (t *Texture) off(x, y int) (int, bool) {
	if t == nil || x < 0 || y < 0 || x >= t.Width || y >= t.Height {
		return 0, false
	}
	return (y*t.Width + x) * 4, true
}

// Set writes a pixel; out-of-range writes are dropped.
func (t *Texture) Set(x, y int, c [4]uint8) {
	o, ok := t.off(x, y)
	if !ok {
		return
	}
	copy(t.Pixels[o:o+4], c[:])
}

func (t *Texture) At(x, y int) [4]uint8 {
	o, ok := t.off(x, y)
	if !ok {
		return [4]uint8{}
	}
	return [4]uint8{t.Pixels[o], t.Pixels[o+1], t.Pixels[o+2], t.Pixels[o+3]}
}

func (t *Texture) Clone() *Texture {
	if t == nil {
		return nil
	}
	out := &Texture{Width: t.Width, Height: t.Height, Pixels: make([]uint8, len(t.Pixels))}
	copy(out.Pixels, t.Pixels)
	return out
}
