package terrain

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"scenemesh.ai/internal/sim/batch"
	"scenemesh.ai/internal/sim/geom"
)

func TestWorldLocalRoundTrip(t *testing.T) {
	ch := NewChunk(geom.V2i(-32, 48), 16)
	for _, p := range []geom.Vec2i{{X: 0, Y: 0}, {X: -32, Y: 48}, {X: -17, Y: 63}, {X: 5, Y: -100}, {X: math.MaxInt32, Y: math.MinInt32 + 100}} {
		if got := ch.WorldToLocal(ch.LocalToWorld(p)); got != p {
			t.Fatalf("world_to_local(local_to_world(%v))=%v", p, got)
		}
		if got := ch.LocalToWorld(ch.WorldToLocal(p)); got != p {
			t.Fatalf("local_to_world(world_to_local(%v))=%v", p, got)
		}
	}
	if l := ch.WorldToLocal(geom.V2i(-30, 50)); l != geom.V2i(2, 2) {
		t.Fatalf("local=%v want (2,2)", l)
	}
}

func TestSetHeight_GetHeight(t *testing.T) {
	ch := NewChunk(geom.V2i(16, 0), 16)
	ch.ClearDirty()
	ch.SetHeight(20, 3, 4.5)
	if !ch.IsDirty() {
		t.Fatalf("set_height must mark dirty")
	}
	if v, ok := ch.GetHeightUnprocessed(20, 3); !ok || v != 4.5 {
		t.Fatalf("unprocessed=%v ok=%v", v, ok)
	}
	if v := ch.GetHeight(20, 3); v != 4.5 {
		t.Fatalf("get_height without cache=%v want 4.5", v)
	}
	if _, ok := ch.GetHeightUnprocessed(21, 3); ok {
		t.Fatalf("missing cell reported present")
	}
	if v := ch.GetHeight(21, 3); v != 0 {
		t.Fatalf("missing cell height=%v want 0", v)
	}
	if !ch.Exists(20, 3) || ch.Exists(4, 3) {
		t.Fatalf("exists mismatch")
	}

	// The processed cache wins once stored, and set_height never touches it.
	ch.SetProcessedHeights(map[geom.Vec2i]float32{geom.V2i(4, 3): 9})
	if v := ch.GetHeight(20, 3); v != 9 {
		t.Fatalf("get_height with cache=%v want 9", v)
	}
	ch.SetHeight(20, 3, 1)
	if v := ch.GetHeight(20, 3); v != 9 {
		t.Fatalf("processed cache was mutated by set_height: %v", v)
	}
	if v, _ := ch.GetHeightUnprocessed(20, 3); v != 1 {
		t.Fatalf("unprocessed=%v want 1", v)
	}
	// Exists only looks at raw heights.
	ch.SetProcessedHeights(map[geom.Vec2i]float32{geom.V2i(9, 9): 1})
	if ch.Exists(25, 9) {
		t.Fatalf("exists must ignore the processed cache")
	}
}

func TestSourcesAndBlendModes(t *testing.T) {
	ch := NewChunk(geom.V2i(0, 0), 16)
	ch.ClearDirty()
	ch.SetSource(1, 1, batch.TileSource("rock"))
	if !ch.IsDirty() {
		t.Fatalf("set_source must mark dirty")
	}
	if s, ok := ch.GetSource(1, 1); !ok || s.TileID != "rock" {
		t.Fatalf("source=%+v ok=%v", s, ok)
	}
	if _, ok := ch.GetSource(2, 2); ok {
		t.Fatalf("expected no source")
	}

	ch.ClearDirty()
	ch.SetBlendMode(1, 1, BlendCustom(0.2, 0.8, mgl32.Vec2{0.5, 0}))
	if !ch.IsDirty() {
		t.Fatalf("set_blend_mode must mark dirty")
	}
	if bm := ch.GetBlendMode(1, 1); bm.Kind != BlendKindCustom || bm.Strength2 != 0.8 {
		t.Fatalf("blend=%+v", bm)
	}
	ch.SetBlendMode(1, 1, NoBlend())
	if !ch.GetBlendMode(1, 1).IsNone() || len(ch.blendModes) != 0 {
		t.Fatalf("NoBlend must clear the cell")
	}
	if !ch.GetBlendMode(7, 7).IsNone() {
		t.Fatalf("missing cell should default to no blend")
	}
}

func TestBounds(t *testing.T) {
	ch := NewChunk(geom.V2i(16, -16), 16)
	bb := ch.Bounds()
	if bb.Min != (mgl32.Vec2{16, -16}) || bb.Max != (mgl32.Vec2{31, -1}) {
		t.Fatalf("bounds=%+v", bb)
	}
}

func TestSampleNormal(t *testing.T) {
	ch := NewChunk(geom.V2i(0, 0), 16)
	for x := 0; x < 5; x++ {
		for y := 0; y < 5; y++ {
			ch.SetHeight(x, y, 1)
		}
	}
	if n := ch.SampleNormal(2, 2); !n.ApproxEqual(mgl32.Vec3{0, 1, 0}) {
		t.Fatalf("flat normal=%v", n)
	}

	// Slope rising along +x by 1 per cell.
	for x := 0; x < 5; x++ {
		for y := 0; y < 5; y++ {
			ch.SetHeight(x, y, float32(x))
		}
	}
	n := ch.SampleNormal(2, 2)
	want := mgl32.Vec3{-2, 2, 0}.Normalize()
	if !n.ApproxEqual(want) {
		t.Fatalf("slope normal=%v want %v", n, want)
	}

	// Processed heights are used when present.
	ch.SetProcessedHeights(map[geom.Vec2i]float32{})
	if n := ch.SampleNormal(2, 2); !n.ApproxEqual(want) {
		t.Fatalf("empty cache should fall back to raw heights, got %v", n)
	}
	ch.SetProcessedHeights(map[geom.Vec2i]float32{
		{X: 1, Y: 2}: 0, {X: 3, Y: 2}: 0, {X: 2, Y: 1}: 0, {X: 2, Y: 3}: 0,
	})
	if n := ch.SampleNormal(2, 2); !n.ApproxEqual(mgl32.Vec3{0, 1, 0}) {
		t.Fatalf("processed normal=%v want +Y", n)
	}
}

func TestClone_IsIndependentAndDirty(t *testing.T) {
	ch := NewChunk(geom.V2i(0, 0), 16)
	ch.SetHeight(1, 1, 2)
	ch.SetProcessedHeights(map[geom.Vec2i]float32{{X: 1, Y: 1}: 5})
	ch.ClearDirty()

	cp := ch.Clone()
	cp.SetHeight(1, 1, 7)
	if v, _ := ch.GetHeightUnprocessed(1, 1); v != 2 {
		t.Fatalf("clone shares storage with original")
	}
	if cp.ProcessedHeights() != nil || !cp.IsDirty() {
		t.Fatalf("clone must drop the processed cache and be dirty")
	}
}
