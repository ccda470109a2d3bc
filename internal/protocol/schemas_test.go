package protocol_test

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"scenemesh.ai/internal/protocol"
	"scenemesh.ai/internal/sim/builder"
	"scenemesh.ai/internal/sim/geom"
	"scenemesh.ai/internal/sim/scene"
	"scenemesh.ai/internal/sim/terrain"
	"scenemesh.ai/internal/sim/vmap"
)

func compile(t *testing.T, name string) *jsonschema.Schema {
	t.Helper()
	p := filepath.Join("..", "..", "schemas", name)
	s, err := jsonschema.Compile(p)
	if err != nil {
		t.Fatalf("compile %s: %v", name, err)
	}
	return s
}

func validate(t *testing.T, s *jsonschema.Schema, v any) {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var doc any
	if err := json.Unmarshal(b, &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if err := s.Validate(doc); err != nil {
		t.Fatalf("validate %s: %v", b, err)
	}
}

func TestSchemas_ClientMessages(t *testing.T) {
	validate(t, compile(t, "hello.schema.json"), protocol.HelloMsg{
		Type: protocol.TypeHello, ProtocolVersion: protocol.Version, ClientName: "viewer", WantBatches: true,
	})
	validate(t, compile(t, "add_dirty.schema.json"), protocol.AddDirtyMsg{
		Type: protocol.TypeAddDirty, ProtocolVersion: protocol.Version, Coords: [][2]int{{0, 0}, {-16, 32}},
	})
	validate(t, compile(t, "set_heights.schema.json"), protocol.SetHeightsMsg{
		Type: protocol.TypeSetHeights, ProtocolVersion: protocol.Version, ReqID: "r1",
		Cells: []protocol.HeightCell{{X: -3, Y: 4, H: 1.5}},
	})
	validate(t, compile(t, "welcome.schema.json"), protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		SessionID:       "s1",
		MapID:           "demo",
		ChunkSize:       16,
		TickRateHz:      30,
		Modifiers:       true,
		Catalogs: protocol.CatalogDigests{
			Tiles:   protocol.DigestRef{Digest: "deadbeef", Count: 4},
			Palette: protocol.DigestRef{Digest: "deadbeef", Count: 5},
		},
	})
}

func TestSchemas_EncodedResults(t *testing.T) {
	m := &vmap.Map{
		ID: "schema",
		Vertices: []vmap.Vertex{
			{ID: 1, X: 2, Y: 2}, {ID: 2, X: 12, Y: 2},
			{ID: 3, X: 8, Y: 8, Props: vmap.Properties{builder.PropBillboard: "tree"}},
		},
		Linedefs: []vmap.Linedef{{ID: 1, Start: 1, End: 2, Props: vmap.Properties{builder.PropWallHeight: "2"}}},
	}
	m.Reindex()
	tr := terrain.New(16)
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			tr.SetHeight(x, y, float32(x))
		}
	}

	s := scene.New(scene.Config{ChunkSize: 16, Builder2D: builder.D2{}, Builder3D: builder.D3{}})
	s.Send(scene.SetMap{Map: m, Terrain: tr})
	for s.Tick() {
	}
	s.Send(scene.Quit{})

	schemas := map[string]*jsonschema.Schema{
		protocol.TypeStartup:          compile(t, "signal.schema.json"),
		protocol.TypeClear:            compile(t, "signal.schema.json"),
		protocol.TypeQuit:             compile(t, "signal.schema.json"),
		protocol.TypeChunk:            compile(t, "chunk.schema.json"),
		protocol.TypeProcessedHeights: compile(t, "processed_heights.schema.json"),
		protocol.TypeBatch3D:          compile(t, "batch3d.schema.json"),
	}
	seen := map[string]int{}
	for {
		r, ok := s.Receive()
		if !ok {
			break
		}
		for _, full := range []bool{false, true} {
			msg, ok := protocol.EncodeResult(7, r, full)
			if !ok {
				t.Fatalf("no encoding for %s", r.Kind())
			}
			b, _ := json.Marshal(msg)
			base, err := protocol.DecodeBase(b)
			if err != nil {
				t.Fatalf("decode base: %v", err)
			}
			sch, ok := schemas[base.Type]
			if !ok {
				t.Fatalf("unexpected type %q", base.Type)
			}
			validate(t, sch, msg)
			if full {
				seen[base.Type]++
			}
		}
	}
	for _, typ := range []string{protocol.TypeStartup, protocol.TypeChunk, protocol.TypeProcessedHeights, protocol.TypeBatch3D, protocol.TypeQuit} {
		if seen[typ] == 0 {
			t.Fatalf("never saw %s: %v", typ, seen)
		}
	}
}

func TestEncodeChunk_FlattensIndices(t *testing.T) {
	vm := &scene.VMChunk{Origin: geom.V2i(16, 0), Size: 16}
	r := scene.ChunkResult{Chunk: vm, Remaining: 2, Total: 5}
	msg := protocol.EncodeChunk(1, r, true)
	if msg.Origin != [2]int{16, 0} || msg.Remaining != 2 || msg.Total != 5 {
		t.Fatalf("msg=%+v", msg)
	}
	if msg.Batches2D == nil || msg.Batches3D == nil || msg.Billboards == nil {
		t.Fatalf("slices must encode as [] not null")
	}
}
