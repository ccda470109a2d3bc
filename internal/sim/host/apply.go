package host

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	buildlog "scenemesh.ai/internal/persistence/log"
	"scenemesh.ai/internal/protocol"
	"scenemesh.ai/internal/sim/geom"
	"scenemesh.ai/internal/sim/scene"
	"scenemesh.ai/internal/sim/terrain"
	"scenemesh.ai/internal/sim/vmap"
)

// Request is one decoded client message. Msg is one of the protocol client message
// structs, or a scene.Command for in-process callers.
type Request struct {
	ClientID string
	Msg      any
}

type CommandWriter interface {
	WriteCommand(e buildlog.CommandLogEntry) error
}

func (h *Host) apply(tick uint64, req Request) {
	typ, reqID, err := h.applyMsg(req.Msg)
	if typ == "" {
		return
	}
	if h.cfg.Commands != nil {
		var payload json.RawMessage
		if _, local := req.Msg.(scene.Command); !local {
			payload, _ = json.Marshal(req.Msg)
		}
		source := req.ClientID
		if source == "" {
			source = "local"
		}
		if werr := h.cfg.Commands.WriteCommand(buildlog.CommandLogEntry{Tick: tick, Type: typ, Source: source, Payload: payload}); werr != nil {
			h.log.Printf("command log: %v", werr)
		}
	}
	if req.ClientID == "" || reqID == "" {
		if err != nil {
			h.log.Printf("%s: %v", typ, err)
		}
		return
	}
	ack := protocol.AckMsg{
		Type:            protocol.TypeAck,
		ProtocolVersion: protocol.Version,
		AckFor:          reqID,
		Accepted:        err == nil,
		ServerTick:      tick,
	}
	if err != nil {
		ack.Code, ack.Message = errorCode(err), err.Error()
	}
	h.sendTo(req.ClientID, ack)
}

type codedError struct {
	code string
	err  error
}

func (e *codedError) Error() string { return e.err.Error() }
func (e *codedError) Unwrap() error { return e.err }

func coded(code string, format string, args ...any) error {
	return &codedError{code: code, err: fmt.Errorf(format, args...)}
}

func errorCode(err error) string {
	var ce *codedError
	if errors.As(err, &ce) {
		return ce.code
	}
	return protocol.ErrInternal
}

// applyMsg returns the message type for logging, its request id and any rejection.
func (h *Host) applyMsg(msg any) (typ, reqID string, err error) {
	switch m := msg.(type) {
	case scene.Command:
		h.mgr.Send(m)
		return fmt.Sprintf("%T", m), "", nil
	case protocol.AddDirtyMsg:
		if len(m.Coords) == 0 {
			return protocol.TypeAddDirty, m.ReqID, coded(protocol.ErrBadRequest, "no coords")
		}
		coords := make([]geom.Vec2i, 0, len(m.Coords))
		for _, c := range m.Coords {
			coords = append(coords, geom.V2i(c[0], c[1]))
		}
		h.mgr.Send(scene.AddDirty{Coords: coords})
		return protocol.TypeAddDirty, m.ReqID, nil
	case protocol.SetHeightsMsg:
		if len(m.Cells) == 0 {
			return protocol.TypeSetHeights, m.ReqID, coded(protocol.ErrBadRequest, "no cells")
		}
		h.mgr.Send(scene.SetDirtyTerrainChunks{Chunks: h.editHeights(m.Cells)})
		return protocol.TypeSetHeights, m.ReqID, nil
	case protocol.SetModifiersMsg:
		h.mgr.Send(scene.SetTerrainModifierState{Enabled: m.Enabled})
		return protocol.TypeSetModifiers, m.ReqID, nil
	case protocol.ReloadMapMsg:
		return protocol.TypeReloadMap, m.ReqID, h.reloadMap(m.Path)
	case protocol.QuitMsg:
		h.mgr.Send(scene.Quit{})
		return protocol.TypeQuit, "", nil
	}
	return "", "", nil
}

// editHeights groups cell edits by chunk and returns edited copies; the stored chunks
// are only replaced once the manager takes ownership.
func (h *Host) editHeights(cells []protocol.HeightCell) []*terrain.TerrainChunk {
	t := h.mgr.Terrain()
	edited := map[geom.Vec2i]*terrain.TerrainChunk{}
	var order []geom.Vec2i
	for _, c := range cells {
		origin := t.ChunkOrigin(c.X, c.Y)
		ch, ok := edited[origin]
		if !ok {
			if cur := t.Chunk(origin); cur != nil {
				ch = cur.Clone()
			} else {
				ch = terrain.NewChunk(origin, t.ChunkSize)
			}
			edited[origin] = ch
			order = append(order, origin)
		}
		ch.SetHeight(c.X, c.Y, c.H)
	}
	out := make([]*terrain.TerrainChunk, 0, len(order))
	for _, o := range order {
		out = append(out, edited[o])
	}
	return out
}

func (h *Host) reloadMap(path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		path = h.mapPath
	}
	if path == "" {
		return coded(protocol.ErrBadRequest, "no map path")
	}
	if h.mapPath != "" && !filepath.IsAbs(path) && path != h.mapPath {
		path = filepath.Join(filepath.Dir(h.mapPath), path)
	}
	m, err := vmap.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return coded(protocol.ErrNotFound, "reload map: %w", err)
	}
	if err != nil {
		return coded(protocol.ErrMapInvalid, "reload map: %w", err)
	}
	h.mapPath = path
	h.mgr.Send(scene.SetMap{Map: m})
	return nil
}
