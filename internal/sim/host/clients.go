package host

import (
	"encoding/json"

	"github.com/google/uuid"

	"scenemesh.ai/internal/protocol"
	"scenemesh.ai/internal/sim/scene"
)

// JoinRequest registers an editor connection. Out receives encoded server messages;
// the host never blocks on it.
type JoinRequest struct {
	Name        string
	WantBatches bool
	Out         chan []byte
	Resp        chan protocol.WelcomeMsg
}

type client struct {
	id   string
	name string
	full bool
	out  chan []byte
}

func (h *Host) handleJoin(req JoinRequest) {
	name := req.Name
	if name == "" {
		name = "editor"
	}
	c := &client{id: uuid.NewString(), name: name, full: req.WantBatches, out: req.Out}
	h.clients[c.id] = c

	if req.Resp != nil {
		req.Resp <- h.welcome(c.id)
	}
	// The newcomer missed earlier results; rebuild what is known so it gets a full picture.
	if known := h.mgr.KnownCoords(); len(known) > 0 {
		h.mgr.Send(scene.AddDirty{Coords: known})
	}
	h.log.Printf("client joined: id=%s name=%s clients=%d", c.id, c.name, len(h.clients))
}

func (h *Host) handleLeave(id string) {
	c, ok := h.clients[id]
	if !ok {
		return
	}
	delete(h.clients, id)
	h.log.Printf("client left: id=%s name=%s clients=%d", id, c.name, len(h.clients))
}

func (h *Host) welcome(clientID string) protocol.WelcomeMsg {
	a := h.cfg.Assets
	msg := protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		SessionID:       clientID,
		MapID:           h.mgr.Map().ID,
		ChunkSize:       h.mgr.ChunkSize(),
		TickRateHz:      h.cfg.Tuning.TickRateHz,
		Modifiers:       h.mgr.ModifiersEnabled(),
	}
	if a != nil {
		msg.Catalogs.Tiles = protocol.DigestRef{Digest: a.Tiles.Digest, Count: len(a.Tiles.Order)}
		msg.Catalogs.Palette = protocol.DigestRef{Digest: a.Palette.Digest, Count: len(a.Palette.Colors)}
	}
	return msg
}

// ClientCount reports connected editors. Only safe on the host goroutine or when Run is not active.
func (h *Host) ClientCount() int { return len(h.clients) }

func (h *Host) broadcast(tick uint64, r scene.Result) {
	if len(h.clients) == 0 {
		return
	}
	// Encode at most twice: once per detail level.
	var cache [2][]byte
	for _, c := range h.clients {
		i := 0
		if c.full {
			i = 1
		}
		if cache[i] == nil {
			msg, ok := protocol.EncodeResult(tick, r, c.full)
			if !ok {
				return
			}
			b, err := json.Marshal(msg)
			if err != nil {
				continue
			}
			cache[i] = b
		}
		sendLatest(c.out, cache[i])
	}
}

func (h *Host) sendTo(clientID string, v any) {
	c, ok := h.clients[clientID]
	if !ok {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	sendLatest(c.out, b)
}

// sendLatest never blocks: when the queue is full the oldest message is dropped.
func sendLatest(ch chan []byte, b []byte) {
	select {
	case ch <- b:
		return
	default:
	}
	// Drop one.
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- b:
	default:
	}
}
