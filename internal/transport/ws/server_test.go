package ws

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"scenemesh.ai/internal/protocol"
	"scenemesh.ai/internal/sim/host"
)

type fakeHub struct {
	inbox chan host.Request
	join  chan host.JoinRequest
	leave chan string
}

func newFakeHub() *fakeHub {
	return &fakeHub{
		inbox: make(chan host.Request, 8),
		join:  make(chan host.JoinRequest, 1),
		leave: make(chan string, 1),
	}
}

func (h *fakeHub) Inbox() chan<- host.Request     { return h.inbox }
func (h *fakeHub) Join() chan<- host.JoinRequest { return h.join }
func (h *fakeHub) Leave() chan<- string          { return h.leave }

func TestDecodeClient(t *testing.T) {
	v, ok := DecodeClient([]byte(`{"type":"ADD_DIRTY","protocol_version":"1.0","coords":[[16,-32]]}`))
	if !ok {
		t.Fatalf("decode failed")
	}
	m, ok := v.(protocol.AddDirtyMsg)
	if !ok || len(m.Coords) != 1 || m.Coords[0] != [2]int{16, -32} {
		t.Fatalf("decoded=%#v", v)
	}
	for _, bad := range []string{
		`{"type":"ADD_DIRTY","protocol_version":"0.9","coords":[]}`,
		`{"type":"WELCOME","protocol_version":"1.0"}`,
		`{"type":"SET_HEIGHTS","protocol_version":"1.0","cells":"nope"}`,
		`not json`,
	} {
		if _, ok := DecodeClient([]byte(bad)); ok {
			t.Fatalf("accepted %s", bad)
		}
	}
}

func TestServer_HandshakeAndForward(t *testing.T) {
	hub := newFakeHub()
	srv := httptest.NewServer(NewServer(hub, nil).Handler())
	defer srv.Close()

	go func() {
		req := <-hub.join
		if req.Name != "viewer" || !req.WantBatches {
			t.Errorf("join=%+v", req)
		}
		req.Resp <- protocol.WelcomeMsg{Type: protocol.TypeWelcome, ProtocolVersion: protocol.Version, SessionID: "c1"}
		req.Out <- []byte(`{"type":"STARTUP","protocol_version":"1.0","tick":0}`)
	}()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	hello, _ := json.Marshal(protocol.HelloMsg{Type: protocol.TypeHello, ProtocolVersion: protocol.Version, ClientName: "viewer", WantBatches: true})
	if err := conn.WriteMessage(websocket.TextMessage, hello); err != nil {
		t.Fatalf("write hello: %v", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var types []string
	for len(types) < 2 {
		_, b, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		base, _ := protocol.DecodeBase(b)
		types = append(types, base.Type)
	}
	if types[0] != protocol.TypeWelcome || types[1] != protocol.TypeStartup {
		t.Fatalf("types=%v", types)
	}

	quit, _ := json.Marshal(protocol.QuitMsg{Type: protocol.TypeQuit, ProtocolVersion: protocol.Version})
	if err := conn.WriteMessage(websocket.TextMessage, quit); err != nil {
		t.Fatalf("write quit: %v", err)
	}
	select {
	case req := <-hub.inbox:
		if req.ClientID != "c1" {
			t.Fatalf("client id=%q", req.ClientID)
		}
		if _, ok := req.Msg.(protocol.QuitMsg); !ok {
			t.Fatalf("msg=%#v", req.Msg)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("no request forwarded")
	}
	select {
	case id := <-hub.leave:
		if id != "c1" {
			t.Fatalf("leave id=%q", id)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("no leave after quit")
	}
}
