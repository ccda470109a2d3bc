package ws

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"scenemesh.ai/internal/protocol"
	"scenemesh.ai/internal/sim/host"
)

// Hub is the part of host.Host the websocket server talks to.
type Hub interface {
	Inbox() chan<- host.Request
	Join() chan<- host.JoinRequest
	Leave() chan<- string
}

type Server struct {
	hub Hub
	log *log.Logger

	upgrader websocket.Upgrader
}

func NewServer(h Hub, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	s := &Server{
		hub: h,
		log: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
	return s
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		clientID, out := s.handshake(conn)
		if clientID == "" {
			return
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Writer goroutine.
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case b, ok := <-out:
					if !ok {
						return
					}
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		// Reader loop.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				cancel()
				break
			}
			v, ok := DecodeClient(msg)
			if !ok {
				continue
			}
			s.hub.Inbox() <- host.Request{ClientID: clientID, Msg: v}
			if _, quit := v.(protocol.QuitMsg); quit {
				break
			}
		}

		// Cleanup.
		s.hub.Leave() <- clientID
	}
}

// DecodeClient parses one client message. Unknown types, bad JSON and version
// mismatches are rejected.
func DecodeClient(b []byte) (any, bool) {
	base, err := protocol.DecodeBase(b)
	if err != nil || base.ProtocolVersion != protocol.Version {
		return nil, false
	}
	switch base.Type {
	case protocol.TypeAddDirty:
		return decodeAs[protocol.AddDirtyMsg](b)
	case protocol.TypeSetHeights:
		return decodeAs[protocol.SetHeightsMsg](b)
	case protocol.TypeSetModifiers:
		return decodeAs[protocol.SetModifiersMsg](b)
	case protocol.TypeReloadMap:
		return decodeAs[protocol.ReloadMapMsg](b)
	case protocol.TypeQuit:
		return decodeAs[protocol.QuitMsg](b)
	}
	return nil, false
}

func decodeAs[T any](b []byte) (any, bool) {
	var m T
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, false
	}
	return m, true
}

func (s *Server) handshake(conn *websocket.Conn) (clientID string, out chan []byte) {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return "", nil
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected HELLO"), time.Now().Add(time.Second))
		return "", nil
	}

	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		return "", nil
	}
	if hello.ProtocolVersion != protocol.Version {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "bad protocol_version"), time.Now().Add(time.Second))
		return "", nil
	}

	out = make(chan []byte, 256)
	respCh := make(chan protocol.WelcomeMsg, 1)
	s.hub.Join() <- host.JoinRequest{
		Name:        hello.ClientName,
		WantBatches: hello.WantBatches,
		Out:         out,
		Resp:        respCh,
	}
	welcome := <-respCh

	if err := writeJSON(conn, welcome); err != nil {
		s.hub.Leave() <- welcome.SessionID
		return "", nil
	}
	s.log.Printf("ws hello: client=%s name=%q", welcome.SessionID, hello.ClientName)
	return welcome.SessionID, out
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}
