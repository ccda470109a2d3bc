package main

import (
	"encoding/json"
	"flag"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"scenemesh.ai/internal/protocol"
)

// editor is a headless editor client: it subscribes to a scene server, logs what it
// receives and optionally raises random terrain cells to exercise the rebuild path.
func main() {
	var (
		url     = flag.String("url", "ws://localhost:8080/v1/ws", "ws url")
		name    = flag.String("name", "editor", "client name")
		batches = flag.Bool("batches", false, "request full vertex data")
		poke    = flag.Duration("poke", 0, "send a random SET_HEIGHTS this often (0 disables)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[editor] ", log.LstdFlags|log.Lmicroseconds)
	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		logger.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	hello := protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		ClientName:      *name,
		WantBatches:     *batches,
	}
	if err := conn.WriteJSON(hello); err != nil {
		logger.Fatalf("send HELLO: %v", err)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)

	msgs := make(chan []byte, 64)
	go func() {
		defer close(msgs)
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			msgs <- msg
		}
	}()

	var pokeC <-chan time.Time
	if *poke > 0 {
		t := time.NewTicker(*poke)
		defer t.Stop()
		pokeC = t.C
	}
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	chunkSize := 16
	seq := 0

	for {
		select {
		case <-stop:
			_ = conn.WriteJSON(protocol.QuitMsg{Type: protocol.TypeQuit, ProtocolVersion: protocol.Version})
			return
		case <-pokeC:
			seq++
			x, y := r.Intn(chunkSize*2), r.Intn(chunkSize*2)
			_ = conn.WriteJSON(protocol.SetHeightsMsg{
				Type:            protocol.TypeSetHeights,
				ProtocolVersion: protocol.Version,
				ReqID:           "poke" + strconv.Itoa(seq),
				Cells:           []protocol.HeightCell{{X: x, Y: y, H: float32(r.Intn(8))}},
			})
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			base, err := protocol.DecodeBase(msg)
			if err != nil {
				continue
			}
			switch base.Type {
			case protocol.TypeWelcome:
				var w protocol.WelcomeMsg
				if err := json.Unmarshal(msg, &w); err != nil {
					continue
				}
				chunkSize = w.ChunkSize
				logger.Printf("WELCOME session=%s map=%s chunk_size=%d tick_rate=%d modifiers=%v", w.SessionID, w.MapID, w.ChunkSize, w.TickRateHz, w.Modifiers)
			case protocol.TypeChunk:
				var c protocol.ChunkMsg
				if err := json.Unmarshal(msg, &c); err != nil {
					continue
				}
				logger.Printf("CHUNK origin=%v remaining=%d/%d batches=%d/%d billboards=%d", c.Origin, c.Remaining, c.Total, len(c.Batches2D), len(c.Batches3D), len(c.Billboards))
			case protocol.TypeAck:
				var a protocol.AckMsg
				if err := json.Unmarshal(msg, &a); err != nil {
					continue
				}
				if !a.Accepted {
					logger.Printf("ACK %s rejected: %s %s", a.AckFor, a.Code, a.Message)
				}
			default:
				logger.Printf("%s", base.Type)
			}
		}
	}
}
