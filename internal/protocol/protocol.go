package protocol

import "encoding/json"

const Version = "1.0"

// Message types.
const (
	// client -> server
	TypeHello        = "HELLO"
	TypeAddDirty     = "ADD_DIRTY"
	TypeSetHeights   = "SET_HEIGHTS"
	TypeSetModifiers = "SET_MODIFIERS"
	TypeReloadMap    = "RELOAD_MAP"

	// server -> client
	TypeWelcome          = "WELCOME"
	TypeStartup          = "STARTUP"
	TypeClear            = "CLEAR"
	TypeChunk            = "CHUNK"
	TypeProcessedHeights = "PROCESSED_HEIGHTS"
	TypeBatch3D          = "BATCH3D"
	TypeAck              = "ACK"

	// both directions
	TypeQuit = "QUIT"
)

// BaseMessage lets us route unknown JSON messages by type.
type BaseMessage struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version,omitempty"`
	ReqID           string `json:"req_id,omitempty"`
}

func DecodeBase(b []byte) (BaseMessage, error) {
	var m BaseMessage
	err := json.Unmarshal(b, &m)
	return m, err
}
