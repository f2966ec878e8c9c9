package proto

import "fmt"

// ProtocolVersion identifies the wire protocol carried over /ws.
const ProtocolVersion = 1

// Subprotocol returns the WebSocket subprotocol name advertised for the
// current protocol version. Clients that request it get it echoed back
// in the handshake.
func Subprotocol() string {
	return fmt.Sprintf("schoolchat.v%d", ProtocolVersion)
}

// ChatMessage is the single wire record of the relay protocol, carried
// in both directions over the stream.
type ChatMessage struct {
	Sender   int64  `json:"sender"`
	Receiver int64  `json:"receiver"`
	Text     string `json:"text"`
}
