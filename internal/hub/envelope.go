package hub

import "github.com/pliu/wisp/internal/keycodec"

// FrameType enumerates every client<->server frame kind.
type FrameType string

const (
	FrameMessage      FrameType = "message"
	FrameTyping       FrameType = "typing"
	FramePresence     FrameType = "presence"
	FrameCallOffer    FrameType = "call_offer"
	FrameCallAnswer   FrameType = "call_answer"
	FrameCallICE      FrameType = "call_ice"
	FrameCallEnd      FrameType = "call_end"
	FrameReadReceipt  FrameType = "read_receipt"
	FrameClearMessage FrameType = "clear_messages"
)

// Envelope is the server->client frame shape. Binary fields serialise as
// base64 strings; Data carries base64-of-JSON-bytes for signaling, typing,
// and presence payloads (§4.4, §9 double-encoding note).
type Envelope struct {
	ID        *int64    `json:"id,omitempty"`
	Type      FrameType `json:"type"`
	From      int64     `json:"from"`
	To        int64     `json:"to,omitempty"`
	Content   string    `json:"content,omitempty"`
	Nonce     string    `json:"nonce,omitempty"`
	Data      string    `json:"data,omitempty"`
	Timestamp int64     `json:"timestamp"`
}

// EncodeData base64-encodes arbitrary JSON bytes into the envelope's Data
// field, matching the wire quirk the original source exposes: clients must
// base64-decode then JSON-parse.
func EncodeData(jsonBytes []byte) string {
	return keycodec.Encode(jsonBytes)
}
