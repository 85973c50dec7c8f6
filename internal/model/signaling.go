package model

import (
	"encoding/json"
	"time"
)

// SignalingMessage is a single WebRTC negotiation message awaiting
// delivery. The payload is opaque: the relay never inspects it beyond an
// optional "type" tag used for logging. Messages live only in the relay's
// mailbox store and are gone after delivery or TTL expiry.
type SignalingMessage struct {
	ID         string          `json:"id"`
	From       string          `json:"from"`
	To         string          `json:"to"`
	Signal     json.RawMessage `json:"signal"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
}

// SignalType extracts the optional type tag from the payload for logging.
func (m *SignalingMessage) SignalType() string {
	var tagged struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(m.Signal, &tagged); err != nil {
		return ""
	}
	return tagged.Type
}

type SendSignalRequest struct {
	From   string          `json:"from"`
	To     string          `json:"to"`
	Signal json.RawMessage `json:"signal"`
}
