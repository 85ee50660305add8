// Package pubsub implements component C8: channel-routed publish/subscribe
// over Redis, grounded on the original service's
// app/adapters/redis_adapter.py (channel fan-out, envelope normalization,
// heartbeat responder) and adapted to gomodule/redigo's redis.PubSubConn,
// the same client the cache layer (C6) uses against the same Redis
// deployment.
package pubsub

import (
	"encoding/json"
	"time"
)

// Channels is the fixed named-channel set spec.md §4.8 enumerates; no
// other channel name is ever subscribed to or published on.
var Channels = []string{"spellcheck", "grammar", "lix", "nlp", "control", "heartbeat"}

// Envelope is the normalized shape of an inbound pub/sub message. The wire
// format accepts text in either of two places — top-level `text` or
// nested `content.text` — which normalize() collapses into Text.
type Envelope struct {
	ClientID   string         `json:"clientId"`
	RequestID  string         `json:"requestId"`
	Text       string         `json:"-"`
	Options    map[string]any `json:"options,omitempty"`
	IsCritical bool           `json:"is_critical,omitempty"`
	Priority   int            `json:"priority,omitempty"`
	Timestamp  time.Time      `json:"timestamp,omitempty"`
	Action     string         `json:"action,omitempty"`
}

type wireEnvelope struct {
	ClientID   string         `json:"clientId"`
	RequestID  string         `json:"requestId"`
	Text       string         `json:"text,omitempty"`
	Content    *wireContent   `json:"content,omitempty"`
	Options    map[string]any `json:"options,omitempty"`
	IsCritical bool           `json:"is_critical,omitempty"`
	Priority   int            `json:"priority,omitempty"`
	Timestamp  time.Time      `json:"timestamp,omitempty"`
	Action     string         `json:"action,omitempty"`
}

type wireContent struct {
	Text    string         `json:"text"`
	Options map[string]any `json:"options,omitempty"`
}

// ParseEnvelope decodes and normalizes a raw pub/sub payload.
func ParseEnvelope(raw []byte) (Envelope, error) {
	var w wireEnvelope
	if err := json.Unmarshal(raw, &w); err != nil {
		return Envelope{}, err
	}

	e := Envelope{
		ClientID:   w.ClientID,
		RequestID:  w.RequestID,
		Options:    w.Options,
		IsCritical: w.IsCritical,
		Priority:   w.Priority,
		Timestamp:  w.Timestamp,
		Action:     w.Action,
	}

	switch {
	case w.Text != "":
		e.Text = w.Text
	case w.Content != nil:
		e.Text = w.Content.Text
		if e.Options == nil {
			e.Options = w.Content.Options
		}
	}

	return e, nil
}

// Reply is the outbound shape for a processed message: it echoes the
// correlation pair and attaches either a result or an error.
type Reply struct {
	ClientID  string    `json:"clientId"`
	RequestID string    `json:"requestId"`
	Content   any       `json:"content,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// MarshalReply encodes a Reply for publishing.
func MarshalReply(r Reply) ([]byte, error) {
	return json.Marshal(r)
}

// StatusMessage is published to `control` at startup/shutdown.
type StatusMessage struct {
	Action       string    `json:"action"`
	Service      string    `json:"service"`
	Status       string    `json:"status"`
	Capabilities []string  `json:"capabilities,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// HeartbeatPong is the reply to an incoming heartbeat ping.
type HeartbeatPong struct {
	Action    string         `json:"action"`
	Service   string         `json:"service"`
	Status    string         `json:"status"`
	Metrics   map[string]any `json:"metrics,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}
