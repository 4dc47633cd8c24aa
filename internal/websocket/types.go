package websocket

import (
	"time"

	"github.com/coder/websocket"
)

// Message types pushed to or received from browsers.
const (
	TypeState   = "state"
	TypeSource  = "source"
	TypeOptions = "options"
	TypeError   = "error"
)

// Message is the JSON envelope exchanged over a connection.
type Message struct {
	Type      string    `json:"type"`
	Text      string    `json:"text,omitempty"`
	Payload   any       `json:"payload,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Client is one connected browser.
type Client struct {
	conn   *websocket.Conn
	send   chan []byte
	remote string
}
