package transport

import (
	"errors"

	"sappers/internal/event"
	"sappers/internal/telemetry"
	"sappers/logging"
)

// ErrClosed is returned when sending on a transport that has shut down.
var ErrClosed = errors.New("transport closed")

// DefaultBuffer bounds the inbound and per-peer outbound channels.
const DefaultBuffer = 128

type MessageKind uint8

const (
	// MessageEvent carries a decoded inbound event.
	MessageEvent MessageKind = iota
	// MessageConnection announces a newly accepted peer. Only servers emit it.
	MessageConnection
	// MessageDisconnect reports that a peer's stream ended.
	MessageDisconnect
	// MessageError reports a failure that ends the session.
	MessageError
)

func (k MessageKind) String() string {
	switch k {
	case MessageEvent:
		return "event"
	case MessageConnection:
		return "connection"
	case MessageDisconnect:
		return "disconnect"
	case MessageError:
		return "error"
	default:
		return "unknown"
	}
}

// Message is what the background goroutines hand to the game loop.
type Message struct {
	Kind  MessageKind
	Event event.Event
	Conn  *Conn
	Peer  event.Peer
	Err   error
}

// Options tunes a transport.
type Options struct {
	// Buffer is the capacity of the inbound and outbound channels.
	Buffer    int
	Publisher logging.Publisher
	Metrics   telemetry.Metrics
}

func (o Options) withDefaults() Options {
	if o.Buffer <= 0 {
		o.Buffer = DefaultBuffer
	}
	if o.Publisher == nil {
		o.Publisher = logging.NopPublisher()
	}
	if o.Metrics == nil {
		o.Metrics = telemetry.NopMetrics()
	}
	return o
}
