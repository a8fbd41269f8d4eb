package network

import (
	"context"

	"sappers/logging"
)

const (
	// EventPeerConnected is emitted when a transport accepts or dials a peer.
	EventPeerConnected logging.EventType = "network.peer_connected"
	// EventPeerDisconnected is emitted when a peer's stream ends.
	EventPeerDisconnected logging.EventType = "network.peer_disconnected"
	// EventTransportFailed is emitted when the transport can no longer serve the session.
	EventTransportFailed logging.EventType = "network.transport_failed"
	// EventFrameRejected is emitted when an inbound frame does not decode.
	EventFrameRejected logging.EventType = "network.frame_rejected"
	// EventProtocolViolation is emitted when a role receives a message it must never see.
	EventProtocolViolation logging.EventType = "network.protocol_violation"
	// EventRejected is emitted when the server refuses an event sent by a peer.
	EventRejected logging.EventType = "network.event_rejected"
)

// PeerPayload describes the remote end of a connection.
type PeerPayload struct {
	Address string `json:"address"`
	Reason  string `json:"reason,omitempty"`
}

// ErrorPayload carries a failure description.
type ErrorPayload struct {
	Error string `json:"error"`
}

// FramePayload captures an undecodable frame.
type FramePayload struct {
	Error string `json:"error"`
	Bytes []byte `json:"bytes"`
}

func PeerConnected(ctx context.Context, pub logging.Publisher, tick uint64, payload PeerPayload) {
	publish(ctx, pub, logging.Event{
		Type:     EventPeerConnected,
		Tick:     tick,
		Actor:    logging.PeerRef(payload.Address),
		Severity: logging.SeverityInfo,
		Payload:  payload,
	})
}

func PeerDisconnected(ctx context.Context, pub logging.Publisher, tick uint64, payload PeerPayload) {
	publish(ctx, pub, logging.Event{
		Type:     EventPeerDisconnected,
		Tick:     tick,
		Actor:    logging.PeerRef(payload.Address),
		Severity: logging.SeverityInfo,
		Payload:  payload,
	})
}

// TransportFailed publishes an error when the session's transport dies.
func TransportFailed(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload ErrorPayload) {
	publish(ctx, pub, logging.Event{
		Type:     EventTransportFailed,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityError,
		Payload:  payload,
	})
}

// FrameRejected publishes a warning for a frame that failed to decode.
func FrameRejected(ctx context.Context, pub logging.Publisher, actor logging.EntityRef, payload FramePayload) {
	publish(ctx, pub, logging.Event{
		Type:     EventFrameRejected,
		Actor:    actor,
		Severity: logging.SeverityWarn,
		Payload:  payload,
	})
}

func ProtocolViolation(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload ErrorPayload) {
	publish(ctx, pub, logging.Event{
		Type:     EventProtocolViolation,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityError,
		Payload:  payload,
	})
}

// RejectedPayload describes a refused peer event.
type RejectedPayload struct {
	Event  string `json:"event"`
	Reason string `json:"reason"`
}

func Rejected(ctx context.Context, pub logging.Publisher, tick uint64, peer string, payload RejectedPayload) {
	publish(ctx, pub, logging.Event{
		Type:     EventRejected,
		Tick:     tick,
		Actor:    logging.PeerRef(peer),
		Severity: logging.SeverityWarn,
		Payload:  payload,
	})
}

func publish(ctx context.Context, pub logging.Publisher, event logging.Event) {
	if pub == nil {
		return
	}
	event.Category = logging.CategoryNetwork
	pub.Publish(ctx, event)
}
