package simulation

import (
	"context"

	"sappers/logging"
)

const (
	// EventSapperJoined is emitted when the authoritative role admits a new agent.
	EventSapperJoined logging.EventType = "simulation.sapper_joined"
	// EventSapperDied is emitted when an agent discovers a mine.
	EventSapperDied logging.EventType = "simulation.sapper_died"
	// EventSuspended is emitted when an event cannot be applied yet and is retried next tick.
	EventSuspended logging.EventType = "simulation.event_suspended"
	// EventSuspendedDropped is emitted when a suspended event exceeds its retry limit.
	EventSuspendedDropped logging.EventType = "simulation.suspended_dropped"
	// EventMinesRevealed is emitted when every agent is dead and the remaining mines explode.
	EventMinesRevealed logging.EventType = "simulation.mines_revealed"
	// EventFieldCleaned is emitted when every safe cell has been discovered.
	EventFieldCleaned logging.EventType = "simulation.field_cleaned"
)

// SapperPayload describes an agent.
type SapperPayload struct {
	Behavior string `json:"behavior"`
	Position uint16 `json:"position"`
	Score    uint16 `json:"score"`
	Peer     string `json:"peer,omitempty"`
}

// SuspendPayload describes a pending event.
type SuspendPayload struct {
	Event    string `json:"event"`
	Source   string `json:"source,omitempty"`
	Attempts int    `json:"attempts"`
}

// FieldPayload summarizes the field at the end of a match.
type FieldPayload struct {
	Size       uint8 `json:"size"`
	Discovered int   `json:"discovered"`
	Exploded   int   `json:"exploded"`
}

func SapperJoined(ctx context.Context, pub logging.Publisher, tick uint64, id uint8, payload SapperPayload) {
	publish(ctx, pub, logging.Event{
		Type:     EventSapperJoined,
		Tick:     tick,
		Actor:    logging.SapperRef(id),
		Severity: logging.SeverityInfo,
		Payload:  payload,
	})
}

func SapperDied(ctx context.Context, pub logging.Publisher, tick uint64, id uint8, payload SapperPayload) {
	publish(ctx, pub, logging.Event{
		Type:     EventSapperDied,
		Tick:     tick,
		Actor:    logging.SapperRef(id),
		Targets:  []logging.EntityRef{logging.CellRef(payload.Position)},
		Severity: logging.SeverityInfo,
		Payload:  payload,
	})
}

// Suspended publishes a debug event for an event that will be retried.
func Suspended(ctx context.Context, pub logging.Publisher, tick uint64, payload SuspendPayload) {
	publish(ctx, pub, logging.Event{
		Type:     EventSuspended,
		Tick:     tick,
		Severity: logging.SeverityDebug,
		Payload:  payload,
	})
}

// SuspendedDropped publishes a warning for an event that was given up on.
func SuspendedDropped(ctx context.Context, pub logging.Publisher, tick uint64, payload SuspendPayload) {
	publish(ctx, pub, logging.Event{
		Type:     EventSuspendedDropped,
		Tick:     tick,
		Severity: logging.SeverityWarn,
		Payload:  payload,
	})
}

func MinesRevealed(ctx context.Context, pub logging.Publisher, tick uint64, payload FieldPayload) {
	publish(ctx, pub, logging.Event{
		Type:     EventMinesRevealed,
		Tick:     tick,
		Actor:    logging.FieldRef(),
		Severity: logging.SeverityInfo,
		Payload:  payload,
	})
}

func FieldCleaned(ctx context.Context, pub logging.Publisher, tick uint64, payload FieldPayload) {
	publish(ctx, pub, logging.Event{
		Type:     EventFieldCleaned,
		Tick:     tick,
		Actor:    logging.FieldRef(),
		Severity: logging.SeverityInfo,
		Payload:  payload,
	})
}

func publish(ctx context.Context, pub logging.Publisher, event logging.Event) {
	if pub == nil {
		return
	}
	event.Category = logging.CategoryGameplay
	pub.Publish(ctx, event)
}
