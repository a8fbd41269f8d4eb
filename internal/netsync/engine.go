package netsync

import (
	"context"
	"errors"
	"fmt"

	"sappers/internal/event"
	"sappers/internal/game"
	"sappers/internal/net/transport"
	"sappers/internal/sapper"
	"sappers/internal/telemetry"
	"sappers/logging"
	lognet "sappers/logging/network"
	"sappers/logging/simulation"
)

// ErrProtocolViolation reports a message the role must never receive. It
// means the two ends disagree about the protocol and the session cannot go
// on.
var ErrProtocolViolation = errors.New("protocol violation")

type Role uint8

const (
	// RoleServer owns the canonical game and rebroadcasts what it applies.
	RoleServer Role = iota
	// RoleClient mirrors a server and forwards local intents to it.
	RoleClient
)

func (r Role) String() string {
	if r == RoleServer {
		return "server"
	}
	return "client"
}

// Link is the transport as seen from the game loop.
type Link interface {
	Inbound() <-chan transport.Message
	Send(event.Event) error
	Close() error
}

// PeerLink is a Link that serves several peers.
type PeerLink interface {
	Link
	Attach(*transport.Conn)
	Detach(event.Peer)
}

// Options tunes an engine.
type Options struct {
	// SuspendLimit bounds how many ticks an unprocessable event is retried.
	// Zero retries forever.
	SuspendLimit int
	Publisher    logging.Publisher
	Metrics      telemetry.Metrics
}

// Stats counts engine activity since construction.
type Stats struct {
	Tick      uint64
	Processed uint64
	Suspended uint64
	Dropped   uint64
	Rejected  uint64
	Sent      uint64
	// Pending is the number of events waiting for the next tick.
	Pending int
}

// Engine runs one role of the protocol over a game. It is driven by a single
// goroutine calling Tick.
type Engine struct {
	role     Role
	game     *game.Game
	link     Link
	handlers handlers
	opts     Options
	ctx      context.Context

	// peer -> agent id, server only
	owners map[event.Peer]uint8

	stats   Stats
	err     error
	over    bool
	cleaned bool
}

// NewServer creates the authoritative role. link may be nil for a game with
// no remote peers.
func NewServer(g *game.Game, link Link, opts Options) *Engine {
	e := newEngine(RoleServer, g, link, opts)
	e.owners = make(map[event.Peer]uint8)
	e.handlers = &serverHandlers{baseHandlers: baseHandlers{game: g}, engine: e}
	return e
}

// NewClient creates a mirror of the server reached through link.
func NewClient(g *game.Game, link Link, opts Options) *Engine {
	e := newEngine(RoleClient, g, link, opts)
	e.handlers = &clientHandlers{baseHandlers: baseHandlers{game: g}}
	return e
}

func newEngine(role Role, g *game.Game, link Link, opts Options) *Engine {
	if opts.Publisher == nil {
		opts.Publisher = logging.NopPublisher()
	}
	if opts.Metrics == nil {
		opts.Metrics = telemetry.NopMetrics()
	}
	return &Engine{
		role: role,
		game: g,
		link: link,
		opts: opts,
		ctx:  context.Background(),
	}
}

func (e *Engine) Role() Role {
	return e.role
}

func (e *Engine) Game() *game.Game {
	return e.game
}

func (e *Engine) Stats() Stats {
	stats := e.stats
	stats.Pending = e.game.Events().Len()
	return stats
}

// Err returns the error that stopped the engine, if any.
func (e *Engine) Err() error {
	return e.err
}

// Close shuts the link down.
func (e *Engine) Close() error {
	if e.link == nil {
		return nil
	}
	return e.link.Close()
}

// Tick drains the transport, advances the game with the given input,
// dispatches every queued event and suspends those that cannot be applied
// yet. The server forwards what it applied, except connects, which are
// bookkeeping between a peer and the server. Once Tick returns an error the
// engine is dead and keeps returning it.
func (e *Engine) Tick(action sapper.Action) error {
	if e.err != nil {
		return e.err
	}
	e.stats.Tick++
	e.opts.Metrics.Add(telemetry.MetricTicks, 1)

	if err := e.drain(); err != nil {
		return e.fail(err)
	}

	local := e.game.Update(action)
	if e.role == RoleClient {
		for _, ev := range local {
			if err := e.send(ev); err != nil {
				return e.fail(err)
			}
		}
	}

	bus := e.game.Events()
	var suspended []event.Event
	for {
		ev, ok := bus.Pop()
		if !ok {
			break
		}
		if !e.admit(ev) {
			continue
		}
		processed, err := e.dispatch(ev)
		if err != nil {
			return e.fail(err)
		}
		if !processed {
			suspended = append(suspended, ev)
			continue
		}
		e.stats.Processed++
		e.opts.Metrics.Add(telemetry.MetricEventsProcessed, 1)
		if e.role == RoleServer && ev.Data.Kind != event.KindConnect {
			if err := e.send(ev); err != nil {
				return e.fail(err)
			}
		}
	}
	e.suspend(suspended)
	e.observe()
	return nil
}

func (e *Engine) fail(err error) error {
	e.err = err
	return err
}

func (e *Engine) send(ev event.Event) error {
	if e.link == nil {
		return nil
	}
	if err := e.link.Send(ev); err != nil {
		return fmt.Errorf("send %s: %w", ev.Data, err)
	}
	e.stats.Sent++
	e.opts.Metrics.Add(telemetry.MetricEventsSent, 1)
	return nil
}

// drain moves everything the transport has queued onto the bus without
// blocking.
func (e *Engine) drain() error {
	if e.link == nil {
		return nil
	}
	inbound := e.link.Inbound()
	bus := e.game.Events()
	for {
		select {
		case m := <-inbound:
			if err := e.receive(bus, m); err != nil {
				return err
			}
		default:
			return nil
		}
	}
}

func (e *Engine) receive(bus *event.Bus, m transport.Message) error {
	tick := e.stats.Tick
	switch m.Kind {
	case transport.MessageEvent:
		bus.FireAll([]event.Event{m.Event})
	case transport.MessageConnection:
		peers, ok := e.link.(PeerLink)
		if e.role != RoleServer || !ok {
			err := fmt.Errorf("%w: %s role received a connection from %s", ErrProtocolViolation, e.role, m.Peer)
			lognet.ProtocolViolation(e.ctx, e.opts.Publisher, tick, logging.PeerRef(string(m.Peer)), lognet.ErrorPayload{Error: err.Error()})
			return err
		}
		peers.Attach(m.Conn)
		lognet.PeerConnected(e.ctx, e.opts.Publisher, tick, lognet.PeerPayload{Address: string(m.Peer)})
	case transport.MessageDisconnect:
		reason := ""
		if m.Err != nil {
			reason = m.Err.Error()
		}
		lognet.PeerDisconnected(e.ctx, e.opts.Publisher, tick, lognet.PeerPayload{Address: string(m.Peer), Reason: reason})
		if e.role != RoleServer {
			return fmt.Errorf("disconnected from server: %s", reason)
		}
		delete(e.owners, m.Peer)
		if peers, ok := e.link.(PeerLink); ok {
			peers.Detach(m.Peer)
		}
	case transport.MessageError:
		err := m.Err
		if err == nil {
			err = errors.New("unknown transport failure")
		}
		lognet.TransportFailed(e.ctx, e.opts.Publisher, tick, logging.EntityRef{ID: e.role.String(), Kind: logging.EntityKindPeer}, lognet.ErrorPayload{Error: err.Error()})
		return fmt.Errorf("transport: %w", err)
	}
	return nil
}

func (e *Engine) dispatch(ev event.Event) (bool, error) {
	h := e.handlers
	d := ev.Data
	switch d.Kind {
	case event.KindConnect:
		return h.onConnect(ev.Source), nil
	case event.KindConnectAck:
		return h.onConnectAck(d.ID), nil
	case event.KindSpawn:
		return h.onSpawn(d.ID, d.Position), nil
	case event.KindMove:
		return h.onMove(d.ID, d.Position), nil
	case event.KindDiscover:
		return h.onDiscover(d.ID, d.Position), nil
	case event.KindScore:
		return h.onScore(d.ID, d.Score), nil
	case event.KindDie:
		return h.onDie(d.ID), nil
	case event.KindFieldCreate:
		return h.onFieldCreate(d.Size), nil
	case event.KindCellDiscover:
		return h.onCellDiscover(d.Position, d.MinesAround), nil
	case event.KindCellExplode:
		return h.onCellExplode(d.Position), nil
	default:
		return false, fmt.Errorf("%w: unknown event kind %s", ErrProtocolViolation, d.Kind)
	}
}

// admit decides whether the server accepts an event. Peers may only connect
// and send intents for the agent they were given. Refused events are dropped
// without being applied or rebroadcast.
func (e *Engine) admit(ev event.Event) bool {
	if e.role != RoleServer || ev.Source == "" {
		return true
	}
	reason := e.refusal(ev)
	if reason == "" {
		return true
	}
	e.reject(ev.Source, ev.Data, reason)
	return false
}

func (e *Engine) refusal(ev event.Event) string {
	switch ev.Data.Kind {
	case event.KindConnect:
		if _, known := e.owners[ev.Source]; known {
			return "peer already connected"
		}
		if _, free := e.game.NextID(); !free {
			return "no free agent id"
		}
		return ""
	case event.KindMove, event.KindDiscover:
		id, known := e.owners[ev.Source]
		if !known || id != ev.Data.ID {
			return "peer does not control this agent"
		}
		if int(ev.Data.Position) >= e.game.Field().SizeFull() {
			return "position outside the field"
		}
		return ""
	default:
		return "peers may only send intents"
	}
}

func (e *Engine) reject(peer event.Peer, data event.Data, reason string) {
	e.stats.Rejected++
	lognet.Rejected(e.ctx, e.opts.Publisher, e.stats.Tick, string(peer), lognet.RejectedPayload{
		Event:  data.String(),
		Reason: reason,
	})
}

func (e *Engine) suspend(events []event.Event) {
	if len(events) == 0 {
		return
	}
	kept := events[:0]
	for _, ev := range events {
		ev.Attempts++
		payload := simulation.SuspendPayload{
			Event:    ev.Data.String(),
			Source:   string(ev.Source),
			Attempts: ev.Attempts,
		}
		if e.opts.SuspendLimit > 0 && ev.Attempts > e.opts.SuspendLimit {
			e.stats.Dropped++
			e.opts.Metrics.Add(telemetry.MetricSuspendedDropped, 1)
			simulation.SuspendedDropped(e.ctx, e.opts.Publisher, e.stats.Tick, payload)
			continue
		}
		e.stats.Suspended++
		e.opts.Metrics.Add(telemetry.MetricEventsSuspended, 1)
		simulation.Suspended(e.ctx, e.opts.Publisher, e.stats.Tick, payload)
		kept = append(kept, ev)
	}
	e.game.Events().FireAll(kept)
}

// observe logs the end of a match once.
func (e *Engine) observe() {
	f := e.game.Field()
	summary := simulation.FieldPayload{
		Size:       f.Size(),
		Discovered: f.DiscoveredCount(),
		Exploded:   f.ExplodedCount(),
	}
	if !e.over && e.game.IsOver() {
		e.over = true
		simulation.MinesRevealed(e.ctx, e.opts.Publisher, e.stats.Tick, summary)
	}
	if !e.cleaned && f.SizeFull() > 0 && f.DiscoveredCount() > 0 && f.IsCleaned() {
		e.cleaned = true
		simulation.FieldCleaned(e.ctx, e.opts.Publisher, e.stats.Tick, summary)
	}
}
