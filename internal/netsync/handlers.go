package netsync

import (
	"sappers/internal/event"
	"sappers/internal/field"
	"sappers/internal/game"
	"sappers/internal/sapper"
	"sappers/logging/simulation"
)

// handlers applies one event kind to the local game and reports whether it
// was processed. Unprocessed events are retried next tick.
type handlers interface {
	onConnect(source event.Peer) bool
	onConnectAck(id uint8) bool
	onSpawn(id uint8, position uint16) bool
	onMove(id uint8, position uint16) bool
	onDiscover(id uint8, position uint16) bool
	onScore(id uint8, score uint16) bool
	onDie(id uint8) bool
	onFieldCreate(size uint8) bool
	onCellDiscover(position uint16, minesAround uint8) bool
	onCellExplode(position uint16) bool
}

// baseHandlers is the behavior shared by both roles. Kinds that only matter
// to one role are accepted and ignored here.
type baseHandlers struct {
	game *game.Game
}

func (h *baseHandlers) onConnect(event.Peer) bool { return true }

func (h *baseHandlers) onConnectAck(uint8) bool { return true }

func (h *baseHandlers) onSpawn(uint8, uint16) bool { return true }

func (h *baseHandlers) onDiscover(uint8, uint16) bool { return true }

func (h *baseHandlers) onFieldCreate(uint8) bool { return true }

func (h *baseHandlers) onMove(id uint8, position uint16) bool {
	s, ok := h.game.Sapper(id)
	if !ok {
		return false
	}
	s.Position = position
	return true
}

func (h *baseHandlers) onScore(id uint8, score uint16) bool {
	s, ok := h.game.Sapper(id)
	if !ok {
		return false
	}
	s.Score = score
	return true
}

func (h *baseHandlers) onDie(id uint8) bool {
	s, ok := h.game.Sapper(id)
	if !ok {
		return false
	}
	s.Alive = false
	return true
}

func (h *baseHandlers) onCellDiscover(position uint16, minesAround uint8) bool {
	return h.game.Field().ApplyDiscovered(position, minesAround)
}

func (h *baseHandlers) onCellExplode(position uint16) bool {
	return h.game.Field().ApplyExploded(position)
}

// serverHandlers owns the field: it admits peers and performs discoveries.
type serverHandlers struct {
	baseHandlers
	engine *Engine
}

// onConnect gives the peer a new remote agent, acknowledges it and replays
// the whole session to it. Only the newcomer's own spawn is broadcast so the
// other peers learn about it.
func (h *serverHandlers) onConnect(peer event.Peer) bool {
	if peer == "" {
		return true
	}
	e := h.engine
	g := h.game
	s, ok := g.SpawnSapper(sapper.Remote)
	if !ok {
		return true
	}
	id := s.ID()
	e.owners[peer] = id

	bus := g.Events()
	bus.Fire(event.ConnectAck(id), "", peer)
	for _, other := range g.Sappers() {
		target := peer
		if other.ID() == id {
			target = ""
		}
		if !other.Alive {
			bus.Fire(event.Die(other.ID()), "", target)
		}
		if other.Score != 0 {
			bus.Fire(event.Score(other.ID(), other.Score), "", target)
		}
		bus.Fire(event.Spawn(other.ID(), other.Position), "", target)
	}
	for i, cell := range g.Field().Cells() {
		position := uint16(i)
		if n, ok := cell.MinesAround(); ok {
			bus.Fire(event.CellDiscover(position, n), "", peer)
		}
		if cell.IsExploded() {
			bus.Fire(event.CellExplode(position), "", peer)
		}
	}
	bus.Fire(event.FieldCreate(g.Field().Size()), "", peer)

	simulation.SapperJoined(e.ctx, e.opts.Publisher, e.stats.Tick, id, simulation.SapperPayload{
		Behavior: s.Behavior.String(),
		Position: s.Position,
		Peer:     string(peer),
	})
	return true
}

// onDiscover performs the discovery on the canonical field and scores it.
func (h *serverHandlers) onDiscover(id uint8, position uint16) bool {
	s, ok := h.game.Sapper(id)
	if !ok {
		return false
	}
	if !s.Alive {
		return true
	}
	bus := h.game.Events()
	switch h.game.Field().Discover(position, bus) {
	case field.Success:
		bus.Fire(event.Score(id, s.Score+1), "", "")
	case field.Failure:
		bus.Fire(event.Die(id), "", "")
		e := h.engine
		simulation.SapperDied(e.ctx, e.opts.Publisher, e.stats.Tick, id, simulation.SapperPayload{
			Behavior: s.Behavior.String(),
			Position: position,
			Score:    s.Score,
		})
	}
	return true
}

// clientHandlers mirrors the server's field and agents.
type clientHandlers struct {
	baseHandlers
}

func (h *clientHandlers) onConnectAck(id uint8) bool {
	s, ok := h.game.Sapper(id)
	if !ok {
		return false
	}
	s.Behavior = sapper.Player
	return true
}

func (h *clientHandlers) onSpawn(id uint8, position uint16) bool {
	if s, ok := h.game.Sapper(id); ok {
		s.Position = position
		return true
	}
	h.game.AddSapper(id, sapper.Remote, position)
	return true
}

func (h *clientHandlers) onFieldCreate(size uint8) bool {
	h.game.ResetField(size)
	return true
}
