package sapper

import (
	"time"

	"sappers/internal/event"
	"sappers/internal/field"
)

// Behavior selects who drives an agent.
type Behavior uint8

const (
	// Player agents follow local input.
	Player Behavior = iota
	// Bot agents run the constraint solver on a reaction timer.
	Bot
	// Remote agents only change through inbound protocol events.
	Remote
)

func (b Behavior) String() string {
	switch b {
	case Player:
		return "player"
	case Bot:
		return "bot"
	case Remote:
		return "remote"
	default:
		return "unknown"
	}
}

// Name is the short label shown on the score board.
func (b Behavior) Name() string {
	switch b {
	case Player:
		return "YOU"
	case Bot:
		return "BOT"
	default:
		return "NET"
	}
}

// Action is one discrete input from the presentation layer.
type Action uint8

const (
	ActionNone Action = iota
	ActionUp
	ActionDown
	ActionLeft
	ActionRight
	ActionToggleMark
	ActionDiscover
)

// Sapper is one agent on the field. It never mutates the field: moves and
// discoveries are emitted as events for the authoritative role to apply.
type Sapper struct {
	id       uint8
	Position uint16
	Alive    bool
	Behavior Behavior
	Score    uint16

	marks  map[uint16]struct{}
	timer  Timer
	events event.Bus
}

// New creates a living agent. reaction only matters for bots.
func New(id uint8, behavior Behavior, position uint16, reaction time.Duration) *Sapper {
	return &Sapper{
		id:       id,
		Position: position,
		Alive:    true,
		Behavior: behavior,
		marks:    make(map[uint16]struct{}),
		timer:    NewTimer(reaction),
	}
}

func (s *Sapper) ID() uint8 {
	return s.id
}

func (s *Sapper) Name() string {
	return s.Behavior.Name()
}

func (s *Sapper) IsPlayer() bool {
	return s.Behavior == Player
}

// Events exposes the queue of intents produced by the last updates.
func (s *Sapper) Events() *event.Bus {
	return &s.events
}

// Update advances the agent by one tick.
func (s *Sapper) Update(f *field.Field, action Action, now time.Time) {
	s.purgeMarks(f)
	if !s.Alive {
		return
	}
	switch s.Behavior {
	case Player:
		s.updatePlayer(f, action)
	case Bot:
		s.updateBot(f, now)
	case Remote:
	}
}

func (s *Sapper) updatePlayer(f *field.Field, action Action) {
	switch action {
	case ActionUp:
		s.shift(f, 0, -1)
	case ActionDown:
		s.shift(f, 0, 1)
	case ActionLeft:
		s.shift(f, -1, 0)
	case ActionRight:
		s.shift(f, 1, 0)
	case ActionToggleMark:
		s.ToggleMark(f)
	case ActionDiscover:
		s.Discover(f)
	}
}

func (s *Sapper) updateBot(f *field.Field, now time.Time) {
	if !s.timer.NextIfDone(now) {
		return
	}
	if task, ok := s.FindTask(f); ok {
		s.perform(f, task)
	}
}

func (s *Sapper) shift(f *field.Field, dx, dy int) {
	position, ok := f.Move(s.Position, dx, dy)
	if !ok {
		return
	}
	s.Position = position
	s.events.Fire(event.Move(s.id, position), "", "")
}

// ToggleMark flips the mark under the agent. Only markable cells take a mark.
func (s *Sapper) ToggleMark(f *field.Field) {
	if _, ok := s.marks[s.Position]; ok {
		delete(s.marks, s.Position)
		return
	}
	if cell, ok := f.Cell(s.Position); ok && cell.IsMarkable() {
		s.marks[s.Position] = struct{}{}
	}
}

// Discover requests discovery of the cell under the agent unless it is
// already resolved or marked.
func (s *Sapper) Discover(f *field.Field) {
	cell, ok := f.Cell(s.Position)
	if !ok || !cell.IsMarkable() || s.HasMarked(s.Position) {
		return
	}
	s.events.Fire(event.Discover(s.id, s.Position), "", "")
}

func (s *Sapper) purgeMarks(f *field.Field) {
	for p := range s.marks {
		if cell, ok := f.Cell(p); !ok || !cell.IsMarkable() {
			delete(s.marks, p)
		}
	}
}

func (s *Sapper) HasMarked(position uint16) bool {
	_, ok := s.marks[position]
	return ok
}

func (s *Sapper) MarksCount() int {
	return len(s.marks)
}
