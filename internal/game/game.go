package game

import (
	"time"

	"sappers/internal/event"
	"sappers/internal/field"
	"sappers/internal/sapper"
)

// Config holds the match settings for a new session.
type Config struct {
	FieldSize   uint8
	MineDensity float64
	BotReaction time.Duration
	Seed        string
}

// DefaultConfig returns the standard match settings.
func DefaultConfig() Config {
	return Config{
		FieldSize:   8,
		MineDensity: 0.2,
		BotReaction: time.Second,
	}
}

// Option customizes a Game at construction.
type Option func(*Game)

// WithClock overrides the time source used for bot reaction timers.
func WithClock(now func() time.Time) Option {
	return func(g *Game) {
		if now != nil {
			g.now = now
		}
	}
}

// WithField replaces the generated field.
func WithField(f *field.Field) Option {
	return func(g *Game) {
		if f != nil {
			g.field = f
		}
	}
}

// Game composes one field with the agents playing on it.
type Game struct {
	config  Config
	field   *field.Field
	sappers []*sapper.Sapper
	events  event.Bus
	now     func() time.Time
}

// New creates a session with an undiscovered field and no agents.
func New(cfg Config, opts ...Option) *Game {
	g := &Game{
		config: cfg,
		now:    time.Now,
	}
	g.field = field.New(cfg.FieldSize, cfg.MineDensity, field.WithRand(field.NewRand(cfg.Seed, "field")))
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	return g
}

func (g *Game) Config() Config {
	return g.config
}

func (g *Game) Field() *field.Field {
	return g.field
}

// Sappers returns the agents in join order. Callers must not modify the slice.
func (g *Game) Sappers() []*sapper.Sapper {
	return g.sappers
}

// Events is the session queue shared with the sync engine.
func (g *Game) Events() *event.Bus {
	return &g.events
}

// Sapper looks an agent up by id.
func (g *Game) Sapper(id uint8) (*sapper.Sapper, bool) {
	for _, s := range g.sappers {
		if s.ID() == id {
			return s, true
		}
	}
	return nil, false
}

// Player returns the locally controlled agent, if any.
func (g *Game) Player() (*sapper.Sapper, bool) {
	for _, s := range g.sappers {
		if s.IsPlayer() {
			return s, true
		}
	}
	return nil, false
}

// NextID returns the lowest id not yet used in the session.
func (g *Game) NextID() (uint8, bool) {
	used := make(map[uint8]struct{}, len(g.sappers))
	for _, s := range g.sappers {
		used[s.ID()] = struct{}{}
	}
	for id := 0; id <= 255; id++ {
		if _, ok := used[uint8(id)]; !ok {
			return uint8(id), true
		}
	}
	return 0, false
}

// AddSapper places an agent with a known id. It fails when the id is taken.
func (g *Game) AddSapper(id uint8, behavior sapper.Behavior, position uint16) (*sapper.Sapper, bool) {
	if _, exists := g.Sapper(id); exists {
		return nil, false
	}
	s := sapper.New(id, behavior, position, g.config.BotReaction)
	g.sappers = append(g.sappers, s)
	return s, true
}

// SpawnSapper adds an agent with the next free id at a random position.
func (g *Game) SpawnSapper(behavior sapper.Behavior) (*sapper.Sapper, bool) {
	id, ok := g.NextID()
	if !ok {
		return nil, false
	}
	return g.AddSapper(id, behavior, g.field.RandomPosition())
}

// ResetField replaces the field with an empty one of the given size and no
// mines. Mirrors only learn the layout through cell events.
func (g *Game) ResetField(size uint8) {
	g.config.FieldSize = size
	g.field = field.New(size, 0, field.WithRand(field.NewRand(g.config.Seed, "mirror")))
}

// IsOver reports whether agents exist and none of them is alive.
func (g *Game) IsOver() bool {
	if len(g.sappers) == 0 {
		return false
	}
	for _, s := range g.sappers {
		if s.Alive {
			return false
		}
	}
	return true
}

// Update runs one tick: every agent acts on the current field and its
// intents are queued on the session bus. Once every agent is dead the
// remaining mines explode. The intents produced this tick are returned in
// firing order.
func (g *Game) Update(action sapper.Action) []event.Event {
	var local []event.Event
	if !g.field.IsCleaned() {
		now := g.now()
		for _, s := range g.sappers {
			s.Update(g.field, action, now)
			local = append(local, s.Events().Pull()...)
		}
	}
	g.events.FireAll(local)

	if g.IsOver() {
		g.field.ExplodeMines(&g.events)
	}
	return local
}
