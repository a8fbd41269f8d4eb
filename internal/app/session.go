package app

import (
	"context"
	"errors"
	"fmt"

	"sappers/internal/config"
	"sappers/internal/game"
	"sappers/internal/net/transport"
	"sappers/internal/netsync"
	"sappers/internal/sapper"
	"sappers/internal/telemetry"
	"sappers/logging"
)

// session owns the engines a mode runs. The authoritative engine, when
// present, ticks first so a local client sees its output on the next tick.
type session struct {
	server *netsync.Engine
	client *netsync.Engine
	// listener is set when the process accepts peers.
	listener *transport.Server
	view     *game.Game
}

type sessionDeps struct {
	publisher logging.Publisher
	metrics   telemetry.Metrics
}

func gameConfig(cfg config.Config) game.Config {
	return game.Config{
		FieldSize:   cfg.FieldSize,
		MineDensity: cfg.MineDensity,
		BotReaction: cfg.BotReaction,
		Seed:        cfg.Seed,
	}
}

func newSession(ctx context.Context, cfg config.Config, deps sessionDeps) (*session, error) {
	engineOpts := netsync.Options{
		SuspendLimit: cfg.SuspendLimit,
		Publisher:    deps.publisher,
		Metrics:      deps.metrics,
	}
	transportOpts := transport.Options{
		Publisher: deps.publisher,
		Metrics:   deps.metrics,
	}

	s := &session{}
	switch cfg.Mode {
	case config.ModeSolo:
		g := newAuthoritativeGame(cfg)
		if _, ok := g.SpawnSapper(sapper.Player); !ok {
			return nil, errors.New("no room for the player")
		}
		s.server = netsync.NewServer(g, nil, engineOpts)
		s.view = g

	case config.ModeServe, config.ModeHost:
		srv, err := transport.Listen(ctx, cfg.Address, transportOpts)
		if err != nil {
			return nil, fmt.Errorf("listen: %w", err)
		}
		g := newAuthoritativeGame(cfg)
		s.listener = srv
		s.server = netsync.NewServer(g, srv, engineOpts)
		s.view = g
		if cfg.Mode == config.ModeServe {
			break
		}
		if err := s.join(ctx, srv.Addr(), engineOpts, transportOpts); err != nil {
			s.Close()
			return nil, err
		}

	case config.ModeJoin:
		if err := s.join(ctx, cfg.Address, engineOpts, transportOpts); err != nil {
			return nil, err
		}

	default:
		return nil, fmt.Errorf("unknown mode %q", cfg.Mode)
	}
	return s, nil
}

// newAuthoritativeGame creates the canonical game with its bots.
func newAuthoritativeGame(cfg config.Config) *game.Game {
	g := game.New(gameConfig(cfg))
	for i := uint8(0); i < cfg.Bots; i++ {
		g.SpawnSapper(sapper.Bot)
	}
	return g
}

// join dials addr and mirrors the remote game. The mirror starts empty and
// learns its field size from the server.
func (s *session) join(ctx context.Context, addr string, engineOpts netsync.Options, transportOpts transport.Options) error {
	client, err := transport.Dial(ctx, addr, transportOpts)
	if err != nil {
		return fmt.Errorf("join: %w", err)
	}
	mirror := game.New(game.Config{})
	s.client = netsync.NewClient(mirror, client, engineOpts)
	s.view = mirror
	return nil
}

// Tick advances every engine once. Only the client, or the solo server,
// receives the player's action.
func (s *session) Tick(action sapper.Action) error {
	if s.server != nil {
		serverAction := action
		if s.client != nil {
			serverAction = sapper.ActionNone
		}
		if err := s.server.Tick(serverAction); err != nil {
			return fmt.Errorf("server: %w", err)
		}
	}
	if s.client != nil {
		if err := s.client.Tick(action); err != nil {
			return fmt.Errorf("client: %w", err)
		}
	}
	return nil
}

// Snapshot renders the player's view.
func (s *session) Snapshot() game.Snapshot {
	return s.view.Snapshot()
}

func (s *session) Close() error {
	var errs []error
	if s.client != nil {
		errs = append(errs, s.client.Close())
	}
	if s.server != nil {
		errs = append(errs, s.server.Close())
	}
	return errors.Join(errs...)
}
