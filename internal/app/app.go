package app

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/gdamore/tcell"

	"sappers/internal/config"
	"sappers/internal/sapper"
	"sappers/internal/telemetry"
	"sappers/internal/ui"
	"sappers/logging"
	loggingSinks "sappers/logging/sinks"
)

const routerCloseTimeout = 2 * time.Second

// Options replaces process dependencies.
type Options struct {
	// Screen returns an initialized terminal. Defaults to the real terminal.
	Screen func() (tcell.Screen, error)
	// Logger receives plain text diagnostics. Defaults to the log file.
	Logger telemetry.Logger
}

// Run loads the configuration from the environment and runs the session it
// describes until ctx is done or the player leaves.
func Run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	return Start(ctx, cfg, Options{})
}

// Start runs a session for an already validated configuration.
func Start(ctx context.Context, cfg config.Config, opts Options) error {
	logOut, err := openLog(cfg.LogFile)
	if err != nil {
		return err
	}
	defer logOut.Close()

	telemetryLogger := opts.Logger
	if telemetryLogger == nil {
		telemetryLogger = telemetry.WrapLogger(log.New(logOut, "sappers ", log.LstdFlags))
	}
	fallbackLogger := log.New(logOut, "sappers ", log.LstdFlags)
	if provider, ok := telemetryLogger.(interface{ StandardLogger() *log.Logger }); ok {
		if candidate := provider.StandardLogger(); candidate != nil {
			fallbackLogger = candidate
		}
	}

	sinks := []logging.NamedSink{{Name: "console", Sink: loggingSinks.NewConsole(logOut)}}
	if cfg.LogJSON != "" {
		file, err := os.OpenFile(cfg.LogJSON, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open json log: %w", err)
		}
		sinks = append(sinks, logging.NamedSink{Name: "json", Sink: loggingSinks.NewJSON(file)})
	}

	logConfig := logging.DefaultConfig()
	logConfig.MinimumSeverity = cfg.Severity()
	logConfig.Fields = map[string]any{"mode": string(cfg.Mode)}
	router := logging.NewRouter(logConfig, logging.ClockFunc(time.Now), fallbackLogger, sinks)
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), routerCloseTimeout)
		defer cancel()
		if cerr := router.Close(closeCtx); cerr != nil {
			telemetryLogger.Printf("failed to close logging router: %v", cerr)
		}
	}()

	metrics := &logging.Metrics{}
	defer reportMetrics(telemetryLogger, metrics)

	sess, err := newSession(ctx, cfg, sessionDeps{
		publisher: router,
		metrics:   telemetry.WrapMetrics(metrics),
	})
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			telemetryLogger.Printf("failed to close session: %v", cerr)
		}
	}()
	if sess.listener != nil {
		telemetryLogger.Printf("listening on %s", sess.listener.Addr())
	}

	if cfg.Mode == config.ModeServe {
		return runHeadless(ctx, sess, cfg.TickInterval)
	}

	newScreen := opts.Screen
	if newScreen == nil {
		newScreen = terminal
	}
	screen, err := newScreen()
	if err != nil {
		return fmt.Errorf("open terminal: %w", err)
	}
	defer screen.Fini()
	return ui.Run(ctx, screen, sess, cfg.TickInterval)
}

func terminal() (tcell.Screen, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	if err := screen.Init(); err != nil {
		return nil, err
	}
	return screen, nil
}

// openLog opens the console sink target. "-" writes to stdout.
func openLog(path string) (io.WriteCloser, error) {
	if path == "-" {
		return nopCloser{os.Stdout}, nil
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}
	return file, nil
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

func runHeadless(ctx context.Context, sess *session, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := sess.Tick(sapper.ActionNone); err != nil {
				return err
			}
		}
	}
}

func reportMetrics(logger telemetry.Logger, metrics *logging.Metrics) {
	snapshot := metrics.Snapshot()
	for _, key := range metrics.Keys() {
		logger.Printf("%s=%d", key, snapshot[key])
	}
}
