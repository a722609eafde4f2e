package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"

	"trackerbot/internal/config"
	"trackerbot/internal/debugdraw"
	"trackerbot/internal/effects"
	"trackerbot/internal/journal"
	servernet "trackerbot/internal/net"
	"trackerbot/internal/net/ws"
	"trackerbot/internal/sim"
	"trackerbot/internal/telemetry"
	"trackerbot/internal/tracker"
	"trackerbot/internal/world"
	"trackerbot/logging"
	loggingSinks "trackerbot/logging/sinks"
)

const (
	shutdownTimeout     = 5 * time.Second
	defaultEventLogPath = "tracker-events.ndjson"
)

type Config struct {
	Host   config.Config
	Logger telemetry.Logger
	// Screen, when set together with Host.Tracker.DebugDraw, receives the
	// debug view after every tick.
	Screen tcell.Screen
	// Sinks are added to the router next to the configured ones.
	Sinks []logging.NamedSink
}

// App owns the authoritative host: arena, loop, observer hub and HTTP surface.
type App struct {
	cfg     config.Config
	logger  telemetry.Logger
	router  *logging.Router
	metrics *logging.Metrics
	journal *journal.Journal
	world   *world.World
	loop    *sim.Loop
	hub     *ws.Hub
	handler http.Handler
	view    *debugdraw.Renderer
}

func New(cfg Config) (*App, error) {
	telemetryLogger := cfg.Logger
	if telemetryLogger == nil {
		telemetryLogger = telemetry.WrapLogger(log.Default())
	}
	host := cfg.Host.Normalized()

	fallbackLogger := log.Default()
	if provider, ok := telemetryLogger.(interface{ StandardLogger() *log.Logger }); ok {
		if candidate := provider.StandardLogger(); candidate != nil {
			fallbackLogger = candidate
		}
	}

	namedSinks, err := buildSinks(host.Logging, telemetryLogger)
	if err != nil {
		return nil, err
	}
	namedSinks = append(namedSinks, cfg.Sinks...)
	router := logging.NewRouter(logging.SystemClock{}, host.Logging, namedSinks, fallbackLogger)

	a := &App{
		cfg:     host,
		logger:  telemetryLogger,
		router:  router,
		metrics: &logging.Metrics{},
		journal: host.NewJournal(),
	}
	metrics := telemetry.WrapMetrics(a.metrics)
	a.journal.AttachTelemetry(metrics)

	arena := host.Arena()
	worldDeps := world.Deps{
		Publisher: router,
		Metrics:   metrics,
		Logger:    telemetryLogger,
		Effects:   effects.NewRecorder(a.journal),
	}
	if arena.Tracker.DebugDraw && cfg.Screen != nil {
		a.view = debugdraw.NewRenderer(cfg.Screen, arena.Width, arena.Height, func() time.Duration {
			return a.world.Now()
		})
		worldDeps.Debug = a.view
	}
	a.world = world.New(arena, worldDeps)
	if err := a.world.Populate(); err != nil {
		router.Close(context.Background())
		return nil, fmt.Errorf("failed to populate arena: %w", err)
	}

	a.loop = sim.NewLoop(sim.NewWorldEngine(a.world), host.Loop, sim.Deps{
		Logger:    telemetryLogger,
		Metrics:   metrics,
		Publisher: router,
	}, sim.LoopHooks{
		AfterStep: a.afterStep,
		OnCommandDrop: func(reason string, cmd sim.Command) {
			telemetryLogger.Printf("[sim] dropped %s command for %q: %s", cmd.Type, cmd.ActorID, reason)
		},
	})

	a.hub = ws.NewHub(host.Hub(), ws.Deps{
		Journal:   a.journal,
		Commands:  a.loop,
		Logger:    telemetryLogger,
		Metrics:   metrics,
		Publisher: router,
	})

	a.handler = servernet.NewHTTPHandler(a.hub, servernet.HTTPHandlerConfig{
		Journal:       a.journal,
		Metrics:       a.metrics,
		Router:        router,
		Schema:        config.Schema,
		TickRate:      host.Loop.TickRate,
		Logger:        telemetryLogger,
		Observability: host.Server.Observability,
	})
	return a, nil
}

func buildSinks(cfg logging.Config, logger telemetry.Logger) ([]logging.NamedSink, error) {
	var named []logging.NamedSink
	for _, name := range cfg.EnabledSinks {
		switch name {
		case "console":
			named = append(named, logging.NamedSink{Name: "console", Sink: loggingSinks.NewConsoleSink(os.Stdout, cfg.Console)})
		case "json":
			path := cfg.JSON.FilePath
			if path == "" {
				path = defaultEventLogPath
			}
			file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err != nil {
				return nil, fmt.Errorf("failed to open event log %s: %w", path, err)
			}
			named = append(named, logging.NamedSink{Name: "json", Sink: loggingSinks.NewJSON(file, cfg.JSON.FlushInterval)})
		default:
			logger.Printf("ignoring unknown logging sink %q", name)
		}
	}
	return named, nil
}

// afterStep runs on the loop goroutine once per tick.
func (a *App) afterStep(result sim.LoopStepResult) {
	a.hub.PublishSnapshot(result.Snapshot)
	if a.view != nil {
		plotSnapshot(a.view, result.Snapshot)
		a.view.Render()
	}
}

func plotSnapshot(view *debugdraw.Renderer, snap world.Snapshot) {
	for _, actor := range snap.Actors {
		if actor.Hidden {
			continue
		}
		switch actor.Kind {
		case world.KindBot:
			view.Plot(actor.Position, 'B', tracker.DebugRed)
		case world.KindPlayer:
			view.Plot(actor.Position, '@', tracker.DebugGreen)
		default:
			view.Plot(actor.Position, '#', tracker.DebugWhite)
		}
	}
}

// Run serves observers and drives the loop until ctx is cancelled or the
// listener fails.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		a.loop.Run(ctx)
	}()

	srv := &http.Server{Addr: a.cfg.Server.Addr, Handler: a.handler}
	serveErr := make(chan error, 1)
	go func() {
		a.logger.Printf("server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			runErr = fmt.Errorf("server failed: %w", err)
		}
	}
	cancel()
	<-loopDone

	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()
	a.hub.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Printf("failed to shut down http server: %v", err)
	}
	a.Close(shutdownCtx)
	return runErr
}

// Close flushes the logging router.
func (a *App) Close(ctx context.Context) {
	if err := a.router.Close(ctx); err != nil {
		a.logger.Printf("failed to close logging router: %v", err)
	}
}

func (a *App) Config() config.Config     { return a.cfg }
func (a *App) Handler() http.Handler     { return a.handler }
func (a *App) Hub() *ws.Hub              { return a.hub }
func (a *App) Journal() *journal.Journal { return a.journal }
func (a *App) Loop() *sim.Loop           { return a.loop }
func (a *App) Metrics() *logging.Metrics { return a.metrics }
func (a *App) World() *world.World       { return a.world }

// Run builds the host from cfg and serves until ctx is done.
func Run(ctx context.Context, cfg Config) error {
	a, err := New(cfg)
	if err != nil {
		return err
	}
	return a.Run(ctx)
}
