package main

import (
	"context"
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gdamore/tcell/v2"

	"trackerbot/internal/app"
	"trackerbot/internal/config"
	"trackerbot/internal/telemetry"
)

func main() {
	var (
		configPath string
		envFile    string
		view       bool
	)
	flag.StringVar(&configPath, "config", "", "YAML config file (defaults to $"+config.EnvConfigPath+")")
	flag.StringVar(&envFile, "env", config.DefaultEnvFile, "dotenv file with TRACKER_* overrides")
	flag.BoolVar(&view, "view", false, "render the debug view in this terminal (needs tracker.debugDraw)")
	flag.Parse()

	logger := telemetry.WrapLogger(log.Default())
	cfg, err := config.Load(config.LoadOptions{
		EnvFile:    envFile,
		ConfigPath: configPath,
		Logger:     logger,
	})
	if err != nil {
		log.Fatalf("%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var screen tcell.Screen
	if view && cfg.Tracker.DebugDraw {
		screen, err = tcell.NewScreen()
		if err != nil {
			log.Fatalf("failed to create screen: %v", err)
		}
		if err := screen.Init(); err != nil {
			log.Fatalf("failed to init screen: %v", err)
		}
		defer screen.Fini()
		// The terminal belongs to the view; operator messages would tear it.
		log.SetOutput(io.Discard)
		go pollQuit(screen, stop)
	}

	if err := app.Run(ctx, app.Config{Host: cfg, Logger: logger, Screen: screen}); err != nil {
		log.Fatalf("%v", err)
	}
}

func pollQuit(screen tcell.Screen, stop context.CancelFunc) {
	for {
		switch ev := screen.PollEvent().(type) {
		case nil:
			return
		case *tcell.EventKey:
			if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC || ev.Rune() == 'q' {
				stop()
				return
			}
		case *tcell.EventResize:
			screen.Sync()
		}
	}
}
