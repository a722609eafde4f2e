package main

import (
	"context"
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"

	"trackerbot/internal/config"
	"trackerbot/internal/debugdraw"
	"trackerbot/internal/effects"
	"trackerbot/internal/net/proto"
	"trackerbot/internal/observer"
	"trackerbot/internal/telemetry"
	"trackerbot/internal/tracker"
)

func main() {
	var (
		serverURL  string
		encoding   string
		playerID   string
		configPath string
		mirror     bool
		audio      bool
		view       bool
	)
	flag.StringVar(&serverURL, "url", "ws://localhost:8080/ws", "host websocket endpoint")
	flag.StringVar(&encoding, "encoding", string(proto.EncodingMsgpack), "frame encoding: json or msgpack")
	flag.StringVar(&playerID, "player", "", "player id to steer with the arrow keys")
	flag.StringVar(&configPath, "config", "", "YAML config shared with the host (tracker and world sections)")
	flag.BoolVar(&mirror, "mirror", true, "run replica bots; otherwise replay frame effects directly")
	flag.BoolVar(&audio, "audio", false, "play cues through the speaker")
	flag.BoolVar(&view, "view", false, "render the arena in this terminal")
	flag.Parse()

	logger := telemetry.WrapLogger(log.Default())
	cfg, err := config.Load(config.LoadOptions{
		EnvFile:    config.DefaultEnvFile,
		ConfigPath: configPath,
		Logger:     logger,
	})
	if err != nil {
		log.Fatalf("%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cues tracker.Effects
	if audio {
		speaker := effects.NewAudio()
		if err := speaker.Initialize(); err != nil {
			log.Fatalf("failed to start audio: %v", err)
		}
		defer speaker.Cleanup()
		cues = speaker
	}

	var client *observer.Client
	deps := observer.Deps{Effects: cues, Logger: logger}

	var screen tcell.Screen
	if view {
		screen, err = tcell.NewScreen()
		if err != nil {
			log.Fatalf("failed to create screen: %v", err)
		}
		if err := screen.Init(); err != nil {
			log.Fatalf("failed to init screen: %v", err)
		}
		defer screen.Fini()
		log.SetOutput(io.Discard)
		deps.View = debugdraw.NewRenderer(screen, cfg.World.Width, cfg.World.Height, func() time.Duration {
			return client.Now()
		})
	}

	client, err = observer.Dial(ctx, observer.Config{
		URL:      serverURL,
		Encoding: proto.ParseEncoding(encoding),
		PlayerID: playerID,
		Mirror:   mirror,
		Tracker:  cfg.Tracker,
	}, deps)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer client.Close()

	if screen != nil {
		go pollKeys(screen, client, cfg.World.Width, cfg.World.Height, stop)
	}

	if err := client.Run(ctx); err != nil {
		log.Fatalf("%v", err)
	}
}

// pollKeys maps arrows to movement, space to stop, s to spawn a bot at the
// arena centre and q or Esc to quit.
func pollKeys(screen tcell.Screen, client *observer.Client, width, height float64, stop context.CancelFunc) {
	for {
		switch ev := screen.PollEvent().(type) {
		case nil:
			return
		case *tcell.EventResize:
			screen.Sync()
		case *tcell.EventKey:
			var err error
			switch {
			case ev.Key() == tcell.KeyEscape, ev.Key() == tcell.KeyCtrlC, ev.Rune() == 'q':
				stop()
				return
			case ev.Key() == tcell.KeyUp:
				err = client.Move(0, -1)
			case ev.Key() == tcell.KeyDown:
				err = client.Move(0, 1)
			case ev.Key() == tcell.KeyLeft:
				err = client.Move(-1, 0)
			case ev.Key() == tcell.KeyRight:
				err = client.Move(1, 0)
			case ev.Rune() == ' ':
				err = client.Move(0, 0)
			case ev.Rune() == 's':
				err = client.Spawn(width/2, height/2)
			}
			if err != nil {
				log.Printf("command failed: %v", err)
			}
		}
	}
}
