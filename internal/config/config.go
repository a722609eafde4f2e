// Package config assembles the host configuration from defaults, an optional
// .env file, an optional YAML document and TRACKER_* environment overrides.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"trackerbot/internal/journal"
	"trackerbot/internal/net/ws"
	"trackerbot/internal/observability"
	"trackerbot/internal/sim"
	"trackerbot/internal/telemetry"
	"trackerbot/internal/tracker"
	"trackerbot/internal/world"
	"trackerbot/logging"
)

const (
	DefaultAddr            = ":8080"
	DefaultJournalCapacity = 8
	DefaultJournalMaxAge   = 10 * time.Second
	DefaultEnvFile         = ".env"

	// EnvConfigPath names the YAML document when -config is not given.
	EnvConfigPath = "TRACKER_CONFIG"
)

type ServerConfig struct {
	Addr            string        `json:"addr" yaml:"addr"`
	JournalCapacity int           `json:"journalCapacity" yaml:"journalCapacity" jsonschema:"minimum=1"`
	JournalMaxAge   time.Duration `json:"journalMaxAge" yaml:"journalMaxAge"`
	SendQueue       int           `json:"sendQueue" yaml:"sendQueue" jsonschema:"minimum=1"`
	WriteWait       time.Duration `json:"writeWait" yaml:"writeWait"`

	Observability observability.Config `json:"observability" yaml:"observability"`
}

// Config is the whole host document. Tracker tunables live in their own
// section and are copied into the arena by Arena.
type Config struct {
	Server  ServerConfig   `json:"server" yaml:"server"`
	Loop    sim.LoopConfig `json:"loop" yaml:"loop"`
	World   world.Config   `json:"world" yaml:"world"`
	Tracker tracker.Config `json:"tracker" yaml:"tracker"`
	Logging logging.Config `json:"logging" yaml:"logging"`
}

func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Addr:            DefaultAddr,
			JournalCapacity: DefaultJournalCapacity,
			JournalMaxAge:   DefaultJournalMaxAge,
			SendQueue:       ws.DefaultSendQueue,
			WriteWait:       ws.DefaultWriteWait,
		},
		Loop:    sim.DefaultLoopConfig(),
		World:   world.DefaultConfig(),
		Tracker: tracker.DefaultConfig(),
		Logging: logging.DefaultConfig(),
	}
}

func (c Config) Normalized() Config {
	c.Server.Addr = strings.TrimSpace(c.Server.Addr)
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Server.JournalCapacity <= 0 {
		c.Server.JournalCapacity = DefaultJournalCapacity
	}
	if c.Server.JournalMaxAge < 0 {
		c.Server.JournalMaxAge = 0
	}
	if c.Server.SendQueue <= 0 {
		c.Server.SendQueue = ws.DefaultSendQueue
	}
	if c.Server.WriteWait <= 0 {
		c.Server.WriteWait = ws.DefaultWriteWait
	}
	c.Loop = c.Loop.Normalized()
	c.Tracker = c.Tracker.Normalized()
	c.World = c.Arena()
	if c.Logging.BufferSize <= 0 {
		c.Logging.BufferSize = logging.DefaultConfig().BufferSize
	}
	if len(c.Logging.EnabledSinks) == 0 {
		c.Logging.EnabledSinks = []string{"console"}
	}
	return c
}

// Arena returns the world configuration with the tracker section applied.
func (c Config) Arena() world.Config {
	arena := c.World
	arena.Tracker = c.Tracker
	return arena.Normalized()
}

func (c Config) Hub() ws.Config {
	return ws.Config{SendQueue: c.Server.SendQueue, WriteWait: c.Server.WriteWait}
}

func (c Config) NewJournal() *journal.Journal {
	return journal.New(c.Server.JournalCapacity, c.Server.JournalMaxAge)
}

// LoadOptions selects the sources Load reads. Empty paths are skipped.
type LoadOptions struct {
	EnvFile    string
	ConfigPath string
	// Getenv defaults to os.Getenv.
	Getenv func(string) string
	Logger telemetry.Logger
}

// Load applies defaults, then the .env file, then YAML, then environment
// overrides, and normalises the result. Process environment wins over .env
// entries. A missing .env file is ignored; a missing YAML file is an error.
func Load(opts LoadOptions) (Config, error) {
	logger := opts.Logger
	if logger == nil {
		logger = telemetry.LoggerFunc(nil)
	}
	getenv := opts.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}

	dotenv := map[string]string{}
	if opts.EnvFile != "" {
		values, err := godotenv.Read(opts.EnvFile)
		switch {
		case err == nil:
			dotenv = values
		case errors.Is(err, fs.ErrNotExist):
		default:
			return Config{}, fmt.Errorf("read env file %s: %w", opts.EnvFile, err)
		}
	}
	lookup := func(key string) string {
		if value := getenv(key); value != "" {
			return value
		}
		return dotenv[key]
	}

	cfg := DefaultConfig()

	path := opts.ConfigPath
	if path == "" {
		path = lookup(EnvConfigPath)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := decodeYAML(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnv(&cfg, lookup, logger)
	return cfg.Normalized(), nil
}

func decodeYAML(data []byte, cfg *Config) error {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// applyEnv reads TRACKER_* overrides. Invalid values are logged and skipped.
func applyEnv(cfg *Config, lookup func(string) string, logger telemetry.Logger) {
	str := func(key string, dst *string) {
		if raw := strings.TrimSpace(lookup(key)); raw != "" {
			*dst = raw
		}
	}
	integer := func(key string, dst *int) {
		raw := strings.TrimSpace(lookup(key))
		if raw == "" {
			return
		}
		if value, err := strconv.Atoi(raw); err == nil {
			*dst = value
		} else {
			logger.Printf("invalid %s=%q: %v", key, raw, err)
		}
	}
	float := func(key string, dst *float64) {
		raw := strings.TrimSpace(lookup(key))
		if raw == "" {
			return
		}
		if value, err := strconv.ParseFloat(raw, 64); err == nil {
			*dst = value
		} else {
			logger.Printf("invalid %s=%q: %v", key, raw, err)
		}
	}
	boolean := func(key string, dst *bool) {
		raw := strings.TrimSpace(lookup(key))
		if raw == "" {
			return
		}
		if value, err := strconv.ParseBool(raw); err == nil {
			*dst = value
		} else {
			logger.Printf("invalid %s=%q: %v", key, raw, err)
		}
	}
	duration := func(key string, dst *time.Duration) {
		raw := strings.TrimSpace(lookup(key))
		if raw == "" {
			return
		}
		if value, err := time.ParseDuration(raw); err == nil {
			*dst = value
		} else {
			logger.Printf("invalid %s=%q: %v", key, raw, err)
		}
	}

	str("TRACKER_ADDR", &cfg.Server.Addr)
	integer("TRACKER_JOURNAL_CAPACITY", &cfg.Server.JournalCapacity)
	duration("TRACKER_JOURNAL_MAX_AGE", &cfg.Server.JournalMaxAge)
	integer("TRACKER_SEND_QUEUE", &cfg.Server.SendQueue)
	boolean("TRACKER_PPROF", &cfg.Server.Observability.EnablePprof)

	integer("TRACKER_TICK_RATE", &cfg.Loop.TickRate)

	str("TRACKER_SEED", &cfg.World.Seed)
	integer("TRACKER_BOT_COUNT", &cfg.World.BotCount)
	integer("TRACKER_PLAYER_COUNT", &cfg.World.PlayerCount)
	integer("TRACKER_PROP_COUNT", &cfg.World.PropCount)
	boolean("TRACKER_OBSTACLES", &cfg.World.Obstacles)

	float("TRACKER_EXPLOSION_DAMAGE", &cfg.Tracker.ExplosionDamage)
	float("TRACKER_EXPLOSION_RADIUS", &cfg.Tracker.ExplosionRadius)
	boolean("TRACKER_USE_VELOCITY_CHANGE", &cfg.Tracker.UseVelocityChange)
	boolean("TRACKER_DEBUG_DRAW", &cfg.Tracker.DebugDraw)

	if raw := strings.TrimSpace(lookup("TRACKER_LOG_SINKS")); raw != "" {
		var sinks []string
		for _, name := range strings.Split(raw, ",") {
			if name = strings.TrimSpace(name); name != "" {
				sinks = append(sinks, name)
			}
		}
		cfg.Logging.EnabledSinks = sinks
	}
	if raw := strings.TrimSpace(lookup("TRACKER_LOG_LEVEL")); raw != "" {
		if severity, ok := logging.ParseSeverity(raw); ok {
			cfg.Logging.MinimumSeverity = severity
		} else {
			logger.Printf("invalid TRACKER_LOG_LEVEL=%q", raw)
		}
	}
	str("TRACKER_LOG_FILE", &cfg.Logging.JSON.FilePath)
	boolean("TRACKER_LOG_COLOR", &cfg.Logging.Console.UseColor)
}
