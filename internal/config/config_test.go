package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"trackerbot/internal/telemetry"
	"trackerbot/logging"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func envMap(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(LoadOptions{Getenv: envMap(nil)})
	if err != nil {
		t.Fatalf("expected defaults to load, got %v", err)
	}
	if cfg.Server.Addr != DefaultAddr {
		t.Fatalf("expected addr %q, got %q", DefaultAddr, cfg.Server.Addr)
	}
	if cfg.World.Tracker.PowerRadius != 600 {
		t.Fatalf("expected tracker section to reach the arena, got radius %v", cfg.World.Tracker.PowerRadius)
	}
	if !cfg.Logging.HasSink("console") {
		t.Fatalf("expected console sink enabled by default, got %v", cfg.Logging.EnabledSinks)
	}
}

func TestLoadLayersSources(t *testing.T) {
	dir := t.TempDir()
	yamlPath := writeFile(t, dir, "host.yaml", `
server:
  addr: ":9000"
  journalCapacity: 4
loop:
  tickRate: 20
world:
  seed: yaml-seed
  botCount: 3
tracker:
  explosionDamage: 55
  selfDamageInterval: 500ms
logging:
  minimumSeverity: warn
`)
	envFile := writeFile(t, dir, ".env", "TRACKER_BOT_COUNT=9\nTRACKER_SEED=dotenv-seed\n")

	cfg, err := Load(LoadOptions{
		EnvFile:    envFile,
		ConfigPath: yamlPath,
		Getenv:     envMap(map[string]string{"TRACKER_SEED": "env-seed", "TRACKER_DEBUG_DRAW": "true"}),
	})
	if err != nil {
		t.Fatalf("expected config to load, got %v", err)
	}

	if cfg.Server.Addr != ":9000" || cfg.Server.JournalCapacity != 4 {
		t.Fatalf("expected yaml server section, got %+v", cfg.Server)
	}
	if cfg.Loop.TickRate != 20 {
		t.Fatalf("expected tick rate 20, got %d", cfg.Loop.TickRate)
	}
	if cfg.World.BotCount != 9 {
		t.Fatalf("expected .env to override yaml bot count, got %d", cfg.World.BotCount)
	}
	if cfg.World.Seed != "env-seed" {
		t.Fatalf("expected process env to win over .env, got %q", cfg.World.Seed)
	}
	if cfg.Tracker.ExplosionDamage != 55 || cfg.World.Tracker.ExplosionDamage != 55 {
		t.Fatalf("expected explosion damage 55 in both sections, got %v and %v", cfg.Tracker.ExplosionDamage, cfg.World.Tracker.ExplosionDamage)
	}
	if cfg.Tracker.SelfDamageInterval != 500*time.Millisecond {
		t.Fatalf("expected 500ms self damage interval, got %v", cfg.Tracker.SelfDamageInterval)
	}
	if !cfg.World.Tracker.DebugDraw {
		t.Fatalf("expected TRACKER_DEBUG_DRAW to enable debug drawing")
	}
	if cfg.Logging.MinimumSeverity != logging.SeverityWarn {
		t.Fatalf("expected warn severity, got %v", cfg.Logging.MinimumSeverity)
	}
}

func TestLoadConfigPathFromEnvironment(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "host.yaml", "world:\n  playerCount: 2\n")

	cfg, err := Load(LoadOptions{Getenv: envMap(map[string]string{EnvConfigPath: path})})
	if err != nil {
		t.Fatalf("expected config to load, got %v", err)
	}
	if cfg.World.PlayerCount != 2 {
		t.Fatalf("expected player count 2, got %d", cfg.World.PlayerCount)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	unknown := writeFile(t, dir, "unknown.yaml", "server:\n  port: 80\n")

	tests := []struct {
		name string
		opts LoadOptions
	}{
		{name: "missing yaml", opts: LoadOptions{ConfigPath: filepath.Join(dir, "absent.yaml")}},
		{name: "unknown field", opts: LoadOptions{ConfigPath: unknown}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.opts.Getenv = envMap(nil)
			if _, err := Load(tc.opts); err == nil {
				t.Fatalf("expected load to fail")
			}
		})
	}
}

func TestLoadIgnoresMissingEnvFile(t *testing.T) {
	_, err := Load(LoadOptions{EnvFile: filepath.Join(t.TempDir(), ".env"), Getenv: envMap(nil)})
	if err != nil {
		t.Fatalf("expected missing .env to be ignored, got %v", err)
	}
}

func TestInvalidEnvironmentValuesAreLoggedAndSkipped(t *testing.T) {
	var logs []string
	logger := func(format string, args ...any) {
		logs = append(logs, fmt.Sprintf(format, args...))
	}

	cfg, err := Load(LoadOptions{
		Getenv: envMap(map[string]string{
			"TRACKER_TICK_RATE": "fast",
			"TRACKER_LOG_SINKS": "console, json",
		}),
		Logger: telemetry.LoggerFunc(logger),
	})
	if err != nil {
		t.Fatalf("expected config to load, got %v", err)
	}
	if cfg.Loop.TickRate != 30 {
		t.Fatalf("expected default tick rate to survive, got %d", cfg.Loop.TickRate)
	}
	if len(logs) != 1 || !strings.Contains(logs[0], "TRACKER_TICK_RATE") {
		t.Fatalf("expected one warning about TRACKER_TICK_RATE, got %v", logs)
	}
	if !cfg.Logging.HasSink("json") {
		t.Fatalf("expected json sink enabled, got %v", cfg.Logging.EnabledSinks)
	}
}

func TestNormalizedRepairsInvalidValues(t *testing.T) {
	cfg := Config{}.Normalized()
	if cfg.Server.Addr != DefaultAddr {
		t.Fatalf("expected default addr, got %q", cfg.Server.Addr)
	}
	if cfg.Server.JournalCapacity != DefaultJournalCapacity {
		t.Fatalf("expected default journal capacity, got %d", cfg.Server.JournalCapacity)
	}
	if cfg.Loop.TickRate <= 0 {
		t.Fatalf("expected positive tick rate, got %d", cfg.Loop.TickRate)
	}
	if cfg.World.Width <= 0 || cfg.World.Tracker.Lifespan <= 0 {
		t.Fatalf("expected arena defaults, got %+v", cfg.World)
	}
}

func TestSchemaDescribesDocument(t *testing.T) {
	data, err := Schema()
	if err != nil {
		t.Fatalf("expected schema, got %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("expected schema to be valid JSON: %v", err)
	}
	text := string(data)
	for _, want := range []string{`"server"`, `"tickRate"`, `"explosionDamage"`, `"warn"`} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected schema to mention %s", want)
		}
	}
}
