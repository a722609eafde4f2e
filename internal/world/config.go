package world

import (
	"strings"

	"trackerbot/internal/tracker"
)

const (
	DefaultSeed          = "arena"
	DefaultWidth         = 2400.0
	DefaultHeight        = 1600.0
	DefaultBotCount      = 6
	DefaultPlayerCount   = 1
	DefaultBotHealth     = 100.0
	DefaultPlayerHealth  = 200.0
	DefaultBotMass       = 10.0
	DefaultLinearDamping = 1.5
	DefaultMaxSpeed      = 400.0
	DefaultPlayerSpeed   = 260.0
	DefaultSpatialCell   = 200.0
)

// Config describes the arena the host simulates.
type Config struct {
	Seed            string         `json:"seed" yaml:"seed"`
	Width           float64        `json:"width" yaml:"width" jsonschema:"minimum=0"`
	Height          float64        `json:"height" yaml:"height" jsonschema:"minimum=0"`
	Obstacles       bool           `json:"obstacles" yaml:"obstacles"`
	ObstacleCount   int            `json:"obstacleCount" yaml:"obstacleCount" jsonschema:"minimum=0"`
	BotCount        int            `json:"botCount" yaml:"botCount" jsonschema:"minimum=0"`
	PlayerCount     int            `json:"playerCount" yaml:"playerCount" jsonschema:"minimum=0"`
	PropCount       int            `json:"propCount" yaml:"propCount" jsonschema:"minimum=0"`
	BotHealth       float64        `json:"botHealth" yaml:"botHealth" jsonschema:"minimum=0"`
	PlayerHealth    float64        `json:"playerHealth" yaml:"playerHealth" jsonschema:"minimum=0"`
	BotMass         float64        `json:"botMass" yaml:"botMass" jsonschema:"minimum=0"`
	LinearDamping   float64        `json:"linearDamping" yaml:"linearDamping" jsonschema:"minimum=0"`
	MaxSpeed        float64        `json:"maxSpeed" yaml:"maxSpeed" jsonschema:"minimum=0"`
	PlayerSpeed     float64        `json:"playerSpeed" yaml:"playerSpeed" jsonschema:"minimum=0"`
	SpatialCellSize float64        `json:"spatialCellSize" yaml:"spatialCellSize" jsonschema:"minimum=0"`
	Tracker         tracker.Config `json:"-" yaml:"-"`
}

func (cfg Config) normalized() Config {
	normalized := cfg
	normalized.Seed = strings.TrimSpace(normalized.Seed)
	if normalized.Seed == "" {
		normalized.Seed = DefaultSeed
	}
	if normalized.Width <= 0 {
		normalized.Width = DefaultWidth
	}
	if normalized.Height <= 0 {
		normalized.Height = DefaultHeight
	}
	if normalized.ObstacleCount < 0 {
		normalized.ObstacleCount = 0
	}
	if normalized.BotCount < 0 {
		normalized.BotCount = 0
	}
	if normalized.PlayerCount < 0 {
		normalized.PlayerCount = 0
	}
	if normalized.PropCount < 0 {
		normalized.PropCount = 0
	}
	if normalized.BotHealth <= 0 {
		normalized.BotHealth = DefaultBotHealth
	}
	if normalized.PlayerHealth <= 0 {
		normalized.PlayerHealth = DefaultPlayerHealth
	}
	if normalized.BotMass <= 0 {
		normalized.BotMass = DefaultBotMass
	}
	if normalized.LinearDamping < 0 {
		normalized.LinearDamping = 0
	}
	if normalized.MaxSpeed <= 0 {
		normalized.MaxSpeed = DefaultMaxSpeed
	}
	if normalized.PlayerSpeed <= 0 {
		normalized.PlayerSpeed = DefaultPlayerSpeed
	}
	if normalized.SpatialCellSize <= 0 {
		normalized.SpatialCellSize = DefaultSpatialCell
	}
	normalized.Tracker = normalized.Tracker.Normalized()
	return normalized
}

func (cfg Config) Normalized() Config {
	return cfg.normalized()
}

func DefaultConfig() Config {
	return Config{
		Seed:            DefaultSeed,
		Width:           DefaultWidth,
		Height:          DefaultHeight,
		BotCount:        DefaultBotCount,
		PlayerCount:     DefaultPlayerCount,
		BotHealth:       DefaultBotHealth,
		PlayerHealth:    DefaultPlayerHealth,
		BotMass:         DefaultBotMass,
		LinearDamping:   DefaultLinearDamping,
		MaxSpeed:        DefaultMaxSpeed,
		PlayerSpeed:     DefaultPlayerSpeed,
		SpatialCellSize: DefaultSpatialCell,
		Tracker:         tracker.DefaultConfig(),
	}
}
