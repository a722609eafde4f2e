package logging

import (
	"fmt"
	"strings"
	"time"

	"github.com/invopop/jsonschema"
)

// Config controls which sinks the router feeds and how aggressively it drops.
type Config struct {
	EnabledSinks     []string       `json:"enabledSinks" yaml:"enabledSinks"`
	BufferSize       int            `json:"bufferSize" yaml:"bufferSize"`
	MinimumSeverity  Severity       `json:"minimumSeverity" yaml:"minimumSeverity"`
	Fields           map[string]any `json:"fields,omitempty" yaml:"fields,omitempty"`
	JSON             JSONConfig     `json:"json" yaml:"json"`
	Console          ConsoleConfig  `json:"console" yaml:"console"`
	DropWarnInterval time.Duration  `json:"dropWarnInterval" yaml:"dropWarnInterval"`
}

type JSONConfig struct {
	FilePath      string        `json:"filePath" yaml:"filePath"`
	MaxBatch      int           `json:"maxBatch" yaml:"maxBatch"`
	FlushInterval time.Duration `json:"flushInterval" yaml:"flushInterval"`
}

type ConsoleConfig struct {
	UseColor bool `json:"useColor" yaml:"useColor"`
}

func DefaultConfig() Config {
	return Config{
		EnabledSinks:     []string{"console"},
		BufferSize:       512,
		MinimumSeverity:  SeverityInfo,
		DropWarnInterval: 5 * time.Second,
		JSON: JSONConfig{
			MaxBatch:      32,
			FlushInterval: 2 * time.Second,
		},
	}
}

func (c Config) HasSink(name string) bool {
	for _, s := range c.EnabledSinks {
		if strings.EqualFold(strings.TrimSpace(s), name) {
			return true
		}
	}
	return false
}

func (c Config) CloneFields() map[string]any {
	if len(c.Fields) == 0 {
		return nil
	}
	cloned := make(map[string]any, len(c.Fields))
	for k, v := range c.Fields {
		cloned[k] = v
	}
	return cloned
}

// ParseSeverity maps a case-insensitive name onto a Severity. Unknown names
// report false.
func ParseSeverity(name string) (Severity, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return SeverityDebug, true
	case "info", "":
		return SeverityInfo, true
	case "warn", "warning":
		return SeverityWarn, true
	case "error":
		return SeverityError, true
	default:
		return SeverityInfo, false
	}
}

func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarn:
		return "warn"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText accepts severity names so config files can say "warn".
func (s *Severity) UnmarshalText(text []byte) error {
	parsed, ok := ParseSeverity(string(text))
	if !ok {
		return fmt.Errorf("unknown severity %q", string(text))
	}
	*s = parsed
	return nil
}

func (Severity) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "string",
		Enum: []interface{}{"debug", "info", "warn", "error"},
	}
}
