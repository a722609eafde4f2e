package config

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// BuildSchema reflects the YAML document layout into a JSON Schema.
func BuildSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		DoNotReference: true,
	}
	schema := reflector.Reflect(new(Config))
	schema.Title = "Tracker Bot Host"
	schema.Description = "Validates the YAML document named by -config or TRACKER_CONFIG. Durations are nanoseconds or Go duration strings."
	return schema
}

// Schema renders BuildSchema as indented JSON.
func Schema() ([]byte, error) {
	data, err := json.MarshalIndent(BuildSchema(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	return append(data, '\n'), nil
}
