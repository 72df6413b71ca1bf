package plugin

/*
	JSONKey

	This plugin picks one number out of a Snapshot by a dotted key,
	using the Snapshot's JSON field names, e.g.:

		lines.third.end
		projs.first.expected.start
		hiatus

	Returns an error when the key is absent, which for markers and
	open line ends means the snapshot doesn't draw them.
*/

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	Mt "github.com/maroda/meter/types"
)

type JSONKeyPlugin struct {
	Key string
}

// NewJSONTransformer returns a struct for what to search in the JSON
func NewJSONTransformer(key string) *JSONKeyPlugin {
	return &JSONKeyPlugin{Key: key}
}

// Transform extracts the JSONKeyPlugin key from the Snapshot as JSON
func (tj *JSONKeyPlugin) Transform(snap Mt.Snapshot) (float64, error) {
	raw, err := json.Marshal(snap)
	if err != nil {
		return 0, fmt.Errorf("error marshalling snapshot: %w", err)
	}

	var data interface{}
	if err := json.Unmarshal(raw, &data); err != nil {
		slog.Error("Error unmarshalling json",
			slog.String("search", tj.Key),
			slog.Any("error", err))
		return 0, fmt.Errorf("error unmarshalling json from snapshot: %w", err)
	}

	value, err := ExtractValue(data, tj.Key)
	if err != nil {
		return 0, fmt.Errorf("error extracting json value from snapshot: %w", err)
	}

	return value, nil
}

// ExtractValue walks data by the dot separated key
func ExtractValue(data interface{}, key string) (float64, error) {
	keys := strings.Split(key, ".")
	current := data

	for _, k := range keys {
		switch v := current.(type) {
		case map[string]interface{}:
			var ok bool
			current, ok = v[k]
			if !ok {
				return 0, fmt.Errorf("key %s not found", k)
			}
		case []interface{}:
			return 0, fmt.Errorf("array indexing not implemented yet")
		default:
			return 0, fmt.Errorf("cannot traverse into type %T at key %s", v, k)
		}
	}

	switch v := current.(type) {
	case float64:
		return v, nil
	case json.Number:
		return v.Float64()
	default:
		return 0, fmt.Errorf("value not numeric, cannot traverse %T", v)
	}
}

func (tj *JSONKeyPlugin) Type() string { return "json_key" }
