package main

import (
	"encoding/json"
	"fmt"
	"maps"
	"strings"

	"github.com/everstacklabs/kai/internal/catalog"
)

// parsePairs turns repeated --param key=value flags into a map. Values are
// kept as strings; the input builder coerces them per the model schema.
func parsePairs(pairs []string) (map[string]any, error) {
	out := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --param %q: expected key=value", pair)
		}
		out[key] = value
	}
	return out, nil
}

// parseJSONParams decodes --params-json. The document must be an object.
func parseJSONParams(raw string) (map[string]any, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("invalid --params-json: %w", err)
	}
	if out == nil {
		return nil, fmt.Errorf("invalid --params-json: expected a JSON object")
	}
	return out, nil
}

// declaredDefaults keeps the configured defaults the model actually accepts,
// so a default for one model never trips unknown-field checks on another.
func declaredDefaults(m *catalog.Model, defaults map[string]any) map[string]any {
	out := make(map[string]any, len(defaults))
	for k, v := range defaults {
		if _, ok := m.Param(k); ok {
			out[k] = v
		}
	}
	return out
}

// mergeParams layers parameter sources, later ones winning.
func mergeParams(layers ...map[string]any) map[string]any {
	out := make(map[string]any)
	for _, l := range layers {
		maps.Copy(out, l)
	}
	return out
}
