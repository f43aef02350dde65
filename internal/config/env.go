package config

import (
	"encoding/json"
	"strconv"
	"strings"
)

// EnvPrefix is the prefix for configuration environment variables.
const EnvPrefix = "TEXTMIRROR_"

// envOverlay scans environ for EnvPrefix variables and returns them as a
// nested map keyed the way the config files are. TEXTMIRROR_LOG_LEVEL
// becomes log.level, TEXTMIRROR_SAVE_INCLUDE_TEXT becomes
// save.include_text, TEXTMIRROR_EOL becomes eol.
func envOverlay(environ []string) map[string]any {
	overlay := make(map[string]any)
	for _, env := range environ {
		if !strings.HasPrefix(env, EnvPrefix) {
			continue
		}
		name, value, ok := strings.Cut(env, "=")
		if !ok {
			continue
		}
		setByPath(overlay, envToPath(name), parseValue(value))
	}
	return overlay
}

// envToPath converts TEXTMIRROR_BACKUP_PATH to backup.path. The first
// underscore-delimited part is the section; the rest form the key.
func envToPath(env string) string {
	name := strings.ToLower(strings.TrimPrefix(env, EnvPrefix))
	section, rest, ok := strings.Cut(name, "_")
	if !ok {
		return section
	}
	return section + "." + rest
}

// parseValue infers the type of an environment value.
func parseValue(s string) any {
	if s == "" {
		return s
	}

	switch strings.ToLower(s) {
	case "true", "yes", "on", "1":
		return true
	case "false", "no", "off", "0":
		return false
	}

	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if strings.Contains(s, ".") {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}

	// JSON arrays for list-valued settings such as scripts.
	if strings.HasPrefix(s, "[") || strings.HasPrefix(s, "{") {
		var v any
		if err := json.Unmarshal([]byte(s), &v); err == nil {
			return v
		}
	}

	return s
}

// setByPath sets a value in a nested map using a dot-separated path.
func setByPath(data map[string]any, path string, value any) {
	parts := strings.Split(path, ".")
	current := data
	for i := 0; i < len(parts)-1; i++ {
		part := parts[i]
		if next, ok := current[part].(map[string]any); ok {
			current = next
		} else {
			next := make(map[string]any)
			current[part] = next
			current = next
		}
	}
	if len(parts) > 0 {
		current[parts[len(parts)-1]] = value
	}
}
