// Package config loads and watches the textmirror configuration.
//
// Configuration comes from an optional TOML or YAML file overlaid with
// TEXTMIRROR_* environment variables. The merged result decodes into a
// typed Config that is validated before use. Watcher reloads the file
// when it changes on disk.
package config

import (
	"fmt"
	"os"
	"sort"

	"github.com/dshills/textmirror/internal/textstore"
	"github.com/dshills/textmirror/internal/words"
)

// Config is the validated textmirror configuration.
type Config struct {
	// EOL selects the mirror line terminator: "auto" detects it from the
	// document content, "lf", "crlf", and "cr" force one.
	EOL string

	Log    LogConfig
	Backup BackupConfig
	Save   SaveConfig

	// Words maps language identifiers to word-match patterns.
	Words map[string]string

	// Scripts lists Lua hook files loaded at startup.
	Scripts []string
}

// LogConfig controls logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string
	// File receives the log output. Empty discards it; the stdio
	// transport owns stdout and stderr.
	File string
}

// BackupConfig controls hot-exit backups.
type BackupConfig struct {
	Enabled bool
	// Path is the backup database file. Empty selects a file under the
	// user cache directory.
	Path string
}

// SaveConfig controls save handling.
type SaveConfig struct {
	// IncludeText verifies the text sent with save notifications against
	// the mirror and resynchronizes on drift.
	IncludeText bool
}

// Default returns the configuration used when no file or environment
// overrides apply.
func Default() Config {
	return Config{
		EOL: "auto",
		Log: LogConfig{Level: "info"},
		Save: SaveConfig{
			IncludeText: true,
		},
	}
}

// Load reads the configuration file at path, overlays TEXTMIRROR_*
// environment variables, and validates the result. A missing file is not
// an error; defaults plus the environment apply. An empty path skips the
// file entirely.
func Load(path string) (*Config, error) {
	return LoadWith(DefaultFS(), path, os.Environ())
}

// LoadWith is Load with an injectable file system and environment.
func LoadWith(fsys FileSystem, path string, environ []string) (*Config, error) {
	var fileMap map[string]any
	if path != "" {
		m, err := loadMap(fsys, path)
		if err != nil {
			return nil, err
		}
		fileMap = m
	}

	merged := DeepMerge(fileMap, envOverlay(environ))

	cfg := Default()
	if err := cfg.apply(merged); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// apply overlays a nested settings map onto the configuration. Unknown
// keys are ignored; known keys with the wrong type are errors.
func (c *Config) apply(m map[string]any) error {
	if m == nil {
		return nil
	}
	if err := applyString(m, "eol", &c.EOL); err != nil {
		return err
	}
	log, err := section(m, "log")
	if err != nil {
		return err
	}
	if log != nil {
		if err := applyString(log, "level", &c.Log.Level); err != nil {
			return fmt.Errorf("log: %w", err)
		}
		if err := applyString(log, "file", &c.Log.File); err != nil {
			return fmt.Errorf("log: %w", err)
		}
	}
	backup, err := section(m, "backup")
	if err != nil {
		return err
	}
	if backup != nil {
		if err := applyBool(backup, "enabled", &c.Backup.Enabled); err != nil {
			return fmt.Errorf("backup: %w", err)
		}
		if err := applyString(backup, "path", &c.Backup.Path); err != nil {
			return fmt.Errorf("backup: %w", err)
		}
	}
	save, err := section(m, "save")
	if err != nil {
		return err
	}
	if save != nil {
		if err := applyBool(save, "include_text", &c.Save.IncludeText); err != nil {
			return fmt.Errorf("save: %w", err)
		}
	}
	w, err := section(m, "words")
	if err != nil {
		return err
	}
	if w != nil {
		if c.Words == nil {
			c.Words = make(map[string]string, len(w))
		}
		for lang, v := range w {
			s, ok := v.(string)
			if !ok {
				return fmt.Errorf("words.%s: expected string, got %T", lang, v)
			}
			c.Words[lang] = s
		}
	}
	if v, ok := m["scripts"]; ok {
		scripts, err := stringSlice(v)
		if err != nil {
			return fmt.Errorf("scripts: %w", err)
		}
		c.Scripts = scripts
	}
	return nil
}

// Validate checks field values and compiles every word pattern.
func (c *Config) Validate() error {
	if c.EOL != "auto" {
		if _, ok := textstore.ParseLineEnding(c.EOL); !ok {
			return fmt.Errorf("eol: unknown value %q", c.EOL)
		}
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level: unknown value %q", c.Log.Level)
	}
	if _, err := c.WordRegistry(); err != nil {
		return err
	}
	return nil
}

// WordRegistry compiles the configured word patterns into a registry.
func (c *Config) WordRegistry() (*words.Registry, error) {
	reg := words.NewRegistry()
	langs := make([]string, 0, len(c.Words))
	for lang := range c.Words {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	for _, lang := range langs {
		if err := reg.Register(lang, c.Words[lang]); err != nil {
			return nil, fmt.Errorf("words.%s: %w", lang, err)
		}
	}
	return reg, nil
}

// LineEnding returns the forced terminator when EOL is not auto.
func (c *Config) LineEnding() (textstore.LineEnding, bool) {
	if c.EOL == "auto" {
		return 0, false
	}
	return textstore.ParseLineEnding(c.EOL)
}

func section(m map[string]any, key string) (map[string]any, error) {
	v, ok := m[key]
	if !ok {
		return nil, nil
	}
	sub, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%s: expected table, got %T", key, v)
	}
	return sub, nil
}

func applyString(m map[string]any, key string, dst *string) error {
	v, ok := m[key]
	if !ok {
		return nil
	}
	s, ok := v.(string)
	if !ok {
		return fmt.Errorf("%s: expected string, got %T", key, v)
	}
	*dst = s
	return nil
}

func applyBool(m map[string]any, key string, dst *bool) error {
	v, ok := m[key]
	if !ok {
		return nil
	}
	b, ok := v.(bool)
	if !ok {
		return fmt.Errorf("%s: expected bool, got %T", key, v)
	}
	*dst = b
	return nil
}

func stringSlice(v any) ([]string, error) {
	switch vals := v.(type) {
	case []string:
		return vals, nil
	case []any:
		out := make([]string, 0, len(vals))
		for _, item := range vals {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("expected string element, got %T", item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected array, got %T", v)
	}
}
