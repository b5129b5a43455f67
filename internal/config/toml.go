// Package config provides configuration helpers and TOML parsing.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Collect     CollectConfig     `toml:"collect"`
	Query       QueryConfig       `toml:"query"`
	Replace     map[string]string `toml:"replace"`
	Skip        SkipConfig        `toml:"skip"`
	Modal       ModalConfig       `toml:"modal"`
	ProcessScan ProcessScanConfig `toml:"process-scan"`
	Contexts    []ContextRule     `toml:"context"`
}

// CollectConfig maps collection settings.
type CollectConfig struct {
	Devices       []string  `toml:"devices"`
	DB            *string   `toml:"db"`
	Translator    *string   `toml:"translator"`
	RestDuration  *Duration `toml:"rest-duration"`
	SaveMin       *int      `toml:"save-min"`
	SaveMax       *int      `toml:"save-max"`
	Filters       []string  `toml:"filters"`
	ContextPoll   *Duration `toml:"context-poll"`
	ContextSource *string   `toml:"context-source"`
}

// QueryConfig maps defaults for the query commands.
type QueryConfig struct {
	Contexts *string `toml:"contexts"`
	Limit    *int    `toml:"limit"`
	Format   *string `toml:"format"`
}

// SkipConfig lists actions that are never counted.
type SkipConfig struct {
	Actions []string `toml:"actions"`
}

// ModalConfig maps the modal navigation filter.
type ModalConfig struct {
	EnterMeta    []string `toml:"enter-meta"`
	ExitMeta     []string `toml:"exit-meta"`
	EnterMove    []string `toml:"enter-move"`
	MoveToPrefix string   `toml:"move-to-prefix"`
}

// ProcessScanConfig maps the process scan filter.
type ProcessScanConfig struct {
	Names    []string  `toml:"names"`
	Interval *Duration `toml:"interval"`
}

// ContextRule classifies window titles matching Title as Context.
type ContextRule struct {
	Title   string `toml:"title"`
	Context string `toml:"context"`
}

// Duration is a time.Duration written as "2s" or "500ms".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	if parsed < 0 {
		return fmt.Errorf("negative duration %q", text)
	}
	d.Duration = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, errors.New("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return FileConfig{}, fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
	}
	return cfg, nil
}
