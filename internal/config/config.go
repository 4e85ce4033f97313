// Package config holds the CLI configuration: built-in defaults, an optional
// YAML file, and command-line overrides.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"sigs.k8s.io/yaml"

	"github.com/marcuoli/go-portscan/pkg/portscan"
	"github.com/marcuoli/go-portscan/pkg/portscan/probe"
)

// Duration is a time.Duration that reads and writes as a Go duration string ("300ms").
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("duration must be a string like \"500ms\": %w", err)
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Config is the scanner configuration. Field names are the YAML keys.
type Config struct {
	Workers     int      `json:"workers"`
	Timeout     Duration `json:"timeout"`
	DNSServers  []string `json:"dns_servers,omitempty"`
	Enrich      bool     `json:"enrich"`
	OUIDatabase string   `json:"oui_database,omitempty"`
	// DebugLevel is one of "off", "basic", "verbose".
	DebugLevel string `json:"debug_level"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Workers:    portscan.DefaultWorkers,
		Timeout:    Duration(probe.DefaultTimeout),
		DebugLevel: "off",
	}
}

// Load reads a YAML file over the defaults. Keys absent from the file keep
// their default values.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if c.Workers < 1 || c.Workers > portscan.MaxWorkers {
		return &portscan.ValidationError{Field: "workers", Value: c.Workers, Err: portscan.ErrInvalidWorkers}
	}
	if c.Timeout <= 0 {
		return &portscan.ValidationError{Field: "timeout", Value: time.Duration(c.Timeout), Err: portscan.ErrInvalidTimeout}
	}
	if _, err := ParseDebugLevel(c.DebugLevel); err != nil {
		return err
	}
	return nil
}

// ScanOptions converts the configuration to scanner options.
func (c Config) ScanOptions() portscan.Options {
	return portscan.Options{Workers: c.Workers, Timeout: time.Duration(c.Timeout)}
}

// ParseDebugLevel maps a level name to a portscan.DebugLevel. Empty means off.
func ParseDebugLevel(s string) (portscan.DebugLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "off":
		return portscan.DebugOff, nil
	case "basic", "debug":
		return portscan.DebugBasic, nil
	case "verbose":
		return portscan.DebugVerbose, nil
	default:
		return portscan.DebugOff, fmt.Errorf("unknown debug level %q", s)
	}
}

// Marshal renders the configuration as YAML.
func (c Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
