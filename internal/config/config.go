package config

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/prev/internal/logfields"
)

// File names probed in the project root, in order.
const (
	FileName    = ".prev.yaml"
	AltFileName = ".prev.yml"
)

// ErrConfigRead indicates an existing configuration file could not be read.
var ErrConfigRead = errors.New("configuration file read failed")

// Theme selects the site color scheme.
type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

// ContentWidth selects the page content layout.
type ContentWidth string

const (
	WidthConstrained ContentWidth = "constrained"
	WidthFull        ContentWidth = "full"
)

// Config is the project configuration stored in .prev.yaml.
type Config struct {
	Theme        Theme               `yaml:"theme" json:"theme"`
	ContentWidth ContentWidth        `yaml:"contentWidth" json:"contentWidth"`
	Hidden       []string            `yaml:"hidden" json:"hidden"`
	Order        map[string][]string `yaml:"order" json:"order"`
	Port         int                 `yaml:"port,omitempty" json:"port,omitempty"`
	Include      []string            `yaml:"include,omitempty" json:"include,omitempty"`
	Tailwind     bool                `yaml:"tailwind" json:"tailwind"`
	CDN          CDNConfig           `yaml:"cdn,omitempty" json:"cdn"`
	NATS         NATSConfig          `yaml:"nats,omitempty" json:"nats"`
	Cache        CacheConfig         `yaml:"cache,omitempty" json:"cache"`
}

// CDNConfig controls where bare preview imports are fetched from.
type CDNConfig struct {
	Base string            `yaml:"base,omitempty" json:"base,omitempty"`
	Pins map[string]string `yaml:"pins,omitempty" json:"pins,omitempty"`
}

// NATSConfig enables change and build notifications. Empty URL disables them.
type NATSConfig struct {
	URL     string `yaml:"url,omitempty" json:"url,omitempty"`
	Subject string `yaml:"subject,omitempty" json:"subject,omitempty"`
}

// CacheConfig controls the per-project cache directory.
type CacheConfig struct {
	MaxAgeDays int `yaml:"maxAgeDays,omitempty" json:"maxAgeDays,omitempty"`
}

// Defaults.
const (
	DefaultCDNBase     = "https://esm.sh"
	DefaultNATSSubject = "prev.events"
	DefaultMaxAgeDays  = 30
)

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Theme:        ThemeSystem,
		ContentWidth: WidthConstrained,
		Hidden:       []string{},
		Order:        map[string][]string{},
		Tailwind:     true,
		CDN:          CDNConfig{Base: DefaultCDNBase},
		NATS:         NATSConfig{Subject: DefaultNATSSubject},
		Cache:        CacheConfig{MaxAgeDays: DefaultMaxAgeDays},
	}
}

// FindFile returns the configuration file in rootDir, or "" when none exists.
func FindFile(rootDir string) string {
	for _, name := range []string{FileName, AltFileName} {
		p := filepath.Join(rootDir, name)
		if st, err := os.Stat(p); err == nil && !st.IsDir() {
			return p
		}
	}
	return ""
}

// Load reads the configuration for rootDir.
//
// A missing file yields defaults. A file that does not parse is reported as a
// warning and also yields defaults; individual invalid values fall back to
// their defaults. ${VAR} references are expanded from the environment.
func Load(rootDir string) (*Config, error) {
	path := FindFile(rootDir)
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Default(), fmt.Errorf("%w: %s: %w", ErrConfigRead, path, err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &raw); err != nil {
		slog.Warn("Failed to parse configuration, using defaults", logfields.Path(path), logfields.Error(err))
		return Default(), nil
	}
	return FromMap(raw), nil
}

// Save writes cfg to the existing configuration file of rootDir, or to
// .prev.yaml when there is none.
func Save(rootDir string, cfg *Config) error {
	path := FindFile(rootDir)
	if path == "" {
		path = filepath.Join(rootDir, FileName)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// UpdateOrder stores the item order for one navigation branch.
func UpdateOrder(rootDir, branch string, order []string) error {
	cfg, err := Load(rootDir)
	if err != nil {
		return err
	}
	if cfg.Order == nil {
		cfg.Order = map[string][]string{}
	}
	if order == nil {
		order = []string{}
	}
	cfg.Order[branch] = order
	return Save(rootDir, cfg)
}
