package config

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/bartonlees/aforge/internal/logger"
	"gopkg.in/yaml.v3"
)

// SourceType selects the video source backend
type SourceType string

const (
	SourceTestPattern SourceType = "testpattern"
	SourceMJPEG       SourceType = "mjpeg"
	SourceScreen      SourceType = "screen"
)

// SourceConfig describes the video source to play
type SourceConfig struct {
	Type   SourceType `json:"type" yaml:"type"`
	URL    string     `json:"url,omitempty" yaml:"url,omitempty"`
	X      int        `json:"x" yaml:"x"`
	Y      int        `json:"y" yaml:"y"`
	Width  int        `json:"width" yaml:"width"`
	Height int        `json:"height" yaml:"height"`
	FPS    int        `json:"fps" yaml:"fps"`
}

// PlayerConfig holds the presentation settings
type PlayerConfig struct {
	AutoSize    bool   `json:"auto_size" yaml:"auto_size"`
	BorderColor string `json:"border_color" yaml:"border_color"`
	Timestamp   bool   `json:"timestamp" yaml:"timestamp"`
}

// DisplayConfig describes the X11 window host
type DisplayConfig struct {
	Width  int    `json:"width" yaml:"width"`
	Height int    `json:"height" yaml:"height"`
	Title  string `json:"title" yaml:"title"`
}

// StreamConfig describes the MJPEG broadcast output
type StreamConfig struct {
	Width   int `json:"width" yaml:"width"`
	Height  int `json:"height" yaml:"height"`
	FPS     int `json:"fps" yaml:"fps"`
	Quality int `json:"quality" yaml:"quality"`
}

// Config represents the application configuration
type Config struct {
	Source     SourceConfig  `json:"source" yaml:"source"`
	Player     PlayerConfig  `json:"player" yaml:"player"`
	Display    DisplayConfig `json:"display" yaml:"display"`
	Stream     StreamConfig  `json:"stream" yaml:"stream"`
	ServerPort int           `json:"server_port" yaml:"server_port"`
	LogLevel   string        `json:"log_level" yaml:"log_level"`
}

// Manager handles configuration
type Manager struct {
	configPath string
	config     *Config
	mu         sync.RWMutex
}

// NewManager creates a configuration manager backed by the given file, or
// the default path under the user's config directory when empty. A missing
// file is created with defaults.
func NewManager(configFile string) (*Manager, error) {
	actualConfigPath := configFile
	if actualConfigPath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir := filepath.Join(homeDir, ".config", "aforge")
		if err := os.MkdirAll(configDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create config directory: %w", err)
		}
		actualConfigPath = filepath.Join(configDir, "config.yaml")
	}

	m := &Manager{configPath: actualConfigPath}

	if err := m.load(); err != nil {
		if os.IsNotExist(err) {
			logger.WithComponent("config").Info().
				Str("path", m.configPath).
				Msg("Config file not found, creating new config")
			m.config = Defaults()
			if err := m.Save(); err != nil {
				return nil, fmt.Errorf("failed to create default config: %w", err)
			}
		} else {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	logger.WithComponent("config").Info().
		Str("path", m.configPath).
		Str("source", string(m.config.Source.Type)).
		Msg("Config loaded")
	return m, nil
}

// Defaults returns the default configuration
func Defaults() *Config {
	return &Config{
		Source: SourceConfig{
			Type:   SourceTestPattern,
			Width:  640,
			Height: 480,
			FPS:    25,
		},
		Player: PlayerConfig{
			AutoSize:    true,
			BorderColor: "#404040",
			Timestamp:   false,
		},
		Display: DisplayConfig{
			Width:  800,
			Height: 600,
			Title:  "aforge",
		},
		Stream: StreamConfig{
			Width:   800,
			Height:  600,
			FPS:     15,
			Quality: 90,
		},
		ServerPort: 8080,
		LogLevel:   "info",
	}
}

// load reads the configuration from disk
func (m *Manager) load() error {
	data, err := os.ReadFile(m.configPath)
	if err != nil {
		return err
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	m.mu.Lock()
	m.config = cfg
	m.mu.Unlock()
	return nil
}

// Save writes the configuration to disk
func (m *Manager) Save() error {
	m.mu.RLock()
	data, err := yaml.Marshal(m.config)
	m.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(m.configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Get returns a copy of the current configuration
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.config == nil {
		return Defaults()
	}
	cfg := *m.config
	return &cfg
}

// Update replaces the configuration and persists it
func (m *Manager) Update(cfg *Config) error {
	m.mu.Lock()
	m.config = cfg
	m.mu.Unlock()
	return m.Save()
}

// SetPort overrides the server port for this run (not persisted)
func (m *Manager) SetPort(port int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.config.ServerPort = port
}

// SetLogLevel overrides the log level for this run (not persisted)
func (m *Manager) SetLogLevel(level string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.config.LogLevel = level
}

// GetConfigPath returns the path of the backing file
func (m *Manager) GetConfigPath() string {
	return m.configPath
}

// ParseHexColor parses "#rrggbb" (or "rrggbb") into an opaque RGBA color
func ParseHexColor(s string) (color.RGBA, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return color.RGBA{}, fmt.Errorf("invalid color %q: want rrggbb", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return color.RGBA{
		R: uint8(v >> 16),
		G: uint8(v >> 8),
		B: uint8(v),
		A: 0xff,
	}, nil
}
