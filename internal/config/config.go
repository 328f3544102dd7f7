package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mgomes/obslive/internal/live"
)

const (
	defaultEmbedModel  = "embed-v4.0"
	defaultRerankModel = "rerank-v3.5"
	defaultEmbedDim    = 1024
	defaultResultLimit = 10
	defaultFailureRate = 0.2
)

type Config struct {
	CohereAPIKey string   `json:"cohere_api_key"`
	ObsidianDir  string   `json:"obsidian_dir"`
	EmbedModel   string   `json:"embed_model"`
	RerankModel  string   `json:"rerank_model"`
	EmbedDim     int      `json:"embed_dim"`
	ResultLimit  int      `json:"result_limit"`
	Debounce     Debounce `json:"debounce"`
	Demo         Demo     `json:"demo"`
}

// Debounce holds the per-source debounce windows in milliseconds.
type Debounce struct {
	RefreshMs int `json:"refresh_ms"`
	FilterMs  int `json:"filter_ms"`
	InputMs   int `json:"input_ms"`
}

// Demo configures the simulated backend used by olive -demo.
type Demo struct {
	// FailureRate is nil when unset; 0 turns simulated failures off.
	FailureRate *float64 `json:"failure_rate,omitempty"`
	MaxDelayMs  int      `json:"max_delay_ms"`
}

func (d Debounce) Windows() live.Windows {
	return live.Windows{
		Refresh: time.Duration(d.RefreshMs) * time.Millisecond,
		Filter:  time.Duration(d.FilterMs) * time.Millisecond,
		Input:   time.Duration(d.InputMs) * time.Millisecond,
	}
}

func (d Demo) Failure() float64 {
	if d.FailureRate == nil {
		return defaultFailureRate
	}
	return *d.FailureRate
}

func (d Demo) MaxDelay() time.Duration {
	return time.Duration(d.MaxDelayMs) * time.Millisecond
}

func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "obslive"), nil
}

func configPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

func DBPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "obslive.db"), nil
}

func LogPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "olive.log"), nil
}

func Load() (*Config, error) {
	path, err := configPath()
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadFile reads the config at path. A missing file yields the defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		cfg := &Config{}
		cfg.ApplyDefaults()
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	cfg.ApplyDefaults()

	return &cfg, nil
}

// ApplyEnv lets COHERE_API_KEY override the stored key.
func (c *Config) ApplyEnv() {
	if key := os.Getenv("COHERE_API_KEY"); key != "" {
		c.CohereAPIKey = key
	}
}

func (c *Config) ApplyDefaults() {
	if c.EmbedModel == "" {
		c.EmbedModel = defaultEmbedModel
	}
	if c.RerankModel == "" {
		c.RerankModel = defaultRerankModel
	}
	if c.EmbedDim == 0 {
		c.EmbedDim = defaultEmbedDim
	}
	if c.ResultLimit == 0 {
		c.ResultLimit = defaultResultLimit
	}

	windows := live.DefaultWindows()
	if c.Debounce.RefreshMs == 0 {
		c.Debounce.RefreshMs = int(windows.Refresh / time.Millisecond)
	}
	if c.Debounce.FilterMs == 0 {
		c.Debounce.FilterMs = int(windows.Filter / time.Millisecond)
	}
	if c.Debounce.InputMs == 0 {
		c.Debounce.InputMs = int(windows.Input / time.Millisecond)
	}

	if c.Demo.FailureRate == nil {
		rate := defaultFailureRate
		c.Demo.FailureRate = &rate
	}
	if c.Demo.MaxDelayMs == 0 {
		c.Demo.MaxDelayMs = 300
	}
}

func (c *Config) Save() error {
	path, err := configPath()
	if err != nil {
		return err
	}
	return c.SaveFile(path)
}

func (c *Config) SaveFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	data = append(data, '\n')
	return os.WriteFile(path, data, 0600)
}
