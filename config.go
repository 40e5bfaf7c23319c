package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds configuration for the application
type Config struct {
	DataDir        string `yaml:"data_dir"`
	SearchURL      string `yaml:"search_url"`
	SearchAPIKey   string `yaml:"search_api_key"`
	SearchPageSize int    `yaml:"search_page_size"`
	Editor         string `yaml:"editor"`
	LogLevel       string `yaml:"log_level"`
	LogFile        string `yaml:"log_file"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		dataHome = filepath.Join(home, ".local", "share")
	}

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vi"
	}

	return &Config{
		DataDir:        filepath.Join(dataHome, "nosh"),
		SearchURL:      DefaultSearchURL,
		SearchAPIKey:   "DEMO_KEY",
		SearchPageSize: 10,
		Editor:         editor,
		LogLevel:       "warn",
	}
}

// TestConfig returns a configuration for testing
func TestConfig(testDir string) *Config {
	return &Config{
		DataDir:        filepath.Join(testDir, "data"),
		SearchURL:      "http://127.0.0.1:0/search",
		SearchAPIKey:   "TEST_KEY",
		SearchPageSize: 2,
		Editor:         "true",
		LogLevel:       "error",
	}
}

// ConfigPath returns the config file location: $NOSH_CONFIG, else
// config.yaml under $XDG_CONFIG_HOME/nosh (or ~/.config/nosh).
func ConfigPath() string {
	if p := os.Getenv("NOSH_CONFIG"); p != "" {
		return p
	}
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "nosh", "config.yaml")
}

// LoadConfig builds the configuration from, in increasing precedence,
// the defaults, the config file and the environment. A .env file in the
// working directory is read into the environment first.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	cfg := DefaultConfig()
	if err := cfg.loadFile(ConfigPath()); err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFile overlays the settings present in a YAML config file.
// A missing file is not an error.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("error reading config file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("error parsing config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	for name, field := range map[string]*string{
		"NOSH_DATA_DIR":   &c.DataDir,
		"NOSH_SEARCH_URL": &c.SearchURL,
		"NOSH_API_KEY":    &c.SearchAPIKey,
		"NOSH_EDITOR":     &c.Editor,
		"NOSH_LOG_LEVEL":  &c.LogLevel,
		"NOSH_LOG_FILE":   &c.LogFile,
	} {
		if v := os.Getenv(name); v != "" {
			*field = v
		}
	}

	if v := os.Getenv("NOSH_SEARCH_PAGE_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid NOSH_SEARCH_PAGE_SIZE %q: %w", v, err)
		}
		c.SearchPageSize = n
	}
	return nil
}

// Validate checks settings that would otherwise fail much later.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return errors.New("data directory is not set")
	}
	if c.SearchPageSize < 0 {
		return fmt.Errorf("search page size must not be negative, got %d", c.SearchPageSize)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return level, nil
}
