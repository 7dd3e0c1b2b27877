package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all letterpuzzle configuration.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Store  StoreConfig  `yaml:"store"`
	Lookup LookupConfig `yaml:"lookup"`
	Puzzle PuzzleConfig `yaml:"puzzle"`
	Gemini GeminiConfig `yaml:"gemini"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Port string `yaml:"port"`
}

// StoreConfig selects the letter document store.
type StoreConfig struct {
	Driver string `yaml:"driver"` // sqlite, bolt, memory
	Path   string `yaml:"path"`
}

// LookupConfig points sessions at a remote lookup service. When BaseURL is
// empty letters are read from the local store.
type LookupConfig struct {
	BaseURL string `yaml:"base_url"`
	Timeout string `yaml:"timeout"`
}

// PuzzleConfig configures the tiles a player may use.
type PuzzleConfig struct {
	Alphabet string `yaml:"alphabet"`
}

// GeminiConfig enables equation scanning from photos.
type GeminiConfig struct {
	ProjectID string `yaml:"project_id"`
	Region    string `yaml:"region"`
	Model     string `yaml:"model"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{Port: "5000"},
		Store:  StoreConfig{Driver: "sqlite", Path: "letterpuzzle.db"},
		Lookup: LookupConfig{Timeout: "5s"},
		Puzzle: PuzzleConfig{Alphabet: DefaultAlphabet.String()},
		Gemini: GeminiConfig{Region: defaultRegion, Model: defaultModel},
	}
}

// LoadConfig reads path over the defaults and applies environment overrides.
// A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}
	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("PORT"); v != "" {
		c.Server.Port = v
	}
	if v := os.Getenv("DB_URL"); v != "" {
		c.Store.Path = v
	}
	if v := os.Getenv("STORE_DRIVER"); v != "" {
		c.Store.Driver = v
	}
	if v := os.Getenv("LOOKUP_URL"); v != "" {
		c.Lookup.BaseURL = v
	}
	if v := os.Getenv("GCP_PROJECT_ID"); v != "" {
		c.Gemini.ProjectID = v
	}
	if v := os.Getenv("GCP_REGION"); v != "" {
		c.Gemini.Region = v
	}
}

// Validate checks values that cannot be fixed by defaults.
func (c *Config) Validate() error {
	if _, err := c.LookupTimeout(); err != nil {
		return err
	}
	if _, err := c.Alphabet(); err != nil {
		return fmt.Errorf("puzzle.alphabet: %w", err)
	}
	switch c.Store.Driver {
	case "sqlite", "bolt", "memory":
	default:
		return fmt.Errorf("store.driver: unknown driver %q", c.Store.Driver)
	}
	return nil
}

// LookupTimeout parses the lookup timeout, defaulting when unset.
func (c *Config) LookupTimeout() (time.Duration, error) {
	if c.Lookup.Timeout == "" {
		return defaultLookupTimeout, nil
	}
	d, err := time.ParseDuration(c.Lookup.Timeout)
	if err != nil {
		return 0, fmt.Errorf("lookup.timeout: %w", err)
	}
	return d, nil
}

// Alphabet parses the configured puzzle alphabet.
func (c *Config) Alphabet() (Alphabet, error) {
	if c.Puzzle.Alphabet == "" {
		return DefaultAlphabet, nil
	}
	return ParseAlphabet(c.Puzzle.Alphabet)
}
