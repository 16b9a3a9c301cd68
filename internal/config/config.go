// Package config provides YAML configuration file loading and validation.
// It handles environment variable expansion, default value application,
// and ensures all required configuration fields are present.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/dmagro/solrpc/internal/solana"
)

var ErrEndpointNotFound = errors.New("endpoint not found")

// Config represents the root configuration structure loaded from YAML.
type Config struct {
	Endpoints []Endpoint `yaml:"endpoints"`
	Defaults  Defaults   `yaml:"defaults"`
	Log       Log        `yaml:"log"`
	Capture   Capture    `yaml:"capture"`
	Metrics   Metrics    `yaml:"metrics"`
}

// Endpoint is one Solana JSON-RPC URL.
type Endpoint struct {
	Name    string            `yaml:"name"`
	URL     string            `yaml:"url"`               // supports ${VAR} expansion
	Timeout time.Duration     `yaml:"timeout,omitempty"` // inherits Defaults.Timeout
	Headers map[string]string `yaml:"headers,omitempty"`
}

type Defaults struct {
	Timeout    time.Duration `yaml:"timeout"`
	Commitment string        `yaml:"commitment"`
}

type Log struct {
	Level  string `yaml:"level"`  // zerolog level name
	Format string `yaml:"format"` // console or json
}

// Capture enables writing response bodies to Dir. Methods, when set,
// restricts which responses are captured.
type Capture struct {
	Dir     string   `yaml:"dir"`
	Methods []string `yaml:"methods"`
}

type Metrics struct {
	Listen string `yaml:"listen"`
}

// Validate checks the configuration and applies defaults where appropriate.
func (c *Config) Validate() error {
	if c.Defaults.Timeout <= 0 {
		return fmt.Errorf("defaults.timeout is required")
	}
	if c.Defaults.Commitment != "" {
		if _, ok := solana.ParseCommitment(c.Defaults.Commitment); !ok {
			return fmt.Errorf("defaults.commitment %q must be processed, confirmed or finalized", c.Defaults.Commitment)
		}
	}
	if len(c.Endpoints) == 0 {
		return fmt.Errorf("at least one endpoint is required")
	}

	if c.Log.Level == "" {
		c.Log.Level = zerolog.InfoLevel.String()
	}
	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch c.Log.Format {
	case "":
		c.Log.Format = "console"
	case "console", "json":
	default:
		return fmt.Errorf("log.format %q must be console or json", c.Log.Format)
	}

	if len(c.Capture.Methods) > 0 && c.Capture.Dir == "" {
		return fmt.Errorf("capture.methods requires capture.dir")
	}

	seen := make(map[string]bool, len(c.Endpoints))
	for i := range c.Endpoints {
		e := &c.Endpoints[i]
		if e.Name == "" {
			return fmt.Errorf("endpoint %d: name is required", i)
		}
		if seen[e.Name] {
			return fmt.Errorf("endpoint %s: duplicate name", e.Name)
		}
		seen[e.Name] = true

		if e.Timeout == 0 {
			e.Timeout = c.Defaults.Timeout
		}
		if e.URL == "" {
			return fmt.Errorf("endpoint %s: url is required", e.Name)
		}
		u, err := url.Parse(e.URL)
		if err != nil {
			return fmt.Errorf("endpoint %s: invalid url: %w", e.Name, err)
		}
		if u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("endpoint %s: invalid url (missing scheme or host)", e.Name)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("endpoint %s: invalid url scheme %q (expected http or https)", e.Name, u.Scheme)
		}
	}
	return nil
}

// Commitment returns the configured default commitment, empty when unset.
func (c *Config) Commitment() solana.Commitment {
	cm, _ := solana.ParseCommitment(c.Defaults.Commitment)
	return cm
}

// Endpoint returns the endpoint called name.
func (c *Config) Endpoint(name string) (Endpoint, error) {
	for _, e := range c.Endpoints {
		if e.Name == name {
			return e, nil
		}
	}
	return Endpoint{}, fmt.Errorf("%w: %s", ErrEndpointNotFound, name)
}

// Select narrows the endpoint list to name. An empty name keeps them all.
func (c *Config) Select(name string) ([]Endpoint, error) {
	if name == "" {
		return c.Endpoints, nil
	}
	e, err := c.Endpoint(name)
	if err != nil {
		return nil, err
	}
	return []Endpoint{e}, nil
}

// Load reads a YAML configuration file, expands ${VAR} references from the
// environment and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data)
}

// Parse is Load for configuration already in memory.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadEnv loads a .env file from the working directory. A missing file is
// not an error; variables already set in the environment win.
func LoadEnv() error {
	err := godotenv.Load()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	return nil
}
