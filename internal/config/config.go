// Package config loads and validates the service configuration.
//
// DESIGN: All configuration comes from a YAML file. Values support
// ${VAR} and ${VAR:-default} environment expansion so deployments can
// inject regions and paths without editing files. Validation is strict:
// missing required fields fail startup, not first use.
package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so values like "30s" or "5m" parse from
// YAML. The yaml.v3 decoder has no native time.Duration support.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns the wrapped standard library duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the root configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`  // HTTP server settings
	Store   StoreConfig   `yaml:"store"`   // conversation database
	Bedrock BedrockConfig `yaml:"bedrock"` // inference endpoint settings
	Chat    ChatConfig    `yaml:"chat"`    // turn loop settings
	Search  SearchConfig  `yaml:"search"`  // web search tool settings
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port         int      `yaml:"port"`          // port to listen on
	ReadTimeout  Duration `yaml:"read_timeout"`  // max time to read request
	WriteTimeout Duration `yaml:"write_timeout"` // max time to write response
}

// StoreConfig contains conversation database settings.
type StoreConfig struct {
	Path string `yaml:"path"` // SQLite file path, or ":memory:"
}

// BedrockConfig contains inference endpoint settings.
type BedrockConfig struct {
	Region    string   `yaml:"region"`     // AWS region for bedrock-runtime
	Endpoint  string   `yaml:"endpoint"`   // base URL override (tests/private endpoints)
	Timeout   Duration `yaml:"timeout"`    // per-invocation timeout
	MaxTokens int      `yaml:"max_tokens"` // completion budget

	// Overrides are JSON paths patched onto built request bodies,
	// keyed by provider prefix.
	Overrides map[string]map[string]any `yaml:"overrides"`
}

// ChatConfig contains turn loop settings.
type ChatConfig struct {
	MaxTurns int `yaml:"max_turns"` // model invocations per request
}

// SearchConfig contains web search tool settings.
type SearchConfig struct {
	Enabled     bool     `yaml:"enabled"`
	Headless    bool     `yaml:"headless"`
	ChromePath  string   `yaml:"chrome_path"`
	MaxResults  int      `yaml:"max_results"`
	TokenBudget int      `yaml:"token_budget"`
	PageTimeout Duration `yaml:"page_timeout"`
}

// envPattern matches ${VAR} or ${VAR:-default}.
var envPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandEnvWithDefaults expands ${VAR} and ${VAR:-default} references.
func expandEnvWithDefaults(s string) string {
	return envPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := envPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}
		if value := os.Getenv(parts[1]); value != "" {
			return value
		}
		if len(parts) > 2 {
			return parts[2]
		}
		return ""
	})
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config file path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
	}
	return LoadFromBytes(data)
}

// LoadFromBytes parses configuration from raw YAML bytes, expanding
// environment references and validating the result.
func LoadFromBytes(data []byte) (*Config, error) {
	expanded := expandEnvWithDefaults(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks required fields and ranges.
func (c *Config) Validate() error {
	if c.Server.Port == 0 {
		return fmt.Errorf("server.port is required")
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port: %d (must be 1-65535)", c.Server.Port)
	}
	if c.Server.ReadTimeout == 0 {
		return fmt.Errorf("server.read_timeout is required")
	}
	if c.Server.WriteTimeout == 0 {
		return fmt.Errorf("server.write_timeout is required")
	}

	if c.Store.Path == "" {
		return fmt.Errorf("store.path is required")
	}

	if c.Bedrock.Region == "" && c.Bedrock.Endpoint == "" {
		return fmt.Errorf("bedrock.region is required when bedrock.endpoint is not set")
	}
	if c.Bedrock.Timeout < 0 {
		return fmt.Errorf("bedrock.timeout must not be negative")
	}
	if c.Bedrock.MaxTokens < 0 {
		return fmt.Errorf("bedrock.max_tokens must not be negative")
	}

	if c.Chat.MaxTurns < 0 {
		return fmt.Errorf("chat.max_turns must not be negative")
	}

	if c.Search.Enabled {
		if c.Search.MaxResults < 0 {
			return fmt.Errorf("search.max_results must not be negative")
		}
		if c.Search.TokenBudget < 0 {
			return fmt.Errorf("search.token_budget must not be negative")
		}
	}
	return nil
}
