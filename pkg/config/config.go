package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/devraulu/linkscrub/pkg/cleaner"
	"github.com/pelletier/go-toml/v2"
)

type Config struct {
	DSN     string        `toml:"dsn"`
	Cleaner CleanerConfig `toml:"cleaner"`
	Server  ServerConfig  `toml:"server"`
	Logging LoggingConfig `toml:"logging"`
}

type CleanerConfig struct {
	UserAgent string       `toml:"user_agent"`
	Redirect  any          `toml:"redirect"` // "none", "*" or a list of domain suffixes
	Timeout   string       `toml:"timeout"`
	Workers   int          `toml:"workers"`
	Rules     []RuleConfig `toml:"rules"`
}

type RuleConfig struct {
	Pattern string   `toml:"pattern"`
	Reserve []string `toml:"reserve"`
}

type ServerConfig struct {
	Addr string `toml:"addr"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

func Default() *Config {
	var cfg Config
	cfg.Cleaner.Timeout = "10s"
	cfg.Cleaner.Workers = 4
	cfg.Server.Addr = ":8080"
	cfg.Logging.Format = "text"
	cfg.Logging.Level = "info"
	return &cfg
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// DefaultPath is where both binaries look for their configuration.
const DefaultPath = "config.toml"

// LoadOrDefault loads path, falling back to Default when path is DefaultPath
// and the file does not exist. An explicitly named file must exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) && path == DefaultPath {
		return Default(), nil
	}
	return cfg, err
}

func Parse(data []byte) (*Config, error) {
	cfg := Default()

	err := toml.Unmarshal(data, cfg)
	if err != nil {
		return nil, err
	}

	if cfg.Cleaner.Workers < 1 {
		cfg.Cleaner.Workers = 1
	}

	return cfg, nil
}

func (c *CleanerConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil || d <= 0 {
		return cleaner.DefaultTimeout // Fallback
	}
	return d
}

// Build compiles the rules and redirect policy. Pattern errors surface here,
// never while cleaning.
func (c *CleanerConfig) Build() (cleaner.Options, error) {
	policy, err := cleaner.ParseRedirectPolicy(c.Redirect)
	if err != nil {
		return cleaner.Options{}, fmt.Errorf("cleaner.redirect: %w", err)
	}

	rules := make([]cleaner.ReserveRule, 0, len(c.Rules))
	for i, rc := range c.Rules {
		rule, err := cleaner.CompileReserveRule(rc.Pattern, rc.Reserve)
		if err != nil {
			return cleaner.Options{}, fmt.Errorf("cleaner.rules[%d]: %w", i, err)
		}
		rules = append(rules, rule)
	}

	return cleaner.Options{
		RedirectPolicy: policy,
		Rules:          rules,
		UserAgent:      c.UserAgent,
		Timeout:        c.GetTimeout(),
	}, nil
}
