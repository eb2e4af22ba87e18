// Package config resolves runtime settings from the environment and an
// optional YAML file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/cvelens/cvelens/util"
)

// Source selector values accepted by the SOURCE setting.
const (
	SourceChain = "chain"
	SourceCVE   = "cve"
	SourceNVD   = "nvd"
	SourceOSV   = "osv"
)

const maxWorkers = 64

// Config holds every runtime setting of the service. Precedence is
// flags > environment > config file > defaults; the flag layer is applied
// by the CLI after Load.
type Config struct {
	Port        string `yaml:"port"`
	InputPath   string `yaml:"input"`
	Source      string `yaml:"source"`
	Workers     int    `yaml:"workers"`
	TimeoutSecs int    `yaml:"timeout_seconds"`
	MaxAttempts int    `yaml:"max_attempts"`
	NVDAPIKey   string `yaml:"-"`
	OpenAIKey   string `yaml:"-"`
	OpenAIModel string `yaml:"openai_model"`
	OpenAIURL   string `yaml:"openai_url"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Port:        "3000",
		InputPath:   "cves.txt",
		Source:      SourceChain,
		Workers:     8,
		TimeoutSecs: 10,
		MaxAttempts: 3,
	}
}

// Load builds the configuration from defaults, the optional YAML file at
// path, and the environment, in that order. An empty path skips the file
// layer; a named file that cannot be read is an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		content, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(content, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Port = util.GetEnvDefault("CVELENS_PORT", c.Port)
	c.InputPath = util.GetEnvDefault("CVELENS_INPUT", c.InputPath)
	c.Source = util.GetEnvDefault("CVELENS_SOURCE", c.Source)
	c.Workers = envInt("CVELENS_WORKERS", c.Workers)
	c.TimeoutSecs = envInt("CVELENS_TIMEOUT_SECONDS", c.TimeoutSecs)
	c.MaxAttempts = envInt("CVELENS_MAX_ATTEMPTS", c.MaxAttempts)
	c.NVDAPIKey = util.GetEnvDefault("NVD_API_KEY", c.NVDAPIKey)
	c.OpenAIKey = util.GetEnvDefault("OPENAI_API_KEY", c.OpenAIKey)
	c.OpenAIModel = util.GetEnvDefault("OPENAI_MODEL", c.OpenAIModel)
	c.OpenAIURL = util.GetEnvDefault("OPENAI_API_URL", c.OpenAIURL)
}

// Validate clamps the numeric settings into their working ranges and
// rejects an unknown source selector.
func (c *Config) Validate() error {
	if !util.Contains([]string{SourceChain, SourceCVE, SourceNVD, SourceOSV}, c.Source) {
		return fmt.Errorf("unknown source %q, expected one of chain, cve, nvd, osv", c.Source)
	}
	if c.Workers < 1 {
		c.Workers = 1
	}
	if c.Workers > maxWorkers {
		c.Workers = maxWorkers
	}
	if c.TimeoutSecs < 1 {
		c.TimeoutSecs = 1
	}
	if c.MaxAttempts < 1 {
		c.MaxAttempts = 1
	}
	return nil
}

// Timeout is the per-request upstream timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

func envInt(key string, defVal int) int {
	val := util.GetEnvDefault(key, "")
	if val == "" {
		return defVal
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defVal
	}
	return parsed
}
