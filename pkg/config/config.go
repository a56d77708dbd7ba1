// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads scriptcrew settings with koanf layering:
// built-in defaults, then a YAML file (plus an optional profile overlay),
// then SCRIPTCREW_* environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment override (SCRIPTCREW_LLM_MODEL -> llm.model).
const EnvPrefix = "SCRIPTCREW_"

type Config struct {
	Server     ServerConfig           `koanf:"server"`
	Log        LogConfig              `koanf:"log"`
	LLM        LLMConfig              `koanf:"llm"`
	Telemetry  TelemetryConfig        `koanf:"telemetry"`
	Resilience ResilienceConfig       `koanf:"resilience"`
	Audit      AuditConfig            `koanf:"audit"`
	Catalog    CatalogConfig          `koanf:"catalog"`
	Agents     map[string]AgentConfig `koanf:"agents"`
	Tasks      map[string]TaskConfig  `koanf:"tasks"`
}

type ServerConfig struct {
	Addr         string        `koanf:"addr"`
	CORSOrigins  []string      `koanf:"cors_origins"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // json, text
}

type LLMConfig struct {
	Provider    string  `koanf:"provider"` // ollama, openai, anthropic, mock
	Model       string  `koanf:"model"`
	BaseURL     string  `koanf:"base_url"`
	APIKey      string  `koanf:"api_key"`
	Temperature float64 `koanf:"temperature"`
	MaxTokens   int64   `koanf:"max_tokens"`
}

type TelemetryConfig struct {
	Exporter     string `koanf:"exporter"` // none, stdout, otlp, prometheus
	OTLPEndpoint string `koanf:"otlp_endpoint"`
	OTLPInsecure bool   `koanf:"otlp_insecure"`
	ServiceName  string `koanf:"service_name"`
}

// ResilienceConfig bounds each generation call. One attempt and no
// timeout leave the provider untouched.
type ResilienceConfig struct {
	MaxAttempts  int           `koanf:"max_attempts"`
	InitialDelay time.Duration `koanf:"initial_delay"`
	MaxDelay     time.Duration `koanf:"max_delay"`
	Timeout      time.Duration `koanf:"timeout"`
}

type AuditConfig struct {
	Driver string `koanf:"driver"` // none, memory, sqlite
	DSN    string `koanf:"dsn"`
}

// CatalogConfig points at standalone agent and task catalog files.
// Relative paths resolve against the directory of the main config file.
type CatalogConfig struct {
	AgentsFile string `koanf:"agents_file"`
	TasksFile  string `koanf:"tasks_file"`
}

// AgentConfig is one entry of the agent catalog.
type AgentConfig struct {
	Role      string `koanf:"role" yaml:"role"`
	Goal      string `koanf:"goal" yaml:"goal"`
	Backstory string `koanf:"backstory" yaml:"backstory"`
}

// TaskConfig is one entry of the task-template catalog.
type TaskConfig struct {
	Description    string `koanf:"description" yaml:"description"`
	ExpectedOutput string `koanf:"expected_output" yaml:"expected_output"`
	Agent          string `koanf:"agent" yaml:"agent"`
}

func setDefaults(k *koanf.Koanf) {
	k.Set("server.addr", ":8000")
	k.Set("server.cors_origins", []string{"*"})
	k.Set("server.read_timeout", "30s")
	k.Set("server.write_timeout", "5m")

	k.Set("log.level", "info")
	k.Set("log.format", "text")

	// Model and base URL stay empty so each provider applies its own default.
	k.Set("llm.provider", "ollama")
	k.Set("llm.max_tokens", 4096)

	k.Set("telemetry.exporter", "none")
	k.Set("telemetry.service_name", "scriptcrew")

	k.Set("resilience.max_attempts", 1)
	k.Set("resilience.initial_delay", "500ms")
	k.Set("resilience.max_delay", "10s")
	k.Set("resilience.timeout", "0s")

	k.Set("audit.driver", "none")
}

// Load reads configuration from path (optional) and the environment.
// When profile is set, config.<profile>.yaml next to path is merged on top.
func Load(path string, profile string) (*Config, error) {
	k := koanf.New(".")
	setDefaults(k)

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
		if profile != "" {
			profilePath := filepath.Join(filepath.Dir(path), fmt.Sprintf("config.%s.yaml", profile))
			if _, err := os.Stat(profilePath); err == nil {
				if err := k.Load(file.Provider(profilePath), yaml.Parser()); err != nil {
					return nil, fmt.Errorf("load %s profile: %w", profile, err)
				}
			}
		}
	}

	// Only the first underscore separates section from key, so
	// SCRIPTCREW_LLM_BASE_URL maps to llm.base_url.
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.Replace(strings.ToLower(
			strings.TrimPrefix(s, EnvPrefix)), "_", ".", 1)
	}), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.loadCatalogs(filepath.Dir(path)); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) loadCatalogs(baseDir string) error {
	if c.Catalog.AgentsFile != "" {
		agents, err := LoadAgentsFile(resolve(baseDir, c.Catalog.AgentsFile))
		if err != nil {
			return err
		}
		c.Agents = agents
	}
	if c.Catalog.TasksFile != "" {
		tasks, err := LoadTasksFile(resolve(baseDir, c.Catalog.TasksFile))
		if err != nil {
			return err
		}
		c.Tasks = tasks
	}
	if len(c.Agents) == 0 {
		agents, err := DefaultAgents()
		if err != nil {
			return err
		}
		c.Agents = agents
	}
	if len(c.Tasks) == 0 {
		tasks, err := DefaultTasks()
		if err != nil {
			return err
		}
		c.Tasks = tasks
	}
	return nil
}

func resolve(baseDir, p string) string {
	if filepath.IsAbs(p) || baseDir == "" {
		return p
	}
	return filepath.Join(baseDir, p)
}
