// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"bytes"
	"embed"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults/agents.yaml defaults/tasks.yaml
var defaultCatalog embed.FS

// LoadAgentsFile reads an agent catalog keyed by role name.
func LoadAgentsFile(path string) (map[string]AgentConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read agent catalog: %w", err)
	}
	return ParseAgents(data)
}

// LoadTasksFile reads a task-template catalog keyed by template name.
func LoadTasksFile(path string) (map[string]TaskConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read task catalog: %w", err)
	}
	return ParseTasks(data)
}

// ParseAgents decodes an agent catalog. Unknown fields are rejected.
func ParseAgents(data []byte) (map[string]AgentConfig, error) {
	out := make(map[string]AgentConfig)
	if err := decodeStrict(data, &out); err != nil {
		return nil, fmt.Errorf("parse agent catalog: %w", err)
	}
	return out, nil
}

// ParseTasks decodes a task-template catalog. Unknown fields are rejected.
func ParseTasks(data []byte) (map[string]TaskConfig, error) {
	out := make(map[string]TaskConfig)
	if err := decodeStrict(data, &out); err != nil {
		return nil, fmt.Errorf("parse task catalog: %w", err)
	}
	return out, nil
}

// DefaultAgents returns the built-in agent catalog.
func DefaultAgents() (map[string]AgentConfig, error) {
	data, err := defaultCatalog.ReadFile("defaults/agents.yaml")
	if err != nil {
		return nil, err
	}
	return ParseAgents(data)
}

// DefaultTasks returns the built-in task-template catalog.
func DefaultTasks() (map[string]TaskConfig, error) {
	data, err := defaultCatalog.ReadFile("defaults/tasks.yaml")
	if err != nil {
		return nil, err
	}
	return ParseTasks(data)
}

func decodeStrict(data []byte, out any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil && err != io.EOF {
		return err
	}
	return nil
}
