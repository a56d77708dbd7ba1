// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/jllopis/scriptcrew/pkg/agent"
	"github.com/jllopis/scriptcrew/pkg/audit"
	"github.com/jllopis/scriptcrew/pkg/config"
	"github.com/jllopis/scriptcrew/pkg/core"
	"github.com/jllopis/scriptcrew/pkg/crew"
	"github.com/jllopis/scriptcrew/pkg/errors"
	"github.com/jllopis/scriptcrew/pkg/jobs"
	"github.com/jllopis/scriptcrew/pkg/llm"
	"github.com/jllopis/scriptcrew/pkg/registry"
	"github.com/jllopis/scriptcrew/pkg/resilience"
	"github.com/jllopis/scriptcrew/pkg/telemetry"
	"github.com/jllopis/scriptcrew/providers/anthropic"
	"github.com/jllopis/scriptcrew/providers/openai"
)

const defaultOllamaModel = "llama3.1"

// app is the wired process: registries, agents, crew and the jobs manager
// built once from configuration and shared by every run.
type app struct {
	logger    *slog.Logger
	telemetry *telemetry.Telemetry
	manager   *jobs.Manager
	audit     audit.Store
}

func newApp(cfg *config.Config, logOutput io.Writer) (*app, error) {
	logger := telemetry.ConfigureSlog(logOutput, cfg.Log.Level, cfg.Log.Format)

	tel, err := telemetry.Init(cfg.Telemetry.ServiceName, version, telemetry.Config{
		Exporter:     cfg.Telemetry.Exporter,
		OTLPEndpoint: cfg.Telemetry.OTLPEndpoint,
		OTLPInsecure: cfg.Telemetry.OTLPInsecure,
	})
	if err != nil {
		return nil, errors.New(errors.CodeConfiguration, "telemetry init failed", err)
	}
	a := &app{logger: logger, telemetry: tel}

	manager, store, err := buildManager(cfg, logger)
	if err != nil {
		a.close()
		return nil, err
	}
	a.manager = manager
	a.audit = store

	logger.Info("scriptcrew ready",
		slog.String("version", version),
		slog.String("llm_provider", cfg.LLM.Provider),
		slog.String("telemetry", cfg.Telemetry.Exporter),
		slog.String("audit", cfg.Audit.Driver),
	)
	return a, nil
}

// buildManager wires everything below the transport: catalogs, provider,
// agents, crew and audit.
func buildManager(cfg *config.Config, logger *slog.Logger) (*jobs.Manager, audit.Store, error) {
	defs, templates, err := registry.Load(cfg)
	if err != nil {
		return nil, nil, err
	}

	provider, err := newProvider(cfg.LLM)
	if err != nil {
		return nil, nil, err
	}
	provider = resilience.WrapProvider(provider, retryConfig(cfg.Resilience), cfg.Resilience.Timeout, logger)

	agentOpts := []agent.Option{agent.WithMaxTokens(cfg.LLM.MaxTokens)}
	if model := modelFor(cfg.LLM); model != "" {
		agentOpts = append(agentOpts, agent.WithModel(model))
	}
	if cfg.LLM.Temperature > 0 {
		agentOpts = append(agentOpts, agent.WithTemperature(cfg.LLM.Temperature))
	}
	agents := make(map[core.AgentRole]core.Agent, len(core.AgentRoles()))
	for _, role := range core.AgentRoles() {
		def, err := defs.Get(role)
		if err != nil {
			return nil, nil, err
		}
		ag, err := agent.New(def, provider, agentOpts...)
		if err != nil {
			return nil, nil, errors.New(errors.CodeConfiguration, "invalid agent settings", err).
				WithContext("role", string(role))
		}
		agents[role] = ag
	}

	builder, err := crew.NewBuilder(templates, agents)
	if err != nil {
		return nil, nil, err
	}

	store, err := newAuditStore(cfg.Audit)
	if err != nil {
		return nil, nil, err
	}
	metrics, err := telemetry.NewPipelineMetrics()
	if err != nil {
		return nil, nil, err
	}

	c := crew.New(
		crew.WithLogger(logger),
		crew.WithAuditStore(store),
		crew.WithMetrics(metrics),
	)
	return jobs.NewManager(builder, c, jobs.WithLogger(logger), jobs.WithMetrics(metrics)), store, nil
}

func newProvider(cfg config.LLMConfig) (llm.Provider, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", "ollama":
		return llm.NewOllama(cfg.BaseURL), nil
	case "openai":
		var opts []openai.Option
		if cfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
		}
		if cfg.APIKey != "" {
			opts = append(opts, openai.WithAPIKey(cfg.APIKey))
		}
		return openai.New(opts...), nil
	case "anthropic":
		opts := []anthropic.Option{anthropic.WithMaxTokens(cfg.MaxTokens)}
		if cfg.BaseURL != "" {
			opts = append(opts, anthropic.WithBaseURL(cfg.BaseURL))
		}
		if cfg.APIKey != "" {
			opts = append(opts, anthropic.WithAPIKey(cfg.APIKey))
		}
		return anthropic.New(opts...), nil
	case "mock":
		return &llm.MockProvider{}, nil
	default:
		return nil, errors.ConfigurationError("llm provider", cfg.Provider)
	}
}

func modelFor(cfg config.LLMConfig) string {
	if cfg.Model != "" {
		return cfg.Model
	}
	if cfg.Provider == "" || strings.EqualFold(cfg.Provider, "ollama") {
		return defaultOllamaModel
	}
	return ""
}

func retryConfig(cfg config.ResilienceConfig) resilience.RetryConfig {
	rc := resilience.DefaultRetryConfig().WithMaxAttempts(max(cfg.MaxAttempts, 1))
	if cfg.InitialDelay > 0 {
		rc = rc.WithInitialDelay(cfg.InitialDelay)
	}
	if cfg.MaxDelay > 0 {
		rc = rc.WithMaxDelay(cfg.MaxDelay)
	}
	return rc
}

func newAuditStore(cfg config.AuditConfig) (audit.Store, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", "none":
		return audit.Discard{}, nil
	case "memory":
		return audit.NewMemoryStore(), nil
	case "sqlite":
		store, err := audit.OpenSQLite(cfg.DSN)
		if err != nil {
			return nil, errors.New(errors.CodeConfiguration, "audit store unavailable", err).
				WithContext("driver", cfg.Driver)
		}
		return store, nil
	default:
		return nil, errors.ConfigurationError("audit driver", cfg.Driver)
	}
}

func (a *app) close() {
	if closer, ok := a.audit.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			a.logger.Warn("audit close", slog.String("error", err.Error()))
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.telemetry.Shutdown(ctx); err != nil {
		a.logger.Warn("telemetry shutdown", slog.String("error", fmt.Sprint(err)))
	}
}
