// SPDX-License-Identifier: Apache-2.0
package resilience

import (
	"context"
	"log/slog"
	"time"

	"github.com/jllopis/scriptcrew/pkg/llm"
)

// Provider decorates an llm.Provider with a per-attempt timeout and retries.
type Provider struct {
	next    llm.Provider
	retry   RetryConfig
	timeout time.Duration
	logger  *slog.Logger
}

// WrapProvider returns next unchanged when neither retries nor a timeout
// are configured.
func WrapProvider(next llm.Provider, retry RetryConfig, timeout time.Duration, logger *slog.Logger) llm.Provider {
	if retry.MaxAttempts <= 1 && timeout <= 0 {
		return next
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{next: next, retry: retry, timeout: timeout, logger: logger}
}

// Chat implements llm.Provider.
func (p *Provider) Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	var (
		resp    *llm.ChatResponse
		attempt int
	)
	err := p.retry.Do(ctx, func(ctx context.Context) error {
		attempt++
		if attempt > 1 {
			p.logger.WarnContext(ctx, "retrying generation call", "attempt", attempt, "model", req.Model)
		}
		return WithTimeout(ctx, p.timeout, func(ctx context.Context) error {
			var err error
			resp, err = p.next.Chat(ctx, req)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}
