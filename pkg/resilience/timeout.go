// SPDX-License-Identifier: Apache-2.0
package resilience

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/jllopis/scriptcrew/pkg/errors"
)

// WithTimeout runs fn under a deadline of d. A zero d disables the bound.
// Exceeding the deadline yields a recoverable CodeTimeout error.
func WithTimeout(ctx context.Context, d time.Duration, fn func(ctx context.Context) error) error {
	if d <= 0 {
		return fn(ctx)
	}

	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	err := fn(ctx)
	if err != nil && stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
		return errors.New(errors.CodeTimeout, "operation exceeded timeout", err).
			WithContext("timeout", d.String()).
			WithRecoverable(true)
	}
	return err
}
