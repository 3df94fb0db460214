package llmclient

import (
	"context"
	"fmt"
	"time"
)

// retryWithBackoff retries operation with exponential backoff capped at 30s.
// Client uses it around the provider HTTP call so a single dropped
// connection doesn't fail an entire repair iteration.
func retryWithBackoff(ctx context.Context, operation func() error, maxRetries int, baseDelay time.Duration) error {
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := operation(); err != nil {
			lastErr = err
			if attempt < maxRetries {
				delay := time.Duration(1<<uint(attempt)) * baseDelay
				if delay > 30*time.Second {
					delay = 30 * time.Second
				}
				select {
				case <-time.After(delay):
					continue
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		} else {
			return nil
		}
	}

	return fmt.Errorf("operation failed after %d attempts: %w", maxRetries+1, lastErr)
}
