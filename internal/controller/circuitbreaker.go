package controller

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/codehealer/autofix-engine/internal/autofix"
)

// CircuitBreaker trips after maxFailures consecutive LLM errors and refuses
// further calls until resetTimeout has passed, at which point a single
// half-open probe is allowed through. It guards the one external call the
// Controller makes per iteration: the Generative fixer's LLM.Complete.
type CircuitBreaker struct {
	mu           sync.Mutex
	state        circuitState
	failures     int
	maxFailures  int
	resetTimeout time.Duration
	lastFailTime time.Time
}

type circuitState int

const (
	circuitClosed circuitState = iota
	circuitOpen
	circuitHalfOpen
)

func NewCircuitBreaker(maxFailures int, resetTimeout time.Duration) *CircuitBreaker {
	return &CircuitBreaker{maxFailures: maxFailures, resetTimeout: resetTimeout}
}

func (cb *CircuitBreaker) Execute(operation func() error) error {
	cb.mu.Lock()
	switch cb.state {
	case circuitOpen:
		if time.Since(cb.lastFailTime) > cb.resetTimeout {
			cb.state = circuitHalfOpen
		} else {
			cb.mu.Unlock()
			return fmt.Errorf("controller: circuit breaker open, LLM calls suspended")
		}
	}
	cb.mu.Unlock()

	err := operation()

	cb.mu.Lock()
	defer cb.mu.Unlock()
	if err != nil {
		cb.failures++
		cb.lastFailTime = time.Now()
		if cb.failures >= cb.maxFailures {
			cb.state = circuitOpen
		}
		return err
	}
	cb.failures = 0
	cb.state = circuitClosed
	return nil
}

// breakerLLM wraps an autofix.LLM so every Complete call is guarded by a
// CircuitBreaker, protecting the repair loop from hammering a provider that
// is already failing.
type breakerLLM struct {
	inner autofix.LLM
	cb    *CircuitBreaker
}

func (w *breakerLLM) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	var out string
	err := w.cb.Execute(func() error {
		var cerr error
		out, cerr = w.inner.Complete(ctx, prompt, maxTokens)
		return cerr
	})
	return out, err
}

// WithCircuitBreaker wraps the Controller's LLM so maxFailures consecutive
// failures suspend further calls for resetTimeout. A nil LLM is left alone.
func (c *Controller) WithCircuitBreaker(maxFailures int, resetTimeout time.Duration) *Controller {
	if c.LLM == nil {
		return c
	}
	c.LLM = &breakerLLM{inner: c.LLM, cb: NewCircuitBreaker(maxFailures, resetTimeout)}
	return c
}
