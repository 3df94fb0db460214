package main

import (
	"fmt"
	"sync"
)

// gracefulShutdown collects shutdown funcs registered by each server `serve`
// starts (the HTTP API, the MCP stdio server) and runs them all on signal,
// reporting every failure rather than stopping at the first. Adapted from
// improvements.go's GracefulShutdown.
type gracefulShutdown struct {
	mu    sync.Mutex
	funcs []func() error
}

func newGracefulShutdown() *gracefulShutdown {
	return &gracefulShutdown{}
}

func (gs *gracefulShutdown) addShutdownFunc(f func() error) {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	gs.funcs = append(gs.funcs, f)
}

func (gs *gracefulShutdown) run() error {
	gs.mu.Lock()
	funcs := append([]func() error(nil), gs.funcs...)
	gs.mu.Unlock()

	var errs []error
	for _, f := range funcs {
		if err := f(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}
	return nil
}
