package main

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGracefulShutdown_RunsEveryRegisteredFunc(t *testing.T) {
	gs := newGracefulShutdown()
	ran := 0
	gs.addShutdownFunc(func() error { ran++; return nil })
	gs.addShutdownFunc(func() error { ran++; return nil })

	assert.NoError(t, gs.run())
	assert.Equal(t, 2, ran)
}

func TestGracefulShutdown_CollectsAllErrorsInsteadOfStoppingAtFirst(t *testing.T) {
	gs := newGracefulShutdown()
	secondRan := false
	gs.addShutdownFunc(func() error { return errors.New("first failed") })
	gs.addShutdownFunc(func() error { secondRan = true; return errors.New("second failed") })

	err := gs.run()
	assert.Error(t, err)
	assert.True(t, secondRan)
	assert.ErrorContains(t, err, "first failed")
	assert.ErrorContains(t, err, "second failed")
}
