package main

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestRepl_ReturnsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	// A reader that never delivers a line, like an idle terminal.
	blocked, w := io.Pipe()
	t.Cleanup(func() { w.Close() })

	done := make(chan error, 1)
	go func() {
		done <- repl(ctx, blocked, nil, zap.NewNop())
	}()

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("repl did not return after cancellation")
	}
}

func TestRepl_QuitCommand(t *testing.T) {
	err := repl(context.Background(), strings.NewReader(":quit\n"), nil, zap.NewNop())
	assert.NoError(t, err)
}

func TestRepl_EOFReturnsNil(t *testing.T) {
	err := repl(context.Background(), strings.NewReader(""), nil, zap.NewNop())
	assert.NoError(t, err)
}
