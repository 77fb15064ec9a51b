package main

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(ctx context.Context, args ...string) error {
	rootCmd.SetOut(io.Discard)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(ctx)
}

func TestServeUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	require.NoError(t, run(ctx, "--adapter", "memory", "--addr", "127.0.0.1:0"))
	assert.GreaterOrEqual(t, time.Since(start), 150*time.Millisecond)
}

func TestRejectsRemoteBackend(t *testing.T) {
	err := run(context.Background(), "--adapter", "remote", "--addr", "127.0.0.1:0")
	require.Error(t, err)
}
