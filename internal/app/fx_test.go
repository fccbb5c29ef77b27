package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"
)

func TestRunWorkerLoop_ContextOutlivesStartup(t *testing.T) {
	lc := fxtest.NewLifecycle(t)

	ctxCh := make(chan context.Context, 1)
	runWorkerLoop(lc, func(ctx context.Context) {
		ctxCh <- ctx
		<-ctx.Done()
	})

	// Simulate the start-up deadline expiring as soon as start returns.
	startCtx, cancelStart := context.WithCancel(context.Background())
	require.NoError(t, lc.Start(startCtx))
	cancelStart()

	var runCtx context.Context
	select {
	case runCtx = <-ctxCh:
	case <-time.After(time.Second):
		t.Fatal("worker loop was never started")
	}

	select {
	case <-runCtx.Done():
		t.Fatal("worker context expired with the start-up context")
	case <-time.After(50 * time.Millisecond):
	}

	require.NoError(t, lc.Stop(context.Background()))
	assert.Error(t, runCtx.Err())
}

func TestRunWorkerLoop_StopWaitsForLoop(t *testing.T) {
	lc := fxtest.NewLifecycle(t)

	finished := make(chan struct{})
	runWorkerLoop(lc, func(ctx context.Context) {
		<-ctx.Done()
		close(finished)
	})

	require.NoError(t, lc.Start(context.Background()))
	require.NoError(t, lc.Stop(context.Background()))

	select {
	case <-finished:
	default:
		t.Fatal("stop returned before the worker loop exited")
	}
}

func TestRunWorkerLoop_StopDeadline(t *testing.T) {
	lc := fxtest.NewLifecycle(t)

	release := make(chan struct{})
	runWorkerLoop(lc, func(ctx context.Context) {
		<-release
	})
	defer close(release)

	require.NoError(t, lc.Start(context.Background()))

	stopCtx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.Error(t, lc.Stop(stopCtx))
}
