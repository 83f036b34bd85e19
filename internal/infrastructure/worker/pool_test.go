package worker_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Baize0412/hm-dianping/internal/infrastructure/worker"
)

func TestPool_RunsTasks(t *testing.T) {
	p := worker.NewPool("test", 4, worker.OverflowBlock, nil)

	var n atomic.Int32
	for i := 0; i < 10; i++ {
		require.True(t, p.Submit("inc", func(context.Context) { n.Add(1) }))
	}
	require.NoError(t, p.Close(context.Background()))
	require.Equal(t, int32(10), n.Load())
}

func TestPool_DropWhenSaturated(t *testing.T) {
	p := worker.NewPool("test", 1, worker.OverflowDrop, nil)

	release := make(chan struct{})
	started := make(chan struct{})
	require.True(t, p.Submit("hold", func(context.Context) {
		close(started)
		<-release
	}))
	<-started

	require.False(t, p.Submit("extra", func(context.Context) {}))

	close(release)
	require.NoError(t, p.Close(context.Background()))
}

func TestPool_BlockWaitsForSlot(t *testing.T) {
	p := worker.NewPool("test", 1, worker.OverflowBlock, nil)

	release := make(chan struct{})
	require.True(t, p.Submit("hold", func(context.Context) { <-release }))

	var ran atomic.Bool
	submitted := make(chan bool)
	go func() { submitted <- p.Submit("second", func(context.Context) { ran.Store(true) }) }()

	select {
	case <-submitted:
		t.Fatal("submit should block while the only worker is busy")
	case <-time.After(50 * time.Millisecond):
	}
	close(release)
	require.True(t, <-submitted)
	require.NoError(t, p.Close(context.Background()))
	require.True(t, ran.Load())
}

func TestPool_TaskContextIsPoolContext(t *testing.T) {
	p := worker.NewPool("test", 1, worker.OverflowDrop, nil)

	reqCtx, cancel := context.WithCancel(context.Background())
	var got context.Context
	var wg sync.WaitGroup
	wg.Add(1)
	require.True(t, p.Submit("ctx", func(ctx context.Context) {
		defer wg.Done()
		got = ctx
	}))
	cancel()
	wg.Wait()

	require.Error(t, reqCtx.Err())
	require.NoError(t, got.Err())
	require.NoError(t, p.Close(context.Background()))
	require.Error(t, got.Err())
}

func TestPool_RecoversPanics(t *testing.T) {
	p := worker.NewPool("test", 1, worker.OverflowBlock, nil)

	require.True(t, p.Submit("boom", func(context.Context) { panic("boom") }))
	var ran atomic.Bool
	require.True(t, p.Submit("after", func(context.Context) { ran.Store(true) }))
	require.NoError(t, p.Close(context.Background()))
	require.True(t, ran.Load())
}

func TestPool_RejectsAfterClose(t *testing.T) {
	p := worker.NewPool("test", 1, worker.OverflowBlock, nil)
	require.NoError(t, p.Close(context.Background()))
	require.False(t, p.Submit("late", func(context.Context) {}))
}

func TestPool_CloseHonoursDeadline(t *testing.T) {
	p := worker.NewPool("test", 1, worker.OverflowDrop, nil)
	release := make(chan struct{})
	defer close(release)
	require.True(t, p.Submit("stuck", func(context.Context) { <-release }))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.Error(t, p.Close(ctx))
}
