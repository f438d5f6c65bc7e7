package taskq

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFifoOrder(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := New[int](ctx, 16)

	// hold the consumer on a blocker task so the remaining submissions
	// stack up in the queue in a known order
	release := make(chan struct{})
	blocked := make(chan struct{})
	go q.Submit(ctx, func(context.Context) (int, error) {
		close(blocked)
		<-release
		return -1, nil
	})
	<-blocked

	var mu sync.Mutex
	var order []int
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		i := i
		queued := make(chan struct{})
		wg.Add(1)
		go func() {
			defer wg.Done()
			close(queued)
			_, err := q.Submit(ctx, func(context.Context) (int, error) {
				mu.Lock()
				order = append(order, i)
				mu.Unlock()
				return i, nil
			})
			require.NoError(t, err)
		}()
		<-queued
		// submissions land on a channel, give each goroutine time
		// to actually enqueue before starting the next
		time.Sleep(2 * time.Millisecond)
	}

	close(release)
	wg.Wait()

	require.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7}, order)
}

func TestOneAtATime(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := New[struct{}](ctx, 16)

	var running, max int
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := q.Submit(ctx, func(context.Context) (struct{}, error) {
				mu.Lock()
				running++
				if running > max {
					max = running
				}
				mu.Unlock()

				time.Sleep(5 * time.Millisecond)

				mu.Lock()
				running--
				mu.Unlock()
				return struct{}{}, nil
			})
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	require.Equal(t, 1, max)
}

func TestFailureDoesNotAbortQueue(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := New[string](ctx, 4)

	boom := errors.New("boom")
	_, err := q.Submit(ctx, func(context.Context) (string, error) {
		return "", boom
	})
	require.ErrorIs(t, err, boom)

	_, err = q.Submit(ctx, func(context.Context) (string, error) {
		panic("oh no")
	})
	require.Error(t, err)

	got, err := q.Submit(ctx, func(context.Context) (string, error) {
		return "still alive", nil
	})
	require.NoError(t, err)
	require.Equal(t, "still alive", got)
}

func TestSubmitCancelledWhileWaiting(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := New[int](ctx, 0)

	release := make(chan struct{})
	go q.Submit(ctx, func(context.Context) (int, error) {
		<-release
		return 0, nil
	})
	// give the blocker a moment to occupy the consumer
	time.Sleep(10 * time.Millisecond)

	waitCtx, waitCancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer waitCancel()
	_, err := q.Submit(waitCtx, func(context.Context) (int, error) {
		return 1, nil
	})
	require.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
}

func TestSubmitAfterQueueStopped(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	q := New[int](ctx, 4)

	cancel()
	// let the consumer drain and exit before the late submission
	time.Sleep(10 * time.Millisecond)

	_, err := q.Submit(context.Background(), func(context.Context) (int, error) {
		return 1, nil
	})
	require.ErrorIs(t, err, context.Canceled)
}
