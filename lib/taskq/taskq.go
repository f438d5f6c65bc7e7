// Package taskq serializes work through a single consumer goroutine.
//
// Report generation mutates the shared donation cache, so two cycles must
// never overlap; funneling every request through one FIFO queue gives that
// guarantee without locks and without duplicate scrapes piling up.
package taskq

import (
	"context"
	"fmt"
	"log/slog"
)

type Task[T any] func(ctx context.Context) (T, error)

type result[T any] struct {
	value T
	err   error
}

type submission[T any] struct {
	ctx  context.Context
	task Task[T]
	out  chan result[T]
}

// Queue executes submitted tasks one at a time in submission order.
type Queue[T any] struct {
	ctx         context.Context
	submissions chan submission[T]
}

// New starts the consumer goroutine. The queue stops accepting work and
// drains when ctx is cancelled; tasks still enqueued at that point resolve
// with ctx.Err().
func New[T any](ctx context.Context, backlog int) *Queue[T] {
	q := &Queue[T]{
		ctx:         ctx,
		submissions: make(chan submission[T], backlog),
	}
	go q.consume(ctx)
	return q
}

func (q *Queue[T]) consume(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for {
				select {
				case sub := <-q.submissions:
					var zero T
					sub.out <- result[T]{zero, ctx.Err()}
				default:
					return
				}
			}
		case sub := <-q.submissions:
			sub.out <- run(sub)
		}
	}
}

// a panicking task must resolve its own caller without killing
// the consumer loop
func run[T any](sub submission[T]) (res result[T]) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("task panicked", "panic", r)
			var zero T
			res = result[T]{zero, fmt.Errorf("task panicked: %v", r)}
		}
	}()

	value, err := sub.task(sub.ctx)
	return result[T]{value, err}
}

// Submit enqueues the task and blocks until it has run to completion, or
// until ctx is cancelled while still waiting in line. A submission that
// arrives after the queue's own context ended resolves with that
// context's error rather than sitting in the channel with no consumer.
func (q *Queue[T]) Submit(ctx context.Context, task Task[T]) (T, error) {
	sub := submission[T]{
		ctx:  ctx,
		task: task,
		out:  make(chan result[T], 1),
	}

	var zero T
	select {
	case q.submissions <- sub:
	case <-ctx.Done():
		return zero, ctx.Err()
	case <-q.ctx.Done():
		return zero, q.ctx.Err()
	}

	select {
	case res := <-sub.out:
		return res.value, res.err
	case <-q.ctx.Done():
		return zero, q.ctx.Err()
	}
}
