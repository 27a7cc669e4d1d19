// Package bridge converts single-thread-affine, promise-style completions
// into values consumable by ordinary concurrent code.
//
// Browser file handles are not transferable across execution contexts: the
// code that touches them must run on the one logical thread that owns the
// global environment. A Loop is that thread. Callers never touch handles
// directly; they submit producer closures with Await or Enumerate, and the
// loop runs each producer to completion and delivers plain-data results
// back over a channel.
package bridge

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

var (
	// ErrTypeMismatch is returned when a bridged value does not have the
	// shape the caller declared.
	ErrTypeMismatch = errors.New("bridged value has unexpected type")

	// ErrLoopClosed is returned when submitting to a closed loop.
	ErrLoopClosed = errors.New("bridge loop closed")
)

// Error wraps any failure crossing the bridge: a failed producer, a
// type-mismatched result, or a closed loop.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return fmt.Sprintf("bridge: %s: %v", e.Op, e.Err) }

func (e *Error) Unwrap() error { return e.Err }

// Loop owns the execution context for handle operations. Producers submitted
// to the same loop run sequentially, cooperative-style; there is no
// cancellation of an in-flight producer and no timeout.
type Loop struct {
	tasks chan func()
	done  chan struct{}
	once  sync.Once
	log   *slog.Logger
}

// NewLoop starts a loop goroutine.
func NewLoop(log *slog.Logger) *Loop {
	if log == nil {
		log = slog.Default()
	}
	l := &Loop{
		tasks: make(chan func()),
		done:  make(chan struct{}),
		log:   log,
	}
	go l.run()
	return l
}

func (l *Loop) run() {
	l.log.Debug("bridge: loop started")
	for {
		select {
		case task := <-l.tasks:
			task()
		case <-l.done:
			l.log.Debug("bridge: loop stopped")
			return
		}
	}
}

// Close stops the loop. Producers already running finish; later submissions
// fail with ErrLoopClosed. Safe to call more than once.
func (l *Loop) Close() error {
	l.once.Do(func() { close(l.done) })
	return nil
}

func (l *Loop) submit(task func()) error {
	select {
	case l.tasks <- task:
		return nil
	case <-l.done:
		return ErrLoopClosed
	}
}

type completion struct {
	value any
	err   error
}

// Await runs producer on the loop goroutine and suspends the caller until
// its result is delivered. The result is validated against T before being
// handed over; a mismatch fails with *Error wrapping ErrTypeMismatch rather
// than undefined behavior, and a producer failure is never silently dropped.
func Await[T any](l *Loop, op string, producer func() (any, error)) (T, error) {
	var zero T
	slot := make(chan completion, 1)
	if err := l.submit(func() {
		v, err := producer()
		slot <- completion{value: v, err: err}
	}); err != nil {
		return zero, &Error{Op: op, Err: err}
	}
	c := <-slot
	if c.err != nil {
		return zero, &Error{Op: op, Err: c.err}
	}
	v, ok := c.value.(T)
	if !ok {
		return zero, &Error{Op: op, Err: fmt.Errorf("%w: got %T", ErrTypeMismatch, c.value)}
	}
	return v, nil
}

// Item is one element of an Enumerate stream. At most the final item
// carries a non-nil Err.
type Item[T any] struct {
	Value T
	Err   error
}

// Enumerate runs producer on the loop goroutine and returns the values it
// pushes through emit as a finite, non-restartable sequence. The channel is
// closed after the producer returns; a producer error is delivered as the
// last item. The producer holds the loop until the consumer drains it.
func Enumerate[T any](l *Loop, op string, producer func(emit func(T)) error) <-chan Item[T] {
	out := make(chan Item[T])
	err := l.submit(func() {
		defer close(out)
		if err := producer(func(v T) { out <- Item[T]{Value: v} }); err != nil {
			out <- Item[T]{Err: &Error{Op: op, Err: err}}
		}
	})
	if err != nil {
		go func() {
			out <- Item[T]{Err: &Error{Op: op, Err: err}}
			close(out)
		}()
	}
	return out
}
