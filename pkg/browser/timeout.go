package browser

import (
	"fmt"
	"time"
)

// ErrTimeout is returned when a bounded driver call does not finish in time.
type ErrTimeout struct {
	Op    string
	After time.Duration
}

func (e *ErrTimeout) Error() string {
	return fmt.Sprintf("%s timed out after %s", e.Op, e.After)
}

// withTimeout runs fn and returns its result, or an *ErrTimeout once d has
// elapsed. A timed-out fn keeps running in the background; driver calls have
// no cancellation hook, and its result is discarded.
func withTimeout[T any](op string, d time.Duration, fn func() (T, error)) (T, error) {
	type result struct {
		v   T
		err error
	}
	ch := make(chan result, 1)
	go func() {
		v, err := fn()
		ch <- result{v, err}
	}()

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case r := <-ch:
		return r.v, r.err
	case <-timer.C:
		var zero T
		return zero, &ErrTimeout{Op: op, After: d}
	}
}
