package flow_test

import (
	"sync"
	"sync/atomic"
)

// fakeFeed is a scanner feed backed by plain channels, for driving the
// controller's scan-mode goroutine directly.
type fakeFeed struct {
	codes chan string
	errs  chan error

	closed    atomic.Bool
	closeOnce sync.Once
}

func (f *fakeFeed) Codes() <-chan string { return f.codes }
func (f *fakeFeed) Errs() <-chan error   { return f.errs }

func (f *fakeFeed) Close() {
	f.closeOnce.Do(func() {
		f.closed.Store(true)
		close(f.codes)
	})
}
