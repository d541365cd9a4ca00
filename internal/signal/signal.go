// Package signal provides a small wake-once notification primitive used to
// coordinate the producer and consumer sides of a bufferedstream.Stream.
package signal

// Signal is a binary, coalescing wake channel. Post is safe to call from
// any goroutine without blocking; Wait blocks until at least one Post call
// has happened since the last Wait returned.
//
// Unlike a counting semaphore, posting Signal while nobody is waiting does
// not accumulate: a burst of N posts before a single Wait only guarantees
// one wake-up, which is exactly the "over-posting tolerated, wake-once per
// post" contract the coordination protocol needs.
type Signal struct {
	ch chan struct{}
}

// New creates a ready-to-use Signal.
func New() *Signal {
	return &Signal{ch: make(chan struct{}, 1)}
}

// Post wakes one pending (or future) Wait. Never blocks.
func (s *Signal) Post() {
	select {
	case s.ch <- struct{}{}:
	default:
	}
}

// Wait blocks until Post has been called at least once since the last Wait.
func (s *Signal) Wait() {
	<-s.ch
}

// WaitChan exposes the underlying channel for use in a select statement,
// e.g. to race a Wait against a context cancellation or another Signal.
func (s *Signal) WaitChan() <-chan struct{} {
	return s.ch
}
