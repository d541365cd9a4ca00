package bufferedstream_test

import (
	"sync"
	"time"
)

// fakeSource is a deterministic, in-memory Source used across the scenario
// and invariant tests. It never blocks: Read returns immediately with
// whatever is available (up to chunkLimit, if set), which keeps producer
// iterations observable without racing test goroutines against a blocked
// mutex holder.
type fakeSource struct {
	mu         sync.Mutex
	data       []byte
	pos        int
	chunkLimit int // 0 = unlimited per call
	closed     bool
	reads      int
}

func newFakeSource(data []byte) *fakeSource {
	return &fakeSource{data: data}
}

func (f *fakeSource) Read(dst []byte) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.reads++
	if f.pos >= len(f.data) {
		return 0
	}

	n := len(dst)
	if remaining := len(f.data) - f.pos; n > remaining {
		n = remaining
	}
	if f.chunkLimit > 0 && n > f.chunkLimit {
		n = f.chunkLimit
	}

	copy(dst[:n], f.data[f.pos:f.pos+n])
	f.pos += n
	return n
}

func (f *fakeSource) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

func (f *fakeSource) Size() int64 {
	return int64(len(f.data))
}

func (f *fakeSource) readCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reads
}

// endlessSource hands out an unbounded repeating byte value, useful for
// scenarios that just need the buffer to fill up and stay full.
type endlessSource struct {
	mu       sync.Mutex
	fill     byte
	chunkCap int
}

func (e *endlessSource) Read(dst []byte) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	n := len(dst)
	if e.chunkCap > 0 && n > e.chunkCap {
		n = e.chunkCap
	}
	for i := 0; i < n; i++ {
		dst[i] = e.fill
	}
	return n
}

func (e *endlessSource) Close() error { return nil }
func (e *endlessSource) Size() int64  { return 0 }

// delayedSource behaves like fakeSource but sleeps once, before its very
// first byte is delivered, modeling a freshly opened producer that hasn't
// made any progress yet.
type delayedSource struct {
	mu      sync.Mutex
	data    []byte
	pos     int
	delay   time.Duration
	delayed bool
}

func (d *delayedSource) Read(dst []byte) int {
	d.mu.Lock()
	if !d.delayed {
		d.delayed = true
		d.mu.Unlock()
		time.Sleep(d.delay)
		d.mu.Lock()
	}
	defer d.mu.Unlock()

	if d.pos >= len(d.data) {
		return 0
	}
	n := len(dst)
	if remaining := len(d.data) - d.pos; n > remaining {
		n = remaining
	}
	copy(dst[:n], d.data[d.pos:d.pos+n])
	d.pos += n
	return n
}

func (d *delayedSource) Close() error { return nil }
func (d *delayedSource) Size() int64  { return int64(len(d.data)) }
