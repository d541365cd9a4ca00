// Package bufferedstream adapts a blocking byte Source into a bounded,
// flow-controlled byte stream. A background producer pulls fixed-size
// chunks from the Source into a circular buffer; a foreground consumer
// drains the same buffer through Read/Skip. The two sides are coordinated
// by a pair of wake signals and a hysteresis band between a "ready" and a
// "not-ready" watermark, so latency-sensitive consumers (audio decoders,
// typically) never stall on the jitter of the underlying Source.
package bufferedstream

import (
	"sync"
	"sync/atomic"

	"github.com/corvid-audio/bufferedstream/internal/signal"
	"github.com/corvid-audio/bufferedstream/internal/worker"
)

// Stream is a single-producer, single-consumer ring buffer with readiness
// hysteresis. The zero value is not usable; construct with New.
type Stream struct {
	cfg Config

	// mu guards buf, readPtr and writePtr. Held briefly by both the
	// producer (across the Source read and the cursor update) and the
	// consumer (across the copy-out and cursor update).
	mu       sync.Mutex
	buf      []byte
	readPtr  int
	writePtr int

	// available is read lock-free by IsReady/IsNotReady/status calls. The
	// producer and consumer only mutate it while mu is held; Open and Close
	// reset it to 0 outside mu while no producer is running.
	available atomic.Int64
	readTotal atomic.Int64

	srcMu  sync.RWMutex
	source Source

	running   atomic.Bool
	terminate atomic.Bool

	spaceAvail *signal.Signal
	ready      *signal.Signal

	lifecycle sync.Mutex
	producer  *worker.Worker
}

// New validates cfg and constructs a dormant Stream. The ring buffer is
// allocated once and reused across subsequent Open/Close cycles.
func New(cfg Config) (*Stream, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Stream{
		cfg:        cfg,
		buf:        make([]byte, cfg.BufferSize),
		spaceAvail: signal.New(),
		ready:      signal.New(),
		producer:   worker.New("bufferedstream-producer"),
	}, nil
}

// Open installs source and starts the background producer, transitioning
// the stream from Idle to Active. It returns false if the stream is already
// open.
func (s *Stream) Open(source Source) bool {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	if s.running.Load() {
		return false
	}

	s.mu.Lock()
	s.readPtr = 0
	s.writePtr = 0
	s.mu.Unlock()

	s.available.Store(0)
	s.readTotal.Store(0)
	s.terminate.Store(false)

	s.srcMu.Lock()
	s.source = source
	s.srcMu.Unlock()

	s.running.Store(true)
	s.producer.Go(s.produce)
	return true
}

// Close signals termination, waits for the producer to exit, and resets the
// stream to its dormant Idle state. Safe to call repeatedly; a call on an
// already-closed stream is a no-op.
func (s *Stream) Close() {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	if !s.running.Load() {
		return
	}

	s.terminate.Store(true)
	s.spaceAvail.Post()
	s.producer.Join()

	s.running.Store(false)

	s.srcMu.Lock()
	s.source = nil
	s.srcMu.Unlock()

	s.mu.Lock()
	s.readPtr = 0
	s.writePtr = 0
	s.mu.Unlock()

	s.available.Store(0)
	s.readTotal.Store(0)
}

// IsReady reports whether available has risen to readyThreshold. Lock-free.
func (s *Stream) IsReady() bool {
	return s.available.Load() >= int64(s.cfg.ReadyThreshold)
}

// IsNotReady reports whether available has fallen to or below
// notReadyThreshold. Lock-free.
func (s *Stream) IsNotReady() bool {
	return s.available.Load() <= int64(s.cfg.NotReadyThreshold)
}

// Position returns the total number of bytes delivered to callers via
// Read/Skip since the most recent Open.
func (s *Stream) Position() int64 {
	return s.readTotal.Load()
}

// Size returns the source's reported size, or 0 if unknown or not open.
func (s *Stream) Size() int64 {
	s.srcMu.RLock()
	src := s.source
	s.srcMu.RUnlock()
	if src == nil {
		return 0
	}
	return src.Size()
}

// Ready exposes the ready signal's wake channel so a caller can select on it
// instead of blocking inside Read. It fires on every rising crossing of
// readyThreshold and once more when the producer terminates.
func (s *Stream) Ready() <-chan struct{} {
	return s.ready.WaitChan()
}

func (s *Stream) sourceRead(dst []byte) int {
	s.srcMu.RLock()
	src := s.source
	s.srcMu.RUnlock()
	if src == nil {
		return 0
	}
	return src.Read(dst)
}
