package bufferedstream

import "time"

// eofStallDelay is how long the producer yields after a transient (non-
// terminating) Source EOF before polling again.
const eofStallDelay = time.Millisecond

// produce is the producer loop body. It runs on the background worker
// started by Open and returns when the stream is closed or, if configured,
// when the source is exhausted.
//
// The deferred Post guarantees a consumer parked in Read/Skip with
// WaitForReady set always observes termination, regardless of which of the
// loop's exit paths is taken.
func (s *Stream) produce() {
	defer s.ready.Post()

	for {
		if s.terminate.Load() {
			return
		}

		free := s.cfg.BufferSize - int(s.available.Load())
		if free < s.cfg.ReadSize {
			<-s.spaceAvail.WaitChan()
			continue
		}

		s.mu.Lock()

		span := s.cfg.ReadSize
		if c := contiguousSpan(s.writePtr, s.cfg.BufferSize); c < span {
			span = c
		}
		if free < span {
			span = free
		}

		n := s.sourceReadLocked(span)

		var crossedReady bool
		if n > 0 {
			before := s.available.Load()
			s.writePtr = advance(s.writePtr, n, s.cfg.BufferSize)
			after := s.available.Add(int64(n))
			crossedReady = crossesReadyEdge(before, after, s.cfg.ReadyThreshold)
		}

		s.mu.Unlock()

		if n > 0 {
			if crossedReady {
				s.ready.Post()
			}
			continue
		}

		// n == 0: source-side EOF or stall.
		if s.cfg.EndWithSource {
			s.terminate.Store(true)
			return
		}
		time.Sleep(eofStallDelay)
	}
}

// sourceReadLocked issues the actual Source.Read call for a span starting at
// the current write cursor. Caller must hold mu.
func (s *Stream) sourceReadLocked(span int) int {
	return s.sourceRead(s.buf[s.writePtr : s.writePtr+span])
}
