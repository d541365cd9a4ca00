package bufferedstream

// Read copies up to len(dst) bytes from the stream into dst, advancing the
// read cursor, and returns the number of bytes copied. The read is
// deliberately single-span: a request that straddles the wrap boundary
// receives a short read rather than two copies, which is well-defined
// stream behavior and lets a second call pick up the remainder.
func (s *Stream) Read(dst []byte) int {
	return s.consume(len(dst), dst)
}

// Skip discards up to n bytes from the stream without copying them,
// advancing the read cursor, and returns the number of bytes skipped.
// Locking, semaphore posting, and single-span behavior are identical to
// Read.
func (s *Stream) Skip(n int) int {
	return s.consume(n, nil)
}

// consume implements the shared Read/Skip body. When dst is nil, bytes are
// discarded (Skip); otherwise they are copied into dst (Read).
func (s *Stream) consume(length int, dst []byte) int {
	if !s.running.Load() {
		return 0
	}

	// Loop rather than waiting once: a post left over from a producer that
	// exited before a previous Open/Close cycle (or a spurious wake) must
	// not be mistaken for this session's readiness. Re-check IsReady/
	// terminate after every wake, the same way produce re-checks free
	// after its own wait, until one of them is genuinely true.
	if s.cfg.WaitForReady {
		for !s.IsReady() && !s.terminate.Load() {
			s.ready.Wait()
		}
	}

	s.mu.Lock()

	n := length
	if a := int(s.available.Load()); a < n {
		n = a
	}
	if c := contiguousSpan(s.readPtr, s.cfg.BufferSize); c < n {
		n = c
	}

	if n > 0 {
		if dst != nil {
			copy(dst[:n], s.buf[s.readPtr:s.readPtr+n])
		}
		s.readPtr = advance(s.readPtr, n, s.cfg.BufferSize)
		s.available.Add(-int64(n))
		s.readTotal.Add(int64(n))
	}

	s.mu.Unlock()

	if n > 0 {
		s.spaceAvail.Post()
	}
	return n
}
