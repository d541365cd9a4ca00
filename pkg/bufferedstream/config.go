package bufferedstream

import "fmt"

// Config is the configuration bundle fixed at construction time. See the
// field comments for the exact hysteresis/flow-control semantics; all of
// them are validated by New.
type Config struct {
	// BufferSize is the total capacity of the ring, in bytes.
	BufferSize int

	// ReadThreshold is the minimum headroom the producer aims to keep free.
	// It also bounds the invariant checked at construction time; the
	// producer's own sleep predicate is the stronger "free < ReadSize"
	// condition (see producer.go).
	ReadThreshold int

	// ReadSize is the chunk size requested from the source on each producer
	// iteration. Must be <= BufferSize.
	ReadSize int

	// ReadyThreshold is the "available" mark that makes the stream ready.
	ReadyThreshold int

	// NotReadyThreshold is the mark at or below which the stream is
	// not-ready. Must be strictly less than ReadyThreshold.
	NotReadyThreshold int

	// WaitForReady makes Read/Skip block until the stream is ready whenever
	// it currently isn't.
	WaitForReady bool

	// EndWithSource makes the producer terminate once the source reports
	// EOF, instead of treating EOF as a transient stall.
	EndWithSource bool
}

// ConfigError reports a configuration value that violates one of the
// construction-time invariants.
type ConfigError struct {
	Field string
	Msg   string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("bufferedstream: config field %s: %s", e.Field, e.Msg)
}

func (c Config) validate() error {
	if c.BufferSize <= 0 {
		return &ConfigError{"BufferSize", "must be > 0"}
	}
	if c.ReadSize <= 0 {
		return &ConfigError{"ReadSize", "must be > 0"}
	}
	if c.ReadSize > c.BufferSize {
		return &ConfigError{"ReadSize", "must be <= BufferSize"}
	}
	if c.ReadThreshold < 0 || c.ReadThreshold > c.BufferSize {
		return &ConfigError{"ReadThreshold", "must be in [0, BufferSize]"}
	}
	if c.ReadyThreshold <= 0 || c.ReadyThreshold > c.BufferSize {
		return &ConfigError{"ReadyThreshold", "must be in (0, BufferSize]"}
	}
	if c.NotReadyThreshold < 0 {
		return &ConfigError{"NotReadyThreshold", "must be >= 0"}
	}
	if c.NotReadyThreshold >= c.ReadyThreshold {
		return &ConfigError{"NotReadyThreshold", "must be < ReadyThreshold (hysteresis would collapse otherwise)"}
	}
	return nil
}
