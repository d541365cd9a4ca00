// Package portaudiosource adapts a PortAudio input device into a
// bufferedstream.Source using blocking reads, the same pattern the
// device-finding/blocking-capture code this package is modeled on uses for
// its test recording path.
package portaudiosource

import (
	"fmt"
	"log"
	"strings"

	"github.com/gordonklaus/portaudio"
)

// Config selects the capture device and stream parameters.
type Config struct {
	SampleRate      int
	Channels        int
	FramesPerBuffer int
	EnableDebug     bool
}

// DefaultConfig returns 16kHz mono capture, a common speech-pipeline rate.
func DefaultConfig() Config {
	return Config{
		SampleRate:      16000,
		Channels:        1,
		FramesPerBuffer: 1024,
	}
}

// Source wraps a blocking PortAudio input stream. Read blocks on the
// underlying device until a full FramesPerBuffer block is captured.
type Source struct {
	cfg    Config
	stream *portaudio.Stream
	device *portaudio.DeviceInfo

	readBuf []int16
	pend    []byte

	initialized bool
}

// New opens and starts a capture stream on the highest-priority matching
// input device. Close must be called to release PortAudio resources.
func New(cfg Config) (*Source, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("portaudiosource: initialize: %w", err)
	}

	s := &Source{cfg: cfg, initialized: true}

	dev, err := selectInputDevice(cfg)
	if err != nil {
		portaudio.Terminate()
		return nil, err
	}
	s.device = dev

	s.readBuf = make([]int16, cfg.FramesPerBuffer*cfg.Channels)
	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   dev,
			Channels: cfg.Channels,
			Latency:  dev.DefaultLowInputLatency,
		},
		SampleRate:      float64(cfg.SampleRate),
		FramesPerBuffer: cfg.FramesPerBuffer,
	}

	stream, err := portaudio.OpenStream(params, &s.readBuf)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("portaudiosource: open stream: %w", err)
	}
	s.stream = stream

	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return nil, fmt.Errorf("portaudiosource: start stream: %w", err)
	}

	if cfg.EnableDebug {
		log.Printf("portaudiosource: capturing from %q at %d Hz", dev.Name, cfg.SampleRate)
	}
	return s, nil
}

// selectInputDevice picks an input-capable device, preferring PulseAudio,
// then PipeWire, then a "default" device, with a bonus for microphone-named
// devices; monitor and loopback devices are skipped.
func selectInputDevice(cfg Config) (*portaudio.DeviceInfo, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("portaudiosource: list devices: %w", err)
	}

	var best *portaudio.DeviceInfo
	bestPriority := -1
	for _, dev := range devices {
		if dev.MaxInputChannels == 0 {
			continue
		}
		name := strings.ToLower(dev.Name)
		if strings.Contains(name, "monitor") || strings.Contains(name, "loopback") {
			continue
		}

		priority := 10
		switch {
		case strings.Contains(name, "pulse"):
			priority = 200
		case strings.Contains(name, "pipewire"):
			priority = 190
		case strings.Contains(name, "default"):
			priority = 150
		}
		if strings.Contains(name, "mic") || strings.Contains(name, "microphone") {
			priority += 100
		}

		if priority > bestPriority {
			bestPriority = priority
			best = dev
		}
	}

	if best != nil {
		return best, nil
	}
	if def, err := portaudio.DefaultInputDevice(); err == nil && def != nil {
		return def, nil
	}
	return nil, fmt.Errorf("portaudiosource: no usable input device found")
}

// Read blocks until one FramesPerBuffer block has been captured, then
// copies as much of it as fits in dst, carrying over any remainder.
func (s *Source) Read(dst []byte) int {
	if len(s.pend) == 0 {
		if err := s.stream.Read(); err != nil {
			if s.cfg.EnableDebug {
				log.Printf("portaudiosource: read error: %v", err)
			}
			return 0
		}
		buf := make([]byte, len(s.readBuf)*2)
		for i, sample := range s.readBuf {
			buf[i*2] = byte(sample)
			buf[i*2+1] = byte(sample >> 8)
		}
		s.pend = buf
	}

	n := copy(dst, s.pend)
	s.pend = s.pend[n:]
	return n
}

// Close stops the stream and releases PortAudio.
func (s *Source) Close() error {
	if s.stream != nil {
		s.stream.Stop()
		s.stream.Close()
		s.stream = nil
	}
	if s.initialized {
		portaudio.Terminate()
		s.initialized = false
	}
	return nil
}

// Size is unknown for a live capture device.
func (s *Source) Size() int64 { return 0 }
