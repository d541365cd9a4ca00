// Package streamconfig bundles the configuration for the streamplay demo:
// which Source to open, its parameters, and the bufferedstream.Config that
// governs flow control between that source and the audio device it feeds.
package streamconfig

import (
	"time"

	"github.com/corvid-audio/bufferedstream/pkg/bufferedstream"
)

// SourceKind selects which Source implementation to open.
type SourceKind string

const (
	SourceWAV       SourceKind = "wav"
	SourcePortAudio SourceKind = "portaudio"
	SourceWebSocket SourceKind = "websocket"
)

// Config is the top-level configuration for the streamplay binary.
type Config struct {
	Source SourceKind `json:"source"`

	// WavPath is the input file used when Source == SourceWAV.
	WavPath string `json:"wavPath"`

	// WebSocketURL is the endpoint dialed when Source == SourceWebSocket.
	WebSocketURL string `json:"webSocketUrl"`

	// CapturePath, if non-empty, tees every played-out chunk to a WAV file
	// at this path for later inspection.
	CapturePath string `json:"capturePath"`

	Audio  AudioConfig           `json:"audio"`
	Stream bufferedstream.Config `json:"stream"`

	EnableDebug bool `json:"enableDebug"`
}

// AudioConfig describes the PCM format played out to the audio device.
// When Source == SourceWAV the values decoded from the file take
// precedence; this struct supplies the fallback for live sources.
type AudioConfig struct {
	SampleRate int `json:"sampleRate"`
	Channels   int `json:"channels"`
	BitDepth   int `json:"bitDepth"`
}

// DefaultConfig returns a stream.Config sized for 200ms chunks of 16kHz
// mono 16-bit audio with a 2-second ring and a half-second ready watermark,
// played from a local WAV file by default.
func DefaultConfig() *Config {
	const (
		sampleRate = 16000
		channels   = 1
		bitDepth   = 16
	)
	bytesPerSample := bitDepth / 8
	chunkBytes := int(float64(sampleRate) * 0.2 * float64(channels) * float64(bytesPerSample))
	bufferBytes := sampleRate * 2 * channels * bytesPerSample // 2 seconds

	return &Config{
		Source:       SourceWAV,
		WavPath:      "input.wav",
		WebSocketURL: "ws://localhost:8080/audio",
		Audio: AudioConfig{
			SampleRate: sampleRate,
			Channels:   channels,
			BitDepth:   bitDepth,
		},
		Stream: bufferedstream.Config{
			BufferSize:        bufferBytes,
			ReadThreshold:     chunkBytes,
			ReadSize:          chunkBytes,
			ReadyThreshold:    bufferBytes / 4,
			NotReadyThreshold: chunkBytes,
			WaitForReady:      true,
			EndWithSource:     true,
		},
		EnableDebug: false,
	}
}

// ChunkDuration is a convenience derived value: how long ReadSize bytes of
// audio at this configuration's sample rate play for.
func (c *Config) ChunkDuration() time.Duration {
	bytesPerSample := c.Audio.BitDepth / 8
	if bytesPerSample == 0 || c.Audio.Channels == 0 || c.Audio.SampleRate == 0 {
		return 0
	}
	frames := c.Stream.ReadSize / (bytesPerSample * c.Audio.Channels)
	return time.Duration(frames) * time.Second / time.Duration(c.Audio.SampleRate)
}
