package main

import (
	"fmt"
	"log"
	"math"
	"os"
	"sync/atomic"
	"time"

	"github.com/gordonklaus/portaudio"

	"github.com/corvid-audio/bufferedstream/internal/streamconfig"
	"github.com/corvid-audio/bufferedstream/pkg/bufferedstream"
	"github.com/corvid-audio/bufferedstream/pkg/utils"
	"github.com/corvid-audio/bufferedstream/sources/portaudiosource"
	"github.com/corvid-audio/bufferedstream/sources/wavsource"
	"github.com/corvid-audio/bufferedstream/sources/websocketsource"
)

// App wires a Source into a bufferedstream.Stream and drains it to a
// PortAudio output device, logging buffer telemetry along the way when
// debug mode is enabled.
type App struct {
	config *streamconfig.Config

	stream *bufferedstream.Stream
	source bufferedstream.Source

	out       *portaudio.Stream
	done      chan struct{}
	telemetry chan struct{}

	capture     *wavsource.Sink
	captureFile *os.File

	lastRMS    atomic.Uint64 // math.Float64bits of the most recent output block's RMS
	lastSilent atomic.Bool   // whether the most recent output block was judged silent
}

// Thresholds for the debug-mode silence diagnostic: an output block is
// judged silent when its RMS is low and most of its samples are near-zero.
const (
	silenceRMSThreshold   = 300
	silenceRatioThreshold = 0.9
)

// NewApp builds the Stream from config and opens the selected Source. It
// does not start playback; call Start for that.
func NewApp(cfg *streamconfig.Config) (*App, error) {
	stream, err := bufferedstream.New(cfg.Stream)
	if err != nil {
		return nil, fmt.Errorf("streamplay: invalid stream config: %w", err)
	}

	source, err := openSource(cfg)
	if err != nil {
		return nil, fmt.Errorf("streamplay: opening source: %w", err)
	}

	if !stream.Open(source) {
		source.Close()
		return nil, fmt.Errorf("streamplay: stream already open")
	}

	return &App{
		config: cfg,
		stream: stream,
		source: source,
		done:   make(chan struct{}),
	}, nil
}

func openSource(cfg *streamconfig.Config) (bufferedstream.Source, error) {
	switch cfg.Source {
	case streamconfig.SourceWAV:
		f, err := os.Open(cfg.WavPath)
		if err != nil {
			return nil, err
		}
		src, err := wavsource.New(f)
		if err != nil {
			f.Close()
			return nil, err
		}
		cfg.Audio.SampleRate = src.SampleRate()
		cfg.Audio.Channels = src.NumChannels()
		cfg.Audio.BitDepth = src.BitDepth()
		return src, nil

	case streamconfig.SourcePortAudio:
		pacfg := portaudiosource.DefaultConfig()
		pacfg.SampleRate = cfg.Audio.SampleRate
		pacfg.Channels = cfg.Audio.Channels
		pacfg.EnableDebug = cfg.EnableDebug
		return portaudiosource.New(pacfg)

	case streamconfig.SourceWebSocket:
		wscfg := websocketsource.DefaultConfig(cfg.WebSocketURL)
		wscfg.EnableDebug = cfg.EnableDebug
		return websocketsource.New(wscfg), nil

	default:
		return nil, fmt.Errorf("unknown source kind %q", cfg.Source)
	}
}

// Start opens a PortAudio output stream and begins draining the buffered
// stream into it. It blocks until PortAudio and the output stream are
// confirmed started.
func (app *App) Start() error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("streamplay: portaudio init: %w", err)
	}

	bytesPerSample := app.config.Audio.BitDepth / 8
	if bytesPerSample == 0 {
		bytesPerSample = 2
	}

	if app.config.CapturePath != "" {
		f, err := os.Create(app.config.CapturePath)
		if err != nil {
			portaudio.Terminate()
			return fmt.Errorf("streamplay: opening capture file: %w", err)
		}
		app.captureFile = f
		app.capture = wavsource.NewSink(f, app.config.Audio.SampleRate, app.config.Audio.BitDepth, app.config.Audio.Channels)
	}

	out, err := portaudio.OpenDefaultStream(
		0, app.config.Audio.Channels,
		float64(app.config.Audio.SampleRate),
		0,
		func(samples []int16) {
			raw := make([]byte, len(samples)*bytesPerSample)
			n := app.stream.Read(raw)
			decoded := utils.BytesToInt16LE(raw[:n])
			copy(samples, decoded)
			for i := len(decoded); i < len(samples); i++ {
				samples[i] = 0
			}
			if n > 0 && app.capture != nil {
				if _, err := app.capture.Write(raw[:n]); err != nil {
					log.Printf("streamplay: capture write failed: %v", err)
				}
			}
			if app.config.EnableDebug && n > 0 {
				rms := utils.CalculateRMS(decoded)
				app.lastRMS.Store(math.Float64bits(rms))
				app.lastSilent.Store(utils.IsSilent(decoded, silenceRMSThreshold, silenceRatioThreshold))
			}
		},
	)
	if err != nil {
		portaudio.Terminate()
		return fmt.Errorf("streamplay: open output stream: %w", err)
	}
	app.out = out

	if err := out.Start(); err != nil {
		out.Close()
		portaudio.Terminate()
		return fmt.Errorf("streamplay: start output stream: %w", err)
	}

	if app.config.EnableDebug {
		app.telemetry = make(chan struct{})
		go app.logTelemetry()
	}

	log.Printf("streamplay: playing %s source at %d Hz, %d ch, %d-bit",
		app.config.Source, app.config.Audio.SampleRate, app.config.Audio.Channels, app.config.Audio.BitDepth)
	return nil
}

// logTelemetry periodically reports ring buffer occupancy and readiness
// while debug mode is on.
func (app *App) logTelemetry() {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-app.telemetry:
			return
		case <-ticker.C:
			rms := math.Float64frombits(app.lastRMS.Load())
			log.Printf("streamplay: position=%d ready=%v notReady=%v rms=%.1f silent=%v",
				app.stream.Position(), app.stream.IsReady(), app.stream.IsNotReady(), rms, app.lastSilent.Load())
		}
	}
}

// Stop tears down the output stream, the buffered stream, and the source,
// and releases anyone blocked in Wait.
func (app *App) Stop() error {
	if app.telemetry != nil {
		close(app.telemetry)
	}

	if app.out != nil {
		if err := app.out.Abort(); err != nil {
			log.Printf("streamplay: failed to abort output stream: %v", err)
		}
		if err := app.out.Close(); err != nil {
			log.Printf("streamplay: failed to close output stream: %v", err)
		}
		portaudio.Terminate()
	}

	if app.capture != nil {
		if err := app.capture.Close(); err != nil {
			log.Printf("streamplay: failed to finalize capture file: %v", err)
		}
		app.captureFile.Close()
	}

	app.stream.Close()
	if err := app.source.Close(); err != nil {
		log.Printf("streamplay: failed to close source: %v", err)
	}
	close(app.done)
	return nil
}

// Wait blocks until Stop is called.
func (app *App) Wait() {
	<-app.done
}
