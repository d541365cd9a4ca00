// Command streamplay demonstrates bufferedstream by draining a Source
// (a WAV file, a PortAudio capture device, or a WebSocket audio feed) into
// a PortAudio output device through a flow-controlled ring buffer.
package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/corvid-audio/bufferedstream/internal/streamconfig"
)

func main() {
	cfg := streamconfig.DefaultConfig()

	source := flag.String("source", string(cfg.Source), "source kind: wav, portaudio, or websocket")
	wavPath := flag.String("wav", cfg.WavPath, "path to a WAV file (source=wav)")
	wsURL := flag.String("ws-url", cfg.WebSocketURL, "WebSocket endpoint (source=websocket)")
	capture := flag.String("capture", cfg.CapturePath, "tee played-out audio to this WAV file (optional)")
	debug := flag.Bool("debug", cfg.EnableDebug, "log buffer telemetry")
	flag.Parse()

	cfg.Source = streamconfig.SourceKind(*source)
	cfg.WavPath = *wavPath
	cfg.WebSocketURL = *wsURL
	cfg.CapturePath = *capture
	cfg.EnableDebug = *debug

	app, err := NewApp(cfg)
	if err != nil {
		log.Fatalf("streamplay: %v", err)
	}

	if err := app.Start(); err != nil {
		log.Fatalf("streamplay: %v", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	doneCh := make(chan struct{})
	go func() {
		app.Wait()
		close(doneCh)
	}()

	select {
	case sig := <-sigChan:
		log.Printf("streamplay: received %v, shutting down", sig)
	case <-doneCh:
		log.Println("streamplay: finished")
	}

	if err := app.Stop(); err != nil {
		log.Printf("streamplay: shutdown error: %v", err)
		os.Exit(1)
	}
}
