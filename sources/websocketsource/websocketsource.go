// Package websocketsource adapts a WebSocket connection's inbound binary
// frames into a bufferedstream.Source: a blocking byte feed a Stream's
// producer can pull from.
package websocketsource

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Config configures the connection and its reconnect behavior.
type Config struct {
	URL            string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	PingInterval   time.Duration
	ReconnectDelay time.Duration
	MaxMessageSize int64
	EnableDebug    bool
}

// DefaultConfig returns sane defaults for a local or LAN-latency endpoint.
func DefaultConfig(url string) Config {
	return Config{
		URL:            url,
		ReadTimeout:    60 * time.Second,
		WriteTimeout:   10 * time.Second,
		PingInterval:   20 * time.Second,
		ReconnectDelay: 2 * time.Second,
		MaxMessageSize: 1 << 20,
	}
}

// Source dials cfg.URL and exposes inbound binary frames as a byte stream.
// A background goroutine keeps the connection alive across drops,
// reconnecting after ReconnectDelay without limit; Read blocks until a frame
// is available or the source is closed.
type Source struct {
	cfg Config

	ctx    context.Context
	cancel context.CancelFunc

	mu   sync.Mutex
	conn *websocket.Conn

	frames chan []byte
	pend   []byte // leftover bytes from a frame that didn't fully fit the caller's dst

	closeOnce sync.Once
}

// New dials cfg.URL and starts the background connect/reconnect loop.
func New(cfg Config) *Source {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Source{
		cfg:    cfg,
		ctx:    ctx,
		cancel: cancel,
		frames: make(chan []byte, 8),
	}
	go s.connectLoop()
	return s
}

// Read blocks until at least one byte of a binary frame is available,
// copying as much as fits in dst. A frame larger than dst is delivered
// across multiple Read calls.
func (s *Source) Read(dst []byte) int {
	if len(s.pend) == 0 {
		frame, ok := <-s.frames
		if !ok {
			return 0
		}
		s.pend = frame
	}

	n := copy(dst, s.pend)
	s.pend = s.pend[n:]
	return n
}

// Close tears down the connection and stops the reconnect loop.
func (s *Source) Close() error {
	s.closeOnce.Do(func() {
		s.cancel()
		s.mu.Lock()
		if s.conn != nil {
			s.conn.Close()
		}
		s.mu.Unlock()
	})
	return nil
}

// Size is unknown for a live WebSocket feed.
func (s *Source) Size() int64 { return 0 }

func (s *Source) connectLoop() {
	defer close(s.frames)

	for {
		select {
		case <-s.ctx.Done():
			return
		default:
		}

		conn, err := s.connect()
		if err != nil {
			if s.cfg.EnableDebug {
				log.Printf("websocketsource: connect failed: %v (retrying in %s)", err, s.cfg.ReconnectDelay)
			}
			select {
			case <-s.ctx.Done():
				return
			case <-time.After(s.cfg.ReconnectDelay):
				continue
			}
		}

		go s.pingLoop(conn)
		s.readLoop(conn)
	}
}

func (s *Source) connect() (*websocket.Conn, error) {
	dialer := websocket.DefaultDialer
	dialer.HandshakeTimeout = s.cfg.WriteTimeout

	conn, _, err := dialer.Dial(s.cfg.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}
	if s.cfg.MaxMessageSize > 0 {
		conn.SetReadLimit(s.cfg.MaxMessageSize)
	}
	if err := conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout)); err != nil {
		conn.Close()
		return nil, fmt.Errorf("set read deadline: %w", err)
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
	})

	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()

	if s.cfg.EnableDebug {
		log.Println("websocketsource: connected")
	}
	return conn, nil
}

func (s *Source) readLoop(conn *websocket.Conn) {
	defer func() {
		s.mu.Lock()
		if s.conn == conn {
			conn.Close()
			s.conn = nil
		}
		s.mu.Unlock()
	}()

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if s.cfg.EnableDebug {
				log.Printf("websocketsource: read error: %v", err)
			}
			return
		}
		if msgType != websocket.BinaryMessage || len(data) == 0 {
			continue
		}
		select {
		case s.frames <- data:
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Source) pingLoop(conn *websocket.Conn) {
	ticker := time.NewTicker(s.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.mu.Lock()
			same := s.conn == conn
			s.mu.Unlock()
			if !same {
				return
			}
			if err := conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout)); err != nil {
				return
			}
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
