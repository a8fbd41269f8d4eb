package transport

import (
	"fmt"
	"io"
	"net"
	"net/url"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"sappers/internal/event"
)

// frameConn moves fixed-size frames over one connection. Reads and writes may
// run concurrently from one reader and one writer goroutine.
type frameConn interface {
	ReadFrame() ([]byte, error)
	WriteFrame(event.Frame) error
	RemoteAddr() string
	Close() error
}

// streamConn frames a byte stream: every frame is exactly event.Size bytes
// with no length prefix.
type streamConn struct {
	conn net.Conn
	buf  [event.Size]byte
}

func newStreamConn(conn net.Conn) *streamConn {
	return &streamConn{conn: conn}
}

func (c *streamConn) ReadFrame() ([]byte, error) {
	if _, err := io.ReadFull(c.conn, c.buf[:]); err != nil {
		return nil, err
	}
	return c.buf[:], nil
}

func (c *streamConn) WriteFrame(f event.Frame) error {
	_, err := c.conn.Write(f[:])
	return err
}

func (c *streamConn) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}

func (c *streamConn) Close() error {
	return c.conn.Close()
}

// wsConn carries one frame per binary websocket message.
type wsConn struct {
	conn      *websocket.Conn
	closeOnce sync.Once
	closeErr  error
}

func newWSConn(conn *websocket.Conn) *wsConn {
	return &wsConn{conn: conn}
}

func (c *wsConn) ReadFrame() ([]byte, error) {
	for {
		kind, payload, err := c.conn.ReadMessage()
		if err != nil {
			return nil, err
		}
		if kind != websocket.BinaryMessage {
			continue
		}
		return payload, nil
	}
}

func (c *wsConn) WriteFrame(f event.Frame) error {
	return c.conn.WriteMessage(websocket.BinaryMessage, f[:])
}

func (c *wsConn) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}

func (c *wsConn) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}

type scheme uint8

const (
	schemeTCP scheme = iota
	schemeWS
)

type address struct {
	scheme scheme
	host   string
	path   string
}

// parseAddress accepts "host:port", "tcp://host:port" and
// "ws://host:port/path".
func parseAddress(raw string) (address, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return address{}, fmt.Errorf("empty address")
	}
	if !strings.Contains(raw, "://") {
		return address{scheme: schemeTCP, host: raw}, nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return address{}, fmt.Errorf("parse address %q: %w", raw, err)
	}
	if u.Host == "" {
		return address{}, fmt.Errorf("address %q has no host", raw)
	}
	switch u.Scheme {
	case "tcp":
		return address{scheme: schemeTCP, host: u.Host}, nil
	case "ws":
		path := u.Path
		if path == "" {
			path = "/"
		}
		return address{scheme: schemeWS, host: u.Host, path: path}, nil
	default:
		return address{}, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
}

func (a address) url(host string) string {
	if a.scheme == schemeWS {
		return "ws://" + host + a.path
	}
	return host
}
