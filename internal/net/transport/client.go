package transport

import (
	"context"
	"fmt"
	"net"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"sappers/internal/event"
	"sappers/internal/telemetry"
	"sappers/logging"
	lognet "sappers/logging/network"
)

// Client is a single connection to a server.
type Client struct {
	opts     Options
	conn     frameConn
	inbound  chan Message
	outbound chan event.Frame
	ctx      context.Context
	alive    context.Context
	cancel   context.CancelFunc
	group    *errgroup.Group
}

// Dial connects to addr and starts the reader and writer goroutines.
func Dial(ctx context.Context, addr string, opts Options) (*Client, error) {
	parsed, err := parseAddress(addr)
	if err != nil {
		return nil, err
	}
	opts = opts.withDefaults()

	var fc frameConn
	switch parsed.scheme {
	case schemeWS:
		conn, _, err := websocket.DefaultDialer.DialContext(ctx, parsed.url(parsed.host), nil)
		if err != nil {
			return nil, fmt.Errorf("dial %s: %w", addr, err)
		}
		fc = newWSConn(conn)
	default:
		var d net.Dialer
		conn, err := d.DialContext(ctx, "tcp", parsed.host)
		if err != nil {
			return nil, fmt.Errorf("dial %s: %w", addr, err)
		}
		fc = newStreamConn(conn)
	}

	base, cancel := context.WithCancel(context.Background())
	group, gctx := errgroup.WithContext(base)
	c := &Client{
		opts:     opts,
		conn:     fc,
		inbound:  make(chan Message, opts.Buffer),
		outbound: make(chan event.Frame, opts.Buffer),
		ctx:      base,
		alive:    gctx,
		cancel:   cancel,
		group:    group,
	}
	group.Go(func() error { return c.read(gctx) })
	group.Go(func() error { return c.write(gctx) })
	return c, nil
}

func (c *Client) read(ctx context.Context) error {
	for {
		raw, err := c.conn.ReadFrame()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			err = fmt.Errorf("connection lost: %w", err)
			c.emit(Message{Kind: MessageError, Err: err})
			return err
		}
		data, err := event.Decode(raw)
		if err != nil {
			c.opts.Metrics.Add(telemetry.MetricFramesRejected, 1)
			lognet.FrameRejected(ctx, c.opts.Publisher, logging.PeerRef(c.conn.RemoteAddr()), lognet.FramePayload{
				Error: err.Error(),
				Bytes: append([]byte(nil), raw...),
			})
			err = fmt.Errorf("undecodable frame from server: %w", err)
			c.emit(Message{Kind: MessageError, Err: err})
			return err
		}
		c.opts.Metrics.Add(telemetry.MetricFramesIn, 1)
		c.emit(Message{Kind: MessageEvent, Event: event.Event{Data: data}})
	}
}

func (c *Client) write(ctx context.Context) error {
	defer c.conn.Close()
	for {
		select {
		case <-ctx.Done():
			return nil
		case frame := <-c.outbound:
			if err := c.conn.WriteFrame(frame); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				err = fmt.Errorf("send failed: %w", err)
				c.emit(Message{Kind: MessageError, Err: err})
				return err
			}
			c.opts.Metrics.Add(telemetry.MetricFramesOut, 1)
		}
	}
}

func (c *Client) emit(m Message) {
	select {
	case c.inbound <- m:
	case <-c.ctx.Done():
	}
}

func (c *Client) Inbound() <-chan Message {
	return c.inbound
}

// Send queues ev for the server. It blocks while the outbound queue is full.
func (c *Client) Send(ev event.Event) error {
	frame := event.Encode(ev.Data)
	select {
	case c.outbound <- frame:
		return nil
	case <-c.alive.Done():
		return ErrClosed
	}
}

// Close disconnects and waits for the background goroutines. Failures already
// reported through Inbound are not returned again.
func (c *Client) Close() error {
	c.cancel()
	c.conn.Close()
	_ = c.group.Wait()
	return nil
}
