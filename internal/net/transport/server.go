package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"sappers/internal/event"
	"sappers/internal/telemetry"
	"sappers/logging"
	lognet "sappers/logging/network"
)

// Conn is one accepted peer. The accept goroutine creates it and starts its
// reader and writer; the game loop attaches it before sending to it.
type Conn struct {
	peer     event.Peer
	conn     frameConn
	outbound chan event.Frame
	done     chan struct{}
	once     sync.Once
}

func (c *Conn) Peer() event.Peer {
	return c.peer
}

func (c *Conn) shutdown() {
	c.once.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

// Server accepts peers and bridges their frames to the game loop.
type Server struct {
	opts     Options
	addr     address
	listener net.Listener
	http     *http.Server
	inbound  chan Message
	ctx      context.Context
	cancel   context.CancelFunc
	group    *errgroup.Group

	// Owned by the game loop.
	conns map[event.Peer]*Conn
}

// Listen binds addr and starts accepting peers in the background.
func Listen(ctx context.Context, addr string, opts Options) (*Server, error) {
	parsed, err := parseAddress(addr)
	if err != nil {
		return nil, err
	}
	opts = opts.withDefaults()

	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", parsed.host)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", parsed.host, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	group, ctx := errgroup.WithContext(ctx)
	s := &Server{
		opts:     opts,
		addr:     parsed,
		listener: listener,
		inbound:  make(chan Message, opts.Buffer),
		ctx:      ctx,
		cancel:   cancel,
		group:    group,
		conns:    make(map[event.Peer]*Conn),
	}

	switch parsed.scheme {
	case schemeWS:
		s.serveWebsocket()
	default:
		group.Go(s.acceptStreams)
	}
	group.Go(func() error {
		<-ctx.Done()
		if s.http != nil {
			s.http.Close()
		}
		s.listener.Close()
		return nil
	})
	return s, nil
}

// Addr is the bound address in the same form Dial accepts.
func (s *Server) Addr() string {
	return s.addr.url(s.listener.Addr().String())
}

func (s *Server) acceptStreams() error {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.ctx.Err() != nil {
				return nil
			}
			err = fmt.Errorf("accept: %w", err)
			s.emit(Message{Kind: MessageError, Err: err})
			return err
		}
		s.start(newStreamConn(conn))
	}
}

func (s *Server) serveWebsocket() {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(*http.Request) bool {
			return true
		},
	}
	mux := http.NewServeMux()
	mux.HandleFunc(s.addr.path, func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		s.start(newWSConn(conn))
	})
	s.http = &http.Server{Handler: mux}
	s.group.Go(func() error {
		err := s.http.Serve(s.listener)
		if errors.Is(err, http.ErrServerClosed) || s.ctx.Err() != nil {
			return nil
		}
		err = fmt.Errorf("serve: %w", err)
		s.emit(Message{Kind: MessageError, Err: err})
		return err
	})
}

// start announces a peer to the game loop, queues a fabricated connect event
// for it and runs its reader and writer.
func (s *Server) start(fc frameConn) {
	if s.ctx.Err() != nil {
		fc.Close()
		return
	}
	c := &Conn{
		peer:     event.Peer(fc.RemoteAddr()),
		conn:     fc,
		outbound: make(chan event.Frame, s.opts.Buffer),
		done:     make(chan struct{}),
	}
	s.emit(Message{Kind: MessageConnection, Conn: c, Peer: c.peer})
	s.emit(Message{Kind: MessageEvent, Event: event.Event{Data: event.Connect(), Source: c.peer}})

	s.group.Go(func() error {
		s.read(c)
		return nil
	})
	s.group.Go(func() error {
		s.write(c)
		return nil
	})
}

func (s *Server) read(c *Conn) {
	defer c.shutdown()
	for {
		raw, err := c.conn.ReadFrame()
		if err != nil {
			if s.ctx.Err() == nil {
				s.emit(Message{Kind: MessageDisconnect, Peer: c.peer, Err: err})
			}
			return
		}
		data, err := event.Decode(raw)
		if err != nil {
			s.opts.Metrics.Add(telemetry.MetricFramesRejected, 1)
			lognet.FrameRejected(s.ctx, s.opts.Publisher, logging.PeerRef(string(c.peer)), lognet.FramePayload{
				Error: err.Error(),
				Bytes: append([]byte(nil), raw...),
			})
			s.emit(Message{Kind: MessageDisconnect, Peer: c.peer, Err: err})
			return
		}
		s.opts.Metrics.Add(telemetry.MetricFramesIn, 1)
		s.emit(Message{Kind: MessageEvent, Event: event.Event{Data: data, Source: c.peer}})
	}
}

func (s *Server) write(c *Conn) {
	defer c.shutdown()
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-c.done:
			return
		case frame := <-c.outbound:
			if err := c.conn.WriteFrame(frame); err != nil {
				return
			}
			s.opts.Metrics.Add(telemetry.MetricFramesOut, 1)
		}
	}
}

func (s *Server) emit(m Message) {
	select {
	case s.inbound <- m:
	case <-s.ctx.Done():
	}
}

// Inbound delivers messages from every peer in arrival order per peer.
func (s *Server) Inbound() <-chan Message {
	return s.inbound
}

// Attach makes a peer reachable by Send.
func (s *Server) Attach(c *Conn) {
	if c == nil {
		return
	}
	s.conns[c.peer] = c
	s.opts.Metrics.Store(telemetry.MetricPeers, uint64(len(s.conns)))
}

// Detach forgets a peer and closes its connection.
func (s *Server) Detach(peer event.Peer) {
	c, ok := s.conns[peer]
	if !ok {
		return
	}
	delete(s.conns, peer)
	c.shutdown()
	s.opts.Metrics.Store(telemetry.MetricPeers, uint64(len(s.conns)))
}

// Peers lists the attached peers.
func (s *Server) Peers() []event.Peer {
	peers := make([]event.Peer, 0, len(s.conns))
	for p := range s.conns {
		peers = append(peers, p)
	}
	return peers
}

// Send delivers ev to every attached peer that is its target (all peers when
// it has none) except the peer it came from. It blocks while a peer's
// outbound queue is full.
func (s *Server) Send(ev event.Event) error {
	if s.ctx.Err() != nil {
		return ErrClosed
	}
	frame := event.Encode(ev.Data)
	for peer, c := range s.conns {
		if ev.Target != "" && ev.Target != peer {
			continue
		}
		if ev.Source == peer {
			continue
		}
		select {
		case c.outbound <- frame:
		case <-c.done:
			s.Detach(peer)
		case <-s.ctx.Done():
			return ErrClosed
		}
	}
	return nil
}

// Close stops accepting, closes every connection and waits for the
// background goroutines.
func (s *Server) Close() error {
	s.cancel()
	s.listener.Close()
	err := s.group.Wait()
	for peer := range s.conns {
		s.Detach(peer)
	}
	if errors.Is(err, net.ErrClosed) || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
