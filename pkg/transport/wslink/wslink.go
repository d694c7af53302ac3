// Package wslink carries the link byte stream over a websocket, so a
// device can be reached through a network bridge instead of a UART.
// Bytes are sent in binary frames, frame boundaries carry no meaning.
package wslink

import (
	"context"
	"net/http"
	"sync"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"

	fx "github.com/robotalks/rfcomm/pkg/framework"
	"github.com/robotalks/rfcomm/pkg/link"
)

// DefaultPath is the websocket endpoint of the link.
const DefaultPath = "/link"

// Wrap switches conn to binary frames.
func Wrap(conn *websocket.Conn) *websocket.Conn {
	conn.PayloadType = websocket.BinaryFrame
	return conn
}

// Dial connects to a link endpoint, e.g. ws://host:port/link.
func Dial(url string) (*websocket.Conn, error) {
	conn, err := websocket.Dial(url, "", "http://localhost/")
	if err != nil {
		return nil, err
	}
	return Wrap(conn), nil
}

// Server accepts a single link at a time and attaches it to Transport.
// A new connection replaces the current one.
type Server struct {
	Addr      string
	Path      string
	Transport *link.StreamTransport
}

// NewServer creates a Server.
func NewServer(addr string, transport *link.StreamTransport) *Server {
	return &Server{Addr: addr, Path: DefaultPath, Transport: transport}
}

// Handler returns the websocket handler.
func (s *Server) Handler() http.Handler {
	return websocket.Handler(s.serve)
}

// Run implements Runnable.
func (s *Server) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	path := s.Path
	if path == "" {
		path = DefaultPath
	}
	mux.Handle(path, s.Handler())
	srv := &http.Server{Addr: s.Addr, Handler: mux}
	glog.Infof("link endpoint ws://%s%s", s.Addr, path)
	return fx.RunWithContextCloser(ctx, srv, srv.ListenAndServe)
}

func (s *Server) serve(conn *websocket.Conn) {
	glog.Infof("link connected from %s", conn.Request().RemoteAddr)
	stream := &serverConn{Conn: Wrap(conn), closedCh: make(chan struct{})}
	s.Transport.Attach(stream)
	// returning from the handler closes the connection.
	select {
	case <-stream.closedCh:
	case <-conn.Request().Context().Done():
		s.Transport.Detach()
	}
	glog.Infof("link from %s disconnected", conn.Request().RemoteAddr)
}

type serverConn struct {
	*websocket.Conn
	closedCh chan struct{}
	once     sync.Once
}

func (c *serverConn) Close() error {
	c.once.Do(func() { close(c.closedCh) })
	return c.Conn.Close()
}
