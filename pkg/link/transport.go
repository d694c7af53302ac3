package link

import (
	"context"
	"io"
	"sync"

	"github.com/golang/glog"
)

// Transport is the byte level access to the physical link.
// Both methods must not block.
type Transport interface {
	// RxByte returns the next received byte if one is available.
	RxByte() (byte, bool)
	// TxByte queues one byte for transmission, ErrTxFull asks the
	// caller to retry the same byte later.
	TxByte(byte) error
}

// BaudRate is the fixed UART speed of the link, 8 data bits, no parity,
// one stop bit and no flow control.
const BaudRate = 38400

// DefaultRxBufferSize is the number of received bytes a StreamTransport
// buffers before the reader stops pulling from the stream.
const DefaultRxBufferSize = 64

// DefaultTxBufferSize is the number of bytes TxByte accepts before the
// writer catches up, further bytes are refused with ErrTxFull.
const DefaultTxBufferSize = 64

// StreamTransport adapts a blocking io.ReadWriter (serial port,
// websocket, pipe) to Transport. A background reader moves received
// bytes into a buffer which RxByte drains, a background writer sends
// what TxByte queued.
//
// The stream can be replaced at any time with Attach, the previous
// stream is closed if it implements io.Closer. Bytes buffered from the
// previous stream are discarded.
type StreamTransport struct {
	lock sync.Mutex
	conn *streamConn
}

type streamConn struct {
	rw   io.ReadWriter
	rxCh chan byte
	txCh chan byte
	quit chan struct{}
	once sync.Once
	dead bool
}

func newStreamConn(rw io.ReadWriter) *streamConn {
	return &streamConn{
		rw:   rw,
		rxCh: make(chan byte, DefaultRxBufferSize),
		txCh: make(chan byte, DefaultTxBufferSize),
		quit: make(chan struct{}),
	}
}

func (c *streamConn) close() {
	c.once.Do(func() {
		close(c.quit)
		closeStream(c.rw)
	})
}

// NewStreamTransport creates a StreamTransport, rw may be nil
// and attached later.
func NewStreamTransport(rw io.ReadWriter) *StreamTransport {
	t := &StreamTransport{}
	if rw != nil {
		t.Attach(rw)
	}
	return t
}

// Attach switches to a new stream.
func (t *StreamTransport) Attach(rw io.ReadWriter) {
	var c *streamConn
	if rw != nil {
		c = newStreamConn(rw)
	}
	t.lock.Lock()
	prev := t.conn
	t.conn = c
	t.lock.Unlock()
	if prev != nil {
		prev.close()
	}
	if c != nil {
		go t.readLoop(c)
		go t.writeLoop(c)
	}
}

// Detach closes the current stream, if any.
func (t *StreamTransport) Detach() {
	t.Attach(nil)
}

// Attached indicates a stream is connected.
func (t *StreamTransport) Attached() bool {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.conn != nil && !t.conn.dead
}

// RxByte implements Transport. Bytes received before the stream
// was lost are still delivered.
func (t *StreamTransport) RxByte() (byte, bool) {
	t.lock.Lock()
	c := t.conn
	t.lock.Unlock()
	if c == nil {
		return 0, false
	}
	select {
	case b := <-c.rxCh:
		return b, true
	default:
		return 0, false
	}
}

// TxByte implements Transport.
func (t *StreamTransport) TxByte(b byte) error {
	t.lock.Lock()
	c := t.conn
	connected := c != nil && !c.dead
	t.lock.Unlock()
	if !connected {
		return ErrNotConnected
	}
	select {
	case c.txCh <- b:
		return nil
	default:
		return ErrTxFull
	}
}

// Run implements Runnable. It closes the stream when ctx is done.
func (t *StreamTransport) Run(ctx context.Context) error {
	<-ctx.Done()
	t.Detach()
	return ctx.Err()
}

func (t *StreamTransport) readLoop(c *streamConn) {
	buf := make([]byte, DefaultRxBufferSize)
	for {
		n, err := c.rw.Read(buf)
		for i := 0; i < n; i++ {
			select {
			case c.rxCh <- buf[i]:
			case <-c.quit:
				return
			}
		}
		if err != nil {
			if err == io.EOF {
				glog.Info("link stream closed")
			} else {
				glog.Warningf("link stream read error: %v", err)
			}
			t.drop(c)
			return
		}
	}
}

func (t *StreamTransport) writeLoop(c *streamConn) {
	buf := make([]byte, 0, DefaultTxBufferSize)
	for {
		select {
		case b := <-c.txCh:
			buf = append(buf[:0], b)
		drain:
			for len(buf) < cap(buf) {
				select {
				case b = <-c.txCh:
					buf = append(buf, b)
				default:
					break drain
				}
			}
			if _, err := c.rw.Write(buf); err != nil {
				glog.Warningf("link stream write error: %v", err)
				t.drop(c)
				return
			}
		case <-c.quit:
			return
		}
	}
}

// drop marks c lost if it's still the current stream and closes it.
func (t *StreamTransport) drop(c *streamConn) {
	t.lock.Lock()
	if t.conn == c {
		c.dead = true
	}
	t.lock.Unlock()
	c.close()
}

func closeStream(rw io.ReadWriter) {
	if closer, ok := rw.(io.Closer); ok {
		closer.Close()
	}
}
