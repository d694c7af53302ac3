package host

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/golang/glog"
)

// DefaultTimeout is the time the device has to complete a response.
const DefaultTimeout = 500 * time.Millisecond

// Result is the result of a request using Do.
type Result struct {
	Err      error
	Response *Response
}

// Call represents a queued request waiting for its response.
type Call struct {
	Request  *Request
	resultCh chan Result
	next     *Call
}

// ResultChan returns the chan to retrieve result.
func (c *Call) ResultChan() <-chan Result {
	return c.resultCh
}

// Wait waits for the result.
func (c *Call) Wait(ctx context.Context) (*Response, error) {
	select {
	case r := <-c.resultCh:
		return r.Response, r.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Client sends requests over a byte stream one at a time and assembles
// the responses.
//
// When a response doesn't complete within Timeout, all queued requests
// are aborted. With Resync set, an IDENTIFY is sent afterwards so any
// late bytes of the failed response get flushed by the next timeout
// rather than being taken as the response of a new request.
type Client struct {
	ReadWriter io.ReadWriter
	Timeout    time.Duration
	Resync     bool

	callsHead *Call
	callsTail *Call
	callsLock sync.Mutex
	wakeCh    chan struct{}

	active *Call
	rx     []byte
	timer  <-chan time.Time
}

// NewClient creates a client over rw.
func NewClient(rw io.ReadWriter) *Client {
	return &Client{
		ReadWriter: rw,
		Timeout:    DefaultTimeout,
		Resync:     true,
		wakeCh:     make(chan struct{}, 1),
	}
}

// DoWith queues a request and expects the result in the provided chan.
func (c *Client) DoWith(req *Request, ch chan Result) *Call {
	call := &Call{Request: req, resultCh: ch}
	c.callsLock.Lock()
	if c.callsHead == nil {
		c.callsHead = call
	} else {
		c.callsTail.next = call
	}
	c.callsTail = call
	c.callsLock.Unlock()
	select {
	case c.wakeCh <- struct{}{}:
	default:
	}
	return call
}

// Do queues a request and returns a Call for result.
func (c *Client) Do(req *Request) *Call {
	return c.DoWith(req, make(chan Result, 1))
}

// Run processes requests and responses until ctx is done or the
// stream fails. The owner of the stream should close it after Run
// returns to stop the background reader.
func (c *Client) Run(ctx context.Context) error {
	byteCh, errCh := make(chan byte), make(chan error, 1)
	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go c.readLoop(subCtx, byteCh, errCh)
	for {
		c.schedule()
		select {
		case b := <-byteCh:
			c.receive(b)
		case <-c.timer:
			c.expire()
		case <-c.wakeCh:
		case err := <-errCh:
			c.abort(err)
			return err
		case <-ctx.Done():
			c.abort(ctx.Err())
			return ctx.Err()
		}
	}
}

func (c *Client) readLoop(ctx context.Context, byteCh chan byte, errCh chan error) {
	buf := make([]byte, 1)
	for {
		n, err := c.ReadWriter.Read(buf)
		if err != nil {
			errCh <- err
			return
		}
		if n == 0 {
			continue
		}
		select {
		case byteCh <- buf[0]:
		case <-ctx.Done():
			return
		}
	}
}

func (c *Client) pop() *Call {
	c.callsLock.Lock()
	defer c.callsLock.Unlock()
	call := c.callsHead
	if call != nil {
		if c.callsHead = call.next; c.callsHead == nil {
			c.callsTail = nil
		}
		call.next = nil
	}
	return call
}

// schedule sends queued requests until one expects a response.
func (c *Client) schedule() {
	for c.active == nil {
		call := c.pop()
		if call == nil {
			return
		}
		cmd := call.Request.Command
		glog.V(2).Infof("send %s % x", cmd, call.Request.Bytes())
		if _, err := c.ReadWriter.Write(call.Request.Bytes()); err != nil {
			call.resultCh <- Result{Err: err}
			continue
		}
		if !cmd.RequiresResponse() {
			call.resultCh <- Result{Response: &Response{Command: cmd}}
			continue
		}
		c.active, c.rx = call, nil
		c.timer = time.After(c.Timeout)
	}
}

func (c *Client) receive(b byte) {
	if c.active == nil {
		glog.Warningf("drop stray byte 0x%02x", b)
		return
	}
	c.rx = append(c.rx, b)
	cmd := c.active.Request.Command
	if len(c.rx) < cmd.ResponseSize {
		return
	}
	glog.V(2).Infof("received %s % x", cmd, c.rx)
	call := c.active
	c.active, c.timer = nil, nil
	call.resultCh <- Result{Response: &Response{Command: cmd, Data: c.rx}}
	c.rx = nil
}

func (c *Client) expire() {
	call := c.active
	c.active, c.timer = nil, nil
	if call == nil {
		return
	}
	err := &TimeoutError{
		Command:  call.Request.Command,
		Received: len(c.rx),
		Expected: call.Request.Command.ResponseSize,
	}
	c.rx = nil
	glog.Errorf("%v", err)
	call.resultCh <- Result{Err: err}
	c.abortQueued(ErrAborted)
	if c.Resync {
		c.Do(NewRequest(CmdIdentify))
	}
}

func (c *Client) abortQueued(err error) {
	for call := c.pop(); call != nil; call = c.pop() {
		call.resultCh <- Result{Err: err}
	}
}

func (c *Client) abort(err error) {
	if call := c.active; call != nil {
		c.active, c.timer, c.rx = nil, nil, nil
		call.resultCh <- Result{Err: err}
	}
	c.abortQueued(err)
}
