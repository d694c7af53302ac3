package host

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type chanReadWriter struct {
	readCh  <-chan byte
	writeCh chan byte
}

func (c *chanReadWriter) Read(p []byte) (int, error) {
	p[0] = <-c.readCh
	return 1, nil
}

func (c *chanReadWriter) Write(p []byte) (int, error) {
	for _, b := range p {
		c.writeCh <- b
	}
	return len(p), nil
}

type clientTestEnv struct {
	t      *testing.T
	readCh chan byte
	// writeCh is large enough for a test never to block the client.
	writeCh chan byte
	client  *Client
	calls   []*Call
}

func newClientTestEnv(t *testing.T) *clientTestEnv {
	env := &clientTestEnv{
		t:       t,
		readCh:  make(chan byte, 1),
		writeCh: make(chan byte, 64),
	}
	env.client = NewClient(&chanReadWriter{readCh: env.readCh, writeCh: env.writeCh})
	env.client.Timeout = 200 * time.Millisecond
	return env
}

func (e *clientTestEnv) wrapFn(name string, fn func(string)) {
	e.t.Logf("START %s", name)
	fn(name)
	e.t.Logf("STOP %s", name)
}

func (e *clientTestEnv) run(fns ...func(string)) {
	ctx, cancel := context.WithCancel(context.TODO())
	defer cancel()
	go e.client.Run(ctx)
	for n, fn := range fns {
		e.wrapFn(fmt.Sprintf("step-%d", n), fn)
	}
}

func (e *clientTestEnv) parallel(fns ...func(string)) func(string) {
	return func(name string) {
		var wg sync.WaitGroup
		for n, fn := range fns {
			wg.Add(1)
			go func(name string, fn func(string)) {
				defer wg.Done()
				e.wrapFn(name, fn)
			}(name+fmt.Sprintf(".%d", n), fn)
		}
		wg.Wait()
	}
}

func (e *clientTestEnv) expect(bs ...byte) func(string) {
	return func(name string) {
		for i, b := range bs {
			select {
			case w := <-e.writeCh:
				require.Equalf(e.t, b, w, "%s.byte[%d] mismatch", name, i)
			case <-time.After(time.Second):
				e.t.Fatalf("%s.byte[%d]: timeout", name, i)
			}
		}
	}
}

func (e *clientTestEnv) expectIdle() func(string) {
	return func(name string) {
		select {
		case b := <-e.writeCh:
			e.t.Fatalf("%s: unexpected byte 0x%02x", name, b)
		case <-time.After(20 * time.Millisecond):
		}
	}
}

func (e *clientTestEnv) inject(bs ...byte) func(string) {
	return func(name string) {
		for _, b := range bs {
			e.readCh <- b
		}
	}
}

func (e *clientTestEnv) clientDo(req *Request) func(string) {
	return func(name string) {
		e.calls = append(e.calls, e.client.Do(req))
	}
}

func (e *clientTestEnv) nextResult(name string) (r Result) {
	require.NotEmptyf(e.t, e.calls, "%s calls empty", name)
	call := e.calls[0]
	e.calls = e.calls[1:]
	select {
	case r = <-call.ResultChan():
	case <-time.After(time.Second):
		e.t.Fatalf("%s: timeout", name)
	}
	return
}

func (e *clientTestEnv) clientResult(data ...byte) func(string) {
	return func(name string) {
		r := e.nextResult(name)
		require.NoErrorf(e.t, r.Err, "%s unexpected err", name)
		if len(data) == 0 {
			require.Emptyf(e.t, r.Response.Data, "%s data not empty", name)
		} else {
			require.Equalf(e.t, data, r.Response.Data, "%s data mismatch", name)
		}
	}
}

func (e *clientTestEnv) clientResultErr(err error) func(string) {
	return func(name string) {
		r := e.nextResult(name)
		require.Equalf(e.t, err, r.Err, "%s mismatch", name)
	}
}

func TestClient(t *testing.T) {
	testCases := []struct {
		name  string
		logic func(*clientTestEnv)
	}{
		{
			"ping",
			func(env *clientTestEnv) {
				env.run(
					env.clientDo(NewRequest(CmdPing)),
					env.expect(0x00),
					env.inject(0x00),
					env.clientResult(0x00),
				)
			},
		},
		{
			"one request in flight",
			func(env *clientTestEnv) {
				env.run(
					env.clientDo(NewRequest(CmdValueGet)),
					env.clientDo(NewRequest(CmdPing)),
					env.expect(0x02),
					env.expectIdle(),
					env.inject(0, 0, 0xc0),
					env.expectIdle(),
					env.inject(0x3f),
					env.clientResult(0, 0, 0xc0, 0x3f),
					env.expect(0x00),
					env.inject(0x00),
					env.clientResult(0x00),
				)
			},
		},
		{
			"no response expected",
			func(env *clientTestEnv) {
				env.run(
					env.clientDo(NewValueSetRequest(testValue)),
					env.clientDo(NewRequest(CmdPing)),
					env.expect(0x82, 0, 0, 0xc0, 0x3f, 2, 0, 0, 0, 0x01, 0x01),
					env.clientResult(),
					env.expect(0x00),
					env.inject(0x00),
					env.clientResult(0x00),
				)
			},
		},
		{
			"timeout aborts queue and resyncs",
			func(env *clientTestEnv) {
				env.run(
					env.clientDo(NewRequest(CmdValueGet)),
					env.clientDo(NewRequest(CmdPing)),
					env.expect(0x02),
					env.inject(0x01, 0x02),
					env.clientResultErr(&TimeoutError{Command: CmdValueGet, Received: 2, Expected: 4}),
					env.clientResultErr(ErrAborted),
					env.expect(0x01),
				)
			},
		},
		{
			"requests after resync",
			func(env *clientTestEnv) {
				env.run(
					env.clientDo(NewRequest(CmdPing)),
					env.expect(0x00),
					env.clientResultErr(&TimeoutError{Command: CmdPing, Expected: 1}),
					env.expect(0x01),
					env.parallel(
						env.clientDo(NewRequest(CmdPing)),
						env.inject(make([]byte, 30)...),
					),
					env.expect(0x00),
					env.inject(0x00),
					env.clientResult(0x00),
				)
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			env := newClientTestEnv(t)
			tc.logic(env)
		})
	}
}

func TestClientWithoutResync(t *testing.T) {
	env := newClientTestEnv(t)
	env.client.Resync = false
	env.run(
		env.clientDo(NewRequest(CmdPing)),
		env.expect(0x00),
		env.clientResultErr(&TimeoutError{Command: CmdPing, Expected: 1}),
		env.expectIdle(),
	)
}

func TestClientStrayBytes(t *testing.T) {
	c := NewClient(nil)
	c.receive(0x55)
	require.Nil(t, c.active)
	require.Empty(t, c.rx)
}

type failingReadWriter struct {
	err error
}

func (f *failingReadWriter) Read([]byte) (int, error) {
	return 0, f.err
}

func (f *failingReadWriter) Write([]byte) (int, error) {
	return 0, f.err
}

func TestClientStreamError(t *testing.T) {
	failure := fmt.Errorf("broken")
	c := NewClient(&failingReadWriter{err: failure})
	call := c.Do(NewRequest(CmdPing))
	require.Equal(t, failure, c.Run(context.Background()))
	r := <-call.ResultChan()
	require.Equal(t, failure, r.Err)
}
