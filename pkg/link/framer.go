package link

// RxTimeout is the time in milliseconds a receive session may take
// from start to completion.
const RxTimeout uint32 = 250

// Completion is invoked when a receive session got all its bytes.
// A non-nil error marks the session as failed.
type Completion interface {
	Complete(buf []byte) error
}

// CompletionFunc is func type of Completion.
type CompletionFunc func(buf []byte) error

// Complete implements Completion.
func (f CompletionFunc) Complete(buf []byte) error {
	return f(buf)
}

// CommandHandler receives bytes which arrive while no session is active.
type CommandHandler interface {
	HandleCommand(cmd byte)
}

// HandleCommandFunc is func type of CommandHandler.
type HandleCommandFunc func(cmd byte)

// HandleCommand implements CommandHandler.
func (f HandleCommandFunc) HandleCommand(cmd byte) {
	f(cmd)
}

// Framer routes received bytes either into the active receive session
// or to the CommandHandler, and supervises the session with a deadline.
//
// Failures are never returned directly: a timed out session and a
// session whose Completion failed both surface through Expired, the
// latter one tick after the last byte. The owner then inspects
// ByteCount and Err and returns to idle with StartReceive(nil, nil).
type Framer struct {
	Clock   Clock
	Handler CommandHandler
	// Timeout overrides RxTimeout when non-zero.
	Timeout uint32

	buf       []byte
	pos       int
	remaining int
	done      Completion
	err       error
	deadline  Deadline
}

// NewFramer creates a Framer.
func NewFramer(clock Clock, handler CommandHandler) *Framer {
	return &Framer{Clock: clock, Handler: handler}
}

// StartReceive starts capturing len(buf) bytes into buf.
// An empty buf cancels the current session, if any, and the following
// bytes are treated as commands again. Starting a session replaces the
// previous one.
func (f *Framer) StartReceive(buf []byte, done Completion) {
	f.buf, f.pos, f.remaining = buf, 0, len(buf)
	f.done, f.err = done, nil
	if f.remaining == 0 {
		f.buf, f.done = nil, nil
		f.deadline.Stop()
		return
	}
	f.deadline.Set(f.Clock.NowMillis(), f.timeout())
}

// Receive processes one received byte.
func (f *Framer) Receive(b byte) {
	if f.remaining == 0 {
		if h := f.Handler; h != nil {
			h.HandleCommand(b)
		}
		return
	}
	f.buf[f.pos] = b
	f.pos++
	f.remaining--
	if f.remaining > 0 {
		return
	}
	f.deadline.Stop()
	if f.done != nil {
		if f.err = f.done.Complete(f.buf); f.err != nil {
			// expire on the next tick so failures take the timeout path.
			f.deadline.Set(f.Clock.NowMillis(), 0)
		}
	}
}

// Expired reports whether the session failed by now.
func (f *Framer) Expired(now Millis) bool {
	return f.deadline.Expired(now)
}

// Active indicates a session is capturing bytes.
func (f *Framer) Active() bool {
	return f.remaining > 0
}

// ByteCount returns the number of bytes the session still expects.
func (f *Framer) ByteCount() int {
	return f.remaining
}

// Err returns the error reported by the last Completion.
func (f *Framer) Err() error {
	return f.err
}

func (f *Framer) timeout() uint32 {
	if f.Timeout != 0 {
		return f.Timeout
	}
	return RxTimeout
}
