package link

import (
	"testing"

	"github.com/stretchr/testify/require"
)

var testIdentity = Identity{Name: DefaultName, Date: "Oct 19 2026", Time: "08:15:00"}

type deviceTestEnv struct {
	t      *testing.T
	clock  *fakeClock
	tr     *fakeTransport
	dev    *Device
	faults []Fault
}

func newDeviceTestEnv(t *testing.T) *deviceTestEnv {
	env := &deviceTestEnv{
		t:     t,
		clock: &fakeClock{now: 1000},
		tr:    &fakeTransport{},
	}
	env.dev = NewDevice(env.tr, env.clock, nil)
	env.dev.SetIdentity(testIdentity)
	env.dev.Faults = HandleFaultFunc(func(f Fault) {
		env.faults = append(env.faults, f)
	})
	return env
}

func (e *deviceTestEnv) inject(bs ...byte) *deviceTestEnv {
	e.tr.inject(bs...)
	return e
}

func (e *deviceTestEnv) tick(n int) *deviceTestEnv {
	for i := 0; i < n; i++ {
		e.dev.Tick()
	}
	return e
}

// drain ticks until all received bytes are processed and all
// responses are transmitted.
func (e *deviceTestEnv) drain() *deviceTestEnv {
	for i := 0; i < 1000 && (len(e.tr.rx) > 0 || e.dev.Pending() > 0); i++ {
		e.dev.Tick()
	}
	require.Empty(e.t, e.tr.rx, "receive not drained")
	require.Zero(e.t, e.dev.Pending(), "transmit not drained")
	return e
}

func (e *deviceTestEnv) advance(ms uint32) *deviceTestEnv {
	e.clock.advance(ms)
	return e
}

func (e *deviceTestEnv) expectTx(bs ...byte) *deviceTestEnv {
	tx := e.tr.takeTx()
	if len(bs) == 0 {
		require.Empty(e.t, tx)
	} else {
		require.Equal(e.t, bs, tx)
	}
	return e
}

func TestDevicePing(t *testing.T) {
	env := newDeviceTestEnv(t)
	env.inject(CmdPing).tick(1).expectTx()
	env.tick(1).expectTx(PingReply)
	require.Equal(t, Value{V: 0.001, I: 1}, env.dev.Values.Get())
}

func TestDeviceIdentify(t *testing.T) {
	env := newDeviceTestEnv(t)
	env.inject(CmdIdentify).drain()
	tx := env.tr.takeTx()
	require.Len(t, tx, IdentitySize)
	id, err := DecodeIdentity(tx)
	require.NoError(t, err)
	require.Equal(t, testIdentity, id)
}

func TestDeviceValueSetGet(t *testing.T) {
	env := newDeviceTestEnv(t)
	env.inject(valueSetFrame(Value{V: 1.5, I: 2})...).drain().expectTx()
	require.Equal(t, Value{V: 1.5, I: 2}, env.dev.Values.Get())
	require.False(t, env.dev.Framer.Active())

	env.advance(1).tick(1)
	require.Empty(t, env.faults)

	env.inject(CmdValueGet).drain().expectTx(0x00, 0x00, 0xc0, 0x3f)

	env.inject(CmdPing, CmdValueGet).drain().expectTx(append([]byte{PingReply}, EncodeFloat(1.502)...)...)
}

func TestDeviceValueSetBadChecksum(t *testing.T) {
	env := newDeviceTestEnv(t)
	frame := valueSetFrame(Value{V: 1.5, I: 2})
	frame[len(frame)-1] ^= 0x01
	env.inject(frame...).drain().expectTx()
	require.Equal(t, DefaultValue, env.dev.Values.Get())
	require.Equal(t, ErrChecksum, env.dev.Framer.Err())
	require.Empty(t, env.faults)

	env.advance(1).tick(1)
	require.Equal(t, []Fault{{Code: ErrorCodeChecksum, Err: ErrChecksum}}, env.faults)
	require.Equal(t, ErrorCodeChecksum, env.dev.Monitor.ErrorCode())
	require.Equal(t, uint(1), env.dev.FaultCount())
	require.NoError(t, env.dev.Framer.Err())

	env.inject(CmdPing).drain().expectTx(PingReply)
}

func TestDeviceValueSetTimeout(t *testing.T) {
	env := newDeviceTestEnv(t)
	env.inject(CmdValueSet, 1, 2, 3, 4).drain().expectTx()
	require.True(t, env.dev.Framer.Active())
	require.Equal(t, 6, env.dev.Framer.ByteCount())

	env.advance(RxTimeout).tick(1)
	require.Empty(t, env.faults)
	env.advance(1).tick(1)
	require.Len(t, env.faults, 1)
	require.True(t, env.faults[0].Timeout())
	require.Equal(t, 6, env.faults[0].Missing)
	require.Equal(t, uint(6), env.dev.Monitor.ErrorCode())
	require.False(t, env.dev.Framer.Active())
	require.Equal(t, DefaultValue, env.dev.Values.Get())

	env.inject(CmdValueGet).drain().expectTx(0, 0, 0, 0)
}

func TestDeviceUnknownCommand(t *testing.T) {
	env := newDeviceTestEnv(t)
	env.inject(0x55, 0x81, 0xff).drain().expectTx()
	env.advance(RxTimeout * 4).tick(1)
	require.Empty(t, env.faults)
	require.Equal(t, DefaultValue, env.dev.Values.Get())
}

func TestDeviceQueuesResponses(t *testing.T) {
	env := newDeviceTestEnv(t)
	env.inject(CmdIdentify, CmdPing, CmdValueGet).drain()
	expected := append(testIdentity.Bytes(), PingReply)
	expected = append(expected, EncodeFloat(0.001)...)
	env.expectTx(expected...)
}

type failingTransport struct {
	fakeTransport
	err error
}

func (t *failingTransport) TxByte(byte) error {
	return t.err
}

func TestDeviceTransmitError(t *testing.T) {
	tr := &failingTransport{err: ErrNotConnected}
	dev := NewDevice(tr, &fakeClock{}, nil)
	tr.inject(CmdIdentify)
	dev.Tick()
	require.Equal(t, IdentitySize, dev.Pending())
	dev.Tick()
	require.Zero(t, dev.Pending())
}

func TestDeviceTransmitFull(t *testing.T) {
	tr := &failingTransport{err: ErrTxFull}
	dev := NewDevice(tr, &fakeClock{}, nil)
	tr.inject(CmdPing)
	dev.Tick()
	require.Equal(t, 1, dev.Pending())
	for i := 0; i < 5; i++ {
		dev.Tick()
	}
	require.Equal(t, 1, dev.Pending())

	tr.err = nil
	dev.Tick()
	require.Zero(t, dev.Pending())
}
