package host

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/rfcomm/pkg/link"
)

var testValue = link.Value{V: 1.5, I: 2}

type robotTestEnv struct {
	robot  *Robot
	device *link.Device
	cancel context.CancelFunc
	done   chan struct{}
}

func newRobotTestEnv(t *testing.T) *robotTestEnv {
	hostEnd, deviceEnd := net.Pipe()
	env := &robotTestEnv{done: make(chan struct{})}
	env.device = link.NewDevice(link.NewStreamTransport(deviceEnd), link.NewSystemClock(), nil)
	env.robot = NewRobot(hostEnd)

	ctx, cancel := context.WithCancel(context.Background())
	env.cancel = cancel
	go func() {
		defer close(env.done)
		env.device.Run(ctx, time.Millisecond)
	}()
	go func() {
		env.robot.Run(ctx)
		hostEnd.Close()
	}()
	return env
}

func (e *robotTestEnv) stop() {
	e.cancel()
	<-e.done
}

func TestRobot(t *testing.T) {
	env := newRobotTestEnv(t)
	defer env.stop()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	id, err := env.robot.Identify(ctx)
	require.NoError(t, err)
	require.Equal(t, link.DefaultName, id.Name)
	require.NotEmpty(t, id.Date)
	require.NotEmpty(t, id.Time)

	v, err := env.robot.Value(ctx)
	require.NoError(t, err)
	require.Equal(t, float32(0), v)

	_, err = env.robot.Ping(ctx)
	require.NoError(t, err)
	v, err = env.robot.Value(ctx)
	require.NoError(t, err)
	require.Equal(t, float32(0.001), v)

	require.NoError(t, env.robot.SetValue(ctx, testValue))
	v, err = env.robot.Value(ctx)
	require.NoError(t, err)
	require.Equal(t, float32(1.5), v)

	_, err = env.robot.Ping(ctx)
	require.NoError(t, err)
	v, err = env.robot.Value(ctx)
	require.NoError(t, err)
	require.InDelta(t, 1.502, v, 1e-6)
}

func TestRobotBadChecksumIgnored(t *testing.T) {
	env := newRobotTestEnv(t)
	defer env.stop()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req := NewRequest(CmdValueSet).WriteFloat(9).WriteInt(9).WriteUint8(0).WriteUint8(0)
	_, err := env.robot.Call(ctx, req)
	require.NoError(t, err)
	v, err := env.robot.Value(ctx)
	require.NoError(t, err)
	require.Equal(t, float32(0), v)
}
