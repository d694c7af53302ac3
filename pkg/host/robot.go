package host

import (
	"context"
	"io"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/rfcomm/pkg/link"
)

// Robot provides the blocking API of the device command set.
type Robot struct {
	*Client
}

// NewRobot creates a Robot over rw, Run must be running for
// requests to complete.
func NewRobot(rw io.ReadWriter) *Robot {
	return &Robot{Client: NewClient(rw)}
}

// Call sends a request and waits for the response.
func (r *Robot) Call(ctx context.Context, req *Request) (*Response, error) {
	return r.Do(req).Wait(ctx)
}

// Ping pings the device and returns the round trip time.
// The device advances its value on every ping.
func (r *Robot) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	resp, err := r.Call(ctx, NewRequest(CmdPing))
	if err != nil {
		return 0, err
	}
	rtt := time.Since(start)
	reply, err := resp.ReadByte()
	if err != nil {
		return rtt, err
	}
	if reply != link.PingReply {
		glog.Errorf("ping returned 0x%02x", reply)
		return rtt, ErrUnexpectedReply
	}
	return rtt, nil
}

// Identify retrieves the device identity.
func (r *Robot) Identify(ctx context.Context) (link.Identity, error) {
	resp, err := r.Call(ctx, NewRequest(CmdIdentify))
	if err != nil {
		return link.Identity{}, err
	}
	return link.DecodeIdentity(resp.Data)
}

// Value retrieves the current value V.
func (r *Robot) Value(ctx context.Context) (float32, error) {
	resp, err := r.Call(ctx, NewRequest(CmdValueGet))
	if err != nil {
		return 0, err
	}
	return resp.ReadFloat()
}

// SetValue replaces the device value. The device doesn't acknowledge,
// a rejected value only shows in a following Value.
func (r *Robot) SetValue(ctx context.Context, v link.Value) error {
	_, err := r.Call(ctx, NewValueSetRequest(v))
	return err
}

// NewValueSetRequest encodes a VALUE_SET request.
func NewValueSetRequest(v link.Value) *Request {
	return NewRequest(CmdValueSet).WriteFloat(v.V).WriteInt(v.I).WriteChecksum()
}
