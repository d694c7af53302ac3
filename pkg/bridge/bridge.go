// Package bridge polls a device from the host and publishes its state
// as telemetry.
package bridge

import (
	"context"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/rfcomm/pkg/host"
	"github.com/robotalks/rfcomm/pkg/link"
	"github.com/robotalks/rfcomm/pkg/telemetry"
)

// DefaultInterval is the polling interval.
const DefaultInterval = time.Second

// Bridge polls a device through Robot: the identity once, then a ping
// and the value every Interval.
type Bridge struct {
	DeviceID  string
	Robot     *host.Robot
	Publisher telemetry.Publisher
	Interval  time.Duration

	identity link.Identity
	failures uint64
}

// New creates a Bridge.
func New(deviceID string, robot *host.Robot, pub telemetry.Publisher) *Bridge {
	return &Bridge{
		DeviceID:  deviceID,
		Robot:     robot,
		Publisher: pub,
		Interval:  DefaultInterval,
	}
}

// Failures returns the number of failed requests so far.
func (b *Bridge) Failures() uint64 {
	return b.failures
}

// Run implements Runnable.
func (b *Bridge) Run(ctx context.Context) error {
	interval := b.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if err := b.Poll(ctx); err != nil {
			glog.Warningf("poll %s: %v", b.DeviceID, err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Poll takes a snapshot and publishes it.
func (b *Bridge) Poll(ctx context.Context) error {
	snapshot, err := b.Snapshot(ctx)
	if err != nil {
		b.failures++
		return err
	}
	return b.Publisher.Publish(snapshot)
}

// Snapshot queries the device, the identity is only queried until it
// succeeded once.
func (b *Bridge) Snapshot(ctx context.Context) (*telemetry.Snapshot, error) {
	if b.identity.Name == "" {
		id, err := b.Robot.Identify(ctx)
		if err != nil {
			return nil, err
		}
		glog.Infof("device %s: %s", b.DeviceID, id)
		b.identity = id
	}
	rtt, err := b.Robot.Ping(ctx)
	if err != nil {
		return nil, err
	}
	v, err := b.Robot.Value(ctx)
	if err != nil {
		return nil, err
	}
	return &telemetry.Snapshot{
		DeviceID:  b.DeviceID,
		Identity:  b.identity,
		Value:     v,
		RoundTrip: rtt,
		Failures:  b.failures,
		Time:      time.Now(),
	}, nil
}
