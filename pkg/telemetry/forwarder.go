package telemetry

import (
	"context"
	"errors"

	"github.com/golang/glog"
)

// DefaultForwarderQueueSize is the number of messages a Forwarder buffers.
const DefaultForwarderQueueSize = 16

// ErrQueueFull indicates a message was dropped by a Forwarder.
var ErrQueueFull = errors.New("telemetry queue full")

// Forwarder publishes in the background so producers running in a
// control loop never block on the broker.
type Forwarder struct {
	Publisher Publisher

	msgCh chan Message
}

// NewForwarder creates a Forwarder.
func NewForwarder(p Publisher, size int) *Forwarder {
	if size <= 0 {
		size = DefaultForwarderQueueSize
	}
	return &Forwarder{Publisher: p, msgCh: make(chan Message, size)}
}

// Publish implements Publisher. It never blocks, when the queue is
// full the message is dropped.
func (f *Forwarder) Publish(msg Message) error {
	select {
	case f.msgCh <- msg:
		return nil
	default:
		return ErrQueueFull
	}
}

// Run implements Runnable.
func (f *Forwarder) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-f.msgCh:
			if err := f.Publisher.Publish(msg); err != nil {
				glog.Warningf("publish %s error: %v", msg.Topic(), err)
			}
		}
	}
}
