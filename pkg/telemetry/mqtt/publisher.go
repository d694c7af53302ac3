package mqtt

import (
	"errors"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/rfcomm/pkg/telemetry"
)

// DefaultPublishTimeout limits how long Publish waits for the broker.
const DefaultPublishTimeout = time.Second

// ErrPublishTimeout indicates the broker didn't acknowledge in time.
var ErrPublishTimeout = errors.New("publish timeout")

// Publisher implements telemetry.Publisher.
type Publisher struct {
	Queue   *Queue
	Timeout time.Duration
	Retain  bool
}

// NewPublisher creates a Publisher.
func NewPublisher(q *Queue) *Publisher {
	return &Publisher{Queue: q, Timeout: DefaultPublishTimeout}
}

// Publish implements telemetry.Publisher.
func (p *Publisher) Publish(msg telemetry.Message) error {
	payload, err := telemetry.Encode(msg)
	if err != nil {
		return err
	}
	token := p.Queue.PubWith(msg.Topic(), payload, 0, p.Retain)
	if !token.WaitTimeout(p.Timeout) {
		return ErrPublishTimeout
	}
	return token.Error()
}

// Subscribe delivers decoded telemetry of devices matching deviceID,
// which may be + for all devices.
func Subscribe(q *Queue, deviceID string, fn func(telemetry.Message)) *Subscription {
	return q.Sub(deviceID+"/+", func(topic string, payload []byte) {
		msg, err := telemetry.Decode(topic, payload)
		if err != nil {
			glog.V(2).Infof("drop %q: %v", topic, err)
			return
		}
		fn(msg)
	})
}
