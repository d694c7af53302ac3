// Package telemetry defines the link telemetry published by devices
// and bridges.
//
// Messages are encoded as protobuf Struct so any consumer can decode
// them without generated code.
//
// Producer: rfcommd (faults), rfcomm-bridge (snapshots)
// Consumer: rfcomm-mon
package telemetry

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang/protobuf/proto"
	"github.com/golang/protobuf/ptypes"
	structpb "github.com/golang/protobuf/ptypes/struct"
	tspb "github.com/golang/protobuf/ptypes/timestamp"

	"github.com/robotalks/rfcomm/pkg/link"
)

// Topic suffixes.
const (
	SnapshotTopic = "snapshot"
	FaultTopic    = "fault"
)

// ErrUnknownTopic indicates a payload on a topic which isn't telemetry.
var ErrUnknownTopic = errors.New("unknown telemetry topic")

// Message is a telemetry message.
type Message interface {
	// Topic is the topic relative to the publisher prefix.
	Topic() string
	Struct() (*structpb.Struct, error)
}

// Publisher publishes telemetry.
type Publisher interface {
	Publish(Message) error
}

// PublishFunc is func type of Publisher.
type PublishFunc func(Message) error

// Publish implements Publisher.
func (f PublishFunc) Publish(msg Message) error {
	return f(msg)
}

// Snapshot is the state of a device as seen by the host.
type Snapshot struct {
	DeviceID  string
	Identity  link.Identity
	Value     float32
	RoundTrip time.Duration
	// Failures counts requests which failed since the bridge started.
	Failures uint64
	Time     time.Time
}

// Topic implements Message.
func (s *Snapshot) Topic() string {
	return s.DeviceID + "/" + SnapshotTopic
}

// Struct implements Message.
func (s *Snapshot) Struct() (*structpb.Struct, error) {
	ts, err := timestampValue(s.Time)
	if err != nil {
		return nil, err
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"device": stringValue(s.DeviceID),
		"identity": structValue(map[string]*structpb.Value{
			"name": stringValue(s.Identity.Name),
			"date": stringValue(s.Identity.Date),
			"time": stringValue(s.Identity.Time),
		}),
		"value":    numberValue(float64(s.Value)),
		"rtt_ms":   numberValue(float64(s.RoundTrip) / float64(time.Millisecond)),
		"failures": numberValue(float64(s.Failures)),
		"time":     ts,
	}}, nil
}

// Fault is a receive fault reported by a device.
type Fault struct {
	DeviceID string
	Code     uint
	Missing  int
	Checksum bool
	Time     time.Time
}

// NewFault creates a Fault from a device fault.
func NewFault(deviceID string, f link.Fault, t time.Time) *Fault {
	return &Fault{
		DeviceID: deviceID,
		Code:     f.Code,
		Missing:  f.Missing,
		Checksum: !f.Timeout(),
		Time:     t,
	}
}

// Topic implements Message.
func (f *Fault) Topic() string {
	return f.DeviceID + "/" + FaultTopic
}

// Struct implements Message.
func (f *Fault) Struct() (*structpb.Struct, error) {
	ts, err := timestampValue(f.Time)
	if err != nil {
		return nil, err
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"device":   stringValue(f.DeviceID),
		"code":     numberValue(float64(f.Code)),
		"missing":  numberValue(float64(f.Missing)),
		"checksum": {Kind: &structpb.Value_BoolValue{BoolValue: f.Checksum}},
		"time":     ts,
	}}, nil
}

// String implements Stringer.
func (f *Fault) String() string {
	if f.Checksum {
		return fmt.Sprintf("%s checksum mismatch", f.DeviceID)
	}
	return fmt.Sprintf("%s timeout, %d bytes missing", f.DeviceID, f.Missing)
}

// Encode encodes a message.
func Encode(msg Message) ([]byte, error) {
	st, err := msg.Struct()
	if err != nil {
		return nil, err
	}
	return proto.Marshal(st)
}

// Decode decodes a message received on topic.
func Decode(topic string, payload []byte) (Message, error) {
	var st structpb.Struct
	if err := proto.Unmarshal(payload, &st); err != nil {
		return nil, err
	}
	f := fields(st.Fields)
	t, err := f.time("time")
	if err != nil {
		return nil, err
	}
	switch {
	case strings.HasSuffix(topic, "/"+SnapshotTopic):
		id := fields(f.structFields("identity"))
		return &Snapshot{
			DeviceID: f.str("device"),
			Identity: link.Identity{
				Name: id.str("name"),
				Date: id.str("date"),
				Time: id.str("time"),
			},
			Value:     float32(f.num("value")),
			RoundTrip: time.Duration(f.num("rtt_ms") * float64(time.Millisecond)),
			Failures:  uint64(f.num("failures")),
			Time:      t,
		}, nil
	case strings.HasSuffix(topic, "/"+FaultTopic):
		return &Fault{
			DeviceID: f.str("device"),
			Code:     uint(f.num("code")),
			Missing:  int(f.num("missing")),
			Checksum: f.boolean("checksum"),
			Time:     t,
		}, nil
	}
	return nil, ErrUnknownTopic
}

func stringValue(s string) *structpb.Value {
	return &structpb.Value{Kind: &structpb.Value_StringValue{StringValue: s}}
}

func numberValue(n float64) *structpb.Value {
	return &structpb.Value{Kind: &structpb.Value_NumberValue{NumberValue: n}}
}

func structValue(m map[string]*structpb.Value) *structpb.Value {
	return &structpb.Value{Kind: &structpb.Value_StructValue{StructValue: &structpb.Struct{Fields: m}}}
}

func timestampValue(t time.Time) (*structpb.Value, error) {
	ts, err := ptypes.TimestampProto(t)
	if err != nil {
		return nil, err
	}
	return structValue(map[string]*structpb.Value{
		"seconds": numberValue(float64(ts.Seconds)),
		"nanos":   numberValue(float64(ts.Nanos)),
	}), nil
}

type fields map[string]*structpb.Value

func (f fields) str(key string) string {
	return f[key].GetStringValue()
}

func (f fields) num(key string) float64 {
	return f[key].GetNumberValue()
}

func (f fields) boolean(key string) bool {
	return f[key].GetBoolValue()
}

func (f fields) structFields(key string) map[string]*structpb.Value {
	return f[key].GetStructValue().GetFields()
}

func (f fields) time(key string) (time.Time, error) {
	ts := fields(f.structFields(key))
	return ptypes.Timestamp(&tspb.Timestamp{
		Seconds: int64(ts.num("seconds")),
		Nanos:   int32(ts.num("nanos")),
	})
}
