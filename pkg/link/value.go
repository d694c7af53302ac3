package link

import (
	"encoding/binary"
	"math"
)

// ValueSize is the wire size of Value.
const ValueSize = 8

// PingIncrementScale scales Value.I into the amount added to Value.V on
// every PING.
const PingIncrementScale = 0.001

// Value is the application state held by the device.
type Value struct {
	V float32
	I int32
}

// DefaultValue is the value after reset.
var DefaultValue = Value{V: 0, I: 1}

// Bytes encodes the value in device byte order (little-endian).
func (v Value) Bytes() []byte {
	b := make([]byte, ValueSize)
	binary.LittleEndian.PutUint32(b[0:4], math.Float32bits(v.V))
	binary.LittleEndian.PutUint32(b[4:8], uint32(v.I))
	return b
}

// DecodeValue decodes a value from its wire form.
func DecodeValue(b []byte) Value {
	return Value{
		V: math.Float32frombits(binary.LittleEndian.Uint32(b[0:4])),
		I: int32(binary.LittleEndian.Uint32(b[4:8])),
	}
}

// EncodeFloat encodes a float in device byte order.
func EncodeFloat(f float32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, math.Float32bits(f))
	return b
}

// ValueStore owns the device Value.
type ValueStore struct {
	value Value
}

// NewValueStore creates a store holding DefaultValue.
func NewValueStore() *ValueStore {
	return &ValueStore{value: DefaultValue}
}

// Get returns the current value.
func (s *ValueStore) Get() Value {
	return s.value
}

// Ping advances V by I scaled with PingIncrementScale.
func (s *ValueStore) Ping() Value {
	s.value.V = float32(float64(s.value.V) + float64(s.value.I)*PingIncrementScale)
	return s.value
}

// Apply validates buf (ValueSize payload bytes and the checksum trailer)
// and replaces the value on success. On ErrChecksum the value is untouched.
// Apply is the Completion of a VALUE_SET session.
func (s *ValueStore) Apply(buf []byte) error {
	if len(buf) != ValueSize+ChecksumSize {
		return ErrChecksum
	}
	payload, ok := VerifyChecksum(buf)
	if !ok {
		return ErrChecksum
	}
	s.value = DecodeValue(payload)
	return nil
}
