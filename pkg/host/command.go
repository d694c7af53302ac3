package host

import (
	"encoding/binary"
	"math"

	"github.com/robotalks/rfcomm/pkg/link"
)

// Command describes a device command and the size of its response.
type Command struct {
	Code         byte
	ResponseSize int
}

// String implements Stringer.
func (c Command) String() string {
	return link.CommandName(c.Code)
}

// RequiresResponse indicates the device answers the command.
func (c Command) RequiresResponse() bool {
	return c.ResponseSize > 0
}

// The device command set.
var (
	CmdPing     = Command{Code: link.CmdPing, ResponseSize: 1}
	CmdIdentify = Command{Code: link.CmdIdentify, ResponseSize: link.IdentitySize}
	CmdValueGet = Command{Code: link.CmdValueGet, ResponseSize: 4}
	CmdValueSet = Command{Code: link.CmdValueSet}
)

// Request is the encoded form of a command with its payload.
// Payload values are little-endian, the command byte is excluded
// from the running checksum.
type Request struct {
	Command Command

	buf      []byte
	checksum uint16
}

// NewRequest creates a Request starting with the command byte.
func NewRequest(cmd Command) *Request {
	return &Request{Command: cmd, buf: []byte{cmd.Code}}
}

// Write implements io.Writer, written bytes are part of the checksum.
func (r *Request) Write(p []byte) (int, error) {
	for _, b := range p {
		r.checksum += uint16(b)
	}
	r.buf = append(r.buf, p...)
	return len(p), nil
}

// WriteUint8 appends a byte.
func (r *Request) WriteUint8(v byte) *Request {
	r.Write([]byte{v})
	return r
}

// WriteShort appends a 16-bit integer.
func (r *Request) WriteShort(v int16) *Request {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], uint16(v))
	r.Write(b[:])
	return r
}

// WriteInt appends a 32-bit integer.
func (r *Request) WriteInt(v int32) *Request {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], uint32(v))
	r.Write(b[:])
	return r
}

// WriteFloat appends a 32-bit float.
func (r *Request) WriteFloat(v float32) *Request {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], math.Float32bits(v))
	r.Write(b[:])
	return r
}

// WriteChecksum appends the checksum of the payload written so far
// in big-endian order.
func (r *Request) WriteChecksum() *Request {
	r.buf = append(r.buf, byte(r.checksum>>8), byte(r.checksum))
	return r
}

// Checksum returns the running checksum.
func (r *Request) Checksum() uint16 {
	return r.checksum
}

// Bytes returns the encoded request.
func (r *Request) Bytes() []byte {
	return r.buf
}

// Response holds the bytes received for a request and decodes them
// sequentially.
type Response struct {
	Command Command
	Data    []byte

	off int
}

// Remaining returns the number of bytes not read yet.
func (r *Response) Remaining() int {
	return len(r.Data) - r.off
}

func (r *Response) next(n int) ([]byte, error) {
	if r.Remaining() < n {
		return nil, ErrShortResponse
	}
	b := r.Data[r.off : r.off+n]
	r.off += n
	return b, nil
}

// ReadByte implements io.ByteReader.
func (r *Response) ReadByte() (byte, error) {
	b, err := r.next(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadShort reads a 16-bit integer.
func (r *Response) ReadShort() (int16, error) {
	b, err := r.next(2)
	if err != nil {
		return 0, err
	}
	return int16(binary.LittleEndian.Uint16(b)), nil
}

// ReadInt reads a 32-bit integer.
func (r *Response) ReadInt() (int32, error) {
	b, err := r.next(4)
	if err != nil {
		return 0, err
	}
	return int32(binary.LittleEndian.Uint32(b)), nil
}

// ReadFloat reads a 32-bit float.
func (r *Response) ReadFloat() (float32, error) {
	b, err := r.next(4)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(b)), nil
}

// ReadString reads a NUL terminated string and skips the NUL padding
// following it.
func (r *Response) ReadString() (string, error) {
	if r.Remaining() <= 0 {
		return "", ErrShortResponse
	}
	start := r.off
	for r.off < len(r.Data) && r.Data[r.off] != 0 {
		r.off++
	}
	s := string(r.Data[start:r.off])
	for r.off < len(r.Data) && r.Data[r.off] == 0 {
		r.off++
	}
	return s, nil
}
