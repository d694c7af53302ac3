package link

import (
	"bytes"
	"errors"
	"time"
)

// Field capacities of the identity record, including the NUL terminator.
const (
	IdentityNameSize = 9
	IdentityDateSize = 12
	IdentityTimeSize = 9
	IdentitySize     = IdentityNameSize + IdentityDateSize + IdentityTimeSize
)

// DefaultName is the application name reported by IDENTIFY.
const DefaultName = "newt-rfc"

// BuildDate and BuildTime are stamped at link time, e.g.
//   -ldflags "-X 'github.com/robotalks/rfcomm/pkg/link.BuildDate=Oct 19 2026'"
// When empty, the process start time is used.
var (
	BuildDate string
	BuildTime string
)

// Layouts matching the C preprocessor __DATE__ and __TIME__.
const (
	DateLayout = "Jan _2 2006"
	TimeLayout = "15:04:05"
)

// ErrIdentitySize indicates an identity record with a wrong size.
var ErrIdentitySize = errors.New("invalid identity record size")

// Identity describes the firmware running on the device.
type Identity struct {
	Name string
	Date string
	Time string
}

// NewIdentity creates the identity of this build, stamped at t when no
// build stamp was linked in.
func NewIdentity(name string, t time.Time) Identity {
	id := Identity{Name: name, Date: BuildDate, Time: BuildTime}
	if id.Date == "" {
		id.Date = t.Format(DateLayout)
	}
	if id.Time == "" {
		id.Time = t.Format(TimeLayout)
	}
	return id
}

// Bytes encodes the identity as fixed size NUL padded fields.
// Overlong fields are truncated to keep the terminator.
func (id Identity) Bytes() []byte {
	b := make([]byte, IdentitySize)
	putField(b[:IdentityNameSize], id.Name)
	putField(b[IdentityNameSize:IdentityNameSize+IdentityDateSize], id.Date)
	putField(b[IdentityNameSize+IdentityDateSize:], id.Time)
	return b
}

// String implements Stringer.
func (id Identity) String() string {
	return id.Name + " " + id.Date + " " + id.Time
}

// DecodeIdentity decodes an identity record.
func DecodeIdentity(b []byte) (Identity, error) {
	if len(b) != IdentitySize {
		return Identity{}, ErrIdentitySize
	}
	return Identity{
		Name: field(b[:IdentityNameSize]),
		Date: field(b[IdentityNameSize : IdentityNameSize+IdentityDateSize]),
		Time: field(b[IdentityNameSize+IdentityDateSize:]),
	}, nil
}

func putField(dst []byte, s string) {
	copy(dst[:len(dst)-1], s)
}

func field(b []byte) string {
	if n := bytes.IndexByte(b, 0); n >= 0 {
		b = b[:n]
	}
	return string(b)
}
