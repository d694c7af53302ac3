package link

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestIdentityBytes(t *testing.T) {
	id := Identity{Name: "newt-rfc", Date: "Oct 19 2026", Time: "08:15:00"}
	b := id.Bytes()
	require.Len(t, b, IdentitySize)
	require.Equal(t, 30, IdentitySize)
	require.Equal(t, "newt-rfc\x00", string(b[0:9]))
	require.Equal(t, "Oct 19 2026\x00", string(b[9:21]))
	require.Equal(t, "08:15:00\x00", string(b[21:30]))

	decoded, err := DecodeIdentity(b)
	require.NoError(t, err)
	require.Equal(t, id, decoded)
}

func TestIdentityTruncate(t *testing.T) {
	b := Identity{Name: "a-very-long-name", Date: "d", Time: "t"}.Bytes()
	require.Len(t, b, IdentitySize)
	require.Equal(t, byte(0), b[IdentityNameSize-1])
	id, err := DecodeIdentity(b)
	require.NoError(t, err)
	require.Equal(t, "a-very-l", id.Name)
	require.Equal(t, "d", id.Date)
	require.Equal(t, "t", id.Time)
}

func TestDecodeIdentitySize(t *testing.T) {
	_, err := DecodeIdentity(make([]byte, 29))
	require.Equal(t, ErrIdentitySize, err)
}

func TestNewIdentity(t *testing.T) {
	at := time.Date(2026, time.March, 5, 7, 8, 9, 0, time.UTC)
	id := NewIdentity(DefaultName, at)
	require.Equal(t, Identity{Name: DefaultName, Date: "Mar  5 2026", Time: "07:08:09"}, id)

	BuildDate, BuildTime = "Jan  1 2020", "00:00:01"
	defer func() { BuildDate, BuildTime = "", "" }()
	id = NewIdentity(DefaultName, at)
	require.Equal(t, "Jan  1 2020", id.Date)
	require.Equal(t, "00:00:01", id.Time)
}
