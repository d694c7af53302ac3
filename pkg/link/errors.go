package link

import "errors"

var (
	// ErrChecksum indicates a payload was received completely but its
	// checksum didn't match.
	ErrChecksum = errors.New("checksum mismatch")
	// ErrNotConnected indicates there's no stream to transmit to.
	ErrNotConnected = errors.New("not connected")
	// ErrTxFull indicates the transmit buffer is full, the byte should
	// be retried later.
	ErrTxFull = errors.New("transmit buffer full")
)

// Error codes reported to the Monitor. A receive timeout reports the
// number of bytes still missing instead.
const (
	// ErrorCodeNone means no error.
	ErrorCodeNone uint = 0
	// ErrorCodeChecksum is reported when a completion failed.
	// Any code above 7 shows as a plain 2Hz blink.
	ErrorCodeChecksum uint = 0xff
)
