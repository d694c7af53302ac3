package link

// ChecksumSize is the size of the checksum trailer.
const ChecksumSize = 2

// Sum16 adds up all bytes modulo 65536.
func Sum16(data []byte) uint16 {
	var cs uint16
	for _, b := range data {
		cs += uint16(b)
	}
	return cs
}

// AppendChecksum appends the big-endian Sum16 of payload to dst.
func AppendChecksum(dst, payload []byte) []byte {
	cs := Sum16(payload)
	return append(dst, byte(cs>>8), byte(cs))
}

// VerifyChecksum checks buf holds a payload followed by its checksum
// trailer and returns the payload.
func VerifyChecksum(buf []byte) ([]byte, bool) {
	if len(buf) < ChecksumSize {
		return nil, false
	}
	n := len(buf) - ChecksumSize
	payload := buf[:n]
	cs := Sum16(payload)
	return payload, byte(cs>>8) == buf[n] && byte(cs) == buf[n+1]
}
