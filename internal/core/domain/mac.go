package domain

import (
	"encoding/hex"
	"strings"
)

// MACLen is the number of bytes in a mesh node address.
const MACLen = 6

// MAC is a 6-byte mesh node address.
type MAC [MACLen]byte

// BroadcastMAC addresses every node in the mesh.
var BroadcastMAC = MAC{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}

// ParseMAC parses exactly six two-digit hexadecimal groups separated
// by ':' or '-' (one separator style per address, either case).
func ParseMAC(s string) (MAC, error) {
	var m MAC
	if err := m.UnmarshalText([]byte(s)); err != nil {
		return MAC{}, err
	}
	return m, nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
// The receiver is left untouched when parsing fails.
func (m *MAC) UnmarshalText(text []byte) error {
	s := string(text)
	// "xx" + 5 * ":xx"
	if len(s) != MACLen*3-1 {
		return ErrInvalidMAC.WithDetails(s)
	}

	sep := s[2]
	if sep != ':' && sep != '-' {
		return ErrInvalidMAC.WithDetails(s)
	}

	groups := strings.Split(s, string(sep))
	if len(groups) != MACLen {
		return ErrInvalidMAC.WithDetails(s)
	}

	var out MAC
	for i, g := range groups {
		if len(g) != 2 {
			return ErrInvalidMAC.WithDetails(s)
		}
		b, err := hex.DecodeString(g)
		if err != nil {
			return ErrInvalidMAC.WithDetails(s).WithCause(err)
		}
		out[i] = b[0]
	}

	*m = out
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (m MAC) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// String formats the address as upper-case colon-separated hex.
func (m MAC) String() string {
	const digits = "0123456789ABCDEF"
	buf := make([]byte, 0, MACLen*3-1)
	for i, b := range m {
		if i > 0 {
			buf = append(buf, ':')
		}
		buf = append(buf, digits[b>>4], digits[b&0x0F])
	}
	return string(buf)
}

// IsBroadcast reports whether m is the broadcast address.
func (m MAC) IsBroadcast() bool {
	return m == BroadcastMAC
}

// IsZero reports whether m is the all-zero address.
func (m MAC) IsZero() bool {
	return m == MAC{}
}
