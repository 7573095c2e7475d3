package domain

import (
	"strconv"
	"strings"
)

// TTL bounds for outgoing mesh messages, in hops.
const (
	TTLMin     = 1
	TTLMax     = 10
	TTLDefault = 4
)

// ParseTTL parses a decimal hop count and checks it lies in [TTLMin, TTLMax].
func ParseTTL(s string) (uint8, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrMissingArgument.WithDetails("ttl")
	}

	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, ErrInvalidTTL.WithDetails(s).WithCause(err)
	}
	if err := ValidateTTL(n); err != nil {
		return 0, err
	}
	return uint8(n), nil
}

// ValidateTTL checks that n lies in [TTLMin, TTLMax].
func ValidateTTL(n int) error {
	if n < TTLMin || n > TTLMax {
		return ErrTTLOutOfRange.WithDetails(strconv.Itoa(n) + " not in [" +
			strconv.Itoa(TTLMin) + ", " + strconv.Itoa(TTLMax) + "]")
	}
	return nil
}
