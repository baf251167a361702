// Package netaddr holds the IPv4 address rules shared by the CLI, the topology
// configuration operations and the subnet calculator.
package netaddr

import (
	"crypto/rand"
	"fmt"
	"net/netip"
	"strings"
)

// ValidIP reports whether s is a dotted-quad IPv4 address: four decimal
// octets in [0,255] with no leading zeros.
func ValidIP(s string) bool {
	// netip rejects leading zeros and out of range octets for IPv4
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return false
	}
	return addr.Is4() && strings.Count(s, ".") == 3
}

// ValidMask reports whether s is a valid IPv4 address whose bits are a run of
// ones followed by a run of zeros.
func ValidMask(s string) bool {
	if !ValidIP(s) {
		return false
	}
	m := toUint32(s)
	inv := ^m
	return inv&(inv+1) == 0
}

// FieldError describes an invalid value for a named field
type FieldError struct {
	Field  string
	Value  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// CheckIP validates a required IP field
func CheckIP(value, field string) error {
	if value == "" {
		return &FieldError{Field: field, Value: value, Reason: "value is required"}
	}
	if !ValidIP(value) {
		return &FieldError{Field: field, Value: value, Reason: fmt.Sprintf("%q is not a valid IPv4 address", value)}
	}
	return nil
}

// CheckMask validates a required subnet mask field
func CheckMask(value, field string) error {
	if value == "" {
		return &FieldError{Field: field, Value: value, Reason: "value is required"}
	}
	if !ValidIP(value) {
		return &FieldError{Field: field, Value: value, Reason: fmt.Sprintf("%q is not a valid IPv4 address", value)}
	}
	if !ValidMask(value) {
		return &FieldError{Field: field, Value: value, Reason: fmt.Sprintf("%q is not a contiguous subnet mask", value)}
	}
	return nil
}

// CheckOptionalIP validates an IP field that may be left empty
func CheckOptionalIP(value, field string) error {
	if value == "" {
		return nil
	}
	return CheckIP(value, field)
}

// CheckOptionalMask validates a mask field that may be left empty
func CheckOptionalMask(value, field string) error {
	if value == "" {
		return nil
	}
	return CheckMask(value, field)
}

// RandomMAC generates an address in the 00:E0 vendor block
func RandomMAC() string {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(fmt.Sprintf("netaddr: read random bytes: %v", err))
	}
	return fmt.Sprintf("00:E0:%02X:%02X:%02X:%02X", b[0], b[1], b[2], b[3])
}

func toUint32(s string) uint32 {
	a := netip.MustParseAddr(s).As4()
	return uint32(a[0])<<24 | uint32(a[1])<<16 | uint32(a[2])<<8 | uint32(a[3])
}

func fromUint32(v uint32) string {
	return netip.AddrFrom4([4]byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}).String()
}
