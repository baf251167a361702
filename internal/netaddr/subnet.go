package netaddr

import (
	"fmt"
	"math/bits"
)

// Prefix bounds offered by the calculator
const (
	MinPrefix = 8
	MaxPrefix = 30
)

// Subnet is the result of a subnet calculation
type Subnet struct {
	Network   string `json:"network"`
	Mask      string `json:"mask"`
	Prefix    int    `json:"prefix"`
	FirstHost string `json:"first_host"`
	LastHost  string `json:"last_host"`
	Broadcast string `json:"broadcast"`
	Hosts     int    `json:"hosts"`
}

// MaskFromPrefix returns the dotted mask for a prefix length in [0,32]
func MaskFromPrefix(prefix int) (string, error) {
	if prefix < 0 || prefix > 32 {
		return "", fmt.Errorf("prefix /%d out of range", prefix)
	}
	return fromUint32(prefixBits(prefix)), nil
}

// PrefixFromMask returns the prefix length of a contiguous mask
func PrefixFromMask(mask string) (int, error) {
	if !ValidMask(mask) {
		return 0, fmt.Errorf("%q is not a contiguous subnet mask", mask)
	}
	return bits.OnesCount32(toUint32(mask)), nil
}

// Calculate derives network, broadcast and host range for ip/prefix
func Calculate(ip string, prefix int) (Subnet, error) {
	if !ValidIP(ip) {
		return Subnet{}, fmt.Errorf("%q is not a valid IPv4 address", ip)
	}
	if prefix < MinPrefix || prefix > MaxPrefix {
		return Subnet{}, fmt.Errorf("prefix /%d out of range /%d-/%d", prefix, MinPrefix, MaxPrefix)
	}

	mask := prefixBits(prefix)
	network := toUint32(ip) & mask
	broadcast := network | ^mask

	hosts := (1 << (32 - prefix)) - 2
	if hosts < 0 {
		hosts = 0
	}

	return Subnet{
		Network:   fromUint32(network),
		Mask:      fromUint32(mask),
		Prefix:    prefix,
		FirstHost: fromUint32(network + 1),
		LastHost:  fromUint32(broadcast - 1),
		Broadcast: fromUint32(broadcast),
		Hosts:     hosts,
	}, nil
}

// Next returns the address immediately after ip
func Next(ip string) (string, error) {
	if !ValidIP(ip) {
		return "", fmt.Errorf("%q is not a valid IPv4 address", ip)
	}
	n := toUint32(ip)
	if n == ^uint32(0) {
		return "", fmt.Errorf("no address follows %s", ip)
	}
	return fromUint32(n + 1), nil
}

func prefixBits(prefix int) uint32 {
	if prefix == 0 {
		return 0
	}
	return ^uint32(0) << (32 - prefix)
}
