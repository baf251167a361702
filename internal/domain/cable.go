package domain

import "fmt"

// CableKind represents the physical type of a cable
type CableKind string

const (
	CableStraight CableKind = "straight"
	CableCross    CableKind = "cross"
	CableSerial   CableKind = "serial"
	CableFiber    CableKind = "fiber"
	CableConsole  CableKind = "console"

	// CableAuto is only valid in a connect request; it is resolved to a
	// concrete kind from the device pair and never stored.
	CableAuto CableKind = "auto"
)

// Stored reports whether k may appear on a stored cable
func (k CableKind) Stored() bool {
	switch k {
	case CableStraight, CableCross, CableSerial, CableFiber, CableConsole:
		return true
	}
	return false
}

// ParseCableKind converts user input to a CableKind; empty means auto
func ParseCableKind(s string) (CableKind, error) {
	if s == "" {
		return CableAuto, nil
	}
	k := CableKind(s)
	if k == CableAuto || k.Stored() {
		return k, nil
	}
	return "", fmt.Errorf("unknown cable kind %q", s)
}

// Cable is an undirected link between two device interfaces
type Cable struct {
	From     int       `json:"from" yaml:"from"`
	To       int       `json:"to" yaml:"to"`
	FromPort int       `json:"fromPort" yaml:"fromPort"`
	ToPort   int       `json:"toPort" yaml:"toPort"`
	Kind     CableKind `json:"kind" yaml:"kind"`
}

// Involves checks if this cable touches the given device
func (c *Cable) Involves(deviceID int) bool {
	return c.From == deviceID || c.To == deviceID
}

// Terminates checks if the cable ends on the given device port
func (c *Cable) Terminates(deviceID, port int) bool {
	return (c.From == deviceID && c.FromPort == port) || (c.To == deviceID && c.ToPort == port)
}

// OtherEnd returns the device and port on the opposite side from deviceID.
// For a cable that does not involve deviceID the From end is returned.
func (c *Cable) OtherEnd(deviceID int) (int, int) {
	if c.From == deviceID {
		return c.To, c.ToPort
	}
	return c.From, c.FromPort
}

// LocalPort returns the port the cable uses on deviceID
func (c *Cable) LocalPort(deviceID int) int {
	if c.From == deviceID {
		return c.FromPort
	}
	return c.ToPort
}
