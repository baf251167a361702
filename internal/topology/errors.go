package topology

import (
	"errors"
	"fmt"

	"netsim/internal/domain"
)

var (
	ErrDeviceNotFound    = errors.New("device not found")
	ErrCableNotFound     = errors.New("cable not found")
	ErrUnknownKind       = errors.New("unknown device kind")
	ErrUnknownCable      = errors.New("unknown cable kind")
	ErrSelfConnection    = errors.New("cannot connect a device to itself")
	ErrNoFreePort        = errors.New("no free port")
	ErrPortInUse         = errors.New("port already connected")
	ErrIncompatibleCable = errors.New("incompatible cable")
	ErrInvalidInterface  = errors.New("invalid interface")
	ErrNotSupported      = errors.New("operation not supported for device kind")
	ErrVersionMismatch   = errors.New("snapshot version mismatch")
	ErrInvalidSnapshot   = errors.New("invalid snapshot")
	ErrNameRequired      = errors.New("device name is required")
)

// CompatibilityError carries the validator message for a rejected cable
type CompatibilityError struct {
	Kind    domain.CableKind
	Message string
}

func (e *CompatibilityError) Error() string {
	return e.Message
}

// Is lets errors.Is match ErrIncompatibleCable
func (e *CompatibilityError) Is(target error) bool {
	return target == ErrIncompatibleCable
}

func noFreePort(d *domain.Device) error {
	return fmt.Errorf("%w: %s has no free ports", ErrNoFreePort, d.Name)
}

func invalidSnapshot(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidSnapshot, fmt.Sprintf(format, args...))
}
