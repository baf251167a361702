// Package topology owns the live simulation state: devices, the cables
// between them and the id counter. Every operation that adds or removes a
// cable keeps both endpoints' connected flags consistent with the cable list.
//
// A Topology is not safe for concurrent use; callers serialize access.
package topology

import (
	"fmt"

	"netsim/internal/domain"
)

// Topology is the single owning context for devices and cables
type Topology struct {
	devices []*domain.Device
	cables  []domain.Cable
	nextID  int
}

// New creates an empty topology
func New() *Topology {
	return &Topology{
		devices: make([]*domain.Device, 0),
		cables:  make([]domain.Cable, 0),
	}
}

// Devices returns the live devices in creation order. The slice must not be
// modified by the caller.
func (t *Topology) Devices() []*domain.Device {
	return t.devices
}

// Cables returns a copy of the cable list
func (t *Topology) Cables() []domain.Cable {
	out := make([]domain.Cable, len(t.cables))
	copy(out, t.cables)
	return out
}

// NextID returns the id the next created device will receive
func (t *Topology) NextID() int {
	return t.nextID
}

// Device looks up a device by id
func (t *Topology) Device(id int) *domain.Device {
	for _, d := range t.devices {
		if d.ID == id {
			return d
		}
	}
	return nil
}

// DeviceByName looks up a device by display name
func (t *Topology) DeviceByName(name string) *domain.Device {
	for _, d := range t.devices {
		if d.Name == name {
			return d
		}
	}
	return nil
}

// CreateDevice places a new device of kind at pos
func (t *Topology) CreateDevice(kind domain.DeviceKind, pos domain.Position) (*domain.Device, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	d := newDevice(t.nextID, kind, pos)
	t.nextID++
	t.devices = append(t.devices, d)
	return d, nil
}

// DeleteDevice removes a device and every cable touching it, freeing the
// opposite port of each removed cable. Unknown ids are a no-op.
func (t *Topology) DeleteDevice(id int) bool {
	idx := -1
	for i, d := range t.devices {
		if d.ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return false
	}

	kept := t.cables[:0]
	for _, c := range t.cables {
		if !c.Involves(id) {
			kept = append(kept, c)
			continue
		}
		otherID, otherPort := c.OtherEnd(id)
		if other := t.Device(otherID); other != nil && otherID != id {
			if iface := other.Interface(otherPort); iface != nil {
				iface.Connected = false
			}
		}
	}
	t.cables = kept

	t.devices = append(t.devices[:idx], t.devices[idx+1:]...)
	return true
}

// MoveDevice sets a device's canvas position
func (t *Topology) MoveDevice(id int, pos domain.Position) error {
	d := t.Device(id)
	if d == nil {
		return fmt.Errorf("%w: %d", ErrDeviceNotFound, id)
	}
	d.X, d.Y = pos.X, pos.Y
	return nil
}

// Rename changes a device's display name and hostname
func (t *Topology) Rename(id int, name string) error {
	d := t.Device(id)
	if d == nil {
		return fmt.Errorf("%w: %d", ErrDeviceNotFound, id)
	}
	if name == "" {
		return ErrNameRequired
	}
	d.Name = name
	return nil
}

// Reset empties the topology and rewinds the id counter
func (t *Topology) Reset() {
	t.devices = t.devices[:0]
	t.cables = t.cables[:0]
	t.nextID = 0
}
