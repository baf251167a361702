package topology

import (
	"fmt"

	"netsim/internal/domain"
)

// PlanConnection works out the cable Connect would create between two
// devices without mutating anything. Ports are always the first free port on
// each side.
func (t *Topology) PlanConnection(fromID, toID int, kind domain.CableKind) (domain.Cable, error) {
	d1 := t.Device(fromID)
	if d1 == nil {
		return domain.Cable{}, fmt.Errorf("%w: %d", ErrDeviceNotFound, fromID)
	}
	d2 := t.Device(toID)
	if d2 == nil {
		return domain.Cable{}, fmt.Errorf("%w: %d", ErrDeviceNotFound, toID)
	}
	if fromID == toID {
		return domain.Cable{}, ErrSelfConnection
	}

	p1, ok := FirstFreePort(d1)
	if !ok {
		return domain.Cable{}, noFreePort(d1)
	}
	p2, ok := FirstFreePort(d2)
	if !ok {
		return domain.Cable{}, noFreePort(d2)
	}

	if kind == domain.CableAuto {
		kind = ResolveCable(d1.Kind, d2.Kind)
	}
	if !kind.Stored() {
		return domain.Cable{}, fmt.Errorf("%w: %q", ErrUnknownCable, kind)
	}

	v := ValidateCable(kind, d1.Interfaces[p1].Name, d2.Interfaces[p2].Name)
	if !v.OK {
		return domain.Cable{}, &CompatibilityError{Kind: kind, Message: v.Message}
	}

	return domain.Cable{
		From:     fromID,
		To:       toID,
		FromPort: p1,
		ToPort:   p2,
		Kind:     kind,
	}, nil
}

// Attach adds a planned cable and marks both endpoints connected
func (t *Topology) Attach(c domain.Cable) error {
	if !c.Kind.Stored() {
		return fmt.Errorf("%w: %q", ErrUnknownCable, c.Kind)
	}
	if err := t.checkEndpoint(c.From, c.FromPort); err != nil {
		return err
	}
	if err := t.checkEndpoint(c.To, c.ToPort); err != nil {
		return err
	}
	if c.From == c.To {
		return ErrSelfConnection
	}

	t.cables = append(t.cables, c)
	t.Device(c.From).Interfaces[c.FromPort].Connected = true
	t.Device(c.To).Interfaces[c.ToPort].Connected = true
	return nil
}

// Connect cables two devices together on their first free ports
func (t *Topology) Connect(fromID, toID int, kind domain.CableKind) (domain.Cable, error) {
	c, err := t.PlanConnection(fromID, toID, kind)
	if err != nil {
		return domain.Cable{}, err
	}
	if err := t.Attach(c); err != nil {
		return domain.Cable{}, err
	}
	return c, nil
}

// Disconnect removes the cable at index and frees both of its ports
func (t *Topology) Disconnect(index int) (domain.Cable, error) {
	if index < 0 || index >= len(t.cables) {
		return domain.Cable{}, fmt.Errorf("%w: index %d", ErrCableNotFound, index)
	}

	c := t.cables[index]
	if d := t.Device(c.From); d != nil {
		if iface := d.Interface(c.FromPort); iface != nil {
			iface.Connected = false
		}
	}
	if d := t.Device(c.To); d != nil {
		if iface := d.Interface(c.ToPort); iface != nil {
			iface.Connected = false
		}
	}

	t.cables = append(t.cables[:index], t.cables[index+1:]...)
	return c, nil
}

// CableAt finds the index of the cable terminating on a device port
func (t *Topology) CableAt(deviceID, port int) (int, bool) {
	for i := range t.cables {
		if t.cables[i].Terminates(deviceID, port) {
			return i, true
		}
	}
	return -1, false
}

// CablesOf returns the indices of all cables touching a device
func (t *Topology) CablesOf(deviceID int) []int {
	var out []int
	for i := range t.cables {
		if t.cables[i].Involves(deviceID) {
			out = append(out, i)
		}
	}
	return out
}

func (t *Topology) checkEndpoint(deviceID, port int) error {
	d := t.Device(deviceID)
	if d == nil {
		return fmt.Errorf("%w: %d", ErrDeviceNotFound, deviceID)
	}
	iface := d.Interface(port)
	if iface == nil {
		return fmt.Errorf("%w: %s port %d", ErrInvalidInterface, d.Name, port)
	}
	if iface.Connected {
		return fmt.Errorf("%w: %s %s", ErrPortInUse, d.Name, iface.Name)
	}
	return nil
}
