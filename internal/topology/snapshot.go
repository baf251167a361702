package topology

import (
	"fmt"

	"netsim/internal/domain"
)

// Snapshot returns a deep copy of the current state
func (t *Topology) Snapshot() domain.Snapshot {
	s := domain.Snapshot{
		Version:      domain.SnapshotVersion,
		NextDeviceID: t.nextID,
		Devices:      make([]domain.Device, len(t.devices)),
		Cables:       make([]domain.Cable, len(t.cables)),
	}
	for i, d := range t.devices {
		s.Devices[i] = d.Clone()
	}
	copy(s.Cables, t.cables)
	return s
}

// Restore replaces the topology contents with s. The snapshot is validated
// first; on error the topology is left untouched. The receiver keeps its
// identity so holders of the *Topology observe the restored state.
func (t *Topology) Restore(s domain.Snapshot) error {
	if err := Validate(&s); err != nil {
		return err
	}

	devices := make([]*domain.Device, 0, len(s.Devices))
	for i := range s.Devices {
		devices = append(devices, rebuildDevice(&s.Devices[i]))
	}

	t.devices = append(t.devices[:0], devices...)
	t.cables = append(t.cables[:0], s.Cables...)
	t.nextID = s.NextDeviceID

	maxID := -1
	for _, d := range t.devices {
		if d.ID > maxID {
			maxID = d.ID
		}
	}
	if t.nextID <= maxID {
		t.nextID = maxID + 1
	}

	t.syncConnected()
	return nil
}

// rebuildDevice constructs a device through the kind constructor and then
// overlays the saved fields, so defaults for anything missing come from the
// same place as freshly created devices.
func rebuildDevice(saved *domain.Device) *domain.Device {
	d := newDevice(saved.ID, saved.Kind, saved.Position())
	if saved.Name != "" {
		d.Name = saved.Name
	}
	if saved.CLIMode.Valid() {
		d.CLIMode = saved.CLIMode
	}
	if saved.SelectedInterface != nil {
		idx := *saved.SelectedInterface
		d.SelectedInterface = &idx
	}
	if saved.Config != nil {
		cfg := *saved.Config
		d.Config = &cfg
	}
	d.Interfaces = make([]domain.Interface, len(saved.Interfaces))
	copy(d.Interfaces, saved.Interfaces)

	// A selection only means something in config-if
	if d.CLIMode == domain.CLIModeConfigIf && d.Selected() == nil {
		d.CLIMode = domain.CLIModeConfig
		d.SelectedInterface = nil
	}
	return d
}

// syncConnected recomputes every connected flag from the cable list
func (t *Topology) syncConnected() {
	for _, d := range t.devices {
		for i := range d.Interfaces {
			d.Interfaces[i].Connected = false
		}
	}
	for _, c := range t.cables {
		t.Device(c.From).Interfaces[c.FromPort].Connected = true
		t.Device(c.To).Interfaces[c.ToPort].Connected = true
	}
}

// Validate checks that a snapshot can be loaded by this engine
func Validate(s *domain.Snapshot) error {
	if s.Version != domain.SnapshotVersion {
		return fmt.Errorf("%w: got %d, want %d", ErrVersionMismatch, s.Version, domain.SnapshotVersion)
	}
	if s.NextDeviceID < 0 {
		return invalidSnapshot("negative nextDeviceId %d", s.NextDeviceID)
	}

	ports := make(map[int]int, len(s.Devices))
	for _, d := range s.Devices {
		if d.ID < 0 {
			return invalidSnapshot("negative device id %d", d.ID)
		}
		if _, dup := ports[d.ID]; dup {
			return invalidSnapshot("duplicate device id %d", d.ID)
		}
		if !d.Kind.Valid() {
			return invalidSnapshot("device %d has unknown kind %q", d.ID, d.Kind)
		}
		if want := PortCount(d.Kind); len(d.Interfaces) != want {
			return invalidSnapshot("device %d (%s) has %d interfaces, want %d", d.ID, d.Kind, len(d.Interfaces), want)
		}
		if d.Kind == domain.DeviceKindSwitch {
			for i, iface := range d.Interfaces {
				if iface.VLAN < MinVLAN || iface.VLAN > MaxVLAN {
					return invalidSnapshot("device %d port %s has VLAN %d", d.ID, iface.Name, iface.VLAN)
				}
				if !iface.Mode.Valid() {
					return invalidSnapshot("device %d port %d has mode %q", d.ID, i, iface.Mode)
				}
			}
		}
		ports[d.ID] = len(d.Interfaces)
	}

	type endpoint struct{ device, port int }
	used := make(map[endpoint]bool, len(s.Cables)*2)
	for i, c := range s.Cables {
		if !c.Kind.Stored() {
			return invalidSnapshot("cable %d has kind %q", i, c.Kind)
		}
		if c.From == c.To {
			return invalidSnapshot("cable %d loops back on device %d", i, c.From)
		}
		for _, ep := range []endpoint{{c.From, c.FromPort}, {c.To, c.ToPort}} {
			n, ok := ports[ep.device]
			if !ok {
				return invalidSnapshot("cable %d references missing device %d", i, ep.device)
			}
			if ep.port < 0 || ep.port >= n {
				return invalidSnapshot("cable %d references port %d on device %d", i, ep.port, ep.device)
			}
			if used[ep] {
				return invalidSnapshot("port %d on device %d terminates more than one cable", ep.port, ep.device)
			}
			used[ep] = true
		}
	}
	return nil
}
