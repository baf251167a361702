package domain

// SnapshotVersion is the serialization version produced by this engine
const SnapshotVersion = 1

// Snapshot is a detached copy of the whole topology. It is the persisted wire
// shape and the unit stored by the undo/redo history.
type Snapshot struct {
	Version      int      `json:"version" yaml:"version"`
	Timestamp    string   `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`
	NextDeviceID int      `json:"nextDeviceId" yaml:"nextDeviceId"`
	Devices      []Device `json:"devices" yaml:"devices"`
	Cables       []Cable  `json:"cables" yaml:"cables"`
}

// NewSnapshot creates an empty snapshot at the current version
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Version: SnapshotVersion,
		Devices: make([]Device, 0),
		Cables:  make([]Cable, 0),
	}
}

// Clone returns a deep copy sharing no memory with s
func (s *Snapshot) Clone() Snapshot {
	c := Snapshot{
		Version:      s.Version,
		Timestamp:    s.Timestamp,
		NextDeviceID: s.NextDeviceID,
		Devices:      make([]Device, len(s.Devices)),
		Cables:       make([]Cable, len(s.Cables)),
	}
	for i := range s.Devices {
		c.Devices[i] = s.Devices[i].Clone()
	}
	copy(c.Cables, s.Cables)
	return c
}

// Device finds a device by id
func (s *Snapshot) Device(id int) *Device {
	for i := range s.Devices {
		if s.Devices[i].ID == id {
			return &s.Devices[i]
		}
	}
	return nil
}
