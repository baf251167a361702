package service

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"netsim/internal/cli"
	"netsim/internal/domain"
	"netsim/internal/history"
	"netsim/internal/metrics"
	"netsim/internal/reach"
	"netsim/internal/repository"
	"netsim/internal/topology"
)

// Options configures a Simulator. Every field is optional.
type Options struct {
	HistoryCapacity int
	Repository      repository.Repository
	EventBus        *EventBus
	Metrics         *metrics.Collector
}

// Simulator serializes all access to one live topology
type Simulator struct {
	mu       sync.Mutex
	topo     *topology.Topology
	history  *history.Manager
	shell    *cli.Shell
	repo     repository.Repository
	eventBus *EventBus
	metrics  *metrics.Collector
}

// New creates a simulator with an empty topology
func New(opts Options) *Simulator {
	topo := topology.New()
	hist := history.New(topo, opts.HistoryCapacity)
	return &Simulator{
		topo:     topo,
		history:  hist,
		shell:    cli.New(topo, hist),
		repo:     opts.Repository,
		eventBus: opts.EventBus,
		metrics:  opts.Metrics,
	}
}

// Snapshot returns a deep copy of the current state
func (s *Simulator) Snapshot() domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.topo.Snapshot()
}

// Graph returns the render view of the current state
func (s *Simulator) Graph() *domain.Graph {
	snap := s.Snapshot()
	return domain.DeriveGraph(&snap)
}

// Device returns a copy of one device
func (s *Simulator) Device(id int) (domain.Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, err := s.device(id)
	if err != nil {
		return domain.Device{}, err
	}
	return d.Clone(), nil
}

// DeviceByName returns a copy of the device with the given name, ignoring case
func (s *Simulator) DeviceByName(name string) (domain.Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.topo.Devices() {
		if strings.EqualFold(d.Name, name) {
			return d.Clone(), nil
		}
	}
	return domain.Device{}, fmt.Errorf("%w: %q", topology.ErrDeviceNotFound, name)
}

// Devices returns copies of all devices in creation order
func (s *Simulator) Devices() []domain.Device {
	s.mu.Lock()
	defer s.mu.Unlock()
	devices := s.topo.Devices()
	out := make([]domain.Device, len(devices))
	for i, d := range devices {
		out[i] = d.Clone()
	}
	return out
}

// Cables returns the cable list
func (s *Simulator) Cables() []domain.Cable {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.topo.Cables()
}

// Links describes the cabling around one device
type Links struct {
	Indices   []int
	Cables    []domain.Cable
	Neighbors []int
}

// Links returns the cables touching a device and the devices one
// traversable hop away
func (s *Simulator) Links(id int) (Links, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.device(id); err != nil {
		return Links{}, err
	}
	all := s.topo.Cables()
	l := Links{
		Indices:   s.topo.CablesOf(id),
		Neighbors: reach.Neighbors(s.topo, id),
	}
	for _, i := range l.Indices {
		l.Cables = append(l.Cables, all[i])
	}
	return l, nil
}

// CreateDevice adds a device of kind at pos
func (s *Simulator) CreateDevice(kind domain.DeviceKind, pos domain.Position) (domain.Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !kind.Valid() {
		return domain.Device{}, fmt.Errorf("%w: %q", topology.ErrUnknownKind, kind)
	}

	s.history.Push()
	d, err := s.topo.CreateDevice(kind, pos)
	if err != nil {
		return domain.Device{}, err
	}

	s.publish(EventDeviceCreated, map[string]any{"device_id": d.ID, "kind": d.Kind, "name": d.Name})
	return d.Clone(), nil
}

// DeleteDevice removes a device and every cable touching it
func (s *Simulator) DeleteDevice(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.device(id); err != nil {
		return err
	}

	s.history.Push()
	s.topo.DeleteDevice(id)

	s.publish(EventDeviceDeleted, map[string]any{"device_id": id})
	return nil
}

// MoveDevice sets a device's canvas position
func (s *Simulator) MoveDevice(id int, pos domain.Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.device(id); err != nil {
		return err
	}

	s.history.Push()
	if err := s.topo.MoveDevice(id, pos); err != nil {
		return err
	}

	s.publish(EventDeviceUpdated, map[string]any{"device_id": id, "x": pos.X, "y": pos.Y})
	return nil
}

// Rename changes a device's hostname
func (s *Simulator) Rename(id int, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.device(id); err != nil {
		return err
	}
	if name == "" {
		return topology.ErrNameRequired
	}

	s.history.Push()
	if err := s.topo.Rename(id, name); err != nil {
		return err
	}

	s.publish(EventDeviceUpdated, map[string]any{"device_id": id, "name": name})
	return nil
}

// ConfigureHost applies addressing to a host
func (s *Simulator) ConfigureHost(id int, settings topology.HostSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.topo.CheckHost(id, settings); err != nil {
		return err
	}

	s.history.Push()
	if err := s.topo.ConfigureHost(id, settings); err != nil {
		return err
	}

	s.publish(EventDeviceUpdated, map[string]any{"device_id": id})
	return nil
}

// ConfigureInterfaces applies settings to every router port at once
func (s *Simulator) ConfigureInterfaces(id int, settings []topology.InterfaceSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.configureInterfaces(id, settings)
}

// ConfigureInterface applies settings to one router port, leaving the others
// as they are
func (s *Simulator) ConfigureInterface(id, index int, settings topology.InterfaceSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.device(id)
	if err != nil {
		return err
	}
	if d.Interface(index) == nil {
		return fmt.Errorf("%w: %s port %d", topology.ErrInvalidInterface, d.Name, index)
	}

	all := make([]topology.InterfaceSettings, len(d.Interfaces))
	for i, iface := range d.Interfaces {
		all[i] = topology.InterfaceSettings{IP: iface.IP, Mask: iface.Mask, AdminUp: iface.AdminStatus}
	}
	all[index] = settings
	return s.configureInterfaces(id, all)
}

func (s *Simulator) configureInterfaces(id int, settings []topology.InterfaceSettings) error {
	if err := s.topo.CheckInterfaces(id, settings); err != nil {
		return err
	}

	s.history.Push()
	if err := s.topo.ConfigureInterfaces(id, settings); err != nil {
		return err
	}

	s.publish(EventDeviceUpdated, map[string]any{"device_id": id})
	return nil
}

// ConfigurePorts applies VLAN settings to every switch port at once
func (s *Simulator) ConfigurePorts(id int, settings []topology.PortSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.configurePorts(id, settings)
}

// ConfigurePort applies VLAN settings to one switch port
func (s *Simulator) ConfigurePort(id, index int, settings topology.PortSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.device(id)
	if err != nil {
		return err
	}
	if d.Interface(index) == nil {
		return fmt.Errorf("%w: %s port %d", topology.ErrInvalidInterface, d.Name, index)
	}

	all := make([]topology.PortSettings, len(d.Interfaces))
	for i, iface := range d.Interfaces {
		all[i] = topology.PortSettings{VLAN: iface.VLAN, Mode: iface.Mode}
	}
	all[index] = settings
	return s.configurePorts(id, all)
}

func (s *Simulator) configurePorts(id int, settings []topology.PortSettings) error {
	if err := s.topo.CheckPorts(id, settings); err != nil {
		return err
	}

	s.history.Push()
	if err := s.topo.ConfigurePorts(id, settings); err != nil {
		return err
	}

	s.publish(EventDeviceUpdated, map[string]any{"device_id": id})
	return nil
}

// Connect cables two devices on their first free ports. A rejected request
// changes nothing and records no history.
func (s *Simulator) Connect(fromID, toID int, kind domain.CableKind) (domain.Cable, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.topo.PlanConnection(fromID, toID, kind)
	if err != nil {
		s.metrics.ConnectFailure(failureReason(err))
		return domain.Cable{}, err
	}

	s.history.Push()
	if err := s.topo.Attach(c); err != nil {
		return domain.Cable{}, err
	}

	s.publish(EventCableCreated, map[string]any{
		"index":     len(s.topo.Cables()) - 1,
		"from":      c.From,
		"to":        c.To,
		"from_port": c.FromPort,
		"to_port":   c.ToPort,
		"kind":      c.Kind,
	})
	return c, nil
}

// Disconnect removes the cable at index
func (s *Simulator) Disconnect(index int) (domain.Cable, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disconnect(index)
}

// DisconnectPort removes the cable terminating on a device port
func (s *Simulator) DisconnectPort(deviceID, port int) (domain.Cable, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	index, ok := s.topo.CableAt(deviceID, port)
	if !ok {
		return domain.Cable{}, fmt.Errorf("%w: device %d port %d", topology.ErrCableNotFound, deviceID, port)
	}
	return s.disconnect(index)
}

func (s *Simulator) disconnect(index int) (domain.Cable, error) {
	if index < 0 || index >= len(s.topo.Cables()) {
		return domain.Cable{}, fmt.Errorf("%w: index %d", topology.ErrCableNotFound, index)
	}

	s.history.Push()
	c, err := s.topo.Disconnect(index)
	if err != nil {
		return domain.Cable{}, err
	}

	s.publish(EventCableDeleted, map[string]any{"index": index, "from": c.From, "to": c.To})
	return c, nil
}

// Submit runs one CLI line on a device
func (s *Simulator) Submit(deviceID int, line string) (cli.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.device(deviceID)
	if err != nil {
		return cli.Response{}, err
	}
	kind := d.Kind

	res, err := s.shell.Submit(deviceID, line)
	if err != nil {
		return cli.Response{}, err
	}

	if strings.TrimSpace(line) != "" {
		s.metrics.CLICommand(string(kind))
	}
	if res.Ping != nil {
		s.metrics.Ping(string(res.Ping.Outcome))
	}
	if res.Mutated {
		s.publish(EventDeviceUpdated, map[string]any{"device_id": deviceID})
	}
	return res, nil
}

// Prompt returns the current prompt of a device
func (s *Simulator) Prompt(deviceID int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.device(deviceID)
	if err != nil {
		return "", err
	}
	return cli.Prompt(d), nil
}

// Ping runs a ping from a device to target
func (s *Simulator) Ping(deviceID int, target string) (reach.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.device(deviceID)
	if err != nil {
		return reach.Report{}, err
	}

	rep := reach.Ping(s.topo, d, target)
	s.metrics.Ping(string(rep.Outcome))
	return rep, nil
}

// Undo reverts the latest change
func (s *Simulator) Undo() error {
	return s.step("undo", s.history.Undo)
}

// Redo reapplies the latest undone change
func (s *Simulator) Redo() error {
	return s.step("redo", s.history.Redo)
}

func (s *Simulator) step(op string, fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := fn(); err != nil {
		return err
	}

	s.metrics.HistoryOp(op)
	s.publish(EventTopologyRestored, map[string]any{"op": op})
	return nil
}

// HistoryDepth returns the number of undo and redo steps available
func (s *Simulator) HistoryDepth() (undo, redo int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Depth()
}

// Clear empties the topology, rewinds the id counter and drops all history
func (s *Simulator) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.topo.Reset()
	s.history.Clear()
	s.publish(EventTopologyCleared, nil)
}

// Load replaces the current state with snap and drops all history. An
// invalid snapshot leaves everything untouched.
func (s *Simulator) Load(snap domain.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.topo.Restore(snap); err != nil {
		return err
	}
	s.history.Clear()

	s.publish(EventTopologyLoaded, map[string]any{
		"devices": len(s.topo.Devices()),
		"cables":  len(s.topo.Cables()),
	})
	return nil
}

// device must be called with s.mu held
func (s *Simulator) device(id int) (*domain.Device, error) {
	d := s.topo.Device(id)
	if d == nil {
		return nil, fmt.Errorf("%w: %d", topology.ErrDeviceNotFound, id)
	}
	return d, nil
}

// publish must be called with s.mu held
func (s *Simulator) publish(t EventType, payload any) {
	s.metrics.SetTopologySize(len(s.topo.Devices()), len(s.topo.Cables()))
	s.eventBus.Publish(Event{Type: t, Payload: payload})
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, topology.ErrNoFreePort):
		return "no_free_port"
	case errors.Is(err, topology.ErrIncompatibleCable):
		return "incompatible_cable"
	case errors.Is(err, topology.ErrSelfConnection):
		return "self_connection"
	case errors.Is(err, topology.ErrDeviceNotFound):
		return "device_not_found"
	case errors.Is(err, topology.ErrUnknownCable):
		return "unknown_cable"
	}
	return "other"
}
