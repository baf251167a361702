package loader

import (
	"fmt"
	"os"

	"netsim/internal/domain"
	"netsim/internal/topology"

	"gopkg.in/yaml.v3"
)

// LabYAML represents a declarative lab file
type LabYAML struct {
	Version     string       `yaml:"version"`
	Description string       `yaml:"description,omitempty"`
	Devices     []DeviceYAML `yaml:"devices"`
	Links       []LinkYAML   `yaml:"links,omitempty"`
}

// DeviceYAML represents one device in a lab file
type DeviceYAML struct {
	Name       string          `yaml:"name"`
	Kind       string          `yaml:"kind"`
	Position   *PositionYAML   `yaml:"position,omitempty"`
	Gateway    string          `yaml:"gateway,omitempty"`
	DNS        string          `yaml:"dns,omitempty"`
	Interfaces []InterfaceYAML `yaml:"interfaces,omitempty"`
}

// PositionYAML represents canvas coordinates
type PositionYAML struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// InterfaceYAML configures one port. Port accepts full names and the short
// IOS forms (gi0/0, fa0/1, se0/0/0).
type InterfaceYAML struct {
	Port string `yaml:"port"`
	IP   string `yaml:"ip,omitempty"`
	Mask string `yaml:"mask,omitempty"`
	Up   *bool  `yaml:"up,omitempty"`
	VLAN int    `yaml:"vlan,omitempty"`
	Mode string `yaml:"mode,omitempty"`
}

// LinkYAML cables two devices by name on their first free ports
type LinkYAML struct {
	From  string `yaml:"from"`
	To    string `yaml:"to"`
	Cable string `yaml:"cable,omitempty"`
}

// LoadYAML loads a lab from a YAML file
func LoadYAML(path string) (*topology.Topology, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return ParseYAML(data)
}

// ParseYAML parses a lab from YAML bytes and builds it
func ParseYAML(data []byte) (*topology.Topology, error) {
	var lab LabYAML
	if err := yaml.Unmarshal(data, &lab); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	return Build(&lab)
}

// Build creates a fresh topology from a lab definition. Devices are created
// in file order, configured, and then linked in file order. Any failure
// aborts the whole build.
func Build(lab *LabYAML) (*topology.Topology, error) {
	topo := topology.New()
	ids := make(map[string]int, len(lab.Devices))

	for i, dy := range lab.Devices {
		if dy.Name == "" {
			return nil, fmt.Errorf("device %d: name is required", i)
		}
		if _, dup := ids[dy.Name]; dup {
			return nil, fmt.Errorf("device %s: duplicate name", dy.Name)
		}

		kind, err := domain.ParseDeviceKind(dy.Kind)
		if err != nil {
			return nil, fmt.Errorf("device %s: %w", dy.Name, err)
		}

		var pos domain.Position
		if dy.Position != nil {
			pos = domain.NewPosition(dy.Position.X, dy.Position.Y)
		}

		d, err := topo.CreateDevice(kind, pos)
		if err != nil {
			return nil, fmt.Errorf("device %s: %w", dy.Name, err)
		}
		if err := topo.Rename(d.ID, dy.Name); err != nil {
			return nil, fmt.Errorf("device %s: %w", dy.Name, err)
		}
		ids[dy.Name] = d.ID

		if err := configure(topo, d, &dy); err != nil {
			return nil, fmt.Errorf("device %s: %w", dy.Name, err)
		}
	}

	for i, l := range lab.Links {
		from, ok := ids[l.From]
		if !ok {
			return nil, fmt.Errorf("link %d: unknown device %q", i, l.From)
		}
		to, ok := ids[l.To]
		if !ok {
			return nil, fmt.Errorf("link %d: unknown device %q", i, l.To)
		}
		kind, err := domain.ParseCableKind(l.Cable)
		if err != nil {
			return nil, fmt.Errorf("link %d: %w", i, err)
		}
		if _, err := topo.Connect(from, to, kind); err != nil {
			return nil, fmt.Errorf("link %d (%s - %s): %w", i, l.From, l.To, err)
		}
	}

	return topo, nil
}

func configure(topo *topology.Topology, d *domain.Device, dy *DeviceYAML) error {
	switch d.Kind {
	case domain.DeviceKindHost:
		settings := topology.HostSettings{Gateway: dy.Gateway, DNS: dy.DNS}
		if len(dy.Interfaces) > 1 {
			return fmt.Errorf("a host has a single interface, got %d", len(dy.Interfaces))
		}
		if len(dy.Interfaces) == 1 {
			settings.IP = dy.Interfaces[0].IP
			settings.Mask = dy.Interfaces[0].Mask
		}
		if settings == (topology.HostSettings{}) {
			return nil
		}
		return topo.ConfigureHost(d.ID, settings)

	case domain.DeviceKindRouter:
		settings := make([]topology.InterfaceSettings, len(d.Interfaces))
		for i, iface := range d.Interfaces {
			settings[i] = topology.InterfaceSettings{IP: iface.IP, Mask: iface.Mask, AdminUp: iface.AdminStatus}
		}
		for _, iy := range dy.Interfaces {
			idx, err := port(d, iy.Port)
			if err != nil {
				return err
			}
			settings[idx].IP = iy.IP
			settings[idx].Mask = iy.Mask
			// An addressed router port is brought up unless told otherwise
			settings[idx].AdminUp = iy.IP != ""
			if iy.Up != nil {
				settings[idx].AdminUp = *iy.Up
			}
		}
		return topo.ConfigureInterfaces(d.ID, settings)

	case domain.DeviceKindSwitch:
		settings := make([]topology.PortSettings, len(d.Interfaces))
		for i, iface := range d.Interfaces {
			settings[i] = topology.PortSettings{VLAN: iface.VLAN, Mode: iface.Mode}
		}
		for _, iy := range dy.Interfaces {
			idx, err := port(d, iy.Port)
			if err != nil {
				return err
			}
			if iy.VLAN != 0 {
				settings[idx].VLAN = iy.VLAN
			}
			if iy.Mode != "" {
				settings[idx].Mode = domain.PortMode(iy.Mode)
			}
			if iy.Up != nil {
				if err := topo.SetAdminStatus(d.ID, idx, *iy.Up); err != nil {
					return err
				}
			}
		}
		return topo.ConfigurePorts(d.ID, settings)
	}
	return nil
}

func port(d *domain.Device, name string) (int, error) {
	if name == "" {
		return -1, fmt.Errorf("%w: port is required", topology.ErrInvalidInterface)
	}
	idx := topology.ResolveInterface(d, name)
	if idx < 0 {
		return -1, fmt.Errorf("%w: %s has no port %q", topology.ErrInvalidInterface, d.Name, name)
	}
	return idx, nil
}
