package domain

import "fmt"

// DeviceKind represents the type of simulated network device
type DeviceKind string

const (
	DeviceKindRouter DeviceKind = "router"
	DeviceKindSwitch DeviceKind = "switch"
	DeviceKindHost   DeviceKind = "host"
)

// Valid reports whether k is one of the known device kinds
func (k DeviceKind) Valid() bool {
	switch k {
	case DeviceKindRouter, DeviceKindSwitch, DeviceKindHost:
		return true
	}
	return false
}

// NamePrefix returns the prefix used for default device names
func (k DeviceKind) NamePrefix() string {
	switch k {
	case DeviceKindRouter:
		return "Router"
	case DeviceKindSwitch:
		return "Switch"
	case DeviceKindHost:
		return "PC"
	}
	return "Device"
}

// ParseDeviceKind converts user input to a DeviceKind. "pc" is accepted as an
// alias for host.
func ParseDeviceKind(s string) (DeviceKind, error) {
	switch k := DeviceKind(s); k {
	case DeviceKindRouter, DeviceKindSwitch, DeviceKindHost:
		return k, nil
	case "pc":
		return DeviceKindHost, nil
	}
	return "", fmt.Errorf("unknown device kind %q", s)
}

// CLIMode is the current mode of a router or switch shell
type CLIMode string

const (
	CLIModeUser       CLIMode = "user"
	CLIModePrivileged CLIMode = "privileged"
	CLIModeConfig     CLIMode = "config"
	CLIModeConfigIf   CLIMode = "config-if"
)

// Valid reports whether m is a known CLI mode
func (m CLIMode) Valid() bool {
	switch m {
	case CLIModeUser, CLIModePrivileged, CLIModeConfig, CLIModeConfigIf:
		return true
	}
	return false
}

// PortMode is the switchport mode of a switch interface
type PortMode string

const (
	PortModeAccess PortMode = "access"
	PortModeTrunk  PortMode = "trunk"
)

// Valid reports whether m is a known port mode
func (m PortMode) Valid() bool {
	return m == PortModeAccess || m == PortModeTrunk
}

// HostConfig holds host-only settings that do not belong to an interface
type HostConfig struct {
	Gateway string `json:"gateway" yaml:"gateway"`
	DNS     string `json:"dns" yaml:"dns"`
}

// Interface is one physical port on a device
type Interface struct {
	Name        string   `json:"name" yaml:"name"`
	MAC         string   `json:"mac" yaml:"mac"`
	IP          string   `json:"ip" yaml:"ip"`
	Mask        string   `json:"mask" yaml:"mask"`
	AdminStatus bool     `json:"adminStatus" yaml:"adminStatus"`
	Connected   bool     `json:"connected" yaml:"connected"`
	VLAN        int      `json:"vlan,omitempty" yaml:"vlan,omitempty"`
	Mode        PortMode `json:"mode,omitempty" yaml:"mode,omitempty"`
}

// Up reports whether the port can carry traffic: administratively up and cabled
func (i *Interface) Up() bool {
	return i.AdminStatus && i.Connected
}

// Device is one simulated network node
type Device struct {
	ID                int         `json:"id" yaml:"id"`
	Kind              DeviceKind  `json:"kind" yaml:"kind"`
	Name              string      `json:"name" yaml:"name"`
	X                 float64     `json:"x" yaml:"x"`
	Y                 float64     `json:"y" yaml:"y"`
	CLIMode           CLIMode     `json:"cliMode" yaml:"cliMode"`
	SelectedInterface *int        `json:"selectedInterfaceIndex" yaml:"selectedInterfaceIndex"`
	Config            *HostConfig `json:"config" yaml:"config"`
	Interfaces        []Interface `json:"interfaces" yaml:"interfaces"`
}

// Position returns the canvas position of the device
func (d *Device) Position() Position {
	return Position{X: d.X, Y: d.Y}
}

// Interface returns the interface at index, or nil when out of range
func (d *Device) Interface(index int) *Interface {
	if index < 0 || index >= len(d.Interfaces) {
		return nil
	}
	return &d.Interfaces[index]
}

// Selected returns the interface chosen in config-if mode, or nil
func (d *Device) Selected() *Interface {
	if d.SelectedInterface == nil {
		return nil
	}
	return d.Interface(*d.SelectedInterface)
}

// HasIP reports whether any interface carries an address
func (d *Device) HasIP() bool {
	for i := range d.Interfaces {
		if d.Interfaces[i].IP != "" {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the device
func (d *Device) Clone() Device {
	c := *d
	if d.SelectedInterface != nil {
		idx := *d.SelectedInterface
		c.SelectedInterface = &idx
	}
	if d.Config != nil {
		cfg := *d.Config
		c.Config = &cfg
	}
	c.Interfaces = make([]Interface, len(d.Interfaces))
	copy(c.Interfaces, d.Interfaces)
	return c
}
