package topology

import (
	"fmt"

	"netsim/internal/domain"
	"netsim/internal/netaddr"
)

// Field names used in validation errors
const (
	FieldIP      = "IP"
	FieldMask    = "Mask"
	FieldGateway = "Gateway"
	FieldDNS     = "DNS"
)

// HostSettings is the addressing applied to a host in one step
type HostSettings struct {
	IP      string `json:"ip"`
	Mask    string `json:"mask"`
	Gateway string `json:"gateway"`
	DNS     string `json:"dns"`
}

// InterfaceSettings is the addressing and admin state of a router port
type InterfaceSettings struct {
	IP      string `json:"ip"`
	Mask    string `json:"mask"`
	AdminUp bool   `json:"admin_up"`
}

// PortSettings is the VLAN configuration of a switch port
type PortSettings struct {
	VLAN int             `json:"vlan"`
	Mode domain.PortMode `json:"mode"`
}

// VLAN bounds for switch ports
const (
	MinVLAN = 1
	MaxVLAN = 4094
)

// CheckHost validates host settings without applying them
func (t *Topology) CheckHost(id int, s HostSettings) error {
	if _, err := t.deviceOfKind(id, domain.DeviceKindHost); err != nil {
		return err
	}
	if err := netaddr.CheckOptionalIP(s.IP, FieldIP); err != nil {
		return err
	}
	if err := netaddr.CheckOptionalMask(s.Mask, FieldMask); err != nil {
		return err
	}
	if err := netaddr.CheckOptionalIP(s.Gateway, FieldGateway); err != nil {
		return err
	}
	return netaddr.CheckOptionalIP(s.DNS, FieldDNS)
}

// ConfigureHost applies addressing to a host's single port and brings it up.
// Every field is validated before anything changes.
func (t *Topology) ConfigureHost(id int, s HostSettings) error {
	if err := t.CheckHost(id, s); err != nil {
		return err
	}

	d := t.Device(id)
	eth := &d.Interfaces[0]
	eth.IP = s.IP
	eth.Mask = s.Mask
	eth.AdminStatus = true
	if d.Config == nil {
		d.Config = &domain.HostConfig{}
	}
	d.Config.Gateway = s.Gateway
	d.Config.DNS = s.DNS
	return nil
}

// CheckInterfaces validates per-port settings for every router interface
func (t *Topology) CheckInterfaces(id int, settings []InterfaceSettings) error {
	d, err := t.deviceOfKind(id, domain.DeviceKindRouter)
	if err != nil {
		return err
	}
	if len(settings) != len(d.Interfaces) {
		return fmt.Errorf("%w: expected %d interface settings, got %d", ErrInvalidInterface, len(d.Interfaces), len(settings))
	}
	for i, s := range settings {
		name := d.Interfaces[i].Name
		if err := netaddr.CheckOptionalIP(s.IP, name+" "+FieldIP); err != nil {
			return err
		}
		if err := netaddr.CheckOptionalMask(s.Mask, name+" "+FieldMask); err != nil {
			return err
		}
	}
	return nil
}

// ConfigureInterfaces applies settings to all router ports at once. No port
// changes unless every port validates.
func (t *Topology) ConfigureInterfaces(id int, settings []InterfaceSettings) error {
	if err := t.CheckInterfaces(id, settings); err != nil {
		return err
	}

	d := t.Device(id)
	for i, s := range settings {
		iface := &d.Interfaces[i]
		iface.IP = s.IP
		iface.Mask = s.Mask
		iface.AdminStatus = s.AdminUp
	}
	return nil
}

// CheckPorts validates VLAN settings for every switch port
func (t *Topology) CheckPorts(id int, settings []PortSettings) error {
	d, err := t.deviceOfKind(id, domain.DeviceKindSwitch)
	if err != nil {
		return err
	}
	if len(settings) != len(d.Interfaces) {
		return fmt.Errorf("%w: expected %d port settings, got %d", ErrInvalidInterface, len(d.Interfaces), len(settings))
	}
	for i, s := range settings {
		if s.VLAN < MinVLAN || s.VLAN > MaxVLAN {
			return &netaddr.FieldError{
				Field:  fmt.Sprintf("Port %d VLAN", i+1),
				Value:  fmt.Sprint(s.VLAN),
				Reason: fmt.Sprintf("VLAN must be between %d and %d", MinVLAN, MaxVLAN),
			}
		}
		if !s.Mode.Valid() {
			return &netaddr.FieldError{
				Field:  fmt.Sprintf("Port %d mode", i+1),
				Value:  string(s.Mode),
				Reason: "mode must be access or trunk",
			}
		}
	}
	return nil
}

// ConfigurePorts applies VLAN settings to every switch port
func (t *Topology) ConfigurePorts(id int, settings []PortSettings) error {
	if err := t.CheckPorts(id, settings); err != nil {
		return err
	}

	d := t.Device(id)
	for i, s := range settings {
		d.Interfaces[i].VLAN = s.VLAN
		d.Interfaces[i].Mode = s.Mode
	}
	return nil
}

// SetAddress assigns ip and mask to one interface
func (t *Topology) SetAddress(id, index int, ip, mask string) error {
	iface, err := t.iface(id, index)
	if err != nil {
		return err
	}
	if err := netaddr.CheckIP(ip, FieldIP); err != nil {
		return err
	}
	if err := netaddr.CheckMask(mask, FieldMask); err != nil {
		return err
	}
	iface.IP = ip
	iface.Mask = mask
	return nil
}

// SetAdminStatus brings an interface administratively up or down
func (t *Topology) SetAdminStatus(id, index int, up bool) error {
	iface, err := t.iface(id, index)
	if err != nil {
		return err
	}
	iface.AdminStatus = up
	return nil
}

func (t *Topology) iface(id, index int) (*domain.Interface, error) {
	d := t.Device(id)
	if d == nil {
		return nil, fmt.Errorf("%w: %d", ErrDeviceNotFound, id)
	}
	iface := d.Interface(index)
	if iface == nil {
		return nil, fmt.Errorf("%w: %s port %d", ErrInvalidInterface, d.Name, index)
	}
	return iface, nil
}

func (t *Topology) deviceOfKind(id int, kind domain.DeviceKind) (*domain.Device, error) {
	d := t.Device(id)
	if d == nil {
		return nil, fmt.Errorf("%w: %d", ErrDeviceNotFound, id)
	}
	if d.Kind != kind {
		return nil, fmt.Errorf("%w: %s is a %s", ErrNotSupported, d.Name, d.Kind)
	}
	return d, nil
}
