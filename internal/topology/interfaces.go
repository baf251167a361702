package topology

import (
	"fmt"
	"strings"

	"netsim/internal/domain"
	"netsim/internal/netaddr"
)

// SwitchPorts is the number of access ports on a simulated switch
const SwitchPorts = 24

// PortCount returns the fixed interface count for a device kind
func PortCount(kind domain.DeviceKind) int {
	switch kind {
	case domain.DeviceKindHost:
		return 1
	case domain.DeviceKindRouter:
		return 3
	case domain.DeviceKindSwitch:
		return SwitchPorts
	}
	return 0
}

// NewInterfaces builds the fixed interface set for a device kind
func NewInterfaces(kind domain.DeviceKind) []domain.Interface {
	switch kind {
	case domain.DeviceKindHost:
		return []domain.Interface{
			{Name: "FastEthernet0", MAC: netaddr.RandomMAC(), AdminStatus: true},
		}

	case domain.DeviceKindRouter:
		return []domain.Interface{
			{Name: "GigabitEthernet0/0", MAC: netaddr.RandomMAC()},
			{Name: "GigabitEthernet0/1", MAC: netaddr.RandomMAC()},
			// Serial links carry no MAC
			{Name: "Serial0/0/0"},
		}

	case domain.DeviceKindSwitch:
		ifaces := make([]domain.Interface, 0, SwitchPorts)
		for i := 1; i <= SwitchPorts; i++ {
			ifaces = append(ifaces, domain.Interface{
				Name:        fmt.Sprintf("FastEthernet0/%d", i),
				MAC:         netaddr.RandomMAC(),
				AdminStatus: true,
				VLAN:        1,
				Mode:        domain.PortModeAccess,
			})
		}
		return ifaces
	}
	return nil
}

// FirstFreePort returns the lowest index interface that is not cabled
func FirstFreePort(d *domain.Device) (int, bool) {
	for i := range d.Interfaces {
		if !d.Interfaces[i].Connected {
			return i, true
		}
	}
	return -1, false
}

// newDevice builds a device of kind with its default name and ports
func newDevice(id int, kind domain.DeviceKind, pos domain.Position) *domain.Device {
	d := &domain.Device{
		ID:         id,
		Kind:       kind,
		Name:       fmt.Sprintf("%s%d", kind.NamePrefix(), id),
		X:          pos.X,
		Y:          pos.Y,
		CLIMode:    domain.CLIModeUser,
		Interfaces: NewInterfaces(kind),
	}
	if kind == domain.DeviceKindHost {
		d.Config = &domain.HostConfig{}
	}
	return d
}

// abbreviations maps full interface type prefixes to their short IOS forms
var abbreviations = []struct{ full, short string }{
	{"gigabitethernet", "gi"},
	{"fastethernet", "fa"},
	{"serial", "se"},
}

// ResolveInterface finds the interface an operator means by name. A name
// matches when it is a substring of the full interface name or equals the
// abbreviated form (gi0/0, fa0/1, se0/0/0). The first match wins; -1 when
// nothing matches.
func ResolveInterface(d *domain.Device, name string) int {
	want := strings.ToLower(name)
	for i := range d.Interfaces {
		full := strings.ToLower(d.Interfaces[i].Name)
		if strings.Contains(full, want) {
			return i
		}
		for _, a := range abbreviations {
			if strings.Replace(full, a.full, a.short, 1) == want {
				return i
			}
		}
	}
	return -1
}
