package cli

import (
	"fmt"
	"strconv"
	"strings"

	"netsim/internal/domain"
)

func show(d *domain.Device, c command) string {
	switch {
	case c.is(0, "ip") && (c.is(1, "int") || c.is(1, "interface") || c.is(1, "brief")):
		return showIPInterface(d)
	case c.is(0, "running-config") || c.is(0, "run"):
		return showRunningConfig(d)
	case c.is(0, "mac-address-table") && d.Kind == domain.DeviceKindSwitch:
		return showMACTable(d)
	}

	out := []string{
		"% Invalid show command.",
		"  show ip int          - Interface status",
		"  show running-config  - Running configuration",
	}
	if d.Kind == domain.DeviceKindSwitch {
		out = append(out, "  show mac-address-table - MAC table")
	}
	return lines(out...)
}

func showIPInterface(d *domain.Device) string {
	var b strings.Builder
	b.WriteString("Interface              IP-Address      Status               Protocol\n")
	b.WriteString(strings.Repeat("-", 72))

	for _, i := range d.Interfaces {
		status := "admin down"
		if i.AdminStatus {
			status = "up"
		}
		proto := "down"
		if i.Up() {
			proto = "up"
		}
		ip := i.IP
		if ip == "" {
			ip = "unassigned"
		}
		fmt.Fprintf(&b, "\n%-22s %-15s %-20s %s", i.Name, ip, status, proto)
	}
	return b.String()
}

func showRunningConfig(d *domain.Device) string {
	var b strings.Builder
	fmt.Fprintf(&b, "!\n! Running configuration - %s\n!\nhostname %s\n!", d.Name, d.Name)

	for _, i := range d.Interfaces {
		b.WriteString("\ninterface " + i.Name)
		if i.IP != "" {
			fmt.Fprintf(&b, "\n ip address %s %s", i.IP, i.Mask)
		}
		if i.AdminStatus {
			b.WriteString("\n no shutdown")
		} else {
			b.WriteString("\n shutdown")
		}
		b.WriteString("\n!")
	}
	return b.String()
}

func showMACTable(d *domain.Device) string {
	var b strings.Builder
	b.WriteString("          Mac Address Table\n")
	b.WriteString("-------------------------------------------\n")
	b.WriteString("Vlan    Mac Address       Type        Ports\n")
	b.WriteString("----    -----------       --------    -----")

	for _, i := range d.Interfaces {
		if !i.Connected || i.MAC == "" {
			continue
		}
		vlan := i.VLAN
		if vlan == 0 {
			vlan = 1
		}
		fmt.Fprintf(&b, "\n%-7s %s    DYNAMIC     %s", strconv.Itoa(vlan), i.MAC, i.Name)
	}
	return b.String()
}
