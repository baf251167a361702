package cli

import (
	"fmt"

	"netsim/internal/domain"
	"netsim/internal/netaddr"
	"netsim/internal/topology"
)

var modeHelp = map[domain.CLIMode][]string{
	domain.CLIModeUser: {
		"  enable  - Enter privileged EXEC mode",
	},
	domain.CLIModeConfig: {
		"  interface <name>   - Enter interface configuration",
		"  hostname <name>    - Set device hostname",
		"  exit               - Return to privileged mode",
	},
	domain.CLIModeConfigIf: {
		"  ip address <IP> <MASK>  - Set IP address",
		"  no shutdown             - Enable interface",
		"  shutdown                - Disable interface",
		"  exit                    - Return to config mode",
	},
}

func (s *Shell) ios(d *domain.Device, c command) Response {
	if c.name == "?" {
		return Response{Output: help(d)}
	}

	switch d.CLIMode {
	case domain.CLIModePrivileged:
		return s.privileged(d, c)
	case domain.CLIModeConfig:
		return s.config(d, c)
	case domain.CLIModeConfigIf:
		return s.configIf(d, c)
	}

	if c.name == "enable" {
		d.CLIMode = domain.CLIModePrivileged
		return Response{}
	}
	return unknown(c.name)
}

func help(d *domain.Device) string {
	out := []string{"Available commands:"}
	if d.CLIMode == domain.CLIModePrivileged {
		out = append(out,
			"  configure terminal   - Enter config mode",
			"  show ip int          - Show interface status",
			"  show running-config  - Show running configuration",
		)
		if d.Kind == domain.DeviceKindSwitch {
			out = append(out, "  show mac-address-table - Show MAC table")
		}
		out = append(out,
			"  ping <IP>            - Test connectivity",
			"  disable              - Return to user mode",
		)
		return lines(out...)
	}

	mode := d.CLIMode
	if !mode.Valid() {
		mode = domain.CLIModeUser
	}
	return lines(append(out, modeHelp[mode]...)...)
}

func (s *Shell) privileged(d *domain.Device, c command) Response {
	switch {
	case c.name == "configure" && c.is(0, "terminal"):
		d.CLIMode = domain.CLIModeConfig
		return Response{}
	case c.name == "ping":
		return s.ping(d, c)
	case c.name == "show":
		return Response{Output: show(d, c)}
	case c.name == "disable":
		d.CLIMode = domain.CLIModeUser
		return Response{}
	}
	return unknown(c.name)
}

func (s *Shell) config(d *domain.Device, c command) Response {
	switch c.name {
	case "interface", "int":
		name := c.arg(0)
		if name == "" {
			return Response{Output: "% Incomplete command. Specify interface name."}
		}
		idx := topology.ResolveInterface(d, name)
		if idx < 0 {
			return Response{Output: "% Invalid interface type and number"}
		}
		d.SelectedInterface = &idx
		d.CLIMode = domain.CLIModeConfigIf
		return Response{}

	case "hostname":
		name := c.arg(0)
		if name == "" {
			return Response{Output: "% Incomplete command. Usage: hostname <name>"}
		}
		s.mutate(func() { d.Name = name })
		return Response{Mutated: true}

	case "exit":
		d.CLIMode = domain.CLIModePrivileged
		return Response{}
	}
	return unknown(c.name)
}

func (s *Shell) configIf(d *domain.Device, c command) Response {
	iface := d.Selected()
	if iface == nil {
		d.CLIMode = domain.CLIModeConfig
		d.SelectedInterface = nil
		return Response{Output: "% Invalid interface type and number"}
	}

	switch {
	case c.name == "ip" && c.is(0, "address"):
		ip, mask := c.arg(1), c.arg(2)
		if ip == "" || mask == "" {
			return Response{Output: "% Incomplete command. Usage: ip address <IP> <MASK>"}
		}
		if err := netaddr.CheckIP(ip, topology.FieldIP); err != nil {
			return Response{Output: "% " + err.Error()}
		}
		if err := netaddr.CheckMask(mask, topology.FieldMask); err != nil {
			return Response{Output: "% " + err.Error()}
		}
		s.mutate(func() {
			iface.IP = ip
			iface.Mask = mask
		})
		return Response{Mutated: true}

	case c.name == "no" && c.is(0, "shutdown"):
		s.mutate(func() { iface.AdminStatus = true })
		return Response{
			Output:  fmt.Sprintf("%%LINK-3-UPDOWN: Interface %s, changed state to up", iface.Name),
			Mutated: true,
		}

	case c.name == "shutdown":
		s.mutate(func() { iface.AdminStatus = false })
		return Response{
			Output:  fmt.Sprintf("%%LINK-5-CHANGED: Interface %s, changed state to administratively down", iface.Name),
			Mutated: true,
		}

	case c.name == "exit":
		d.CLIMode = domain.CLIModeConfig
		return Response{}
	}
	return unknown(c.name)
}
