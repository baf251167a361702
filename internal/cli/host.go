package cli

import (
	"fmt"

	"netsim/internal/domain"
)

const notConfigured = "(not configured)"

func (s *Shell) host(d *domain.Device, c command) Response {
	switch c.name {
	case "ipconfig":
		return Response{Output: ipconfig(d)}
	case "ping":
		return s.ping(d, c)
	case "help", "?":
		return Response{Output: lines(
			"Available commands:",
			"  ipconfig    - Show network configuration",
			"  ping <IP>   - Test connectivity to a host",
			"  help        - Show this help",
		)}
	}
	return Response{Output: fmt.Sprintf("'%s' is not recognized as a command.\nType 'help' for available commands.", c.name)}
}

func ipconfig(d *domain.Device) string {
	eth := d.Interface(0)
	if eth == nil {
		return "No network adapters found."
	}
	gateway := ""
	if d.Config != nil {
		gateway = d.Config.Gateway
	}
	return lines(
		fmt.Sprintf("Ethernet adapter %s:", eth.Name),
		"",
		"   Physical Address. . . : "+eth.MAC,
		"   IPv4 Address. . . . . : "+orNotConfigured(eth.IP),
		"   Subnet Mask . . . . . : "+orNotConfigured(eth.Mask),
		"   Default Gateway . . . : "+orNotConfigured(gateway),
	)
}

func orNotConfigured(v string) string {
	if v == "" {
		return notConfigured
	}
	return v
}
