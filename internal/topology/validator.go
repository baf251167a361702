package topology

import (
	"strings"

	"netsim/internal/domain"
)

// cableRule lists the port name fragments a cable kind may terminate on
type cableRule struct {
	allowedPorts []string
	message      string
}

// Kinds without a rule (console, and anything unlisted) plug in anywhere.
var cableRules = map[domain.CableKind]cableRule{
	domain.CableSerial: {
		allowedPorts: []string{"serial"},
		message:      "Layer 1 error! A serial cable only fits serial ports.",
	},
	domain.CableStraight: {
		allowedPorts: []string{"fastethernet", "gigabitethernet"},
		message:      "Incompatible! A straight-through cable is for Ethernet ports.",
	},
	domain.CableCross: {
		allowedPorts: []string{"fastethernet", "gigabitethernet"},
		message:      "Incompatible! A crossover cable is for Ethernet ports.",
	},
	domain.CableFiber: {
		allowedPorts: []string{"gigabitethernet"},
		message:      "Incompatible! A fiber cable is for GigabitEthernet ports.",
	},
}

// Validation is the verdict of ValidateCable
type Validation struct {
	OK      bool
	Message string
}

// ValidateCable checks that both port names accept a cable of kind
func ValidateCable(kind domain.CableKind, port1, port2 string) Validation {
	rule, ok := cableRules[kind]
	if !ok {
		return Validation{OK: true}
	}

	if rule.accepts(port1) && rule.accepts(port2) {
		return Validation{OK: true}
	}
	return Validation{OK: false, Message: rule.message}
}

func (r cableRule) accepts(port string) bool {
	p := strings.ToLower(port)
	for _, allowed := range r.allowedPorts {
		if strings.Contains(p, allowed) {
			return true
		}
	}
	return false
}

// ResolveCable picks the concrete cable for an auto connection between kinds
func ResolveCable(a, b domain.DeviceKind) domain.CableKind {
	pair := func(x, y domain.DeviceKind) bool {
		return (a == x && b == y) || (a == y && b == x)
	}

	switch {
	case pair(domain.DeviceKindRouter, domain.DeviceKindRouter):
		return domain.CableSerial
	case pair(domain.DeviceKindHost, domain.DeviceKindHost):
		return domain.CableCross
	case pair(domain.DeviceKindSwitch, domain.DeviceKindSwitch):
		return domain.CableCross
	case pair(domain.DeviceKindHost, domain.DeviceKindRouter):
		return domain.CableCross
	}
	return domain.CableStraight
}
