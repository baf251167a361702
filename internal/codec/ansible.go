package codec

import (
	"fmt"
	"io"
	"strings"

	"netsim/internal/domain"

	"gopkg.in/yaml.v3"
)

// AnsibleCodec exports a lab as an Ansible inventory, one group per device
// kind. It is export-only: an inventory does not carry cabling.
type AnsibleCodec struct{}

// NewAnsibleCodec creates a new Ansible codec
func NewAnsibleCodec() *AnsibleCodec {
	return &AnsibleCodec{}
}

// Format returns the codec format identifier
func (c *AnsibleCodec) Format() string {
	return "ansible-inventory"
}

// ansibleInventory represents the Ansible inventory structure
type ansibleInventory struct {
	All ansibleGroup `yaml:"all"`
}

type ansibleGroup struct {
	Children map[string]ansibleGroupDef `yaml:"children,omitempty"`
}

type ansibleGroupDef struct {
	Hosts map[string]ansibleHost `yaml:"hosts,omitempty"`
	Vars  map[string]any         `yaml:"vars,omitempty"`
}

type ansibleHost struct {
	AnsibleHost string         `yaml:"ansible_host,omitempty"`
	Vars        map[string]any `yaml:",inline"`
}

// groupName maps a device kind to its inventory group
func groupName(kind domain.DeviceKind) string {
	switch kind {
	case domain.DeviceKindRouter:
		return "routers"
	case domain.DeviceKindSwitch:
		return "switches"
	}
	return "hosts"
}

// Export writes the inventory. The first addressed interface becomes
// ansible_host; every addressed interface is listed under interfaces.
func (c *AnsibleCodec) Export(s *domain.Snapshot, w io.Writer) error {
	inv := ansibleInventory{
		All: ansibleGroup{
			Children: make(map[string]ansibleGroupDef),
		},
	}

	for i := range s.Devices {
		d := &s.Devices[i]
		group := groupName(d.Kind)

		def, ok := inv.All.Children[group]
		if !ok {
			def = ansibleGroupDef{
				Hosts: make(map[string]ansibleHost),
				Vars:  map[string]any{"device_type": string(d.Kind)},
			}
			if d.Kind != domain.DeviceKindHost {
				def.Vars["ansible_network_os"] = "cisco.ios.ios"
			}
		}

		host := ansibleHost{Vars: map[string]any{"device_id": d.ID}}
		ifaces := make(map[string]string)
		for _, iface := range d.Interfaces {
			if iface.IP == "" {
				continue
			}
			if host.AnsibleHost == "" {
				host.AnsibleHost = iface.IP
			}
			ifaces[iface.Name] = iface.IP + "/" + iface.Mask
		}
		if len(ifaces) > 0 {
			host.Vars["interfaces"] = ifaces
		}
		if d.Config != nil && d.Config.Gateway != "" {
			host.Vars["gateway"] = d.Config.Gateway
		}

		def.Hosts[inventoryName(d.Name)] = host
		inv.All.Children[group] = def
	}

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()

	if err := encoder.Encode(&inv); err != nil {
		return fmt.Errorf("failed to encode Ansible inventory: %w", err)
	}

	return nil
}

// inventoryName makes a device name safe as an inventory hostname
func inventoryName(name string) string {
	return strings.ReplaceAll(strings.TrimSpace(name), " ", "_")
}
