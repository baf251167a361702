package loader

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"netsim/internal/domain"
	"netsim/internal/reach"
	"netsim/internal/topology"
)

const officeLab = `
version: "1"
description: two hosts behind a router
devices:
  - name: R1
    kind: router
    position: {x: 400, y: 100}
    interfaces:
      - port: gi0/0
        ip: 192.168.1.1
        mask: 255.255.255.0
  - name: SW1
    kind: switch
    interfaces:
      - port: fa0/3
        vlan: 20
  - name: PC-A
    kind: pc
    gateway: 192.168.1.1
    interfaces:
      - port: fa0
        ip: 192.168.1.10
        mask: 255.255.255.0
  - name: PC-B
    kind: host
links:
  - from: R1
    to: SW1
  - from: PC-A
    to: SW1
    cable: straight
`

func TestParseYAML(t *testing.T) {
	topo, err := ParseYAML([]byte(officeLab))
	if err != nil {
		t.Fatalf("failed to build lab: %v", err)
	}

	t.Run("devices", func(t *testing.T) {
		if n := len(topo.Devices()); n != 4 {
			t.Fatalf("expected 4 devices, got %d", n)
		}
		r := topo.DeviceByName("R1")
		if r == nil || r.Kind != domain.DeviceKindRouter {
			t.Fatalf("expected router R1, got %+v", r)
		}
		if r.X != 400 || r.Y != 100 {
			t.Errorf("expected position (400,100), got (%v,%v)", r.X, r.Y)
		}
		if !r.Interfaces[0].AdminStatus || r.Interfaces[0].IP != "192.168.1.1" {
			t.Errorf("expected addressed port up: %+v", r.Interfaces[0])
		}
		if r.Interfaces[1].AdminStatus {
			t.Error("expected unconfigured router port to stay down")
		}

		pcA := topo.DeviceByName("PC-A")
		if pcA.Kind != domain.DeviceKindHost || pcA.Config.Gateway != "192.168.1.1" {
			t.Errorf("unexpected host: %+v", pcA)
		}

		sw := topo.DeviceByName("SW1")
		if sw.Interfaces[2].VLAN != 20 || sw.Interfaces[0].VLAN != 1 {
			t.Errorf("unexpected VLANs: %d %d", sw.Interfaces[2].VLAN, sw.Interfaces[0].VLAN)
		}
	})

	t.Run("links", func(t *testing.T) {
		cables := topo.Cables()
		if len(cables) != 2 {
			t.Fatalf("expected 2 cables, got %d", len(cables))
		}
		if cables[0].Kind != domain.CableStraight {
			t.Errorf("expected auto router-switch to resolve straight, got %s", cables[0].Kind)
		}
		if cables[1].ToPort != 1 {
			t.Errorf("expected PC-A on switch port 1, got %d", cables[1].ToPort)
		}
	})

	t.Run("lab is reachable end to end", func(t *testing.T) {
		pcA := topo.DeviceByName("PC-A")
		rep := reach.Ping(topo, pcA, "192.168.1.1")
		if rep.Outcome != reach.OutcomeReachable {
			t.Errorf("expected gateway reachable, got %s", rep.Outcome)
		}
	})
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name string
		lab  string
		is   error
	}{
		{
			name: "unknown kind",
			lab:  "devices:\n  - name: X\n    kind: firewall\n",
		},
		{
			name: "duplicate name",
			lab:  "devices:\n  - name: X\n    kind: pc\n  - name: X\n    kind: pc\n",
		},
		{
			name: "unknown link end",
			lab:  "devices:\n  - name: X\n    kind: pc\nlinks:\n  - from: X\n    to: Y\n",
		},
		{
			name: "bad address",
			lab:  "devices:\n  - name: X\n    kind: pc\n    interfaces:\n      - port: fa0\n        ip: 10.0.0.300\n",
		},
		{
			name: "unknown port",
			lab:  "devices:\n  - name: R\n    kind: router\n    interfaces:\n      - port: fa0/9\n",
			is:   topology.ErrInvalidInterface,
		},
		{
			name: "incompatible cable",
			lab:  "devices:\n  - name: A\n    kind: pc\n  - name: B\n    kind: pc\nlinks:\n  - from: A\n    to: B\n    cable: serial\n",
			is:   topology.ErrIncompatibleCable,
		},
		{
			name: "port exhaustion",
			lab: "devices:\n  - name: A\n    kind: pc\n  - name: B\n    kind: pc\n  - name: C\n    kind: pc\n" +
				"links:\n  - from: A\n    to: B\n  - from: A\n    to: C\n",
			is: topology.ErrNoFreePort,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseYAML([]byte(tt.lab))
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.is != nil && !errors.Is(err, tt.is) {
				t.Errorf("expected %v, got %v", tt.is, err)
			}
		})
	}
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lab.yaml")
	if err := os.WriteFile(path, []byte(officeLab), 0644); err != nil {
		t.Fatal(err)
	}

	topo, err := LoadYAML(path)
	if err != nil {
		t.Fatalf("failed to load: %v", err)
	}
	if len(topo.Devices()) != 4 {
		t.Errorf("expected 4 devices, got %d", len(topo.Devices()))
	}

	if _, err := LoadYAML(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
