package domain

import (
	"strings"
	"testing"
)

func testSnapshot() *Snapshot {
	s := NewSnapshot()
	s.Devices = []Device{
		{
			ID: 0, Kind: DeviceKindHost, Name: "PC0", X: 10, Y: 20,
			Interfaces: []Interface{{Name: "FastEthernet0", IP: "10.0.0.1", Mask: "255.0.0.0", AdminStatus: true, Connected: true}},
		},
		{
			ID: 1, Kind: DeviceKindSwitch, Name: "Switch1",
			Interfaces: []Interface{{Name: "FastEthernet0/1", Connected: true}},
		},
	}
	s.Cables = []Cable{{From: 0, FromPort: 0, To: 1, ToPort: 0, Kind: CableStraight}}
	return s
}

func TestDeriveGraph(t *testing.T) {
	t.Run("empty snapshot yields empty collections", func(t *testing.T) {
		graph := DeriveGraph(NewSnapshot())

		if graph.Nodes == nil || len(graph.Nodes) != 0 {
			t.Errorf("expected empty Nodes slice, got %v", graph.Nodes)
		}
		if graph.Edges == nil || len(graph.Edges) != 0 {
			t.Errorf("expected empty Edges slice, got %v", graph.Edges)
		}
	})

	t.Run("maps devices to nodes", func(t *testing.T) {
		graph := DeriveGraph(testSnapshot())

		if len(graph.Nodes) != 2 {
			t.Fatalf("expected 2 nodes, got %d", len(graph.Nodes))
		}
		node := graph.Nodes[0]
		if node.Label != "PC0" || node.Group != "host" {
			t.Errorf("unexpected node %+v", node)
		}
		if node.Position != NewPosition(10, 20) {
			t.Errorf("expected position (10,20), got %+v", node.Position)
		}
		if !strings.Contains(node.Title, "10.0.0.1/255.0.0.0") {
			t.Errorf("expected tooltip to list the address, got %q", node.Title)
		}
	})

	t.Run("link lights follow interface state", func(t *testing.T) {
		graph := DeriveGraph(testSnapshot())

		edge := graph.Edges[0]
		if !edge.FromUp {
			t.Error("expected host end to be up")
		}
		if edge.ToUp {
			t.Error("expected admin down switch port to be dark")
		}
		if edge.Label != "straight FastEthernet0" {
			t.Errorf("unexpected label %q", edge.Label)
		}
	})

	t.Run("dangling cable keeps its kind label", func(t *testing.T) {
		s := testSnapshot()
		s.Cables[0].To = 9

		edge := DeriveGraph(s).Edges[0]
		if edge.ToUp {
			t.Error("expected missing device end to be dark")
		}
	})
}

func TestSnapshotClone(t *testing.T) {
	s := testSnapshot()
	idx := 0
	s.Devices[0].SelectedInterface = &idx
	s.Devices[0].Config = &HostConfig{Gateway: "10.0.0.254"}

	c := s.Clone()
	c.Devices[0].Interfaces[0].IP = "10.0.0.2"
	c.Devices[0].Config.Gateway = "10.0.0.253"
	*c.Devices[0].SelectedInterface = 5
	c.Cables[0].Kind = CableCross

	if s.Devices[0].Interfaces[0].IP != "10.0.0.1" {
		t.Error("clone shares interfaces with the original")
	}
	if s.Devices[0].Config.Gateway != "10.0.0.254" {
		t.Error("clone shares host config with the original")
	}
	if *s.Devices[0].SelectedInterface != 0 {
		t.Error("clone shares the selected interface with the original")
	}
	if s.Cables[0].Kind != CableStraight {
		t.Error("clone shares cables with the original")
	}
	if s.Device(1) == nil || s.Device(7) != nil {
		t.Error("Device lookup by id failed")
	}
}
