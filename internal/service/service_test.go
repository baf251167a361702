package service

import (
	"bytes"
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"netsim/internal/domain"
	"netsim/internal/history"
	"netsim/internal/metrics"
	"netsim/internal/reach"
	"netsim/internal/repository/sqlite"
	"netsim/internal/topology"
)

func newTestSimulator(t *testing.T) (*Simulator, chan Event) {
	t.Helper()
	bus := NewEventBus()
	events := make(chan Event, 64)
	bus.Subscribe(events)
	return New(Options{EventBus: bus, Metrics: metrics.NewCollector()}), events
}

func drain(ch chan Event) []EventType {
	var out []EventType
	for {
		select {
		case e := <-ch:
			out = append(out, e.Type)
		default:
			return out
		}
	}
}

// lab builds PC0 - Switch1 - Router2 with the router's Gi0/0 as gateway
func lab(t *testing.T, sim *Simulator) (pc, sw, r domain.Device) {
	t.Helper()
	pc, err := sim.CreateDevice(domain.DeviceKindHost, domain.NewPosition(100, 100))
	require.NoError(t, err)
	sw, err = sim.CreateDevice(domain.DeviceKindSwitch, domain.NewPosition(200, 100))
	require.NoError(t, err)
	r, err = sim.CreateDevice(domain.DeviceKindRouter, domain.NewPosition(300, 100))
	require.NoError(t, err)

	require.NoError(t, sim.ConfigureHost(pc.ID, topology.HostSettings{
		IP: "192.168.1.10", Mask: "255.255.255.0", Gateway: "192.168.1.1",
	}))
	require.NoError(t, sim.ConfigureInterface(r.ID, 0, topology.InterfaceSettings{
		IP: "192.168.1.1", Mask: "255.255.255.0", AdminUp: true,
	}))
	_, err = sim.Connect(pc.ID, sw.ID, domain.CableAuto)
	require.NoError(t, err)
	_, err = sim.Connect(sw.ID, r.ID, domain.CableAuto)
	require.NoError(t, err)
	return pc, sw, r
}

func TestCreateDevice(t *testing.T) {
	sim, events := newTestSimulator(t)

	t.Run("creates and publishes", func(t *testing.T) {
		d, err := sim.CreateDevice(domain.DeviceKindRouter, domain.NewPosition(10, 20))
		require.NoError(t, err)
		assert.Equal(t, 0, d.ID)
		assert.Equal(t, "Router0", d.Name)
		assert.Equal(t, []EventType{EventDeviceCreated}, drain(events))

		undo, _ := sim.HistoryDepth()
		assert.Equal(t, 1, undo)
	})

	t.Run("unknown kind records nothing", func(t *testing.T) {
		_, err := sim.CreateDevice("firewall", domain.Position{})
		require.ErrorIs(t, err, topology.ErrUnknownKind)
		assert.Empty(t, drain(events))

		undo, _ := sim.HistoryDepth()
		assert.Equal(t, 1, undo)
	})
}

func TestConnect(t *testing.T) {
	sim, events := newTestSimulator(t)
	a, err := sim.CreateDevice(domain.DeviceKindRouter, domain.Position{})
	require.NoError(t, err)
	b, err := sim.CreateDevice(domain.DeviceKindSwitch, domain.Position{})
	require.NoError(t, err)
	drain(events)

	t.Run("rejected request changes nothing", func(t *testing.T) {
		before := sim.Snapshot()
		undoBefore, _ := sim.HistoryDepth()

		_, err := sim.Connect(a.ID, b.ID, domain.CableSerial)
		require.ErrorIs(t, err, topology.ErrIncompatibleCable)

		assert.Equal(t, before, sim.Snapshot())
		undo, _ := sim.HistoryDepth()
		assert.Equal(t, undoBefore, undo)
		assert.Empty(t, drain(events))
	})

	t.Run("connects and undoes", func(t *testing.T) {
		c, err := sim.Connect(a.ID, b.ID, domain.CableAuto)
		require.NoError(t, err)
		assert.Equal(t, domain.CableStraight, c.Kind)
		assert.Len(t, sim.Cables(), 1)
		assert.Equal(t, []EventType{EventCableCreated}, drain(events))

		require.NoError(t, sim.Undo())
		assert.Empty(t, sim.Cables())
		assert.Equal(t, []EventType{EventTopologyRestored}, drain(events))

		require.NoError(t, sim.Redo())
		assert.Len(t, sim.Cables(), 1)
	})

	t.Run("disconnect by port", func(t *testing.T) {
		_, err := sim.DisconnectPort(b.ID, 0)
		require.NoError(t, err)
		assert.Empty(t, sim.Cables())

		_, err = sim.DisconnectPort(b.ID, 0)
		require.ErrorIs(t, err, topology.ErrCableNotFound)
	})

	t.Run("disconnect out of range", func(t *testing.T) {
		_, err := sim.Disconnect(5)
		require.ErrorIs(t, err, topology.ErrCableNotFound)
	})
}

func TestDeleteDevice(t *testing.T) {
	sim, _ := newTestSimulator(t)
	pc, sw, _ := lab(t, sim)

	require.NoError(t, sim.DeleteDevice(sw.ID))
	assert.Empty(t, sim.Cables())

	d, err := sim.Device(pc.ID)
	require.NoError(t, err)
	assert.False(t, d.Interfaces[0].Connected)

	require.ErrorIs(t, sim.DeleteDevice(sw.ID), topology.ErrDeviceNotFound)
}

func TestConfigure(t *testing.T) {
	sim, _ := newTestSimulator(t)
	r, err := sim.CreateDevice(domain.DeviceKindRouter, domain.Position{})
	require.NoError(t, err)
	sw, err := sim.CreateDevice(domain.DeviceKindSwitch, domain.Position{})
	require.NoError(t, err)

	t.Run("single router port keeps the others", func(t *testing.T) {
		require.NoError(t, sim.ConfigureInterface(r.ID, 0, topology.InterfaceSettings{IP: "10.0.0.1", Mask: "255.0.0.0", AdminUp: true}))
		require.NoError(t, sim.ConfigureInterface(r.ID, 1, topology.InterfaceSettings{IP: "10.1.0.1", Mask: "255.255.0.0"}))

		d, err := sim.Device(r.ID)
		require.NoError(t, err)
		assert.Equal(t, "10.0.0.1", d.Interfaces[0].IP)
		assert.True(t, d.Interfaces[0].AdminStatus)
		assert.Equal(t, "10.1.0.1", d.Interfaces[1].IP)
		assert.False(t, d.Interfaces[1].AdminStatus)
	})

	t.Run("invalid address records nothing", func(t *testing.T) {
		undoBefore, _ := sim.HistoryDepth()
		err := sim.ConfigureInterface(r.ID, 2, topology.InterfaceSettings{IP: "10.0.0.256", Mask: "255.0.0.0"})
		require.Error(t, err)
		undo, _ := sim.HistoryDepth()
		assert.Equal(t, undoBefore, undo)
	})

	t.Run("bad port index", func(t *testing.T) {
		err := sim.ConfigureInterface(r.ID, 3, topology.InterfaceSettings{})
		require.ErrorIs(t, err, topology.ErrInvalidInterface)
	})

	t.Run("switch port vlan", func(t *testing.T) {
		require.NoError(t, sim.ConfigurePort(sw.ID, 4, topology.PortSettings{VLAN: 30, Mode: domain.PortModeTrunk}))
		d, err := sim.Device(sw.ID)
		require.NoError(t, err)
		assert.Equal(t, 30, d.Interfaces[4].VLAN)
		assert.Equal(t, domain.PortModeTrunk, d.Interfaces[4].Mode)
		assert.Equal(t, 1, d.Interfaces[5].VLAN)

		err = sim.ConfigurePort(sw.ID, 4, topology.PortSettings{VLAN: 5000, Mode: domain.PortModeAccess})
		require.Error(t, err)
	})

	t.Run("wrong kind", func(t *testing.T) {
		err := sim.ConfigurePort(r.ID, 0, topology.PortSettings{VLAN: 10, Mode: domain.PortModeAccess})
		require.ErrorIs(t, err, topology.ErrNotSupported)
	})
}

func TestSubmit(t *testing.T) {
	sim, events := newTestSimulator(t)
	pc, _, r := lab(t, sim)
	drain(events)

	for _, line := range []string{"enable", "configure terminal", "interface gi0/1"} {
		_, err := sim.Submit(r.ID, line)
		require.NoError(t, err)
	}
	assert.Empty(t, drain(events))

	res, err := sim.Submit(r.ID, "ip address 10.0.0.1 255.0.0.0")
	require.NoError(t, err)
	assert.True(t, res.Mutated)
	assert.Equal(t, "Router2(config-if)#", res.Prompt)
	assert.Equal(t, []EventType{EventDeviceUpdated}, drain(events))

	require.NoError(t, sim.Undo())
	d, err := sim.Device(r.ID)
	require.NoError(t, err)
	assert.Empty(t, d.Interfaces[1].IP)

	res, err = sim.Submit(pc.ID, "ping 192.168.1.1")
	require.NoError(t, err)
	require.NotNil(t, res.Ping)
	assert.Equal(t, reach.OutcomeReachable, res.Ping.Outcome)

	_, err = sim.Submit(99, "enable")
	require.ErrorIs(t, err, topology.ErrDeviceNotFound)

	prompt, err := sim.Prompt(pc.ID)
	require.NoError(t, err)
	assert.Equal(t, "PC0>", prompt)
}

func TestPing(t *testing.T) {
	sim, _ := newTestSimulator(t)
	pc, _, _ := lab(t, sim)

	rep, err := sim.Ping(pc.ID, "192.168.1.1")
	require.NoError(t, err)
	assert.Equal(t, reach.OutcomeReachable, rep.Outcome)

	rep, err = sim.Ping(pc.ID, "192.168.9.9")
	require.NoError(t, err)
	assert.Equal(t, reach.OutcomeNoOwner, rep.Outcome)
}

func TestLinks(t *testing.T) {
	sim, _ := newTestSimulator(t)
	pc, sw, r := lab(t, sim)

	links, err := sim.Links(sw.ID)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, links.Indices)
	require.Len(t, links.Cables, 2)
	assert.Equal(t, r.ID, links.Cables[1].To)
	assert.Equal(t, []int{pc.ID, r.ID}, links.Neighbors)

	// A shut router port keeps the cable but drops the neighbor
	require.NoError(t, sim.ConfigureInterface(r.ID, 0, topology.InterfaceSettings{
		IP: "192.168.1.1", Mask: "255.255.255.0", AdminUp: false,
	}))
	links, err = sim.Links(sw.ID)
	require.NoError(t, err)
	assert.Len(t, links.Cables, 2)
	assert.Equal(t, []int{pc.ID}, links.Neighbors)

	_, err = sim.Links(99)
	assert.ErrorIs(t, err, topology.ErrDeviceNotFound)
}

func TestHistoryNotices(t *testing.T) {
	sim, _ := newTestSimulator(t)
	require.ErrorIs(t, sim.Undo(), history.ErrNothingToUndo)
	require.ErrorIs(t, sim.Redo(), history.ErrNothingToRedo)
}

func TestLoad(t *testing.T) {
	sim, events := newTestSimulator(t)
	lab(t, sim)
	saved := sim.Snapshot()

	t.Run("version mismatch leaves state untouched", func(t *testing.T) {
		bad := saved.Clone()
		bad.Version = 99
		drain(events)

		require.ErrorIs(t, sim.Load(bad), topology.ErrVersionMismatch)
		assert.Equal(t, saved, sim.Snapshot())
		assert.Empty(t, drain(events))
	})

	t.Run("clear then load", func(t *testing.T) {
		sim.Clear()
		assert.Empty(t, sim.Devices())
		undo, redo := sim.HistoryDepth()
		assert.Zero(t, undo)
		assert.Zero(t, redo)

		d, err := sim.CreateDevice(domain.DeviceKindHost, domain.Position{})
		require.NoError(t, err)
		assert.Equal(t, 0, d.ID)

		require.NoError(t, sim.Load(saved))
		assert.Equal(t, saved, sim.Snapshot())
		undo, _ = sim.HistoryDepth()
		assert.Zero(t, undo)

		types := drain(events)
		assert.Contains(t, types, EventTopologyCleared)
		assert.Equal(t, EventTopologyLoaded, types[len(types)-1])
	})
}

func TestExportImport(t *testing.T) {
	sim, _ := newTestSimulator(t)
	lab(t, sim)
	want := sim.Snapshot()

	for _, format := range []string{"json", "yaml"} {
		t.Run(format, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, sim.Export(format, &buf))

			other, _ := newTestSimulator(t)
			require.NoError(t, other.Import(format, &buf))
			assert.Equal(t, want.Devices, other.Snapshot().Devices)
			assert.Equal(t, want.Cables, other.Snapshot().Cables)
			assert.Equal(t, want.NextDeviceID, other.Snapshot().NextDeviceID)
		})
	}

	t.Run("ansible export", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, sim.Export("ansible-inventory", &buf))
		assert.Contains(t, buf.String(), "routers")
	})

	t.Run("unknown format", func(t *testing.T) {
		require.Error(t, sim.Export("xml", &bytes.Buffer{}))
		require.Error(t, sim.Import("xml", &bytes.Buffer{}))
	})
}

func TestSavedTopologies(t *testing.T) {
	ctx := context.Background()

	t.Run("without storage", func(t *testing.T) {
		sim, _ := newTestSimulator(t)
		require.ErrorIs(t, sim.Save(ctx, "lab", ""), ErrNoRepository)
		require.ErrorIs(t, sim.Open(ctx, "lab"), ErrNoRepository)
		_, err := sim.ListSaved(ctx)
		require.ErrorIs(t, err, ErrNoRepository)
	})

	repo, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	sim := New(Options{Repository: repo})
	lab(t, sim)
	want := sim.Snapshot()

	require.NoError(t, sim.Save(ctx, "office", "three devices"))

	saved, err := sim.ListSaved(ctx)
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, "office", saved[0].Name)
	assert.Equal(t, 3, saved[0].DeviceCount)
	assert.Equal(t, 2, saved[0].CableCount)

	sim.Clear()
	require.NoError(t, sim.Open(ctx, "office"))
	assert.Equal(t, want.Devices, sim.Snapshot().Devices)

	require.ErrorIs(t, sim.Open(ctx, "missing"), ErrTopologyNotFound)

	require.NoError(t, sim.DeleteSaved(ctx, "office"))
	saved, err = sim.ListSaved(ctx)
	require.NoError(t, err)
	assert.Empty(t, saved)
}

func TestLoadLabData(t *testing.T) {
	sim, _ := newTestSimulator(t)
	require.NoError(t, sim.LoadLabData([]byte(`
version: "1"
devices:
  - name: R1
    kind: router
  - name: R2
    kind: router
links:
  - from: R1
    to: R2
    cable: straight
`)))

	cables := sim.Cables()
	require.Len(t, cables, 1)
	assert.Equal(t, domain.CableStraight, cables[0].Kind)

	d, err := sim.DeviceByName("r1")
	require.NoError(t, err)
	assert.Equal(t, "R1", d.Name)

	require.Error(t, sim.LoadLabData([]byte("devices: [{name: X, kind: toaster}]")))
	assert.Len(t, sim.Devices(), 2)

	// Auto between fresh routers resolves to serial but lands on Gi0/0
	err = sim.LoadLabData([]byte(`
devices:
  - name: A
    kind: router
  - name: B
    kind: router
links:
  - from: A
    to: B
`))
	require.ErrorIs(t, err, topology.ErrIncompatibleCable)
	assert.Len(t, sim.Devices(), 2)
	assert.Len(t, sim.Cables(), 1)
}

func TestSubnet(t *testing.T) {
	sim, _ := newTestSimulator(t)
	sn, err := sim.Subnet("192.168.1.77", 26)
	require.NoError(t, err)
	assert.Equal(t, "192.168.1.64", sn.Network)
	assert.Equal(t, 62, sn.Hosts)

	next, err := sim.NextSubnet(sn)
	require.NoError(t, err)
	assert.Equal(t, "192.168.1.128", next.Network)
	assert.Equal(t, 26, next.Prefix)

	last, err := sim.Subnet("255.255.255.200", 24)
	require.NoError(t, err)
	_, err = sim.NextSubnet(last)
	assert.Error(t, err)
}

func TestConcurrentAccess(t *testing.T) {
	sim, _ := newTestSimulator(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, err := sim.CreateDevice(domain.DeviceKindHost, domain.Position{})
			if err != nil {
				t.Error(err)
				return
			}
			if _, err := sim.Submit(d.ID, "ipconfig"); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	assert.Len(t, sim.Devices(), 8)
	assert.Equal(t, 8, sim.Snapshot().NextDeviceID)
}

func TestEventBus(t *testing.T) {
	bus := NewEventBus()
	fast := make(chan Event, 1)
	slow := make(chan Event)
	bus.Subscribe(fast)
	bus.Subscribe(slow)

	bus.Publish(Event{Type: EventTopologyCleared})
	assert.Equal(t, EventTopologyCleared, (<-fast).Type)

	bus.Unsubscribe(fast)
	bus.Publish(Event{Type: EventTopologyCleared})
	assert.Empty(t, fast)

	var nilBus *EventBus
	nilBus.Publish(Event{Type: EventTopologyCleared})
}
