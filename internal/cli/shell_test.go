package cli

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"netsim/internal/domain"
	"netsim/internal/history"
	"netsim/internal/topology"
)

type countingRecorder struct {
	pushes int
}

func (r *countingRecorder) Push() { r.pushes++ }

func newShell(t *testing.T, kind domain.DeviceKind) (*Shell, *topology.Topology, *countingRecorder, *domain.Device) {
	t.Helper()
	topo := topology.New()
	d, err := topo.CreateDevice(kind, domain.Position{})
	require.NoError(t, err)
	rec := &countingRecorder{}
	return New(topo, rec), topo, rec, d
}

// run submits each line in order and returns the last response
func run(t *testing.T, sh *Shell, id int, lines ...string) Response {
	t.Helper()
	var res Response
	for _, l := range lines {
		var err error
		res, err = sh.Submit(id, l)
		require.NoError(t, err)
	}
	return res
}

func TestModeNavigation(t *testing.T) {
	sh, _, rec, r := newShell(t, domain.DeviceKindRouter)

	steps := []struct {
		line   string
		prompt string
		mode   domain.CLIMode
	}{
		{"", "Router0>", domain.CLIModeUser},
		{"enable", "Router0#", domain.CLIModePrivileged},
		{"configure terminal", "Router0(config)#", domain.CLIModeConfig},
		{"interface gi0/1", "Router0(config-if)#", domain.CLIModeConfigIf},
		{"exit", "Router0(config)#", domain.CLIModeConfig},
		{"exit", "Router0#", domain.CLIModePrivileged},
		{"disable", "Router0>", domain.CLIModeUser},
	}

	for _, step := range steps {
		res := run(t, sh, r.ID, step.line)
		assert.Equal(t, step.prompt, res.Prompt, "after %q", step.line)
		assert.Equal(t, step.mode, r.CLIMode, "after %q", step.line)
		assert.False(t, res.Mutated, "after %q", step.line)
	}
	assert.Zero(t, rec.pushes, "navigation must not checkpoint")
}

func TestUnknownCommand(t *testing.T) {
	sh, _, _, r := newShell(t, domain.DeviceKindRouter)

	res := run(t, sh, r.ID, "configure terminal")
	assert.Equal(t, `% Unknown command "configure". Type ? for help.`, res.Output)

	run(t, sh, r.ID, "enable")
	res = run(t, sh, r.ID, "hostname R1")
	assert.Equal(t, `% Unknown command "hostname". Type ? for help.`, res.Output)
}

func TestHelp(t *testing.T) {
	sh, _, _, sw := newShell(t, domain.DeviceKindSwitch)

	res := run(t, sh, sw.ID, "?")
	assert.Contains(t, res.Output, "enable")

	res = run(t, sh, sw.ID, "enable", "?")
	assert.Contains(t, res.Output, "configure terminal")
	assert.Contains(t, res.Output, "show mac-address-table")

	res = run(t, sh, sw.ID, "configure terminal", "int fa0/1", "?")
	assert.Contains(t, res.Output, "ip address <IP> <MASK>")
}

func TestInterfaceResolution(t *testing.T) {
	topo := topology.New()
	r, err := topo.CreateDevice(domain.DeviceKindRouter, domain.Position{})
	require.NoError(t, err)
	sw, err := topo.CreateDevice(domain.DeviceKindSwitch, domain.Position{})
	require.NoError(t, err)

	tests := []struct {
		device *domain.Device
		name   string
		want   int
	}{
		{r, "gi0/0", 0},
		{r, "GigabitEthernet0/1", 1},
		{r, "se0/0/0", 2},
		{r, "serial", 2},
		{r, "fa0/1", -1},
		{sw, "fa0/1", 0},
		{sw, "fa0/24", 23},
		{sw, "FastEthernet0/12", 11},
		{sw, "gi0/1", -1},
	}

	for _, tt := range tests {
		t.Run(tt.device.Name+" "+tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, topology.ResolveInterface(tt.device, tt.name))
		})
	}

	t.Run("invalid name keeps config mode", func(t *testing.T) {
		sh := New(topo, nil)
		res := run(t, sh, r.ID, "enable", "conf terminal")
		assert.Contains(t, res.Output, "Unknown command")

		res = run(t, sh, r.ID, "configure terminal", "interface ethernet9")
		assert.Equal(t, "% Invalid interface type and number", res.Output)
		assert.Equal(t, domain.CLIModeConfig, r.CLIMode)

		res = run(t, sh, r.ID, "interface")
		assert.Equal(t, "% Incomplete command. Specify interface name.", res.Output)
	})
}

func TestIPAddress(t *testing.T) {
	t.Run("validates before mutating", func(t *testing.T) {
		sh, _, rec, r := newShell(t, domain.DeviceKindRouter)
		run(t, sh, r.ID, "enable", "configure terminal", "interface gi0/0")

		res := run(t, sh, r.ID, "ip address 10.0.0.256 255.255.255.0")
		assert.True(t, strings.HasPrefix(res.Output, "% IP"), res.Output)
		assert.False(t, res.Mutated)

		res = run(t, sh, r.ID, "ip address 10.0.0.1 255.0.255.0")
		assert.True(t, strings.HasPrefix(res.Output, "% Mask"), res.Output)

		res = run(t, sh, r.ID, "ip address 10.0.0.1")
		assert.Equal(t, "% Incomplete command. Usage: ip address <IP> <MASK>", res.Output)

		assert.Empty(t, r.Interfaces[0].IP)
		assert.Zero(t, rec.pushes)

		res = run(t, sh, r.ID, "ip address 10.0.0.1 255.255.255.0")
		assert.True(t, res.Mutated)
		assert.Empty(t, res.Output)
		assert.Equal(t, "10.0.0.1", r.Interfaces[0].IP)
		assert.Equal(t, "255.255.255.0", r.Interfaces[0].Mask)
		assert.Equal(t, 1, rec.pushes)
	})
}

func TestShutdown(t *testing.T) {
	sh, _, rec, r := newShell(t, domain.DeviceKindRouter)
	run(t, sh, r.ID, "enable", "configure terminal", "interface se0/0/0")

	res := run(t, sh, r.ID, "no shutdown")
	assert.Equal(t, "%LINK-3-UPDOWN: Interface Serial0/0/0, changed state to up", res.Output)
	assert.True(t, r.Interfaces[2].AdminStatus)

	res = run(t, sh, r.ID, "shutdown")
	assert.Equal(t, "%LINK-5-CHANGED: Interface Serial0/0/0, changed state to administratively down", res.Output)
	assert.False(t, r.Interfaces[2].AdminStatus)

	assert.Equal(t, 2, rec.pushes)
}

func TestHostname(t *testing.T) {
	sh, _, rec, sw := newShell(t, domain.DeviceKindSwitch)
	run(t, sh, sw.ID, "enable", "configure terminal")

	res := run(t, sh, sw.ID, "hostname")
	assert.Equal(t, "% Incomplete command. Usage: hostname <name>", res.Output)
	assert.Zero(t, rec.pushes)

	res = run(t, sh, sw.ID, "hostname Core1")
	assert.Equal(t, "Core1(config)#", res.Prompt)
	assert.Equal(t, "Core1", sw.Name)
	assert.Equal(t, 1, rec.pushes)
}

func TestShow(t *testing.T) {
	topo := topology.New()
	r, _ := topo.CreateDevice(domain.DeviceKindRouter, domain.Position{})
	sw, _ := topo.CreateDevice(domain.DeviceKindSwitch, domain.Position{})
	_, err := topo.Connect(r.ID, sw.ID, domain.CableStraight)
	require.NoError(t, err)
	require.NoError(t, topo.SetAddress(r.ID, 0, "192.168.0.1", "255.255.255.0"))
	require.NoError(t, topo.SetAdminStatus(r.ID, 0, true))

	sh := New(topo, nil)
	run(t, sh, r.ID, "enable")
	run(t, sh, sw.ID, "enable")

	t.Run("ip interface table", func(t *testing.T) {
		res := run(t, sh, r.ID, "show ip int")
		rows := strings.Split(res.Output, "\n")
		require.Len(t, rows, 5)
		assert.Equal(t, "Interface              IP-Address      Status               Protocol", rows[0])
		assert.Equal(t, strings.Repeat("-", 72), rows[1])
		assert.Equal(t, "GigabitEthernet0/0     192.168.0.1     up                   up", rows[2])
		assert.Equal(t, "GigabitEthernet0/1     unassigned      admin down           down", rows[3])

		alias := run(t, sh, r.ID, "show ip brief")
		assert.Equal(t, res.Output, alias.Output)
	})

	t.Run("running config", func(t *testing.T) {
		res := run(t, sh, r.ID, "show run")
		assert.True(t, strings.HasPrefix(res.Output, "!\n! Running configuration - Router0\n!\nhostname Router0\n!"))
		assert.Contains(t, res.Output, "interface GigabitEthernet0/0\n ip address 192.168.0.1 255.255.255.0\n no shutdown\n!")
		assert.Contains(t, res.Output, "interface Serial0/0/0\n shutdown\n!")
	})

	t.Run("mac table on switch only", func(t *testing.T) {
		res := run(t, sh, sw.ID, "show mac-address-table")
		rows := strings.Split(res.Output, "\n")
		require.Len(t, rows, 5)
		assert.Equal(t, "1       "+sw.Interfaces[0].MAC+"    DYNAMIC     FastEthernet0/1", rows[4])

		res = run(t, sh, r.ID, "show mac-address-table")
		assert.True(t, strings.HasPrefix(res.Output, "% Invalid show command."))
		assert.NotContains(t, res.Output, "mac-address-table")
	})

	t.Run("show never checkpoints", func(t *testing.T) {
		rec := &countingRecorder{}
		sh := New(topo, rec)
		run(t, sh, r.ID, "show ip int", "show run", "ping 192.168.0.1")
		assert.Zero(t, rec.pushes)
	})
}

func TestHostShell(t *testing.T) {
	sh, topo, _, pc := newShell(t, domain.DeviceKindHost)

	t.Run("ipconfig placeholders", func(t *testing.T) {
		res := run(t, sh, pc.ID, "ipconfig")
		assert.Contains(t, res.Output, "Ethernet adapter FastEthernet0:")
		assert.Contains(t, res.Output, "IPv4 Address. . . . . : (not configured)")
		assert.Contains(t, res.Output, "Default Gateway . . . : (not configured)")
		assert.Equal(t, "PC0>", res.Prompt)
	})

	t.Run("ipconfig with addressing", func(t *testing.T) {
		require.NoError(t, topo.ConfigureHost(pc.ID, topology.HostSettings{IP: "10.1.1.5", Mask: "255.255.255.0", Gateway: "10.1.1.1"}))
		res := run(t, sh, pc.ID, "IPCONFIG")
		assert.Contains(t, res.Output, "IPv4 Address. . . . . : 10.1.1.5")
		assert.Contains(t, res.Output, "Default Gateway . . . : 10.1.1.1")
	})

	t.Run("ping usage and loopback", func(t *testing.T) {
		res := run(t, sh, pc.ID, "ping")
		assert.Equal(t, "% Usage: ping <IP address>", res.Output)

		res = run(t, sh, pc.ID, "ping 10.1.1.5")
		require.NotNil(t, res.Ping)
		assert.Contains(t, res.Output, "Received = 4, Lost = 0 (0% loss)")
	})

	t.Run("unrecognized", func(t *testing.T) {
		res := run(t, sh, pc.ID, "enable")
		assert.Equal(t, "'enable' is not recognized as a command.\nType 'help' for available commands.", res.Output)
	})

	t.Run("unknown device", func(t *testing.T) {
		_, err := sh.Submit(99, "ipconfig")
		assert.ErrorIs(t, err, topology.ErrDeviceNotFound)
	})
}

func TestUndoCommand(t *testing.T) {
	topo := topology.New()
	h := history.New(topo, 0)
	sh := New(topo, h)
	r, err := topo.CreateDevice(domain.DeviceKindRouter, domain.Position{})
	require.NoError(t, err)

	run(t, sh, r.ID, "enable", "configure terminal", "hostname Edge")
	require.Equal(t, "Edge", topo.Device(r.ID).Name)

	require.NoError(t, h.Undo())
	assert.Equal(t, "Router0", topo.Device(r.ID).Name)
	res := run(t, sh, r.ID, "")
	assert.Equal(t, "Router0(config)#", res.Prompt)
}
