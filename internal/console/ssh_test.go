package console

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"

	"netsim/internal/domain"
	"netsim/internal/metrics"
	"netsim/internal/service"
	"netsim/internal/topology"
)

func newTestSimulator(t *testing.T) *service.Simulator {
	t.Helper()
	sim := service.New(service.Options{})

	router, err := sim.CreateDevice(domain.DeviceKindRouter, domain.NewPosition(0, 0))
	require.NoError(t, err)
	host, err := sim.CreateDevice(domain.DeviceKindHost, domain.NewPosition(100, 0))
	require.NoError(t, err)
	require.NoError(t, sim.ConfigureHost(host.ID, topology.HostSettings{IP: "192.168.1.10", Mask: "255.255.255.0"}))
	_, err = sim.Connect(router.ID, host.ID, domain.CableAuto)
	require.NoError(t, err)
	return sim
}

func startServer(t *testing.T, sim Simulator, opts ServerOptions) (string, *Server) {
	t.Helper()
	srv, err := NewServer(sim, opts)
	require.NoError(t, err)

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, l) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("server did not stop")
		}
	})
	return l.Addr().String(), srv
}

func dial(t *testing.T, addr, user, password string) (*ssh.Client, error) {
	t.Helper()
	config := &ssh.ClientConfig{
		User:            user,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         5 * time.Second,
	}
	if password != "" {
		config.Auth = []ssh.AuthMethod{ssh.Password(password)}
	}
	return ssh.Dial("tcp", addr, config)
}

func TestServerShell(t *testing.T) {
	sim := newTestSimulator(t)
	collector := metrics.NewCollector()
	addr, _ := startServer(t, sim, ServerOptions{Metrics: collector})

	client, err := dial(t, addr, "router0", "")
	require.NoError(t, err)
	defer client.Close()

	session, err := client.NewSession()
	require.NoError(t, err)
	defer session.Close()

	require.NoError(t, session.RequestPty("xterm", 24, 80, ssh.TerminalModes{}))
	stdin, err := session.StdinPipe()
	require.NoError(t, err)
	stdout, err := session.StdoutPipe()
	require.NoError(t, err)
	require.NoError(t, session.Shell())

	_, err = io.WriteString(stdin, "enable\rconfigure terminal\rhostname Core\rexit\rexit\r")
	require.NoError(t, err)

	out, err := io.ReadAll(stdout)
	require.NoError(t, err)
	assert.Contains(t, string(out), "Router0>")
	assert.Contains(t, string(out), "Core(config)#")
	require.NoError(t, session.Wait())

	d, err := sim.DeviceByName("Core")
	require.NoError(t, err)
	assert.Equal(t, domain.CLIModePrivileged, d.CLIMode)
}

func TestServerExec(t *testing.T) {
	sim := newTestSimulator(t)
	addr, _ := startServer(t, sim, ServerOptions{Password: "cisco"})

	client, err := dial(t, addr, "PC1", "cisco")
	require.NoError(t, err)
	defer client.Close()

	session, err := client.NewSession()
	require.NoError(t, err)
	defer session.Close()

	out, err := session.Output("ipconfig")
	require.NoError(t, err)
	assert.Contains(t, string(out), "192.168.1.10")
}

func TestServerAuth(t *testing.T) {
	sim := newTestSimulator(t)
	addr, _ := startServer(t, sim, ServerOptions{Password: "cisco"})

	_, err := dial(t, addr, "Router0", "wrong")
	assert.Error(t, err)

	_, err = dial(t, addr, "Nope", "cisco")
	assert.Error(t, err)
}

func TestServerUnknownDevice(t *testing.T) {
	sim := newTestSimulator(t)
	addr, _ := startServer(t, sim, ServerOptions{})

	client, err := dial(t, addr, "Nope", "")
	require.NoError(t, err)
	defer client.Close()

	_, err = client.NewSession()
	var open *ssh.OpenChannelError
	require.ErrorAs(t, err, &open)
	assert.Equal(t, ssh.Prohibited, open.Reason)
}

func TestLoadHostKey(t *testing.T) {
	_, err := LoadHostKey("/nonexistent/host_key")
	assert.Error(t, err)

	signer, err := GenerateHostKey()
	require.NoError(t, err)
	assert.Equal(t, ssh.KeyAlgoED25519, signer.PublicKey().Type())
}
