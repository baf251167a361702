package console

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/ssh"
	"golang.org/x/term"

	"netsim/internal/metrics"
)

// ServerOptions configures the SSH console
type ServerOptions struct {
	// Password is required from every client when set
	Password string
	// HostKey signs the handshake; a fresh ed25519 key is used when nil
	HostKey ssh.Signer
	Metrics *metrics.Collector
}

// Server serves device shells over SSH. The login name selects the device,
// matched case-insensitively against device names.
type Server struct {
	sim     Simulator
	config  *ssh.ServerConfig
	metrics *metrics.Collector

	mu    sync.Mutex
	conns map[string]net.Conn
	wg    sync.WaitGroup
}

// NewServer creates an SSH console over sim
func NewServer(sim Simulator, opts ServerOptions) (*Server, error) {
	config := &ssh.ServerConfig{
		ServerVersion: "SSH-2.0-netsim",
	}
	if opts.Password == "" {
		config.NoClientAuth = true
	} else {
		password := []byte(opts.Password)
		config.PasswordCallback = func(conn ssh.ConnMetadata, pass []byte) (*ssh.Permissions, error) {
			if subtle.ConstantTimeCompare(pass, password) != 1 {
				return nil, fmt.Errorf("password rejected for %s", conn.User())
			}
			if _, err := sim.DeviceByName(conn.User()); err != nil {
				return nil, err
			}
			return nil, nil
		}
	}

	signer := opts.HostKey
	if signer == nil {
		var err error
		if signer, err = GenerateHostKey(); err != nil {
			return nil, err
		}
	}
	config.AddHostKey(signer)

	return &Server{
		sim:     sim,
		config:  config,
		metrics: opts.Metrics,
		conns:   make(map[string]net.Conn),
	}, nil
}

// GenerateHostKey creates an ephemeral ed25519 host key
func GenerateHostKey() (ssh.Signer, error) {
	_, key, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate host key: %w", err)
	}
	return ssh.NewSignerFromKey(key)
}

// LoadHostKey reads a PEM encoded private key
func LoadHostKey(path string) (ssh.Signer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read host key: %w", err)
	}
	signer, err := ssh.ParsePrivateKey(data)
	if err != nil {
		return nil, fmt.Errorf("parse host key %s: %w", path, err)
	}
	return signer, nil
}

// ListenAndServe listens on addr and serves until ctx is done
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	log.Printf("SSH console listening on %s", l.Addr())
	return s.Serve(ctx, l)
}

// Serve accepts connections on l until ctx is done. Open sessions are closed
// before it returns.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	go func() {
		<-ctx.Done()
		l.Close()
	}()

	for {
		conn, err := l.Accept()
		if err != nil {
			if ctx.Err() != nil {
				s.closeAll()
				s.wg.Wait()
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return err
			}
			log.Printf("SSH accept error: %v", err)
			continue
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConn(conn)
		}()
	}
}

func (s *Server) handleConn(conn net.Conn) {
	id := uuid.NewString()
	s.track(id, conn)
	defer s.untrack(id)
	defer conn.Close()

	sconn, chans, reqs, err := ssh.NewServerConn(conn, s.config)
	if err != nil {
		log.Printf("SSH handshake from %s failed: %v", conn.RemoteAddr(), err)
		return
	}
	defer sconn.Close()
	go ssh.DiscardRequests(reqs)

	d, err := s.sim.DeviceByName(sconn.User())
	if err != nil {
		log.Printf("SSH session %s: %v", id, err)
		for nc := range chans {
			nc.Reject(ssh.Prohibited, fmt.Sprintf("unknown device %q", sconn.User()))
		}
		return
	}

	log.Printf("Console session %s opened on %s from %s", id, d.Name, conn.RemoteAddr())
	s.metrics.SessionOpened()
	defer func() {
		s.metrics.SessionClosed()
		log.Printf("Console session %s closed", id)
	}()

	for nc := range chans {
		if nc.ChannelType() != "session" {
			nc.Reject(ssh.UnknownChannelType, "unknown channel type")
			continue
		}
		ch, requests, err := nc.Accept()
		if err != nil {
			log.Printf("SSH session %s: accept channel: %v", id, err)
			continue
		}
		go s.handleChannel(d.ID, ch, requests)
	}
}

// handleChannel answers session requests. A shell request starts an
// interactive session; exec runs a single line.
func (s *Server) handleChannel(deviceID int, ch ssh.Channel, requests <-chan *ssh.Request) {
	defer ch.Close()

	for req := range requests {
		switch req.Type {
		case "pty-req", "window-change", "env":
			req.Reply(req.Type != "env", nil)

		case "shell":
			req.Reply(true, nil)
			t := term.NewTerminal(ch, "")
			err := Attach(s.sim, deviceID, t, t)
			exit(ch, err)
			return

		case "exec":
			var payload struct{ Command string }
			if err := ssh.Unmarshal(req.Payload, &payload); err != nil {
				req.Reply(false, nil)
				continue
			}
			req.Reply(true, nil)
			var err error
			for _, line := range strings.Split(payload.Command, ";") {
				if err = Step(s.sim, deviceID, line, ch); err != nil {
					break
				}
			}
			exit(ch, err)
			return

		default:
			req.Reply(false, nil)
		}
	}
}

func exit(ch ssh.Channel, err error) {
	status := uint32(0)
	if err != nil && !errors.Is(err, ErrLogout) {
		fmt.Fprintf(ch.Stderr(), "%% %v\r\n", err)
		status = 1
	}
	ch.SendRequest("exit-status", false, ssh.Marshal(struct{ Status uint32 }{status}))
}

func (s *Server) track(id string, conn net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conns[id] = conn
}

func (s *Server) untrack(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, id)
}

func (s *Server) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, conn := range s.conns {
		conn.Close()
	}
}

// Sessions returns the number of open connections
func (s *Server) Sessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}
