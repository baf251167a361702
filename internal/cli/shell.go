// Package cli implements the per-device command shells: a flat Windows-style
// shell for hosts and a four-mode IOS-style shell for routers and switches.
//
// Each call to Submit handles exactly one line. Mode changes are stored on the
// device itself so sessions survive undo, redo and persistence.
package cli

import (
	"fmt"
	"strings"

	"netsim/internal/domain"
	"netsim/internal/reach"
	"netsim/internal/topology"
)

// Recorder checkpoints state before a mutating command runs
type Recorder interface {
	Push()
}

// Response is the result of one submitted line
type Response struct {
	Output  string        `json:"output"`
	Prompt  string        `json:"prompt"`
	Mutated bool          `json:"mutated"`
	Ping    *reach.Report `json:"ping,omitempty"`
}

// Shell dispatches command lines to device shells
type Shell struct {
	topo     *topology.Topology
	recorder Recorder
}

// New creates a shell over topo. recorder may be nil when undo is not needed.
func New(topo *topology.Topology, recorder Recorder) *Shell {
	return &Shell{topo: topo, recorder: recorder}
}

// Submit runs one command line on the device with the given id. The only
// error is an unknown device; command problems are reported in the output.
func (s *Shell) Submit(deviceID int, line string) (Response, error) {
	d := s.topo.Device(deviceID)
	if d == nil {
		return Response{}, fmt.Errorf("%w: %d", topology.ErrDeviceNotFound, deviceID)
	}

	parts := strings.Fields(line)
	if len(parts) == 0 {
		return Response{Prompt: Prompt(d)}, nil
	}

	cmd := command{
		name: strings.ToLower(parts[0]),
		args: parts[1:],
	}

	var res Response
	if d.Kind == domain.DeviceKindHost {
		res = s.host(d, cmd)
	} else {
		res = s.ios(d, cmd)
	}
	res.Prompt = Prompt(d)
	return res, nil
}

// Prompt renders the prompt for a device's current mode
func Prompt(d *domain.Device) string {
	if d.Kind == domain.DeviceKindHost {
		return d.Name + ">"
	}
	switch d.CLIMode {
	case domain.CLIModePrivileged:
		return d.Name + "#"
	case domain.CLIModeConfig:
		return d.Name + "(config)#"
	case domain.CLIModeConfigIf:
		return d.Name + "(config-if)#"
	}
	return d.Name + ">"
}

// command is one tokenized line. name is lowercased; args keep their case.
type command struct {
	name string
	args []string
}

// arg returns the i-th argument or ""
func (c command) arg(i int) string {
	if i < len(c.args) {
		return c.args[i]
	}
	return ""
}

// is reports whether the i-th argument equals word, ignoring case
func (c command) is(i int, word string) bool {
	return strings.EqualFold(c.arg(i), word)
}

// mutate records a checkpoint and then runs fn
func (s *Shell) mutate(fn func()) {
	if s.recorder != nil {
		s.recorder.Push()
	}
	fn()
}

func (s *Shell) ping(d *domain.Device, c command) Response {
	target := c.arg(0)
	if target == "" {
		return Response{Output: "% Usage: ping <IP address>"}
	}
	rep := reach.Ping(s.topo, d, target)
	return Response{Output: rep.String(), Ping: &rep}
}

func unknown(cmd string) Response {
	return Response{Output: fmt.Sprintf("%% Unknown command \"%s\". Type ? for help.", cmd)}
}

func lines(l ...string) string {
	return strings.Join(l, "\n")
}
