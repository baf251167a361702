// Package console serves the device shells to terminals: over SSH, where the
// login name picks the device, and as a local REPL that also edits the
// topology.
package console

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"netsim/internal/cli"
	"netsim/internal/domain"
)

// Simulator is the part of the simulator a device session drives
type Simulator interface {
	Device(id int) (domain.Device, error)
	DeviceByName(name string) (domain.Device, error)
	Submit(deviceID int, line string) (cli.Response, error)
	Prompt(deviceID int) (string, error)
}

// LineReader reads one line at a time behind a prompt. golang.org/x/term's
// Terminal satisfies it directly.
type LineReader interface {
	SetPrompt(prompt string)
	ReadLine() (string, error)
}

// ErrLogout is returned by Step when the line ends the session
var ErrLogout = errors.New("logout")

// Attach runs lines from in against a device until the user logs out or the
// input ends. A clean end returns nil.
func Attach(sim Simulator, deviceID int, in LineReader, out io.Writer) error {
	for {
		prompt, err := sim.Prompt(deviceID)
		if err != nil {
			return err
		}
		in.SetPrompt(prompt)

		line, err := in.ReadLine()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		if err := Step(sim, deviceID, line, out); err != nil {
			if errors.Is(err, ErrLogout) {
				return nil
			}
			return err
		}
	}
}

// Step submits one line to a device and writes its output. The device was
// deleted when the error wraps the not-found sentinel.
func Step(sim Simulator, deviceID int, line string, out io.Writer) error {
	d, err := sim.Device(deviceID)
	if err != nil {
		return err
	}
	if logout(&d, line) {
		return ErrLogout
	}

	res, err := sim.Submit(deviceID, line)
	if err != nil {
		return err
	}
	if res.Output != "" {
		fmt.Fprintln(out, res.Output)
	}
	return nil
}

// logout reports whether line leaves the device. exit only logs out from the
// top of a shell; inside config modes the shell handles it.
func logout(d *domain.Device, line string) bool {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "logout", "quit":
		return true
	case "exit":
		return d.Kind == domain.DeviceKindHost ||
			d.CLIMode == domain.CLIModeUser ||
			d.CLIMode == domain.CLIModePrivileged ||
			d.CLIMode == ""
	}
	return false
}
