package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/gosuri/uitable"
	"github.com/kballard/go-shellquote"

	"netsim/internal/domain"
	"netsim/internal/service"
	"netsim/internal/topology"
)

// ErrQuit is returned by Exec for :quit
var ErrQuit = errors.New("quit")

// REPL is a local console. Lines starting with ':' edit the topology; other
// lines go to the attached device.
type REPL struct {
	sim      *service.Simulator
	out      io.Writer
	attached int
}

type metaCommand struct {
	usage string
	help  string
	run   func(r *REPL, ctx context.Context, args []string) error
}

var metaCommands map[string]metaCommand

func init() {
	metaCommands = map[string]metaCommand{
		"add":     {"<router|switch|host> [x y]", "Create a device", (*REPL).add},
		"rm":      {"<device>", "Delete a device and its cables", (*REPL).rm},
		"mv":      {"<device> <x> <y>", "Move a device", (*REPL).mv},
		"rename":  {"<device> <name>", "Rename a device", (*REPL).rename},
		"link":    {"<device> <device> [cable]", "Cable two devices on free ports", (*REPL).link},
		"unlink":  {"<index>", "Remove a cable", (*REPL).unlink},
		"devices": {"", "List devices", (*REPL).devices},
		"cables":  {"[device]", "List cables, or one device's links", (*REPL).cables},
		"attach":  {"<device>", "Open the device shell", (*REPL).attach},
		"detach":  {"", "Leave the device shell", (*REPL).detach},
		"ping":    {"<device> <ip>", "Ping from a device", (*REPL).ping},
		"undo":    {"", "Revert the last change", (*REPL).undo},
		"redo":    {"", "Reapply the last undone change", (*REPL).redo},
		"save":    {"<name> [description]", "Save the topology", (*REPL).save},
		"open":    {"<name>", "Open a saved topology", (*REPL).open},
		"saved":   {"", "List saved topologies", (*REPL).saved},
		"delete":  {"<name>", "Delete a saved topology", (*REPL).deleteSaved},
		"export":  {"<json|yaml|ansible> [file]", "Export the topology", (*REPL).export},
		"import":  {"<json|yaml> <file>", "Replace the topology from a file", (*REPL).importFile},
		"lab":     {"<file>", "Load a lab definition", (*REPL).lab},
		"subnet":  {"<ip> <prefix>", "Show subnet details", (*REPL).subnet},
		"clear":   {"", "Remove every device", (*REPL).clear},
		"help":    {"", "Show this help", (*REPL).help},
		"quit":    {"", "Leave the console", (*REPL).quit},
	}
}

// NewREPL creates a console over sim writing to out
func NewREPL(sim *service.Simulator, out io.Writer) *REPL {
	return &REPL{sim: sim, out: out, attached: -1}
}

// Prompt returns the attached device prompt, or the console prompt
func (r *REPL) Prompt() string {
	if r.attached >= 0 {
		if p, err := r.sim.Prompt(r.attached); err == nil {
			return p + " "
		}
		r.attached = -1
	}
	return "netsim> "
}

// Attached returns the attached device id, or -1
func (r *REPL) Attached() int {
	return r.attached
}

// Run reads lines until :quit or end of input
func (r *REPL) Run(ctx context.Context, in LineReader) error {
	for {
		in.SetPrompt(r.Prompt())
		line, err := in.ReadLine()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		if err := r.Exec(ctx, line); err != nil {
			if errors.Is(err, ErrQuit) {
				return nil
			}
			fmt.Fprintf(r.out, "%% %v\n", err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// Exec runs one console line
func (r *REPL) Exec(ctx context.Context, line string) error {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return nil
	}

	if !strings.HasPrefix(trimmed, ":") {
		if r.attached < 0 {
			return fmt.Errorf("not attached to a device, try :attach <device> or :help")
		}
		err := Step(r.sim, r.attached, line, r.out)
		if errors.Is(err, ErrLogout) {
			r.attached = -1
			return nil
		}
		if errors.Is(err, topology.ErrDeviceNotFound) {
			r.attached = -1
		}
		return err
	}

	args, err := shellquote.Split(trimmed[1:])
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return r.help(ctx, nil)
	}
	cmd, ok := metaCommands[strings.ToLower(args[0])]
	if !ok {
		return fmt.Errorf("unknown command :%s", args[0])
	}
	return cmd.run(r, ctx, args[1:])
}

// ReadlineConfig returns a readline configuration completing the console
// commands
func (r *REPL) ReadlineConfig() *readline.Config {
	var items []readline.PrefixCompleterInterface
	for _, name := range sortedCommands() {
		var sub []readline.PrefixCompleterInterface
		switch name {
		case "add":
			sub = pcItems("router", "switch", "host")
		case "export":
			sub = pcItems("json", "yaml", "ansible")
		case "import":
			sub = pcItems("json", "yaml")
		case "rm", "mv", "rename", "link", "attach", "ping":
			sub = []readline.PrefixCompleterInterface{readline.PcItemDynamic(r.deviceNames)}
		}
		items = append(items, readline.PcItem(":"+name, sub...))
	}

	return &readline.Config{
		Prompt:          r.Prompt(),
		AutoComplete:    readline.NewPrefixCompleter(items...),
		InterruptPrompt: "^C",
		EOFPrompt:       ":quit",
	}
}

func pcItems(names ...string) []readline.PrefixCompleterInterface {
	items := make([]readline.PrefixCompleterInterface, len(names))
	for i, n := range names {
		items[i] = readline.PcItem(n)
	}
	return items
}

func (r *REPL) deviceNames(string) []string {
	devices := r.sim.Devices()
	names := make([]string, len(devices))
	for i, d := range devices {
		names[i] = d.Name
	}
	return names
}

// ReadlineReader adapts a readline instance to LineReader
type ReadlineReader struct {
	*readline.Instance
}

// ReadLine reads one line
func (r ReadlineReader) ReadLine() (string, error) {
	return r.Readline()
}

// lookup resolves a device by id or name
func (r *REPL) lookup(arg string) (domain.Device, error) {
	if id, err := strconv.Atoi(arg); err == nil {
		return r.sim.Device(id)
	}
	return r.sim.DeviceByName(arg)
}

func usage(name string, args []string, min int) error {
	if len(args) < min {
		return fmt.Errorf("usage: :%s %s", name, metaCommands[name].usage)
	}
	return nil
}

func (r *REPL) add(_ context.Context, args []string) error {
	if err := usage("add", args, 1); err != nil {
		return err
	}
	kind, err := domain.ParseDeviceKind(strings.ToLower(args[0]))
	if err != nil {
		return err
	}
	var pos domain.Position
	if len(args) >= 3 {
		if pos, err = parsePosition(args[1], args[2]); err != nil {
			return err
		}
	}
	d, err := r.sim.CreateDevice(kind, pos)
	if err != nil {
		return err
	}
	fmt.Fprintf(r.out, "Created %s (id %d)\n", d.Name, d.ID)
	return nil
}

func (r *REPL) rm(_ context.Context, args []string) error {
	if err := usage("rm", args, 1); err != nil {
		return err
	}
	d, err := r.lookup(args[0])
	if err != nil {
		return err
	}
	if err := r.sim.DeleteDevice(d.ID); err != nil {
		return err
	}
	if r.attached == d.ID {
		r.attached = -1
	}
	fmt.Fprintf(r.out, "Deleted %s\n", d.Name)
	return nil
}

func (r *REPL) mv(_ context.Context, args []string) error {
	if err := usage("mv", args, 3); err != nil {
		return err
	}
	d, err := r.lookup(args[0])
	if err != nil {
		return err
	}
	pos, err := parsePosition(args[1], args[2])
	if err != nil {
		return err
	}
	return r.sim.MoveDevice(d.ID, pos)
}

func (r *REPL) rename(_ context.Context, args []string) error {
	if err := usage("rename", args, 2); err != nil {
		return err
	}
	d, err := r.lookup(args[0])
	if err != nil {
		return err
	}
	return r.sim.Rename(d.ID, args[1])
}

func (r *REPL) link(_ context.Context, args []string) error {
	if err := usage("link", args, 2); err != nil {
		return err
	}
	from, err := r.lookup(args[0])
	if err != nil {
		return err
	}
	to, err := r.lookup(args[1])
	if err != nil {
		return err
	}
	kind := domain.CableAuto
	if len(args) >= 3 {
		if kind, err = domain.ParseCableKind(strings.ToLower(args[2])); err != nil {
			return err
		}
	}

	c, err := r.sim.Connect(from.ID, to.ID, kind)
	if err != nil {
		return err
	}
	fmt.Fprintf(r.out, "Connected %s %s <-> %s %s (%s)\n",
		from.Name, from.Interfaces[c.FromPort].Name, to.Name, to.Interfaces[c.ToPort].Name, c.Kind)
	return nil
}

func (r *REPL) unlink(_ context.Context, args []string) error {
	if err := usage("unlink", args, 1); err != nil {
		return err
	}
	index, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid cable index %q", args[0])
	}
	_, err = r.sim.Disconnect(index)
	return err
}

func (r *REPL) devices(context.Context, []string) error {
	devices := r.sim.Devices()
	if len(devices) == 0 {
		fmt.Fprintln(r.out, "No devices")
		return nil
	}

	table := uitable.New()
	table.MaxColWidth = 40
	table.AddRow("ID", "NAME", "KIND", "PORTS", "ADDRESSES")
	for _, d := range devices {
		connected := 0
		var addrs []string
		for _, i := range d.Interfaces {
			if i.Connected {
				connected++
			}
			if i.IP != "" {
				addrs = append(addrs, i.IP)
			}
		}
		table.AddRow(d.ID, d.Name, d.Kind, fmt.Sprintf("%d/%d", connected, len(d.Interfaces)), strings.Join(addrs, ","))
	}
	fmt.Fprintln(r.out, table)
	return nil
}

func (r *REPL) cables(_ context.Context, args []string) error {
	snap := r.sim.Snapshot()
	names := make(map[int]*domain.Device, len(snap.Devices))
	for i := range snap.Devices {
		names[snap.Devices[i].ID] = &snap.Devices[i]
	}
	end := func(id, port int) string {
		d, ok := names[id]
		if !ok || port < 0 || port >= len(d.Interfaces) {
			return fmt.Sprintf("%d:%d", id, port)
		}
		return d.Name + " " + d.Interfaces[port].Name
	}

	indices := make([]int, len(snap.Cables))
	for i := range snap.Cables {
		indices[i] = i
	}
	cables := snap.Cables
	var neighbors []int
	if len(args) > 0 {
		d, err := r.lookup(args[0])
		if err != nil {
			return err
		}
		links, err := r.sim.Links(d.ID)
		if err != nil {
			return err
		}
		indices, cables, neighbors = links.Indices, links.Cables, links.Neighbors
	}

	if len(cables) == 0 {
		fmt.Fprintln(r.out, "No cables")
		return nil
	}

	table := uitable.New()
	table.AddRow("INDEX", "FROM", "TO", "KIND")
	for i, c := range cables {
		table.AddRow(indices[i], end(c.From, c.FromPort), end(c.To, c.ToPort), c.Kind)
	}
	fmt.Fprintln(r.out, table)

	if len(args) > 0 {
		peers := make([]string, 0, len(neighbors))
		for _, id := range neighbors {
			if d, ok := names[id]; ok {
				peers = append(peers, d.Name)
			}
		}
		if len(peers) == 0 {
			fmt.Fprintln(r.out, "Neighbors: none")
		} else {
			fmt.Fprintf(r.out, "Neighbors: %s\n", strings.Join(peers, ", "))
		}
	}
	return nil
}

func (r *REPL) attach(_ context.Context, args []string) error {
	if err := usage("attach", args, 1); err != nil {
		return err
	}
	d, err := r.lookup(args[0])
	if err != nil {
		return err
	}
	r.attached = d.ID
	fmt.Fprintf(r.out, "Attached to %s, type exit at the top level to leave\n", d.Name)
	return nil
}

func (r *REPL) detach(context.Context, []string) error {
	r.attached = -1
	return nil
}

func (r *REPL) ping(_ context.Context, args []string) error {
	if err := usage("ping", args, 2); err != nil {
		return err
	}
	d, err := r.lookup(args[0])
	if err != nil {
		return err
	}
	res, err := r.sim.Submit(d.ID, "ping "+args[1])
	if err != nil {
		return err
	}
	fmt.Fprintln(r.out, res.Output)
	return nil
}

func (r *REPL) undo(context.Context, []string) error {
	return r.sim.Undo()
}

func (r *REPL) redo(context.Context, []string) error {
	return r.sim.Redo()
}

func (r *REPL) save(ctx context.Context, args []string) error {
	if err := usage("save", args, 1); err != nil {
		return err
	}
	description := strings.Join(args[1:], " ")
	if err := r.sim.Save(ctx, args[0], description); err != nil {
		return err
	}
	fmt.Fprintf(r.out, "Saved %s\n", args[0])
	return nil
}

func (r *REPL) open(ctx context.Context, args []string) error {
	if err := usage("open", args, 1); err != nil {
		return err
	}
	r.attached = -1
	return r.sim.Open(ctx, args[0])
}

func (r *REPL) saved(ctx context.Context, _ []string) error {
	list, err := r.sim.ListSaved(ctx)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(r.out, "No saved topologies")
		return nil
	}

	table := uitable.New()
	table.MaxColWidth = 50
	table.Wrap = true
	table.AddRow("NAME", "DEVICES", "CABLES", "UPDATED", "DESCRIPTION")
	for _, s := range list {
		table.AddRow(s.Name, s.DeviceCount, s.CableCount, s.UpdatedAt.Local().Format("2006-01-02 15:04"), s.Description)
	}
	fmt.Fprintln(r.out, table)
	return nil
}

func (r *REPL) deleteSaved(ctx context.Context, args []string) error {
	if err := usage("delete", args, 1); err != nil {
		return err
	}
	return r.sim.DeleteSaved(ctx, args[0])
}

func (r *REPL) export(_ context.Context, args []string) error {
	if err := usage("export", args, 1); err != nil {
		return err
	}
	if len(args) < 2 {
		return r.sim.Export(args[0], r.out)
	}

	f, err := os.Create(args[1])
	if err != nil {
		return err
	}
	if err := r.sim.Export(args[0], f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(r.out, "Exported to %s\n", args[1])
	return nil
}

func (r *REPL) importFile(_ context.Context, args []string) error {
	if err := usage("import", args, 2); err != nil {
		return err
	}
	f, err := os.Open(args[1])
	if err != nil {
		return err
	}
	defer f.Close()
	r.attached = -1
	return r.sim.Import(args[0], f)
}

func (r *REPL) lab(_ context.Context, args []string) error {
	if err := usage("lab", args, 1); err != nil {
		return err
	}
	r.attached = -1
	return r.sim.LoadLab(args[0])
}

func (r *REPL) subnet(_ context.Context, args []string) error {
	if err := usage("subnet", args, 2); err != nil {
		return err
	}
	prefix, err := strconv.Atoi(strings.TrimPrefix(args[1], "/"))
	if err != nil {
		return fmt.Errorf("invalid prefix %q", args[1])
	}
	s, err := r.sim.Subnet(args[0], prefix)
	if err != nil {
		return err
	}

	table := uitable.New()
	table.AddRow("Network:", fmt.Sprintf("%s/%d", s.Network, s.Prefix))
	table.AddRow("Mask:", s.Mask)
	table.AddRow("Hosts:", fmt.Sprintf("%s - %s (%d)", s.FirstHost, s.LastHost, s.Hosts))
	table.AddRow("Broadcast:", s.Broadcast)
	if next, err := r.sim.NextSubnet(s); err == nil {
		table.AddRow("Next:", fmt.Sprintf("%s/%d", next.Network, next.Prefix))
	}
	fmt.Fprintln(r.out, table)
	return nil
}

func (r *REPL) clear(context.Context, []string) error {
	r.attached = -1
	r.sim.Clear()
	return nil
}

func (r *REPL) help(context.Context, []string) error {
	table := uitable.New()
	for _, name := range sortedCommands() {
		cmd := metaCommands[name]
		table.AddRow(strings.TrimSpace(":"+name+" "+cmd.usage), cmd.help)
	}
	fmt.Fprintln(r.out, table)
	fmt.Fprintln(r.out, "Other lines are sent to the attached device.")
	return nil
}

func (r *REPL) quit(context.Context, []string) error {
	return ErrQuit
}

func parsePosition(xs, ys string) (domain.Position, error) {
	x, err := strconv.ParseFloat(xs, 64)
	if err != nil {
		return domain.Position{}, fmt.Errorf("invalid x %q", xs)
	}
	y, err := strconv.ParseFloat(ys, 64)
	if err != nil {
		return domain.Position{}, fmt.Errorf("invalid y %q", ys)
	}
	return domain.NewPosition(x, y), nil
}

func sortedCommands() []string {
	names := make([]string, 0, len(metaCommands))
	for name := range metaCommands {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
