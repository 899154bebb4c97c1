package tmux

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/alchemmist/lazy-layout/internal/content"
	"github.com/alchemmist/lazy-layout/internal/host"
	"github.com/alchemmist/lazy-layout/internal/snapshot"
)

var _ content.Host = (*Client)(nil)

var (
	editors = map[string]struct{}{
		"vi": {}, "vim": {}, "nvim": {}, "nano": {}, "emacs": {}, "hx": {}, "helix": {}, "micro": {}, "kak": {},
	}
	pagers = map[string]struct{}{
		"less": {}, "more": {}, "most": {},
	}
	manuals = map[string]struct{}{
		"man": {}, "info": {},
	}
	fileManagers = map[string]struct{}{
		"ranger": {}, "lf": {}, "nnn": {}, "yazi": {}, "vifm": {}, "mc": {},
	}
)

// launch is what respawn-pane needs to bring a unit back.
type launch struct {
	dir  string
	argv []string
}

// paneInfo is the per-pane state content classification works from.
type paneInfo struct {
	id      host.PaneID
	dead    bool
	command string
	start   string
	path    string
	height  int
}

const paneFormat = "#{pane_id}" + fieldSep + "#{pane_dead}" + fieldSep + "#{pane_current_command}" +
	fieldSep + "#{pane_start_command}" + fieldSep + "#{pane_current_path}" + fieldSep + "#{pane_height}"

func parsePaneInfo(line string) (paneInfo, bool) {
	f := strings.Split(line, fieldSep)
	if len(f) != 6 {
		return paneInfo{}, false
	}
	h, _ := strconv.Atoi(f[5])
	return paneInfo{
		id:      host.PaneID(f[0]),
		dead:    f[1] == "1",
		command: f[2],
		start:   unquoteStart(f[3]),
		path:    f[4],
		height:  h,
	}, true
}

// unquoteStart strips the quotes tmux puts around a pane's start command.
func unquoteStart(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	return s
}

func (c *Client) paneInfo(p host.PaneID) (paneInfo, error) {
	f, err := c.display(string(p), paneFormat)
	if err != nil {
		return paneInfo{}, err
	}
	info, ok := parsePaneInfo(strings.Join(f, fieldSep))
	if !ok {
		return paneInfo{}, fmt.Errorf("%w: unexpected pane format for %s", host.ErrOperationFailed, p)
	}
	return info, nil
}

// classify maps what runs in a pane to a content unit. The unit ID is
// the pane ID. Dead panes and panes without a command stay unclassified.
func classify(info paneInfo) content.Unit {
	u := content.Unit{ID: string(info.id)}
	if info.dead {
		return u
	}
	cmd := filepath.Base(strings.TrimPrefix(strings.TrimSpace(info.command), "-"))
	argv := strings.Fields(info.start)
	args := argv
	if len(args) > 0 && filepath.Base(args[0]) == cmd {
		args = args[1:]
	} else {
		args = nil
	}

	switch {
	case cmd == "":
		return u
	case isShellCommand(cmd), has(fileManagers, cmd):
		u.Kind, u.Path = snapshot.KindDirectoryListing, info.path
	case has(editors, cmd):
		u.Kind, u.Path = snapshot.KindFile, resolve(info.path, lastOperand(args))
		if u.Path == "" {
			u.Path = info.path
		}
	case has(pagers, cmd):
		u.Kind, u.Path, u.Page = snapshot.KindPaginatedDocument, resolve(info.path, lastOperand(args)), 1
	case has(manuals, cmd):
		u.Kind = snapshot.KindIndexedDocument
		ops := operands(args)
		if len(ops) > 1 {
			if n, err := strconv.Atoi(ops[0]); err == nil {
				u.Section, ops = n, ops[1:]
			}
		}
		u.Path = strings.Join(ops, " ")
	default:
		u.Kind, u.Name, u.NamedKind = snapshot.KindNamedSurface, strings.Join(append([]string{cmd}, args...), " "), cmd
	}
	return u
}

func has(set map[string]struct{}, k string) bool {
	_, ok := set[k]
	return ok
}

func operands(args []string) []string {
	var out []string
	for _, a := range args {
		if strings.HasPrefix(a, "-") || strings.HasPrefix(a, "+") {
			continue
		}
		out = append(out, a)
	}
	return out
}

func lastOperand(args []string) string {
	ops := operands(args)
	if len(ops) == 0 {
		return ""
	}
	return ops[len(ops)-1]
}

func resolve(dir, p string) string {
	if p == "" {
		return ""
	}
	if filepath.IsAbs(p) || dir == "" {
		return filepath.Clean(p)
	}
	return filepath.Join(dir, p)
}

func (c *Client) Inspect(p host.PaneID) (content.Unit, error) {
	info, err := c.paneInfo(p)
	if err != nil {
		return content.Unit{}, err
	}
	return classify(info), nil
}

func (c *Client) Open(d snapshot.Descriptor) (content.Unit, error) {
	u := content.Unit{Kind: d.Kind, Path: d.Path}
	switch d.Kind {
	case snapshot.KindFile:
		fi, err := c.stat(d.Path)
		if err != nil {
			return content.Unit{}, err
		}
		dir := filepath.Dir(d.Path)
		if fi.IsDir() {
			dir = d.Path
		}
		u.Handle = launch{dir: dir, argv: append(strings.Fields(c.editor), d.Path)}
	case snapshot.KindPaginatedDocument:
		if _, err := c.stat(d.Path); err != nil {
			return content.Unit{}, err
		}
		u.Page = 1
		u.Handle = launch{dir: filepath.Dir(d.Path), argv: append(strings.Fields(c.pager), d.Path)}
	case snapshot.KindIndexedDocument:
		if _, err := c.lookPath("man"); err != nil {
			return content.Unit{}, fmt.Errorf("%w: man: %w", content.ErrUnavailable, err)
		}
		argv := []string{"man"}
		if d.Section > 0 {
			argv = append(argv, strconv.Itoa(d.Section))
		}
		u.Section = d.Section
		u.Handle = launch{argv: append(argv, strings.Fields(d.Path)...)}
	case snapshot.KindDirectoryListing:
		fi, err := c.stat(d.Path)
		if err != nil {
			return content.Unit{}, err
		}
		if !fi.IsDir() {
			return content.Unit{}, fmt.Errorf("%w: %s is not a directory", content.ErrUnavailable, d.Path)
		}
		u.Handle = launch{dir: d.Path}
	default:
		return content.Unit{}, fmt.Errorf("open %s: unsupported kind", d.Kind)
	}
	return u, nil
}

func (c *Client) stat(path string) (fs.FileInfo, error) {
	fi, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", content.ErrUnavailable, path)
	}
	if err != nil {
		return nil, err
	}
	return fi, nil
}

// Locate treats name as a command line and succeeds when its program is
// on PATH.
func (c *Client) Locate(name string) (content.Unit, error) {
	argv := strings.Fields(name)
	if len(argv) == 0 {
		return content.Unit{}, fmt.Errorf("%w: empty name", content.ErrUnavailable)
	}
	if _, err := c.lookPath(argv[0]); err != nil {
		return content.Unit{}, fmt.Errorf("%w: %s: %w", content.ErrUnavailable, argv[0], err)
	}
	return content.Unit{
		Kind:      snapshot.KindNamedSurface,
		Name:      name,
		NamedKind: filepath.Base(argv[0]),
		Handle:    launch{argv: argv},
	}, nil
}

// CommandProducer regenerates named units of one kind by running
// command, with {name} replaced by the unit's name.
func CommandProducer(kind, command string) content.Producer {
	return func(name string) (content.Unit, error) {
		argv := strings.Fields(strings.ReplaceAll(command, "{name}", name))
		if len(argv) == 0 {
			return content.Unit{}, fmt.Errorf("%w: empty producer for %s", content.ErrUnavailable, kind)
		}
		return content.Unit{
			Kind:      snapshot.KindNamedSurface,
			Name:      name,
			NamedKind: kind,
			Handle:    launch{argv: argv},
		}, nil
	}
}

// Attach respawns p running the unit's program.
func (c *Client) Attach(p host.PaneID, u content.Unit) error {
	l, ok := u.Handle.(launch)
	if !ok {
		return fmt.Errorf("%w: unit %q has no launch command", host.ErrOperationFailed, u.ID)
	}
	args := []string{"respawn-pane", "-k", "-t", string(p)}
	if l.dir != "" {
		args = append(args, "-c", l.dir)
	}
	argv := l.argv
	if len(argv) == 0 {
		argv = []string{c.defaultShell()}
	}
	_, err := c.do(append(args, argv...)...)
	return err
}

// defaultShell is the shell tmux starts new panes with. respawn-pane
// without a command reruns the pane's previous one, so callers pass it
// explicitly.
func (c *Client) defaultShell() string {
	if out, err := c.Output("show-options", "-gv", "default-shell"); err == nil {
		if sh := strings.TrimSpace(out); sh != "" {
			return sh
		}
	}
	if sh := strings.TrimSpace(os.Getenv("SHELL")); sh != "" {
		return sh
	}
	return "/bin/sh"
}

// Units lists the classified panes of the session, leaving out the pane
// this process runs in.
func (c *Client) Units() ([]content.Unit, error) {
	target, err := c.sessionTarget()
	if err != nil {
		return nil, err
	}
	out, err := c.do("list-panes", "-s", "-t", target, "-F", paneFormat)
	if err != nil {
		return nil, err
	}
	self := host.PaneID(os.Getenv("TMUX_PANE"))
	var units []content.Unit
	for _, line := range strings.Split(out, "\n") {
		info, ok := parsePaneInfo(strings.TrimRight(line, "\r"))
		if !ok || (self != "" && info.id == self) {
			continue
		}
		if u := classify(info); u.Kind != "" {
			units = append(units, u)
		}
	}
	return units, nil
}

// Discard restarts the unit's pane with a plain shell.
func (c *Client) Discard(u content.Unit) error {
	if u.ID == "" {
		return nil
	}
	_, err := c.do("respawn-pane", "-k", "-t", u.ID, c.defaultShell())
	return err
}

// ContentLength is the line count of the pane's file, the entry count of
// its directory, or the pane's history for anything else.
func (c *Client) ContentLength(p host.PaneID) (int, error) {
	info, err := c.paneInfo(p)
	if err != nil {
		return 0, err
	}
	u := classify(info)
	switch u.Kind {
	case snapshot.KindFile, snapshot.KindPaginatedDocument:
		if b, err := os.ReadFile(u.Path); err == nil {
			return bytes.Count(b, []byte{'\n'}), nil
		}
	case snapshot.KindDirectoryListing:
		if entries, err := os.ReadDir(u.Path); err == nil {
			return len(entries), nil
		}
	}
	f, err := c.display(string(p), "#{history_size}")
	if err != nil {
		return 0, err
	}
	n, _ := strconv.Atoi(f[0])
	return n + info.height, nil
}

// SetCursor moves an editor or pager in p to line offset. Other programs
// are left alone.
func (c *Client) SetCursor(p host.PaneID, offset int) error {
	info, err := c.paneInfo(p)
	if err != nil {
		return err
	}
	line := strconv.Itoa(max(offset, 1))
	switch u := classify(info); u.Kind {
	case snapshot.KindFile:
		_, err = c.do("send-keys", "-t", string(p), "Escape", ":"+line, "Enter")
	case snapshot.KindPaginatedDocument, snapshot.KindIndexedDocument:
		_, err = c.do("send-keys", "-t", string(p), line+"g")
	default:
		c.log.Debug("no cursor motion for pane", zap.String("pane", string(p)), zap.String("kind", string(u.Kind)))
	}
	return err
}

// GotoPage scrolls the pager in p to page, where a page is one pane
// height of lines. slice and scale have no meaning in a terminal.
func (c *Client) GotoPage(p host.PaneID, page int, _ []float64, _ *float64) error {
	info, err := c.paneInfo(p)
	if err != nil {
		return err
	}
	line := (max(page, 1)-1)*max(info.height, 1) + 1
	_, err = c.do("send-keys", "-t", string(p), strconv.Itoa(line)+"g")
	return err
}

// GotoSection is a no-op: the section is part of the man command line.
func (c *Client) GotoSection(host.PaneID, int) error { return nil }

func (c *Client) Redraw(p host.PaneID) error {
	_, err := c.do("send-keys", "-t", string(p), "C-l")
	return err
}
