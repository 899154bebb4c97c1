// Package tmux drives a tmux server as a layout host. Windows of one
// session are surfaces, tmux panes are panes, and the program running in
// a pane is its content unit.
package tmux

import (
	"bufio"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/alchemmist/lazy-layout/internal/host"
)

const fieldSep = "\x1f"

type Client struct {
	bin      string
	session  string
	editor   string
	pager    string
	log      *zap.Logger
	lookPath func(string) (string, error)
	stdin    func() (os.FileInfo, error)
}

type Option func(*Client)

// WithSession pins the client to one tmux session. Without it commands
// target the session of the attached client.
func WithSession(name string) Option {
	return func(c *Client) { c.session = strings.TrimSpace(name) }
}

func WithEditor(cmd string) Option {
	return func(c *Client) {
		if strings.TrimSpace(cmd) != "" {
			c.editor = cmd
		}
	}
}

func WithPager(cmd string) Option {
	return func(c *Client) {
		if strings.TrimSpace(cmd) != "" {
			c.pager = cmd
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

func NewClient(bin string, opts ...Option) *Client {
	if strings.TrimSpace(bin) == "" {
		bin = "tmux"
	}
	c := &Client{
		bin:      bin,
		editor:   "vi",
		pager:    "less",
		log:      zap.NewNop(),
		lookPath: exec.LookPath,
		stdin:    os.Stdin.Stat,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Output(args ...string) (string, error) {
	cmd := exec.Command(c.bin, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("tmux %s: %w (%s)", strings.Join(args, " "), err, strings.TrimSpace(string(out)))
	}
	return string(out), nil
}

// do runs a command whose failure is a host operation failure.
func (c *Client) do(args ...string) (string, error) {
	out, err := c.Output(args...)
	if err != nil {
		return "", fmt.Errorf("%w: %w", host.ErrOperationFailed, err)
	}
	return out, nil
}

// display formats a single line about target.
func (c *Client) display(target, format string) ([]string, error) {
	out, err := c.do("display-message", "-p", "-t", target, format)
	if err != nil {
		return nil, err
	}
	return strings.Split(strings.TrimRight(out, "\r\n"), fieldSep), nil
}

func (c *Client) CurrentSession() (string, error) {
	if c.session != "" {
		return c.session, nil
	}
	out, err := c.Output("display-message", "-p", "#S")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// CurrentWindow returns the active window of the session and its name.
func (c *Client) CurrentWindow() (host.SurfaceID, string, error) {
	args := []string{"display-message", "-p"}
	if c.session != "" {
		args = append(args, "-t", c.session)
	}
	out, err := c.Output(append(args, "#{window_id}"+fieldSep+"#{window_name}")...)
	if err != nil {
		return "", "", err
	}
	parts := strings.Split(strings.TrimSpace(out), fieldSep)
	if len(parts) != 2 || parts[0] == "" {
		return "", "", fmt.Errorf("unexpected window format: %q", strings.TrimSpace(out))
	}
	return host.SurfaceID(parts[0]), parts[1], nil
}

func (c *Client) SocketPath() string {
	out, err := c.Output("display-message", "-p", "#{socket_path}")
	if err != nil {
		return "default"
	}
	v := strings.TrimSpace(out)
	if v == "" {
		return "default"
	}
	return v
}

// CallerPane reports the session and window of the tmux pane this process
// runs in. Both are empty when the process is not attached to a pane's
// terminal, as under run-shell or display-popup.
func (c *Client) CallerPane() (string, host.SurfaceID, error) {
	pane := strings.TrimSpace(os.Getenv("TMUX_PANE"))
	if pane == "" {
		return "", "", nil
	}
	f, err := c.display(pane, "#{session_name}"+fieldSep+"#{window_id}"+fieldSep+"#{pane_tty}")
	if err != nil {
		return "", "", err
	}
	if len(f) != 3 {
		return "", "", fmt.Errorf("%w: unexpected pane format %q", host.ErrOperationFailed, strings.Join(f, fieldSep))
	}
	in, err := c.stdin()
	if err != nil {
		return "", "", nil
	}
	tty, err := os.Stat(f[2])
	if err != nil || !os.SameFile(in, tty) {
		return "", "", nil
	}
	return f[0], host.SurfaceID(f[1]), nil
}

// SwitchClient moves the attached client to target. It does nothing when
// not running inside tmux.
func (c *Client) SwitchClient(target string) error {
	if os.Getenv("TMUX") == "" {
		return nil
	}
	_, err := c.Output("switch-client", "-t", target)
	return err
}

// sessionTarget is the -t argument addressing the whole session.
func (c *Client) sessionTarget() (string, error) {
	name, err := c.CurrentSession()
	if err != nil {
		return "", fmt.Errorf("%w: %w", host.ErrOperationFailed, err)
	}
	if name == "" {
		return "", fmt.Errorf("%w: no tmux session", host.ErrOperationFailed)
	}
	return name, nil
}

func isShellCommand(cmd string) bool {
	cmd = strings.TrimSpace(cmd)
	cmd = strings.TrimPrefix(cmd, "-")
	base := filepath.Base(cmd)
	shells := map[string]struct{}{
		"bash": {},
		"zsh":  {},
		"fish": {},
		"sh":   {},
		"ksh":  {},
		"dash": {},
		"nu":   {},
	}
	_, ok := shells[base]
	return ok
}

func splitLines(in string) []string {
	s := bufio.NewScanner(strings.NewReader(in))
	out := make([]string, 0)
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	return out
}
