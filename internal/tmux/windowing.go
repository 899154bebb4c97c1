package tmux

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/alchemmist/lazy-layout/internal/host"
	"github.com/alchemmist/lazy-layout/internal/snapshot"
)

var _ host.Windowing = (*Client)(nil)

func (c *Client) Root(s host.SurfaceID) (host.Node, error) {
	f, err := c.display(string(s), "#{window_layout}")
	if err != nil {
		return host.Node{}, err
	}
	return parseLayout(f[0])
}

// Split runs split-window on p. tmux sizes the new pane, so p is resized
// afterwards; its extent includes the border cell, hence size-1. When the
// resize fails the new pane is killed again.
func (c *Client) Split(p host.PaneID, o snapshot.Orientation, size *int) (host.PaneID, error) {
	dir, axis := "-v", "-y"
	if o == snapshot.SideBySide {
		dir, axis = "-h", "-x"
	}
	out, err := c.do("split-window", "-d", "-P", "-F", "#{pane_id}", "-t", string(p), dir)
	if err != nil {
		return "", err
	}
	created := host.PaneID(strings.TrimSpace(out))
	if created == "" {
		return "", fmt.Errorf("%w: split-window printed no pane id", host.ErrOperationFailed)
	}
	if size != nil {
		if _, err := c.do("resize-pane", "-t", string(p), axis, strconv.Itoa(max(*size-1, 1))); err != nil {
			if _, kerr := c.do("kill-pane", "-t", string(created)); kerr != nil {
				c.log.Warn("remove pane after failed resize", zap.String("pane", string(created)), zap.Error(kerr))
			}
			return "", err
		}
	}
	return created, nil
}

// PaneState reports the copy-mode scroll position as the view start. tmux
// has no horizontal scrolling and no notion of a content cursor.
func (c *Client) PaneState(p host.PaneID) (host.PaneState, error) {
	f, err := c.display(string(p), "#{pane_in_mode}"+fieldSep+"#{scroll_position}")
	if err != nil {
		return host.PaneState{}, err
	}
	if len(f) != 2 || f[0] != "1" {
		return host.PaneState{}, nil
	}
	pos, _ := strconv.Atoi(f[1])
	return host.PaneState{VScroll: pos, ViewStart: pos}, nil
}

func (c *Client) SetViewStart(p host.PaneID, offset int) error {
	if offset <= 0 {
		return nil
	}
	if _, err := c.do("copy-mode", "-t", string(p)); err != nil {
		return err
	}
	_, err := c.do("send-keys", "-X", "-t", string(p), "goto-line", strconv.Itoa(offset))
	return err
}

func (c *Client) SetHScroll(host.PaneID, int) error { return nil }

func (c *Client) Surfaces() ([]host.Surface, error) {
	target, err := c.sessionTarget()
	if err != nil {
		return nil, err
	}
	out, err := c.do("list-windows", "-t", target, "-F", "#{window_id}"+fieldSep+"#{window_active}")
	if err != nil {
		return nil, err
	}
	var surfaces []host.Surface
	for _, line := range splitLines(out) {
		parts := strings.Split(line, fieldSep)
		if len(parts) != 2 {
			continue
		}
		surfaces = append(surfaces, host.Surface{ID: host.SurfaceID(parts[0]), Focused: parts[1] == "1"})
	}
	return surfaces, nil
}

// Primary is the session's active window.
func (c *Client) Primary() (host.SurfaceID, error) {
	surfaces, err := c.Surfaces()
	if err != nil {
		return "", err
	}
	for _, s := range surfaces {
		if s.Focused {
			return s.ID, nil
		}
	}
	if len(surfaces) > 0 {
		return surfaces[0].ID, nil
	}
	return "", fmt.Errorf("%w: session has no windows", host.ErrOperationFailed)
}

// SurfaceGeometry reports window size in cells. Windows have no position.
func (c *Client) SurfaceGeometry(s host.SurfaceID) (snapshot.Size, snapshot.Position, error) {
	f, err := c.display(string(s), "#{window_width}"+fieldSep+"#{window_height}")
	if err != nil {
		return snapshot.Size{}, snapshot.Position{}, err
	}
	if len(f) != 2 {
		return snapshot.Size{}, snapshot.Position{}, fmt.Errorf("%w: unexpected window size %q", host.ErrOperationFailed, strings.Join(f, fieldSep))
	}
	w, errW := strconv.Atoi(f[0])
	h, errH := strconv.Atoi(f[1])
	if errW != nil || errH != nil {
		return snapshot.Size{}, snapshot.Position{}, fmt.Errorf("%w: unexpected window size %q", host.ErrOperationFailed, strings.Join(f, fieldSep))
	}
	return snapshot.Size{Width: w, Height: h}, snapshot.Position{}, nil
}

func (c *Client) CreateSurface(size snapshot.Size, _ snapshot.Position) (host.SurfaceID, error) {
	target, err := c.sessionTarget()
	if err != nil {
		return "", err
	}
	out, err := c.do("new-window", "-d", "-P", "-F", "#{window_id}", "-t", target+":")
	if err != nil {
		return "", err
	}
	id := host.SurfaceID(strings.TrimSpace(out))
	if err := c.ResizeSurface(id, size); err != nil {
		return id, err
	}
	return id, nil
}

func (c *Client) DestroySurface(s host.SurfaceID) error {
	_, err := c.do("kill-window", "-t", string(s))
	return err
}

func (c *Client) ResizeSurface(s host.SurfaceID, size snapshot.Size) error {
	if size.Width <= 0 || size.Height <= 0 {
		return nil
	}
	_, err := c.do("resize-window", "-t", string(s), "-x", strconv.Itoa(size.Width), "-y", strconv.Itoa(size.Height))
	return err
}

func (c *Client) MoveSurface(host.SurfaceID, snapshot.Position) error { return nil }

// Collapse keeps the window's first pane and kills the rest.
func (c *Client) Collapse(s host.SurfaceID) (host.PaneID, error) {
	out, err := c.do("list-panes", "-t", string(s), "-F", "#{pane_id}")
	if err != nil {
		return "", err
	}
	panes := splitLines(out)
	if len(panes) == 0 {
		return "", fmt.Errorf("%w: window %s has no panes", host.ErrOperationFailed, s)
	}
	keep := panes[0]
	if len(panes) > 1 {
		if _, err := c.do("kill-pane", "-a", "-t", keep); err != nil {
			return "", err
		}
	}
	return host.PaneID(keep), nil
}

func (c *Client) ShowSurface(host.SurfaceID) error { return nil }

func (c *Client) RaiseSurface(s host.SurfaceID) error {
	_, err := c.do("select-window", "-t", string(s))
	return err
}

func (c *Client) FocusSurface(s host.SurfaceID) error {
	if err := c.SwitchClient(string(s)); err != nil {
		return fmt.Errorf("%w: %w", host.ErrOperationFailed, err)
	}
	return nil
}

func (c *Client) SetAlwaysOnTop(host.SurfaceID, bool) error { return nil }

func (c *Client) RedrawSurface(s host.SurfaceID) error {
	if os.Getenv("TMUX") == "" {
		c.log.Debug("no attached client to refresh", zap.String("surface", string(s)))
		return nil
	}
	_, err := c.do("refresh-client")
	return err
}
