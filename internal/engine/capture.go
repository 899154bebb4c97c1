package engine

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/alchemmist/lazy-layout/internal/host"
	"github.com/alchemmist/lazy-layout/internal/snapshot"
)

// ErrNothingCaptured means no pane on the surface showed content of a
// recognized kind.
var ErrNothingCaptured = errors.New("nothing to capture")

// CaptureTree mirrors the live hierarchy of surface s. Panes whose content
// cannot be described are pruned and their space given to a neighbour, so
// the result always satisfies snapshot.Validate.
func (e *Engine) CaptureTree(s host.SurfaceID) (snapshot.Node, error) {
	root, err := e.win.Root(s)
	if err != nil {
		return snapshot.Node{}, fmt.Errorf("read surface %s: %w", s, err)
	}
	n, ok, err := e.captureNode(root)
	if err != nil {
		return snapshot.Node{}, err
	}
	if !ok {
		return snapshot.Node{}, fmt.Errorf("surface %s: %w", s, ErrNothingCaptured)
	}
	if err := snapshot.Validate(n); err != nil {
		return snapshot.Node{}, fmt.Errorf("surface %s: %w", s, err)
	}
	return n, nil
}

func (e *Engine) captureNode(n host.Node) (snapshot.Node, bool, error) {
	if n.IsLeaf() {
		return e.captureLeaf(n)
	}

	kept := make([]snapshot.Node, 0, len(n.Children))
	for _, c := range n.Children {
		child, ok, err := e.captureNode(c)
		if err != nil {
			return snapshot.Node{}, false, err
		}
		if ok {
			kept = append(kept, child)
		}
	}

	switch len(kept) {
	case 0:
		return snapshot.Node{}, false, nil
	case 1:
		only := kept[0]
		for _, o := range []snapshot.Orientation{snapshot.Stacked, snapshot.SideBySide} {
			start, end := n.Bounds.Span(o)
			snapshot.Stretch(only, o, start, end)
		}
		return only, true, nil
	}

	// Each survivor runs up to the next survivor's start, so a pruned
	// pane's space goes to the sibling before it (or after, when it was
	// first).
	start, end := n.Bounds.Span(n.Orientation)
	for i, c := range kept {
		from, _ := c.Bounds().Span(n.Orientation)
		if i == 0 {
			from = start
		}
		to := end
		if i+1 < len(kept) {
			to, _ = kept[i+1].Bounds().Span(n.Orientation)
		}
		snapshot.Stretch(c, n.Orientation, from, to)
	}
	return snapshot.SplitNode(n.Orientation, n.Bounds, kept...), true, nil
}

func (e *Engine) captureLeaf(n host.Node) (snapshot.Node, bool, error) {
	u, err := e.content.Inspect(n.Pane)
	if err != nil {
		return snapshot.Node{}, false, fmt.Errorf("inspect pane %s: %w", n.Pane, err)
	}
	d, ok := e.reg.Capture(u)
	if !ok {
		e.log.Debug("pruning pane with unrecognized content",
			zap.String("pane", string(n.Pane)),
			zap.String("kind", string(u.Kind)))
		return snapshot.Node{}, false, nil
	}
	st, err := e.win.PaneState(n.Pane)
	if err != nil {
		return snapshot.Node{}, false, fmt.Errorf("pane %s state: %w", n.Pane, err)
	}
	return snapshot.LeafNode(snapshot.Leaf{
		Content:   d,
		Bounds:    n.Bounds,
		HScroll:   st.HScroll,
		VScroll:   st.VScroll,
		ViewStart: st.ViewStart,
		Cursor:    st.Cursor,
	}), true, nil
}

// CaptureSession snapshots surface s under name.
func (e *Engine) CaptureSession(name string, s host.SurfaceID) (snapshot.SessionRecord, error) {
	tree, err := e.CaptureTree(s)
	if err != nil {
		return snapshot.SessionRecord{}, err
	}
	size, _, err := e.win.SurfaceGeometry(s)
	if err != nil {
		return snapshot.SessionRecord{}, fmt.Errorf("surface %s geometry: %w", s, err)
	}
	return snapshot.SessionRecord{
		Version:    snapshot.FormatVersion,
		Name:       name,
		CapturedAt: e.now(),
		Size:       size,
		Layout:     tree,
	}, nil
}

// CaptureWorkspace snapshots every live surface, marking the focused one
// dominant. Surfaces with nothing capturable are left out.
func (e *Engine) CaptureWorkspace(name string) (snapshot.WorkspaceRecord, error) {
	surfaces, err := e.win.Surfaces()
	if err != nil {
		return snapshot.WorkspaceRecord{}, fmt.Errorf("list surfaces: %w", err)
	}
	rec := snapshot.WorkspaceRecord{
		Version:    snapshot.FormatVersion,
		Name:       name,
		CapturedAt: e.now(),
	}
	for _, s := range surfaces {
		tree, err := e.CaptureTree(s.ID)
		if errors.Is(err, ErrNothingCaptured) {
			e.log.Info("skipping surface with nothing to capture", zap.String("surface", string(s.ID)))
			continue
		}
		if err != nil {
			return snapshot.WorkspaceRecord{}, err
		}
		size, pos, err := e.win.SurfaceGeometry(s.ID)
		if err != nil {
			return snapshot.WorkspaceRecord{}, fmt.Errorf("surface %s geometry: %w", s.ID, err)
		}
		rec.Surfaces = append(rec.Surfaces, snapshot.SurfaceSnapshot{
			Size:     size,
			Position: pos,
			Dominant: s.Focused,
			Layout:   tree,
		})
	}
	if len(rec.Surfaces) == 0 {
		return snapshot.WorkspaceRecord{}, fmt.Errorf("workspace %q: %w", name, ErrNothingCaptured)
	}
	return rec, nil
}
