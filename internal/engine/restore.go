package engine

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/alchemmist/lazy-layout/internal/content"
	"github.com/alchemmist/lazy-layout/internal/geometry"
	"github.com/alchemmist/lazy-layout/internal/host"
	"github.com/alchemmist/lazy-layout/internal/snapshot"
)

type Outcome int

const (
	Restored Outcome = iota
	Unavailable
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Restored:
		return "restored"
	case Unavailable:
		return "unavailable"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// LeafResult is what happened to one leaf during a restore. Pane is empty
// when the leaf never got a pane because a subdivision failed.
type LeafResult struct {
	Pane    host.PaneID
	Content snapshot.Descriptor
	Outcome Outcome
	Err     error
}

type Report struct {
	Leaves []LeafResult
}

func (r Report) Count(o Outcome) int {
	n := 0
	for _, l := range r.Leaves {
		if l.Outcome == o {
			n++
		}
	}
	return n
}

func (r Report) Filter(o Outcome) []LeafResult {
	var out []LeafResult
	for _, l := range r.Leaves {
		if l.Outcome == o {
			out = append(out, l)
		}
	}
	return out
}

// RestoreTree rebuilds tree inside target, subdividing it as needed. A
// malformed tree is rejected before the host is touched; after that, a
// failing leaf only shows up in the report and never stops its siblings.
func (e *Engine) RestoreTree(tree snapshot.Node, target host.PaneID) (Report, error) {
	if err := snapshot.Validate(tree); err != nil {
		return Report{}, err
	}
	var rep Report
	e.restoreNode(tree, target, &rep)
	return rep, nil
}

func (e *Engine) restoreNode(n snapshot.Node, p host.PaneID, rep *Report) {
	if n.Leaf != nil {
		rep.Leaves = append(rep.Leaves, e.restoreLeaf(*n.Leaf, p))
		return
	}

	s := n.Split
	panes := []host.PaneID{p}
	current := p
	for i, size := range geometry.Sizes(s, e.min) {
		next, err := e.win.Split(current, s.Orientation, &size)
		if err != nil {
			e.log.Warn("subdivide failed",
				zap.String("pane", string(current)),
				zap.String("orientation", string(s.Orientation)),
				zap.Int("size", size),
				zap.Error(err))
			for _, c := range s.Children[i+1:] {
				for _, l := range c.Leaves() {
					rep.Leaves = append(rep.Leaves, LeafResult{Content: l.Content, Outcome: Failed, Err: err})
				}
			}
			break
		}
		panes = append(panes, next)
		current = next
	}
	for i, pane := range panes {
		e.restoreNode(s.Children[i], pane, rep)
	}
}

func (e *Engine) restoreLeaf(l snapshot.Leaf, p host.PaneID) LeafResult {
	res := LeafResult{Pane: p, Content: l.Content, Outcome: Restored}
	err := e.applyLeafSafely(l, p)
	switch {
	case err == nil:
		return res
	case errors.Is(err, content.ErrUnavailable):
		res.Outcome = Unavailable
		e.log.Info("content unavailable",
			zap.String("pane", string(p)),
			zap.Stringer("content", l.Content),
			zap.Error(err))
	default:
		res.Outcome = Failed
		e.log.Warn("leaf restore failed",
			zap.String("pane", string(p)),
			zap.Stringer("content", l.Content),
			zap.Error(err))
	}
	res.Err = err
	return res
}

// applyLeafSafely turns a panic in a handler or producer into an error
// for that leaf alone.
func (e *Engine) applyLeafSafely(l snapshot.Leaf, p host.PaneID) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("restore %s panicked: %v", l.Content.Kind, r)
		}
	}()
	return e.applyLeaf(l, p)
}

func (e *Engine) applyLeaf(l snapshot.Leaf, p host.PaneID) error {
	h, ok := e.reg.Handler(l.Content.Kind)
	if !ok {
		return fmt.Errorf("no handler for %s", l.Content.Kind)
	}
	u, err := h.Restore(e.content, l.Content)
	if err != nil {
		return err
	}
	if err := e.content.Attach(p, u); err != nil {
		return fmt.Errorf("attach: %w", err)
	}
	if err := h.ApplyPostLayout(e.content, p, l.Content, l); err != nil {
		return err
	}
	if l.Content.Kind == snapshot.KindPaginatedDocument {
		return nil
	}

	length, err := e.content.ContentLength(p)
	if err != nil {
		return fmt.Errorf("content length: %w", err)
	}
	if err := e.win.SetViewStart(p, content.Clamp(l.ViewStart, length)); err != nil {
		return fmt.Errorf("view start: %w", err)
	}
	if err := e.win.SetHScroll(p, max(l.HScroll, 0)); err != nil {
		return fmt.Errorf("hscroll: %w", err)
	}
	return nil
}
