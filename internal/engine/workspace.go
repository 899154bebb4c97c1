package engine

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/alchemmist/lazy-layout/internal/host"
	"github.com/alchemmist/lazy-layout/internal/snapshot"
)

// RestoreSession resizes surface s to the record's size, collapses it to a
// single pane and rebuilds the record's layout there.
func (e *Engine) RestoreSession(rec snapshot.SessionRecord, s host.SurfaceID) (Report, error) {
	if err := snapshot.Validate(rec.Layout); err != nil {
		return Report{}, fmt.Errorf("session %q: %w", rec.Name, err)
	}
	return e.restoreSurface(rec.Layout, rec.Size, s)
}

func (e *Engine) restoreSurface(tree snapshot.Node, size snapshot.Size, s host.SurfaceID) (Report, error) {
	if err := e.win.ResizeSurface(s, size); err != nil {
		return Report{}, fmt.Errorf("resize surface %s: %w", s, err)
	}
	p, err := e.win.Collapse(s)
	if err != nil {
		return Report{}, fmt.Errorf("collapse surface %s: %w", s, err)
	}
	return e.RestoreTree(tree, p)
}

type SurfaceReport struct {
	Surface host.SurfaceID
	Report  Report
}

// WorkspaceReport lists the restored surfaces, dominant first and the
// rest in record order.
type WorkspaceReport struct {
	Surfaces []SurfaceReport
}

func (w WorkspaceReport) Count(o Outcome) int {
	n := 0
	for _, s := range w.Surfaces {
		n += s.Report.Count(o)
	}
	return n
}

// RestoreWorkspace replaces every live surface with the record's
// surfaces. The dominant snapshot goes into the retained primary surface
// and the others into new surfaces. A surface that cannot be created or
// rebuilt is skipped and reported in the returned error; the rest still
// get restored.
func (e *Engine) RestoreWorkspace(rec snapshot.WorkspaceRecord) (WorkspaceReport, error) {
	if err := validateWorkspace(rec); err != nil {
		return WorkspaceReport{}, err
	}
	primary, err := e.win.Primary()
	if err != nil {
		return WorkspaceReport{}, fmt.Errorf("primary surface: %w", err)
	}
	if err := e.clearSlate(primary); err != nil {
		return WorkspaceReport{}, err
	}

	var out WorkspaceReport
	dom := rec.DominantIndex()
	ds := rec.Surfaces[dom]
	// Position first: some hosts anchor a resize at the top-left corner
	// and would push the surface off screen.
	if err := e.win.MoveSurface(primary, ds.Position); err != nil {
		return out, fmt.Errorf("move surface %s: %w", primary, err)
	}
	rep, err := e.restoreSurface(ds.Layout, ds.Size, primary)
	if err != nil {
		return out, err
	}
	out.Surfaces = append(out.Surfaces, SurfaceReport{Surface: primary, Report: rep})

	var errs []error
	for i, ss := range rec.Surfaces {
		if i == dom {
			continue
		}
		id, err := e.win.CreateSurface(ss.Size, ss.Position)
		if err != nil {
			errs = append(errs, fmt.Errorf("create surface %d: %w", i, err))
			continue
		}
		rep, err := e.restoreSurface(ss.Layout, ss.Size, id)
		if err != nil {
			errs = append(errs, err)
		}
		if err := e.win.ShowSurface(id); err != nil {
			e.log.Warn("show surface", zap.String("surface", string(id)), zap.Error(err))
		}
		out.Surfaces = append(out.Surfaces, SurfaceReport{Surface: id, Report: rep})
	}

	e.bringForward(primary)
	return out, errors.Join(errs...)
}

func validateWorkspace(rec snapshot.WorkspaceRecord) error {
	if len(rec.Surfaces) == 0 {
		return fmt.Errorf("workspace %q has no surfaces", rec.Name)
	}
	dominant := 0
	for i, s := range rec.Surfaces {
		if s.Dominant {
			dominant++
		}
		if err := snapshot.Validate(s.Layout); err != nil {
			return fmt.Errorf("workspace %q surface %d: %w", rec.Name, i, err)
		}
	}
	if dominant > 1 {
		return fmt.Errorf("workspace %q: %w", rec.Name,
			&snapshot.StructuralError{Path: "surfaces", Reason: fmt.Sprintf("%d surfaces marked dominant", dominant)})
	}
	return nil
}

// clearSlate destroys every surface but primary and discards the content
// units a restore could bring back, so nothing stale survives into the
// new layout.
func (e *Engine) clearSlate(primary host.SurfaceID) error {
	surfaces, err := e.win.Surfaces()
	if err != nil {
		return fmt.Errorf("list surfaces: %w", err)
	}
	for _, s := range surfaces {
		if s.ID == primary {
			continue
		}
		if err := e.win.DestroySurface(s.ID); err != nil {
			return fmt.Errorf("destroy surface %s: %w", s.ID, err)
		}
	}
	units, err := e.content.Units()
	if err != nil {
		return fmt.Errorf("list content: %w", err)
	}
	for _, u := range units {
		if !e.reg.Restorable(u) {
			continue
		}
		if err := e.content.Discard(u); err != nil {
			return fmt.Errorf("discard %s: %w", u.ID, err)
		}
	}
	return nil
}

// bringForward raises and focuses s. Window managers may refuse focus
// changes, so it also flips always-on-top around a redraw. Failures are
// only logged.
func (e *Engine) bringForward(s host.SurfaceID) {
	steps := []struct {
		name string
		fn   func() error
	}{
		{"raise", func() error { return e.win.RaiseSurface(s) }},
		{"focus", func() error { return e.win.FocusSurface(s) }},
		{"pin", func() error { return e.win.SetAlwaysOnTop(s, true) }},
		{"redraw", func() error { return e.win.RedrawSurface(s) }},
		{"unpin", func() error { return e.win.SetAlwaysOnTop(s, false) }},
	}
	for _, step := range steps {
		if err := step.fn(); err != nil {
			e.log.Debug("bring forward", zap.String("step", step.name), zap.String("surface", string(s)), zap.Error(err))
		}
	}
}
