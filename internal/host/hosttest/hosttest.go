// Package hosttest provides an in-memory host for exercising the layout
// engine without a live multiplexer. Host implements both host.Windowing
// and content.Host and records every mutating call in Calls.
package hosttest

import (
	"fmt"
	"slices"

	"github.com/alchemmist/lazy-layout/internal/content"
	"github.com/alchemmist/lazy-layout/internal/host"
	"github.com/alchemmist/lazy-layout/internal/snapshot"
)

// Layout describes a surface hierarchy to seed a Host with. A Layout with
// no Children is a pane.
type Layout struct {
	Orientation snapshot.Orientation
	Bounds      snapshot.Bounds
	Unit        content.Unit
	State       host.PaneState
	Children    []Layout
}

func Pane(b snapshot.Bounds, u content.Unit) Layout {
	return Layout{Bounds: b, Unit: u}
}

func Split(o snapshot.Orientation, b snapshot.Bounds, children ...Layout) Layout {
	return Layout{Orientation: o, Bounds: b, Children: children}
}

type SplitCall struct {
	Pane        host.PaneID
	Orientation snapshot.Orientation
	Size        *int
}

type Host struct {
	Calls     []string
	Splits    []SplitCall
	Discarded []content.Unit

	// SplitErr, when set, is consulted before every split.
	SplitErr func(p host.PaneID) error
	// OpenErr, when set, is consulted before every open.
	OpenErr func(d snapshot.Descriptor) error

	surfaces []*surface
	files    map[string]int
	named    map[string]content.Unit
	primary  host.SurfaceID
	focused  host.SurfaceID
	nextID   int
}

type surface struct {
	id          host.SurfaceID
	size        snapshot.Size
	pos         snapshot.Position
	root        *node
	visible     bool
	alwaysOnTop bool
}

type node struct {
	pane     host.PaneID
	unit     content.Unit
	state    host.PaneState
	orient   snapshot.Orientation
	bounds   snapshot.Bounds
	children []*node
	parent   *node
}

func New() *Host {
	return &Host{
		files: map[string]int{},
		named: map[string]content.Unit{},
	}
}

// AddFile makes path openable, with the given content length.
func (h *Host) AddFile(path string, length int) {
	h.files[path] = length
}

func (h *Host) RemoveFile(path string) {
	delete(h.files, path)
}

// AddNamed makes a named unit locatable.
func (h *Host) AddNamed(u content.Unit) {
	if u.ID == "" {
		u.ID = h.id("u")
	}
	h.named[u.Name] = u
}

// AddSurface seeds a surface. The first surface added is the primary and
// starts focused.
func (h *Host) AddSurface(size snapshot.Size, pos snapshot.Position, l Layout) host.SurfaceID {
	s := &surface{id: host.SurfaceID(h.id("@")), size: size, pos: pos, visible: true}
	s.root = h.build(l, nil)
	h.surfaces = append(h.surfaces, s)
	if h.primary == "" {
		h.primary = s.id
		h.focused = s.id
	}
	return s.id
}

func (h *Host) SetFocused(s host.SurfaceID) { h.focused = s }

func (h *Host) build(l Layout, parent *node) *node {
	n := &node{bounds: l.Bounds, parent: parent}
	if len(l.Children) == 0 {
		n.pane = host.PaneID(h.id("%"))
		n.unit = l.Unit
		if n.unit.Kind != "" && n.unit.ID == "" {
			n.unit.ID = h.id("u")
		}
		n.state = l.State
		return n
	}
	n.orient = l.Orientation
	for _, c := range l.Children {
		n.children = append(n.children, h.build(c, n))
	}
	return n
}

func (h *Host) id(prefix string) string {
	h.nextID++
	return fmt.Sprintf("%s%d", prefix, h.nextID)
}

func (h *Host) record(format string, args ...any) {
	h.Calls = append(h.Calls, fmt.Sprintf(format, args...))
}

// SurfaceIDs returns the live surfaces in creation order.
func (h *Host) SurfaceIDs() []host.SurfaceID {
	out := make([]host.SurfaceID, 0, len(h.surfaces))
	for _, s := range h.surfaces {
		out = append(out, s.id)
	}
	return out
}

// Panes returns the panes of s in depth-first order.
func (h *Host) Panes(s host.SurfaceID) []host.PaneID {
	sf := h.surface(s)
	if sf == nil {
		return nil
	}
	var out []host.PaneID
	eachLeaf(sf.root, func(n *node) { out = append(out, n.pane) })
	return out
}

// UnitIn returns the unit currently shown in p.
func (h *Host) UnitIn(p host.PaneID) content.Unit {
	if n := h.pane(p); n != nil {
		return n.unit
	}
	return content.Unit{}
}

func (h *Host) StateOf(p host.PaneID) host.PaneState {
	if n := h.pane(p); n != nil {
		return n.state
	}
	return host.PaneState{}
}

func (h *Host) Visible(s host.SurfaceID) bool {
	sf := h.surface(s)
	return sf != nil && sf.visible
}

func eachLeaf(n *node, fn func(*node)) {
	if n == nil {
		return
	}
	if n.pane != "" {
		fn(n)
		return
	}
	for _, c := range n.children {
		eachLeaf(c, fn)
	}
}

func (h *Host) surface(id host.SurfaceID) *surface {
	for _, s := range h.surfaces {
		if s.id == id {
			return s
		}
	}
	return nil
}

func (h *Host) pane(p host.PaneID) *node {
	var found *node
	for _, s := range h.surfaces {
		eachLeaf(s.root, func(n *node) {
			if n.pane == p {
				found = n
			}
		})
	}
	return found
}

func notFound(kind string, id any) error {
	return fmt.Errorf("%w: no %s %v", host.ErrOperationFailed, kind, id)
}

func (h *Host) Root(id host.SurfaceID) (host.Node, error) {
	s := h.surface(id)
	if s == nil {
		return host.Node{}, notFound("surface", id)
	}
	return export(s.root), nil
}

func export(n *node) host.Node {
	out := host.Node{Pane: n.pane, Orientation: n.orient, Bounds: n.bounds}
	for _, c := range n.children {
		out.Children = append(out.Children, export(c))
	}
	return out
}

func (h *Host) Split(p host.PaneID, o snapshot.Orientation, size *int) (host.PaneID, error) {
	call := SplitCall{Pane: p, Orientation: o}
	if size != nil {
		v := *size
		call.Size = &v
	}
	h.Splits = append(h.Splits, call)
	if h.SplitErr != nil {
		if err := h.SplitErr(p); err != nil {
			return "", err
		}
	}

	n := h.pane(p)
	if n == nil {
		return "", notFound("pane", p)
	}
	start, end := n.bounds.Span(o)
	total := end - start
	first := total / 2
	if size != nil {
		first = *size
	}
	if first < 1 || first >= total {
		return "", fmt.Errorf("%w: pane %s too small to split at %d", host.ErrOperationFailed, p, first)
	}

	created := &node{
		pane:   host.PaneID(h.id("%")),
		bounds: n.bounds.WithSpan(o, start+first, end),
	}
	kept := n.bounds.WithSpan(o, start, start+first)
	if n.parent != nil && n.parent.orient == o {
		created.parent = n.parent
		i := slices.Index(n.parent.children, n)
		n.parent.children = slices.Insert(n.parent.children, i+1, created)
		n.bounds = kept
	} else {
		old := &node{pane: n.pane, unit: n.unit, state: n.state, bounds: kept, parent: n}
		created.parent = n
		n.pane, n.unit, n.state = "", content.Unit{}, host.PaneState{}
		n.orient = o
		n.children = []*node{old, created}
	}
	if size != nil {
		h.record("split %s %s %d", p, o, *size)
	} else {
		h.record("split %s %s", p, o)
	}
	return created.pane, nil
}

func (h *Host) PaneState(p host.PaneID) (host.PaneState, error) {
	n := h.pane(p)
	if n == nil {
		return host.PaneState{}, notFound("pane", p)
	}
	return n.state, nil
}

func (h *Host) SetViewStart(p host.PaneID, offset int) error {
	n := h.pane(p)
	if n == nil {
		return notFound("pane", p)
	}
	n.state.ViewStart = offset
	h.record("view-start %s %d", p, offset)
	return nil
}

func (h *Host) SetHScroll(p host.PaneID, offset int) error {
	n := h.pane(p)
	if n == nil {
		return notFound("pane", p)
	}
	n.state.HScroll = offset
	h.record("hscroll %s %d", p, offset)
	return nil
}

func (h *Host) Surfaces() ([]host.Surface, error) {
	out := make([]host.Surface, 0, len(h.surfaces))
	for _, s := range h.surfaces {
		out = append(out, host.Surface{ID: s.id, Focused: s.id == h.focused})
	}
	return out, nil
}

func (h *Host) Primary() (host.SurfaceID, error) {
	if h.surface(h.primary) == nil {
		return "", notFound("surface", "primary")
	}
	return h.primary, nil
}

func (h *Host) SurfaceGeometry(id host.SurfaceID) (snapshot.Size, snapshot.Position, error) {
	s := h.surface(id)
	if s == nil {
		return snapshot.Size{}, snapshot.Position{}, notFound("surface", id)
	}
	return s.size, s.pos, nil
}

func (h *Host) CreateSurface(size snapshot.Size, pos snapshot.Position) (host.SurfaceID, error) {
	id := h.AddSurface(size, pos, Pane(snapshot.Bounds{Right: size.Width, Bottom: size.Height}, content.Unit{}))
	s := h.surface(id)
	s.visible = false
	h.record("create %s %dx%d+%d+%d", id, size.Width, size.Height, pos.Left, pos.Top)
	return id, nil
}

func (h *Host) DestroySurface(id host.SurfaceID) error {
	i := slices.IndexFunc(h.surfaces, func(s *surface) bool { return s.id == id })
	if i < 0 {
		return notFound("surface", id)
	}
	h.surfaces = slices.Delete(h.surfaces, i, i+1)
	h.record("destroy %s", id)
	return nil
}

func (h *Host) ResizeSurface(id host.SurfaceID, size snapshot.Size) error {
	s := h.surface(id)
	if s == nil {
		return notFound("surface", id)
	}
	s.size = size
	stretch(s.root, snapshot.SideBySide, 0, size.Width)
	stretch(s.root, snapshot.Stacked, 0, size.Height)
	h.record("resize %s %dx%d", id, size.Width, size.Height)
	return nil
}

func stretch(n *node, o snapshot.Orientation, start, end int) {
	n.bounds = n.bounds.WithSpan(o, start, end)
	if len(n.children) == 0 {
		return
	}
	if n.orient != o {
		for _, c := range n.children {
			stretch(c, o, start, end)
		}
		return
	}
	first := n.children[0]
	_, firstEnd := first.bounds.Span(o)
	stretch(first, o, start, firstEnd)
	last := n.children[len(n.children)-1]
	lastStart, _ := last.bounds.Span(o)
	stretch(last, o, lastStart, end)
}

func (h *Host) MoveSurface(id host.SurfaceID, pos snapshot.Position) error {
	s := h.surface(id)
	if s == nil {
		return notFound("surface", id)
	}
	s.pos = pos
	h.record("move %s %d,%d", id, pos.Left, pos.Top)
	return nil
}

func (h *Host) Collapse(id host.SurfaceID) (host.PaneID, error) {
	s := h.surface(id)
	if s == nil {
		return "", notFound("surface", id)
	}
	var keep *node
	eachLeaf(s.root, func(n *node) {
		if keep == nil {
			keep = n
		}
	})
	s.root = &node{
		pane:   keep.pane,
		unit:   keep.unit,
		state:  keep.state,
		bounds: snapshot.Bounds{Right: s.size.Width, Bottom: s.size.Height},
	}
	h.record("collapse %s", id)
	return keep.pane, nil
}

func (h *Host) ShowSurface(id host.SurfaceID) error {
	s := h.surface(id)
	if s == nil {
		return notFound("surface", id)
	}
	s.visible = true
	h.record("show %s", id)
	return nil
}

func (h *Host) RaiseSurface(id host.SurfaceID) error {
	if h.surface(id) == nil {
		return notFound("surface", id)
	}
	h.record("raise %s", id)
	return nil
}

func (h *Host) FocusSurface(id host.SurfaceID) error {
	if h.surface(id) == nil {
		return notFound("surface", id)
	}
	h.focused = id
	h.record("focus %s", id)
	return nil
}

func (h *Host) SetAlwaysOnTop(id host.SurfaceID, on bool) error {
	s := h.surface(id)
	if s == nil {
		return notFound("surface", id)
	}
	s.alwaysOnTop = on
	h.record("always-on-top %s %t", id, on)
	return nil
}

func (h *Host) RedrawSurface(id host.SurfaceID) error {
	if h.surface(id) == nil {
		return notFound("surface", id)
	}
	h.record("redraw-surface %s", id)
	return nil
}

func (h *Host) Inspect(p host.PaneID) (content.Unit, error) {
	n := h.pane(p)
	if n == nil {
		return content.Unit{}, notFound("pane", p)
	}
	return n.unit, nil
}

func (h *Host) Open(d snapshot.Descriptor) (content.Unit, error) {
	if h.OpenErr != nil {
		if err := h.OpenErr(d); err != nil {
			return content.Unit{}, err
		}
	}
	if _, ok := h.files[d.Path]; !ok {
		return content.Unit{}, fmt.Errorf("%w: %s", content.ErrUnavailable, d.Path)
	}
	u := content.Unit{ID: h.id("u"), Kind: d.Kind, Path: d.Path}
	if d.Kind == snapshot.KindPaginatedDocument {
		u.Page = 1
	}
	return u, nil
}

func (h *Host) Locate(name string) (content.Unit, error) {
	u, ok := h.named[name]
	if !ok {
		return content.Unit{}, fmt.Errorf("%w: no unit named %q", content.ErrUnavailable, name)
	}
	return u, nil
}

func (h *Host) Attach(p host.PaneID, u content.Unit) error {
	n := h.pane(p)
	if n == nil {
		return notFound("pane", p)
	}
	n.unit = u
	h.record("attach %s %s", p, snapshot.Descriptor{Kind: u.Kind, Path: u.Path, Name: u.Name, NamedKind: u.NamedKind})
	return nil
}

func (h *Host) Units() ([]content.Unit, error) {
	var out []content.Unit
	for _, s := range h.surfaces {
		eachLeaf(s.root, func(n *node) {
			if n.unit.Kind != "" {
				out = append(out, n.unit)
			}
		})
	}
	return out, nil
}

func (h *Host) Discard(u content.Unit) error {
	for _, s := range h.surfaces {
		eachLeaf(s.root, func(n *node) {
			if n.unit.ID == u.ID {
				n.unit = content.Unit{}
			}
		})
	}
	h.Discarded = append(h.Discarded, u)
	h.record("discard %s", u.ID)
	return nil
}

func (h *Host) ContentLength(p host.PaneID) (int, error) {
	n := h.pane(p)
	if n == nil {
		return 0, notFound("pane", p)
	}
	return h.files[n.unit.Path], nil
}

func (h *Host) SetCursor(p host.PaneID, offset int) error {
	n := h.pane(p)
	if n == nil {
		return notFound("pane", p)
	}
	n.state.Cursor = offset
	n.unit.Cursor = offset
	h.record("cursor %s %d", p, offset)
	return nil
}

func (h *Host) GotoPage(p host.PaneID, page int, slice []float64, scale *float64) error {
	n := h.pane(p)
	if n == nil {
		return notFound("pane", p)
	}
	n.unit.Page, n.unit.Slice, n.unit.Scale = page, slice, scale
	h.record("page %s %d", p, page)
	return nil
}

func (h *Host) GotoSection(p host.PaneID, section int) error {
	n := h.pane(p)
	if n == nil {
		return notFound("pane", p)
	}
	n.unit.Section = section
	h.record("section %s %d", p, section)
	return nil
}

func (h *Host) Redraw(p host.PaneID) error {
	if h.pane(p) == nil {
		return notFound("pane", p)
	}
	h.record("redraw %s", p)
	return nil
}
