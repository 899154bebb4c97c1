// Package content captures and restores what a pane shows. Each content
// kind has a Handler with three steps: Capture reads a descriptor from a
// live unit, Restore asks the host to reopen the unit, and ApplyPostLayout
// puts cursor, page and section state back once the unit sits in a sized
// pane. The set of kinds is fixed; a Registry maps each to its handler.
package content

import (
	"errors"

	"github.com/alchemmist/lazy-layout/internal/host"
	"github.com/alchemmist/lazy-layout/internal/snapshot"
)

// ErrUnavailable means the resource behind a descriptor is gone or no
// producer can regenerate it. It is a per-leaf condition.
var ErrUnavailable = errors.New("content unavailable")

// Unit is a live content unit as the host reports it. Kind is empty when
// the host cannot classify the unit. Handle is host-private data needed
// to attach the unit to a pane.
type Unit struct {
	ID        string
	Kind      snapshot.Kind
	Path      string
	Name      string
	NamedKind string
	Cursor    int
	Page      int
	Slice     []float64
	Scale     *float64
	Section   int
	Handle    any
}

// Host opens, inspects and positions content units.
type Host interface {
	// Inspect returns the unit shown in pane p.
	Inspect(p host.PaneID) (Unit, error)
	// Open materializes the unit behind a path-backed descriptor. It
	// returns an error wrapping ErrUnavailable when the path is gone.
	Open(d snapshot.Descriptor) (Unit, error)
	// Locate finds an existing named unit, or fails with ErrUnavailable.
	Locate(name string) (Unit, error)
	Attach(p host.PaneID, u Unit) error
	// Units lists every unit the host still has open.
	Units() ([]Unit, error)
	Discard(u Unit) error

	ContentLength(p host.PaneID) (int, error)
	SetCursor(p host.PaneID, offset int) error
	GotoPage(p host.PaneID, page int, slice []float64, scale *float64) error
	GotoSection(p host.PaneID, section int) error
	Redraw(p host.PaneID) error
}

// Producer regenerates a named unit of one kind, such as an aggregate
// view that has no backing file.
type Producer func(name string) (Unit, error)

type Handler interface {
	Capture(u Unit) (snapshot.Descriptor, bool)
	Restore(h Host, d snapshot.Descriptor) (Unit, error)
	ApplyPostLayout(h Host, p host.PaneID, d snapshot.Descriptor, leaf snapshot.Leaf) error
}
