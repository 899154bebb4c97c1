// Package host defines the windowing operations the layout engine needs
// from a live host: reading a surface's split hierarchy, subdividing
// panes, and managing surfaces. Implementations wrap a real multiplexer
// or window system; the engine never talks to one directly.
package host

import (
	"errors"

	"github.com/alchemmist/lazy-layout/internal/snapshot"
)

type PaneID string

type SurfaceID string

// ErrOperationFailed wraps failures of individual host calls, such as a
// pane too small to subdivide.
var ErrOperationFailed = errors.New("host operation failed")

// Node is one node of a surface's live hierarchy. Pane is set for leaves;
// splits carry Orientation and ordered Children.
type Node struct {
	Pane        PaneID
	Orientation snapshot.Orientation
	Bounds      snapshot.Bounds
	Children    []Node
}

func (n Node) IsLeaf() bool { return n.Pane != "" }

// PaneState is the view state of a pane, in host units.
type PaneState struct {
	HScroll   int
	VScroll   int
	ViewStart int
	Cursor    int
}

type Surface struct {
	ID      SurfaceID
	Focused bool
}

// Windowing is the set of surface and pane operations a host provides.
type Windowing interface {
	// Root returns the live split hierarchy of a surface.
	Root(s SurfaceID) (Node, error)
	// Split divides pane p along o and returns the new pane, which comes
	// after p in child order. When size is non-nil, p keeps exactly that
	// extent along the split axis and the new pane gets the remainder.
	// On error no new pane is left behind.
	Split(p PaneID, o snapshot.Orientation, size *int) (PaneID, error)
	PaneState(p PaneID) (PaneState, error)
	SetViewStart(p PaneID, offset int) error
	SetHScroll(p PaneID, offset int) error

	Surfaces() ([]Surface, error)
	// Primary is the surface a workspace restore keeps and reuses.
	Primary() (SurfaceID, error)
	SurfaceGeometry(s SurfaceID) (snapshot.Size, snapshot.Position, error)
	CreateSurface(size snapshot.Size, pos snapshot.Position) (SurfaceID, error)
	DestroySurface(s SurfaceID) error
	ResizeSurface(s SurfaceID, size snapshot.Size) error
	MoveSurface(s SurfaceID, pos snapshot.Position) error
	// Collapse deletes every pane of s but one and returns the survivor.
	Collapse(s SurfaceID) (PaneID, error)
	ShowSurface(s SurfaceID) error
	RaiseSurface(s SurfaceID) error
	FocusSurface(s SurfaceID) error
	SetAlwaysOnTop(s SurfaceID, on bool) error
	RedrawSurface(s SurfaceID) error
}
