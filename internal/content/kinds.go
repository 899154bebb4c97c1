package content

import (
	"fmt"
	"time"

	"github.com/alchemmist/lazy-layout/internal/host"
	"github.com/alchemmist/lazy-layout/internal/snapshot"
)

type fileHandler struct{}

func (fileHandler) Capture(u Unit) (snapshot.Descriptor, bool) {
	return snapshot.File(u.Path, u.Cursor), true
}

func (fileHandler) Restore(h Host, d snapshot.Descriptor) (Unit, error) {
	return h.Open(d)
}

func (fileHandler) ApplyPostLayout(h Host, p host.PaneID, d snapshot.Descriptor, leaf snapshot.Leaf) error {
	return placeCursor(h, p, d, leaf)
}

// paginatedHandler never touches raw scroll offsets: the viewer scrolls
// itself, and page state only renders cleanly in a pane that is already
// visible and sized.
type paginatedHandler struct {
	settle time.Duration
	sleep  func(time.Duration)
}

func (paginatedHandler) Capture(u Unit) (snapshot.Descriptor, bool) {
	page := u.Page
	if page < 1 {
		page = 1
	}
	return snapshot.PaginatedDocument(u.Path, page, u.Slice, u.Scale), true
}

func (paginatedHandler) Restore(h Host, d snapshot.Descriptor) (Unit, error) {
	return h.Open(d)
}

func (ph paginatedHandler) ApplyPostLayout(h Host, p host.PaneID, d snapshot.Descriptor, _ snapshot.Leaf) error {
	if err := h.GotoPage(p, d.Page, d.Slice, d.Scale); err != nil {
		return fmt.Errorf("goto page %d: %w", d.Page, err)
	}
	if err := h.Redraw(p); err != nil {
		return fmt.Errorf("redraw: %w", err)
	}
	if ph.settle > 0 && ph.sleep != nil {
		ph.sleep(ph.settle)
	}
	return nil
}

type indexedHandler struct{}

func (indexedHandler) Capture(u Unit) (snapshot.Descriptor, bool) {
	return snapshot.IndexedDocument(u.Path, u.Section, u.Cursor), true
}

func (indexedHandler) Restore(h Host, d snapshot.Descriptor) (Unit, error) {
	return h.Open(d)
}

func (indexedHandler) ApplyPostLayout(h Host, p host.PaneID, d snapshot.Descriptor, leaf snapshot.Leaf) error {
	if err := h.GotoSection(p, d.Section); err != nil {
		return fmt.Errorf("goto section %d: %w", d.Section, err)
	}
	return placeCursor(h, p, d, leaf)
}

type directoryHandler struct{}

func (directoryHandler) Capture(u Unit) (snapshot.Descriptor, bool) {
	return snapshot.DirectoryListing(u.Path, u.Cursor), true
}

func (directoryHandler) Restore(h Host, d snapshot.Descriptor) (Unit, error) {
	return h.Open(d)
}

func (directoryHandler) ApplyPostLayout(h Host, p host.PaneID, d snapshot.Descriptor, leaf snapshot.Leaf) error {
	return placeCursor(h, p, d, leaf)
}

// namedHandler regenerates a unit when a producer exists for its kind and
// otherwise looks for a live unit with the same name.
type namedHandler struct {
	producers map[string]Producer
}

func (namedHandler) Capture(u Unit) (snapshot.Descriptor, bool) {
	return snapshot.NamedSurface(u.Name, u.NamedKind), true
}

func (nh namedHandler) Restore(h Host, d snapshot.Descriptor) (Unit, error) {
	if produce, ok := nh.producers[d.NamedKind]; ok {
		u, err := produce(d.Name)
		if err != nil {
			return Unit{}, fmt.Errorf("produce %s %q: %w", d.NamedKind, d.Name, err)
		}
		return u, nil
	}
	return h.Locate(d.Name)
}

func (namedHandler) ApplyPostLayout(Host, host.PaneID, snapshot.Descriptor, snapshot.Leaf) error {
	return nil
}

// placeCursor prefers the pane's own cursor over the unit's and clamps it
// to the content's current length, which may have shrunk since capture.
func placeCursor(h Host, p host.PaneID, d snapshot.Descriptor, leaf snapshot.Leaf) error {
	offset := leaf.Cursor
	if offset == 0 {
		offset = d.Cursor
	}
	if offset <= 0 {
		return nil
	}
	length, err := h.ContentLength(p)
	if err != nil {
		return err
	}
	return h.SetCursor(p, Clamp(offset, length))
}

// Clamp limits offset to [0, length].
func Clamp(offset, length int) int {
	if offset < 0 {
		return 0
	}
	if offset > length {
		return length
	}
	return offset
}
