package snapshot

import (
	"fmt"
	"strconv"
)

// Orientation is the axis a split divides its region along. Stacked
// children run top to bottom, side-by-side children left to right.
type Orientation string

const (
	Stacked    Orientation = "stacked"
	SideBySide Orientation = "side-by-side"
)

func (o Orientation) Valid() bool {
	return o == Stacked || o == SideBySide
}

// Bounds is a half-open rectangle in host geometry units: Right and
// Bottom are exclusive.
type Bounds struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
}

func (b Bounds) Width() int  { return b.Right - b.Left }
func (b Bounds) Height() int { return b.Bottom - b.Top }

// Span returns the extent of b along the axis that o divides.
func (b Bounds) Span(o Orientation) (start, end int) {
	if o == Stacked {
		return b.Top, b.Bottom
	}
	return b.Left, b.Right
}

// WithSpan returns b with its extent along o replaced.
func (b Bounds) WithSpan(o Orientation, start, end int) Bounds {
	if o == Stacked {
		b.Top, b.Bottom = start, end
	} else {
		b.Left, b.Right = start, end
	}
	return b
}

func (b Bounds) String() string {
	return fmt.Sprintf("[%d,%d %d,%d]", b.Left, b.Top, b.Right, b.Bottom)
}

// Node is one node of a layout tree. Exactly one of Split or Leaf is set.
type Node struct {
	Split *Split `json:"split,omitempty"`
	Leaf  *Leaf  `json:"leaf,omitempty"`
}

type Split struct {
	Orientation Orientation `json:"orientation"`
	Bounds      Bounds      `json:"bounds"`
	Children    []Node      `json:"children"`
}

// Leaf is a pane together with the content it shows and its view state.
type Leaf struct {
	Content   Descriptor `json:"content"`
	Bounds    Bounds     `json:"bounds"`
	HScroll   int        `json:"hscroll"`
	VScroll   int        `json:"vscroll"`
	ViewStart int        `json:"view_start"`
	Cursor    int        `json:"cursor"`
}

func SplitNode(o Orientation, b Bounds, children ...Node) Node {
	return Node{Split: &Split{Orientation: o, Bounds: b, Children: children}}
}

func LeafNode(l Leaf) Node {
	return Node{Leaf: &l}
}

func (n Node) IsZero() bool { return n.Split == nil && n.Leaf == nil }

func (n Node) Bounds() Bounds {
	switch {
	case n.Leaf != nil:
		return n.Leaf.Bounds
	case n.Split != nil:
		return n.Split.Bounds
	}
	return Bounds{}
}

// Leaves returns the tree's leaves in depth-first order.
func (n Node) Leaves() []Leaf {
	var out []Leaf
	n.walk(func(l *Leaf) { out = append(out, *l) })
	return out
}

func (n Node) walk(fn func(*Leaf)) {
	if n.Leaf != nil {
		fn(n.Leaf)
		return
	}
	if n.Split != nil {
		for _, c := range n.Split.Children {
			c.walk(fn)
		}
	}
}

// Stretch sets the extent of n along o to [start, end), carrying the
// change down so the subtree stays contiguous: a split on the same axis
// moves its outer children's edges, a split on the cross axis moves every
// child.
func Stretch(n Node, o Orientation, start, end int) {
	switch {
	case n.Leaf != nil:
		n.Leaf.Bounds = n.Leaf.Bounds.WithSpan(o, start, end)
	case n.Split != nil:
		s := n.Split
		s.Bounds = s.Bounds.WithSpan(o, start, end)
		if len(s.Children) == 0 {
			return
		}
		if s.Orientation != o {
			for _, c := range s.Children {
				Stretch(c, o, start, end)
			}
			return
		}
		first := s.Children[0]
		_, firstEnd := first.Bounds().Span(o)
		Stretch(first, o, start, firstEnd)
		last := s.Children[len(s.Children)-1]
		lastStart, _ := last.Bounds().Span(o)
		Stretch(last, o, lastStart, end)
	}
}

// StructuralError reports a tree that breaks the layout invariants. Path
// names the offending node as dot-separated child indexes from the root.
type StructuralError struct {
	Path   string
	Reason string
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("malformed layout at %s: %s", e.Path, e.Reason)
}

// Validate checks n against the layout invariants: one node kind per
// node, non-empty splits, well-formed bounds, and children that tile
// their split contiguously along its axis.
func Validate(n Node) error {
	return validate(n, "root")
}

func validate(n Node, path string) error {
	fail := func(format string, args ...any) error {
		return &StructuralError{Path: path, Reason: fmt.Sprintf(format, args...)}
	}
	if (n.Split == nil) == (n.Leaf == nil) {
		return fail("node must be exactly one of split or leaf")
	}
	b := n.Bounds()
	if b.Left >= b.Right || b.Top >= b.Bottom {
		return fail("empty bounds %s", b)
	}
	if n.Leaf != nil {
		if err := n.Leaf.Content.Validate(); err != nil {
			return fail("%v", err)
		}
		return nil
	}

	s := n.Split
	if !s.Orientation.Valid() {
		return fail("unknown orientation %q", s.Orientation)
	}
	if len(s.Children) == 0 {
		return fail("split has no children")
	}
	cross := SideBySide
	if s.Orientation == SideBySide {
		cross = Stacked
	}
	crossStart, crossEnd := b.Span(cross)
	pos, end := b.Span(s.Orientation)
	for i, c := range s.Children {
		childPath := path + "." + strconv.Itoa(i)
		if err := validate(c, childPath); err != nil {
			return err
		}
		cb := c.Bounds()
		start, stop := cb.Span(s.Orientation)
		if start != pos {
			return &StructuralError{Path: childPath, Reason: fmt.Sprintf("child starts at %d, expected %d", start, pos)}
		}
		if cs, ce := cb.Span(cross); cs < crossStart || ce > crossEnd {
			return &StructuralError{Path: childPath, Reason: fmt.Sprintf("child %s exceeds split %s", cb, b)}
		}
		pos = stop
	}
	if pos != end {
		return fail("children end at %d, split ends at %d", pos, end)
	}
	return nil
}
