// Package geometry turns captured bounds into the explicit sizes used
// when a split is rebuilt. Sizes are replayed as absolute values; the
// surface is resized to its captured dimensions before any split happens.
package geometry

import "github.com/alchemmist/lazy-layout/internal/snapshot"

// MinSize is the smallest pane the host can create, per axis.
type MinSize struct {
	Width  int
	Height int
}

func (m MinSize) along(o snapshot.Orientation) int {
	min := m.Width
	if o == snapshot.Stacked {
		min = m.Height
	}
	if min < 1 {
		return 1
	}
	return min
}

// SplitSize is the size a child with bounds b takes in a split with
// orientation o: its height when stacked, its width side by side, never
// less than the host minimum.
func SplitSize(b snapshot.Bounds, o snapshot.Orientation, limit MinSize) int {
	start, end := b.Span(o)
	size := end - start
	if floor := limit.along(o); size < floor {
		return floor
	}
	return size
}

// Sizes returns the explicit sizes for every child of s except the last,
// which takes whatever space remains.
func Sizes(s *snapshot.Split, limit MinSize) []int {
	if s == nil || len(s.Children) < 2 {
		return nil
	}
	out := make([]int, 0, len(s.Children)-1)
	for _, c := range s.Children[:len(s.Children)-1] {
		out = append(out, SplitSize(c.Bounds(), s.Orientation, limit))
	}
	return out
}
