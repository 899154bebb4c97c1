package content_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alchemmist/lazy-layout/internal/content"
	"github.com/alchemmist/lazy-layout/internal/host"
	"github.com/alchemmist/lazy-layout/internal/host/hosttest"
	"github.com/alchemmist/lazy-layout/internal/snapshot"
)

var full = snapshot.Bounds{Right: 80, Bottom: 24}

func singlePane(t *testing.T, h *hosttest.Host, u content.Unit) host.PaneID {
	t.Helper()
	s := h.AddSurface(snapshot.Size{Width: 80, Height: 24}, snapshot.Position{}, hosttest.Pane(full, u))
	panes := h.Panes(s)
	require.Len(t, panes, 1)
	return panes[0]
}

func TestCaptureRecognizedKinds(t *testing.T) {
	r := content.NewRegistry()
	scale := 2.0

	tests := []struct {
		unit content.Unit
		want snapshot.Descriptor
	}{
		{content.Unit{Kind: snapshot.KindFile, Path: "/src/main.go", Cursor: 42}, snapshot.File("/src/main.go", 42)},
		{content.Unit{Kind: snapshot.KindPaginatedDocument, Path: "/doc.pdf", Page: 7, Scale: &scale}, snapshot.PaginatedDocument("/doc.pdf", 7, nil, &scale)},
		{content.Unit{Kind: snapshot.KindPaginatedDocument, Path: "/doc.pdf"}, snapshot.PaginatedDocument("/doc.pdf", 1, nil, nil)},
		{content.Unit{Kind: snapshot.KindIndexedDocument, Path: "printf", Section: 3, Cursor: 9}, snapshot.IndexedDocument("printf", 3, 9)},
		{content.Unit{Kind: snapshot.KindDirectoryListing, Path: "/home"}, snapshot.DirectoryListing("/home", 0)},
		{content.Unit{Kind: snapshot.KindNamedSurface, Name: "monitor", NamedKind: "htop"}, snapshot.NamedSurface("monitor", "htop")},
	}
	for _, tt := range tests {
		got, ok := r.Capture(tt.unit)
		require.True(t, ok, "capture %+v", tt.unit)
		assert.Equal(t, tt.want, got)
	}
}

func TestCaptureRejectsUnknownOrIncomplete(t *testing.T) {
	r := content.NewRegistry()
	for _, u := range []content.Unit{
		{},
		{Kind: "terminal"},
		{Kind: snapshot.KindFile},
		{Kind: snapshot.KindNamedSurface, NamedKind: "htop"},
	} {
		_, ok := r.Capture(u)
		assert.False(t, ok, "expected %+v to be rejected", u)
	}
}

func TestCaptureKeepsPathOfMissingFile(t *testing.T) {
	r := content.NewRegistry()
	d, ok := r.Capture(content.Unit{Kind: snapshot.KindFile, Path: "/deleted/long/ago.txt"})
	require.True(t, ok)
	assert.Equal(t, "/deleted/long/ago.txt", d.Path)
}

func TestRoundTripThroughHost(t *testing.T) {
	scale := 1.25
	descriptors := []snapshot.Descriptor{
		snapshot.File("/src/main.go", 12),
		snapshot.PaginatedDocument("/paper.pdf", 4, []float64{0.1, 0.1, 0.8, 0.8}, &scale),
		snapshot.IndexedDocument("/usr/share/info/coreutils.info", 2, 5),
		snapshot.DirectoryListing("/src", 3),
	}
	for _, d := range descriptors {
		t.Run(string(d.Kind), func(t *testing.T) {
			h := hosttest.New()
			h.AddFile(d.Path, 100)
			p := singlePane(t, h, content.Unit{})
			r := content.NewRegistry(content.WithSettleDelay(0))

			handler, ok := r.Handler(d.Kind)
			require.True(t, ok)
			u, err := handler.Restore(h, d)
			require.NoError(t, err)
			require.NoError(t, h.Attach(p, u))
			require.NoError(t, handler.ApplyPostLayout(h, p, d, snapshot.Leaf{Content: d}))

			live, err := h.Inspect(p)
			require.NoError(t, err)
			got, ok := r.Capture(live)
			require.True(t, ok)
			assert.Equal(t, d, got)
		})
	}
}

func TestCursorClampedToContentLength(t *testing.T) {
	h := hosttest.New()
	h.AddFile("/shrunk.txt", 10)
	p := singlePane(t, h, content.Unit{})
	r := content.NewRegistry()
	d := snapshot.File("/shrunk.txt", 500)

	handler, _ := r.Handler(d.Kind)
	u, err := handler.Restore(h, d)
	require.NoError(t, err)
	require.NoError(t, h.Attach(p, u))
	require.NoError(t, handler.ApplyPostLayout(h, p, d, snapshot.Leaf{Content: d}))

	assert.Equal(t, 10, h.StateOf(p).Cursor)
}

func TestLeafCursorWinsOverDescriptorCursor(t *testing.T) {
	h := hosttest.New()
	h.AddFile("/a", 100)
	p := singlePane(t, h, content.Unit{})
	r := content.NewRegistry()
	d := snapshot.DirectoryListing("/a", 5)

	handler, _ := r.Handler(d.Kind)
	u, err := handler.Restore(h, d)
	require.NoError(t, err)
	require.NoError(t, h.Attach(p, u))
	require.NoError(t, handler.ApplyPostLayout(h, p, d, snapshot.Leaf{Content: d, Cursor: 30}))

	assert.Equal(t, 30, h.StateOf(p).Cursor)
}

func TestRestoreMissingPathIsUnavailable(t *testing.T) {
	h := hosttest.New()
	r := content.NewRegistry()
	handler, _ := r.Handler(snapshot.KindFile)

	_, err := handler.Restore(h, snapshot.File("/gone", 0))
	assert.True(t, errors.Is(err, content.ErrUnavailable), "got %v", err)
}

func TestPaginatedApplyRedrawsAndSettles(t *testing.T) {
	h := hosttest.New()
	h.AddFile("/book.pdf", 300)
	p := singlePane(t, h, content.Unit{})

	var slept []time.Duration
	r := content.NewRegistry(
		content.WithSettleDelay(40*time.Millisecond),
		content.WithSleep(func(d time.Duration) { slept = append(slept, d) }),
	)
	d := snapshot.PaginatedDocument("/book.pdf", 9, nil, nil)
	handler, _ := r.Handler(d.Kind)
	u, err := handler.Restore(h, d)
	require.NoError(t, err)
	require.NoError(t, h.Attach(p, u))

	h.Calls = nil
	require.NoError(t, handler.ApplyPostLayout(h, p, d, snapshot.Leaf{Content: d, Cursor: 77, ViewStart: 12}))

	assert.Equal(t, []string{"page " + string(p) + " 9", "redraw " + string(p)}, h.Calls)
	assert.Equal(t, []time.Duration{40 * time.Millisecond}, slept)
}

func TestNamedSurfaceUsesProducerThenLocate(t *testing.T) {
	h := hosttest.New()
	h.AddNamed(content.Unit{Kind: snapshot.KindNamedSurface, Name: "scratch", NamedKind: "shell"})

	produced := 0
	r := content.NewRegistry(content.WithProducer("agenda", func(name string) (content.Unit, error) {
		produced++
		return content.Unit{Kind: snapshot.KindNamedSurface, Name: name, NamedKind: "agenda"}, nil
	}))
	handler, _ := r.Handler(snapshot.KindNamedSurface)

	u, err := handler.Restore(h, snapshot.NamedSurface("week", "agenda"))
	require.NoError(t, err)
	assert.Equal(t, "week", u.Name)
	assert.Equal(t, 1, produced)

	u, err = handler.Restore(h, snapshot.NamedSurface("scratch", "shell"))
	require.NoError(t, err)
	assert.Equal(t, "scratch", u.Name)

	_, err = handler.Restore(h, snapshot.NamedSurface("nowhere", "shell"))
	assert.ErrorIs(t, err, content.ErrUnavailable)
}

func TestRestorable(t *testing.T) {
	r := content.NewRegistry()
	r.RegisterProducer("agenda", func(string) (content.Unit, error) { return content.Unit{}, nil })

	assert.True(t, r.Restorable(content.Unit{Kind: snapshot.KindFile, Path: "/a"}))
	assert.True(t, r.Restorable(content.Unit{Kind: snapshot.KindNamedSurface, Name: "x", NamedKind: "agenda"}))
	assert.False(t, r.Restorable(content.Unit{Kind: snapshot.KindNamedSurface, Name: "x", NamedKind: "htop"}))
	assert.False(t, r.Restorable(content.Unit{}))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0, content.Clamp(-3, 10))
	assert.Equal(t, 5, content.Clamp(5, 10))
	assert.Equal(t, 10, content.Clamp(50, 10))
}
